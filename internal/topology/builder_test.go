package topology

import (
	"errors"
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustPrefix(t *testing.T, s string) netip.Prefix {
	t.Helper()
	p, err := netip.ParsePrefix(s)
	require.NoError(t, err)
	return p
}

// buildCampus creates a site with two locations, a router, a patch panel and
// a switch cabled router -> panel front -> panel rear -> switch.
func buildCampus(t *testing.T) *Topology {
	t.Helper()
	b := NewBuilder()

	b.AppendDeviceType(NewDeviceType(1, "RB5009", true))
	b.AppendDeviceType(NewDeviceType(2, "Patch 24", false))

	_, site := b.AppendSite(7, "HQ", "Main Street 1\n\n  8000 Zurich \n")
	site.AppendLocation(70, "Server Room")
	site.AppendLocation(71, "Office")

	routerIdx, router := b.AppendDevice(10, "core-1", true)
	router.SetDeviceType(1)
	router.SetSite(7)
	router.SetLocation(70)
	router.SetCategory(CategoryRouter)
	router.AppendInterface(100, "lo", mustPrefix(t, "10.0.0.1/32"), mustPrefix(t, "fd00::1/128"), true)
	routerEth := router.AppendInterface(101, "ether1", mustPrefix(t, "192.0.2.1/24"), netip.Prefix{}, false)

	panelIdx, panel := b.AppendDevice(20, "pp-1", false)
	panel.SetDeviceType(2)
	panel.SetLocation(70)
	panel.SetCategory(CategoryPatchPanel)
	rear := panel.AppendRearPort(200, "rear-1")
	front, err := panel.AppendFrontPort(201, "front-1", rear)
	require.NoError(t, err)

	switchIdx, sw := b.AppendDevice(30, "sw-1", false)
	sw.SetDeviceType(2)
	sw.SetLocation(71)
	sw.SetCategory(CategorySwitch)
	swPort := sw.AppendInterface(300, "port1", netip.Prefix{}, netip.Prefix{}, false)

	lb := b.AppendLink()
	_, err = lb.AppendSegment(routerIdx, routerEth, panelIdx, front)
	require.NoError(t, err)
	_, err = lb.AppendSegment(panelIdx, rear, switchIdx, swPort)
	require.NoError(t, err)
	require.Equal(t, 0, lb.Build())

	topo, err := b.Build()
	require.NoError(t, err)
	return topo
}

func TestBuild_RoundTrip(t *testing.T) {
	b := NewBuilder()
	b.AppendDeviceType(NewDeviceType(1, "RB", true))
	_, d := b.AppendDevice(10, "r1", true)
	d.SetDeviceType(1)
	d.AppendInterface(100, "lo", mustPrefix(t, "10.0.0.1/32"), netip.Prefix{}, true)

	topo, err := b.Build()
	require.NoError(t, err)

	dev, ok := topo.DeviceByID(10)
	require.True(t, ok)
	assert.Equal(t, "r1", dev.Name())
	assert.True(t, dev.HasRouterOS())
	assert.Equal(t, "RB", dev.DeviceType().Name())

	addr, ok := dev.LoopbackAddress()
	require.True(t, ok)
	assert.Equal(t, netip.MustParseAddr("10.0.0.1"), addr)

	_, ok = dev.Location()
	assert.False(t, ok)
	_, ok = dev.Site()
	assert.False(t, ok)
}

func TestBuild_IndexMapsAreInverse(t *testing.T) {
	topo := buildCampus(t)

	for _, d := range topo.Devices() {
		got, ok := topo.DeviceByID(d.ID())
		require.True(t, ok)
		assert.Equal(t, d.Index(), got.Index())
	}
	for _, s := range topo.Sites() {
		got, ok := topo.SiteByID(s.ID())
		require.True(t, ok)
		assert.Equal(t, s.Index(), got.Index())
	}
	for _, l := range topo.Locations() {
		got, ok := topo.LocationByID(l.ID())
		require.True(t, ok)
		assert.Equal(t, l.Index(), got.Index())
	}
	for _, dt := range topo.DeviceTypes() {
		got, ok := topo.DeviceTypeByID(dt.ID())
		require.True(t, ok)
		assert.Equal(t, dt.Index(), got.Index())
	}
}

func TestBuild_ReferencesAreInRange(t *testing.T) {
	topo := buildCampus(t)
	s := topo.Summary()

	for _, d := range topo.Devices() {
		dev := d.Device()
		assert.GreaterOrEqual(t, dev.DeviceType(), 0)
		assert.Less(t, dev.DeviceType(), s.DeviceTypes)
		if idx, ok := dev.Location(); ok {
			assert.Less(t, idx, s.Locations)
		}
		if idx, ok := dev.Site(); ok {
			assert.Less(t, idx, s.Sites)
		}
		for _, p := range dev.Ports() {
			if p.Kind == PortFront {
				assert.Equal(t, PortRear, dev.Ports()[p.RearPort].Kind)
			}
		}
	}

	for i := 0; i < topo.LinkCount(); i++ {
		link, ok := topo.Link(i)
		require.True(t, ok)
		path := link.Path()
		require.NotEmpty(t, path)
		for j, seg := range path {
			_, ok := topo.Port(seg.Left)
			assert.True(t, ok)
			_, ok = topo.Port(seg.Right)
			assert.True(t, ok)
			if j > 0 {
				assert.Equal(t, path[j-1].Right.Device, seg.Left.Device)
			}
		}
	}
}

func TestBuild_Summary(t *testing.T) {
	topo := buildCampus(t)
	s := topo.Summary()

	assert.Equal(t, 2, s.DeviceTypes)
	assert.Equal(t, 3, s.Devices)
	assert.Equal(t, 5, s.Ports)
	assert.Equal(t, 1, s.Links)
	assert.Equal(t, 1, s.Sites)
	assert.Equal(t, 2, s.Locations)
	assert.False(t, s.BuiltAt.IsZero())
}

func TestBuild_SitesAndLocations(t *testing.T) {
	topo := buildCampus(t)

	site, ok := topo.SiteByID(7)
	require.True(t, ok)
	assert.Equal(t, []string{"Main Street 1", "8000 Zurich"}, site.AddressLines())

	locs := site.Locations()
	require.Len(t, locs, 2)
	assert.Equal(t, "Server Room", locs[0].Name())
	assert.Equal(t, "Office", locs[1].Name())

	owner, ok := locs[0].Site()
	require.True(t, ok)
	assert.Equal(t, uint32(7), owner.ID())

	names := func(refs []DeviceRef) []string {
		out := make([]string, len(refs))
		for i, r := range refs {
			out[i] = r.Name()
		}
		return out
	}
	assert.Equal(t, []string{"core-1", "pp-1"}, names(locs[0].Devices()))
	assert.Equal(t, []string{"sw-1"}, names(locs[1].Devices()))
	assert.Equal(t, []string{"core-1"}, names(site.Devices()))

	dt, ok := topo.DeviceTypeByID(2)
	require.True(t, ok)
	assert.Equal(t, []string{"pp-1", "sw-1"}, names(dt.Devices()))
}

func TestBuild_StandaloneLocation(t *testing.T) {
	b := NewBuilder()
	b.AppendDeviceType(NewDeviceType(1, "RB", false))
	siteIdx, _ := b.AppendSite(1, "Annex", "")
	loc := b.AppendLocation(5, "Closet")
	b.AppendLocation(6, "Attic")
	b.SetSiteOfLocation(loc, siteIdx)
	b.SetSiteOfLocation(42, siteIdx)

	topo, err := b.Build()
	require.NoError(t, err)

	closet, ok := topo.LocationByID(5)
	require.True(t, ok)
	site, ok := closet.Site()
	require.True(t, ok)
	assert.Equal(t, "Annex", site.Name())

	attic, ok := topo.LocationByID(6)
	require.True(t, ok)
	_, ok = attic.Site()
	assert.False(t, ok)
}

func TestBuild_LocationWithUnknownSiteIndex(t *testing.T) {
	b := NewBuilder()
	loc := b.AppendLocation(5, "Closet")
	b.SetSiteOfLocation(loc, 3)

	topo, err := b.Build()
	require.NoError(t, err)

	closet, ok := topo.LocationByID(5)
	require.True(t, ok)
	_, ok = closet.Site()
	assert.False(t, ok)
}

func TestBuild_UnknownLocationIsDropped(t *testing.T) {
	b := NewBuilder()
	b.AppendDeviceType(NewDeviceType(1, "RB", false))
	_, d := b.AppendDevice(10, "r1", false)
	d.SetDeviceType(1)
	d.SetLocation(5)
	d.SetSite(6)

	topo, err := b.Build()
	require.NoError(t, err)

	dev, ok := topo.DeviceByID(10)
	require.True(t, ok)
	_, ok = dev.Location()
	assert.False(t, ok)
	_, ok = dev.Site()
	assert.False(t, ok)
}

func TestBuild_MissingDeviceType(t *testing.T) {
	tests := []struct {
		name  string
		setup func(d *DeviceBuilder)
		unset bool
	}{
		{name: "unknown type", setup: func(d *DeviceBuilder) { d.SetDeviceType(99) }},
		{name: "unset type", setup: func(*DeviceBuilder) {}, unset: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBuilder()
			b.AppendDeviceType(NewDeviceType(1, "RB", false))
			_, d := b.AppendDevice(10, "r1", false)
			tt.setup(d)

			topo, err := b.Build()
			assert.Nil(t, topo)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidTopology)

			var mdt *MissingDeviceTypeError
			require.True(t, errors.As(err, &mdt))
			assert.Equal(t, uint32(10), mdt.DeviceID)
			assert.Equal(t, tt.unset, mdt.Unset)
			if !tt.unset {
				assert.Equal(t, uint32(99), mdt.DeviceType)
			}
		})
	}
}

func TestBuild_DuplicateIDFirstWins(t *testing.T) {
	b := NewBuilder()
	b.AppendDeviceType(NewDeviceType(1, "RB", false))
	_, first := b.AppendDevice(10, "first", false)
	first.SetDeviceType(1)
	_, second := b.AppendDevice(10, "second", false)
	second.SetDeviceType(1)

	topo, err := b.Build()
	require.NoError(t, err)

	assert.Len(t, topo.Devices(), 2)
	dev, ok := topo.DeviceByID(10)
	require.True(t, ok)
	assert.Equal(t, "first", dev.Name())
}

func TestDeviceBuilder_AppendFrontPort(t *testing.T) {
	b := NewBuilder()
	_, d := b.AppendDevice(1, "pp", false)
	iface := d.AppendInterface(1, "eth0", netip.Prefix{}, netip.Prefix{}, false)
	rear := d.AppendRearPort(2, "rear")

	_, err := d.AppendFrontPort(3, "front", rear)
	require.NoError(t, err)

	_, err = d.AppendFrontPort(4, "bad", iface)
	assert.ErrorIs(t, err, ErrInvalidRearPort)

	_, err = d.AppendFrontPort(5, "bad", 17)
	assert.ErrorIs(t, err, ErrInvalidRearPort)

	assert.Equal(t, 3, d.PortCount())
}

func TestDeviceBuilder_AppendInterfaceDropsWrongFamily(t *testing.T) {
	b := NewBuilder()
	b.AppendDeviceType(NewDeviceType(1, "RB", false))
	_, d := b.AppendDevice(1, "r", false)
	d.SetDeviceType(1)
	d.AppendInterface(1, "eth0", mustPrefix(t, "fd00::1/64"), mustPrefix(t, "10.0.0.1/24"), false)

	topo, err := b.Build()
	require.NoError(t, err)

	dev, _ := topo.DeviceByID(1)
	port := dev.Device().Ports()[0]
	assert.False(t, port.V4.IsValid())
	assert.False(t, port.V6.IsValid())
	assert.Empty(t, port.Prefixes())
}

func TestDevice_LoopbackPrefersIPv6(t *testing.T) {
	topo := buildCampus(t)
	dev, ok := topo.DeviceByID(10)
	require.True(t, ok)

	addr, ok := dev.LoopbackAddress()
	require.True(t, ok)
	assert.Equal(t, netip.MustParseAddr("fd00::1"), addr)

	sw, _ := topo.DeviceByID(30)
	_, ok = sw.LoopbackAddress()
	assert.False(t, ok)
}

func TestParseDeviceCategory(t *testing.T) {
	tests := []struct {
		slug    string
		want    DeviceCategory
		canPing bool
	}{
		{"switch", CategorySwitch, true},
		{"Router", CategoryRouter, true},
		{"user-device", CategoryUserDevice, true},
		{"patch-panel", CategoryPatchPanel, false},
		{"server", CategoryServer, true},
		{"wall-connector", CategoryWallConnector, false},
		{"toaster", CategoryUnknown, false},
		{"", CategoryUnknown, false},
	}

	for _, tt := range tests {
		t.Run(tt.slug, func(t *testing.T) {
			got := ParseDeviceCategory(tt.slug)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.canPing, got.CanPing())
		})
	}
}
