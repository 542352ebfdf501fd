package inventory

import (
	"fmt"
	"net/netip"

	"github.com/rs/zerolog"

	"github.com/kneutral-org/inventory-dashboard/internal/topology"
)

// DefaultRouterOSTag is the device type tag slug that marks RouterOS hardware.
const DefaultRouterOSTag = "routeros"

// Converter turns an Inventory into a topology snapshot.
type Converter struct {
	routerOSTag string
	logger      zerolog.Logger
}

// ConverterOption configures a Converter.
type ConverterOption func(*Converter)

// WithRouterOSTag overrides the tag slug that marks RouterOS device types.
func WithRouterOSTag(slug string) ConverterOption {
	return func(c *Converter) {
		if slug != "" {
			c.routerOSTag = slug
		}
	}
}

// WithLogger sets the logger for tolerated inconsistencies in the records.
func WithLogger(logger zerolog.Logger) ConverterOption {
	return func(c *Converter) {
		c.logger = logger
	}
}

// NewConverter creates a Converter.
func NewConverter(opts ...ConverterOption) *Converter {
	c := &Converter{
		routerOSTag: DefaultRouterOSTag,
		logger:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With().Str("component", "inventory").Logger()
	return c
}

// Build converts inv into a snapshot. Device types come first, then devices
// with their ports, then sites and locations, then cable paths.
func (c *Converter) Build(inv *Inventory) (*topology.Topology, error) {
	b := topology.NewBuilder(topology.WithBuilderLogger(c.logger))

	routerOS := make(map[uint32]bool, len(inv.DeviceTypes))
	for _, dt := range inv.DeviceTypes {
		has := dt.HasTag(c.routerOSTag)
		b.AppendDeviceType(topology.NewDeviceType(dt.ID, dt.Model, has))
		if _, seen := routerOS[dt.ID]; !seen {
			routerOS[dt.ID] = has
		}
	}

	ports := newPortIndex(c.logger)
	for i := range inv.Devices {
		if err := c.appendDevice(b, ports, &inv.Devices[i], routerOS); err != nil {
			return nil, err
		}
	}

	sitePositions := make(map[uint32]int, len(inv.Sites))
	for _, s := range inv.Sites {
		pos, sb := b.AppendSite(s.ID, s.Name, s.Address)
		if _, seen := sitePositions[s.ID]; !seen {
			sitePositions[s.ID] = pos
		}
		for _, l := range s.Locations {
			sb.AppendLocation(l.ID, l.Name)
		}
	}
	for _, l := range inv.Locations {
		idx := b.AppendLocation(l.ID, l.Name)
		if l.Site == nil {
			continue
		}
		pos, ok := sitePositions[*l.Site]
		if !ok {
			c.logger.Debug().Uint32("location", l.ID).Uint32("site", *l.Site).Msg("location references unknown site")
			continue
		}
		b.SetSiteOfLocation(idx, pos)
	}

	paths, err := ports.trace(inv.Cables)
	if err != nil {
		return nil, err
	}
	for _, path := range paths {
		lb := b.AppendLink()
		for _, seg := range path {
			if _, err := lb.AppendSegment(seg.Left.Device, seg.Left.Port, seg.Right.Device, seg.Right.Port); err != nil {
				return nil, fmt.Errorf("append cable path: %w", err)
			}
		}
		lb.Build()
	}

	return b.Build()
}

func (c *Converter) appendDevice(b *topology.TopologyBuilder, ports *portIndex, d *Device, routerOS map[uint32]bool) error {
	devIdx, db := b.AppendDevice(d.ID, d.Name, routerOS[d.DeviceType])
	db.SetDeviceType(d.DeviceType)
	db.SetCategory(topology.ParseDeviceCategory(d.Role))
	if d.Site != nil {
		db.SetSite(*d.Site)
	}
	if d.Location != nil {
		db.SetLocation(*d.Location)
	}

	for _, iface := range d.Interfaces {
		v4, v6, loopback := c.addresses(d.ID, iface)
		portIdx := db.AppendInterface(iface.ID, iface.Name, v4, v6, loopback)
		ports.add(TerminationInterface, iface.ID, topology.PortIdx{Device: devIdx, Port: portIdx})
	}

	rears := make(map[uint32]int, len(d.RearPorts))
	appendRear := func(rp RearPort) int {
		portIdx := db.AppendRearPort(rp.ID, rp.Name)
		rears[rp.ID] = portIdx
		ports.add(TerminationRearPort, rp.ID, topology.PortIdx{Device: devIdx, Port: portIdx})
		return portIdx
	}
	for _, rp := range d.RearPorts {
		if _, seen := rears[rp.ID]; !seen {
			appendRear(rp)
		}
	}

	for _, fp := range d.FrontPorts {
		rearIdx, ok := rears[fp.RearPort.ID]
		if !ok {
			rearIdx = appendRear(fp.RearPort)
		}
		portIdx, err := db.AppendFrontPort(fp.ID, fp.Name, rearIdx)
		if err != nil {
			return fmt.Errorf("device %d: %w", d.ID, err)
		}
		front := topology.PortIdx{Device: devIdx, Port: portIdx}
		ports.add(TerminationFrontPort, fp.ID, front)
		ports.passThrough(front, topology.PortIdx{Device: devIdx, Port: rearIdx})
	}
	return nil
}

// addresses picks the interface addresses. The last parseable address of each
// family wins; any address with the loopback role marks the interface.
func (c *Converter) addresses(deviceID uint32, iface Interface) (v4, v6 netip.Prefix, loopback bool) {
	for _, a := range iface.IPAddresses {
		if a.Role == RoleLoopback {
			loopback = true
		}
		prefix, err := netip.ParsePrefix(a.Address)
		if err != nil {
			c.logger.Debug().
				Uint32("device", deviceID).
				Uint32("interface", iface.ID).
				Str("address", a.Address).
				Msg("ignoring unparseable address")
			continue
		}
		if prefix.Addr().Is4() {
			v4 = prefix
		} else {
			v6 = prefix
		}
	}
	return v4, v6, loopback
}
