package topology

import (
	"time"

	"github.com/rs/zerolog"
)

// TopologyBuilder stages raw, possibly forward-referencing records. References
// by id are resolved once, in Build.
type TopologyBuilder struct {
	deviceTypes []DeviceType
	devices     []*DeviceBuilder
	links       []*Link
	sites       []*SiteBuilder
	locations   []locationRecord
	logger      zerolog.Logger
	now         func() time.Time
}

// BuilderOption configures a TopologyBuilder.
type BuilderOption func(*TopologyBuilder)

// WithBuilderLogger sets the logger used to report tolerated inconsistencies.
func WithBuilderLogger(logger zerolog.Logger) BuilderOption {
	return func(b *TopologyBuilder) {
		b.logger = logger
	}
}

// NewBuilder creates an empty TopologyBuilder.
func NewBuilder(opts ...BuilderOption) *TopologyBuilder {
	b := &TopologyBuilder{
		logger: zerolog.Nop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// AppendDeviceType appends a device type and returns its builder position.
func (b *TopologyBuilder) AppendDeviceType(t DeviceType) int {
	b.deviceTypes = append(b.deviceTypes, t)
	return len(b.deviceTypes) - 1
}

// AppendDevice appends a device and returns its device index together with
// the builder used to append its ports and references.
func (b *TopologyBuilder) AppendDevice(id uint32, name string, hasRouterOS bool) (int, *DeviceBuilder) {
	d := &DeviceBuilder{id: id, name: name, hasRouterOS: hasRouterOS}
	b.devices = append(b.devices, d)
	return len(b.devices) - 1, d
}

// DeviceCount returns the number of devices appended so far.
func (b *TopologyBuilder) DeviceCount() int { return len(b.devices) }

// AppendLink starts a new link. Segments may only reference devices and
// ports appended before the segment itself.
func (b *TopologyBuilder) AppendLink() *LinkBuilder {
	return &LinkBuilder{topo: b}
}

// AppendSite appends a site and returns the builder used to declare its locations.
func (b *TopologyBuilder) AppendSite(id uint32, name, address string) (int, *SiteBuilder) {
	s := &SiteBuilder{id: id, name: name, address: address}
	b.sites = append(b.sites, s)
	return len(b.sites) - 1, s
}

// AppendLocation appends a location that is not declared by a site. It comes
// before all site-declared locations in the built snapshot.
func (b *TopologyBuilder) AppendLocation(id uint32, name string) int {
	b.locations = append(b.locations, locationRecord{id: id, name: name, site: -1})
	return len(b.locations) - 1
}

// SetSiteOfLocation attaches a standalone location to a site by positions.
// Unknown locations are ignored.
func (b *TopologyBuilder) SetSiteOfLocation(location, site int) {
	if location < 0 || location >= len(b.locations) {
		b.logger.Warn().Int("location", location).Msg("location not found")
		return
	}
	b.locations[location].site = site
}

// Build resolves all references and returns the immutable snapshot. The
// builder must not be used afterwards.
func (b *TopologyBuilder) Build() (*Topology, error) {
	t := &Topology{builtAt: b.now()}

	t.deviceTypes = make([]*DeviceType, 0, len(b.deviceTypes))
	t.deviceTypeIndex = make(map[uint32]int, len(b.deviceTypes))
	for i := range b.deviceTypes {
		dt := b.deviceTypes[i]
		b.index(t.deviceTypeIndex, "device_type", dt.id, len(t.deviceTypes))
		t.deviceTypes = append(t.deviceTypes, &dt)
	}

	// Site-declared locations follow the standalone ones.
	records := append([]locationRecord(nil), b.locations...)
	for siteIdx, s := range b.sites {
		for _, rec := range s.locations {
			rec.site = siteIdx
			records = append(records, rec)
		}
	}
	t.locations = make([]*Location, 0, len(records))
	t.locationIndex = make(map[uint32]int, len(records))
	for _, rec := range records {
		site := rec.site
		if site >= len(b.sites) {
			b.logger.Warn().Uint32("location", rec.id).Int("site", site).Msg("location references unknown site")
			site = -1
		}
		b.index(t.locationIndex, "location", rec.id, len(t.locations))
		t.locations = append(t.locations, &Location{id: rec.id, name: rec.name, site: site})
	}
	for devIdx, d := range b.devices {
		if d.locationID == nil {
			continue
		}
		if locIdx, ok := t.locationIndex[*d.locationID]; ok {
			loc := t.locations[locIdx]
			loc.devices = append(loc.devices, devIdx)
		}
	}

	t.sites = make([]*Site, 0, len(b.sites))
	t.siteIndex = make(map[uint32]int, len(b.sites))
	for _, s := range b.sites {
		b.index(t.siteIndex, "site", s.id, len(t.sites))
		t.sites = append(t.sites, &Site{id: s.id, name: s.name, address: s.address})
	}
	for locIdx, loc := range t.locations {
		if loc.site >= 0 {
			site := t.sites[loc.site]
			site.locations = append(site.locations, locIdx)
		}
	}

	t.devices = make([]*Device, 0, len(b.devices))
	t.deviceIndex = make(map[uint32]int, len(b.devices))
	for _, db := range b.devices {
		d, err := db.build(t.locationIndex, t.siteIndex, t.deviceTypeIndex)
		if err != nil {
			return nil, err
		}
		if db.locationID != nil && d.location < 0 {
			b.logger.Debug().Uint32("device", d.id).Uint32("location", *db.locationID).Msg("device references unknown location")
		}
		if db.siteID != nil && d.site < 0 {
			b.logger.Debug().Uint32("device", d.id).Uint32("site", *db.siteID).Msg("device references unknown site")
		}
		b.index(t.deviceIndex, "device", d.id, len(t.devices))
		t.devices = append(t.devices, d)
	}

	t.links = make([]*Link, 0, len(b.links))
	t.linkIndex = make(map[PortIdx]int)
	for linkIdx, l := range b.links {
		for _, seg := range l.path {
			for _, p := range [2]PortIdx{seg.Left, seg.Right} {
				if _, taken := t.linkIndex[p]; !taken {
					t.linkIndex[p] = linkIdx
				}
			}
		}
		t.links = append(t.links, l)
	}

	return t, nil
}

// index records id at position unless the id is already taken, in which case
// the first entity keeps it.
func (b *TopologyBuilder) index(m map[uint32]int, kind string, id uint32, position int) {
	if prev, ok := m[id]; ok {
		b.logger.Warn().
			Str("kind", kind).
			Uint32("id", id).
			Int("kept", prev).
			Int("ignored", position).
			Msg("duplicate id in inventory")
		return
	}
	m[id] = position
}
