package topology

import "strings"

// DeviceType is the model of a device.
type DeviceType struct {
	id          uint32
	name        string
	hasRouterOS bool
}

// NewDeviceType creates a device type record for TopologyBuilder.AppendDeviceType.
func NewDeviceType(id uint32, name string, hasRouterOS bool) DeviceType {
	return DeviceType{id: id, name: name, hasRouterOS: hasRouterOS}
}

func (t *DeviceType) ID() uint32        { return t.id }
func (t *DeviceType) Name() string      { return t.name }
func (t *DeviceType) HasRouterOS() bool { return t.hasRouterOS }

// Location is a room or area holding devices, optionally owned by a site.
type Location struct {
	id      uint32
	name    string
	site    int
	devices []int
}

func (l *Location) ID() uint32   { return l.id }
func (l *Location) Name() string { return l.name }

// Site returns the arena index of the owning site, if any.
func (l *Location) Site() (int, bool) { return l.site, l.site >= 0 }

// Devices returns the arena indices of devices placed here.
func (l *Location) Devices() []int { return l.devices }

type locationRecord struct {
	id   uint32
	name string
	site int
}

// Site is a campus or building with a free-text postal address.
type Site struct {
	id        uint32
	name      string
	address   string
	locations []int
}

func (s *Site) ID() uint32      { return s.id }
func (s *Site) Name() string    { return s.name }
func (s *Site) Address() string { return s.address }

// Locations returns the arena indices of the site's locations in ascending order.
func (s *Site) Locations() []int { return s.locations }

// AddressLines splits the address into trimmed, non-empty lines.
func (s *Site) AddressLines() []string {
	lines := make([]string, 0, 4)
	for _, line := range strings.Split(s.address, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// SiteBuilder collects a site and the locations it declares.
type SiteBuilder struct {
	id        uint32
	name      string
	address   string
	locations []locationRecord
}

func (b *SiteBuilder) ID() uint32 { return b.id }

// AppendLocation declares a location belonging to this site.
func (b *SiteBuilder) AppendLocation(id uint32, name string) {
	b.locations = append(b.locations, locationRecord{id: id, name: name, site: -1})
}
