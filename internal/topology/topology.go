package topology

import "time"

// Topology is one immutable snapshot of the inventory graph. Entities live in
// per-kind arenas and reference each other by arena index. A snapshot is never
// modified after Build, so any number of goroutines may read it concurrently.
type Topology struct {
	deviceTypes []*DeviceType
	devices     []*Device
	links       []*Link
	sites       []*Site
	locations   []*Location

	linkIndex       map[PortIdx]int
	deviceIndex     map[uint32]int
	siteIndex       map[uint32]int
	locationIndex   map[uint32]int
	deviceTypeIndex map[uint32]int

	builtAt time.Time
}

// Summary counts the entities of a snapshot.
type Summary struct {
	DeviceTypes int       `json:"deviceTypes"`
	Devices     int       `json:"devices"`
	Ports       int       `json:"ports"`
	Links       int       `json:"links"`
	Sites       int       `json:"sites"`
	Locations   int       `json:"locations"`
	BuiltAt     time.Time `json:"builtAt"`
}

// Summary returns the entity counts of the snapshot.
func (t *Topology) Summary() Summary {
	ports := 0
	for _, d := range t.devices {
		ports += len(d.ports)
	}
	return Summary{
		DeviceTypes: len(t.deviceTypes),
		Devices:     len(t.devices),
		Ports:       ports,
		Links:       len(t.links),
		Sites:       len(t.sites),
		Locations:   len(t.locations),
		BuiltAt:     t.builtAt,
	}
}

// BuiltAt returns when the snapshot was assembled.
func (t *Topology) BuiltAt() time.Time { return t.builtAt }

// Device returns the device at arena index idx.
func (t *Topology) Device(idx int) (DeviceRef, bool) {
	if idx < 0 || idx >= len(t.devices) {
		return DeviceRef{}, false
	}
	return DeviceRef{topo: t, idx: idx}, true
}

// DeviceByID returns the device with the given inventory id.
func (t *Topology) DeviceByID(id uint32) (DeviceRef, bool) {
	idx, ok := t.deviceIndex[id]
	if !ok {
		return DeviceRef{}, false
	}
	return t.Device(idx)
}

// Devices lists all devices in arena order.
func (t *Topology) Devices() []DeviceRef {
	return t.DevicesFiltered(func(DeviceRef) bool { return true })
}

// DevicesFiltered lists the devices accepted by keep, in arena order.
func (t *Topology) DevicesFiltered(keep func(DeviceRef) bool) []DeviceRef {
	out := make([]DeviceRef, 0, len(t.devices))
	for idx := range t.devices {
		ref := DeviceRef{topo: t, idx: idx}
		if keep(ref) {
			out = append(out, ref)
		}
	}
	return out
}

// MapDevices converts every device with fn, dropping those for which fn
// reports false.
func MapDevices[T any](t *Topology, fn func(DeviceRef) (T, bool)) []T {
	out := make([]T, 0, len(t.devices))
	for idx := range t.devices {
		if v, ok := fn(DeviceRef{topo: t, idx: idx}); ok {
			out = append(out, v)
		}
	}
	return out
}

// Site returns the site at arena index idx.
func (t *Topology) Site(idx int) (SiteRef, bool) {
	if idx < 0 || idx >= len(t.sites) {
		return SiteRef{}, false
	}
	return SiteRef{topo: t, idx: idx}, true
}

// SiteByID returns the site with the given inventory id.
func (t *Topology) SiteByID(id uint32) (SiteRef, bool) {
	idx, ok := t.siteIndex[id]
	if !ok {
		return SiteRef{}, false
	}
	return t.Site(idx)
}

// Sites lists all sites in arena order.
func (t *Topology) Sites() []SiteRef {
	out := make([]SiteRef, len(t.sites))
	for idx := range t.sites {
		out[idx] = SiteRef{topo: t, idx: idx}
	}
	return out
}

// MapSites converts every site with fn, dropping those for which fn reports false.
func MapSites[T any](t *Topology, fn func(SiteRef) (T, bool)) []T {
	out := make([]T, 0, len(t.sites))
	for idx := range t.sites {
		if v, ok := fn(SiteRef{topo: t, idx: idx}); ok {
			out = append(out, v)
		}
	}
	return out
}

// Location returns the location at arena index idx.
func (t *Topology) Location(idx int) (LocationRef, bool) {
	if idx < 0 || idx >= len(t.locations) {
		return LocationRef{}, false
	}
	return LocationRef{topo: t, idx: idx}, true
}

// LocationByID returns the location with the given inventory id.
func (t *Topology) LocationByID(id uint32) (LocationRef, bool) {
	idx, ok := t.locationIndex[id]
	if !ok {
		return LocationRef{}, false
	}
	return t.Location(idx)
}

// Locations lists all locations in arena order.
func (t *Topology) Locations() []LocationRef {
	out := make([]LocationRef, len(t.locations))
	for idx := range t.locations {
		out[idx] = LocationRef{topo: t, idx: idx}
	}
	return out
}

// MapLocations converts every location with fn, dropping those for which fn
// reports false.
func MapLocations[T any](t *Topology, fn func(LocationRef) (T, bool)) []T {
	out := make([]T, 0, len(t.locations))
	for idx := range t.locations {
		if v, ok := fn(LocationRef{topo: t, idx: idx}); ok {
			out = append(out, v)
		}
	}
	return out
}

// DeviceType returns the device type at arena index idx.
func (t *Topology) DeviceType(idx int) (DeviceTypeRef, bool) {
	if idx < 0 || idx >= len(t.deviceTypes) {
		return DeviceTypeRef{}, false
	}
	return DeviceTypeRef{topo: t, idx: idx}, true
}

// DeviceTypeByID returns the device type with the given inventory id.
func (t *Topology) DeviceTypeByID(id uint32) (DeviceTypeRef, bool) {
	idx, ok := t.deviceTypeIndex[id]
	if !ok {
		return DeviceTypeRef{}, false
	}
	return t.DeviceType(idx)
}

// DeviceTypes lists all device types in arena order.
func (t *Topology) DeviceTypes() []DeviceTypeRef {
	out := make([]DeviceTypeRef, len(t.deviceTypes))
	for idx := range t.deviceTypes {
		out[idx] = DeviceTypeRef{topo: t, idx: idx}
	}
	return out
}

// Link returns the link at arena index idx.
func (t *Topology) Link(idx int) (*Link, bool) {
	if idx < 0 || idx >= len(t.links) {
		return nil, false
	}
	return t.links[idx], true
}

// LinkCount returns the number of links in the snapshot.
func (t *Topology) LinkCount() int { return len(t.links) }

// Port resolves a PortIdx to a port reference.
func (t *Topology) Port(p PortIdx) (DevicePortRef, bool) {
	dev, ok := t.Device(p.Device)
	if !ok {
		return DevicePortRef{}, false
	}
	return dev.Port(p.Port)
}
