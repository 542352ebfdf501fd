package topology

import "net/netip"

// The reference types below pair a snapshot with an arena index. Entities
// never point back at their snapshot; navigation goes through these handles.
// A zero reference is invalid and must not be used.

// DeviceRef is a handle on one device of a snapshot.
type DeviceRef struct {
	topo *Topology
	idx  int
}

// Topology returns the snapshot the reference points into.
func (r DeviceRef) Topology() *Topology { return r.topo }

// Index returns the arena index of the device.
func (r DeviceRef) Index() int { return r.idx }

// Device returns the referenced device record.
func (r DeviceRef) Device() *Device { return r.topo.devices[r.idx] }

// ID returns the inventory id of the device.
func (r DeviceRef) ID() uint32 { return r.Device().id }

// Name returns the device name.
func (r DeviceRef) Name() string { return r.Device().name }

// HasRouterOS reports whether the device runs RouterOS.
func (r DeviceRef) HasRouterOS() bool { return r.Device().hasRouterOS }

// Category returns the device role.
func (r DeviceRef) Category() DeviceCategory { return r.Device().category }

// CanPing reports whether the device category answers reachability checks.
func (r DeviceRef) CanPing() bool { return r.Device().category.CanPing() }

// LoopbackAddress returns the device loopback address, if one is configured.
func (r DeviceRef) LoopbackAddress() (netip.Addr, bool) {
	return r.Device().LoopbackAddress()
}

// Ports returns references to all ports of the device in source order.
func (r DeviceRef) Ports() []DevicePortRef {
	ports := r.Device().ports
	out := make([]DevicePortRef, len(ports))
	for i := range ports {
		out[i] = DevicePortRef{device: r, idx: i}
	}
	return out
}

// Port returns the port at index idx of the device.
func (r DeviceRef) Port(idx int) (DevicePortRef, bool) {
	if idx < 0 || idx >= len(r.Device().ports) {
		return DevicePortRef{}, false
	}
	return DevicePortRef{device: r, idx: idx}, true
}

// Location returns the location the device is placed in.
func (r DeviceRef) Location() (LocationRef, bool) {
	idx, ok := r.Device().Location()
	if !ok {
		return LocationRef{}, false
	}
	return r.topo.Location(idx)
}

// Site returns the site the device belongs to.
func (r DeviceRef) Site() (SiteRef, bool) {
	idx, ok := r.Device().Site()
	if !ok {
		return SiteRef{}, false
	}
	return r.topo.Site(idx)
}

// DeviceType returns the device model. Every built device has one.
func (r DeviceRef) DeviceType() DeviceTypeRef {
	return DeviceTypeRef{topo: r.topo, idx: r.Device().deviceType}
}

// DevicePortRef is a handle on one port of a device.
type DevicePortRef struct {
	device DeviceRef
	idx    int
}

// Device returns the device owning the port.
func (p DevicePortRef) Device() DeviceRef { return p.device }

// Index returns the position of the port within its device.
func (p DevicePortRef) Index() int { return p.idx }

// Port returns the referenced port record.
func (p DevicePortRef) Port() DevicePort { return p.device.Device().ports[p.idx] }

// Name returns the port name.
func (p DevicePortRef) Name() string { return p.Port().Name }

// Kind returns whether the port is an interface, front port or rear port.
func (p DevicePortRef) Kind() PortKind { return p.Port().Kind }

// PortIdx returns the composite key of the port.
func (p DevicePortRef) PortIdx() PortIdx {
	return PortIdx{Device: p.device.idx, Port: p.idx}
}

// RearPort returns the rear port a front port passes through to.
func (p DevicePortRef) RearPort() (DevicePortRef, bool) {
	port := p.Port()
	if port.Kind != PortFront {
		return DevicePortRef{}, false
	}
	return p.device.Port(port.RearPort)
}

// Links returns the link attached to this port together with every segment
// the port terminates. A port is normally hit once; it is hit twice when it
// joins two consecutive segments of the same run.
func (p DevicePortRef) Links() (LinkPortRef, bool) {
	key := p.PortIdx()
	topo := p.device.topo
	linkIdx, ok := topo.linkIndex[key]
	if !ok {
		return LinkPortRef{}, false
	}
	link := topo.links[linkIdx]
	hits := make([]SegmentHit, 0, 2)
	for i, seg := range link.path {
		if seg.Right == key {
			hits = append(hits, SegmentHit{Side: SideLeft, Segment: i})
		}
		if seg.Left == key {
			hits = append(hits, SegmentHit{Side: SideRight, Segment: i})
		}
	}
	return LinkPortRef{topo: topo, link: linkIdx, hits: hits}, true
}

// LinkPortRef bundles a link with the segments where a given port sits.
type LinkPortRef struct {
	topo *Topology
	link int
	hits []SegmentHit
}

// Index returns the arena index of the link.
func (l LinkPortRef) Index() int { return l.link }

// Link returns the referenced link record.
func (l LinkPortRef) Link() *Link { return l.topo.links[l.link] }

// Hits returns the segments of the link touching the looked up port.
func (l LinkPortRef) Hits() []SegmentHit { return l.hits }

// Topology returns the snapshot the reference points into.
func (l LinkPortRef) Topology() *Topology { return l.topo }

// Ends returns the first and last port of the whole cable run.
func (l LinkPortRef) Ends() (DevicePortRef, DevicePortRef) {
	path := l.Link().path
	left, _ := l.topo.Port(path[0].Left)
	right, _ := l.topo.Port(path[len(path)-1].Right)
	return left, right
}

// Segments resolves every segment of the link into port references.
func (l LinkPortRef) Segments() [][2]DevicePortRef {
	path := l.Link().path
	out := make([][2]DevicePortRef, len(path))
	for i, seg := range path {
		out[i][0], _ = l.topo.Port(seg.Left)
		out[i][1], _ = l.topo.Port(seg.Right)
	}
	return out
}

// SiteRef is a handle on one site of a snapshot.
type SiteRef struct {
	topo *Topology
	idx  int
}

// Index returns the arena index of the site.
func (s SiteRef) Index() int { return s.idx }

// Site returns the referenced site record.
func (s SiteRef) Site() *Site { return s.topo.sites[s.idx] }

// ID returns the inventory id of the site.
func (s SiteRef) ID() uint32 { return s.Site().id }

// Name returns the site name.
func (s SiteRef) Name() string { return s.Site().name }

// Address returns the physical address as stored in the inventory.
func (s SiteRef) Address() string { return s.Site().address }

// AddressLines returns the physical address split into lines.
func (s SiteRef) AddressLines() []string { return s.Site().AddressLines() }

// Topology returns the snapshot the reference points into.
func (s SiteRef) Topology() *Topology { return s.topo }

// Locations returns the locations of the site.
func (s SiteRef) Locations() []LocationRef {
	idxs := s.Site().locations
	out := make([]LocationRef, 0, len(idxs))
	for _, idx := range idxs {
		if loc, ok := s.topo.Location(idx); ok {
			out = append(out, loc)
		}
	}
	return out
}

// Devices returns the devices assigned to the site.
func (s SiteRef) Devices() []DeviceRef {
	return s.topo.DevicesFiltered(func(d DeviceRef) bool {
		idx, ok := d.Device().Site()
		return ok && idx == s.idx
	})
}

// LocationRef is a handle on one location of a snapshot.
type LocationRef struct {
	topo *Topology
	idx  int
}

// Index returns the arena index of the location.
func (l LocationRef) Index() int { return l.idx }

// Location returns the referenced location record.
func (l LocationRef) Location() *Location { return l.topo.locations[l.idx] }

// ID returns the inventory id of the location.
func (l LocationRef) ID() uint32 { return l.Location().id }

// Name returns the location name.
func (l LocationRef) Name() string { return l.Location().name }

// Site returns the owning site, if any.
func (l LocationRef) Site() (SiteRef, bool) {
	idx, ok := l.Location().Site()
	if !ok {
		return SiteRef{}, false
	}
	return l.topo.Site(idx)
}

// Devices returns the devices placed in the location.
func (l LocationRef) Devices() []DeviceRef {
	idxs := l.Location().devices
	out := make([]DeviceRef, 0, len(idxs))
	for _, idx := range idxs {
		if d, ok := l.topo.Device(idx); ok {
			out = append(out, d)
		}
	}
	return out
}

// DeviceTypeRef is a handle on one device type of a snapshot.
type DeviceTypeRef struct {
	topo *Topology
	idx  int
}

// Index returns the arena index of the device type.
func (t DeviceTypeRef) Index() int { return t.idx }

// DeviceType returns the referenced device type record.
func (t DeviceTypeRef) DeviceType() *DeviceType { return t.topo.deviceTypes[t.idx] }

// ID returns the inventory id of the device type.
func (t DeviceTypeRef) ID() uint32 { return t.DeviceType().id }

// Name returns the model name.
func (t DeviceTypeRef) Name() string { return t.DeviceType().name }

// HasRouterOS reports whether devices of this model run RouterOS.
func (t DeviceTypeRef) HasRouterOS() bool { return t.DeviceType().hasRouterOS }

// Devices returns the devices of this model.
func (t DeviceTypeRef) Devices() []DeviceRef {
	return t.topo.DevicesFiltered(func(d DeviceRef) bool {
		return d.Device().deviceType == t.idx
	})
}
