package api

import (
	"time"

	"github.com/kneutral-org/inventory-dashboard/internal/topology"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// EntityRef names a related entity.
type EntityRef struct {
	ID   uint32 `json:"id"`
	Name string `json:"name"`
}

// DeviceResponse describes one device.
type DeviceResponse struct {
	ID          uint32     `json:"id"`
	Name        string     `json:"name"`
	Category    string     `json:"category"`
	HasRouterOS bool       `json:"hasRouterOS"`
	CanPing     bool       `json:"canPing"`
	DeviceType  EntityRef  `json:"deviceType"`
	Site        *EntityRef `json:"site,omitempty"`
	Location    *EntityRef `json:"location,omitempty"`
	Loopback    string     `json:"loopback,omitempty"`
	PortCount   int        `json:"portCount"`
}

// DeviceListResponse lists devices.
type DeviceListResponse struct {
	Devices []DeviceResponse `json:"devices"`
	Count   int              `json:"count"`
	Filter  string           `json:"filter,omitempty"`
}

// FilterValidationResponse acknowledges a filter that compiles.
type FilterValidationResponse struct {
	Filter string `json:"filter"`
	Valid  bool   `json:"valid"`
}

// PortEndpoint names a port together with its device.
type PortEndpoint struct {
	DeviceID   uint32 `json:"deviceId"`
	DeviceName string `json:"deviceName"`
	Port       string `json:"port"`
}

// SegmentHitResponse places a port on one segment of a link.
type SegmentHitResponse struct {
	Side    string `json:"side"`
	Segment int    `json:"segment"`
}

// PortLinkResponse describes the cable run attached to a port.
type PortLinkResponse struct {
	Link     int                  `json:"link"`
	Hits     []SegmentHitResponse `json:"hits"`
	Ends     [2]PortEndpoint      `json:"ends"`
	Segments [][2]PortEndpoint    `json:"segments"`
}

// PortResponse describes one device port.
type PortResponse struct {
	Index     int               `json:"index"`
	ID        uint32            `json:"id"`
	Kind      string            `json:"kind"`
	Name      string            `json:"name"`
	Addresses []string          `json:"addresses,omitempty"`
	Loopback  bool              `json:"loopback,omitempty"`
	RearPort  *string           `json:"rearPort,omitempty"`
	Link      *PortLinkResponse `json:"link,omitempty"`
}

// PortListResponse lists the ports of a device.
type PortListResponse struct {
	Device EntityRef      `json:"device"`
	Ports  []PortResponse `json:"ports"`
}

// SiteResponse describes one site.
type SiteResponse struct {
	ID          uint32      `json:"id"`
	Name        string      `json:"name"`
	Address     []string    `json:"address"`
	Locations   []EntityRef `json:"locations"`
	DeviceCount int         `json:"deviceCount"`
}

// SiteListResponse lists sites.
type SiteListResponse struct {
	Sites []SiteResponse `json:"sites"`
	Count int            `json:"count"`
}

// LocationResponse describes one location.
type LocationResponse struct {
	ID      uint32      `json:"id"`
	Name    string      `json:"name"`
	Site    *EntityRef  `json:"site,omitempty"`
	Devices []EntityRef `json:"devices"`
}

// LocationListResponse lists locations.
type LocationListResponse struct {
	Locations []LocationResponse `json:"locations"`
	Count     int                `json:"count"`
}

// DeviceTypeResponse describes one device model.
type DeviceTypeResponse struct {
	ID          uint32 `json:"id"`
	Name        string `json:"name"`
	HasRouterOS bool   `json:"hasRouterOS"`
	DeviceCount int    `json:"deviceCount"`
}

// DeviceTypeListResponse lists device types.
type DeviceTypeListResponse struct {
	DeviceTypes []DeviceTypeResponse `json:"deviceTypes"`
	Count       int                  `json:"count"`
}

// TopologyResponse reports the state of the cached snapshot.
type TopologyResponse struct {
	topology.Summary
	LoadedAt   time.Time `json:"loadedAt"`
	TTLSeconds float64   `json:"ttlSeconds"`
}

// RefreshResponse acknowledges a refresh request.
type RefreshResponse struct {
	Message  string            `json:"message"`
	Topology *TopologyResponse `json:"topology,omitempty"`
}

func deviceResponse(d topology.DeviceRef) DeviceResponse {
	dt := d.DeviceType()
	resp := DeviceResponse{
		ID:          d.ID(),
		Name:        d.Name(),
		Category:    d.Category().String(),
		HasRouterOS: d.HasRouterOS(),
		CanPing:     d.CanPing(),
		DeviceType:  EntityRef{ID: dt.ID(), Name: dt.Name()},
		PortCount:   len(d.Device().Ports()),
	}
	if site, ok := d.Site(); ok {
		resp.Site = &EntityRef{ID: site.ID(), Name: site.Name()}
	}
	if loc, ok := d.Location(); ok {
		resp.Location = &EntityRef{ID: loc.ID(), Name: loc.Name()}
	}
	if addr, ok := d.LoopbackAddress(); ok {
		resp.Loopback = addr.String()
	}
	return resp
}

func portEndpoint(p topology.DevicePortRef) PortEndpoint {
	d := p.Device()
	return PortEndpoint{DeviceID: d.ID(), DeviceName: d.Name(), Port: p.Name()}
}

func portResponse(p topology.DevicePortRef) PortResponse {
	port := p.Port()
	resp := PortResponse{
		Index:    p.Index(),
		ID:       port.ID,
		Kind:     port.Kind.String(),
		Name:     port.Name,
		Loopback: port.Loopback,
	}
	for _, prefix := range port.Prefixes() {
		resp.Addresses = append(resp.Addresses, prefix.String())
	}
	if rear, ok := p.RearPort(); ok {
		name := rear.Name()
		resp.RearPort = &name
	}

	links, ok := p.Links()
	if !ok {
		return resp
	}
	left, right := links.Ends()
	link := &PortLinkResponse{
		Link: links.Index(),
		Ends: [2]PortEndpoint{portEndpoint(left), portEndpoint(right)},
	}
	for _, hit := range links.Hits() {
		link.Hits = append(link.Hits, SegmentHitResponse{Side: hit.Side.String(), Segment: hit.Segment})
	}
	for _, seg := range links.Segments() {
		link.Segments = append(link.Segments, [2]PortEndpoint{portEndpoint(seg[0]), portEndpoint(seg[1])})
	}
	resp.Link = link
	return resp
}

func siteResponse(s topology.SiteRef) SiteResponse {
	locs := s.Locations()
	resp := SiteResponse{
		ID:          s.ID(),
		Name:        s.Name(),
		Address:     s.AddressLines(),
		Locations:   make([]EntityRef, 0, len(locs)),
		DeviceCount: len(s.Devices()),
	}
	for _, l := range locs {
		resp.Locations = append(resp.Locations, EntityRef{ID: l.ID(), Name: l.Name()})
	}
	return resp
}

func locationResponse(l topology.LocationRef) LocationResponse {
	devs := l.Devices()
	resp := LocationResponse{
		ID:      l.ID(),
		Name:    l.Name(),
		Devices: make([]EntityRef, 0, len(devs)),
	}
	if site, ok := l.Site(); ok {
		resp.Site = &EntityRef{ID: site.ID(), Name: site.Name()}
	}
	for _, d := range devs {
		resp.Devices = append(resp.Devices, EntityRef{ID: d.ID(), Name: d.Name()})
	}
	return resp
}

func deviceTypeResponse(t topology.DeviceTypeRef) DeviceTypeResponse {
	return DeviceTypeResponse{
		ID:          t.ID(),
		Name:        t.Name(),
		HasRouterOS: t.HasRouterOS(),
		DeviceCount: len(t.Devices()),
	}
}
