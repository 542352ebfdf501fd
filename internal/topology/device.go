package topology

import (
	"fmt"
	"net/netip"
	"strings"
)

// DeviceCategory classifies a device for reachability policy.
type DeviceCategory int

const (
	CategoryUnknown DeviceCategory = iota
	CategorySwitch
	CategoryRouter
	CategoryUserDevice
	CategoryPatchPanel
	CategoryServer
	CategoryWallConnector
)

var categoryNames = map[DeviceCategory]string{
	CategoryUnknown:       "unknown",
	CategorySwitch:        "switch",
	CategoryRouter:        "router",
	CategoryUserDevice:    "user-device",
	CategoryPatchPanel:    "patch-panel",
	CategoryServer:        "server",
	CategoryWallConnector: "wall-connector",
}

func (c DeviceCategory) String() string {
	if name, ok := categoryNames[c]; ok {
		return name
	}
	return categoryNames[CategoryUnknown]
}

// CanPing reports whether devices of this category are expected to answer
// reachability checks. Passive equipment and unclassified devices are not.
func (c DeviceCategory) CanPing() bool {
	switch c {
	case CategorySwitch, CategoryRouter, CategoryUserDevice, CategoryServer:
		return true
	default:
		return false
	}
}

// ParseDeviceCategory maps a role slug to a category. Unrecognised slugs
// yield CategoryUnknown.
func ParseDeviceCategory(slug string) DeviceCategory {
	switch strings.ToLower(strings.TrimSpace(slug)) {
	case "switch", "access-switch", "core-switch":
		return CategorySwitch
	case "router":
		return CategoryRouter
	case "user-device", "userdevice", "client":
		return CategoryUserDevice
	case "patch-panel", "patchpanel":
		return CategoryPatchPanel
	case "server":
		return CategoryServer
	case "wall-connector", "wallconnector", "wall-outlet":
		return CategoryWallConnector
	default:
		return CategoryUnknown
	}
}

// Device is an immutable device record inside a snapshot. Optional
// references hold -1 when absent.
type Device struct {
	id          uint32
	name        string
	ports       []DevicePort
	hasRouterOS bool
	location    int
	site        int
	deviceType  int
	category    DeviceCategory
}

// ID returns the inventory id of the device.
func (d *Device) ID() uint32 { return d.id }

// Name returns the device name.
func (d *Device) Name() string { return d.name }

// HasRouterOS reports whether the device runs RouterOS.
func (d *Device) HasRouterOS() bool { return d.hasRouterOS }

// Category returns the device role.
func (d *Device) Category() DeviceCategory { return d.category }

// DeviceType returns the arena index of the device model.
func (d *Device) DeviceType() int { return d.deviceType }

// Ports returns the device ports in source order. The slice must not be modified.
func (d *Device) Ports() []DevicePort { return d.ports }

// Location returns the arena index of the device location, if known.
func (d *Device) Location() (int, bool) { return d.location, d.location >= 0 }

// Site returns the arena index of the device site, if known.
func (d *Device) Site() (int, bool) { return d.site, d.site >= 0 }

// LoopbackAddress returns the address of the first loopback interface,
// preferring its IPv6 address over IPv4.
func (d *Device) LoopbackAddress() (netip.Addr, bool) {
	for i := range d.ports {
		p := &d.ports[i]
		if p.Kind != PortInterface || !p.Loopback {
			continue
		}
		if p.V6.IsValid() {
			return p.V6.Addr(), true
		}
		if p.V4.IsValid() {
			return p.V4.Addr(), true
		}
	}
	return netip.Addr{}, false
}

// DeviceBuilder collects a device and its ports before the topology is built.
type DeviceBuilder struct {
	id          uint32
	name        string
	ports       []DevicePort
	hasRouterOS bool
	locationID  *uint32
	siteID      *uint32
	typeID      *uint32
	category    DeviceCategory
}

// ID returns the inventory id of the device under construction.
func (b *DeviceBuilder) ID() uint32 { return b.id }

// PortCount returns the number of ports appended so far.
func (b *DeviceBuilder) PortCount() int { return len(b.ports) }

// AppendInterface appends an interface port and returns its port index.
// Invalid prefixes are stored as absent.
func (b *DeviceBuilder) AppendInterface(id uint32, name string, v4, v6 netip.Prefix, loopback bool) int {
	if !v4.Addr().Is4() {
		v4 = netip.Prefix{}
	}
	if !v6.Addr().Is6() {
		v6 = netip.Prefix{}
	}
	b.ports = append(b.ports, DevicePort{
		Kind:     PortInterface,
		ID:       id,
		Name:     name,
		V4:       v4,
		V6:       v6,
		Loopback: loopback,
	})
	return len(b.ports) - 1
}

// AppendRearPort appends a rear port and returns its port index.
func (b *DeviceBuilder) AppendRearPort(id uint32, name string) int {
	b.ports = append(b.ports, DevicePort{Kind: PortRear, ID: id, Name: name, RearPort: -1})
	return len(b.ports) - 1
}

// AppendFrontPort appends a front port passing through to rearPort, an index
// into this device's ports.
func (b *DeviceBuilder) AppendFrontPort(id uint32, name string, rearPort int) (int, error) {
	if rearPort < 0 || rearPort >= len(b.ports) || b.ports[rearPort].Kind != PortRear {
		return 0, fmt.Errorf("%w: port %d of device %d", ErrInvalidRearPort, rearPort, b.id)
	}
	b.ports = append(b.ports, DevicePort{Kind: PortFront, ID: id, Name: name, RearPort: rearPort})
	return len(b.ports) - 1, nil
}

// SetLocation places the device in the location with the given inventory id.
func (b *DeviceBuilder) SetLocation(id uint32) { b.locationID = &id }

// SetSite assigns the device to the site with the given inventory id.
func (b *DeviceBuilder) SetSite(id uint32) { b.siteID = &id }

// SetDeviceType sets the device model by inventory id.
func (b *DeviceBuilder) SetDeviceType(id uint32) { b.typeID = &id }

// SetCategory sets the device role.
func (b *DeviceBuilder) SetCategory(category DeviceCategory) { b.category = category }

// build resolves the pending references through the snapshot id maps.
// Location and site are optional, the device type is not.
func (b *DeviceBuilder) build(locations, sites, types map[uint32]int) (*Device, error) {
	d := &Device{
		id:          b.id,
		name:        b.name,
		ports:       append([]DevicePort(nil), b.ports...),
		hasRouterOS: b.hasRouterOS,
		location:    lookup(locations, b.locationID),
		site:        lookup(sites, b.siteID),
		category:    b.category,
	}
	if b.typeID == nil {
		return nil, &MissingDeviceTypeError{DeviceID: b.id, Unset: true}
	}
	idx, ok := types[*b.typeID]
	if !ok {
		return nil, &MissingDeviceTypeError{DeviceID: b.id, DeviceType: *b.typeID}
	}
	d.deviceType = idx
	return d, nil
}

func lookup(index map[uint32]int, id *uint32) int {
	if id == nil {
		return -1
	}
	if idx, ok := index[*id]; ok {
		return idx
	}
	return -1
}
