// Package inventory provides the raw inventory records fetched from a source
// of truth and their conversion into a topology snapshot.
package inventory

import (
	"errors"
	"fmt"
	"strconv"
)

var (
	// ErrInvalidRecord is returned when a record cannot be interpreted.
	ErrInvalidRecord = errors.New("invalid inventory record")
)

// Inventory is one bulk fetch of everything needed to build a topology.
type Inventory struct {
	DeviceTypes []DeviceType `json:"deviceTypes" yaml:"device_types"`
	Devices     []Device     `json:"devices" yaml:"devices"`
	Sites       []Site       `json:"sites" yaml:"sites"`
	Locations   []Location   `json:"locations,omitempty" yaml:"locations,omitempty"`
	Cables      []Cable      `json:"cables,omitempty" yaml:"cables,omitempty"`
}

// DeviceType is a device model with its tag slugs.
type DeviceType struct {
	ID    uint32   `json:"id" yaml:"id"`
	Model string   `json:"model" yaml:"model"`
	Tags  []string `json:"tags,omitempty" yaml:"tags,omitempty"`
}

// HasTag reports whether the device type carries the tag slug.
func (t DeviceType) HasTag(slug string) bool {
	for _, tag := range t.Tags {
		if tag == slug {
			return true
		}
	}
	return false
}

// Device is a device with its ports and placement.
type Device struct {
	ID         uint32      `json:"id" yaml:"id"`
	Name       string      `json:"name,omitempty" yaml:"name,omitempty"`
	DeviceType uint32      `json:"deviceType" yaml:"device_type"`
	Role       string      `json:"role,omitempty" yaml:"role,omitempty"`
	Site       *uint32     `json:"site,omitempty" yaml:"site,omitempty"`
	Location   *uint32     `json:"location,omitempty" yaml:"location,omitempty"`
	Interfaces []Interface `json:"interfaces,omitempty" yaml:"interfaces,omitempty"`
	RearPorts  []RearPort  `json:"rearPorts,omitempty" yaml:"rear_ports,omitempty"`
	FrontPorts []FrontPort `json:"frontPorts,omitempty" yaml:"front_ports,omitempty"`
}

// Interface is a network interface with its assigned addresses.
type Interface struct {
	ID          uint32      `json:"id" yaml:"id"`
	Name        string      `json:"name" yaml:"name"`
	IPAddresses []IPAddress `json:"ipAddresses,omitempty" yaml:"ip_addresses,omitempty"`
}

// IPAddress is an address in CIDR notation with its IPAM role.
type IPAddress struct {
	Address string `json:"address" yaml:"address"`
	Role    string `json:"role,omitempty" yaml:"role,omitempty"`
}

// RoleLoopback marks an address as the device loopback.
const RoleLoopback = "loopback"

// RearPort is the back side of a patch panel position.
type RearPort struct {
	ID   uint32 `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

// FrontPort is a patch panel position passing through to a rear port.
type FrontPort struct {
	ID       uint32   `json:"id" yaml:"id"`
	Name     string   `json:"name" yaml:"name"`
	RearPort RearPort `json:"rearPort" yaml:"rear_port"`
}

// Site is a campus or building with its locations.
type Site struct {
	ID        uint32     `json:"id" yaml:"id"`
	Name      string     `json:"name" yaml:"name"`
	Address   string     `json:"physicalAddress,omitempty" yaml:"physical_address,omitempty"`
	Locations []Location `json:"locations,omitempty" yaml:"locations,omitempty"`
}

// Location is a room or area. Site is only read for locations listed outside
// of a site.
type Location struct {
	ID   uint32  `json:"id" yaml:"id"`
	Name string  `json:"name" yaml:"name"`
	Site *uint32 `json:"site,omitempty" yaml:"site,omitempty"`
}

// TerminationKind names the kind of port a cable end is attached to.
type TerminationKind string

const (
	TerminationInterface TerminationKind = "interface"
	TerminationFrontPort TerminationKind = "frontport"
	TerminationRearPort  TerminationKind = "rearport"
)

// Termination is one end of a cable.
type Termination struct {
	Kind TerminationKind `json:"kind" yaml:"kind"`
	Port uint32          `json:"port" yaml:"port"`
}

// Cable connects two port terminations.
type Cable struct {
	ID uint32      `json:"id" yaml:"id"`
	A  Termination `json:"a" yaml:"a"`
	B  Termination `json:"b" yaml:"b"`
}

// ParseID parses a decimal entity id as served by GraphQL APIs.
func ParseID(s string) (uint32, error) {
	id, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: id %q: %v", ErrInvalidRecord, s, err)
	}
	return uint32(id), nil
}

// ParseTerminationKind maps a termination type name to its kind. Both the
// bare model name and the "dcim." qualified form are accepted.
func ParseTerminationKind(s string) (TerminationKind, error) {
	switch s {
	case "interface", "dcim.interface", "InterfaceType":
		return TerminationInterface, nil
	case "frontport", "dcim.frontport", "FrontPortType":
		return TerminationFrontPort, nil
	case "rearport", "dcim.rearport", "RearPortType":
		return TerminationRearPort, nil
	default:
		return "", fmt.Errorf("%w: unknown port type %q", ErrInvalidRecord, s)
	}
}
