package topology

import "net/netip"

// PortKind tags the variant held by a DevicePort.
type PortKind int

const (
	PortInterface PortKind = iota
	PortFront
	PortRear
)

func (k PortKind) String() string {
	switch k {
	case PortInterface:
		return "interface"
	case PortFront:
		return "front-port"
	case PortRear:
		return "rear-port"
	default:
		return "unknown"
	}
}

// DevicePort is a tagged variant over interfaces, front ports and rear ports.
// V4, V6 and Loopback are only meaningful for interfaces; RearPort is only
// meaningful for front ports and is an index into the same device's ports.
type DevicePort struct {
	Kind     PortKind
	ID       uint32
	Name     string
	V4       netip.Prefix
	V6       netip.Prefix
	Loopback bool
	RearPort int
}

// Prefixes returns the configured interface addresses, IPv4 first.
func (p DevicePort) Prefixes() []netip.Prefix {
	if p.Kind != PortInterface {
		return nil
	}
	var out []netip.Prefix
	if p.V4.IsValid() {
		out = append(out, p.V4)
	}
	if p.V6.IsValid() {
		out = append(out, p.V6)
	}
	return out
}

// PortIdx identifies one port of one device within a snapshot.
type PortIdx struct {
	Device int
	Port   int
}
