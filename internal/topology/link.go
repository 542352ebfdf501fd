package topology

// LinkSegment is one cable between two ports.
type LinkSegment struct {
	Left  PortIdx
	Right PortIdx
}

// Link is a continuous cable run, possibly patched through intermediate
// devices: each segment starts on the device where the previous one ended.
type Link struct {
	path []LinkSegment
}

// Path returns the segments in order. The slice must not be modified.
func (l *Link) Path() []LinkSegment { return l.path }

// LinkBuilder accumulates the segments of one link and validates them against
// the devices already appended to its TopologyBuilder.
type LinkBuilder struct {
	topo *TopologyBuilder
	path []LinkSegment
}

// AppendSegment validates and appends a segment, returning its position.
// Errors are fail-fast: the segment is not recorded.
func (b *LinkBuilder) AppendSegment(leftDevice, leftPort, rightDevice, rightPort int) (int, error) {
	if err := b.checkPort(leftDevice, leftPort); err != nil {
		return 0, err
	}
	if err := b.checkPort(rightDevice, rightPort); err != nil {
		return 0, err
	}
	if n := len(b.path); n > 0 {
		last := b.path[n-1].Right.Device
		if last != leftDevice {
			return 0, &InvalidPathError{LastDevice: last, CurrentDevice: leftDevice}
		}
	}
	b.path = append(b.path, LinkSegment{
		Left:  PortIdx{Device: leftDevice, Port: leftPort},
		Right: PortIdx{Device: rightDevice, Port: rightPort},
	})
	return len(b.path) - 1, nil
}

func (b *LinkBuilder) checkPort(device, port int) error {
	if device < 0 || device >= len(b.topo.devices) {
		return &MissingDeviceReferenceError{Device: device}
	}
	if port < 0 || port >= b.topo.devices[device].PortCount() {
		return &MissingPortReferenceError{Device: device, Port: port}
	}
	return nil
}

// Len returns the number of segments appended so far.
func (b *LinkBuilder) Len() int { return len(b.path) }

// Build hands the link to the topology builder and returns its link index.
// Empty links are discarded and -1 is returned.
func (b *LinkBuilder) Build() int {
	if len(b.path) == 0 {
		return -1
	}
	b.topo.links = append(b.topo.links, &Link{path: b.path})
	idx := len(b.topo.links) - 1
	b.path = nil
	return idx
}

// PortSide tells in which direction a cable continues from a hit port.
type PortSide int

const (
	// SideLeft means the port is the right end of the segment, so the cable
	// continues leftward.
	SideLeft PortSide = iota
	// SideRight means the port is the left end of the segment.
	SideRight
)

func (s PortSide) String() string {
	if s == SideLeft {
		return "left"
	}
	return "right"
}

// SegmentHit locates a port on one segment of a link.
type SegmentHit struct {
	Side    PortSide
	Segment int
}
