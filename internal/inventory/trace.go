package inventory

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/kneutral-org/inventory-dashboard/internal/topology"
)

// portIndex resolves cable terminations to ports and knows how patch panel
// positions pass through from front to rear.
type portIndex struct {
	byID   map[TerminationKind]map[uint32]topology.PortIdx
	kinds  map[topology.PortIdx]TerminationKind
	rearOf map[topology.PortIdx]topology.PortIdx
	fronts map[topology.PortIdx][]topology.PortIdx
	logger zerolog.Logger
}

func newPortIndex(logger zerolog.Logger) *portIndex {
	return &portIndex{
		byID: map[TerminationKind]map[uint32]topology.PortIdx{
			TerminationInterface: {},
			TerminationFrontPort: {},
			TerminationRearPort:  {},
		},
		kinds:  make(map[topology.PortIdx]TerminationKind),
		rearOf: make(map[topology.PortIdx]topology.PortIdx),
		fronts: make(map[topology.PortIdx][]topology.PortIdx),
		logger: logger,
	}
}

func (x *portIndex) add(kind TerminationKind, id uint32, p topology.PortIdx) {
	x.kinds[p] = kind
	ids := x.byID[kind]
	if _, taken := ids[id]; taken {
		x.logger.Warn().Str("kind", string(kind)).Uint32("id", id).Msg("duplicate port id in inventory")
		return
	}
	ids[id] = p
}

func (x *portIndex) passThrough(front, rear topology.PortIdx) {
	x.rearOf[front] = rear
	x.fronts[rear] = append(x.fronts[rear], front)
}

func (x *portIndex) resolve(t Termination) (topology.PortIdx, bool, error) {
	ids, ok := x.byID[t.Kind]
	if !ok {
		return topology.PortIdx{}, false, fmt.Errorf("%w: unknown port type %q", ErrInvalidRecord, t.Kind)
	}
	p, ok := ids[t.Port]
	return p, ok, nil
}

// partner returns the port on the other side of a patch position. A rear port
// shared by several front ports has no unique partner.
func (x *portIndex) partner(p topology.PortIdx) (topology.PortIdx, bool) {
	switch x.kinds[p] {
	case TerminationFrontPort:
		// A rear port shared by several front ports is a dead end both ways.
		rear, ok := x.rearOf[p]
		if !ok || len(x.fronts[rear]) > 1 {
			return topology.PortIdx{}, false
		}
		return rear, true
	case TerminationRearPort:
		if fronts := x.fronts[p]; len(fronts) == 1 {
			return fronts[0], true
		}
	}
	return topology.PortIdx{}, false
}

type cableEnds struct {
	id   uint32
	a, b topology.PortIdx
}

func (c cableEnds) other(p topology.PortIdx) topology.PortIdx {
	if c.a == p {
		return c.b
	}
	return c.a
}

// trace groups cables into continuous paths. Paths start at a cable with an
// interface end, which becomes the left end, and follow patch pass-through
// while another unused cable hangs off the partner port. Cables left over
// afterwards form single-segment paths.
func (x *portIndex) trace(cables []Cable) ([][]topology.LinkSegment, error) {
	ends := make([]cableEnds, 0, len(cables))
	for _, c := range cables {
		a, okA, err := x.resolve(c.A)
		if err != nil {
			return nil, fmt.Errorf("cable %d: %w", c.ID, err)
		}
		b, okB, err := x.resolve(c.B)
		if err != nil {
			return nil, fmt.Errorf("cable %d: %w", c.ID, err)
		}
		if !okA || !okB {
			x.logger.Debug().Uint32("cable", c.ID).Msg("cable terminates on unknown port")
			continue
		}
		if a == b {
			x.logger.Debug().Uint32("cable", c.ID).Msg("cable loops back onto its own port")
			continue
		}
		ends = append(ends, cableEnds{id: c.ID, a: a, b: b})
	}

	attached := make(map[topology.PortIdx][]int, 2*len(ends))
	for i, e := range ends {
		attached[e.a] = append(attached[e.a], i)
		attached[e.b] = append(attached[e.b], i)
	}
	used := make([]bool, len(ends))

	unusedAt := func(p topology.PortIdx) (int, bool) {
		for _, i := range attached[p] {
			if !used[i] {
				return i, true
			}
		}
		return 0, false
	}
	extend := func(path []topology.LinkSegment) []topology.LinkSegment {
		right := path[len(path)-1].Right
		for {
			partner, ok := x.partner(right)
			if !ok {
				return path
			}
			i, ok := unusedAt(partner)
			if !ok {
				return path
			}
			used[i] = true
			right = ends[i].other(partner)
			path = append(path, topology.LinkSegment{Left: partner, Right: right})
		}
	}

	var paths [][]topology.LinkSegment
	for i, e := range ends {
		if used[i] {
			continue
		}
		left, right := e.a, e.b
		if x.kinds[left] != TerminationInterface {
			if x.kinds[right] != TerminationInterface {
				continue
			}
			left, right = right, left
		}
		used[i] = true
		paths = append(paths, extend([]topology.LinkSegment{{Left: left, Right: right}}))
	}
	for i, e := range ends {
		if used[i] {
			continue
		}
		used[i] = true
		paths = append(paths, []topology.LinkSegment{{Left: e.a, Right: e.b}})
	}
	return paths, nil
}
