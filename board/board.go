// Package board models the Fast Track board as an immutable graph of holes:
// the main perimeter ring, the inner shortcut ring, per-player safe-zone
// spurs, per-player holding areas, and the shared capture hole. It is built
// once at startup and only answers adjacency queries after that.
package board

import (
	"fmt"
)

// HoleKind classifies a hole.
type HoleKind uint8

const (
	HoleNone HoleKind = iota
	HolePerimeter
	HoleShortcut
	HoleSafe
	HoleWinner
	HoleHolding
)

func (k HoleKind) String() string {
	switch k {
	case HolePerimeter:
		return "perimeter"
	case HoleShortcut:
		return "shortcut"
	case HoleSafe:
		return "safe"
	case HoleWinner:
		return "winner"
	case HoleHolding:
		return "holding"
	}
	return "none"
}

// NoOwner marks holes that belong to no particular player.
const NoOwner = -1

// A Hole identifies a single hole on the board. It is a small comparable
// value; Owner is NoOwner for shared holes.
type Hole struct {
	Kind  HoleKind `json:"kind"`
	Owner int8     `json:"owner"`
	Index int16    `json:"index"`
}

func Perimeter(idx int) Hole {
	return Hole{Kind: HolePerimeter, Owner: NoOwner, Index: int16(idx)}
}

func Shortcut(idx int) Hole {
	return Hole{Kind: HoleShortcut, Owner: NoOwner, Index: int16(idx)}
}

func Safe(owner, idx int) Hole {
	return Hole{Kind: HoleSafe, Owner: int8(owner), Index: int16(idx)}
}

func Winner(owner int) Hole {
	return Hole{Kind: HoleWinner, Owner: int8(owner)}
}

func Holding(owner int) Hole {
	return Hole{Kind: HoleHolding, Owner: int8(owner)}
}

func (h Hole) String() string {
	switch h.Kind {
	case HolePerimeter:
		return fmt.Sprintf("P%d", h.Index)
	case HoleShortcut:
		return fmt.Sprintf("S%d", h.Index)
	case HoleSafe:
		return fmt.Sprintf("Z%d.%d", h.Owner, h.Index)
	case HoleWinner:
		return fmt.Sprintf("W%d", h.Owner)
	case HoleHolding:
		return fmt.Sprintf("H%d", h.Owner)
	}
	return "?"
}

// MarshalText lets holes appear compactly in JSON event logs.
func (h Hole) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

func (h *Hole) UnmarshalText(b []byte) error {
	s := string(b)
	if len(s) < 2 {
		return fmt.Errorf("bad hole %q", s)
	}
	var owner, index int
	switch s[0] {
	case 'P':
		if _, err := fmt.Sscanf(s, "P%d", &index); err != nil {
			return fmt.Errorf("bad hole %q", s)
		}
		*h = Perimeter(index)
	case 'S':
		if _, err := fmt.Sscanf(s, "S%d", &index); err != nil {
			return fmt.Errorf("bad hole %q", s)
		}
		*h = Shortcut(index)
	case 'Z':
		if _, err := fmt.Sscanf(s, "Z%d.%d", &owner, &index); err != nil {
			return fmt.Errorf("bad hole %q", s)
		}
		*h = Safe(owner, index)
	case 'W':
		if _, err := fmt.Sscanf(s, "W%d", &owner); err != nil {
			return fmt.Errorf("bad hole %q", s)
		}
		*h = Winner(owner)
	case 'H':
		if _, err := fmt.Sscanf(s, "H%d", &owner); err != nil {
			return fmt.Errorf("bad hole %q", s)
		}
		*h = Holding(owner)
	default:
		return fmt.Errorf("bad hole %q", s)
	}
	return nil
}

// Direction of travel along the perimeter.
type Direction int8

const (
	Forward  Direction = 1
	Backward Direction = -1
)

func (d Direction) String() string {
	if d == Backward {
		return "backward"
	}
	return "forward"
}

// A Layout parameterizes board construction. The zero value is not usable;
// call DefaultLayout or fill in every field.
type Layout struct {
	// Segments is the number of player segments, which is also the maximum
	// player count and the number of shortcut-ring holes.
	Segments int `yaml:"segments"`
	// SegmentLen is the number of perimeter holes per segment.
	SegmentLen int `yaml:"segment_len"`
	// SafeZoneLen is the number of safe-zone slots per player, not counting
	// the winner hole.
	SafeZoneLen int `yaml:"safe_zone_len"`
	// CaptureIndex is the perimeter index of the shared capture hole.
	CaptureIndex int `yaml:"capture_index"`
}

// DefaultLayout is the canonical board: 4 segments of 14 holes, 4-slot safe
// zones, capture hole at perimeter index 8.
func DefaultLayout() Layout {
	return Layout{Segments: 4, SegmentLen: 14, SafeZoneLen: 4, CaptureIndex: 8}
}

func (l Layout) validate() error {
	if l.Segments < 2 {
		return fmt.Errorf("need at least 2 segments, got %d", l.Segments)
	}
	if l.SegmentLen < 4 {
		return fmt.Errorf("need at least 4 holes per segment, got %d", l.SegmentLen)
	}
	if l.SafeZoneLen < 1 {
		return fmt.Errorf("need at least 1 safe-zone slot, got %d", l.SafeZoneLen)
	}
	perim := l.Segments * l.SegmentLen
	if l.CaptureIndex < 0 || l.CaptureIndex >= perim {
		return fmt.Errorf("capture index %d outside perimeter", l.CaptureIndex)
	}
	for s := 0; s < l.Segments; s++ {
		entry := s * l.SegmentLen
		adj := entry + l.SegmentLen/4
		exit := (adj + 1) % perim
		branch := (entry + perim - 1) % perim
		if l.CaptureIndex == entry || l.CaptureIndex == adj ||
			l.CaptureIndex == exit || l.CaptureIndex == branch {
			return fmt.Errorf("capture index %d collides with a special hole", l.CaptureIndex)
		}
	}
	return nil
}

// A Step is one hop of adjacency out of a hole. Span is the
// perimeter-equivalent forward distance the hop covers; it feeds the lap
// odometer that gates safe-zone entry.
type Step struct {
	To             Hole
	Span           int
	EntersShortcut bool
	ExitsShortcut  bool
	EntersCapture  bool
	EntersSafeZone bool
}

// Topology is the static board graph. Immutable after New.
type Topology struct {
	layout    Layout
	perimeter int
	// per segment
	entry  []int
	branch []int
	adj    []int
	// adjOf[perimeterIdx] = shortcut index entered from that hole, or -1.
	adjOf []int
	// branchOf[perimeterIdx] = owner whose safe zone branches there, or -1.
	branchOf []int
	capture  Hole
}

// New builds the board graph for the given layout.
func New(l Layout) (*Topology, error) {
	if err := l.validate(); err != nil {
		return nil, err
	}
	t := &Topology{
		layout:    l,
		perimeter: l.Segments * l.SegmentLen,
		entry:     make([]int, l.Segments),
		branch:    make([]int, l.Segments),
		adj:       make([]int, l.Segments),
		capture:   Perimeter(l.CaptureIndex),
	}
	t.adjOf = make([]int, t.perimeter)
	t.branchOf = make([]int, t.perimeter)
	for i := range t.adjOf {
		t.adjOf[i] = -1
		t.branchOf[i] = -1
	}
	for s := 0; s < l.Segments; s++ {
		t.entry[s] = s * l.SegmentLen
		t.branch[s] = (t.entry[s] + t.perimeter - 1) % t.perimeter
		t.adj[s] = s*l.SegmentLen + l.SegmentLen/4
		t.adjOf[t.adj[s]] = s
		t.branchOf[t.branch[s]] = s
	}
	return t, nil
}

func (t *Topology) Layout() Layout    { return t.layout }
func (t *Topology) PerimeterLen() int { return t.perimeter }
func (t *Topology) ShortcutLen() int  { return t.layout.Segments }
func (t *Topology) SafeZoneLen() int  { return t.layout.SafeZoneLen }
func (t *Topology) CaptureHole() Hole { return t.capture }

func (t *Topology) EntryIndex(p int) int  { return t.entry[p%t.layout.Segments] }
func (t *Topology) BranchIndex(p int) int { return t.branch[p%t.layout.Segments] }
func (t *Topology) AdjIndex(s int) int    { return t.adj[s%t.layout.Segments] }

// LapDistance is the forward perimeter distance a piece must cover, starting
// from its entry hole, to stand on its safe-zone branch hole.
func (t *Topology) LapDistance() int { return t.perimeter - 1 }

// EntryHole is where player p's pieces enter from holding.
func (t *Topology) EntryHole(p int) Hole { return Perimeter(t.EntryIndex(p)) }

// IsCapture reports whether h is the shared capture hole.
func (t *Topology) IsCapture(h Hole) bool { return h == t.capture }

// ForwardDistance is the forward walk length between two perimeter indices.
func (t *Topology) ForwardDistance(from, to int) int {
	return ((to-from)%t.perimeter + t.perimeter) % t.perimeter
}

// Steps returns every hole reachable in one hop from h, for a piece owned by
// owner whose safe-zone eligibility is circuitDone. Branch points (shortcut
// adjacency, safe-zone branch, the shortcut ring itself) yield several steps;
// the caller treats each as a distinct path. An empty result means the hole
// is terminal in that direction, like the winner hole, or that the direction
// is illegal there, like backward travel on the shortcut ring or backward
// entry into the capture hole.
func (t *Topology) Steps(h Hole, dir Direction, owner int, circuitDone bool) []Step {
	var steps []Step
	switch h.Kind {
	case HolePerimeter:
		idx := int(h.Index)
		if dir == Backward {
			prev := Perimeter((idx - 1 + t.perimeter) % t.perimeter)
			// Backward movement never enters the capture hole; shortcut
			// adjacency holes are ordinary waypoints going backward.
			if t.IsCapture(prev) {
				return nil
			}
			return []Step{{To: prev, Span: -1}}
		}
		// The capture hole is an ordinary forward waypoint; the trap binds a
		// piece that ends its move there, which the move generator enforces
		// at the start of the next move.
		if o := t.branchOf[idx]; o == owner && circuitDone {
			steps = append(steps, Step{
				To:             Safe(owner, 0),
				Span:           1,
				EntersSafeZone: true,
			})
		}
		if s := t.adjOf[idx]; s >= 0 {
			steps = append(steps, Step{
				To:             Shortcut(s),
				Span:           0,
				EntersShortcut: true,
			})
		}
		steps = append(steps, Step{To: Perimeter((idx + 1) % t.perimeter), Span: 1})
	case HoleShortcut:
		if dir == Backward {
			return nil
		}
		s := int(h.Index)
		next := (s + 1) % t.ShortcutLen()
		steps = append(steps,
			Step{
				To:   Shortcut(next),
				Span: t.ForwardDistance(t.adj[s], t.adj[next]),
			},
			Step{
				To:            t.capture,
				Span:          0,
				EntersCapture: true,
			},
			Step{
				To:            Perimeter((t.adj[s] + 1) % t.perimeter),
				Span:          1,
				ExitsShortcut: true,
			},
		)
	case HoleSafe:
		if dir == Backward {
			return nil
		}
		if int(h.Owner) != owner {
			return nil
		}
		if int(h.Index) == t.layout.SafeZoneLen-1 {
			return []Step{{To: Winner(owner), Span: 1}}
		}
		return []Step{{To: Safe(owner, int(h.Index)+1), Span: 1}}
	case HoleWinner, HoleHolding:
		return nil
	}
	return steps
}
