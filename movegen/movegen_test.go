package movegen

import (
	"testing"

	"github.com/matryer/is"

	"github.com/kenbin64/fasttrackgame-sub002/board"
	"github.com/kenbin64/fasttrackgame-sub002/deck"
	"github.com/kenbin64/fasttrackgame-sub002/move"
)

type occupant struct {
	owner int
	id    move.PieceID
}

type occMap map[board.Hole]occupant

func (m occMap) Occupant(h board.Hole) (int, move.PieceID, bool) {
	o, ok := m[h]
	return o.owner, o.id, ok
}

func defaultTopo(t *testing.T) *board.Topology {
	topo, err := board.New(board.DefaultLayout())
	if err != nil {
		t.Fatal(err)
	}
	return topo
}

func piece(id int, owner int, loc board.Hole) PieceState {
	return PieceState{ID: move.PieceID(id), Owner: owner, Loc: loc,
		OnShortcut: loc.Kind == board.HoleShortcut}
}

func destinations(cands []Candidate) map[board.Hole]bool {
	out := map[board.Hole]bool{}
	for _, c := range cands {
		out[c.Move.To] = true
	}
	return out
}

func reasons(blocked []BlockedPath) map[string]bool {
	out := map[string]bool{}
	for _, b := range blocked {
		out[b.Reason] = true
	}
	return out
}

// Every non-entry candidate's path length must equal the card's hop count,
// whatever branches it took.
func TestHopCountMatchesCard(t *testing.T) {
	is := is.New(t)
	g := NewGenerator(defaultTopo(t), occMap{})

	cands := g.GenAll(piece(0, 0, board.Perimeter(0)), deck.Effect{Hops: 5}, 5)
	is.True(len(cands) > 1)
	for _, c := range cands {
		is.Equal(c.Move.PathHops(), 5)
		is.Equal(c.Move.From, board.Perimeter(0))
	}

	// P0..P3 then ride the shortcut or walk the ring; all four leaves.
	dests := destinations(cands)
	is.True(dests[board.Perimeter(5)])
	is.True(dests[board.Shortcut(1)])
	is.True(dests[board.Perimeter(4)])  // enter at S0, exit at once
	is.True(dests[board.Perimeter(8)]) // the capture hole, as a final hop
}

// A backward path that would pass through the capture hole is abandoned, not
// truncated.
func TestBackwardBlockedByCaptureHole(t *testing.T) {
	is := is.New(t)
	g := NewGenerator(defaultTopo(t), occMap{})

	cands := g.GenAll(piece(0, 0, board.Perimeter(10)),
		deck.Effect{Hops: 4, Backward: true}, 4)
	is.Equal(len(cands), 0)
	is.True(reasons(g.Blocked())[ReasonBackwardCapture])

	// One hole farther back, the same card stays clear of it.
	cands = g.GenAll(piece(0, 0, board.Perimeter(13)),
		deck.Effect{Hops: 4, Backward: true}, 4)
	is.Equal(len(cands), 1)
	is.Equal(cands[0].Move.To, board.Perimeter(9))
	is.True(cands[0].Move.Annotated(move.AnnotBackward))
}

// A piece on the shortcut ring with one hop chooses between continuing,
// dropping into the capture hole, and exiting.
func TestShortcutBranches(t *testing.T) {
	is := is.New(t)
	topo, err := board.New(board.Layout{
		Segments: 6, SegmentLen: 14, SafeZoneLen: 4, CaptureIndex: 8,
	})
	is.NoErr(err)
	g := NewGenerator(topo, occMap{})

	cands := g.GenAll(piece(0, 0, board.Shortcut(2)), deck.Effect{Hops: 1}, 1)
	dests := destinations(cands)
	is.Equal(len(cands), 3)
	is.True(dests[board.Shortcut(3)])
	is.True(dests[topo.CaptureHole()])
	is.True(dests[board.Perimeter(topo.AdjIndex(2)+1)])
}

// The capture-hole spoke must be the final hop of a path.
func TestCaptureSpokeOnlyAsFinalHop(t *testing.T) {
	is := is.New(t)
	g := NewGenerator(defaultTopo(t), occMap{})

	cands := g.GenAll(piece(0, 0, board.Shortcut(0)), deck.Effect{Hops: 2}, 2)
	for _, c := range cands {
		for _, h := range c.Move.Path[:len(c.Move.Path)-1] {
			is.True(h != board.Perimeter(8))
		}
	}
	is.True(reasons(g.Blocked())[ReasonTrapped])
}

func TestOwnPieceBlocksPath(t *testing.T) {
	is := is.New(t)
	occ := occMap{board.Perimeter(2): {owner: 0, id: 9}}
	g := NewGenerator(defaultTopo(t), occ)

	cands := g.GenAll(piece(0, 0, board.Perimeter(0)), deck.Effect{Hops: 5}, 5)
	is.Equal(len(cands), 0)
	is.True(reasons(g.Blocked())[ReasonOwnPiece])

	// An opponent piece is not a wall; it is passed through or captured.
	occ = occMap{board.Perimeter(2): {owner: 1, id: 9}}
	g = NewGenerator(defaultTopo(t), occ)
	cands = g.GenAll(piece(0, 0, board.Perimeter(0)), deck.Effect{Hops: 5}, 5)
	is.True(len(cands) > 0)
}

func TestCaptureAnnotated(t *testing.T) {
	is := is.New(t)
	occ := occMap{board.Perimeter(5): {owner: 1, id: 9}}
	g := NewGenerator(defaultTopo(t), occ)

	cands := g.GenAll(piece(0, 0, board.Perimeter(0)), deck.Effect{Hops: 5}, 5)
	var hit *Candidate
	for i := range cands {
		if cands[i].Move.To == board.Perimeter(5) {
			hit = &cands[i]
		}
	}
	is.True(hit != nil)
	is.Equal(hit.CapturedOwner, 1)
	is.Equal(hit.CapturedPiece, move.PieceID(9))
}

func TestEntryMoves(t *testing.T) {
	is := is.New(t)
	g := NewGenerator(defaultTopo(t), occMap{})

	// An entry card places the piece on its entry hole, whatever the hop
	// count says.
	cands := g.GenAll(piece(0, 1, board.Holding(1)),
		deck.Effect{Hops: 13, Entry: true}, 13)
	is.Equal(len(cands), 1)
	is.Equal(cands[0].Move.To, board.Perimeter(14))
	is.Equal(cands[0].Move.Type, move.TypeEntry)
	is.Equal(cands[0].Outcome.Progress, 0)

	// A non-entry card cannot leave holding.
	cands = g.GenAll(piece(0, 1, board.Holding(1)), deck.Effect{Hops: 5}, 5)
	is.Equal(len(cands), 0)
	is.True(reasons(g.Blocked())[ReasonNotEntryCard])

	// An own piece on the entry hole blocks entry; an opponent is captured.
	g = NewGenerator(defaultTopo(t), occMap{board.Perimeter(14): {owner: 1, id: 8}})
	cands = g.GenAll(piece(0, 1, board.Holding(1)),
		deck.Effect{Hops: 1, Entry: true}, 1)
	is.Equal(len(cands), 0)
	is.True(reasons(g.Blocked())[ReasonEntryOccupied])

	g = NewGenerator(defaultTopo(t), occMap{board.Perimeter(14): {owner: 0, id: 3}})
	cands = g.GenAll(piece(0, 1, board.Holding(1)),
		deck.Effect{Hops: 1, Entry: true}, 1)
	is.Equal(len(cands), 1)
	is.Equal(cands[0].CapturedOwner, 0)
}

func TestCaptureHoleTrapsUntilExitCard(t *testing.T) {
	is := is.New(t)
	g := NewGenerator(defaultTopo(t), occMap{})
	trapped := piece(0, 0, board.Perimeter(8))

	cands := g.GenAll(trapped, deck.Effect{Hops: 5}, 5)
	is.Equal(len(cands), 0)
	is.True(reasons(g.Blocked())[ReasonNotExitCard])

	cands = g.GenAll(trapped, deck.Effect{Hops: 11, ExitCapture: true}, 11)
	is.True(len(cands) > 0)
	for _, c := range cands {
		is.Equal(c.Move.Type, move.TypeCaptureExit)
		is.Equal(c.Move.Path[1], board.Perimeter(9))
		is.Equal(c.Move.PathHops(), 11)
	}
}

func TestSafeZoneExactLanding(t *testing.T) {
	is := is.New(t)
	g := NewGenerator(defaultTopo(t), occMap{})
	p := piece(0, 0, board.Safe(0, 2))
	p.CircuitDone = true

	// Two hops land exactly on the winner hole.
	cands := g.GenAll(p, deck.Effect{Hops: 2}, 2)
	is.Equal(len(cands), 1)
	is.Equal(cands[0].Move.To, board.Winner(0))

	// Three hops overshoot it; no truncation.
	cands = g.GenAll(p, deck.Effect{Hops: 3}, 3)
	is.Equal(len(cands), 0)
	is.True(reasons(g.Blocked())[ReasonOvershoot])
}

// Settled safe-zone pieces are hopped over; landing on one still blocks.
func TestSafeZonePassThrough(t *testing.T) {
	is := is.New(t)
	occ := occMap{
		board.Safe(0, 0): {owner: 0, id: 1},
		board.Safe(0, 1): {owner: 0, id: 2},
		board.Safe(0, 2): {owner: 0, id: 3},
		board.Safe(0, 3): {owner: 0, id: 4},
	}
	g := NewGenerator(defaultTopo(t), occ)
	p := piece(0, 0, board.Perimeter(55))
	p.CircuitDone = true

	// Five hops thread the full spur onto the winner hole. Staying on the
	// perimeter instead remains a choice.
	cands := g.GenAll(p, deck.Effect{Hops: 5}, 5)
	is.True(destinations(cands)[board.Winner(0)])

	// Landing on a settled piece is still blocked.
	cands = g.GenAll(p, deck.Effect{Hops: 2}, 2)
	is.True(!destinations(cands)[board.Safe(0, 1)])
	is.True(reasons(g.Blocked())[ReasonOwnPiece])
}

// The safe branch opens only to eligible pieces, including pieces that
// become eligible mid-path.
func TestSafeBranchEligibility(t *testing.T) {
	is := is.New(t)
	g := NewGenerator(defaultTopo(t), occMap{})

	p := piece(0, 0, board.Perimeter(55))
	cands := g.GenAll(p, deck.Effect{Hops: 1}, 1)
	is.Equal(len(cands), 1)
	is.Equal(cands[0].Move.To, board.Perimeter(0))

	p.CircuitDone = true
	cands = g.GenAll(p, deck.Effect{Hops: 1}, 1)
	dests := destinations(cands)
	is.Equal(len(cands), 2)
	is.True(dests[board.Safe(0, 0)])
	is.True(dests[board.Perimeter(0)])

	// Progress crosses the lap threshold during the move itself.
	p = piece(0, 0, board.Perimeter(54))
	p.Progress = 54
	cands = g.GenAll(p, deck.Effect{Hops: 2}, 2)
	dests = destinations(cands)
	is.True(dests[board.Safe(0, 0)])
	for _, c := range cands {
		is.True(c.Outcome.CircuitDone)
	}
}

// The progress odometer counts perimeter-equivalent distance: shortcut entry
// is free, riding it covers a whole segment per hop.
func TestProgressSpans(t *testing.T) {
	is := is.New(t)
	g := NewGenerator(defaultTopo(t), occMap{})

	p := piece(0, 0, board.Perimeter(0))
	p.Progress = 10
	cands := g.GenAll(p, deck.Effect{Hops: 5}, 5)
	for _, c := range cands {
		switch c.Move.To {
		case board.Perimeter(5):
			is.Equal(c.Outcome.Progress, 15)
		case board.Shortcut(1):
			// 3 to reach the adjacency hole, 0 to enter, 14 for the ride.
			is.Equal(c.Outcome.Progress, 27)
			is.True(c.Outcome.OnShortcut)
		}
	}
}
