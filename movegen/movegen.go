// Package movegen contains the hop-by-hop move generator. Given a piece, a
// card effect, and the board occupancy, it enumerates every path reachable
// in exactly the card's hop count, surfacing branch choices (stay on the
// shortcut ring, exit it, drop into the capture hole, turn into the safe
// zone) as distinct candidates rather than resolving them itself.
package movegen

import (
	"github.com/rs/zerolog/log"

	"github.com/kenbin64/fasttrackgame-sub002/board"
	"github.com/kenbin64/fasttrackgame-sub002/deck"
	"github.com/kenbin64/fasttrackgame-sub002/move"
)

// Occupancy answers who, if anyone, sits on a hole. The generator never
// mutates game state; this is its only view of it.
type Occupancy interface {
	Occupant(h board.Hole) (owner int, id move.PieceID, ok bool)
}

// PieceState is a copy of the traversal state of the piece being moved. The
// generator simulates on this copy; the real piece is untouched.
type PieceState struct {
	ID          move.PieceID
	Owner       int
	Loc         board.Hole
	OnShortcut  bool
	CircuitDone bool
	Progress    int
}

// Outcome is the traversal state the piece would have after a candidate is
// applied. The reducer copies it onto the real piece verbatim, so generation
// and application cannot disagree.
type Outcome struct {
	OnShortcut  bool
	Progress    int
	CircuitDone bool
}

// A Candidate is one legal-by-traversal destination. Captures are annotated,
// not resolved; the rule validator decides capture eligibility.
type Candidate struct {
	Move    move.Move
	Outcome Outcome
	// CapturedPiece/CapturedOwner are set when an opponent piece sits on the
	// destination. CapturedOwner is -1 otherwise.
	CapturedOwner int
	CapturedPiece move.PieceID
}

// Reasons a path is marked blocked.
const (
	ReasonOwnPiece         = "blocked-by-own-piece"
	ReasonOvershoot        = "overshoot-past-terminal"
	ReasonTrapped          = "trapped-in-capture-hole"
	ReasonBackwardCapture  = "backward-into-capture-hole"
	ReasonDeadEnd          = "no-forward-adjacency"
	ReasonNotEntryCard     = "card-cannot-enter"
	ReasonNotExitCard      = "card-cannot-exit-capture"
	ReasonEntryOccupied    = "entry-hole-blocked-by-own-piece"
)

// A BlockedPath records a traversal abandoned at hop Hop. Blocked paths are
// kept for diagnostics and tests; they never silently truncate into shorter
// moves.
type BlockedPath struct {
	Piece  move.PieceID
	Path   []board.Hole
	Hop    int
	Reason string
}

// Generator enumerates candidates for one board topology. It is cheap to
// construct and not safe for concurrent use.
type Generator struct {
	topo *board.Topology
	occ  Occupancy

	candidates []Candidate
	blocked    []BlockedPath

	// walk scratch
	owner    int
	pieceID  move.PieceID
	backward bool
	mtype    move.Type
}

func NewGenerator(t *board.Topology, occ Occupancy) *Generator {
	return &Generator{topo: t, occ: occ}
}

// Candidates returns the results of the last GenAll call.
func (g *Generator) Candidates() []Candidate { return g.candidates }

// Blocked returns the paths the last GenAll abandoned, with the hop index
// and reason for each.
func (g *Generator) Blocked() []BlockedPath { return g.blocked }

// GenAll enumerates every candidate for piece p playing eff with the given
// hop count. hops is eff.Hops except for split sub-moves, where the caller
// passes the chosen portion. The piece's real state is never mutated.
func (g *Generator) GenAll(p PieceState, eff deck.Effect, hops int) []Candidate {
	g.candidates = g.candidates[:0]
	g.blocked = g.blocked[:0]
	g.owner = p.Owner
	g.pieceID = p.ID
	g.backward = eff.Backward
	g.mtype = move.TypePlay

	switch p.Loc.Kind {
	case board.HoleHolding:
		g.genEntry(p, eff)
		return g.candidates
	case board.HoleWinner:
		return nil
	}

	if g.topo.IsCapture(p.Loc) {
		if !eff.ExitCapture {
			g.block([]board.Hole{p.Loc}, 0, ReasonNotExitCard)
			return nil
		}
		g.mtype = move.TypeCaptureExit
	}

	sim := simState{
		loc:      p.Loc,
		shortcut: p.OnShortcut,
		progress: p.Progress,
		eligible: p.CircuitDone,
	}
	g.walk(sim, []board.Hole{p.Loc}, hops)
	return g.candidates
}

// genEntry emits the single holding-to-entry placement. Entry moves are
// exempt from the hop-count property; they are a placement, not a traversal.
func (g *Generator) genEntry(p PieceState, eff deck.Effect) {
	entry := g.topo.EntryHole(p.Owner)
	path := []board.Hole{p.Loc, entry}
	if !eff.Entry {
		g.block(path, 0, ReasonNotEntryCard)
		return
	}
	var captured *capturedRef
	var annots []string
	if owner, id, ok := g.occ.Occupant(entry); ok {
		if owner == p.Owner {
			g.block(path, 1, ReasonEntryOccupied)
			return
		}
		captured = &capturedRef{owner: owner, id: id}
		annots = append(annots, move.AnnotCapture)
	}
	g.emit(path, move.TypeEntry, Outcome{}, captured, annots...)
}

type simState struct {
	loc      board.Hole
	shortcut bool
	progress int
	eligible bool
}

// walk advances one hop at a time, branching on every adjacency choice.
func (g *Generator) walk(sim simState, path []board.Hole, remaining int) {
	if remaining == 0 {
		g.finish(sim, path)
		return
	}
	dir := board.Forward
	if g.backward {
		dir = board.Backward
	}
	var steps []board.Step
	if g.mtype == move.TypeCaptureExit && len(path) == 1 {
		// First hop out of the capture hole resumes ordinary forward
		// movement from its perimeter position.
		exit := (int(sim.loc.Index) + 1) % g.topo.PerimeterLen()
		steps = []board.Step{{To: board.Perimeter(exit), Span: 1}}
	} else {
		steps = g.topo.Steps(sim.loc, dir, g.owner, sim.eligible)
	}
	if len(steps) == 0 {
		g.block(path, len(path)-1, g.terminalReason(sim.loc, dir))
		return
	}
	for _, st := range steps {
		next := sim
		next.loc = st.To
		next.shortcut = st.To.Kind == board.HoleShortcut
		next.progress += st.Span
		if next.progress >= g.topo.LapDistance() {
			next.eligible = true
		}

		hop := len(path)
		npath := append(append([]board.Hole{}, path...), st.To)

		// Own pieces block both pass-through and landing. Two exemptions:
		// the moving piece itself, since a loop around the short shortcut
		// ring may revisit its own origin, and settled safe-zone pieces,
		// which are hopped over so a deeper slot or the winner hole stays
		// reachable. Landing on a settled piece still blocks.
		if owner, id, ok := g.occ.Occupant(st.To); ok && owner == g.owner && id != g.pieceID {
			if st.To.Kind != board.HoleSafe || remaining == 1 {
				g.block(npath, hop, ReasonOwnPiece)
				continue
			}
		}
		if st.EntersCapture && remaining > 1 {
			// Diving off the shortcut into the capture hole must be the
			// final hop; the trap leaves nowhere to spend the rest.
			g.block(npath, hop, ReasonTrapped)
			continue
		}
		g.walk(next, npath, remaining-1)
	}
}

// finish turns a completed path into a candidate.
func (g *Generator) finish(sim simState, path []board.Hole) {
	var annots []string
	for i := 1; i < len(path); i++ {
		prev, cur := path[i-1], path[i]
		switch {
		case cur.Kind == board.HoleShortcut && prev.Kind == board.HolePerimeter:
			annots = appendUnique(annots, move.AnnotEntersShortcut)
		case cur.Kind == board.HoleShortcut && prev.Kind == board.HoleShortcut:
			annots = appendUnique(annots, move.AnnotStaysShortcut)
		case prev.Kind == board.HoleShortcut && cur.Kind == board.HolePerimeter && !g.topo.IsCapture(cur):
			annots = appendUnique(annots, move.AnnotExitsShortcut)
		case cur.Kind == board.HoleSafe && prev.Kind == board.HolePerimeter:
			annots = appendUnique(annots, move.AnnotEntersSafeZone)
		}
		if g.topo.IsCapture(cur) && i == len(path)-1 {
			annots = appendUnique(annots, move.AnnotEntersCapture)
		}
	}
	if g.backward {
		annots = append(annots, move.AnnotBackward)
	}

	out := Outcome{
		OnShortcut:  sim.loc.Kind == board.HoleShortcut,
		Progress:    int(sim.progress),
		CircuitDone: sim.eligible,
	}
	var captured *capturedRef
	if owner, id, ok := g.occ.Occupant(sim.loc); ok && owner != g.owner && id != g.pieceID {
		annots = append(annots, move.AnnotCapture)
		captured = &capturedRef{owner: owner, id: id}
	}
	g.emit(path, g.mtype, out, captured, annots...)
}

type capturedRef struct {
	owner int
	id    move.PieceID
}

func (g *Generator) emit(path []board.Hole, mt move.Type, out Outcome, captured *capturedRef, annots ...string) {
	m := move.Move{
		Piece:       g.pieceID,
		From:        path[0],
		To:          path[len(path)-1],
		Path:        path,
		Type:        mt,
		Hops:        len(path) - 1,
		Annotations: annots,
	}
	c := Candidate{Move: m, Outcome: out, CapturedOwner: -1}
	if captured != nil {
		c.CapturedOwner = captured.owner
		c.CapturedPiece = captured.id
	}
	g.candidates = append(g.candidates, c)
}

func (g *Generator) block(path []board.Hole, hop int, reason string) {
	log.Debug().
		Uint8("piece", uint8(g.pieceID)).
		Int("hop", hop).
		Str("reason", reason).
		Msgf("path blocked at %v", path[len(path)-1])
	g.blocked = append(g.blocked, BlockedPath{
		Piece:  g.pieceID,
		Path:   path,
		Hop:    hop,
		Reason: reason,
	})
}

func (g *Generator) terminalReason(h board.Hole, dir board.Direction) string {
	switch {
	case h.Kind == board.HoleWinner:
		return ReasonOvershoot
	case g.topo.IsCapture(h):
		return ReasonTrapped
	case h.Kind == board.HolePerimeter && dir == board.Backward:
		return ReasonBackwardCapture
	}
	return ReasonDeadEnd
}

func appendUnique(ss []string, s string) []string {
	for _, x := range ss {
		if x == s {
			return ss
		}
	}
	return append(ss, s)
}
