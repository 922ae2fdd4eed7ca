package game

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/kenbin64/fasttrackgame-sub002/board"
	"github.com/kenbin64/fasttrackgame-sub002/move"
)

// A Correction records one inconsistency the auditor repaired.
type Correction struct {
	Piece  move.PieceID `json:"piece"`
	Field  string       `json:"field"`
	Detail string       `json:"detail"`
}

func (c Correction) String() string {
	return fmt.Sprintf("piece %d: %s (%s)", c.Piece, c.Field, c.Detail)
}

// Audit sweeps the piece records for fields that have drifted from what the
// piece's location implies, and returns a repaired copy along with the list
// of corrections made. A clean state returns s itself and a nil list.
//
// The reducer keeps these fields consistent on its own; Audit exists for
// states loaded from disk or received from a peer.
func Audit(s *GameState) (*GameState, []Correction) {
	var corrections []Correction
	ns := s
	fix := func(i int, field, detail string) *Piece {
		if ns == s {
			ns = s.Copy()
		}
		corrections = append(corrections, Correction{
			Piece:  ns.Pieces[i].ID,
			Field:  field,
			Detail: detail,
		})
		return &ns.Pieces[i]
	}

	lap := s.topo.LapDistance()
	for i := range s.Pieces {
		p := &s.Pieces[i]
		wantShortcut := p.Loc.Kind == board.HoleShortcut
		if p.OnShortcut != wantShortcut {
			fix(i, "on_shortcut", fmt.Sprintf("at %v", p.Loc)).OnShortcut = wantShortcut
		}
		switch p.Loc.Kind {
		case board.HoleHolding:
			if p.Progress != 0 || p.CircuitDone {
				fp := fix(i, "holding reset", "held pieces carry no progress")
				fp.Progress = 0
				fp.CircuitDone = false
			}
		case board.HoleSafe, board.HoleWinner:
			if !p.CircuitDone {
				fix(i, "circuit_done", "safe-zone pieces have completed a circuit").CircuitDone = true
			}
		default:
			if !p.CircuitDone && p.Progress >= lap {
				fix(i, "circuit_done", fmt.Sprintf("progress %d covers a lap", p.Progress)).CircuitDone = true
			}
		}
	}

	for _, c := range corrections {
		log.Warn().Str("game", s.ID).Uint8("piece", uint8(c.Piece)).
			Str("field", c.Field).Str("detail", c.Detail).Msg("audit correction")
	}
	return ns, corrections
}
