package shell

import (
	"fmt"
	"strings"

	"github.com/kenbin64/fasttrackgame-sub002/board"
	"github.com/kenbin64/fasttrackgame-sub002/game"
)

// DisplayText renders a state as a text summary: turn header, per-player
// piece table, and deck counts.
func DisplayText(s *game.GameState) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "turn %d, phase %v", s.TurnCount, s.Phase)
	if s.Phase == game.PhaseGameWon {
		fmt.Fprintf(&sb, " (winner: %s)", s.Players[s.Winner].Name)
	} else if len(s.Players) > 0 {
		fmt.Fprintf(&sb, ", %s to act", s.Players[s.OnTurn].Name)
	}
	sb.WriteByte('\n')
	if s.PendingCard != nil {
		fmt.Fprintf(&sb, "pending card: %v", *s.PendingCard)
		if s.SplitRemaining > 0 {
			fmt.Fprintf(&sb, " (split, %d hops left)", s.SplitRemaining)
		}
		sb.WriteByte('\n')
	}

	for pi, pl := range s.Players {
		fmt.Fprintf(&sb, "%-12s", pl.Name)
		for _, pc := range s.Pieces {
			if pc.Owner != pi {
				continue
			}
			marker := ""
			if pc.CircuitDone {
				marker = "*"
			}
			fmt.Fprintf(&sb, " %v%s", pc.Loc, marker)
		}
		fmt.Fprintf(&sb, "  (held %d, home %d)\n", s.HoldingCount(pi), s.HomeCount(pi))
	}

	topo := s.Topology()
	sb.WriteString("ring: ")
	for i := 0; i < topo.PerimeterLen(); i++ {
		h := board.Perimeter(i)
		if topo.IsCapture(h) {
			sb.WriteByte('[')
			sb.WriteByte(OccupantMark(s, h))
			sb.WriteByte(']')
			continue
		}
		sb.WriteByte(OccupantMark(s, h))
	}
	sb.WriteString("\nshortcut: ")
	for i := 0; i < topo.ShortcutLen(); i++ {
		sb.WriteByte(OccupantMark(s, board.Shortcut(i)))
	}
	sb.WriteByte('\n')

	fmt.Fprintf(&sb, "deck: %d to draw, %d discarded\n",
		len(s.Deck.Draw), len(s.Deck.Discard))
	return sb.String()
}

// OccupantMark renders a hole's occupant for board sketches: the owner
// digit, or a dot when empty.
func OccupantMark(s *game.GameState, h board.Hole) byte {
	if owner, _, ok := s.Occupant(h); ok {
		return byte('0' + owner)
	}
	return '.'
}
