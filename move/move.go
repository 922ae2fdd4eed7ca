// Package move holds the move value types shared by the generator, the
// validator, and the reducer.
package move

import (
	"fmt"
	"strings"

	"github.com/kenbin64/fasttrackgame-sub002/board"
)

// A PieceID identifies a piece for the whole game. IDs are dense: piece i of
// player p is p*piecesPerPlayer + i.
type PieceID uint8

// Type is the kind of a move.
type Type uint8

const (
	// TypePlay is an ordinary hop-by-hop movement.
	TypePlay Type = iota
	// TypeEntry brings a piece out of holding onto its entry hole.
	TypeEntry
	// TypeSplitPart is one half of a split-movement card.
	TypeSplitPart
	// TypeCaptureExit releases a piece trapped in the capture hole.
	TypeCaptureExit
	// TypePass plays no piece; used when a card yields no legal moves.
	TypePass
)

func (t Type) String() string {
	switch t {
	case TypePlay:
		return "play"
	case TypeEntry:
		return "entry"
	case TypeSplitPart:
		return "split-part"
	case TypeCaptureExit:
		return "capture-exit"
	case TypePass:
		return "pass"
	}
	return "unknown"
}

// Annotations the generator attaches to candidates so callers can tell
// materially different paths apart.
const (
	AnnotEntersShortcut = "enters-shortcut"
	AnnotExitsShortcut  = "exits-shortcut"
	AnnotStaysShortcut  = "stays-on-shortcut"
	AnnotEntersCapture  = "enters-capture-hole"
	AnnotEntersSafeZone = "enters-safe-zone"
	AnnotCapture        = "capture"
	AnnotBackward       = "backward"
	AnnotWins           = "wins"
)

// A Move is a piece, where it starts, where it ends, and every hole it
// touches in between. Path includes both endpoints.
type Move struct {
	Piece       PieceID      `json:"piece"`
	From        board.Hole   `json:"from"`
	To          board.Hole   `json:"to"`
	Path        []board.Hole `json:"path"`
	Type        Type         `json:"type"`
	Hops        int          `json:"hops"`
	Annotations []string     `json:"annotations,omitempty"`
}

// Hops declared vs path length: entry moves are exempt because they are a
// holding-to-entry placement, not a hop sequence.
func (m *Move) PathHops() int {
	if len(m.Path) == 0 {
		return 0
	}
	return len(m.Path) - 1
}

func (m *Move) Annotated(a string) bool {
	for _, s := range m.Annotations {
		if s == a {
			return true
		}
	}
	return false
}

// String provides a string just for debugging purposes.
func (m *Move) String() string {
	return fmt.Sprintf("<move piece: %d type: %v %v→%v hops: %d annot: [%s]>",
		m.Piece, m.Type, m.From, m.To, m.Hops, strings.Join(m.Annotations, " "))
}

// Equal compares the fields peers must agree on: piece, type, and path.
func (m *Move) Equal(o *Move) bool {
	if m.Piece != o.Piece || m.Type != o.Type || len(m.Path) != len(o.Path) {
		return false
	}
	for i := range m.Path {
		if m.Path[i] != o.Path[i] {
			return false
		}
	}
	return true
}
