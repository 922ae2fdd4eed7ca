package game

import (
	"errors"
	"fmt"
	"strings"

	"github.com/kenbin64/fasttrackgame-sub002/move"
	"github.com/kenbin64/fasttrackgame-sub002/rules"
)

// ErrNoLegalMoves means the drawn card yields zero candidates; the turn
// auto-skips to resolution.
var ErrNoLegalMoves = errors.New("card yields no legal moves")

// An InvalidEventError rejects a malformed or out-of-turn event at the
// reducer boundary. The state is unchanged.
type InvalidEventError struct {
	EventType string
	Reason    string
}

func (e *InvalidEventError) Error() string {
	return fmt.Sprintf("invalid event %s: %s", e.EventType, e.Reason)
}

func invalidEvent(evt Event, format string, args ...interface{}) error {
	return &InvalidEventError{
		EventType: evt.EventType(),
		Reason:    fmt.Sprintf(format, args...),
	}
}

// An IllegalMoveError is a validator rejection: recoverable, the player is
// re-prompted. It carries the full violation list.
type IllegalMoveError struct {
	Move       move.Move
	Violations []rules.Violation
}

func (e *IllegalMoveError) Error() string {
	if len(e.Violations) == 0 {
		return fmt.Sprintf("illegal move %s: not a generated candidate", e.Move.String())
	}
	reasons := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		reasons[i] = v.Reason
	}
	return fmt.Sprintf("illegal move %s: %s", e.Move.String(), strings.Join(reasons, "; "))
}

// A HopMismatchError is an internal consistency fault: a generated path's
// hop count disagrees with the card's declared movement. The move is
// rejected and the full context logged; it is never silently corrected.
type HopMismatchError struct {
	Move     move.Move
	Declared int
	Actual   int
}

func (e *HopMismatchError) Error() string {
	return fmt.Sprintf("hop mismatch on %s: declared %d, path has %d",
		e.Move.String(), e.Declared, e.Actual)
}
