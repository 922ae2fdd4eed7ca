package rules

import (
	"testing"

	"github.com/matryer/is"

	"github.com/kenbin64/fasttrackgame-sub002/deck"
	"github.com/kenbin64/fasttrackgame-sub002/move"
)

func containsViolation(res Result, ruleID, reason string) bool {
	for _, v := range res.Violations {
		if v.RuleID == ruleID && v.Reason == reason {
			return true
		}
	}
	return false
}

func TestCleanMovePasses(t *testing.T) {
	is := is.New(t)
	reg := NewRegistry()
	res := reg.Validate(&Context{
		HopBudget:       5,
		HoldingCapacity: 5,
		PiecesPerPlayer: 5,
	})
	is.True(res.Valid)
	is.True(!res.Win)
	is.Equal(len(res.Violations), 0)
}

func TestEntryCardGating(t *testing.T) {
	is := is.New(t)
	reg := NewRegistry()

	res := reg.Validate(&Context{FromHolding: true})
	is.True(!res.Valid)
	is.True(containsViolation(res, "entry-card-gating", "leaving holding requires an entry card"))

	res = reg.Validate(&Context{FromHolding: true, Effect: deck.Effect{Entry: true}})
	is.True(res.Valid)

	res = reg.Validate(&Context{Move: move.Move{Type: move.TypeEntry}})
	is.True(!res.Valid)

	res = reg.Validate(&Context{FromCapture: true})
	is.True(!res.Valid)
	res = reg.Validate(&Context{FromCapture: true, Effect: deck.Effect{ExitCapture: true}})
	is.True(res.Valid)
}

func TestOwnPieceBlocking(t *testing.T) {
	is := is.New(t)
	reg := NewRegistry()

	res := reg.Validate(&Context{LandsOnOwn: true})
	is.True(containsViolation(res, "own-piece-blocking", "destination occupied by an own piece"))

	res = reg.Validate(&Context{PathBlockedByOwn: true})
	is.True(containsViolation(res, "own-piece-blocking", "path passes through an own piece"))
}

func TestCaptureEligibility(t *testing.T) {
	is := is.New(t)
	reg := NewRegistry()

	// A plain capture is fine.
	res := reg.Validate(&Context{
		LandsOnOpponent: true, VictimHoldingCount: 2, HoldingCapacity: 5,
	})
	is.True(res.Valid)

	// Captures into protected holes are illegal.
	res = reg.Validate(&Context{
		LandsOnOpponent: true, DestProtected: true, HoldingCapacity: 5,
	})
	is.True(containsViolation(res, "capture-eligibility", "cannot capture in a protected hole"))

	// A full holding area rejects the capture loudly instead of silently
	// failing it.
	res = reg.Validate(&Context{
		LandsOnOpponent: true, VictimHoldingCount: 5, HoldingCapacity: 5,
	})
	is.True(!res.Valid)
	is.True(containsViolation(res, "capture-eligibility", "cannot capture, holding full"))
}

func TestSafeZoneRules(t *testing.T) {
	is := is.New(t)
	reg := NewRegistry()

	res := reg.Validate(&Context{EntersForeignSafe: true})
	is.True(containsViolation(res, "safe-zone-ownership", "only the owner's pieces may enter a safe zone"))

	res = reg.Validate(&Context{EntersOwnSafe: true})
	is.True(containsViolation(res, "circuit-completion", "safe zone requires a completed circuit"))

	res = reg.Validate(&Context{EntersOwnSafe: true, CircuitEligible: true})
	is.True(res.Valid)

	res = reg.Validate(&Context{Overshoot: true})
	is.True(containsViolation(res, "safe-zone-exact", "overshoots an exact-landing hole"))

	res = reg.Validate(&Context{MovesBackward: true, BackwardIntoProtected: true})
	is.True(containsViolation(res, "safe-zone-exact", "backward movement may not enter a protected hole"))
}

func TestWinCondition(t *testing.T) {
	is := is.New(t)
	reg := NewRegistry()

	res := reg.Validate(&Context{
		PiecesPerPlayer: 5, PiecesHomeAfter: 5,
		EntersOwnSafe: true, CircuitEligible: true,
	})
	is.True(res.Valid)
	is.True(res.Win)

	// A win on an otherwise invalid move does not count.
	res = reg.Validate(&Context{
		PiecesPerPlayer: 5, PiecesHomeAfter: 5, LandsOnOwn: true,
	})
	is.True(!res.Valid)
	is.True(!res.Win)
}

// Every rule runs even after one fails, so UIs see the complete list.
func TestAllViolationsReported(t *testing.T) {
	is := is.New(t)
	reg := NewRegistry()

	res := reg.Validate(&Context{
		FromHolding:       true,
		LandsOnOwn:        true,
		EntersForeignSafe: true,
	})
	is.True(!res.Valid)
	is.Equal(len(res.Violations), 3)
	is.Equal(len(res.Reasons()), 3)
}
