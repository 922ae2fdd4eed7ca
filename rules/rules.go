// Package rules is the flat, ordered registry of predicate rules that decide
// move legality. Every rule always runs; a move is legal iff every rule
// passes, and the full violation list is reported so UIs can explain
// rejections and regression tests can assert on exact reasons.
package rules

import (
	"github.com/samber/lo"

	"github.com/kenbin64/fasttrackgame-sub002/deck"
	"github.com/kenbin64/fasttrackgame-sub002/move"
)

// Context carries every fact a rule may consult, computed once per candidate
// move from the move, the player, the card, and the game state. Rules read
// it; only the win rule writes (ResultsInWin).
type Context struct {
	Mover  int
	Move   move.Move
	Effect deck.Effect
	// HopBudget is the declared hop count for this move: the card's hops, or
	// the chosen portion of a split card.
	HopBudget int

	// Occupancy facts.
	LandsOnOwn         bool
	LandsOnOpponent    bool
	VictimOwner        int
	VictimHoldingCount int
	HoldingCapacity    int
	PathBlockedByOwn   bool

	// Traversal facts.
	FromHolding        bool
	FromCapture        bool
	EntersOwnSafe      bool
	EntersForeignSafe  bool
	CircuitEligible    bool
	Overshoot          bool
	MovesBackward      bool
	BackwardIntoProtected bool
	// DestProtected is true when the destination may never host a capture:
	// a safe-zone hole, a holding area, or the shared capture hole.
	DestProtected bool

	// Win facts.
	PiecesHomeAfter int
	PiecesPerPlayer int

	// ResultsInWin is set by the win rule when the move leaves every one of
	// the mover's pieces home.
	ResultsInWin bool
}

// A Verdict is one rule's answer.
type Verdict struct {
	Valid  bool
	Reason string
}

func ok() Verdict { return Verdict{Valid: true} }

func fail(reason string) Verdict { return Verdict{Valid: false, Reason: reason} }

// A Rule is a single independent predicate.
type Rule interface {
	ID() string
	Evaluate(ctx *Context) Verdict
}

// A Violation is a failed rule with its reason.
type Violation struct {
	RuleID string `json:"rule"`
	Reason string `json:"reason"`
}

// Result is the verdict of a full registry pass.
type Result struct {
	Valid      bool
	Win        bool
	Violations []Violation
}

// Reasons flattens the violation list for diagnostics.
func (r Result) Reasons() []string {
	return lo.Map(r.Violations, func(v Violation, _ int) string {
		return v.RuleID + ": " + v.Reason
	})
}

type ruleFunc struct {
	id string
	fn func(*Context) Verdict
}

func (r ruleFunc) ID() string                    { return r.id }
func (r ruleFunc) Evaluate(ctx *Context) Verdict { return r.fn(ctx) }

// Registry is an ordered list of rules. Order affects reporting only; all
// rules always run.
type Registry struct {
	rules []Rule
}

// NewRegistry returns the standard registry.
func NewRegistry() *Registry {
	r := &Registry{}
	r.Register(
		ruleFunc{"entry-card-gating", entryCardGating},
		ruleFunc{"own-piece-blocking", ownPieceBlocking},
		ruleFunc{"capture-eligibility", captureEligibility},
		ruleFunc{"safe-zone-ownership", safeZoneOwnership},
		ruleFunc{"circuit-completion", circuitCompletion},
		ruleFunc{"safe-zone-exact", safeZoneExact},
		ruleFunc{"win-condition", winCondition},
	)
	return r
}

func (r *Registry) Register(rules ...Rule) {
	r.rules = append(r.rules, rules...)
}

func (r *Registry) Rules() []Rule { return r.rules }

// Validate runs every rule against ctx and collects all violations.
func (r *Registry) Validate(ctx *Context) Result {
	res := Result{Valid: true}
	for _, rule := range r.rules {
		if v := rule.Evaluate(ctx); !v.Valid {
			res.Valid = false
			res.Violations = append(res.Violations, Violation{
				RuleID: rule.ID(),
				Reason: v.Reason,
			})
		}
	}
	res.Win = res.Valid && ctx.ResultsInWin
	return res
}

func entryCardGating(ctx *Context) Verdict {
	if ctx.FromHolding && !ctx.Effect.Entry {
		return fail("leaving holding requires an entry card")
	}
	if ctx.Move.Type == move.TypeEntry && !ctx.FromHolding {
		return fail("entry move for a piece not in holding")
	}
	if ctx.FromCapture && !ctx.Effect.ExitCapture {
		return fail("leaving the capture hole requires an exit-capture card")
	}
	return ok()
}

func ownPieceBlocking(ctx *Context) Verdict {
	if ctx.PathBlockedByOwn {
		return fail("path passes through an own piece")
	}
	if ctx.LandsOnOwn {
		return fail("destination occupied by an own piece")
	}
	return ok()
}

func captureEligibility(ctx *Context) Verdict {
	if !ctx.LandsOnOpponent {
		return ok()
	}
	if ctx.DestProtected {
		return fail("cannot capture in a protected hole")
	}
	if ctx.VictimHoldingCount >= ctx.HoldingCapacity {
		return fail("cannot capture, holding full")
	}
	return ok()
}

func safeZoneOwnership(ctx *Context) Verdict {
	if ctx.EntersForeignSafe {
		return fail("only the owner's pieces may enter a safe zone")
	}
	return ok()
}

func circuitCompletion(ctx *Context) Verdict {
	if ctx.EntersOwnSafe && !ctx.CircuitEligible {
		return fail("safe zone requires a completed circuit")
	}
	return ok()
}

func safeZoneExact(ctx *Context) Verdict {
	if ctx.Overshoot {
		return fail("overshoots an exact-landing hole")
	}
	if ctx.BackwardIntoProtected {
		return fail("backward movement may not enter a protected hole")
	}
	return ok()
}

func winCondition(ctx *Context) Verdict {
	if ctx.PiecesPerPlayer > 0 && ctx.PiecesHomeAfter == ctx.PiecesPerPlayer {
		ctx.ResultsInWin = true
	}
	return ok()
}
