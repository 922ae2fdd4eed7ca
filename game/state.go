// Package game encapsulates the Fast Track game state and the pure event
// reducer that advances it. Events are the only mechanism of state change;
// all randomness flows through a PCG source whose state is itself part of
// GameState, so identical event logs replay bit-identically everywhere.
package game

import (
	"fmt"

	"github.com/dgryski/go-pcgr"
	"github.com/lithammer/shortuuid"
	"lukechampine.com/frand"

	"github.com/kenbin64/fasttrackgame-sub002/board"
	"github.com/kenbin64/fasttrackgame-sub002/deck"
	"github.com/kenbin64/fasttrackgame-sub002/move"
)

// rngStream is the fixed PCG stream selector. Only the seed varies per game;
// it arrives in the GameStarted event.
const rngStream int64 = 1442695040888963407

// Phase is the turn state machine position.
type Phase uint8

const (
	PhaseLobby Phase = iota
	PhaseAwaitingDraw
	PhaseAwaitingMove
	PhaseAwaitingSplit
	PhaseTurnResolution
	PhaseGameWon
)

func (p Phase) String() string {
	switch p {
	case PhaseLobby:
		return "lobby"
	case PhaseAwaitingDraw:
		return "awaiting-draw"
	case PhaseAwaitingMove:
		return "awaiting-move"
	case PhaseAwaitingSplit:
		return "awaiting-split-move"
	case PhaseTurnResolution:
		return "turn-resolution"
	case PhaseGameWon:
		return "game-won"
	}
	return "unknown"
}

// PlayerState is the engine's view of a player. Personality, avatars, and
// anything UI or AI flavored live outside the engine, keyed by player index.
type PlayerState struct {
	Name string `json:"name"`
}

// A Piece carries only what legality needs: location, ownership, and
// traversal flags.
type Piece struct {
	ID    move.PieceID `json:"id"`
	Owner int          `json:"owner"`
	Loc   board.Hole   `json:"loc"`
	// OnShortcut is true while the piece sits on a shortcut-ring hole.
	OnShortcut bool `json:"on_shortcut"`
	// CircuitDone is the sticky circuit-completion flag gating safe-zone
	// entry. It latches at turn resolution once Progress covers a lap.
	CircuitDone bool `json:"circuit_done"`
	// Progress is the lap odometer in perimeter-equivalent forward hops.
	Progress int `json:"progress"`
}

// GameState is the complete, serializable game position. Apply never mutates
// one; it returns a successor.
type GameState struct {
	ID      string        `json:"id"`
	Seed    int64         `json:"seed"`
	RNG     pcgr.Rand     `json:"rng"`
	Players []PlayerState `json:"players"`
	Pieces  []Piece       `json:"pieces"`
	Deck    deck.Deck     `json:"deck"`

	Phase     Phase  `json:"phase"`
	OnTurn    int    `json:"on_turn"`
	TurnCount int    `json:"turn_count"`
	Seq       uint64 `json:"seq"`

	// PendingCard is the card drawn this turn, until resolution.
	PendingCard *deck.Card `json:"pending_card,omitempty"`
	// PendingExtra notes that the pending card grants another turn.
	PendingExtra bool `json:"pending_extra,omitempty"`
	// SplitRemaining is the hop balance of a split card after its first
	// sub-move; SplitPiece is the piece that took the first part.
	SplitRemaining int          `json:"split_remaining,omitempty"`
	SplitPiece     move.PieceID `json:"split_piece,omitempty"`
	// MovedThisTurn drives the forced shortcut exit at resolution.
	MovedThisTurn []move.PieceID `json:"moved_this_turn,omitempty"`

	Winner int `json:"winner"`

	// History is the applied event log; the state hash does not cover it,
	// and the event log, not the snapshot, is the canonical replay format.
	History []Entry `json:"-"`

	rules *Ruleset
	topo  *board.Topology
}

// NewGameState returns an empty lobby-phase state for the given ruleset.
func NewGameState(rs *Ruleset) (*GameState, error) {
	if err := rs.Validate(); err != nil {
		return nil, err
	}
	topo, err := board.New(rs.Board)
	if err != nil {
		return nil, err
	}
	return &GameState{
		ID:     shortuuid.New(),
		Winner: -1,
		Phase:  PhaseLobby,
		rules:  rs,
		topo:   topo,
	}, nil
}

// AttachRules rebinds the unexported ruleset and topology after a state has
// been decoded from a snapshot.
func (s *GameState) AttachRules(rs *Ruleset) error {
	topo, err := board.New(rs.Board)
	if err != nil {
		return err
	}
	s.rules = rs
	s.topo = topo
	return nil
}

func (s *GameState) Rules() *Ruleset            { return s.rules }
func (s *GameState) Topology() *board.Topology  { return s.topo }

// RandomSeed produces a fresh game seed for callers that do not bring one.
func RandomSeed() int64 {
	return int64(frand.Uint64n(1<<63 - 1))
}

// Copy deep-copies the state. The ruleset and topology are immutable and
// shared.
func (s *GameState) Copy() *GameState {
	ns := *s
	ns.Players = append([]PlayerState{}, s.Players...)
	ns.Pieces = append([]Piece{}, s.Pieces...)
	ns.Deck = s.Deck.Copy()
	ns.MovedThisTurn = append([]move.PieceID{}, s.MovedThisTurn...)
	ns.History = append([]Entry{}, s.History...)
	if s.PendingCard != nil {
		c := *s.PendingCard
		ns.PendingCard = &c
	}
	return &ns
}

// Occupant reports the piece sitting on h, if any. Holding pieces are not
// active occupants; any number of them share their holding area.
func (s *GameState) Occupant(h board.Hole) (owner int, id move.PieceID, ok bool) {
	if h.Kind == board.HoleHolding {
		return 0, 0, false
	}
	for i := range s.Pieces {
		if s.Pieces[i].Loc == h {
			return s.Pieces[i].Owner, s.Pieces[i].ID, true
		}
	}
	return 0, 0, false
}

// PieceByID returns a pointer into s.Pieces; callers only read through it
// unless they hold the sole reference to s.
func (s *GameState) PieceByID(id move.PieceID) (*Piece, error) {
	if int(id) >= len(s.Pieces) {
		return nil, fmt.Errorf("no piece %d", id)
	}
	return &s.Pieces[id], nil
}

// HoldingCount is the number of owner's pieces currently in holding.
func (s *GameState) HoldingCount(owner int) int {
	n := 0
	for i := range s.Pieces {
		if s.Pieces[i].Owner == owner && s.Pieces[i].Loc.Kind == board.HoleHolding {
			n++
		}
	}
	return n
}

// HomeCount is the number of owner's pieces in its safe zone or winner hole.
func (s *GameState) HomeCount(owner int) int {
	n := 0
	for i := range s.Pieces {
		p := &s.Pieces[i]
		if p.Owner == owner && (p.Loc.Kind == board.HoleSafe || p.Loc.Kind == board.HoleWinner) {
			n++
		}
	}
	return n
}

// occupantExcluding ignores one piece, typically the one that is moving.
func (s *GameState) occupantExcluding(h board.Hole, not move.PieceID) (int, move.PieceID, bool) {
	owner, id, ok := s.Occupant(h)
	if ok && id == not {
		return 0, 0, false
	}
	return owner, id, ok
}

func (s *GameState) pieceMoved(id move.PieceID) bool {
	for _, m := range s.MovedThisTurn {
		if m == id {
			return true
		}
	}
	return false
}

// NextCard computes the card the next CardDrawn event must carry, without
// touching s. Reshuffles are simulated on a copy of the deck and RNG.
func NextCard(s *GameState) (deck.Card, error) {
	cp := s.Copy()
	return cp.Deck.DrawCard(&cp.RNG)
}
