package game

import (
	"encoding/json"
	"fmt"

	"github.com/kenbin64/fasttrackgame-sub002/board"
	"github.com/kenbin64/fasttrackgame-sub002/deck"
	"github.com/kenbin64/fasttrackgame-sub002/move"
)

// Event type names as they appear on the wire and in event logs.
const (
	EvtGameStarted     = "game_started"
	EvtPlayerJoined    = "player_joined"
	EvtCardDrawn       = "card_drawn"
	EvtMovePlayed      = "move_played"
	EvtSplitMovePlayed = "split_move_played"
	EvtTurnEnded       = "turn_ended"
)

// An Event is one game state change. SyncRequest/SyncResponse are not
// events; they are hash probes owned by the synchronization layer and never
// reach the reducer.
type Event interface {
	EventType() string
}

// GameStarted seeds the PRNG, fixes the player order, shuffles, and places
// every piece in holding.
type GameStarted struct {
	Seed        int64    `json:"seed"`
	PlayerOrder []string `json:"player_order"`
}

func (*GameStarted) EventType() string { return EvtGameStarted }

// PlayerJoined adds a player during the lobby phase.
type PlayerJoined struct {
	Name string `json:"name"`
}

func (*PlayerJoined) EventType() string { return EvtPlayerJoined }

// CardDrawn is the active player drawing the top card. The card is carried
// for cross-peer verification: a deterministic deck means every peer must
// pop the same card, and a mismatch is rejected as an invalid event.
type CardDrawn struct {
	Player int       `json:"player"`
	Card   deck.Card `json:"card"`
}

func (*CardDrawn) EventType() string { return EvtCardDrawn }

// MovePlayed applies one chosen candidate, identified by piece and full
// path.
type MovePlayed struct {
	Player int          `json:"player"`
	Piece  move.PieceID `json:"piece"`
	Path   []board.Hole `json:"path"`
}

func (*MovePlayed) EventType() string { return EvtMovePlayed }

// SplitMovePlayed is the second half of a split-movement card.
type SplitMovePlayed struct {
	Player int          `json:"player"`
	Piece  move.PieceID `json:"piece"`
	Path   []board.Hole `json:"path"`
}

func (*SplitMovePlayed) EventType() string { return EvtSplitMovePlayed }

// TurnEnded resolves the turn: discards, forced shortcut exits, circuit
// latching, and turn handover (or extension).
type TurnEnded struct {
	Player int `json:"player"`
}

func (*TurnEnded) EventType() string { return EvtTurnEnded }

// An Entry is a sequence-numbered event envelope: the wire and log format.
type Entry struct {
	Seq     uint64          `json:"seq"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// NewEntry wraps an event into an envelope.
func NewEntry(seq uint64, evt Event) (Entry, error) {
	payload, err := json.Marshal(evt)
	if err != nil {
		return Entry{}, err
	}
	return Entry{Seq: seq, Type: evt.EventType(), Payload: payload}, nil
}

// Decode unpacks the envelope into a concrete event.
func (e Entry) Decode() (Event, error) {
	var evt Event
	switch e.Type {
	case EvtGameStarted:
		evt = &GameStarted{}
	case EvtPlayerJoined:
		evt = &PlayerJoined{}
	case EvtCardDrawn:
		evt = &CardDrawn{}
	case EvtMovePlayed:
		evt = &MovePlayed{}
	case EvtSplitMovePlayed:
		evt = &SplitMovePlayed{}
	case EvtTurnEnded:
		evt = &TurnEnded{}
	default:
		return nil, fmt.Errorf("unknown event type %q", e.Type)
	}
	if err := json.Unmarshal(e.Payload, evt); err != nil {
		return nil, err
	}
	return evt, nil
}
