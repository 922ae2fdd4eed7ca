// Package statehash produces the 64-bit fingerprint peers exchange to
// detect divergence. Two states that would accept the same future events
// hash equal; anything affecting game semantics feeds the hash, while
// cosmetic fields (the event history, the game ID) do not.
//
// The serialization is fixed little-endian field order, so the fingerprint
// is stable across processes, hosts, and restarts.
package statehash

import (
	"encoding/binary"
	"hash"

	"github.com/cespare/xxhash"

	"github.com/kenbin64/fasttrackgame-sub002/game"
)

// formatVersion is folded into every hash. Bump it whenever the field
// serialization below changes, so peers on different releases read as
// diverged instead of accidentally agreeing.
const formatVersion = 1

// Hash fingerprints the semantic content of s.
func Hash(s *game.GameState) uint64 {
	d := xxhash.New()
	w := writer{d: d}

	w.u8(formatVersion)
	w.u64(uint64(s.Seed))
	w.u64(s.RNG.State)
	w.u64(s.RNG.Inc)
	w.u64(s.Seq)
	w.u64(uint64(s.TurnCount))
	w.u8(uint8(s.Phase))
	w.i32(s.OnTurn)
	w.i32(s.Winner)

	w.u32(uint32(len(s.Players)))
	for _, p := range s.Players {
		w.str(p.Name)
	}

	w.u32(uint32(len(s.Pieces)))
	for _, p := range s.Pieces {
		w.u8(uint8(p.ID))
		w.i32(p.Owner)
		w.u8(uint8(p.Loc.Kind))
		w.i32(int(p.Loc.Owner))
		w.i32(int(p.Loc.Index))
		w.bool(p.OnShortcut)
		w.bool(p.CircuitDone)
		w.i32(p.Progress)
	}

	w.u32(uint32(len(s.Deck.Draw)))
	for _, c := range s.Deck.Draw {
		w.u8(uint8(c.Rank))
		w.u8(uint8(c.Suit))
	}
	w.u32(uint32(len(s.Deck.Discard)))
	for _, c := range s.Deck.Discard {
		w.u8(uint8(c.Rank))
		w.u8(uint8(c.Suit))
	}

	if s.PendingCard != nil {
		w.u8(1)
		w.u8(uint8(s.PendingCard.Rank))
		w.u8(uint8(s.PendingCard.Suit))
	} else {
		w.u8(0)
	}
	w.bool(s.PendingExtra)
	w.i32(s.SplitRemaining)
	w.u8(uint8(s.SplitPiece))
	w.u32(uint32(len(s.MovedThisTurn)))
	for _, id := range s.MovedThisTurn {
		w.u8(uint8(id))
	}

	return d.Sum64()
}

type writer struct {
	d hash.Hash64
}

// The xxhash digest's Write never fails.

func (w writer) u8(v uint8) { w.d.Write([]byte{v}) }
func (w writer) u32(v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	w.d.Write(b[:])
}
func (w writer) u64(v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	w.d.Write(b[:])
}
func (w writer) i32(v int) { w.u32(uint32(int32(v))) }
func (w writer) bool(v bool) {
	if v {
		w.u8(1)
	} else {
		w.u8(0)
	}
}
func (w writer) str(s string) {
	w.u32(uint32(len(s)))
	w.d.Write([]byte(s))
}
