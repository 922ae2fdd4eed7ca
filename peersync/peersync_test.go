package peersync

import (
	"testing"

	"github.com/matryer/is"

	"github.com/kenbin64/fasttrackgame-sub002/game"
	"github.com/kenbin64/fasttrackgame-sub002/statehash"
)

// testPeer builds a peer without a NATS connection; the in-order apply and
// divergence logic never touch the wire.
func testPeer(t *testing.T, name string) *Peer {
	t.Helper()
	s, err := game.NewGameState(game.DefaultRuleset())
	if err != nil {
		t.Fatal(err)
	}
	return &Peer{
		cfg:     Config{Name: name, Channel: "test"},
		state:   s,
		pending: make(map[uint64]game.Entry),
	}
}

func entryFor(t *testing.T, seq uint64, evt game.Event) game.Entry {
	t.Helper()
	e, err := game.NewEntry(seq, evt)
	if err != nil {
		t.Fatal(err)
	}
	return e
}

func TestReceiveAppliesInOrder(t *testing.T) {
	is := is.New(t)
	p := testPeer(t, "a")

	var seen []uint64
	p.OnApplied = func(s *game.GameState) { seen = append(seen, s.Seq) }

	p.receive(entryFor(t, 1, &game.PlayerJoined{Name: "alice"}))
	p.receive(entryFor(t, 2, &game.PlayerJoined{Name: "bob"}))
	is.Equal(p.State().Seq, uint64(2))
	is.Equal(len(p.State().Players), 2)
	is.Equal(seen, []uint64{1, 2})

	// A duplicate or stale entry is ignored.
	p.receive(entryFor(t, 2, &game.PlayerJoined{Name: "bob"}))
	is.Equal(p.State().Seq, uint64(2))
	is.Equal(len(seen), 2)
}

func TestReceiveBuffersOutOfOrder(t *testing.T) {
	is := is.New(t)
	p := testPeer(t, "a")

	e1 := entryFor(t, 1, &game.PlayerJoined{Name: "alice"})
	e2 := entryFor(t, 2, &game.PlayerJoined{Name: "bob"})
	e3 := entryFor(t, 3, &game.GameStarted{Seed: 5})

	p.receive(e3)
	p.receive(e2)
	is.Equal(p.State().Seq, uint64(0))
	is.Equal(len(p.pending), 2)

	// The gap closes and the buffer drains in one sweep.
	p.receive(e1)
	is.Equal(p.State().Seq, uint64(3))
	is.Equal(len(p.pending), 0)
	is.Equal(p.State().Phase, game.PhaseAwaitingDraw)
}

func TestRejectedEntryLeavesStateAlone(t *testing.T) {
	is := is.New(t)
	p := testPeer(t, "a")

	// Starting with no players is invalid; the entry is dropped, not applied.
	p.receive(entryFor(t, 1, &game.GameStarted{Seed: 5}))
	is.Equal(p.State().Seq, uint64(0))
	is.Equal(p.State().Phase, game.PhaseLobby)
}

func TestProbeDetectsDivergence(t *testing.T) {
	is := is.New(t)
	p := testPeer(t, "a")
	p.receive(entryFor(t, 1, &game.PlayerJoined{Name: "alice"}))

	var got *ErrSyncDiverged
	p.OnDiverged = func(err *ErrSyncDiverged) { got = err }

	// Same seq, same hash: converged, no callback.
	p.handleProbe(Probe{Peer: "b", Seq: 1, Hash: statehash.Hash(p.State())})
	is.True(got == nil)

	// A peer's own echoed probe is ignored.
	p.handleProbe(Probe{Peer: "a", Seq: 1, Hash: 12345})
	is.True(got == nil)

	// A probe behind us is left to catch up on its own.
	p.handleProbe(Probe{Peer: "b", Seq: 0, Hash: 12345})
	is.True(got == nil)

	// Same seq, different hash: diverged.
	p.handleProbe(Probe{Peer: "b", Seq: 1, Hash: statehash.Hash(p.State()) + 1})
	is.True(got != nil)
	is.Equal(got.Seq, uint64(1))
	is.Equal(got.RemotePeer, "b")
	is.True(got.Error() != "")
}

func TestEntriesBetween(t *testing.T) {
	is := is.New(t)
	p := testPeer(t, "a")
	p.receive(entryFor(t, 1, &game.PlayerJoined{Name: "alice"}))
	p.receive(entryFor(t, 2, &game.PlayerJoined{Name: "bob"}))
	p.receive(entryFor(t, 3, &game.GameStarted{Seed: 5}))

	out := p.entriesBetween(2, 3)
	is.Equal(len(out), 2)
	is.Equal(out[0].Seq, uint64(2))
	is.Equal(out[1].Seq, uint64(3))

	is.Equal(len(p.entriesBetween(9, 12)), 0)
}
