package eventlog

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/matryer/is"
	"lukechampine.com/frand"

	"github.com/kenbin64/fasttrackgame-sub002/game"
	"github.com/kenbin64/fasttrackgame-sub002/statehash"
)

// playRandomGame drives a full game with random move choices until it is won
// or maxEvents events have been applied, and returns the final state.
func playRandomGame(t *testing.T, rs *game.Ruleset, seed int64, maxEvents int) *game.GameState {
	t.Helper()
	s, err := game.NewGameState(rs)
	if err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"north", "south", "east"} {
		s, err = game.Apply(s, &game.PlayerJoined{Name: name})
		if err != nil {
			t.Fatal(err)
		}
	}
	s, err = game.Apply(s, &game.GameStarted{Seed: seed})
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < maxEvents; i++ {
		var evt game.Event
		switch s.Phase {
		case game.PhaseAwaitingDraw:
			c, err := game.NextCard(s)
			if err != nil {
				t.Fatal(err)
			}
			evt = &game.CardDrawn{Player: s.OnTurn, Card: c}
		case game.PhaseAwaitingMove, game.PhaseAwaitingSplit:
			legal, err := game.LegalMoves(s)
			if err != nil {
				t.Fatal(err)
			}
			pick := legal[frand.Intn(len(legal))]
			if s.Phase == game.PhaseAwaitingSplit {
				evt = &game.SplitMovePlayed{
					Player: s.OnTurn, Piece: pick.Move.Piece, Path: pick.Move.Path,
				}
			} else {
				evt = &game.MovePlayed{
					Player: s.OnTurn, Piece: pick.Move.Piece, Path: pick.Move.Path,
				}
			}
		case game.PhaseTurnResolution:
			evt = &game.TurnEnded{Player: s.OnTurn}
		case game.PhaseGameWon:
			return s
		}
		s, err = game.Apply(s, evt)
		if err != nil {
			t.Fatalf("event %d (%s): %v", i, evt.EventType(), err)
		}
	}
	return s
}

// The event log plus the seed is the game: replaying it reproduces the exact
// state, fingerprint included.
func TestReplayReproducesState(t *testing.T) {
	is := is.New(t)
	rs := game.DefaultRuleset()
	final := playRandomGame(t, rs, 7121, 400)
	is.True(final.Seq > 3)

	replayed, err := Replay(rs, final.History, 0)
	is.NoErr(err)
	is.Equal(replayed.Seq, final.Seq)
	is.Equal(statehash.Hash(replayed), statehash.Hash(final))

	// A prefix replay lands on the intermediate state.
	mid, err := Replay(rs, final.History, final.Seq/2)
	is.NoErr(err)
	is.Equal(mid.Seq, final.Seq/2)
}

func TestWriteReadRoundTrip(t *testing.T) {
	is := is.New(t)
	rs := game.DefaultRuleset()
	final := playRandomGame(t, rs, 99, 60)

	var buf bytes.Buffer
	is.NoErr(Write(&buf, final.History))
	entries, err := Read(&buf)
	is.NoErr(err)
	is.Equal(len(entries), len(final.History))

	replayed, err := Replay(rs, entries, 0)
	is.NoErr(err)
	is.Equal(statehash.Hash(replayed), statehash.Hash(final))
}

func TestReadRejectsGaps(t *testing.T) {
	is := is.New(t)
	rs := game.DefaultRuleset()
	final := playRandomGame(t, rs, 99, 20)

	gapped := append([]game.Entry{}, final.History...)
	gapped = append(gapped[:2], gapped[3:]...)
	var buf bytes.Buffer
	is.NoErr(Write(&buf, gapped))
	_, err := Read(&buf)
	is.True(err != nil)
}

func TestFileRoundTrip(t *testing.T) {
	is := is.New(t)
	rs := game.DefaultRuleset()
	final := playRandomGame(t, rs, 501, 40)

	path := filepath.Join(t.TempDir(), "game.jsonl")
	is.NoErr(WriteFile(path, final))
	entries, err := ReadFile(path)
	is.NoErr(err)
	is.Equal(len(entries), len(final.History))

	_, err = ReadFile(filepath.Join(t.TempDir(), "missing.jsonl"))
	is.True(err != nil)
}
