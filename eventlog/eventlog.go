// Package eventlog reads and writes the canonical game record: a seq-ordered
// stream of event entries, one JSON object per line. The log plus the seed
// embedded in its game_started entry fully determines the game; replaying it
// through the reducer reconstructs any past state.
package eventlog

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog/log"

	"github.com/kenbin64/fasttrackgame-sub002/game"
)

// Write serializes entries to w, one per line.
func Write(w io.Writer, entries []game.Entry) error {
	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)
	for _, e := range entries {
		if err := enc.Encode(e); err != nil {
			return fmt.Errorf("encoding entry %d: %w", e.Seq, err)
		}
	}
	return bw.Flush()
}

// Read parses a log stream. Entries must be contiguous and strictly
// ascending from 1; a gap or duplicate is a corrupt log.
func Read(r io.Reader) ([]game.Entry, error) {
	var entries []game.Entry
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for sc.Scan() {
		line++
		raw := sc.Bytes()
		if len(raw) == 0 {
			continue
		}
		var e game.Entry
		if err := json.Unmarshal(raw, &e); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if want := uint64(len(entries) + 1); e.Seq != want {
			return nil, fmt.Errorf("line %d: entry seq %d, expected %d", line, e.Seq, want)
		}
		entries = append(entries, e)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

// WriteFile writes a game's full history to path.
func WriteFile(path string, s *game.GameState) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return Write(f, s.History)
}

// ReadFile reads the log at path.
func ReadFile(path string) ([]game.Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Read(f)
}

// Replay feeds entries through a fresh reducer under rs, stopping after the
// entry with seq toSeq (0 replays everything). The returned state's own
// history matches the consumed prefix.
func Replay(rs *game.Ruleset, entries []game.Entry, toSeq uint64) (*game.GameState, error) {
	s, err := game.NewGameState(rs)
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		if toSeq != 0 && e.Seq > toSeq {
			break
		}
		evt, err := e.Decode()
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", e.Seq, err)
		}
		ns, err := game.Apply(s, evt)
		if err != nil {
			return nil, fmt.Errorf("entry %d (%s): %w", e.Seq, e.Type, err)
		}
		if ns.Seq != e.Seq {
			return nil, fmt.Errorf("entry %d replayed to seq %d", e.Seq, ns.Seq)
		}
		s = ns
	}
	log.Debug().Uint64("seq", s.Seq).Str("game", s.ID).Msg("replay complete")
	return s, nil
}
