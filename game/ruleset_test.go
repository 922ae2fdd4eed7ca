package game_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kenbin64/fasttrackgame-sub002/deck"
	"github.com/kenbin64/fasttrackgame-sub002/game"
)

func TestParseRulesetOverridesDefaults(t *testing.T) {
	rs, err := game.ParseRuleset([]byte(`
name: six-player
board:
  segments: 6
  segment_len: 14
  safe_zone_len: 4
  capture_index: 8
holding_capacity: 4
`))
	assert.NoError(t, err)
	assert.Equal(t, "six-player", rs.Name)
	assert.Equal(t, 6, rs.Board.Segments)
	assert.Equal(t, 4, rs.HoldingCapacity)
	// Untouched fields keep their defaults.
	assert.Equal(t, 5, rs.PiecesPerPlayer)
	assert.True(t, rs.ForcedShortcutExit)
	assert.Equal(t, 11, rs.Effects[deck.Jack].Hops)
}

func TestParseRulesetRejectsInvalid(t *testing.T) {
	_, err := game.ParseRuleset([]byte("board: {segments: 1}"))
	assert.Error(t, err)

	_, err = game.ParseRuleset([]byte("pieces_per_player: 9"))
	assert.Error(t, err)

	_, err = game.ParseRuleset([]byte("useful: [yaml"))
	assert.Error(t, err)
}

func TestLoadRulesetFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	assert.NoError(t, os.WriteFile(path, []byte("name: from-disk"), 0644))

	rs, err := game.LoadRuleset(path)
	assert.NoError(t, err)
	assert.Equal(t, "from-disk", rs.Name)

	_, err = game.LoadRuleset(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
