package game

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/kenbin64/fasttrackgame-sub002/board"
	"github.com/kenbin64/fasttrackgame-sub002/deck"
)

// A Ruleset is the single canonical, parameterized rule configuration. The
// source material this game descends from disagreed with itself about board
// size, piece counts, and card values; one internally consistent set is
// defined here and everything reads it, never a hardcoded table.
type Ruleset struct {
	Name  string       `yaml:"name"`
	Board board.Layout `yaml:"board"`
	// PiecesPerPlayer is normally SafeZoneLen+1 so a full safe zone plus the
	// winner hole holds exactly one team.
	PiecesPerPlayer int `yaml:"pieces_per_player"`
	// HoldingCapacity caps how many pieces a holding area can hold; a
	// capture that would overflow the victim's holding is illegal.
	HoldingCapacity int `yaml:"holding_capacity"`
	// ForcedShortcutExit relocates a piece left sitting on the shortcut ring
	// at the end of its owner's turn to that hole's perimeter exit.
	ForcedShortcutExit bool             `yaml:"forced_shortcut_exit"`
	Effects            deck.EffectTable `yaml:"effects"`
}

// DefaultRuleset is the canonical configuration: 4 players, 56-hole
// perimeter, 4-hole shortcut ring, 5 pieces each.
func DefaultRuleset() *Ruleset {
	layout := board.DefaultLayout()
	return &Ruleset{
		Name:               "standard",
		Board:              layout,
		PiecesPerPlayer:    layout.SafeZoneLen + 1,
		HoldingCapacity:    layout.SafeZoneLen + 1,
		ForcedShortcutExit: true,
		Effects:            deck.DefaultEffects(),
	}
}

// LoadRuleset reads a YAML ruleset file. Missing fields fall back to the
// defaults, so a file can override just the parts it cares about.
func LoadRuleset(path string) (*Ruleset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseRuleset(data)
}

// ParseRuleset parses YAML over the default ruleset.
func ParseRuleset(data []byte) (*Ruleset, error) {
	rs := DefaultRuleset()
	if err := yaml.Unmarshal(data, rs); err != nil {
		return nil, err
	}
	if err := rs.Validate(); err != nil {
		return nil, err
	}
	return rs, nil
}

// Validate checks internal consistency.
func (rs *Ruleset) Validate() error {
	if _, err := board.New(rs.Board); err != nil {
		return err
	}
	if rs.PiecesPerPlayer < 1 {
		return fmt.Errorf("pieces per player must be positive, got %d", rs.PiecesPerPlayer)
	}
	if rs.PiecesPerPlayer > rs.Board.SafeZoneLen+1 {
		return fmt.Errorf("%d pieces cannot all fit in a %d-slot safe zone plus winner hole",
			rs.PiecesPerPlayer, rs.Board.SafeZoneLen)
	}
	if rs.HoldingCapacity < 1 {
		return fmt.Errorf("holding capacity must be positive, got %d", rs.HoldingCapacity)
	}
	return rs.Effects.Validate()
}
