package game

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/kingdomofaen/aen-server-go/internal/config"
	"github.com/kingdomofaen/aen-server-go/internal/game/catalog"
)

func defaultMatchConfig(t *testing.T) config.MatchConfig {
	t.Helper()
	cfg, err := config.Load("")
	require.NoError(t, err)
	return cfg.Match
}

func TestSettingsFromDefaultConfig(t *testing.T) {
	s, err := SettingsFromConfig(defaultMatchConfig(t), nil)
	require.NoError(t, err)

	want := DefaultSettings()
	assert.Equal(t, want.HandSize, s.HandSize)
	assert.Equal(t, want.BonusDrawFaction, s.BonusDrawFaction)
	assert.Equal(t, want.AIThink, s.AIThink)
	assert.Equal(t, want.RoundEnd, s.RoundEnd)
	assert.Equal(t, want.Effects, s.Effects)
	assert.Equal(t, want.PlayerLeader, s.PlayerLeader)
	assert.Empty(t, s.OpponentDeck)
}

func TestSettingsFromConfigWithPreset(t *testing.T) {
	presets, err := catalog.LoadPresets("../../config/decks.yaml")
	require.NoError(t, err)

	mc := defaultMatchConfig(t)
	mc.OpponentPreset = "arcane_siege"
	mc.Delays.AIThink = 10 * time.Millisecond
	s, err := SettingsFromConfig(mc, presets)
	require.NoError(t, err)
	assert.Equal(t, "leader_archmage", s.OpponentLeader)
	assert.Equal(t, 10*time.Millisecond, s.AIThink)
	assert.NotEmpty(t, s.OpponentDeck)

	m, err := NewMatch(s, catalog.UnitDeck(), zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.Equal(t, "leader_archmage", m.BoardView().Sides[1].Leader.ID)
}

func TestShippedPresetsAreLegal(t *testing.T) {
	presets, err := catalog.LoadPresets("../../config/decks.yaml")
	require.NoError(t, err)
	require.NotEmpty(t, presets.Decks)
	for _, deck := range presets.Decks {
		assert.NoError(t, catalog.ValidateDeck(deck.IDs()), deck.Name)
	}
}

func TestSettingsFromConfigErrors(t *testing.T) {
	mc := defaultMatchConfig(t)
	mc.OpponentPreset = "vanguard"
	_, err := SettingsFromConfig(mc, nil)
	assert.Error(t, err, "preset without presets file")

	presets, err := catalog.ParsePresets([]byte("decks:\n  - name: tiny\n    cards:\n      - {id: daniel_1, count: 2}\n"))
	require.NoError(t, err)
	mc.OpponentPreset = "tiny"
	_, err = SettingsFromConfig(mc, presets)
	assert.Error(t, err, "illegal preset deck")

	mc.OpponentPreset = "missing"
	_, err = SettingsFromConfig(mc, presets)
	assert.ErrorIs(t, err, catalog.ErrPresetNotFound)

	mc = defaultMatchConfig(t)
	mc.OpponentLeader = "leader_nobody"
	_, err = SettingsFromConfig(mc, nil)
	assert.Error(t, err)
}
