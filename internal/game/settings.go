package game

import (
	"fmt"

	"github.com/kingdomofaen/aen-server-go/internal/config"
	"github.com/kingdomofaen/aen-server-go/internal/game/abilities"
	"github.com/kingdomofaen/aen-server-go/internal/game/catalog"
)

// SettingsFromConfig builds match settings from the match section of the
// configuration. presets may be nil unless an opponent preset is configured.
func SettingsFromConfig(mc config.MatchConfig, presets *catalog.PresetFile) (Settings, error) {
	s := Settings{
		HandSize:         mc.HandSize,
		BonusDrawFaction: mc.BonusDrawFaction,
		Seed:             mc.Seed,
		AIThink:          mc.Delays.AIThink,
		RoundEnd:         mc.Delays.RoundEnd,
		Effects: abilities.Delays{
			Scorch:     mc.Delays.Scorch,
			MedicChain: mc.Delays.MedicChain,
		},
		PlayerLeader:   mc.PlayerLeader,
		OpponentLeader: mc.OpponentLeader,
	}

	if mc.OpponentPreset != "" {
		if presets == nil {
			return Settings{}, fmt.Errorf("opponent preset %q configured without a presets file", mc.OpponentPreset)
		}
		preset, err := presets.ByName(mc.OpponentPreset)
		if err != nil {
			return Settings{}, err
		}
		ids := preset.IDs()
		if err := catalog.ValidateDeck(ids); err != nil {
			return Settings{}, fmt.Errorf("opponent preset %q: %w", preset.Name, err)
		}
		s.OpponentDeck = ids
		if s.OpponentLeader == "" {
			s.OpponentLeader = preset.Leader
		}
	}

	for _, id := range []string{s.PlayerLeader, s.OpponentLeader} {
		if id == "" {
			continue
		}
		if _, ok := catalog.LeaderByID(id); !ok {
			return Settings{}, fmt.Errorf("unknown leader %q", id)
		}
	}
	return s, nil
}
