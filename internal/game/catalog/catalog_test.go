package catalog

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup(t *testing.T) {
	d, ok := Lookup("daniel_1")
	require.True(t, ok)
	assert.Equal(t, "Daniel", d.Name)
	assert.Equal(t, AbilityBondPartner, d.Ability)
	assert.Equal(t, "Gabriel", d.Partner)

	_, ok = Lookup("nope")
	assert.False(t, ok)
}

func TestEveryAbilityHasACard(t *testing.T) {
	seen := make(map[Ability]bool)
	for _, d := range All() {
		seen[d.Ability] = true
	}
	for _, a := range []Ability{
		AbilityNone, AbilityTightBond, AbilityBondPartner, AbilitySpy, AbilitySpyMedic,
		AbilityMedic, AbilityScorch, AbilityDecoy, AbilityWeatherFrost, AbilityWeatherFog,
		AbilityWeatherRain, AbilityWeatherClear, AbilityHero,
	} {
		assert.True(t, seen[a], "no catalog card carries %s", a)
	}
}

func TestCatalogIDsUnique(t *testing.T) {
	ids := make(map[string]bool)
	for _, d := range All() {
		assert.False(t, ids[d.ID], "duplicate id %s", d.ID)
		ids[d.ID] = true
	}
}

func TestWeatherCardsAreWeatherRow(t *testing.T) {
	for _, d := range All() {
		assert.Equal(t, d.Ability.IsWeather(), d.IsWeather(), d.ID)
	}
}

func TestHeroFlagMatchesAbility(t *testing.T) {
	for _, d := range All() {
		assert.Equal(t, d.Ability == AbilityHero, d.Hero, d.ID)
	}
}

func TestUnitDeckIsValid(t *testing.T) {
	ids := UnitDeck()
	require.NoError(t, ValidateDeck(ids))
	c := Compose(ids)
	assert.Equal(t, 0, c.Specials)
	assert.Equal(t, len(ids), c.Units)
}

func TestValidateDeck(t *testing.T) {
	tests := []struct {
		name       string
		ids        []string
		violations int
	}{
		{name: "too few units", ids: []string{"daniel_1", "gabriel_1"}, violations: 1},
		{name: "unknown id", ids: append(UnitDeck(), "ghost"), violations: 1},
		{
			name: "too many specials",
			ids: append(UnitDeck(),
				"geleia_1", "corredores_1", "informante_1", "espantalho_1", "espantalho_2",
				"geada_1", "neblina_1", "chuva_1", "ceu_limpo_1", "geada_1", "neblina_1"),
			violations: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDeck(tt.ids)
			var deckErr *DeckError
			require.True(t, errors.As(err, &deckErr))
			assert.Len(t, deckErr.Violations, tt.violations)
		})
	}
}

func TestResolveKeepsOrder(t *testing.T) {
	defs, unknown := Resolve([]string{"eliel_1", "ghost", "jacy_2"})
	require.Len(t, defs, 2)
	assert.Equal(t, "eliel_1", defs[0].ID)
	assert.Equal(t, "jacy_2", defs[1].ID)
	assert.Equal(t, []string{"ghost"}, unknown)
}

func TestParsePresets(t *testing.T) {
	data := []byte(`
decks:
  - name: northern
    leader: leader_warlord
    cards:
      - id: eliel_1
        count: 2
      - id: jacy_1
        count: 1
`)
	pf, err := ParsePresets(data)
	require.NoError(t, err)

	p, err := pf.ByName("northern")
	require.NoError(t, err)
	assert.Equal(t, "leader_warlord", p.Leader)
	assert.Equal(t, []string{"eliel_1", "eliel_1", "jacy_1"}, p.IDs())

	_, err = pf.ByName("southern")
	assert.ErrorIs(t, err, ErrPresetNotFound)
}

func TestParsePresetsRejectsUnknownLeader(t *testing.T) {
	_, err := ParsePresets([]byte("decks:\n  - name: x\n    leader: leader_nobody\n"))
	assert.Error(t, err)
}

func TestOtherLeaders(t *testing.T) {
	others := OtherLeaders(DefaultPlayerLeader)
	assert.Len(t, others, 3)
	for _, l := range others {
		assert.NotEqual(t, DefaultPlayerLeader, l.ID)
	}
}
