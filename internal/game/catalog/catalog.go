package catalog

import (
	"fmt"
)

// Row is the placement class of a card definition.
type Row string

const (
	RowMelee   Row = "melee"
	RowRanged  Row = "ranged"
	RowSiege   Row = "siege"
	RowAgile   Row = "agile"   // caller chooses the lane at play time
	RowWeather Row = "weather" // never occupies a lane
)

// Ability tags a card's triggered or passive ability.
type Ability string

const (
	AbilityNone         Ability = "none"
	AbilityTightBond    Ability = "tight_bond"
	AbilityBondPartner  Ability = "bond_partner"
	AbilitySpy          Ability = "spy"
	AbilitySpyMedic     Ability = "spy_medic"
	AbilityMedic        Ability = "medic"
	AbilityScorch       Ability = "scorch"
	AbilityDecoy        Ability = "decoy"
	AbilityWeatherFrost Ability = "weather_frost"
	AbilityWeatherFog   Ability = "weather_fog"
	AbilityWeatherRain  Ability = "weather_rain"
	AbilityWeatherClear Ability = "weather_clear"
	AbilityHero         Ability = "hero"
)

// IsWeather reports whether the ability is one of the four weather tags.
func (a Ability) IsWeather() bool {
	switch a {
	case AbilityWeatherFrost, AbilityWeatherFog, AbilityWeatherRain, AbilityWeatherClear:
		return true
	}
	return false
}

// Category separates unit cards from special cards for deck composition rules.
type Category string

const (
	CategoryUnit    Category = "unit"
	CategorySpecial Category = "special"
)

// Definition is an immutable catalog entry.
type Definition struct {
	ID       string
	BaseID   string // groups duplicate copies
	Name     string
	Row      Row
	Power    int
	Ability  Ability
	Partner  string // only for AbilityBondPartner
	Hero     bool
	Category Category
}

// Agile reports whether the lane is chosen at play time.
func (d *Definition) Agile() bool {
	return d.Row == RowAgile
}

// IsWeather reports whether the card is a weather card.
func (d *Definition) IsWeather() bool {
	return d.Row == RowWeather
}

func (d *Definition) String() string {
	return fmt.Sprintf("%s(%s/%d)", d.Name, d.Row, d.Power)
}

func unit(id, baseID, name string, row Row, power int) Definition {
	return Definition{ID: id, BaseID: baseID, Name: name, Row: row, Power: power, Ability: AbilityNone, Category: CategoryUnit}
}

func partner(id, baseID, name string, row Row, power int, partnerName string) Definition {
	d := unit(id, baseID, name, row, power)
	d.Ability = AbilityBondPartner
	d.Partner = partnerName
	return d
}

func withAbility(d Definition, ability Ability, category Category) Definition {
	d.Ability = ability
	d.Category = category
	return d
}

// collection is the full card pool in catalog order.
var collection = []Definition{
	// melee combos
	partner("daniel_1", "daniel", "Daniel", RowMelee, 2, "Gabriel"),
	partner("daniel_2", "daniel", "Daniel", RowMelee, 2, "Gabriel"),
	partner("daniel_3", "daniel", "Daniel", RowMelee, 2, "Gabriel"),
	partner("gabriel_1", "gabriel", "Gabriel", RowMelee, 2, "Daniel"),
	partner("gabriel_2", "gabriel", "Gabriel", RowMelee, 2, "Daniel"),
	partner("gabriel_3", "gabriel", "Gabriel", RowMelee, 2, "Daniel"),

	// melee infantry
	unit("anderson_1", "anderson", "Anderson", RowMelee, 4),
	unit("anderson_2", "anderson", "Anderson", RowMelee, 4),
	unit("vanessa_1", "vanessa", "Vanessa", RowMelee, 3),
	unit("vanessa_2", "vanessa", "Vanessa", RowMelee, 3),
	unit("wellington_1", "wellington", "Wellington O Gigante", RowMelee, 6),
	unit("wellington_2", "wellington", "Wellington O Gigante", RowMelee, 6),
	unit("pattenberg_1", "pattenberg", "Pattenberg", RowMelee, 6),
	unit("pattenberg_2", "pattenberg", "Pattenberg", RowMelee, 6),
	withAbility(unit("irmaos_1", "irmaos", "Irmãos de Ferro", RowMelee, 4), AbilityTightBond, CategoryUnit),
	withAbility(unit("irmaos_2", "irmaos", "Irmãos de Ferro", RowMelee, 4), AbilityTightBond, CategoryUnit),
	withAbility(unit("irmaos_3", "irmaos", "Irmãos de Ferro", RowMelee, 4), AbilityTightBond, CategoryUnit),

	// ranged combos
	partner("marcelo_1", "marcelo", "Marcelo", RowRanged, 5, "Suelly"),
	partner("marcelo_2", "marcelo", "Marcelo", RowRanged, 5, "Suelly"),
	partner("marcelo_3", "marcelo", "Marcelo", RowRanged, 5, "Suelly"),
	partner("suelly_1", "suelly", "Suelly", RowRanged, 2, "Marcelo"),
	partner("suelly_2", "suelly", "Suelly", RowRanged, 2, "Marcelo"),
	partner("suelly_3", "suelly", "Suelly", RowRanged, 2, "Marcelo"),

	// ranged support
	unit("adr14no_1", "adr14no", "Adr14no", RowRanged, 5),
	unit("adr14no_2", "adr14no", "Adr14no", RowRanged, 5),
	unit("clarice_1", "clarice", "Clarice", RowRanged, 4),
	unit("clarice_2", "clarice", "Clarice", RowRanged, 4),
	unit("jacy_1", "jacy", "Jacy", RowRanged, 3),
	unit("jacy_2", "jacy", "Jacy", RowRanged, 3),
	unit("thiago_1", "thiago", "Thiago", RowRanged, 2),
	unit("thiago_2", "thiago", "Thiago", RowRanged, 2),
	unit("kariel_1", "kariel", "Kariel", RowRanged, 2),
	unit("kariel_2", "kariel", "Kariel", RowRanged, 2),
	unit("jassyhara_1", "jassyhara", "Jassyhara", RowRanged, 4),
	unit("jassyhara_2", "jassyhara", "Jassyhara", RowRanged, 4),

	// siege
	unit("eliel_1", "eliel", "Eliel", RowSiege, 6),
	unit("eliel_2", "eliel", "Eliel", RowSiege, 6),
	withAbility(unit("ritatril_1", "ritatril", "Ritatril", RowSiege, 3), AbilityMedic, CategoryUnit),
	withAbility(unit("ritatril_2", "ritatril", "Ritatril", RowSiege, 3), AbilityMedic, CategoryUnit),
	withAbility(unit("catapulta_1", "catapulta", "Catapulta Flamejante", RowSiege, 5), AbilityScorch, CategoryUnit),

	// hero
	{ID: "marcus_1", BaseID: "marcus", Name: "Sir Marcus O Rei", Row: RowSiege, Power: 9, Ability: AbilityHero, Hero: true, Category: CategoryUnit},

	// specials
	withAbility(unit("geleia_1", "geleia", "Geleia Espião", RowAgile, 3), AbilitySpyMedic, CategorySpecial),
	withAbility(unit("corredores_1", "corredores", "Corredores Espião", RowAgile, 5), AbilitySpyMedic, CategorySpecial),
	withAbility(unit("informante_1", "informante", "Informante", RowRanged, 4), AbilitySpy, CategorySpecial),
	unit("cozinheiros_1", "cozinheiros", "Cozinheiros", RowAgile, 3),
	unit("cozinheiros_2", "cozinheiros", "Cozinheiros", RowAgile, 3),
	withAbility(unit("espantalho_1", "espantalho", "Espantalho", RowAgile, 0), AbilityDecoy, CategorySpecial),
	withAbility(unit("espantalho_2", "espantalho", "Espantalho", RowAgile, 0), AbilityDecoy, CategorySpecial),

	// weather
	withAbility(unit("geada_1", "geada", "Geada Cortante", RowWeather, 0), AbilityWeatherFrost, CategorySpecial),
	withAbility(unit("neblina_1", "neblina", "Neblina Densa", RowWeather, 0), AbilityWeatherFog, CategorySpecial),
	withAbility(unit("chuva_1", "chuva", "Chuva Torrencial", RowWeather, 0), AbilityWeatherRain, CategorySpecial),
	withAbility(unit("ceu_limpo_1", "ceu_limpo", "Céu Limpo", RowWeather, 0), AbilityWeatherClear, CategorySpecial),
}

var byID = func() map[string]*Definition {
	m := make(map[string]*Definition, len(collection))
	for i := range collection {
		m[collection[i].ID] = &collection[i]
	}
	return m
}()

// All returns every definition in catalog order.
func All() []*Definition {
	out := make([]*Definition, len(collection))
	for i := range collection {
		out[i] = &collection[i]
	}
	return out
}

// Lookup returns the definition with the given id.
func Lookup(id string) (*Definition, bool) {
	d, ok := byID[id]
	return d, ok
}

// MustLookup is Lookup for ids known at compile time; it panics on unknown ids.
func MustLookup(id string) *Definition {
	d, ok := byID[id]
	if !ok {
		panic(fmt.Sprintf("catalog: unknown card id %q", id))
	}
	return d
}

// ByCategory returns definitions of the given category in catalog order.
func ByCategory(category Category) []*Definition {
	var out []*Definition
	for i := range collection {
		if collection[i].Category == category {
			out = append(out, &collection[i])
		}
	}
	return out
}

// ByRow returns definitions with the given row in catalog order.
func ByRow(row Row) []*Definition {
	var out []*Definition
	for i := range collection {
		if collection[i].Row == row {
			out = append(out, &collection[i])
		}
	}
	return out
}

// Resolve maps card ids to definitions, keeping order. Unknown ids are dropped
// and returned separately.
func Resolve(ids []string) ([]*Definition, []string) {
	defs := make([]*Definition, 0, len(ids))
	var unknown []string
	for _, id := range ids {
		if d, ok := byID[id]; ok {
			defs = append(defs, d)
			continue
		}
		unknown = append(unknown, id)
	}
	return defs, unknown
}

// UnitDeck returns the ids of every unit-category card, the computer
// opponent's default deck.
func UnitDeck() []string {
	units := ByCategory(CategoryUnit)
	ids := make([]string, len(units))
	for i, d := range units {
		ids[i] = d.ID
	}
	return ids
}
