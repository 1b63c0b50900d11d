package catalog

// LeaderAbility identifies a one-shot leader power.
type LeaderAbility string

const (
	LeaderClearWeather LeaderAbility = "leader_clear_weather"
	LeaderScorchSiege  LeaderAbility = "leader_scorch_siege"
	LeaderDrawCard     LeaderAbility = "leader_draw_card"
	LeaderBoostMelee   LeaderAbility = "leader_boost_melee"
)

// Leader is a side's commander card.
type Leader struct {
	ID      string
	Name    string
	Ability LeaderAbility
	Faction string
}

// FactionAlfredolandia is the faction whose round winner draws an extra card
// under the default match settings.
const FactionAlfredolandia = "alfredolandia"

// DefaultPlayerLeader is assigned to the human side.
const DefaultPlayerLeader = "leader_general"

var leaders = []Leader{
	{ID: "leader_general", Name: "O General", Ability: LeaderClearWeather, Faction: FactionAlfredolandia},
	{ID: "leader_usurper", Name: "O Usurpador", Ability: LeaderScorchSiege, Faction: "reinos_sombrios"},
	{ID: "leader_archmage", Name: "O Arquimago", Ability: LeaderDrawCard, Faction: "torre_arcana"},
	{ID: "leader_warlord", Name: "O Senhor da Guerra", Ability: LeaderBoostMelee, Faction: "horda_selvagem"},
}

// Leaders returns all leaders in catalog order.
func Leaders() []*Leader {
	out := make([]*Leader, len(leaders))
	for i := range leaders {
		out[i] = &leaders[i]
	}
	return out
}

// LeaderByID returns the leader with the given id.
func LeaderByID(id string) (*Leader, bool) {
	for i := range leaders {
		if leaders[i].ID == id {
			return &leaders[i], true
		}
	}
	return nil, false
}

// OtherLeaders returns every leader except the one with the given id.
func OtherLeaders(id string) []*Leader {
	out := make([]*Leader, 0, len(leaders))
	for i := range leaders {
		if leaders[i].ID != id {
			out = append(out, &leaders[i])
		}
	}
	return out
}
