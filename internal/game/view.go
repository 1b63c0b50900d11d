package game

import (
	"github.com/kingdomofaen/aen-server-go/internal/game/board"
	"github.com/kingdomofaen/aen-server-go/internal/game/catalog"
)

// View is the JSON projection of a match sent to the presentation layer and
// to agents. It hides the opponent's hand and both decks.
type View struct {
	MatchID  string      `json:"match_id"`
	Round    int         `json:"round"`
	Phase    string      `json:"phase"`
	Outcome  string      `json:"outcome"`
	Pending  int         `json:"pending_effects"`
	Weather  WeatherView `json:"weather"`
	Player   SideView    `json:"player"`
	Opponent SideView    `json:"opponent"`
}

// WeatherView lists the active weather effects.
type WeatherView struct {
	Frost bool `json:"frost"`
	Fog   bool `json:"fog"`
	Rain  bool `json:"rain"`
}

// SideView is one side of a View.
type SideView struct {
	Leader        string     `json:"leader"`
	LeaderUsed    bool       `json:"leader_used"`
	Passed        bool       `json:"passed"`
	Wins          int        `json:"wins"`
	Total         int        `json:"total"`
	Lanes         []LaneView `json:"lanes"`
	Hand          []CardView `json:"hand,omitempty"`
	HandSize      int        `json:"hand_size"`
	DeckSize      int        `json:"deck_size"`
	GraveyardSize int        `json:"graveyard_size"`
}

// LaneView is one lane with its score.
type LaneView struct {
	Lane  string     `json:"lane"`
	Total int        `json:"total"`
	Cards []CardView `json:"cards"`
}

// CardView is one visible card.
type CardView struct {
	ID        string `json:"id"`
	CardID    string `json:"card_id"`
	Name      string `json:"name"`
	Row       string `json:"row"`
	Ability   string `json:"ability"`
	Power     int    `json:"power"`
	BasePower int    `json:"base_power"`
	Spy       bool   `json:"spy,omitempty"`
}

// View projects the current state for the human side.
func (m *Match) View() View {
	return m.Snapshot().View()
}

// View projects the snapshot for the human side.
func (snapshot *Snapshot) View() View {
	v := View{
		MatchID: snapshot.MatchID,
		Round:   snapshot.Round,
		Phase:   snapshot.Phase,
		Outcome: snapshot.Outcome,
		Pending: snapshot.Pending,
		Weather: WeatherView{
			Frost: snapshot.Weather.Frost,
			Fog:   snapshot.Weather.Fog,
			Rain:  snapshot.Weather.Rain,
		},
		Player:   snapshot.sideView(board.Player),
		Opponent: snapshot.sideView(board.Opponent),
	}
	v.Player.Hand = cardViews(snapshot.Sides[board.Player].Hand)
	return v
}

func (snapshot *Snapshot) sideView(side board.Side) SideView {
	ss := snapshot.Sides[side]
	sv := SideView{
		Leader:        ss.Leader,
		LeaderUsed:    ss.LeaderUsed,
		Passed:        ss.Passed,
		Wins:          snapshot.Wins[side],
		Total:         ss.Total,
		HandSize:      len(ss.Hand),
		DeckSize:      len(ss.Deck),
		GraveyardSize: len(ss.Graveyard),
	}
	for _, lane := range board.Lanes {
		sv.Lanes = append(sv.Lanes, LaneView{
			Lane:  lane.String(),
			Total: ss.LaneTotals[lane],
			Cards: cardViews(ss.Lanes[lane]),
		})
	}
	return sv
}

func cardViews(cards []CardSnapshot) []CardView {
	out := make([]CardView, 0, len(cards))
	for _, c := range cards {
		cv := CardView{
			ID:        c.ID,
			CardID:    c.DefID,
			Name:      c.Name,
			Power:     c.Power,
			BasePower: c.BasePower,
			Spy:       c.Spy,
		}
		if def, ok := catalog.Lookup(c.DefID); ok {
			cv.Row = string(def.Row)
			cv.Ability = string(def.Ability)
		}
		out = append(out, cv)
	}
	return out
}
