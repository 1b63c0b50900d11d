package board

import (
	"fmt"
	"testing"

	"github.com/kingdomofaen/aen-server-go/internal/game/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seqIDs(prefix string) func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("%s-%d", prefix, n)
	}
}

func card(id, defID string, owner Side) *Instance {
	return NewInstance(id, catalog.MustLookup(defID), owner)
}

func TestSideOther(t *testing.T) {
	assert.Equal(t, Opponent, Player.Other())
	assert.Equal(t, Player, Opponent.Other())
}

func TestLaneForRow(t *testing.T) {
	l, ok := LaneForRow(catalog.RowSiege)
	require.True(t, ok)
	assert.Equal(t, Siege, l)

	l, ok = LaneForRow(catalog.RowAgile)
	require.True(t, ok)
	assert.Equal(t, Melee, l)

	_, ok = LaneForRow(catalog.RowWeather)
	assert.False(t, ok)
}

func TestParseLane(t *testing.T) {
	l, err := ParseLane("ranged")
	require.NoError(t, err)
	assert.Equal(t, Ranged, l)

	_, err = ParseLane("air")
	assert.Error(t, err)
}

func TestDrawFromFront(t *testing.T) {
	b := New()
	side := b.Side(Player)
	side.Deck = []*Instance{
		card("d1", "eliel_1", Player),
		card("d2", "jacy_1", Player),
		card("d3", "thiago_1", Player),
	}

	drawn := b.Draw(Player, 2, seqIDs("h"))
	assert.Equal(t, 2, drawn)
	require.Len(t, side.Hand, 2)
	assert.Equal(t, "eliel_1", side.Hand[0].Def.ID)
	assert.Equal(t, "jacy_1", side.Hand[1].Def.ID)
	assert.Equal(t, "h-1", side.Hand[0].ID)
	require.Len(t, side.Deck, 1)
	assert.Equal(t, "thiago_1", side.Deck[0].Def.ID)
}

func TestDrawBoundedByDeck(t *testing.T) {
	b := New()
	b.Side(Opponent).Deck = []*Instance{card("d1", "eliel_1", Opponent)}

	assert.Equal(t, 1, b.Draw(Opponent, 3, seqIDs("h")))
	assert.Len(t, b.Side(Opponent).Hand, 1)
	assert.Equal(t, 0, b.Draw(Opponent, 1, seqIDs("h")))
	assert.Len(t, b.Side(Opponent).Hand, 1)
}

func TestLocateAndRemove(t *testing.T) {
	b := New()
	b.Place(Opponent, Ranged, card("a", "jacy_1", Player))
	b.Place(Opponent, Ranged, card("b", "jacy_2", Opponent))

	s, l, i, ok := b.Locate("b")
	require.True(t, ok)
	assert.Equal(t, Opponent, s)
	assert.Equal(t, Ranged, l)
	assert.Equal(t, 1, i)

	c, ok := b.RemoveFromLane("a")
	require.True(t, ok)
	assert.Equal(t, Opponent, c.Owner, "placing a card moves ownership to the lane's side")
	assert.Len(t, b.Lane(Opponent, Ranged), 1)

	_, ok = b.RemoveFromLane("a")
	assert.False(t, ok)
}

func TestClearLanesSendsCardsToOwners(t *testing.T) {
	b := New()
	b.Place(Player, Melee, card("p1", "anderson_1", Player))
	b.Place(Opponent, Siege, card("o1", "eliel_1", Opponent))
	b.Place(Opponent, Siege, card("o2", "eliel_2", Opponent))

	assert.Equal(t, 3, b.ClearLanes())
	assert.Equal(t, 0, b.CardsOnBoard())
	assert.Len(t, b.Side(Player).Graveyard, 1)
	require.Len(t, b.Side(Opponent).Graveyard, 2)
	assert.Equal(t, "o2", b.Side(Opponent).Graveyard[1].ID)
}

func TestTakeFromHand(t *testing.T) {
	side := &SideState{Hand: []*Instance{
		card("a", "jacy_1", Player),
		card("b", "jacy_2", Player),
		card("c", "thiago_1", Player),
	}}
	assert.Equal(t, 1, side.HandIndex("b"))
	c := side.TakeFromHand(1)
	assert.Equal(t, "b", c.ID)
	assert.Equal(t, -1, side.HandIndex("b"))
	assert.Len(t, side.Hand, 2)
}

func TestCloneIsDeep(t *testing.T) {
	b := New()
	b.Place(Player, Melee, card("p1", "anderson_1", Player))
	b.Weather.Frost = true

	cp := b.Clone()
	cp.Lane(Player, Melee)[0].BasePower = 99
	cp.Weather.Frost = false

	assert.Equal(t, 4, b.Lane(Player, Melee)[0].BasePower)
	assert.True(t, b.Weather.Frost)
}
