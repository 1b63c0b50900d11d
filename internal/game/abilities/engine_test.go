package abilities

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/kingdomofaen/aen-server-go/internal/game/board"
	"github.com/kingdomofaen/aen-server-go/internal/game/catalog"
	"github.com/kingdomofaen/aen-server-go/internal/game/rules"
)

type fixture struct {
	b      *board.Board
	sched  *rules.Scheduler
	eng    *Engine
	events []rules.Event
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := zaptest.NewLogger(t)
	f := &fixture{b: board.New(), sched: rules.NewScheduler(logger)}
	bus := rules.NewEventBus()
	bus.Subscribe(func(e rules.Event) { f.events = append(f.events, e) })

	n := 0
	f.eng = NewEngine(f.b, f.sched, bus, DefaultDelays(), logger, WithIDGenerator(func() string {
		n++
		return fmt.Sprintf("n-%d", n)
	}))
	return f
}

func (f *fixture) count(t rules.EventType) int {
	n := 0
	for _, e := range f.events {
		if e.Type == t {
			n++
		}
	}
	return n
}

func inst(id, defID string, side board.Side) *board.Instance {
	return board.NewInstance(id, catalog.MustLookup(defID), side)
}

func ids(cards []*board.Instance) []string {
	out := make([]string, len(cards))
	for i, c := range cards {
		out[i] = c.ID
	}
	return out
}

func TestScorchDestroysTiedStrongest(t *testing.T) {
	f := newFixture(t)
	f.b.Place(board.Opponent, board.Melee, inst("x", "wellington_1", board.Opponent))
	f.b.Place(board.Opponent, board.Melee, inst("y", "pattenberg_1", board.Opponent))
	f.b.Place(board.Opponent, board.Melee, inst("z", "anderson_1", board.Opponent))

	marked := f.eng.Scorch(board.Opponent, board.Melee, "src")
	assert.Equal(t, []string{"x", "y"}, marked)

	// nothing moves before the effect window closes
	assert.Len(t, f.b.Lane(board.Opponent, board.Melee), 3)
	f.sched.Advance(799 * time.Millisecond)
	assert.Len(t, f.b.Lane(board.Opponent, board.Melee), 3)

	f.sched.Advance(time.Millisecond)
	assert.Equal(t, []string{"z"}, ids(f.b.Lane(board.Opponent, board.Melee)))
	assert.Equal(t, []string{"x", "y"}, ids(f.b.Side(board.Opponent).Graveyard))
	assert.Equal(t, 4, f.eng.Scores().Total(board.Opponent))
	assert.Equal(t, 2, f.count(rules.EventCardDestroyed))
}

func TestScorchCardTargetsOpposingLane(t *testing.T) {
	f := newFixture(t)
	f.b.Side(board.Player).Hand = []*board.Instance{inst("cat", "catapulta_1", board.Player)}
	f.b.Place(board.Opponent, board.Siege, inst("e1", "eliel_1", board.Opponent))
	f.b.Place(board.Opponent, board.Siege, inst("r1", "ritatril_1", board.Opponent))
	f.b.Place(board.Player, board.Siege, inst("mine", "eliel_2", board.Player))

	require.True(t, f.eng.Play(board.Player, "cat", board.Siege))
	f.sched.Flush()

	assert.Equal(t, []string{"r1"}, ids(f.b.Lane(board.Opponent, board.Siege)))
	assert.Equal(t, []string{"mine", "cat"}, ids(f.b.Lane(board.Player, board.Siege)))
}

func TestScorchUsesEffectivePower(t *testing.T) {
	f := newFixture(t)
	f.b.Weather.Frost = true
	f.b.Place(board.Opponent, board.Melee, inst("w", "wellington_1", board.Opponent))
	f.b.Place(board.Opponent, board.Melee, inst("a", "anderson_1", board.Opponent))

	marked := f.eng.Scorch(board.Opponent, board.Melee, "src")
	assert.ElementsMatch(t, []string{"w", "a"}, marked)
}

func TestScorchHeroesOnlyFizzles(t *testing.T) {
	f := newFixture(t)
	f.b.Place(board.Opponent, board.Siege, inst("m", "marcus_1", board.Opponent))

	assert.Nil(t, f.eng.Scorch(board.Opponent, board.Siege, "src"))
	assert.Equal(t, 0, f.sched.Pending())
	assert.Equal(t, 1, f.count(rules.EventScorchFizzled))
	assert.Len(t, f.b.Lane(board.Opponent, board.Siege), 1)
}

func TestMedicRevivesLastNonHero(t *testing.T) {
	f := newFixture(t)
	side := f.b.Side(board.Player)
	side.Graveyard = []*board.Instance{
		inst("A", "marcus_1", board.Player),
		inst("B", "jacy_1", board.Player),
		inst("C", "eliel_1", board.Player),
	}
	side.Hand = []*board.Instance{inst("medic", "ritatril_1", board.Player)}

	require.True(t, f.eng.Play(board.Player, "medic", board.Siege))

	assert.Equal(t, []string{"A", "B"}, ids(side.Graveyard))
	siege := f.b.Lane(board.Player, board.Siege)
	require.Len(t, siege, 2)
	assert.Equal(t, "eliel_1", siege[1].Def.ID)
	assert.NotEqual(t, "C", siege[1].ID, "revived cards get a fresh instance id")
	assert.Equal(t, 9, f.eng.Scores().Total(board.Player))
}

func TestMedicChainsIntoRevivedMedic(t *testing.T) {
	f := newFixture(t)
	side := f.b.Side(board.Player)
	side.Graveyard = []*board.Instance{
		inst("j", "jacy_1", board.Player),
		inst("r2", "ritatril_2", board.Player),
	}
	side.Hand = []*board.Instance{inst("r1", "ritatril_1", board.Player)}

	require.True(t, f.eng.Play(board.Player, "r1", board.Siege))
	assert.Len(t, f.b.Lane(board.Player, board.Siege), 2)
	assert.Equal(t, 1, f.sched.Pending())
	assert.Len(t, side.Graveyard, 1)

	f.sched.Advance(300 * time.Millisecond)
	assert.Empty(t, side.Graveyard)
	ranged := f.b.Lane(board.Player, board.Ranged)
	require.Len(t, ranged, 1)
	assert.Equal(t, "jacy_1", ranged[0].Def.ID)
}

func TestMedicEmptyGraveyardIsNoop(t *testing.T) {
	f := newFixture(t)
	f.b.Side(board.Opponent).Hand = []*board.Instance{inst("r", "ritatril_1", board.Opponent)}
	f.b.Side(board.Opponent).Graveyard = []*board.Instance{inst("h", "marcus_1", board.Opponent)}

	require.True(t, f.eng.Play(board.Opponent, "r", board.Siege))
	assert.Len(t, f.b.Lane(board.Opponent, board.Siege), 1)
	assert.Len(t, f.b.Side(board.Opponent).Graveyard, 1)
	assert.Equal(t, 1, f.count(rules.EventNoRevival))
}

func TestSpyMovesAndDraws(t *testing.T) {
	f := newFixture(t)
	side := f.b.Side(board.Player)
	side.Hand = []*board.Instance{inst("spy", "informante_1", board.Player)}
	side.Deck = []*board.Instance{inst("d1", "eliel_1", board.Player), inst("d2", "jacy_1", board.Player)}

	require.True(t, f.eng.Play(board.Player, "spy", board.Ranged))

	assert.Empty(t, f.b.Lane(board.Player, board.Ranged))
	enemy := f.b.Lane(board.Opponent, board.Ranged)
	require.Len(t, enemy, 1)
	assert.True(t, enemy[0].Spy)
	assert.Equal(t, board.Opponent, enemy[0].Owner)
	assert.Equal(t, board.Player, enemy[0].PlayedBy)

	require.Len(t, side.Hand, 1)
	assert.Equal(t, "eliel_1", side.Hand[0].Def.ID)
	assert.Len(t, side.Deck, 1)

	scores := f.eng.Scores()
	assert.Equal(t, 0, scores.Total(board.Player))
	assert.Equal(t, 4, scores.Total(board.Opponent))
}

func TestSpyWithEmptyDeck(t *testing.T) {
	f := newFixture(t)
	f.b.Side(board.Player).Hand = []*board.Instance{inst("spy", "informante_1", board.Player)}

	require.True(t, f.eng.Play(board.Player, "spy", board.Ranged))
	assert.Empty(t, f.b.Side(board.Player).Hand)
	assert.Equal(t, 1, f.count(rules.EventDeckEmpty))
}

func TestSpyMedic(t *testing.T) {
	f := newFixture(t)
	side := f.b.Side(board.Opponent)
	side.Hand = []*board.Instance{inst("g", "geleia_1", board.Opponent)}
	side.Deck = []*board.Instance{inst("d", "vanessa_1", board.Opponent)}
	side.Graveyard = []*board.Instance{inst("dead", "clarice_1", board.Opponent)}

	require.True(t, f.eng.Play(board.Opponent, "g", board.Ranged))

	assert.Equal(t, []string{"g"}, ids(f.b.Lane(board.Player, board.Ranged)))
	assert.Len(t, side.Hand, 1)
	assert.Empty(t, side.Graveyard)
	ranged := f.b.Lane(board.Opponent, board.Ranged)
	require.Len(t, ranged, 1)
	assert.Equal(t, "clarice_1", ranged[0].Def.ID)
}

func TestWeatherCardGoesToGraveyard(t *testing.T) {
	f := newFixture(t)
	f.b.Side(board.Player).Hand = []*board.Instance{
		inst("frost", "geada_1", board.Player),
		inst("clear", "ceu_limpo_1", board.Player),
	}
	f.b.Place(board.Opponent, board.Melee, inst("w", "wellington_1", board.Opponent))

	require.True(t, f.eng.Play(board.Player, "frost", board.Ranged))
	assert.True(t, f.b.Weather.Frost)
	assert.Equal(t, 1, f.b.CardsOnBoard(), "weather never occupies a lane")
	assert.Equal(t, []string{"frost"}, ids(f.b.Side(board.Player).Graveyard))
	assert.Equal(t, 1, f.eng.Scores().Total(board.Opponent))

	require.True(t, f.eng.Play(board.Player, "clear", board.Melee))
	assert.False(t, f.b.Weather.Any())
	assert.Equal(t, 6, f.eng.Scores().Total(board.Opponent))
	assert.Len(t, f.b.Side(board.Player).Graveyard, 2)
}

func TestAgileLaneChoice(t *testing.T) {
	f := newFixture(t)
	f.b.Side(board.Player).Hand = []*board.Instance{
		inst("cook", "cozinheiros_1", board.Player),
		inst("eliel", "eliel_1", board.Player),
	}

	require.True(t, f.eng.Play(board.Player, "cook", board.Siege))
	assert.Equal(t, []string{"cook"}, ids(f.b.Lane(board.Player, board.Siege)))

	// fixed-row cards ignore the requested lane
	require.True(t, f.eng.Play(board.Player, "eliel", board.Melee))
	assert.Equal(t, []string{"cook", "eliel"}, ids(f.b.Lane(board.Player, board.Siege)))
}

func TestPlayRejectsUnknownAndDecoy(t *testing.T) {
	f := newFixture(t)
	f.b.Side(board.Player).Hand = []*board.Instance{inst("decoy", "espantalho_1", board.Player)}

	assert.False(t, f.eng.Play(board.Player, "ghost", board.Melee))
	assert.False(t, f.eng.Play(board.Player, "decoy", board.Melee))
	assert.Len(t, f.b.Side(board.Player).Hand, 1)
}

func TestDecoyConservation(t *testing.T) {
	f := newFixture(t)
	side := f.b.Side(board.Player)
	side.Hand = []*board.Instance{
		inst("decoy", "espantalho_1", board.Player),
		inst("other", "vanessa_1", board.Player),
	}
	f.b.Place(board.Player, board.Ranged, inst("a", "clarice_1", board.Player))
	f.b.Place(board.Player, board.Ranged, inst("b", "jacy_1", board.Player))

	handBefore := len(side.Hand)
	laneBefore := len(f.b.Lane(board.Player, board.Ranged))

	require.True(t, f.eng.Swap(board.Player, "decoy", "b"))

	assert.Len(t, side.Hand, handBefore)
	assert.Len(t, f.b.Lane(board.Player, board.Ranged), laneBefore)
	assert.Equal(t, []string{"a", "decoy"}, ids(f.b.Lane(board.Player, board.Ranged)))

	returned := side.Hand[len(side.Hand)-1]
	assert.Equal(t, "jacy_1", returned.Def.ID)
	assert.NotEqual(t, "b", returned.ID)
	assert.Equal(t, 4, f.eng.Scores().Total(board.Player))
	assert.Equal(t, 1, f.count(rules.EventDecoySwapped))
}

func TestDecoyRecoversPlantedSpy(t *testing.T) {
	f := newFixture(t)
	f.b.Side(board.Opponent).Hand = []*board.Instance{inst("decoy", "espantalho_2", board.Opponent)}
	spy := inst("spy", "corredores_1", board.Player)
	spy.Spy = true
	f.b.Place(board.Opponent, board.Melee, spy)

	require.True(t, f.eng.Swap(board.Opponent, "decoy", "spy"))

	hand := f.b.Side(board.Opponent).Hand
	require.Len(t, hand, 1)
	assert.Equal(t, "corredores_1", hand[0].Def.ID)
	assert.False(t, hand[0].Spy)
	assert.Equal(t, board.Opponent, hand[0].Owner)
}

func TestDecoyRejectsIllegalTargets(t *testing.T) {
	f := newFixture(t)
	f.b.Side(board.Player).Hand = []*board.Instance{inst("decoy", "espantalho_1", board.Player)}
	f.b.Place(board.Player, board.Siege, inst("hero", "marcus_1", board.Player))
	f.b.Place(board.Opponent, board.Siege, inst("theirs", "eliel_1", board.Opponent))
	before := f.b.Clone()

	assert.False(t, f.eng.Swap(board.Player, "decoy", "hero"))
	assert.False(t, f.eng.Swap(board.Player, "decoy", "theirs"))
	assert.False(t, f.eng.Swap(board.Player, "decoy", "ghost"))
	assert.Equal(t, ids(before.Side(board.Player).Hand), ids(f.b.Side(board.Player).Hand))
	assert.Equal(t, ids(before.Lane(board.Player, board.Siege)), ids(f.b.Lane(board.Player, board.Siege)))
}

func withLeader(t *testing.T, b *board.Board, side board.Side, id string) {
	t.Helper()
	l, ok := catalog.LeaderByID(id)
	require.True(t, ok)
	b.Side(side).Leader = l
}

func TestLeaderBoostMelee(t *testing.T) {
	f := newFixture(t)
	withLeader(t, f.b, board.Opponent, "leader_warlord")
	f.b.Place(board.Opponent, board.Melee, inst("v", "vanessa_1", board.Opponent))
	f.b.Place(board.Opponent, board.Melee, inst("m", "marcus_1", board.Opponent))
	f.b.Place(board.Opponent, board.Ranged, inst("j", "jacy_1", board.Opponent))

	require.True(t, f.eng.ActivateLeader(board.Opponent))
	assert.Equal(t, 5, f.b.Lane(board.Opponent, board.Melee)[0].BasePower)
	assert.Equal(t, 9, f.b.Lane(board.Opponent, board.Melee)[1].BasePower)
	assert.Equal(t, 3, f.b.Lane(board.Opponent, board.Ranged)[0].BasePower)
	assert.Equal(t, 17, f.eng.Scores().Total(board.Opponent))

	assert.False(t, f.eng.ActivateLeader(board.Opponent), "leaders fire once per match")
	assert.Equal(t, 5, f.b.Lane(board.Opponent, board.Melee)[0].BasePower)
}

func TestLeaderClearWeatherIsSymmetric(t *testing.T) {
	f := newFixture(t)
	withLeader(t, f.b, board.Player, "leader_general")
	f.b.Weather = board.Weather{Frost: true, Fog: true, Rain: true}
	f.b.Place(board.Player, board.Melee, inst("p", "anderson_1", board.Player))
	f.b.Place(board.Opponent, board.Siege, inst("o", "eliel_1", board.Opponent))

	require.True(t, f.eng.ActivateLeader(board.Player))
	assert.False(t, f.b.Weather.Any())
	scores := f.eng.Scores()
	assert.Equal(t, 4, scores.Total(board.Player))
	assert.Equal(t, 6, scores.Total(board.Opponent))
}

func TestLeaderScorchSiege(t *testing.T) {
	f := newFixture(t)
	withLeader(t, f.b, board.Opponent, "leader_usurper")
	f.b.Place(board.Player, board.Siege, inst("e", "eliel_1", board.Player))
	f.b.Place(board.Player, board.Siege, inst("r", "ritatril_1", board.Player))
	f.b.Place(board.Opponent, board.Siege, inst("mine", "eliel_2", board.Opponent))

	require.True(t, f.eng.ActivateLeader(board.Opponent))
	f.sched.Flush()

	assert.Equal(t, []string{"r"}, ids(f.b.Lane(board.Player, board.Siege)))
	assert.Equal(t, []string{"e"}, ids(f.b.Side(board.Player).Graveyard))
	assert.Len(t, f.b.Lane(board.Opponent, board.Siege), 1)
}

func TestLeaderDrawCard(t *testing.T) {
	f := newFixture(t)
	withLeader(t, f.b, board.Player, "leader_archmage")
	f.b.Side(board.Player).Deck = []*board.Instance{inst("d", "jacy_1", board.Player)}

	require.True(t, f.eng.ActivateLeader(board.Player))
	assert.Len(t, f.b.Side(board.Player).Hand, 1)
	assert.True(t, f.b.Side(board.Player).LeaderUsed)
}

func TestActivateWithoutLeader(t *testing.T) {
	f := newFixture(t)
	assert.False(t, f.eng.ActivateLeader(board.Player))
	assert.False(t, f.b.Side(board.Player).LeaderUsed)
}
