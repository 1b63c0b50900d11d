package game

import (
	"fmt"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kingdomofaen/aen-server-go/internal/game/abilities"
	"github.com/kingdomofaen/aen-server-go/internal/game/ai"
	"github.com/kingdomofaen/aen-server-go/internal/game/board"
	"github.com/kingdomofaen/aen-server-go/internal/game/catalog"
	"github.com/kingdomofaen/aen-server-go/internal/game/rules"
)

// DefaultHandSize is the number of cards each side is dealt at match start.
const DefaultHandSize = 10

// maxEventLog bounds the per-match event history.
const maxEventLog = 512

// Settings configures a match.
type Settings struct {
	HandSize         int
	BonusDrawFaction string // round winner with a leader of this faction draws one extra card
	Seed             int64  // 0 picks a time-based seed
	AIThink          time.Duration
	RoundEnd         time.Duration
	Effects          abilities.Delays
	PlayerLeader     string
	OpponentLeader   string   // empty picks a random leader other than the player's
	OpponentDeck     []string // empty uses the unit deck
}

// DefaultSettings returns the standard single-player duel settings.
func DefaultSettings() Settings {
	return Settings{
		HandSize:         DefaultHandSize,
		BonusDrawFaction: catalog.FactionAlfredolandia,
		AIThink:          1500 * time.Millisecond,
		RoundEnd:         500 * time.Millisecond,
		Effects:          abilities.DefaultDelays(),
		PlayerLeader:     catalog.DefaultPlayerLeader,
	}
}

// Delta is what one accepted action changed.
type Delta struct {
	Scores board.Scores
	Phase  rules.TurnPhase
	Events []rules.Event
}

// MatchOption configures a Match.
type MatchOption func(*Match)

// WithMatchID overrides the generated match id.
func WithMatchID(id string) MatchOption {
	return func(m *Match) {
		if id != "" {
			m.id = id
		}
	}
}

// WithSeed overrides the settings seed for one match. Zero keeps it.
func WithSeed(seed int64) MatchOption {
	return func(m *Match) {
		if seed != 0 {
			m.settings.Seed = seed
			m.rng = rand.New(rand.NewSource(seed))
		}
	}
}

// WithRecorder records a snapshot after every action and round.
func WithRecorder(r *ReplayRecorder) MatchOption {
	return func(m *Match) {
		m.recorder = r
	}
}

// Match owns the full state of one human-versus-AI duel: the board, the
// turn/round machine, the effect scheduler and the AI. All methods are safe
// for concurrent use.
type Match struct {
	id        string
	settings  Settings
	logger    *zap.Logger
	startedAt time.Time

	mu        sync.Mutex
	board     *board.Board
	bus       *rules.EventBus
	scheduler *rules.Scheduler
	engine    *abilities.Engine
	turns     *rules.TurnManager
	checker   *rules.LegalityChecker
	decider   *ai.Decider
	recorder  *ReplayRecorder
	rng       *rand.Rand
	nextID    int

	events     []rules.Event
	collected  []rules.Event
	collecting bool
}

// NewMatch validates the player's deck, shuffles both decks, assigns leaders
// and deals the opening hands.
func NewMatch(settings Settings, playerDeck []string, logger *zap.Logger, opts ...MatchOption) (*Match, error) {
	if settings.HandSize <= 0 {
		settings.HandSize = DefaultHandSize
	}
	if settings.PlayerLeader == "" {
		settings.PlayerLeader = catalog.DefaultPlayerLeader
	}
	if settings.Seed == 0 {
		settings.Seed = time.Now().UnixNano()
	}

	if err := catalog.ValidateDeck(playerDeck); err != nil {
		return nil, fmt.Errorf("player deck: %w", err)
	}
	opponentDeck := settings.OpponentDeck
	if len(opponentDeck) == 0 {
		opponentDeck = catalog.UnitDeck()
	}
	opponentDefs, unknown := catalog.Resolve(opponentDeck)
	if len(unknown) > 0 {
		return nil, fmt.Errorf("opponent deck: unknown card ids %v", unknown)
	}
	playerDefs, _ := catalog.Resolve(playerDeck)

	playerLeader, ok := catalog.LeaderByID(settings.PlayerLeader)
	if !ok {
		return nil, fmt.Errorf("unknown player leader %q", settings.PlayerLeader)
	}

	m := &Match{
		id:        uuid.NewString(),
		settings:  settings,
		logger:    logger,
		startedAt: time.Now(),
		board:     board.New(),
		bus:       rules.NewEventBus(),
		scheduler: rules.NewScheduler(logger),
		turns:     rules.NewTurnManager(),
		decider:   ai.NewDecider(logger),
		rng:       rand.New(rand.NewSource(settings.Seed)),
	}
	for _, opt := range opts {
		opt(m)
	}

	opponentLeader, err := m.pickOpponentLeader(playerLeader)
	if err != nil {
		return nil, err
	}

	m.bus.Subscribe(m.record)
	m.checker = rules.NewLegalityChecker(m.board)
	m.engine = abilities.NewEngine(m.board, m.scheduler, m.bus, settings.Effects, logger,
		abilities.WithIDGenerator(m.newID))

	m.board.Side(board.Player).Leader = playerLeader
	m.board.Side(board.Opponent).Leader = opponentLeader
	m.board.Side(board.Player).Deck = m.shuffled(playerDefs, board.Player)
	m.board.Side(board.Opponent).Deck = m.shuffled(opponentDefs, board.Opponent)

	m.mu.Lock()
	m.engine.Draw(board.Player, settings.HandSize)
	m.engine.Draw(board.Opponent, settings.HandSize)
	m.engine.Scores()
	m.publish(rules.EventRoundStarted, board.Player, 1)
	m.mu.Unlock()

	if m.recorder != nil {
		m.recorder.Start(m.id, m.settings.Seed, playerDeck)
		m.recordSnapshot()
	}

	if logger != nil {
		logger.Info("match created",
			zap.String("match_id", m.id),
			zap.Int64("seed", m.settings.Seed),
			zap.String("player_leader", playerLeader.ID),
			zap.String("opponent_leader", opponentLeader.ID),
			zap.Int("player_deck", len(playerDefs)),
			zap.Int("opponent_deck", len(opponentDefs)),
		)
	}
	return m, nil
}

func (m *Match) pickOpponentLeader(player *catalog.Leader) (*catalog.Leader, error) {
	if m.settings.OpponentLeader != "" {
		l, ok := catalog.LeaderByID(m.settings.OpponentLeader)
		if !ok {
			return nil, fmt.Errorf("unknown opponent leader %q", m.settings.OpponentLeader)
		}
		return l, nil
	}
	others := catalog.OtherLeaders(player.ID)
	return others[m.rng.Intn(len(others))], nil
}

func (m *Match) shuffled(defs []*catalog.Definition, side board.Side) []*board.Instance {
	deck := make([]*board.Instance, len(defs))
	for i, d := range defs {
		deck[i] = board.NewInstance(m.newID(), d, side)
	}
	m.rng.Shuffle(len(deck), func(i, j int) { deck[i], deck[j] = deck[j], deck[i] })
	return deck
}

// newID mints match-scoped instance ids so equal seeds give equal boards.
func (m *Match) newID() string {
	m.nextID++
	return "c" + strconv.Itoa(m.nextID)
}

// ID returns the match id.
func (m *Match) ID() string {
	return m.id
}

// Seed returns the seed the decks were shuffled with.
func (m *Match) Seed() int64 {
	return m.settings.Seed
}

// PlayCard plays a card from the human's hand. Decoys need decoyTargetID and
// swap with that card; every other card goes to lane (ignored for weather
// and fixed-row cards must match it). A rejected move returns an
// *InvalidMoveError and changes nothing.
func (m *Match) PlayCard(side board.Side, cardID string, lane board.Lane, decoyTargetID string) (Delta, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.checkHuman(side); err != nil {
		return Delta{}, m.reject(side, cardID, err)
	}
	if err := fromLegality(m.checker.CheckPlay(side, cardID, lane, decoyTargetID)); err != nil {
		return Delta{}, m.reject(side, cardID, err)
	}

	m.beginAction()
	hand := m.board.Side(side)
	card := hand.Hand[hand.HandIndex(cardID)]

	var ok bool
	if card.Def.Ability == catalog.AbilityDecoy {
		ok = m.engine.Swap(side, cardID, decoyTargetID)
	} else {
		ok = m.engine.Play(side, cardID, lane)
	}
	if !ok && m.logger != nil {
		m.logger.Warn("legal play had no effect",
			zap.String("match_id", m.id),
			zap.String("card_id", cardID),
		)
	}

	m.afterHumanAction()
	return m.endAction(), nil
}

// ResolveLane turns a lane name from a client into a Lane. An empty name
// picks the card's own row, which is what fixed-row cards need.
func (m *Match) ResolveLane(side board.Side, cardID, name string) (board.Lane, error) {
	if name != "" {
		lane, err := board.ParseLane(name)
		if err != nil {
			return 0, invalidMove(rules.ReasonLaneMismatch, map[string]string{"card_id": cardID, "got": name})
		}
		return lane, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	state := m.board.Side(side)
	if i := state.HandIndex(cardID); i >= 0 {
		if lane, ok := board.LaneForRow(state.Hand[i].Def.Row); ok {
			return lane, nil
		}
	}
	return board.Melee, nil
}

// PassTurn marks side as passed for the rest of the round. The AI then keeps
// acting until it passes too, after which the round ends.
func (m *Match) PassTurn(side board.Side) (Delta, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.checkHuman(side); err != nil {
		return Delta{}, m.reject(side, "", err)
	}
	if m.board.Side(side).Passed {
		return Delta{}, m.reject(side, "", invalidMove(rules.ReasonAlreadyPassed, map[string]string{"side": side.String()}))
	}

	m.beginAction()
	m.markPassed(side)
	if m.board.Side(side.Other()).Passed {
		m.beginRoundEnd()
	} else {
		m.lockForAI()
	}
	m.recordSnapshotLocked()
	return m.endAction(), nil
}

// ActivateLeader fires the human's leader power. It counts as the human's
// action for the turn.
func (m *Match) ActivateLeader(side board.Side) (Delta, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.checkHuman(side); err != nil {
		return Delta{}, m.reject(side, "", err)
	}
	if err := fromLegality(m.checker.CheckLeader(side)); err != nil {
		return Delta{}, m.reject(side, "", err)
	}

	m.beginAction()
	m.engine.ActivateLeader(side)
	m.afterHumanAction()
	return m.endAction(), nil
}

// Apply performs a decision for the human side, letting an AI drive it.
func (m *Match) Apply(side board.Side, dec ai.Decision) (Delta, error) {
	switch dec.Action {
	case ai.ActionActivateLeader:
		return m.ActivateLeader(side)
	case ai.ActionPlay:
		return m.PlayCard(side, dec.CardID, dec.Lane, dec.DecoyTargetID)
	default:
		return m.PassTurn(side)
	}
}

// Scores returns the current score projection.
func (m *Match) Scores() board.Scores {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.engine.Scores()
}

// DrawCard moves up to n cards from side's deck to its hand.
func (m *Match) DrawCard(side board.Side, n int) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	drawn := m.engine.Draw(side, n)
	m.recordSnapshotLocked()
	return drawn
}

// Advance moves the virtual clock forward and commits due effects, AI turns
// and round ends. It returns the number of committed effects.
func (m *Match) Advance(d time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.scheduler.Advance(d)
}

// Settle commits everything that is pending, including the AI's reply and
// any round end it leads to.
func (m *Match) Settle() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.scheduler.Flush()
}

// NextDue returns how long until the next scheduled effect commits, and
// false when nothing is pending.
func (m *Match) NextDue() (time.Duration, bool) {
	due, ok := m.scheduler.NextDue()
	if !ok {
		return 0, false
	}
	return max(due-m.scheduler.Now(), 0), true
}

// Pending returns the number of effects waiting on the clock.
func (m *Match) Pending() int {
	return m.scheduler.Pending()
}

// Phase returns the current turn phase.
func (m *Match) Phase() rules.TurnPhase {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.turns.Phase()
}

// Round returns the 1-based round number.
func (m *Match) Round() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.turns.Round()
}

// Wins returns a side's round wins.
func (m *Match) Wins(side board.Side) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.turns.Wins(side)
}

// Outcome returns the match result so far.
func (m *Match) Outcome() rules.MatchOutcome {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.turns.MatchResult()
}

// History returns the finished rounds.
func (m *Match) History() []rules.RoundResult {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.turns.History()
}

// BoardView returns a deep copy of the board.
func (m *Match) BoardView() *board.Board {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.board.Clone()
}

// Events returns a copy of the recent event history.
func (m *Match) Events() []rules.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]rules.Event, len(m.events))
	copy(out, m.events)
	return out
}

// Subscribe registers a listener on the match event bus. Listeners run while
// the match is locked and must not call back into it.
func (m *Match) Subscribe(listener rules.Listener) int {
	return m.bus.Subscribe(listener)
}

// Unsubscribe removes a listener.
func (m *Match) Unsubscribe(handle int) {
	m.bus.Unsubscribe(handle)
}

func (m *Match) checkHuman(side board.Side) error {
	if side != board.Player {
		return invalidMove(ReasonWrongSide, map[string]string{"side": side.String()})
	}
	switch phase := m.turns.Phase(); phase {
	case rules.PhaseMatchOver:
		return invalidMove(ReasonMatchOver, nil)
	case rules.PhaseAITurnLocked, rules.PhaseRoundOver:
		return invalidMove(ReasonTurnLocked, map[string]string{"phase": phase.String()})
	}
	return nil
}

func (m *Match) reject(side board.Side, cardID string, err error) error {
	ev := rules.NewEvent(rules.EventMoveRejected, cardID, "", side.String())
	if ime, ok := err.(*InvalidMoveError); ok {
		ev.Data = ime.Reason
	}
	ev.At = m.scheduler.Now()
	m.bus.Publish(ev)

	if m.logger != nil {
		m.logger.Info("move rejected",
			zap.String("match_id", m.id),
			zap.Stringer("side", side),
			zap.String("card_id", cardID),
			zap.Error(err),
		)
	}
	return err
}

// afterHumanAction hands the turn to the AI unless it already passed, in
// which case the human keeps acting.
func (m *Match) afterHumanAction() {
	if !m.board.Side(board.Opponent).Passed {
		m.lockForAI()
	}
	m.recordSnapshotLocked()
}

func (m *Match) lockForAI() {
	if !m.turns.Lock() {
		return
	}
	m.publish(rules.EventTurnLocked, board.Opponent, 0)
	m.scheduler.Schedule(m.settings.AIThink, "ai turn", m.aiStep)
}

// aiStep runs one AI action. While the human has passed the AI keeps
// scheduling itself until it passes too.
func (m *Match) aiStep() {
	if m.turns.Phase() != rules.PhaseAITurnLocked {
		return
	}

	dec := m.decider.Decide(m.board, board.Opponent)
	ev := rules.NewEventWithAmount(rules.EventAIDecided, dec.CardID, "", board.Opponent.String(), dec.Priority)
	ev.Data = dec.Action.String()
	ev.At = m.scheduler.Now()
	ev.Metadata["reason"] = dec.Reason
	if dec.Action == ai.ActionPlay {
		ev.Lane = dec.Lane.String()
	}
	if dec.DecoyTargetID != "" {
		ev.Metadata["decoy_target_id"] = dec.DecoyTargetID
	}
	m.bus.Publish(ev)

	m.apply(board.Opponent, dec)

	player, opponent := m.board.Side(board.Player), m.board.Side(board.Opponent)
	switch {
	case player.Passed && opponent.Passed:
		m.beginRoundEnd()
	case player.Passed:
		m.scheduler.Schedule(m.settings.AIThink, "ai turn", m.aiStep)
	default:
		m.turns.Unlock()
		m.publish(rules.EventTurnUnlocked, board.Player, 0)
	}
	m.recordSnapshotLocked()
}

// apply carries out an AI decision. A decision the engine refuses becomes a
// pass so the match cannot stall.
func (m *Match) apply(side board.Side, dec ai.Decision) {
	switch dec.Action {
	case ai.ActionActivateLeader:
		if m.engine.ActivateLeader(side) {
			return
		}
	case ai.ActionPlay:
		var ok bool
		if dec.DecoyTargetID != "" {
			ok = m.engine.Swap(side, dec.CardID, dec.DecoyTargetID)
		} else {
			ok = m.engine.Play(side, dec.CardID, dec.Lane)
		}
		if ok {
			return
		}
	case ai.ActionPass:
		m.markPassed(side)
		return
	}

	if m.logger != nil {
		m.logger.Warn("ai decision not applicable, passing",
			zap.String("match_id", m.id),
			zap.Stringer("action", dec.Action),
			zap.String("card_id", dec.CardID),
		)
	}
	m.markPassed(side)
}

func (m *Match) markPassed(side board.Side) {
	m.board.Side(side).Passed = true
	m.publish(rules.EventPlayerPassed, side, 0)
	if m.logger != nil {
		m.logger.Debug("side passed",
			zap.String("match_id", m.id),
			zap.Stringer("side", side),
			zap.Int("round", m.turns.Round()),
		)
	}
}

// beginRoundEnd closes the round and schedules its resolution. Totals are
// taken now, when both sides have passed.
func (m *Match) beginRoundEnd() {
	m.turns.EndRound()
	scores := m.engine.Scores()
	totals := scores.Sides
	m.scheduler.Schedule(m.settings.RoundEnd, "round end", func() {
		m.finishRound(totals)
	})
}

func (m *Match) finishRound(totals [2]int) {
	res := rules.DecideRound(m.turns.Round(), totals[board.Player], totals[board.Opponent])

	ev := rules.NewEventWithAmount(rules.EventRoundEnded, "", "", "", res.Round)
	ev.At = m.scheduler.Now()
	if res.Tie {
		ev.Data = "tie"
	} else {
		ev.Data = res.Winner.String()
	}
	ev.Metadata["player_total"] = strconv.Itoa(totals[board.Player])
	ev.Metadata["opponent_total"] = strconv.Itoa(totals[board.Opponent])
	m.bus.Publish(ev)

	if !res.Tie {
		m.factionBonus(res.Winner)
	}

	if m.logger != nil {
		m.logger.Info("round ended",
			zap.String("match_id", m.id),
			zap.Int("round", res.Round),
			zap.Int("player_total", totals[board.Player]),
			zap.Int("opponent_total", totals[board.Opponent]),
			zap.Bool("tie", res.Tie),
		)
	}

	if m.turns.RecordRound(res) {
		outcome := m.turns.MatchResult()
		end := rules.NewEvent(rules.EventMatchEnded, "", "", "")
		end.Data = outcome.String()
		end.At = m.scheduler.Now()
		m.bus.Publish(end)
		if m.logger != nil {
			m.logger.Info("match ended",
				zap.String("match_id", m.id),
				zap.Stringer("outcome", outcome),
				zap.Int("player_wins", m.turns.Wins(board.Player)),
				zap.Int("opponent_wins", m.turns.Wins(board.Opponent)),
			)
		}
		m.recordSnapshotLocked()
		return
	}

	cleared := m.board.ClearLanes()
	m.board.Weather.Clear()
	m.board.Side(board.Player).Passed = false
	m.board.Side(board.Opponent).Passed = false
	m.engine.Draw(board.Player, 1)
	m.engine.Draw(board.Opponent, 1)
	m.engine.Scores()
	m.publish(rules.EventRoundStarted, board.Player, m.turns.Round())

	if m.logger != nil {
		m.logger.Debug("round started",
			zap.String("match_id", m.id),
			zap.Int("round", m.turns.Round()),
			zap.Int("cleared", cleared),
		)
	}
	m.recordSnapshotLocked()
}

func (m *Match) factionBonus(winner board.Side) {
	leader := m.board.Side(winner).Leader
	if leader == nil || m.settings.BonusDrawFaction == "" || leader.Faction != m.settings.BonusDrawFaction {
		return
	}
	drawn := m.engine.Draw(winner, 1)
	if m.logger != nil {
		m.logger.Debug("faction bonus draw",
			zap.String("match_id", m.id),
			zap.Stringer("side", winner),
			zap.String("faction", leader.Faction),
			zap.Int("drawn", drawn),
		)
	}
}

func (m *Match) publish(t rules.EventType, side board.Side, amount int) {
	ev := rules.NewEventWithAmount(t, "", "", side.String(), amount)
	ev.At = m.scheduler.Now()
	m.bus.Publish(ev)
}

// record is the match's own bus listener. It runs under m.mu.
func (m *Match) record(ev rules.Event) {
	m.events = append(m.events, ev)
	if len(m.events) > maxEventLog {
		m.events = m.events[len(m.events)-maxEventLog:]
	}
	if m.collecting {
		m.collected = append(m.collected, ev)
	}
}

func (m *Match) beginAction() {
	m.collecting = true
	m.collected = nil
}

func (m *Match) endAction() Delta {
	m.collecting = false
	d := Delta{
		Scores: m.engine.Scores(),
		Phase:  m.turns.Phase(),
		Events: m.collected,
	}
	m.collected = nil
	return d
}

func (m *Match) recordSnapshot() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recordSnapshotLocked()
}

func (m *Match) recordSnapshotLocked() {
	if m.recorder == nil {
		return
	}
	m.recorder.Record(m.id, m.snapshotLocked())
}
