package abilities

import (
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kingdomofaen/aen-server-go/internal/game/board"
	"github.com/kingdomofaen/aen-server-go/internal/game/catalog"
	"github.com/kingdomofaen/aen-server-go/internal/game/rules"
)

// Delays are the effect windows between triggering an ability and its
// completion.
type Delays struct {
	Scorch     time.Duration
	MedicChain time.Duration
}

// DefaultDelays returns the standard effect windows.
func DefaultDelays() Delays {
	return Delays{
		Scorch:     800 * time.Millisecond,
		MedicChain: 300 * time.Millisecond,
	}
}

// Context is what a handler sees when an ability resolves.
type Context struct {
	Card *board.Instance
	Side board.Side // acting side
	Lane board.Lane
}

// Handler resolves one ability tag.
type Handler func(e *Engine, ctx Context)

// Engine resolves card and leader abilities against a board. All mutation
// goes through the engine so scores are recomputed and events published
// after every step.
type Engine struct {
	board     *board.Board
	scheduler *rules.Scheduler
	bus       *rules.EventBus
	delays    Delays
	newID     func() string
	logger    *zap.Logger
	handlers  map[catalog.Ability]Handler
}

// Option configures an Engine.
type Option func(*Engine)

// WithIDGenerator overrides how fresh instance ids are minted.
func WithIDGenerator(newID func() string) Option {
	return func(e *Engine) {
		if newID != nil {
			e.newID = newID
		}
	}
}

// WithHandler replaces or adds the handler for an ability tag.
func WithHandler(ability catalog.Ability, h Handler) Option {
	return func(e *Engine) {
		e.handlers[ability] = h
	}
}

// NewEngine creates an engine over b. bus and logger may be nil.
func NewEngine(b *board.Board, scheduler *rules.Scheduler, bus *rules.EventBus, delays Delays, logger *zap.Logger, opts ...Option) *Engine {
	e := &Engine{
		board:     b,
		scheduler: scheduler,
		bus:       bus,
		delays:    delays,
		newID:     uuid.NewString,
		logger:    logger,
		handlers:  defaultHandlers(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Board returns the board the engine mutates.
func (e *Engine) Board() *board.Board {
	return e.board
}

// Scores recomputes the cached powers and returns the current scores.
func (e *Engine) Scores() board.Scores {
	return board.Recompute(e.board)
}

// NewID mints a fresh instance id.
func (e *Engine) NewID() string {
	return e.newID()
}

// Play takes a card from side's hand and resolves it. Weather cards resolve
// and go straight to the graveyard; other cards enter the lane first. Agile
// cards use lane, fixed-row cards their own lane. Decoys are not played
// here, see Swap. It returns false when nothing happened.
func (e *Engine) Play(side board.Side, cardID string, lane board.Lane) bool {
	state := e.board.Side(side)
	idx := state.HandIndex(cardID)
	if idx < 0 {
		e.debug("play ignored: card not in hand", zap.String("card_id", cardID), zap.Stringer("side", side))
		return false
	}
	if state.Hand[idx].Def.Ability == catalog.AbilityDecoy {
		e.debug("play ignored: decoys only swap", zap.String("card_id", cardID))
		return false
	}
	card := state.TakeFromHand(idx)

	if card.Def.IsWeather() {
		card.Owner = side
		e.publish(rules.EventCardPlayed, card.ID, card.Def.ID, side, "", 0)
		e.resolve(Context{Card: card, Side: side})
		e.board.Discard(card)
		e.publish(rules.EventCardDiscarded, card.ID, card.Def.ID, side, "", 0)
		e.Scores()
		return true
	}

	if !card.Def.Agile() {
		lane, _ = board.LaneForRow(card.Def.Row)
	}
	e.board.Place(side, lane, card)
	e.publish(rules.EventCardPlayed, card.ID, card.Def.ID, side, lane.String(), card.BasePower)
	e.Scores()

	if e.logger != nil {
		e.logger.Debug("card played",
			zap.String("card_id", card.ID),
			zap.String("name", card.Def.Name),
			zap.Stringer("side", side),
			zap.Stringer("lane", lane),
		)
	}

	e.resolve(Context{Card: card, Side: side, Lane: lane})
	return true
}

// Swap exchanges a hand decoy with one of side's own eligible board cards.
// The target returns to hand as a fresh instance and the decoy takes its
// slot. Hand size and lane size are unchanged.
func (e *Engine) Swap(side board.Side, decoyID, targetID string) bool {
	state := e.board.Side(side)
	idx := state.HandIndex(decoyID)
	if idx < 0 || state.Hand[idx].Def.Ability != catalog.AbilityDecoy {
		e.debug("swap ignored: no decoy in hand", zap.String("card_id", decoyID))
		return false
	}

	targetSide, lane, pos, ok := e.board.Locate(targetID)
	if !ok || targetSide != side || !rules.IsDecoyTarget(e.board.Lane(side, lane)[pos]) {
		e.debug("swap ignored: invalid target", zap.String("target_id", targetID))
		return false
	}

	decoy := state.TakeFromHand(idx)
	target := e.board.Lane(side, lane)[pos]
	decoy.Owner = side
	e.board.Sides[side].Lanes[lane][pos] = decoy

	returned := board.NewInstance(e.newID(), target.Def, side)
	state.Hand = append(state.Hand, returned)

	ev := e.event(rules.EventDecoySwapped, returned.ID, decoy.ID, side, lane.String(), 0)
	ev.Metadata["replaced_id"] = target.ID
	ev.Metadata["returned_def"] = target.Def.ID
	if target.Spy {
		ev.Metadata["recovered_spy"] = "true"
	}
	e.emit(ev)
	e.Scores()

	if e.logger != nil {
		e.logger.Debug("decoy swapped",
			zap.String("decoy_id", decoy.ID),
			zap.String("target", target.Def.Name),
			zap.Stringer("side", side),
		)
	}
	return true
}

// Draw moves up to n cards from side's deck to its hand. An empty deck is a
// no-op with a diagnostic.
func (e *Engine) Draw(side board.Side, n int) int {
	if n <= 0 {
		return 0
	}
	drawn := e.board.Draw(side, n, e.newID)
	if drawn > 0 {
		e.publish(rules.EventCardDrawn, "", "", side, "", drawn)
	}
	if drawn < n {
		e.publish(rules.EventDeckEmpty, "", "", side, "", n-drawn)
		if e.logger != nil {
			e.logger.Info("deck empty",
				zap.Stringer("side", side),
				zap.Int("requested", n),
				zap.Int("drawn", drawn),
			)
		}
	}
	return drawn
}

func (e *Engine) resolve(ctx Context) {
	h, ok := e.handlers[ctx.Card.Def.Ability]
	if !ok || h == nil {
		return
	}
	h(e, ctx)
}

func (e *Engine) event(t rules.EventType, cardID, sourceID string, side board.Side, lane string, amount int) rules.Event {
	ev := rules.NewEventWithAmount(t, cardID, sourceID, side.String(), amount)
	ev.Lane = lane
	if e.scheduler != nil {
		ev.At = e.scheduler.Now()
	}
	return ev
}

func (e *Engine) emit(ev rules.Event) {
	if e.bus != nil {
		e.bus.Publish(ev)
	}
}

func (e *Engine) publish(t rules.EventType, cardID, sourceID string, side board.Side, lane string, amount int) {
	e.emit(e.event(t, cardID, sourceID, side, lane, amount))
}

func (e *Engine) debug(msg string, fields ...zap.Field) {
	if e.logger != nil {
		e.logger.Debug(msg, fields...)
	}
}

// schedule runs commit after delay. Without a scheduler it commits inline.
func (e *Engine) schedule(delay time.Duration, description string, commit func()) {
	if e.scheduler == nil {
		commit()
		return
	}
	e.scheduler.Schedule(delay, description, func() {
		commit()
		ev := rules.NewEvent(rules.EventEffectCommitted, "", "", "")
		ev.Data = description
		ev.At = e.scheduler.Now()
		e.emit(ev)
	})
}
