package abilities

import (
	"strings"

	"go.uber.org/zap"

	"github.com/kingdomofaen/aen-server-go/internal/game/board"
	"github.com/kingdomofaen/aen-server-go/internal/game/catalog"
	"github.com/kingdomofaen/aen-server-go/internal/game/rules"
)

// defaultHandlers maps every triggered ability to its resolution. Passive
// tags (bonds, hero) and decoys have no entry.
func defaultHandlers() map[catalog.Ability]Handler {
	return map[catalog.Ability]Handler{
		catalog.AbilitySpy:          resolveSpy,
		catalog.AbilitySpyMedic:     resolveSpyMedic,
		catalog.AbilityMedic:        resolveMedic,
		catalog.AbilityScorch:       resolveScorch,
		catalog.AbilityWeatherFrost: setWeather(func(w *board.Weather) { w.Frost = true }),
		catalog.AbilityWeatherFog:   setWeather(func(w *board.Weather) { w.Fog = true }),
		catalog.AbilityWeatherRain:  setWeather(func(w *board.Weather) { w.Rain = true }),
		catalog.AbilityWeatherClear: resolveClearWeather,
	}
}

// resolveSpy moves the card to the opposing side's matching lane and draws
// one card for the side that played it.
func resolveSpy(e *Engine, ctx Context) {
	card, ok := e.board.RemoveFromLane(ctx.Card.ID)
	if !ok {
		e.debug("spy ignored: card left the board", zap.String("card_id", ctx.Card.ID))
		return
	}
	card.Spy = true
	card.PlayedBy = ctx.Side
	target := ctx.Side.Other()
	e.board.Place(target, ctx.Lane, card)
	e.publish(rules.EventSpyMoved, card.ID, card.Def.ID, target, ctx.Lane.String(), card.BasePower)
	e.Scores()

	e.Draw(ctx.Side, 1)
}

func resolveSpyMedic(e *Engine, ctx Context) {
	resolveSpy(e, ctx)
	resolveMedic(e, ctx)
}

// resolveMedic revives the most recently discarded eligible card of the
// acting side into its lane, then resolves the revived card's own ability
// after the chain delay.
func resolveMedic(e *Engine, ctx Context) {
	state := e.board.Side(ctx.Side)
	idx := rules.LastRevivable(state.Graveyard)
	if idx < 0 {
		e.publish(rules.EventNoRevival, "", ctx.Card.ID, ctx.Side, "", 0)
		if e.logger != nil {
			e.logger.Debug("medic found nothing to revive",
				zap.Stringer("side", ctx.Side),
				zap.Int("graveyard", len(state.Graveyard)),
			)
		}
		return
	}

	dead := state.Graveyard[idx]
	state.Graveyard = append(state.Graveyard[:idx:idx], state.Graveyard[idx+1:]...)

	lane, _ := board.LaneForRow(dead.Def.Row)
	revived := board.NewInstance(e.newID(), dead.Def, ctx.Side)
	e.board.Place(ctx.Side, lane, revived)

	ev := e.event(rules.EventCardRevived, revived.ID, ctx.Card.ID, ctx.Side, lane.String(), revived.BasePower)
	ev.Metadata["def_id"] = dead.Def.ID
	e.emit(ev)
	e.Scores()

	if e.logger != nil {
		e.logger.Debug("card revived",
			zap.String("name", revived.Def.Name),
			zap.Stringer("side", ctx.Side),
			zap.Stringer("lane", lane),
		)
	}

	if _, ok := e.handlers[revived.Def.Ability]; !ok {
		return
	}
	e.schedule(e.delays.MedicChain, "medic chain "+revived.Def.Name, func() {
		s, l, _, ok := e.board.Locate(revived.ID)
		if !ok || s != ctx.Side {
			e.debug("medic chain dropped: revived card moved", zap.String("card_id", revived.ID))
			return
		}
		e.resolve(Context{Card: revived, Side: ctx.Side, Lane: l})
	})
}

func resolveScorch(e *Engine, ctx Context) {
	e.Scorch(ctx.Side.Other(), ctx.Lane, ctx.Card.ID)
}

// Scorch marks every non-hero card tied at the highest effective power in
// side's lane and destroys them after the scorch delay. A lane of heroes
// only, or an empty lane, fizzles.
func (e *Engine) Scorch(side board.Side, lane board.Lane, sourceID string) []string {
	scores := board.ComputeScores(e.board)

	best := -1
	var marked []string
	for _, c := range e.board.Lane(side, lane) {
		if c.Hero() {
			continue
		}
		p := scores.Cards[c.ID]
		switch {
		case p > best:
			best = p
			marked = []string{c.ID}
		case p == best:
			marked = append(marked, c.ID)
		}
	}

	if len(marked) == 0 {
		e.publish(rules.EventScorchFizzled, "", sourceID, side, lane.String(), 0)
		if e.logger != nil {
			e.logger.Debug("scorch fizzled",
				zap.Stringer("side", side),
				zap.Stringer("lane", lane),
			)
		}
		return nil
	}

	ev := e.event(rules.EventScorchScheduled, "", sourceID, side, lane.String(), best)
	ev.Metadata["targets"] = strings.Join(marked, ",")
	e.emit(ev)

	e.schedule(e.delays.Scorch, "scorch "+side.String()+" "+lane.String(), func() {
		for _, id := range marked {
			card, ok := e.board.RemoveFromLane(id)
			if !ok {
				continue
			}
			e.board.Discard(card)
			e.publish(rules.EventCardDestroyed, card.ID, sourceID, card.Owner, lane.String(), best)
		}
		e.Scores()
	})
	return marked
}

func setWeather(apply func(*board.Weather)) Handler {
	return func(e *Engine, ctx Context) {
		apply(&e.board.Weather)
		e.publish(rules.EventWeatherApplied, ctx.Card.ID, ctx.Card.Def.ID, ctx.Side, "", 0)
		e.Scores()
	}
}

func resolveClearWeather(e *Engine, ctx Context) {
	e.ClearWeather(ctx.Side, ctx.Card.ID)
}

// ClearWeather resets every weather flag for both sides.
func (e *Engine) ClearWeather(side board.Side, sourceID string) {
	e.board.Weather.Clear()
	e.publish(rules.EventWeatherCleared, "", sourceID, side, "", 0)
	e.Scores()
}
