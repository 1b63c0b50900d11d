package abilities

import (
	"go.uber.org/zap"

	"github.com/kingdomofaen/aen-server-go/internal/game/board"
	"github.com/kingdomofaen/aen-server-go/internal/game/catalog"
	"github.com/kingdomofaen/aen-server-go/internal/game/rules"
)

// BoostAmount is added to base power by leader_boost_melee.
const BoostAmount = 2

// ActivateLeader fires side's leader power once per match. It returns false
// when the side has no leader or already used it.
func (e *Engine) ActivateLeader(side board.Side) bool {
	state := e.board.Side(side)
	if state.Leader == nil || state.LeaderUsed {
		if e.logger != nil {
			e.logger.Debug("leader activation ignored",
				zap.Stringer("side", side),
				zap.Bool("used", state.LeaderUsed),
			)
		}
		return false
	}
	state.LeaderUsed = true
	leader := state.Leader

	ev := e.event(rules.EventLeaderActivated, "", leader.ID, side, "", 0)
	ev.Data = string(leader.Ability)
	e.emit(ev)

	if e.logger != nil {
		e.logger.Info("leader activated",
			zap.String("leader", leader.Name),
			zap.String("ability", string(leader.Ability)),
			zap.Stringer("side", side),
		)
	}

	switch leader.Ability {
	case catalog.LeaderClearWeather:
		e.ClearWeather(side, leader.ID)
	case catalog.LeaderScorchSiege:
		e.Scorch(side.Other(), board.Siege, leader.ID)
	case catalog.LeaderDrawCard:
		e.Draw(side, 1)
	case catalog.LeaderBoostMelee:
		e.boostMelee(side, leader.ID)
	default:
		e.debug("unknown leader ability", zap.String("ability", string(leader.Ability)))
	}
	return true
}

// boostMelee permanently raises the base power of every non-hero card in
// side's melee lane.
func (e *Engine) boostMelee(side board.Side, sourceID string) {
	boosted := 0
	for _, c := range e.board.Lane(side, board.Melee) {
		if c.Hero() {
			continue
		}
		c.BasePower += BoostAmount
		boosted++
		e.publish(rules.EventPowerBoosted, c.ID, sourceID, side, board.Melee.String(), BoostAmount)
	}
	if boosted == 0 {
		e.debug("boost found no melee cards", zap.Stringer("side", side))
	}
	e.Scores()
}
