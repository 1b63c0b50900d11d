package rules

import (
	"github.com/kingdomofaen/aen-server-go/internal/game/board"
	"github.com/kingdomofaen/aen-server-go/internal/game/catalog"
)

// Rejection reasons reported in LegalityResult.Reason.
const (
	ReasonLegal          = "legal"
	ReasonAlreadyPassed  = "already_passed"
	ReasonCardNotInHand  = "card_not_in_hand"
	ReasonLaneMismatch   = "lane_mismatch"
	ReasonDecoyTarget    = "invalid_decoy_target"
	ReasonNoDecoyTarget  = "no_decoy_target"
	ReasonLeaderUsed     = "leader_used"
	ReasonLeaderMissing  = "no_leader"
	ReasonDecoyNotInHand = "decoy_not_in_hand"
	ReasonNotADecoy      = "not_a_decoy"
)

// LegalityResult represents the result of a legality check.
type LegalityResult struct {
	Legal   bool
	Reason  string
	Details map[string]string
}

func legal() LegalityResult {
	return LegalityResult{Legal: true, Reason: ReasonLegal}
}

func illegal(reason string, details map[string]string) LegalityResult {
	return LegalityResult{Legal: false, Reason: reason, Details: details}
}

// LegalityChecker validates moves against a board without mutating it.
// Turn-lock checks belong to the TurnManager.
type LegalityChecker struct {
	board *board.Board
}

// NewLegalityChecker creates a checker bound to a board.
func NewLegalityChecker(b *board.Board) *LegalityChecker {
	return &LegalityChecker{board: b}
}

// CheckPlay validates playing a hand card. Weather cards ignore the lane;
// agile cards accept any lane; fixed-row cards must go to their own lane.
// A decoy needs decoyTargetID naming an eligible card on the acting side.
func (lc *LegalityChecker) CheckPlay(side board.Side, cardID string, lane board.Lane, decoyTargetID string) LegalityResult {
	state := lc.board.Side(side)
	if state.Passed {
		return illegal(ReasonAlreadyPassed, map[string]string{"side": side.String()})
	}

	idx := state.HandIndex(cardID)
	if idx < 0 {
		return illegal(ReasonCardNotInHand, map[string]string{"card_id": cardID})
	}
	card := state.Hand[idx]

	if card.Def.Ability == catalog.AbilityDecoy {
		return lc.checkDecoyTarget(side, card, decoyTargetID)
	}
	if card.Def.IsWeather() || card.Def.Agile() {
		return legal()
	}

	want, _ := board.LaneForRow(card.Def.Row)
	if lane != want {
		return illegal(ReasonLaneMismatch, map[string]string{
			"card_id":  cardID,
			"expected": want.String(),
			"got":      lane.String(),
		})
	}
	return legal()
}

// CheckSwap validates a decoy exchange given explicitly.
func (lc *LegalityChecker) CheckSwap(side board.Side, decoyID, targetID string) LegalityResult {
	state := lc.board.Side(side)
	if state.Passed {
		return illegal(ReasonAlreadyPassed, map[string]string{"side": side.String()})
	}
	idx := state.HandIndex(decoyID)
	if idx < 0 {
		return illegal(ReasonDecoyNotInHand, map[string]string{"card_id": decoyID})
	}
	decoy := state.Hand[idx]
	if decoy.Def.Ability != catalog.AbilityDecoy {
		return illegal(ReasonNotADecoy, map[string]string{"card_id": decoyID})
	}
	return lc.checkDecoyTarget(side, decoy, targetID)
}

// CheckLeader validates a leader activation.
func (lc *LegalityChecker) CheckLeader(side board.Side) LegalityResult {
	state := lc.board.Side(side)
	if state.Passed {
		return illegal(ReasonAlreadyPassed, map[string]string{"side": side.String()})
	}
	if state.Leader == nil {
		return illegal(ReasonLeaderMissing, map[string]string{"side": side.String()})
	}
	if state.LeaderUsed {
		return illegal(ReasonLeaderUsed, map[string]string{"leader_id": state.Leader.ID})
	}
	return legal()
}

func (lc *LegalityChecker) checkDecoyTarget(side board.Side, decoy *board.Instance, targetID string) LegalityResult {
	targets := DecoyTargets(lc.board, side)
	if len(targets) == 0 {
		return illegal(ReasonNoDecoyTarget, map[string]string{"card_id": decoy.ID})
	}
	for _, t := range targets {
		if t.ID == targetID {
			return legal()
		}
	}
	return illegal(ReasonDecoyTarget, map[string]string{
		"card_id":   decoy.ID,
		"target_id": targetID,
	})
}

// DecoyTargets lists the cards on side's lanes a decoy may swap with: any
// non-hero, non-decoy card, including spies the other side planted there.
func DecoyTargets(b *board.Board, side board.Side) []*board.Instance {
	var out []*board.Instance
	for _, l := range board.Lanes {
		for _, c := range b.Lane(side, l) {
			if IsDecoyTarget(c) {
				out = append(out, c)
			}
		}
	}
	return out
}

// IsDecoyTarget reports whether a board card may be swapped out by a decoy.
func IsDecoyTarget(c *board.Instance) bool {
	return !c.Hero() && c.Def.Ability != catalog.AbilityDecoy
}

// IsRevivable reports whether a graveyard card may be revived by a medic.
// This is stricter than "any non-hero": weather cards never occupy a lane,
// so they stay buried and the medic looks further back.
func IsRevivable(c *board.Instance) bool {
	return !c.Hero() && !c.Def.IsWeather()
}

// LastRevivable returns the index of the most recently discarded revivable
// card in a graveyard, or -1.
func LastRevivable(graveyard []*board.Instance) int {
	for i := len(graveyard) - 1; i >= 0; i-- {
		if IsRevivable(graveyard[i]) {
			return i
		}
	}
	return -1
}
