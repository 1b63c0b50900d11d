package board

import "github.com/kingdomofaen/aen-server-go/internal/game/catalog"

// Scores is the output of one score pass.
type Scores struct {
	Sides [2]int
	Lanes [2][3]int
	Cards map[string]int // instance id -> effective power
}

// Total returns the side total.
func (s Scores) Total(side Side) int {
	return s.Sides[side]
}

// Lead returns side's total minus the other side's total.
func (s Scores) Lead(side Side) int {
	return s.Sides[side] - s.Sides[side.Other()]
}

// ComputeScores derives every card's effective power and the lane and side
// totals. It never mutates the board.
func ComputeScores(b *Board) Scores {
	scores := Scores{Cards: make(map[string]int, b.CardsOnBoard())}
	for _, s := range []Side{Player, Opponent} {
		for _, l := range Lanes {
			total := scoreLane(b.Sides[s].Lanes[l], b.Weather.Affects(l), scores.Cards)
			scores.Lanes[s][l] = total
			scores.Sides[s] += total
		}
	}
	return scores
}

// Recompute runs ComputeScores and writes each board card's cached Power.
func Recompute(b *Board) Scores {
	scores := ComputeScores(b)
	for _, side := range b.Sides {
		for _, lane := range side.Lanes {
			for _, c := range lane {
				c.Power = scores.Cards[c.ID]
			}
		}
	}
	return scores
}

func scoreLane(cards []*Instance, weathered bool, out map[string]int) int {
	names := make(map[string]int, len(cards))
	for _, c := range cards {
		names[c.Def.Name]++
	}

	total := 0
	for _, c := range cards {
		p := EffectivePower(c, weathered, names)
		out[c.ID] = p
		total += p
	}
	return total
}

// EffectivePower applies hero immunity, weather and bonds to one card. Weather
// wins over bonds: a weathered non-hero is always exactly 1.
func EffectivePower(c *Instance, weathered bool, names map[string]int) int {
	if c.Hero() {
		return c.BasePower
	}
	if weathered {
		return 1
	}
	p := c.BasePower
	switch c.Def.Ability {
	case catalog.AbilityTightBond:
		if names[c.Def.Name] >= 2 {
			p *= 2
		}
	case catalog.AbilityBondPartner:
		if c.Def.Partner != "" && names[c.Def.Partner] > 0 {
			p *= 2
		}
	}
	return p
}
