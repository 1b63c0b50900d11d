package ai

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/kingdomofaen/aen-server-go/internal/game/board"
	"github.com/kingdomofaen/aen-server-go/internal/game/catalog"
	"github.com/kingdomofaen/aen-server-go/internal/game/rules"
)

// ActionKind is what the AI chose to do this turn.
type ActionKind int

const (
	ActionPass ActionKind = iota
	ActionPlay
	ActionActivateLeader
)

func (k ActionKind) String() string {
	switch k {
	case ActionPass:
		return "pass"
	case ActionPlay:
		return "play"
	case ActionActivateLeader:
		return "activate_leader"
	default:
		return fmt.Sprintf("ACTION_%d", int(k))
	}
}

// Heuristic thresholds.
const (
	EarlyGameBoardCards = 6
	CoastingLead        = 15
	StrongCardPower     = 6
	StrongGravePower    = 5
	WeatherPenalty      = 3
)

// Evaluation is the priority given to one hand card.
type Evaluation struct {
	CardID        string
	Name          string
	Priority      int
	Lane          board.Lane
	DecoyTargetID string
	Note          string
}

// Decision is the AI's chosen action plus the reasoning behind it.
type Decision struct {
	Action        ActionKind
	CardID        string
	HandIndex     int
	Lane          board.Lane
	DecoyTargetID string
	Priority      int
	Reason        string
	Evaluations   []Evaluation
}

// Decider picks an action for one side. It holds no state between calls,
// so equal boards always produce equal decisions.
type Decider struct {
	logger *zap.Logger
}

// NewDecider creates a decider. logger may be nil.
func NewDecider(logger *zap.Logger) *Decider {
	return &Decider{logger: logger}
}

// view bundles what every heuristic reads.
type view struct {
	b       *board.Board
	self    board.Side
	me      *board.SideState
	them    *board.SideState
	scores  board.Scores
	lead    int
	onBoard int
}

func newView(b *board.Board, self board.Side) view {
	scores := board.ComputeScores(b)
	return view{
		b:       b,
		self:    self,
		me:      b.Side(self),
		them:    b.Side(self.Other()),
		scores:  scores,
		lead:    scores.Lead(self),
		onBoard: b.CardsOnBoard(),
	}
}

// Decide chooses the next action for self.
func (d *Decider) Decide(b *board.Board, self board.Side) Decision {
	v := newView(b, self)

	if dec, ok := v.preCheck(); ok {
		d.log(dec)
		return dec
	}

	dec := Decision{Action: ActionPlay, HandIndex: -1, Priority: -1}
	for i, c := range v.me.Hand {
		ev := v.evaluate(c)
		dec.Evaluations = append(dec.Evaluations, ev)
		if ev.Priority > dec.Priority {
			dec.Priority = ev.Priority
			dec.HandIndex = i
			dec.CardID = c.ID
			dec.Lane = ev.Lane
			dec.DecoyTargetID = ev.DecoyTargetID
			dec.Reason = ev.Note
		}
	}

	if dec.HandIndex < 0 || dec.Priority <= 0 {
		dec = v.fallback(dec.Evaluations)
	}
	d.log(dec)
	return dec
}

func (v view) preCheck() (Decision, bool) {
	if ShouldActivateLeader(v.b, v.self) {
		return Decision{Action: ActionActivateLeader, HandIndex: -1, Reason: "leader"}, true
	}
	if len(v.me.Hand) == 0 {
		return Decision{Action: ActionPass, HandIndex: -1, Reason: "empty hand"}, true
	}
	if v.them.Passed && v.lead > 0 {
		return Decision{Action: ActionPass, HandIndex: -1, Reason: "opponent passed and we lead"}, true
	}
	if v.lead >= CoastingLead && len(v.me.Hand) < len(v.them.Hand) {
		return Decision{Action: ActionPass, HandIndex: -1, Reason: "comfortable lead, saving cards"}, true
	}
	return Decision{}, false
}

// fallback plays the lowest-power non-decoy card, or passes when ahead or
// when only decoys are left.
func (v view) fallback(evals []Evaluation) Decision {
	if v.lead > 0 {
		return Decision{Action: ActionPass, HandIndex: -1, Reason: "no useful play while ahead", Evaluations: evals}
	}

	best := -1
	for i, c := range v.me.Hand {
		if c.Def.Ability == catalog.AbilityDecoy {
			continue
		}
		if best < 0 || c.BasePower < v.me.Hand[best].BasePower {
			best = i
		}
	}
	if best < 0 {
		return Decision{Action: ActionPass, HandIndex: -1, Reason: "only decoys without targets", Evaluations: evals}
	}

	c := v.me.Hand[best]
	return Decision{
		Action:      ActionPlay,
		CardID:      c.ID,
		HandIndex:   best,
		Lane:        v.targetLane(c),
		Priority:    0,
		Reason:      "fallback: lowest power card",
		Evaluations: evals,
	}
}

func (d *Decider) log(dec Decision) {
	if d.logger == nil {
		return
	}
	d.logger.Debug("ai decision",
		zap.Stringer("action", dec.Action),
		zap.String("card_id", dec.CardID),
		zap.Int("priority", dec.Priority),
		zap.String("reason", dec.Reason),
		zap.Int("evaluated", len(dec.Evaluations)),
	)
}

// ShouldActivateLeader reports whether self's unused leader is worth firing
// on this board.
func ShouldActivateLeader(b *board.Board, self board.Side) bool {
	me := b.Side(self)
	if me.Leader == nil || me.LeaderUsed || me.Passed {
		return false
	}

	switch me.Leader.Ability {
	case catalog.LeaderClearWeather:
		if !b.Weather.Any() {
			return false
		}
		scores := board.ComputeScores(b)
		weakened := 0
		for _, lane := range me.Lanes {
			for _, c := range lane {
				if !c.Hero() && scores.Cards[c.ID] < c.BasePower {
					weakened++
				}
			}
		}
		return weakened >= 2
	case catalog.LeaderScorchSiege:
		scores := board.ComputeScores(b)
		for _, c := range b.Lane(self.Other(), board.Siege) {
			if !c.Hero() && scores.Cards[c.ID] >= StrongCardPower {
				return true
			}
		}
		return false
	case catalog.LeaderDrawCard:
		return len(me.Hand) <= 3
	case catalog.LeaderBoostMelee:
		return len(b.Lane(self, board.Melee)) >= 3
	}
	return false
}

// AgileLane picks the first unweathered lane, melee when all are weathered.
func AgileLane(w board.Weather) board.Lane {
	for _, l := range board.Lanes {
		if !w.Affects(l) {
			return l
		}
	}
	return board.Melee
}

func (v view) targetLane(c *board.Instance) board.Lane {
	if c.Def.Agile() {
		return AgileLane(v.b.Weather)
	}
	lane, _ := board.LaneForRow(c.Def.Row)
	return lane
}

// strongest returns the highest effective power among side's non-hero
// cards, or -1.
func (v view) strongest(side board.Side) int {
	best := -1
	for _, lane := range v.b.Side(side).Lanes {
		for _, c := range lane {
			if c.Hero() {
				continue
			}
			if p := v.scores.Cards[c.ID]; p > best {
				best = p
			}
		}
	}
	return best
}

func (v view) evaluate(c *board.Instance) Evaluation {
	ev := Evaluation{CardID: c.ID, Name: c.Def.Name, Lane: v.targetLane(c)}

	switch c.Def.Ability {
	case catalog.AbilitySpy, catalog.AbilitySpyMedic:
		ev.Priority, ev.Note = v.spyPriority()
	case catalog.AbilityMedic:
		ev.Priority, ev.Note = v.medicPriority()
	case catalog.AbilityBondPartner:
		ev.Priority, ev.Note = v.partnerPriority(c)
	case catalog.AbilityDecoy:
		ev.Priority, ev.DecoyTargetID, ev.Note = v.decoyPriority()
	case catalog.AbilityScorch:
		ev.Priority, ev.Note = v.scorchPriority()
	default:
		switch {
		case c.Def.IsWeather():
			ev.Priority, ev.Note = 10, "weather"
		case c.Hero():
			if v.b.Weather.Any() {
				ev.Priority, ev.Note = c.BasePower+20, "hero under weather"
			} else {
				ev.Priority, ev.Note = c.BasePower+10, "hero"
			}
		default:
			ev.Priority, ev.Note = c.BasePower, "unit"
			if v.b.Weather.Affects(ev.Lane) {
				ev.Priority = max(1, ev.Priority-WeatherPenalty)
				ev.Note = "unit in weather"
			}
		}
	}
	return ev
}

func (v view) spyPriority() (int, string) {
	switch {
	case v.onBoard < EarlyGameBoardCards:
		return 100, "spy early game"
	case v.lead < 0:
		return 90, "spy while losing"
	case len(v.me.Hand) < len(v.them.Hand):
		return 80, "spy to catch up on cards"
	}
	return 30, "spy"
}

func (v view) medicPriority() (int, string) {
	best := -1
	for _, c := range v.me.Graveyard {
		if rules.IsRevivable(c) && c.BasePower > best {
			best = c.BasePower
		}
	}
	switch {
	case best < 0:
		return 0, "medic without targets"
	case best < StrongGravePower:
		return 20 + best, "medic revives weak card"
	}
	return 70 + best, "medic revives strong card"
}

func (v view) partnerPriority(c *board.Instance) (int, string) {
	partner := c.Def.Partner
	for _, lane := range v.me.Lanes {
		for _, other := range lane {
			if other.Def.Name == partner {
				return 150, "partner on board"
			}
		}
	}
	for _, other := range v.me.Hand {
		if other.Def.Name == partner {
			return c.BasePower + 15, "partner in hand"
		}
	}
	return c.BasePower, "partner missing"
}

// decoyPriority ranks the decoy by its best target. Among equal base powers
// the later card wins.
func (v view) decoyPriority() (int, string, string) {
	targets := rules.DecoyTargets(v.b, v.self)
	if len(targets) == 0 {
		return 0, "", "decoy without targets"
	}

	if t := strongestBy(targets, func(c *board.Instance) bool { return c.Spy && c.PlayedBy != v.self }); t != nil {
		return 85, t.ID, "decoy recovers spy"
	}
	if t := strongestBy(targets, func(c *board.Instance) bool {
		return !c.Spy && c.BasePower >= StrongCardPower && v.scores.Cards[c.ID] < c.BasePower
	}); t != nil {
		return 45 + t.BasePower, t.ID, "decoy saves weakened card"
	}
	for _, t := range targets {
		if t.Spy {
			continue
		}
		switch t.Def.Ability {
		case catalog.AbilityMedic, catalog.AbilitySpy, catalog.AbilitySpyMedic:
			return 40, t.ID, "decoy recycles ability"
		}
	}
	if t := strongestBy(targets, func(c *board.Instance) bool { return !c.Spy && c.BasePower >= StrongCardPower }); t != nil {
		return 25, t.ID, "decoy saves strong card"
	}
	return 0, "", "decoy has no worthwhile target"
}

func strongestBy(cards []*board.Instance, keep func(*board.Instance) bool) *board.Instance {
	var best *board.Instance
	for _, c := range cards {
		if !keep(c) {
			continue
		}
		if best == nil || c.BasePower >= best.BasePower {
			best = c
		}
	}
	return best
}

func (v view) scorchPriority() (int, string) {
	theirs := v.strongest(v.self.Other())
	mine := v.strongest(v.self)
	switch {
	case theirs > 0 && theirs > mine:
		return 60 + theirs, "scorch their strongest"
	case theirs > 0 && theirs == mine:
		return 5, "scorch would trade evenly"
	}
	return 0, "scorch would hit own cards"
}
