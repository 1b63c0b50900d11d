package board

import (
	"fmt"

	"github.com/kingdomofaen/aen-server-go/internal/game/catalog"
)

// Side identifies one half of the board.
type Side int

const (
	Player Side = iota
	Opponent
)

// Other returns the opposing side.
func (s Side) Other() Side {
	if s == Player {
		return Opponent
	}
	return Player
}

func (s Side) String() string {
	switch s {
	case Player:
		return "player"
	case Opponent:
		return "opponent"
	default:
		return fmt.Sprintf("SIDE_%d", int(s))
	}
}

// Lane is one of the three rows per side.
type Lane int

const (
	Melee Lane = iota
	Ranged
	Siege
)

// Lanes lists the lanes in board order.
var Lanes = [3]Lane{Melee, Ranged, Siege}

func (l Lane) String() string {
	switch l {
	case Melee:
		return "melee"
	case Ranged:
		return "ranged"
	case Siege:
		return "siege"
	default:
		return fmt.Sprintf("LANE_%d", int(l))
	}
}

// ParseLane converts a lane name into a Lane.
func ParseLane(name string) (Lane, error) {
	switch name {
	case "melee":
		return Melee, nil
	case "ranged":
		return Ranged, nil
	case "siege":
		return Siege, nil
	}
	return 0, fmt.Errorf("unknown lane %q", name)
}

// LaneForRow maps a fixed definition row onto its lane. Agile cards land in
// melee unless a lane is chosen; weather cards have no lane.
func LaneForRow(row catalog.Row) (Lane, bool) {
	switch row {
	case catalog.RowMelee, catalog.RowAgile:
		return Melee, true
	case catalog.RowRanged:
		return Ranged, true
	case catalog.RowSiege:
		return Siege, true
	}
	return 0, false
}

// Weather holds the three global weather flags.
type Weather struct {
	Frost bool
	Fog   bool
	Rain  bool
}

// Affects reports whether the lane is weathered (melee↔frost, ranged↔fog, siege↔rain).
func (w Weather) Affects(lane Lane) bool {
	switch lane {
	case Melee:
		return w.Frost
	case Ranged:
		return w.Fog
	case Siege:
		return w.Rain
	}
	return false
}

// Any reports whether any weather flag is set.
func (w Weather) Any() bool {
	return w.Frost || w.Fog || w.Rain
}

// Clear resets every flag.
func (w *Weather) Clear() {
	*w = Weather{}
}

// Instance is a runtime card.
type Instance struct {
	ID        string
	Def       *catalog.Definition
	BasePower int  // starts at Def.Power; only leader boosts change it
	Power     int  // cached effective power, rewritten by Recompute
	Owner     Side // side the card currently belongs to
	PlayedBy  Side // side that played it; differs from Owner for spies
	Spy       bool // moved across the board by a spy ability
}

// NewInstance creates a fresh runtime card for the given side.
func NewInstance(id string, def *catalog.Definition, owner Side) *Instance {
	return &Instance{
		ID:        id,
		Def:       def,
		BasePower: def.Power,
		Power:     def.Power,
		Owner:     owner,
		PlayedBy:  owner,
	}
}

// Hero reports whether the card is immune to weather and bonds.
func (c *Instance) Hero() bool {
	return c.Def.Hero
}

// SideState is one player's half of the match state.
type SideState struct {
	Lanes      [3][]*Instance
	Hand       []*Instance
	Deck       []*Instance
	Graveyard  []*Instance // ordered by discard time; revival reads from the end
	Passed     bool
	LeaderUsed bool
	Leader     *catalog.Leader
}

// CardsOnBoard counts cards across the three lanes.
func (s *SideState) CardsOnBoard() int {
	n := 0
	for _, lane := range s.Lanes {
		n += len(lane)
	}
	return n
}

// HandIndex returns the index of a hand card or -1.
func (s *SideState) HandIndex(id string) int {
	for i, c := range s.Hand {
		if c.ID == id {
			return i
		}
	}
	return -1
}

// TakeFromHand removes the card at index i from the hand.
func (s *SideState) TakeFromHand(i int) *Instance {
	c := s.Hand[i]
	s.Hand = append(s.Hand[:i:i], s.Hand[i+1:]...)
	return c
}

// Board is the full mutable match board.
type Board struct {
	Sides   [2]*SideState
	Weather Weather
}

// New creates an empty board.
func New() *Board {
	return &Board{Sides: [2]*SideState{{}, {}}}
}

// Side returns the state of one side.
func (b *Board) Side(s Side) *SideState {
	return b.Sides[s]
}

// Lane returns the ordered cards of one lane.
func (b *Board) Lane(s Side, l Lane) []*Instance {
	return b.Sides[s].Lanes[l]
}

// Place appends a card to a lane and sets its owner to that side.
func (b *Board) Place(s Side, l Lane, c *Instance) {
	c.Owner = s
	b.Sides[s].Lanes[l] = append(b.Sides[s].Lanes[l], c)
}

// Locate finds a board card by id.
func (b *Board) Locate(id string) (Side, Lane, int, bool) {
	for _, s := range []Side{Player, Opponent} {
		for _, l := range Lanes {
			for i, c := range b.Sides[s].Lanes[l] {
				if c.ID == id {
					return s, l, i, true
				}
			}
		}
	}
	return 0, 0, -1, false
}

// RemoveFromLane removes a board card by id and returns it.
func (b *Board) RemoveFromLane(id string) (*Instance, bool) {
	s, l, i, ok := b.Locate(id)
	if !ok {
		return nil, false
	}
	lane := b.Sides[s].Lanes[l]
	c := lane[i]
	b.Sides[s].Lanes[l] = append(lane[:i:i], lane[i+1:]...)
	return c, true
}

// CardsOnBoard counts every card in all six lanes.
func (b *Board) CardsOnBoard() int {
	return b.Sides[Player].CardsOnBoard() + b.Sides[Opponent].CardsOnBoard()
}

// Discard appends a card to its owner's graveyard.
func (b *Board) Discard(c *Instance) {
	b.Sides[c.Owner].Graveyard = append(b.Sides[c.Owner].Graveyard, c)
}

// Draw moves up to n cards from the front of the side's deck into its hand,
// giving each a fresh instance id. It returns the number actually drawn.
func (b *Board) Draw(s Side, n int, newID func() string) int {
	side := b.Sides[s]
	drawn := 0
	for ; drawn < n && len(side.Deck) > 0; drawn++ {
		top := side.Deck[0]
		side.Deck = side.Deck[1:]
		side.Hand = append(side.Hand, NewInstance(newID(), top.Def, s))
	}
	return drawn
}

// ClearLanes sends every board card to its owner's graveyard in lane order.
func (b *Board) ClearLanes() int {
	n := 0
	for _, s := range []Side{Player, Opponent} {
		for _, l := range Lanes {
			for _, c := range b.Sides[s].Lanes[l] {
				b.Discard(c)
				n++
			}
			b.Sides[s].Lanes[l] = nil
		}
	}
	return n
}

// Clone deep-copies the board. Definitions are shared since they are immutable.
func (b *Board) Clone() *Board {
	out := &Board{Weather: b.Weather}
	for i, side := range b.Sides {
		cp := &SideState{
			Hand:       cloneCards(side.Hand),
			Deck:       cloneCards(side.Deck),
			Graveyard:  cloneCards(side.Graveyard),
			Passed:     side.Passed,
			LeaderUsed: side.LeaderUsed,
			Leader:     side.Leader,
		}
		for l := range side.Lanes {
			cp.Lanes[l] = cloneCards(side.Lanes[l])
		}
		out.Sides[i] = cp
	}
	return out
}

func cloneCards(cards []*Instance) []*Instance {
	if cards == nil {
		return nil
	}
	out := make([]*Instance, len(cards))
	for i, c := range cards {
		cp := *c
		out[i] = &cp
	}
	return out
}
