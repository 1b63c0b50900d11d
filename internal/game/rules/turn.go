package rules

import (
	"fmt"

	"github.com/kingdomofaen/aen-server-go/internal/game/board"
)

// TurnPhase is the state of the turn/round machine.
type TurnPhase int

const (
	PhaseHumanTurn TurnPhase = iota
	PhaseAITurnLocked
	PhaseRoundOver
	PhaseMatchOver
)

var phaseNames = map[TurnPhase]string{
	PhaseHumanTurn:    "HUMAN_TURN",
	PhaseAITurnLocked: "AI_TURN_LOCKED",
	PhaseRoundOver:    "ROUND_OVER",
	PhaseMatchOver:    "MATCH_OVER",
}

func (p TurnPhase) String() string {
	if name, ok := phaseNames[p]; ok {
		return name
	}
	return fmt.Sprintf("PHASE_%d", int(p))
}

// WinsToTakeMatch is the number of round wins that ends the match.
const WinsToTakeMatch = 2

// RoundResult is the outcome of one round.
type RoundResult struct {
	Round  int
	Totals [2]int
	Tie    bool
	Winner board.Side // meaningless when Tie
}

// DecideRound compares the final side totals of a round.
func DecideRound(round, playerTotal, opponentTotal int) RoundResult {
	res := RoundResult{Round: round, Totals: [2]int{playerTotal, opponentTotal}}
	switch {
	case playerTotal > opponentTotal:
		res.Winner = board.Player
	case opponentTotal > playerTotal:
		res.Winner = board.Opponent
	default:
		res.Tie = true
	}
	return res
}

// MatchOutcome summarises a finished (or unfinished) match.
type MatchOutcome int

const (
	OutcomeUndecided MatchOutcome = iota
	OutcomePlayerWon
	OutcomeOpponentWon
	OutcomeDraw
)

var outcomeNames = map[MatchOutcome]string{
	OutcomeUndecided:   "UNDECIDED",
	OutcomePlayerWon:   "PLAYER_WON",
	OutcomeOpponentWon: "OPPONENT_WON",
	OutcomeDraw:        "DRAW",
}

func (o MatchOutcome) String() string {
	if name, ok := outcomeNames[o]; ok {
		return name
	}
	return fmt.Sprintf("OUTCOME_%d", int(o))
}

// TurnManager tracks the turn lock, round number and round wins. It is not
// safe for concurrent use; the owning match serialises access.
type TurnManager struct {
	phase   TurnPhase
	round   int
	wins    [2]int
	history []RoundResult
}

// NewTurnManager creates a turn manager at round 1 with the human to act.
func NewTurnManager() *TurnManager {
	return &TurnManager{phase: PhaseHumanTurn, round: 1}
}

// Phase returns the current phase.
func (tm *TurnManager) Phase() TurnPhase {
	return tm.phase
}

// Locked reports whether human board mutations must be rejected.
func (tm *TurnManager) Locked() bool {
	return tm.phase != PhaseHumanTurn
}

// Lock enters the AI turn. It returns false if the match is already past
// the point where the AI can act.
func (tm *TurnManager) Lock() bool {
	if tm.phase == PhaseRoundOver || tm.phase == PhaseMatchOver {
		return false
	}
	tm.phase = PhaseAITurnLocked
	return true
}

// Unlock hands the turn back to the human.
func (tm *TurnManager) Unlock() bool {
	if tm.phase != PhaseAITurnLocked {
		return false
	}
	tm.phase = PhaseHumanTurn
	return true
}

// EndRound moves to RoundOver. Further actions are rejected until
// RecordRound resolves the round.
func (tm *TurnManager) EndRound() {
	if tm.phase != PhaseMatchOver {
		tm.phase = PhaseRoundOver
	}
}

// RecordRound applies a round result. A tie gives both sides a win. It
// returns true when the match is over; otherwise the next round begins with
// the human to act.
func (tm *TurnManager) RecordRound(res RoundResult) bool {
	if res.Tie {
		tm.wins[board.Player]++
		tm.wins[board.Opponent]++
	} else {
		tm.wins[res.Winner]++
	}
	tm.history = append(tm.history, res)

	if tm.MatchResult() != OutcomeUndecided {
		tm.phase = PhaseMatchOver
		return true
	}
	tm.round++
	tm.phase = PhaseHumanTurn
	return false
}

// Round returns the 1-based round number.
func (tm *TurnManager) Round() int {
	return tm.round
}

// Wins returns a side's round wins.
func (tm *TurnManager) Wins(side board.Side) int {
	return tm.wins[side]
}

// History returns the recorded round results.
func (tm *TurnManager) History() []RoundResult {
	out := make([]RoundResult, len(tm.history))
	copy(out, tm.history)
	return out
}

// MatchResult reports the outcome given the current win counts.
func (tm *TurnManager) MatchResult() MatchOutcome {
	p := tm.wins[board.Player] >= WinsToTakeMatch
	o := tm.wins[board.Opponent] >= WinsToTakeMatch
	switch {
	case p && o:
		return OutcomeDraw
	case p:
		return OutcomePlayerWon
	case o:
		return OutcomeOpponentWon
	}
	return OutcomeUndecided
}

// Restore sets the manager's state, used when rebuilding a match view.
func (tm *TurnManager) Restore(phase TurnPhase, round int, wins [2]int) {
	tm.phase = phase
	tm.round = round
	tm.wins = wins
}
