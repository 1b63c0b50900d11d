package game

import (
	"errors"
	"fmt"

	"github.com/kingdomofaen/aen-server-go/internal/game/rules"
)

// Reasons that only the match layer can produce.
const (
	ReasonTurnLocked = "turn_locked"
	ReasonMatchOver  = "match_over"
	ReasonWrongSide  = "wrong_side"
)

// Sentinel errors matched with errors.Is against an *InvalidMoveError.
var (
	ErrTurnLocked        = errors.New("turn locked")
	ErrAlreadyPassed     = errors.New("already passed")
	ErrCardNotInHand     = errors.New("card not in hand")
	ErrLaneMismatch      = errors.New("lane mismatch")
	ErrDecoyTarget       = errors.New("invalid decoy target")
	ErrMatchOver         = errors.New("match over")
	ErrLeaderUnavailable = errors.New("leader unavailable")
	ErrWrongSide         = errors.New("side is not controlled by the caller")
	ErrMatchNotFound     = errors.New("match not found")
)

var reasonErrors = map[string]error{
	ReasonTurnLocked:           ErrTurnLocked,
	ReasonMatchOver:            ErrMatchOver,
	ReasonWrongSide:            ErrWrongSide,
	rules.ReasonAlreadyPassed:  ErrAlreadyPassed,
	rules.ReasonCardNotInHand:  ErrCardNotInHand,
	rules.ReasonLaneMismatch:   ErrLaneMismatch,
	rules.ReasonDecoyTarget:    ErrDecoyTarget,
	rules.ReasonNoDecoyTarget:  ErrDecoyTarget,
	rules.ReasonLeaderUsed:     ErrLeaderUnavailable,
	rules.ReasonLeaderMissing:  ErrLeaderUnavailable,
	rules.ReasonDecoyNotInHand: ErrCardNotInHand,
	rules.ReasonNotADecoy:      ErrDecoyTarget,
}

// InvalidMoveError is returned for a rejected move. The board is untouched
// when it is returned.
type InvalidMoveError struct {
	Reason  string
	Details map[string]string
}

func (e *InvalidMoveError) Error() string {
	if len(e.Details) == 0 {
		return fmt.Sprintf("invalid move: %s", e.Reason)
	}
	return fmt.Sprintf("invalid move: %s %v", e.Reason, e.Details)
}

// Is lets errors.Is match the sentinel for the reason.
func (e *InvalidMoveError) Is(target error) bool {
	sentinel, ok := reasonErrors[e.Reason]
	return ok && sentinel == target
}

func invalidMove(reason string, details map[string]string) error {
	return &InvalidMoveError{Reason: reason, Details: details}
}

func fromLegality(res rules.LegalityResult) error {
	if res.Legal {
		return nil
	}
	return invalidMove(res.Reason, res.Details)
}
