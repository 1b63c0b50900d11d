package server

import (
	"encoding/json"
	"errors"

	"github.com/kingdomofaen/aen-server-go/internal/game"
)

// Client to server message types.
const (
	MsgStartMatch     = "start_match"
	MsgPlayCard       = "play_card"
	MsgPass           = "pass"
	MsgActivateLeader = "activate_leader"
	MsgGetState       = "get_state"
	MsgSaveDeck       = "save_deck"
)

// Server to client message types.
const (
	MsgState     = "state"
	MsgError     = "error"
	MsgDeckSaved = "deck_saved"
)

// Message is the envelope of every frame in both directions.
type Message struct {
	Type    string          `json:"type"`
	MatchID string          `json:"match_id,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// StartMatchRequest is the data of a start_match message. An empty deck uses
// the saved deck.
type StartMatchRequest struct {
	Deck []string `json:"deck,omitempty"`
	Seed int64    `json:"seed,omitempty"`
}

// PlayCardRequest is the data of a play_card message.
type PlayCardRequest struct {
	CardID        string `json:"card_id"`
	Lane          string `json:"lane,omitempty"`
	DecoyTargetID string `json:"decoy_target_id,omitempty"`
}

// SaveDeckRequest is the data of a save_deck message.
type SaveDeckRequest struct {
	Deck []string `json:"deck"`
}

// StatePayload is the data of a state message.
type StatePayload struct {
	game.View
	Source string `json:"deck_source,omitempty"`
}

// ErrorPayload is the data of an error message.
type ErrorPayload struct {
	Reason  string            `json:"reason"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

func errorPayload(err error) ErrorPayload {
	var invalid *game.InvalidMoveError
	if errors.As(err, &invalid) {
		return ErrorPayload{Reason: invalid.Reason, Message: err.Error(), Details: invalid.Details}
	}
	if errors.Is(err, game.ErrMatchNotFound) {
		return ErrorPayload{Reason: "match_not_found", Message: err.Error()}
	}
	return ErrorPayload{Reason: "bad_request", Message: err.Error()}
}

func encode(msgType, matchID string, data any) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Message{Type: msgType, MatchID: matchID, Data: raw})
}
