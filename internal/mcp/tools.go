// Package mcp exposes the duel to agents as MCP tools. The agent plays the
// human side against the built-in AI.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/kingdomofaen/aen-server-go/internal/game"
	"github.com/kingdomofaen/aen-server-go/internal/game/board"
	"github.com/kingdomofaen/aen-server-go/internal/game/rules"
	"github.com/kingdomofaen/aen-server-go/internal/storage"
)

// Session holds the single match an MCP stdio process plays.
type Session struct {
	manager *game.Manager
	store   storage.DeckStore
	deckKey string
	logger  *zap.Logger

	mu      sync.Mutex
	match   *game.Match
	handle  int
	events  []EventView
	eventMu sync.Mutex
}

// NewSession creates a session. store may be nil.
func NewSession(manager *game.Manager, store storage.DeckStore, deckKey string, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Session{manager: manager, store: store, deckKey: deckKey, logger: logger}
}

// ToolResponse is the JSON body of every successful tool call.
type ToolResponse struct {
	State      game.View   `json:"state"`
	Events     []EventView `json:"events"`
	DeckSource string      `json:"deck_source,omitempty"`
	Rejected   string      `json:"rejected,omitempty"`
}

// EventView is an event the agent saw since its previous call.
type EventView struct {
	Type   string `json:"type"`
	Side   string `json:"side,omitempty"`
	CardID string `json:"card_id,omitempty"`
	Lane   string `json:"lane,omitempty"`
	Amount int    `json:"amount,omitempty"`
	Data   string `json:"data,omitempty"`
}

// RegisterTools adds the duel tools to s.
func (sess *Session) RegisterTools(s *server.MCPServer) {
	s.AddTool(startMatchTool(), sess.handleStartMatch)
	s.AddTool(playCardTool(), sess.handlePlayCard)
	s.AddTool(passRoundTool(), sess.handlePassRound)
	s.AddTool(activateLeaderTool(), sess.handleActivateLeader)
	s.AddTool(getStateTool(), sess.handleGetState)
	s.AddTool(saveDeckTool(), sess.handleSaveDeck)
}

func startMatchTool() mcp.Tool {
	return mcp.NewTool("start_match",
		mcp.WithDescription("Start a new duel against the AI. Without a deck the saved deck is used, "+
			"or every unit card when none is saved. Replaces any running match."),
		mcp.WithString("deck", mcp.Description("Comma-separated card ids (at least 22 units, at most 10 specials)")),
		mcp.WithNumber("seed", mcp.Description("Shuffle seed; 0 picks one")),
	)
}

func playCardTool() mcp.Tool {
	return mcp.NewTool("play_card",
		mcp.WithDescription("Play a card from your hand. The AI replies before the call returns."),
		mcp.WithString("card_id", mcp.Required(), mcp.Description("Instance id of the hand card (the 'id' field in the hand)")),
		mcp.WithString("lane", mcp.Description("melee, ranged or siege; required for agile cards, ignored for weather")),
		mcp.WithString("decoy_target_id", mcp.Description("Instance id of your board card a decoy swaps with")),
	)
}

func passRoundTool() mcp.Tool {
	return mcp.NewTool("pass_round",
		mcp.WithDescription("Pass for the rest of the round. The AI keeps playing until it passes, then the round ends."),
	)
}

func activateLeaderTool() mcp.Tool {
	return mcp.NewTool("activate_leader",
		mcp.WithDescription("Use your leader's once-per-match power. Counts as your action."),
	)
}

func getStateTool() mcp.Tool {
	return mcp.NewTool("get_state",
		mcp.WithDescription("Get the current duel state and the events since the previous call. Read-only."),
	)
}

func saveDeckTool() mcp.Tool {
	return mcp.NewTool("save_deck",
		mcp.WithDescription("Save a deck for future matches."),
		mcp.WithString("deck", mcp.Required(), mcp.Description("Comma-separated card ids")),
	)
}

func (sess *Session) handleStartMatch(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	requested := splitIDs(request.GetString("deck", ""))
	deck, source, err := storage.ResolveDeck(ctx, sess.store, sess.deckKey, requested)
	if err != nil {
		return mcp.NewToolResultErrorf("Failed to load saved deck: %v", err), nil
	}

	m, err := sess.manager.Create(deck, game.WithSeed(int64(request.GetInt("seed", 0))))
	if err != nil {
		return mcp.NewToolResultErrorf("Failed to start match: %v", err), nil
	}

	sess.mu.Lock()
	if sess.match != nil {
		sess.match.Unsubscribe(sess.handle)
		if err := sess.manager.Remove(sess.match.ID()); err != nil {
			sess.logger.Warn("failed to remove previous match", zap.Error(err))
		}
	}
	sess.drainEvents()
	sess.match = m
	sess.handle = m.Subscribe(sess.collect)
	sess.mu.Unlock()

	sess.logger.Info("mcp match started",
		zap.String("match_id", m.ID()),
		zap.String("deck_source", string(source)),
	)
	return sess.respond(m, string(source), "")
}

func (sess *Session) handlePlayCard(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cardID, err := request.RequireString("card_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return sess.act(func(m *game.Match) error {
		lane, err := m.ResolveLane(board.Player, cardID, request.GetString("lane", ""))
		if err != nil {
			return err
		}
		_, err = m.PlayCard(board.Player, cardID, lane, request.GetString("decoy_target_id", ""))
		return err
	})
}

func (sess *Session) handlePassRound(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return sess.act(func(m *game.Match) error {
		_, err := m.PassTurn(board.Player)
		return err
	})
}

func (sess *Session) handleActivateLeader(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return sess.act(func(m *game.Match) error {
		_, err := m.ActivateLeader(board.Player)
		return err
	})
}

func (sess *Session) handleGetState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	m := sess.current()
	if m == nil {
		return mcp.NewToolResultError("No match is running. Use start_match first."), nil
	}
	return sess.respond(m, "", "")
}

func (sess *Session) handleSaveDeck(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if sess.store == nil {
		return mcp.NewToolResultError("Deck storage is not configured."), nil
	}
	deck := splitIDs(request.GetString("deck", ""))
	if err := sess.store.SaveDeck(ctx, sess.deckKey, deck); err != nil {
		return mcp.NewToolResultErrorf("Failed to save deck: %v", err), nil
	}
	return mcp.NewToolResultText(respondJSON(map[string]int{"saved_cards": len(deck)})), nil
}

// act runs a human action and settles everything it set in motion, the AI
// reply included. A rejected move is reported in the response, not as a
// tool error, so the agent still sees the state.
func (sess *Session) act(action func(m *game.Match) error) (*mcp.CallToolResult, error) {
	m := sess.current()
	if m == nil {
		return mcp.NewToolResultError("No match is running. Use start_match first."), nil
	}

	rejected := ""
	if err := action(m); err != nil {
		var invalid *game.InvalidMoveError
		if !errors.As(err, &invalid) {
			return mcp.NewToolResultErrorf("Action failed: %v", err), nil
		}
		rejected = invalid.Error()
	}
	m.Settle()
	return sess.respond(m, "", rejected)
}

func (sess *Session) current() *game.Match {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.match
}

// collect runs inside the match lock and must not call back into the match.
func (sess *Session) collect(ev rules.Event) {
	sess.eventMu.Lock()
	defer sess.eventMu.Unlock()
	sess.events = append(sess.events, EventView{
		Type:   string(ev.Type),
		Side:   ev.Side,
		CardID: ev.CardID,
		Lane:   ev.Lane,
		Amount: ev.Amount,
		Data:   ev.Data,
	})
}

func (sess *Session) drainEvents() []EventView {
	sess.eventMu.Lock()
	defer sess.eventMu.Unlock()
	events := sess.events
	sess.events = nil
	if events == nil {
		events = []EventView{}
	}
	return events
}

func (sess *Session) respond(m *game.Match, source, rejected string) (*mcp.CallToolResult, error) {
	resp := ToolResponse{
		State:      m.View(),
		Events:     sess.drainEvents(),
		DeckSource: source,
		Rejected:   rejected,
	}
	return mcp.NewToolResultText(respondJSON(resp)), nil
}

func respondJSON(v any) string {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return `{"error":"failed to encode response"}`
	}
	return string(data)
}

func splitIDs(s string) []string {
	var ids []string
	for _, part := range strings.Split(s, ",") {
		if id := strings.TrimSpace(part); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}
