package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kingdomofaen/aen-server-go/internal/game"
	"github.com/kingdomofaen/aen-server-go/internal/game/board"
	"github.com/kingdomofaen/aen-server-go/internal/storage"
)

const defaultTick = 100 * time.Millisecond

// Hub connects websocket clients to their matches and drives every match's
// virtual clock from a wall-clock ticker.
type Hub struct {
	manager *game.Manager
	store   storage.DeckStore
	deckKey string
	tick    time.Duration
	logger  *zap.Logger

	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	clients    map[*Client]bool

	// pumps counts running client goroutines; closing stops new ones.
	pumpMu  sync.Mutex
	closing bool
	pumps   sync.WaitGroup
}

// NewHub creates a hub. store may be nil, in which case start_match without a
// deck uses the default deck and save_deck fails.
func NewHub(manager *game.Manager, store storage.DeckStore, deckKey string, tick time.Duration, logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	if tick <= 0 {
		tick = defaultTick
	}
	return &Hub{
		manager:    manager,
		store:      store,
		deckKey:    deckKey,
		tick:       tick,
		logger:     logger,
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		clients:    make(map[*Client]bool),
	}
}

// Run owns the client set until ctx is cancelled. It returns once every
// client goroutine has exited and every match has been removed.
func (h *Hub) Run(ctx context.Context) {
	ticker := time.NewTicker(h.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			h.pumpMu.Lock()
			h.closing = true
			h.pumpMu.Unlock()
			close(h.done)
			for client := range h.clients {
				delete(h.clients, client)
				client.conn.Close()
			}
			h.pumps.Wait()
			for _, id := range h.manager.IDs() {
				h.removeMatch(id)
			}
			return

		case client := <-h.register:
			h.clients[client] = true
			h.logger.Debug("client registered", zap.Int("clients", len(h.clients)))

		case client := <-h.unregister:
			if h.clients[client] {
				h.drop(client)
				h.logger.Debug("client unregistered", zap.Int("clients", len(h.clients)))
			}

		case <-ticker.C:
			h.advance()
		}
	}
}

// startPumps runs the client's goroutines unless the hub is shutting down.
func (h *Hub) startPumps(client *Client, writeTimeout time.Duration) bool {
	h.pumpMu.Lock()
	defer h.pumpMu.Unlock()
	if h.closing {
		return false
	}
	h.pumps.Add(2)
	go func() {
		defer h.pumps.Done()
		client.writePump(writeTimeout)
	}()
	go func() {
		defer h.pumps.Done()
		client.readPump()
	}()
	return true
}

func (h *Hub) drop(client *Client) {
	delete(h.clients, client)
	close(client.send)
	if id := client.setMatchID(""); id != "" {
		h.removeMatch(id)
	}
}

// advance moves every match clock by one tick and pushes state to the
// clients whose match changed.
func (h *Hub) advance() {
	changed := h.manager.AdvanceAll(h.tick)
	if len(changed) == 0 {
		return
	}
	dirty := make(map[string]bool, len(changed))
	for _, id := range changed {
		dirty[id] = true
	}
	for client := range h.clients {
		if id := client.MatchID(); dirty[id] {
			h.pushState(client, id, "")
		}
	}
}

func (h *Hub) handleMessage(client *Client, msg Message) {
	h.logger.Debug("message received",
		zap.String("type", msg.Type),
		zap.String("match_id", client.MatchID()),
	)

	var err error
	switch msg.Type {
	case MsgStartMatch:
		err = h.startMatch(client, msg.Data)
	case MsgSaveDeck:
		err = h.saveDeck(client, msg.Data)
	case MsgGetState:
		err = h.withMatch(client, func(m *game.Match) error {
			h.pushState(client, m.ID(), "")
			return nil
		})
	case MsgPlayCard:
		var req PlayCardRequest
		if err = decodeData(msg.Data, &req); err != nil {
			break
		}
		err = h.withMatch(client, func(m *game.Match) error {
			lane, err := m.ResolveLane(board.Player, req.CardID, req.Lane)
			if err != nil {
				return err
			}
			_, err = m.PlayCard(board.Player, req.CardID, lane, req.DecoyTargetID)
			return err
		})
	case MsgPass:
		err = h.withMatch(client, func(m *game.Match) error {
			_, err := m.PassTurn(board.Player)
			return err
		})
	case MsgActivateLeader:
		err = h.withMatch(client, func(m *game.Match) error {
			_, err := m.ActivateLeader(board.Player)
			return err
		})
	default:
		err = fmt.Errorf("unknown message type %q", msg.Type)
	}

	if err != nil {
		h.replyError(client, client.MatchID(), err)
	}
}

// withMatch runs action against the client's match and pushes the new state
// when it succeeds.
func (h *Hub) withMatch(client *Client, action func(m *game.Match) error) error {
	id := client.MatchID()
	if id == "" {
		return errors.New("no match started")
	}
	m, err := h.manager.Get(id)
	if err != nil {
		return err
	}
	if err := action(m); err != nil {
		return err
	}
	h.pushState(client, id, "")
	return nil
}

func (h *Hub) startMatch(client *Client, data json.RawMessage) error {
	var req StartMatchRequest
	if err := decodeData(data, &req); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	deck, source, err := storage.ResolveDeck(ctx, h.store, h.deckKey, req.Deck)
	if err != nil {
		return fmt.Errorf("load saved deck: %w", err)
	}

	m, err := h.manager.Create(deck, game.WithSeed(req.Seed))
	if err != nil {
		return err
	}
	if prev := client.setMatchID(m.ID()); prev != "" {
		h.removeMatch(prev)
	}

	h.logger.Info("match started",
		zap.String("match_id", m.ID()),
		zap.String("deck_source", string(source)),
		zap.Int("deck_size", len(deck)),
	)
	h.pushState(client, m.ID(), string(source))
	return nil
}

func (h *Hub) saveDeck(client *Client, data json.RawMessage) error {
	if h.store == nil {
		return errors.New("deck storage is not configured")
	}
	var req SaveDeckRequest
	if err := decodeData(data, &req); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := h.store.SaveDeck(ctx, h.deckKey, req.Deck); err != nil {
		return err
	}
	frame, err := encode(MsgDeckSaved, "", map[string]int{"cards": len(req.Deck)})
	if err != nil {
		return err
	}
	client.queue(frame)
	return nil
}

func (h *Hub) removeMatch(id string) {
	if err := h.manager.Remove(id); err != nil && !errors.Is(err, game.ErrMatchNotFound) {
		h.logger.Warn("failed to remove match", zap.String("match_id", id), zap.Error(err))
	}
}

func (h *Hub) pushState(client *Client, matchID, source string) {
	m, err := h.manager.Get(matchID)
	if err != nil {
		return
	}
	frame, err := encode(MsgState, matchID, StatePayload{View: m.View(), Source: source})
	if err != nil {
		h.logger.Error("failed to encode state", zap.String("match_id", matchID), zap.Error(err))
		return
	}
	if !client.queue(frame) {
		h.logger.Warn("client send buffer full; state dropped", zap.String("match_id", matchID))
	}
}

func (h *Hub) replyError(client *Client, matchID string, err error) {
	frame, encErr := encode(MsgError, matchID, errorPayload(err))
	if encErr != nil {
		return
	}
	client.queue(frame)
}

func decodeData(data json.RawMessage, v any) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode message data: %w", err)
	}
	return nil
}
