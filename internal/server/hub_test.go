package server

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/kingdomofaen/aen-server-go/internal/config"
	"github.com/kingdomofaen/aen-server-go/internal/game"
	"github.com/kingdomofaen/aen-server-go/internal/game/catalog"
	"github.com/kingdomofaen/aen-server-go/internal/storage"
)

const testDeckKey = "kingdomOfAen_playerDeck"

type testEnv struct {
	manager *game.Manager
	conn    *websocket.Conn
	stop    func()
}

func newTestEnv(t *testing.T, store storage.DeckStore) *testEnv {
	t.Helper()
	logger := zaptest.NewLogger(t)

	settings := game.DefaultSettings()
	settings.AIThink = 500 * time.Millisecond
	settings.RoundEnd = 50 * time.Millisecond
	manager := game.NewManager(settings, nil, logger)

	hub := NewHub(manager, store, testDeckKey, 50*time.Millisecond, logger)
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		hub.Run(ctx)
	}()

	srv := httptest.NewServer(hub.Handler(config.WebSocketConfig{ReadBufferSize: 4096, WriteTimeout: time.Second}))
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)

	var once sync.Once
	stop := func() {
		once.Do(func() {
			cancel()
			<-stopped
		})
	}
	// Run logs while it removes matches, so it must be done before the
	// test's logger goes away.
	t.Cleanup(func() {
		conn.Close()
		srv.Close()
		stop()
	})
	return &testEnv{manager: manager, conn: conn, stop: stop}
}

func (e *testEnv) send(t *testing.T, msgType string, data any) {
	t.Helper()
	raw, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, e.conn.WriteJSON(Message{Type: msgType, Data: raw}))
}

// next reads frames until one has the wanted type.
func (e *testEnv) next(t *testing.T, msgType string) Message {
	t.Helper()
	require.NoError(t, e.conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	for {
		var msg Message
		require.NoError(t, e.conn.ReadJSON(&msg))
		if msg.Type == msgType {
			return msg
		}
	}
}

func (e *testEnv) nextState(t *testing.T, match func(StatePayload) bool) StatePayload {
	t.Helper()
	for {
		var state StatePayload
		require.NoError(t, json.Unmarshal(e.next(t, MsgState).Data, &state))
		if match(state) {
			return state
		}
	}
}

func anyState(StatePayload) bool { return true }

func TestHubPlaysAMatch(t *testing.T) {
	env := newTestEnv(t, nil)

	env.send(t, MsgStartMatch, StartMatchRequest{Seed: 11})
	state := env.nextState(t, anyState)
	assert.Equal(t, "default", state.Source)
	assert.Equal(t, "HUMAN_TURN", state.Phase)
	require.Len(t, state.Player.Hand, game.DefaultHandSize)
	assert.Empty(t, state.Opponent.Hand)
	assert.Equal(t, 1, env.manager.Count())

	card := state.Player.Hand[0]
	env.send(t, MsgPlayCard, PlayCardRequest{CardID: card.ID})
	state = env.nextState(t, anyState)
	assert.Equal(t, "AI_TURN_LOCKED", state.Phase)
	assert.Len(t, state.Player.Hand, game.DefaultHandSize-1)

	env.send(t, MsgPlayCard, PlayCardRequest{CardID: state.Player.Hand[0].ID})
	var payload ErrorPayload
	require.NoError(t, json.Unmarshal(env.next(t, MsgError).Data, &payload))
	assert.Equal(t, game.ReasonTurnLocked, payload.Reason)

	state = env.nextState(t, func(s StatePayload) bool { return s.Phase == "HUMAN_TURN" })
	assert.Equal(t, 1, state.Round)
}

func TestHubPassEndsRound(t *testing.T) {
	env := newTestEnv(t, nil)
	env.send(t, MsgStartMatch, StartMatchRequest{Seed: 3})
	env.nextState(t, anyState)

	env.send(t, MsgPass, nil)
	state := env.nextState(t, func(s StatePayload) bool { return s.Round == 2 })
	assert.Equal(t, "HUMAN_TURN", state.Phase)
	assert.False(t, state.Player.Passed)
	assert.Equal(t, 1, state.Opponent.Wins)
}

func TestHubErrors(t *testing.T) {
	env := newTestEnv(t, nil)

	env.send(t, MsgGetState, nil)
	var payload ErrorPayload
	require.NoError(t, json.Unmarshal(env.next(t, MsgError).Data, &payload))
	assert.Equal(t, "bad_request", payload.Reason)

	env.send(t, "shuffle", nil)
	require.NoError(t, json.Unmarshal(env.next(t, MsgError).Data, &payload))
	assert.Contains(t, payload.Message, "shuffle")

	env.send(t, MsgStartMatch, StartMatchRequest{Deck: []string{"marcus_1"}})
	require.NoError(t, json.Unmarshal(env.next(t, MsgError).Data, &payload))
	assert.Contains(t, payload.Message, "invalid deck")

	env.send(t, MsgSaveDeck, SaveDeckRequest{Deck: catalog.UnitDeck()})
	require.NoError(t, json.Unmarshal(env.next(t, MsgError).Data, &payload))
	assert.Contains(t, payload.Message, "not configured")
}

func TestHubUsesSavedDeck(t *testing.T) {
	store := storage.NewFileStore(filepath.Join(t.TempDir(), "decks.json"), nil)
	env := newTestEnv(t, store)

	deck := catalog.UnitDeck()[:25]
	env.send(t, MsgSaveDeck, SaveDeckRequest{Deck: deck})
	env.next(t, MsgDeckSaved)

	env.send(t, MsgStartMatch, nil)
	state := env.nextState(t, anyState)
	assert.Equal(t, "saved", state.Source)
	assert.Equal(t, len(deck)-game.DefaultHandSize, state.Player.DeckSize)

	first := state.MatchID
	env.send(t, MsgStartMatch, nil)
	state = env.nextState(t, anyState)
	assert.NotEqual(t, first, state.MatchID)
	_, err := env.manager.Get(first)
	assert.ErrorIs(t, err, game.ErrMatchNotFound, "restarting drops the old match")
}

func TestOriginChecker(t *testing.T) {
	allowAll := originChecker(nil)
	req := httptest.NewRequest("GET", "/ws", nil)
	req.Header.Set("Origin", "http://evil.example")
	assert.True(t, allowAll(req))

	check := originChecker([]string{"http://localhost:5173"})
	assert.False(t, check(req))
	req.Header.Set("Origin", "http://localhost:5173")
	assert.True(t, check(req))
}

func TestHubShutdownRemovesMatches(t *testing.T) {
	env := newTestEnv(t, nil)

	env.send(t, MsgStartMatch, StartMatchRequest{Seed: 5})
	env.nextState(t, anyState)
	require.Equal(t, 1, env.manager.Count())

	env.stop()
	assert.Zero(t, env.manager.Count())
}
