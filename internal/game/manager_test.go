package game

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/kingdomofaen/aen-server-go/internal/game/board"
	"github.com/kingdomofaen/aen-server-go/internal/game/catalog"
)

func TestManagerLifecycle(t *testing.T) {
	mgr := NewManager(testSettings(), nil, zaptest.NewLogger(t))

	a, err := mgr.Create(catalog.UnitDeck())
	require.NoError(t, err)
	b, err := mgr.Create(catalog.UnitDeck())
	require.NoError(t, err)
	assert.NotEqual(t, a.ID(), b.ID())
	assert.Equal(t, 2, mgr.Count())

	got, err := mgr.Get(a.ID())
	require.NoError(t, err)
	assert.Same(t, a, got)

	require.NoError(t, mgr.Remove(a.ID()))
	_, err = mgr.Get(a.ID())
	assert.True(t, errors.Is(err, ErrMatchNotFound))
	assert.True(t, errors.Is(mgr.Remove(a.ID()), ErrMatchNotFound))
	assert.Equal(t, []string{b.ID()}, mgr.IDs())
}

func TestManagerRejectsDuplicateIDs(t *testing.T) {
	mgr := NewManager(testSettings(), nil, zaptest.NewLogger(t))
	_, err := mgr.Create(catalog.UnitDeck(), WithMatchID("fixed"))
	require.NoError(t, err)
	_, err = mgr.Create(catalog.UnitDeck(), WithMatchID("fixed"))
	assert.Error(t, err)
}

func TestManagerCreateValidatesDeck(t *testing.T) {
	mgr := NewManager(testSettings(), nil, zaptest.NewLogger(t))
	_, err := mgr.Create([]string{"geada_1"})
	assert.Error(t, err)
	assert.Zero(t, mgr.Count())
}

func TestManagerAdvanceAll(t *testing.T) {
	mgr := NewManager(testSettings(), nil, zaptest.NewLogger(t))
	idle, err := mgr.Create(catalog.UnitDeck())
	require.NoError(t, err)
	busy, err := mgr.Create(catalog.UnitDeck())
	require.NoError(t, err)

	_, err = busy.PassTurn(board.Player)
	require.NoError(t, err)

	assert.Empty(t, mgr.AdvanceAll(time.Second))
	assert.Equal(t, []string{busy.ID()}, mgr.AdvanceAll(time.Second))
	assert.Equal(t, 0, idle.Pending())
	assert.Zero(t, idle.Snapshot().Clock, "idle matches are skipped")
	assert.Equal(t, 2*time.Second, busy.Snapshot().Clock)
}

func TestManagerRemoveSavesReplay(t *testing.T) {
	dir := t.TempDir()
	recorder := NewReplayRecorder(zaptest.NewLogger(t), dir)
	mgr := NewManager(testSettings(), recorder, zaptest.NewLogger(t))

	m, err := mgr.Create(catalog.UnitDeck())
	require.NoError(t, err)
	require.NoError(t, mgr.Remove(m.ID()))

	loaded, err := ReadReplay(ReplayPath(dir, m.ID()))
	require.NoError(t, err)
	assert.Equal(t, 1, loaded.Len())
}
