package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kingdomofaen/aen-server-go/internal/game/catalog"
)

func TestResolveDeck(t *testing.T) {
	ctx := context.Background()
	store := NewFileStore(filepath.Join(t.TempDir(), "decks.json"), nil)

	ids, source, err := ResolveDeck(ctx, nil, deckKey, nil)
	require.NoError(t, err)
	assert.Equal(t, SourceDefault, source)
	assert.Equal(t, catalog.UnitDeck(), ids)

	ids, source, err = ResolveDeck(ctx, store, deckKey, []string{"daniel_1"})
	require.NoError(t, err)
	assert.Equal(t, SourceRequest, source)
	assert.Equal(t, []string{"daniel_1"}, ids)

	_, source, err = ResolveDeck(ctx, store, deckKey, nil)
	require.NoError(t, err)
	assert.Equal(t, SourceDefault, source)

	saved := catalog.UnitDeck()[:30]
	require.NoError(t, store.SaveDeck(ctx, deckKey, saved))
	ids, source, err = ResolveDeck(ctx, store, deckKey, nil)
	require.NoError(t, err)
	assert.Equal(t, SourceSaved, source)
	assert.Equal(t, saved, ids)

	require.NoError(t, store.SaveDeck(ctx, deckKey, []string{"marcus_1"}))
	_, source, err = ResolveDeck(ctx, store, deckKey, nil)
	require.NoError(t, err)
	assert.Equal(t, SourceDefault, source, "illegal saved deck")
}
