package storage

import (
	"context"
	"errors"

	"github.com/kingdomofaen/aen-server-go/internal/game/catalog"
)

// DeckSource says where a match deck came from.
type DeckSource string

const (
	SourceRequest DeckSource = "request"
	SourceSaved   DeckSource = "saved"
	SourceDefault DeckSource = "default"
)

// ResolveDeck picks the deck for a new match: the requested ids when given,
// else the deck saved under key, else every unit card in the catalog. A
// saved deck that no longer validates falls back to the default. store may
// be nil.
func ResolveDeck(ctx context.Context, store DeckStore, key string, requested []string) ([]string, DeckSource, error) {
	if len(requested) > 0 {
		return requested, SourceRequest, nil
	}
	if store != nil {
		ids, err := store.LoadDeck(ctx, key)
		switch {
		case err == nil && catalog.ValidateDeck(ids) == nil:
			return ids, SourceSaved, nil
		case err != nil && !errors.Is(err, ErrDeckNotFound):
			return nil, "", err
		}
	}
	return catalog.UnitDeck(), SourceDefault, nil
}
