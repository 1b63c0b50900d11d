// Package storage persists the player's saved deck list.
package storage

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/kingdomofaen/aen-server-go/internal/config"
)

// ErrDeckNotFound is returned when no deck is saved under a key.
var ErrDeckNotFound = errors.New("saved deck not found")

// DeckStore loads and saves deck lists as ordered card ids.
type DeckStore interface {
	LoadDeck(ctx context.Context, key string) ([]string, error)
	SaveDeck(ctx context.Context, key string, ids []string) error
	Close()
}

// Open returns the store selected by cfg.Driver.
func Open(ctx context.Context, cfg config.StorageConfig, logger *zap.Logger) (DeckStore, error) {
	switch cfg.Driver {
	case "file", "":
		return NewFileStore(cfg.Path, logger), nil
	case "postgres":
		return NewPostgresStore(ctx, cfg.DSN, logger)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
