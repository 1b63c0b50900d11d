package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const createDecksTable = `
CREATE TABLE IF NOT EXISTS saved_decks (
	storage_key TEXT PRIMARY KEY,
	card_ids    JSONB NOT NULL,
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
)`

const upsertDeck = `
INSERT INTO saved_decks (storage_key, card_ids, updated_at)
VALUES ($1, $2, now())
ON CONFLICT (storage_key) DO UPDATE
SET card_ids = EXCLUDED.card_ids, updated_at = now()`

// PostgresStore keeps saved decks in the saved_decks table.
type PostgresStore struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewPostgresStore connects to dsn, checks the connection and makes sure the
// saved_decks table exists.
func NewPostgresStore(ctx context.Context, dsn string, logger *zap.Logger) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := pool.Exec(ctx, createDecksTable); err != nil {
		pool.Close()
		return nil, fmt.Errorf("create saved_decks table: %w", err)
	}

	if logger != nil {
		stats := pool.Stat()
		logger.Info("deck store connected",
			zap.Int32("total_conns", stats.TotalConns()),
			zap.Int32("idle_conns", stats.IdleConns()),
		)
	}
	return &PostgresStore{pool: pool, logger: logger}, nil
}

// LoadDeck returns the ids saved under key.
func (s *PostgresStore) LoadDeck(ctx context.Context, key string) ([]string, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx,
		"SELECT card_ids FROM saved_decks WHERE storage_key = $1", key,
	).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrDeckNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("load deck %s: %w", key, err)
	}
	var ids []string
	if err := json.Unmarshal(raw, &ids); err != nil {
		return nil, fmt.Errorf("decode deck %s: %w", key, err)
	}
	return ids, nil
}

// SaveDeck upserts the ids saved under key.
func (s *PostgresStore) SaveDeck(ctx context.Context, key string, ids []string) error {
	if ids == nil {
		ids = []string{}
	}
	raw, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("encode deck: %w", err)
	}
	_, err = s.pool.Exec(ctx, upsertDeck, key, raw)
	if err != nil {
		return fmt.Errorf("save deck %s: %w", key, err)
	}
	if s.logger != nil {
		s.logger.Debug("deck saved", zap.String("key", key), zap.Int("cards", len(ids)))
	}
	return nil
}

// SaveDecks upserts several decks in one transaction.
func (s *PostgresStore) SaveDecks(ctx context.Context, decks map[string][]string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	for key, ids := range decks {
		raw, err := json.Marshal(ids)
		if err != nil {
			return fmt.Errorf("encode deck %s: %w", key, err)
		}
		if _, err := tx.Exec(ctx, upsertDeck, key, raw); err != nil {
			return fmt.Errorf("save deck %s: %w", key, err)
		}
	}
	return tx.Commit(ctx)
}

// Close releases the connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}
