package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
)

// FileStore keeps every saved deck in one JSON object keyed by storage key.
type FileStore struct {
	path   string
	logger *zap.Logger
	mu     sync.Mutex
}

// NewFileStore creates a store backed by the file at path. The file is
// created on the first save.
func NewFileStore(path string, logger *zap.Logger) *FileStore {
	return &FileStore{path: path, logger: logger}
}

// LoadDeck returns the ids saved under key.
func (s *FileStore) LoadDeck(_ context.Context, key string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	decks, err := s.read()
	if err != nil {
		return nil, err
	}
	ids, ok := decks[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrDeckNotFound, key)
	}
	return ids, nil
}

// SaveDeck replaces the ids saved under key.
func (s *FileStore) SaveDeck(_ context.Context, key string, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	decks, err := s.read()
	if err != nil {
		return err
	}
	decks[key] = append([]string(nil), ids...)

	data, err := json.MarshalIndent(decks, "", "  ")
	if err != nil {
		return fmt.Errorf("encode decks: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create deck directory: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write decks: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace decks: %w", err)
	}

	if s.logger != nil {
		s.logger.Debug("deck saved",
			zap.String("key", key),
			zap.Int("cards", len(ids)),
			zap.String("path", s.path),
		)
	}
	return nil
}

// Close is a no-op.
func (s *FileStore) Close() {}

func (s *FileStore) read() (map[string][]string, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string][]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read decks: %w", err)
	}
	decks := map[string][]string{}
	if len(data) == 0 {
		return decks, nil
	}
	if err := json.Unmarshal(data, &decks); err != nil {
		return nil, fmt.Errorf("decode decks %s: %w", s.path, err)
	}
	return decks, nil
}
