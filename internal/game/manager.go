package game

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Manager owns the live matches of a process.
type Manager struct {
	logger   *zap.Logger
	settings Settings
	recorder *ReplayRecorder

	mu      sync.RWMutex
	matches map[string]*Match
}

// NewManager creates a manager creating matches with settings. recorder may
// be nil.
func NewManager(settings Settings, recorder *ReplayRecorder, logger *zap.Logger) *Manager {
	return &Manager{
		logger:   logger,
		settings: settings,
		recorder: recorder,
		matches:  make(map[string]*Match),
	}
}

// Settings returns the settings new matches start with.
func (mgr *Manager) Settings() Settings {
	return mgr.settings
}

// Create starts a match for the given player deck.
func (mgr *Manager) Create(playerDeck []string, opts ...MatchOption) (*Match, error) {
	if mgr.recorder != nil {
		opts = append([]MatchOption{WithRecorder(mgr.recorder)}, opts...)
	}
	m, err := NewMatch(mgr.settings, playerDeck, mgr.logger, opts...)
	if err != nil {
		return nil, err
	}

	mgr.mu.Lock()
	defer mgr.mu.Unlock()
	if _, exists := mgr.matches[m.ID()]; exists {
		return nil, fmt.Errorf("match %s already exists", m.ID())
	}
	mgr.matches[m.ID()] = m
	return m, nil
}

// Get returns a live match.
func (mgr *Manager) Get(id string) (*Match, error) {
	mgr.mu.RLock()
	defer mgr.mu.RUnlock()
	m, ok := mgr.matches[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMatchNotFound, id)
	}
	return m, nil
}

// Remove drops a match. When replays are recorded the replay is saved first.
func (mgr *Manager) Remove(id string) error {
	mgr.mu.Lock()
	_, ok := mgr.matches[id]
	delete(mgr.matches, id)
	mgr.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrMatchNotFound, id)
	}
	if mgr.recorder != nil && mgr.recorder.Recording(id) {
		if _, err := mgr.recorder.Save(id); err != nil {
			return fmt.Errorf("remove match %s: %w", id, err)
		}
	}
	if mgr.logger != nil {
		mgr.logger.Info("match removed", zap.String("match_id", id))
	}
	return nil
}

// IDs returns the live match ids in sorted order.
func (mgr *Manager) IDs() []string {
	mgr.mu.RLock()
	defer mgr.mu.RUnlock()
	ids := make([]string, 0, len(mgr.matches))
	for id := range mgr.matches {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Count returns the number of live matches.
func (mgr *Manager) Count() int {
	mgr.mu.RLock()
	defer mgr.mu.RUnlock()
	return len(mgr.matches)
}

// AdvanceAll moves the clock of every match with pending effects forward by
// d and returns the ids of matches where something committed. Idle match
// clocks stay where they are.
func (mgr *Manager) AdvanceAll(d time.Duration) []string {
	var changed []string
	for _, id := range mgr.IDs() {
		m, err := mgr.Get(id)
		if err != nil {
			continue
		}
		if _, busy := m.NextDue(); !busy {
			continue
		}
		if m.Advance(d) > 0 {
			changed = append(changed, id)
		}
	}
	return changed
}
