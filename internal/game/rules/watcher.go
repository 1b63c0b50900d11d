package rules

import (
	"sync"
)

// WatcherScope says how long a watcher's state lives.
type WatcherScope int

const (
	// WatcherScopeMatch watchers accumulate over the whole match.
	WatcherScopeMatch WatcherScope = iota
	// WatcherScopeRound watchers are cleared whenever a round starts.
	WatcherScopeRound
)

func (s WatcherScope) String() string {
	if s == WatcherScopeRound {
		return "round"
	}
	return "match"
}

// Watcher observes duel events and keeps derived state.
type Watcher interface {
	Watch(event Event)
	Reset()
	Scope() WatcherScope
	Key() string
}

// Tally is a per-side count reported by a watcher.
type Tally struct {
	Key      string
	Player   int
	Opponent int
}

// CountWatcher counts events of one type per side.
type CountWatcher struct {
	mu        sync.Mutex
	key       string
	scope     WatcherScope
	eventType EventType
	counts    map[string]int
}

// NewCountWatcher creates a watcher counting eventType.
func NewCountWatcher(key string, eventType EventType, scope WatcherScope) *CountWatcher {
	return &CountWatcher{
		key:       key,
		scope:     scope,
		eventType: eventType,
		counts:    make(map[string]int),
	}
}

// Watch counts event when it matches the watched type.
func (w *CountWatcher) Watch(event Event) {
	if event.Type != w.eventType {
		return
	}
	w.mu.Lock()
	w.counts[event.Side]++
	w.mu.Unlock()
}

// Reset clears the counts.
func (w *CountWatcher) Reset() {
	w.mu.Lock()
	w.counts = make(map[string]int)
	w.mu.Unlock()
}

// Scope returns the watcher's lifetime.
func (w *CountWatcher) Scope() WatcherScope { return w.scope }

// Key returns the watcher's registry key.
func (w *CountWatcher) Key() string { return w.key }

// Count returns the count recorded for side ("player" or "opponent").
func (w *CountWatcher) Count(side string) int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.counts[side]
}

// Tally returns both sides' counts.
func (w *CountWatcher) Tally() Tally {
	w.mu.Lock()
	defer w.mu.Unlock()
	return Tally{Key: w.key, Player: w.counts["player"], Opponent: w.counts["opponent"]}
}

// WatcherRegistry fans events out to watchers and clears round-scoped
// watchers when a new round starts.
type WatcherRegistry struct {
	mu       sync.RWMutex
	watchers map[string]Watcher
	order    []string
}

// NewWatcherRegistry creates an empty registry.
func NewWatcherRegistry() *WatcherRegistry {
	return &WatcherRegistry{watchers: make(map[string]Watcher)}
}

// NewDuelWatchers returns a registry with the standard match statistics.
func NewDuelWatchers() *WatcherRegistry {
	r := NewWatcherRegistry()
	r.AddWatcher(NewCountWatcher("cards_played", EventCardPlayed, WatcherScopeMatch))
	r.AddWatcher(NewCountWatcher("cards_destroyed", EventCardDestroyed, WatcherScopeMatch))
	r.AddWatcher(NewCountWatcher("cards_revived", EventCardRevived, WatcherScopeMatch))
	r.AddWatcher(NewCountWatcher("spies_played", EventSpyMoved, WatcherScopeMatch))
	r.AddWatcher(NewCountWatcher("draws", EventCardDrawn, WatcherScopeMatch))
	r.AddWatcher(NewCountWatcher("round_cards_played", EventCardPlayed, WatcherScopeRound))
	return r
}

// AddWatcher registers w, replacing any watcher with the same key.
func (r *WatcherRegistry) AddWatcher(w Watcher) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.watchers[w.Key()]; !exists {
		r.order = append(r.order, w.Key())
	}
	r.watchers[w.Key()] = w
}

// NotifyWatchers passes event to every watcher. A round start clears the
// round-scoped watchers first.
func (r *WatcherRegistry) NotifyWatchers(event Event) {
	r.mu.RLock()
	watchers := make([]Watcher, 0, len(r.order))
	for _, key := range r.order {
		watchers = append(watchers, r.watchers[key])
	}
	r.mu.RUnlock()

	for _, w := range watchers {
		if event.Type == EventRoundStarted && w.Scope() == WatcherScopeRound {
			w.Reset()
		}
		w.Watch(event)
	}
}

// Listener adapts the registry to an event bus subscription.
func (r *WatcherRegistry) Listener() Listener {
	return r.NotifyWatchers
}

// Tallies reports every counting watcher in registration order.
func (r *WatcherRegistry) Tallies() []Tally {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Tally
	for _, key := range r.order {
		if c, ok := r.watchers[key].(interface{ Tally() Tally }); ok {
			out = append(out, c.Tally())
		}
	}
	return out
}
