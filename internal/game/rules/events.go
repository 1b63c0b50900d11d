package rules

import (
	"sort"
	"sync"
	"time"
)

// EventType indicates the category of a duel event.
type EventType string

const (
	// Card movement
	EventCardPlayed    EventType = "CARD_PLAYED"
	EventSpyMoved      EventType = "SPY_MOVED"
	EventCardDrawn     EventType = "CARD_DRAWN"
	EventDeckEmpty     EventType = "DECK_EMPTY"
	EventCardRevived   EventType = "CARD_REVIVED"
	EventNoRevival     EventType = "NO_REVIVAL"
	EventCardDestroyed EventType = "CARD_DESTROYED"
	EventCardDiscarded EventType = "CARD_DISCARDED"
	EventDecoySwapped  EventType = "DECOY_SWAPPED"

	// Ability effects
	EventScorchScheduled EventType = "SCORCH_SCHEDULED"
	EventScorchFizzled   EventType = "SCORCH_FIZZLED"
	EventWeatherApplied  EventType = "WEATHER_APPLIED"
	EventWeatherCleared  EventType = "WEATHER_CLEARED"
	EventLeaderActivated EventType = "LEADER_ACTIVATED"
	EventPowerBoosted    EventType = "POWER_BOOSTED"
	EventEffectCommitted EventType = "EFFECT_COMMITTED"

	// Turn and round flow
	EventPlayerPassed EventType = "PLAYER_PASSED"
	EventTurnLocked   EventType = "TURN_LOCKED"
	EventTurnUnlocked EventType = "TURN_UNLOCKED"
	EventAIDecided    EventType = "AI_DECIDED"
	EventRoundStarted EventType = "ROUND_STARTED"
	EventRoundEnded   EventType = "ROUND_ENDED"
	EventMatchEnded   EventType = "MATCH_ENDED"
	EventMoveRejected EventType = "MOVE_REJECTED"
)

// Event describes a state change that other subsystems may react to.
type Event struct {
	Type     EventType
	CardID   string // instance id the event is about
	SourceID string // instance id of the card or leader that caused it
	Side     string
	Lane     string
	Amount   int
	Data     string
	At       time.Duration // virtual clock time
	Metadata map[string]string
}

// Listener defines a callback that reacts to incoming events.
type Listener func(Event)

// EventBus is a synchronous publish/subscribe bus.
type EventBus struct {
	mu         sync.RWMutex
	listeners  map[int]Listener
	nextHandle int
}

// NewEventBus constructs a fresh event bus instance.
func NewEventBus() *EventBus {
	return &EventBus{listeners: make(map[int]Listener)}
}

// Subscribe registers a listener for all events and returns a handle.
func (bus *EventBus) Subscribe(listener Listener) int {
	if listener == nil {
		return -1
	}
	bus.mu.Lock()
	defer bus.mu.Unlock()
	handle := bus.nextHandle
	bus.nextHandle++
	bus.listeners[handle] = listener
	return handle
}

// Unsubscribe removes the listener identified by the provided handle.
func (bus *EventBus) Unsubscribe(handle int) {
	bus.mu.Lock()
	defer bus.mu.Unlock()
	delete(bus.listeners, handle)
}

// Publish delivers the event to every listener synchronously in
// subscription order. Listeners may publish further events.
func (bus *EventBus) Publish(event Event) {
	bus.mu.RLock()
	handles := make([]int, 0, len(bus.listeners))
	for h := range bus.listeners {
		handles = append(handles, h)
	}
	sort.Ints(handles)
	all := make([]Listener, len(handles))
	for i, h := range handles {
		all[i] = bus.listeners[h]
	}
	bus.mu.RUnlock()

	for _, listener := range all {
		listener(event)
	}
}

// NewEvent creates a new event with common fields populated.
func NewEvent(eventType EventType, cardID, sourceID, side string) Event {
	return Event{
		Type:     eventType,
		CardID:   cardID,
		SourceID: sourceID,
		Side:     side,
		Metadata: make(map[string]string),
	}
}

// NewEventWithAmount creates a new event with an amount value.
func NewEventWithAmount(eventType EventType, cardID, sourceID, side string, amount int) Event {
	evt := NewEvent(eventType, cardID, sourceID, side)
	evt.Amount = amount
	return evt
}
