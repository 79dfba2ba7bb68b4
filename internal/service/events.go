package service

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mewayz/progression/internal/metrics"
)

// EventType represents the type of domain event
type EventType string

const (
	// Progression events
	EventLevelUp  EventType = "progression.level_up"
	EventPrestige EventType = "progression.prestige"

	// Specialization events
	EventSpecializationUnlocked EventType = "specialization.unlocked"
	EventSpecializationLevelUp  EventType = "specialization.level_up"

	// Streak events
	EventStreakUpdated EventType = "streak.updated"

	// Reward events
	EventRewardDispatchFailed EventType = "reward.dispatch_failed"
)

// DefaultEventBuffer is the per-subscriber channel capacity
const DefaultEventBuffer = 100

// Event represents a domain event published for notification and UI collaborators
type Event struct {
	ID         string      `json:"id"`
	Type       EventType   `json:"type"`
	UserID     string      `json:"user_id"`
	OccurredOn time.Time   `json:"occurred_on"`
	Data       interface{} `json:"data"`
}

// NewEvent creates an event with a fresh ID
func NewEvent(eventType EventType, userID string, at time.Time, data interface{}) *Event {
	return &Event{
		ID:         uuid.New().String(),
		Type:       eventType,
		UserID:     userID,
		OccurredOn: at,
		Data:       data,
	}
}

// LevelUpData is the payload of EventLevelUp
type LevelUpData struct {
	FromLevel int   `json:"from_level"`
	ToLevel   int   `json:"to_level"`
	TotalXP   int64 `json:"total_xp"`
}

// PrestigeData is the payload of EventPrestige
type PrestigeData struct {
	Prestige       int   `json:"prestige"`
	PrestigePoints int64 `json:"prestige_points"`
}

// SpecializationData is the payload of specialization events
type SpecializationData struct {
	Track string `json:"track"`
	Level int    `json:"level"`
}

// StreakData is the payload of EventStreakUpdated
type StreakData struct {
	StreakType   string `json:"streak_type"`
	Action       string `json:"action"`
	Current      int    `json:"current"`
	Longest      int    `json:"longest"`
	FreezeTokens int    `json:"freeze_tokens"`
}

// RewardFailureData is the payload of EventRewardDispatchFailed
type RewardFailureData struct {
	Reward string `json:"reward"`
	Error  string `json:"error"`
}

// Subscriber is one consumer of the hub. UserID is empty for global subscribers.
type Subscriber struct {
	ID     string
	UserID string
	Events chan *Event
	Done   chan struct{}
}

// EventHub fans domain events out to subscribers without blocking the publisher.
// A full subscriber buffer drops the event for that subscriber.
type EventHub struct {
	mu              sync.RWMutex
	subscribers     map[string]*Subscriber            // subscriberID -> subscriber (all events)
	userSubscribers map[string]map[string]*Subscriber // userID -> subscriberID -> subscriber
	buffer          int
	closed          bool
}

// NewEventHub creates a new event hub with the given per-subscriber buffer
func NewEventHub(buffer int) *EventHub {
	if buffer <= 0 {
		buffer = DefaultEventBuffer
	}
	return &EventHub{
		subscribers:     make(map[string]*Subscriber),
		userSubscribers: make(map[string]map[string]*Subscriber),
		buffer:          buffer,
	}
}

// Subscribe adds a subscriber receiving every event
func (h *EventHub) Subscribe(subscriberID string) *Subscriber {
	h.mu.Lock()
	defer h.mu.Unlock()

	sub := h.newSubscriber(subscriberID, "")
	h.subscribers[subscriberID] = sub
	return sub
}

// SubscribeUser adds a subscriber receiving only events about userID
func (h *EventHub) SubscribeUser(userID, subscriberID string) *Subscriber {
	h.mu.Lock()
	defer h.mu.Unlock()

	sub := h.newSubscriber(subscriberID, userID)
	if h.userSubscribers[userID] == nil {
		h.userSubscribers[userID] = make(map[string]*Subscriber)
	}
	h.userSubscribers[userID][subscriberID] = sub
	return sub
}

func (h *EventHub) newSubscriber(id, userID string) *Subscriber {
	sub := &Subscriber{
		ID:     id,
		UserID: userID,
		Events: make(chan *Event, h.buffer),
		Done:   make(chan struct{}),
	}
	if h.closed {
		close(sub.Done)
		close(sub.Events)
	}
	return sub
}

// Unsubscribe removes a subscriber and closes its channels
func (h *EventHub) Unsubscribe(sub *Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if sub.UserID == "" {
		if cur, ok := h.subscribers[sub.ID]; ok && cur == sub {
			closeSubscriber(sub)
			delete(h.subscribers, sub.ID)
		}
		return
	}

	if userSubs, ok := h.userSubscribers[sub.UserID]; ok {
		if cur, ok := userSubs[sub.ID]; ok && cur == sub {
			closeSubscriber(sub)
			delete(userSubs, sub.ID)
		}
		if len(userSubs) == 0 {
			delete(h.userSubscribers, sub.UserID)
		}
	}
}

// Publish delivers event to global subscribers and to subscribers of event.UserID
func (h *EventHub) Publish(event *Event) {
	if h == nil || event == nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.closed {
		return
	}
	for _, sub := range h.subscribers {
		deliver(sub, event)
	}
	for _, sub := range h.userSubscribers[event.UserID] {
		deliver(sub, event)
	}
}

func deliver(sub *Subscriber, event *Event) {
	select {
	case sub.Events <- event:
	default:
		metrics.EventsDropped.Inc()
	}
}

// Close stops the hub and closes every subscriber
func (h *EventHub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true
	for id, sub := range h.subscribers {
		closeSubscriber(sub)
		delete(h.subscribers, id)
	}
	for userID, userSubs := range h.userSubscribers {
		for _, sub := range userSubs {
			closeSubscriber(sub)
		}
		delete(h.userSubscribers, userID)
	}
}

func closeSubscriber(sub *Subscriber) {
	close(sub.Done)
	close(sub.Events)
}

// SubscriberCount returns the number of global plus user subscribers
func (h *EventHub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	n := len(h.subscribers)
	for _, userSubs := range h.userSubscribers {
		n += len(userSubs)
	}
	return n
}
