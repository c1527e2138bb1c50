package events

import (
	"encoding/json"
	"sync"
	"time"
)

const (
	EventAssignmentAssigned  = "assignment_assigned"
	EventAssignmentAccepted  = "assignment_accepted"
	EventAssignmentRejected  = "assignment_rejected"
	EventAssignmentCancelled = "assignment_cancelled"
	EventItemSupplied        = "item_supplied"
	EventItemSettled         = "item_settled"
)

// AssignmentEventPayload describes the minimal assignment snapshot for event consumers.
type AssignmentEventPayload struct {
	BookingItemID int64     `json:"booking_item_id"`
	BookingID     int64     `json:"booking_id"`
	ItemName      string    `json:"item_name"`
	VendorID      int64     `json:"vendor_id,omitempty"`
	VendorName    string    `json:"vendor_name,omitempty"`
	Status        string    `json:"status"`
	EventDate     time.Time `json:"event_date"`
	Note          string    `json:"note,omitempty"`
	Reason        string    `json:"reason,omitempty"`
}

// Event represents a lightweight domain event.
type Event struct {
	ID        int64
	Type      string
	Payload   []byte
	CreatedAt time.Time
	Processed bool
}

// EventHandler reacts to an event.
type EventHandler func(event *Event) error

// EventBus provides in-process pub/sub for events.
type EventBus struct {
	subscribers map[string][]EventHandler
	mu          sync.RWMutex
}

// NewEventBus constructs an empty bus.
func NewEventBus() *EventBus {
	return &EventBus{subscribers: make(map[string][]EventHandler)}
}

// Subscribe registers a handler for a given event type.
func (b *EventBus) Subscribe(eventType string, handler EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[eventType] = append(b.subscribers[eventType], handler)
}

// Publish notifies subscribers of the event type.
func (b *EventBus) Publish(event *Event) {
	b.mu.RLock()
	handlers := append([]EventHandler(nil), b.subscribers[event.Type]...)
	b.mu.RUnlock()

	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	for _, handler := range handlers {
		// Handlers run synchronously; caller decides concurrency model.
		_ = handler(event)
	}
}

// PublishJSON serializes the payload and publishes an event.
func (b *EventBus) PublishJSON(eventType string, payload interface{}) error {
	if b == nil {
		return nil
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	b.Publish(&Event{Type: eventType, Payload: raw, CreatedAt: time.Now()})
	return nil
}

// NewJSONEvent builds an Event with JSON payload for manual publishing.
func NewJSONEvent(eventType string, payload interface{}) (Event, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}

	return Event{Type: eventType, Payload: raw, CreatedAt: time.Now()}, nil
}
