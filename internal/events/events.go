package events

import (
	"encoding/json"
	"time"
)

// Event names emitted over the real-time channel.
const (
	TaskCreated  = "task-created"
	TaskUpdated  = "task-updated"
	TaskDeleted  = "task-deleted"
	TaskAssigned = "task-assigned"
	TeamCreated  = "team-created"
	TeamUpdated  = "team-updated"
	TeamDeleted  = "team-deleted"
	TeamRemoved  = "team-removed"
)

// Event is a named payload sent to connected clients.
type Event struct {
	Event     string      `json:"event"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// New builds an event stamped with the current time.
func New(name string, data interface{}) Event {
	return Event{
		Event:     name,
		Data:      data,
		Timestamp: time.Now().UTC(),
	}
}

// AssignmentPayload is the data carried by a task-assigned event.
type AssignmentPayload struct {
	TaskID     uint64 `json:"taskId"`
	TaskTitle  string `json:"taskTitle"`
	AssignedBy string `json:"assignedBy"`
}

// Publisher delivers events to connected clients. Delivery is
// fire-and-forget: no acknowledgment, no replay; a disconnected client
// misses events until it reconnects and revalidates.
type Publisher interface {
	// PublishToUser sends the event to every connection of one user.
	PublishToUser(userID uint64, event Event)

	// Broadcast sends the event to all connected clients.
	Broadcast(event Event)
}

// NopPublisher discards all events. Useful in tests.
type NopPublisher struct{}

func (NopPublisher) PublishToUser(uint64, Event) {}
func (NopPublisher) Broadcast(Event)             {}

func marshal(event Event) ([]byte, error) {
	return json.Marshal(event)
}
