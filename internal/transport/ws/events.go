package ws

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event types - Client → Server
const (
	EventTypeGroupSubscribe   = "group.subscribe"
	EventTypeGroupUnsubscribe = "group.unsubscribe"
	EventTypePing             = "ping"
)

// Event types - Server → Client
const (
	EventTypeDomain       = "event"
	EventTypeSubscribed   = "subscribed"
	EventTypeUnsubscribed = "unsubscribed"
	EventTypePong         = "pong"
	EventTypeError        = "error"
)

// Event is the base envelope for all WebSocket messages.
type Event struct {
	Type      string          `json:"type"`
	GroupID   *uuid.UUID      `json:"group_id,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp int64           `json:"ts,omitempty"`
}

type GroupPayload struct {
	GroupID uuid.UUID `json:"group_id"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewEvent creates a server→client event with the current timestamp.
func NewEvent(eventType string, groupID *uuid.UUID, payload any) (*Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Event{
		Type:      eventType,
		GroupID:   groupID,
		Payload:   data,
		Timestamp: time.Now().Unix(),
	}, nil
}
