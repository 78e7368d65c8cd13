package ws

import (
	"context"

	"github.com/google/uuid"
	"github.com/parentingo/parentingo/internal/events"
)

// Publisher forwards domain events to connected clients: group events to
// the group's subscribers, social events to the user they concern.
type Publisher struct {
	hub *Hub
}

func NewPublisher(hub *Hub) *Publisher {
	return &Publisher{hub: hub}
}

func (p *Publisher) Publish(ctx context.Context, evt events.Event) error {
	if evt.GroupID == nil {
		out, err := NewEvent(EventTypeDomain, nil, evt)
		if err != nil {
			return err
		}
		return p.hub.BroadcastToUser(ctx, evt.SubjectID, out)
	}

	out, err := NewEvent(EventTypeDomain, evt.GroupID, evt)
	if err != nil {
		return err
	}
	return p.hub.BroadcastToGroup(ctx, *evt.GroupID, out, droppedSubscriber(evt))
}

// droppedSubscriber returns the user that loses access to the group feed
// through evt, if any.
func droppedSubscriber(evt events.Event) *uuid.UUID {
	switch evt.Type {
	case events.MemberBanned, events.MemberLeft:
		id := evt.SubjectID
		return &id
	}
	return nil
}
