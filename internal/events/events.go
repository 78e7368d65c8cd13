// Package events carries domain events from the services to subscribers:
// NATS for other processes and the WebSocket hub for connected members.
package events

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

type Type string

const (
	MemberJoined   Type = "group.member_joined"
	MemberLeft     Type = "group.member_left"
	ModPromoted    Type = "group.mod_promoted"
	ModDemoted     Type = "group.mod_demoted"
	MemberBanned   Type = "group.member_banned"
	MemberUnbanned Type = "group.member_unbanned"
	PostCreated    Type = "post.created"
	PostDeleted    Type = "post.deleted"
	PostLiked      Type = "post.liked"
	PostUnliked    Type = "post.unliked"
	CommentCreated Type = "comment.created"
	CommentDeleted Type = "comment.deleted"
	UserFollowed   Type = "user.followed"
	UserUnfollowed Type = "user.unfollowed"
)

// Event describes one committed change. GroupID is nil for social graph
// events. SubjectID is the user, post or comment acted upon.
type Event struct {
	ID        uuid.UUID  `json:"id"`
	Type      Type       `json:"type"`
	GroupID   *uuid.UUID `json:"group_id,omitempty"`
	ActorID   uuid.UUID  `json:"actor_id"`
	SubjectID uuid.UUID  `json:"subject_id"`
	Message   string     `json:"message"`
	At        time.Time  `json:"at"`
}

func New(t Type, groupID *uuid.UUID, actor, subject uuid.UUID, message string) Event {
	return Event{
		ID:        uuid.New(),
		Type:      t,
		GroupID:   groupID,
		ActorID:   actor,
		SubjectID: subject,
		Message:   message,
		At:        time.Now().UTC(),
	}
}

type Publisher interface {
	Publish(ctx context.Context, evt Event) error
}

// Fanout delivers every event to all publishers and joins their errors.
type Fanout []Publisher

func (f Fanout) Publish(ctx context.Context, evt Event) error {
	var errs []error
	for _, p := range f {
		if err := p.Publish(ctx, evt); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }

// Recorder keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Publish(_ context.Context, evt Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, evt)
	return nil
}

func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

func (r *Recorder) Types() []Type {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Type, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}
