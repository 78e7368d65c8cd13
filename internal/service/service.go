package service

import (
	"context"
	"fmt"

	"github.com/parentingo/parentingo/internal/blob"
	"github.com/parentingo/parentingo/internal/events"
	"github.com/parentingo/parentingo/internal/logging"
	"github.com/parentingo/parentingo/internal/metrics"
	"github.com/parentingo/parentingo/internal/policy"
	"github.com/parentingo/parentingo/internal/repository"
)

// Deps are the collaborators shared by the group, post, comment and user
// services. Events and Metrics may be nil; Blobs is required by the
// services that accept uploads.
type Deps struct {
	Store   repository.Store
	Blobs   blob.Store
	Events  events.Publisher
	Metrics *metrics.Metrics
}

type base struct {
	pipeline
	blobs   blob.Store
	events  events.Publisher
	metrics *metrics.Metrics
}

func newBase(d Deps) base {
	pub := d.Events
	if pub == nil {
		pub = events.Nop{}
	}
	return base{
		pipeline: pipeline{store: d.Store},
		blobs:    d.Blobs,
		events:   pub,
		metrics:  d.Metrics,
	}
}

// publish reports a committed change. The change stands even when the
// event cannot be delivered, so failures are only logged and counted.
func (b base) publish(ctx context.Context, evt events.Event) {
	if err := b.events.Publish(ctx, evt); err != nil {
		logging.FromContext(ctx).WithError(err).WithField("event", evt.Type).Warn("failed to publish event")
		b.metrics.PublishFailed("events")
	}
}

func (b base) observe(action policy.Action, err error) {
	b.metrics.ObserveAction(string(action), err)
}

// Result is the body of a successful action: a message and, for counts,
// the number counted.
type Result struct {
	Message string `json:"message"`
	Count   *int   `json:"count,omitempty"`
}

func message(format string, args ...any) *Result {
	return &Result{Message: fmt.Sprintf(format, args...)}
}
