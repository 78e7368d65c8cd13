package ws

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/parentingo/parentingo/internal/apperror"
	"github.com/parentingo/parentingo/internal/metrics"
	"github.com/sirupsen/logrus"
)

const maxSubscribeAttempts = 3

var errHubStopped = errors.New("hub stopped")

// SubscriptionAuthorizer decides whether a user may follow a group feed.
type SubscriptionAuthorizer interface {
	CanSubscribe(ctx context.Context, userID, groupID uuid.UUID) error
}

// Hub manages all active WebSocket clients and routes events. Only the Run
// goroutine touches the client registry.
type Hub struct {
	// clients maps userID → open connections of that user.
	clients map[uuid.UUID]map[*Client]struct{}

	authorizer SubscriptionAuthorizer
	logger     *logrus.Entry
	metrics    *metrics.Metrics

	// dropSeq counts subscription drops; lastDrop records, per group and
	// user, the sequence number of the latest one. A subscription authorized
	// before a drop it did not observe is refused.
	dropSeq  atomic.Uint64
	lastDrop map[dropKey]uint64

	register   chan *Client
	unregister chan *Client
	subscribe  chan *subscription
	broadcast  chan *broadcastMsg
	done       chan struct{}
}

type dropKey struct {
	groupID uuid.UUID
	userID  uuid.UUID
}

type subscription struct {
	client  *Client
	groupID uuid.UUID
	// seq is dropSeq as read before authorization.
	seq    uint64
	result chan bool
}

type broadcastMsg struct {
	// groupID targets subscribers of a group; userID targets one user.
	groupID *uuid.UUID
	userID  *uuid.UUID
	data    []byte
	// drop unsubscribes this user from groupID after delivery.
	drop *uuid.UUID
}

func NewHub(authorizer SubscriptionAuthorizer, logger *logrus.Logger, m *metrics.Metrics) *Hub {
	return &Hub{
		clients:    make(map[uuid.UUID]map[*Client]struct{}),
		authorizer: authorizer,
		logger:     logger.WithField("component", "ws"),
		metrics:    m,
		lastDrop:   make(map[dropKey]uint64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		subscribe:  make(chan *subscription),
		broadcast:  make(chan *broadcastMsg, 256),
		done:       make(chan struct{}),
	}
}

// Run is the Hub's event loop. It returns when ctx is cancelled, after
// closing every client.
func (h *Hub) Run(ctx context.Context) error {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			for _, conns := range h.clients {
				for c := range conns {
					h.remove(c)
				}
			}
			return nil

		case client := <-h.register:
			conns, ok := h.clients[client.userID]
			if !ok {
				conns = make(map[*Client]struct{})
				h.clients[client.userID] = conns
			}
			conns[client] = struct{}{}
			h.metrics.WSConnected()
			h.logger.WithField("user_id", client.userID).Debug("client connected")

		case client := <-h.unregister:
			h.remove(client)

		case sub := <-h.subscribe:
			if h.lastDrop[dropKey{sub.groupID, sub.client.userID}] > sub.seq {
				sub.result <- false
				continue
			}
			sub.client.Subscribe(sub.groupID)
			sub.result <- true

		case msg := <-h.broadcast:
			h.deliver(msg)
		}
	}
}

func (h *Hub) remove(c *Client) {
	conns, ok := h.clients[c.userID]
	if !ok {
		return
	}
	if _, ok := conns[c]; !ok {
		return
	}
	delete(conns, c)
	if len(conns) == 0 {
		delete(h.clients, c.userID)
	}
	close(c.done)
	h.metrics.WSDisconnected()
	h.logger.WithField("user_id", c.userID).Debug("client disconnected")
}

func (h *Hub) deliver(msg *broadcastMsg) {
	if msg.drop != nil && msg.groupID != nil {
		h.lastDrop[dropKey{*msg.groupID, *msg.drop}] = h.dropSeq.Add(1)
	}

	for userID, conns := range h.clients {
		if msg.userID != nil && userID != *msg.userID {
			continue
		}
		for c := range conns {
			if msg.groupID != nil && msg.userID == nil && !c.IsSubscribed(*msg.groupID) {
				continue
			}
			select {
			case c.send <- msg.data:
			default:
				// Client buffer full - disconnect
				h.remove(c)
				continue
			}
			if msg.drop != nil && userID == *msg.drop && msg.groupID != nil {
				c.Unsubscribe(*msg.groupID)
			}
		}
	}
}

// authorizeSubscription checks c's access to groupID and subscribes it in
// the Run loop. A drop for the same group and user delivered while the
// check ran invalidates the answer and the check is repeated.
func (h *Hub) authorizeSubscription(ctx context.Context, c *Client, groupID uuid.UUID) error {
	for attempt := 0; ; attempt++ {
		seq := h.dropSeq.Load()

		actx, cancel := context.WithTimeout(ctx, authorizeWait)
		err := h.authorizer.CanSubscribe(actx, c.userID, groupID)
		cancel()
		if err != nil {
			return err
		}

		sub := &subscription{client: c, groupID: groupID, seq: seq, result: make(chan bool, 1)}
		select {
		case h.subscribe <- sub:
		case <-h.done:
			return errHubStopped
		case <-ctx.Done():
			return ctx.Err()
		}
		if <-sub.result {
			return nil
		}
		if attempt == maxSubscribeAttempts-1 {
			return apperror.Conflict("Group membership changed, try again")
		}
	}
}

// enqueue hands msg to the Run loop. It does not block once the hub has
// stopped.
func (h *Hub) enqueue(ctx context.Context, msg *broadcastMsg) error {
	select {
	case h.broadcast <- msg:
		return nil
	case <-h.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// BroadcastToGroup sends an event to all subscribers of a group.
func (h *Hub) BroadcastToGroup(ctx context.Context, groupID uuid.UUID, event *Event, drop *uuid.UUID) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return h.enqueue(ctx, &broadcastMsg{groupID: &groupID, data: data, drop: drop})
}

// BroadcastToUser sends an event to every connection of one user.
func (h *Hub) BroadcastToUser(ctx context.Context, userID uuid.UUID, event *Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return h.enqueue(ctx, &broadcastMsg{userID: &userID, data: data})
}
