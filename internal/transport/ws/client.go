package ws

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/parentingo/parentingo/internal/apperror"
	"github.com/sirupsen/logrus"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

const (
	writeWait      = 10 * time.Second
	authorizeWait  = 5 * time.Second
	pingInterval   = 30 * time.Second
	maxMessageSize = 4096
	sendBufSize    = 256
)

// Client represents a single WebSocket connection.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	userID uuid.UUID
	logger *logrus.Entry

	// subscribedGroups tracks which group feeds this client listens to.
	subscribedGroups map[uuid.UUID]struct{}
	mu               sync.RWMutex

	send chan []byte
	// done is closed by the hub when the client is removed.
	done chan struct{}
}

func NewClient(hub *Hub, conn *websocket.Conn, userID uuid.UUID) *Client {
	conn.SetReadLimit(maxMessageSize)
	return &Client{
		hub:              hub,
		conn:             conn,
		userID:           userID,
		logger:           hub.logger.WithField("user_id", userID),
		subscribedGroups: make(map[uuid.UUID]struct{}),
		send:             make(chan []byte, sendBufSize),
		done:             make(chan struct{}),
	}
}

func (c *Client) IsSubscribed(groupID uuid.UUID) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.subscribedGroups[groupID]
	return ok
}

func (c *Client) Subscribe(groupID uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subscribedGroups[groupID] = struct{}{}
}

func (c *Client) Unsubscribe(groupID uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.subscribedGroups, groupID)
}

// ReadPump reads messages from the WebSocket and handles them until the
// connection or the hub goes away.
func (c *Client) ReadPump(ctx context.Context) {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	for {
		var event Event
		err := wsjson.Read(ctx, c.conn, &event)
		if err != nil {
			if websocket.CloseStatus(err) != -1 {
				c.logger.Debug("client closed connection")
			} else {
				c.logger.WithError(err).Debug("read failed")
			}
			return
		}

		c.handleEvent(ctx, &event)
	}
}

// WritePump writes messages from the send channel to the WebSocket.
func (c *Client) WritePump(ctx context.Context) {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	for {
		select {
		case message := <-c.send:
			wctx, cancel := context.WithTimeout(ctx, writeWait)
			err := c.conn.Write(wctx, websocket.MessageText, message)
			cancel()
			if err != nil {
				c.logger.WithError(err).Debug("write failed")
				return
			}

		case <-ticker.C:
			pctx, cancel := context.WithTimeout(ctx, writeWait)
			err := c.conn.Ping(pctx)
			cancel()
			if err != nil {
				c.logger.WithError(err).Debug("ping failed")
				return
			}

		case <-c.done:
			return
		}
	}
}

func (c *Client) handleEvent(ctx context.Context, event *Event) {
	switch event.Type {
	case EventTypeGroupSubscribe:
		var p GroupPayload
		if err := json.Unmarshal(event.Payload, &p); err != nil || p.GroupID == uuid.Nil {
			c.sendError("INVALID_PAYLOAD", "invalid group.subscribe payload")
			return
		}

		if err := c.hub.authorizeSubscription(ctx, c, p.GroupID); err != nil {
			c.sendDenied(err)
			return
		}
		c.sendEvent(EventTypeSubscribed, &p.GroupID, p)

	case EventTypeGroupUnsubscribe:
		var p GroupPayload
		if err := json.Unmarshal(event.Payload, &p); err != nil {
			c.sendError("INVALID_PAYLOAD", "invalid group.unsubscribe payload")
			return
		}
		c.Unsubscribe(p.GroupID)
		c.sendEvent(EventTypeUnsubscribed, &p.GroupID, p)

	case EventTypePing:
		c.queue(Event{Type: EventTypePong})

	default:
		c.sendError("UNKNOWN_EVENT", "unknown event type: "+event.Type)
	}
}

func (c *Client) sendDenied(err error) {
	if e, ok := apperror.As(err); ok {
		c.sendError(e.Kind.String(), e.Message)
		return
	}
	c.logger.WithError(err).Error("authorizing subscription")
	c.sendError("internal", "Something went wrong")
}

func (c *Client) sendEvent(eventType string, groupID *uuid.UUID, payload any) {
	evt, err := NewEvent(eventType, groupID, payload)
	if err != nil {
		return
	}
	c.queue(*evt)
}

func (c *Client) sendError(code, message string) {
	c.sendEvent(EventTypeError, nil, ErrorPayload{Code: code, Message: message})
}

// queue sends evt without blocking; a full buffer drops it.
func (c *Client) queue(evt Event) {
	data, err := json.Marshal(evt)
	if err != nil {
		return
	}
	select {
	case c.send <- data:
	case <-c.done:
	default:
	}
}
