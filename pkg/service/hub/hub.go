package hub

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ledgerline/refundgate/pkg/domain/model"
	"github.com/ledgerline/refundgate/pkg/utils/logging"
)

// Subject identifies a fan-out target: one customer thread, or the shared
// reviewer pool.
type Subject string

// ThreadSubject returns the subject for a customer's conversation thread
func ThreadSubject(userID, threadID string) Subject {
	return Subject(fmt.Sprintf("thread/%s/%s", userID, threadID))
}

// ReviewerSubject returns the subject shared by all reviewer connections
func ReviewerSubject() Subject {
	return Subject("reviewers")
}

const (
	// DefaultHeartbeatInterval is how often clients are expected to ping
	DefaultHeartbeatInterval = 30 * time.Second
	// DefaultEventBuffer is the per-connection event channel capacity
	DefaultEventBuffer = 16
)

// Connection is one live client channel. Multiple connections per subject are
// allowed (multi-tab).
type Connection struct {
	id      string
	subject Subject
	events  chan *model.Event

	mu       sync.Mutex
	lastSeen time.Time
	closed   bool
}

// ID returns the connection identifier
func (c *Connection) ID() string {
	return c.id
}

// Subject returns the subject this connection subscribed to
func (c *Connection) Subject() Subject {
	return c.subject
}

// Events returns the channel delivering published events. It is closed when
// the connection is unsubscribed.
func (c *Connection) Events() <-chan *model.Event {
	return c.events
}

func (c *Connection) touch() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastSeen = time.Now()
}

func (c *Connection) seenBefore(deadline time.Time) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastSeen.Before(deadline)
}

// Hub manages live client connections and delivers state-change events.
// Delivery is best-effort and non-blocking for the publisher: the durable
// state change has already committed before Publish is called, so a missed
// event is a liveness problem the client recovers from by polling.
type Hub struct {
	mu    sync.RWMutex
	conns map[Subject]map[string]*Connection

	heartbeatInterval time.Duration
	eventBuffer       int
}

// Option is a functional option for Hub configuration
type Option func(*Hub)

// WithHeartbeatInterval sets the expected client ping interval. Connections
// missing two consecutive intervals are reaped.
func WithHeartbeatInterval(interval time.Duration) Option {
	return func(h *Hub) {
		h.heartbeatInterval = interval
	}
}

// WithEventBuffer sets the per-connection event channel capacity
func WithEventBuffer(size int) Option {
	return func(h *Hub) {
		h.eventBuffer = size
	}
}

// New creates a Hub. Construct one per process and pass it by reference; it
// replaces any global connection registry.
func New(opts ...Option) *Hub {
	h := &Hub{
		conns:             make(map[Subject]map[string]*Connection),
		heartbeatInterval: DefaultHeartbeatInterval,
		eventBuffer:       DefaultEventBuffer,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Subscribe registers a live connection for a subject
func (h *Hub) Subscribe(subject Subject) *Connection {
	conn := &Connection{
		id:       uuid.Must(uuid.NewV7()).String(),
		subject:  subject,
		events:   make(chan *model.Event, h.eventBuffer),
		lastSeen: time.Now(),
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if _, exists := h.conns[subject]; !exists {
		h.conns[subject] = make(map[string]*Connection)
	}
	h.conns[subject][conn.id] = conn

	return conn
}

// Unsubscribe removes a connection. Idempotent: safe to call on an already
// removed connection.
func (h *Hub) Unsubscribe(conn *Connection) {
	if conn == nil {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.removeLocked(conn)
}

func (h *Hub) removeLocked(conn *Connection) {
	conn.mu.Lock()
	alreadyClosed := conn.closed
	conn.closed = true
	conn.mu.Unlock()

	if alreadyClosed {
		return
	}

	if bucket, exists := h.conns[conn.subject]; exists {
		delete(bucket, conn.id)
		if len(bucket) == 0 {
			delete(h.conns, conn.subject)
		}
	}
	close(conn.events)
}

// Touch records a client liveness ping
func (h *Hub) Touch(conn *Connection) {
	if conn == nil {
		return
	}
	conn.touch()
}

// Publish delivers the event to every connection currently subscribed to the
// subject. A slow or dead connection only loses its own delivery: the send is
// non-blocking and other subscribers are unaffected.
func (h *Hub) Publish(ctx context.Context, subject Subject, event *model.Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	bucket, exists := h.conns[subject]
	if !exists {
		return
	}

	for _, conn := range bucket {
		select {
		case conn.events <- event:
		default:
			logging.From(ctx).Warn("dropping event for slow subscriber",
				"connection_id", conn.id,
				"subject", string(subject),
				"event_type", string(event.Type))
		}
	}
}

// Run reaps dead connections until the context is cancelled. A connection is
// dead once it has missed two consecutive heartbeat intervals.
func (h *Hub) Run(ctx context.Context) error {
	ticker := time.NewTicker(h.heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			h.reap(ctx)
		case <-ctx.Done():
			return nil
		}
	}
}

func (h *Hub) reap(ctx context.Context) {
	deadline := time.Now().Add(-2 * h.heartbeatInterval)

	h.mu.Lock()
	defer h.mu.Unlock()

	for _, bucket := range h.conns {
		for _, conn := range bucket {
			if conn.seenBefore(deadline) {
				logging.From(ctx).Info("reaping dead connection",
					"connection_id", conn.id,
					"subject", string(conn.subject))
				h.removeLocked(conn)
			}
		}
	}
}

// Subscribers returns the number of live connections for a subject
func (h *Hub) Subscribers(subject Subject) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns[subject])
}
