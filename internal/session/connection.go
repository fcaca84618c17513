// Package session implements the transport-level connection (component
// B) and registry (component C) that sit between internal/wsapi's
// gorilla/websocket upgrade handler and ocpp/core.Service. Grounded on
// the teacher's server.WebSocket/messageReader shape, but split into a
// dedicated writer goroutine with a bounded outbound queue: the teacher
// calls conn.WriteMessage directly from whatever goroutine holds a
// response, which is unsafe for concurrent writers on the same
// gorilla/websocket connection once outbound commands and inbound
// call-results can be in flight at once.
package session

import (
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// DefaultOutboundQueueDepth bounds how many frames may be queued for a
// slow charge point before Send starts rejecting new ones.
const DefaultOutboundQueueDepth = 128

// ErrBackpressure is returned by Send when the outbound queue is full.
// Unlike the event bus, a dropped OCPP frame is a lost command or
// response, so a charge point that cannot keep up gets an explicit
// error instead of silent data loss.
var ErrBackpressure = errors.New("session: outbound queue full")

// ErrClosed is returned by Send once the connection has been closed.
var ErrClosed = errors.New("session: connection closed")

// Version identifies the OCPP subprotocol negotiated for a Connection.
type Version string

// wsConn is the subset of *websocket.Conn a Connection needs. Narrowing
// to an interface (rather than depending on *websocket.Conn directly)
// lets tests exercise the reader/writer goroutines with a fake socket.
type wsConn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// DisconnectHandler is invoked exactly once when a Connection's read
// or write loop ends, however that happens (peer close, write error,
// forced eviction). chargePointId identifies which session ended.
type DisconnectHandler func(chargePointId string)

// Connection wraps one upgraded websocket to a single charge point. Its
// writer runs on a goroutine started by NewConnection and its reader in
// ReadLoop, which the caller starts; callers never touch the underlying
// *websocket.Conn directly.
type Connection struct {
	ChargePointId string
	OcppVersion   Version
	ConnectedAt   time.Time

	conn    wsConn
	outbox  chan []byte
	onClose DisconnectHandler

	mu           sync.Mutex
	lastActivity time.Time
	closed       bool
	closeOnce    sync.Once
	done         chan struct{}
}

// ConnectionOption customizes a Connection at construction time.
type ConnectionOption func(*Connection)

// WithOutboundQueueDepth overrides DefaultOutboundQueueDepth, matching
// the configurable outbound_queue_capacity setting.
func WithOutboundQueueDepth(depth int) ConnectionOption {
	return func(c *Connection) {
		if depth > 0 {
			c.outbox = make(chan []byte, depth)
		}
	}
}

// NewConnection wraps conn and starts its writer goroutine. Callers
// must call ReadLoop (typically in its own goroutine) to start reading
// inbound frames; ReadLoop returns when the connection ends.
func NewConnection(chargePointId string, version Version, conn wsConn, onClose DisconnectHandler, opts ...ConnectionOption) *Connection {
	now := time.Now().UTC()
	c := &Connection{
		ChargePointId: chargePointId,
		OcppVersion:   version,
		ConnectedAt:   now,
		conn:          conn,
		outbox:        make(chan []byte, DefaultOutboundQueueDepth),
		onClose:       onClose,
		lastActivity:  now,
		done:          make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	go c.writeLoop()
	return c
}

// Send enqueues data for delivery. Non-blocking: returns ErrBackpressure
// immediately if the outbound queue is full rather than stalling the
// caller (typically the dispatcher or the domain service).
func (c *Connection) Send(data []byte) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	c.mu.Unlock()

	select {
	case c.outbox <- data:
		return nil
	default:
		return ErrBackpressure
	}
}

func (c *Connection) writeLoop() {
	for {
		select {
		case data, ok := <-c.outbox:
			if !ok {
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				c.Close()
				return
			}
		case <-c.done:
			return
		}
	}
}

// ReadLoop blocks reading inbound frames and invokes handle for each
// one, until the peer disconnects or handle's caller closes the
// connection. It always returns after triggering exactly one Close.
func (c *Connection) ReadLoop(handle func(data []byte)) {
	defer c.Close()
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		c.touch()
		handle(data)
	}
}

func (c *Connection) touch() {
	c.mu.Lock()
	c.lastActivity = time.Now().UTC()
	c.mu.Unlock()
}

// LastActivity reports the timestamp of the most recently received
// inbound frame, used by internal/liveness to detect stale sessions.
func (c *Connection) LastActivity() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastActivity
}

// IsStale reports whether no inbound frame has arrived for longer than
// timeout, mirroring the original implementation's staleness check.
func (c *Connection) IsStale(timeout time.Duration) bool {
	return time.Since(c.LastActivity()) > timeout
}

// Close idempotently tears down the connection: it stops the writer
// goroutine, closes the underlying socket, and fires the disconnect
// handler exactly once.
func (c *Connection) Close() {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closed = true
		c.mu.Unlock()

		close(c.done)
		_ = c.conn.Close()
		if c.onClose != nil {
			c.onClose(c.ChargePointId)
		}
	})
}
