// Package push maintains the client side of the server-pushed event stream:
// one logical websocket connection per session, typed event dispatch, and
// reconnect-with-backoff recovery after abnormal closures.
package push

import (
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/videogenai/videogen-go/internal/metrics"
	"github.com/videogenai/videogen-go/internal/models"
)

// State describes the connection lifecycle.
type State int

const (
	Disconnected State = iota
	Connecting
	Connected
)

// String returns the lowercase state name.
func (s State) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	default:
		return "disconnected"
	}
}

// ErrNotConnected is returned by Send when the channel is not open.
var ErrNotConnected = errors.New("push channel not connected")

// Handler receives decoded server events for a subscribed type.
type Handler func(models.ServerEvent)

// Endpoint derives the push endpoint from the backend origin, switching to
// the socket scheme (secure when the origin is secure).
func Endpoint(origin string) string {
	ws := origin
	ws = strings.Replace(ws, "https://", "wss://", 1)
	ws = strings.Replace(ws, "http://", "ws://", 1)
	return strings.TrimRight(ws, "/") + "/ws"
}

// Channel is a managed websocket connection to the push endpoint. The zero
// value is not usable; construct with NewChannel. All methods are safe for
// concurrent use.
type Channel struct {
	endpoint string
	dialer   websocket.Dialer
	policy   RetryPolicy
	metrics  *metrics.Collector

	mu         sync.Mutex
	conn       *websocket.Conn
	state      State
	userID     string
	failures   int
	foreground bool
	closed     bool
	exhausted  bool
	lastErr    error
	timer      *time.Timer

	writeMu sync.Mutex

	handlersMu sync.Mutex
	handlers   map[string]map[int]Handler
	nextID     int
}

// ChannelOption configures a Channel.
type ChannelOption func(*Channel)

// WithRetryPolicy overrides the reconnect policy. The default is the
// web-client profile (fixed 3s retry).
func WithRetryPolicy(p RetryPolicy) ChannelOption {
	return func(c *Channel) { c.policy = p }
}

// WithChannelMetrics attaches a metrics collector.
func WithChannelMetrics(m *metrics.Collector) ChannelOption {
	return func(c *Channel) { c.metrics = m }
}

// NewChannel creates a channel targeting the given websocket endpoint.
// The connection is not opened until Connect is called.
func NewChannel(endpoint string, opts ...ChannelOption) *Channel {
	c := &Channel{
		endpoint: endpoint,
		dialer: websocket.Dialer{
			HandshakeTimeout: 10 * time.Second,
		},
		policy:     FixedRetry{Delay: 3 * time.Second},
		foreground: true,
		handlers:   make(map[string]map[int]Handler),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns the current connection state.
func (c *Channel) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Err returns the most recent connection error, if any. Errors are recorded
// here rather than returned from Connect; the poller remains the fallback
// source of truth while the channel is down.
func (c *Channel) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// Connect opens the connection. It is idempotent: if the channel is already
// open or opening, or has been closed, it is a no-op. Dialing happens in the
// background; failures are observable via Err and recovered per the retry
// policy.
func (c *Channel) Connect() {
	c.mu.Lock()
	if c.closed || c.state != Disconnected {
		c.mu.Unlock()
		return
	}
	c.state = Connecting
	c.exhausted = false
	c.mu.Unlock()

	go c.dial()
}

func (c *Channel) dial() {
	conn, _, err := c.dialer.Dial(c.endpoint, nil)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		if conn != nil {
			conn.Close()
		}
		return
	}
	if err != nil {
		c.lastErr = err
		c.state = Disconnected
		c.mu.Unlock()
		slog.Warn("push channel dial failed", "endpoint", c.endpoint, "error", err)
		c.scheduleReconnect()
		return
	}

	c.conn = conn
	c.state = Connected
	c.failures = 0
	c.lastErr = nil
	userID := c.userID
	c.mu.Unlock()

	slog.Info("push channel connected", "endpoint", c.endpoint)

	if userID != "" {
		if err := c.Send(models.Auth{UserID: userID}); err != nil {
			slog.Warn("push channel auth send failed", "error", err)
		}
	}

	go c.readLoop(conn)
}

// Send serializes the event and transmits it. It fails with ErrNotConnected
// when the channel is not open; it never panics or blocks on a dead socket.
func (c *Channel) Send(ev models.ClientEvent) error {
	c.mu.Lock()
	conn := c.conn
	connected := c.state == Connected
	c.mu.Unlock()

	if !connected || conn == nil {
		return ErrNotConnected
	}

	frame, err := models.EncodeClientEvent(ev)
	if err != nil {
		return err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := conn.WriteJSON(frame); err != nil {
		return err
	}
	return nil
}

// SetIdentity records the authenticated user and, if a connection is open,
// immediately (re-)sends the auth frame.
func (c *Channel) SetIdentity(userID string) {
	c.mu.Lock()
	changed := c.userID != userID
	c.userID = userID
	connected := c.state == Connected
	c.mu.Unlock()

	if changed && connected && userID != "" {
		if err := c.Send(models.Auth{UserID: userID}); err != nil {
			slog.Warn("push channel re-auth failed", "error", err)
		}
	}
}

// On subscribes a handler to all inbound events of the given type and returns
// its disposer. Every subscriber registered at delivery time receives each
// event exactly once.
func (c *Channel) On(eventType string, h Handler) func() {
	c.handlersMu.Lock()
	defer c.handlersMu.Unlock()

	c.nextID++
	id := c.nextID
	if c.handlers[eventType] == nil {
		c.handlers[eventType] = make(map[int]Handler)
	}
	c.handlers[eventType][id] = h

	return func() {
		c.handlersMu.Lock()
		defer c.handlersMu.Unlock()
		delete(c.handlers[eventType], id)
	}
}

// SetForeground records the host application lifecycle state. Returning to
// the foreground resumes reconnect attempts that were exhausted while
// backgrounded.
func (c *Channel) SetForeground(foreground bool) {
	c.mu.Lock()
	c.foreground = foreground
	resume := foreground && c.exhausted && !c.closed
	if resume {
		c.failures = 0
		c.exhausted = false
	}
	c.mu.Unlock()

	if resume {
		c.Connect()
	}
}

// NetworkRestored signals that connectivity returned; exhausted reconnect
// attempts start over.
func (c *Channel) NetworkRestored() {
	c.mu.Lock()
	resume := !c.closed && c.state == Disconnected
	if resume {
		c.failures = 0
		c.exhausted = false
	}
	c.mu.Unlock()

	if resume {
		c.Connect()
	}
}

// Close tears the connection down with a normal closure. No reconnect is
// scheduled; the channel cannot be reused afterwards.
func (c *Channel) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.state = Disconnected
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()

	if conn == nil {
		return nil
	}

	c.writeMu.Lock()
	deadline := time.Now().Add(time.Second)
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
	c.writeMu.Unlock()

	return conn.Close()
}

// readLoop reads frames until the connection dies. Malformed frames are
// logged and discarded without disturbing the connection or other jobs.
func (c *Channel) readLoop(conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			c.handleClosure(conn, err)
			return
		}

		var frame models.Frame
		if err := json.Unmarshal(data, &frame); err != nil {
			slog.Warn("discarding unparseable frame", "error", err)
			continue
		}

		ev, err := models.DecodeServerEvent(frame)
		if err != nil {
			slog.Warn("discarding event", "type", frame.Type, "error", err)
			continue
		}

		c.metrics.RecordEvent(metrics.OpPushEvent)
		c.dispatch(frame.Type, ev)
	}
}

func (c *Channel) dispatch(eventType string, ev models.ServerEvent) {
	c.handlersMu.Lock()
	handlers := make([]Handler, 0, len(c.handlers[eventType]))
	for _, h := range c.handlers[eventType] {
		handlers = append(handlers, h)
	}
	c.handlersMu.Unlock()

	for _, h := range handlers {
		h(ev)
	}
}

func (c *Channel) handleClosure(conn *websocket.Conn, err error) {
	c.mu.Lock()
	if c.closed || c.conn != conn {
		c.mu.Unlock()
		return
	}
	c.conn = nil
	c.state = Disconnected

	normal := websocket.IsCloseError(err, websocket.CloseNormalClosure)
	if !normal {
		c.lastErr = err
	}
	c.mu.Unlock()

	if normal {
		slog.Info("push channel closed by server")
		return
	}

	slog.Warn("push channel lost", "error", err)
	c.scheduleReconnect()
}

func (c *Channel) scheduleReconnect() {
	c.mu.Lock()
	if c.closed || c.state != Disconnected {
		c.mu.Unlock()
		return
	}
	c.failures++
	delay, retry := c.policy.NextDelay(c.failures, c.foreground)
	if !retry {
		c.exhausted = true
		c.mu.Unlock()
		slog.Warn("push channel reconnect attempts exhausted", "failures", c.failures)
		return
	}
	c.state = Connecting
	c.timer = time.AfterFunc(delay, func() {
		c.metrics.RecordEvent(metrics.OpReconnect)
		c.dial()
	})
	failures := c.failures
	c.mu.Unlock()

	slog.Info("push channel reconnect scheduled", "attempt", failures, "delay", delay)
}
