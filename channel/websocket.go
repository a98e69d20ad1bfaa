package channel

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// WebSocketChannel implements EventChannel over a WebSocket connection.
// It owns the read loop and keep-alive pings; reconnection is the owner's
// concern (the feed closes and the owner decides).
type WebSocketChannel struct {
	conn   *websocket.Conn
	config WebSocketConfig

	events chan *Envelope
	done   chan struct{}
	mu     sync.Mutex
	closed bool
}

// WebSocketConfig holds WebSocket channel configuration.
type WebSocketConfig struct {
	Config // Embed base config

	// WriteTimeout for control frames.
	WriteTimeout time.Duration

	// MaxMessageSize limits incoming frame size.
	MaxMessageSize int64

	// PingInterval for keepalive pings (0 = disabled).
	PingInterval time.Duration
}

// DefaultWebSocketConfig returns configuration with sensible defaults.
func DefaultWebSocketConfig() WebSocketConfig {
	return WebSocketConfig{
		Config:         DefaultConfig(),
		WriteTimeout:   10 * time.Second,
		MaxMessageSize: 1024 * 1024, // 1MB
		PingInterval:   30 * time.Second,
	}
}

// NewWebSocketChannel creates a channel from an existing connection.
func NewWebSocketChannel(conn *websocket.Conn, cfg WebSocketConfig) *WebSocketChannel {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = DefaultConfig().BufferSize
	}

	conn.SetReadLimit(cfg.MaxMessageSize)

	return &WebSocketChannel{
		conn:   conn,
		config: cfg,
		events: make(chan *Envelope, cfg.BufferSize),
		done:   make(chan struct{}),
	}
}

// DialWebSocket connects to url and returns a channel over the connection.
func DialWebSocket(ctx context.Context, url string, header http.Header, cfg WebSocketConfig) (*WebSocketChannel, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, header)
	if err != nil {
		return nil, err
	}
	return NewWebSocketChannel(conn, cfg), nil
}

// Events returns the feed of parsed envelopes.
func (c *WebSocketChannel) Events() <-chan *Envelope {
	return c.events
}

// Run starts the read and ping loops, blocking until the context is
// cancelled or the connection drops. The feed is closed on return.
func (c *WebSocketChannel) Run(ctx context.Context) error {
	var wg sync.WaitGroup
	wg.Add(2)

	// Cancellation must unblock the read, so closing the connection is the
	// only reliable interrupt.
	go func() {
		defer wg.Done()
		select {
		case <-ctx.Done():
			c.Close()
		case <-c.done:
		}
	}()

	go func() {
		defer wg.Done()
		c.pingLoop(ctx)
	}()

	c.readLoop(ctx)
	c.Close()
	wg.Wait()
	return ctx.Err()
}

// Close initiates shutdown and closes the feed.
func (c *WebSocketChannel) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	close(c.done)
	c.mu.Unlock()

	c.conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second),
	)

	return c.conn.Close()
}

// readLoop reads frames, parses envelopes, and delivers them in order.
// Unparseable frames are skipped; the core logs drops at dispatch level,
// the transport just keeps reading. The feed closes when the loop exits.
func (c *WebSocketChannel) readLoop(ctx context.Context) {
	defer close(c.events)

	for {
		select {
		case <-ctx.Done():
			return
		case <-c.done:
			return
		default:
		}

		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		env, parseErr := ParseEnvelope(data)
		if parseErr != nil {
			continue
		}

		select {
		case c.events <- env:
		case <-ctx.Done():
			return
		case <-c.done:
			return
		}
	}
}

// pingLoop sends keepalive pings at the configured interval.
func (c *WebSocketChannel) pingLoop(ctx context.Context) {
	if c.config.PingInterval <= 0 {
		select {
		case <-ctx.Done():
		case <-c.done:
		}
		return
	}

	ticker := time.NewTicker(c.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-c.done:
			return
		case <-ticker.C:
			c.writePing()
		}
	}
}

func (c *WebSocketChannel) writePing() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(c.config.WriteTimeout))
}

var _ EventChannel = (*WebSocketChannel)(nil)
