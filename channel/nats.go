package channel

import (
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
)

// NATSChannel implements EventChannel over a NATS subject subscription.
// Sessions whose notification fan-out runs through a broker instead of a
// direct socket use this backend.
type NATSChannel struct {
	conn   *nats.Conn
	sub    *nats.Subscription
	config NATSConfig

	events   chan *Envelope
	mu       sync.Mutex
	closed   bool
	ownsConn bool
}

// NATSConfig holds NATS channel configuration.
type NATSConfig struct {
	Config // Embed base config

	// URL is the NATS server URL (e.g., "nats://localhost:4222").
	URL string

	// Subject carrying the session's routing notifications.
	Subject string

	// Name is the client name for identification.
	Name string

	// Token for token-based auth.
	Token string

	// User and Password for basic auth.
	User     string
	Password string

	// ReconnectWait is the time to wait between reconnection attempts.
	ReconnectWait time.Duration

	// MaxReconnects is the maximum number of reconnection attempts.
	// -1 = unlimited
	MaxReconnects int

	// ConnectTimeout for initial connection.
	ConnectTimeout time.Duration
}

// DefaultNATSConfig returns configuration with sensible defaults.
func DefaultNATSConfig() NATSConfig {
	return NATSConfig{
		Config:         DefaultConfig(),
		URL:            nats.DefaultURL,
		ReconnectWait:  2 * time.Second,
		MaxReconnects:  -1, // Unlimited
		ConnectTimeout: 5 * time.Second,
	}
}

// NewNATSChannel connects to NATS and subscribes to the configured subject.
func NewNATSChannel(cfg NATSConfig) (*NATSChannel, error) {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = DefaultConfig().BufferSize
	}
	if cfg.URL == "" {
		cfg.URL = nats.DefaultURL
	}
	if cfg.Subject == "" {
		return nil, fmt.Errorf("nats channel: subject required")
	}

	conn, err := nats.Connect(cfg.URL, buildNATSOptions(cfg)...)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	c, err := newNATSChannelFromConn(conn, cfg, true)
	if err != nil {
		conn.Close()
		return nil, err
	}
	return c, nil
}

// NewNATSChannelFromConn subscribes on an existing connection. The
// connection stays open after Close.
func NewNATSChannelFromConn(conn *nats.Conn, cfg NATSConfig) (*NATSChannel, error) {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = DefaultConfig().BufferSize
	}
	if cfg.Subject == "" {
		return nil, fmt.Errorf("nats channel: subject required")
	}
	return newNATSChannelFromConn(conn, cfg, false)
}

func newNATSChannelFromConn(conn *nats.Conn, cfg NATSConfig, ownsConn bool) (*NATSChannel, error) {
	c := &NATSChannel{
		conn:     conn,
		config:   cfg,
		events:   make(chan *Envelope, cfg.BufferSize),
		ownsConn: ownsConn,
	}

	sub, err := conn.Subscribe(cfg.Subject, func(m *nats.Msg) {
		env, parseErr := ParseEnvelope(m.Data)
		if parseErr != nil {
			return
		}
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.closed {
			return
		}
		select {
		case c.events <- env:
		default:
			// Buffer full, drop frame
		}
	})
	if err != nil {
		close(c.events)
		return nil, fmt.Errorf("nats subscribe: %w", err)
	}
	c.sub = sub
	return c, nil
}

// buildNATSOptions constructs NATS connection options from config.
func buildNATSOptions(cfg NATSConfig) []nats.Option {
	opts := []nats.Option{
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.Timeout(cfg.ConnectTimeout),
	}

	if cfg.Name != "" {
		opts = append(opts, nats.Name(cfg.Name))
	}
	if cfg.Token != "" {
		opts = append(opts, nats.Token(cfg.Token))
	}
	if cfg.User != "" {
		opts = append(opts, nats.UserInfo(cfg.User, cfg.Password))
	}

	return opts
}

// Events returns the feed of parsed envelopes.
func (c *NATSChannel) Events() <-chan *Envelope {
	return c.events
}

// Close unsubscribes, closes the feed, and closes the connection if this
// channel opened it.
func (c *NATSChannel) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	err := c.sub.Unsubscribe()

	// Handlers check closed under mu before sending, so closing under mu
	// cannot race an in-flight delivery.
	c.mu.Lock()
	close(c.events)
	c.mu.Unlock()

	if c.ownsConn {
		c.conn.Close()
	}
	return err
}

var _ EventChannel = (*NATSChannel)(nil)
