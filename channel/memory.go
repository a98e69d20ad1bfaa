package channel

import (
	"sync"
	"sync/atomic"
)

// MemoryChannel implements EventChannel over an in-process Go channel.
// Useful for tests and single-process composition: the publishing side is
// whatever drives the test or simulation.
type MemoryChannel struct {
	config Config
	ch     chan *Envelope
	closed atomic.Bool
	mu     sync.Mutex
}

// NewMemoryChannel creates a new in-process event channel.
func NewMemoryChannel(cfg Config) *MemoryChannel {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = DefaultConfig().BufferSize
	}
	return &MemoryChannel{
		config: cfg,
		ch:     make(chan *Envelope, cfg.BufferSize),
	}
}

// Publish delivers an envelope to the feed. Blocks when the buffer is
// full, preserving serial delivery order.
func (c *MemoryChannel) Publish(env *Envelope) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed.Load() {
		return ErrClosed
	}
	c.ch <- env
	return nil
}

// PublishRaw parses and delivers a raw frame, mirroring what a transport
// backend would do.
func (c *MemoryChannel) PublishRaw(raw []byte) error {
	env, err := ParseEnvelope(raw)
	if err != nil {
		return err
	}
	return c.Publish(env)
}

// Events returns the feed of parsed envelopes.
func (c *MemoryChannel) Events() <-chan *Envelope {
	return c.ch
}

// Close shuts the channel down and closes the feed.
func (c *MemoryChannel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed.Swap(true) {
		return nil
	}
	close(c.ch)
	return nil
}

var _ EventChannel = (*MemoryChannel)(nil)
