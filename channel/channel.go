// Package channel delivers parsed routing notifications to the desk core.
//
// The core consumes a single serial feed of envelopes; how the feed stays
// alive (reconnection, backoff, auth) is the owner's concern. Three
// backends are provided: an in-process channel for tests and composition,
// a WebSocket channel, and a NATS channel.
package channel

import "errors"

// Common errors.
var (
	ErrClosed = errors.New("channel closed")
)

// EventChannel is a serial feed of parsed envelopes. The feed channel is
// closed when the backend shuts down; consumers decide what closure means.
type EventChannel interface {
	// Events returns the feed of parsed envelopes.
	Events() <-chan *Envelope

	// Close shuts the channel down and closes the feed.
	Close() error
}

// Config holds common channel configuration.
type Config struct {
	// BufferSize for the feed channel.
	// Default: 256
	BufferSize int
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() Config {
	return Config{
		BufferSize: 256,
	}
}
