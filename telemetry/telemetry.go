// Package telemetry records operational facts about an agent session:
// command outcomes, task churn, dropped envelopes, auto wrap-up
// submissions. Facts flow through an Exporter; the core never blocks on
// export.
package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"
)

// Exporter receives session facts.
type Exporter interface {
	// LogEvent records one named fact with its attributes.
	LogEvent(name string, data map[string]interface{})
	// Flush pushes anything buffered to the sink.
	Flush() error
	// Close flushes and releases the sink.
	Close() error
}

// Event is one recorded fact.
type Event struct {
	Name string                 `json:"name"`
	At   time.Time              `json:"at"`
	Data map[string]interface{} `json:"data,omitempty"`
}

// NewExporter builds an exporter for the configured protocol: "http"
// posts batches to endpoint, "file" appends jsonl to endpoint as a
// path, "" or "noop" discards.
func NewExporter(protocol, endpoint string) (Exporter, error) {
	switch protocol {
	case "http":
		return NewHTTPExporter(endpoint), nil
	case "file":
		return NewFileExporter(endpoint)
	case "noop", "":
		return NewNoopExporter(), nil
	default:
		return nil, fmt.Errorf("unknown telemetry protocol: %s", protocol)
	}
}

// httpFlushAt is the buffered-fact count that triggers an automatic
// flush.
const httpFlushAt = 100

// HTTPExporter batches facts and posts them to a collector endpoint.
type HTTPExporter struct {
	collector string
	client    *http.Client

	mu     sync.Mutex
	buffer []Event
}

// NewHTTPExporter builds an exporter posting to collector.
func NewHTTPExporter(collector string) *HTTPExporter {
	return &HTTPExporter{
		collector: collector,
		client:    &http.Client{Timeout: 10 * time.Second},
		buffer:    make([]Event, 0, httpFlushAt),
	}
}

func (e *HTTPExporter) LogEvent(name string, data map[string]interface{}) {
	e.mu.Lock()
	e.buffer = append(e.buffer, Event{Name: name, At: time.Now(), Data: data})
	full := len(e.buffer) >= httpFlushAt
	e.mu.Unlock()

	if full {
		e.Flush()
	}
}

// Flush posts the buffered batch. The HTTP exchange runs outside the
// lock so recording never waits on the collector; a failed post puts
// the batch back for the next attempt.
func (e *HTTPExporter) Flush() error {
	e.mu.Lock()
	if len(e.buffer) == 0 {
		e.mu.Unlock()
		return nil
	}
	batch := e.buffer
	e.buffer = make([]Event, 0, httpFlushAt)
	e.mu.Unlock()

	if err := e.post(batch); err != nil {
		e.mu.Lock()
		e.buffer = append(batch, e.buffer...)
		e.mu.Unlock()
		return err
	}
	return nil
}

func (e *HTTPExporter) post(batch []Event) error {
	payload, err := json.Marshal(batch)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.collector, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("telemetry collector returned %d", resp.StatusCode)
	}
	return nil
}

func (e *HTTPExporter) Close() error {
	return e.Flush()
}

// FileExporter appends facts to a file, one JSON object per line.
type FileExporter struct {
	mu   sync.Mutex
	file *os.File
	enc  *json.Encoder
}

// NewFileExporter opens (or creates) path for appending.
func NewFileExporter(path string) (*FileExporter, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("open telemetry file: %w", err)
	}
	return &FileExporter{file: file, enc: json.NewEncoder(file)}, nil
}

func (e *FileExporter) LogEvent(name string, data map[string]interface{}) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.enc.Encode(Event{Name: name, At: time.Now(), Data: data})
}

func (e *FileExporter) Flush() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.file.Sync()
}

func (e *FileExporter) Close() error {
	e.Flush()
	return e.file.Close()
}

// NoopExporter discards every fact.
type NoopExporter struct{}

// NewNoopExporter returns the discarding exporter.
func NewNoopExporter() *NoopExporter {
	return &NoopExporter{}
}

func (e *NoopExporter) LogEvent(name string, data map[string]interface{}) {}
func (e *NoopExporter) Flush() error                                      { return nil }
func (e *NoopExporter) Close() error                                      { return nil }
