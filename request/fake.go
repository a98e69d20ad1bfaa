package request

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// FakeClient records descriptors and returns scripted results. Results
// are consumed in order; with none queued and no handler set, every
// request succeeds with a fresh tracking id.
type FakeClient struct {
	mu      sync.Mutex
	calls   []Descriptor
	queue   []fakeResult
	handler func(Descriptor) (*Response, error)
}

type fakeResult struct {
	resp *Response
	err  error
}

// NewFakeClient creates an empty fake.
func NewFakeClient() *FakeClient {
	return &FakeClient{}
}

// Stub queues one result.
func (f *FakeClient) Stub(resp *Response, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queue = append(f.queue, fakeResult{resp: resp, err: err})
}

// SetHandler routes every request through fn, bypassing the queue.
func (f *FakeClient) SetHandler(fn func(Descriptor) (*Response, error)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handler = fn
}

// Calls returns a copy of the recorded descriptors.
func (f *FakeClient) Calls() []Descriptor {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Descriptor, len(f.calls))
	copy(out, f.calls)
	return out
}

// LastCall returns the most recent descriptor, or false when none.
func (f *FakeClient) LastCall() (Descriptor, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.calls) == 0 {
		return Descriptor{}, false
	}
	return f.calls[len(f.calls)-1], true
}

// Request records the descriptor and returns the next scripted result.
func (f *FakeClient) Request(ctx context.Context, d Descriptor) (*Response, error) {
	f.mu.Lock()
	f.calls = append(f.calls, d)
	handler := f.handler
	var result *fakeResult
	if handler == nil && len(f.queue) > 0 {
		r := f.queue[0]
		f.queue = f.queue[1:]
		result = &r
	}
	f.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if handler != nil {
		return handler(d)
	}
	if result != nil {
		return result.resp, result.err
	}
	return &Response{TrackingID: uuid.NewString()}, nil
}

var _ Client = (*FakeClient)(nil)
