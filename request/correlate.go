package request

import (
	"sync"

	"github.com/contactdesk/deskcore/channel"
)

// outcome is a terminal notification delivered to a waiting request.
type outcome struct {
	event  *channel.ContactEvent
	failed bool
}

// bind ties one in-flight request to the notifications that settle it.
type bind struct {
	success map[channel.EventType]bool
	failure map[channel.EventType]bool
	done    chan outcome
}

func newBind(d Descriptor) *bind {
	b := &bind{
		success: make(map[channel.EventType]bool, len(d.SuccessTypes)),
		failure: make(map[channel.EventType]bool, len(d.FailureTypes)),
		done:    make(chan outcome, 1),
	}
	for _, t := range d.SuccessTypes {
		b.success[t] = true
	}
	for _, t := range d.FailureTypes {
		b.failure[t] = true
	}
	return b
}

// binder matches incoming notifications against in-flight requests,
// keyed by interaction id.
type binder struct {
	mu    sync.Mutex
	binds map[string][]*bind
}

func newBinder() *binder {
	return &binder{binds: make(map[string][]*bind)}
}

func (br *binder) add(interactionID string, b *bind) {
	br.mu.Lock()
	defer br.mu.Unlock()
	br.binds[interactionID] = append(br.binds[interactionID], b)
}

func (br *binder) remove(interactionID string, b *bind) {
	br.mu.Lock()
	defer br.mu.Unlock()
	list := br.binds[interactionID]
	for i, cand := range list {
		if cand == b {
			list = append(list[:i], list[i+1:]...)
			break
		}
	}
	if len(list) == 0 {
		delete(br.binds, interactionID)
	} else {
		br.binds[interactionID] = list
	}
}

// observe settles any bind whose success or failure set contains the
// notification type. Settled binds are removed; each settles at most
// once because the done channel has capacity one and the bind is
// dropped immediately after delivery.
func (br *binder) observe(env *channel.Envelope) {
	if env == nil || env.Data == nil {
		return
	}
	id := env.Data.ID()
	if id == "" {
		return
	}

	br.mu.Lock()
	defer br.mu.Unlock()

	list := br.binds[id]
	if len(list) == 0 {
		return
	}

	var remaining []*bind
	for _, b := range list {
		switch {
		case b.success[env.Data.Type]:
			b.done <- outcome{event: env.Data}
		case b.failure[env.Data.Type]:
			b.done <- outcome{event: env.Data, failed: true}
		default:
			remaining = append(remaining, b)
		}
	}

	if len(remaining) == 0 {
		delete(br.binds, id)
	} else {
		br.binds[id] = remaining
	}
}
