package channel

import (
	"testing"
	"time"
)

func TestMemoryChannelPublish(t *testing.T) {
	ch := NewMemoryChannel(Config{BufferSize: 4})
	defer ch.Close()

	env := &Envelope{Data: &ContactEvent{Type: EventContactOffered, InteractionID: "intx-1"}}
	if err := ch.Publish(env); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	select {
	case got := <-ch.Events():
		if got.Data.InteractionID != "intx-1" {
			t.Errorf("InteractionID = %q", got.Data.InteractionID)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for envelope")
	}
}

func TestMemoryChannelPublishRaw(t *testing.T) {
	ch := NewMemoryChannel(Config{})
	defer ch.Close()

	err := ch.PublishRaw([]byte(`{"data": {"type": "ContactEnded", "interactionId": "intx-2"}}`))
	if err != nil {
		t.Fatalf("PublishRaw failed: %v", err)
	}

	got := <-ch.Events()
	if got.Data.Type != EventContactEnded {
		t.Errorf("event type = %q", got.Data.Type)
	}

	if err := ch.PublishRaw([]byte(`{bad`)); err == nil {
		t.Error("malformed raw payload should error")
	}
}

func TestMemoryChannelClose(t *testing.T) {
	ch := NewMemoryChannel(Config{})
	if err := ch.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := ch.Close(); err != nil {
		t.Fatalf("second Close failed: %v", err)
	}
	if err := ch.Publish(&Envelope{}); err != ErrClosed {
		t.Errorf("Publish after Close: err = %v, want ErrClosed", err)
	}
	if _, ok := <-ch.Events(); ok {
		t.Error("Events channel should be closed")
	}
}
