package channel

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

var testUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// startEventServer serves a WebSocket endpoint that writes each frame in
// frames and then waits for the client to go away.
func startEventServer(t *testing.T, frames []string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := testUpgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade failed: %v", err)
			return
		}
		defer conn.Close()

		for _, f := range frames {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(f)); err != nil {
				return
			}
		}

		// Hold the connection open until the client closes it.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestWebSocketChannelDeliversEnvelopes(t *testing.T) {
	srv := startEventServer(t, []string{
		`{"data": {"type": "AgentOfferContact", "interactionId": "intx-1"}}`,
		`{"keepalive": "true"}`,
		`not even json`,
		`{"data": {"type": "ContactEnded", "interactionId": "intx-1"}}`,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := DialWebSocket(ctx, wsURL(srv), nil, DefaultWebSocketConfig())
	if err != nil {
		t.Fatalf("DialWebSocket failed: %v", err)
	}

	runDone := make(chan struct{})
	go func() {
		ch.Run(ctx)
		close(runDone)
	}()

	want := []EventType{EventContactOffered, "", EventContactEnded}
	for i, wt := range want {
		select {
		case env, ok := <-ch.Events():
			if !ok {
				t.Fatalf("feed closed early at envelope %d", i)
			}
			if wt == "" {
				if !env.Keepalive {
					t.Errorf("envelope %d: expected keepalive", i)
				}
				continue
			}
			if env.Data == nil || env.Data.Type != wt {
				t.Errorf("envelope %d: got %+v, want type %q", i, env, wt)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for envelope %d", i)
		}
	}

	cancel()
	select {
	case <-runDone:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}

	// The feed must drain to closed after shutdown.
	select {
	case _, ok := <-ch.Events():
		if ok {
			t.Error("unexpected extra envelope after shutdown")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("feed never closed")
	}
}

func TestWebSocketChannelCloseIdempotent(t *testing.T) {
	srv := startEventServer(t, nil)

	ch, err := DialWebSocket(context.Background(), wsURL(srv), nil, DefaultWebSocketConfig())
	if err != nil {
		t.Fatalf("DialWebSocket failed: %v", err)
	}
	if err := ch.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := ch.Close(); err != nil {
		t.Fatalf("second Close failed: %v", err)
	}
}

func TestWebSocketChannelRunStopsOnServerClose(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := testUpgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		conn.Close()
	}))
	defer srv.Close()

	ch, err := DialWebSocket(context.Background(), wsURL(srv), nil, DefaultWebSocketConfig())
	if err != nil {
		t.Fatalf("DialWebSocket failed: %v", err)
	}

	done := make(chan struct{})
	go func() {
		ch.Run(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after server closed the connection")
	}
}
