package hubclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"LiveEdge/internal/domain/models"
	"LiveEdge/internal/hub"
	applogger "LiveEdge/pkg/logger"
)

func newTestLogger(t *testing.T) *applogger.Logger {
	t.Helper()
	l, err := applogger.New(&applogger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return l
}

func startHub(t *testing.T) (string, context.CancelFunc) {
	t.Helper()
	h := hub.New(hub.Options{}, newTestLogger(t), nil)
	ctx, cancel := context.WithCancel(context.Background())
	go h.Run(ctx)

	srv := httptest.NewServer(http.HandlerFunc(h.ServeWS))
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http"), cancel
}

func waitConnected(t *testing.T, c *Client) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if c.Connected() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("client never connected")
}

func TestPublishRoundTrip(t *testing.T) {
	url, stopHub := startHub(t)
	defer stopHub()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c := New(url, 50*time.Millisecond, newTestLogger(t))
	envelopes := c.Run(ctx)
	waitConnected(t, c)

	if err := c.PublishPayload(models.KindSignal, models.Signal{ID: "s1", Entity: "Nuggets"}); err != nil {
		t.Fatalf("publish: %v", err)
	}

	// The hub echoes to the sender, so the published envelope comes back.
	select {
	case env := <-envelopes:
		if env.Type != models.KindSignal {
			t.Fatalf("unexpected kind %q", env.Type)
		}
		sig, err := models.DecodePayload[models.Signal](env)
		if err != nil || sig.ID != "s1" {
			t.Fatalf("payload mismatch: %+v err=%v", sig, err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no envelope received")
	}
}

func TestPublishWhileDisconnectedDropsSilently(t *testing.T) {
	c := New("ws://127.0.0.1:1/ws", 50*time.Millisecond, newTestLogger(t))
	if err := c.PublishPayload(models.KindSignal, models.Signal{ID: "s1"}); err != nil {
		t.Fatalf("disconnected publish should not error, got %v", err)
	}
}

func TestRunStopsOnContextCancel(t *testing.T) {
	url, stopHub := startHub(t)
	defer stopHub()

	ctx, cancel := context.WithCancel(context.Background())
	c := New(url, 50*time.Millisecond, newTestLogger(t))
	envelopes := c.Run(ctx)
	waitConnected(t, c)

	cancel()
	select {
	case _, ok := <-envelopes:
		if ok {
			// Drain anything in flight; the channel must close shortly.
			for range envelopes {
			}
		}
	case <-time.After(2 * time.Second):
		t.Fatal("envelope channel did not close")
	}
}
