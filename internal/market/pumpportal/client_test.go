package pumpportal

import (
	"context"
	"net/http"
	"net/http/httptest"
	"runtime"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

// flappingServer accepts the WebSocket upgrade and immediately drops the
// connection, forcing the client through its reconnect path.
func flappingServer(t *testing.T, connects *int32) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		atomic.AddInt32(connects, 1)
		conn.Close()
	}))
}

func waitForConnects(t *testing.T, connects *int32, n int32) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for atomic.LoadInt32(connects) < n {
		if time.Now().After(deadline) {
			t.Fatalf("server saw only %d connects, want %d", atomic.LoadInt32(connects), n)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestRunReconnectsWithoutAccumulatingGoroutines(t *testing.T) {
	var connects int32
	server := flappingServer(t, &connects)
	defer server.Close()

	client := NewClient("ws"+strings.TrimPrefix(server.URL, "http"), quietLogger())
	client.reconnectWait = 5 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events := make(chan NewTokenEvent, 1)
	go client.Run(ctx, events)

	// Let a few reconnect cycles settle, then measure.
	waitForConnects(t, &connects, 5)
	runtime.GC()
	before := runtime.NumGoroutine()

	waitForConnects(t, &connects, 25)
	runtime.GC()
	after := runtime.NumGoroutine()

	// Each reconnect spawns a connection watcher that must exit with its
	// connection. Allow slack for scheduler noise, but 20 further
	// reconnects must not add 20 goroutines.
	if after > before+5 {
		t.Errorf("goroutines grew from %d to %d across reconnect cycles", before, after)
	}
}

func TestRunStopsOnContextCancel(t *testing.T) {
	var connects int32
	server := flappingServer(t, &connects)
	defer server.Close()

	client := NewClient("ws"+strings.TrimPrefix(server.URL, "http"), quietLogger())
	client.reconnectWait = 5 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	events := make(chan NewTokenEvent, 1)

	stopped := make(chan struct{})
	go func() {
		client.Run(ctx, events)
		close(stopped)
	}()

	waitForConnects(t, &connects, 1)
	cancel()

	select {
	case <-stopped:
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after context cancellation")
	}
}
