package http_test

import (
	"errors"
	"net"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/fasthttp/websocket"

	handler "github.com/samirrijal/zonebuf/internal/adapters/http"
)

type fakeFeed struct {
	mu           sync.Mutex
	folder       string
	fn           func(data []byte)
	err          error
	subscribed   chan struct{}
	unsubscribed chan struct{}
}

func newFakeFeed() *fakeFeed {
	return &fakeFeed{subscribed: make(chan struct{}), unsubscribed: make(chan struct{})}
}

func (f *fakeFeed) SubscribeCompleted(folder string, fn func(data []byte)) (func(), error) {
	if f.err != nil {
		return nil, f.err
	}
	f.mu.Lock()
	f.folder, f.fn = folder, fn
	f.mu.Unlock()
	close(f.subscribed)
	return func() { close(f.unsubscribed) }, nil
}

func (f *fakeFeed) send(data []byte) {
	f.mu.Lock()
	fn := f.fn
	f.mu.Unlock()
	fn(data)
}

func wait(t *testing.T, ch <-chan struct{}, what string) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for %s", what)
	}
}

func TestZoneEvents_NotConfigured(t *testing.T) {
	app := setupApp(makeDeps())

	resp, err := app.Test(httptest.NewRequest("GET", "/v1/zones/ws", nil), -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 503 {
		t.Errorf("expected 503, got %d", resp.StatusCode)
	}
}

func TestZoneEvents_RequiresUpgrade(t *testing.T) {
	feed := newFakeFeed()
	app := setupApp(makeDeps(func(d *handler.Dependencies) { d.Events = feed }))

	resp, err := app.Test(httptest.NewRequest("GET", "/v1/zones/ws", nil), -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 426 {
		t.Errorf("expected 426, got %d", resp.StatusCode)
	}
}

func TestZoneEvents_RelaysCompletedZones(t *testing.T) {
	feed := newFakeFeed()
	app := setupApp(makeDeps(func(d *handler.Dependencies) { d.Events = feed }))

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	go func() { _ = app.Listener(ln) }()
	defer func() { _ = app.ShutdownWithTimeout(time.Second) }()

	conn, _, err := websocket.DefaultDialer.Dial("ws://"+ln.Addr().String()+"/v1/zones/ws?folder=Zone%205", nil)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	wait(t, feed.subscribed, "subscription")
	if feed.folder != "Zone 5" {
		t.Errorf("folder = %q, want Zone 5", feed.folder)
	}

	payload := `{"folder":"Zone 5","boundary_id":"b1"}`
	feed.send([]byte(payload))

	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	typ, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatal(err)
	}
	if typ != websocket.TextMessage || string(data) != payload {
		t.Errorf("got (%d) %s, want %s", typ, data, payload)
	}

	_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	wait(t, feed.unsubscribed, "unsubscribe after the client left")
}

func TestZoneEvents_SubscribeFailureClosesSocket(t *testing.T) {
	feed := newFakeFeed()
	feed.err = errors.New("nats down")
	app := setupApp(makeDeps(func(d *handler.Dependencies) { d.Events = feed }))

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	go func() { _ = app.Listener(ln) }()
	defer func() { _ = app.ShutdownWithTimeout(time.Second) }()

	conn, _, err := websocket.DefaultDialer.Dial("ws://"+ln.Addr().String()+"/v1/zones/ws", nil)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Error("expected the server to close the socket")
	}
}
