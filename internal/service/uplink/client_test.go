package uplink

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"TitaniumDesk/internal/domain/models"
	"TitaniumDesk/pkg/clock"

	"github.com/gorilla/websocket"
)

type fakeConn struct {
	frames chan []byte
	closed chan struct{}
	once   sync.Once

	mu      sync.Mutex
	written [][]byte
}

func newFakeConn() *fakeConn {
	return &fakeConn{frames: make(chan []byte, 16), closed: make(chan struct{})}
}

func (f *fakeConn) ReadMessage() (int, []byte, error) {
	select {
	case b := <-f.frames:
		return websocket.TextMessage, b, nil
	case <-f.closed:
		return 0, nil, errors.New("connection closed")
	}
}

func (f *fakeConn) WriteMessage(_ int, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.written = append(f.written, data)
	return nil
}

func (f *fakeConn) WriteControl(int, []byte, time.Time) error { return nil }
func (f *fakeConn) SetReadDeadline(time.Time) error           { return nil }
func (f *fakeConn) SetWriteDeadline(time.Time) error          { return nil }
func (f *fakeConn) SetPongHandler(func(string) error)         {}

func (f *fakeConn) Close() error {
	f.once.Do(func() { close(f.closed) })
	return nil
}

func (f *fakeConn) Written() [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]byte(nil), f.written...)
}

// fakeDialer fails the first failFirst dials, then hands out fresh fakeConns.
type fakeDialer struct {
	mu        sync.Mutex
	dials     int
	failFirst int
	gate      chan struct{}
	conns     []*fakeConn
}

func (d *fakeDialer) Dial(ctx context.Context, _ string) (Conn, error) {
	if d.gate != nil {
		select {
		case <-d.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dials++
	if d.dials <= d.failFirst {
		return nil, errors.New("connection refused")
	}
	c := newFakeConn()
	d.conns = append(d.conns, c)
	return c, nil
}

func (d *fakeDialer) Dials() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dials
}

func (d *fakeDialer) Conn(i int) *fakeConn {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.conns[i]
}

func inlineDial() Option {
	return func(c *Client) { c.spawn = func(f func()) { f() } }
}

func collect(c *Client) chan models.Event {
	ch := make(chan models.Event, 64)
	c.Subscribe(func(ev models.Event) { ch <- ev })
	return ch
}

func drain(ch chan models.Event) []models.Event {
	var out []models.Event
	for {
		select {
		case ev := <-ch:
			out = append(out, ev)
		default:
			return out
		}
	}
}

func waitFor(t *testing.T, ch chan models.Event, match func(models.Event) bool) models.Event {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case ev := <-ch:
			if match(ev) {
				return ev
			}
		case <-deadline:
			t.Fatalf("timed out waiting for event")
		}
	}
}

func isStatus(connected bool) func(models.Event) bool {
	return func(ev models.Event) bool {
		return ev.Type == models.EventSystemStatus && ev.Status.Connected != nil && *ev.Status.Connected == connected
	}
}

func TestReconnectDelayCapped(t *testing.T) {
	base := 3 * time.Second
	want := []time.Duration{3 * time.Second, 3 * time.Second, 6 * time.Second, 9 * time.Second, 9 * time.Second, 9 * time.Second}
	for attempt, w := range want {
		if got := ReconnectDelay(base, attempt); got != w {
			t.Fatalf("attempt %d: expected %v, got %v", attempt, w, got)
		}
	}
}

func TestBackoffUntilExhausted(t *testing.T) {
	clk := clock.NewFake(time.Unix(0, 0))
	d := &fakeDialer{failFirst: 100}
	c := New(Config{URL: "ws://desk/ws", BaseDelay: time.Second, MaxAttempts: 3},
		WithDialer(d), WithClock(clk), inlineDial())
	events := collect(c)

	c.Connect()
	if st := c.Stats(); st.State != models.LinkDisconnected || st.Attempts != 1 {
		t.Fatalf("after first failure: %+v", st)
	}

	clk.Advance(time.Second) // attempt 1 fires, schedules 2s
	if d.Dials() != 2 || c.Stats().Attempts != 2 {
		t.Fatalf("expected second dial, got dials=%d stats=%+v", d.Dials(), c.Stats())
	}
	clk.Advance(time.Second)
	if d.Dials() != 2 {
		t.Fatalf("reconnect fired before its 2s delay")
	}
	clk.Advance(time.Second) // attempt 2 fires, schedules 3s
	clk.Advance(3 * time.Second)

	st := c.Stats()
	if st.State != models.LinkExhausted {
		t.Fatalf("expected exhausted, got %+v", st)
	}
	if d.Dials() != 4 {
		t.Fatalf("expected 4 dials, got %d", d.Dials())
	}
	if clk.Pending() != 0 {
		t.Fatalf("no reconnect should be pending after giving up")
	}

	got := drain(events)
	if len(got) != 5 {
		t.Fatalf("expected 3 lost + 2 give-up announcements, got %d", len(got))
	}
	for _, ev := range got {
		if !isStatus(false)(ev) {
			t.Fatalf("unexpected event %+v", ev)
		}
	}

	c.Connect()
	if d.Dials() != 4 {
		t.Fatalf("connect after exhaustion must be a no-op")
	}
}

func TestOpenResetsAttempts(t *testing.T) {
	clk := clock.NewFake(time.Unix(0, 0))
	d := &fakeDialer{failFirst: 2}
	c := New(Config{URL: "ws://desk/ws", BaseDelay: time.Second, MaxAttempts: 5},
		WithDialer(d), WithClock(clk), inlineDial())
	events := collect(c)
	defer c.Close()

	c.Connect()
	clk.Advance(time.Second)
	if c.Stats().Attempts != 2 {
		t.Fatalf("expected 2 attempts, got %+v", c.Stats())
	}
	clk.Advance(2 * time.Second)

	st := c.Stats()
	if st.State != models.LinkOpen || st.Attempts != 0 || st.Opens != 1 {
		t.Fatalf("expected open with reset counter, got %+v", st)
	}
	waitFor(t, events, isStatus(true))

	d.Conn(0).Close()
	waitFor(t, events, isStatus(false))
	if st := c.Stats(); st.Attempts != 1 || st.State != models.LinkDisconnected {
		t.Fatalf("expected first reconnect after drop, got %+v", st)
	}
	if clk.Pending() != 1 {
		t.Fatalf("expected one pending reconnect, got %d", clk.Pending())
	}
}

func TestConnectWhileConnectingDialsOnce(t *testing.T) {
	d := &fakeDialer{gate: make(chan struct{})}
	c := New(Config{URL: "ws://desk/ws"}, WithDialer(d))
	events := collect(c)
	defer c.Close()

	c.Connect()
	c.Connect()
	if st := c.Stats(); st.State != models.LinkConnecting {
		t.Fatalf("expected connecting, got %+v", st)
	}
	close(d.gate)
	waitFor(t, events, isStatus(true))

	c.Connect()
	if d.Dials() != 1 {
		t.Fatalf("expected exactly one physical connection, got %d dials", d.Dials())
	}
}

func TestMalformedFrameDropped(t *testing.T) {
	d := &fakeDialer{}
	c := New(Config{URL: "ws://desk/ws"}, WithDialer(d), inlineDial())
	events := collect(c)
	defer c.Close()

	c.Connect()
	conn := d.Conn(0)
	conn.frames <- []byte(`{not json`)
	conn.frames <- []byte(`{"type":"TICKER","data":{"symbol":"XAU/USD","price":2040.5}}`)

	ev := waitFor(t, events, func(ev models.Event) bool { return ev.Type == models.EventTicker })
	if ev.Ticker.Price != 2040.5 {
		t.Fatalf("unexpected ticker %+v", ev.Ticker)
	}
	st := c.Stats()
	if st.Dropped != 1 || st.State != models.LinkOpen {
		t.Fatalf("malformed frame should be dropped without closing: %+v", st)
	}
}

func TestSendOnlyWhenOpen(t *testing.T) {
	d := &fakeDialer{}
	c := New(Config{URL: "ws://desk/ws"}, WithDialer(d), inlineDial())
	defer c.Close()

	c.Send("PING", map[string]any{"seq": 1})
	if d.Dials() != 0 {
		t.Fatalf("send must not trigger a connection")
	}

	c.Connect()
	c.Send("PING", map[string]any{"seq": 2})
	written := d.Conn(0).Written()
	if len(written) != 1 {
		t.Fatalf("expected 1 frame written, got %d", len(written))
	}
	var m map[string]any
	if err := json.Unmarshal(written[0], &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if m["type"] != "PING" || m["seq"].(float64) != 2 {
		t.Fatalf("unexpected frame %s", written[0])
	}
}

func TestCloseCancelsPendingReconnect(t *testing.T) {
	clk := clock.NewFake(time.Unix(0, 0))
	d := &fakeDialer{failFirst: 100}
	c := New(Config{URL: "ws://desk/ws", BaseDelay: time.Second}, WithDialer(d), WithClock(clk), inlineDial())

	c.Connect()
	if clk.Pending() != 1 {
		t.Fatalf("expected pending reconnect")
	}
	if err := c.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if clk.Pending() != 0 {
		t.Fatalf("close must cancel the pending reconnect")
	}
	clk.Advance(time.Minute)
	if d.Dials() != 1 || c.Stats().State != models.LinkClosed {
		t.Fatalf("unexpected state after close: dials=%d %+v", d.Dials(), c.Stats())
	}
}

func TestGorillaRoundTrip(t *testing.T) {
	upgrader := websocket.Upgrader{}
	received := make(chan []byte, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		_ = conn.WriteMessage(websocket.TextMessage,
			[]byte(`{"type":"LOG","data":{"id":"1","timestamp":"2024-10-10T10:10:10.000Z","level":"INFO","message":"hello"}}`))
		_, b, err := conn.ReadMessage()
		if err == nil {
			received <- b
		}
		_, _, _ = conn.ReadMessage()
	}))
	defer srv.Close()

	target, err := ResolveTarget("", srv.URL, "/ws")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	c := New(Config{URL: target, HandshakeTimeout: time.Second, PingInterval: time.Hour, PongWait: time.Minute})
	events := collect(c)
	defer c.Close()

	c.Connect()
	waitFor(t, events, isStatus(true))
	ev := waitFor(t, events, func(ev models.Event) bool { return ev.Type == models.EventLog })
	if ev.Log.Message != "hello" || ev.Log.Level != models.LevelInfo {
		t.Fatalf("unexpected log %+v", ev.Log)
	}

	c.Send("ACK", map[string]any{"id": "1"})
	select {
	case b := <-received:
		if !strings.Contains(string(b), `"type":"ACK"`) {
			t.Fatalf("unexpected outbound frame %s", b)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("server never received outbound frame")
	}
}
