package sse

import (
	"bufio"
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/kbukum/statekit/logger"
	"github.com/kbukum/statekit/observability"
	"github.com/kbukum/statekit/store"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("net/http.(*persistConn).readLoop"),
		goleak.IgnoreTopFunction("net/http.(*persistConn).writeLoop"),
		goleak.IgnoreTopFunction("internal/poll.runtime_pollWait"),
	)
}

func runHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub(logger.Nop())
	done := make(chan struct{})
	go func() {
		hub.Run()
		close(done)
	}()
	t.Cleanup(func() {
		hub.Stop()
		<-done
	})
	return hub
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func recv(t *testing.T, c *Client) Event {
	t.Helper()
	select {
	case ev, ok := <-c.Events():
		if !ok {
			t.Fatal("channel closed")
		}
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("no event")
	}
	return Event{}
}

func TestClientSendDropsWhenFull(t *testing.T) {
	c := NewClient("state:a")
	for i := 0; i < clientBuffer; i++ {
		if !c.Send(Event{Name: "x"}) {
			t.Fatalf("send %d failed early", i)
		}
	}
	if c.Send(Event{Name: "overflow"}) {
		t.Error("send to a full buffer must fail")
	}
}

func TestEventFraming(t *testing.T) {
	var buf bytes.Buffer
	if _, err := (Event{Name: EventTypeState, ID: "7", Data: []byte(`{"n":1}`)}).WriteTo(&buf); err != nil {
		t.Fatal(err)
	}
	want := "id: 7\nevent: state\ndata: {\"n\":1}\n\n"
	if buf.String() != want {
		t.Errorf("got %q, want %q", buf.String(), want)
	}

	buf.Reset()
	_, _ = Event{Data: []byte("x")}.WriteTo(&buf)
	if buf.String() != "data: x\n\n" {
		t.Errorf("bare event = %q", buf.String())
	}
}

func TestHubPatternBroadcast(t *testing.T) {
	hub := runHub(t)
	a, b, other := NewClient("state:a"), NewClient("state:b"), NewClient("debug:c")
	for _, c := range []*Client{a, b, other} {
		hub.Register(c)
	}
	waitFor(t, func() bool { return hub.ClientCount() == 3 })

	hub.BroadcastToPattern("state:*", Event{Name: EventTypeState, Data: []byte("1")})
	if got := recv(t, a); string(got.Data) != "1" {
		t.Errorf("a got %q", got.Data)
	}
	if got := recv(t, b); string(got.Data) != "1" {
		t.Errorf("b got %q", got.Data)
	}
	hub.BroadcastToPattern("debug:c", Event{Data: []byte("2")})
	if got := recv(t, other); string(got.Data) != "2" {
		t.Errorf("other got %q; pattern leaked", got.Data)
	}

	hub.Unregister(a)
	waitFor(t, func() bool { return hub.ClientCount() == 2 })
	if _, ok := <-a.Events(); ok {
		t.Error("unregistered client channel must be closed")
	}
}

func TestHubStopClosesClients(t *testing.T) {
	hub := NewHub(nil)
	done := make(chan struct{})
	go func() { hub.Run(); close(done) }()

	c := NewClient("state:a")
	hub.Register(c)
	hub.Stop()
	hub.Stop()
	<-done

	if _, ok := <-c.Events(); ok {
		t.Error("client should be closed on stop")
	}
	if hub.Register(NewClient("late")) {
		t.Error("register after stop must fail")
	}
	hub.BroadcastToPattern("*", Event{})
	hub.Unregister(c)
}

type inc struct{}

func (inc) Type() string { return "counter/inc" }

func TestPublishState(t *testing.T) {
	hub := runHub(t)
	st := store.New(func(n int, a store.Action) int {
		if _, ok := a.(inc); ok {
			return n + 1
		}
		return n
	}, 0)
	stop := PublishState[int](hub, st, "state:*", EventTypeState, nil)
	defer stop()

	c := NewClient("state:x")
	hub.Register(c)
	waitFor(t, func() bool { return hub.ClientCount() == 1 })

	if err := st.Dispatch(context.Background(), inc{}); err != nil {
		t.Fatal(err)
	}
	ev := recv(t, c)
	if ev.Name != EventTypeState || ev.ID != "1" || string(ev.Data) != "1" {
		t.Errorf("event = %+v", ev)
	}
}

func TestHandlerStreamsSnapshots(t *testing.T) {
	hub := runHub(t)
	st := store.New(func(n int, a store.Action) int {
		if _, ok := a.(inc); ok {
			return n + 1
		}
		return n
	}, 41)
	stop := PublishState[int](hub, st, "state:*", EventTypeState, logger.Nop())
	defer stop()

	h := NewHandler(hub, time.Hour)
	h.Initial = func() (Event, error) { return Snapshot(st, EventTypeState) }
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.Serve(w, r, "state:test")
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("content type = %s", ct)
	}

	lines := make(chan string, 32)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(resp.Body)
		for sc.Scan() {
			lines <- sc.Text()
		}
	}()
	readUntil := func(prefix string) string {
		t.Helper()
		timeout := time.After(2 * time.Second)
		for {
			select {
			case l, ok := <-lines:
				if !ok {
					t.Fatalf("stream ended before %q", prefix)
				}
				if strings.HasPrefix(l, prefix) {
					return l
				}
			case <-timeout:
				t.Fatalf("timed out waiting for %q", prefix)
			}
		}
	}

	readUntil("event: connected")
	readUntil("event: state")
	if got := readUntil("data: "); got != "data: 41" {
		t.Errorf("initial snapshot = %q", got)
	}

	waitFor(t, func() bool { return hub.ClientCount() == 1 })
	_ = st.Dispatch(context.Background(), inc{})
	readUntil("id: 1")
	if got := readUntil("data: "); got != "data: 42" {
		t.Errorf("pushed snapshot = %q", got)
	}

	cancel()
	waitFor(t, func() bool { return hub.ClientCount() == 0 })
	for range lines {
	}
}

func TestComponentLifecycle(t *testing.T) {
	c := NewComponent(logger.Nop())
	ctx := context.Background()
	if h := c.Health(ctx); h.Status != observability.HealthStatusDown {
		t.Errorf("health before start = %s", h.Status)
	}
	if err := c.Start(ctx); err != nil {
		t.Fatal(err)
	}
	if h := c.Health(ctx); h.Status != observability.HealthStatusUp || h.Details["clients"] != "0" {
		t.Errorf("health = %+v", h)
	}
	if err := c.Stop(ctx); err != nil {
		t.Fatal(err)
	}
}
