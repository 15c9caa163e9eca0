package store

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/kbukum/statekit/logger"
)

type add struct{ N int }

func (add) Type() string { return "counter/add" }

type reset struct{}

func (reset) Type() string { return "counter/reset" }

type unknown struct{}

func (unknown) Type() string { return "counter/explode" }

func counter(state int, action Action) int {
	switch a := action.(type) {
	case add:
		return state + a.N
	case reset:
		return 0
	default:
		return state
	}
}

func TestDispatchReducesAndNotifies(t *testing.T) {
	ctx := context.Background()
	st := New(counter, 0)

	var seen []int
	st.Subscribe(func() { seen = append(seen, st.GetState()) })

	for _, a := range []Action{add{N: 2}, add{N: 3}, reset{}, add{N: 1}} {
		if err := st.Dispatch(ctx, a); err != nil {
			t.Fatalf("Dispatch(%T): %v", a, err)
		}
	}

	if diff := cmp.Diff([]int{2, 5, 0, 1}, seen); diff != "" {
		t.Errorf("notified states mismatch (-want +got):\n%s", diff)
	}
	if st.Version() != 4 {
		t.Errorf("version = %d, want 4", st.Version())
	}
}

func TestUnknownActionIsNoop(t *testing.T) {
	st := New(counter, 7)
	calls := 0
	st.Subscribe(func() { calls++ })

	if err := st.Dispatch(context.Background(), unknown{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if st.GetState() != 7 {
		t.Errorf("state = %d, want 7", st.GetState())
	}
	if calls != 1 {
		t.Errorf("listeners run after every dispatch, got %d calls", calls)
	}
}

func TestStrictStoreRejectsUnknownAction(t *testing.T) {
	st := NewStrict(Strict(counter, "counter/add", "counter/reset"), 1)
	calls := 0
	st.Subscribe(func() { calls++ })

	err := st.Dispatch(context.Background(), unknown{})
	if !stderrors.Is(err, ErrUnknownAction) {
		t.Fatalf("expected ErrUnknownAction, got %v", err)
	}
	if !strings.Contains(err.Error(), "counter/explode") {
		t.Errorf("error should name the action: %v", err)
	}
	if st.GetState() != 1 || st.Version() != 0 || calls != 0 {
		t.Errorf("rejected action must not change state or notify: state=%d version=%d calls=%d",
			st.GetState(), st.Version(), calls)
	}

	if err := st.Dispatch(context.Background(), add{N: 1}); err != nil {
		t.Fatalf("known action: %v", err)
	}
	if st.GetState() != 2 {
		t.Errorf("state = %d, want 2", st.GetState())
	}
}

func TestSubscribeDuringPassStartsNextPass(t *testing.T) {
	ctx := context.Background()
	st := New(counter, 0)

	var order []string
	var once sync.Once
	st.Subscribe(func() {
		order = append(order, "a")
		once.Do(func() {
			st.Subscribe(func() { order = append(order, "late") })
		})
	})
	st.Subscribe(func() { order = append(order, "b") })

	_ = st.Dispatch(ctx, add{N: 1})
	_ = st.Dispatch(ctx, add{N: 1})

	want := []string{"a", "b", "a", "b", "late"}
	if diff := cmp.Diff(want, order); diff != "" {
		t.Errorf("call order mismatch (-want +got):\n%s", diff)
	}
}

func TestUnsubscribeDuringPassSkipsListener(t *testing.T) {
	st := New(counter, 0)

	var order []string
	var unsubB func()
	st.Subscribe(func() {
		order = append(order, "a")
		unsubB()
	})
	unsubB = st.Subscribe(func() { order = append(order, "b") })
	st.Subscribe(func() { order = append(order, "c") })

	_ = st.Dispatch(context.Background(), add{N: 1})
	unsubB()

	if diff := cmp.Diff([]string{"a", "c"}, order); diff != "" {
		t.Errorf("call order mismatch (-want +got):\n%s", diff)
	}
}

func TestNestedDispatchQueuesNotification(t *testing.T) {
	ctx := context.Background()
	st := New(counter, 0)

	var trace []string
	st.Subscribe(func() {
		s := st.GetState()
		trace = append(trace, "first:"+itoa(s))
		if s == 1 {
			if err := st.Dispatch(ctx, add{N: 10}); err != nil {
				t.Errorf("nested dispatch: %v", err)
			}
			trace = append(trace, "after-nested:"+itoa(st.GetState()))
		}
	})
	st.Subscribe(func() { trace = append(trace, "second:"+itoa(st.GetState())) })

	if err := st.Dispatch(ctx, add{N: 1}); err != nil {
		t.Fatal(err)
	}

	want := []string{
		"first:1", "after-nested:11", "second:11",
		"first:11", "second:11",
	}
	if diff := cmp.Diff(want, trace); diff != "" {
		t.Errorf("trace mismatch (-want +got):\n%s", diff)
	}
}

func TestListenerPanicDoesNotStopPass(t *testing.T) {
	var buf bytes.Buffer
	st := New(counter, 0, WithLogger[int](logger.NewWriter(&buf, "debug")), WithName[int]("counter"))
	st.Subscribe(func() { panic("boom") })
	called := false
	st.Subscribe(func() { called = true })

	if err := st.Dispatch(context.Background(), add{N: 1}); err != nil {
		t.Fatal(err)
	}
	if !called {
		t.Error("listener after a panicking one must still run")
	}
	if !strings.Contains(buf.String(), "store listener panicked") {
		t.Errorf("panic not logged: %q", buf.String())
	}

	// the store must still accept dispatches afterwards
	if err := st.Dispatch(context.Background(), add{N: 1}); err != nil || st.GetState() != 2 {
		t.Fatalf("store wedged after panic: state=%d err=%v", st.GetState(), err)
	}
}

func TestConcurrentDispatch(t *testing.T) {
	st := New(counter, 0)
	var mu sync.Mutex
	notified := 0
	st.Subscribe(func() {
		mu.Lock()
		notified++
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = st.Dispatch(context.Background(), add{N: 1})
		}()
	}
	wg.Wait()

	if st.GetState() != 100 || st.Version() != 100 {
		t.Fatalf("state=%d version=%d, want 100/100", st.GetState(), st.Version())
	}
	mu.Lock()
	defer mu.Unlock()
	if notified != 100 {
		t.Errorf("notified = %d, want 100", notified)
	}
}

func TestGetStateSnapshot(t *testing.T) {
	type list struct{ Items []string }
	st := New(func(s list, a Action) list {
		if p, ok := a.(Plain); ok {
			items := append(append([]string(nil), s.Items...), string(p))
			return list{Items: items}
		}
		return s
	}, list{}, WithSnapshot(func(s list) list {
		return list{Items: append([]string(nil), s.Items...)}
	}))

	_ = st.Dispatch(context.Background(), Plain("packing/socks"))
	got := st.GetState()
	got.Items[0] = "mutated"

	if st.GetState().Items[0] != "packing/socks" {
		t.Error("GetState must hand out copies when a snapshot function is set")
	}
}

func TestSelectFiresOnlyOnChange(t *testing.T) {
	ctx := context.Background()
	st := New(counter, 0)

	var evens []bool
	unsubscribe := Select(st, func(n int) bool { return n%2 == 0 }, nil, func(even bool) {
		evens = append(evens, even)
	})

	_ = st.Dispatch(ctx, add{N: 2}) // even -> even: silent
	_ = st.Dispatch(ctx, add{N: 1}) // odd
	_ = st.Dispatch(ctx, add{N: 2}) // odd: silent
	_ = st.Dispatch(ctx, add{N: 1}) // even
	unsubscribe()
	_ = st.Dispatch(ctx, add{N: 1})

	if diff := cmp.Diff([]bool{false, true}, evens); diff != "" {
		t.Errorf("selected values mismatch (-want +got):\n%s", diff)
	}
}

func TestCodecDecode(t *testing.T) {
	c := NewCodec()
	RegisterJSON[add](c)
	RegisterJSON[reset](c)

	var env Envelope
	if err := json.Unmarshal([]byte(`{"type":"counter/add","payload":{"N":4}}`), &env); err != nil {
		t.Fatal(err)
	}
	a, err := c.Decode(env)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if diff := cmp.Diff(Action(add{N: 4}), a); diff != "" {
		t.Errorf("decoded action mismatch (-want +got):\n%s", diff)
	}

	if a, err := c.Decode(Envelope{Type: "counter/reset"}); err != nil || a != (reset{}) {
		t.Errorf("payload-less decode = %v, %v", a, err)
	}
	if _, err := c.Decode(Envelope{Type: "counter/explode"}); !stderrors.Is(err, ErrUnknownAction) {
		t.Errorf("expected ErrUnknownAction, got %v", err)
	}
	if _, err := c.Decode(Envelope{Type: "counter/add", Payload: json.RawMessage(`{"N":"x"}`)}); err == nil {
		t.Error("expected payload error")
	}
	if diff := cmp.Diff([]string{"counter/add", "counter/reset"}, c.Types()); diff != "" {
		t.Errorf("types mismatch: %s", diff)
	}

	env, err = Encode(add{N: 9})
	if err != nil || env.Type != "counter/add" || string(env.Payload) != `{"N":9}` {
		t.Errorf("Encode = %+v, %v", env, err)
	}
}

func TestNamespace(t *testing.T) {
	tests := map[string]string{
		"account/deposit": "account",
		"query/fulfilled": "query",
		"inc":             "",
	}
	for in, want := range tests {
		if got := Namespace(in); got != want {
			t.Errorf("Namespace(%q) = %q, want %q", in, got, want)
		}
	}
}

func itoa(n int) string {
	b, _ := json.Marshal(n)
	return string(b)
}
