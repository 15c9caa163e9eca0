package component

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/kbukum/statekit/observability"
)

func recording(name string, log *[]string, startErr error) *Func {
	return &Func{
		ComponentName: name,
		OnStart: func(context.Context) error {
			*log = append(*log, "start:"+name)
			return startErr
		},
		OnStop: func(context.Context) error {
			*log = append(*log, "stop:"+name)
			return nil
		},
	}
}

func TestRegistryOrder(t *testing.T) {
	var log []string
	r := NewRegistry(nil)
	for _, name := range []string{"redis", "query", "server"} {
		if err := r.Register(recording(name, &log, nil)); err != nil {
			t.Fatal(err)
		}
	}
	if err := r.Register(recording("redis", &log, nil)); err == nil {
		t.Fatal("duplicate names must be rejected")
	}

	ctx := context.Background()
	if err := r.StartAll(ctx); err != nil {
		t.Fatal(err)
	}
	if err := r.StopAll(ctx); err != nil {
		t.Fatal(err)
	}

	want := "start:redis start:query start:server stop:server stop:query stop:redis"
	if got := strings.Join(log, " "); got != want {
		t.Errorf("order = %s\nwant    %s", got, want)
	}
}

func TestRegistryStartFailureRollsBack(t *testing.T) {
	var log []string
	r := NewRegistry(nil)
	_ = r.Register(recording("redis", &log, nil))
	_ = r.Register(recording("server", &log, errors.New("port in use")))

	err := r.StartAll(context.Background())
	if err == nil || !strings.Contains(err.Error(), "failed to start server") {
		t.Fatalf("err = %v", err)
	}
	want := "start:redis start:server stop:redis"
	if got := strings.Join(log, " "); got != want {
		t.Errorf("order = %s, want %s", got, want)
	}
}

func TestRegistryStopJoinsErrors(t *testing.T) {
	r := NewRegistry(nil)
	boom := errors.New("boom")
	_ = r.Register(&Func{ComponentName: "a", OnStop: func(context.Context) error { return boom }})
	_ = r.Register(&Func{ComponentName: "b"})
	_ = r.StartAll(context.Background())

	if err := r.StopAll(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
}

func TestRegistryHealth(t *testing.T) {
	r := NewRegistry(nil)
	_ = r.Register(&Func{ComponentName: "store"})
	_ = r.Register(&Func{ComponentName: "redis", OnHealth: func(context.Context) observability.Health {
		return observability.Health{Name: "redis", Status: observability.HealthStatusDown, Message: "dial tcp: refused"}
	}})

	sh := r.Health(context.Background(), "statekitd", "dev")
	if sh.Status != observability.HealthStatusDown || len(sh.Components) != 2 {
		t.Fatalf("health = %+v", sh)
	}
	if sh.Components[0].Status != observability.HealthStatusUp {
		t.Errorf("default health should be up: %+v", sh.Components[0])
	}
}
