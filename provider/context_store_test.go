package provider

import (
	"context"
	"testing"
	"time"
)

type watched struct {
	IDs []string
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	now := time.Unix(1_700_000_000, 0)
	s := NewMemoryStore[watched]()
	s.now = func() time.Time { return now }

	if v, err := s.Load(ctx, "missing"); v != nil || err != nil {
		t.Fatalf("missing key: %v %v", v, err)
	}

	if err := s.Save(ctx, "watched", &watched{IDs: []string{"tt1375666"}}, 0); err != nil {
		t.Fatal(err)
	}
	if err := s.Save(ctx, "session", &watched{}, time.Minute); err != nil {
		t.Fatal(err)
	}

	got, _ := s.Load(ctx, "watched")
	if got == nil || len(got.IDs) != 1 {
		t.Fatalf("got %+v", got)
	}

	now = now.Add(2 * time.Minute)
	if v, _ := s.Load(ctx, "session"); v != nil {
		t.Error("expired entry should be dropped")
	}
	if v, _ := s.Load(ctx, "watched"); v == nil {
		t.Error("entry without ttl must not expire")
	}
	if s.Len() != 1 {
		t.Errorf("len = %d", s.Len())
	}

	_ = s.Save(ctx, "watched", nil, 0)
	if s.Len() != 0 {
		t.Error("saving nil deletes")
	}
}
