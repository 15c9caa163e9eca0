package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	var m map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &m); err != nil {
		t.Fatalf("invalid json log line %q: %v", buf.String(), err)
	}
	return m
}

func TestNewDefault(t *testing.T) {
	l := NewDefault("test-svc")
	if l == nil {
		t.Fatal("expected non-nil logger")
	}
	if l.service != "test-svc" {
		t.Errorf("expected service 'test-svc', got %q", l.service)
	}
}

func TestNewInvalidLevel(t *testing.T) {
	l := New(&Config{Level: "loud", Format: "json", Output: "discard"}, "test")
	if l == nil {
		t.Fatal("expected logger to be created even with invalid level")
	}
}

func TestWithComponentAndFields(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriter(&buf, "debug").WithComponent("store")
	l.Debug("action dispatched", Fields(FieldAction, "account/deposit", "version", 3))

	m := decodeLine(t, &buf)
	if m[FieldComponent] != "store" {
		t.Errorf("component = %v", m[FieldComponent])
	}
	if m[FieldAction] != "account/deposit" {
		t.Errorf("action = %v", m[FieldAction])
	}
	if m["message"] != "action dispatched" {
		t.Errorf("message = %v", m["message"])
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriter(&buf, "warn")
	l.Info("hidden")
	if buf.Len() != 0 {
		t.Fatalf("info should be filtered at warn level, got %q", buf.String())
	}
	l.Warn("shown")
	if buf.Len() == 0 {
		t.Fatal("warn should be written")
	}
}

func TestWithContextRequestID(t *testing.T) {
	var buf bytes.Buffer
	ctx := ContextWithRequestID(context.Background(), "req-1")
	NewWriter(&buf, "debug").WithContext(ctx).Info("hello")

	m := decodeLine(t, &buf)
	if m[FieldRequestID] != "req-1" {
		t.Errorf("request_id = %v", m[FieldRequestID])
	}
	if got := RequestIDFromContext(context.Background()); got != "" {
		t.Errorf("empty context should have no request id, got %q", got)
	}
}

func TestWithError(t *testing.T) {
	var buf bytes.Buffer
	NewWriter(&buf, "debug").WithError(errors.New("boom")).Error("failed")
	m := decodeLine(t, &buf)
	if m["error"] != "boom" {
		t.Errorf("error = %v", m["error"])
	}
}

func TestFields(t *testing.T) {
	f := Fields("a", 1, "b", "two", 3, "skipped", "dangling")
	if len(f) != 2 || f["a"] != 1 || f["b"] != "two" {
		t.Errorf("unexpected fields: %v", f)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"defaults", Config{}, false},
		{"bad level", Config{Level: "loud"}, true},
		{"bad format", Config{Format: "xml"}, true},
		{"bad output", Config{Output: "file"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.cfg
			cfg.ApplyDefaults()
			if err := cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestNopDiscards(t *testing.T) {
	Nop().Error("nothing", Fields("k", "v"))
}
