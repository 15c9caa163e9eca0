package sse

import (
	"fmt"
	"io"
)

const (
	EventTypeConnected = "connected"
	// EventTypeState carries a JSON snapshot of a store after a dispatch.
	EventTypeState = "state"
	// EventTypeError reports a rejected client message on a WebSocket.
	EventTypeError = "error"
)

// Event is one server-sent event.
type Event struct {
	Name string
	// ID becomes the SSE "id:" field when set.
	ID   string
	Data []byte
}

// WriteTo renders ev in text/event-stream framing.
func (ev Event) WriteTo(w io.Writer) (int64, error) {
	var n int
	var err error
	write := func(format string, args ...any) {
		if err != nil {
			return
		}
		var m int
		m, err = fmt.Fprintf(w, format, args...)
		n += m
	}
	if ev.ID != "" {
		write("id: %s\n", ev.ID)
	}
	if ev.Name != "" {
		write("event: %s\n", ev.Name)
	}
	write("data: %s\n\n", ev.Data)
	return int64(n), err
}
