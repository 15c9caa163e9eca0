package sse

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/kbukum/statekit/logger"
)

// DefaultKeepAlive stays below common proxy idle timeouts.
const DefaultKeepAlive = 30 * time.Second

// Handler streams hub events to one HTTP client per request.
type Handler struct {
	hub       *Hub
	keepAlive time.Duration
	// Initial, when set, is written right after the connected event so the
	// client never waits for the next dispatch to see state.
	Initial func() (Event, error)
}

// NewHandler uses DefaultKeepAlive when keepAlive is zero.
func NewHandler(hub *Hub, keepAlive time.Duration) *Handler {
	if keepAlive <= 0 {
		keepAlive = DefaultKeepAlive
	}
	return &Handler{hub: hub, keepAlive: keepAlive}
}

type connectedEvent struct {
	ClientID string `json:"client_id"`
}

// Serve blocks until the request context ends or the hub drops the client.
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request, clientID string) {
	log := h.hub.log.WithContext(r.Context())
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	// Long-lived streams must outlive the server's WriteTimeout.
	if err := http.NewResponseController(w).SetWriteDeadline(time.Time{}); err != nil {
		log.Debug("could not clear write deadline", logger.ErrorFields("sse.serve", err))
	}

	hdr := w.Header()
	hdr.Set("Content-Type", "text/event-stream")
	hdr.Set("Cache-Control", "no-cache")
	hdr.Set("Connection", "keep-alive")
	hdr.Set("X-Accel-Buffering", "no")

	client := NewClient(clientID, WithRemoteAddr(r.RemoteAddr))
	if !h.hub.Register(client) {
		http.Error(w, "event hub stopped", http.StatusServiceUnavailable)
		return
	}
	defer h.hub.Unregister(client)

	data, _ := json.Marshal(connectedEvent{ClientID: clientID})
	_, _ = Event{Name: EventTypeConnected, Data: data}.WriteTo(w)
	if h.Initial != nil {
		if ev, err := h.Initial(); err == nil {
			_, _ = ev.WriteTo(w)
		} else {
			log.Warn("initial snapshot failed", logger.ErrorFields("sse.initial", err))
		}
	}
	flusher.Flush()
	log.Debug("client connected", logger.Fields("client_id", clientID, "remote_addr", r.RemoteAddr))

	ticker := time.NewTicker(h.keepAlive)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev, ok := <-client.Events():
			if !ok {
				return
			}
			if _, err := ev.WriteTo(w); err != nil {
				return
			}
			flusher.Flush()
		case <-ticker.C:
			if _, err := w.Write([]byte(": keepalive\n\n")); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
