package sse

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	apperrors "github.com/kbukum/statekit/errors"
	"github.com/kbukum/statekit/logger"
)

const wsWriteTimeout = 5 * time.Second

// Frame is the JSON text message a WebSocket client gets for each event.
type Frame struct {
	Event string          `json:"event"`
	ID    string          `json:"id,omitempty"`
	Data  json.RawMessage `json:"data"`
}

func frameOf(ev Event) Frame {
	data := json.RawMessage(ev.Data)
	if !json.Valid(data) {
		data, _ = json.Marshal(string(ev.Data))
	}
	return Frame{Event: ev.Name, ID: ev.ID, Data: data}
}

// WSHandler serves hub events over WebSocket. Unlike Handler the stream is
// two-way: text messages from the client go to OnMessage.
type WSHandler struct {
	hub       *Hub
	keepAlive time.Duration
	accept    websocket.AcceptOptions

	Initial func() (Event, error)
	// OnMessage errors are sent back to the client as an error frame.
	OnMessage func(ctx context.Context, data []byte) error
}

// NewWSHandler accepts cross-origin upgrades only from originPatterns
// (path.Match patterns on the Origin host). Pings go out every keepAlive.
func NewWSHandler(hub *Hub, keepAlive time.Duration, originPatterns []string) *WSHandler {
	if keepAlive <= 0 {
		keepAlive = DefaultKeepAlive
	}
	return &WSHandler{
		hub:       hub,
		keepAlive: keepAlive,
		accept:    websocket.AcceptOptions{OriginPatterns: originPatterns},
	}
}

// Serve upgrades the request and blocks until either side closes.
func (h *WSHandler) Serve(w http.ResponseWriter, r *http.Request, clientID string) {
	log := h.hub.log.WithContext(r.Context())
	// The hijacked connection keeps the server's read and write deadlines.
	rc := http.NewResponseController(w)
	if err := errors.Join(rc.SetReadDeadline(time.Time{}), rc.SetWriteDeadline(time.Time{})); err != nil {
		log.Debug("could not clear deadlines", logger.ErrorFields("ws.serve", err))
	}
	conn, err := websocket.Accept(w, r, &h.accept)
	if err != nil {
		log.Debug("websocket upgrade failed", logger.ErrorFields("ws.accept", err))
		return
	}
	defer conn.CloseNow()

	client := NewClient(clientID, WithRemoteAddr(r.RemoteAddr))
	if !h.hub.Register(client) {
		_ = conn.Close(websocket.StatusTryAgainLater, "event hub stopped")
		return
	}
	defer h.hub.Unregister(client)

	ctx, cancel := context.WithCancel(r.Context())
	readDone := make(chan struct{})
	go h.readLoop(ctx, cancel, conn, readDone, log)
	defer func() {
		cancel()
		<-readDone
	}()

	connected, _ := json.Marshal(connectedEvent{ClientID: clientID})
	if err := h.write(ctx, conn, Event{Name: EventTypeConnected, Data: connected}); err != nil {
		return
	}
	if h.Initial != nil {
		if ev, err := h.Initial(); err == nil {
			if err := h.write(ctx, conn, ev); err != nil {
				return
			}
		} else {
			log.Warn("initial snapshot failed", logger.ErrorFields("ws.initial", err))
		}
	}
	log.Debug("websocket client connected", logger.Fields("client_id", clientID, "remote_addr", r.RemoteAddr))

	ticker := time.NewTicker(h.keepAlive)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			_ = conn.Close(websocket.StatusGoingAway, "server shutting down")
			return
		case ev, ok := <-client.Events():
			if !ok {
				_ = conn.Close(websocket.StatusGoingAway, "dropped by hub")
				return
			}
			if err := h.write(ctx, conn, ev); err != nil {
				return
			}
		case <-ticker.C:
			pingCtx, done := context.WithTimeout(ctx, wsWriteTimeout)
			err := conn.Ping(pingCtx)
			done()
			if err != nil {
				return
			}
		}
	}
}

func (h *WSHandler) write(ctx context.Context, conn *websocket.Conn, ev Event) error {
	ctx, cancel := context.WithTimeout(ctx, wsWriteTimeout)
	defer cancel()
	return wsjson.Write(ctx, conn, frameOf(ev))
}

// readLoop ends the session when the peer closes or the read fails.
func (h *WSHandler) readLoop(ctx context.Context, cancel context.CancelFunc, conn *websocket.Conn, done chan<- struct{}, log *logger.Logger) {
	defer close(done)
	defer cancel()
	for {
		typ, data, err := conn.Read(ctx)
		if err != nil {
			return
		}
		if typ != websocket.MessageText || h.OnMessage == nil {
			continue
		}
		if err := h.OnMessage(ctx, data); err != nil {
			log.Debug("client message rejected", logger.ErrorFields("ws.message", err))
			_, body := apperrors.Response(err)
			payload, _ := json.Marshal(body)
			if err := h.write(ctx, conn, Event{Name: EventTypeError, Data: payload}); err != nil {
				return
			}
		}
	}
}
