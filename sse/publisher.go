package sse

import (
	"encoding/json"
	"strconv"

	"github.com/kbukum/statekit/logger"
	"github.com/kbukum/statekit/store"
)

// Snapshot encodes the current state of st as an event called name. The
// event ID is the store version so clients can spot gaps.
func Snapshot[S any](st *store.Store[S], name string) (Event, error) {
	version := st.Version()
	data, err := json.Marshal(st.GetState())
	if err != nil {
		return Event{}, err
	}
	return Event{Name: name, ID: strconv.FormatUint(version, 10), Data: data}, nil
}

// PublishState broadcasts a snapshot named name to pattern after every
// dispatch that reaches st's listeners. The returned function stops
// publishing.
func PublishState[S any](b Broadcaster, st *store.Store[S], pattern, name string, log *logger.Logger) (stop func()) {
	if log == nil {
		log = logger.Nop()
	}
	return st.Subscribe(func() {
		ev, err := Snapshot(st, name)
		if err != nil {
			log.Error("state snapshot failed", logger.ErrorFields("sse.publish", err))
			return
		}
		b.BroadcastToPattern(pattern, ev)
	})
}
