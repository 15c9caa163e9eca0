package daemon

import (
	"context"

	"github.com/kbukum/statekit/errors"
	"github.com/kbukum/statekit/logger"
	"github.com/kbukum/statekit/sse"
	"github.com/kbukum/statekit/store"
)

// hostedStore is what the HTTP surface needs from a store, whatever its
// state type.
type hostedStore struct {
	name     string
	codec    *store.Codec
	dispatch store.DispatchFunc
	version  func() uint64
	state    func() any
	snapshot func() (sse.Event, error)
	publish  func(hub *sse.Hub, log *logger.Logger) (stop func())
}

// host exposes st under name. A nil codec makes the store read-only over
// the wire; its own routes still dispatch to it.
func host[S any](name string, st *store.Store[S], codec *store.Codec) *hostedStore {
	return &hostedStore{
		name:     name,
		codec:    codec,
		dispatch: st.Dispatch,
		version:  st.Version,
		state:    func() any { return st.GetState() },
		snapshot: func() (sse.Event, error) { return sse.Snapshot(st, sse.EventTypeState) },
		publish: func(hub *sse.Hub, log *logger.Logger) func() {
			return sse.PublishState(hub, st, name+":*", sse.EventTypeState, log)
		},
	}
}

// actionTypes lists what the store accepts over the wire.
func (h *hostedStore) actionTypes() []string {
	if h.codec == nil {
		return []string{}
	}
	return h.codec.Types()
}

// run decodes env and dispatches it.
func (h *hostedStore) run(ctx context.Context, env store.Envelope) error {
	if h.codec == nil {
		return errors.UnknownAction(env.Type)
	}
	action, err := h.codec.Decode(env)
	if err != nil {
		return err
	}
	return h.dispatch(ctx, action)
}
