package query

import (
	"maps"
	"time"

	"github.com/kbukum/statekit/store"
)

// Mirror action types.
const (
	ActionPending   = "query/pending"
	ActionFulfilled = "query/fulfilled"
	ActionRejected  = "query/rejected"
	ActionReset     = "query/reset"
	ActionRemoved   = "query/removed"
)

type QueryPending struct {
	Endpoint   string
	Key        string
	Generation uint64
}

type QueryFulfilled struct {
	Endpoint    string
	Key         string
	Generation  uint64
	Data        any
	FulfilledAt time.Time
}

type QueryRejected struct {
	Endpoint   string
	Key        string
	Generation uint64
	Error      string
}

// QueryReset reports a fetch cancelled before it settled.
type QueryReset struct {
	Endpoint   string
	Key        string
	Generation uint64
	Status     Status
}

type QueryRemoved struct {
	Endpoint string
	Key      string
}

func (QueryPending) Type() string   { return ActionPending }
func (QueryFulfilled) Type() string { return ActionFulfilled }
func (QueryRejected) Type() string  { return ActionRejected }
func (QueryReset) Type() string     { return ActionReset }
func (QueryRemoved) Type() string   { return ActionRemoved }

// Entry is the store-side view of a cache entry.
type Entry struct {
	Endpoint    string    `json:"endpoint"`
	Status      Status    `json:"status"`
	Data        any       `json:"data,omitempty"`
	Error       string    `json:"error,omitempty"`
	Generation  uint64    `json:"generation"`
	FulfilledAt time.Time `json:"fulfilledAt"`
}

// APIState holds every mirrored entry by cache key. Values are never
// mutated; the reducer returns a new *APIState on change.
type APIState struct {
	Queries map[string]Entry `json:"queries"`
}

// APISlice is the "api" slice of a combined store.
var APISlice = store.NewSlice[*APIState]("api", &APIState{Queries: map[string]Entry{}}, Reducer)

// Lookup returns the mirrored entry for key.
func (s *APIState) Lookup(key string) (Entry, bool) {
	if s == nil {
		return Entry{}, false
	}
	e, ok := s.Queries[key]
	return e, ok
}

// Reducer folds query/* actions into APIState. Results older than the
// mirrored generation are ignored.
func Reducer(state *APIState, action store.Action) *APIState {
	if state == nil {
		state = &APIState{}
	}
	switch a := action.(type) {
	case QueryPending:
		e := state.Queries[a.Key]
		e.Endpoint, e.Status, e.Generation = a.Endpoint, StatusPending, a.Generation
		return state.with(a.Key, e)
	case QueryFulfilled:
		e, ok := state.Queries[a.Key]
		if ok && a.Generation < e.Generation {
			return state
		}
		e.Endpoint, e.Status, e.Generation = a.Endpoint, StatusFulfilled, a.Generation
		e.Data, e.Error, e.FulfilledAt = a.Data, "", a.FulfilledAt
		return state.with(a.Key, e)
	case QueryRejected:
		e, ok := state.Queries[a.Key]
		if ok && a.Generation < e.Generation {
			return state
		}
		e.Endpoint, e.Status, e.Generation, e.Error = a.Endpoint, StatusRejected, a.Generation, a.Error
		return state.with(a.Key, e)
	case QueryReset:
		e, ok := state.Queries[a.Key]
		if !ok {
			return state
		}
		e.Status, e.Generation = a.Status, a.Generation
		return state.with(a.Key, e)
	case QueryRemoved:
		if _, ok := state.Queries[a.Key]; !ok {
			return state
		}
		next := maps.Clone(state.Queries)
		delete(next, a.Key)
		return &APIState{Queries: next}
	default:
		return state
	}
}

func (s *APIState) with(key string, e Entry) *APIState {
	next := make(map[string]Entry, len(s.Queries)+1)
	maps.Copy(next, s.Queries)
	next[key] = e
	return &APIState{Queries: next}
}
