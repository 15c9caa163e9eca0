package store

import (
	"encoding/json"
	"reflect"
	"sort"
)

// Reducer computes the next state from the current state and an action. It
// must be pure: no I/O, no mutation of state, same output for same inputs.
// Unhandled actions return state unchanged.
type Reducer[S any] func(state S, action Action) S

// StrictReducer is a Reducer that rejects unhandled actions with an error
// matching ErrUnknownAction.
type StrictReducer[S any] func(state S, action Action) (S, error)

// State is an immutable map from slice key to sub-state, the root state of a
// store built with Combine. Read it through Slice.Get.
type State struct {
	values map[string]any
}

// Keys returns the slice keys in sorted order.
func (s *State) Keys() []string {
	keys := make([]string, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// MarshalJSON renders the state as a JSON object keyed by slice.
func (s *State) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.values)
}

// with returns a copy of s with key set to v.
func (s *State) with(key string, v any) *State {
	next := make(map[string]any, len(s.values)+1)
	for k, val := range s.values {
		next[k] = val
	}
	next[key] = v
	return &State{values: next}
}

// SliceReducer is one entry of a combined reducer. Slice implements it.
type SliceReducer interface {
	Key() string
	initial() any
	reduce(current any, action Action) (next any, changed bool)
}

// Slice is a typed key into a combined State together with the reducer that
// owns that part of the state.
type Slice[T any] struct {
	key     string
	init    T
	reducer Reducer[T]
	equal   func(a, b T) bool
}

// SliceOption configures a Slice.
type SliceOption[T any] func(*Slice[T])

// WithEqual sets the change test for sub-states whose type is not comparable
// with ==, or whose reducers rebuild equal values.
func WithEqual[T any](equal func(a, b T) bool) SliceOption[T] {
	return func(s *Slice[T]) { s.equal = equal }
}

// NewSlice declares a slice stored under key.
func NewSlice[T any](key string, initial T, reducer Reducer[T], opts ...SliceOption[T]) Slice[T] {
	s := Slice[T]{key: key, init: initial, reducer: reducer}
	for _, opt := range opts {
		opt(&s)
	}
	if s.equal == nil {
		s.equal = defaultEqual[T]
	}
	return s
}

func (s Slice[T]) Key() string { return s.key }

// Get returns the slice's sub-state, or its initial value when st is nil or
// was built without this slice.
func (s Slice[T]) Get(st *State) T {
	if st == nil {
		return s.init
	}
	v, ok := st.values[s.key].(T)
	if !ok {
		return s.init
	}
	return v
}

// Set returns a copy of st with the slice replaced by v. It exists for
// hydration and tests; reducers never call it.
func (s Slice[T]) Set(st *State, v T) *State {
	if st == nil {
		st = &State{}
	}
	return st.with(s.key, v)
}

// Reducer returns the slice's reducer.
func (s Slice[T]) Reducer() Reducer[T] { return s.reducer }

func (s Slice[T]) initial() any { return s.init }

func (s Slice[T]) reduce(current any, action Action) (any, bool) {
	cur, ok := current.(T)
	if !ok {
		cur = s.init
	}
	next := s.reducer(cur, action)
	return next, !s.equal(cur, next)
}

// defaultEqual compares with == when the dynamic type allows it and reports
// "changed" otherwise.
func defaultEqual[T any](a, b T) bool {
	va, vb := any(a), any(b)
	if va == nil || vb == nil {
		return va == nil && vb == nil
	}
	t := reflect.TypeOf(va)
	if t != reflect.TypeOf(vb) || !t.Comparable() {
		return false
	}
	return va == vb
}

// Combined routes every action to each slice reducer and assembles the
// results into a new State.
type Combined struct {
	slices []SliceReducer
}

// Combine builds a root reducer from slices. Each action is given to every
// slice reducer in the order listed.
func Combine(slices ...SliceReducer) *Combined {
	return &Combined{slices: slices}
}

// Initial returns the State holding each slice's initial value.
func (c *Combined) Initial() *State {
	values := make(map[string]any, len(c.slices))
	for _, s := range c.slices {
		values[s.Key()] = s.initial()
	}
	return &State{values: values}
}

// Reduce applies action to every slice. When no slice changes it returns st
// itself, so callers can detect "nothing happened" by pointer comparison.
func (c *Combined) Reduce(st *State, action Action) *State {
	if st == nil {
		st = c.Initial()
	}
	var next map[string]any
	for _, s := range c.slices {
		cur := st.values[s.Key()]
		if cur == nil {
			cur = s.initial()
		}
		v, changed := s.reduce(cur, action)
		if !changed {
			continue
		}
		if next == nil {
			next = make(map[string]any, len(st.values))
			for k, val := range st.values {
				next[k] = val
			}
		}
		next[s.Key()] = v
	}
	if next == nil {
		return st
	}
	return &State{values: next}
}

// Strict wraps a reducer so that any action type not listed in known fails
// with ErrUnknownAction instead of being ignored.
func Strict[S any](reducer Reducer[S], known ...string) StrictReducer[S] {
	set := make(map[string]struct{}, len(known))
	for _, k := range known {
		set[k] = struct{}{}
	}
	return func(state S, action Action) (S, error) {
		if _, ok := set[action.Type()]; !ok {
			return state, unknownAction(action)
		}
		return reducer(state, action), nil
	}
}
