package store

import (
	"context"
	"strings"
)

// Action describes a state change. Type is namespaced by domain, for example
// "account/deposit".
type Action interface {
	Type() string
}

// Namespace returns the part of an action type before the first "/".
func Namespace(actionType string) string {
	ns, _, found := strings.Cut(actionType, "/")
	if !found {
		return ""
	}
	return ns
}

// Plain is an action carrying only its type, for payload-free events.
type Plain string

func (p Plain) Type() string { return string(p) }

// DispatchFunc is one link of the dispatch chain.
type DispatchFunc func(ctx context.Context, action Action) error

// Dispatcher is anything actions can be sent to.
type Dispatcher interface {
	Dispatch(ctx context.Context, action Action) error
}
