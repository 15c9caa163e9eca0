package scope

import (
	"context"

	"github.com/kbukum/statekit/errors"
)

// ErrOutsideProvider matches, with errors.Is, every error returned by From.
var ErrOutsideProvider = errors.OutsideProvider("")

// Key identifies a value of type T carried on a context.
type Key[T any] struct {
	name string
}

// NewKey creates a key. Keys compare by identity of the returned pointer.
func NewKey[T any](name string) *Key[T] {
	return &Key[T]{name: name}
}

func (k *Key[T]) Name() string { return k.name }

// With returns a context carrying v under key.
func With[T any](ctx context.Context, key *Key[T], v T) context.Context {
	return context.WithValue(ctx, key, v)
}

// From returns the value installed under key.
func From[T any](ctx context.Context, key *Key[T]) (T, error) {
	v, ok := ctx.Value(key).(T)
	if !ok {
		var zero T
		return zero, errors.OutsideProvider(key.name)
	}
	return v, nil
}

// MustFrom is From for code paths where a missing provider is a bug.
func MustFrom[T any](ctx context.Context, key *Key[T]) T {
	v, err := From(ctx, key)
	if err != nil {
		panic(err)
	}
	return v
}
