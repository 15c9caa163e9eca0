package query

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/kbukum/statekit/provider"
)

// Endpoint names a remote read and how its argument maps to a cache key.
type Endpoint[A, T any] struct {
	name          string
	fetch         provider.RequestResponse[A, T]
	argKey        func(A) string
	keepUnusedFor time.Duration
	message       func(error) string
}

// EndpointOption configures an Endpoint.
type EndpointOption[A, T any] func(*Endpoint[A, T])

// WithArgKey replaces the JSON encoding used to key arguments.
func WithArgKey[A, T any](fn func(A) string) EndpointOption[A, T] {
	return func(e *Endpoint[A, T]) { e.argKey = fn }
}

// WithKeepUnusedFor overrides the cache grace window for this endpoint.
func WithKeepUnusedFor[A, T any](d time.Duration) EndpointOption[A, T] {
	return func(e *Endpoint[A, T]) { e.keepUnusedFor = d }
}

// WithErrorMessage sets how fetch errors become the rejected message.
func WithErrorMessage[A, T any](fn func(error) string) EndpointOption[A, T] {
	return func(e *Endpoint[A, T]) { e.message = fn }
}

// NewEndpoint creates an endpoint named after its fetcher.
func NewEndpoint[A, T any](fetch provider.RequestResponse[A, T], opts ...EndpointOption[A, T]) *Endpoint[A, T] {
	e := &Endpoint[A, T]{name: fetch.Name(), fetch: fetch, argKey: jsonArgKey[A], message: ErrorMessage}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Endpoint[A, T]) Name() string { return e.name }

// Key returns the cache key for arg, for example getPokemonByName("pikachu").
func (e *Endpoint[A, T]) Key(arg A) string {
	return e.name + "(" + e.argKey(arg) + ")"
}

func (e *Endpoint[A, T]) fetcher(arg A) func(ctx context.Context) (any, error) {
	return func(ctx context.Context) (any, error) {
		return e.fetch.Execute(ctx, arg)
	}
}

func jsonArgKey[A any](arg A) string {
	b, err := json.Marshal(arg)
	if err != nil {
		return fmt.Sprintf("%v", arg)
	}
	return string(b)
}
