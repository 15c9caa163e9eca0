package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/kbukum/statekit/provider"
)

var _ provider.ContextStore[any] = (*TypedStore[any])(nil)

// TypedStore is a provider.ContextStore that keeps JSON-encoded values in
// Redis. The daemon uses it to persist slices such as the watched-movie list.
type TypedStore[C any] struct {
	client *Client
	prefix string
}

// NewTypedStore stores keys as "prefix:key", or bare keys when prefix is empty.
func NewTypedStore[C any](client *Client, prefix string) *TypedStore[C] {
	return &TypedStore[C]{client: client, prefix: prefix}
}

func (s *TypedStore[C]) key(k string) string {
	if s.prefix == "" {
		return k
	}
	return s.prefix + ":" + k
}

// Load returns (nil, nil) when the key is missing or expired.
func (s *TypedStore[C]) Load(ctx context.Context, key string) (*C, error) {
	data, err := s.client.Get(ctx, s.key(key))
	if errors.Is(err, goredis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis load %s: %w", key, err)
	}
	var val C
	if err := json.Unmarshal(data, &val); err != nil {
		return nil, fmt.Errorf("redis decode %s: %w", key, err)
	}
	return &val, nil
}

// Save deletes the key when val is nil.
func (s *TypedStore[C]) Save(ctx context.Context, key string, val *C, ttl time.Duration) error {
	if val == nil {
		return s.Delete(ctx, key)
	}
	data, err := json.Marshal(val)
	if err != nil {
		return fmt.Errorf("redis encode %s: %w", key, err)
	}
	if err := s.client.Set(ctx, s.key(key), data, ttl); err != nil {
		return fmt.Errorf("redis save %s: %w", key, err)
	}
	return nil
}

func (s *TypedStore[C]) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.key(key)); err != nil {
		return fmt.Errorf("redis delete %s: %w", key, err)
	}
	return nil
}
