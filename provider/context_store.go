package provider

import (
	"context"
	"time"
)

// ContextStore persists typed values under string keys. The watched list is
// saved through one of MemoryStore, storage.FileStore or redis.TypedStore.
//
// Load returns (nil, nil) for a missing or expired key. A zero TTL never
// expires. Saving nil deletes the key.
type ContextStore[C any] interface {
	Load(ctx context.Context, key string) (*C, error)
	Save(ctx context.Context, key string, val *C, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}
