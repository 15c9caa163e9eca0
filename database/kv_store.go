package database

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/kbukum/statekit/provider"
)

// Entry is one row of the key/value table.
type Entry struct {
	Key       string     `gorm:"column:entry_key;primaryKey;size:255"`
	Value     []byte     `gorm:"column:value;not null"`
	ExpiresAt *time.Time `gorm:"column:expires_at;index"`
	UpdatedAt time.Time  `gorm:"column:updated_at"`
}

func (Entry) TableName() string { return "statekit_entries" }

// KVStore keeps JSON-encoded C values in the Entry table under "prefix:key".
type KVStore[C any] struct {
	db     *DB
	prefix string
	now    func() time.Time
}

var _ provider.ContextStore[any] = (*KVStore[any])(nil)

// NewKVStore needs the Entry table; the Component migrates it on start.
func NewKVStore[C any](db *DB, prefix string) *KVStore[C] {
	return &KVStore[C]{db: db, prefix: prefix, now: time.Now}
}

func (s *KVStore[C]) key(k string) string {
	if s.prefix == "" {
		return k
	}
	return s.prefix + ":" + k
}

func (s *KVStore[C]) Load(ctx context.Context, key string) (*C, error) {
	var e Entry
	err := s.db.WithContext(ctx).Where("entry_key = ?", s.key(key)).Take(&e).Error
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", key, err)
	}
	if e.ExpiresAt != nil && !s.now().Before(*e.ExpiresAt) {
		return nil, s.Delete(ctx, key)
	}
	var v C
	if err := json.Unmarshal(e.Value, &v); err != nil {
		return nil, fmt.Errorf("decode %s: %w", key, err)
	}
	return &v, nil
}

func (s *KVStore[C]) Save(ctx context.Context, key string, val *C, ttl time.Duration) error {
	if val == nil {
		return s.Delete(ctx, key)
	}
	data, err := json.Marshal(val)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	now := s.now()
	e := Entry{Key: s.key(key), Value: data, UpdatedAt: now}
	if ttl > 0 {
		exp := now.Add(ttl)
		e.ExpiresAt = &exp
	}
	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "entry_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "expires_at", "updated_at"}),
	}).Create(&e).Error
	if err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

func (s *KVStore[C]) Delete(ctx context.Context, key string) error {
	err := s.db.WithContext(ctx).Where("entry_key = ?", s.key(key)).Delete(&Entry{}).Error
	if err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}
