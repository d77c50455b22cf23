package repository

import (
	"context"
	"sort"
	"strings"
	"sync"

	"ihk_prep_backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// KeyValueStore is the raw persistence contract beneath the storage
// adapter. Implementations must be safe for concurrent use.
type KeyValueStore interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Keys(ctx context.Context, prefix string) ([]string, error)
}

// GormKVStore persists entries in the kv_entries table.
type GormKVStore struct {
	DB *gorm.DB
}

func NewGormKVStore(db *gorm.DB) *GormKVStore {
	return &GormKVStore{DB: db}
}

func (s *GormKVStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var entry model.KVEntry
	err := s.DB.WithContext(ctx).First(&entry, "`key` = ?", key).Error
	if err == gorm.ErrRecordNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return entry.Value, true, nil
}

func (s *GormKVStore) Put(ctx context.Context, key string, value []byte) error {
	entry := model.KVEntry{Key: key, Value: value}
	return s.DB.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(&entry).Error
}

func (s *GormKVStore) Delete(ctx context.Context, key string) error {
	return s.DB.WithContext(ctx).Delete(&model.KVEntry{}, "`key` = ?", key).Error
}

func (s *GormKVStore) Keys(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	err := s.DB.WithContext(ctx).
		Model(&model.KVEntry{}).
		Where("`key` LIKE ?", prefix+"%").
		Order("`key`").
		Pluck("`key`", &keys).Error
	return keys, err
}

// MemoryKVStore is the in-memory backend, used as the single storage fake
// in tests and as a runnable backend when no database is configured.
type MemoryKVStore struct {
	mu      sync.RWMutex
	entries map[string][]byte

	// FailPuts makes every write fail; lets tests exercise the
	// StorageFailure path.
	FailPuts bool
}

func NewMemoryKVStore() *MemoryKVStore {
	return &MemoryKVStore{entries: make(map[string][]byte)}
}

func (s *MemoryKVStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.entries[key]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, true, nil
}

func (s *MemoryKVStore) Put(ctx context.Context, key string, value []byte) error {
	if s.FailPuts {
		return context.DeadlineExceeded
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	v := make([]byte, len(value))
	copy(v, value)
	s.entries[key] = v
	return nil
}

func (s *MemoryKVStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}

func (s *MemoryKVStore) Keys(ctx context.Context, prefix string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var keys []string
	for k := range s.entries {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}
