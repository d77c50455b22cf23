package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"ihk_prep_backend/internal/util"
)

// StorageAdapter wraps the raw key/value store with the engine namespace,
// JSON serialization and a value-size quota. All engine persistence goes
// through here; keys outside the namespace (lastWheelModule and friends)
// are never touched.
type StorageAdapter struct {
	store      KeyValueStore
	quotaBytes int
}

func NewStorageAdapter(store KeyValueStore, quotaBytes int) *StorageAdapter {
	if quotaBytes <= 0 {
		quotaBytes = 5 << 20
	}
	return &StorageAdapter{store: store, quotaBytes: quotaBytes}
}

func (a *StorageAdapter) namespaced(key string) string {
	return util.KeyNamespace + key
}

// GetJSON reads and decodes the value under key. The second return value
// reports presence; absent keys are not an error.
func (a *StorageAdapter) GetJSON(ctx context.Context, key string, dest interface{}) (bool, error) {
	raw, ok, err := a.store.Get(ctx, a.namespaced(key))
	if err != nil {
		return false, fmt.Errorf("%w: get %s: %v", util.ErrStorageFailure, key, err)
	}
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, fmt.Errorf("%w: decode %s: %v", util.ErrDataIntegrity, key, err)
	}
	return true, nil
}

// GetRaw returns the stored bytes unchanged. Used for byte-faithful
// snapshot handling.
func (a *StorageAdapter) GetRaw(ctx context.Context, key string) ([]byte, bool, error) {
	raw, ok, err := a.store.Get(ctx, a.namespaced(key))
	if err != nil {
		return nil, false, fmt.Errorf("%w: get %s: %v", util.ErrStorageFailure, key, err)
	}
	return raw, ok, nil
}

func (a *StorageAdapter) PutJSON(ctx context.Context, key string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("%w: encode %s: %v", util.ErrStorageFailure, key, err)
	}
	return a.PutRaw(ctx, key, raw)
}

func (a *StorageAdapter) PutRaw(ctx context.Context, key string, raw []byte) error {
	if len(raw) > a.quotaBytes {
		return fmt.Errorf("%w: %s is %d bytes, quota %d", util.ErrQuotaExceeded, key, len(raw), a.quotaBytes)
	}
	if err := a.store.Put(ctx, a.namespaced(key), raw); err != nil {
		return fmt.Errorf("%w: put %s: %v", util.ErrStorageFailure, key, err)
	}
	return nil
}

func (a *StorageAdapter) Delete(ctx context.Context, key string) error {
	if err := a.store.Delete(ctx, a.namespaced(key)); err != nil {
		return fmt.Errorf("%w: delete %s: %v", util.ErrStorageFailure, key, err)
	}
	return nil
}

// Keys lists namespaced keys under prefix, namespace stripped.
func (a *StorageAdapter) Keys(ctx context.Context, prefix string) ([]string, error) {
	keys, err := a.store.Keys(ctx, a.namespaced(prefix))
	if err != nil {
		return nil, fmt.Errorf("%w: keys %s: %v", util.ErrStorageFailure, prefix, err)
	}
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, strings.TrimPrefix(k, util.KeyNamespace))
	}
	return out, nil
}
