package repository

import (
	"context"
	"fmt"
	"strings"

	"ihk_prep_backend/internal/model"
	"ihk_prep_backend/internal/util"
)

// ProgressRepository maps the persistent key layout for progress and
// specialization data onto the storage adapter.
type ProgressRepository struct {
	Storage *StorageAdapter
}

func NewProgressRepository(storage *StorageAdapter) *ProgressRepository {
	return &ProgressRepository{Storage: storage}
}

// LoadProgress returns the live Progress State, or an empty record when
// nothing has been persisted yet.
func (r *ProgressRepository) LoadProgress(ctx context.Context) (*model.ProgressState, error) {
	var state model.ProgressState
	ok, err := r.Storage.GetJSON(ctx, util.KeyProgress, &state)
	if err != nil {
		return nil, err
	}
	if !ok {
		return &model.ProgressState{}, nil
	}
	return &state, nil
}

func (r *ProgressRepository) SaveProgress(ctx context.Context, state *model.ProgressState) error {
	return r.Storage.PutJSON(ctx, util.KeyProgress, state)
}

// LoadProgressRaw returns the stored progress bytes unchanged, for
// byte-faithful snapshots and conflict detection.
func (r *ProgressRepository) LoadProgressRaw(ctx context.Context) ([]byte, bool, error) {
	return r.Storage.GetRaw(ctx, util.KeyProgress)
}

func (r *ProgressRepository) SaveProgressRaw(ctx context.Context, raw []byte) error {
	return r.Storage.PutRaw(ctx, util.KeyProgress, raw)
}

func snapshotKey(migrationID string) string {
	return util.KeySnapshotPrefix + migrationID
}

// WriteSnapshot stores an immutable pre-migration copy. Writing over an
// existing snapshot is refused.
func (r *ProgressRepository) WriteSnapshot(ctx context.Context, migrationID string, raw []byte) (string, error) {
	key := snapshotKey(migrationID)
	if _, ok, err := r.Storage.GetRaw(ctx, key); err != nil {
		return "", err
	} else if ok {
		return "", fmt.Errorf("%w: snapshot %s already exists", util.ErrDataIntegrity, key)
	}
	if err := r.Storage.PutRaw(ctx, key, raw); err != nil {
		return "", err
	}
	return key, nil
}

func (r *ProgressRepository) ReadSnapshot(ctx context.Context, migrationID string) ([]byte, bool, error) {
	return r.Storage.GetRaw(ctx, snapshotKey(migrationID))
}

// ListSnapshots returns the migration ids of all stored snapshots.
func (r *ProgressRepository) ListSnapshots(ctx context.Context) ([]string, error) {
	keys, err := r.Storage.Keys(ctx, util.KeySnapshotPrefix)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(keys))
	for _, k := range keys {
		ids = append(ids, strings.TrimPrefix(k, util.KeySnapshotPrefix))
	}
	return ids, nil
}

// LoadSpecialization returns the persisted specialization id (may be
// empty) and whether the user explicitly selected it.
func (r *ProgressRepository) LoadSpecialization(ctx context.Context) (model.Specialization, bool, error) {
	var id model.Specialization
	if _, err := r.Storage.GetJSON(ctx, util.KeySpecialization, &id); err != nil {
		return "", false, err
	}
	var selected bool
	if _, err := r.Storage.GetJSON(ctx, util.KeySpecializationSelected, &selected); err != nil {
		return "", false, err
	}
	return id, selected, nil
}

func (r *ProgressRepository) SaveSpecialization(ctx context.Context, id model.Specialization, hasSelected bool) error {
	if err := r.Storage.PutJSON(ctx, util.KeySpecialization, id); err != nil {
		return err
	}
	return r.Storage.PutJSON(ctx, util.KeySpecializationSelected, hasSelected)
}
