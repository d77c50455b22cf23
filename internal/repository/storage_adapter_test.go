package repository

import (
	"context"
	"errors"
	"testing"

	"ihk_prep_backend/internal/model"
	"ihk_prep_backend/internal/util"
)

func TestStorageAdapterNamespacesKeys(t *testing.T) {
	kv := NewMemoryKVStore()
	adapter := NewStorageAdapter(kv, 0)
	ctx := context.Background()

	if err := adapter.PutJSON(ctx, "progress", map[string]int{"a": 1}); err != nil {
		t.Fatalf("PutJSON: %v", err)
	}

	if _, ok, _ := kv.Get(ctx, "progress"); ok {
		t.Error("value stored without namespace prefix")
	}
	if _, ok, _ := kv.Get(ctx, util.KeyNamespace+"progress"); !ok {
		t.Error("value missing under namespaced key")
	}

	keys, err := adapter.Keys(ctx, "prog")
	if err != nil {
		t.Fatalf("Keys: %v", err)
	}
	if len(keys) != 1 || keys[0] != "progress" {
		t.Errorf("Keys = %v, want namespace stripped [progress]", keys)
	}
}

func TestStorageAdapterQuota(t *testing.T) {
	adapter := NewStorageAdapter(NewMemoryKVStore(), 8)
	ctx := context.Background()

	if err := adapter.PutRaw(ctx, "small", []byte("ok")); err != nil {
		t.Fatalf("PutRaw under quota: %v", err)
	}
	err := adapter.PutRaw(ctx, "big", []byte("way too large for the quota"))
	if !errors.Is(err, util.ErrQuotaExceeded) {
		t.Errorf("err = %v, want ErrQuotaExceeded", err)
	}
}

func TestStorageAdapterWrapsBackendFailure(t *testing.T) {
	kv := NewMemoryKVStore()
	kv.FailPuts = true
	adapter := NewStorageAdapter(kv, 0)

	err := adapter.PutRaw(context.Background(), "progress", []byte("{}"))
	if !errors.Is(err, util.ErrStorageFailure) {
		t.Errorf("err = %v, want ErrStorageFailure", err)
	}
}

func TestStorageAdapterCorruptValue(t *testing.T) {
	kv := NewMemoryKVStore()
	adapter := NewStorageAdapter(kv, 0)
	ctx := context.Background()

	if err := kv.Put(ctx, util.KeyNamespace+"progress", []byte("{broken")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	var dest map[string]interface{}
	_, err := adapter.GetJSON(ctx, "progress", &dest)
	if !errors.Is(err, util.ErrDataIntegrity) {
		t.Errorf("err = %v, want ErrDataIntegrity", err)
	}
}

func TestWriteSnapshotRefusesOverwrite(t *testing.T) {
	repo := NewProgressRepository(NewStorageAdapter(NewMemoryKVStore(), 0))
	ctx := context.Background()

	key, err := repo.WriteSnapshot(ctx, "mig-1", []byte(`{"modulesCompleted":["a"]}`))
	if err != nil {
		t.Fatalf("WriteSnapshot: %v", err)
	}
	if key != util.KeySnapshotPrefix+"mig-1" {
		t.Errorf("snapshot key = %q", key)
	}

	if _, err := repo.WriteSnapshot(ctx, "mig-1", []byte(`{}`)); !errors.Is(err, util.ErrDataIntegrity) {
		t.Errorf("overwrite err = %v, want ErrDataIntegrity", err)
	}

	raw, ok, err := repo.ReadSnapshot(ctx, "mig-1")
	if err != nil || !ok {
		t.Fatalf("ReadSnapshot: ok=%v err=%v", ok, err)
	}
	if string(raw) != `{"modulesCompleted":["a"]}` {
		t.Errorf("snapshot mutated: %s", raw)
	}
}

func TestListSnapshotsStripsPrefix(t *testing.T) {
	repo := NewProgressRepository(NewStorageAdapter(NewMemoryKVStore(), 0))
	ctx := context.Background()

	for _, id := range []string{"b", "a"} {
		if _, err := repo.WriteSnapshot(ctx, id, []byte("{}")); err != nil {
			t.Fatalf("WriteSnapshot(%s): %v", id, err)
		}
	}
	ids, err := repo.ListSnapshots(ctx)
	if err != nil {
		t.Fatalf("ListSnapshots: %v", err)
	}
	if len(ids) != 2 || ids[0] != "a" || ids[1] != "b" {
		t.Errorf("ids = %v, want sorted [a b]", ids)
	}
}

func TestProgressRoundTrip(t *testing.T) {
	repo := NewProgressRepository(NewStorageAdapter(NewMemoryKVStore(), 0))
	ctx := context.Background()

	empty, err := repo.LoadProgress(ctx)
	if err != nil {
		t.Fatalf("LoadProgress on empty store: %v", err)
	}
	if empty.HasMeaningfulProgress() {
		t.Error("empty store reports meaningful progress")
	}

	saved := &model.ProgressState{ModulesCompleted: []string{"bp-dpa-01-er-modeling"}}
	if err := repo.SaveProgress(ctx, saved); err != nil {
		t.Fatalf("SaveProgress: %v", err)
	}
	loaded, err := repo.LoadProgress(ctx)
	if err != nil {
		t.Fatalf("LoadProgress: %v", err)
	}
	if len(loaded.ModulesCompleted) != 1 || loaded.ModulesCompleted[0] != "bp-dpa-01-er-modeling" {
		t.Errorf("loaded = %v", loaded.ModulesCompleted)
	}
}

func TestSpecializationRoundTrip(t *testing.T) {
	repo := NewProgressRepository(NewStorageAdapter(NewMemoryKVStore(), 0))
	ctx := context.Background()

	if _, selected, err := repo.LoadSpecialization(ctx); err != nil || selected {
		t.Fatalf("fresh store: selected=%v err=%v", selected, err)
	}

	if err := repo.SaveSpecialization(ctx, model.SpecializationDPA, true); err != nil {
		t.Fatalf("SaveSpecialization: %v", err)
	}
	id, selected, err := repo.LoadSpecialization(ctx)
	if err != nil {
		t.Fatalf("LoadSpecialization: %v", err)
	}
	if id != model.SpecializationDPA || !selected {
		t.Errorf("got %v/%v, want daten-prozessanalyse/true", id, selected)
	}
}
