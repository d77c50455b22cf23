package service

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ihk_prep_backend/internal/model"
	"ihk_prep_backend/internal/util"
)

func seedFlatProgress(t *testing.T, f *engineFixture) []byte {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, f.progress.MarkModuleComplete(ctx, "bp-dpa-01-er-modeling"))
	require.NoError(t, f.progress.MarkModuleStarted(ctx, "bp-ae-01-oop"))
	_, err := f.progress.SaveQuizAttempt(ctx, "quiz-er-modeling", 80, nil, 0)
	require.NoError(t, err)
	_, err = f.progress.SaveQuizAttempt(ctx, "quiz-er-modeling", 90, nil, 0)
	require.NoError(t, err)

	raw, exists, err := f.repo.LoadProgressRaw(ctx)
	require.NoError(t, err)
	require.True(t, exists)
	return raw
}

func TestMigrateProgress(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()
	before := seedFlatProgress(t, f)

	result, err := f.migration.MigrateProgress(ctx)
	require.NoError(t, err)
	require.True(t, result.Success)
	assert.False(t, result.AlreadyMigrated)
	assert.NotEmpty(t, result.MigrationID)
	assert.NotEmpty(t, result.SnapshotKey)
	assert.Equal(t, 2, result.MigratedModules)
	assert.Equal(t, 2, result.MigratedQuizzes)

	require.NotNil(t, result.Report)
	assert.True(t, result.Report.PostMigrationValidation.IsValid)
	for _, phase := range []string{"detect", "snapshot", "transform", "publish"} {
		assert.Equal(t, 1, result.Report.PhaseCounts[phase], "phase %s", phase)
	}

	// snapshot preserves the pre-migration bytes verbatim
	snap, ok, err := f.repo.ReadSnapshot(ctx, result.MigrationID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, bytes.Equal(before, snap), "snapshot diverges from pre-migration record")

	p := f.state.Progress()
	require.NotNil(t, p.MigrationInfo)
	assert.Equal(t, SourceStructureFlat, p.MigrationInfo.SourceStructure)
	assert.Equal(t, model.TargetStructureThreeTier, p.MigrationInfo.TargetStructure)
	assert.Equal(t, result.SnapshotKey, p.MigrationInfo.PreviousSnapshotKey)

	// flat lists stay authoritative, buckets mirror them
	assert.Equal(t, []string{"bp-dpa-01-er-modeling"}, p.ModulesCompleted)
	dpa := p.ProgressWithThreeTierCategories[model.CategoryDPA]
	assert.Equal(t, []string{"bp-dpa-01-er-modeling"}, dpa.ModulesCompleted)
	assert.InDelta(t, 85.0, dpa.AverageScore, 0.001)
	ae := p.ProgressWithThreeTierCategories[model.CategoryAE]
	assert.Equal(t, []string{"bp-ae-01-oop"}, ae.ModulesInProgress)
}

func TestMigrateProgressIdempotent(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()
	seedFlatProgress(t, f)

	first, err := f.migration.MigrateProgress(ctx)
	require.NoError(t, err)

	second, err := f.migration.MigrateProgress(ctx)
	require.NoError(t, err)
	assert.True(t, second.AlreadyMigrated)
	assert.Equal(t, first.MigrationID, second.MigrationID)

	snapshots, err := f.migration.ListSnapshots(ctx)
	require.NoError(t, err)
	assert.Len(t, snapshots, 1)
}

func TestMigrateEmptyProgressSkipsSnapshot(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	result, err := f.migration.MigrateProgress(ctx)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Empty(t, result.SnapshotKey)

	snapshots, err := f.migration.ListSnapshots(ctx)
	require.NoError(t, err)
	assert.Empty(t, snapshots)

	// the stamp still lands, so readers see a migrated record
	needed, reason, err := f.migration.CheckMigrationNeeded(ctx)
	require.NoError(t, err)
	assert.False(t, needed, reason)
}

func TestRollbackRestoresSnapshotBytes(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()
	before := seedFlatProgress(t, f)

	result, err := f.migration.MigrateProgress(ctx)
	require.NoError(t, err)

	rollback, err := f.migration.RollbackMigration(ctx, result.MigrationID)
	require.NoError(t, err)
	assert.True(t, rollback.Success)

	raw, exists, err := f.repo.LoadProgressRaw(ctx)
	require.NoError(t, err)
	require.True(t, exists)
	assert.True(t, bytes.Equal(before, raw), "rollback did not restore the original bytes")

	p := f.state.Progress()
	assert.Nil(t, p.MigrationInfo)
	assert.Equal(t, []string{"bp-dpa-01-er-modeling"}, p.ModulesCompleted)
}

func TestRollbackUnknownMigration(t *testing.T) {
	f := newEngineFixture(t)

	_, err := f.migration.RollbackMigration(context.Background(), "missing-id")
	assert.ErrorIs(t, err, util.ErrSnapshotMissing)
}

func TestRollbackRejectsForeignMigrationID(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()
	seedFlatProgress(t, f)

	result, err := f.migration.MigrateProgress(ctx)
	require.NoError(t, err)

	// a later change is attributed to a different migration stamp
	rollback, err := f.migration.RollbackMigration(ctx, result.MigrationID)
	require.NoError(t, err)
	require.True(t, rollback.Success)

	_, err = f.migration.RollbackMigration(ctx, result.MigrationID)
	assert.ErrorIs(t, err, util.ErrMigrationConflict)
}

func TestCheckMigrationNeededTransitions(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	needed, _, err := f.migration.CheckMigrationNeeded(ctx)
	require.NoError(t, err)
	assert.False(t, needed, "empty record must not demand a migration")

	seedFlatProgress(t, f)
	needed, _, err = f.migration.CheckMigrationNeeded(ctx)
	require.NoError(t, err)
	assert.True(t, needed)

	_, err = f.migration.MigrateProgress(ctx)
	require.NoError(t, err)
	needed, _, err = f.migration.CheckMigrationNeeded(ctx)
	require.NoError(t, err)
	assert.False(t, needed)
}

func TestThreeTierViewWithoutMigration(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()
	seedFlatProgress(t, f)

	buckets, err := f.migration.GetProgressWithThreeTierCategories(ctx)
	require.NoError(t, err)
	dpa := buckets[model.CategoryDPA]
	assert.Equal(t, []string{"bp-dpa-01-er-modeling"}, dpa.ModulesCompleted)
	assert.Len(t, dpa.QuizAttempts, 2)
}

func TestMigrateAtStartup(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()
	seedFlatProgress(t, f)

	require.NoError(t, f.migration.MigrateAtStartup(ctx))

	needed, _, err := f.migration.CheckMigrationNeeded(ctx)
	require.NoError(t, err)
	assert.False(t, needed, "flat record must be lifted during startup")
	require.NotNil(t, f.state.Progress().MigrationInfo)

	// a second boot on migrated data leaves storage untouched
	snapshots, err := f.migration.ListSnapshots(ctx)
	require.NoError(t, err)
	require.Len(t, snapshots, 1)
	require.NoError(t, f.migration.MigrateAtStartup(ctx))
	snapshots, err = f.migration.ListSnapshots(ctx)
	require.NoError(t, err)
	assert.Len(t, snapshots, 1)
}

func TestMigrateAtStartupFreshInstall(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	require.NoError(t, f.migration.MigrateAtStartup(ctx))

	snapshots, err := f.migration.ListSnapshots(ctx)
	require.NoError(t, err)
	assert.Empty(t, snapshots, "nothing to migrate on a fresh install")
}
