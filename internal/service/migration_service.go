package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"time"

	"ihk_prep_backend/internal/model"
	"ihk_prep_backend/internal/repository"
	"ihk_prep_backend/internal/util"
	"ihk_prep_backend/pkg/logger"
	"ihk_prep_backend/pkg/monitoring"
	"ihk_prep_backend/pkg/tracing"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SourceStructureFlat is the pre-migration schema: flat id lists without
// per-category buckets.
const SourceStructureFlat = "flat-lists"

// MigrationService moves a flat Progress State to the three-tier-aware
// schema. The protocol is snapshot first, transform on a staging copy,
// then one atomic publish; the progress lock is held for the whole
// window so no write can slip in between snapshot and publish.
type MigrationService struct {
	Progress *ProgressService
	Repo     *repository.ProgressRepository
	Content  *ContentService
}

func NewMigrationService(progress *ProgressService, repo *repository.ProgressRepository, content *ContentService) *MigrationService {
	return &MigrationService{Progress: progress, Repo: repo, Content: content}
}

// CheckMigrationNeeded reports whether a migration would do anything.
func (s *MigrationService) CheckMigrationNeeded(ctx context.Context) (bool, string, error) {
	p, err := s.Repo.LoadProgress(ctx)
	if err != nil {
		return false, "", err
	}
	if p.Migrated() {
		return false, "progress already carries the three-tier structure", nil
	}
	if !p.HasMeaningfulProgress() {
		return false, "no progress recorded yet", nil
	}
	return true, "flat progress record found", nil
}

// MigrateAtStartup upgrades the stored record once at boot when it still
// carries the flat structure. Already-migrated and empty records are left
// untouched, so running this on every start is safe.
func (s *MigrationService) MigrateAtStartup(ctx context.Context) error {
	needed, reason, err := s.CheckMigrationNeeded(ctx)
	if err != nil {
		return err
	}
	if !needed {
		logger.Log.Debug("startup migration skipped", zap.String("reason", reason))
		return nil
	}
	result, err := s.MigrateProgress(ctx)
	if err != nil {
		return err
	}
	logger.Log.Info("startup migration completed",
		zap.String("migrationId", result.MigrationID),
		zap.Int("modules", result.MigratedModules),
		zap.Int("quizAttempts", result.MigratedQuizzes))
	return nil
}

// MigrateProgress runs the full protocol. It is idempotent: a second
// call on migrated data reports alreadyMigrated without touching
// storage.
func (s *MigrationService) MigrateProgress(ctx context.Context) (*model.MigrationResult, error) {
	ctx, span := tracing.Tracer.Start(ctx, "progress.migrate")
	defer span.End()

	start := time.Now()
	report := &model.MigrationReport{
		StartedAt:   start,
		PhaseCounts: map[string]int{},
	}

	s.Progress.LockProgress()
	defer s.Progress.UnlockProgress()

	// detect
	raw, exists, err := s.Repo.LoadProgressRaw(ctx)
	if err != nil {
		monitoring.MigrationRuns.WithLabelValues("error").Inc()
		return nil, err
	}
	report.PhaseCounts["detect"] = 1

	current := &model.ProgressState{}
	if exists {
		if err := json.Unmarshal(raw, current); err != nil {
			monitoring.MigrationRuns.WithLabelValues("error").Inc()
			return nil, fmt.Errorf("%w: stored progress is not valid JSON: %v", util.ErrDataIntegrity, err)
		}
	}

	if current.Migrated() {
		monitoring.MigrationRuns.WithLabelValues("already-migrated").Inc()
		return &model.MigrationResult{
			Success:         true,
			AlreadyMigrated: true,
			MigrationID:     current.MigrationInfo.MigrationID,
			Message:         "progress already migrated",
		}, nil
	}

	migrationID := uuid.New().String()
	report.MigrationID = migrationID

	// snapshot: only when there is prior data worth preserving
	snapshotKey := ""
	if exists && current.HasMeaningfulProgress() {
		snapshotKey, err = s.Repo.WriteSnapshot(ctx, migrationID, raw)
		if err != nil {
			monitoring.MigrationRuns.WithLabelValues("error").Inc()
			return nil, err
		}
		monitoring.SnapshotSizeBytes.Set(float64(len(raw)))
		report.PerformanceMetrics.SnapshotSizeBytes = len(raw)
		report.PhaseCounts["snapshot"] = 1
	}

	// transform on a staging copy
	staged := current.Clone()
	buckets, unknown, err := s.deriveBuckets(ctx, staged)
	if err != nil {
		monitoring.MigrationRuns.WithLabelValues("error").Inc()
		return nil, err
	}
	staged.ProgressWithThreeTierCategories = buckets
	staged.MigrationInfo = &model.MigrationInfo{
		MigrationID:         migrationID,
		SourceStructure:     SourceStructureFlat,
		TargetStructure:     model.TargetStructureThreeTier,
		MigratedAt:          time.Now(),
		PreviousSnapshotKey: snapshotKey,
	}
	report.PhaseCounts["transform"] = 1

	// conflict detection: the stored bytes must still match the snapshot
	check, checkExists, err := s.Repo.LoadProgressRaw(ctx)
	if err != nil {
		monitoring.MigrationRuns.WithLabelValues("error").Inc()
		return nil, err
	}
	if checkExists != exists || !bytes.Equal(check, raw) {
		monitoring.MigrationRuns.WithLabelValues("conflict").Inc()
		return nil, util.ErrMigrationConflict
	}

	// publish
	if err := s.Repo.SaveProgress(ctx, staged); err != nil {
		monitoring.MigrationRuns.WithLabelValues("error").Inc()
		return nil, err
	}
	s.Progress.State.SetProgress(staged)
	report.PhaseCounts["publish"] = 1

	elapsed := time.Since(start)
	monitoring.MigrationRuns.WithLabelValues("success").Inc()
	monitoring.MigrationDuration.Observe(elapsed.Seconds())

	report.FinishedAt = time.Now()
	report.PerformanceMetrics.ResponseTime = elapsed.Milliseconds()
	report.PerformanceMetrics.MigrationDurationMs = elapsed.Milliseconds()
	report.PostMigrationValidation = s.validateMigrated(staged)

	migratedModules := len(staged.ModulesCompleted) + len(staged.ModulesInProgress)
	logger.Log.Info("progress migrated",
		zap.String("migrationId", migrationID),
		zap.Int("modules", migratedModules),
		zap.Int("quizAttempts", len(staged.QuizAttempts)),
		zap.Int("unknownRefs", unknown),
		zap.Duration("took", elapsed),
	)

	return &model.MigrationResult{
		Success:         true,
		MigrationID:     migrationID,
		SnapshotKey:     snapshotKey,
		Message:         "progress migrated to three-tier categories",
		MigratedModules: migratedModules,
		MigratedQuizzes: len(staged.QuizAttempts),
		Report:          report,
	}, nil
}

// deriveBuckets recomputes the per-category grouping from the flat
// lists. Ids that no longer resolve to corpus content land in the
// allgemein bucket so no progress is dropped.
func (s *MigrationService) deriveBuckets(ctx context.Context, p *model.ProgressState) (map[model.ThreeTierCategory]model.CategoryProgressBucket, int, error) {
	buckets := make(map[model.ThreeTierCategory]model.CategoryProgressBucket, len(model.AllThreeTierCategories))
	for _, label := range model.AllThreeTierCategories {
		buckets[label] = model.CategoryProgressBucket{}
	}

	unknown := 0
	moduleCategory := func(id string) (model.ThreeTierCategory, error) {
		m, ok, err := s.Content.GetModuleByID(ctx, id)
		if err != nil {
			return "", err
		}
		if !ok {
			unknown++
			return model.CategoryAllgemein, nil
		}
		return m.ThreeTierCategory, nil
	}

	for _, id := range p.ModulesCompleted {
		label, err := moduleCategory(id)
		if err != nil {
			return nil, 0, err
		}
		b := buckets[label]
		b.ModulesCompleted = append(b.ModulesCompleted, id)
		buckets[label] = b
	}
	for _, id := range p.ModulesInProgress {
		label, err := moduleCategory(id)
		if err != nil {
			return nil, 0, err
		}
		b := buckets[label]
		b.ModulesInProgress = append(b.ModulesInProgress, id)
		buckets[label] = b
	}
	for _, attempt := range p.QuizAttempts {
		label := model.CategoryAllgemein
		q, ok, err := s.Content.GetQuizByID(ctx, attempt.QuizID)
		if err != nil {
			return nil, 0, err
		}
		if ok {
			label = q.ThreeTierCategory
		} else {
			unknown++
		}
		b := buckets[label]
		b.QuizAttempts = append(b.QuizAttempts, attempt)
		buckets[label] = b
	}

	for label, b := range buckets {
		sort.Strings(b.ModulesCompleted)
		sort.Strings(b.ModulesInProgress)
		if len(b.QuizAttempts) > 0 {
			sum := 0
			for _, a := range b.QuizAttempts {
				sum += a.Score
			}
			b.AverageScore = math.Round(float64(sum)/float64(len(b.QuizAttempts))*100) / 100
		}
		buckets[label] = b
	}
	return buckets, unknown, nil
}

// validateMigrated checks that the bucket fan-out preserved every entry
// of the flat lists.
func (s *MigrationService) validateMigrated(p *model.ProgressState) model.PostMigrationValidation {
	v := model.PostMigrationValidation{IsValid: true}

	doneCount, inProgCount, attemptCount := 0, 0, 0
	seen := make(map[string]bool)
	for label, b := range p.ProgressWithThreeTierCategories {
		if !label.Valid() {
			v.Errors = append(v.Errors, fmt.Sprintf("unknown category bucket %q", label))
		}
		doneCount += len(b.ModulesCompleted)
		inProgCount += len(b.ModulesInProgress)
		attemptCount += len(b.QuizAttempts)
		for _, id := range append(append([]string(nil), b.ModulesCompleted...), b.ModulesInProgress...) {
			if seen[id] {
				v.Errors = append(v.Errors, fmt.Sprintf("module %s appears in more than one bucket", id))
			}
			seen[id] = true
		}
	}
	if doneCount != len(p.ModulesCompleted) {
		v.Errors = append(v.Errors, fmt.Sprintf("completed module count mismatch: %d buckets vs %d flat", doneCount, len(p.ModulesCompleted)))
	}
	if inProgCount != len(p.ModulesInProgress) {
		v.Errors = append(v.Errors, fmt.Sprintf("in-progress module count mismatch: %d buckets vs %d flat", inProgCount, len(p.ModulesInProgress)))
	}
	if attemptCount != len(p.QuizAttempts) {
		v.Errors = append(v.Errors, fmt.Sprintf("quiz attempt count mismatch: %d buckets vs %d flat", attemptCount, len(p.QuizAttempts)))
	}
	if len(v.Errors) > 0 {
		v.IsValid = false
	}
	return v
}

// RollbackMigration restores the pre-migration snapshot byte-faithfully.
func (s *MigrationService) RollbackMigration(ctx context.Context, migrationID string) (*model.MigrationResult, error) {
	ctx, span := tracing.Tracer.Start(ctx, "progress.rollback")
	defer span.End()

	s.Progress.LockProgress()
	defer s.Progress.UnlockProgress()

	raw, ok, err := s.Repo.ReadSnapshot(ctx, migrationID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: migration %s", util.ErrSnapshotMissing, migrationID)
	}

	current, err := s.Repo.LoadProgress(ctx)
	if err != nil {
		return nil, err
	}
	if current.MigrationInfo == nil || current.MigrationInfo.MigrationID != migrationID {
		return nil, fmt.Errorf("%w: current progress was not produced by migration %s", util.ErrMigrationConflict, migrationID)
	}

	restored := &model.ProgressState{}
	if err := json.Unmarshal(raw, restored); err != nil {
		return nil, fmt.Errorf("%w: snapshot %s is not valid JSON: %v", util.ErrDataIntegrity, migrationID, err)
	}
	if err := s.Repo.SaveProgressRaw(ctx, raw); err != nil {
		return nil, err
	}
	s.Progress.State.SetProgress(restored)

	monitoring.MigrationRuns.WithLabelValues("rollback").Inc()
	logger.Log.Info("migration rolled back", zap.String("migrationId", migrationID))

	return &model.MigrationResult{
		Success:     true,
		MigrationID: migrationID,
		Message:     "snapshot restored",
	}, nil
}

// GetProgressWithThreeTierCategories returns the stored buckets when the
// state is migrated, or a derived view otherwise.
func (s *MigrationService) GetProgressWithThreeTierCategories(ctx context.Context) (map[model.ThreeTierCategory]model.CategoryProgressBucket, error) {
	p := s.Progress.State.Progress()
	if p.Migrated() && p.ProgressWithThreeTierCategories != nil {
		return p.ProgressWithThreeTierCategories, nil
	}
	buckets, _, err := s.deriveBuckets(ctx, p)
	if err != nil {
		return nil, err
	}
	return buckets, nil
}

// ListSnapshots exposes the stored snapshot ids.
func (s *MigrationService) ListSnapshots(ctx context.Context) ([]string, error) {
	return s.Repo.ListSnapshots(ctx)
}
