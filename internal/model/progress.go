package model

import "time"

// TargetStructureThreeTier marks a Progress State as migrated to the
// three-tier-aware schema.
const TargetStructureThreeTier = "three-tier-categories"

// ProgressSchemaVersion is stamped into exported progress documents.
const ProgressSchemaVersion = 2

// QuizAttempt is one completed quiz run. The attempts list is append-only
// and monotone in Date.
type QuizAttempt struct {
	QuizID     string            `json:"quizId"`
	Score      int               `json:"score"` // percent 0-100
	Passed     bool              `json:"passed"`
	Answers    map[string]string `json:"answers,omitempty"`
	Date       time.Time         `json:"date"`
	DurationMs int64             `json:"durationMs,omitempty"`
}

// MigrationInfo is set once a Progress State has been migrated.
type MigrationInfo struct {
	MigrationID         string    `json:"migrationId"`
	SourceStructure     string    `json:"sourceStructure"`
	TargetStructure     string    `json:"targetStructure"`
	MigratedAt          time.Time `json:"migratedAt"`
	PreviousSnapshotKey string    `json:"previousSnapshotKey"`
}

// CategoryProgressBucket groups progress under one three-tier category.
type CategoryProgressBucket struct {
	ModulesCompleted  []string      `json:"modulesCompleted"`
	ModulesInProgress []string      `json:"modulesInProgress"`
	QuizAttempts      []QuizAttempt `json:"quizAttempts"`
	AverageScore      float64       `json:"averageScore"`
}

// ProgressState is the persisted per-user progress record. A module id
// appears in at most one of ModulesCompleted/ModulesInProgress.
type ProgressState struct {
	ModulesCompleted  []string      `json:"modulesCompleted"`
	ModulesInProgress []string      `json:"modulesInProgress"`
	QuizAttempts      []QuizAttempt `json:"quizAttempts"`
	LastActivity      time.Time     `json:"lastActivity"`

	MigrationInfo *MigrationInfo `json:"migrationInfo,omitempty"`

	// Filled by the migration; keyed by three-tier label.
	ProgressWithThreeTierCategories map[ThreeTierCategory]CategoryProgressBucket `json:"progressWithThreeTierCategories,omitempty"`
}

// Migrated reports whether the record already carries the three-tier schema.
func (p *ProgressState) Migrated() bool {
	return p.MigrationInfo != nil && p.MigrationInfo.TargetStructure == TargetStructureThreeTier
}

// HasMeaningfulProgress reports whether there is anything worth migrating.
func (p *ProgressState) HasMeaningfulProgress() bool {
	return len(p.ModulesCompleted) > 0 || len(p.ModulesInProgress) > 0 || len(p.QuizAttempts) > 0
}

// Clone deep-copies the state so subscribers and staging areas never
// alias live slices or maps.
func (p *ProgressState) Clone() *ProgressState {
	if p == nil {
		return nil
	}
	out := &ProgressState{
		ModulesCompleted:  append([]string(nil), p.ModulesCompleted...),
		ModulesInProgress: append([]string(nil), p.ModulesInProgress...),
		LastActivity:      p.LastActivity,
	}
	for _, a := range p.QuizAttempts {
		c := a
		if a.Answers != nil {
			c.Answers = make(map[string]string, len(a.Answers))
			for k, v := range a.Answers {
				c.Answers[k] = v
			}
		}
		out.QuizAttempts = append(out.QuizAttempts, c)
	}
	if p.MigrationInfo != nil {
		mi := *p.MigrationInfo
		out.MigrationInfo = &mi
	}
	if p.ProgressWithThreeTierCategories != nil {
		out.ProgressWithThreeTierCategories = make(map[ThreeTierCategory]CategoryProgressBucket, len(p.ProgressWithThreeTierCategories))
		for k, b := range p.ProgressWithThreeTierCategories {
			out.ProgressWithThreeTierCategories[k] = CategoryProgressBucket{
				ModulesCompleted:  append([]string(nil), b.ModulesCompleted...),
				ModulesInProgress: append([]string(nil), b.ModulesInProgress...),
				QuizAttempts:      append([]QuizAttempt(nil), b.QuizAttempts...),
				AverageScore:      b.AverageScore,
			}
		}
	}
	return out
}

// ProgressExport is the portable serialisation of the whole Progress State.
type ProgressExport struct {
	SchemaVersion int            `json:"schemaVersion"`
	ExportedAt    time.Time      `json:"exportedAt"`
	Progress      *ProgressState `json:"progress"`
}
