package model

import "time"

// CategoryDisplay is the result of mapping an item to its three-tier
// category, bundled with display metadata.
type CategoryDisplay struct {
	Category    ThreeTierCategory `json:"category"`
	CSSClass    string            `json:"cssClass"`
	Icon        string            `json:"icon"`
	Color       string            `json:"color"`
	DisplayName string            `json:"displayName"`
	MappedAt    time.Time         `json:"mappedAt"`
}

// CategoryBreakdownEntry summarises progress inside one three-tier category.
type CategoryBreakdownEntry struct {
	Category             ThreeTierCategory `json:"category"`
	ModulesCompleted     int               `json:"modulesCompleted"`
	TotalModules         int               `json:"totalModules"`
	QuizzesPassed        int               `json:"quizzesPassed"`
	TotalQuizzes         int               `json:"totalQuizzes"`
	CompletionPercentage int               `json:"completionPercentage"`
	Relevance            Relevance         `json:"relevance"`
}

// OverallProgress is the top-level progress read model.
type OverallProgress struct {
	ModulesCompleted  int                      `json:"modulesCompleted"`
	TotalModules      int                      `json:"totalModules"`
	QuizzesTaken      int                      `json:"quizzesTaken"`
	AverageQuizScore  int                      `json:"averageQuizScore"`
	OverallPercentage int                      `json:"overallPercentage"`
	LastActivity      time.Time                `json:"lastActivity"`
	CategoryBreakdown []CategoryBreakdownEntry `json:"categoryBreakdown"`
}

type ReadinessLevel string

const (
	ReadinessExcellent        ReadinessLevel = "excellent"
	ReadinessGood             ReadinessLevel = "good"
	ReadinessModerate         ReadinessLevel = "moderate"
	ReadinessNeedsImprovement ReadinessLevel = "needs-improvement"
	ReadinessInsufficient     ReadinessLevel = "insufficient"
)

// ReadinessBreakdown splits the composite score into its components.
type ReadinessBreakdown struct {
	ModuleReadiness    int `json:"moduleReadiness"`
	QuizReadiness      int `json:"quizReadiness"`
	NewTopicsReadiness int `json:"newTopicsReadiness"`
}

// ReadinessStatistics are the raw counts behind the readiness score.
type ReadinessStatistics struct {
	ModulesCompleted   int `json:"modulesCompleted"`
	TotalModules       int `json:"totalModules"`
	QuizzesPassed      int `json:"quizzesPassed"`
	TotalQuizzes       int `json:"totalQuizzes"`
	AverageQuizScore   int `json:"averageQuizScore"`
	NewTopicsCompleted int `json:"newTopicsCompleted"`
	NewTopicsTotal     int `json:"newTopicsTotal"`
}

// ExamReadiness is the composite readiness score.
type ExamReadiness struct {
	OverallReadiness int                 `json:"overallReadiness"` // percent
	ReadinessLevel   ReadinessLevel      `json:"readinessLevel"`
	Breakdown        ReadinessBreakdown  `json:"breakdown"`
	Statistics       ReadinessStatistics `json:"statistics"`
	Recommendation   string              `json:"recommendation"`
}

// LegacyCategoryProgress summarises progress per legacy category code.
type LegacyCategoryProgress struct {
	Category             string       `json:"category"`
	MainCategory         MainCategory `json:"mainCategory"`
	Completed            int          `json:"completed"`
	InProgress           int          `json:"inProgress"`
	Total                int          `json:"total"`
	CompletionPercentage int          `json:"completionPercentage"`
	ExamRelevance        Relevance    `json:"examRelevance"`
}

type WeakAreaType string

const (
	WeakAreaQuizPerformance    WeakAreaType = "quiz-performance"
	WeakAreaIncompleteCategory WeakAreaType = "incomplete-category"
	WeakAreaNewTopics2025      WeakAreaType = "new-topics-2025"
)

type WeakArea struct {
	Type           WeakAreaType `json:"type"`
	Subject        string       `json:"subject"` // quiz id or category label
	Severity       Relevance    `json:"severity"`
	Detail         string       `json:"detail"`
	Recommendation string       `json:"recommendation"`
}

type RelationshipKind string

const (
	RelationPrerequisite  RelationshipKind = "prerequisite"
	RelationRelated       RelationshipKind = "related"
	RelationAdvanced      RelationshipKind = "advanced"
	RelationComplementary RelationshipKind = "complementary"
)

// RelatedItem is one scored relationship candidate.
type RelatedItem struct {
	ID                string            `json:"id"`
	Title             string            `json:"title"`
	ThreeTierCategory ThreeTierCategory `json:"threeTierCategory"`
	Difficulty        Difficulty        `json:"difficulty"`
	RelationshipScore float64           `json:"relationshipScore"`
}

// RelationshipBuckets groups candidates into the four relationship kinds.
type RelationshipBuckets struct {
	Prerequisite  []RelatedItem `json:"prerequisite"`
	Related       []RelatedItem `json:"related"`
	Advanced      []RelatedItem `json:"advanced"`
	Complementary []RelatedItem `json:"complementary"`
}

type RelatedContent struct {
	ContentID     string              `json:"contentId"`
	Relationships RelationshipBuckets `json:"relationships"`
}

// Recommendation is a scored next-step suggestion.
type Recommendation struct {
	ID                    string            `json:"id"`
	Title                 string            `json:"title"`
	ThreeTierCategory     ThreeTierCategory `json:"threeTierCategory"`
	Difficulty            Difficulty        `json:"difficulty"`
	Score                 float64           `json:"score"`
	RecommendationReasons []string          `json:"recommendationReasons"`
}

// ValidationReport is produced by the category validation service.
type ValidationReport struct {
	IsValid    bool                      `json:"isValid"`
	TotalItems int                       `json:"totalItems"`
	ValidItems int                       `json:"validItems"`
	Errors     []string                  `json:"errors"`
	Warnings   []string                  `json:"warnings"`
	ByCategory map[ThreeTierCategory]int `json:"byCategory"`
}

type DroppedItem struct {
	ID     string `json:"id,omitempty"`
	File   string `json:"file"`
	Reason string `json:"reason"`
}

// LoadReport records what happened during corpus ingestion.
type LoadReport struct {
	LoadedModules      int           `json:"loadedModules"`
	LoadedQuizzes      int           `json:"loadedQuizzes"`
	LoadedPaths        int           `json:"loadedPaths"`
	DroppedItems       []DroppedItem `json:"droppedItems,omitempty"`
	Warnings           []string      `json:"warnings,omitempty"`
	DurationMs         int64         `json:"durationMs"`
	LoadedAt           time.Time     `json:"loadedAt"`
	PrerequisiteCycles []string      `json:"prerequisiteCycles,omitempty"`
}

// PerformanceMetrics are the timing figures of one migration span.
type PerformanceMetrics struct {
	ResponseTime        int64 `json:"responseTime"` // wall-clock ms
	MigrationDurationMs int64 `json:"migrationDurationMs"`
	SnapshotSizeBytes   int   `json:"snapshotSizeBytes"`
}

// PostMigrationValidation is the validation verdict after a migration.
type PostMigrationValidation struct {
	IsValid bool     `json:"isValid"`
	Errors  []string `json:"errors,omitempty"`
}

// MigrationReport is the monitoring summary of one migration span.
type MigrationReport struct {
	MigrationID             string                  `json:"migrationId"`
	StartedAt               time.Time               `json:"startedAt"`
	FinishedAt              time.Time               `json:"finishedAt"`
	PhaseCounts             map[string]int          `json:"phaseCounts"`
	PerformanceMetrics      PerformanceMetrics      `json:"performanceMetrics"`
	PostMigrationValidation PostMigrationValidation `json:"postMigrationValidation"`
}

// MigrationResult reports the outcome of one migration run.
type MigrationResult struct {
	Success         bool             `json:"success"`
	AlreadyMigrated bool             `json:"alreadyMigrated"`
	MigrationID     string           `json:"migrationId,omitempty"`
	SnapshotKey     string           `json:"snapshotKey,omitempty"`
	Message         string           `json:"message"`
	ErrorKind       string           `json:"errorKind,omitempty"`
	MigratedModules int              `json:"migratedModules"`
	MigratedQuizzes int              `json:"migratedQuizzes"`
	Report          *MigrationReport `json:"report,omitempty"`
}

// PathProgress summarises a learner's standing inside one learning path.
type PathProgress struct {
	PathID               string   `json:"pathId"`
	CompletedModules     int      `json:"completedModules"`
	TotalModules         int      `json:"totalModules"`
	CompletedQuizzes     int      `json:"completedQuizzes"`
	TotalQuizzes         int      `json:"totalQuizzes"`
	CompletionPercentage int      `json:"completionPercentage"`
	UnlockedQuizzes      []string `json:"unlockedQuizzes"`
	MilestonesReached    []string `json:"milestonesReached"`
}

// CategoryContentGroup fans content out per three-tier label for the UI.
type CategoryContentGroup struct {
	Category CategoryConfig `json:"categoryConfig"`
	Label    ThreeTierCategory `json:"label"`
	Modules  []*Module      `json:"modules"`
	Quizzes  []*Quiz        `json:"quizzes"`
}

type ContentType string

const (
	ContentTypeModule ContentType = "module"
	ContentTypeQuiz   ContentType = "quiz"
)

// ContentSummary is the flat projection used by category and search
// queries that span modules and quizzes.
type ContentSummary struct {
	ID                string            `json:"id"`
	Type              ContentType       `json:"type"`
	Title             string            `json:"title"`
	Description       string            `json:"description"`
	Category          string            `json:"category"`
	ThreeTierCategory ThreeTierCategory `json:"threeTierCategory"`
	Difficulty        Difficulty        `json:"difficulty"`
	ExamRelevance     Relevance         `json:"examRelevance"`
	NewIn2025         bool              `json:"newIn2025"`
	Tags              []string          `json:"tags"`
}

// SearchFilters narrows a content search. Nil fields are ignored.
type SearchFilters struct {
	Category      *ThreeTierCategory `json:"category,omitempty"`
	Difficulty    *Difficulty        `json:"difficulty,omitempty"`
	ExamRelevance *Relevance         `json:"examRelevance,omitempty"`
	NewIn2025     *bool              `json:"newIn2025,omitempty"`
}
