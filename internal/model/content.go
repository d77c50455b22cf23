package model

import "time"

// CategoryMapping records how an item's three-tier category was derived.
// Stored next to the derived label so it can always be cross-checked
// against a fresh mapping of the legacy code.
type CategoryMapping struct {
	ThreeTierCategory ThreeTierCategory `json:"threeTierCategory"`
	SourceCategory    string            `json:"sourceCategory"`
	MappingTimestamp  time.Time         `json:"mappingTimestamp"`
}

// CodeExample is an inline code sample attached to a module.
type CodeExample struct {
	Language    string `json:"language"`
	Code        string `json:"code"`
	Title       string `json:"title,omitempty"`
	Explanation string `json:"explanation,omitempty"`
}

// Module is an immutable, enriched content record. The legacy Category
// code is preserved exactly as shipped in the corpus; ThreeTierCategory
// is derived at load time and always recomputable.
type Module struct {
	ID                string            `json:"id"`
	Title             string            `json:"title"`
	Description       string            `json:"description"`
	Content           string            `json:"content"` // markdown
	Category          string            `json:"category"`
	ThreeTierCategory ThreeTierCategory `json:"threeTierCategory"`
	CategoryMapping   CategoryMapping   `json:"categoryMapping"`
	Difficulty        Difficulty        `json:"difficulty"`
	ExamRelevance     Relevance         `json:"examRelevance"`
	EstimatedTime     int               `json:"estimatedTime"` // minutes
	Tags              []string          `json:"tags"`
	Prerequisites     []string          `json:"prerequisites"`
	RelatedQuizzes    []string          `json:"relatedQuizzes"`
	NewIn2025         bool              `json:"newIn2025"`
	RemovedIn2025     bool              `json:"removedIn2025"`
	Important         bool              `json:"important"`
	CodeExamples      []CodeExample     `json:"codeExamples,omitempty"`
}

type QuestionType string

const (
	QuestionSingleChoice   QuestionType = "single-choice"
	QuestionMultipleChoice QuestionType = "multiple-choice"
	QuestionTrueFalse      QuestionType = "true-false"
	QuestionCode           QuestionType = "code"
)

func (t QuestionType) Valid() bool {
	switch t {
	case QuestionSingleChoice, QuestionMultipleChoice, QuestionTrueFalse, QuestionCode:
		return true
	}
	return false
}

// Question belongs to a quiz. CorrectAnswer holds one entry for
// single-choice/true-false/code questions and several for
// multiple-choice ones; the loader normalises both wire shapes.
type Question struct {
	ID            string       `json:"id"`
	Type          QuestionType `json:"type"`
	Question      string       `json:"question"`
	Code          string       `json:"code,omitempty"`
	Language      string       `json:"language,omitempty"`
	Options       []string     `json:"options,omitempty"`
	CorrectAnswer []string     `json:"correctAnswer"`
	Points        int          `json:"points"`
	Explanation   string       `json:"explanation,omitempty"`
}

type Quiz struct {
	ID                string            `json:"id"`
	ModuleID          string            `json:"moduleId"`
	Title             string            `json:"title"`
	Description       string            `json:"description"`
	Category          string            `json:"category"`
	ThreeTierCategory ThreeTierCategory `json:"threeTierCategory"`
	CategoryMapping   CategoryMapping   `json:"categoryMapping"`
	Difficulty        Difficulty        `json:"difficulty"`
	TimeLimit         int               `json:"timeLimit,omitempty"` // minutes, 0 = none
	PassingScore      int               `json:"passingScore"`        // percent
	Questions         []Question        `json:"questions"`
	NewIn2025         bool              `json:"newIn2025"`
	Tags              []string          `json:"tags"`
}

// LearningPathModule orders a module inside a path.
type LearningPathModule struct {
	ModuleID string `json:"moduleId"`
	Order    int    `json:"order"`
	Required bool   `json:"required"`
}

// LearningPathQuiz orders a quiz inside a path; the quiz stays locked
// until every module in UnlockAfterModules is completed.
type LearningPathQuiz struct {
	QuizID             string   `json:"quizId"`
	Order              int      `json:"order"`
	Required           bool     `json:"required"`
	UnlockAfterModules []string `json:"unlockAfterModules,omitempty"`
}

type Milestone struct {
	Title           string   `json:"title"`
	Description     string   `json:"description"`
	RequiredModules []string `json:"requiredModules"`
	RequiredQuizzes []string `json:"requiredQuizzes"`
}

type LearningPath struct {
	ID                string               `json:"id"`
	Title             string               `json:"title"`
	Description       string               `json:"description"`
	Difficulty        Difficulty           `json:"difficulty"`
	EstimatedDuration int                  `json:"estimatedDuration"` // hours
	Specialization    string               `json:"specialization,omitempty"`
	Modules           []LearningPathModule `json:"modules"`
	Quizzes           []LearningPathQuiz   `json:"quizzes"`
	Milestones        []Milestone          `json:"milestones"`
}

// ExamChanges2025 mirrors metadata/exam-changes-2025.json.
type ExamChanges2025 struct {
	NewTopics     []string `json:"newTopics"`
	RemovedTopics []string `json:"removedTopics"`
}
