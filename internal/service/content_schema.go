package service

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"ihk_prep_backend/internal/model"
	"ihk_prep_backend/internal/util"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// Wire-level document shapes. The corpus is heterogeneous: estimatedTime
// can be a number or a string ("1,5 Stunden"), correctAnswer a string or
// a list. These types absorb both so the enriched records stay clean.

// flexMinutes accepts a JSON number (minutes) or a human duration string.
type flexMinutes int

func (m *flexMinutes) UnmarshalJSON(data []byte) error {
	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		if n < 0 {
			n = 0
		}
		*m = flexMinutes(int(n + 0.5))
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("estimatedTime: expected number or string")
	}
	*m = flexMinutes(util.ParseEstimatedTime(s))
	return nil
}

// answerList accepts a single string or a list of strings.
type answerList []string

func (a *answerList) UnmarshalJSON(data []byte) error {
	var one string
	if err := json.Unmarshal(data, &one); err == nil {
		*a = []string{one}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return fmt.Errorf("correctAnswer: expected string or string list")
	}
	*a = many
	return nil
}

type rawQuestion struct {
	ID            string     `json:"id"`
	Type          string     `json:"type"`
	Question      string     `json:"question"`
	Code          string     `json:"code"`
	Language      string     `json:"language"`
	Options       []string   `json:"options"`
	CorrectAnswer answerList `json:"correctAnswer"`
	Points        int        `json:"points"`
	Explanation   string     `json:"explanation"`
}

type rawModule struct {
	ID                string              `json:"id"`
	Title             string              `json:"title"`
	Description       string              `json:"description"`
	Content           string              `json:"content"`
	Category          string              `json:"category"`
	ThreeTierCategory string              `json:"threeTierCategory"`
	Difficulty        string              `json:"difficulty"`
	ExamRelevance     string              `json:"examRelevance"`
	EstimatedTime     flexMinutes         `json:"estimatedTime"`
	Tags              []string            `json:"tags"`
	Prerequisites     []string            `json:"prerequisites"`
	RelatedQuizzes    []string            `json:"relatedQuizzes"`
	NewIn2025         bool                `json:"newIn2025"`
	RemovedIn2025     bool                `json:"removedIn2025"`
	Important         bool                `json:"important"`
	CodeExamples      []model.CodeExample `json:"codeExamples"`
}

type rawQuiz struct {
	ID                string        `json:"id"`
	ModuleID          string        `json:"moduleId"`
	Title             string        `json:"title"`
	Description       string        `json:"description"`
	Category          string        `json:"category"`
	ThreeTierCategory string        `json:"threeTierCategory"`
	Difficulty        string        `json:"difficulty"`
	TimeLimit         flexMinutes   `json:"timeLimit"`
	PassingScore      int           `json:"passingScore"`
	Questions         []rawQuestion `json:"questions"`
	NewIn2025         bool          `json:"newIn2025"`
	Tags              []string      `json:"tags"`
}

// Structural schemas for the manifest documents. Semantic rules
// (reference resolution, category closure) are checked separately by the
// validation service.
const moduleSchemaJSON = `{
	"type": "object",
	"required": ["id", "title", "category"],
	"properties": {
		"id": {"type": "string", "minLength": 1},
		"title": {"type": "string", "minLength": 1},
		"description": {"type": "string"},
		"category": {"type": "string", "minLength": 1},
		"difficulty": {"enum": ["beginner", "intermediate", "advanced"]},
		"examRelevance": {"enum": ["high", "medium", "low"]},
		"estimatedTime": {"type": ["number", "string"]},
		"tags": {"type": "array", "items": {"type": "string"}},
		"prerequisites": {"type": "array", "items": {"type": "string"}},
		"relatedQuizzes": {"type": "array", "items": {"type": "string"}}
	}
}`

const quizSchemaJSON = `{
	"type": "object",
	"required": ["id", "moduleId", "title", "questions"],
	"properties": {
		"id": {"type": "string", "minLength": 1},
		"moduleId": {"type": "string", "minLength": 1},
		"title": {"type": "string", "minLength": 1},
		"passingScore": {"type": "number", "minimum": 0, "maximum": 100},
		"timeLimit": {"type": ["number", "string"]},
		"questions": {
			"type": "array",
			"minItems": 1,
			"items": {
				"type": "object",
				"required": ["id", "type", "question", "correctAnswer", "points"],
				"properties": {
					"type": {"enum": ["single-choice", "multiple-choice", "true-false", "code"]},
					"points": {"type": "number", "minimum": 1}
				}
			}
		}
	}
}`

const learningPathSchemaJSON = `{
	"type": "object",
	"required": ["id", "title", "modules"],
	"properties": {
		"id": {"type": "string", "minLength": 1},
		"title": {"type": "string", "minLength": 1},
		"estimatedDuration": {"type": "number", "minimum": 0},
		"modules": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["moduleId", "order"],
				"properties": {
					"moduleId": {"type": "string", "minLength": 1},
					"order": {"type": "number"}
				}
			}
		}
	}
}`

var (
	schemaOnce     sync.Once
	moduleSchema   *jsonschema.Schema
	quizSchema     *jsonschema.Schema
	learningSchema *jsonschema.Schema
	schemaErr      error
)

func compileSchemas() error {
	schemaOnce.Do(func() {
		c := jsonschema.NewCompiler()
		for name, text := range map[string]string{
			"schema://module.json":        moduleSchemaJSON,
			"schema://quiz.json":          quizSchemaJSON,
			"schema://learning-path.json": learningPathSchemaJSON,
		} {
			doc, err := jsonschema.UnmarshalJSON(strings.NewReader(text))
			if err != nil {
				schemaErr = fmt.Errorf("parse %s: %w", name, err)
				return
			}
			if err := c.AddResource(name, doc); err != nil {
				schemaErr = fmt.Errorf("add %s: %w", name, err)
				return
			}
		}
		if moduleSchema, schemaErr = c.Compile("schema://module.json"); schemaErr != nil {
			return
		}
		if quizSchema, schemaErr = c.Compile("schema://quiz.json"); schemaErr != nil {
			return
		}
		learningSchema, schemaErr = c.Compile("schema://learning-path.json")
	})
	return schemaErr
}

// validateDocument checks raw JSON against one of the compiled schemas.
func validateDocument(schema *jsonschema.Schema, raw []byte) error {
	parsed, err := jsonschema.UnmarshalJSON(strings.NewReader(string(raw)))
	if err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return schema.Validate(parsed)
}
