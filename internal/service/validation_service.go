package service

import (
	"context"
	"fmt"

	"ihk_prep_backend/internal/model"
	"ihk_prep_backend/internal/state"
)

// ValidationService cross-checks the loaded corpus and the Progress
// State against the category invariants.
type ValidationService struct {
	Content    *ContentService
	Categories *CategoryService
	State      *state.Store
}

func NewValidationService(content *ContentService, categories *CategoryService, st *state.Store) *ValidationService {
	return &ValidationService{Content: content, Categories: categories, State: st}
}

// ValidateCategoryMappings recomputes every item's three-tier label from
// its legacy code and flags any divergence from the stored assignment.
func (s *ValidationService) ValidateCategoryMappings(ctx context.Context) (*model.ValidationReport, error) {
	modules, err := s.Content.GetAllModules(ctx)
	if err != nil {
		return nil, err
	}
	quizzes, err := s.Content.GetAllQuizzes(ctx)
	if err != nil {
		return nil, err
	}

	report := &model.ValidationReport{
		IsValid:    true,
		ByCategory: make(map[model.ThreeTierCategory]int),
	}

	check := func(id, kind, legacy string, assigned model.ThreeTierCategory, mapping model.CategoryMapping) {
		report.TotalItems++
		ok := true
		if !assigned.Valid() {
			report.Errors = append(report.Errors, fmt.Sprintf("%s %s: invalid category %q", kind, id, assigned))
			ok = false
		}
		if expected := s.Categories.MapLegacyCategory(legacy); assigned.Valid() && assigned != expected {
			report.Errors = append(report.Errors, fmt.Sprintf("%s %s: category %q does not match mapping of %q (%q)", kind, id, assigned, legacy, expected))
			ok = false
		}
		if mapping.SourceCategory != legacy {
			report.Errors = append(report.Errors, fmt.Sprintf("%s %s: mapping source %q diverges from legacy code %q", kind, id, mapping.SourceCategory, legacy))
			ok = false
		}
		if ok {
			report.ValidItems++
			report.ByCategory[assigned]++
		}
	}

	moduleIDs := make(map[string]bool, len(modules))
	for _, m := range modules {
		moduleIDs[m.ID] = true
		check(m.ID, "module", m.Category, m.ThreeTierCategory, m.CategoryMapping)
	}
	for _, q := range quizzes {
		check(q.ID, "quiz", q.Category, q.ThreeTierCategory, q.CategoryMapping)
		if q.ModuleID != "" && !moduleIDs[q.ModuleID] {
			report.Warnings = append(report.Warnings, fmt.Sprintf("quiz %s references unknown module %s", q.ID, q.ModuleID))
		}
	}
	for _, m := range modules {
		for _, prereqID := range m.Prerequisites {
			if !moduleIDs[prereqID] {
				report.Warnings = append(report.Warnings, fmt.Sprintf("module %s lists unknown prerequisite %s", m.ID, prereqID))
			}
		}
		if m.RemovedIn2025 && m.ExamRelevance == model.RelevanceHigh {
			report.Warnings = append(report.Warnings, fmt.Sprintf("module %s is removed in 2025 but still marked high relevance", m.ID))
		}
	}

	report.IsValid = len(report.Errors) == 0
	return report, nil
}

// ValidateProgressState checks the live Progress State against the
// corpus: referenced ids must resolve and a module may only sit in one
// of the completed/in-progress lists.
func (s *ValidationService) ValidateProgressState(ctx context.Context) (*model.ValidationReport, error) {
	p := s.State.Progress()
	report := &model.ValidationReport{
		IsValid:    true,
		ByCategory: make(map[model.ThreeTierCategory]int),
	}

	inProgress := toSet(p.ModulesInProgress)
	for _, id := range p.ModulesCompleted {
		if inProgress[id] {
			report.Errors = append(report.Errors, fmt.Sprintf("module %s is both completed and in progress", id))
		}
	}

	checkModule := func(id, list string) error {
		report.TotalItems++
		m, ok, err := s.Content.GetModuleByID(ctx, id)
		if err != nil {
			return err
		}
		if !ok {
			report.Warnings = append(report.Warnings, fmt.Sprintf("%s references unknown module %s", list, id))
			return nil
		}
		report.ValidItems++
		report.ByCategory[m.ThreeTierCategory]++
		return nil
	}
	for _, id := range p.ModulesCompleted {
		if err := checkModule(id, "modulesCompleted"); err != nil {
			return nil, err
		}
	}
	for _, id := range p.ModulesInProgress {
		if err := checkModule(id, "modulesInProgress"); err != nil {
			return nil, err
		}
	}
	for _, attempt := range p.QuizAttempts {
		report.TotalItems++
		if attempt.Score < 0 || attempt.Score > 100 {
			report.Errors = append(report.Errors, fmt.Sprintf("quiz attempt for %s has score %d outside 0-100", attempt.QuizID, attempt.Score))
			continue
		}
		q, ok, err := s.Content.GetQuizByID(ctx, attempt.QuizID)
		if err != nil {
			return nil, err
		}
		if !ok {
			report.Warnings = append(report.Warnings, fmt.Sprintf("quiz attempt references unknown quiz %s", attempt.QuizID))
			continue
		}
		report.ValidItems++
		report.ByCategory[q.ThreeTierCategory]++
	}

	report.IsValid = len(report.Errors) == 0
	return report, nil
}
