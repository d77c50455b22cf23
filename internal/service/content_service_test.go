package service

import (
	"context"
	"errors"
	"os"
	"sort"
	"testing"

	"ihk_prep_backend/internal/model"
	"ihk_prep_backend/internal/util"
)

// fakeSource serves a corpus from memory, keyed dir -> file -> bytes.
type fakeSource struct {
	dirs map[string]map[string]string
}

func (f *fakeSource) ListJSON(ctx context.Context, dir string) ([]string, error) {
	files := f.dirs[dir]
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (f *fakeSource) ReadFile(ctx context.Context, dir, name string) ([]byte, error) {
	raw, ok := f.dirs[dir][name]
	if !ok {
		return nil, os.ErrNotExist
	}
	return []byte(raw), nil
}

var testCorpus = map[string]map[string]string{
	"modules": {
		"er-modeling.json": `{
			"id": "bp-dpa-01-er-modeling",
			"title": "ER-Modellierung",
			"description": "Entity-Relationship-Modelle entwerfen",
			"category": "BP-DPA-01",
			"difficulty": "beginner",
			"examRelevance": "high",
			"estimatedTime": "1,5 Stunden",
			"tags": ["Datenbanken", "ER-Modell"],
			"relatedQuizzes": ["quiz-er-modeling"]
		}`,
		"data-quality.json": `{
			"id": "bp-dpa-02-data-quality",
			"title": "Data Quality",
			"description": "Datenqualität messen und sichern",
			"category": "BP-DPA-02",
			"difficulty": "intermediate",
			"examRelevance": "high",
			"estimatedTime": 45,
			"tags": ["Datenbanken", "Qualität"],
			"prerequisites": ["bp-dpa-01-er-modeling"],
			"newIn2025": true
		}`,
		"oop.json": `{
			"id": "bp-ae-01-oop",
			"title": "Objektorientierte Programmierung",
			"description": "Klassen, Vererbung, Polymorphie",
			"category": "BP-AE-01",
			"difficulty": "beginner",
			"examRelevance": "high",
			"estimatedTime": 60,
			"tags": ["OOP", "Java"]
		}`,
		"patterns.json": `{
			"id": "bp-ae-02-patterns",
			"title": "Entwurfsmuster",
			"description": "Gängige Design Patterns",
			"category": "bp-02",
			"difficulty": "intermediate",
			"examRelevance": "medium",
			"tags": ["OOP", "Design-Patterns"],
			"prerequisites": ["bp-ae-01-oop"]
		}`,
		"projekt.json": `{
			"id": "fue-01-projektmanagement",
			"title": "Projektmanagement",
			"description": "Projektphasen und Vorgehensmodelle",
			"category": "FÜ-01",
			"difficulty": "beginner",
			"examRelevance": "medium",
			"tags": ["Projekt"]
		}`,
	},
	"quizzes": {
		"quiz-er.json": `{
			"id": "quiz-er-modeling",
			"moduleId": "bp-dpa-01-er-modeling",
			"title": "Quiz ER-Modellierung",
			"category": "BP-DPA-01",
			"difficulty": "beginner",
			"passingScore": 70,
			"tags": ["Datenbanken"],
			"questions": [{
				"id": "q1",
				"type": "single-choice",
				"question": "Was verbindet eine Relation?",
				"options": ["Entitäten", "Server"],
				"correctAnswer": "Entitäten",
				"points": 1
			}]
		}`,
		"quiz-oop.json": `{
			"id": "quiz-oop",
			"moduleId": "bp-ae-01-oop",
			"title": "Quiz OOP",
			"category": "BP-AE-01",
			"questions": [{
				"id": "q1",
				"type": "multiple-choice",
				"question": "Welche Begriffe gehören zur OOP?",
				"options": ["Vererbung", "Polymorphie", "GOTO"],
				"correctAnswer": ["Vererbung", "Polymorphie"],
				"points": 2
			}]
		}`,
	},
	"learning-paths": {
		"path-dpa.json": `{
			"id": "path-ap2-dpa",
			"title": "AP2 Daten- und Prozessanalyse",
			"difficulty": "beginner",
			"specialization": "daten-prozessanalyse",
			"modules": [
				{"moduleId": "bp-dpa-02-data-quality", "order": 2, "required": true},
				{"moduleId": "bp-dpa-01-er-modeling", "order": 1, "required": true}
			],
			"quizzes": [
				{"quizId": "quiz-er-modeling", "order": 1, "required": true, "unlockAfterModules": ["bp-dpa-01-er-modeling"]}
			],
			"milestones": [{
				"title": "Datenbanken sicher",
				"description": "ER-Modellierung abgeschlossen",
				"requiredModules": ["bp-dpa-01-er-modeling"],
				"requiredQuizzes": ["quiz-er-modeling"]
			}]
		}`,
	},
	"metadata": {
		"categories.json":        `["BP-DPA-01", "BP-DPA-02", "BP-AE-01", "bp-02", "FÜ-01"]`,
		"exam-changes-2025.json": `{"newTopics": ["Data Quality"], "removedTopics": ["COBOL"]}`,
	},
}

func newTestContent(t *testing.T, dirs map[string]map[string]string) *ContentService {
	t.Helper()
	svc := NewContentService(&fakeSource{dirs: dirs}, NewCategoryService())
	if err := svc.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	return svc
}

func TestLoadAssignsThreeTierCategories(t *testing.T) {
	svc := newTestContent(t, testCorpus)
	ctx := context.Background()

	cases := map[string]model.ThreeTierCategory{
		"bp-dpa-01-er-modeling":   model.CategoryDPA,
		"bp-dpa-02-data-quality":  model.CategoryDPA,
		"bp-ae-01-oop":            model.CategoryAE,
		"bp-ae-02-patterns":       model.CategoryAE,
		"fue-01-projektmanagement": model.CategoryAllgemein,
	}
	for id, want := range cases {
		m, ok, err := svc.GetModuleByID(ctx, id)
		if err != nil || !ok {
			t.Fatalf("GetModuleByID(%s): ok=%v err=%v", id, ok, err)
		}
		if m.ThreeTierCategory != want {
			t.Errorf("module %s: category = %q, want %q", id, m.ThreeTierCategory, want)
		}
		if m.CategoryMapping.SourceCategory != m.Category {
			t.Errorf("module %s: mapping source %q != legacy %q", id, m.CategoryMapping.SourceCategory, m.Category)
		}
	}
}

func TestLoadNormalisesEstimatedTime(t *testing.T) {
	svc := newTestContent(t, testCorpus)

	m, _, err := svc.GetModuleByID(context.Background(), "bp-dpa-01-er-modeling")
	if err != nil {
		t.Fatalf("GetModuleByID: %v", err)
	}
	if m.EstimatedTime != 90 {
		t.Errorf("estimatedTime = %d, want 90 minutes for %q", m.EstimatedTime, "1,5 Stunden")
	}
}

func TestQuizDefaultsAndAnswerNormalisation(t *testing.T) {
	svc := newTestContent(t, testCorpus)
	ctx := context.Background()

	q, ok, err := svc.GetQuizByID(ctx, "quiz-oop")
	if err != nil || !ok {
		t.Fatalf("GetQuizByID: ok=%v err=%v", ok, err)
	}
	if q.PassingScore != 60 {
		t.Errorf("default passingScore = %d, want 60", q.PassingScore)
	}
	if got := q.Questions[0].CorrectAnswer; len(got) != 2 {
		t.Errorf("correctAnswer = %v, want two entries", got)
	}

	er, _, err := svc.GetQuizByID(ctx, "quiz-er-modeling")
	if err != nil {
		t.Fatalf("GetQuizByID: %v", err)
	}
	if got := er.Questions[0].CorrectAnswer; len(got) != 1 || got[0] != "Entitäten" {
		t.Errorf("single correctAnswer = %v, want [Entitäten]", got)
	}
}

func TestLoadDropsInvalidDocuments(t *testing.T) {
	dirs := map[string]map[string]string{
		"modules": {
			"ok.json":         testCorpus["modules"]["oop.json"],
			"duplicate.json":  testCorpus["modules"]["oop.json"],
			"no-title.json":   `{"id": "broken", "category": "BP-AE-01"}`,
			"bad-difficulty.json": `{"id": "bad-diff", "title": "x", "category": "BP-AE-01", "difficulty": "impossible"}`,
		},
		"quizzes": {
			"bad-type.json": `{
				"id": "quiz-bad", "moduleId": "bp-ae-01-oop", "title": "x",
				"questions": [{"id": "q1", "type": "essay", "question": "?", "correctAnswer": "a", "points": 1}]
			}`,
		},
	}
	svc := newTestContent(t, dirs)

	report, err := svc.LoadReport(context.Background())
	if err != nil {
		t.Fatalf("LoadReport: %v", err)
	}
	if report.LoadedModules != 1 {
		t.Errorf("loaded modules = %d, want 1", report.LoadedModules)
	}
	if report.LoadedQuizzes != 0 {
		t.Errorf("loaded quizzes = %d, want 0", report.LoadedQuizzes)
	}
	if len(report.DroppedItems) != 4 {
		t.Errorf("dropped = %d (%v), want 4", len(report.DroppedItems), report.DroppedItems)
	}
}

func TestSearchFoldsCase(t *testing.T) {
	svc := newTestContent(t, testCorpus)
	ctx := context.Background()

	upper, err := svc.SearchContent(ctx, "DATA", model.SearchFilters{})
	if err != nil {
		t.Fatalf("SearchContent: %v", err)
	}
	lower, err := svc.SearchContent(ctx, "data", model.SearchFilters{})
	if err != nil {
		t.Fatalf("SearchContent: %v", err)
	}
	if len(upper) == 0 || len(upper) != len(lower) {
		t.Fatalf("case folding broken: %d hits for DATA, %d for data", len(upper), len(lower))
	}

	found := false
	for _, sum := range upper {
		if sum.ID == "bp-dpa-02-data-quality" {
			found = true
		}
	}
	if !found {
		t.Error("expected bp-dpa-02-data-quality in results for DATA")
	}
}

func TestSearchFilters(t *testing.T) {
	svc := newTestContent(t, testCorpus)
	ctx := context.Background()

	newOnly := true
	results, err := svc.SearchContent(ctx, "", model.SearchFilters{NewIn2025: &newOnly})
	if err != nil {
		t.Fatalf("SearchContent: %v", err)
	}
	if len(results) != 1 || results[0].ID != "bp-dpa-02-data-quality" {
		t.Errorf("newIn2025 filter: got %v, want exactly bp-dpa-02-data-quality", results)
	}

	cat := model.CategoryAE
	diff := model.DifficultyIntermediate
	results, err = svc.SearchContent(ctx, "", model.SearchFilters{Category: &cat, Difficulty: &diff})
	if err != nil {
		t.Fatalf("SearchContent: %v", err)
	}
	if len(results) != 1 || results[0].ID != "bp-ae-02-patterns" {
		t.Errorf("combined filter: got %v, want exactly bp-ae-02-patterns", results)
	}
}

func TestSearchInCategoryRejectsBlankQuery(t *testing.T) {
	svc := newTestContent(t, testCorpus)

	_, err := svc.SearchInCategory(context.Background(), "   ", model.CategoryDPA)
	if !errors.Is(err, util.ErrInvalidInput) {
		t.Errorf("blank query: err = %v, want ErrInvalidInput", err)
	}
}

func TestGetContentByCategoryOrdering(t *testing.T) {
	svc := newTestContent(t, testCorpus)

	items, err := svc.GetContentByThreeTierCategory(context.Background(), model.CategoryDPA)
	if err != nil {
		t.Fatalf("GetContentByThreeTierCategory: %v", err)
	}
	for i := 1; i < len(items); i++ {
		a, b := items[i-1], items[i]
		if a.ExamRelevance.Rank() < b.ExamRelevance.Rank() {
			t.Errorf("relevance not descending at %d: %v then %v", i, a.ExamRelevance, b.ExamRelevance)
		}
		if a.ExamRelevance == b.ExamRelevance && a.Difficulty.Rank() > b.Difficulty.Rank() {
			t.Errorf("difficulty not ascending at %d: %v then %v", i, a.Difficulty, b.Difficulty)
		}
	}

	_, err = svc.GetContentByThreeTierCategory(context.Background(), "unbekannt")
	if !errors.Is(err, util.ErrInvalidInput) {
		t.Errorf("invalid label: err = %v, want ErrInvalidInput", err)
	}
}

func TestGetRelatedQuizzesUnion(t *testing.T) {
	svc := newTestContent(t, testCorpus)
	ctx := context.Background()

	// declared on the module AND back-referenced by the quiz; must appear once
	quizzes, ok, err := svc.GetRelatedQuizzes(ctx, "bp-dpa-01-er-modeling")
	if err != nil || !ok {
		t.Fatalf("GetRelatedQuizzes: ok=%v err=%v", ok, err)
	}
	if len(quizzes) != 1 || quizzes[0].ID != "quiz-er-modeling" {
		t.Errorf("got %d quizzes, want exactly quiz-er-modeling once", len(quizzes))
	}

	_, ok, err = svc.GetRelatedQuizzes(ctx, "no-such-module")
	if err != nil {
		t.Fatalf("GetRelatedQuizzes: %v", err)
	}
	if ok {
		t.Error("unknown module: ok = true, want false")
	}
}

func TestPrerequisiteCycleBroken(t *testing.T) {
	dirs := map[string]map[string]string{
		"modules": {
			"a.json": `{"id": "cycle-a", "title": "A", "category": "BP-AE-01", "prerequisites": ["cycle-b"]}`,
			"b.json": `{"id": "cycle-b", "title": "B", "category": "BP-AE-01", "prerequisites": ["cycle-a"]}`,
		},
	}
	svc := newTestContent(t, dirs)
	ctx := context.Background()

	report, err := svc.LoadReport(ctx)
	if err != nil {
		t.Fatalf("LoadReport: %v", err)
	}
	if len(report.PrerequisiteCycles) != 1 {
		t.Fatalf("cycles recorded = %v, want exactly one broken edge", report.PrerequisiteCycles)
	}

	a, _, _ := svc.GetModuleByID(ctx, "cycle-a")
	b, _, _ := svc.GetModuleByID(ctx, "cycle-b")
	if len(a.Prerequisites)+len(b.Prerequisites) != 1 {
		t.Errorf("after breaking: a=%v b=%v, want one surviving edge", a.Prerequisites, b.Prerequisites)
	}
}

func TestLearningPathsSortedAndRecommended(t *testing.T) {
	svc := newTestContent(t, testCorpus)
	ctx := context.Background()

	path, ok, err := svc.GetLearningPath(ctx, "path-ap2-dpa")
	if err != nil || !ok {
		t.Fatalf("GetLearningPath: ok=%v err=%v", ok, err)
	}
	if path.Modules[0].ModuleID != "bp-dpa-01-er-modeling" {
		t.Errorf("modules not ordered by order field: first is %s", path.Modules[0].ModuleID)
	}

	recommended, err := svc.GetRecommendedLearningPaths(ctx, model.SpecializationDPA)
	if err != nil {
		t.Fatalf("GetRecommendedLearningPaths: %v", err)
	}
	if len(recommended) == 0 || recommended[0].ID != "path-ap2-dpa" {
		t.Errorf("recommended paths = %v, want path-ap2-dpa first", recommended)
	}
}

func TestExamChangesCrossCheck(t *testing.T) {
	dirs := map[string]map[string]string{
		"modules": {
			"m.json": `{"id": "m1", "title": "Thema", "category": "BP-AE-01"}`,
		},
		"metadata": {
			"exam-changes-2025.json": `{"newTopics": ["Unbekanntes Thema"], "removedTopics": []}`,
		},
	}
	svc := newTestContent(t, dirs)

	report, err := svc.LoadReport(context.Background())
	if err != nil {
		t.Fatalf("LoadReport: %v", err)
	}
	warned := false
	for _, w := range report.Warnings {
		if len(w) > 0 {
			warned = true
		}
	}
	if !warned {
		t.Error("expected a warning for a new topic with no flagged module")
	}
}

func TestSearchMatchesInsideWords(t *testing.T) {
	dirs := map[string]map[string]string{
		"modules": {
			"quality.json": `{"id": "bp-dpa-10-quality", "title": "Data Quality Basics", "category": "BP-DPA-10"}`,
			"design.json":  `{"id": "bp-dpa-11-design", "title": "Database Design", "category": "BP-DPA-11"}`,
		},
	}
	svc := newTestContent(t, dirs)

	// "data" is a whole word in one title and a prefix of "Database" in
	// the other; both must match
	results, err := svc.SearchContent(context.Background(), "data", model.SearchFilters{})
	if err != nil {
		t.Fatalf("SearchContent: %v", err)
	}
	got := make(map[string]bool)
	for _, sum := range results {
		got[sum.ID] = true
	}
	for _, want := range []string{"bp-dpa-10-quality", "bp-dpa-11-design"} {
		if !got[want] {
			t.Errorf("missing %s in results for %q (got %v)", want, "data", results)
		}
	}
}

func moduleIDs(modules []*model.Module) []string {
	out := make([]string, 0, len(modules))
	for _, m := range modules {
		out = append(out, m.ID)
	}
	return out
}

func TestGetRelatedModules(t *testing.T) {
	svc := newTestContent(t, testCorpus)
	ctx := context.Background()

	// er-modeling has no prerequisites of its own, but data-quality
	// depends on it
	forward, ok, err := svc.GetRelatedModules(ctx, "bp-dpa-01-er-modeling")
	if err != nil || !ok {
		t.Fatalf("GetRelatedModules: ok=%v err=%v", ok, err)
	}
	if len(forward) != 1 || forward[0].ID != "bp-dpa-02-data-quality" {
		t.Errorf("related to er-modeling = %v, want the dependent module", moduleIDs(forward))
	}

	backward, ok, err := svc.GetRelatedModules(ctx, "bp-dpa-02-data-quality")
	if err != nil || !ok {
		t.Fatalf("GetRelatedModules: ok=%v err=%v", ok, err)
	}
	if len(backward) != 1 || backward[0].ID != "bp-dpa-01-er-modeling" {
		t.Errorf("related to data-quality = %v, want the prerequisite", moduleIDs(backward))
	}

	if _, ok, err := svc.GetRelatedModules(ctx, "no-such-module"); err != nil || ok {
		t.Errorf("unknown module: ok=%v err=%v, want ok=false", ok, err)
	}
}
