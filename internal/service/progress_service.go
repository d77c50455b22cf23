package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"ihk_prep_backend/internal/model"
	"ihk_prep_backend/internal/repository"
	"ihk_prep_backend/internal/state"
	"ihk_prep_backend/internal/util"
	"ihk_prep_backend/pkg/logger"

	"go.uber.org/zap"
)

// ProgressService owns every mutation of the Progress State and derives
// the read models over it. All writes are serialised; the migration
// service takes the same lock for its staging window.
type ProgressService struct {
	State          *state.Store
	Repo           *repository.ProgressRepository
	Content        *ContentService
	Specialization *SpecializationService
	Relationships  *RelationshipService

	mu sync.Mutex
}

func NewProgressService(st *state.Store, repo *repository.ProgressRepository, content *ContentService, specialization *SpecializationService, relationships *RelationshipService) *ProgressService {
	return &ProgressService{
		State:          st,
		Repo:           repo,
		Content:        content,
		Specialization: specialization,
		Relationships:  relationships,
	}
}

// LockProgress blocks all progress mutations. Held by the migration
// service between snapshot and publish.
func (s *ProgressService) LockProgress()   { s.mu.Lock() }
func (s *ProgressService) UnlockProgress() { s.mu.Unlock() }

func (s *ProgressService) persistAndPublish(ctx context.Context, p *model.ProgressState) error {
	if err := s.Repo.SaveProgress(ctx, p); err != nil {
		return err
	}
	s.State.SetProgress(p)
	return nil
}

// MarkModuleComplete is idempotent; it moves the id out of in-progress
// and into completed.
func (s *ProgressService) MarkModuleComplete(ctx context.Context, moduleID string) error {
	if _, ok, err := s.Content.GetModuleByID(ctx, moduleID); err != nil {
		return err
	} else if !ok {
		return fmt.Errorf("%w: module %s", util.ErrNotFound, moduleID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.State.Progress()
	p.ModulesInProgress = removeString(p.ModulesInProgress, moduleID)
	if !containsString(p.ModulesCompleted, moduleID) {
		p.ModulesCompleted = append(p.ModulesCompleted, moduleID)
		sort.Strings(p.ModulesCompleted)
	}
	p.LastActivity = time.Now()
	return s.persistAndPublish(ctx, p)
}

// MarkModuleIncomplete is the idempotent inverse.
func (s *ProgressService) MarkModuleIncomplete(ctx context.Context, moduleID string) error {
	if _, ok, err := s.Content.GetModuleByID(ctx, moduleID); err != nil {
		return err
	} else if !ok {
		return fmt.Errorf("%w: module %s", util.ErrNotFound, moduleID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.State.Progress()
	p.ModulesCompleted = removeString(p.ModulesCompleted, moduleID)
	p.ModulesInProgress = removeString(p.ModulesInProgress, moduleID)
	p.LastActivity = time.Now()
	return s.persistAndPublish(ctx, p)
}

// MarkModuleStarted records a module as in progress unless it is already
// completed.
func (s *ProgressService) MarkModuleStarted(ctx context.Context, moduleID string) error {
	if _, ok, err := s.Content.GetModuleByID(ctx, moduleID); err != nil {
		return err
	} else if !ok {
		return fmt.Errorf("%w: module %s", util.ErrNotFound, moduleID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.State.Progress()
	if containsString(p.ModulesCompleted, moduleID) || containsString(p.ModulesInProgress, moduleID) {
		return nil
	}
	p.ModulesInProgress = append(p.ModulesInProgress, moduleID)
	sort.Strings(p.ModulesInProgress)
	p.LastActivity = time.Now()
	return s.persistAndPublish(ctx, p)
}

// SaveQuizAttempt appends an attempt; passed is derived from the quiz's
// passing score.
func (s *ProgressService) SaveQuizAttempt(ctx context.Context, quizID string, score int, answers map[string]string, durationMs int64) (*model.QuizAttempt, error) {
	if score < 0 || score > 100 {
		return nil, fmt.Errorf("%w: score %d out of range 0-100", util.ErrInvalidInput, score)
	}
	quiz, ok, err := s.Content.GetQuizByID(ctx, quizID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: quiz %s", util.ErrNotFound, quizID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	attempt := model.QuizAttempt{
		QuizID:     quizID,
		Score:      score,
		Passed:     score >= quiz.PassingScore,
		Answers:    answers,
		Date:       now,
		DurationMs: durationMs,
	}

	p := s.State.Progress()
	p.QuizAttempts = append(p.QuizAttempts, attempt)
	p.LastActivity = now
	if err := s.persistAndPublish(ctx, p); err != nil {
		return nil, err
	}

	logger.Log.Info("quiz attempt saved",
		zap.String("quizId", quizID),
		zap.Int("score", score),
		zap.Bool("passed", attempt.Passed),
	)
	return &attempt, nil
}

func (s *ProgressService) IsModuleCompleted(moduleID string) bool {
	return containsString(s.State.Progress().ModulesCompleted, moduleID)
}

// IsQuizCompleted reports whether any attempt passed.
func (s *ProgressService) IsQuizCompleted(quizID string) bool {
	for _, a := range s.State.Progress().QuizAttempts {
		if a.QuizID == quizID && a.Passed {
			return true
		}
	}
	return false
}

// BestScore is recomputed on read as the max over all attempts.
func (s *ProgressService) BestScore(quizID string) (int, bool) {
	best, found := 0, false
	for _, a := range s.State.Progress().QuizAttempts {
		if a.QuizID != quizID {
			continue
		}
		found = true
		if a.Score > best {
			best = a.Score
		}
	}
	return best, found
}

// relevanceWeight turns a relevance grade into a scoring weight.
func relevanceWeight(r model.Relevance) float64 {
	switch r {
	case model.RelevanceHigh:
		return 1.0
	case model.RelevanceMedium:
		return 0.5
	default:
		return 0.1
	}
}

// GetOverallProgress weights per-category completion by specialization
// relevance.
func (s *ProgressService) GetOverallProgress(ctx context.Context) (*model.OverallProgress, error) {
	modules, err := s.Content.GetAllModules(ctx)
	if err != nil {
		return nil, err
	}
	quizzes, err := s.Content.GetAllQuizzes(ctx)
	if err != nil {
		return nil, err
	}

	p := s.State.Progress()
	completed := toSet(p.ModulesCompleted)
	passedQuizzes := s.passedQuizSet(p)

	type bucket struct {
		modulesDone, modulesTotal int
		quizzesDone, quizzesTotal int
	}
	buckets := make(map[model.ThreeTierCategory]*bucket)
	for _, label := range model.AllThreeTierCategories {
		buckets[label] = &bucket{}
	}
	for _, m := range modules {
		b := buckets[m.ThreeTierCategory]
		b.modulesTotal++
		if completed[m.ID] {
			b.modulesDone++
		}
	}
	for _, q := range quizzes {
		b := buckets[q.ThreeTierCategory]
		b.quizzesTotal++
		if passedQuizzes[q.ID] {
			b.quizzesDone++
		}
	}

	var weighted, weightSum float64
	breakdown := make([]model.CategoryBreakdownEntry, 0, len(model.AllThreeTierCategories))
	for _, label := range model.AllThreeTierCategories {
		b := buckets[label]
		relevance := s.Specialization.GetCategoryRelevance(label)
		w := relevanceWeight(relevance)

		moduleRatio := ratio(b.modulesDone, b.modulesTotal)
		quizRatio := ratio(b.quizzesDone, b.quizzesTotal)
		completion := 0.7*moduleRatio + 0.3*quizRatio
		if b.modulesTotal+b.quizzesTotal > 0 {
			weighted += w * completion
			weightSum += w
		}

		breakdown = append(breakdown, model.CategoryBreakdownEntry{
			Category:             label,
			ModulesCompleted:     b.modulesDone,
			TotalModules:         b.modulesTotal,
			QuizzesPassed:        b.quizzesDone,
			TotalQuizzes:         b.quizzesTotal,
			CompletionPercentage: roundPercent(completion),
			Relevance:            relevance,
		})
	}

	overall := 0
	if weightSum > 0 {
		overall = roundPercent(weighted / weightSum)
	}

	return &model.OverallProgress{
		ModulesCompleted:  len(p.ModulesCompleted),
		TotalModules:      len(modules),
		QuizzesTaken:      len(p.QuizAttempts),
		AverageQuizScore:  averageScore(p.QuizAttempts),
		OverallPercentage: overall,
		LastActivity:      p.LastActivity,
		CategoryBreakdown: breakdown,
	}, nil
}

// GetExamReadiness combines module completion, quiz performance and
// coverage of 2025-new topics.
func (s *ProgressService) GetExamReadiness(ctx context.Context) (*model.ExamReadiness, error) {
	modules, err := s.Content.GetAllModules(ctx)
	if err != nil {
		return nil, err
	}
	quizzes, err := s.Content.GetAllQuizzes(ctx)
	if err != nil {
		return nil, err
	}

	p := s.State.Progress()
	completed := toSet(p.ModulesCompleted)
	passedQuizzes := s.passedQuizSet(p)

	newTotal, newDone := 0, 0
	for _, m := range modules {
		if m.NewIn2025 {
			newTotal++
			if completed[m.ID] {
				newDone++
			}
		}
	}

	avg := averageScore(p.QuizAttempts)

	moduleReadiness := roundPercent(ratio(len(p.ModulesCompleted), len(modules)))
	quizReadiness := roundPercent(0.5*ratio(len(passedQuizzes), len(quizzes)) + 0.5*float64(avg)/100)
	newTopicsReadiness := 100
	if newTotal > 0 {
		newTopicsReadiness = roundPercent(ratio(newDone, newTotal))
	}

	overall := int(math.Round(0.4*float64(moduleReadiness) + 0.4*float64(quizReadiness) + 0.2*float64(newTopicsReadiness)))

	r := &model.ExamReadiness{
		OverallReadiness: overall,
		ReadinessLevel:   readinessLevel(overall),
	}
	r.Breakdown.ModuleReadiness = moduleReadiness
	r.Breakdown.QuizReadiness = quizReadiness
	r.Breakdown.NewTopicsReadiness = newTopicsReadiness
	r.Statistics.ModulesCompleted = len(p.ModulesCompleted)
	r.Statistics.TotalModules = len(modules)
	r.Statistics.QuizzesPassed = len(passedQuizzes)
	r.Statistics.TotalQuizzes = len(quizzes)
	r.Statistics.AverageQuizScore = avg
	r.Statistics.NewTopicsCompleted = newDone
	r.Statistics.NewTopicsTotal = newTotal
	r.Recommendation = readinessRecommendation(r.ReadinessLevel, newTotal-newDone)
	return r, nil
}

func readinessLevel(overall int) model.ReadinessLevel {
	switch {
	case overall >= 85:
		return model.ReadinessExcellent
	case overall >= 70:
		return model.ReadinessGood
	case overall >= 50:
		return model.ReadinessModerate
	case overall >= 30:
		return model.ReadinessNeedsImprovement
	default:
		return model.ReadinessInsufficient
	}
}

func readinessRecommendation(level model.ReadinessLevel, openNewTopics int) string {
	switch level {
	case model.ReadinessExcellent:
		return "Du bist sehr gut vorbereitet. Wiederhole gezielt schwere Themen."
	case model.ReadinessGood:
		return "Gute Vorbereitung. Schließe die offenen Module ab und übe Quizze unter Zeitdruck."
	case model.ReadinessModerate:
		if openNewTopics > 0 {
			return fmt.Sprintf("Solide Basis. Priorisiere die %d offenen 2025-Themen.", openNewTopics)
		}
		return "Solide Basis. Arbeite die Module deiner Fachrichtung systematisch durch."
	case model.ReadinessNeedsImprovement:
		return "Deutliche Lücken. Beginne mit den prüfungsrelevanten Grundlagenmodulen."
	default:
		return "Starte mit den Grundlagenmodulen deiner Fachrichtung und einem ersten Quiz."
	}
}

// GetProgressByCategory summarises module progress per legacy category
// code.
func (s *ProgressService) GetProgressByCategory(ctx context.Context) ([]model.LegacyCategoryProgress, error) {
	modules, err := s.Content.GetAllModules(ctx)
	if err != nil {
		return nil, err
	}

	p := s.State.Progress()
	completed := toSet(p.ModulesCompleted)
	inProgress := toSet(p.ModulesInProgress)

	type agg struct {
		completed, inProgress, total int
		relevance                    model.Relevance
	}
	byCode := make(map[string]*agg)
	var order []string
	for _, m := range modules {
		a, ok := byCode[m.Category]
		if !ok {
			a = &agg{relevance: model.RelevanceLow}
			byCode[m.Category] = a
			order = append(order, m.Category)
		}
		a.total++
		if completed[m.ID] {
			a.completed++
		} else if inProgress[m.ID] {
			a.inProgress++
		}
		if m.ExamRelevance.Rank() > a.relevance.Rank() {
			a.relevance = m.ExamRelevance
		}
	}
	sort.Strings(order)

	out := make([]model.LegacyCategoryProgress, 0, len(order))
	for _, code := range order {
		a := byCode[code]
		out = append(out, model.LegacyCategoryProgress{
			Category:             code,
			MainCategory:         mainCategoryOf(code),
			Completed:            a.completed,
			InProgress:           a.inProgress,
			Total:                a.total,
			CompletionPercentage: roundPercent(ratio(a.completed, a.total)),
			ExamRelevance:        a.relevance,
		})
	}
	return out, nil
}

func mainCategoryOf(code string) model.MainCategory {
	folded := foldText(code)
	if strings.HasPrefix(folded, "fü") || strings.HasPrefix(folded, "fu") {
		return model.MainCategoryFUE
	}
	return model.MainCategoryBP
}

// GetWeakAreas flags weak quiz performance, neglected high-relevance
// categories and open 2025 topics.
func (s *ProgressService) GetWeakAreas(ctx context.Context) ([]model.WeakArea, error) {
	p := s.State.Progress()

	var areas []model.WeakArea

	// quiz-performance: average below 60 over at least two attempts
	type quizAgg struct {
		sum, count int
	}
	perQuiz := make(map[string]*quizAgg)
	var quizOrder []string
	for _, a := range p.QuizAttempts {
		agg, ok := perQuiz[a.QuizID]
		if !ok {
			agg = &quizAgg{}
			perQuiz[a.QuizID] = agg
			quizOrder = append(quizOrder, a.QuizID)
		}
		agg.sum += a.Score
		agg.count++
	}
	sort.Strings(quizOrder)
	for _, quizID := range quizOrder {
		agg := perQuiz[quizID]
		if agg.count < 2 {
			continue
		}
		avg := agg.sum / agg.count
		if avg >= 60 {
			continue
		}
		severity := model.RelevanceMedium
		if avg < 40 {
			severity = model.RelevanceHigh
		}
		areas = append(areas, model.WeakArea{
			Type:           model.WeakAreaQuizPerformance,
			Subject:        quizID,
			Severity:       severity,
			Detail:         fmt.Sprintf("Durchschnitt %d%% über %d Versuche", avg, agg.count),
			Recommendation: "Wiederhole das zugehörige Modul und versuche das Quiz erneut.",
		})
	}

	// incomplete-category: below 40% in a high-relevance category
	breakdownSrc, err := s.GetOverallProgress(ctx)
	if err != nil {
		return nil, err
	}
	for _, entry := range breakdownSrc.CategoryBreakdown {
		if entry.Relevance != model.RelevanceHigh || entry.TotalModules == 0 {
			continue
		}
		if entry.CompletionPercentage >= 40 {
			continue
		}
		areas = append(areas, model.WeakArea{
			Type:           model.WeakAreaIncompleteCategory,
			Subject:        string(entry.Category),
			Severity:       model.RelevanceHigh,
			Detail:         fmt.Sprintf("Nur %d%% in einer prüfungsrelevanten Kategorie", entry.CompletionPercentage),
			Recommendation: "Plane feste Lernzeiten für diese Kategorie ein.",
		})
	}

	// new-topics-2025: flagged modules not yet completed
	modules, err := s.Content.GetAllModules(ctx)
	if err != nil {
		return nil, err
	}
	completed := toSet(p.ModulesCompleted)
	open := 0
	for _, m := range modules {
		if m.NewIn2025 && !completed[m.ID] {
			open++
		}
	}
	if open > 0 {
		severity := model.RelevanceMedium
		if open > 3 {
			severity = model.RelevanceHigh
		}
		areas = append(areas, model.WeakArea{
			Type:           model.WeakAreaNewTopics2025,
			Subject:        "2025",
			Severity:       severity,
			Detail:         fmt.Sprintf("%d neue 2025-Themen noch offen", open),
			Recommendation: "Die neuen Prüfungsthemen 2025 werden bevorzugt abgefragt.",
		})
	}

	return areas, nil
}

// GetRecommendedModules narrows the recommendation engine to modules.
func (s *ProgressService) GetRecommendedModules(ctx context.Context, maxResults int) ([]model.Recommendation, error) {
	p := s.State.Progress()
	return s.Relationships.GetContentRecommendations(ctx,
		s.Specialization.GetCurrentSpecialization(),
		p.ModulesCompleted,
		RecommendationOptions{MaxResults: maxResults, ModulesOnly: true},
	)
}

// ExportProgress serialises the full Progress State with its schema
// version.
func (s *ProgressService) ExportProgress() *model.ProgressExport {
	return &model.ProgressExport{
		SchemaVersion: model.ProgressSchemaVersion,
		ExportedAt:    time.Now(),
		Progress:      s.State.Progress(),
	}
}

func (s *ProgressService) passedQuizSet(p *model.ProgressState) map[string]bool {
	passed := make(map[string]bool)
	for _, a := range p.QuizAttempts {
		if a.Passed {
			passed[a.QuizID] = true
		}
	}
	return passed
}

// GetPathProgress evaluates a learning path against the current progress,
// including quiz unlocks and milestone attainment.
func (s *ProgressService) GetPathProgress(ctx context.Context, pathID string) (*model.PathProgress, error) {
	path, ok, err := s.Content.GetLearningPath(ctx, pathID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: learning path %s", util.ErrNotFound, pathID)
	}

	p := s.State.Progress()
	completed := toSet(p.ModulesCompleted)
	passedQuizzes := s.passedQuizSet(p)

	result := &model.PathProgress{
		PathID:       path.ID,
		TotalModules: len(path.Modules),
		TotalQuizzes: len(path.Quizzes),
	}
	for _, pm := range path.Modules {
		if completed[pm.ModuleID] {
			result.CompletedModules++
		}
	}
	for _, pq := range path.Quizzes {
		unlocked := true
		for _, required := range pq.UnlockAfterModules {
			if !completed[required] {
				unlocked = false
				break
			}
		}
		if unlocked {
			result.UnlockedQuizzes = append(result.UnlockedQuizzes, pq.QuizID)
		}
		if passedQuizzes[pq.QuizID] {
			result.CompletedQuizzes++
		}
	}
	for _, ms := range path.Milestones {
		reached := true
		for _, mid := range ms.RequiredModules {
			if !completed[mid] {
				reached = false
				break
			}
		}
		if reached {
			for _, qid := range ms.RequiredQuizzes {
				if !passedQuizzes[qid] {
					reached = false
					break
				}
			}
		}
		if reached {
			result.MilestonesReached = append(result.MilestonesReached, ms.Title)
		}
	}
	total := result.TotalModules + result.TotalQuizzes
	result.CompletionPercentage = roundPercent(ratio(result.CompletedModules+result.CompletedQuizzes, total))
	return result, nil
}

// --- small helpers ---

func containsString(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func removeString(list []string, v string) []string {
	out := list[:0]
	for _, s := range list {
		if s != v {
			out = append(out, s)
		}
	}
	return out
}

func toSet(list []string) map[string]bool {
	set := make(map[string]bool, len(list))
	for _, s := range list {
		set[s] = true
	}
	return set
}

func ratio(done, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(done) / float64(total)
}

func roundPercent(f float64) int {
	return int(math.Round(f * 100))
}

func averageScore(attempts []model.QuizAttempt) int {
	if len(attempts) == 0 {
		return 0
	}
	sum := 0
	for _, a := range attempts {
		sum += a.Score
	}
	return int(math.Round(float64(sum) / float64(len(attempts))))
}
