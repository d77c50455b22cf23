package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"ihk_prep_backend/internal/model"
	"ihk_prep_backend/internal/util"
	"ihk_prep_backend/pkg/logger"
	"ihk_prep_backend/pkg/monitoring"
	"ihk_prep_backend/pkg/tracing"

	"go.uber.org/zap"
)

const (
	dirModules  = "modules"
	dirQuizzes  = "quizzes"
	dirPaths    = "learning-paths"
	dirMetadata = "metadata"
)

// corpus is one immutable, fully indexed view of the content set. Loads
// build a fresh corpus and swap it in atomically; queries never see a
// partially enriched state.
type corpus struct {
	modules   map[string]*model.Module
	quizzes   map[string]*model.Quiz
	paths     map[string]*model.LearningPath
	moduleIDs []string
	quizIDs   []string
	pathIDs   []string

	summaries  map[string]model.ContentSummary
	byCategory map[model.ThreeTierCategory][]model.ContentSummary
	byLegacy   map[string][]string
	tokens     map[string]map[string]struct{}
	haystacks  map[string][]string

	moduleQuizzes map[string][]string

	legacyCategories []string
	examChanges      model.ExamChanges2025
	report           model.LoadReport
}

// ContentService is the authoritative read-only view of the content
// corpus. The first query triggers the load; afterwards everything is
// answered from in-memory indexes.
type ContentService struct {
	Source     ContentSource
	Categories *CategoryService

	mu     sync.RWMutex
	corpus *corpus
}

func NewContentService(source ContentSource, categories *CategoryService) *ContentService {
	return &ContentService{Source: source, Categories: categories}
}

// Initialize loads the corpus eagerly. Safe to call more than once.
func (s *ContentService) Initialize(ctx context.Context) error {
	_, err := s.ensure(ctx)
	return err
}

// Reload rebuilds all indexes from the source and swaps them in.
func (s *ContentService) Reload(ctx context.Context) error {
	c, err := s.load(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.corpus = c
	s.mu.Unlock()
	return nil
}

func (s *ContentService) ensure(ctx context.Context) (*corpus, error) {
	s.mu.RLock()
	c := s.corpus
	s.mu.RUnlock()
	if c != nil {
		return c, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.corpus != nil {
		return s.corpus, nil
	}
	c, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	s.corpus = c
	return c, nil
}

func (s *ContentService) load(ctx context.Context) (*corpus, error) {
	ctx, span := tracing.Tracer.Start(ctx, "content.load")
	defer span.End()

	start := time.Now()
	if err := compileSchemas(); err != nil {
		return nil, fmt.Errorf("%w: %v", util.ErrDataIntegrity, err)
	}

	c := &corpus{
		modules:       make(map[string]*model.Module),
		quizzes:       make(map[string]*model.Quiz),
		paths:         make(map[string]*model.LearningPath),
		summaries:     make(map[string]model.ContentSummary),
		byCategory:    make(map[model.ThreeTierCategory][]model.ContentSummary),
		byLegacy:      make(map[string][]string),
		tokens:        make(map[string]map[string]struct{}),
		haystacks:     make(map[string][]string),
		moduleQuizzes: make(map[string][]string),
	}

	s.loadMetadata(ctx, c)
	if err := s.loadModules(ctx, c); err != nil {
		return nil, err
	}
	if err := s.loadQuizzes(ctx, c); err != nil {
		return nil, err
	}
	if err := s.loadPaths(ctx, c); err != nil {
		return nil, err
	}

	s.breakPrerequisiteCycles(c)
	s.buildIndexes(c)
	s.crossCheckExamChanges(c)

	c.report.LoadedModules = len(c.modules)
	c.report.LoadedQuizzes = len(c.quizzes)
	c.report.LoadedPaths = len(c.paths)
	c.report.DurationMs = time.Since(start).Milliseconds()
	c.report.LoadedAt = time.Now()

	monitoring.ContentLoadDuration.Observe(time.Since(start).Seconds())
	monitoring.ContentItemsLoaded.WithLabelValues("module").Set(float64(len(c.modules)))
	monitoring.ContentItemsLoaded.WithLabelValues("quiz").Set(float64(len(c.quizzes)))
	monitoring.ContentItemsLoaded.WithLabelValues("learning-path").Set(float64(len(c.paths)))

	logger.Log.Info("content corpus loaded",
		zap.Int("modules", len(c.modules)),
		zap.Int("quizzes", len(c.quizzes)),
		zap.Int("learningPaths", len(c.paths)),
		zap.Int("dropped", len(c.report.DroppedItems)),
		zap.Int64("durationMs", c.report.DurationMs),
	)
	return c, nil
}

func (s *ContentService) loadMetadata(ctx context.Context, c *corpus) {
	if raw, err := s.Source.ReadFile(ctx, dirMetadata, "categories.json"); err == nil {
		if err := json.Unmarshal(raw, &c.legacyCategories); err != nil {
			c.report.Warnings = append(c.report.Warnings, "metadata/categories.json: "+err.Error())
		}
	} else {
		c.report.Warnings = append(c.report.Warnings, "metadata/categories.json unavailable")
	}

	if raw, err := s.Source.ReadFile(ctx, dirMetadata, "exam-changes-2025.json"); err == nil {
		if err := json.Unmarshal(raw, &c.examChanges); err != nil {
			c.report.Warnings = append(c.report.Warnings, "metadata/exam-changes-2025.json: "+err.Error())
		}
	} else {
		c.report.Warnings = append(c.report.Warnings, "metadata/exam-changes-2025.json unavailable")
	}
}

func (s *ContentService) drop(c *corpus, file, id, reason string) {
	monitoring.ContentItemsDropped.Inc()
	c.report.DroppedItems = append(c.report.DroppedItems, model.DroppedItem{
		ID: id, File: file, Reason: reason,
	})
	logger.Log.Warn("content item dropped", zap.String("file", file), zap.String("reason", reason))
}

func (s *ContentService) loadModules(ctx context.Context, c *corpus) error {
	files, err := s.Source.ListJSON(ctx, dirModules)
	if err != nil {
		return fmt.Errorf("%w: list modules: %v", util.ErrStorageFailure, err)
	}
	sort.Strings(files)

	for _, file := range files {
		raw, err := s.Source.ReadFile(ctx, dirModules, file)
		if err != nil {
			s.drop(c, dirModules+"/"+file, "", "read: "+err.Error())
			continue
		}
		if err := validateDocument(moduleSchema, raw); err != nil {
			s.drop(c, dirModules+"/"+file, "", "schema: "+err.Error())
			continue
		}
		var rm rawModule
		if err := json.Unmarshal(raw, &rm); err != nil {
			s.drop(c, dirModules+"/"+file, "", "decode: "+err.Error())
			continue
		}
		if _, dup := c.modules[rm.ID]; dup {
			s.drop(c, dirModules+"/"+file, rm.ID, "duplicate module id")
			continue
		}
		m := s.enrichModule(&rm)
		if m.Difficulty == "" {
			m.Difficulty = model.DifficultyBeginner
		} else if !m.Difficulty.Valid() {
			s.drop(c, dirModules+"/"+file, rm.ID, "unknown difficulty "+string(m.Difficulty))
			continue
		}
		c.modules[m.ID] = m
	}
	return nil
}

// enrichModule builds the enriched record; the raw input stays untouched
// and the legacy category is carried over verbatim.
func (s *ContentService) enrichModule(rm *rawModule) *model.Module {
	display := s.Categories.MapToThreeTier(model.ThreeTierCategory(rm.ThreeTierCategory), rm.Category)
	return &model.Module{
		ID:                rm.ID,
		Title:             rm.Title,
		Description:       rm.Description,
		Content:           rm.Content,
		Category:          rm.Category,
		ThreeTierCategory: display.Category,
		CategoryMapping: model.CategoryMapping{
			ThreeTierCategory: display.Category,
			SourceCategory:    rm.Category,
			MappingTimestamp:  display.MappedAt,
		},
		Difficulty:     model.Difficulty(rm.Difficulty),
		ExamRelevance:  normalizeRelevance(rm.ExamRelevance),
		EstimatedTime:  int(rm.EstimatedTime),
		Tags:           rm.Tags,
		Prerequisites:  append([]string(nil), rm.Prerequisites...),
		RelatedQuizzes: rm.RelatedQuizzes,
		NewIn2025:      rm.NewIn2025,
		RemovedIn2025:  rm.RemovedIn2025,
		Important:      rm.Important,
		CodeExamples:   rm.CodeExamples,
	}
}

func normalizeRelevance(raw string) model.Relevance {
	r := model.Relevance(strings.ToLower(strings.TrimSpace(raw)))
	if r.Rank() < 0 {
		return model.RelevanceMedium
	}
	return r
}

func (s *ContentService) loadQuizzes(ctx context.Context, c *corpus) error {
	files, err := s.Source.ListJSON(ctx, dirQuizzes)
	if err != nil {
		return fmt.Errorf("%w: list quizzes: %v", util.ErrStorageFailure, err)
	}
	sort.Strings(files)

	for _, file := range files {
		raw, err := s.Source.ReadFile(ctx, dirQuizzes, file)
		if err != nil {
			s.drop(c, dirQuizzes+"/"+file, "", "read: "+err.Error())
			continue
		}
		if err := validateDocument(quizSchema, raw); err != nil {
			s.drop(c, dirQuizzes+"/"+file, "", "schema: "+err.Error())
			continue
		}
		var rq rawQuiz
		if err := json.Unmarshal(raw, &rq); err != nil {
			s.drop(c, dirQuizzes+"/"+file, "", "decode: "+err.Error())
			continue
		}
		if _, dup := c.quizzes[rq.ID]; dup {
			s.drop(c, dirQuizzes+"/"+file, rq.ID, "duplicate quiz id")
			continue
		}
		if _, collides := c.modules[rq.ID]; collides {
			s.drop(c, dirQuizzes+"/"+file, rq.ID, "quiz id collides with module id")
			continue
		}
		q, reason := s.enrichQuiz(&rq)
		if reason != "" {
			s.drop(c, dirQuizzes+"/"+file, rq.ID, reason)
			continue
		}
		if _, ok := c.modules[q.ModuleID]; !ok {
			c.report.Warnings = append(c.report.Warnings,
				fmt.Sprintf("quiz %s references unknown module %s", q.ID, q.ModuleID))
		}
		c.quizzes[q.ID] = q
	}
	return nil
}

func (s *ContentService) enrichQuiz(rq *rawQuiz) (*model.Quiz, string) {
	display := s.Categories.MapToThreeTier(model.ThreeTierCategory(rq.ThreeTierCategory), rq.Category)

	passing := rq.PassingScore
	if passing <= 0 {
		passing = 60
	}
	if passing > 100 {
		return nil, fmt.Sprintf("passingScore %d out of range", passing)
	}

	difficulty := model.Difficulty(rq.Difficulty)
	if difficulty == "" {
		difficulty = model.DifficultyBeginner
	} else if !difficulty.Valid() {
		return nil, "unknown difficulty " + rq.Difficulty
	}

	questions := make([]model.Question, 0, len(rq.Questions))
	for _, q := range rq.Questions {
		qt := model.QuestionType(q.Type)
		if !qt.Valid() {
			return nil, fmt.Sprintf("question %s: unknown type %q", q.ID, q.Type)
		}
		if (qt == model.QuestionSingleChoice || qt == model.QuestionMultipleChoice) && len(q.Options) < 2 {
			return nil, fmt.Sprintf("question %s: choice question needs at least 2 options", q.ID)
		}
		if q.Points <= 0 {
			return nil, fmt.Sprintf("question %s: points must be positive", q.ID)
		}
		if len(q.CorrectAnswer) == 0 {
			return nil, fmt.Sprintf("question %s: missing correctAnswer", q.ID)
		}
		questions = append(questions, model.Question{
			ID:            q.ID,
			Type:          qt,
			Question:      q.Question,
			Code:          q.Code,
			Language:      q.Language,
			Options:       q.Options,
			CorrectAnswer: q.CorrectAnswer,
			Points:        q.Points,
			Explanation:   q.Explanation,
		})
	}

	return &model.Quiz{
		ID:                rq.ID,
		ModuleID:          rq.ModuleID,
		Title:             rq.Title,
		Description:       rq.Description,
		Category:          rq.Category,
		ThreeTierCategory: display.Category,
		CategoryMapping: model.CategoryMapping{
			ThreeTierCategory: display.Category,
			SourceCategory:    rq.Category,
			MappingTimestamp:  display.MappedAt,
		},
		Difficulty:   difficulty,
		TimeLimit:    int(rq.TimeLimit),
		PassingScore: passing,
		Questions:    questions,
		NewIn2025:    rq.NewIn2025,
		Tags:         rq.Tags,
	}, ""
}

func (s *ContentService) loadPaths(ctx context.Context, c *corpus) error {
	files, err := s.Source.ListJSON(ctx, dirPaths)
	if err != nil {
		return fmt.Errorf("%w: list learning paths: %v", util.ErrStorageFailure, err)
	}
	sort.Strings(files)

	for _, file := range files {
		raw, err := s.Source.ReadFile(ctx, dirPaths, file)
		if err != nil {
			s.drop(c, dirPaths+"/"+file, "", "read: "+err.Error())
			continue
		}
		if err := validateDocument(learningSchema, raw); err != nil {
			s.drop(c, dirPaths+"/"+file, "", "schema: "+err.Error())
			continue
		}
		var p model.LearningPath
		if err := json.Unmarshal(raw, &p); err != nil {
			s.drop(c, dirPaths+"/"+file, "", "decode: "+err.Error())
			continue
		}
		if _, dup := c.paths[p.ID]; dup {
			s.drop(c, dirPaths+"/"+file, p.ID, "duplicate learning path id")
			continue
		}
		for _, pm := range p.Modules {
			if _, ok := c.modules[pm.ModuleID]; !ok {
				c.report.Warnings = append(c.report.Warnings,
					fmt.Sprintf("learning path %s references unknown module %s", p.ID, pm.ModuleID))
			}
		}
		sort.SliceStable(p.Modules, func(i, j int) bool { return p.Modules[i].Order < p.Modules[j].Order })
		sort.SliceStable(p.Quizzes, func(i, j int) bool { return p.Quizzes[i].Order < p.Quizzes[j].Order })
		c.paths[p.ID] = &p
	}
	return nil
}

// breakPrerequisiteCycles removes the back edge of every cycle in the
// module prerequisite graph so traversals always terminate.
func (s *ContentService) breakPrerequisiteCycles(c *corpus) {
	const (
		white = 0
		grey  = 1
		black = 2
	)
	color := make(map[string]int, len(c.modules))

	var visit func(id string)
	visit = func(id string) {
		color[id] = grey
		m := c.modules[id]
		kept := make([]string, 0, len(m.Prerequisites))
		for _, pre := range m.Prerequisites {
			if _, ok := c.modules[pre]; !ok {
				c.report.Warnings = append(c.report.Warnings,
					fmt.Sprintf("module %s references unknown prerequisite %s", id, pre))
				continue
			}
			if color[pre] == grey {
				cycle := fmt.Sprintf("%s -> %s", id, pre)
				c.report.PrerequisiteCycles = append(c.report.PrerequisiteCycles, cycle)
				logger.Log.Warn("prerequisite cycle broken", zap.String("edge", cycle))
				continue
			}
			kept = append(kept, pre)
			if color[pre] == white {
				visit(pre)
			}
		}
		m.Prerequisites = kept
		color[id] = black
	}

	ids := make([]string, 0, len(c.modules))
	for id := range c.modules {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		if color[id] == white {
			visit(id)
		}
	}
}

func (s *ContentService) buildIndexes(c *corpus) {
	for id := range c.modules {
		c.moduleIDs = append(c.moduleIDs, id)
	}
	sort.Strings(c.moduleIDs)
	for id := range c.quizzes {
		c.quizIDs = append(c.quizIDs, id)
	}
	sort.Strings(c.quizIDs)
	for id := range c.paths {
		c.pathIDs = append(c.pathIDs, id)
	}
	sort.Strings(c.pathIDs)

	for _, id := range c.moduleIDs {
		m := c.modules[id]
		sum := model.ContentSummary{
			ID:                m.ID,
			Type:              model.ContentTypeModule,
			Title:             m.Title,
			Description:       m.Description,
			Category:          m.Category,
			ThreeTierCategory: m.ThreeTierCategory,
			Difficulty:        m.Difficulty,
			ExamRelevance:     m.ExamRelevance,
			NewIn2025:         m.NewIn2025,
			Tags:              m.Tags,
		}
		s.indexSummary(c, sum)

		// module -> quiz links declared on the module side
		for _, qid := range m.RelatedQuizzes {
			if _, ok := c.quizzes[qid]; ok {
				c.moduleQuizzes[m.ID] = append(c.moduleQuizzes[m.ID], qid)
			}
		}
	}

	for _, id := range c.quizIDs {
		q := c.quizzes[id]
		relevance := model.RelevanceMedium
		if parent, ok := c.modules[q.ModuleID]; ok {
			relevance = parent.ExamRelevance
		}
		sum := model.ContentSummary{
			ID:                q.ID,
			Type:              model.ContentTypeQuiz,
			Title:             q.Title,
			Description:       q.Description,
			Category:          q.Category,
			ThreeTierCategory: q.ThreeTierCategory,
			Difficulty:        q.Difficulty,
			ExamRelevance:     relevance,
			NewIn2025:         q.NewIn2025,
			Tags:              q.Tags,
		}
		s.indexSummary(c, sum)

		// quiz -> module link
		if _, ok := c.modules[q.ModuleID]; ok {
			c.moduleQuizzes[q.ModuleID] = append(c.moduleQuizzes[q.ModuleID], q.ID)
		}
	}

	// dedupe + order the module->quiz union
	for mid, qids := range c.moduleQuizzes {
		sort.Strings(qids)
		deduped := qids[:0]
		var prev string
		for _, qid := range qids {
			if qid != prev {
				deduped = append(deduped, qid)
			}
			prev = qid
		}
		c.moduleQuizzes[mid] = deduped
	}

	for label := range c.byCategory {
		sortSummaries(c.byCategory[label])
	}
}

func (s *ContentService) indexSummary(c *corpus, sum model.ContentSummary) {
	c.summaries[sum.ID] = sum
	c.byCategory[sum.ThreeTierCategory] = append(c.byCategory[sum.ThreeTierCategory], sum)
	c.byLegacy[sum.Category] = append(c.byLegacy[sum.Category], sum.ID)

	fields := []string{
		foldText(sum.Title),
		foldText(sum.Description),
		foldText(sum.Category),
		foldText(string(sum.ThreeTierCategory)),
	}
	for _, tag := range sum.Tags {
		fields = append(fields, foldText(tag))
	}
	c.haystacks[sum.ID] = fields

	for _, field := range fields {
		for _, token := range strings.Fields(field) {
			set, ok := c.tokens[token]
			if !ok {
				set = make(map[string]struct{})
				c.tokens[token] = set
			}
			set[sum.ID] = struct{}{}
		}
	}
}

// sortSummaries orders by examRelevance desc, difficulty asc, title asc,
// id as final tiebreak.
func sortSummaries(list []model.ContentSummary) {
	sort.SliceStable(list, func(i, j int) bool {
		a, b := list[i], list[j]
		if a.ExamRelevance.Rank() != b.ExamRelevance.Rank() {
			return a.ExamRelevance.Rank() > b.ExamRelevance.Rank()
		}
		if a.Difficulty.Rank() != b.Difficulty.Rank() {
			return a.Difficulty.Rank() < b.Difficulty.Rank()
		}
		if a.Title != b.Title {
			return a.Title < b.Title
		}
		return a.ID < b.ID
	})
}

func foldText(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func (s *ContentService) crossCheckExamChanges(c *corpus) {
	flagged := make(map[string]bool)
	for _, m := range c.modules {
		if m.NewIn2025 {
			flagged[m.ID] = true
			flagged[foldText(m.Title)] = true
		}
	}
	for _, topic := range c.examChanges.NewTopics {
		if !flagged[topic] && !flagged[foldText(topic)] {
			c.report.Warnings = append(c.report.Warnings,
				fmt.Sprintf("exam-changes new topic %q has no module flagged newIn2025", topic))
		}
	}
}

// --- queries ---

func (s *ContentService) GetAllModules(ctx context.Context) ([]*model.Module, error) {
	c, err := s.ensure(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*model.Module, 0, len(c.moduleIDs))
	for _, id := range c.moduleIDs {
		out = append(out, c.modules[id])
	}
	return out, nil
}

func (s *ContentService) GetAllQuizzes(ctx context.Context) ([]*model.Quiz, error) {
	c, err := s.ensure(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*model.Quiz, 0, len(c.quizIDs))
	for _, id := range c.quizIDs {
		out = append(out, c.quizzes[id])
	}
	return out, nil
}

// GetModuleByID returns the module, or ok=false when unknown.
func (s *ContentService) GetModuleByID(ctx context.Context, id string) (*model.Module, bool, error) {
	c, err := s.ensure(ctx)
	if err != nil {
		return nil, false, err
	}
	m, ok := c.modules[id]
	return m, ok, nil
}

func (s *ContentService) GetQuizByID(ctx context.Context, id string) (*model.Quiz, bool, error) {
	c, err := s.ensure(ctx)
	if err != nil {
		return nil, false, err
	}
	q, ok := c.quizzes[id]
	return q, ok, nil
}

// GetContentByThreeTierCategory lists all items of one label ordered by
// examRelevance desc, difficulty asc, title asc.
func (s *ContentService) GetContentByThreeTierCategory(ctx context.Context, label model.ThreeTierCategory) ([]model.ContentSummary, error) {
	if !label.Valid() {
		return nil, fmt.Errorf("%w: unknown three-tier category %q", util.ErrInvalidInput, label)
	}
	c, err := s.ensure(ctx)
	if err != nil {
		return nil, err
	}
	return append([]model.ContentSummary(nil), c.byCategory[label]...), nil
}

// SearchContent matches the folded query against title, description,
// tags and both category fields. An empty query matches everything.
func (s *ContentService) SearchContent(ctx context.Context, query string, filters model.SearchFilters) ([]model.ContentSummary, error) {
	c, err := s.ensure(ctx)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	defer func() { monitoring.SearchDuration.Observe(time.Since(start).Seconds()) }()

	folded := foldText(query)

	var candidates map[string]struct{}
	if folded != "" {
		candidates = make(map[string]struct{})
		// whole-token hits from the inverted index seed the set; the
		// scan below still finds substring matches inside longer tokens
		if !strings.ContainsAny(folded, " \t") {
			for id := range c.tokens[folded] {
				candidates[id] = struct{}{}
			}
		}
		for id, fields := range c.haystacks {
			if _, ok := candidates[id]; ok {
				continue
			}
			for _, f := range fields {
				if strings.Contains(f, folded) {
					candidates[id] = struct{}{}
					break
				}
			}
		}
	}

	var out []model.ContentSummary
	for _, id := range append(append([]string(nil), c.moduleIDs...), c.quizIDs...) {
		if folded != "" {
			if _, ok := candidates[id]; !ok {
				continue
			}
		}
		sum := c.summaries[id]
		if !matchFilters(sum, filters) {
			continue
		}
		out = append(out, sum)
	}
	sortSummaries(out)
	return out, nil
}

func matchFilters(sum model.ContentSummary, f model.SearchFilters) bool {
	if f.Category != nil && sum.ThreeTierCategory != *f.Category {
		return false
	}
	if f.Difficulty != nil && sum.Difficulty != *f.Difficulty {
		return false
	}
	if f.ExamRelevance != nil && sum.ExamRelevance != *f.ExamRelevance {
		return false
	}
	if f.NewIn2025 != nil && sum.NewIn2025 != *f.NewIn2025 {
		return false
	}
	return true
}

// SearchInCategory rejects blank queries and restricts the search to one
// three-tier label.
func (s *ContentService) SearchInCategory(ctx context.Context, query string, label model.ThreeTierCategory) ([]model.ContentSummary, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: search query must not be empty", util.ErrInvalidInput)
	}
	if !label.Valid() {
		return nil, fmt.Errorf("%w: unknown three-tier category %q", util.ErrInvalidInput, label)
	}
	return s.SearchContent(ctx, query, model.SearchFilters{Category: &label})
}

// GetRelatedQuizzes returns the union of quizzes pointing at the module
// and quizzes the module declares, ordered by id. ok=false when the
// module is unknown.
func (s *ContentService) GetRelatedQuizzes(ctx context.Context, moduleID string) ([]*model.Quiz, bool, error) {
	c, err := s.ensure(ctx)
	if err != nil {
		return nil, false, err
	}
	if _, ok := c.modules[moduleID]; !ok {
		return nil, false, nil
	}
	out := make([]*model.Quiz, 0, len(c.moduleQuizzes[moduleID]))
	for _, qid := range c.moduleQuizzes[moduleID] {
		out = append(out, c.quizzes[qid])
	}
	return out, true, nil
}

// GetRelatedModules returns modules connected to the module through its
// prerequisite neighborhood or a shared quiz link, ordered by id.
// ok=false when the module is unknown.
func (s *ContentService) GetRelatedModules(ctx context.Context, moduleID string) ([]*model.Module, bool, error) {
	c, err := s.ensure(ctx)
	if err != nil {
		return nil, false, err
	}
	root, ok := c.modules[moduleID]
	if !ok {
		return nil, false, nil
	}

	related := make(map[string]bool)
	for _, id := range root.Prerequisites {
		if _, ok := c.modules[id]; ok {
			related[id] = true
		}
	}
	ownQuizzes := make(map[string]bool, len(c.moduleQuizzes[moduleID]))
	for _, qid := range c.moduleQuizzes[moduleID] {
		ownQuizzes[qid] = true
	}
	for _, id := range c.moduleIDs {
		if id == moduleID || related[id] {
			continue
		}
		if containsString(c.modules[id].Prerequisites, moduleID) {
			related[id] = true
			continue
		}
		for _, qid := range c.moduleQuizzes[id] {
			if ownQuizzes[qid] {
				related[id] = true
				break
			}
		}
	}

	ids := make([]string, 0, len(related))
	for id := range related {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out := make([]*model.Module, 0, len(ids))
	for _, id := range ids {
		out = append(out, c.modules[id])
	}
	return out, true, nil
}

// GetContentWithCategoryInfo fans the corpus out per three-tier label.
func (s *ContentService) GetContentWithCategoryInfo(ctx context.Context) ([]model.CategoryContentGroup, error) {
	c, err := s.ensure(ctx)
	if err != nil {
		return nil, err
	}
	groups := make([]model.CategoryContentGroup, 0, len(model.AllThreeTierCategories))
	for _, label := range model.AllThreeTierCategories {
		g := model.CategoryContentGroup{
			Label:    label,
			Category: s.Categories.GetCategoryConfig(label),
		}
		for _, sum := range c.byCategory[label] {
			switch sum.Type {
			case model.ContentTypeModule:
				g.Modules = append(g.Modules, c.modules[sum.ID])
			case model.ContentTypeQuiz:
				g.Quizzes = append(g.Quizzes, c.quizzes[sum.ID])
			}
		}
		groups = append(groups, g)
	}
	return groups, nil
}

func (s *ContentService) GetLearningPath(ctx context.Context, id string) (*model.LearningPath, bool, error) {
	c, err := s.ensure(ctx)
	if err != nil {
		return nil, false, err
	}
	p, ok := c.paths[id]
	return p, ok, nil
}

func (s *ContentService) GetAllLearningPaths(ctx context.Context) ([]*model.LearningPath, error) {
	c, err := s.ensure(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*model.LearningPath, 0, len(c.pathIDs))
	for _, id := range c.pathIDs {
		out = append(out, c.paths[id])
	}
	return out, nil
}

// GetRecommendedLearningPaths prefers paths tied to the specialization,
// then the easier ones first.
func (s *ContentService) GetRecommendedLearningPaths(ctx context.Context, specialization model.Specialization) ([]*model.LearningPath, error) {
	paths, err := s.GetAllLearningPaths(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(paths, func(i, j int) bool {
		a, b := paths[i], paths[j]
		aMatch := a.Specialization == "" || a.Specialization == string(specialization)
		bMatch := b.Specialization == "" || b.Specialization == string(specialization)
		if aMatch != bMatch {
			return aMatch
		}
		if a.Difficulty.Rank() != b.Difficulty.Rank() {
			return a.Difficulty.Rank() < b.Difficulty.Rank()
		}
		return a.ID < b.ID
	})
	return paths, nil
}

func (s *ContentService) LoadReport(ctx context.Context) (model.LoadReport, error) {
	c, err := s.ensure(ctx)
	if err != nil {
		return model.LoadReport{}, err
	}
	return c.report, nil
}

func (s *ContentService) LegacyCategories(ctx context.Context) ([]string, error) {
	c, err := s.ensure(ctx)
	if err != nil {
		return nil, err
	}
	return append([]string(nil), c.legacyCategories...), nil
}

func (s *ContentService) ExamChanges(ctx context.Context) (model.ExamChanges2025, error) {
	c, err := s.ensure(ctx)
	if err != nil {
		return model.ExamChanges2025{}, err
	}
	return c.examChanges, nil
}
