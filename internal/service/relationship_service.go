package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"ihk_prep_backend/internal/model"
	"ihk_prep_backend/internal/state"
	"ihk_prep_backend/internal/util"
	"ihk_prep_backend/pkg/logger"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const (
	relatedCacheKeyPrefix = "ihkprep:cache:related:"
	relatedCacheTTL       = 10 * time.Minute
	relatedBucketLimit    = 10
)

// Relationship scoring weights. Scores are clamped to [0,1].
const (
	weightTagOverlap       = 0.4
	weightSameCategory     = 0.3
	weightAdjacentCategory = 0.15
	weightSameDifficulty   = 0.15
	weightNearDifficulty   = 0.2
	weightFarDifficulty    = 0.05
	weightPrereqChain      = 0.3
)

type RecommendationOptions struct {
	MaxResults  int
	ModulesOnly bool
}

// RelatedContentOptions narrow a related-content query. MaxResults caps
// each bucket; zero means the default limit.
type RelatedContentOptions struct {
	ExcludeCurrentCategory bool
	MaxResults             int
}

// RelationshipService derives relationship graphs and next-step
// recommendations over the loaded corpus. Related-content results are
// memoised in memory and, when available, in redis; both layers are
// flushed when the specialization or the progress changes.
type RelationshipService struct {
	Content        *ContentService
	Specialization *SpecializationService
	Categories     *CategoryService
	Redis          *redis.Client

	mu   sync.Mutex
	memo map[string]*model.RelatedContent

	cancelSpec func()
	cancelProg func()
}

func NewRelationshipService(content *ContentService, specialization *SpecializationService, categories *CategoryService, st *state.Store, rdb *redis.Client) *RelationshipService {
	s := &RelationshipService{
		Content:        content,
		Specialization: specialization,
		Categories:     categories,
		Redis:          rdb,
		memo:           make(map[string]*model.RelatedContent),
	}

	specCh, cancelSpec := st.Subscribe(state.EventSpecializationChanged)
	progCh, cancelProg := st.Subscribe(state.EventProgressChanged)
	s.cancelSpec = cancelSpec
	s.cancelProg = cancelProg
	go func() {
		for {
			select {
			case _, ok := <-specCh:
				if !ok {
					return
				}
				s.invalidate()
			case _, ok := <-progCh:
				if !ok {
					return
				}
				s.invalidate()
			}
		}
	}()
	return s
}

func (s *RelationshipService) Close() {
	if s.cancelSpec != nil {
		s.cancelSpec()
	}
	if s.cancelProg != nil {
		s.cancelProg()
	}
}

func (s *RelationshipService) invalidate() {
	s.mu.Lock()
	s.memo = make(map[string]*model.RelatedContent)
	s.mu.Unlock()

	if s.Redis == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	iter := s.Redis.Scan(ctx, 0, relatedCacheKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		s.Redis.Del(ctx, iter.Val())
	}
	if err := iter.Err(); err != nil {
		logger.Log.Warn("related-content cache flush failed", zap.Error(err))
	}
}

// contentAttrs is the projection the scorer works on, shared between
// modules and quizzes.
type contentAttrs struct {
	id         string
	title      string
	category   model.ThreeTierCategory
	difficulty model.Difficulty
	tags       []string
}

func moduleAttrs(m *model.Module) contentAttrs {
	return contentAttrs{id: m.ID, title: m.Title, category: m.ThreeTierCategory, difficulty: m.Difficulty, tags: m.Tags}
}

func quizAttrs(q *model.Quiz) contentAttrs {
	return contentAttrs{id: q.ID, title: q.Title, category: q.ThreeTierCategory, difficulty: q.Difficulty, tags: q.Tags}
}

func tagJaccard(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	setA := make(map[string]bool, len(a))
	for _, t := range a {
		setA[foldText(t)] = true
	}
	inter, union := 0, len(setA)
	seenB := make(map[string]bool, len(b))
	for _, t := range b {
		folded := foldText(t)
		if seenB[folded] {
			continue
		}
		seenB[folded] = true
		if setA[folded] {
			inter++
		} else {
			union++
		}
	}
	return float64(inter) / float64(union)
}

func categoryAffinity(a, b model.ThreeTierCategory) float64 {
	if a == b {
		return weightSameCategory
	}
	if a == model.CategoryAllgemein || b == model.CategoryAllgemein {
		return weightAdjacentCategory
	}
	return 0
}

func difficultyAffinity(a, b model.Difficulty) float64 {
	delta := a.Rank() - b.Rank()
	if delta < 0 {
		delta = -delta
	}
	switch delta {
	case 0:
		return weightSameDifficulty
	case 1:
		// one step apart scores highest: natural next-step material
		return weightNearDifficulty
	default:
		return weightFarDifficulty
	}
}

func clampScore(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

func scorePair(a, b contentAttrs, prereqChain bool) float64 {
	score := tagJaccard(a.tags, b.tags)*weightTagOverlap +
		categoryAffinity(a.category, b.category) +
		difficultyAffinity(a.difficulty, b.difficulty)
	if prereqChain {
		score += weightPrereqChain
	}
	return clampScore(score)
}

func relatedItem(attrs contentAttrs, score float64) model.RelatedItem {
	return model.RelatedItem{
		ID:                attrs.id,
		Title:             attrs.title,
		ThreeTierCategory: attrs.category,
		Difficulty:        attrs.difficulty,
		RelationshipScore: score,
	}
}

func sortRelated(items []model.RelatedItem) {
	sort.Slice(items, func(i, j int) bool {
		if items[i].RelationshipScore != items[j].RelationshipScore {
			return items[i].RelationshipScore > items[j].RelationshipScore
		}
		return items[i].ID < items[j].ID
	})
}

// GetRelatedContent buckets the corpus around one item into
// prerequisite, related, advanced and complementary candidates.
func (s *RelationshipService) GetRelatedContent(ctx context.Context, contentID string, opts RelatedContentOptions) (*model.RelatedContent, error) {
	cacheKey := fmt.Sprintf("%s:x%t:n%d", contentID, opts.ExcludeCurrentCategory, opts.MaxResults)

	s.mu.Lock()
	if hit, ok := s.memo[cacheKey]; ok {
		s.mu.Unlock()
		return hit, nil
	}
	s.mu.Unlock()

	if s.Redis != nil {
		raw, err := s.Redis.Get(ctx, relatedCacheKeyPrefix+cacheKey).Bytes()
		if err == nil {
			var cached model.RelatedContent
			if json.Unmarshal(raw, &cached) == nil {
				s.mu.Lock()
				s.memo[cacheKey] = &cached
				s.mu.Unlock()
				return &cached, nil
			}
		} else if err != redis.Nil {
			logger.Log.Warn("related-content cache read failed", zap.Error(err))
		}
	}

	result, err := s.computeRelatedContent(ctx, contentID, opts)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.memo[cacheKey] = result
	s.mu.Unlock()
	if s.Redis != nil {
		if raw, err := json.Marshal(result); err == nil {
			if err := s.Redis.Set(ctx, relatedCacheKeyPrefix+cacheKey, raw, relatedCacheTTL).Err(); err != nil {
				logger.Log.Warn("related-content cache write failed", zap.Error(err))
			}
		}
	}
	return result, nil
}

func (s *RelationshipService) computeRelatedContent(ctx context.Context, contentID string, opts RelatedContentOptions) (*model.RelatedContent, error) {
	modules, err := s.Content.GetAllModules(ctx)
	if err != nil {
		return nil, err
	}
	quizzes, err := s.Content.GetAllQuizzes(ctx)
	if err != nil {
		return nil, err
	}

	var (
		self       contentAttrs
		selfModule *model.Module
		selfQuiz   *model.Quiz
	)
	if m, ok, err := s.Content.GetModuleByID(ctx, contentID); err != nil {
		return nil, err
	} else if ok {
		self = moduleAttrs(m)
		selfModule = m
	} else if q, ok, err := s.Content.GetQuizByID(ctx, contentID); err != nil {
		return nil, err
	} else if ok {
		self = quizAttrs(q)
		selfQuiz = q
	} else {
		return nil, fmt.Errorf("%w: content %s", util.ErrNotFound, contentID)
	}

	out := &model.RelatedContent{ContentID: contentID}
	claimed := map[string]bool{contentID: true}
	skip := func(attrs contentAttrs) bool {
		return opts.ExcludeCurrentCategory && attrs.category == self.category
	}

	if selfModule != nil {
		for _, prereqID := range selfModule.Prerequisites {
			m, ok, err := s.Content.GetModuleByID(ctx, prereqID)
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
			claimed[prereqID] = true
			attrs := moduleAttrs(m)
			if skip(attrs) {
				continue
			}
			out.Relationships.Prerequisite = append(out.Relationships.Prerequisite, relatedItem(attrs, scorePair(self, attrs, true)))
		}
		for _, m := range modules {
			if claimed[m.ID] || !containsString(m.Prerequisites, selfModule.ID) {
				continue
			}
			claimed[m.ID] = true
			attrs := moduleAttrs(m)
			if skip(attrs) {
				continue
			}
			out.Relationships.Advanced = append(out.Relationships.Advanced, relatedItem(attrs, scorePair(self, attrs, true)))
		}
	}

	// a quiz's parent module is its entry requirement
	if selfQuiz != nil && selfQuiz.ModuleID != "" {
		if m, ok, err := s.Content.GetModuleByID(ctx, selfQuiz.ModuleID); err != nil {
			return nil, err
		} else if ok {
			claimed[m.ID] = true
			attrs := moduleAttrs(m)
			if !skip(attrs) {
				out.Relationships.Prerequisite = append(out.Relationships.Prerequisite, relatedItem(attrs, scorePair(self, attrs, true)))
			}
		}
	}

	// everything else: same three-tier category reads as related,
	// cross-category as complementary
	residual := func(attrs contentAttrs) {
		if claimed[attrs.id] || skip(attrs) {
			return
		}
		item := relatedItem(attrs, scorePair(self, attrs, false))
		if attrs.category == self.category {
			out.Relationships.Related = append(out.Relationships.Related, item)
		} else {
			out.Relationships.Complementary = append(out.Relationships.Complementary, item)
		}
	}
	for _, m := range modules {
		residual(moduleAttrs(m))
	}
	for _, q := range quizzes {
		residual(quizAttrs(q))
	}

	limit := opts.MaxResults
	if limit <= 0 {
		limit = relatedBucketLimit
	}
	for _, bucket := range []*[]model.RelatedItem{
		&out.Relationships.Prerequisite,
		&out.Relationships.Related,
		&out.Relationships.Advanced,
		&out.Relationships.Complementary,
	} {
		sortRelated(*bucket)
		if len(*bucket) > limit {
			*bucket = (*bucket)[:limit]
		}
	}
	return out, nil
}

// GetPrerequisites resolves the transitive prerequisite chain of a
// module, dependencies first. Unknown references are skipped; cycles
// cannot occur because the loader breaks them.
func (s *RelationshipService) GetPrerequisites(ctx context.Context, moduleID string) ([]*model.Module, error) {
	root, ok, err := s.Content.GetModuleByID(ctx, moduleID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: module %s", util.ErrNotFound, moduleID)
	}

	var out []*model.Module
	visited := map[string]bool{moduleID: true}
	var walk func(m *model.Module) error
	walk = func(m *model.Module) error {
		ids := append([]string(nil), m.Prerequisites...)
		sort.Strings(ids)
		for _, id := range ids {
			if visited[id] {
				continue
			}
			visited[id] = true
			dep, ok, err := s.Content.GetModuleByID(ctx, id)
			if err != nil {
				return err
			}
			if !ok {
				continue
			}
			if err := walk(dep); err != nil {
				return err
			}
			out = append(out, dep)
		}
		return nil
	}
	if err := walk(root); err != nil {
		return nil, err
	}
	return out, nil
}

// GetAdvancedContent resolves the transitive dependents of a module in
// breadth-first order.
func (s *RelationshipService) GetAdvancedContent(ctx context.Context, moduleID string) ([]*model.Module, error) {
	if _, ok, err := s.Content.GetModuleByID(ctx, moduleID); err != nil {
		return nil, err
	} else if !ok {
		return nil, fmt.Errorf("%w: module %s", util.ErrNotFound, moduleID)
	}
	modules, err := s.Content.GetAllModules(ctx)
	if err != nil {
		return nil, err
	}

	dependents := make(map[string][]*model.Module)
	for _, m := range modules {
		for _, prereqID := range m.Prerequisites {
			dependents[prereqID] = append(dependents[prereqID], m)
		}
	}

	var out []*model.Module
	visited := map[string]bool{moduleID: true}
	frontier := []string{moduleID}
	for len(frontier) > 0 {
		var next []string
		for _, id := range frontier {
			for _, dep := range dependents[id] {
				if visited[dep.ID] {
					continue
				}
				visited[dep.ID] = true
				out = append(out, dep)
				next = append(next, dep.ID)
			}
		}
		sort.Strings(next)
		frontier = next
	}
	return out, nil
}

// GetContentRecommendations scores every not-yet-completed module (and,
// unless restricted, the quizzes of completed modules) as a next step
// for the given specialization.
func (s *RelationshipService) GetContentRecommendations(ctx context.Context, specialization model.Specialization, completedModules []string, opts RecommendationOptions) ([]model.Recommendation, error) {
	modules, err := s.Content.GetAllModules(ctx)
	if err != nil {
		return nil, err
	}

	completed := toSet(completedModules)

	// Learner level is the highest difficulty already completed.
	level := 0
	for _, m := range modules {
		if completed[m.ID] && m.Difficulty.Rank() > level {
			level = m.Difficulty.Rank()
		}
	}

	var out []model.Recommendation
	for _, m := range modules {
		if completed[m.ID] || m.RemovedIn2025 {
			continue
		}
		rec := s.scoreCandidate(moduleAttrs(m), m.Prerequisites, m.NewIn2025, specialization, completed, level)
		out = append(out, rec)
	}

	if !opts.ModulesOnly {
		quizzes, err := s.Content.GetAllQuizzes(ctx)
		if err != nil {
			return nil, err
		}
		for _, q := range quizzes {
			if q.ModuleID == "" || !completed[q.ModuleID] {
				continue
			}
			rec := s.scoreCandidate(quizAttrs(q), nil, q.NewIn2025, specialization, completed, level)
			rec.RecommendationReasons = append(rec.RecommendationReasons, "Vertieft ein abgeschlossenes Modul")
			out = append(out, rec)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].ID < out[j].ID
	})

	max := opts.MaxResults
	if max <= 0 {
		max = 10
	}
	if len(out) > max {
		out = out[:max]
	}
	return out, nil
}

func (s *RelationshipService) scoreCandidate(attrs contentAttrs, prerequisites []string, newIn2025 bool, specialization model.Specialization, completed map[string]bool, level int) model.Recommendation {
	var reasons []string

	relevance := s.Categories.GetCategoryRelevance(attrs.category, specialization)
	score := relevanceWeight(relevance)
	if relevance == model.RelevanceHigh {
		reasons = append(reasons, "Hohe Prüfungsrelevanz für deine Fachrichtung")
	}

	if len(prerequisites) > 0 {
		done := 0
		for _, prereqID := range prerequisites {
			if completed[prereqID] {
				done++
			}
		}
		switch {
		case done == len(prerequisites):
			score += 0.3
			reasons = append(reasons, "Alle Voraussetzungen sind erfüllt")
		case done > 0:
			reasons = append(reasons, "Ein Teil der Voraussetzungen ist erfüllt")
		default:
			score -= 0.2
			reasons = append(reasons, "Voraussetzungen fehlen noch")
		}
	}

	if rank := attrs.difficulty.Rank(); rank == level || rank == level+1 {
		score += 0.2
		reasons = append(reasons, "Passt zu deinem aktuellen Niveau")
	}

	if newIn2025 {
		score += 0.1
		reasons = append(reasons, "Neues Prüfungsthema 2025")
	}

	if len(reasons) == 0 {
		reasons = append(reasons, "Erweitert dein Themenspektrum")
	}

	return model.Recommendation{
		ID:                    attrs.id,
		Title:                 attrs.title,
		ThreeTierCategory:     attrs.category,
		Difficulty:            attrs.difficulty,
		Score:                 score,
		RecommendationReasons: reasons,
	}
}
