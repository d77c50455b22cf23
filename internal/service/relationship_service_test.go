package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"

	"ihk_prep_backend/internal/model"
	"ihk_prep_backend/internal/repository"
	"ihk_prep_backend/internal/state"
	"ihk_prep_backend/internal/util"
)

func bucketIDs(items []model.RelatedItem) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.ID)
	}
	return out
}

func TestRelatedContentBuckets(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	related, err := f.relationships.GetRelatedContent(ctx, "bp-dpa-02-data-quality", RelatedContentOptions{})
	if err != nil {
		t.Fatalf("GetRelatedContent: %v", err)
	}
	if ids := bucketIDs(related.Relationships.Prerequisite); len(ids) != 1 || ids[0] != "bp-dpa-01-er-modeling" {
		t.Errorf("prerequisite bucket = %v, want [bp-dpa-01-er-modeling]", ids)
	}

	base, err := f.relationships.GetRelatedContent(ctx, "bp-dpa-01-er-modeling", RelatedContentOptions{})
	if err != nil {
		t.Fatalf("GetRelatedContent: %v", err)
	}
	if ids := bucketIDs(base.Relationships.Advanced); len(ids) != 1 || ids[0] != "bp-dpa-02-data-quality" {
		t.Errorf("advanced bucket = %v, want [bp-dpa-02-data-quality]", ids)
	}

	// same three-tier category reads as related, cross-category as
	// complementary
	if ids := bucketIDs(base.Relationships.Related); len(ids) != 1 || ids[0] != "quiz-er-modeling" {
		t.Errorf("related bucket = %v, want [quiz-er-modeling]", ids)
	}
	for _, it := range base.Relationships.Complementary {
		if it.ThreeTierCategory == model.CategoryDPA {
			t.Errorf("same-category item %s landed in complementary", it.ID)
		}
	}
	if ids := bucketIDs(base.Relationships.Complementary); len(ids) == 0 {
		t.Error("complementary bucket empty, want the cross-category items")
	}

	// an item must not appear in two buckets
	seen := make(map[string]int)
	for _, bucket := range [][]model.RelatedItem{
		base.Relationships.Prerequisite,
		base.Relationships.Related,
		base.Relationships.Advanced,
		base.Relationships.Complementary,
	} {
		for _, it := range bucket {
			seen[it.ID]++
			if it.ID == "bp-dpa-01-er-modeling" {
				t.Error("item related to itself")
			}
		}
	}
	for id, n := range seen {
		if n > 1 {
			t.Errorf("%s appears in %d buckets", id, n)
		}
	}
}

func TestRelatedContentExcludeCurrentCategory(t *testing.T) {
	f := newEngineFixture(t)

	related, err := f.relationships.GetRelatedContent(context.Background(), "bp-dpa-01-er-modeling",
		RelatedContentOptions{ExcludeCurrentCategory: true})
	if err != nil {
		t.Fatalf("GetRelatedContent: %v", err)
	}
	for _, bucket := range [][]model.RelatedItem{
		related.Relationships.Prerequisite,
		related.Relationships.Related,
		related.Relationships.Advanced,
		related.Relationships.Complementary,
	} {
		for _, it := range bucket {
			if it.ThreeTierCategory == model.CategoryDPA {
				t.Errorf("%s shares the source category despite the exclusion", it.ID)
			}
		}
	}
	if len(related.Relationships.Complementary) == 0 {
		t.Error("cross-category candidates missing")
	}
}

func TestRelatedContentMaxResults(t *testing.T) {
	f := newEngineFixture(t)

	related, err := f.relationships.GetRelatedContent(context.Background(), "bp-dpa-01-er-modeling",
		RelatedContentOptions{MaxResults: 1})
	if err != nil {
		t.Fatalf("GetRelatedContent: %v", err)
	}
	for name, bucket := range map[string][]model.RelatedItem{
		"prerequisite":  related.Relationships.Prerequisite,
		"related":       related.Relationships.Related,
		"advanced":      related.Relationships.Advanced,
		"complementary": related.Relationships.Complementary,
	} {
		if len(bucket) > 1 {
			t.Errorf("%s bucket has %d items, cap is 1", name, len(bucket))
		}
	}
}

func TestRelatedContentForQuiz(t *testing.T) {
	f := newEngineFixture(t)

	related, err := f.relationships.GetRelatedContent(context.Background(), "quiz-er-modeling", RelatedContentOptions{})
	if err != nil {
		t.Fatalf("GetRelatedContent: %v", err)
	}
	if ids := bucketIDs(related.Relationships.Prerequisite); len(ids) != 1 || ids[0] != "bp-dpa-01-er-modeling" {
		t.Errorf("quiz prerequisite bucket = %v, want its parent module", ids)
	}
}

func TestRelatedContentUnknownID(t *testing.T) {
	f := newEngineFixture(t)

	_, err := f.relationships.GetRelatedContent(context.Background(), "ghost", RelatedContentOptions{})
	if !errors.Is(err, util.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestRelatedContentScoresBounded(t *testing.T) {
	f := newEngineFixture(t)

	related, err := f.relationships.GetRelatedContent(context.Background(), "bp-ae-01-oop", RelatedContentOptions{})
	if err != nil {
		t.Fatalf("GetRelatedContent: %v", err)
	}
	for _, bucket := range [][]model.RelatedItem{
		related.Relationships.Prerequisite,
		related.Relationships.Related,
		related.Relationships.Advanced,
		related.Relationships.Complementary,
	} {
		for _, it := range bucket {
			if it.RelationshipScore < 0 || it.RelationshipScore > 1 {
				t.Errorf("%s score %f out of [0,1]", it.ID, it.RelationshipScore)
			}
		}
	}
	for i := 1; i < len(related.Relationships.Related); i++ {
		if related.Relationships.Related[i].RelationshipScore > related.Relationships.Related[i-1].RelationshipScore {
			t.Error("related bucket not sorted by score descending")
		}
	}
}

func TestGetPrerequisitesChain(t *testing.T) {
	f := newEngineFixture(t)

	chain, err := f.relationships.GetPrerequisites(context.Background(), "bp-dpa-02-data-quality")
	if err != nil {
		t.Fatalf("GetPrerequisites: %v", err)
	}
	if len(chain) != 1 || chain[0].ID != "bp-dpa-01-er-modeling" {
		ids := make([]string, len(chain))
		for i, m := range chain {
			ids[i] = m.ID
		}
		t.Errorf("chain = %v, want [bp-dpa-01-er-modeling]", ids)
	}

	none, err := f.relationships.GetPrerequisites(context.Background(), "bp-dpa-01-er-modeling")
	if err != nil {
		t.Fatalf("GetPrerequisites: %v", err)
	}
	if len(none) != 0 {
		t.Errorf("root module has %d prerequisites, want 0", len(none))
	}
}

func TestGetAdvancedContent(t *testing.T) {
	f := newEngineFixture(t)

	next, err := f.relationships.GetAdvancedContent(context.Background(), "bp-ae-01-oop")
	if err != nil {
		t.Fatalf("GetAdvancedContent: %v", err)
	}
	if len(next) != 1 || next[0].ID != "bp-ae-02-patterns" {
		ids := make([]string, len(next))
		for i, m := range next {
			ids[i] = m.ID
		}
		t.Errorf("advanced = %v, want [bp-ae-02-patterns]", ids)
	}
}

func TestRecommendationsExcludeCompletedAndSort(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	recs, err := f.relationships.GetContentRecommendations(ctx, model.SpecializationAE, []string{"bp-ae-01-oop"}, RecommendationOptions{})
	if err != nil {
		t.Fatalf("GetContentRecommendations: %v", err)
	}
	byID := make(map[string]model.Recommendation)
	for i, rec := range recs {
		byID[rec.ID] = rec
		if i > 0 && rec.Score > recs[i-1].Score {
			t.Error("recommendations not sorted by score descending")
		}
	}
	if _, ok := byID["bp-ae-01-oop"]; ok {
		t.Error("completed module recommended")
	}

	// ready prerequisite beats a missing one for otherwise similar items
	patterns, ok := byID["bp-ae-02-patterns"]
	if !ok {
		t.Fatal("missing bp-ae-02-patterns")
	}
	if !containsString(patterns.RecommendationReasons, "Alle Voraussetzungen sind erfüllt") {
		t.Errorf("patterns reasons = %v, want prerequisite-ready reason", patterns.RecommendationReasons)
	}
	dataQuality, ok := byID["bp-dpa-02-data-quality"]
	if !ok {
		t.Fatal("missing bp-dpa-02-data-quality")
	}
	if !containsString(dataQuality.RecommendationReasons, "Voraussetzungen fehlen noch") {
		t.Errorf("data-quality reasons = %v, want missing-prerequisite reason", dataQuality.RecommendationReasons)
	}

	// quizzes surface only for completed parent modules
	if _, ok := byID["quiz-er-modeling"]; ok {
		t.Error("quiz recommended although its module is open")
	}
	quizOOP, ok := byID["quiz-oop"]
	if !ok {
		t.Fatal("missing quiz for the completed module")
	}
	if !containsString(quizOOP.RecommendationReasons, "Vertieft ein abgeschlossenes Modul") {
		t.Errorf("quiz reasons = %v", quizOOP.RecommendationReasons)
	}
}

func TestRecommendationsModulesOnlyAndLimit(t *testing.T) {
	f := newEngineFixture(t)

	recs, err := f.relationships.GetContentRecommendations(context.Background(), model.SpecializationAE,
		[]string{"bp-ae-01-oop"}, RecommendationOptions{MaxResults: 2, ModulesOnly: true})
	if err != nil {
		t.Fatalf("GetContentRecommendations: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("got %d recommendations, want 2", len(recs))
	}
	for _, rec := range recs {
		if rec.ID == "quiz-oop" || rec.ID == "quiz-er-modeling" {
			t.Errorf("quiz %s returned despite ModulesOnly", rec.ID)
		}
	}
}

func TestRelatedContentRedisCache(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	f := newEngineFixture(t)
	ctx := context.Background()

	cacheKey := relatedCacheKeyPrefix + "bp-dpa-01-er-modeling:xfalse:n0"

	warm := NewRelationshipService(f.content, f.specialization, NewCategoryService(), f.state, rdb)
	t.Cleanup(warm.Close)
	first, err := warm.GetRelatedContent(ctx, "bp-dpa-01-er-modeling", RelatedContentOptions{})
	if err != nil {
		t.Fatalf("GetRelatedContent: %v", err)
	}
	if !mr.Exists(cacheKey) {
		t.Fatal("cache key not written")
	}

	// a second service instance must serve the cached copy
	cold := NewRelationshipService(f.content, f.specialization, NewCategoryService(), f.state, rdb)
	t.Cleanup(cold.Close)
	second, err := cold.GetRelatedContent(ctx, "bp-dpa-01-er-modeling", RelatedContentOptions{})
	if err != nil {
		t.Fatalf("GetRelatedContent from cache: %v", err)
	}
	if len(second.Relationships.Advanced) != len(first.Relationships.Advanced) {
		t.Errorf("cached copy diverges: %d advanced vs %d", len(second.Relationships.Advanced), len(first.Relationships.Advanced))
	}

	// a specialization change flushes the cache
	if err := f.specialization.SetSpecialization(ctx, model.SpecializationDPA); err != nil {
		t.Fatalf("SetSpecialization: %v", err)
	}
	flushed := false
	for i := 0; i < 200; i++ {
		if !mr.Exists(cacheKey) {
			flushed = true
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	if !flushed {
		t.Error("cache entry survived a specialization change")
	}
}

func newRecommendationHarness(t *testing.T, dirs map[string]map[string]string) *RelationshipService {
	t.Helper()
	st := state.NewStore()
	repo := repository.NewProgressRepository(repository.NewStorageAdapter(repository.NewMemoryKVStore(), 0))
	categories := NewCategoryService()
	rel := NewRelationshipService(newTestContent(t, dirs), NewSpecializationService(st, repo, categories), categories, st, nil)
	t.Cleanup(rel.Close)
	return rel
}

func TestRecommendationReasonsNeverEmpty(t *testing.T) {
	// low relevance, no prerequisites, off-level difficulty, no 2025
	// flag: none of the bonus branches applies
	dirs := map[string]map[string]string{
		"modules": {
			"mining.json": `{
				"id": "bp-dpa-09-mining",
				"title": "Data Mining Vertiefung",
				"category": "BP-DPA-09",
				"difficulty": "advanced",
				"examRelevance": "low",
				"tags": ["Mining"]
			}`,
		},
	}
	rel := newRecommendationHarness(t, dirs)

	recs, err := rel.GetContentRecommendations(context.Background(), model.SpecializationAE, nil, RecommendationOptions{})
	if err != nil {
		t.Fatalf("GetContentRecommendations: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("got %d recommendations, want 1", len(recs))
	}
	if len(recs[0].RecommendationReasons) == 0 {
		t.Errorf("%s has empty recommendationReasons", recs[0].ID)
	}
	for _, reason := range recs[0].RecommendationReasons {
		if reason == "" {
			t.Error("blank reason string")
		}
	}
}

func TestRecommendationPartialPrerequisitesScoreNeutral(t *testing.T) {
	dirs := map[string]map[string]string{
		"modules": {
			"a.json": `{"id": "bp-dpa-01-a", "title": "Grundlagen A", "category": "BP-DPA-01", "difficulty": "beginner"}`,
			"b.json": `{"id": "bp-dpa-02-b", "title": "Grundlagen B", "category": "BP-DPA-02", "difficulty": "beginner"}`,
			"c.json": `{
				"id": "bp-dpa-03-c",
				"title": "Vertiefung C",
				"category": "BP-DPA-03",
				"difficulty": "advanced",
				"prerequisites": ["bp-dpa-01-a", "bp-dpa-02-b"]
			}`,
		},
	}
	rel := newRecommendationHarness(t, dirs)

	recs, err := rel.GetContentRecommendations(context.Background(), model.SpecializationDPA,
		[]string{"bp-dpa-01-a"}, RecommendationOptions{})
	if err != nil {
		t.Fatalf("GetContentRecommendations: %v", err)
	}
	var target *model.Recommendation
	for i := range recs {
		if recs[i].ID == "bp-dpa-03-c" {
			target = &recs[i]
		}
	}
	if target == nil {
		t.Fatal("missing bp-dpa-03-c")
	}

	// one of two prerequisites done: neither the readiness bonus nor
	// the missing penalty applies
	if target.Score < 0.99 || target.Score > 1.01 {
		t.Errorf("score = %f, want the bare relevance weight 1.0", target.Score)
	}
	if !containsString(target.RecommendationReasons, "Ein Teil der Voraussetzungen ist erfüllt") {
		t.Errorf("reasons = %v, want the partial-prerequisite note", target.RecommendationReasons)
	}
}
