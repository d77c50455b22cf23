package service

import (
	"regexp"
	"strings"
	"time"

	"ihk_prep_backend/internal/model"
	"ihk_prep_backend/pkg/logger"

	"go.uber.org/zap"
)

// CategoryService derives the three-tier category of a content item from
// its legacy IHK category code. Pure and stateless: the same input always
// yields the same label, timestamps aside.
type CategoryService struct{}

func NewCategoryService() *CategoryService {
	return &CategoryService{}
}

var categoryConfigs = map[model.ThreeTierCategory]model.CategoryConfig{
	model.CategoryDPA: {
		CSSClass:    "category-dpa",
		Icon:        "📊",
		Color:       "#2563EB",
		DisplayName: "Daten- und Prozessanalyse",
	},
	model.CategoryAE: {
		CSSClass:    "category-ae",
		Icon:        "💻",
		Color:       "#16A34A",
		DisplayName: "Anwendungsentwicklung",
	},
	model.CategoryAllgemein: {
		CSSClass:    "category-general",
		Icon:        "📚",
		Color:       "#6B7280",
		DisplayName: "Allgemein",
	},
}

// bpAECode matches the bare BP-01..BP-05 codes, which the corpus uses for
// AE-relevant content.
var bpAECode = regexp.MustCompile(`^bp-0[1-5]$`)

// MapLegacyCategory classifies a legacy category code. Everything that is
// neither BP-DPA nor BP-AE (FÜ, FUE, unknown codes, empty) lands in
// allgemein.
func (s *CategoryService) MapLegacyCategory(legacy string) model.ThreeTierCategory {
	code := strings.ToLower(strings.TrimSpace(legacy))
	switch {
	case strings.Contains(code, "bp-dpa"):
		return model.CategoryDPA
	case strings.Contains(code, "bp-ae"), bpAECode.MatchString(code):
		return model.CategoryAE
	default:
		return model.CategoryAllgemein
	}
}

// MapToThreeTier resolves an item to its category display bundle. A valid
// precomputed label wins; otherwise the legacy code is classified.
func (s *CategoryService) MapToThreeTier(precomputed model.ThreeTierCategory, legacyCategory string) model.CategoryDisplay {
	category := precomputed
	if !category.Valid() {
		category = s.MapLegacyCategory(legacyCategory)
	}

	cfg := s.GetCategoryConfig(category)
	return model.CategoryDisplay{
		Category:    category,
		CSSClass:    cfg.CSSClass,
		Icon:        cfg.Icon,
		Color:       cfg.Color,
		DisplayName: cfg.DisplayName,
		MappedAt:    time.Now(),
	}
}

// GetCategoryConfig returns the fixed display triple. Unknown labels fall
// back to allgemein with a warning; this never fails.
func (s *CategoryService) GetCategoryConfig(category model.ThreeTierCategory) model.CategoryConfig {
	cfg, ok := categoryConfigs[category]
	if !ok {
		logger.Log.Warn("unknown three-tier category, falling back to allgemein",
			zap.String("category", string(category)))
		return categoryConfigs[model.CategoryAllgemein]
	}
	return cfg
}

// GetCategoryRelevance grades a category for a specialization. The home
// category is high, allgemein medium, the opposite track low.
func (s *CategoryService) GetCategoryRelevance(category model.ThreeTierCategory, specialization model.Specialization) model.Relevance {
	if !category.Valid() {
		logger.Log.Warn("unknown three-tier category in relevance lookup",
			zap.String("category", string(category)))
		category = model.CategoryAllgemein
	}
	switch category {
	case model.CategoryAllgemein:
		return model.RelevanceMedium
	case specialization.Category():
		return model.RelevanceHigh
	default:
		return model.RelevanceLow
	}
}
