package service

import (
	"testing"

	"ihk_prep_backend/internal/model"
)

func TestMapLegacyCategory(t *testing.T) {
	svc := NewCategoryService()

	cases := []struct {
		legacy string
		want   model.ThreeTierCategory
	}{
		{"BP-DPA-01", model.CategoryDPA},
		{"bp-dpa-03", model.CategoryDPA},
		{"BP-AE-02", model.CategoryAE},
		{"bp-01", model.CategoryAE},
		{"BP-05", model.CategoryAE},
		{"bp-06", model.CategoryAllgemein},
		{"bp-010", model.CategoryAllgemein},
		{"FÜ-01", model.CategoryAllgemein},
		{"FUE-02", model.CategoryAllgemein},
		{"  bp-dpa-01  ", model.CategoryDPA},
		{"", model.CategoryAllgemein},
		{"something-else", model.CategoryAllgemein},
	}
	for _, tc := range cases {
		if got := svc.MapLegacyCategory(tc.legacy); got != tc.want {
			t.Errorf("MapLegacyCategory(%q) = %v, want %v", tc.legacy, got, tc.want)
		}
	}
}

func TestMapLegacyCategoryIsDeterministic(t *testing.T) {
	svc := NewCategoryService()
	for i := 0; i < 5; i++ {
		if got := svc.MapLegacyCategory("BP-DPA-01"); got != model.CategoryDPA {
			t.Fatalf("run %d: got %v", i, got)
		}
	}
}

func TestMapToThreeTierPrefersPrecomputedLabel(t *testing.T) {
	svc := NewCategoryService()

	display := svc.MapToThreeTier(model.CategoryAE, "BP-DPA-01")
	if display.Category != model.CategoryAE {
		t.Errorf("precomputed label ignored: %v", display.Category)
	}

	display = svc.MapToThreeTier("bogus", "BP-DPA-01")
	if display.Category != model.CategoryDPA {
		t.Errorf("invalid precomputed label must fall back to the legacy code, got %v", display.Category)
	}
	if display.DisplayName != "Daten- und Prozessanalyse" {
		t.Errorf("display name = %q", display.DisplayName)
	}
	if display.MappedAt.IsZero() {
		t.Error("MappedAt not stamped")
	}
}

func TestGetCategoryConfigFallback(t *testing.T) {
	svc := NewCategoryService()

	cfg := svc.GetCategoryConfig("no-such-label")
	if cfg.DisplayName != "Allgemein" {
		t.Errorf("unknown label config = %+v, want allgemein fallback", cfg)
	}
}

func TestGetCategoryRelevance(t *testing.T) {
	svc := NewCategoryService()

	cases := []struct {
		category       model.ThreeTierCategory
		specialization model.Specialization
		want           model.Relevance
	}{
		{model.CategoryAE, model.SpecializationAE, model.RelevanceHigh},
		{model.CategoryDPA, model.SpecializationAE, model.RelevanceLow},
		{model.CategoryAllgemein, model.SpecializationAE, model.RelevanceMedium},
		{model.CategoryDPA, model.SpecializationDPA, model.RelevanceHigh},
		{model.CategoryAE, model.SpecializationDPA, model.RelevanceLow},
		{"bogus", model.SpecializationDPA, model.RelevanceMedium},
	}
	for _, tc := range cases {
		if got := svc.GetCategoryRelevance(tc.category, tc.specialization); got != tc.want {
			t.Errorf("GetCategoryRelevance(%v, %v) = %v, want %v", tc.category, tc.specialization, got, tc.want)
		}
	}
}
