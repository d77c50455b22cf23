package model

// ThreeTierCategory is the closed coarse domain label attached to every
// piece of content, independent of the legacy IHK category code.
type ThreeTierCategory string

const (
	CategoryDPA       ThreeTierCategory = "daten-prozessanalyse"
	CategoryAE        ThreeTierCategory = "anwendungsentwicklung"
	CategoryAllgemein ThreeTierCategory = "allgemein"
)

// AllThreeTierCategories lists the closed set in display order.
var AllThreeTierCategories = []ThreeTierCategory{
	CategoryDPA,
	CategoryAE,
	CategoryAllgemein,
}

func (c ThreeTierCategory) Valid() bool {
	switch c {
	case CategoryDPA, CategoryAE, CategoryAllgemein:
		return true
	}
	return false
}

// CategoryConfig is the fixed display bundle for a three-tier category.
type CategoryConfig struct {
	CSSClass    string `json:"cssClass"`
	Icon        string `json:"icon"`
	Color       string `json:"color"`
	DisplayName string `json:"displayName"`
}

// Relevance grades how important a category is for a specialization,
// and how exam-relevant a single content item is.
type Relevance string

const (
	RelevanceHigh   Relevance = "high"
	RelevanceMedium Relevance = "medium"
	RelevanceLow    Relevance = "low"
)

// Rank orders relevance descending: high > medium > low.
func (r Relevance) Rank() int {
	switch r {
	case RelevanceHigh:
		return 2
	case RelevanceMedium:
		return 1
	case RelevanceLow:
		return 0
	}
	return -1
}

type Difficulty string

const (
	DifficultyBeginner     Difficulty = "beginner"
	DifficultyIntermediate Difficulty = "intermediate"
	DifficultyAdvanced     Difficulty = "advanced"
)

// Rank orders difficulty ascending: beginner < intermediate < advanced.
func (d Difficulty) Rank() int {
	switch d {
	case DifficultyBeginner:
		return 0
	case DifficultyIntermediate:
		return 1
	case DifficultyAdvanced:
		return 2
	}
	return -1
}

func (d Difficulty) Valid() bool {
	return d.Rank() >= 0
}

// MainCategory splits legacy category codes into the two IHK exam parts.
type MainCategory string

const (
	MainCategoryFUE MainCategory = "FÜ" // fachrichtungsübergreifend
	MainCategoryBP  MainCategory = "BP" // berufsprofilgebend
)
