package model

// Specialization is one of the two Fachinformatiker tracks.
type Specialization string

const (
	SpecializationAE  Specialization = "anwendungsentwicklung"
	SpecializationDPA Specialization = "daten-prozessanalyse"
)

func (s Specialization) Valid() bool {
	return s == SpecializationAE || s == SpecializationDPA
}

// Category returns the three-tier category a specialization is the home
// track for.
func (s Specialization) Category() ThreeTierCategory {
	if s == SpecializationDPA {
		return CategoryDPA
	}
	return CategoryAE
}

// SpecializationConfig carries the display and exam metadata of a track.
type SpecializationConfig struct {
	ID          Specialization `json:"id"`
	Name        string         `json:"name"`
	ShortName   string         `json:"shortName"`
	Icon        string         `json:"icon"`
	Color       string         `json:"color"`
	ExamCode    string         `json:"examCode"`
	Description string         `json:"description"`
}
