package service

import (
	"context"
	"fmt"

	"ihk_prep_backend/internal/model"
	"ihk_prep_backend/internal/repository"
	"ihk_prep_backend/internal/state"
	"ihk_prep_backend/internal/util"
	"ihk_prep_backend/pkg/logger"

	"go.uber.org/zap"
)

var specializationConfigs = map[model.Specialization]model.SpecializationConfig{
	model.SpecializationAE: {
		ID:          model.SpecializationAE,
		Name:        "Anwendungsentwicklung",
		ShortName:   "AE",
		Icon:        "💻",
		Color:       "#16A34A",
		ExamCode:    "AP2-AE",
		Description: "Konzeption und Umsetzung von Softwarelösungen",
	},
	model.SpecializationDPA: {
		ID:          model.SpecializationDPA,
		Name:        "Daten- und Prozessanalyse",
		ShortName:   "DPA",
		Icon:        "📊",
		Color:       "#2563EB",
		ExamCode:    "AP2-DPA",
		Description: "Analyse von Daten und Optimierung digitaler Prozesse",
	},
}

// SpecializationService owns the active vocational track and its
// category-relevance weighting.
type SpecializationService struct {
	State      *state.Store
	Repo       *repository.ProgressRepository
	Categories *CategoryService
}

func NewSpecializationService(st *state.Store, repo *repository.ProgressRepository, categories *CategoryService) *SpecializationService {
	return &SpecializationService{State: st, Repo: repo, Categories: categories}
}

// Initialize rehydrates the persisted choice into the state store.
func (s *SpecializationService) Initialize(ctx context.Context) error {
	id, selected, err := s.Repo.LoadSpecialization(ctx)
	if err != nil {
		return err
	}
	progress, err := s.Repo.LoadProgress(ctx)
	if err != nil {
		return err
	}
	s.State.Rehydrate(id, selected, progress)
	return nil
}

// GetCurrentSpecialization returns the active track, defaulting to
// Anwendungsentwicklung while the user has not chosen yet.
func (s *SpecializationService) GetCurrentSpecialization() model.Specialization {
	id, _ := s.State.Specialization()
	if !id.Valid() {
		return model.SpecializationAE
	}
	return id
}

func (s *SpecializationService) HasSelectedSpecialization() bool {
	_, selected := s.State.Specialization()
	return selected
}

// SetSpecialization persists the choice and publishes
// specialization-changed.
func (s *SpecializationService) SetSpecialization(ctx context.Context, id model.Specialization) error {
	if !id.Valid() {
		return fmt.Errorf("%w: unknown specialization %q", util.ErrInvalidInput, id)
	}
	if err := s.Repo.SaveSpecialization(ctx, id, true); err != nil {
		return err
	}
	s.State.SetSpecialization(id, true)
	logger.Log.Info("specialization changed", zap.String("specialization", string(id)))
	return nil
}

func (s *SpecializationService) GetSpecializationConfig(id model.Specialization) (model.SpecializationConfig, bool) {
	cfg, ok := specializationConfigs[id]
	return cfg, ok
}

func (s *SpecializationService) GetAvailableSpecializations() []model.SpecializationConfig {
	return []model.SpecializationConfig{
		specializationConfigs[model.SpecializationAE],
		specializationConfigs[model.SpecializationDPA],
	}
}

// GetCategoryRelevance grades a three-tier category for the active track.
func (s *SpecializationService) GetCategoryRelevance(category model.ThreeTierCategory) model.Relevance {
	return s.Categories.GetCategoryRelevance(category, s.GetCurrentSpecialization())
}
