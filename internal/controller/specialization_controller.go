package controller

import (
	"ihk_prep_backend/internal/model"
	"ihk_prep_backend/internal/service"
	"ihk_prep_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type SpecializationController struct {
	Specialization *service.SpecializationService
}

func NewSpecializationController(specialization *service.SpecializationService) *SpecializationController {
	return &SpecializationController{Specialization: specialization}
}

// @Summary Aktuelle Fachrichtung
// @Tags Fachrichtung
// @Produce json
// @Success 200 {object} util.Response
// @Router /api/specialization [get]
func (c *SpecializationController) GetCurrent(ctx *gin.Context) {
	id := c.Specialization.GetCurrentSpecialization()
	cfg, _ := c.Specialization.GetSpecializationConfig(id)
	util.Success(ctx, gin.H{
		"specialization": cfg,
		"hasSelected":    c.Specialization.HasSelectedSpecialization(),
	})
}

type setSpecializationRequest struct {
	SpecializationID string `json:"specializationId" binding:"required"`
}

// @Summary Fachrichtung wählen
// @Tags Fachrichtung
// @Accept json
// @Produce json
// @Param body body setSpecializationRequest true "Fachrichtung"
// @Success 200 {object} util.Response
// @Router /api/specialization [put]
func (c *SpecializationController) SetSpecialization(ctx *gin.Context) {
	var req setSpecializationRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	id := model.Specialization(req.SpecializationID)
	if err := c.Specialization.SetSpecialization(ctx.Request.Context(), id); err != nil {
		util.MapServiceError(ctx, err)
		return
	}
	cfg, _ := c.Specialization.GetSpecializationConfig(id)
	util.Success(ctx, cfg)
}

// @Summary Verfügbare Fachrichtungen
// @Tags Fachrichtung
// @Produce json
// @Success 200 {object} util.Response
// @Router /api/specialization/available [get]
func (c *SpecializationController) GetAvailable(ctx *gin.Context) {
	util.Success(ctx, c.Specialization.GetAvailableSpecializations())
}
