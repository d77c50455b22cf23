package controller

import (
	"ihk_prep_backend/internal/service"
	"ihk_prep_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type ValidationController struct {
	Validation *service.ValidationService
}

func NewValidationController(validation *service.ValidationService) *ValidationController {
	return &ValidationController{Validation: validation}
}

// @Summary Kategoriezuordnungen prüfen
// @Tags Validierung
// @Produce json
// @Success 200 {object} util.Response
// @Router /api/validation/categories [get]
func (c *ValidationController) ValidateCategories(ctx *gin.Context) {
	report, err := c.Validation.ValidateCategoryMappings(ctx.Request.Context())
	if err != nil {
		util.MapServiceError(ctx, err)
		return
	}
	util.Success(ctx, report)
}

// @Summary Fortschrittsdaten prüfen
// @Tags Validierung
// @Produce json
// @Success 200 {object} util.Response
// @Router /api/validation/progress [get]
func (c *ValidationController) ValidateProgress(ctx *gin.Context) {
	report, err := c.Validation.ValidateProgressState(ctx.Request.Context())
	if err != nil {
		util.MapServiceError(ctx, err)
		return
	}
	util.Success(ctx, report)
}
