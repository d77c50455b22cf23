package controller

import (
	"ihk_prep_backend/internal/model"
	"ihk_prep_backend/internal/service"
	"ihk_prep_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type CategoryController struct {
	Categories     *service.CategoryService
	Specialization *service.SpecializationService
}

func NewCategoryController(categories *service.CategoryService, specialization *service.SpecializationService) *CategoryController {
	return &CategoryController{Categories: categories, Specialization: specialization}
}

// @Summary Alle Drei-Ebenen-Kategorien mit Anzeige-Konfiguration
// @Tags Kategorien
// @Produce json
// @Success 200 {object} util.Response
// @Router /api/categories [get]
func (c *CategoryController) GetCategories(ctx *gin.Context) {
	out := make([]gin.H, 0, len(model.AllThreeTierCategories))
	for _, label := range model.AllThreeTierCategories {
		out = append(out, gin.H{
			"category":  label,
			"config":    c.Categories.GetCategoryConfig(label),
			"relevance": c.Specialization.GetCategoryRelevance(label),
		})
	}
	util.Success(ctx, out)
}

// @Summary Legacy-Code auf Drei-Ebenen-Kategorie abbilden
// @Tags Kategorien
// @Produce json
// @Param source query string true "Legacy-Kategoriecode"
// @Success 200 {object} util.Response
// @Router /api/categories/map [get]
func (c *CategoryController) MapCategory(ctx *gin.Context) {
	source := ctx.Query("source")
	if source == "" {
		util.BadRequest(ctx, "source must not be empty")
		return
	}
	display := c.Categories.MapToThreeTier("", source)
	util.Success(ctx, display)
}

// @Summary Relevanz einer Kategorie für die aktuelle Fachrichtung
// @Tags Kategorien
// @Produce json
// @Param category path string true "Drei-Ebenen-Kategorie"
// @Success 200 {object} util.Response
// @Router /api/categories/{category}/relevance [get]
func (c *CategoryController) GetCategoryRelevance(ctx *gin.Context) {
	label := model.ThreeTierCategory(ctx.Param("category"))
	if !label.Valid() {
		util.BadRequest(ctx, "unknown category "+ctx.Param("category"))
		return
	}
	util.Success(ctx, gin.H{
		"category":  label,
		"relevance": c.Specialization.GetCategoryRelevance(label),
	})
}
