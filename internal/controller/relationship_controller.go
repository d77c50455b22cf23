package controller

import (
	"strconv"

	"ihk_prep_backend/internal/service"
	"ihk_prep_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type RelationshipController struct {
	Relationships  *service.RelationshipService
	Specialization *service.SpecializationService
	Progress       *service.ProgressService
}

func NewRelationshipController(relationships *service.RelationshipService, specialization *service.SpecializationService, progress *service.ProgressService) *RelationshipController {
	return &RelationshipController{
		Relationships:  relationships,
		Specialization: specialization,
		Progress:       progress,
	}
}

// @Summary Verwandte Inhalte zu einem Element
// @Tags Beziehungen
// @Produce json
// @Param id path string true "Inhalts-ID"
// @Param excludeCurrentCategory query bool false "Eigene Kategorie ausblenden"
// @Param maxResults query int false "Maximale Trefferzahl je Beziehung"
// @Success 200 {object} util.Response
// @Router /api/relationships/{id} [get]
func (c *RelationshipController) GetRelatedContent(ctx *gin.Context) {
	opts := service.RelatedContentOptions{}
	if v := ctx.Query("excludeCurrentCategory"); v != "" {
		exclude, err := strconv.ParseBool(v)
		if err != nil {
			util.BadRequest(ctx, "excludeCurrentCategory must be a boolean")
			return
		}
		opts.ExcludeCurrentCategory = exclude
	}
	if v := ctx.Query("maxResults"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			util.BadRequest(ctx, "maxResults must be a positive integer")
			return
		}
		opts.MaxResults = n
	}

	related, err := c.Relationships.GetRelatedContent(ctx.Request.Context(), ctx.Param("id"), opts)
	if err != nil {
		util.MapServiceError(ctx, err)
		return
	}
	util.Success(ctx, related)
}

// @Summary Transitive Voraussetzungen eines Moduls
// @Tags Beziehungen
// @Produce json
// @Param id path string true "Modul-ID"
// @Success 200 {object} util.Response
// @Router /api/relationships/{id}/prerequisites [get]
func (c *RelationshipController) GetPrerequisites(ctx *gin.Context) {
	modules, err := c.Relationships.GetPrerequisites(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		util.MapServiceError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"items": modules, "total": len(modules)})
}

// @Summary Aufbauende Module
// @Tags Beziehungen
// @Produce json
// @Param id path string true "Modul-ID"
// @Success 200 {object} util.Response
// @Router /api/relationships/{id}/advanced [get]
func (c *RelationshipController) GetAdvancedContent(ctx *gin.Context) {
	modules, err := c.Relationships.GetAdvancedContent(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		util.MapServiceError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"items": modules, "total": len(modules)})
}

// @Summary Empfehlungen für den nächsten Lernschritt
// @Tags Beziehungen
// @Produce json
// @Param limit query int false "Maximale Anzahl" default(10)
// @Param modulesOnly query bool false "Nur Module empfehlen"
// @Success 200 {object} util.Response
// @Router /api/relationships/recommendations [get]
func (c *RelationshipController) GetRecommendations(ctx *gin.Context) {
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "10"))
	modulesOnly, _ := strconv.ParseBool(ctx.DefaultQuery("modulesOnly", "false"))

	progress := c.Progress.State.Progress()
	items, err := c.Relationships.GetContentRecommendations(ctx.Request.Context(),
		c.Specialization.GetCurrentSpecialization(),
		progress.ModulesCompleted,
		service.RecommendationOptions{MaxResults: limit, ModulesOnly: modulesOnly},
	)
	if err != nil {
		util.MapServiceError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"items": items, "total": len(items)})
}
