package controller

import (
	"strconv"

	"ihk_prep_backend/internal/model"
	"ihk_prep_backend/internal/service"
	"ihk_prep_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type ContentController struct {
	Content *service.ContentService
}

func NewContentController(content *service.ContentService) *ContentController {
	return &ContentController{Content: content}
}

// @Summary Alle Lernmodule
// @Tags Inhalte
// @Produce json
// @Success 200 {object} util.Response
// @Router /api/content/modules [get]
func (c *ContentController) GetModules(ctx *gin.Context) {
	modules, err := c.Content.GetAllModules(ctx.Request.Context())
	if err != nil {
		util.MapServiceError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"items": modules, "total": len(modules)})
}

// @Summary Einzelnes Lernmodul
// @Tags Inhalte
// @Produce json
// @Param id path string true "Modul-ID"
// @Success 200 {object} util.Response
// @Router /api/content/modules/{id} [get]
func (c *ContentController) GetModule(ctx *gin.Context) {
	m, ok, err := c.Content.GetModuleByID(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		util.MapServiceError(ctx, err)
		return
	}
	if !ok {
		util.NotFound(ctx)
		return
	}
	util.Success(ctx, m)
}

// @Summary Alle Quizze
// @Tags Inhalte
// @Produce json
// @Success 200 {object} util.Response
// @Router /api/content/quizzes [get]
func (c *ContentController) GetQuizzes(ctx *gin.Context) {
	quizzes, err := c.Content.GetAllQuizzes(ctx.Request.Context())
	if err != nil {
		util.MapServiceError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"items": quizzes, "total": len(quizzes)})
}

// @Summary Einzelnes Quiz
// @Tags Inhalte
// @Produce json
// @Param id path string true "Quiz-ID"
// @Success 200 {object} util.Response
// @Router /api/content/quizzes/{id} [get]
func (c *ContentController) GetQuiz(ctx *gin.Context) {
	q, ok, err := c.Content.GetQuizByID(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		util.MapServiceError(ctx, err)
		return
	}
	if !ok {
		util.NotFound(ctx)
		return
	}
	util.Success(ctx, q)
}

// @Summary Quizze eines Moduls
// @Tags Inhalte
// @Produce json
// @Param id path string true "Modul-ID"
// @Success 200 {object} util.Response
// @Router /api/content/modules/{id}/quizzes [get]
func (c *ContentController) GetRelatedQuizzes(ctx *gin.Context) {
	quizzes, ok, err := c.Content.GetRelatedQuizzes(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		util.MapServiceError(ctx, err)
		return
	}
	if !ok {
		util.NotFound(ctx)
		return
	}
	util.Success(ctx, gin.H{"items": quizzes, "total": len(quizzes)})
}

// @Summary Verwandte Module eines Moduls
// @Tags Inhalte
// @Produce json
// @Param id path string true "Modul-ID"
// @Success 200 {object} util.Response
// @Router /api/content/modules/{id}/related [get]
func (c *ContentController) GetRelatedModules(ctx *gin.Context) {
	modules, ok, err := c.Content.GetRelatedModules(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		util.MapServiceError(ctx, err)
		return
	}
	if !ok {
		util.NotFound(ctx)
		return
	}
	util.Success(ctx, gin.H{"items": modules, "total": len(modules)})
}

// @Summary Inhalte einer Kategorie
// @Tags Inhalte
// @Produce json
// @Param category path string true "Drei-Ebenen-Kategorie"
// @Success 200 {object} util.Response
// @Router /api/content/categories/{category} [get]
func (c *ContentController) GetByCategory(ctx *gin.Context) {
	label := model.ThreeTierCategory(ctx.Param("category"))
	items, err := c.Content.GetContentByThreeTierCategory(ctx.Request.Context(), label)
	if err != nil {
		util.MapServiceError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"items": items, "total": len(items)})
}

// @Summary Volltextsuche über alle Inhalte
// @Tags Inhalte
// @Produce json
// @Param q query string true "Suchbegriff"
// @Param category query string false "Drei-Ebenen-Kategorie"
// @Param difficulty query string false "Schwierigkeitsgrad"
// @Param examRelevance query string false "Prüfungsrelevanz"
// @Param newIn2025 query bool false "Nur neue 2025-Themen"
// @Success 200 {object} util.Response
// @Router /api/content/search [get]
func (c *ContentController) SearchContent(ctx *gin.Context) {
	filters := model.SearchFilters{}
	if v := ctx.Query("category"); v != "" {
		label := model.ThreeTierCategory(v)
		if !label.Valid() {
			util.BadRequest(ctx, "unknown category "+v)
			return
		}
		filters.Category = &label
	}
	if v := ctx.Query("difficulty"); v != "" {
		d := model.Difficulty(v)
		if !d.Valid() {
			util.BadRequest(ctx, "unknown difficulty "+v)
			return
		}
		filters.Difficulty = &d
	}
	if v := ctx.Query("examRelevance"); v != "" {
		r := model.Relevance(v)
		filters.ExamRelevance = &r
	}
	if v := ctx.Query("newIn2025"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			util.BadRequest(ctx, "newIn2025 must be a boolean")
			return
		}
		filters.NewIn2025 = &b
	}

	items, err := c.Content.SearchContent(ctx.Request.Context(), ctx.Query("q"), filters)
	if err != nil {
		util.MapServiceError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"items": items, "total": len(items)})
}

// @Summary Suche innerhalb einer Kategorie
// @Tags Inhalte
// @Produce json
// @Param category path string true "Drei-Ebenen-Kategorie"
// @Param q query string true "Suchbegriff"
// @Success 200 {object} util.Response
// @Router /api/content/categories/{category}/search [get]
func (c *ContentController) SearchInCategory(ctx *gin.Context) {
	label := model.ThreeTierCategory(ctx.Param("category"))
	items, err := c.Content.SearchInCategory(ctx.Request.Context(), ctx.Query("q"), label)
	if err != nil {
		util.MapServiceError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"items": items, "total": len(items)})
}

// @Summary Inhalte gruppiert nach Kategorie
// @Tags Inhalte
// @Produce json
// @Success 200 {object} util.Response
// @Router /api/content/grouped [get]
func (c *ContentController) GetGrouped(ctx *gin.Context) {
	groups, err := c.Content.GetContentWithCategoryInfo(ctx.Request.Context())
	if err != nil {
		util.MapServiceError(ctx, err)
		return
	}
	util.Success(ctx, groups)
}

// @Summary Alle Lernpfade
// @Tags Lernpfade
// @Produce json
// @Success 200 {object} util.Response
// @Router /api/content/learning-paths [get]
func (c *ContentController) GetLearningPaths(ctx *gin.Context) {
	paths, err := c.Content.GetAllLearningPaths(ctx.Request.Context())
	if err != nil {
		util.MapServiceError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"items": paths, "total": len(paths)})
}

// @Summary Einzelner Lernpfad
// @Tags Lernpfade
// @Produce json
// @Param id path string true "Pfad-ID"
// @Success 200 {object} util.Response
// @Router /api/content/learning-paths/{id} [get]
func (c *ContentController) GetLearningPath(ctx *gin.Context) {
	path, ok, err := c.Content.GetLearningPath(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		util.MapServiceError(ctx, err)
		return
	}
	if !ok {
		util.NotFound(ctx)
		return
	}
	util.Success(ctx, path)
}

// @Summary Empfohlene Lernpfade für eine Fachrichtung
// @Tags Lernpfade
// @Produce json
// @Param specialization query string true "Fachrichtung"
// @Success 200 {object} util.Response
// @Router /api/content/learning-paths/recommended [get]
func (c *ContentController) GetRecommendedLearningPaths(ctx *gin.Context) {
	spec := model.Specialization(ctx.Query("specialization"))
	if !spec.Valid() {
		util.BadRequest(ctx, "unknown specialization "+ctx.Query("specialization"))
		return
	}
	paths, err := c.Content.GetRecommendedLearningPaths(ctx.Request.Context(), spec)
	if err != nil {
		util.MapServiceError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"items": paths, "total": len(paths)})
}

// @Summary Prüfungsänderungen 2025
// @Tags Inhalte
// @Produce json
// @Success 200 {object} util.Response
// @Router /api/content/exam-changes [get]
func (c *ContentController) GetExamChanges(ctx *gin.Context) {
	changes, err := c.Content.ExamChanges(ctx.Request.Context())
	if err != nil {
		util.MapServiceError(ctx, err)
		return
	}
	util.Success(ctx, changes)
}

// @Summary Legacy-Kategoriecodes im Korpus
// @Tags Inhalte
// @Produce json
// @Success 200 {object} util.Response
// @Router /api/content/legacy-categories [get]
func (c *ContentController) GetLegacyCategories(ctx *gin.Context) {
	codes, err := c.Content.LegacyCategories(ctx.Request.Context())
	if err != nil {
		util.MapServiceError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"items": codes, "total": len(codes)})
}

// @Summary Ladebericht des letzten Korpus-Imports
// @Tags Inhalte
// @Produce json
// @Success 200 {object} util.Response
// @Router /api/content/load-report [get]
func (c *ContentController) GetLoadReport(ctx *gin.Context) {
	report, err := c.Content.LoadReport(ctx.Request.Context())
	if err != nil {
		util.MapServiceError(ctx, err)
		return
	}
	util.Success(ctx, report)
}

// @Summary Korpus neu laden
// @Tags Inhalte
// @Produce json
// @Success 200 {object} util.Response
// @Router /api/content/reload [post]
func (c *ContentController) ReloadContent(ctx *gin.Context) {
	if err := c.Content.Reload(ctx.Request.Context()); err != nil {
		util.MapServiceError(ctx, err)
		return
	}
	report, err := c.Content.LoadReport(ctx.Request.Context())
	if err != nil {
		util.MapServiceError(ctx, err)
		return
	}
	util.Success(ctx, report)
}
