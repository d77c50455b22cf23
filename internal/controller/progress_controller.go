package controller

import (
	"strconv"

	"ihk_prep_backend/internal/service"
	"ihk_prep_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type ProgressController struct {
	Progress *service.ProgressService
}

func NewProgressController(progress *service.ProgressService) *ProgressController {
	return &ProgressController{Progress: progress}
}

// @Summary Gesamtfortschritt
// @Tags Fortschritt
// @Produce json
// @Success 200 {object} util.Response
// @Router /api/progress [get]
func (c *ProgressController) GetOverallProgress(ctx *gin.Context) {
	overall, err := c.Progress.GetOverallProgress(ctx.Request.Context())
	if err != nil {
		util.MapServiceError(ctx, err)
		return
	}
	util.Success(ctx, overall)
}

// @Summary Modul als abgeschlossen markieren
// @Tags Fortschritt
// @Produce json
// @Param id path string true "Modul-ID"
// @Success 200 {object} util.Response
// @Router /api/progress/modules/{id}/complete [post]
func (c *ProgressController) CompleteModule(ctx *gin.Context) {
	if err := c.Progress.MarkModuleComplete(ctx.Request.Context(), ctx.Param("id")); err != nil {
		util.MapServiceError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"moduleId": ctx.Param("id"), "completed": true})
}

// @Summary Abschluss eines Moduls zurücknehmen
// @Tags Fortschritt
// @Produce json
// @Param id path string true "Modul-ID"
// @Success 200 {object} util.Response
// @Router /api/progress/modules/{id}/complete [delete]
func (c *ProgressController) UncompleteModule(ctx *gin.Context) {
	if err := c.Progress.MarkModuleIncomplete(ctx.Request.Context(), ctx.Param("id")); err != nil {
		util.MapServiceError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"moduleId": ctx.Param("id"), "completed": false})
}

// @Summary Modul als begonnen markieren
// @Tags Fortschritt
// @Produce json
// @Param id path string true "Modul-ID"
// @Success 200 {object} util.Response
// @Router /api/progress/modules/{id}/start [post]
func (c *ProgressController) StartModule(ctx *gin.Context) {
	if err := c.Progress.MarkModuleStarted(ctx.Request.Context(), ctx.Param("id")); err != nil {
		util.MapServiceError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"moduleId": ctx.Param("id"), "inProgress": true})
}

type quizAttemptRequest struct {
	Score      int               `json:"score" binding:"min=0,max=100"`
	Answers    map[string]string `json:"answers"`
	DurationMs int64             `json:"durationMs"`
}

// @Summary Quizversuch speichern
// @Tags Fortschritt
// @Accept json
// @Produce json
// @Param id path string true "Quiz-ID"
// @Param body body quizAttemptRequest true "Versuch"
// @Success 201 {object} util.Response
// @Router /api/progress/quizzes/{id}/attempts [post]
func (c *ProgressController) SaveQuizAttempt(ctx *gin.Context) {
	var req quizAttemptRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	attempt, err := c.Progress.SaveQuizAttempt(ctx.Request.Context(), ctx.Param("id"), req.Score, req.Answers, req.DurationMs)
	if err != nil {
		util.MapServiceError(ctx, err)
		return
	}
	util.Created(ctx, attempt)
}

// @Summary Prüfungsbereitschaft
// @Tags Fortschritt
// @Produce json
// @Success 200 {object} util.Response
// @Router /api/progress/readiness [get]
func (c *ProgressController) GetExamReadiness(ctx *gin.Context) {
	readiness, err := c.Progress.GetExamReadiness(ctx.Request.Context())
	if err != nil {
		util.MapServiceError(ctx, err)
		return
	}
	util.Success(ctx, readiness)
}

// @Summary Fortschritt nach Legacy-Kategorie
// @Tags Fortschritt
// @Produce json
// @Success 200 {object} util.Response
// @Router /api/progress/by-category [get]
func (c *ProgressController) GetProgressByCategory(ctx *gin.Context) {
	items, err := c.Progress.GetProgressByCategory(ctx.Request.Context())
	if err != nil {
		util.MapServiceError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"items": items, "total": len(items)})
}

// @Summary Schwachstellenanalyse
// @Tags Fortschritt
// @Produce json
// @Success 200 {object} util.Response
// @Router /api/progress/weak-areas [get]
func (c *ProgressController) GetWeakAreas(ctx *gin.Context) {
	areas, err := c.Progress.GetWeakAreas(ctx.Request.Context())
	if err != nil {
		util.MapServiceError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"items": areas, "total": len(areas)})
}

// @Summary Empfohlene Module
// @Tags Fortschritt
// @Produce json
// @Param limit query int false "Maximale Anzahl" default(5)
// @Success 200 {object} util.Response
// @Router /api/progress/recommended-modules [get]
func (c *ProgressController) GetRecommendedModules(ctx *gin.Context) {
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "5"))
	items, err := c.Progress.GetRecommendedModules(ctx.Request.Context(), limit)
	if err != nil {
		util.MapServiceError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"items": items, "total": len(items)})
}

// @Summary Fortschritt exportieren
// @Tags Fortschritt
// @Produce json
// @Success 200 {object} util.Response
// @Router /api/progress/export [get]
func (c *ProgressController) ExportProgress(ctx *gin.Context) {
	util.Success(ctx, c.Progress.ExportProgress())
}

// @Summary Fortschritt innerhalb eines Lernpfads
// @Tags Fortschritt
// @Produce json
// @Param id path string true "Pfad-ID"
// @Success 200 {object} util.Response
// @Router /api/progress/learning-paths/{id} [get]
func (c *ProgressController) GetPathProgress(ctx *gin.Context) {
	progress, err := c.Progress.GetPathProgress(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		util.MapServiceError(ctx, err)
		return
	}
	util.Success(ctx, progress)
}
