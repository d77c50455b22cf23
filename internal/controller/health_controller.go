package controller

import (
	"net/http"

	"ihk_prep_backend/internal/service"
	"ihk_prep_backend/internal/util"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type HealthController struct {
	DB      *gorm.DB
	Content *service.ContentService
}

func NewHealthController(db *gorm.DB, content *service.ContentService) *HealthController {
	return &HealthController{DB: db, Content: content}
}

// @Summary Gesundheitsstatus
// @Description Prüft Speicher und Korpus
// @Tags System
// @Produce json
// @Success 200 {object} util.Response
// @Router /health [get]
func (c *HealthController) HealthCheck(ctx *gin.Context) {
	components := gin.H{"storage": "memory"}

	if c.DB != nil {
		sqlDB, err := c.DB.DB()
		if err != nil || sqlDB.Ping() != nil {
			util.Error(ctx, http.StatusServiceUnavailable, "Database unavailable")
			return
		}
		components["storage"] = "mysql"
	}

	report, err := c.Content.LoadReport(ctx.Request.Context())
	if err != nil {
		util.Error(ctx, http.StatusServiceUnavailable, "Content corpus unavailable")
		return
	}
	components["content"] = gin.H{
		"modules": report.LoadedModules,
		"quizzes": report.LoadedQuizzes,
		"paths":   report.LoadedPaths,
	}

	util.Success(ctx, gin.H{
		"status":     "ok",
		"components": components,
	})
}
