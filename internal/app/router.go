package app

import (
	"time"

	"ihk_prep_backend/internal/config"
	"ihk_prep_backend/pkg/monitoring"
	"ihk_prep_backend/pkg/security"
	"ihk_prep_backend/pkg/tracing"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())

	maxRequests := cfg.RateLimit.MaxRequests
	if maxRequests <= 0 {
		maxRequests = 10000
	}
	window := time.Duration(cfg.RateLimit.WindowMinutes) * time.Minute
	if window <= 0 {
		window = time.Minute
	}
	router.Use(security.RateLimiter(maxRequests, window))

	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

func (a *App) registerRoutes(router *gin.Engine, c *controllers) {
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/metrics", monitoring.PrometheusHandler())
	router.GET("/health", c.health.HealthCheck)

	api := router.Group("/api")
	{
		content := api.Group("/content")
		{
			content.GET("/modules", c.content.GetModules)
			content.GET("/modules/:id", c.content.GetModule)
			content.GET("/modules/:id/quizzes", c.content.GetRelatedQuizzes)
			content.GET("/modules/:id/related", c.content.GetRelatedModules)
			content.GET("/quizzes", c.content.GetQuizzes)
			content.GET("/quizzes/:id", c.content.GetQuiz)
			content.GET("/categories/:category", c.content.GetByCategory)
			content.GET("/categories/:category/search", c.content.SearchInCategory)
			content.GET("/search", c.content.SearchContent)
			content.GET("/grouped", c.content.GetGrouped)
			content.GET("/learning-paths", c.content.GetLearningPaths)
			content.GET("/learning-paths/recommended", c.content.GetRecommendedLearningPaths)
			content.GET("/learning-paths/:id", c.content.GetLearningPath)
			content.GET("/exam-changes", c.content.GetExamChanges)
			content.GET("/legacy-categories", c.content.GetLegacyCategories)
			content.GET("/load-report", c.content.GetLoadReport)
			content.POST("/reload", c.content.ReloadContent)
		}

		categories := api.Group("/categories")
		{
			categories.GET("", c.category.GetCategories)
			categories.GET("/map", c.category.MapCategory)
			categories.GET("/:category/relevance", c.category.GetCategoryRelevance)
		}

		progress := api.Group("/progress")
		{
			progress.GET("", c.progress.GetOverallProgress)
			progress.POST("/modules/:id/complete", c.progress.CompleteModule)
			progress.DELETE("/modules/:id/complete", c.progress.UncompleteModule)
			progress.POST("/modules/:id/start", c.progress.StartModule)
			progress.POST("/quizzes/:id/attempts", c.progress.SaveQuizAttempt)
			progress.GET("/readiness", c.progress.GetExamReadiness)
			progress.GET("/by-category", c.progress.GetProgressByCategory)
			progress.GET("/weak-areas", c.progress.GetWeakAreas)
			progress.GET("/recommended-modules", c.progress.GetRecommendedModules)
			progress.GET("/export", c.progress.ExportProgress)
			progress.GET("/learning-paths/:id", c.progress.GetPathProgress)
		}

		specialization := api.Group("/specialization")
		{
			specialization.GET("", c.specialization.GetCurrent)
			specialization.PUT("", c.specialization.SetSpecialization)
			specialization.GET("/available", c.specialization.GetAvailable)
		}

		relationships := api.Group("/relationships")
		{
			relationships.GET("/recommendations", c.relationship.GetRecommendations)
			relationships.GET("/:id", c.relationship.GetRelatedContent)
			relationships.GET("/:id/prerequisites", c.relationship.GetPrerequisites)
			relationships.GET("/:id/advanced", c.relationship.GetAdvancedContent)
		}

		migration := api.Group("/migration")
		{
			migration.GET("/status", c.migration.GetStatus)
			migration.POST("/migrate", c.migration.Migrate)
			migration.POST("/rollback/:id", c.migration.Rollback)
			migration.GET("/snapshots", c.migration.ListSnapshots)
			migration.GET("/three-tier-progress", c.migration.GetThreeTierProgress)
		}

		validation := api.Group("/validation")
		{
			validation.GET("/categories", c.validation.ValidateCategories)
			validation.GET("/progress", c.validation.ValidateProgress)
		}
	}
}
