package controller

import (
	"ihk_prep_backend/internal/service"
	"ihk_prep_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type MigrationController struct {
	Migration *service.MigrationService
}

func NewMigrationController(migration *service.MigrationService) *MigrationController {
	return &MigrationController{Migration: migration}
}

// @Summary Migrationsstatus
// @Tags Migration
// @Produce json
// @Success 200 {object} util.Response
// @Router /api/migration/status [get]
func (c *MigrationController) GetStatus(ctx *gin.Context) {
	needed, reason, err := c.Migration.CheckMigrationNeeded(ctx.Request.Context())
	if err != nil {
		util.MapServiceError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"migrationNeeded": needed, "reason": reason})
}

// @Summary Fortschritt auf Drei-Ebenen-Struktur migrieren
// @Tags Migration
// @Produce json
// @Success 200 {object} util.Response
// @Router /api/migration/migrate [post]
func (c *MigrationController) Migrate(ctx *gin.Context) {
	result, err := c.Migration.MigrateProgress(ctx.Request.Context())
	if err != nil {
		util.MapServiceError(ctx, err)
		return
	}
	util.Success(ctx, result)
}

// @Summary Migration zurückrollen
// @Tags Migration
// @Produce json
// @Param id path string true "Migrations-ID"
// @Success 200 {object} util.Response
// @Router /api/migration/rollback/{id} [post]
func (c *MigrationController) Rollback(ctx *gin.Context) {
	result, err := c.Migration.RollbackMigration(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		util.MapServiceError(ctx, err)
		return
	}
	util.Success(ctx, result)
}

// @Summary Vorhandene Snapshots
// @Tags Migration
// @Produce json
// @Success 200 {object} util.Response
// @Router /api/migration/snapshots [get]
func (c *MigrationController) ListSnapshots(ctx *gin.Context) {
	ids, err := c.Migration.ListSnapshots(ctx.Request.Context())
	if err != nil {
		util.MapServiceError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"items": ids, "total": len(ids)})
}

// @Summary Fortschritt gruppiert nach Drei-Ebenen-Kategorie
// @Tags Migration
// @Produce json
// @Success 200 {object} util.Response
// @Router /api/migration/three-tier-progress [get]
func (c *MigrationController) GetThreeTierProgress(ctx *gin.Context) {
	buckets, err := c.Migration.GetProgressWithThreeTierCategories(ctx.Request.Context())
	if err != nil {
		util.MapServiceError(ctx, err)
		return
	}
	util.Success(ctx, buckets)
}
