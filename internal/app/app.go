package app

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ihk_prep_backend/internal/config"
	"ihk_prep_backend/internal/controller"
	"ihk_prep_backend/internal/repository"
	"ihk_prep_backend/internal/service"
	"ihk_prep_backend/internal/state"
	"ihk_prep_backend/internal/util"
	"ihk_prep_backend/pkg/configwatcher"
	"ihk_prep_backend/pkg/database"
	"ihk_prep_backend/pkg/logger"
	"ihk_prep_backend/pkg/monitoring"
	"ihk_prep_backend/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config   *config.Config
	Router   *gin.Engine
	DB       *gorm.DB
	Redis    *redis.Client
	State    *state.Store
	Services *Services

	tracerShutdown func(context.Context) error
}

type Services struct {
	Categories     *service.CategoryService
	Content        *service.ContentService
	Specialization *service.SpecializationService
	Progress       *service.ProgressService
	Relationships  *service.RelationshipService
	Migration      *service.MigrationService
	Validation     *service.ValidationService
}

type controllers struct {
	content        *controller.ContentController
	category       *controller.CategoryController
	progress       *controller.ProgressController
	specialization *controller.SpecializationController
	relationship   *controller.RelationshipController
	migration      *controller.MigrationController
	validation     *controller.ValidationController
	health         *controller.HealthController
}

// initStorage selects the persistent KV backend from configuration.
func initStorage(cfg *config.Config) (*gorm.DB, repository.KeyValueStore, error) {
	if cfg.Storage.Backend == util.StorageBackendMySQL {
		db, err := database.InitDB(&cfg.Database)
		if err != nil {
			return nil, nil, err
		}
		return db, repository.NewGormKVStore(db), nil
	}
	return nil, repository.NewMemoryKVStore(), nil
}

func (a *App) initServices(cfg *config.Config, store repository.KeyValueStore, rdb *redis.Client) (*Services, error) {
	adapter := repository.NewStorageAdapter(store, cfg.Storage.QuotaBytes)
	progressRepo := repository.NewProgressRepository(adapter)

	source, err := service.NewContentSource(&cfg.Content)
	if err != nil {
		return nil, err
	}

	s := &Services{}
	s.Categories = service.NewCategoryService()
	s.Content = service.NewContentService(source, s.Categories)
	s.Specialization = service.NewSpecializationService(a.State, progressRepo, s.Categories)
	s.Relationships = service.NewRelationshipService(s.Content, s.Specialization, s.Categories, a.State, rdb)
	s.Progress = service.NewProgressService(a.State, progressRepo, s.Content, s.Specialization, s.Relationships)
	s.Migration = service.NewMigrationService(s.Progress, progressRepo, s.Content)
	s.Validation = service.NewValidationService(s.Content, s.Categories, a.State)
	return s, nil
}

func (a *App) initControllers(s *Services, db *gorm.DB) *controllers {
	return &controllers{
		content:        controller.NewContentController(s.Content),
		category:       controller.NewCategoryController(s.Categories, s.Specialization),
		progress:       controller.NewProgressController(s.Progress),
		specialization: controller.NewSpecializationController(s.Specialization),
		relationship:   controller.NewRelationshipController(s.Relationships, s.Specialization, s.Progress),
		migration:      controller.NewMigrationController(s.Migration),
		validation:     controller.NewValidationController(s.Validation),
		health:         controller.NewHealthController(db, s.Content),
	}
}

// watchContentDir reloads the corpus when a content file changes on disk.
func (a *App) watchContentDir(cfg *config.Config, content *service.ContentService) {
	if cfg.Content.SourceType != util.ContentSourceLocal || !cfg.Content.WatchDir {
		return
	}
	err := configwatcher.Watch(cfg.Content.Dir, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := content.Reload(ctx); err != nil {
			logger.Log.Error("content reload after file change failed", zap.Error(err))
		}
	})
	if err != nil {
		logger.Log.Warn("content directory watch disabled", zap.Error(err))
	}
}

func NewApp(cfg *config.Config) (*App, error) {
	logger.InitLogger(cfg.Server.Mode)
	logger.Log.Info("Logger initialized successfully")

	db, store, err := initStorage(cfg)
	if err != nil {
		return nil, err
	}

	var rdb *redis.Client
	if cfg.Redis.Enabled {
		rdb, err = database.InitRedis(&cfg.Redis)
		if err != nil {
			return nil, err
		}
	}

	app := &App{
		Config: cfg,
		DB:     db,
		Redis:  rdb,
		State:  state.NewStore(),
	}

	services, err := app.initServices(cfg, store, rdb)
	if err != nil {
		return nil, err
	}
	app.Services = services

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := services.Content.Initialize(ctx); err != nil {
		return nil, err
	}
	if err := services.Specialization.Initialize(ctx); err != nil {
		return nil, err
	}
	if err := services.Migration.MigrateAtStartup(ctx); err != nil {
		return nil, err
	}

	if report, err := services.Validation.ValidateCategoryMappings(ctx); err != nil {
		logger.Log.Warn("category validation failed", zap.Error(err))
	} else if !report.IsValid {
		logger.Log.Warn("corpus has category mapping errors",
			zap.Int("errors", len(report.Errors)),
			zap.Int("warnings", len(report.Warnings)))
	}

	monitoring.Init()

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()
	app.Router = router

	app.setupMiddlewares(router, cfg)

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer("ihk-prep-engine", cfg.Tracing.CollectorEndpoint)
		if err != nil {
			return nil, err
		}
		app.tracerShutdown = tp.Shutdown
	}

	app.registerRoutes(router, app.initControllers(services, db))
	app.watchContentDir(cfg, services.Content)

	return app, nil
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	go func() {
		log.Printf("Server running on port %s", a.Config.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	a.Services.Relationships.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if a.tracerShutdown != nil {
		if err := a.tracerShutdown(ctx); err != nil {
			logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
		}
	}
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exiting")
}
