package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	app "github.com/procurehub/backend/internal/application/reconciliation"
	"github.com/procurehub/backend/internal/infrastructure/cache"
	"github.com/procurehub/backend/internal/infrastructure/config"
	"github.com/procurehub/backend/internal/infrastructure/logger"
	"github.com/procurehub/backend/internal/infrastructure/mapping"
	"github.com/procurehub/backend/internal/infrastructure/parsing"
	"github.com/procurehub/backend/internal/infrastructure/persistence"
	"github.com/procurehub/backend/internal/interfaces/http/handler"
	"github.com/procurehub/backend/internal/interfaces/http/middleware"
	"github.com/procurehub/backend/internal/interfaces/http/router"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting reconciliation engine",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Initialize database connection
	db, err := persistence.NewDatabase(&cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Failed to close database", zap.Error(err))
		}
	}()

	// Repositories
	validationRepo := persistence.NewGormValidationResultRepository(db.DB)
	assignmentRepo := persistence.NewGormLineAssignmentRepository(db.DB)
	verifiedRepo := persistence.NewGormVerifiedPeriodRepository(db.DB)

	// External collaborators
	parser := parsing.NewJSONDocumentParser()
	mapperClient := mapping.NewMapperClient(mapping.ClientConfig{
		BaseURL: cfg.Collaborators.MapperBaseURL,
		Timeout: cfg.Collaborators.Timeout,
	})
	catalogClient := mapping.NewCatalogClient(mapping.ClientConfig{
		BaseURL: cfg.Collaborators.CatalogBaseURL,
		Timeout: cfg.Collaborators.Timeout,
	})

	// Report cache is optional: when Redis is disabled or unreachable the
	// report service falls back to computing stats on every request.
	var statsCache app.StatsCache
	if cfg.Cache.Enabled {
		redisCache, err := cache.NewRedisStatsCache(cfg.Redis)
		if err != nil {
			log.Warn("Redis unavailable, report caching disabled", zap.Error(err))
		} else {
			defer func() {
				_ = redisCache.Close()
			}()
			statsCache = redisCache
		}
	}

	// Application services
	importService := app.NewImportService(parser, mapperClient, catalogClient, validationRepo, assignmentRepo, log)
	enforcementService := app.NewEnforcementService(validationRepo, assignmentRepo, verifiedRepo, mapperClient, catalogClient, log)
	reportService := app.NewReportService(validationRepo, assignmentRepo, enforcementService, statsCache, cfg.Cache.StatsTTL, log)

	reconciliationHandler := handler.NewReconciliationHandler(importService, enforcementService, reportService)

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()

	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.BodySizeLimit(cfg.HTTP.MaxBodySize))

	// Health check endpoint (outside API versioning)
	engine.GET("/healthz", healthHandler(db))

	r := router.NewRouter(engine)
	r.Register(reconciliationHandler)
	r.Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// healthHandler returns a handler for health check endpoints
func healthHandler(db *persistence.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			logger.GetGinLogger(c).Warn("Health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"time":     time.Now().Format(time.RFC3339),
				"database": "error",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":   "healthy",
			"time":     time.Now().Format(time.RFC3339),
			"database": "ok",
		})
	}
}
