package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/circlematch-api/api/swagger"
	"github.com/noah-isme/circlematch-api/internal/handler"
	"github.com/noah-isme/circlematch-api/internal/matching"
	internalmiddleware "github.com/noah-isme/circlematch-api/internal/middleware"
	"github.com/noah-isme/circlematch-api/internal/models"
	"github.com/noah-isme/circlematch-api/internal/repository"
	"github.com/noah-isme/circlematch-api/internal/service"
	"github.com/noah-isme/circlematch-api/pkg/cache"
	"github.com/noah-isme/circlematch-api/pkg/config"
	"github.com/noah-isme/circlematch-api/pkg/database"
	"github.com/noah-isme/circlematch-api/pkg/export"
	"github.com/noah-isme/circlematch-api/pkg/googleauth"
	"github.com/noah-isme/circlematch-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/circlematch-api/pkg/middleware/cors"
	"github.com/noah-isme/circlematch-api/pkg/middleware/ratelimit"
	reqidmiddleware "github.com/noah-isme/circlematch-api/pkg/middleware/requestid"
)

// @title CircleMatch API
// @version 1.0.0
// @description Teacher transfer registry and multi-party transfer cycle matching.
// @BasePath /api
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect database", "error", err)
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, continuing without shared cache", "error", err)
		redisClient = nil
	}

	metricsSvc := service.NewMetricsService()
	validate := service.NewValidator()

	teacherRepo := repository.NewTeacherRepository(db, metricsSvc)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	defer cacheRepo.Close() //nolint:errcheck
	referenceRepo, err := repository.NewReferenceRepository()
	if err != nil {
		logr.Sugar().Fatalw("failed to load reference data", "error", err)
	}

	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Matching.CacheTTL, logr, cacheRepo.Enabled())
	matcher := matching.New(matching.Options{
		MaxLength: cfg.Matching.MaxCycleLength,
		MaxCycles: cfg.Matching.MaxResults,
		Timeout:   cfg.Matching.Timeout,
	})
	matchSvc := service.NewMatchService(teacherRepo, matcher, cacheSvc, metricsSvc, logr, service.MatchServiceConfig{
		ActiveYear:        cfg.Matching.ActiveYear,
		CacheTTL:          cfg.Matching.CacheTTL,
		RecomputeInterval: cfg.Matching.RecomputeInterval,
		Workers:           cfg.Matching.Workers,
	})
	matchSvc.Start(ctx)
	defer matchSvc.Stop()

	teacherSvc := service.NewTeacherService(teacherRepo, matchSvc, validate, logr, cfg.Matching.ActiveYear)
	authSvc := service.NewAuthService(googleauth.NewVerifier(cfg.Google.ClientID), teacherRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            "circlematch",
		AdminEmails:       cfg.Google.AdminEmails,
		ActiveYear:        cfg.Matching.ActiveYear,
	})
	exportSvc := service.NewExportService(teacherRepo, matchSvc, logr, export.NewCSVExporter(), export.NewPDFExporter(cfg.Export.PDFFont))

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr, "/health", "/ready", "/metrics"))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metricsSvc))

	metricsHandler := handler.NewMetricsHandler(metricsSvc, map[string]handler.Pinger{
		"postgres": teacherRepo,
		"redis":    cacheRepo,
	})
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	registerRoutes(r.Group(cfg.APIPrefix), cfg, routeHandlers{
		auth:      handler.NewAuthHandler(authSvc),
		teachers:  handler.NewTeacherHandler(teacherSvc),
		matches:   handler.NewMatchHandler(matchSvc, exportSvc),
		reference: handler.NewReferenceHandler(referenceRepo),
		admin:     handler.NewAdminHandler(matchSvc, metricsSvc),
		tokens:    authSvc,
	})

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: r,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "active_year", cfg.Matching.ActiveYear)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Errorw("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}

type routeHandlers struct {
	auth      *handler.AuthHandler
	teachers  *handler.TeacherHandler
	matches   *handler.MatchHandler
	reference *handler.ReferenceHandler
	admin     *handler.AdminHandler
	tokens    internalmiddleware.TokenValidator
}

func registerRoutes(api *gin.RouterGroup, cfg *config.Config, h routeHandlers) {
	limiter := ratelimit.New(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
	authRequired := internalmiddleware.JWT(h.tokens)

	api.POST("/google-login", limiter.Middleware(), h.auth.GoogleLogin)

	api.GET("/districts", h.reference.Districts)
	api.GET("/subjects", h.reference.Subjects)

	api.GET("/matches", h.matches.List)
	api.GET("/matches/export", authRequired, h.matches.Export)

	teachers := api.Group("/teachers", authRequired)
	teachers.GET("", h.teachers.List)
	teachers.POST("", limiter.Middleware(), h.teachers.Create)
	teachers.PUT("/:id", limiter.Middleware(), h.teachers.Update)
	teachers.DELETE("/:id", limiter.Middleware(), h.teachers.Delete)
	teachers.GET("/:id/contact", h.teachers.Contact)

	admin := api.Group("/admin", authRequired, internalmiddleware.RequireRoles(models.RoleAdmin))
	admin.POST("/matches/recompute", h.admin.Recompute)
	admin.GET("/metrics", h.admin.Metrics)
}
