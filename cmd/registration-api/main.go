package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "studentreg/api/swagger"
	"studentreg/internal/handler"
	"studentreg/internal/middleware"
	"studentreg/internal/repository"
	"studentreg/internal/service"
	"studentreg/pkg/cache"
	"studentreg/pkg/config"
	"studentreg/pkg/crypto"
	"studentreg/pkg/database"
	"studentreg/pkg/export"
	"studentreg/pkg/logger"
	corsmiddleware "studentreg/pkg/middleware/cors"
	reqidmiddleware "studentreg/pkg/middleware/requestid"
)

// @title Student Registration API
// @version 1.0.0
// @description Form-driven student intake with encrypted contact storage and duplicate prevention
// @BasePath /
// @schemes http

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

	key, err := cfg.Encryption.KeyBytes()
	if err != nil {
		logr.Sugar().Fatalw("invalid encryption key", "error", err)
	}
	cipher, err := crypto.NewCipher(key)
	if err != nil {
		logr.Sugar().Fatalw("failed to init cipher", "error", err)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		// The roster cache is an optimization; registrations must keep
		// working without it.
		logr.Warn("redis unavailable, roster caching disabled", zap.Error(err))
		redisClient = nil
	}

	validate := validator.New()
	metricsSvc := service.NewMetricsService()

	studentRepo := repository.NewStudentRepository(db)
	userRepo := repository.NewUserRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	checker := service.NewDuplicateChecker(logr)
	mailSvc := service.NewMailService(cfg.SMTP, logr)
	registrationSvc := service.NewRegistrationService(
		studentRepo, checker, cipher, cacheRepo, mailSvc, metricsSvc,
		validate, logr, cfg.Registration.MinMobileDigits,
	)
	rosterSvc := service.NewRosterService(studentRepo, cipher, cacheRepo, metricsSvc,
		export.NewCSVExporter(), export.NewPDFExporter(),
		logr, cfg.Registration.RosterCacheTTL, cfg.Registration.MaxPageSize)
	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "studentreg",
	})

	registrationHandler := handler.NewRegistrationHandler(registrationSvc)
	rosterHandler := handler.NewRosterHandler(rosterSvc)
	authHandler := handler.NewAuthHandler(authSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	api := r.Group(cfg.APIPrefix)
	{
		api.POST("/registrations", registrationHandler.Register)
		api.POST("/auth/login", authHandler.Login)
		api.POST("/auth/refresh", authHandler.Refresh)

		admin := api.Group("/students", middleware.JWT(authSvc))
		{
			admin.GET("", rosterHandler.List)
			admin.GET("/export", rosterHandler.Export)
			admin.GET("/:id", rosterHandler.Get)
		}
	}

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
