package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	_ "github.com/noah-isme/attendance-api/api/swagger"
	"github.com/noah-isme/attendance-api/internal/handler"
	"github.com/noah-isme/attendance-api/internal/repository"
	"github.com/noah-isme/attendance-api/internal/router"
	"github.com/noah-isme/attendance-api/internal/service"
	"github.com/noah-isme/attendance-api/pkg/cache"
	"github.com/noah-isme/attendance-api/pkg/config"
	"github.com/noah-isme/attendance-api/pkg/database"
	"github.com/noah-isme/attendance-api/pkg/logger"
	"github.com/noah-isme/attendance-api/pkg/ratelimit"
	"github.com/noah-isme/attendance-api/pkg/storage"
)

// @title Student Attendance API
// @version 1.0.0
// @description Roster, daily attendance, exports and dashboard for school staff.
// @BasePath /
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

const shutdownTimeout = 10 * time.Second

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

	if err := run(cfg, logr); err != nil {
		logr.Fatal("server failed", zap.Error(err))
	}
}

func run(cfg *config.Config, logr *zap.Logger) error {
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}
	if cfg.JWT.UsesDefaultSecret() {
		logr.Warn("JWT_SECRET is unset or uses the development default; tokens can be forged")
	}
	if cfg.Uploads.UsesDefaultSecret() {
		logr.Warn("PHOTO_URL_SECRET is unset or uses the development default; photo links can be forged")
	}

	db, err := database.Open(cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := context.Background()
	if cfg.Database.AutoMigrate {
		if err := database.Migrate(ctx, db, logr); err != nil {
			return err
		}
	}

	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	store, err := storage.NewLocalStorage(cfg.Uploads.Dir)
	if err != nil {
		return err
	}

	engine := buildEngine(cfg, logr, db, redisClient, store)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env), zap.String("db_driver", cfg.Database.Driver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		logr.Info("shutting down", zap.String("signal", sig.String()))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func buildEngine(cfg *config.Config, logr *zap.Logger, db *sqlx.DB, redisClient *redis.Client, store *storage.LocalStorage) *gin.Engine {
	metrics := service.NewMetricsService()
	validate := service.NewValidator()

	users := repository.NewUserRepository(db)
	students := repository.NewStudentRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)
	dashboardRepo := repository.NewDashboardRepository(db)

	authSvc := service.NewAuthService(users, validate, logr.Named("auth"), service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
	})
	studentSvc := service.NewStudentService(students, validate, logr.Named("students"))
	signer := storage.NewSignedURLSigner(cfg.Uploads.SignedURLSecret, cfg.Uploads.SignedURLTTL)
	photoSvc := service.NewPhotoService(students, store, signer, metrics, logr.Named("photos"), service.PhotoConfig{
		MaxBytes:          cfg.Uploads.MaxSizeBytes,
		AllowedExtensions: cfg.Uploads.AllowedExtensions,
	})
	attendanceSvc := service.NewAttendanceService(attendanceRepo, students, validate, metrics, logr.Named("attendance"), cfg.Timezone)
	exportSvc := service.NewExportService(attendanceRepo, metrics, nil, nil)
	dashboardSvc := service.NewDashboardService(dashboardRepo, logr.Named("dashboard"), cfg.Timezone)

	checks := map[string]handler.ReadinessCheck{
		"database": func(ctx context.Context) error { return db.PingContext(ctx) },
	}
	var limiter ratelimit.Limiter
	if cfg.RateLimit.LoginPerMinute > 0 {
		limiter = ratelimit.NewMemoryLimiter(cfg.RateLimit.LoginPerMinute, cfg.RateLimit.LoginPerMinute)
	}
	if redisClient != nil {
		checks["redis"] = func(ctx context.Context) error { return cache.Ping(ctx, redisClient) }
		if cfg.RateLimit.LoginPerMinute > 0 {
			limiter = ratelimit.NewRedisLimiter(redisClient, cfg.RateLimit.LoginPerMinute, "ratelimit")
		}
	}

	return router.New(router.Options{
		Logger:         logr,
		Metrics:        metrics,
		Auth:           authSvc,
		LoginLimiter:   limiter,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		EnableDocs:     cfg.Env != config.EnvProduction,
	}, router.Handlers{
		Health:     handler.NewHealthHandler(metrics, checks),
		Auth:       handler.NewAuthHandler(authSvc),
		Students:   handler.NewStudentHandler(studentSvc, photoSvc, cfg.Uploads.MaxSizeBytes),
		Photos:     handler.NewPhotoHandler(photoSvc),
		Attendance: handler.NewAttendanceHandler(attendanceSvc, exportSvc),
		Admin:      handler.NewAdminHandler(dashboardSvc, studentSvc, authSvc),
	})
}
