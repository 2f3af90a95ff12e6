package router

import (
	"context"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/attendance-api/internal/handler"
	"github.com/noah-isme/attendance-api/internal/middleware"
	"github.com/noah-isme/attendance-api/internal/models"
	"github.com/noah-isme/attendance-api/internal/service"
	"github.com/noah-isme/attendance-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/attendance-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/attendance-api/pkg/middleware/requestid"
	"github.com/noah-isme/attendance-api/pkg/ratelimit"
)

// Authenticator resolves tokens and checks admin rights.
type Authenticator interface {
	Authenticate(token string) (int64, error)
	RequireAdmin(ctx context.Context, userID int64) (*models.User, error)
}

// Handlers groups the HTTP handlers mounted by New.
type Handlers struct {
	Health     *handler.HealthHandler
	Auth       *handler.AuthHandler
	Students   *handler.StudentHandler
	Photos     *handler.PhotoHandler
	Attendance *handler.AttendanceHandler
	Admin      *handler.AdminHandler
}

// Options configures the engine.
type Options struct {
	Logger         *zap.Logger
	Metrics        *service.MetricsService
	Auth           Authenticator
	LoginLimiter   ratelimit.Limiter
	AllowedOrigins []string
	EnableDocs     bool
}

// New builds the gin engine with every route registered.
func New(opts Options, h Handlers) *gin.Engine {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(opts.Logger))
	r.Use(corsmiddleware.New(opts.AllowedOrigins))
	r.Use(middleware.Metrics(opts.Metrics, "/metrics"))

	r.GET("/", h.Health.Root)
	r.GET("/health", h.Health.Health)
	r.GET("/ready", h.Health.Ready)
	r.GET("/metrics", h.Health.Prometheus)
	if opts.EnableDocs {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	authenticated := middleware.JWT(opts.Auth)
	adminOnly := middleware.RequireAdmin(opts.Auth)

	auth := r.Group("/auth")
	auth.POST("/signup", h.Auth.Signup)
	if opts.LoginLimiter != nil {
		auth.POST("/login", ratelimit.Middleware(opts.LoginLimiter, "login", opts.Logger), h.Auth.Login)
	} else {
		auth.POST("/login", h.Auth.Login)
	}
	auth.GET("/me", authenticated, h.Auth.Me)

	students := r.Group("/students", authenticated)
	students.GET("/", h.Students.List)
	students.POST("/", adminOnly, h.Students.Create)
	students.GET("/:id", h.Students.Get)
	students.POST("/:id/upload-photo", adminOnly, h.Students.UploadPhoto)
	students.GET("/:id/photo-url", h.Students.PhotoURL)

	r.GET("/photos/:token", h.Photos.Serve)

	attendance := r.Group("/attendance", authenticated)
	attendance.POST("/mark", h.Attendance.Mark)
	attendance.GET("/", h.Attendance.List)
	attendance.GET("/export", h.Attendance.Export)

	admin := r.Group("/admin", authenticated, adminOnly)
	admin.GET("/dashboard", h.Admin.Dashboard)
	admin.GET("/students/without-photo", h.Admin.StudentsWithoutPhoto)
	admin.POST("/users/:id/promote", h.Admin.PromoteUser)

	return r
}
