package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/nathan-omana/SFU-INSIGHT-sub000/config"
	"github.com/nathan-omana/SFU-INSIGHT-sub000/internal/api/handler"
	"github.com/nathan-omana/SFU-INSIGHT-sub000/internal/api/middleware"
	"github.com/nathan-omana/SFU-INSIGHT-sub000/pkg/jwt"
)

// Setup 初始化并返回 Gin 路由引擎
// limiter 为 nil 时不限流
func Setup(
	cfg *config.Config,
	h *handler.Handler,
	health *handler.HealthHandler,
	verifier *jwt.Verifier,
	limiter middleware.RateLimiter,
	logger *zap.Logger,
) *gin.Engine {
	switch cfg.Server.Mode {
	case gin.DebugMode, gin.TestMode:
		gin.SetMode(cfg.Server.Mode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.BodyLimit(cfg.Server.MaxBodyBytes))

	// ── 健康检查 ──
	r.GET("/health", health.Health)
	r.GET("/ready", health.Ready)

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	v1.Use(middleware.RateLimit(limiter, cfg.Server.RateLimit, time.Minute))
	{
		// 课程目录（无需认证）
		catalog := v1.Group("/catalog")
		{
			catalog.GET("/departments", h.Catalog.ListDepartments)
			catalog.GET("/departments/:dept/courses", h.Catalog.ListCourses)
			catalog.GET("/departments/:dept/courses/:number/sections", h.Catalog.ListSections)
		}

		// 排课会话（会话 ID 即凭证，无需登录）
		sessions := v1.Group("/sessions")
		{
			sessions.POST("", h.Planner.CreateSession)
			sessions.GET("/:id", h.Planner.GetSession)
			sessions.PUT("/:id/selection", h.Planner.SelectCourse)
			sessions.GET("/:id/associated", h.Planner.AssociatedSections)
			sessions.POST("/:id/entries", h.Planner.AddEntry)
			sessions.DELETE("/:id/entries", h.Planner.RemoveEntry)
			sessions.POST("/:id/clear", h.Planner.ClearSchedule)
			sessions.GET("/:id/conflicts", h.Planner.ValidateSchedule)

			// 导出模块
			sessions.GET("/:id/export", h.Export.Export)
			sessions.POST("/:id/share", h.Export.Share)
		}

		// 需要认证的路由
		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(verifier))
		{
			authorized.POST("/sessions/:id/save", h.SavedSchedule.Save)
			authorized.POST("/sessions/:id/load", h.SavedSchedule.Load)
			authorized.GET("/saved-schedules", h.SavedSchedule.List)
			authorized.DELETE("/saved-schedules", h.SavedSchedule.Delete)
		}
	}

	return r
}
