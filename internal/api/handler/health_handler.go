package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/nathan-omana/SFU-INSIGHT-sub000/internal/service"
	"github.com/nathan-omana/SFU-INSIGHT-sub000/pkg/redis"
)

// HealthHandler 存活与就绪检查
type HealthHandler struct {
	db       *gorm.DB
	rdb      *redis.Client
	sessions *service.SessionStore
}

// NewHealthHandler rdb 可为 nil
func NewHealthHandler(db *gorm.DB, rdb *redis.Client, sessions *service.SessionStore) *HealthHandler {
	return &HealthHandler{db: db, rdb: rdb, sessions: sessions}
}

// Health 存活检查
// GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Ready 就绪检查：数据库与 Redis 可达
// GET /ready
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	checks := gin.H{"database": "ok"}
	status := http.StatusOK

	if sqlDB, err := h.db.DB(); err != nil || sqlDB.PingContext(ctx) != nil {
		checks["database"] = "unavailable"
		status = http.StatusServiceUnavailable
	}
	if h.rdb != nil {
		checks["redis"] = "ok"
		if err := h.rdb.Ping(ctx); err != nil {
			// Redis 仅用于缓存与限流，不可用时降级
			checks["redis"] = "degraded"
		}
	}
	if h.sessions != nil {
		checks["sessions"] = h.sessions.Len()
	}

	if status != http.StatusOK {
		c.JSON(status, gin.H{"status": "unavailable", "checks": checks})
		return
	}
	c.JSON(status, gin.H{"status": "ok", "checks": checks})
}
