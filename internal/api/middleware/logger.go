package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const userIDKey = "user_id"

// Logger 请求日志中间件（基于 Zap 结构化日志）
//
// 除状态与耗时外，记录路由模板以及排课会话 ID、登录用户 ID，
// 便于按会话串联一次选课流程的全部请求。
func Logger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		status := c.Writer.Status()
		fields := []zap.Field{
			zap.Int("status", status),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.String("ip", c.ClientIP()),
			zap.Duration("latency", time.Since(start)),
			zap.String("request_id", c.GetString(requestIDKey)),
		}
		if route := c.FullPath(); route != "" {
			fields = append(fields, zap.String("route", route))
			if strings.HasPrefix(route, "/api/v1/sessions/:id") {
				fields = append(fields, zap.String("session_id", c.Param("id")))
			}
		} else {
			fields = append(fields, zap.Bool("unmatched", true))
		}
		if uid := c.GetString(userIDKey); uid != "" {
			fields = append(fields, zap.String("user_id", uid))
		}
		if q := c.Request.URL.RawQuery; q != "" {
			fields = append(fields, zap.String("query", q))
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.ByType(gin.ErrorTypePrivate).String()))
		}

		switch {
		case status >= 500:
			logger.Error("请求处理失败", fields...)
		case status == 409:
			// 冲突/重复/版本过期属于正常业务结果
			logger.Info("请求被拒绝", fields...)
		case status >= 400:
			logger.Warn("客户端错误", fields...)
		default:
			logger.Info("请求完成", fields...)
		}
	}
}
