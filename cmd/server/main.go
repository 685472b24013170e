package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/nathan-omana/SFU-INSIGHT-sub000/config"
	"github.com/nathan-omana/SFU-INSIGHT-sub000/internal/api/handler"
	"github.com/nathan-omana/SFU-INSIGHT-sub000/internal/api/middleware"
	"github.com/nathan-omana/SFU-INSIGHT-sub000/internal/api/router"
	"github.com/nathan-omana/SFU-INSIGHT-sub000/internal/catalog"
	"github.com/nathan-omana/SFU-INSIGHT-sub000/internal/model"
	"github.com/nathan-omana/SFU-INSIGHT-sub000/internal/planner"
	"github.com/nathan-omana/SFU-INSIGHT-sub000/internal/repository"
	"github.com/nathan-omana/SFU-INSIGHT-sub000/internal/service"
	"github.com/nathan-omana/SFU-INSIGHT-sub000/internal/storage"
	"github.com/nathan-omana/SFU-INSIGHT-sub000/pkg/database"
	"github.com/nathan-omana/SFU-INSIGHT-sub000/pkg/jwt"
	applogger "github.com/nathan-omana/SFU-INSIGHT-sub000/pkg/logger"
	"github.com/nathan-omana/SFU-INSIGHT-sub000/pkg/redis"
)

func main() {
	configPath := flag.String("config", "", "配置文件路径（默认查找 ./config.yaml 与 ./config/config.yaml）")
	flag.Parse()

	// 0. 本地开发时从 .env 注入环境变量；文件不存在不报错
	_ = godotenv.Load()

	// 1. 加载配置
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	// 2. 初始化日志
	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("应用启动中...",
		zap.Int("port", cfg.Server.Port),
		zap.String("log_level", cfg.Log.Level),
		zap.String("db_driver", cfg.Database.Driver),
		zap.String("catalog", cfg.Catalog.BaseURL),
	)

	// 3. 连接数据库并迁移
	db, err := database.NewDB(&cfg.Database, logger)
	if err != nil {
		logger.Fatal("数据库连接失败", zap.Error(err))
	}
	if err := database.Migrate(db, cfg.Database.Driver, logger, &model.SavedSchedule{}); err != nil {
		logger.Fatal("数据库迁移失败", zap.Error(err))
	}
	logger.Info("数据库就绪")

	// 4. 连接 Redis（可选：连接失败时降级为进程内缓存、不限流）
	var (
		rdb     *redis.Client
		remote  catalog.RemoteCache
		limiter middleware.RateLimiter
	)
	if cfg.Redis.Enabled {
		rdb, err = redis.NewClient(&cfg.Redis, logger)
		if err != nil {
			logger.Warn("Redis 连接失败，目录二级缓存与限流将不可用", zap.Error(err))
			rdb = nil
		} else {
			remote, limiter = rdb, rdb
		}
	}

	// 5. 课程目录：HTTP → 缓存 → 并发加载
	httpClient := catalog.NewHTTPClient(catalog.HTTPClientOptions{
		BaseURL:   cfg.Catalog.BaseURL,
		Timeout:   cfg.Catalog.Timeout,
		UserAgent: cfg.Catalog.UserAgent,
	}, logger)
	catalogClient := catalog.NewCachedClient(httpClient, remote, cfg.Catalog.CacheTTL, logger)
	classifier := planner.NewClassifier(planner.ClassifierOptions{
		EnrollmentMarkers:    cfg.Planner.Classifier.EnrollmentMarkers,
		NonEnrollmentMarkers: cfg.Planner.Classifier.NonEnrollmentMarkers,
		LectureSuffixes:      cfg.Planner.Classifier.LectureSuffixes,
	}, logger)
	loader := catalog.NewLoader(catalogClient, classifier, cfg.Catalog.MaxConcurrency, logger)

	// 6. 对象存储（可选）
	var objects storage.ObjectStore
	if cfg.Storage.Enabled {
		initCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		store, err := storage.NewMinIOStore(initCtx, &cfg.Storage, logger)
		cancel()
		if err != nil {
			logger.Warn("对象存储初始化失败，分享功能将不可用", zap.Error(err))
		} else {
			objects = store
		}
	}

	// 7. 依赖注入: Repository → Service → Handler
	dayStart, _ := cfg.Planner.DayStartMinutes()
	termStart, termEnd, _ := cfg.Planner.TermWindow()
	sessions := service.NewSessionStore(cfg.Planner.Palette, logger)

	repo := repository.NewRepository(db)
	svc := service.NewService(service.Deps{
		Repo:    repo,
		Catalog: catalogClient,
		Loader:  loader,
		Store:   sessions,
		Objects: objects,
		Planner: service.PlannerOptions{
			Geometry:  planner.GridGeometry{DayStartMinutes: dayStart, PixelsPerMinute: cfg.Planner.PixelsPerMinute},
			NoticeTTL: cfg.Planner.NoticeTTL,
		},
		Export: service.ExportOptions{
			ICS: planner.ICSOptions{
				UIDDomain: uidDomain(cfg.Server.BaseURL),
				TermStart: termStart,
				TermEnd:   termEnd,
				Location:  cfg.Planner.Location(),
			},
			DayStartMinutes: dayStart,
		},
	}, logger)
	h := handler.NewHandler(svc)
	health := handler.NewHealthHandler(db, rdb, sessions)

	// 8. 空闲会话清理
	janitor, err := service.NewSessionJanitor(sessions, cfg.Planner.JanitorInterval, cfg.Planner.SessionIdleTTL, logger)
	if err != nil {
		logger.Fatal("初始化会话清理任务失败", zap.Error(err))
	}
	janitor.Start()

	// 9. 初始化路由
	verifier := jwt.NewVerifier(&cfg.Auth)
	engine := router.Setup(cfg, h, health, verifier, limiter, logger)

	// 10. 启动 HTTP 服务器（优雅关闭）
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second, // 选课时并发拉取目录详情
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("HTTP 服务器已启动", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP 服务器异常", zap.Error(err))
		}
	}()

	// 11. 监听系统信号，优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("收到关闭信号，开始优雅关闭...", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("服务器关闭异常", zap.Error(err))
	}
	if err := janitor.Shutdown(); err != nil {
		logger.Error("会话清理任务关闭异常", zap.Error(err))
	}

	// 关闭数据库连接
	if sqlDB, _ := db.DB(); sqlDB != nil {
		_ = sqlDB.Close()
	}

	// 关闭 Redis 连接
	if rdb != nil {
		_ = rdb.Close()
	}

	logger.Info("服务器已关闭")
}

// uidDomain 取对外地址的主机名作为日历事件 UID 后缀
func uidDomain(baseURL string) string {
	u, err := url.Parse(baseURL)
	if err != nil || u.Hostname() == "" {
		return ""
	}
	return u.Hostname()
}
