package service

import (
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SessionJanitor 定期清理空闲会话
type SessionJanitor struct {
	scheduler gocron.Scheduler
	store     *SessionStore
	idleTTL   time.Duration
	logger    *zap.Logger
}

// NewSessionJanitor 注册清理任务，Start 后按 interval 执行
func NewSessionJanitor(store *SessionStore, interval, idleTTL time.Duration, logger *zap.Logger) (*SessionJanitor, error) {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("创建定时任务调度器失败: %w", err)
	}

	j := &SessionJanitor{scheduler: scheduler, store: store, idleTTL: idleTTL, logger: logger}
	_, err = scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(j.sweep),
		gocron.WithName("session sweep"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithEventListeners(gocron.AfterJobRuns(func(jobID uuid.UUID, jobName string) {
			logger.Debug("定时任务完成", zap.String("job", jobName), zap.String("job_id", jobID.String()))
		})),
	)
	if err != nil {
		_ = scheduler.Shutdown()
		return nil, fmt.Errorf("注册会话清理任务失败: %w", err)
	}
	return j, nil
}

func (j *SessionJanitor) sweep() {
	if removed := j.store.Sweep(j.idleTTL); removed > 0 {
		j.logger.Info("已清理空闲会话",
			zap.Int("removed", removed),
			zap.Int("remaining", j.store.Len()),
		)
	}
}

// Start 启动调度器
func (j *SessionJanitor) Start() { j.scheduler.Start() }

// Shutdown 停止调度器并等待运行中的任务
func (j *SessionJanitor) Shutdown() error { return j.scheduler.Shutdown() }
