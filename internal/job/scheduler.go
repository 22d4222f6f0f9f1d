// 文件路径: internal/job/scheduler.go
// 模块说明: cron 调度器，统一超时与日志，停机时等待执行中的任务。
package job

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Runnable 表示由调度器触发的后台任务。
type Runnable interface {
	Name() string
	Run(ctx context.Context) error
}

// Scheduler 封装 cron，并提供日志与优雅停机。
type Scheduler struct {
	cron    *cron.Cron
	logger  *slog.Logger
	timeout time.Duration
	mu      sync.Mutex
	started bool
}

// DefaultJobTimeout bounds one run when no timeout is configured.
const DefaultJobTimeout = 2 * time.Minute

// NewScheduler 构建支持秒与自然描述（@every 1h）的调度器。
func NewScheduler(logger *slog.Logger, timeout time.Duration) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = DefaultJobTimeout
	}
	parser := cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	c := cron.New(cron.WithParser(parser), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	return &Scheduler{cron: c, logger: logger, timeout: timeout}
}

// Register 绑定 cron 表达式与任务。
func (s *Scheduler) Register(spec string, runnable Runnable) (cron.EntryID, error) {
	if runnable == nil {
		return 0, errors.New("scheduler: runnable is required / runnable 不能为空")
	}
	if spec == "" {
		return 0, errors.New("scheduler: spec is required / spec 不能为空")
	}
	entryID, err := s.cron.AddFunc(spec, s.wrap(runnable))
	if err != nil {
		return 0, err
	}
	s.logger.Info("job registered", "job", runnable.Name(), "spec", spec)
	return entryID, nil
}

// Len 返回已注册任务数。
func (s *Scheduler) Len() int { return len(s.cron.Entries()) }

// Start 启动调度器。
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	s.cron.Start()
	s.started = true
}

// Stop 停止调度器；返回的 context 在执行中的任务结束后关闭。
func (s *Scheduler) Stop() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return context.Background()
	}
	s.started = false
	return s.cron.Stop()
}

// wrap 包装任务，提供超时与统一日志。
func (s *Scheduler) wrap(runnable Runnable) func() {
	return func() {
		RunOnce(context.Background(), s.logger, s.timeout, runnable)
	}
}

// RunOnce runs r under timeout and logs the outcome. Used by the scheduler
// and for the warm-up run at startup.
func RunOnce(ctx context.Context, logger *slog.Logger, timeout time.Duration, r Runnable) error {
	if timeout <= 0 {
		timeout = DefaultJobTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	start := time.Now()
	if err := r.Run(ctx); err != nil {
		logger.Error("job failed", "job", r.Name(), "error", err, "elapsed", time.Since(start))
		return err
	}
	logger.Debug("job completed", "job", r.Name(), "elapsed", time.Since(start))
	return nil
}
