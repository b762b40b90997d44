// 文件路径: internal/job/scheduler.go
// 模块说明: cron 调度器。同一任务上一次未结束时跳过本次触发，每次执行带超时并记录指标。
package job

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/creamcroissant/fpbrowser/internal/metrics"
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
	metrics *metrics.Recorder
	timeout time.Duration
	mu      sync.Mutex
	started bool
	names   map[cron.EntryID]string
}

const defaultJobTimeout = 2 * time.Minute

// Option 调整调度器行为。
type Option func(*Scheduler)

// WithTimeout 设置单次执行的超时，非正数时沿用默认值。
func WithTimeout(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithMetrics 记录每次执行的结果与耗时。
func WithMetrics(r *metrics.Recorder) Option {
	return func(s *Scheduler) { s.metrics = r }
}

// NewScheduler 构建支持秒与自然描述的调度器。
func NewScheduler(logger *slog.Logger, opts ...Option) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Scheduler{
		logger:  logger.With("component", "scheduler"),
		timeout: defaultJobTimeout,
		names:   make(map[cron.EntryID]string),
	}
	for _, opt := range opts {
		opt(s)
	}
	parser := cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	s.cron = cron.New(
		cron.WithParser(parser),
		cron.WithChain(cron.Recover(cronLogger{s.logger}), cron.SkipIfStillRunning(cronLogger{s.logger})),
	)
	return s
}

// Register 绑定 cron 表达式与任务。
func (s *Scheduler) Register(spec string, runnable Runnable) (cron.EntryID, error) {
	if runnable == nil {
		return 0, fmt.Errorf("scheduler: runnable is required / runnable 不能为空")
	}
	if spec == "" {
		return 0, fmt.Errorf("scheduler: spec is required / spec 不能为空")
	}
	entryID, err := s.cron.AddFunc(spec, s.wrap(runnable))
	if err != nil {
		return 0, fmt.Errorf("scheduler: register %s: %w", runnable.Name(), err)
	}
	s.mu.Lock()
	s.names[entryID] = runnable.Name()
	s.mu.Unlock()
	s.logger.Info("job registered", "job", runnable.Name(), "spec", spec)
	return entryID, nil
}

// Jobs 返回已注册任务名，顺序与注册顺序一致。
func (s *Scheduler) Jobs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries := s.cron.Entries()
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if name, ok := s.names[e.ID]; ok {
			names = append(names, name)
		}
	}
	return names
}

// Start 启动调度器并执行任务。
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	s.cron.Start()
	s.started = true
}

// Stop 停止调度器并等待执行中的任务结束。
func (s *Scheduler) Stop() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return context.Background()
	}
	s.started = false
	return s.cron.Stop()
}

// RunNow 立即同步执行一次任务，不经过 cron。
func (s *Scheduler) RunNow(runnable Runnable) error {
	return s.run(runnable)
}

func (s *Scheduler) wrap(runnable Runnable) func() {
	return func() { _ = s.run(runnable) }
}

func (s *Scheduler) run(runnable Runnable) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	start := time.Now()
	err := runnable.Run(ctx)
	elapsed := time.Since(start)
	s.metrics.JobRan(runnable.Name(), err == nil, elapsed.Seconds())
	if err != nil {
		s.logger.Error("job failed", "job", runnable.Name(), "error", err, "elapsed", elapsed)
		return err
	}
	s.logger.Debug("job completed", "job", runnable.Name(), "elapsed", elapsed)
	return nil
}

// cronLogger 把 cron 内部日志转到 slog。
type cronLogger struct{ l *slog.Logger }

func (c cronLogger) Info(msg string, keysAndValues ...any) {
	c.l.Debug(msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...any) {
	c.l.Error(msg, append(keysAndValues, "error", err)...)
}
