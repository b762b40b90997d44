package job

import (
	"context"
	"fmt"
	"log/slog"
)

// Reaper 是进程回收任务需要的浏览器服务子集。
type Reaper interface {
	Reap(ctx context.Context) (int, error)
}

// BrowserReaperJob 把进程已退出但仍标记为运行中的窗口置为已停止。
type BrowserReaperJob struct {
	Browsers Reaper
	Logger   *slog.Logger
}

// NewBrowserReaperJob creates a new BrowserReaperJob.
func NewBrowserReaperJob(browsers Reaper, logger *slog.Logger) *BrowserReaperJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &BrowserReaperJob{Browsers: browsers, Logger: logger}
}

// Name implements Runnable interface.
func (j *BrowserReaperJob) Name() string {
	return "browser.reaper"
}

// Run implements Runnable interface.
func (j *BrowserReaperJob) Run(ctx context.Context) error {
	if j == nil || j.Browsers == nil {
		return fmt.Errorf("browser reaper job dependencies not configured / 浏览器回收任务依赖未配置")
	}
	reaped, err := j.Browsers.Reap(ctx)
	if err != nil {
		return fmt.Errorf("browser reaper job: %w", err)
	}
	if reaped > 0 {
		j.Logger.Debug("browser reaper finished", "reaped", reaped)
	}
	return nil
}
