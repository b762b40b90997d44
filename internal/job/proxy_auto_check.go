package job

import (
	"context"
	"fmt"
	"log/slog"
)

// ProxyAutoChecker 是自动检测任务需要的代理服务子集。
type ProxyAutoChecker interface {
	AutoCheck(ctx context.Context) (int, error)
}

// ProxyAutoCheckJob 定期探测开启自动检测的代理。
type ProxyAutoCheckJob struct {
	Proxies ProxyAutoChecker
	Logger  *slog.Logger
}

// NewProxyAutoCheckJob creates a new ProxyAutoCheckJob.
func NewProxyAutoCheckJob(proxies ProxyAutoChecker, logger *slog.Logger) *ProxyAutoCheckJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProxyAutoCheckJob{Proxies: proxies, Logger: logger}
}

// Name implements Runnable interface.
func (j *ProxyAutoCheckJob) Name() string {
	return "proxy.auto_check"
}

// Run implements Runnable interface.
func (j *ProxyAutoCheckJob) Run(ctx context.Context) error {
	if j == nil || j.Proxies == nil {
		return fmt.Errorf("proxy auto check job dependencies not configured / 代理自动检测任务依赖未配置")
	}
	checked, err := j.Proxies.AutoCheck(ctx)
	if err != nil {
		return fmt.Errorf("proxy auto check job: %w", err)
	}
	if checked > 0 {
		j.Logger.Info("proxies auto checked", "count", checked)
	}
	return nil
}
