package job

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// ExpiredPurger 是回收站清理任务需要的服务子集。
type ExpiredPurger interface {
	PurgeExpired(ctx context.Context, retention time.Duration) (int64, error)
}

// RecycleBinPurgeJob 永久删除在回收站中超过保留期的窗口。
type RecycleBinPurgeJob struct {
	Bin       ExpiredPurger
	Retention time.Duration
	Logger    *slog.Logger
}

// NewRecycleBinPurgeJob creates a new RecycleBinPurgeJob. retentionDays 非正数时任务不做任何事。
func NewRecycleBinPurgeJob(bin ExpiredPurger, retentionDays int, logger *slog.Logger) *RecycleBinPurgeJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &RecycleBinPurgeJob{
		Bin:       bin,
		Retention: time.Duration(retentionDays) * 24 * time.Hour,
		Logger:    logger,
	}
}

// Name implements Runnable interface.
func (j *RecycleBinPurgeJob) Name() string {
	return "recycle_bin.purge"
}

// Run implements Runnable interface.
func (j *RecycleBinPurgeJob) Run(ctx context.Context) error {
	if j == nil || j.Bin == nil {
		return fmt.Errorf("recycle bin purge job dependencies not configured / 回收站清理任务依赖未配置")
	}
	if j.Retention <= 0 {
		return nil
	}
	purged, err := j.Bin.PurgeExpired(ctx, j.Retention)
	if err != nil {
		return fmt.Errorf("recycle bin purge job: %w", err)
	}
	if purged > 0 {
		j.Logger.Info("purged expired profiles", "deleted_rows", purged)
	}
	return nil
}
