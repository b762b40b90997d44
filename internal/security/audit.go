// 文件路径: internal/security/audit.go
// 模块说明: 记录登录、注销、许可证激活等安全事件。
package security

import (
	"context"
	"log/slog"
	"time"
)

// Event 表示一次安全相关的行为。
type Event struct {
	Kind     string
	Actor    string
	Success  bool
	Reason   string
	Occurred time.Time
}

// Recorder 记录安全事件。
type Recorder interface {
	Record(ctx context.Context, event Event)
}

// LoggerRecorder 将审计事件写入 slog.Logger。
type LoggerRecorder struct {
	logger *slog.Logger
}

// NewLoggerRecorder 返回写入指定 logger 的记录器。
func NewLoggerRecorder(logger *slog.Logger) *LoggerRecorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggerRecorder{logger: logger.With("component", "audit")}
}

func (r *LoggerRecorder) Record(ctx context.Context, event Event) {
	if event.Occurred.IsZero() {
		event.Occurred = time.Now().UTC()
	}
	level := slog.LevelInfo
	if !event.Success {
		level = slog.LevelWarn
	}
	r.logger.Log(ctx, level, "audit event",
		"kind", event.Kind,
		"actor", event.Actor,
		"success", event.Success,
		"reason", event.Reason,
		"occurred", event.Occurred.Format(time.RFC3339Nano),
	)
}
