// 文件路径: internal/browser/launcher.go
// 模块说明: 启动和停止浏览器内核进程，每个环境一个独立的用户数据目录。
package browser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v3/process"

	"github.com/creamcroissant/fpbrowser/internal/domain"
	"github.com/creamcroissant/fpbrowser/internal/events"
)

var (
	// ErrKernelNotInstalled 表示内核可执行文件不存在。
	ErrKernelNotInstalled = errors.New("browser kernel not installed / 浏览器内核未安装")
	// ErrNotRunning 表示该环境没有被跟踪的进程。
	ErrNotRunning = errors.New("browser not running / 浏览器未运行")
	// ErrBrowsersRunning 表示仍有浏览器运行，拒绝卸载内核。
	ErrBrowsersRunning = errors.New("browsers still running / 仍有浏览器在运行")
)

// ProgressFunc 在启动的每个步骤被调用。
type ProgressFunc func(step events.LaunchStep, message string)

// Launcher 管理浏览器进程。
type Launcher interface {
	Launch(ctx context.Context, profile domain.Profile, progress ProgressFunc) (int, error)
	Stop(ctx context.Context, profileID string) error
	Alive(profileID string) bool
	Running() []string
}

// Options 配置进程启动器。
type Options struct {
	KernelDir string
	Binary    string
	DataRoot  string
	StopGrace time.Duration
}

type tracked struct {
	pid    int
	exited chan struct{}
}

// ProcessLauncher 使用 os/exec 启动内核，gopsutil 负责存活检测与终止。
type ProcessLauncher struct {
	opts   Options
	logger *slog.Logger

	mu    sync.Mutex
	procs map[string]*tracked
}

var _ Launcher = (*ProcessLauncher)(nil)

// NewProcessLauncher 创建启动器。
func NewProcessLauncher(opts Options, logger *slog.Logger) *ProcessLauncher {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.StopGrace <= 0 {
		opts.StopGrace = 5 * time.Second
	}
	return &ProcessLauncher{
		opts:   opts,
		logger: logger.With("component", "browser"),
		procs:  make(map[string]*tracked),
	}
}

// BinaryPath 返回内核可执行文件的完整路径。
func (l *ProcessLauncher) BinaryPath() string {
	return filepath.Join(l.opts.KernelDir, l.opts.Binary)
}

// Launch 依次执行启动步骤并返回进程 pid。已在运行的环境直接返回现有 pid。
func (l *ProcessLauncher) Launch(ctx context.Context, profile domain.Profile, progress ProgressFunc) (int, error) {
	if progress == nil {
		progress = func(events.LaunchStep, string) {}
	}
	if pid, ok := l.alivePID(profile.ID); ok {
		return pid, nil
	}

	progress(events.StepCheckConfig, "")
	if !l.KernelInstalled() {
		return 0, ErrKernelNotInstalled
	}
	dataDir := filepath.Join(l.opts.DataRoot, profile.ID)
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return 0, fmt.Errorf("create user data dir: %w", err)
	}

	progress(events.StepSyncExtensions, "")
	args := []string{"--user-data-dir=" + dataDir, "--no-first-run", "--no-default-browser-check"}
	if profile.Preferences != nil && len(profile.Preferences.Extensions) > 0 {
		extDir := filepath.Join(dataDir, "Extensions")
		if err := os.MkdirAll(extDir, 0o755); err != nil {
			return 0, fmt.Errorf("create extensions dir: %w", err)
		}
	}

	progress(events.StepSetupProxy, "")
	if flag := proxyFlag(profile.Proxy); flag != "" {
		args = append(args, flag)
	}

	progress(events.StepSyncFingerprint, "")
	if err := writeFingerprint(dataDir, profile.Fingerprint); err != nil {
		return 0, err
	}

	progress(events.StepSyncCache, "")
	if profile.Preferences != nil && profile.Preferences.ClearCacheOnStart {
		if err := os.RemoveAll(filepath.Join(dataDir, "Default", "Cache")); err != nil {
			l.logger.Warn("clear cache failed", "profile_id", profile.ID, "error", err)
		}
	}
	if url := startupURL(profile.Preferences); url != "" {
		args = append(args, url)
	}

	if err := ctx.Err(); err != nil {
		return 0, err
	}
	progress(events.StepLaunching, "")
	cmd := exec.Command(l.BinaryPath(), args...)
	cmd.Dir = dataDir
	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("start browser: %w", err)
	}

	t := &tracked{pid: cmd.Process.Pid, exited: make(chan struct{})}
	l.mu.Lock()
	l.procs[profile.ID] = t
	l.mu.Unlock()

	go func() {
		err := cmd.Wait()
		close(t.exited)
		l.mu.Lock()
		if cur, ok := l.procs[profile.ID]; ok && cur == t {
			delete(l.procs, profile.ID)
		}
		l.mu.Unlock()
		l.logger.Info("browser exited", "profile_id", profile.ID, "pid", t.pid, "error", err)
	}()

	progress(events.StepDone, strconv.Itoa(t.pid))
	l.logger.Info("browser launched", "profile_id", profile.ID, "pid", t.pid)
	return t.pid, nil
}

// Stop 先发送终止信号，超过宽限期后强杀。
func (l *ProcessLauncher) Stop(ctx context.Context, profileID string) error {
	l.mu.Lock()
	t, ok := l.procs[profileID]
	l.mu.Unlock()
	if !ok {
		return ErrNotRunning
	}
	select {
	case <-t.exited:
		return ErrNotRunning
	default:
	}

	proc, err := process.NewProcessWithContext(ctx, int32(t.pid))
	if err != nil {
		// 进程已经不存在
		return nil
	}
	if err := proc.TerminateWithContext(ctx); err != nil {
		l.logger.Warn("terminate failed, killing", "profile_id", profileID, "pid", t.pid, "error", err)
		return l.kill(ctx, proc, t)
	}

	select {
	case <-t.exited:
		return nil
	case <-time.After(l.opts.StopGrace):
		return l.kill(ctx, proc, t)
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (l *ProcessLauncher) kill(ctx context.Context, proc *process.Process, t *tracked) error {
	if err := proc.KillWithContext(ctx); err != nil {
		if running, _ := proc.IsRunningWithContext(ctx); running {
			return fmt.Errorf("kill browser %d: %w", t.pid, err)
		}
	}
	select {
	case <-t.exited:
	case <-time.After(time.Second):
	}
	return nil
}

// Alive 报告该环境的进程是否仍在运行。
func (l *ProcessLauncher) Alive(profileID string) bool {
	_, ok := l.alivePID(profileID)
	return ok
}

func (l *ProcessLauncher) alivePID(profileID string) (int, bool) {
	l.mu.Lock()
	t, ok := l.procs[profileID]
	l.mu.Unlock()
	if !ok {
		return 0, false
	}
	select {
	case <-t.exited:
		return 0, false
	default:
	}
	exists, err := process.PidExists(int32(t.pid))
	if err != nil || !exists {
		return 0, false
	}
	return t.pid, true
}

// Running 返回所有被跟踪且存活的环境 id。
func (l *ProcessLauncher) Running() []string {
	l.mu.Lock()
	ids := make([]string, 0, len(l.procs))
	for id := range l.procs {
		ids = append(ids, id)
	}
	l.mu.Unlock()

	out := ids[:0]
	for _, id := range ids {
		if l.Alive(id) {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}

func proxyFlag(p *domain.ProxyConfig) string {
	if p == nil || p.Type == domain.ProxyDirect || p.Host == "" || p.Port == 0 {
		return ""
	}
	scheme := string(p.Type)
	if scheme == "" {
		scheme = string(domain.ProxySOCKS5)
	}
	return fmt.Sprintf("--proxy-server=%s://%s:%d", scheme, p.Host, p.Port)
}

func startupURL(p *domain.Preferences) string {
	if p == nil || p.StartupPage != "url" {
		return ""
	}
	return p.StartupURL
}

func writeFingerprint(dataDir string, fp domain.Fingerprint) error {
	raw, err := json.MarshalIndent(fp, "", "  ")
	if err != nil {
		return fmt.Errorf("encode fingerprint: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dataDir, "fingerprint.json"), raw, 0o600); err != nil {
		return fmt.Errorf("write fingerprint: %w", err)
	}
	return nil
}
