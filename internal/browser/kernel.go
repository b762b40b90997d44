package browser

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/creamcroissant/fpbrowser/internal/cache"
)

const versionFile = "VERSION"

// KernelInstalled 检查内核可执行文件是否存在。
func (l *ProcessLauncher) KernelInstalled() bool {
	info, err := os.Stat(l.BinaryPath())
	return err == nil && !info.IsDir()
}

// Kernel 提供内核目录的查询与卸载，版本号缓存在 go-cache 中。
type Kernel struct {
	launcher *ProcessLauncher
	cache    cache.Store
}

// NewKernel 绑定启动器与缓存。
func NewKernel(launcher *ProcessLauncher, store cache.Store) *Kernel {
	return &Kernel{launcher: launcher, cache: store.Namespace("kernel")}
}

func (k *Kernel) Installed() bool {
	return k.launcher.KernelInstalled()
}

// Version 读取内核目录下的 VERSION 文件。
func (k *Kernel) Version(ctx context.Context) (string, error) {
	if v, ok := k.cache.GetString(ctx, versionFile); ok {
		return v, nil
	}
	if !k.Installed() {
		return "", ErrKernelNotInstalled
	}
	raw, err := os.ReadFile(filepath.Join(k.launcher.opts.KernelDir, versionFile))
	if errors.Is(err, os.ErrNotExist) {
		return "unknown", nil
	}
	if err != nil {
		return "", fmt.Errorf("read kernel version: %w", err)
	}
	v := strings.TrimSpace(string(raw))
	k.cache.Set(ctx, versionFile, v, 10*time.Minute)
	return v, nil
}

// Uninstall 删除内核目录；仍有浏览器运行时拒绝。
func (k *Kernel) Uninstall(ctx context.Context) error {
	if running := k.launcher.Running(); len(running) > 0 {
		return fmt.Errorf("%w: %d", ErrBrowsersRunning, len(running))
	}
	k.cache.Delete(ctx, versionFile)
	if err := os.RemoveAll(k.launcher.opts.KernelDir); err != nil {
		return fmt.Errorf("remove kernel dir: %w", err)
	}
	return nil
}
