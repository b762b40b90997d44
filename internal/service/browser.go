// 文件路径: internal/service/browser.go
// 模块说明: 浏览器启动/关闭的状态机。同一窗口的操作通过按 id 加锁串行执行。
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/creamcroissant/fpbrowser/internal/async"
	"github.com/creamcroissant/fpbrowser/internal/browser"
	"github.com/creamcroissant/fpbrowser/internal/domain"
	"github.com/creamcroissant/fpbrowser/internal/events"
	"github.com/creamcroissant/fpbrowser/internal/metrics"
	"github.com/creamcroissant/fpbrowser/internal/repository"
)

const batchBrowserConcurrency = 4

// BrowserService drives the profile status machine around the process launcher.
type BrowserService interface {
	Launch(ctx context.Context, id string) (*domain.Profile, error)
	Stop(ctx context.Context, id string) error
	BatchLaunch(ctx context.Context, ids []string) domain.BatchResult
	BatchStop(ctx context.Context, ids []string) domain.BatchResult
	Reap(ctx context.Context) (int, error)
	ResetStale(ctx context.Context) (int64, error)
	KernelInstalled() bool
	KernelVersion(ctx context.Context) (string, error)
	UninstallKernel(ctx context.Context) error
}

// Kernel is the subset of browser.Kernel the service needs.
type Kernel interface {
	Installed() bool
	Version(ctx context.Context) (string, error)
	Uninstall(ctx context.Context) error
}

// BrowserOptions 配置启动超时。
type BrowserOptions struct {
	LaunchTimeout time.Duration
}

type browserService struct {
	profiles repository.ProfileRepository
	launcher browser.Launcher
	kernel   Kernel
	locks    *async.KeyedMutex
	events   events.Publisher
	metrics  *metrics.Recorder
	logger   *slog.Logger
	timeout  time.Duration
	now      func() time.Time
}

// NewBrowserService wires launcher, kernel and status persistence.
func NewBrowserService(store repository.Store, launcher browser.Launcher, kernel Kernel, opts BrowserOptions, publisher events.Publisher, recorder *metrics.Recorder, logger *slog.Logger) BrowserService {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.LaunchTimeout <= 0 {
		opts.LaunchTimeout = 60 * time.Second
	}
	return &browserService{
		profiles: store.Profiles(),
		launcher: launcher,
		kernel:   kernel,
		locks:    async.NewKeyedMutex(),
		events:   publisherOrNoop(publisher),
		metrics:  recorder,
		logger:   logger.With("component", "browser_service"),
		timeout:  opts.LaunchTimeout,
		now:      time.Now,
	}
}

// Launch 启动浏览器。已运行的窗口直接返回成功。
// 启动不随调用方取消而中断，只受 LaunchTimeout 约束。
func (s *browserService) Launch(ctx context.Context, id string) (*domain.Profile, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	profile, err := s.profiles.FindByID(ctx, id)
	if err != nil {
		return nil, mapRepoError(err, ErrProfileNotFound)
	}
	if profile.Status == domain.StatusRunning && s.launcher.Alive(id) {
		return profile, nil
	}

	lctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
	defer cancel()

	if err := s.setStatus(lctx, id, domain.StatusLaunching, nil); err != nil {
		return nil, err
	}
	started := s.now()
	_, err = s.launcher.Launch(lctx, *profile, s.progress(id))
	s.metrics.BrowserLaunched(err == nil, s.now().Sub(started).Seconds())
	if err != nil {
		s.fail(lctx, id, err)
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	openedAt := s.now().UTC()
	if err := s.setStatus(lctx, id, domain.StatusRunning, &openedAt); err != nil {
		return nil, err
	}
	s.metrics.SetRunning(len(s.launcher.Running()))
	s.logger.Info("browser launched", "profile_id", id)

	profile.Status = domain.StatusRunning
	profile.LastOpenTime = &openedAt
	return profile, nil
}

// Stop 关闭浏览器。已停止的窗口直接返回成功。
func (s *browserService) Stop(ctx context.Context, id string) error {
	unlock := s.locks.Lock(id)
	defer unlock()

	profile, err := s.profiles.FindByID(ctx, id)
	if err != nil {
		return mapRepoError(err, ErrProfileNotFound)
	}
	if profile.Status == domain.StatusStopped && !s.launcher.Alive(id) {
		return nil
	}

	sctx := context.WithoutCancel(ctx)
	if err := s.setStatus(sctx, id, domain.StatusStopping, nil); err != nil {
		return err
	}
	if err := s.launcher.Stop(sctx, id); err != nil && !errors.Is(err, browser.ErrNotRunning) {
		s.fail(sctx, id, err)
		return fmt.Errorf("stop browser: %w", err)
	}
	if err := s.setStatus(sctx, id, domain.StatusStopped, nil); err != nil {
		return err
	}
	s.metrics.SetRunning(len(s.launcher.Running()))
	s.logger.Info("browser stopped", "profile_id", id)
	return nil
}

func (s *browserService) BatchLaunch(ctx context.Context, ids []string) domain.BatchResult {
	return s.parallel(ctx, ids, func(ctx context.Context, id string) error {
		_, err := s.Launch(ctx, id)
		return err
	})
}

func (s *browserService) BatchStop(ctx context.Context, ids []string) domain.BatchResult {
	return s.parallel(ctx, ids, s.Stop)
}

// Reap 把进程已退出但仍标记为 running 的窗口置为 stopped。
func (s *browserService) Reap(ctx context.Context) (int, error) {
	running, err := s.profiles.List(ctx, repository.ProfileListFilter{Statuses: []domain.ProfileStatus{domain.StatusRunning}})
	if err != nil {
		return 0, err
	}
	reaped := 0
	for _, p := range running {
		if s.reapOne(ctx, p.ID) {
			reaped++
		}
	}
	if reaped > 0 {
		s.metrics.SetRunning(len(s.launcher.Running()))
		s.logger.Info("reaped exited browsers", "count", reaped)
	}
	return reaped, nil
}

func (s *browserService) reapOne(ctx context.Context, id string) bool {
	unlock := s.locks.Lock(id)
	defer unlock()

	current, err := s.profiles.FindByID(ctx, id)
	if err != nil || current.Status != domain.StatusRunning || s.launcher.Alive(id) {
		return false
	}
	return s.setStatus(ctx, id, domain.StatusStopped, nil) == nil
}

// ResetStale 启动时把上次遗留的过渡状态归零，进程表此时为空。
func (s *browserService) ResetStale(ctx context.Context) (int64, error) {
	return s.profiles.ResetTransient(ctx)
}

func (s *browserService) KernelInstalled() bool {
	return s.kernel != nil && s.kernel.Installed()
}

func (s *browserService) KernelVersion(ctx context.Context) (string, error) {
	if s.kernel == nil {
		return "", browser.ErrKernelNotInstalled
	}
	return s.kernel.Version(ctx)
}

func (s *browserService) UninstallKernel(ctx context.Context) error {
	if s.kernel == nil {
		return browser.ErrKernelNotInstalled
	}
	return s.kernel.Uninstall(ctx)
}

func (s *browserService) setStatus(ctx context.Context, id string, status domain.ProfileStatus, lastOpen *time.Time) error {
	if err := s.profiles.UpdateStatus(ctx, id, status, lastOpen); err != nil {
		return mapRepoError(err, ErrProfileNotFound)
	}
	s.events.Emit(events.ProfileStatusChanged, events.StatusChangedPayload{ProfileID: id, Status: string(status)})
	return nil
}

func (s *browserService) fail(ctx context.Context, id string, cause error) {
	s.logger.Error("browser operation failed", "profile_id", id, "error", cause)
	if err := s.setStatus(ctx, id, domain.StatusError, nil); err != nil {
		s.logger.Warn("persist error status failed", "profile_id", id, "error", err)
	}
	s.events.Emit(events.BrowserError, events.BrowserErrorPayload{ProfileID: id, Error: cause.Error()})
}

func (s *browserService) progress(id string) browser.ProgressFunc {
	total := len(events.LaunchSteps)
	return func(step events.LaunchStep, message string) {
		s.events.Emit(events.BrowserLaunchProgress, events.LaunchProgressPayload{
			ProfileID: id,
			Step:      step,
			Index:     slices.Index(events.LaunchSteps, step) + 1,
			Total:     total,
			Message:   message,
		})
	}
}

// parallel 以有限并发执行批量操作，结果顺序与入参一致。
func (s *browserService) parallel(ctx context.Context, ids []string, fn func(context.Context, string) error) domain.BatchResult {
	ids = dedupe(ids)
	items := make([]domain.BatchItem, len(ids))
	var g errgroup.Group
	g.SetLimit(batchBrowserConcurrency)
	for i, id := range ids {
		g.Go(func() error {
			if err := fn(ctx, id); err != nil {
				items[i] = domain.Fail(id, err)
				return nil
			}
			items[i] = domain.Succeed(id)
			return nil
		})
	}
	_ = g.Wait()
	return domain.NewBatchResult(items)
}
