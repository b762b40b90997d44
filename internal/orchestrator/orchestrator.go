package orchestrator

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/creamcroissant/fpbrowser/internal/events"
)

// Options 配置 Orchestrator。
type Options struct {
	Confirmer   Confirmer
	BinPageSize int
	Logger      *slog.Logger
}

// Orchestrator 组合客户端的全部状态与编排器。
type Orchestrator struct {
	State    *AppState
	Profiles *Lifecycle
	Bin      *RecycleBin
	Proxies  *ProxyValidator
	Catalog  *Catalog

	logger *slog.Logger
}

// New 基于后端命令面组装客户端状态。
func New(backend Backend, opts Options) *Orchestrator {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	state := NewAppState()
	profiles := NewLifecycle(backend, state, opts.Logger)
	return &Orchestrator{
		State:    state,
		Profiles: profiles,
		Bin: NewRecycleBin(backend, RecycleBinOptions{
			Confirmer: opts.Confirmer,
			PageSize:  opts.BinPageSize,
			OnRestore: profiles.Refresh,
			Logger:    opts.Logger,
		}),
		Proxies: NewProxyValidator(backend, state, opts.Logger),
		Catalog: NewCatalog(backend, state, opts.Logger),
		logger:  opts.Logger.With("component", "orchestrator"),
	}
}

// Sync 全量刷新窗口、分组、标签与代理缓存。
func (o *Orchestrator) Sync(ctx context.Context) error {
	return errors.Join(o.Profiles.Refresh(ctx), o.Catalog.Refresh(ctx))
}

// HandleEvent 按事件前缀分发给对应的对账逻辑。
func (o *Orchestrator) HandleEvent(ctx context.Context, evt events.Event) error {
	name := string(evt.Name)
	switch {
	case strings.HasPrefix(name, "profile:"), strings.HasPrefix(name, "browser:"):
		return o.Profiles.HandleEvent(ctx, evt)
	case strings.HasPrefix(name, "proxy:"), strings.HasPrefix(name, "tag:"):
		return o.Catalog.HandleEvent(ctx, evt)
	}
	return nil
}

// Run 订阅事件流直到 ctx 取消；每次（重新）连接后先全量同步，补上断线期间错过的事件。
func (o *Orchestrator) Run(ctx context.Context, sub Subscriber) error {
	return sub.Subscribe(ctx, func() {
		if err := o.Sync(ctx); err != nil {
			o.logger.Warn("sync after connect failed", "error", err)
		}
	}, func(evt events.Event) {
		if err := o.HandleEvent(ctx, evt); err != nil {
			o.logger.Warn("apply event failed", "event", evt.Name, "error", err)
		}
	})
}

// Close 停止状态更新队列。
func (o *Orchestrator) Close() {
	o.State.Close()
}
