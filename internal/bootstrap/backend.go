// 文件路径: internal/bootstrap/backend.go
// 模块说明: 按配置组装后端：数据库、事件总线、指标、浏览器进程、代理探测与全部服务。
package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/creamcroissant/fpbrowser/internal/api"
	"github.com/creamcroissant/fpbrowser/internal/browser"
	"github.com/creamcroissant/fpbrowser/internal/config"
	"github.com/creamcroissant/fpbrowser/internal/events"
	"github.com/creamcroissant/fpbrowser/internal/metrics"
	"github.com/creamcroissant/fpbrowser/internal/proxycheck"
	"github.com/creamcroissant/fpbrowser/internal/repository"
	"github.com/creamcroissant/fpbrowser/internal/repository/sqlite"
	"github.com/creamcroissant/fpbrowser/internal/service"
)

// Backend 是 serve 命令运行所需的全部组件。
type Backend struct {
	DB       *sql.DB
	Store    repository.Store
	Bus      *events.Bus
	Recorder *metrics.Recorder
	Infra    *Infrastructure
	Launcher *browser.ProcessLauncher
	Services api.Services
	Handler  http.Handler
}

// BuildBackend 打开并迁移数据库，然后组装服务与路由。
func BuildBackend(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Backend, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := OpenMigratedSQLite(cfg.DB.Path)
	if err != nil {
		return nil, err
	}
	infra, err := BuildInfrastructure(ctx, cfg, db, logger)
	if err != nil {
		db.Close()
		return nil, err
	}
	logger.Info("jwt signing key resolved", "source", infra.KeySource)

	store := sqlite.NewStore(db)
	bus := events.NewBus(logger.With("component", "events"))
	recorder := metrics.New(cfg.Metrics.Namespace, cfg.Metrics.Buckets)

	launcher := browser.NewProcessLauncher(browser.Options{
		KernelDir: cfg.Browser.KernelDir,
		Binary:    cfg.Browser.Binary,
		DataRoot:  cfg.Browser.DataRoot,
		StopGrace: cfg.Browser.StopGrace,
	}, logger)
	kernel := browser.NewKernel(launcher, infra.Cache)
	checker := proxycheck.New(proxycheck.Options{
		Endpoint:    cfg.ProxyCheck.IPAPIURL,
		Timeout:     cfg.ProxyCheck.Timeout,
		Concurrency: cfg.ProxyCheck.Concurrency,
	}, logger)

	services := api.Services{
		Profiles:   service.NewProfileService(store, infra.Sanitizer, bus, logger),
		RecycleBin: service.NewRecycleBinService(store, cfg.Browser.DataRoot, bus, recorder, logger),
		Browsers: service.NewBrowserService(store, launcher, kernel, service.BrowserOptions{
			LaunchTimeout: cfg.Browser.LaunchTimeout,
		}, bus, recorder, logger),
		Groups:     service.NewGroupService(store, infra.Sanitizer, logger),
		Tags:       service.NewTagService(store, infra.Sanitizer, bus, logger),
		Proxies:    service.NewProxyService(store, checker, infra.Cache, cfg.ProxyCheck.ResultTTL, infra.Sanitizer, bus, recorder, logger),
		Extensions: service.NewExtensionService(store, infra.Sanitizer),
		Auth:       service.NewAuthService(store, infra.Hasher, infra.Token, infra.RateLimiter, infra.Audit, infra.Cache),
		License:    service.NewLicenseService(store, infra.Audit),
	}

	// 上次退出时遗留的 launching/running 等状态在进程表为空时没有意义。
	if n, err := services.Browsers.ResetStale(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("reset stale statuses: %w", err)
	} else if n > 0 {
		logger.Info("stale profile statuses reset", "count", n)
	}

	handler := api.NewRouter(logger, services, api.Options{
		Bus:      bus,
		Recorder: recorder,
		Metrics:  cfg.Metrics,
	})

	return &Backend{
		DB:       db,
		Store:    store,
		Bus:      bus,
		Recorder: recorder,
		Infra:    infra,
		Launcher: launcher,
		Services: services,
		Handler:  handler,
	}, nil
}

// Close 关闭数据库连接。
func (b *Backend) Close() error {
	if b == nil || b.DB == nil {
		return nil
	}
	return b.DB.Close()
}
