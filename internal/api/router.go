// 文件路径: internal/api/router.go
// 模块说明: 后端 HTTP 入口。命令统一走 POST /api/v1/invoke/{command}，事件走 SSE。
package api

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/creamcroissant/fpbrowser/internal/api/middleware"
	"github.com/creamcroissant/fpbrowser/internal/config"
	"github.com/creamcroissant/fpbrowser/internal/events"
	"github.com/creamcroissant/fpbrowser/internal/metrics"
	"github.com/creamcroissant/fpbrowser/internal/service"
)

// Services 汇总命令面依赖的服务。未提供的服务不会注册对应命令。
type Services struct {
	Profiles   service.ProfileService
	RecycleBin service.RecycleBinService
	Browsers   service.BrowserService
	Groups     service.GroupService
	Tags       service.TagService
	Proxies    service.ProxyService
	Extensions service.ExtensionService
	Auth       service.AuthService
	License    service.LicenseService
}

// Options 是路由的可选依赖。
type Options struct {
	Bus      *events.Bus
	Recorder *metrics.Recorder
	Metrics  config.MetricsConfig
	// MaxBodyBytes 默认 10MB。
	MaxBodyBytes int64
}

// NewRouter 构建 chi 路由。
func NewRouter(logger *slog.Logger, services Services, opts Options) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	dispatcher := NewDispatcher()
	RegisterCommands(dispatcher, services)

	r := chi.NewRouter()
	r.Use(
		chiMiddleware.RequestID,
		chiMiddleware.RealIP,
	)

	if opts.Metrics.Enabled && opts.Recorder != nil {
		mCfg := middleware.DefaultMetricsConfig()
		if opts.Metrics.Namespace != "" {
			mCfg.Namespace = opts.Metrics.Namespace
		}
		if opts.Metrics.Subsystem != "" {
			mCfg.Subsystem = opts.Metrics.Subsystem
		}
		if len(opts.Metrics.Buckets) > 0 {
			mCfg.Buckets = opts.Metrics.Buckets
		}
		r.Use(middleware.NewMetrics(opts.Recorder.Registry(), mCfg).Middleware)
	}

	r.Use(
		middleware.CORS(middleware.DefaultCORSConfig()),
		middleware.BodyLimit(opts.MaxBodyBytes),
		middleware.StructuredLogger(middleware.LoggingConfig{
			Logger:        logger,
			SlowThreshold: 500 * time.Millisecond,
			SkipPaths:     []string{"/health", "/healthz", "/metrics", "/api/v1/events"},
		}),
		chiMiddleware.Recoverer,
		chiMiddleware.Compress(5),
	)

	health := func(w http.ResponseWriter, _ *http.Request) {
		respondJSON(w, http.StatusOK, map[string]any{
			"status": "ok",
			"ts":     time.Now().UTC().Format(time.RFC3339Nano),
		})
	}
	r.Get("/healthz", health)
	r.Get("/health", health)

	if opts.Metrics.Enabled && opts.Recorder != nil {
		r.Handle("/metrics", promhttp.HandlerFor(opts.Recorder.Registry(), promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(v1 chi.Router) {
		v1.Get("/commands", func(w http.ResponseWriter, _ *http.Request) {
			respondJSON(w, http.StatusOK, dispatcher.Names())
		})
		v1.With(withBearer).Post("/invoke/{command}", invokeHandler(dispatcher, opts.Recorder, logger))
		if opts.Bus != nil {
			v1.Handle("/events", &eventStream{bus: opts.Bus, logger: logger, heartbeat: sseHeartbeat})
		}
	})

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		logger.Warn("unmapped route hit", "method", req.Method, "path", req.URL.Path)
		respondJSON(w, http.StatusNotFound, ErrorBody{Error: "not found"})
	})

	return r
}

func invokeHandler(d *Dispatcher, recorder *metrics.Recorder, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		command := chi.URLParam(r, "command")
		start := time.Now()
		status := http.StatusOK
		defer func() {
			if d.Has(command) {
				recorder.CommandHandled(command, status, time.Since(start).Seconds())
			}
		}()

		params, err := io.ReadAll(r.Body)
		if err != nil {
			status = statusFor(err)
			respondError(w, status, err)
			return
		}
		if len(params) > 0 && !json.Valid(params) {
			status = http.StatusBadRequest
			respondError(w, status, ErrBadParams)
			return
		}

		result, err := d.Invoke(r.Context(), command, params)
		if err != nil {
			status = statusFor(err)
			if status >= http.StatusInternalServerError {
				logger.Error("command failed", "command", command, "error", err)
			}
			respondError(w, status, err)
			return
		}
		respondJSON(w, status, result)
	}
}
