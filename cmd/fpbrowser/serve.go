package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/creamcroissant/fpbrowser/internal/bootstrap"
	"github.com/creamcroissant/fpbrowser/internal/job"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the local backend",
	Long:  "Start the HTTP command surface and event stream that launches browsers and stores profiles.",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := newLogger(false)

	backend, err := bootstrap.BuildBackend(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer backend.Close()

	scheduler := job.NewScheduler(logger, job.WithMetrics(backend.Recorder))
	if err := job.RegisterDefaults(scheduler, *cfg, job.Services{
		Proxies:  backend.Services.Proxies,
		Bin:      backend.Services.RecycleBin,
		Browsers: backend.Services.Browsers,
	}, logger); err != nil {
		return err
	}
	scheduler.Start()

	server := bootstrap.NewHTTPServer(cfg.HTTP, backend.Handler)
	go func() {
		logger.Info("http server starting", "addr", cfg.HTTP.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	stopCtx := scheduler.Stop()
	<-stopCtx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	logger.Info("shutting down http server")
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	// 关闭后端前停掉仍在运行的浏览器进程
	if running := backend.Launcher.Running(); len(running) > 0 {
		res := backend.Services.Browsers.BatchStop(shutdownCtx, running)
		logger.Info("browsers stopped on shutdown", "stopped", res.SuccessCount, "failed", res.FailureCount)
	}
	logger.Info("server exited cleanly")
	return nil
}
