package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/creamcroissant/fpbrowser/internal/client"
	"github.com/creamcroissant/fpbrowser/internal/orchestrator"
)

// newClient 按 backend 配置段构建命令面客户端。
func newClient(logger *slog.Logger) *client.Client {
	return client.New(client.Options{
		BaseURL:          backendURL(),
		Timeout:          cfg.Backend.Timeout,
		MaxAttempts:      cfg.Backend.RetryMaxAttempts,
		RetryDelay:       cfg.Backend.RetryDelay,
		RetryStatusCodes: cfg.Backend.RetryStatusCodes,
		Logger:           logger,
	})
}

func backendURL() string {
	if cfg.Backend.BaseURL != "" {
		return cfg.Backend.BaseURL
	}
	return "http://" + cfg.HTTP.Addr
}

// connect 构建编排器并做一次全量同步。
func connect(ctx context.Context, cmd *cobra.Command, assumeYes bool) (*orchestrator.Orchestrator, error) {
	logger := newLogger(true)
	confirmer := orchestrator.AlwaysConfirm
	if !assumeYes {
		confirmer = promptConfirmer(cmd.InOrStdin(), cmd.ErrOrStderr())
	}
	o := orchestrator.New(newClient(logger), orchestrator.Options{
		Confirmer:   confirmer,
		BinPageSize: cfg.UI.PageSize,
		Logger:      logger,
	})
	if err := o.Sync(ctx); err != nil {
		o.Close()
		return nil, fmt.Errorf("sync with backend at %s: %w", backendURL(), err)
	}
	return o, nil
}

// promptConfirmer 在终端上询问 y/N，非 y 一律视为拒绝。
func promptConfirmer(in io.Reader, out io.Writer) orchestrator.Confirmer {
	reader := bufio.NewReader(in)
	return orchestrator.ConfirmFunc(func(ctx context.Context, message string) (bool, error) {
		fmt.Fprintf(out, "%s [y/N]: ", message)
		line, err := reader.ReadString('\n')
		if err != nil && err != io.EOF {
			return false, err
		}
		answer := strings.ToLower(strings.TrimSpace(line))
		return answer == "y" || answer == "yes", nil
	})
}
