package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/creamcroissant/fpbrowser/internal/config"
	"github.com/creamcroissant/fpbrowser/internal/support/logging"
)

// Build info - injected via ldflags
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

var (
	configPath string
	cfg        *config.Config
)

var rootCmd = &cobra.Command{
	Use:           "fpbrowser",
	Short:         "Fingerprint browser profile manager",
	Long:          `fpbrowser manages isolated browser profiles, their proxies and the local backend that launches them.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print build information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "fpbrowser %s (commit %s, built %s)\n", Version, Commit, BuildTime)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default: ./config.yaml, $HOME/.fpbrowser, /etc/fpbrowser)")
	rootCmd.AddCommand(versionCmd)
}

// newLogger 按配置构建日志器。quiet 为真且未配置日志文件时丢弃输出，供 TUI 与一次性命令使用。
func newLogger(quiet bool) *slog.Logger {
	if quiet && cfg.Log.File == "" {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	opts := logging.Options{
		Level:      cfg.Log.SlogLevel(),
		Format:     cfg.Log.Format,
		AddSource:  cfg.Log.AddSource,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	}
	if quiet {
		opts.Level = max(opts.Level, slog.LevelWarn)
	}
	return logging.New(opts)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
