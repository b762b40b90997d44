package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/creamcroissant/fpbrowser/internal/clientstate"
	"github.com/creamcroissant/fpbrowser/internal/orchestrator"
	"github.com/creamcroissant/fpbrowser/internal/tui"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch the interactive profile dashboard",
	Long:  "Launch a terminal UI that lists profiles, follows live status changes and manages the recycle bin and proxies.",
	RunE:  runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, args []string) error {
	logger := newLogger(true)

	prefs, err := clientstate.Load(cfg.UI.StateFile, clientstate.Defaults(cfg.UI))
	if err != nil {
		logger.Warn("client state unreadable, using defaults", "path", cfg.UI.StateFile, "error", err)
	}

	c := newClient(logger)
	// TUI 自己弹出 y/n 确认，编排器这一层不再重复询问
	o := orchestrator.New(c, orchestrator.Options{
		Confirmer:   orchestrator.AlwaysConfirm,
		BinPageSize: prefs.PageSize,
		Logger:      logger,
	})
	defer o.Close()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	go func() {
		if err := o.Run(ctx, c); err != nil && ctx.Err() == nil {
			logger.Error("event stream stopped", "error", err)
		}
	}()

	p := tea.NewProgram(tui.NewModel(ctx, o, prefs), tea.WithAltScreen())
	final, err := p.Run()
	if err != nil {
		return fmt.Errorf("run tui: %w", err)
	}
	if m, ok := final.(tui.Model); ok && cfg.UI.StateFile != "" {
		if err := clientstate.Save(cfg.UI.StateFile, m.Prefs()); err != nil {
			logger.Warn("save client state failed", "error", err)
		}
	}
	return nil
}
