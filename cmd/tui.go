package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/pathwise/internal/shared"
	"github.com/desertthunder/pathwise/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive pathway watcher.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger(r.config.Log.TUIFile)
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	fileLogger.SetLevel(r.logger.GetLevel())
	r.logger = fileLogger

	client, err := r.api()
	if err != nil {
		return err
	}
	poller, err := r.statusPoller()
	if err != nil {
		return err
	}

	model := ui.NewModel(ctx, client, poller)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}
	return nil
}
