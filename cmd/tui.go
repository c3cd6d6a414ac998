package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/meetingmind/mm/internal/models"
	"github.com/meetingmind/mm/internal/shared"
	"github.com/meetingmind/mm/internal/tasks"
	"github.com/meetingmind/mm/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive meeting browser.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger(r.config.Log.File)
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	shared.SetLogLevel(fileLogger, shared.ParseLogLevel(r.config.Log.Level))
	r.SetLogger(fileLogger)

	if err := r.requireSession(ctx); err != nil {
		return err
	}

	model := ui.NewModel(ctx, ui.Opts{
		Meetings: r.meetings,
		Exporter: r.exporter,
		Session:  r.session.Current(),
		ExportOpts: tasks.ExportOpts{
			Format:     models.ExportFormat(r.config.Export.Format),
			NumWorkers: r.config.Export.Workers,
			RateLimit:  r.config.Export.RateLimit,
		},
	})
	defer model.Close()

	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
