package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/meetingmind/mm/internal/formatter"
	"github.com/meetingmind/mm/internal/models"
	"github.com/meetingmind/mm/internal/shared"
	"github.com/meetingmind/mm/internal/tasks"
	"github.com/urfave/cli/v3"
)

type exportView struct {
	RunID        string                    `json:"run_id"`
	Total        int                       `json:"total"`
	Succeeded    int                       `json:"succeeded"`
	Failed       int                       `json:"failed"`
	Directory    string                    `json:"output_directory"`
	ManifestPath string                    `json:"manifest_path"`
	Meetings     []formatter.ManifestEntry `json:"meetings"`
}

func newExportView(result *tasks.ExportResult) exportView {
	view := exportView{
		RunID:        result.RunID,
		Total:        result.Total,
		Succeeded:    result.Succeeded,
		Failed:       result.Failed,
		Directory:    result.OutputDirectory,
		ManifestPath: result.ManifestPath,
		Meetings:     result.Entries(),
	}
	return view
}

// formatFlag reads --format, falling back to def when the flag is empty.
func formatFlag(cmd *cli.Command, def models.ExportFormat) (models.ExportFormat, error) {
	format := def
	if f := cmd.String("format"); f != "" {
		format = models.ExportFormat(f)
	}
	if !format.Valid() {
		return "", fmt.Errorf("%w: --format must be one of markdown, csv, txt, json (got %q)", shared.ErrInvalidFlag, format)
	}
	return format, nil
}

// Export writes transcripts for the requested meetings, or for every meeting, plus a manifest.
func (r *Runner) Export(ctx context.Context, cmd *cli.Command) error {
	def := models.ExportFormat(r.config.Export.Format)
	if def == "" {
		def = models.FormatMarkdown
	}
	format, err := formatFlag(cmd, def)
	if err != nil {
		return err
	}

	opts := tasks.ExportOpts{
		Format:     format,
		OutputDir:  cmd.String("output"),
		NumWorkers: r.config.Export.Workers,
		RateLimit:  r.config.Export.RateLimit,
	}
	if cmd.IsSet("workers") {
		opts.NumWorkers = cmd.Int("workers")
	}
	if cmd.IsSet("rate") {
		opts.RateLimit = cmd.Float("rate")
	}

	if err := r.requireSession(ctx); err != nil {
		return err
	}

	quiet := cmd.Bool("json")
	progressCh := make(chan tasks.ProgressUpdate, 50)
	printed := make(chan struct{})
	go func() {
		defer close(printed)
		for update := range progressCh {
			if quiet {
				continue
			}
			switch update.Phase {
			case tasks.ListMeetings:
				r.writePlain("📋 %s\n", update.Message)
			case tasks.FetchMeeting:
				r.writePlain("📥 [%d/%d] %s\n", update.Step, update.Total, update.Message)
			case tasks.ExportTranscript:
				r.writePlain("💾 [%d/%d] %s\n", update.Step, update.Total, update.Message)
			case tasks.WriteManifest:
				r.writePlain("📝 %s\n", update.Message)
			}
		}
	}()

	result, err := r.exporter.Export(ctx, progressCh, cmd.StringSlice("id"), opts)
	close(progressCh)
	<-printed

	if result == nil {
		return err
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	if quiet {
		if jerr := r.writeJSON(newExportView(result), cmd.Bool("pretty")); jerr != nil {
			return jerr
		}
		return err
	}

	r.writePlainln("")
	r.writePlainHeader("Export Summary")
	r.writePlain("Run: %s\n", result.RunID)
	r.writePlain("Directory: %s\n", result.OutputDirectory)
	r.writePlain("Manifest: %s\n", result.ManifestPath)
	r.writePlain("Exported: %d/%d\n", result.Succeeded, result.Total)
	if result.Failed > 0 {
		r.writePlain("\n⚠ %d meetings failed:\n", result.Failed)
		for _, res := range result.Results {
			if !res.Success {
				r.writePlain("  • %s: %v\n", res.MeetingID, res.Error)
			}
		}
	}
	return err
}

// ExportHistory lists previous export runs recorded in the local database.
func (r *Runner) ExportHistory(ctx context.Context, cmd *cli.Command) error {
	if err := r.bootstrap(ctx); err != nil {
		return err
	}

	runs, err := r.exports.List(cmd.Int("limit"))
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(runs, cmd.Bool("pretty"))
	}
	if len(runs) == 0 {
		return r.writePlain("No exports yet\n")
	}

	r.writePlainHeader("Export History")
	for _, run := range runs {
		r.writePlain("%s  %-8s %3d/%-3d %s\n",
			run.CreatedAt.Local().Format(time.DateTime), run.Format, run.Succeeded, run.Total, run.OutputDir)
	}
	return nil
}
