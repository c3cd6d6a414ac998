package tasks

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/jonboulle/clockwork"
	"github.com/meetingmind/mm/internal/formatter"
	"github.com/meetingmind/mm/internal/models"
	"github.com/meetingmind/mm/internal/shared"
	"golang.org/x/time/rate"
)

// ManifestName is the file written next to the exported transcripts.
const ManifestName = "export_manifest.json"

// MeetingSource reads meetings. [meetings.Queries] implements it.
type MeetingSource interface {
	List(ctx context.Context) ([]models.Meeting, error)
	Get(ctx context.Context, id string) (*models.MeetingDetail, error)
	Transcripts(ctx context.Context, id string) ([]models.Transcript, error)
}

// RunRecorder stores a summary of each export. [repositories.ExportRunRepository] implements it.
type RunRecorder interface {
	Create(run *models.ExportRun) error
}

// ExportOpts contains configuration for a transcript export.
type ExportOpts struct {
	Format     models.ExportFormat // markdown, csv, txt or json
	OutputDir  string              // Base output directory (default: meetingmind_export_{epoch})
	NumWorkers int                 // Concurrent workers (default: 4, max 10)
	RateLimit  float64             // Meeting reads per second (default: 5)
}

// MeetingExportResult is the outcome for one meeting.
type MeetingExportResult struct {
	MeetingID string
	Title     string
	File      string
	Success   bool
	Error     error

	index int
}

// ExportResult summarizes an export.
type ExportResult struct {
	RunID           string
	Total           int
	Succeeded       int
	Failed          int
	OutputDirectory string
	ManifestPath    string
	Results         []MeetingExportResult
}

type exportJob struct {
	index int
	doc   *formatter.Document
}

// Exporter writes meeting transcripts to disk.
type Exporter struct {
	source MeetingSource
	runs   RunRecorder
	logger *log.Logger
	clock  clockwork.Clock
}

// ExporterOpts configures an [Exporter]. Runs may be nil.
type ExporterOpts struct {
	Source MeetingSource
	Runs   RunRecorder
	Logger *log.Logger
	Clock  clockwork.Clock
}

// NewExporter creates an [Exporter].
func NewExporter(opts ExporterOpts) *Exporter {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	return &Exporter{
		source: opts.Source,
		runs:   opts.Runs,
		logger: shared.WithLogger(opts.Logger, "component", "export"),
		clock:  opts.Clock,
	}
}

// Export exports the transcripts of ids, or of every listed meeting when ids is empty.
//
// Reads are paced by a rate limiter and rendering is spread over a worker pool. A meeting that cannot be read or
// written is recorded as failed and the export continues. When ctx is cancelled the meetings not yet started are
// skipped and ctx's error is returned with the partial result.
func (e *Exporter) Export(ctx context.Context, prog chan<- ProgressUpdate, ids []string, opts ExportOpts) (*ExportResult, error) {
	if e.source == nil {
		return nil, fmt.Errorf("%w: meeting source not initialized", shared.ErrServiceUnavailable)
	}
	if opts.Format == "" {
		opts.Format = models.FormatMarkdown
	}
	if !opts.Format.Valid() {
		return nil, fmt.Errorf("%w: unknown export format %q", shared.ErrInvalidArgument, opts.Format)
	}
	if opts.OutputDir == "" {
		opts.OutputDir = fmt.Sprintf("meetingmind_export_%d", e.clock.Now().Unix())
	}
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = 4
	}
	if opts.NumWorkers > 10 {
		opts.NumWorkers = 10
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 5.0
	}

	if len(ids) == 0 {
		sendProgress(prog, listMeetingsUpdate())
		meetings, err := e.source.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list meetings: %w", err)
		}
		for _, m := range meetings {
			ids = append(ids, m.ID)
		}
	}

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	result := &ExportResult{
		Total:           len(ids),
		OutputDirectory: opts.OutputDir,
		Results:         make([]MeetingExportResult, 0, len(ids)),
	}

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)

	jobs := make(chan exportJob, len(ids))
	results := make(chan MeetingExportResult, len(ids))

	var wg sync.WaitGroup
	for i := 0; i < opts.NumWorkers; i++ {
		wg.Add(1)
		go e.exportWorker(ctx, &wg, jobs, results, opts)
	}

	go func() {
		defer close(jobs)
		for i, id := range ids {
			if err := limiter.Wait(ctx); err != nil {
				return
			}

			sendProgress(prog, fetchMeetingUpdate(i+1, len(ids), id))
			doc, err := e.read(ctx, id)
			if err != nil {
				results <- MeetingExportResult{
					MeetingID: id,
					Title:     fmt.Sprintf("Unknown (%s)", id),
					Error:     fmt.Errorf("failed to fetch meeting: %w", err),
					index:     i,
				}
				continue
			}

			jobs <- exportJob{index: i, doc: doc}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	completed := 0
	for res := range results {
		completed++
		result.Results = append(result.Results, res)

		if res.Success {
			result.Succeeded++
			sendProgress(prog, exportCompletedUpdate(completed, len(ids), res))
		} else {
			result.Failed++
			sendProgress(prog, exportFailedUpdate(completed, len(ids), res))
			e.logger.Warn("meeting export failed", "id", res.MeetingID, "err", res.Error)
		}
	}

	sort.Slice(result.Results, func(i, j int) bool {
		return result.Results[i].index < result.Results[j].index
	})

	manifestPath := filepath.Join(opts.OutputDir, ManifestName)
	if err := formatter.WriteManifest(e.manifest(result, opts.Format), manifestPath); err != nil {
		return result, fmt.Errorf("export completed but failed to write manifest: %w", err)
	}
	result.ManifestPath = manifestPath
	sendProgress(prog, manifestUpdate(manifestPath))

	e.record(result, opts.Format)

	if err := ctx.Err(); err != nil {
		return result, err
	}
	return result, nil
}

// read loads a meeting and its transcript into a document.
func (e *Exporter) read(ctx context.Context, id string) (*formatter.Document, error) {
	detail, err := e.source.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	segments, err := e.source.Transcripts(ctx, id)
	if err != nil {
		return nil, err
	}
	return formatter.NewDocument(detail, segments), nil
}

// exportWorker is a worker goroutine that writes documents from the jobs channel.
func (e *Exporter) exportWorker(
	ctx context.Context,
	wg *sync.WaitGroup,
	jobs <-chan exportJob,
	results chan<- MeetingExportResult,
	opts ExportOpts,
) {
	defer wg.Done()

	for job := range jobs {
		res := MeetingExportResult{
			MeetingID: job.doc.Meeting.ID,
			Title:     job.doc.Meeting.Title,
			index:     job.index,
		}

		if err := ctx.Err(); err != nil {
			res.Error = err
			results <- res
			continue
		}

		path, err := formatter.WriteExport(job.doc, opts.Format, opts.OutputDir)
		if err != nil {
			res.Error = fmt.Errorf("%s export failed: %w", opts.Format, err)
		} else {
			res.File = path
			res.Success = true
		}
		results <- res
	}
}

func (e *Exporter) manifest(result *ExportResult, format models.ExportFormat) *formatter.Manifest {
	m := &formatter.Manifest{
		Format:     string(format),
		ExportedAt: e.clock.Now().UTC(),
		Total:      result.Total,
		Succeeded:  result.Succeeded,
		Failed:     result.Failed,
		Entries:    result.Entries(),
	}
	return m
}

// Entries describes each meeting of the result the way the manifest lists it. File names are relative to
// the output directory.
func (r *ExportResult) Entries() []formatter.ManifestEntry {
	entries := make([]formatter.ManifestEntry, 0, len(r.Results))
	for _, res := range r.Results {
		entry := formatter.ManifestEntry{MeetingID: res.MeetingID, Title: res.Title, Status: "success"}
		if res.Success {
			entry.File = filepath.Base(res.File)
		} else {
			entry.Status = "failed"
			if res.Error != nil {
				entry.Error = res.Error.Error()
			}
		}
		entries = append(entries, entry)
	}
	return entries
}

// record stores the run. Failures are logged and never fail the export.
func (e *Exporter) record(result *ExportResult, format models.ExportFormat) {
	if e.runs == nil {
		return
	}
	run := &models.ExportRun{
		Format:       format,
		OutputDir:    result.OutputDirectory,
		Total:        result.Total,
		Succeeded:    result.Succeeded,
		Failed:       result.Failed,
		ManifestPath: result.ManifestPath,
		CreatedAt:    e.clock.Now(),
	}
	if err := e.runs.Create(run); err != nil {
		e.logger.Warn("failed to record export run", "err", err)
		return
	}
	result.RunID = run.ID
}
