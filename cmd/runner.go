package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/jonboulle/clockwork"
	"github.com/meetingmind/mm/internal/meetings"
	"github.com/meetingmind/mm/internal/models"
	"github.com/meetingmind/mm/internal/query"
	"github.com/meetingmind/mm/internal/repositories"
	"github.com/meetingmind/mm/internal/services"
	"github.com/meetingmind/mm/internal/session"
	"github.com/meetingmind/mm/internal/shared"
	"github.com/meetingmind/mm/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// The session store, query cache and database are created on first use by [Runner.bootstrap], so commands
// that only touch configuration never open them.
type Runner struct {
	config     *shared.Config
	configPath string
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
	clock      clockwork.Clock

	db       *sql.DB
	client   *services.Client
	api      *services.Client
	session  *session.Store
	cache    *query.Cache
	meetings *meetings.Queries
	exports  *repositories.ExportRunRepository
	exporter *tasks.Exporter
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
	Clock      clockwork.Clock
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: opts.Config.API.Timeout}
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
		clock:      opts.Clock,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, meetingsCommand, exportCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// SetLogger replaces the logger used by the runner and by everything it creates afterwards.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
}

// bootstrap opens local storage, restores the persisted session and resolves it against the service.
// It runs once per process.
func (r *Runner) bootstrap(ctx context.Context) error {
	if r.session != nil {
		return nil
	}

	db, err := shared.OpenDatabase(r.config.Database)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	r.db = db
	r.exports = repositories.NewExportRunRepository(db)

	r.client = services.NewClient(r.config.API.BaseURL, services.ClientOpts{
		HTTPClient:        r.httpClient,
		Logger:            r.logger,
		RequestsPerSecond: r.config.API.RequestsPerSecond,
		Timeout:           r.config.API.Timeout,
	})

	r.session = session.New(session.Opts{
		Auth:          r.client,
		Secrets:       repositories.NewCredentialFile(r.config.CredentialsPath()),
		Snapshots:     repositories.NewSnapshotRepository(db),
		Logger:        r.logger,
		Clock:         r.clock,
		Namespace:     r.config.Session.Namespace,
		StrictRefresh: r.config.Session.StrictRefresh,
	})
	if err := r.session.Restore(); err != nil {
		r.logger.Warn("failed to restore session", "err", err)
	}
	r.session.RefreshIdentity(ctx)

	r.cache = query.New(query.Opts{
		Logger:  r.logger,
		Clock:   r.clock,
		GCTime:  r.config.Cache.GCTime,
		Context: ctx,
	})
	r.api = r.client.WithTokenSource(r.session.TokenSource(ctx))
	r.meetings = meetings.New(r.cache, r.api, models.ListOptions{})
	r.exporter = tasks.NewExporter(tasks.ExporterOpts{
		Source: r.meetings,
		Runs:   r.exports,
		Logger: r.logger,
		Clock:  r.clock,
	})
	return nil
}

// requireSession bootstraps and fails unless the session is authenticated.
func (r *Runner) requireSession(ctx context.Context) error {
	if err := r.bootstrap(ctx); err != nil {
		return err
	}
	if !r.session.Authenticated() {
		return fmt.Errorf("%w: run 'mm auth login' first", shared.ErrNotAuthenticated)
	}
	return nil
}

// Close releases everything bootstrap opened.
func (r *Runner) Close() error {
	if r.cache != nil {
		r.cache.Close()
	}
	if r.session != nil {
		r.session.Close()
	}
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}

// describeError turns the error taxonomy into a short hint for the user.
func describeError(err error) string {
	switch {
	case errors.Is(err, shared.ErrNotAuthenticated), errors.Is(err, shared.ErrTokenExpired):
		return "not signed in; run 'mm auth login'"
	case errors.Is(err, shared.ErrInvalidCredentials):
		return "the service rejected the credentials"
	case errors.Is(err, shared.ErrNotFound):
		return "not found"
	case errors.Is(err, shared.ErrServiceUnavailable):
		return "the service is unreachable"
	case errors.Is(err, shared.ErrInvalidInput), errors.Is(err, shared.ErrMissingArgument), errors.Is(err, shared.ErrInvalidArgument),
		errors.Is(err, shared.ErrInvalidFlag):
		return "invalid input"
	default:
		return ""
	}
}
