package main

import (
	"database/sql"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/akhilbawari/taskpal/internal/repositories"
	"github.com/akhilbawari/taskpal/internal/services"
	"github.com/akhilbawari/taskpal/internal/shared"
	"github.com/akhilbawari/taskpal/internal/tasks"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	db         *sql.DB
	users      *repositories.UserRepository
	taskRepo   *repositories.TaskRepository
	calendar   *services.GoogleCalendarService
	syncer     *tasks.CalendarSyncer
	engine     *tasks.TaskEngine
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	DB         *sql.DB
	Calendar   *services.GoogleCalendarService
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration.
//
// The database connection is opened lazily on first use so that commands
// like setup can run before the database file exists.
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
		opts.HTTPClient = http.DefaultClient
	}

	r := &Runner{
		config:     opts.Config,
		calendar:   opts.Calendar,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
	}

	if opts.DB != nil {
		r.wire(opts.DB)
	}

	return r
}

// wire builds repositories, the calendar syncer and the task engine on top
// of an open database connection.
func (r *Runner) wire(db *sql.DB) {
	r.db = db
	r.users = repositories.NewUserRepository(db)
	r.taskRepo = repositories.NewTaskRepository(db)

	var provider services.CalendarProvider
	if r.calendar != nil {
		provider = r.calendar
	}

	timeout := time.Duration(r.config.Sync.RequestTimeout) * time.Second
	r.syncer = tasks.NewCalendarSyncer(provider, r.taskRepo, shared.WithLogger(r.logger, "component", "sync"), timeout)

	syncer := r.syncer
	if r.calendar == nil {
		syncer = nil
	}
	r.engine = tasks.NewTaskEngine(r.taskRepo, r.users, syncer, shared.WithLogger(r.logger, "component", "engine"))
}

// ensure opens the configured database if no connection exists yet.
func (r *Runner) ensure() error {
	if r.db != nil {
		return nil
	}

	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)
	r.wire(db)
	return nil
}

// requireCalendar returns the Google service or an error when credentials
// were never configured.
func (r *Runner) requireCalendar() (*services.GoogleCalendarService, error) {
	if r.calendar == nil {
		return nil, fmt.Errorf("%w: Google client_id and client_secret must be set in config.toml", shared.ErrMissingCredentials)
	}
	return r.calendar, nil
}

// SetLogger swaps the runner's logger, rewiring the engine so task and
// sync logs follow.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
	if r.db != nil {
		r.wire(r.db)
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, taskCommand, calendarCommand, userCommand, dbCommand, serveCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := shared.MarshalJSON(data, pretty)
	if err != nil {
		return err
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
