package main

import (
	"bufio"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/recipebox/internal/metrics"
	"github.com/desertthunder/recipebox/internal/prefs"
	"github.com/desertthunder/recipebox/internal/recipes"
	"github.com/desertthunder/recipebox/internal/repositories"
	"github.com/desertthunder/recipebox/internal/services"
	"github.com/desertthunder/recipebox/internal/session"
	"github.com/desertthunder/recipebox/internal/shared"
	"github.com/desertthunder/recipebox/internal/tasks"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// Components are wired lazily by [Runner.Before] once the config file and local storage are known.
type Runner struct {
	config      *shared.Config
	configPath  string
	httpClient  *http.Client
	logger      *log.Logger
	output      io.Writer
	input       *bufio.Reader
	kv          repositories.KeyValueStore
	db          *sql.DB
	registry    *prometheus.Registry
	recorder    *metrics.Collector
	dumpMetrics bool

	client   *services.Client
	auth     *services.AuthService
	session  *session.Controller
	repo     *recipes.Repository
	workflow *tasks.Workflow
	prefs    *prefs.Store
}

// RunnerOpts contains configuration options for creating a Runner.
//
// Config and KV, when set, take precedence over the --config flag and the configured storage path.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
	Input      io.Reader
	KV         repositories.KeyValueStore
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Input == nil {
		opts.Input = os.Stdin
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
		input:      bufio.NewReader(opts.Input),
		kv:         opts.KV,
		registry:   prometheus.NewRegistry(),
	}
}

// SetLogger replaces the logger used by the runner and every component wired after the call.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, recipesCommand, prefsCommand, healthCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// app builds the root command.
func (r *Runner) app() *cli.Command {
	return &cli.Command{
		Name:    "recipebox",
		Usage:   "Collect recipes from the web and keep them in your recipe server",
		Version: "0.3.0",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
			&cli.BoolFlag{
				Name:  "metrics",
				Usage: "Print client metrics after the command finishes",
			},
			&cli.BoolFlag{
				Name:  "ephemeral",
				Usage: "Keep the session and preferences in memory only",
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Enable debug logging",
			},
		},
		Before:   r.Before,
		After:    r.After,
		Commands: r.register(),
	}
}

// Before loads configuration, opens local storage and wires the client components.
func (r *Runner) Before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	r.dumpMetrics = cmd.Bool("metrics")

	if r.config == nil {
		path := cmd.String("config")
		r.configPath = path
		r.config = shared.DefaultConfig()
		if _, err := os.Stat(path); err == nil {
			config, err := shared.LoadConfig(path)
			if err != nil {
				return ctx, err
			}
			r.config = config
		}
	}

	level := r.config.LogLevel()
	if cmd.Bool("verbose") {
		level = log.DebugLevel
	}
	shared.SetLogLevel(r.logger, level)

	if r.kv == nil {
		if cmd.Bool("ephemeral") {
			r.kv = repositories.NewMemoryKV()
		} else {
			db, err := shared.OpenStorage(ctx, r.config.Storage)
			if err != nil {
				return ctx, fmt.Errorf("failed to open local storage: %w", err)
			}
			r.db = db
			r.kv = repositories.NewSQLiteKV(db)
		}
	}

	r.wire()
	return ctx, nil
}

// After prints collected metrics when requested and releases local storage.
func (r *Runner) After(ctx context.Context, cmd *cli.Command) error {
	var err error
	if r.dumpMetrics {
		r.writePlain("\n")
		err = metrics.Dump(r.output, r.registry)
	}
	if r.db != nil {
		if cerr := r.db.Close(); cerr != nil {
			r.logger.Warn("failed to close local storage", "error", cerr)
		}
		r.db = nil
	}
	return err
}

// wire builds the client components from the loaded config and key/value store.
//
// It may be called again after [Runner.SetLogger]; metrics keep accumulating in the same registry.
func (r *Runner) wire() {
	if r.recorder == nil {
		r.recorder = metrics.NewCollector(r.registry)
	}
	recorder := r.recorder

	r.client = services.NewClient(services.ClientOpts{
		BaseURL:           r.config.API.BaseURL,
		HTTPClient:        r.httpClient,
		Timeout:           r.config.API.Timeout(),
		RequestsPerSecond: r.config.API.RequestsPerSecond,
		Burst:             r.config.API.Burst,
		Logger:            r.logger,
	})
	r.auth = services.NewAuthService(r.client)
	api := services.NewRecipeAPI(r.client)

	r.session = session.NewController(session.ControllerOpts{
		Tokens:   session.NewTokenStore(r.kv, r.logger),
		Auth:     r.auth,
		Logger:   r.logger,
		Recorder: recorder,
	})
	r.repo = recipes.NewRepository(recipes.RepositoryOpts{
		API:      api,
		Session:  r.session,
		Logger:   r.logger,
		Recorder: recorder,
	})
	r.workflow = tasks.NewWorkflow(tasks.WorkflowOpts{
		API:      api,
		Repo:     r.repo,
		Session:  r.session,
		Logger:   r.logger,
		Recorder: recorder,
	})
	r.prefs = prefs.NewStore(r.kv, r.logger)
}

// prompt asks for a line of input when value is empty.
func (r *Runner) prompt(label, value string) (string, error) {
	if value != "" {
		return value, nil
	}

	r.writePlain("%s: ", label)
	line, err := r.input.ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("%w: %s", shared.ErrMissingArgument, strings.ToLower(label))
	}
	return strings.TrimSpace(line), nil
}

// confirm asks a yes/no question; anything but y or yes is a no.
func (r *Runner) confirm(question string) bool {
	r.writePlain("%s [y/N]: ", question)
	line, _ := r.input.ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	default:
		return false
	}
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
