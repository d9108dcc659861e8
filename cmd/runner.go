package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/nowplaying/internal/notify"
	"github.com/desertthunder/nowplaying/internal/repositories"
	"github.com/desertthunder/nowplaying/internal/services"
	"github.com/desertthunder/nowplaying/internal/shared"
	"github.com/desertthunder/nowplaying/internal/tasks"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	backend    services.Backend
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Backend    services.Backend
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
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
		opts.HTTPClient = http.DefaultClient
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		backend:    opts.Backend,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
	}
}

// SetLogger replaces the runner's logger.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, songsCommand, historyCommand, playlistCommand,
		followCommand, unfollowCommand, cacheCommand, playCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// library builds the workflow engine for one command. Toasts go to the log.
func (r *Runner) library(opts ...tasks.LibraryOption) (*tasks.Library, error) {
	if r.backend == nil {
		return nil, fmt.Errorf("%w: backend not configured", shared.ErrServiceUnavailable)
	}
	notifier := notify.New(r.config.Player.ToastDuration(), r.logger)
	return tasks.NewLibrary(r.backend, notifier, r.logger, opts...), nil
}

// openTrackCache opens the local cache. The returned func closes it.
func (r *Runner) openTrackCache() (*repositories.TrackRepository, func(), error) {
	db, err := shared.OpenCache(r.config.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open track cache: %w", err)
	}
	return repositories.NewTrackRepository(db), func() { db.Close() }, nil
}

// cachedLibrary is [Runner.library] with fetched tracks written to the local cache when it can be opened.
func (r *Runner) cachedLibrary() (*tasks.Library, func(), error) {
	var opts []tasks.LibraryOption
	closer := func() {}

	if repo, closeCache, err := r.openTrackCache(); err != nil {
		r.logger.Warn("track cache disabled", "error", err)
	} else {
		opts = append(opts, tasks.WithTrackCache(repositories.NewTrackCacheAdapter(repo)))
		closer = closeCache
	}

	lib, err := r.library(opts...)
	if err != nil {
		closer()
		return nil, nil, err
	}
	return lib, closer, nil
}

// userID returns the --user flag, falling back to the configured user.
func (r *Runner) userID(cmd *cli.Command) (string, error) {
	if id := cmd.String("user"); id != "" {
		return id, nil
	}
	if id := r.config.Player.UserID; id != "" {
		return id, nil
	}
	return "", fmt.Errorf("%w: pass --user or set player.user_id in config.toml", shared.ErrMissingArgument)
}

// pageSize returns the --limit flag, falling back to the configured page size.
func (r *Runner) pageSize(cmd *cli.Command) int {
	if limit := cmd.Int("limit"); limit > 0 {
		return limit
	}
	if r.config.Player.PageSize > 0 {
		return r.config.Player.PageSize
	}
	return 50
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
