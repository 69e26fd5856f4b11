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
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/pathwise/internal/cache"
	"github.com/desertthunder/pathwise/internal/models"
	"github.com/desertthunder/pathwise/internal/repositories"
	"github.com/desertthunder/pathwise/internal/services"
	"github.com/desertthunder/pathwise/internal/session"
	"github.com/desertthunder/pathwise/internal/shared"
	"github.com/desertthunder/pathwise/internal/tasks"
	"github.com/redis/go-redis/v9"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// The API stack (database, cookie jar, session manager, client, poller) is
// built on first use so commands like `setup config` work without it.
type Runner struct {
	config     *shared.Config
	configPath string
	logger     *log.Logger
	output     io.Writer
	errOutput  io.Writer
	httpClient *http.Client

	db       *sql.DB
	sessions *repositories.SessionRepository
	chats    *repositories.ChatRepository
	manager  *session.Manager
	client   *services.Client
	poller   *tasks.StatusPoller
	redis    *redis.Client

	mu             sync.Mutex
	route          string
	terminated     bool
	discardCookies bool
}

// RunnerOpts contains configuration options for creating a Runner.
//
// Client, Session and the repositories are normally left nil and wired from
// Config; tests inject them.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Logger     *log.Logger
	Output     io.Writer
	ErrOutput  io.Writer
	HTTPClient *http.Client
	Client     *services.Client
	Session    *session.Manager
	Sessions   *repositories.SessionRepository
	Chats      *repositories.ChatRepository
	Poller     *tasks.StatusPoller
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
	if opts.ErrOutput == nil {
		opts.ErrOutput = os.Stderr
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		logger:     opts.Logger,
		output:     opts.Output,
		errOutput:  opts.ErrOutput,
		httpClient: opts.HTTPClient,
		client:     opts.Client,
		manager:    opts.Session,
		sessions:   opts.Sessions,
		chats:      opts.Chats,
		poller:     opts.Poller,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, pathwayCommand, topicCommand, quizCommand, chatCommand, apiCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// Init is the root Before hook: it loads the config file and applies the log level.
func (r *Runner) Init(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if path := cmd.String("config"); path != "" {
		r.configPath = path
	}

	if r.configPath != "" {
		config, err := shared.LoadConfig(r.configPath)
		switch {
		case errors.Is(err, shared.ErrMissingConfig):
			r.logger.Debug("config file not found, using defaults", "path", r.configPath)
		case err != nil:
			return ctx, err
		default:
			r.config = config
		}
	}

	level := shared.ParseLogLevel(r.config.Log.Level)
	if cmd.Bool("verbose") {
		level = log.DebugLevel
	}
	shared.SetLogLevel(r.logger, level)
	return ctx, nil
}

// Close is the root After hook. It waits for background renewals, persists
// the cookie jar and releases connections.
func (r *Runner) Close(ctx context.Context, cmd *cli.Command) error {
	if r.manager != nil {
		r.manager.Wait()
	}

	r.mu.Lock()
	discard := r.terminated || r.discardCookies
	r.mu.Unlock()

	if r.sessions != nil && r.httpClient != nil && r.httpClient.Jar != nil && !discard {
		cookies, err := services.ExportCookies(r.httpClient.Jar, r.config.API.BaseURL)
		if err != nil {
			r.logger.Warn("could not export cookies", "error", err)
		} else if err := r.sessions.SaveCookies(cookies); err != nil {
			r.logger.Warn("could not save cookies", "error", err)
		}
	}

	if r.redis != nil {
		if err := r.redis.Close(); err != nil {
			r.logger.Debug("closing redis", "error", err)
		}
	}
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// api returns the request pipeline, wiring it on first use.
func (r *Runner) api() (*services.Client, error) {
	if r.client != nil {
		return r.client, nil
	}
	if err := r.wire(); err != nil {
		return nil, err
	}
	return r.client, nil
}

func (r *Runner) wire() error {
	cfg := r.config
	if err := cfg.Validate(); err != nil {
		return err
	}

	db, err := shared.OpenDatabase(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	r.db = db
	r.sessions = repositories.NewSessionRepository(db, cfg.API.BaseURL)
	r.chats = repositories.NewChatRepository(db)

	if r.httpClient == nil {
		if r.httpClient, err = services.NewHTTPClient(cfg.API.Timeout); err != nil {
			return err
		}
	}

	cookies, err := r.sessions.Cookies()
	if err != nil {
		r.logger.Warn("could not load saved cookies", "error", err)
	} else if err := services.ImportCookies(r.httpClient.Jar, cfg.API.BaseURL, cookies); err != nil {
		r.logger.Warn("could not restore cookies", "error", err)
	}

	refresher := services.NewRefresher(cfg.API.BaseURL, r.httpClient, r.logger)
	r.manager = session.NewManager(refresher, r.sessions, session.Options{
		Threshold:    cfg.Session.RenewalThreshold,
		Timeout:      cfg.Session.RenewalTimeout,
		PublicRoutes: cfg.Session.PublicRoutes,
		Route:        r.currentRoute,
		OnTerminated: r.onTerminated,
		Logger:       r.logger,
	})
	r.client = services.NewClient(cfg.API.BaseURL, r.httpClient, r.manager, r.logger)

	r.poller = tasks.NewStatusPoller(r.client, r.statusCache(), tasks.PollerOpts{
		Interval: cfg.Polling.Interval,
		TTL:      cfg.Polling.CacheTTL,
		Logger:   r.logger,
	})
	return nil
}

// statusCache builds the configured cache backend, falling back to memory
// when redis is unreachable.
func (r *Runner) statusCache() tasks.StatusCache {
	if r.config.Cache.Backend != shared.CacheRedis {
		return cache.NewMemory[string, models.PathwayStatus](nil)
	}

	store, client, err := cache.NewRedisFromURL[models.PathwayStatus](
		r.config.Cache.RedisURL,
		cache.WithKeyPrefix(r.config.Cache.KeyPrefix+":status"),
		cache.WithLogger(r.logger),
	)
	if err != nil {
		r.logger.Warn("redis cache unavailable, using memory", "error", err)
		return cache.NewMemory[string, models.PathwayStatus](nil)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		r.logger.Warn("redis cache unreachable, using memory", "url", r.config.Cache.RedisURL, "error", err)
		client.Close()
		return cache.NewMemory[string, models.PathwayStatus](nil)
	}

	r.redis = client
	return store
}

// on wraps action so the session layer knows which screen the user is on
// while it runs.
func (r *Runner) on(route string, action cli.ActionFunc) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		r.mu.Lock()
		r.route = route
		r.mu.Unlock()
		return action(ctx, cmd)
	}
}

func (r *Runner) currentRoute() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.route
}

// onTerminated is the session's redirect hook: the CLI cannot navigate, so it
// prints where the user needs to go.
func (r *Runner) onTerminated(redirect string) {
	r.mu.Lock()
	r.terminated = true
	r.mu.Unlock()

	r.logger.Debug("session terminated", "redirect", redirect)
	fmt.Fprintln(r.errOutput, "⚠ Your session has expired. Run `pathwise auth login` to sign in again.")
}

// Terminated reports whether the session ended during this invocation.
func (r *Runner) Terminated() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.terminated
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

func (r *Runner) writeBytes(b []byte) error {
	if _, err := r.output.Write(b); err != nil {
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
