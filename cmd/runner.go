package main

import (
	"bufio"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/equipx/internal/formatter"
	"github.com/desertthunder/equipx/internal/notify"
	"github.com/desertthunder/equipx/internal/repositories"
	"github.com/desertthunder/equipx/internal/services"
	"github.com/desertthunder/equipx/internal/session"
	"github.com/desertthunder/equipx/internal/shared"
	"github.com/desertthunder/equipx/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config    *shared.Config
	client    *services.Client
	sessions  *session.Manager
	engine    *tasks.LendingEngine
	db        *sql.DB
	ownDB     bool
	stored    *repositories.SessionRepository
	snapshots *repositories.SnapshotRepository
	toasts    *notify.Queue
	logger    *log.Logger
	output    io.Writer
	input     *bufio.Reader
	profile   string
	now       func() time.Time
}

// RunnerOpts contains configuration options for creating a Runner.
//
// When Client is nil it is built from the configuration by [Runner.Init].
type RunnerOpts struct {
	Config *shared.Config
	Client *services.Client
	DB     *sql.DB
	Logger *log.Logger
	Output io.Writer
	Input  io.Reader
	Now    func() time.Time
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
	if opts.Input == nil {
		opts.Input = os.Stdin
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	r := &Runner{
		config: opts.Config,
		logger: opts.Logger,
		output: opts.Output,
		input:  bufio.NewReader(opts.Input),
		now:    opts.Now,
		toasts: notify.NewQueue(notify.QueueOpts{
			TTL: opts.Config.ToastTTL(),
			Max: opts.Config.Notifications.Max,
			Now: opts.Now,
		}),
	}
	if opts.DB != nil {
		r.useDatabase(opts.DB, false)
	}
	if opts.Client != nil {
		r.profile = r.config.Profile(opts.Client.BaseURL())
		r.setClient(opts.Client)
	}
	return r
}

// Init loads the configuration named by --config and builds the API client,
// keeping the session token in the sqlite database.
//
// Runs as the root command's Before hook; a Runner created with a client is left as is.
func (r *Runner) Init(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	verbose := cmd.Bool("verbose")
	if verbose {
		shared.SetLogLevel(r.logger, log.DebugLevel)
	}
	if r.client != nil {
		return ctx, nil
	}

	if path := cmd.String("config"); path != "" {
		if _, err := os.Stat(path); err == nil {
			config, err := shared.LoadConfig(path)
			if err != nil {
				return ctx, err
			}
			r.config = config
		} else {
			r.logger.Debug("config file not found, using defaults", "path", path)
		}
	}
	if !verbose {
		shared.SetLogLevel(r.logger, shared.ParseLogLevel(r.config.Log.Level))
	}

	baseURL := r.config.ResolveBaseURL(cmd.String("base-url"))
	r.profile = r.config.Profile(baseURL)

	if r.db == nil {
		db, err := shared.OpenDatabase(r.config.Database)
		if err != nil {
			r.logger.Warn("session storage unavailable, the login will not persist", "error", err)
		} else {
			r.useDatabase(db, true)
		}
	}

	opts := session.ManagerOpts{Logger: r.logger, Now: r.now}
	if r.stored != nil {
		opts.Store = r.stored
	}

	r.setClient(services.NewClient(services.ClientOpts{
		BaseURL:   baseURL,
		Sessions:  session.NewManager(opts),
		Timeout:   r.config.Timeout(),
		RateLimit: r.config.API.RateLimit,
		Logger:    r.logger,
	}))
	r.logger.Debug("client ready", "api", baseURL, "profile", r.profile)
	return ctx, nil
}

// Close releases the database opened by [Runner.Init].
func (r *Runner) Close(ctx context.Context, cmd *cli.Command) error {
	if r.db != nil && r.ownDB {
		return r.db.Close()
	}
	return nil
}

func (r *Runner) useDatabase(db *sql.DB, own bool) {
	r.db = db
	r.ownDB = own
	r.stored = repositories.NewSessionRepository(db, r.profile)
	r.snapshots = repositories.NewSnapshotRepository(db)
}

func (r *Runner) setClient(c *services.Client) {
	r.client = c
	r.sessions = c.Sessions()
	if r.stored != nil {
		r.stored = r.stored.ForProfile(r.profile)
	}
	r.engine = tasks.NewLendingEngine(c, c, tasks.EngineOpts{
		Workers:   r.config.Export.Workers,
		RateLimit: r.config.API.RateLimit,
		Logger:    r.logger,
		Now:       r.now,
	})
}

// SetLogger replaces the runner's logger.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, profileCommand, equipmentCommand, loansCommand, reservationsCommand,
		adminCommand, exportCommand, cacheCommand, apiCommand, serveCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// requireAdmin fails unless the stored session carries the ADMIN role.
func (r *Runner) requireAdmin(ctx context.Context) error {
	sess, err := r.sessions.Current(ctx)
	if err != nil {
		return err
	}
	if !sess.IsAdmin() {
		return fmt.Errorf("%w: %s is not an administrator", shared.ErrForbidden, sess.Username())
	}
	return nil
}

// adminOnly wraps an action with [Runner.requireAdmin].
func (r *Runner) adminOnly(action cli.ActionFunc) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		if err := r.requireAdmin(ctx); err != nil {
			return err
		}
		return action(ctx, cmd)
	}
}

// notify pushes a toast and prints it.
func (r *Runner) notify(kind notify.Kind, format string, args ...any) error {
	t := r.toasts.Push(kind, fmt.Sprintf(format, args...))

	icon := "•"
	switch t.Kind {
	case notify.Success:
		icon = "✓"
	case notify.Error:
		icon = "✗"
	case notify.Warning:
		icon = "!"
	}
	return r.writePlain("%s %s\n", icon, t.Message)
}

// confirm asks a yes/no question on the runner's input. Anything but y/yes is a no.
func (r *Runner) confirm(question string) bool {
	r.writePlain("%s [y/N] ", question)
	line, err := r.input.ReadString('\n')
	if err != nil && line == "" {
		r.writePlain("\n")
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

// prompt reads one line from the runner's input.
func (r *Runner) prompt(label string) (string, error) {
	r.writePlain("%s: ", label)
	line, err := r.input.ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("%w: %s", shared.ErrMissingArgument, strings.ToLower(label))
	}
	return strings.TrimSpace(line), nil
}

// today is the current date at midnight UTC, comparable with [models.ParseDate].
func (r *Runner) today() time.Time {
	now := r.now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

// idArg parses a positive integer positional argument.
func idArg(cmd *cli.Command, name string) (int, error) {
	raw := strings.TrimSpace(cmd.StringArg(name))
	if raw == "" {
		return 0, fmt.Errorf("%w: %s", shared.ErrMissingArgument, name)
	}
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %s must be a positive number, got %q", shared.ErrInvalidArgument, name, raw)
	}
	return id, nil
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

// writeTable renders t as a bordered table, or a short notice when it is empty.
func (r *Runner) writeTable(title string, t formatter.Table) error {
	if t.Len() == 0 {
		return r.writePlain("No %s found.\n", strings.ToLower(title))
	}
	data, err := formatter.ToText(title, t)
	if err != nil {
		return err
	}
	if _, err := r.output.Write(data); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

// writeList prints raw as JSON when --json is set, otherwise the table.
func (r *Runner) writeList(cmd *cli.Command, title string, t formatter.Table, raw any) error {
	if cmd.Bool("json") {
		return r.writeJSON(raw, cmd.Bool("pretty"))
	}
	return r.writeTable(title, t)
}

// writeProgress prints updates until progress is closed, then closes done.
func (r *Runner) writeProgress(progress <-chan tasks.ProgressUpdate, done chan<- struct{}) {
	defer close(done)
	for update := range progress {
		if update.Total > 0 && update.Step > 0 {
			r.writePlain("[%d/%d] %s\n", update.Step, update.Total, update.Message)
		} else {
			r.writePlain("%s\n", update.Message)
		}
	}
}

// cachedList fetches a list and stores a snapshot of it, or with offline set
// returns the last snapshot instead of calling the API.
func cachedList[T any](ctx context.Context, r *Runner, dataset string, offline bool, fetch func(context.Context) ([]T, error)) ([]T, error) {
	if offline {
		if r.snapshots == nil {
			return nil, fmt.Errorf("%w: no local database for offline data", shared.ErrServiceUnavailable)
		}
		snap, err := r.snapshots.Latest(ctx, r.profile, dataset)
		if err != nil {
			return nil, fmt.Errorf("no offline copy of %s: %w", dataset, err)
		}
		var items []T
		if err := snap.Decode(&items); err != nil {
			return nil, err
		}
		r.logger.Info("showing offline data", "dataset", dataset, "age", snap.Age(r.now()).Round(time.Second))
		return items, nil
	}

	items, err := fetch(ctx)
	if err != nil {
		return nil, err
	}
	if r.snapshots != nil {
		if _, err := r.snapshots.Save(ctx, r.profile, dataset, items, len(items)); err != nil {
			r.logger.Warn("failed to save snapshot", "dataset", dataset, "error", err)
		}
	}
	return items, nil
}

func jsonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Output raw JSON",
		},
		&cli.BoolFlag{
			Name:  "pretty",
			Usage: "Pretty-print JSON output",
		},
	}
}

func offlineFlag() cli.Flag {
	return &cli.BoolFlag{
		Name:  "offline",
		Usage: "Show the last fetched copy instead of calling the API",
	}
}

func yesFlag() cli.Flag {
	return &cli.BoolFlag{Name: "yes", Aliases: []string{"y"}, Usage: "Skip the confirmation"}
}

func idArgument(name string) []cli.Argument {
	return []cli.Argument{&cli.StringArg{Name: name}}
}
