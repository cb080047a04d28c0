package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/cleared-dev/tally/internal/activity"
	"github.com/cleared-dev/tally/internal/buildinfo"
	"github.com/cleared-dev/tally/internal/config"
	"github.com/cleared-dev/tally/internal/logger"
	"github.com/cleared-dev/tally/internal/remote"
	"github.com/cleared-dev/tally/internal/session"
)

// app holds what subcommands share once the root command has loaded
// configuration.
type app struct {
	configPath string
	envPath    string

	cfg     *config.Config
	log     zerolog.Logger
	logFile io.Closer
	now     func() time.Time
}

// Execute runs the CLI and closes the log file setup opened, whether or
// not the command succeeded.
func Execute() error {
	a := &app{now: time.Now}
	defer a.close()
	return a.rootCommand().Execute()
}

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	a := &app{now: time.Now}
	return a.rootCommand()
}

func (a *app) rootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "tally",
		Short:   "Sales, purchases and accounts against a ledger service",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", buildinfo.Version, buildinfo.Commit, buildinfo.Date),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			a.close()
		},
	}

	rootCmd.PersistentFlags().StringVar(&a.configPath, "config", "tally.yaml", "path to tally.yaml")
	rootCmd.PersistentFlags().StringVar(&a.envPath, "env", ".env", "optional dotenv file")

	rootCmd.AddCommand(
		newInitCommand(),
		newTotalsCommand(a),
		newDraftCommand(a),
		newAccountsCommand(a),
		newReverseCommand(a),
		newItemsCommand(a),
		newActivityCommand(a),
		newStubCommand(a),
	)

	return rootCmd
}

// setup loads .env, tally.yaml and the environment, in that order, and
// installs the logger. A missing tally.yaml means defaults.
func (a *app) setup() error {
	if err := config.LoadEnv(a.envPath); err != nil {
		return err
	}

	cfg, err := config.Load(a.configPath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		cfg = config.Default()
	case err != nil:
		return err
	}
	if err := config.ApplyEnv(cfg); err != nil {
		return fmt.Errorf("applying environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	a.close()
	a.logFile, err = logger.Setup(logger.LogConfig{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	if err != nil {
		return fmt.Errorf("setting up logging: %w", err)
	}

	a.cfg = cfg
	a.log = logger.WithComponent("cli")
	return nil
}

func (a *app) close() {
	if a.logFile == nil {
		return
	}
	if err := a.logFile.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "closing log file: %v\n", err)
	}
	a.logFile = nil
}

func (a *app) client() (*remote.Client, error) {
	return remote.NewClient(remote.Options{
		BaseURL:  a.cfg.Service.URL,
		Token:    a.cfg.Service.Token,
		Timeout:  a.cfg.Service.Timeout,
		PageSize: a.cfg.Search.PageSize,
		Invalidator: session.InvalidatorFunc(func(reason string) {
			a.log.Warn().Str("reason", reason).Msg("session rejected, sign in again")
		}),
	})
}

// signIn resolves the configured token into a session and attaches it
// to ctx.
func (a *app) signIn(ctx context.Context, c *remote.Client) (context.Context, session.Session, error) {
	token := strings.TrimSpace(a.cfg.Service.Token)
	if token == "" {
		return nil, session.Session{}, fmt.Errorf("no token configured: set %s or service.token", config.EnvToken)
	}
	sess, err := c.FetchSession(ctx, token)
	if err != nil {
		return nil, session.Session{}, fmt.Errorf("signing in: %w", err)
	}
	a.log.Debug().Str("user", sess.UserID()).Msg("signed in")
	return session.WithContext(ctx, sess), sess, nil
}

// record appends e to the activity log. Failures are logged, not
// returned; the ledger change already happened.
func (a *app) record(e activity.Entry) {
	if a.cfg.ActivityLog == "" {
		return
	}
	e.Timestamp = a.now()
	if err := activity.Append(a.cfg.ActivityLog, []activity.Entry{e}); err != nil {
		a.log.Warn().Err(err).Str("path", a.cfg.ActivityLog).Msg("activity not recorded")
	}
}
