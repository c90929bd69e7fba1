package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"booklib/internal/library/config"
	"booklib/internal/library/repository"
	"booklib/internal/library/service"
	"booklib/internal/library/util"
)

// app carries the state shared by every command of one invocation.
type app struct {
	in     io.Reader
	out    io.Writer
	errOut io.Writer

	// Global flags
	driver     string
	dsn        string
	jsonOutput bool

	cfg   *config.Config
	runID string
}

// Execute runs the CLI with args and returns the process exit code.
func Execute(ctx context.Context, args []string, in io.Reader, out, errOut io.Writer) int {
	a := &app{in: in, out: out, errOut: errOut, runID: uuid.NewString()}

	root := a.rootCmd()
	root.SetArgs(args)
	root.SetIn(in)
	root.SetOut(out)
	root.SetErr(errOut)

	if err := root.ExecuteContext(ctx); err != nil {
		code, resp := cliError(err)
		resp.Error.RunID = a.runID
		a.printError(resp)
		return code
	}
	return exitOK
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "library",
		Short: "Book library manager",
		Long: `Manage a small book library stored in sqlite, postgres or mongo.

Every write is validated against the column rules (required name and author,
64 character limits, integer year, known status) and the storage engine
enforces the same rules again.

Configuration comes from the environment (DB_DRIVER, DB_DSN, MONGO_URI,
LOG_LEVEL, ...); --driver and --dsn override it.`,
		SilenceErrors:     true,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
	}

	root.PersistentFlags().StringVar(&a.driver, "driver", "", "Storage driver: sqlite, postgres or mongo")
	root.PersistentFlags().StringVar(&a.dsn, "dsn", "", "Database connection string (MONGO_URI for mongo)")
	root.PersistentFlags().BoolVar(&a.jsonOutput, "json", false, "Output in JSON format")

	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return fmt.Errorf("%w: %v", service.ErrBadRequest, err)
	})

	root.AddCommand(a.migrateCmd(), a.bookCmd())
	return root
}

// setup resolves the configuration and installs the logger before any subcommand runs.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg := config.FromEnv()
	if cmd.Flags().Changed("driver") {
		cfg.Driver = a.driver
	}
	if cmd.Flags().Changed("dsn") {
		if cfg.Driver == config.DriverMongo {
			cfg.MongoURI = a.dsn
		} else {
			cfg.DSN = a.dsn
		}
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("%w: %v", service.ErrBadRequest, err)
	}
	a.cfg = cfg

	util.InitLogger(cfg.LogLevel, cfg.LogFormat)
	util.Logger = util.Logger.With("run_id", a.runID)
	slog.SetDefault(util.Logger)

	util.GetLogger().Debug("command started", "command", cmd.CommandPath(), "driver", cfg.Driver)
	return nil
}

func (a *app) openService(ctx context.Context) (*service.Service, func(), error) {
	repo, closeFn, err := repository.New(ctx, a.cfg)
	if err != nil {
		return nil, nil, err
	}
	release := func() {
		if err := closeFn(); err != nil {
			util.GetLogger().Warn("failed to close storage", "error", err)
		}
	}
	return service.NewService(repo), release, nil
}

// exactArgs is cobra.ExactArgs reporting a bad request.
func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.ExactArgs(n)(cmd, args); err != nil {
			return fmt.Errorf("%w: %v", service.ErrBadRequest, err)
		}
		return nil
	}
}
