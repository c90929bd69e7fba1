package commands

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"booklib/internal/library/config"
	"booklib/internal/library/database"
	"booklib/internal/library/migration"
	"booklib/internal/library/repository"
	"booklib/internal/library/service"
)

func (a *app) migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the books schema",
		Long: `Create, inspect and remove the books schema.

Subcommands:
  up      - Apply pending migrations (mongo: create the validated collection)
  down    - Roll back migrations
  status  - Show migration status
  reset   - Roll back everything and drop the tracking table`,
	}

	var steps int
	downCmd := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations",
		Long: `Roll back applied migrations, newest first.

Examples:
  library migrate down             # Roll back the last migration
  library migrate down --steps 0   # Roll back everything`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runMigrateDown(cmd.Context(), steps)
		},
	}
	downCmd.Flags().IntVar(&steps, "steps", 1, "Number of migrations to roll back (0 for all)")

	var confirm bool
	resetCmd := &cobra.Command{
		Use:   "reset",
		Short: "Drop the books schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !confirm {
				return fmt.Errorf("%w: reset deletes every book, pass --yes to confirm", service.ErrBadRequest)
			}
			return a.runMigrateReset(cmd.Context())
		},
	}
	resetCmd.Flags().BoolVar(&confirm, "yes", false, "Confirm dropping all data")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply pending migrations",
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.runMigrateUp(cmd.Context())
			},
		},
		downCmd,
		&cobra.Command{
			Use:   "status",
			Short: "Show migration status",
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.runMigrateStatus(cmd.Context())
			},
		},
		resetCmd,
	)
	return cmd
}

// withExecutor opens the SQL database for the duration of fn.
func (a *app) withExecutor(ctx context.Context, fn func(*migration.Executor) error) error {
	if !a.cfg.IsSQL() {
		return fmt.Errorf("%w: driver %s has no versioned migrations", service.ErrBadRequest, a.cfg.Driver)
	}

	db, err := database.Open(ctx, a.cfg)
	if err != nil {
		return err
	}
	defer database.Close(db)

	executor, err := migration.NewExecutor(db)
	if err != nil {
		return err
	}
	return fn(executor)
}

func (a *app) withRepository(ctx context.Context, fn func(repository.BookRepository) error) error {
	repo, closeFn, err := repository.New(ctx, a.cfg)
	if err != nil {
		return err
	}
	defer closeFn()
	return fn(repo)
}

func (a *app) runMigrateUp(ctx context.Context) error {
	if a.cfg.Driver == config.DriverMongo {
		return a.withRepository(ctx, func(repo repository.BookRepository) error {
			if err := repo.EnsureSchema(ctx); err != nil {
				return fmt.Errorf("failed to create books collection: %w", err)
			}
			if a.jsonOutput {
				return printJSON(a.out, map[string]string{"collection": a.cfg.BooksCollection, "status": "ready"})
			}
			a.success("Collection %s.%s is ready", a.cfg.DBName, a.cfg.BooksCollection)
			return nil
		})
	}

	return a.withExecutor(ctx, func(e *migration.Executor) error {
		applied, err := e.Up(ctx)
		if err != nil {
			return err
		}
		if a.jsonOutput {
			return printJSON(a.out, migrationNames(applied))
		}
		if len(applied) == 0 {
			a.info("Schema is up to date")
			return nil
		}
		for _, m := range applied {
			a.success("Applied %s_%s", m.Version, m.Name)
		}
		return nil
	})
}

func (a *app) runMigrateDown(ctx context.Context, steps int) error {
	return a.withExecutor(ctx, func(e *migration.Executor) error {
		rolledBack, err := e.Down(ctx, steps)
		if err != nil {
			return err
		}
		if a.jsonOutput {
			return printJSON(a.out, migrationNames(rolledBack))
		}
		if len(rolledBack) == 0 {
			a.warning("Nothing to roll back")
			return nil
		}
		for _, m := range rolledBack {
			a.success("Rolled back %s_%s", m.Version, m.Name)
		}
		return nil
	})
}

func (a *app) runMigrateStatus(ctx context.Context) error {
	return a.withExecutor(ctx, func(e *migration.Executor) error {
		statuses, err := e.Status(ctx)
		if err != nil {
			return err
		}
		if a.jsonOutput {
			return printJSON(a.out, statuses)
		}

		w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
		_, _ = fmt.Fprintln(w, "VERSION\tNAME\tSTATUS\tAPPLIED AT")
		_, _ = fmt.Fprintln(w, "-------\t----\t------\t----------")
		for _, s := range statuses {
			appliedAt := "N/A"
			state := warningStyle.Render("○") + " pending"
			if s.Applied {
				state = successStyle.Render("✓") + " applied"
				appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
			}
			_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", s.Version, s.Name, state, appliedAt)
		}
		return w.Flush()
	})
}

func (a *app) runMigrateReset(ctx context.Context) error {
	if a.cfg.Driver == config.DriverMongo {
		return a.withRepository(ctx, func(repo repository.BookRepository) error {
			if err := repo.DropSchema(ctx); err != nil {
				return err
			}
			if a.jsonOutput {
				return printJSON(a.out, map[string]string{"collection": a.cfg.BooksCollection, "status": "dropped"})
			}
			a.success("Dropped collection %s.%s", a.cfg.DBName, a.cfg.BooksCollection)
			return nil
		})
	}

	return a.withExecutor(ctx, func(e *migration.Executor) error {
		if err := e.Reset(ctx); err != nil {
			return err
		}
		if a.jsonOutput {
			return printJSON(a.out, map[string]string{"status": "dropped"})
		}
		a.success("Schema dropped")
		return nil
	})
}

func migrationNames(ms []migration.Migration) []string {
	names := make([]string, 0, len(ms))
	for _, m := range ms {
		names = append(names, m.Version+"_"+m.Name)
	}
	return names
}
