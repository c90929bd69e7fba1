package migration

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"booklib/internal/library/util"
)

// Status is the applied state of one known migration.
type Status struct {
	Version   string     `json:"version"`
	Name      string     `json:"name"`
	Applied   bool       `json:"applied"`
	AppliedAt *time.Time `json:"applied_at,omitempty"`
}

type appliedRecord struct {
	Version   string
	Name      string
	AppliedAt time.Time
}

// Executor applies and tracks migrations in the schema_migrations table.
type Executor struct {
	db         *gorm.DB
	migrations []Migration
}

// NewExecutor loads the migrations matching the dialect of db.
func NewExecutor(db *gorm.DB) (*Executor, error) {
	migrations, err := Load(db.Dialector.Name())
	if err != nil {
		return nil, err
	}
	return &Executor{db: db, migrations: migrations}, nil
}

// Migrations returns the known migrations in version order.
func (e *Executor) Migrations() []Migration {
	return e.migrations
}

// Initialize creates the schema_migrations table if it doesn't exist.
func (e *Executor) Initialize(ctx context.Context) error {
	err := e.db.WithContext(ctx).Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version VARCHAR(14) PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			applied_at TIMESTAMP NOT NULL
		)`).Error
	if err != nil {
		return fmt.Errorf("failed to create schema_migrations table: %w", err)
	}
	return nil
}

func (e *Executor) applied(ctx context.Context) (map[string]appliedRecord, error) {
	var records []appliedRecord
	err := e.db.WithContext(ctx).
		Raw("SELECT version, name, applied_at FROM schema_migrations ORDER BY version").
		Scan(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to read schema_migrations: %w", err)
	}

	result := make(map[string]appliedRecord, len(records))
	for _, r := range records {
		result[r.Version] = r
	}
	return result, nil
}

// Up applies every pending migration in order and returns the ones it applied.
func (e *Executor) Up(ctx context.Context) ([]Migration, error) {
	if err := e.Initialize(ctx); err != nil {
		return nil, err
	}
	applied, err := e.applied(ctx)
	if err != nil {
		return nil, err
	}

	var done []Migration
	for _, m := range e.migrations {
		if _, ok := applied[m.Version]; ok {
			continue
		}
		if err := e.apply(ctx, m); err != nil {
			return done, fmt.Errorf("failed to apply migration %s: %w", m.Version, err)
		}
		util.GetLogger().Info("migration applied", "version", m.Version, "name", m.Name)
		done = append(done, m)
	}
	return done, nil
}

func (e *Executor) apply(ctx context.Context, m Migration) error {
	return e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i, stmt := range splitSQL(m.UpSQL) {
			if err := tx.Exec(stmt).Error; err != nil {
				return fmt.Errorf("statement %d failed: %w", i+1, err)
			}
		}
		return tx.Exec(
			"INSERT INTO schema_migrations (version, name, applied_at) VALUES (?, ?, ?)",
			m.Version, m.Name, time.Now().UTC(),
		).Error
	})
}

// Down rolls back the last steps applied migrations, newest first.
// steps <= 0 rolls back everything.
func (e *Executor) Down(ctx context.Context, steps int) ([]Migration, error) {
	if err := e.Initialize(ctx); err != nil {
		return nil, err
	}
	applied, err := e.applied(ctx)
	if err != nil {
		return nil, err
	}

	var done []Migration
	for i := len(e.migrations) - 1; i >= 0; i-- {
		if steps > 0 && len(done) == steps {
			break
		}
		m := e.migrations[i]
		if _, ok := applied[m.Version]; !ok {
			continue
		}
		if err := e.rollback(ctx, m); err != nil {
			return done, fmt.Errorf("failed to roll back migration %s: %w", m.Version, err)
		}
		util.GetLogger().Info("migration rolled back", "version", m.Version, "name", m.Name)
		done = append(done, m)
	}
	return done, nil
}

func (e *Executor) rollback(ctx context.Context, m Migration) error {
	return e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i, stmt := range splitSQL(m.DownSQL) {
			if err := tx.Exec(stmt).Error; err != nil {
				return fmt.Errorf("statement %d failed: %w", i+1, err)
			}
		}
		return tx.Exec("DELETE FROM schema_migrations WHERE version = ?", m.Version).Error
	})
}

// Status reports every known migration and whether it has been applied.
func (e *Executor) Status(ctx context.Context) ([]Status, error) {
	if err := e.Initialize(ctx); err != nil {
		return nil, err
	}
	applied, err := e.applied(ctx)
	if err != nil {
		return nil, err
	}

	statuses := make([]Status, 0, len(e.migrations))
	for _, m := range e.migrations {
		s := Status{Version: m.Version, Name: m.Name}
		if r, ok := applied[m.Version]; ok {
			at := r.AppliedAt
			s.Applied = true
			s.AppliedAt = &at
		}
		statuses = append(statuses, s)
	}
	return statuses, nil
}

// Reset rolls back every migration and drops the tracking table.
func (e *Executor) Reset(ctx context.Context) error {
	if _, err := e.Down(ctx, 0); err != nil {
		return err
	}
	if err := e.db.WithContext(ctx).Exec("DROP TABLE IF EXISTS schema_migrations").Error; err != nil {
		return fmt.Errorf("failed to drop schema_migrations table: %w", err)
	}
	return nil
}
