package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"booklib/internal/library/config"
	"booklib/internal/library/model"
)

const testTable = `CREATE TABLE books (
	id TEXT NOT NULL,
	name VARCHAR(64) NOT NULL,
	year_published INTEGER,
	CONSTRAINT pk_books PRIMARY KEY (id),
	CONSTRAINT uq_books_name UNIQUE (name),
	CONSTRAINT ck_books_name_length CHECK (length(name) <= 64),
	CONSTRAINT ck_books_year_published_integer CHECK (year_published IS NULL OR typeof(year_published) = 'integer')
)`

func memoryConfig() *config.Config {
	return &config.Config{
		Driver:  config.DriverSQLite,
		DSN:     ":memory:",
		Timeout: 5 * time.Second,
	}
}

func openMemory(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := Open(context.Background(), memoryConfig())
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close(db) })
	require.NoError(t, db.Exec(testTable).Error)
	return db
}

func insert(db *gorm.DB, id string, name any, year any) error {
	return ClassifyError(db.Exec("INSERT INTO books (id, name, year_published) VALUES (?, ?, ?)", id, name, year).Error)
}

func TestOpen(t *testing.T) {
	db := openMemory(t)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	assert.Equal(t, 1, sqlDB.Stats().MaxOpenConnections)

	_, err = Open(context.Background(), &config.Config{Driver: config.DriverMongo, Timeout: time.Second})
	assert.Error(t, err)

	assert.NoError(t, Close(nil))
}

func TestIsMemoryDSN(t *testing.T) {
	assert.True(t, IsMemoryDSN(":memory:"))
	assert.True(t, IsMemoryDSN("file::memory:?cache=shared"))
	assert.True(t, IsMemoryDSN("file:test.db?mode=memory"))
	assert.False(t, IsMemoryDSN("file:library.db"))
}

func TestClassifySQLite(t *testing.T) {
	db := openMemory(t)
	require.NoError(t, insert(db, "1", "Dune", 1965))

	tests := []struct {
		name       string
		id         string
		bookName   any
		year       any
		kind       error
		column     string
		constraint string
	}{
		{"null name", "2", nil, 2000, model.ErrIntegrity, model.ColName, model.ConstraintNotNull},
		{"duplicate name", "3", "Dune", 2000, model.ErrIntegrity, model.ColName, model.ConstraintUnique},
		{"duplicate id", "1", "Emma", 1815, model.ErrIntegrity, model.ColID, model.ConstraintUnique},
		{"name too long", "4", strings.Repeat("a", model.MaxNameLength+1), 2000, model.ErrData, model.ColName, model.ConstraintLength},
		{"text year", "5", "Emma", "Two Thousand Twenty-One", model.ErrData, model.ColYearPublished, model.ConstraintInteger},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := insert(db, tt.id, tt.bookName, tt.year)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.kind)

			var ce *model.ConstraintError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, tt.column, ce.Column)
			assert.Equal(t, tt.constraint, ce.Constraint)
			assert.NotNil(t, errors.Unwrap(err), "driver error is kept")
		})
	}

	t.Run("numeric string year is coerced by affinity", func(t *testing.T) {
		assert.NoError(t, insert(db, "6", "Persuasion", "1817"))
	})
}

func TestClassifyPostgres(t *testing.T) {
	tests := []struct {
		name       string
		pgErr      *pgconn.PgError
		kind       error
		column     string
		constraint string
	}{
		{"not null", &pgconn.PgError{Code: "23502", ColumnName: "name"}, model.ErrIntegrity, model.ColName, model.ConstraintNotNull},
		{"unique", &pgconn.PgError{Code: "23505", ConstraintName: "uq_books_name"}, model.ErrIntegrity, model.ColName, model.ConstraintUnique},
		{"check", &pgconn.PgError{Code: "23514", ConstraintName: "ck_books_status"}, model.ErrData, model.ColStatus, model.ConstraintStatus},
		{"too long", &pgconn.PgError{Code: "22001"}, model.ErrData, "", model.ConstraintLength},
		{"not an integer", &pgconn.PgError{Code: "22P02"}, model.ErrData, "", model.ConstraintInteger},
		{"out of range", &pgconn.PgError{Code: "22003"}, model.ErrData, "", model.ConstraintRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ClassifyError(fmt.Errorf("exec: %w", tt.pgErr))
			assert.ErrorIs(t, err, tt.kind)

			var ce *model.ConstraintError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, tt.column, ce.Column)
			assert.Equal(t, tt.constraint, ce.Constraint)
		})
	}
}

func TestClassifyPassThrough(t *testing.T) {
	assert.NoError(t, ClassifyError(nil))

	plain := errors.New("connection reset")
	assert.Equal(t, plain, ClassifyError(plain))

	pgErr := &pgconn.PgError{Code: "42P01"}
	assert.Equal(t, error(pgErr), ClassifyError(pgErr))

	validation := model.DataError(model.ColName, model.ConstraintText, nil)
	assert.Equal(t, validation, ClassifyError(validation))
}
