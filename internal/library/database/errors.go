package database

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"

	"booklib/internal/library/model"
)

// SQLITE_CONSTRAINT_DATATYPE, raised by STRICT tables. go-sqlite3 has no name for it.
var errConstraintDataType = sqlite3.ErrConstraint.Extend(12)

type namedConstraint struct {
	column     string
	constraint string
}

// Constraint names declared by the embedded migrations.
var constraintColumns = map[string]namedConstraint{
	"pk_books":                        {model.ColID, model.ConstraintUnique},
	"uq_books_name":                   {model.ColName, model.ConstraintUnique},
	"ck_books_name_length":            {model.ColName, model.ConstraintLength},
	"ck_books_author_length":          {model.ColAuthor, model.ConstraintLength},
	"ck_books_book_type_length":       {model.ColBookType, model.ConstraintLength},
	"ck_books_status_length":          {model.ColStatus, model.ConstraintLength},
	"ck_books_status":                 {model.ColStatus, model.ConstraintStatus},
	"ck_books_year_published_integer": {model.ColYearPublished, model.ConstraintInteger},
}

// ClassifyError turns a driver error into a model.ConstraintError carrying
// model.ErrIntegrity or model.ErrData. Errors it does not recognize are
// returned unchanged.
func ClassifyError(err error) error {
	if err == nil {
		return nil
	}

	var ce *model.ConstraintError
	if errors.As(err, &ce) {
		return err
	}

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return classifySQLite(sqliteErr)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return classifyPostgres(pgErr)
	}

	return err
}

func classifySQLite(err sqlite3.Error) error {
	msg := err.Error()

	switch err.ExtendedCode {
	case sqlite3.ErrConstraintNotNull:
		return model.IntegrityError(columnFromMessage(msg), model.ConstraintNotNull, err)
	case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
		return model.IntegrityError(columnFromMessage(msg), model.ConstraintUnique, err)
	case sqlite3.ErrConstraintCheck:
		nc := checkFromMessage(msg)
		return model.DataError(nc.column, nc.constraint, err)
	case errConstraintDataType:
		return model.DataError(columnFromMessage(msg), model.ConstraintInteger, err)
	}

	switch err.Code {
	case sqlite3.ErrTooBig:
		return model.DataError("", model.ConstraintLength, err)
	case sqlite3.ErrMismatch:
		return model.DataError("", model.ConstraintInteger, err)
	}

	return err
}

func classifyPostgres(err *pgconn.PgError) error {
	column := err.ColumnName
	constraint := ""
	if nc, ok := constraintColumns[err.ConstraintName]; ok {
		if column == "" {
			column = nc.column
		}
		constraint = nc.constraint
	}

	switch err.Code {
	case "23502": // not_null_violation
		return model.IntegrityError(column, model.ConstraintNotNull, err)
	case "23505": // unique_violation
		return model.IntegrityError(column, model.ConstraintUnique, err)
	case "23503": // foreign_key_violation
		return model.IntegrityError(column, "foreign_key", err)
	case "23514": // check_violation
		if constraint == "" {
			constraint = "check"
		}
		return model.DataError(column, constraint, err)
	case "22001": // string_data_right_truncation
		return model.DataError(column, model.ConstraintLength, err)
	case "22P02": // invalid_text_representation
		return model.DataError(column, model.ConstraintInteger, err)
	case "22003": // numeric_value_out_of_range
		return model.DataError(column, model.ConstraintRange, err)
	}

	if strings.HasPrefix(err.Code, "22") {
		return model.DataError(column, "data_exception", err)
	}
	return err
}

// columnFromMessage extracts the column from messages such as
// "NOT NULL constraint failed: books.name".
func columnFromMessage(msg string) string {
	_, detail, ok := strings.Cut(msg, "constraint failed: ")
	if !ok {
		return ""
	}
	// Composite keys are reported as "books.a, books.b"; the first is enough.
	detail, _, _ = strings.Cut(detail, ",")
	if _, col, found := strings.Cut(strings.TrimSpace(detail), "."); found {
		return col
	}
	return ""
}

// checkFromMessage resolves "CHECK constraint failed: ck_books_name_length".
func checkFromMessage(msg string) namedConstraint {
	_, name, ok := strings.Cut(msg, "CHECK constraint failed: ")
	if !ok {
		return namedConstraint{constraint: "check"}
	}
	if nc, found := constraintColumns[strings.TrimSpace(name)]; found {
		return nc
	}
	return namedConstraint{constraint: "check"}
}
