package commands

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"booklib/internal/library/migration"
	"booklib/internal/library/model"
)

type result struct {
	code   int
	stdout string
	stderr string
}

// newLibrary returns a runner bound to a fresh sqlite file with the schema applied.
func newLibrary(t *testing.T) func(args ...string) result {
	t.Helper()
	t.Setenv("LOG_LEVEL", "error")
	dsn := "file:" + filepath.Join(t.TempDir(), "library.db")

	run := func(args ...string) result {
		var stdout, stderr bytes.Buffer
		full := append([]string{"--driver", "sqlite", "--dsn", dsn}, args...)
		code := Execute(context.Background(), full, strings.NewReader(""), &stdout, &stderr)
		return result{code: code, stdout: stdout.String(), stderr: stderr.String()}
	}

	res := run("migrate", "up")
	require.Equal(t, exitOK, res.code, res.stderr)
	return run
}

func addBook(t *testing.T, run func(args ...string) result, args ...string) *model.Book {
	t.Helper()
	res := run(append([]string{"--json", "book", "add"}, args...)...)
	require.Equal(t, exitOK, res.code, res.stderr)

	var book model.Book
	require.NoError(t, model.JSON().Unmarshal([]byte(res.stdout), &book))
	return &book
}

func intPtr(n int) *int { return &n }

func TestMigrateCommands(t *testing.T) {
	run := newLibrary(t)

	res := run("migrate", "up")
	assert.Equal(t, exitOK, res.code)
	assert.Contains(t, res.stdout, "Schema is up to date")

	res = run("--json", "migrate", "status")
	require.Equal(t, exitOK, res.code, res.stderr)
	var statuses []migration.Status
	require.NoError(t, model.JSON().Unmarshal([]byte(res.stdout), &statuses))
	require.NotEmpty(t, statuses)
	assert.True(t, statuses[0].Applied)

	res = run("migrate", "reset")
	assert.Equal(t, exitBadRequest, res.code)

	res = run("--json", "migrate", "reset", "--yes")
	require.Equal(t, exitOK, res.code, res.stderr)
	var reset map[string]string
	require.NoError(t, model.JSON().Unmarshal([]byte(res.stdout), &reset))
	assert.Equal(t, "dropped", reset["status"])

	res = run("migrate", "status")
	assert.Equal(t, exitOK, res.code)
	assert.Contains(t, res.stdout, "pending")
}

func TestBookAddConstraints(t *testing.T) {
	run := newLibrary(t)

	book := addBook(t, run, "--name", "Test Book", "--author", "Test Author", "--year", "2021")
	assert.Equal(t, "Test Book", book.Name)
	assert.Equal(t, intPtr(2021), book.YearPublished)
	assert.Equal(t, model.StatusAvailable, book.Status)

	negative := addBook(t, run, "--name", "Ancient Book", "--author", "Unknown", "--year", "-100")
	assert.Equal(t, intPtr(-100), negative.YearPublished)

	undated := addBook(t, run, "--name", "Undated Book", "--author", "Unknown")
	assert.Nil(t, undated.YearPublished)
	assert.Nil(t, undated.BookType)

	tests := []struct {
		name string
		args []string
		code int
	}{
		{"missing name", []string{"--author", "Test Author", "--year", "2021"}, exitIntegrity},
		{"text year", []string{"--name", "Other Book", "--author", "Test Author", "--year", "Two Thousand Twenty-One"}, exitData},
		{"long name", []string{"--name", strings.Repeat("a", 1000), "--author", "Test Author"}, exitData},
		{"sql in name", []string{"--name", "'; DROP TABLE books; --", "--author", "Test Author"}, exitData},
		{"script in name", []string{"--name", "<script>alert('hack');</script>", "--author", "Test Author"}, exitData},
		{"duplicate name", []string{"--name", "Test Book", "--author", "Someone Else"}, exitIntegrity},
		{"unknown status", []string{"--name", "Other Book", "--author", "Test Author", "--status", "misplaced"}, exitData},
		{"positional argument", []string{"Other Book"}, exitBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := run(append([]string{"book", "add"}, tt.args...)...)
			assert.Equal(t, tt.code, res.code, res.stderr)
			assert.NotEmpty(t, res.stderr)
		})
	}

	res := run("--json", "book", "list")
	require.Equal(t, exitOK, res.code, res.stderr)
	assert.Contains(t, res.stdout, `"total": 3`)

	res = run("--json", "book", "list", "--year", "0")
	require.Equal(t, exitOK, res.code, res.stderr)
	assert.Contains(t, res.stdout, `"total": 0`)

	res = run("book", "get", undated.ID.String())
	require.Equal(t, exitOK, res.code, res.stderr)
	assert.Regexp(t, `YEAR\s+-`, res.stdout)
}

func TestBookListPastLastPage(t *testing.T) {
	run := newLibrary(t)
	addBook(t, run, "--name", "Dune", "--author", "Frank Herbert", "--year", "1965")

	res := run("--json", "book", "list", "--offset", "5")
	require.Equal(t, exitOK, res.code, res.stderr)

	var list bookList
	require.NoError(t, model.JSON().Unmarshal([]byte(res.stdout), &list))
	assert.Equal(t, int64(1), list.Total)
	assert.NotNil(t, list.Books)
	assert.Empty(t, list.Books)
	assert.Contains(t, res.stdout, `"books": []`)
}

func TestBookLifecycle(t *testing.T) {
	run := newLibrary(t)
	book := addBook(t, run, "--name", "Dune", "--author", "Frank Herbert", "--year", "1965", "--type", "Fiction")

	res := run("book", "get", book.ID.String())
	require.Equal(t, exitOK, res.code, res.stderr)
	assert.Contains(t, res.stdout, "Frank Herbert")
	assert.Contains(t, res.stdout, "Fiction")

	res = run("book", "find", "--name", "Dune")
	assert.Equal(t, exitOK, res.code, res.stderr)
	assert.Contains(t, res.stdout, book.ID.String())

	res = run("--json", "book", "update", book.ID.String(), "--status", "borrowed")
	require.Equal(t, exitOK, res.code, res.stderr)
	var updated model.Book
	require.NoError(t, model.JSON().Unmarshal([]byte(res.stdout), &updated))
	assert.Equal(t, model.StatusBorrowed, updated.Status)

	res = run("book", "update", book.ID.String(), "--year", "nineteen")
	assert.Equal(t, exitData, res.code)

	res = run("book", "update", book.ID.String())
	assert.Equal(t, exitBadRequest, res.code, "empty patch")

	res = run("book", "list", "--status", "borrowed")
	require.Equal(t, exitOK, res.code, res.stderr)
	assert.Contains(t, res.stdout, "Dune")
	assert.Contains(t, res.stdout, "1 of 1 book(s)")

	res = run("book", "delete", book.ID.String())
	assert.Equal(t, exitOK, res.code, res.stderr)

	res = run("book", "get", book.ID.String())
	assert.Equal(t, exitNotFound, res.code)
	assert.Contains(t, res.stderr, "not_found")

	res = run("book", "find", "--name", "Dune")
	assert.Equal(t, exitNotFound, res.code)
}

func TestBookImport(t *testing.T) {
	run := newLibrary(t)

	file := filepath.Join(t.TempDir(), "books.json")
	require.NoError(t, os.WriteFile(file, []byte(`[
		{"name": "Emma", "author": "Jane Austen", "year_published": 1815},
		{"name": "Persuasion", "author": "Jane Austen", "year_published": "1817"},
		{"name": "Bad Year", "author": "Anon", "year_published": "Two Thousand Twenty-One"},
		{"name": null, "author": "Nobody", "year_published": 2000},
		{"name": "Emma", "author": "Copycat", "year_published": 2001},
		{"name": 42, "author": "Typed", "year_published": 1999},
		{"name": "Anonymous Tales", "author": "Anon"}
	]`), 0o600))

	res := run("--json", "book", "import", file)
	require.Equal(t, exitOK, res.code, res.stderr)

	var imported model.ImportResult
	require.NoError(t, model.JSON().Unmarshal([]byte(res.stdout), &imported))
	assert.Equal(t, 3, imported.SuccessCount)
	assert.Equal(t, 4, imported.FailedCount)
	require.Len(t, imported.FailedBooks, 4)
	assert.Equal(t, 2, imported.FailedBooks[0].Index)
	assert.Contains(t, imported.FailedBooks[1].Reason, "integrity error")
	assert.Contains(t, imported.FailedBooks[2].Reason, "unique")
	assert.Equal(t, 5, imported.FailedBooks[3].Index)
	assert.Contains(t, imported.FailedBooks[3].Reason, "data error: column name")

	res = run("book", "list", "--author", "Jane Austen")
	require.Equal(t, exitOK, res.code, res.stderr)
	assert.Contains(t, res.stdout, "Emma")
	assert.Contains(t, res.stdout, "Persuasion")

	res = run("book", "import", filepath.Join(t.TempDir(), "missing.json"))
	assert.Equal(t, exitBadRequest, res.code)
}

func TestErrorOutput(t *testing.T) {
	run := newLibrary(t)

	res := run("--json", "book", "get", "not-a-uuid")
	assert.Equal(t, exitBadRequest, res.code)

	var body model.ErrorResponse
	require.NoError(t, model.JSON().Unmarshal([]byte(res.stderr), &body))
	assert.Equal(t, "bad_request", body.Error.Code)
	assert.NotEmpty(t, body.Error.RunID)

	res = run("--json", "book", "add", "--name", "x", "--author", "y", "--year", "soon")
	assert.Equal(t, exitData, res.code)
	require.NoError(t, model.JSON().Unmarshal([]byte(res.stderr), &body))
	assert.Equal(t, "data_error", body.Error.Code)
	assert.Equal(t, model.ColYearPublished, body.Error.Column)

	res = run("book", "list", "--limit", "many")
	assert.Equal(t, exitBadRequest, res.code)
}

func TestInvalidDriver(t *testing.T) {
	t.Setenv("LOG_LEVEL", "error")
	var stdout, stderr bytes.Buffer
	code := Execute(context.Background(), []string{"--driver", "oracle", "book", "list"}, strings.NewReader(""), &stdout, &stderr)
	assert.Equal(t, exitBadRequest, code)
	assert.Contains(t, stderr.String(), "unsupported DB_DRIVER")
}

func TestCLIErrorMapping(t *testing.T) {
	code, resp := cliError(model.DataError(model.ColName, model.ConstraintLength, nil))
	assert.Equal(t, exitData, code)
	assert.Equal(t, "data_error", resp.Error.Code)
	assert.Equal(t, model.ColName, resp.Error.Column)

	code, resp = cliError(assert.AnError)
	assert.Equal(t, exitInternal, code)
	assert.Equal(t, "internal_error", resp.Error.Code)
}
