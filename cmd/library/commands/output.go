package commands

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"

	"booklib/internal/library/model"
)

var (
	// Color styles for terminal output
	colorSuccess = lipgloss.Color("#10B981")
	colorWarning = lipgloss.Color("#F59E0B")
	colorError   = lipgloss.Color("#EF4444")
	colorInfo    = lipgloss.Color("#3B82F6")
	colorMuted   = lipgloss.Color("#6B7280")

	successStyle = lipgloss.NewStyle().Foreground(colorSuccess).Bold(true)
	warningStyle = lipgloss.NewStyle().Foreground(colorWarning).Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(colorError).Bold(true)
	infoStyle    = lipgloss.NewStyle().Foreground(colorInfo)
	mutedStyle   = lipgloss.NewStyle().Foreground(colorMuted)
)

func (a *app) success(format string, args ...interface{}) {
	fmt.Fprint(a.out, successStyle.Render("✓ "))
	fmt.Fprintf(a.out, format+"\n", args...)
}

func (a *app) warning(format string, args ...interface{}) {
	fmt.Fprint(a.out, warningStyle.Render("⚠ "))
	fmt.Fprintf(a.out, format+"\n", args...)
}

func (a *app) info(format string, args ...interface{}) {
	fmt.Fprint(a.out, infoStyle.Render("ℹ "))
	fmt.Fprintf(a.out, format+"\n", args...)
}

func (a *app) muted(format string, args ...interface{}) {
	fmt.Fprintln(a.out, mutedStyle.Render(fmt.Sprintf(format, args...)))
}

// printJSON writes v to w using the book codec.
func printJSON(w io.Writer, v interface{}) error {
	data, err := model.JSON().MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// printError reports a failed command on stderr; with --json the body is
// the ErrorResponse itself.
func (a *app) printError(resp model.ErrorResponse) {
	if a.jsonOutput {
		_ = printJSON(a.errOut, resp)
		return
	}
	fmt.Fprint(a.errOut, errorStyle.Render("✗ "))
	fmt.Fprintf(a.errOut, "%s: %s\n", resp.Error.Code, resp.Error.Message)
}

// statusIcon returns a colored marker for a book status.
func statusIcon(status string) string {
	switch status {
	case model.StatusAvailable:
		return successStyle.Render("●")
	case model.StatusBorrowed:
		return warningStyle.Render("◐")
	case model.StatusReserved:
		return infoStyle.Render("◉")
	case model.StatusLost:
		return errorStyle.Render("✗")
	default:
		return mutedStyle.Render("•")
	}
}

func (a *app) printBook(b *model.Book) error {
	if a.jsonOutput {
		return printJSON(a.out, b)
	}

	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "ID\t%s\n", b.ID)
	_, _ = fmt.Fprintf(w, "NAME\t%s\n", b.Name)
	_, _ = fmt.Fprintf(w, "AUTHOR\t%s\n", b.Author)
	_, _ = fmt.Fprintf(w, "YEAR\t%s\n", yearText(b))
	_, _ = fmt.Fprintf(w, "TYPE\t%s\n", orDash(b.Type()))
	_, _ = fmt.Fprintf(w, "STATUS\t%s %s\n", statusIcon(b.Status), b.Status)
	_, _ = fmt.Fprintf(w, "UPDATED\t%s\n", b.UpdatedAt.Format("2006-01-02 15:04:05"))
	return w.Flush()
}

type bookList struct {
	Books []*model.Book `json:"books"`
	Total int64         `json:"total"`
}

func (a *app) printBooks(books []*model.Book, total int64) error {
	if a.jsonOutput {
		return printJSON(a.out, bookList{Books: books, Total: total})
	}

	if len(books) == 0 {
		a.warning("No books found")
		return nil
	}

	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "NAME\tAUTHOR\tYEAR\tTYPE\tSTATUS\tID")
	_, _ = fmt.Fprintln(w, "----\t------\t----\t----\t------\t--")
	for _, b := range books {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s %s\t%s\n",
			b.Name,
			b.Author,
			yearText(b),
			orDash(b.Type()),
			statusIcon(b.Status),
			b.Status,
			b.ID,
		)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	a.muted("%d of %d book(s)", len(books), total)
	return nil
}

func yearText(b *model.Book) string {
	year, ok := b.Year()
	if !ok {
		return "-"
	}
	return strconv.Itoa(year)
}

func (a *app) printImportResult(result *model.ImportResult) error {
	if a.jsonOutput {
		return printJSON(a.out, result)
	}

	a.success("Imported %d book(s)", result.SuccessCount)
	if result.FailedCount == 0 {
		return nil
	}

	a.warning("%d record(s) rejected", result.FailedCount)
	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "INDEX\tNAME\tREASON")
	for _, f := range result.FailedBooks {
		_, _ = fmt.Fprintf(w, "%d\t%s\t%s\n", f.Index, orDash(f.Name), f.Reason)
	}
	return w.Flush()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
