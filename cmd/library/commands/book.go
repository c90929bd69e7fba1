package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"booklib/internal/library/model"
	"booklib/internal/library/service"
)

func (a *app) bookCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "book",
		Short: "Add, query, update and remove books",
	}
	cmd.AddCommand(
		a.bookAddCmd(),
		a.bookGetCmd(),
		a.bookFindCmd(),
		a.bookListCmd(),
		a.bookUpdateCmd(),
		a.bookDeleteCmd(),
		a.bookImportCmd(),
	)
	return cmd
}

// bookFlags are the column flags shared by add and update. The year is
// taken as text so that non-integer input is reported as a data error.
type bookFlags struct {
	name     string
	author   string
	year     string
	bookType string
	status   string
}

func (f *bookFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&f.name, "name", "", "Book name (max 64 characters)")
	fs.StringVar(&f.author, "author", "", "Author (max 64 characters)")
	fs.StringVar(&f.year, "year", "", "Year published (integer, may be negative)")
	fs.StringVar(&f.bookType, "type", "", "Book type, e.g. Fiction")
	fs.StringVar(&f.status, "status", "", "available, borrowed, reserved or lost")
}

// input builds a BookInput; name and author stay nil when their flag is absent.
func (f *bookFlags) input(fs *pflag.FlagSet) model.BookInput {
	in := model.BookInput{BookType: f.bookType, Status: f.status}
	if fs.Changed("name") {
		in.Name = &f.name
	}
	if fs.Changed("author") {
		in.Author = &f.author
	}
	if fs.Changed("year") {
		in.YearPublished = f.year
	}
	return in
}

func (f *bookFlags) patch(fs *pflag.FlagSet) (model.BookPatch, error) {
	var p model.BookPatch
	if fs.Changed("name") {
		p.Name = &f.name
	}
	if fs.Changed("author") {
		p.Author = &f.author
	}
	if fs.Changed("year") {
		year, err := model.ParseYear(f.year)
		if err != nil {
			return p, err
		}
		p.YearPublished = &year
	}
	if fs.Changed("type") {
		p.BookType = &f.bookType
	}
	if fs.Changed("status") {
		p.Status = &f.status
	}
	return p, nil
}

func (a *app) bookAddCmd() *cobra.Command {
	var flags bookFlags
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a book",
		Long: `Add a book.

Examples:
  library book add --name "Test Book" --author "Test Author" --year 2021
  library book add --name "Dune" --author "Frank Herbert" --year 1965 --type Fiction`,
		Args: exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, release, err := a.openService(cmd.Context())
			if err != nil {
				return err
			}
			defer release()

			book, err := svc.AddBook(cmd.Context(), flags.input(cmd.Flags()))
			if err != nil {
				return err
			}
			if !a.jsonOutput {
				a.success("Added %q", book.Name)
			}
			return a.printBook(book)
		},
	}
	flags.register(cmd.Flags())
	return cmd
}

func (a *app) bookGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show a book by id",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, release, err := a.openService(cmd.Context())
			if err != nil {
				return err
			}
			defer release()

			book, err := svc.GetBook(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return a.printBook(book)
		},
	}
}

func (a *app) bookFindCmd() *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "find",
		Short: "Find a book by exact name",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, release, err := a.openService(cmd.Context())
			if err != nil {
				return err
			}
			defer release()

			book, err := svc.FindBookByName(cmd.Context(), name)
			if err != nil {
				return err
			}
			return a.printBook(book)
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Exact book name")
	return cmd
}

func (a *app) bookListCmd() *cobra.Command {
	var filter model.BookFilter
	var year string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List books",
		Long: `List books, filtered by column equality and ordered by name.

Examples:
  library book list --author "Jane Austen"
  library book list --status borrowed --limit 10 --offset 10`,
		Args: exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("year") {
				y, err := model.ParseYear(year)
				if err != nil {
					return fmt.Errorf("%w: %v", service.ErrBadRequest, err)
				}
				filter.YearPublished = &y
			}

			svc, release, err := a.openService(cmd.Context())
			if err != nil {
				return err
			}
			defer release()

			books, total, err := svc.ListBooks(cmd.Context(), filter)
			if err != nil {
				return err
			}
			return a.printBooks(books, total)
		},
	}
	cmd.Flags().StringVar(&filter.Name, "name", "", "Filter by exact name")
	cmd.Flags().StringVar(&filter.Author, "author", "", "Filter by author")
	cmd.Flags().StringVar(&filter.BookType, "type", "", "Filter by book type")
	cmd.Flags().StringVar(&filter.Status, "status", "", "Filter by status")
	cmd.Flags().StringVar(&year, "year", "", "Filter by year published")
	cmd.Flags().IntVar(&filter.Limit, "limit", 50, "Maximum number of books (0 for no limit)")
	cmd.Flags().IntVar(&filter.Offset, "offset", 0, "Number of books to skip")
	return cmd
}

func (a *app) bookUpdateCmd() *cobra.Command {
	var flags bookFlags
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change fields of a book",
		Long: `Change fields of a book. Only the flags given are updated.

Examples:
  library book update 3f0c... --status borrowed`,
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			patch, err := flags.patch(cmd.Flags())
			if err != nil {
				return err
			}

			svc, release, err := a.openService(cmd.Context())
			if err != nil {
				return err
			}
			defer release()

			book, err := svc.UpdateBook(cmd.Context(), args[0], patch)
			if err != nil {
				return err
			}
			if !a.jsonOutput {
				a.success("Updated %q", book.Name)
			}
			return a.printBook(book)
		},
	}
	flags.register(cmd.Flags())
	return cmd
}

func (a *app) bookDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a book",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, release, err := a.openService(cmd.Context())
			if err != nil {
				return err
			}
			defer release()

			if err := svc.DeleteBook(cmd.Context(), args[0]); err != nil {
				return err
			}
			if a.jsonOutput {
				return printJSON(a.out, map[string]string{"deleted": args[0]})
			}
			a.success("Deleted %s", args[0])
			return nil
		},
	}
}

func (a *app) bookImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.json|->",
		Short: "Import books from a JSON object or array",
		Long: `Import books from a JSON file, or stdin when the argument is "-".

Each record is inserted on its own: rejected records are reported and the
rest are still imported.

Example file:
  [
    {"name": "Emma", "author": "Jane Austen", "year_published": 1815},
    {"name": "Dune", "author": "Frank Herbert", "year_published": 1965, "book_type": "Fiction"}
  ]`,
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var r io.Reader = cmd.InOrStdin()
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("%w: %v", service.ErrBadRequest, err)
				}
				defer f.Close()
				r = f
			}

			inputs, err := model.DecodeBookInputs(r)
			if err != nil {
				return fmt.Errorf("%w: %v", service.ErrBadRequest, err)
			}

			svc, release, err := a.openService(cmd.Context())
			if err != nil {
				return err
			}
			defer release()

			result, err := svc.ImportBooks(cmd.Context(), inputs)
			if err != nil {
				return err
			}
			return a.printImportResult(result)
		},
	}
}
