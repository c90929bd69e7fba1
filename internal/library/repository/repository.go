package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"booklib/internal/library/config"
	"booklib/internal/library/database"
	"booklib/internal/library/model"
)

var ErrNotFound = errors.New("record not found")

type BookRepository interface {
	// Create the books table (or collection) with its constraints
	EnsureSchema(ctx context.Context) error
	// Drop everything EnsureSchema created
	DropSchema(ctx context.Context) error
	// Insert a new book; the ID is generated when unset
	CreateBook(ctx context.Context, book *model.Book) error
	// Get a book by primary key
	GetBook(ctx context.Context, id uuid.UUID) (*model.Book, error)
	// First book matching the filter, ordered by name
	FirstBook(ctx context.Context, filter model.BookFilter) (*model.Book, error)
	// All books matching the filter, ordered by name
	FindBooks(ctx context.Context, filter model.BookFilter) ([]*model.Book, error)
	// Count books matching the filter (limit and offset are ignored)
	CountBooks(ctx context.Context, filter model.BookFilter) (int64, error)
	// Apply a partial update and return the stored result
	UpdateBook(ctx context.Context, id uuid.UUID, patch model.BookPatch) (*model.Book, error)
	// Delete a book by primary key
	DeleteBook(ctx context.Context, id uuid.UUID) error
}

// New opens the store selected by cfg. The returned func releases it.
func New(ctx context.Context, cfg *config.Config) (BookRepository, func() error, error) {
	if cfg.IsSQL() {
		db, err := database.Open(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		return NewGormBookRepository(db), func() error { return database.Close(db) }, nil
	}

	if cfg.Driver == config.DriverMongo {
		client, err := ConnectMongo(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		repo := NewMongoBookRepository(client.Database(cfg.DBName), cfg.BooksCollection)
		return repo, func() error { return client.Disconnect(context.Background()) }, nil
	}

	return nil, nil, fmt.Errorf("unsupported driver %q", cfg.Driver)
}
