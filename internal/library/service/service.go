package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"booklib/internal/library/model"
	"booklib/internal/library/repository"
	"booklib/internal/library/util"
)

var (
	ErrBadRequest = errors.New("bad request")
	ErrNotFound   = errors.New("book not found")
)

type BookService interface {
	AddBook(ctx context.Context, in model.BookInput) (*model.Book, error)
	GetBook(ctx context.Context, id string) (*model.Book, error)
	FindBookByName(ctx context.Context, name string) (*model.Book, error)
	ListBooks(ctx context.Context, filter model.BookFilter) ([]*model.Book, int64, error)
	UpdateBook(ctx context.Context, id string, patch model.BookPatch) (*model.Book, error)
	DeleteBook(ctx context.Context, id string) error
	ImportBooks(ctx context.Context, inputs []model.BookInput) (*model.ImportResult, error)
}

type Service struct {
	Repo repository.BookRepository
}

func NewService(repo repository.BookRepository) *Service {
	return &Service{Repo: repo}
}

func (s *Service) AddBook(ctx context.Context, in model.BookInput) (*model.Book, error) {
	book, err := in.ToBook()
	if err != nil {
		return nil, err
	}

	if err := s.Repo.CreateBook(ctx, book); err != nil {
		return nil, err
	}

	util.GetLogger().Info("audit: book created", "book_id", book.ID.String(), "name", book.Name)
	return book, nil
}

func (s *Service) GetBook(ctx context.Context, id string) (*model.Book, error) {
	bookID, err := parseID(id)
	if err != nil {
		return nil, err
	}

	book, err := s.Repo.GetBook(ctx, bookID)
	if err != nil {
		return nil, mapNotFound(err)
	}
	return book, nil
}

func (s *Service) FindBookByName(ctx context.Context, name string) (*model.Book, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrBadRequest
	}

	book, err := s.Repo.FirstBook(ctx, model.BookFilter{Name: name})
	if err != nil {
		return nil, mapNotFound(err)
	}
	return book, nil
}

// ListBooks returns one page of matching books and the total match count.
func (s *Service) ListBooks(ctx context.Context, filter model.BookFilter) ([]*model.Book, int64, error) {
	filter.Normalize()
	if filter.Status != "" && !model.AllowedStatuses[filter.Status] {
		return nil, 0, ErrBadRequest
	}

	total, err := s.Repo.CountBooks(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []*model.Book{}, 0, nil
	}

	books, err := s.Repo.FindBooks(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	if books == nil {
		books = []*model.Book{}
	}
	return books, total, nil
}

func (s *Service) UpdateBook(ctx context.Context, id string, patch model.BookPatch) (*model.Book, error) {
	bookID, err := parseID(id)
	if err != nil {
		return nil, err
	}
	if patch.IsEmpty() {
		return nil, ErrBadRequest
	}

	book, err := s.Repo.UpdateBook(ctx, bookID, patch)
	if err != nil {
		return nil, mapNotFound(err)
	}

	util.GetLogger().Info("audit: book updated", "book_id", book.ID.String(), "name", book.Name)
	return book, nil
}

func (s *Service) DeleteBook(ctx context.Context, id string) error {
	bookID, err := parseID(id)
	if err != nil {
		return err
	}

	if err := s.Repo.DeleteBook(ctx, bookID); err != nil {
		return mapNotFound(err)
	}

	util.GetLogger().Info("audit: book deleted", "book_id", bookID.String())
	return nil
}

// ImportBooks inserts each record on its own. Constraint violations are
// reported per record and do not stop the batch; any other error does.
func (s *Service) ImportBooks(ctx context.Context, inputs []model.BookInput) (*model.ImportResult, error) {
	if len(inputs) == 0 {
		return nil, ErrBadRequest
	}

	result := &model.ImportResult{}
	for i, in := range inputs {
		book, err := in.ToBook()
		if err == nil {
			err = s.Repo.CreateBook(ctx, book)
		}
		if err != nil {
			if !errors.Is(err, model.ErrIntegrity) && !errors.Is(err, model.ErrData) {
				return result, err
			}
			result.FailedCount++
			result.FailedBooks = append(result.FailedBooks, model.FailedBookInfo{
				Index:  i,
				Name:   in.DisplayName(),
				Reason: err.Error(),
			})
			continue
		}

		result.SuccessCount++
		result.Imported = append(result.Imported, book)
	}

	util.GetLogger().Info("audit: books imported",
		"success_count", result.SuccessCount,
		"failed_count", result.FailedCount,
	)
	return result, nil
}

func parseID(id string) (uuid.UUID, error) {
	bookID, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return uuid.Nil, ErrBadRequest
	}
	return bookID, nil
}

func mapNotFound(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotFound
	}
	return err
}
