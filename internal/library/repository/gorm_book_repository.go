package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"booklib/internal/library/database"
	"booklib/internal/library/migration"
	"booklib/internal/library/model"
)

// GormBookRepository stores books in sqlite or postgres. Writes go through
// the model's BeforeSave hook, and whatever slips past it is rejected by the
// constraints the migrations declare.
type GormBookRepository struct {
	db *gorm.DB
}

func NewGormBookRepository(db *gorm.DB) *GormBookRepository {
	return &GormBookRepository{db: db}
}

// DB exposes the underlying handle, mainly for migrations and tests.
func (r *GormBookRepository) DB() *gorm.DB {
	return r.db
}

func (r *GormBookRepository) EnsureSchema(ctx context.Context) error {
	exec, err := migration.NewExecutor(r.db)
	if err != nil {
		return err
	}
	_, err = exec.Up(ctx)
	return err
}

func (r *GormBookRepository) DropSchema(ctx context.Context) error {
	exec, err := migration.NewExecutor(r.db)
	if err != nil {
		return err
	}
	return exec.Reset(ctx)
}

func (r *GormBookRepository) CreateBook(ctx context.Context, book *model.Book) error {
	return mapGormError(r.db.WithContext(ctx).Create(book).Error)
}

func (r *GormBookRepository) GetBook(ctx context.Context, id uuid.UUID) (*model.Book, error) {
	var book model.Book
	if err := r.db.WithContext(ctx).Where("id = ?", id).Take(&book).Error; err != nil {
		return nil, mapGormError(err)
	}
	return &book, nil
}

func (r *GormBookRepository) FirstBook(ctx context.Context, filter model.BookFilter) (*model.Book, error) {
	var book model.Book
	if err := r.query(ctx, filter).Order(model.ColName).Take(&book).Error; err != nil {
		return nil, mapGormError(err)
	}
	return &book, nil
}

func (r *GormBookRepository) FindBooks(ctx context.Context, filter model.BookFilter) ([]*model.Book, error) {
	q := r.query(ctx, filter).Order(model.ColName)
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		q = q.Offset(filter.Offset)
	}

	var books []*model.Book
	if err := q.Find(&books).Error; err != nil {
		return nil, mapGormError(err)
	}
	return books, nil
}

func (r *GormBookRepository) CountBooks(ctx context.Context, filter model.BookFilter) (int64, error) {
	var count int64
	if err := r.query(ctx, filter).Count(&count).Error; err != nil {
		return 0, mapGormError(err)
	}
	return count, nil
}

func (r *GormBookRepository) UpdateBook(ctx context.Context, id uuid.UUID, patch model.BookPatch) (*model.Book, error) {
	var book model.Book
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", id).Take(&book).Error; err != nil {
			return err
		}
		patch.Apply(&book)
		return tx.Save(&book).Error
	})
	if err != nil {
		return nil, mapGormError(err)
	}
	return &book, nil
}

func (r *GormBookRepository) DeleteBook(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Book{})
	if res.Error != nil {
		return mapGormError(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *GormBookRepository) query(ctx context.Context, filter model.BookFilter) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&model.Book{})
	if conds := filter.Conditions(); len(conds) > 0 {
		q = q.Where(conds)
	}
	return q
}

func mapGormError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return database.ClassifyError(err)
}
