package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Book is a single library record.
type Book struct {
	ID            uuid.UUID `json:"id" gorm:"column:id;type:uuid;primaryKey"`
	Name          string    `json:"name" gorm:"column:name;size:64;not null;uniqueIndex" validate:"required,max=64,safetext"`
	Author        string    `json:"author" gorm:"column:author;size:64;not null" validate:"required,max=64,safetext"`
	YearPublished *int      `json:"year_published" gorm:"column:year_published" validate:"omitempty,gte=-2147483648,lte=2147483647"`
	BookType      *string   `json:"book_type,omitempty" gorm:"column:book_type;size:20" validate:"omitempty,max=20,safetext"`
	Status        string    `json:"status" gorm:"column:status;size:20;not null" validate:"required,oneof=available borrowed reserved lost"`
	CreatedAt     time.Time `json:"created_at" gorm:"column:created_at"`
	UpdatedAt     time.Time `json:"updated_at" gorm:"column:updated_at"`
}

func (Book) TableName() string {
	return TableBooks
}

// Validate normalizes the record and checks it against the column rules.
func (b *Book) Validate() error {
	b.Name = strings.TrimSpace(b.Name)
	b.Author = strings.TrimSpace(b.Author)
	if b.BookType != nil {
		bookType := strings.TrimSpace(*b.BookType)
		if bookType == "" {
			b.BookType = nil
		} else {
			b.BookType = &bookType
		}
	}
	b.Status = strings.ToLower(strings.TrimSpace(b.Status))
	if b.Status == "" {
		b.Status = StatusAvailable
	}

	if err := GetValidator().Struct(b); err != nil {
		return FormatValidationError(err)
	}
	return nil
}

// BeforeSave runs on every ORM insert and update.
func (b *Book) BeforeSave(tx *gorm.DB) error {
	return b.Validate()
}

func (b *Book) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// Year returns the publication year, or 0 and false when it is unknown.
func (b *Book) Year() (int, bool) {
	if b.YearPublished == nil {
		return 0, false
	}
	return *b.YearPublished, true
}

// Type returns the book type, or "" when none is set.
func (b *Book) Type() string {
	if b.BookType == nil {
		return ""
	}
	return *b.BookType
}

// IsAvailable reports whether the book can be lent out.
func (b *Book) IsAvailable() bool {
	return b.Status == StatusAvailable
}
