package model

import "strings"

// BookFilter selects books by column equality. Empty fields are ignored.
type BookFilter struct {
	Name          string
	Author        string
	BookType      string
	Status        string
	YearPublished *int
	Limit         int
	Offset        int
}

// Normalize trims the filter values the same way Book.Validate trims stored values.
func (f *BookFilter) Normalize() {
	f.Name = strings.TrimSpace(f.Name)
	f.Author = strings.TrimSpace(f.Author)
	f.BookType = strings.TrimSpace(f.BookType)
	f.Status = strings.ToLower(strings.TrimSpace(f.Status))
	if f.Limit < 0 {
		f.Limit = 0
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
}

// Conditions returns the equality conditions keyed by column name.
func (f BookFilter) Conditions() map[string]any {
	conds := make(map[string]any)
	if f.Name != "" {
		conds[ColName] = f.Name
	}
	if f.Author != "" {
		conds[ColAuthor] = f.Author
	}
	if f.BookType != "" {
		conds[ColBookType] = f.BookType
	}
	if f.Status != "" {
		conds[ColStatus] = f.Status
	}
	if f.YearPublished != nil {
		conds[ColYearPublished] = *f.YearPublished
	}
	return conds
}

// BookPatch is a partial update. Nil fields are left unchanged.
type BookPatch struct {
	Name          *string `json:"name,omitempty"`
	Author        *string `json:"author,omitempty"`
	YearPublished *int    `json:"year_published,omitempty"`
	BookType      *string `json:"book_type,omitempty"`
	Status        *string `json:"status,omitempty"`
}

func (p BookPatch) IsEmpty() bool {
	return p.Name == nil && p.Author == nil && p.YearPublished == nil && p.BookType == nil && p.Status == nil
}

// Apply copies the set fields onto b. It does not validate. An empty
// BookType clears the stored type once the book is validated.
func (p BookPatch) Apply(b *Book) {
	if p.Name != nil {
		b.Name = *p.Name
	}
	if p.Author != nil {
		b.Author = *p.Author
	}
	if p.YearPublished != nil {
		year := *p.YearPublished
		b.YearPublished = &year
	}
	if p.BookType != nil {
		bookType := *p.BookType
		b.BookType = &bookType
	}
	if p.Status != nil {
		b.Status = *p.Status
	}
}
