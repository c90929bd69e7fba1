package model

// Table and column names
const (
	TableBooks = "books"

	ColID            = "id"
	ColName          = "name"
	ColAuthor        = "author"
	ColYearPublished = "year_published"
	ColBookType      = "book_type"
	ColStatus        = "status"
	ColCreatedAt     = "created_at"
	ColUpdatedAt     = "updated_at"
)

// Column limits, mirrored by the migrations
const (
	MaxNameLength     = 64
	MaxAuthorLength   = 64
	MaxBookTypeLength = 20
	MaxStatusLength   = 20
)

// Book statuses
const (
	StatusAvailable = "available"
	StatusBorrowed  = "borrowed"
	StatusReserved  = "reserved"
	StatusLost      = "lost"
)

// AllowedStatuses defines which statuses a book can be stored with
var AllowedStatuses = map[string]bool{
	StatusAvailable: true,
	StatusBorrowed:  true,
	StatusReserved:  true,
	StatusLost:      true,
}

// Constraint names reported in ConstraintError
const (
	ConstraintNotNull = "not_null"
	ConstraintUnique  = "unique"
	ConstraintLength  = "max_length"
	ConstraintInteger = "integer"
	ConstraintRange   = "range"
	ConstraintText    = "safe_text"
	ConstraintStatus  = "status"
	ConstraintType    = "type"
)
