package model

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	jsoniter "github.com/json-iterator/go"
)

// Numbers decode as json.Number so fractional and out-of-range years are caught exactly.
var bookJSON = jsoniter.Config{
	EscapeHTML:             true,
	SortMapKeys:            true,
	ValidateJsonRawMessage: true,
	UseNumber:              true,
}.Froze()

// JSON returns the codec used for book payloads.
func JSON() jsoniter.API {
	return bookJSON
}

// BookInput is an inbound record before it has been typed. Name and Author
// are pointers so that an explicit null can be told apart from "".
type BookInput struct {
	Name          *string `json:"name"`
	Author        *string `json:"author"`
	YearPublished any     `json:"year_published"`
	BookType      string  `json:"book_type"`
	Status        string  `json:"status"`

	// decodeErr is set when the record could not be decoded into these fields.
	decodeErr error
}

// ToBook converts the input into a Book and validates it.
func (in BookInput) ToBook() (*Book, error) {
	if in.decodeErr != nil {
		return nil, in.decodeErr
	}
	if in.Name == nil {
		return nil, IntegrityError(ColName, ConstraintNotNull, nil)
	}
	if in.Author == nil {
		return nil, IntegrityError(ColAuthor, ConstraintNotNull, nil)
	}

	year, err := yearValue(in.YearPublished)
	if err != nil {
		return nil, err
	}

	book := &Book{
		Name:          *in.Name,
		Author:        *in.Author,
		YearPublished: year,
		Status:        in.Status,
	}
	if in.BookType != "" {
		bookType := in.BookType
		book.BookType = &bookType
	}
	if err := book.Validate(); err != nil {
		return nil, err
	}
	return book, nil
}

// DisplayName returns the input name for reporting, or "" when absent.
func (in BookInput) DisplayName() string {
	if in.Name == nil {
		return ""
	}
	return *in.Name
}

// ParseYear parses a year given as text. Anything but a base-10 integer is a data error.
func ParseYear(s string) (int, error) {
	year, err := strconv.ParseInt(strings.TrimSpace(s), 10, 32)
	if err != nil {
		var numErr *strconv.NumError
		if errors.As(err, &numErr) && errors.Is(numErr.Err, strconv.ErrRange) {
			return 0, DataError(ColYearPublished, ConstraintRange, err)
		}
		return 0, DataError(ColYearPublished, ConstraintInteger, err)
	}
	return int(year), nil
}

type int64er interface {
	Int64() (int64, error)
}

// yearValue converts a decoded year. A missing or null year stays nil.
func yearValue(v any) (*int, error) {
	switch y := v.(type) {
	case nil:
		return nil, nil
	case int:
		return checkYearRange(int64(y))
	case int64:
		return checkYearRange(y)
	case float64:
		if y != math.Trunc(y) {
			return nil, DataError(ColYearPublished, ConstraintInteger, fmt.Errorf("%v is not an integer", y))
		}
		return checkYearRange(int64(y))
	case string:
		year, err := ParseYear(y)
		if err != nil {
			return nil, err
		}
		return &year, nil
	case int64er:
		n, err := y.Int64()
		if err != nil {
			return nil, DataError(ColYearPublished, ConstraintInteger, err)
		}
		return checkYearRange(n)
	default:
		return nil, DataError(ColYearPublished, ConstraintInteger, fmt.Errorf("unsupported value %v", v))
	}
}

func checkYearRange(n int64) (*int, error) {
	if n < math.MinInt32 || n > math.MaxInt32 {
		return nil, DataError(ColYearPublished, ConstraintRange, fmt.Errorf("%d out of integer range", n))
	}
	year := int(n)
	return &year, nil
}

// DecodeBookInputs reads either a single JSON object or an array of them.
// Malformed JSON fails the whole read. A well-formed record whose fields have
// the wrong types is returned with a data error that ToBook reports, so one
// bad record does not hide the others.
func DecodeBookInputs(r io.Reader) ([]BookInput, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read books: %w", err)
	}

	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, nil
	}

	if data[0] == '{' {
		if !bookJSON.Valid(data) {
			return nil, fmt.Errorf("decode book: invalid JSON object")
		}
		return []BookInput{decodeBookInput(data)}, nil
	}

	var raws []jsoniter.RawMessage
	if err := bookJSON.Unmarshal(data, &raws); err != nil {
		return nil, fmt.Errorf("decode books: %w", err)
	}

	inputs := make([]BookInput, 0, len(raws))
	for _, raw := range raws {
		inputs = append(inputs, decodeBookInput(raw))
	}
	return inputs, nil
}

func decodeBookInput(raw []byte) BookInput {
	if len(raw) == 0 || raw[0] != '{' {
		return BookInput{decodeErr: DataError("", ConstraintType, errors.New("record is not a JSON object"))}
	}

	var in BookInput
	if err := bookJSON.Unmarshal(raw, &in); err != nil {
		return BookInput{decodeErr: DataError(recordField(raw), ConstraintType, err)}
	}
	return in
}

// recordField guesses which field broke decoding by trying each one alone.
func recordField(raw []byte) string {
	fields := []struct {
		column string
		target any
	}{
		{ColName, new(struct {
			V *string `json:"name"`
		})},
		{ColAuthor, new(struct {
			V *string `json:"author"`
		})},
		{ColBookType, new(struct {
			V string `json:"book_type"`
		})},
		{ColStatus, new(struct {
			V string `json:"status"`
		})},
	}
	for _, f := range fields {
		if err := bookJSON.Unmarshal(raw, f.target); err != nil {
			return f.column
		}
	}
	return ""
}
