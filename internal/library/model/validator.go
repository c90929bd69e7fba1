package model

import (
	"errors"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validate *validator.Validate
	once     sync.Once
)

// Letters, digits, spaces and a little punctuation. Quotes other than the
// apostrophe, semicolons, angle brackets and backslashes are not allowed.
var safeTextPattern = regexp.MustCompile(`^[\p{L}\p{N} .,:!?'&()\-]*$`)

var unsafeSequences = []string{"--", "/*", "*/"}

func GetValidator() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		if err := validate.RegisterValidation("safetext", isSafeText); err != nil {
			panic(err)
		}
	})
	return validate
}

// IsSafeText reports whether s may be stored in a free-text column.
func IsSafeText(s string) bool {
	if !safeTextPattern.MatchString(s) {
		return false
	}
	for _, seq := range unsafeSequences {
		if strings.Contains(s, seq) {
			return false
		}
	}
	return true
}

func isSafeText(fl validator.FieldLevel) bool {
	return IsSafeText(fl.Field().String())
}

// FormatValidationError converts validator errors to a ConstraintError.
// A failed "required" tag is the NOT NULL rule and maps to ErrIntegrity;
// every other tag rejects the value itself and maps to ErrData.
func FormatValidationError(err error) error {
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) || len(validationErrors) == 0 {
		return DataError("", "", err)
	}

	// Just take the first error, the rest usually follow from it.
	e := validationErrors[0]
	cause := errors.New("Field validation for '" + e.Field() + "' failed on the '" + e.Tag() + "' tag")

	switch e.Tag() {
	case "required":
		return IntegrityError(e.Field(), ConstraintNotNull, cause)
	case "max":
		return DataError(e.Field(), ConstraintLength, cause)
	case "gte", "lte":
		return DataError(e.Field(), ConstraintRange, cause)
	case "safetext":
		return DataError(e.Field(), ConstraintText, cause)
	case "oneof":
		return DataError(e.Field(), ConstraintStatus, cause)
	default:
		return DataError(e.Field(), e.Tag(), cause)
	}
}
