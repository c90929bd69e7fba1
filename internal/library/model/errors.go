package model

import "errors"

var (
	// ErrIntegrity is returned when a required value is missing or a uniqueness rule is broken.
	ErrIntegrity = errors.New("integrity error")
	// ErrData is returned when a value does not fit its column: too long, not an integer, unsafe text.
	ErrData = errors.New("data error")
)

// ConstraintError describes a rejected write. Kind is ErrIntegrity or ErrData,
// so callers can match with errors.Is; Err holds the driver error, if any.
type ConstraintError struct {
	Kind       error
	Column     string
	Constraint string
	Err        error
}

func (e *ConstraintError) Error() string {
	msg := e.Kind.Error()
	if e.Column != "" {
		msg += ": column " + e.Column
	}
	if e.Constraint != "" {
		msg += " violates " + e.Constraint
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ConstraintError) Is(target error) bool {
	return target == e.Kind
}

func (e *ConstraintError) Unwrap() error {
	return e.Err
}

// IntegrityError builds an ErrIntegrity ConstraintError.
func IntegrityError(column, constraint string, err error) *ConstraintError {
	return &ConstraintError{Kind: ErrIntegrity, Column: column, Constraint: constraint, Err: err}
}

// DataError builds an ErrData ConstraintError.
func DataError(column, constraint string, err error) *ConstraintError {
	return &ConstraintError{Kind: ErrData, Column: column, Constraint: constraint, Err: err}
}
