package commands

import (
	"errors"

	"booklib/internal/library/model"
	"booklib/internal/library/service"
)

// Exit codes
const (
	exitOK         = 0
	exitInternal   = 1
	exitBadRequest = 2
	exitNotFound   = 3
	exitIntegrity  = 4
	exitData       = 5
)

// cliError maps an error to an exit code and the error body printed for it.
func cliError(err error) (int, model.ErrorResponse) {
	var code string
	var status int
	var column string

	var ce *model.ConstraintError
	if errors.As(err, &ce) {
		column = ce.Column
	}

	switch {
	case errors.Is(err, service.ErrBadRequest):
		status = exitBadRequest
		code = "bad_request"
	case errors.Is(err, service.ErrNotFound):
		status = exitNotFound
		code = "not_found"
	case errors.Is(err, model.ErrIntegrity):
		status = exitIntegrity
		code = "integrity_error"
	case errors.Is(err, model.ErrData):
		status = exitData
		code = "data_error"
	default:
		status = exitInternal
		code = "internal_error"
	}

	return status, model.ErrorResponse{
		Error: model.ErrorDetail{Code: code, Message: err.Error(), Column: column},
	}
}
