package httpx

import (
	"errors"
	"net/http"

	"github.com/storefront/storefront/internal/shared"
)

// Public messages for error categories whose detail is never shown.
const (
	MsgInvalidCredentials = "Invalid Credentials!"
	MsgUnauthenticated    = "Unauthorized"
	MsgForbidden          = "You are not allowed to perform this action"
	MsgInternal           = "Internal Server Error"
)

// StatusFor maps a domain error to its HTTP status.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, shared.ErrValidation),
		errors.Is(err, shared.ErrConflict),
		errors.Is(err, shared.ErrInvalidCredentials):
		return http.StatusBadRequest
	case errors.Is(err, shared.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, shared.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, shared.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// RespondError maps domain errors to HTTP responses. Validation, conflict and
// not-found errors carry their own message; everything else gets a fixed one.
func RespondError(w http.ResponseWriter, err error) {
	status := StatusFor(err)
	switch {
	case status == http.StatusUnauthorized:
		Unauthorized(w, MsgUnauthenticated)
	case errors.Is(err, shared.ErrInvalidCredentials):
		Fail(w, status, MsgInvalidCredentials)
	case status == http.StatusForbidden:
		Fail(w, status, MsgForbidden)
	case status == http.StatusInternalServerError:
		Fail(w, status, MsgInternal)
	default:
		Fail(w, status, err.Error())
	}
}
