package dto

import (
	"net/http"

	"github.com/erp/backoffice/internal/domain/shared"
)

// StatusOK is returned for every successful command
const StatusOK = http.StatusOK

// Transport level error codes. Everything else comes from the domain.
const (
	ErrCodeUnauthorized    = "UNAUTHORIZED"
	ErrCodeRequestTooLarge = "REQUEST_TOO_LARGE"
	ErrCodeInvalidBody     = "INVALID_BODY"
	ErrCodeInternal        = "INTERNAL_ERROR"
	ErrCodeRouteNotFound   = "ROUTE_NOT_FOUND"
)

// kindHTTPStatus maps error kinds to HTTP status codes
var kindHTTPStatus = map[shared.ErrorKind]int{
	shared.KindNotFound:            http.StatusNotFound,
	shared.KindValidation:          http.StatusBadRequest,
	shared.KindBusinessRule:        http.StatusUnprocessableEntity,
	shared.KindConcurrencyConflict: http.StatusConflict,
	shared.KindAccessDenied:        http.StatusForbidden,
	shared.KindInternal:            http.StatusInternalServerError,
}

// StatusForKind returns the HTTP status for an error kind. Unknown kinds
// are treated as internal errors.
func StatusForKind(kind shared.ErrorKind) int {
	if status, ok := kindHTTPStatus[kind]; ok {
		return status
	}
	return http.StatusInternalServerError
}
