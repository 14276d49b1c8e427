package api

import (
	"errors"
	"net/http"

	"github.com/jvidmar/kljucar/internal/model"
)

// errStatus maps custody errors to HTTP status codes. Unknown errors are
// internal.
func errStatus(err error) int {
	switch {
	case errors.Is(err, model.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, model.ErrDuplicateCode),
		errors.Is(err, model.ErrConflict),
		errors.Is(err, model.ErrInvalidState),
		errors.Is(err, model.ErrStaleRequest):
		return http.StatusConflict
	case errors.Is(err, model.ErrUnauthorized):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// serviceError writes a custody error as a JSON response. Internal
// errors are masked; typed custody errors are returned verbatim so the
// client can act on them.
func serviceError(w http.ResponseWriter, err error) {
	status := errStatus(err)
	if status == http.StatusInternalServerError {
		jsonError(w, status, "internal error")
		return
	}
	jsonError(w, status, err.Error())
}
