package httpx

import (
	"errors"
	"net/http"

	"github.com/Kashan-amd/modis/internal/shared"
)

// RespondError maps the shared error taxonomy to HTTP responses using RFC7807.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, shared.ErrConflict):
		Problem(w, http.StatusConflict, "Conflict", err.Error())
	case errors.Is(err, shared.ErrValidation):
		Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, shared.ErrCycle):
		Problem(w, http.StatusUnprocessableEntity, "Hierarchy Cycle", err.Error())
	case errors.Is(err, shared.ErrReference):
		Problem(w, http.StatusUnprocessableEntity, "Dangling Reference", err.Error())
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
