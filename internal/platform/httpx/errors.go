package httpx

import (
	"context"
	"errors"
	"net/http"

	"github.com/hisab-pos/hisab/internal/shared"
)

// RespondError maps billing core errors onto HTTP status codes with the
// {"error": msg} wire shape.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrValidation):
		Error(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, shared.ErrOverpayment):
		Error(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, shared.ErrNotFound):
		Error(w, http.StatusNotFound, err.Error())
	case errors.Is(err, shared.ErrConflict):
		Error(w, http.StatusConflict, err.Error())
	case errors.Is(err, shared.ErrInvalidCredentials):
		Error(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, shared.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		Error(w, http.StatusInternalServerError, shared.ErrTimeout.Error())
	default:
		Error(w, http.StatusInternalServerError, shared.ErrDatabase.Error())
	}
}
