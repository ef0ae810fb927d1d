package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"mallorder/internal/entities"
	"mallorder/pkg/utils"
)

// writeDomainError maps the error kind to a response code. Unknown
// errors are logged and hidden behind a generic 500.
func writeDomainError(w http.ResponseWriter, logger *slog.Logger, err error) {
	switch {
	case errors.Is(err, entities.ErrValidation):
		utils.WriteError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, entities.ErrNotFound):
		utils.WriteError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, entities.ErrPermissionDenied):
		utils.WriteError(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, entities.ErrPrecondition):
		utils.WriteError(w, err.Error(), http.StatusConflict)
	default:
		logger.Error("unexpected error", slog.Any("error", err))
		utils.WriteError(w, "internal server error", http.StatusInternalServerError)
	}
}
