package handlers

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"galleria/internal/services"
	"galleria/internal/storage"
	"galleria/internal/utils"
)

// statusFor maps a service error to its HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrValidation),
		errors.Is(err, services.ErrInvalidCredentials),
		errors.Is(err, storage.ErrInvalidFileType):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, services.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, storage.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, services.ErrImageStore):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// writeError sends err to the client. Internal failures only expose a generic message.
func writeError(w http.ResponseWriter, err error, fallback string) {
	code := statusFor(err)
	if code == http.StatusInternalServerError {
		log.Error().Err(err).Msg(fallback)
		utils.SendJSONError(w, fallback, code)
		return
	}
	utils.SendJSONError(w, err.Error(), code)
}
