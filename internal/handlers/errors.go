package handlers

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/studentrecords/apiserver/internal/services"
)

var statusBySentinel = []struct {
	err    error
	status int
}{
	{services.ErrValidation, http.StatusBadRequest},
	{services.ErrDuplicateEmail, http.StatusBadRequest},
	{services.ErrInvalidToken, http.StatusBadRequest},
	{services.ErrInvalidOrExpiredToken, http.StatusBadRequest},
	{services.ErrInvalidCredentials, http.StatusUnauthorized},
	{services.ErrIncorrectPassword, http.StatusUnauthorized},
	{services.ErrEmailNotVerified, http.StatusUnauthorized},
	{services.ErrUserNotFound, http.StatusNotFound},
	{services.ErrStudentNotFound, http.StatusNotFound},
}

// writeServiceError maps a service error to a status and client message.
// Unrecognised errors are logged and reported with fallback.
func writeServiceError(w http.ResponseWriter, lg zerolog.Logger, err error, fallback string) {
	for _, entry := range statusBySentinel {
		if !errors.Is(err, entry.err) {
			continue
		}
		message := entry.err.Error()
		if entry.err == services.ErrValidation {
			message = err.Error()
		}
		writeError(w, entry.status, message)
		return
	}

	if errors.Is(err, services.ErrNotificationFailed) {
		lg.Error().Err(err).Msg("notification failed")
		writeError(w, http.StatusInternalServerError, services.ErrNotificationFailed.Error())
		return
	}

	lg.Error().Err(err).Msg(fallback)
	writeError(w, http.StatusInternalServerError, fallback)
}
