package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/william165-bot/net-hunter/internal/models"
	pkghttp "github.com/william165-bot/net-hunter/pkg/http"
)

// writeServiceError maps service sentinels to the JSON error envelope.
// Unmapped errors are logged and hidden behind a 500.
func writeServiceError(w http.ResponseWriter, logger *slog.Logger, op string, err error) {
	switch {
	case errors.Is(err, models.ErrForbiddenDomain):
		pkghttp.WriteError(w, http.StatusBadRequest, "domain_not_allowed", "Only approved email domains can sign up")
	case errors.Is(err, models.ErrUnknownAction):
		pkghttp.WriteError(w, http.StatusBadRequest, "unknown_action", "Unknown action")
	case errors.Is(err, models.ErrBadRequest):
		pkghttp.WriteBadRequest(w, badRequestMessage(err))
	case errors.Is(err, models.ErrUnauthorized):
		pkghttp.WriteUnauthorized(w, "Invalid credentials")
	case errors.Is(err, models.ErrAccessExpired):
		pkghttp.WriteForbidden(w, "access_expired", "Trial has ended, unlock premium to continue")
	case errors.Is(err, models.ErrNotFound):
		pkghttp.WriteNotFound(w, "Account not found")
	case errors.Is(err, models.ErrConflict):
		pkghttp.WriteConflict(w, "Account already exists")
	case errors.Is(err, models.ErrConcurrentUpdate):
		pkghttp.WriteError(w, http.StatusConflict, "concurrent_update", "Account is being updated, try again")
	default:
		logger.Error("request failed", slog.String("op", op), slog.String("error", err.Error()))
		pkghttp.WriteInternalError(w, "Internal server error")
	}
}

// badRequestMessage drops the sentinel prefix so only the detail reaches the client
func badRequestMessage(err error) string {
	msg := strings.TrimPrefix(err.Error(), models.ErrBadRequest.Error()+": ")
	if msg == "" || msg == models.ErrBadRequest.Error() {
		return "Invalid request"
	}
	return msg
}
