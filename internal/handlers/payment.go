package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/william165-bot/net-hunter/internal/auth"
	"github.com/william165-bot/net-hunter/internal/models"
	pkghttp "github.com/william165-bot/net-hunter/pkg/http"
)

// PaymentServiceInterface defines the payment service contract
type PaymentServiceInterface interface {
	Unlock(ctx context.Context, email string) (*models.Account, error)
}

// PaymentHandler handles premium unlocks after checkout
type PaymentHandler struct {
	service PaymentServiceInterface
	logger  *slog.Logger
}

// NewPaymentHandler creates a new PaymentHandler
func NewPaymentHandler(service PaymentServiceInterface, logger *slog.Logger) *PaymentHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &PaymentHandler{service: service, logger: logger}
}

// UnlockResponse reports the new premium expiry
type UnlockResponse struct {
	OK           bool   `json:"ok"`
	PremiumUntil string `json:"premium_until"`
}

// Unlock handles POST /api/payment-unlock
func (h *PaymentHandler) Unlock(w http.ResponseWriter, r *http.Request) {
	email, ok := auth.IdentifyUser(r)
	if !ok {
		pkghttp.WriteUnauthorized(w, "Sign in required")
		return
	}

	acc, err := h.service.Unlock(r.Context(), email)
	if err != nil {
		writeServiceError(w, h.logger, "payment_unlock", err)
		return
	}
	if acc.PremiumUntil == nil {
		h.logger.Error("unlock returned account without premium")
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, UnlockResponse{
		OK:           true,
		PremiumUntil: models.FormatTimestamp(*acc.PremiumUntil),
	})
}
