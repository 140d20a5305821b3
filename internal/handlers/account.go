package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/william165-bot/net-hunter/internal/auth"
	"github.com/william165-bot/net-hunter/internal/models"
	pkghttp "github.com/william165-bot/net-hunter/pkg/http"
)

// AccountServiceInterface defines the account service contract
type AccountServiceInterface interface {
	Signup(ctx context.Context, email, password string) (*models.Account, error)
	Signin(ctx context.Context, email, password string) (string, error)
	Me(ctx context.Context, email string) (*models.AccountView, error)
}

// AccountHandler handles signup, signin and profile requests
type AccountHandler struct {
	service AccountServiceInterface
	logger  *slog.Logger
}

// NewAccountHandler creates a new AccountHandler
func NewAccountHandler(service AccountServiceInterface, logger *slog.Logger) *AccountHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AccountHandler{service: service, logger: logger}
}

// CredentialsRequest is the body of signup and signin
type CredentialsRequest struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required"`
}

// OKResponse is the bare success envelope
type OKResponse struct {
	OK bool `json:"ok"`
}

// TokenResponse carries a freshly issued bearer token
type TokenResponse struct {
	OK    bool   `json:"ok"`
	Token string `json:"token"`
}

// MeResponse describes the signed-in account
type MeResponse struct {
	OK     bool                 `json:"ok"`
	User   models.AccountView   `json:"user"`
	Access models.AccessSummary `json:"access"`
}

// Signup handles POST /api/signup
func (h *AccountHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req CredentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	if _, err := h.service.Signup(r.Context(), req.Email, req.Password); err != nil {
		writeServiceError(w, h.logger, "signup", err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, OKResponse{OK: true})
}

// Signin handles POST /api/signin
func (h *AccountHandler) Signin(w http.ResponseWriter, r *http.Request) {
	var req CredentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	token, err := h.service.Signin(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, h.logger, "signin", err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, TokenResponse{OK: true, Token: token})
}

// Me handles GET /api/me
func (h *AccountHandler) Me(w http.ResponseWriter, r *http.Request) {
	email, ok := auth.IdentifyUser(r)
	if !ok {
		pkghttp.WriteUnauthorized(w, "Sign in required")
		return
	}

	view, err := h.service.Me(r.Context(), email)
	if err != nil {
		writeServiceError(w, h.logger, "me", err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, MeResponse{OK: true, User: *view, Access: view.Access})
}
