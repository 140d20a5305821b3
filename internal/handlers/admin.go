package handlers

import (
	"context"
	"log/slog"
	"math"
	"net/http"

	"github.com/william165-bot/net-hunter/internal/models"
	pkghttp "github.com/william165-bot/net-hunter/pkg/http"
)

// AdminServiceInterface defines the admin service contract
type AdminServiceInterface interface {
	Login(ctx context.Context, name, password, code string) (string, error)
	ListUsers(ctx context.Context) ([]models.AccountView, error)
	Mutate(ctx context.Context, email, action string, days int) (*models.AccountView, error)
}

// AdminHandler handles admin login and entitlement management
type AdminHandler struct {
	service AdminServiceInterface
	logger  *slog.Logger
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(service AdminServiceInterface, logger *slog.Logger) *AdminHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AdminHandler{service: service, logger: logger}
}

// AdminLoginRequest is the body of admin-login. Code is required only when
// a TOTP secret is configured.
type AdminLoginRequest struct {
	Name     string `json:"name" validate:"required,max=128"`
	Password string `json:"password" validate:"required"`
	Code     string `json:"code" validate:"omitempty,numeric,len=6"`
}

// MutateRequest is the body of admin-mutate. Days falls back to the
// configured default when omitted; fractional values round to whole days.
type MutateRequest struct {
	Email  string   `json:"email" validate:"required,email"`
	Action string   `json:"action" validate:"required"`
	Days   *float64 `json:"days" validate:"omitempty,gte=1,lte=3650"`
}

// UsersResponse lists every account
type UsersResponse struct {
	OK    bool                 `json:"ok"`
	Users []models.AccountView `json:"users"`
}

// UserResponse returns a single mutated account
type UserResponse struct {
	OK   bool               `json:"ok"`
	User models.AccountView `json:"user"`
}

// Login handles POST /api/admin-login
func (h *AdminHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req AdminLoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	token, err := h.service.Login(r.Context(), req.Name, req.Password, req.Code)
	if err != nil {
		writeServiceError(w, h.logger, "admin_login", err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, TokenResponse{OK: true, Token: token})
}

// ListUsers handles GET /api/admin-users
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.ListUsers(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, "admin_users", err)
		return
	}
	if users == nil {
		users = []models.AccountView{}
	}

	pkghttp.WriteJSON(w, http.StatusOK, UsersResponse{OK: true, Users: users})
}

// Mutate handles POST /api/admin-mutate
func (h *AdminHandler) Mutate(w http.ResponseWriter, r *http.Request) {
	var req MutateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	days := 0
	if req.Days != nil {
		days = int(math.Round(*req.Days))
	}

	view, err := h.service.Mutate(r.Context(), req.Email, req.Action, days)
	if err != nil {
		writeServiceError(w, h.logger, "admin_mutate", err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, UserResponse{OK: true, User: *view})
}
