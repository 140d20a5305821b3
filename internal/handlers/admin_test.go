package handlers_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/william165-bot/net-hunter/internal/handlers"
	"github.com/william165-bot/net-hunter/internal/models"
)

func TestAdminLogin_Success(t *testing.T) {
	var gotName, gotPassword, gotCode string
	mock := &handlers.MockAdminService{
		LoginFunc: func(ctx context.Context, name, password, code string) (string, error) {
			gotName, gotPassword, gotCode = name, password, code
			return "admin-token", nil
		},
	}

	handler := handlers.NewAdminHandler(mock, nil)
	req := handlers.NewTestRequest(t, "POST", "/api/admin-login", handlers.AdminLoginRequest{
		Name:     "admin",
		Password: "hunter2",
		Code:     "123456",
	})

	w := httptest.NewRecorder()
	handler.Login(w, req)

	var resp handlers.TokenResponse
	handlers.AssertJSONResponse(t, w, http.StatusOK, &resp)
	assert.True(t, resp.OK)
	assert.Equal(t, "admin-token", resp.Token)
	assert.Equal(t, "admin", gotName)
	assert.Equal(t, "hunter2", gotPassword)
	assert.Equal(t, "123456", gotCode)
}

func TestAdminLogin_InvalidCredentials(t *testing.T) {
	handler := handlers.NewAdminHandler(&handlers.MockAdminService{}, nil)
	req := handlers.NewTestRequest(t, "POST", "/api/admin-login", handlers.AdminLoginRequest{
		Name:     "admin",
		Password: "wrong",
	})

	w := httptest.NewRecorder()
	handler.Login(w, req)

	handlers.AssertErrorResponse(t, w, http.StatusUnauthorized, "unauthorized")
}

func TestAdminLogin_MalformedCode(t *testing.T) {
	handler := handlers.NewAdminHandler(&handlers.MockAdminService{}, nil)
	req := handlers.NewTestRequest(t, "POST", "/api/admin-login", handlers.AdminLoginRequest{
		Name:     "admin",
		Password: "hunter2",
		Code:     "12ab",
	})

	w := httptest.NewRecorder()
	handler.Login(w, req)

	handlers.AssertErrorResponse(t, w, http.StatusBadRequest, "bad_request")
}

func TestAdminListUsers(t *testing.T) {
	mock := &handlers.MockAdminService{
		ListUsersFunc: func(ctx context.Context) ([]models.AccountView, error) {
			return []models.AccountView{
				{Email: "b@gmail.com", Access: models.AccessSummary{Tier: models.TierPremium, Allowed: true}},
				{Email: "a@gmail.com", Access: models.AccessSummary{Tier: models.TierExpired}},
			}, nil
		},
	}

	handler := handlers.NewAdminHandler(mock, nil)
	req := handlers.WithAdminContext(handlers.NewTestRequest(t, "GET", "/api/admin-users", nil), "admin")

	w := httptest.NewRecorder()
	handler.ListUsers(w, req)

	var resp handlers.UsersResponse
	handlers.AssertJSONResponse(t, w, http.StatusOK, &resp)
	assert.True(t, resp.OK)
	require.Len(t, resp.Users, 2)
	assert.Equal(t, "b@gmail.com", resp.Users[0].Email)
	assert.Equal(t, models.TierExpired, resp.Users[1].Access.Tier)
}

func TestAdminListUsers_EmptyIsArray(t *testing.T) {
	mock := &handlers.MockAdminService{
		ListUsersFunc: func(ctx context.Context) ([]models.AccountView, error) {
			return nil, nil
		},
	}

	handler := handlers.NewAdminHandler(mock, nil)
	w := httptest.NewRecorder()
	handler.ListUsers(w, handlers.NewTestRequest(t, "GET", "/api/admin-users", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"ok":true,"users":[]}`, w.Body.String())
}

func TestAdminListUsers_StoreFailure(t *testing.T) {
	mock := &handlers.MockAdminService{
		ListUsersFunc: func(ctx context.Context) ([]models.AccountView, error) {
			return nil, errors.New("connection refused")
		},
	}

	handler := handlers.NewAdminHandler(mock, nil)
	w := httptest.NewRecorder()
	handler.ListUsers(w, handlers.NewTestRequest(t, "GET", "/api/admin-users", nil))

	handlers.AssertErrorResponse(t, w, http.StatusInternalServerError, "internal_error")
	assert.NotContains(t, w.Body.String(), "connection refused")
}

func TestAdminMutate_PassesDays(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantDays int
	}{
		{"explicit days", `{"email":"user@gmail.com","action":"grant","days":7}`, 7},
		{"omitted days", `{"email":"user@gmail.com","action":"extend"}`, 0},
		{"null days", `{"email":"user@gmail.com","action":"extend","days":null}`, 0},
		{"fractional days round up", `{"email":"user@gmail.com","action":"grant","days":7.5}`, 8},
		{"fractional days round down", `{"email":"user@gmail.com","action":"grant","days":2.25}`, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotDays := -1
			mock := &handlers.MockAdminService{
				MutateFunc: func(ctx context.Context, email, action string, days int) (*models.AccountView, error) {
					gotDays = days
					return &models.AccountView{Email: email}, nil
				},
			}

			handler := handlers.NewAdminHandler(mock, nil)
			w := httptest.NewRecorder()
			handler.Mutate(w, httptest.NewRequest("POST", "/api/admin-mutate", strings.NewReader(tt.body)))

			var resp handlers.UserResponse
			handlers.AssertJSONResponse(t, w, http.StatusOK, &resp)
			assert.True(t, resp.OK)
			assert.Equal(t, "user@gmail.com", resp.User.Email)
			assert.Equal(t, tt.wantDays, gotDays)
		})
	}
}

func TestAdminMutate_Errors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"unknown action", `{"email":"user@gmail.com","action":"delete"}`, models.ErrUnknownAction, http.StatusBadRequest, "unknown_action"},
		{"missing account", `{"email":"ghost@gmail.com","action":"revoke"}`, models.ErrNotFound, http.StatusNotFound, "not_found"},
		{"lost race", `{"email":"user@gmail.com","action":"grant"}`, models.ErrConcurrentUpdate, http.StatusConflict, "concurrent_update"},
		{"missing email", `{"action":"grant"}`, nil, http.StatusBadRequest, "bad_request"},
		{"days below one", `{"email":"user@gmail.com","action":"grant","days":0.5}`, nil, http.StatusBadRequest, "bad_request"},
		{"days too large", `{"email":"user@gmail.com","action":"grant","days":5000}`, nil, http.StatusBadRequest, "bad_request"},
		{"days not a number", `{"email":"user@gmail.com","action":"grant","days":"ten"}`, nil, http.StatusBadRequest, "bad_request"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &handlers.MockAdminService{
				MutateFunc: func(ctx context.Context, email, action string, days int) (*models.AccountView, error) {
					return nil, tt.err
				},
			}

			handler := handlers.NewAdminHandler(mock, nil)
			w := httptest.NewRecorder()
			handler.Mutate(w, httptest.NewRequest("POST", "/api/admin-mutate", strings.NewReader(tt.body)))

			handlers.AssertErrorResponse(t, w, tt.wantStatus, tt.wantCode)
		})
	}
}
