package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/william165-bot/net-hunter/internal/auth"
	"github.com/william165-bot/net-hunter/internal/models"
	pkghttp "github.com/william165-bot/net-hunter/pkg/http"
)

// NewTestRequest creates an HTTP request with JSON body for testing
func NewTestRequest(t *testing.T, method, url string, body any) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, url, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// WithUserContext adds user claims to request context for testing authenticated endpoints
func WithUserContext(req *http.Request, email string) *http.Request {
	claims := &models.TokenClaims{Role: models.RoleUser}
	claims.Subject = email
	ctx := context.WithValue(req.Context(), auth.ClaimsContextKey, claims)
	return req.WithContext(ctx)
}

// WithAdminContext adds admin claims to request context
func WithAdminContext(req *http.Request, name string) *http.Request {
	claims := &models.TokenClaims{Role: models.RoleAdmin}
	claims.Subject = name
	ctx := context.WithValue(req.Context(), auth.ClaimsContextKey, claims)
	return req.WithContext(ctx)
}

// AssertJSONResponse checks that response has correct status and decodes JSON body
func AssertJSONResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, target any) {
	assert.Equal(t, expectedStatus, w.Code, "Response status mismatch")
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"), "Content-Type should be application/json")

	if target != nil {
		err := json.Unmarshal(w.Body.Bytes(), target)
		assert.NoError(t, err, "Failed to decode response JSON")
	}
}

// AssertErrorResponse checks that response is a valid error response
func AssertErrorResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, expectedError string) {
	assert.Equal(t, expectedStatus, w.Code, "Response status mismatch")

	var resp pkghttp.ErrorResponse
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	assert.NoError(t, err, "Failed to decode error response")
	assert.Equal(t, expectedError, resp.Error, "Error code mismatch")
	assert.NotEmpty(t, resp.Message, "Error message should not be empty")
}

// MockAccountService implements AccountServiceInterface for testing
type MockAccountService struct {
	SignupFunc func(ctx context.Context, email, password string) (*models.Account, error)
	SigninFunc func(ctx context.Context, email, password string) (string, error)
	MeFunc     func(ctx context.Context, email string) (*models.AccountView, error)
}

func (m *MockAccountService) Signup(ctx context.Context, email, password string) (*models.Account, error) {
	if m.SignupFunc == nil {
		return nil, models.ErrConflict
	}
	return m.SignupFunc(ctx, email, password)
}

func (m *MockAccountService) Signin(ctx context.Context, email, password string) (string, error) {
	if m.SigninFunc == nil {
		return "", models.ErrUnauthorized
	}
	return m.SigninFunc(ctx, email, password)
}

func (m *MockAccountService) Me(ctx context.Context, email string) (*models.AccountView, error) {
	if m.MeFunc == nil {
		return nil, models.ErrNotFound
	}
	return m.MeFunc(ctx, email)
}

// MockAdminService implements AdminServiceInterface for testing
type MockAdminService struct {
	LoginFunc     func(ctx context.Context, name, password, code string) (string, error)
	ListUsersFunc func(ctx context.Context) ([]models.AccountView, error)
	MutateFunc    func(ctx context.Context, email, action string, days int) (*models.AccountView, error)
}

func (m *MockAdminService) Login(ctx context.Context, name, password, code string) (string, error) {
	if m.LoginFunc == nil {
		return "", models.ErrUnauthorized
	}
	return m.LoginFunc(ctx, name, password, code)
}

func (m *MockAdminService) ListUsers(ctx context.Context) ([]models.AccountView, error) {
	if m.ListUsersFunc == nil {
		return []models.AccountView{}, nil
	}
	return m.ListUsersFunc(ctx)
}

func (m *MockAdminService) Mutate(ctx context.Context, email, action string, days int) (*models.AccountView, error) {
	if m.MutateFunc == nil {
		return nil, models.ErrNotFound
	}
	return m.MutateFunc(ctx, email, action, days)
}

// MockPaymentService implements PaymentServiceInterface for testing
type MockPaymentService struct {
	UnlockFunc func(ctx context.Context, email string) (*models.Account, error)
}

func (m *MockPaymentService) Unlock(ctx context.Context, email string) (*models.Account, error) {
	if m.UnlockFunc == nil {
		return nil, models.ErrNotFound
	}
	return m.UnlockFunc(ctx, email)
}

// MockExtractionService implements ExtractionServiceInterface for testing
type MockExtractionService struct {
	ExtractFunc func(ctx context.Context, email, text string) (*models.Extraction, error)
}

func (m *MockExtractionService) Extract(ctx context.Context, email, text string) (*models.Extraction, error) {
	if m.ExtractFunc == nil {
		return nil, models.ErrAccessExpired
	}
	return m.ExtractFunc(ctx, email, text)
}

// MockPinger implements Pinger for testing
type MockPinger struct {
	PingFunc func(ctx context.Context) error
}

func (m *MockPinger) Ping(ctx context.Context) error {
	if m.PingFunc == nil {
		return nil
	}
	return m.PingFunc(ctx)
}
