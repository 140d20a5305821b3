package services

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/william165-bot/net-hunter/internal/auth"
	"github.com/william165-bot/net-hunter/internal/metrics"
	"github.com/william165-bot/net-hunter/internal/models"
	pkgauth "github.com/william165-bot/net-hunter/pkg/auth"
)

var testNow = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

const testJWTSecret = "test-secret-32-characters-long!!"

func newTestAccountService(store AccountStore) (*AccountService, *metrics.Metrics) {
	m := metrics.New()
	tm := auth.NewTokenManager(testJWTSecret, 30*24*time.Hour, 7*24*time.Hour)
	svc := NewAccountService(store, tm, nil, m, discardLogger(), discardAudit(), "gmail.com")
	svc.now = fixedClock(testNow)
	return svc, m
}

// ============================================================================
// Signup
// ============================================================================

func TestAccountService_Signup_Success(t *testing.T) {
	store := NewMemoryStore()
	svc, m := newTestAccountService(store)

	acc, err := svc.Signup(context.Background(), "  Alice@GMAIL.com ", "secret-pass")
	require.NoError(t, err)

	assert.Equal(t, "alice@gmail.com", acc.Email)
	assert.Equal(t, testNow, acc.CreatedAt)
	assert.Equal(t, acc.CreatedAt, acc.TrialStartedAt)
	assert.Nil(t, acc.PremiumUntil)
	assert.Empty(t, acc.Payments)
	assert.NoError(t, pkgauth.ComparePassword(acc.PasswordHash, "secret-pass"))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.Signups))

	stored, err := store.Get(context.Background(), "alice@gmail.com")
	require.NoError(t, err)
	assert.Equal(t, acc.PasswordHash, stored.PasswordHash)
}

func TestAccountService_Signup_DomainNotAllowed(t *testing.T) {
	created := false
	store := &MockAccountStore{
		CreateFunc: func(ctx context.Context, acc *models.Account) error {
			created = true
			return nil
		},
	}
	svc, _ := newTestAccountService(store)

	for _, email := range []string{"bob@yahoo.com", "bob@notgmail.com", "bob@gmail.com.evil.io", "gmail.com"} {
		_, err := svc.Signup(context.Background(), email, "secret-pass")
		assert.ErrorIs(t, err, models.ErrForbiddenDomain, email)
	}
	assert.False(t, created)
}

func TestAccountService_Signup_InvalidInput(t *testing.T) {
	svc, _ := newTestAccountService(NewMemoryStore())

	_, err := svc.Signup(context.Background(), "", "secret-pass")
	assert.ErrorIs(t, err, models.ErrBadRequest)

	_, err = svc.Signup(context.Background(), "alice@gmail.com", "")
	assert.ErrorIs(t, err, models.ErrBadRequest)

	_, err = svc.Signup(context.Background(), "alice@gmail.com", "12345")
	assert.ErrorIs(t, err, models.ErrBadRequest)
	assert.Contains(t, err.Error(), "at least 6")
}

func TestAccountService_Signup_Duplicate(t *testing.T) {
	store := NewMemoryStore(NewTestAccount("alice@gmail.com", testNow.Add(-time.Hour)))
	svc, m := newTestAccountService(store)

	_, err := svc.Signup(context.Background(), "ALICE@gmail.com", "secret-pass")
	assert.ErrorIs(t, err, models.ErrConflict)
	assert.Equal(t, float64(0), testutil.ToFloat64(m.Signups))
}

func TestAccountService_Signup_StoreFailure(t *testing.T) {
	store := &MockAccountStore{
		CreateFunc: func(ctx context.Context, acc *models.Account) error {
			return assert.AnError
		},
	}
	svc, _ := newTestAccountService(store)

	_, err := svc.Signup(context.Background(), "alice@gmail.com", "secret-pass")
	assert.ErrorIs(t, err, models.ErrInternalServer)
}

// ============================================================================
// Signin
// ============================================================================

func seededAccount(t *testing.T, email, password string) *models.Account {
	t.Helper()
	hash, err := pkgauth.HashPassword(password)
	require.NoError(t, err)
	acc := NewTestAccount(email, testNow.Add(-time.Hour))
	acc.PasswordHash = hash
	return acc
}

func TestAccountService_Signin(t *testing.T) {
	store := NewMemoryStore(seededAccount(t, "alice@gmail.com", "secret-pass"))
	svc, m := newTestAccountService(store)
	tm := auth.NewTokenManager(testJWTSecret, time.Hour, time.Hour)

	t.Run("success", func(t *testing.T) {
		token, err := svc.Signin(context.Background(), "Alice@gmail.com", "secret-pass")
		require.NoError(t, err)

		claims, err := tm.ValidateToken(token)
		require.NoError(t, err)
		assert.Equal(t, "alice@gmail.com", claims.Subject)
		assert.Equal(t, models.RoleUser, claims.Role)
	})

	t.Run("unknown account", func(t *testing.T) {
		_, err := svc.Signin(context.Background(), "nobody@gmail.com", "secret-pass")
		assert.ErrorIs(t, err, models.ErrNotFound)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := svc.Signin(context.Background(), "alice@gmail.com", "wrong-pass")
		assert.ErrorIs(t, err, models.ErrUnauthorized)
	})

	t.Run("missing fields", func(t *testing.T) {
		_, err := svc.Signin(context.Background(), "alice@gmail.com", "")
		assert.ErrorIs(t, err, models.ErrBadRequest)
	})

	assert.Equal(t, float64(1), testutil.ToFloat64(m.Signins.WithLabelValues("success")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.Signins.WithLabelValues("not_found")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.Signins.WithLabelValues("invalid_password")))
}

func TestAccountService_Signin_FailureIsPadded(t *testing.T) {
	store := NewMemoryStore()
	svc, _ := newTestAccountService(store)
	svc.timing = auth.NewTimingDelay(auth.TimingConfig{Base: 40 * time.Millisecond})

	start := time.Now()
	_, err := svc.Signin(context.Background(), "nobody@gmail.com", "secret-pass")

	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond)
}

// ============================================================================
// Me
// ============================================================================

func TestAccountService_Me(t *testing.T) {
	acc := NewTestAccount("alice@gmail.com", testNow.Add(-23*time.Hour))
	svc, _ := newTestAccountService(NewMemoryStore(acc))

	view, err := svc.Me(context.Background(), "alice@gmail.com")
	require.NoError(t, err)

	assert.Equal(t, "alice@gmail.com", view.Email)
	assert.Nil(t, view.PremiumUntil)
	assert.Equal(t, models.TierTrial, view.Access.Tier)
	assert.True(t, view.Access.Allowed)
	assert.Equal(t, int64(3600), view.Access.RemainingSeconds)
	require.NotNil(t, view.Access.ExpiresAt)
	assert.Equal(t, "2026-03-14T13:00:00.000Z", *view.Access.ExpiresAt)
}

func TestAccountService_Me_NotFound(t *testing.T) {
	svc, _ := newTestAccountService(NewMemoryStore())

	_, err := svc.Me(context.Background(), "ghost@gmail.com")
	assert.ErrorIs(t, err, models.ErrNotFound)
}
