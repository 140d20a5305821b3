package services

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/william165-bot/net-hunter/internal/auth"
	"github.com/william165-bot/net-hunter/internal/entitlement"
	"github.com/william165-bot/net-hunter/internal/metrics"
	"github.com/william165-bot/net-hunter/internal/models"
)

func newTestAdminService(store AccountStore) (*AdminService, *metrics.Metrics) {
	m := metrics.New()
	tm := auth.NewTokenManager(testJWTSecret, 30*24*time.Hour, 7*24*time.Hour)
	authenticator := auth.NewAdminAuthenticator("admin", "admin-pass", "")
	svc := NewAdminService(store, tm, authenticator, nil, m, discardLogger(), discardAudit(), 30)
	svc.now = fixedClock(testNow)
	return svc, m
}

func ptrTime(t time.Time) *time.Time { return &t }

// ============================================================================
// Login
// ============================================================================

func TestAdminService_Login(t *testing.T) {
	svc, _ := newTestAdminService(NewMemoryStore())

	token, err := svc.Login(context.Background(), "admin", "admin-pass", "")
	require.NoError(t, err)

	claims, err := auth.NewTokenManager(testJWTSecret, time.Hour, time.Hour).ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, claims.Role)

	_, err = svc.Login(context.Background(), "admin", "nope", "")
	assert.ErrorIs(t, err, models.ErrUnauthorized)
}

// ============================================================================
// ListUsers
// ============================================================================

func TestAdminService_ListUsers_SortOrder(t *testing.T) {
	oldTrial := NewTestAccount("old@gmail.com", testNow.Add(-72*time.Hour))
	newTrial := NewTestAccount("new@gmail.com", testNow.Add(-time.Hour))
	shortPremium := NewTestAccount("short@gmail.com", testNow.Add(-48*time.Hour))
	shortPremium.PremiumUntil = ptrTime(testNow.Add(2 * 24 * time.Hour))
	longPremium := NewTestAccount("long@gmail.com", testNow.Add(-96*time.Hour))
	longPremium.PremiumUntil = ptrTime(testNow.Add(20 * 24 * time.Hour))
	lapsed := NewTestAccount("lapsed@gmail.com", testNow.Add(-200*time.Hour))
	lapsed.PremiumUntil = ptrTime(testNow.Add(-24 * time.Hour))

	svc, _ := newTestAdminService(NewMemoryStore(oldTrial, newTrial, shortPremium, longPremium, lapsed))

	views, err := svc.ListUsers(context.Background())
	require.NoError(t, err)

	emails := make([]string, len(views))
	for i, v := range views {
		emails[i] = v.Email
	}
	assert.Equal(t, []string{
		"long@gmail.com",
		"short@gmail.com",
		"lapsed@gmail.com",
		"new@gmail.com",
		"old@gmail.com",
	}, emails)

	assert.Equal(t, models.TierPremium, views[0].Access.Tier)
	assert.Equal(t, models.TierExpired, views[2].Access.Tier)
	assert.Equal(t, models.TierTrial, views[3].Access.Tier)
}

func TestAdminService_ListUsers_StoreFailure(t *testing.T) {
	store := &MockAccountStore{
		ListFunc: func(ctx context.Context) ([]*models.Account, error) {
			return nil, assert.AnError
		},
	}
	svc, _ := newTestAdminService(store)

	_, err := svc.ListUsers(context.Background())
	assert.ErrorIs(t, err, models.ErrInternalServer)
}

// ============================================================================
// Mutate
// ============================================================================

func TestAdminService_Mutate_GrantDefaultsToThirtyDays(t *testing.T) {
	store := NewMemoryStore(NewTestAccount("alice@gmail.com", testNow.Add(-25*time.Hour)))
	svc, m := newTestAdminService(store)

	view, err := svc.Mutate(context.Background(), "Alice@gmail.com", models.ActionGrant, 0)
	require.NoError(t, err)

	require.NotNil(t, view.PremiumUntil)
	assert.Equal(t, "2026-04-13T12:00:00.000Z", *view.PremiumUntil)
	assert.Equal(t, models.TierPremium, view.Access.Tier)
	require.Len(t, view.Payments, 1)
	assert.Equal(t, models.PaymentViaAdmin, view.Payments[0].Via)
	assert.Equal(t, "2026-03-14T12:00:00.000Z", view.Payments[0].At)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.EntitlementMutations.WithLabelValues("grant")))
}

func TestAdminService_Mutate_ExtendStacksOntoActivePremium(t *testing.T) {
	acc := NewTestAccount("alice@gmail.com", testNow.Add(-72*time.Hour))
	acc.PremiumUntil = ptrTime(testNow.Add(2 * 24 * time.Hour))
	store := NewMemoryStore(acc)
	svc, _ := newTestAdminService(store)

	_, err := svc.Mutate(context.Background(), "alice@gmail.com", models.ActionExtend, 30)
	require.NoError(t, err)

	stored, err := store.Get(context.Background(), "alice@gmail.com")
	require.NoError(t, err)
	require.NotNil(t, stored.PremiumUntil)
	assert.Equal(t, testNow.Add(32*24*time.Hour), *stored.PremiumUntil)
	assert.Equal(t, acc.TrialStartedAt, stored.TrialStartedAt)
}

func TestAdminService_Mutate_ExplicitDays(t *testing.T) {
	store := NewMemoryStore(NewTestAccount("alice@gmail.com", testNow.Add(-time.Hour)))
	svc, _ := newTestAdminService(store)

	_, err := svc.Mutate(context.Background(), "alice@gmail.com", models.ActionGrant, 7)
	require.NoError(t, err)

	stored, _ := store.Get(context.Background(), "alice@gmail.com")
	assert.Equal(t, testNow.Add(7*24*time.Hour), *stored.PremiumUntil)
}

func TestAdminService_Mutate_Revoke(t *testing.T) {
	acc := NewTestAccount("alice@gmail.com", testNow.Add(-2*time.Hour))
	acc.PremiumUntil = ptrTime(testNow.Add(10 * 24 * time.Hour))
	acc.AppendPayment(testNow.Add(-time.Hour), "flutterwave-redirect")
	store := NewMemoryStore(acc)
	svc, _ := newTestAdminService(store)

	view, err := svc.Mutate(context.Background(), "alice@gmail.com", models.ActionRevoke, 0)
	require.NoError(t, err)

	assert.Nil(t, view.PremiumUntil)
	assert.Equal(t, models.TierTrial, view.Access.Tier)
	assert.Len(t, view.Payments, 1)

	again, err := svc.Mutate(context.Background(), "alice@gmail.com", models.ActionRevoke, 0)
	require.NoError(t, err)
	assert.Equal(t, view, again)
}

func TestAdminService_Mutate_ResetTrial(t *testing.T) {
	acc := NewTestAccount("alice@gmail.com", testNow.Add(-10*24*time.Hour))
	store := NewMemoryStore(acc)
	svc, _ := newTestAdminService(store)

	view, err := svc.Mutate(context.Background(), "alice@gmail.com", models.ActionResetTrial, 0)
	require.NoError(t, err)

	assert.Equal(t, "2026-03-14T12:00:00.000Z", view.TrialStartedAt)
	assert.Equal(t, "2026-03-04T12:00:00.000Z", view.CreatedAt)
	assert.Equal(t, models.TierTrial, view.Access.Tier)
	assert.Equal(t, int64(entitlement.TrialWindow/time.Second), view.Access.RemainingSeconds)
	assert.Empty(t, view.Payments)
}

func TestAdminService_Mutate_UnknownActionTouchesNothing(t *testing.T) {
	touched := false
	store := &MockAccountStore{
		UpdateFunc: func(ctx context.Context, email string, fn func(*models.Account) error) (*models.Account, error) {
			touched = true
			return nil, nil
		},
	}
	svc, _ := newTestAdminService(store)

	for _, action := range []string{"delete", "", "GRANT"} {
		_, err := svc.Mutate(context.Background(), "alice@gmail.com", action, 30)
		assert.ErrorIs(t, err, models.ErrUnknownAction, action)
	}
	assert.False(t, touched)
}

func TestAdminService_Mutate_Errors(t *testing.T) {
	svc, _ := newTestAdminService(NewMemoryStore())

	_, err := svc.Mutate(context.Background(), "ghost@gmail.com", models.ActionGrant, 30)
	assert.ErrorIs(t, err, models.ErrNotFound)

	_, err = svc.Mutate(context.Background(), " ", models.ActionGrant, 30)
	assert.ErrorIs(t, err, models.ErrBadRequest)

	busy := &MockAccountStore{
		UpdateFunc: func(ctx context.Context, email string, fn func(*models.Account) error) (*models.Account, error) {
			return nil, models.ErrConcurrentUpdate
		},
	}
	svc, _ = newTestAdminService(busy)
	_, err = svc.Mutate(context.Background(), "alice@gmail.com", models.ActionRevoke, 0)
	assert.ErrorIs(t, err, models.ErrConcurrentUpdate)
}
