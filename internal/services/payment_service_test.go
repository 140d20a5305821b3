package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/william165-bot/net-hunter/internal/metrics"
	"github.com/william165-bot/net-hunter/internal/models"
)

func newTestPaymentService(store AccountStore, notifier Notifier) (*PaymentService, *metrics.Metrics) {
	m := metrics.New()
	svc := NewPaymentService(store, notifier, m, discardLogger(), discardAudit(), 30, "flutterwave-redirect")
	svc.now = fixedClock(testNow)
	return svc, m
}

func TestPaymentService_Unlock_FromTrial(t *testing.T) {
	store := NewMemoryStore(NewTestAccount("alice@gmail.com", testNow.Add(-time.Hour)))

	var sentTo string
	var sentUntil time.Time
	notifier := &MockNotifier{
		SendPremiumReceiptFunc: func(ctx context.Context, email string, premiumUntil time.Time) error {
			sentTo = email
			sentUntil = premiumUntil
			return nil
		},
	}
	svc, m := newTestPaymentService(store, notifier)

	acc, err := svc.Unlock(context.Background(), "alice@gmail.com")
	require.NoError(t, err)

	require.NotNil(t, acc.PremiumUntil)
	assert.Equal(t, testNow.Add(30*24*time.Hour), *acc.PremiumUntil)
	require.Len(t, acc.Payments, 1)
	assert.Equal(t, models.Payment{At: testNow, Via: "flutterwave-redirect"}, acc.Payments[0])
	assert.Equal(t, "alice@gmail.com", sentTo)
	assert.Equal(t, *acc.PremiumUntil, sentUntil)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.EntitlementMutations.WithLabelValues("unlock")))
}

func TestPaymentService_Unlock_StacksRepeatedPayments(t *testing.T) {
	store := NewMemoryStore(NewTestAccount("alice@gmail.com", testNow.Add(-time.Hour)))
	svc, _ := newTestPaymentService(store, nil)

	_, err := svc.Unlock(context.Background(), "alice@gmail.com")
	require.NoError(t, err)
	acc, err := svc.Unlock(context.Background(), "alice@gmail.com")
	require.NoError(t, err)

	assert.Equal(t, testNow.Add(60*24*time.Hour), *acc.PremiumUntil)
	assert.Len(t, acc.Payments, 2)
}

func TestPaymentService_Unlock_ReceiptFailureIsNotFatal(t *testing.T) {
	store := NewMemoryStore(NewTestAccount("alice@gmail.com", testNow.Add(-time.Hour)))
	notifier := &MockNotifier{
		SendPremiumReceiptFunc: func(ctx context.Context, email string, premiumUntil time.Time) error {
			return errors.New("ses throttled")
		},
	}
	svc, _ := newTestPaymentService(store, notifier)

	acc, err := svc.Unlock(context.Background(), "alice@gmail.com")
	require.NoError(t, err)
	assert.NotNil(t, acc.PremiumUntil)
}

func TestPaymentService_Unlock_ReceiptSurvivesCancelledRequest(t *testing.T) {
	store := NewMemoryStore(NewTestAccount("alice@gmail.com", testNow.Add(-time.Hour)))
	var receiptErr error
	notifier := &MockNotifier{
		SendPremiumReceiptFunc: func(ctx context.Context, email string, premiumUntil time.Time) error {
			receiptErr = ctx.Err()
			return nil
		},
	}
	svc, _ := newTestPaymentService(store, notifier)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := svc.Unlock(ctx, "alice@gmail.com")
	require.NoError(t, err)
	assert.NoError(t, receiptErr)
}

func TestPaymentService_Unlock_UnknownAccount(t *testing.T) {
	svc, _ := newTestPaymentService(NewMemoryStore(), nil)

	_, err := svc.Unlock(context.Background(), "ghost@gmail.com")
	assert.ErrorIs(t, err, models.ErrNotFound)
}
