package background

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/william165-bot/net-hunter/internal/metrics"
	"github.com/william165-bot/net-hunter/internal/models"
)

var testNow = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

type fakeLister struct {
	accounts []*models.Account
	err      error
	calls    atomic.Int32
}

func (f *fakeLister) List(ctx context.Context) ([]*models.Account, error) {
	f.calls.Add(1)
	return f.accounts, f.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func account(trialStart time.Time, premiumUntil *time.Time) *models.Account {
	return &models.Account{
		Email:          "user@gmail.com",
		CreatedAt:      trialStart,
		TrialStartedAt: trialStart,
		PremiumUntil:   premiumUntil,
	}
}

func gauge(m *metrics.Metrics, tier models.Tier) float64 {
	return testutil.ToFloat64(m.Accounts.WithLabelValues(string(tier)))
}

func TestRunCensus_CountsTiers(t *testing.T) {
	future := testNow.Add(48 * time.Hour)
	past := testNow.Add(-48 * time.Hour)
	lister := &fakeLister{accounts: []*models.Account{
		account(testNow.Add(-time.Hour), nil),
		account(testNow.Add(-2*time.Hour), nil),
		account(testNow.Add(-72*time.Hour), &future),
		account(testNow.Add(-72*time.Hour), &past),
		account(testNow.Add(-30*time.Hour), nil),
	}}
	m := metrics.New()

	cm := NewCensusManager(lister, m, discardLogger(), time.Minute)
	cm.now = func() time.Time { return testNow }
	cm.runCensus(context.Background())

	assert.Equal(t, 1.0, gauge(m, models.TierPremium))
	assert.Equal(t, 2.0, gauge(m, models.TierTrial))
	assert.Equal(t, 2.0, gauge(m, models.TierExpired))
}

func TestRunCensus_EmptyStoreZeroesGauges(t *testing.T) {
	m := metrics.New()
	m.Accounts.WithLabelValues(string(models.TierTrial)).Set(7)

	cm := NewCensusManager(&fakeLister{}, m, discardLogger(), time.Minute)
	cm.runCensus(context.Background())

	assert.Equal(t, 0.0, gauge(m, models.TierTrial))
	assert.Equal(t, 0.0, gauge(m, models.TierPremium))
}

func TestRunCensus_ListFailureKeepsPreviousValues(t *testing.T) {
	m := metrics.New()
	m.Accounts.WithLabelValues(string(models.TierPremium)).Set(3)

	cm := NewCensusManager(&fakeLister{err: errors.New("redis down")}, m, discardLogger(), time.Minute)
	cm.runCensus(context.Background())

	assert.Equal(t, 3.0, gauge(m, models.TierPremium))
}

func TestStart_RunsImmediatelyAndStops(t *testing.T) {
	lister := &fakeLister{}
	cm := NewCensusManager(lister, metrics.New(), discardLogger(), time.Hour)

	done := make(chan struct{})
	go func() {
		cm.Start(context.Background())
		close(done)
	}()

	assert.Eventually(t, func() bool { return lister.calls.Load() == 1 }, time.Second, 5*time.Millisecond)

	cm.Stop()
	cm.Stop()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("census manager did not stop")
	}
}

func TestStart_StopsOnContextCancel(t *testing.T) {
	cm := NewCensusManager(&fakeLister{}, metrics.New(), discardLogger(), time.Hour)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		cm.Start(ctx)
		close(done)
	}()

	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("census manager ignored cancellation")
	}
}
