package background

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/william165-bot/net-hunter/internal/entitlement"
	"github.com/william165-bot/net-hunter/internal/metrics"
	"github.com/william165-bot/net-hunter/internal/models"
)

// AccountLister is the slice of the account store the census reads
type AccountLister interface {
	List(ctx context.Context) ([]*models.Account, error)
}

// CensusManager periodically counts accounts by access tier and publishes
// the counts on the accounts gauge
type CensusManager struct {
	store    AccountLister
	metrics  *metrics.Metrics
	logger   *slog.Logger
	interval time.Duration
	now      func() time.Time

	stopOnce sync.Once
	stopCh   chan struct{}
}

// NewCensusManager creates a new census manager
func NewCensusManager(
	store AccountLister,
	m *metrics.Metrics,
	logger *slog.Logger,
	interval time.Duration,
) *CensusManager {
	return &CensusManager{
		store:    store,
		metrics:  m,
		logger:   logger,
		interval: interval,
		now:      time.Now,
		stopCh:   make(chan struct{}),
	}
}

// Start runs the census immediately and then on every tick until Stop is
// called or ctx is cancelled. It blocks; run it in its own goroutine.
func (cm *CensusManager) Start(ctx context.Context) {
	ticker := time.NewTicker(cm.interval)
	defer ticker.Stop()

	cm.runCensus(ctx)

	for {
		select {
		case <-ticker.C:
			cm.runCensus(ctx)
		case <-cm.stopCh:
			cm.logger.Info("census manager stopped")
			return
		case <-ctx.Done():
			cm.logger.Info("census manager context cancelled")
			return
		}
	}
}

// runCensus lists every account and sets one gauge value per tier. A failed
// listing leaves the previous values in place.
func (cm *CensusManager) runCensus(ctx context.Context) {
	censusCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	accounts, err := cm.store.List(censusCtx)
	if err != nil {
		cm.logger.Error("account census failed", slog.Any("error", err))
		return
	}

	now := cm.now()
	counts := map[models.Tier]int{
		models.TierPremium: 0,
		models.TierTrial:   0,
		models.TierExpired: 0,
	}
	for _, acc := range accounts {
		counts[entitlement.ComputeAccess(*acc, now).Tier]++
	}

	for tier, n := range counts {
		cm.metrics.Accounts.WithLabelValues(string(tier)).Set(float64(n))
	}

	cm.logger.Debug("account census completed",
		slog.Int("premium", counts[models.TierPremium]),
		slog.Int("trial", counts[models.TierTrial]),
		slog.Int("expired", counts[models.TierExpired]),
	)
}

// Stop signals the census manager to stop. Safe to call more than once.
func (cm *CensusManager) Stop() {
	cm.stopOnce.Do(func() { close(cm.stopCh) })
}
