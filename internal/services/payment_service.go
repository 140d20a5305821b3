package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/william165-bot/net-hunter/internal/entitlement"
	"github.com/william165-bot/net-hunter/internal/metrics"
	"github.com/william165-bot/net-hunter/internal/models"
	pkglogger "github.com/william165-bot/net-hunter/pkg/logger"
)

const receiptTimeout = 5 * time.Second

// PaymentService confirms a payment redirect by extending premium
type PaymentService struct {
	store       AccountStore
	notifier    Notifier
	metrics     *metrics.Metrics
	logger      *slog.Logger
	auditLogger *pkglogger.AuditLogger
	days        int
	via         string
	now         func() time.Time
}

// NewPaymentService creates a new PaymentService
func NewPaymentService(
	store AccountStore,
	notifier Notifier,
	m *metrics.Metrics,
	logger *slog.Logger,
	auditLogger *pkglogger.AuditLogger,
	days int,
	via string,
) *PaymentService {
	if notifier == nil {
		notifier = NoopNotifier{}
	}
	return &PaymentService{
		store:       store,
		notifier:    notifier,
		metrics:     m,
		logger:      logger,
		auditLogger: auditLogger,
		days:        days,
		via:         via,
		now:         time.Now,
	}
}

// Unlock extends the caller's premium and records the payment. The receipt
// email is best effort.
func (s *PaymentService) Unlock(ctx context.Context, email string) (*models.Account, error) {
	email = NormalizeEmail(email)
	now := s.now()

	updated, err := s.store.Update(ctx, email, func(acc *models.Account) error {
		*acc = entitlement.GrantOrExtend(*acc, s.days, now)
		acc.AppendPayment(now, s.via)
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, models.ErrNotFound):
			return nil, models.ErrNotFound
		case errors.Is(err, models.ErrConcurrentUpdate):
			return nil, models.ErrConcurrentUpdate
		}
		s.logger.Error("failed to unlock premium",
			slog.String("email", pkglogger.SanitizedEmail(email)),
			slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.metrics.EntitlementMutations.WithLabelValues("unlock").Inc()
	s.auditLogger.LogEntitlementChange(pkglogger.EntitlementEvent{
		Action:       "unlock",
		Email:        email,
		Actor:        models.RoleUser,
		Via:          s.via,
		Days:         s.days,
		PremiumUntil: updated.PremiumUntil,
	})

	receiptCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), receiptTimeout)
	defer cancel()
	if err := s.notifier.SendPremiumReceipt(receiptCtx, email, *updated.PremiumUntil); err != nil {
		s.logger.Warn("premium receipt not sent",
			slog.String("email", pkglogger.SanitizedEmail(email)),
			slog.Any("error", err))
	}

	return updated, nil
}
