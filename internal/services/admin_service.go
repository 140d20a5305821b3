package services

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"time"

	"github.com/william165-bot/net-hunter/internal/auth"
	"github.com/william165-bot/net-hunter/internal/entitlement"
	"github.com/william165-bot/net-hunter/internal/metrics"
	"github.com/william165-bot/net-hunter/internal/models"
	pkglogger "github.com/william165-bot/net-hunter/pkg/logger"
)

// AdminService backs the admin console
type AdminService struct {
	store         AccountStore
	tm            *auth.TokenManager
	authenticator *auth.AdminAuthenticator
	timing        *auth.TimingDelay
	metrics       *metrics.Metrics
	logger        *slog.Logger
	auditLogger   *pkglogger.AuditLogger
	defaultDays   int
	now           func() time.Time
}

// NewAdminService creates a new AdminService
func NewAdminService(
	store AccountStore,
	tm *auth.TokenManager,
	authenticator *auth.AdminAuthenticator,
	timing *auth.TimingDelay,
	m *metrics.Metrics,
	logger *slog.Logger,
	auditLogger *pkglogger.AuditLogger,
	defaultDays int,
) *AdminService {
	return &AdminService{
		store:         store,
		tm:            tm,
		authenticator: authenticator,
		timing:        timing,
		metrics:       m,
		logger:        logger,
		auditLogger:   auditLogger,
		defaultDays:   defaultDays,
		now:           time.Now,
	}
}

// Login checks the admin credentials and issues an admin token
func (s *AdminService) Login(ctx context.Context, name, password, code string) (string, error) {
	start := time.Now()

	if err := s.authenticator.Verify(name, password, code); err != nil {
		s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
			EventType:     "admin_login",
			FailureReason: err.Error(),
		})
		if s.timing != nil {
			s.timing.WaitFrom(start, false)
		}
		return "", models.ErrUnauthorized
	}

	token, err := s.tm.IssueAdminToken(name)
	if err != nil {
		s.logger.Error("failed to issue admin token", slog.Any("error", err))
		return "", models.ErrInternalServer
	}

	s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
		EventType: "admin_login",
		Subject:   name,
		Success:   true,
	})

	return token, nil
}

// ListUsers returns every account, most premium time first, then newest
func (s *AdminService) ListUsers(ctx context.Context) ([]models.AccountView, error) {
	accounts, err := s.store.List(ctx)
	if err != nil {
		s.logger.Error("failed to list accounts", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	slices.SortStableFunc(accounts, func(a, b *models.Account) int {
		if c := cmp.Compare(premiumMillis(b), premiumMillis(a)); c != 0 {
			return c
		}
		return b.CreatedAt.Compare(a.CreatedAt)
	})

	now := s.now()
	views := make([]models.AccountView, 0, len(accounts))
	for _, acc := range accounts {
		views = append(views, models.NewAccountView(*acc, entitlement.Summarize(*acc, now)))
	}

	s.auditLogger.LogAdminAction("list_users", "", map[string]string{"count": strconv.Itoa(len(views))})
	return views, nil
}

func premiumMillis(acc *models.Account) int64 {
	if acc.PremiumUntil == nil {
		return 0
	}
	return acc.PremiumUntil.UnixMilli()
}

// Mutate applies an admin action to one account atomically. days <= 0 means
// the configured default. Unknown actions fail before the store is touched.
func (s *AdminService) Mutate(ctx context.Context, email, action string, days int) (*models.AccountView, error) {
	if !models.ValidAction(action) {
		return nil, models.ErrUnknownAction
	}

	email = NormalizeEmail(email)
	if email == "" {
		return nil, fmt.Errorf("%w: email is required", models.ErrBadRequest)
	}

	if days <= 0 {
		days = s.defaultDays
	}

	now := s.now()
	updated, err := s.store.Update(ctx, email, func(acc *models.Account) error {
		switch action {
		case models.ActionGrant, models.ActionExtend:
			*acc = entitlement.GrantOrExtend(*acc, days, now)
			acc.AppendPayment(now, models.PaymentViaAdmin)
		case models.ActionRevoke:
			*acc = entitlement.Revoke(*acc)
		case models.ActionResetTrial:
			*acc = entitlement.ResetTrial(*acc, now)
		}
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, models.ErrNotFound):
			return nil, models.ErrNotFound
		case errors.Is(err, models.ErrConcurrentUpdate):
			return nil, models.ErrConcurrentUpdate
		}
		s.logger.Error("failed to mutate account",
			slog.String("action", action),
			slog.String("email", pkglogger.SanitizedEmail(email)),
			slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.metrics.EntitlementMutations.WithLabelValues(action).Inc()
	event := pkglogger.EntitlementEvent{
		Action:       action,
		Email:        email,
		Actor:        models.RoleAdmin,
		PremiumUntil: updated.PremiumUntil,
	}
	if action == models.ActionGrant || action == models.ActionExtend {
		event.Via = models.PaymentViaAdmin
		event.Days = days
	}
	s.auditLogger.LogEntitlementChange(event)

	view := models.NewAccountView(*updated, entitlement.Summarize(*updated, now))
	return &view, nil
}
