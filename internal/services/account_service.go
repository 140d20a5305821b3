package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/william165-bot/net-hunter/internal/auth"
	"github.com/william165-bot/net-hunter/internal/entitlement"
	"github.com/william165-bot/net-hunter/internal/metrics"
	"github.com/william165-bot/net-hunter/internal/models"
	pkgauth "github.com/william165-bot/net-hunter/pkg/auth"
	pkglogger "github.com/william165-bot/net-hunter/pkg/logger"
)

// AccountStore defines the interface for account persistence
type AccountStore interface {
	Get(ctx context.Context, email string) (*models.Account, error)
	Create(ctx context.Context, acc *models.Account) error
	Put(ctx context.Context, acc *models.Account) error
	List(ctx context.Context) ([]*models.Account, error)
	Update(ctx context.Context, email string, fn func(*models.Account) error) (*models.Account, error)
	Ping(ctx context.Context) error
}

// NormalizeEmail trims and lower-cases an email address
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// AccountService handles signup, signin and the account view
type AccountService struct {
	store         AccountStore
	tm            *auth.TokenManager
	timing        *auth.TimingDelay
	metrics       *metrics.Metrics
	logger        *slog.Logger
	auditLogger   *pkglogger.AuditLogger
	allowedDomain string
	now           func() time.Time
}

// NewAccountService creates a new AccountService
func NewAccountService(
	store AccountStore,
	tm *auth.TokenManager,
	timing *auth.TimingDelay,
	m *metrics.Metrics,
	logger *slog.Logger,
	auditLogger *pkglogger.AuditLogger,
	allowedDomain string,
) *AccountService {
	return &AccountService{
		store:         store,
		tm:            tm,
		timing:        timing,
		metrics:       m,
		logger:        logger,
		auditLogger:   auditLogger,
		allowedDomain: strings.ToLower(allowedDomain),
		now:           time.Now,
	}
}

// domainAllowed applies the single-suffix allow-list
func (s *AccountService) domainAllowed(email string) bool {
	if s.allowedDomain == "" {
		return true
	}
	return strings.HasSuffix(email, "@"+s.allowedDomain)
}

// Signup creates an account whose trial starts now
func (s *AccountService) Signup(ctx context.Context, email, password string) (*models.Account, error) {
	email = NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: email and password are required", models.ErrBadRequest)
	}

	if !s.domainAllowed(email) {
		s.logger.Info("signup rejected: domain not allowed", slog.String("email", pkglogger.SanitizedEmail(email)))
		s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
			EventType:     "signup",
			Subject:       pkglogger.SanitizedEmail(email),
			FailureReason: "domain_not_allowed",
		})
		return nil, models.ErrForbiddenDomain
	}

	if err := pkgauth.ValidatePassword(password); err != nil {
		return nil, fmt.Errorf("%w: %s", models.ErrBadRequest, err.Error())
	}

	hash, err := pkgauth.HashPassword(password)
	if err != nil {
		s.logger.Error("failed to hash password", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	now := s.now().UTC()
	acc := &models.Account{
		Email:          email,
		PasswordHash:   hash,
		CreatedAt:      now,
		TrialStartedAt: now,
		Payments:       []models.Payment{},
	}

	if err := s.store.Create(ctx, acc); err != nil {
		if errors.Is(err, models.ErrConflict) {
			s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
				EventType:     "signup",
				Subject:       pkglogger.SanitizedEmail(email),
				FailureReason: "exists",
			})
			return nil, models.ErrConflict
		}
		s.logger.Error("failed to create account", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.metrics.Signups.Inc()
	s.logger.Info("account created", slog.String("email", pkglogger.SanitizedEmail(email)))
	s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
		EventType: "signup",
		Subject:   pkglogger.SanitizedEmail(email),
		Success:   true,
	})

	return acc, nil
}

// Signin verifies the password and issues a user token. Unknown accounts
// and wrong passwords are reported separately.
func (s *AccountService) Signin(ctx context.Context, email, password string) (string, error) {
	start := time.Now()
	email = NormalizeEmail(email)
	if email == "" || password == "" {
		return "", fmt.Errorf("%w: email and password are required", models.ErrBadRequest)
	}

	acc, err := s.store.Get(ctx, email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			s.signinFailed(start, email, "not_found")
			return "", models.ErrNotFound
		}
		s.logger.Error("failed to get account", slog.Any("error", err))
		return "", models.ErrInternalServer
	}

	if err := pkgauth.ComparePassword(acc.PasswordHash, password); err != nil {
		s.signinFailed(start, email, "invalid_password")
		return "", models.ErrUnauthorized
	}

	token, err := s.tm.IssueUserToken(acc.Email)
	if err != nil {
		s.logger.Error("failed to issue user token", slog.Any("error", err))
		return "", models.ErrInternalServer
	}

	s.metrics.Signins.WithLabelValues("success").Inc()
	s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
		EventType: "signin",
		Subject:   pkglogger.SanitizedEmail(email),
		Success:   true,
	})

	return token, nil
}

func (s *AccountService) signinFailed(start time.Time, email, reason string) {
	s.metrics.Signins.WithLabelValues(reason).Inc()
	s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
		EventType:     "signin",
		Subject:       pkglogger.SanitizedEmail(email),
		FailureReason: reason,
	})
	if s.timing != nil {
		s.timing.WaitFrom(start, false)
	}
}

// Me returns the caller's account with its access summary
func (s *AccountService) Me(ctx context.Context, email string) (*models.AccountView, error) {
	acc, err := s.store.Get(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to get account", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	view := models.NewAccountView(*acc, entitlement.Summarize(*acc, s.now()))
	return &view, nil
}
