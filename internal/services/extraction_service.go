package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/william165-bot/net-hunter/internal/entitlement"
	"github.com/william165-bot/net-hunter/internal/extract"
	"github.com/william165-bot/net-hunter/internal/metrics"
	"github.com/william165-bot/net-hunter/internal/models"
	pkglogger "github.com/william165-bot/net-hunter/pkg/logger"
)

// ExtractionLimits caps the URLs returned per extraction by tier
type ExtractionLimits struct {
	Trial   int
	Premium int
}

// DefaultExtractionLimits returns the free and premium caps
func DefaultExtractionLimits() ExtractionLimits {
	return ExtractionLimits{Trial: 1000, Premium: 10000}
}

func (l ExtractionLimits) forTier(tier models.Tier) int {
	if tier == models.TierPremium {
		return l.Premium
	}
	return l.Trial
}

// ExtractionService runs URL extraction for accounts with live access
type ExtractionService struct {
	store   AccountStore
	metrics *metrics.Metrics
	logger  *slog.Logger
	limits  ExtractionLimits
	now     func() time.Time
}

// NewExtractionService creates a new ExtractionService
func NewExtractionService(store AccountStore, m *metrics.Metrics, logger *slog.Logger, limits ExtractionLimits) *ExtractionService {
	return &ExtractionService{
		store:   store,
		metrics: m,
		logger:  logger,
		limits:  limits,
		now:     time.Now,
	}
}

// Extract returns the URLs found in text, capped by the caller's tier.
// Access is decided here from the stored account, never by the client.
func (s *ExtractionService) Extract(ctx context.Context, email, text string) (*models.Extraction, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: text cannot be empty", models.ErrBadRequest)
	}
	if utf8.RuneCountInString(text) > extract.MaxInputLength {
		return nil, fmt.Errorf("%w: text is too long", models.ErrBadRequest)
	}

	email = NormalizeEmail(email)
	acc, err := s.store.Get(ctx, email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to load account for extraction",
			slog.String("email", pkglogger.SanitizedEmail(email)),
			slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	decision := entitlement.ComputeAccess(*acc, s.now())
	if !decision.Allowed {
		s.metrics.Extractions.WithLabelValues(string(decision.Tier), "denied").Inc()
		s.logger.Info("extraction denied: access expired",
			slog.String("email", pkglogger.SanitizedEmail(email)))
		return nil, models.ErrAccessExpired
	}

	limit := s.limits.forTier(decision.Tier)
	res := extract.FromText(text, limit)

	s.metrics.Extractions.WithLabelValues(string(decision.Tier), "ok").Inc()
	s.metrics.ExtractedURLs.WithLabelValues(string(decision.Tier)).Add(float64(len(res.URLs)))
	if res.Truncated {
		s.logger.Info("extraction truncated at tier limit",
			slog.String("email", pkglogger.SanitizedEmail(email)),
			slog.String("tier", string(decision.Tier)),
			slog.Int("found", res.Found),
			slog.Int("limit", limit))
	}

	return &models.Extraction{
		Tier:      decision.Tier,
		Limit:     limit,
		Found:     res.Found,
		Truncated: res.Truncated,
		URLs:      res.URLs,
	}, nil
}
