// Package entitlement decides whether an account may access the gated
// resource at a given instant, and derives the account values produced by
// grants, revocations and trial resets.
//
// Every function here is pure: inputs are never mutated and no I/O happens,
// so the package is safe for concurrent use. Persisting the returned
// accounts is the caller's job.
package entitlement

import (
	"time"

	"github.com/william165-bot/net-hunter/internal/models"
)

const (
	// TrialWindow is the length of the free trial.
	TrialWindow = 24 * time.Hour
	// Day is the unit used by grants.
	Day = 24 * time.Hour
)

// ComputeAccess returns the tier of acc at now.
//
// Premium wins over trial. The trial starts at TrialStartedAt, falling back
// to CreatedAt; when both are absent the account has no trial at all.
func ComputeAccess(acc models.Account, now time.Time) models.AccessDecision {
	if acc.PremiumUntil != nil && now.Before(*acc.PremiumUntil) {
		return models.AccessDecision{
			Tier:      models.TierPremium,
			Allowed:   true,
			Remaining: acc.PremiumUntil.Sub(now),
		}
	}

	if start, ok := trialStart(acc); ok {
		trialEnd := start.Add(TrialWindow)
		if now.Before(trialEnd) {
			return models.AccessDecision{
				Tier:      models.TierTrial,
				Allowed:   true,
				Remaining: trialEnd.Sub(now),
			}
		}
	}

	return models.AccessDecision{Tier: models.TierExpired}
}

// GrantOrExtend pushes PremiumUntil forward by days.
//
// The new expiry is based on the later of now and the current expiry, so an
// active grant stacks and a lapsed one restarts from now.
func GrantOrExtend(acc models.Account, days int, now time.Time) models.Account {
	out := acc.Clone()

	base := now
	if acc.PremiumUntil != nil && acc.PremiumUntil.After(now) {
		base = *acc.PremiumUntil
	}

	until := base.Add(time.Duration(days) * Day)
	out.PremiumUntil = &until
	return out
}

// Revoke clears the premium grant. Trial state and payments are kept.
func Revoke(acc models.Account) models.Account {
	out := acc.Clone()
	out.PremiumUntil = nil
	return out
}

// ResetTrial restarts the trial window at now without touching premium.
func ResetTrial(acc models.Account, now time.Time) models.Account {
	out := acc.Clone()
	out.TrialStartedAt = now
	return out
}

// Summarize renders the decision at now for clients.
func Summarize(acc models.Account, now time.Time) models.AccessSummary {
	decision := ComputeAccess(acc, now)

	summary := models.AccessSummary{
		Tier:             decision.Tier,
		Allowed:          decision.Allowed,
		RemainingSeconds: int64(decision.Remaining / time.Second),
	}
	if decision.Allowed {
		expiresAt := models.FormatTimestamp(now.Add(decision.Remaining))
		summary.ExpiresAt = &expiresAt
	}
	return summary
}

func trialStart(acc models.Account) (time.Time, bool) {
	if !acc.TrialStartedAt.IsZero() {
		return acc.TrialStartedAt, true
	}
	if !acc.CreatedAt.IsZero() {
		return acc.CreatedAt, true
	}
	return time.Time{}, false
}
