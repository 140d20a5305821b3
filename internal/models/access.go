package models

import "time"

// Tier is the access level derived for an account at an instant.
type Tier string

const (
	TierPremium Tier = "premium"
	TierTrial   Tier = "trial"
	TierExpired Tier = "expired"
)

// AccessDecision is the result of an entitlement computation.
type AccessDecision struct {
	Tier      Tier
	Allowed   bool
	Remaining time.Duration
}

// AccessSummary is the server-confirmed decision sent to clients.
// Clients render it and never recompute tiers locally.
type AccessSummary struct {
	Tier             Tier    `json:"tier"`
	Allowed          bool    `json:"allowed"`
	RemainingSeconds int64   `json:"remaining_seconds"`
	ExpiresAt        *string `json:"expires_at"`
}
