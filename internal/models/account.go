package models

import (
	"time"
)

// Payment origins recorded on the account audit trail
const (
	PaymentViaAdmin = "admin"
)

// Payment is one entry of an account's append-only payment trail.
type Payment struct {
	At  time.Time
	Via string // opaque origin tag, e.g. "admin" or "flutterwave-redirect"
}

// Account is a gated user account, keyed by lower-cased email.
type Account struct {
	Email          string
	PasswordHash   string
	CreatedAt      time.Time
	TrialStartedAt time.Time  // zero means absent
	PremiumUntil   *time.Time // nil means no premium grant
	Payments       []Payment
}

// Clone returns a deep copy so callers can mutate it without aliasing.
func (a Account) Clone() Account {
	out := a
	if a.PremiumUntil != nil {
		until := *a.PremiumUntil
		out.PremiumUntil = &until
	}
	if a.Payments != nil {
		out.Payments = make([]Payment, len(a.Payments))
		copy(out.Payments, a.Payments)
	}
	return out
}

// AppendPayment records a payment entry. The trail only grows.
func (a *Account) AppendPayment(at time.Time, via string) {
	a.Payments = append(a.Payments, Payment{At: at, Via: via})
}

// TimestampLayout is the wire format for account instants (UTC, millisecond precision).
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// FormatTimestamp renders t in TimestampLayout.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// ParseTimestamp parses an RFC 3339 instant. Empty or malformed input yields
// the zero time, which the entitlement engine treats as "no grant".
func ParseTimestamp(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t.UTC()
}
