package models

import (
	"encoding/json"
	"time"
)

// PaymentRecord is the persisted and wire form of Payment.
type PaymentRecord struct {
	At  string `json:"at"`
	Via string `json:"via"`
}

// AccountRecord is the persisted JSON shape of an account.
type AccountRecord struct {
	Email          string          `json:"email"`
	PasswordHash   string          `json:"password_hash"`
	CreatedAt      string          `json:"created_at"`
	TrialStartedAt string          `json:"trial_started_at"`
	PremiumUntil   *string         `json:"premium_until"`
	Payments       []PaymentRecord `json:"payments"`
}

// UnmarshalJSON decodes a stored record leniently. Timestamp fields that
// are not strings decode as absent and malformed payment entries are
// dropped, so one bad field never hides the whole account.
func (r *AccountRecord) UnmarshalJSON(data []byte) error {
	var raw struct {
		Email          string          `json:"email"`
		PasswordHash   string          `json:"password_hash"`
		CreatedAt      json.RawMessage `json:"created_at"`
		TrialStartedAt json.RawMessage `json:"trial_started_at"`
		PremiumUntil   json.RawMessage `json:"premium_until"`
		Payments       json.RawMessage `json:"payments"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*r = AccountRecord{
		Email:          raw.Email,
		PasswordHash:   raw.PasswordHash,
		CreatedAt:      lenientString(raw.CreatedAt),
		TrialStartedAt: lenientString(raw.TrialStartedAt),
		Payments:       lenientPayments(raw.Payments),
	}
	if until := lenientString(raw.PremiumUntil); until != "" {
		r.PremiumUntil = &until
	}
	return nil
}

func lenientString(raw json.RawMessage) string {
	var s string
	if len(raw) == 0 || json.Unmarshal(raw, &s) != nil {
		return ""
	}
	return s
}

func lenientPayments(raw json.RawMessage) []PaymentRecord {
	var entries []json.RawMessage
	if len(raw) == 0 || json.Unmarshal(raw, &entries) != nil {
		return []PaymentRecord{}
	}

	out := make([]PaymentRecord, 0, len(entries))
	for _, entry := range entries {
		var p struct {
			At  json.RawMessage `json:"at"`
			Via json.RawMessage `json:"via"`
		}
		if json.Unmarshal(entry, &p) != nil {
			continue
		}
		at := lenientString(p.At)
		if at == "" {
			continue
		}
		out = append(out, PaymentRecord{At: at, Via: lenientString(p.Via)})
	}
	return out
}

// AccountView is an account as returned to clients: no password hash, plus
// the server-computed access summary.
type AccountView struct {
	Email          string          `json:"email"`
	CreatedAt      string          `json:"created_at"`
	TrialStartedAt string          `json:"trial_started_at"`
	PremiumUntil   *string         `json:"premium_until"`
	Payments       []PaymentRecord `json:"payments"`
	Access         AccessSummary   `json:"access"`
}

// ToRecord converts an account into its persisted form.
func (a Account) ToRecord() AccountRecord {
	rec := AccountRecord{
		Email:          a.Email,
		PasswordHash:   a.PasswordHash,
		CreatedAt:      formatOptional(a.CreatedAt),
		TrialStartedAt: formatOptional(a.TrialStartedAt),
		Payments:       paymentRecords(a.Payments),
	}
	if a.PremiumUntil != nil {
		until := FormatTimestamp(*a.PremiumUntil)
		rec.PremiumUntil = &until
	}
	return rec
}

// ToAccount converts a persisted record back into an account. Unparseable
// timestamps become absent.
func (r AccountRecord) ToAccount() Account {
	acc := Account{
		Email:          r.Email,
		PasswordHash:   r.PasswordHash,
		CreatedAt:      ParseTimestamp(r.CreatedAt),
		TrialStartedAt: ParseTimestamp(r.TrialStartedAt),
		Payments:       make([]Payment, 0, len(r.Payments)),
	}
	if r.PremiumUntil != nil {
		if until := ParseTimestamp(*r.PremiumUntil); !until.IsZero() {
			acc.PremiumUntil = &until
		}
	}
	for _, p := range r.Payments {
		acc.Payments = append(acc.Payments, Payment{At: ParseTimestamp(p.At), Via: p.Via})
	}
	return acc
}

// NewAccountView strips the password hash and attaches access.
func NewAccountView(a Account, access AccessSummary) AccountView {
	rec := a.ToRecord()
	return AccountView{
		Email:          rec.Email,
		CreatedAt:      rec.CreatedAt,
		TrialStartedAt: rec.TrialStartedAt,
		PremiumUntil:   rec.PremiumUntil,
		Payments:       rec.Payments,
		Access:         access,
	}
}

func paymentRecords(payments []Payment) []PaymentRecord {
	out := make([]PaymentRecord, 0, len(payments))
	for _, p := range payments {
		out = append(out, PaymentRecord{At: FormatTimestamp(p.At), Via: p.Via})
	}
	return out
}

func formatOptional(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return FormatTimestamp(t)
}
