package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"

	"github.com/william165-bot/net-hunter/internal/models"
)

const totpPeriod = 30

// AdminAuthenticator checks console credentials. The admin has no account
// record; the name and password come from configuration.
type AdminAuthenticator struct {
	nameHash     [sha256.Size]byte
	passwordHash [sha256.Size]byte
	totpSecret   string
	now          func() time.Time

	mu           sync.Mutex
	lastTOTPStep int64
}

// NewAdminAuthenticator creates an authenticator. totpSecret may be empty, in
// which case no second factor is requested.
func NewAdminAuthenticator(name, password, totpSecret string) *AdminAuthenticator {
	return &AdminAuthenticator{
		nameHash:     sha256.Sum256([]byte(name)),
		passwordHash: sha256.Sum256([]byte(password)),
		totpSecret:   strings.ToUpper(strings.TrimSpace(totpSecret)),
		now:          time.Now,
	}
}

// TOTPRequired reports whether a code must accompany the password
func (a *AdminAuthenticator) TOTPRequired() bool {
	return a.totpSecret != ""
}

// Verify returns models.ErrUnauthorized unless name and password match and,
// when configured, code is a fresh TOTP code.
func (a *AdminAuthenticator) Verify(name, password, code string) error {
	nameHash := sha256.Sum256([]byte(name))
	passwordHash := sha256.Sum256([]byte(password))

	// Both comparisons always run
	nameOK := ConstantTimeHashCompare(nameHash[:], a.nameHash[:])
	passwordOK := ConstantTimeHashCompare(passwordHash[:], a.passwordHash[:])
	if !nameOK || !passwordOK {
		return models.ErrUnauthorized
	}

	if !a.TOTPRequired() {
		return nil
	}
	return a.verifyTOTP(code)
}

func (a *AdminAuthenticator) verifyTOTP(code string) error {
	code = strings.TrimSpace(code)
	if code == "" {
		return fmt.Errorf("%w: totp code required", models.ErrUnauthorized)
	}

	now := a.now()
	valid, err := totp.ValidateCustom(code, a.totpSecret, now, totp.ValidateOpts{
		Period:    totpPeriod,
		Skew:      1,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	if err != nil || !valid {
		return fmt.Errorf("%w: invalid totp code", models.ErrUnauthorized)
	}

	// A code stays valid for the whole skew window; accept it once
	step := now.Unix() / totpPeriod
	a.mu.Lock()
	defer a.mu.Unlock()
	if step <= a.lastTOTPStep {
		return fmt.Errorf("%w: totp code already used", models.ErrUnauthorized)
	}
	a.lastTOTPStep = step

	return nil
}

// ConstantTimeHashCompare compares two digests in constant time
func ConstantTimeHashCompare(hash1, hash2 []byte) bool {
	return subtle.ConstantTimeCompare(hash1, hash2) == 1
}
