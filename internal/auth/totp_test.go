package auth

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAdminTOTP(t *testing.T) {
	key, err := GenerateAdminTOTP("net-hunter", "admin", 256)
	require.NoError(t, err)

	assert.NotEmpty(t, key.Secret)
	assert.True(t, strings.HasPrefix(key.URL, "otpauth://totp/"))
	assert.Contains(t, key.URL, "issuer=net-hunter")
	assert.True(t, bytes.HasPrefix(key.QRCode, []byte("\x89PNG")))
}

func TestGenerateAdminTOTP_SecretWorksWithAuthenticator(t *testing.T) {
	key, err := GenerateAdminTOTP("net-hunter", "admin", 128)
	require.NoError(t, err)

	now := time.Now()
	code, err := totp.GenerateCode(key.Secret, now)
	require.NoError(t, err)

	a := NewAdminAuthenticator("admin", "pw-pw-pw", key.Secret)
	a.now = func() time.Time { return now }
	assert.NoError(t, a.Verify("admin", "pw-pw-pw", code))
}

func TestGenerateAdminTOTP_UniqueSecrets(t *testing.T) {
	a, err := GenerateAdminTOTP("net-hunter", "admin", 128)
	require.NoError(t, err)
	b, err := GenerateAdminTOTP("net-hunter", "admin", 128)
	require.NoError(t, err)

	assert.NotEqual(t, a.Secret, b.Secret)
}
