package auth

import (
	"fmt"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
	qrcode "github.com/skip2/go-qrcode"
)

// AdminTOTPKey is a freshly generated admin second factor
type AdminTOTPKey struct {
	Secret string // base32, goes into ADMIN_TOTP_SECRET
	URL    string // otpauth:// provisioning URL
	QRCode []byte // PNG encoding of URL
}

// GenerateAdminTOTP creates a TOTP secret for the console admin and renders
// its provisioning QR code at the given pixel size.
func GenerateAdminTOTP(issuer, accountName string, qrSize int) (*AdminTOTPKey, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      issuer,
		AccountName: accountName,
		SecretSize:  32,
		Period:      totpPeriod,
		Digits:      otp.DigitsSix,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate TOTP key: %w", err)
	}

	png, err := qrcode.Encode(key.URL(), qrcode.Highest, qrSize)
	if err != nil {
		return nil, fmt.Errorf("failed to encode QR code: %w", err)
	}

	return &AdminTOTPKey{
		Secret: key.Secret(),
		URL:    key.URL(),
		QRCode: png,
	}, nil
}
