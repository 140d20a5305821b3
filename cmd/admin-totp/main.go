// Command admin-totp provisions the optional second factor for the console
// admin. It prints the secret to place in ADMIN_TOTP_SECRET and writes a QR
// code for authenticator apps.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/william165-bot/net-hunter/internal/auth"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))

	_ = godotenv.Load()

	defaultUser := os.Getenv("ADMIN_USER")
	if defaultUser == "" {
		defaultUser = "admin"
	}

	out := flag.String("out", "admin-totp.png", "path of the QR code PNG")
	user := flag.String("user", defaultUser, "admin account name shown in the authenticator app")
	issuer := flag.String("issuer", "Net Hunter", "issuer shown in the authenticator app")
	size := flag.Int("size", 256, "QR code size in pixels")
	flag.Parse()

	key, err := auth.GenerateAdminTOTP(*issuer, *user, *size)
	if err != nil {
		logger.Error("failed to generate admin TOTP", slog.Any("error", err))
		os.Exit(1)
	}

	if err := os.WriteFile(*out, key.QRCode, 0o600); err != nil {
		logger.Error("failed to write QR code", slog.String("path", *out), slog.Any("error", err))
		os.Exit(1)
	}

	fmt.Printf("ADMIN_TOTP_SECRET=%s\n", key.Secret)
	fmt.Printf("QR code written to %s\n", *out)
}
