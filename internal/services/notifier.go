package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"

	pkglogger "github.com/william165-bot/net-hunter/pkg/logger"
)

// Notifier tells a user their premium access was extended
type Notifier interface {
	SendPremiumReceipt(ctx context.Context, email string, premiumUntil time.Time) error
}

// NoopNotifier is used when email is disabled
type NoopNotifier struct{}

func (NoopNotifier) SendPremiumReceipt(context.Context, string, time.Time) error { return nil }

// SESAPI is the subset of the SES client used by SESNotifier
type SESAPI interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// SESNotifier sends receipts using AWS SES
type SESNotifier struct {
	client      SESAPI
	fromAddress string
	baseURL     string
	logger      *slog.Logger
}

// NewSESNotifier loads the default AWS config for region
func NewSESNotifier(ctx context.Context, region, fromAddress, baseURL string, logger *slog.Logger) (*SESNotifier, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return NewSESNotifierWithClient(ses.NewFromConfig(cfg), fromAddress, baseURL, logger), nil
}

func NewSESNotifierWithClient(client SESAPI, fromAddress, baseURL string, logger *slog.Logger) *SESNotifier {
	return &SESNotifier{
		client:      client,
		fromAddress: fromAddress,
		baseURL:     baseURL,
		logger:      logger,
	}
}

// SendPremiumReceipt emails the new premium expiry
func (n *SESNotifier) SendPremiumReceipt(ctx context.Context, email string, premiumUntil time.Time) error {
	until := premiumUntil.UTC().Format("2 January 2006, 15:04 MST")

	htmlBody := fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
        .container { max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { background-color: #f8f9fa; padding: 20px; text-align: center; border-radius: 4px; }
        .button { display: inline-block; background-color: #0066cc; color: white; padding: 12px 24px; text-decoration: none; border-radius: 4px; margin: 20px 0; }
        .footer { color: #666; font-size: 12px; margin-top: 20px; padding-top: 20px; border-top: 1px solid #eee; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header">
            <h1>Premium unlocked</h1>
        </div>
        <p>Thanks for your payment. Your premium access is active until <strong>%s</strong>.</p>
        <p><a href="%s" class="button">Open Net Hunter</a></p>
        <div class="footer">
            <p>This is an automated message. Please do not reply to this email.</p>
        </div>
    </div>
</body>
</html>
`, until, n.baseURL)

	textBody := fmt.Sprintf(`Premium unlocked

Thanks for your payment. Your premium access is active until %s.

%s

This is an automated message. Please do not reply to this email.
`, until, n.baseURL)

	input := &ses.SendEmailInput{
		Source: aws.String(n.fromAddress),
		Destination: &types.Destination{
			ToAddresses: []string{email},
		},
		Message: &types.Message{
			Subject: &types.Content{
				Data: aws.String("Your premium access is active"),
			},
			Body: &types.Body{
				Html: &types.Content{Data: aws.String(htmlBody)},
				Text: &types.Content{Data: aws.String(textBody)},
			},
		},
	}

	result, err := n.client.SendEmail(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to send receipt: %w", err)
	}

	n.logger.Info("premium receipt sent",
		slog.String("email", pkglogger.SanitizedEmail(email)),
		slog.String("message_id", aws.ToString(result.MessageId)))

	return nil
}
