package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockSES struct {
	input *ses.SendEmailInput
	err   error
}

func (m *mockSES) SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	m.input = params
	if m.err != nil {
		return nil, m.err
	}
	return &ses.SendEmailOutput{MessageId: aws.String("msg-1")}, nil
}

func TestSESNotifier_SendPremiumReceipt(t *testing.T) {
	client := &mockSES{}
	n := NewSESNotifierWithClient(client, "billing@nethunter.app", "https://nethunter.app", discardLogger())

	err := n.SendPremiumReceipt(context.Background(), "alice@gmail.com", time.Date(2026, 4, 13, 12, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	require.NotNil(t, client.input)
	assert.Equal(t, "billing@nethunter.app", aws.ToString(client.input.Source))
	assert.Equal(t, []string{"alice@gmail.com"}, client.input.Destination.ToAddresses)
	assert.Contains(t, aws.ToString(client.input.Message.Body.Text.Data), "13 April 2026, 12:00 UTC")
	assert.Contains(t, aws.ToString(client.input.Message.Body.Html.Data), "https://nethunter.app")
}

func TestSESNotifier_SendPremiumReceipt_Error(t *testing.T) {
	client := &mockSES{err: errors.New("throttled")}
	n := NewSESNotifierWithClient(client, "billing@nethunter.app", "https://nethunter.app", discardLogger())

	err := n.SendPremiumReceipt(context.Background(), "alice@gmail.com", time.Now())
	assert.ErrorContains(t, err, "throttled")
}

func TestNoopNotifier(t *testing.T) {
	assert.NoError(t, NoopNotifier{}.SendPremiumReceipt(context.Background(), "a@gmail.com", time.Now()))
}
