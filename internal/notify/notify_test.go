package notify

import (
	"context"
	"errors"
	"testing"

	"apcc-pipeline/internal/common/config"
	"apcc-pipeline/internal/common/logger"
	"apcc-pipeline/internal/confirmation"
	"apcc-pipeline/internal/models"

	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockSES struct {
	inputs  []*ses.SendEmailInput
	sendErr error
}

func (m *mockSES) SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	if m.sendErr != nil {
		return nil, m.sendErr
	}
	m.inputs = append(m.inputs, params)
	return &ses.SendEmailOutput{}, nil
}

type mockSNS struct {
	inputs     []*sns.PublishInput
	publishErr error
}

func (m *mockSNS) Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
	if m.publishErr != nil {
		return nil, m.publishErr
	}
	m.inputs = append(m.inputs, params)
	return &sns.PublishOutput{}, nil
}

func testInvoice() confirmation.Invoice {
	return confirmation.Invoice{
		Number:        "INV/APCC/2026/1042",
		Date:          "14/03/2026",
		Name:          "Rahul Deshmukh",
		Mobile:        "9876543210",
		Email:         "rahul@example.com",
		Context:       models.ContextCandidate,
		Quote:         models.FeeQuote{Base: 200, GST: 36, CGST: 18, SGST: 18, Total: 236},
		TransactionID: "pay_881",
	}
}

func testNotifier(t *testing.T, cfg config.NotificationConfig, sesMock SESService, snsMock SNSService) *Notifier {
	return &Notifier{
		cfg:       cfg,
		logger:    logger.NewTestLogger(t),
		sesClient: sesMock,
		snsClient: snsMock,
	}
}

func emailOnlyConfig() config.NotificationConfig {
	var cfg config.NotificationConfig
	cfg.Email.Enabled = true
	cfg.Email.FromEmail = "billing@apcc.example.com"
	return cfg
}

func bothChannelsConfig() config.NotificationConfig {
	cfg := emailOnlyConfig()
	cfg.SMS.Enabled = true
	return cfg
}

func TestNewDisabledWhenNoChannels(t *testing.T) {
	n, err := New(context.Background(), config.NotificationConfig{}, logger.NewTestLogger(t))
	require.NoError(t, err)
	assert.Nil(t, n, "no enabled channel means no notifier")
}

func TestSendInvoiceEmail(t *testing.T) {
	sesMock := &mockSES{}
	n := testNotifier(t, emailOnlyConfig(), sesMock, &mockSNS{})

	err := n.SendInvoice(context.Background(), testInvoice())
	require.NoError(t, err)

	require.Len(t, sesMock.inputs, 1)
	input := sesMock.inputs[0]
	assert.Equal(t, []string{"rahul@example.com"}, input.Destination.ToAddresses)
	assert.Equal(t, "billing@apcc.example.com", *input.Source)
	assert.Contains(t, *input.Message.Subject.Data, "INV/APCC/2026/1042")

	body := *input.Message.Body.Text.Data
	assert.Contains(t, body, "Rahul Deshmukh")
	assert.Contains(t, body, "pay_881")
	assert.Contains(t, body, "Rs 236.00")
	assert.Contains(t, body, "Rs 18.00")
}

func TestSendInvoiceSMS(t *testing.T) {
	snsMock := &mockSNS{}
	n := testNotifier(t, bothChannelsConfig(), &mockSES{}, snsMock)

	err := n.SendInvoice(context.Background(), testInvoice())
	require.NoError(t, err)

	require.Len(t, snsMock.inputs, 1)
	assert.Equal(t, "+919876543210", *snsMock.inputs[0].PhoneNumber)
	assert.Contains(t, *snsMock.inputs[0].Message, "INV/APCC/2026/1042")
}

func TestSendInvoiceSkipsMissingContacts(t *testing.T) {
	sesMock := &mockSES{}
	snsMock := &mockSNS{}
	n := testNotifier(t, bothChannelsConfig(), sesMock, snsMock)

	inv := testInvoice()
	inv.Email = ""
	inv.Mobile = ""

	err := n.SendInvoice(context.Background(), inv)
	require.NoError(t, err)
	assert.Empty(t, sesMock.inputs)
	assert.Empty(t, snsMock.inputs)
}

func TestSendInvoiceEmailFailure(t *testing.T) {
	sesMock := &mockSES{sendErr: errors.New("ses throttled")}
	n := testNotifier(t, emailOnlyConfig(), sesMock, &mockSNS{})

	err := n.SendInvoice(context.Background(), testInvoice())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invoice email")
}
