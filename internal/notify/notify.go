// Package notify sends the invoice out after a confirmed payment: email
// via SES, SMS via SNS. Both channels are off by default and fail soft.
package notify

import (
	"context"
	"fmt"
	"strings"

	"apcc-pipeline/internal/common/config"
	"apcc-pipeline/internal/common/logger"
	"apcc-pipeline/internal/confirmation"
	"apcc-pipeline/internal/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	sestypes "github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"
)

// SESService and SNSService mirror the SDK calls used, for mocking.
type SESService interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

type SNSService interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

type Notifier struct {
	cfg       config.NotificationConfig
	logger    logger.Logger
	sesClient SESService
	snsClient SNSService
}

// New builds a Notifier with real AWS clients. Returns nil when neither
// channel is enabled, which disables notifications entirely.
func New(ctx context.Context, cfg config.NotificationConfig, log logger.Logger) (*Notifier, error) {
	if !cfg.Email.Enabled && !cfg.SMS.Enabled {
		return nil, nil
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWS.Region))
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	return &Notifier{
		cfg:       cfg,
		logger:    log,
		sesClient: ses.NewFromConfig(awsCfg),
		snsClient: sns.NewFromConfig(awsCfg),
	}, nil
}

// SendInvoice delivers the invoice on every enabled channel. The first
// channel failure is returned; the caller treats sends as best effort.
func (n *Notifier) SendInvoice(ctx context.Context, inv confirmation.Invoice) error {
	if n.cfg.Email.Enabled && inv.Email != "" {
		if err := n.sendEmail(ctx, inv); err != nil {
			return fmt.Errorf("invoice email: %w", err)
		}
	}
	if n.cfg.SMS.Enabled && inv.Mobile != "" {
		if err := n.sendSMS(ctx, inv); err != nil {
			return fmt.Errorf("invoice sms: %w", err)
		}
	}
	return nil
}

func (n *Notifier) sendEmail(ctx context.Context, inv confirmation.Invoice) error {
	subject := fmt.Sprintf("Payment Receipt %s", inv.Number)
	body := emailBody(inv)

	_, err := n.sesClient.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &sestypes.Destination{
			ToAddresses: []string{inv.Email},
		},
		Message: &sestypes.Message{
			Subject: &sestypes.Content{Data: aws.String(subject)},
			Body: &sestypes.Body{
				Text: &sestypes.Content{Data: aws.String(body)},
			},
		},
		Source: aws.String(n.cfg.Email.FromEmail),
	})
	if err != nil {
		return err
	}

	n.logger.Info("invoice email sent", map[string]interface{}{
		"invoiceNo": inv.Number,
		"email":     inv.Email,
	})
	return nil
}

func (n *Notifier) sendSMS(ctx context.Context, inv confirmation.Invoice) error {
	message := fmt.Sprintf("Payment of Rs %s received. Invoice %s, Txn %s.",
		models.Display(inv.Quote.Total), inv.Number, inv.TransactionID)

	// SNS wants E.164; ledger mobiles are bare 10-digit Indian numbers.
	phone := inv.Mobile
	if !strings.HasPrefix(phone, "+") {
		phone = "+91" + phone
	}

	_, err := n.snsClient.Publish(ctx, &sns.PublishInput{
		PhoneNumber: aws.String(phone),
		Message:     aws.String(message),
	})
	if err != nil {
		return err
	}

	n.logger.Info("invoice sms sent", map[string]interface{}{
		"invoiceNo": inv.Number,
		"mobile":    inv.Mobile,
	})
	return nil
}

func emailBody(inv confirmation.Invoice) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Dear %s,\n\n", inv.Name)
	fmt.Fprintf(&b, "We have received your payment.\n\n")
	fmt.Fprintf(&b, "Invoice No:     %s\n", inv.Number)
	fmt.Fprintf(&b, "Date:           %s\n", inv.Date)
	fmt.Fprintf(&b, "Transaction ID: %s\n", inv.TransactionID)
	if inv.AgentCode != "" {
		fmt.Fprintf(&b, "Agent Code:     %s\n", inv.AgentCode)
	}
	fmt.Fprintf(&b, "\nRegistration Fee: Rs %s\n", models.Display(inv.Quote.Base))
	fmt.Fprintf(&b, "CGST (9%%):        Rs %s\n", models.Display(inv.Quote.CGST))
	fmt.Fprintf(&b, "SGST (9%%):        Rs %s\n", models.Display(inv.Quote.SGST))
	fmt.Fprintf(&b, "Total Paid:       Rs %s\n", models.Display(inv.Quote.Total))
	return b.String()
}
