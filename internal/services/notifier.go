package services

import (
	"context"
	"fmt"
	"html"
	"strings"

	"donation-portal/internal/config"
	"donation-portal/internal/models"
	"donation-portal/pkg/logging"

	brevo "github.com/getbrevo/brevo-go/lib"
	"go.uber.org/zap"
)

// Notifier sends payment outcome emails to payers
type Notifier interface {
	SendDonationConfirmation(ctx context.Context, tx *models.Transaction) error
	SendEventRegistrationConfirmation(ctx context.Context, tx *models.Transaction) error
	SendPaymentFailedNotification(ctx context.Context, tx *models.Transaction, reason string) error
}

// NewNotifier returns a Brevo-backed notifier when an API key is configured
func NewNotifier(cfg *config.Config) Notifier {
	if cfg.BrevoAPIKey == "" || cfg.BrevoFromEmail == "" {
		logging.Warnf("Brevo is not configured, payment emails will only be logged")
		return LogNotifier{}
	}
	return NewBrevoNotifier(cfg)
}

// BrevoNotifier sends transactional email through Brevo
type BrevoNotifier struct {
	client      *brevo.APIClient
	fromEmail   string
	fromName    string
	serviceName string
}

// NewBrevoNotifier creates a Brevo email sender
func NewBrevoNotifier(cfg *config.Config) *BrevoNotifier {
	brevoCfg := brevo.NewConfiguration()
	brevoCfg.AddDefaultHeader("api-key", cfg.BrevoAPIKey)

	return &BrevoNotifier{
		client:      brevo.NewAPIClient(brevoCfg),
		fromEmail:   cfg.BrevoFromEmail,
		fromName:    cfg.BrevoFromName,
		serviceName: cfg.ServiceName,
	}
}

// SendDonationConfirmation thanks a donor for a completed donation
func (n *BrevoNotifier) SendDonationConfirmation(ctx context.Context, tx *models.Transaction) error {
	subject := fmt.Sprintf("Thank you for your donation - %s", n.serviceName)
	heading := "Thank you for your donation"
	lines := []string{
		fmt.Sprintf("Dear %s,", tx.CustomerName),
		fmt.Sprintf("We have received your donation of %s %s.", tx.Currency, tx.Amount.StringFixed(2)),
		fmt.Sprintf("Reference: %s", tx.PesapalMerchantReference),
	}
	return n.send(ctx, tx.CustomerEmail, tx.CustomerName, subject, heading, lines)
}

// SendEventRegistrationConfirmation confirms a paid event registration
func (n *BrevoNotifier) SendEventRegistrationConfirmation(ctx context.Context, tx *models.Transaction) error {
	event := tx.DescriptionOr("Event")
	subject := fmt.Sprintf("Registration confirmed - %s", n.serviceName)
	heading := "Your registration is confirmed"
	lines := []string{
		fmt.Sprintf("Dear %s,", tx.CustomerName),
		fmt.Sprintf("Your payment for %s was received and your place is reserved.", event),
		fmt.Sprintf("Reference: %s", tx.PesapalMerchantReference),
	}
	return n.send(ctx, tx.CustomerEmail, tx.CustomerName, subject, heading, lines)
}

// SendPaymentFailedNotification tells the payer their payment did not go through
func (n *BrevoNotifier) SendPaymentFailedNotification(ctx context.Context, tx *models.Transaction, reason string) error {
	if reason == "" {
		reason = "The payment was declined"
	}
	subject := fmt.Sprintf("Payment unsuccessful - %s", n.serviceName)
	heading := "Your payment was not completed"
	lines := []string{
		fmt.Sprintf("Dear %s,", tx.CustomerName),
		fmt.Sprintf("Your payment of %s %s could not be completed.", tx.Currency, tx.Amount.StringFixed(2)),
		fmt.Sprintf("Reason: %s", reason),
		"You can try again at any time.",
	}
	return n.send(ctx, tx.CustomerEmail, tx.CustomerName, subject, heading, lines)
}

func (n *BrevoNotifier) send(ctx context.Context, to, toName, subject, heading string, lines []string) error {
	var body strings.Builder
	for _, line := range lines {
		fmt.Fprintf(&body, `<p style="color: #555; font-size: 16px;">%s</p>`, html.EscapeString(line))
	}

	htmlContent := fmt.Sprintf(`
		<!DOCTYPE html>
		<html>
		<head>
			<meta charset="UTF-8">
			<title>%s</title>
		</head>
		<body style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
			<div style="background-color: #f8f9fa; padding: 30px; border-radius: 10px;">
				<h1 style="color: #333; margin-bottom: 20px;">%s</h1>
				%s
				<p style="color: #999; font-size: 12px; margin-top: 30px;">%s</p>
			</div>
		</body>
		</html>
	`, html.EscapeString(subject), heading, body.String(), html.EscapeString(n.serviceName))

	textContent := heading + "\n\n" + strings.Join(lines, "\n") + "\n\n" + n.serviceName

	email := brevo.SendSmtpEmail{
		Sender: &brevo.SendSmtpEmailSender{
			Name:  n.fromName,
			Email: n.fromEmail,
		},
		To: []brevo.SendSmtpEmailTo{
			{Email: to, Name: toName},
		},
		Subject:     subject,
		HtmlContent: htmlContent,
		TextContent: textContent,
	}

	if _, _, err := n.client.TransactionalEmailsApi.SendTransacEmail(ctx, email); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

// LogNotifier writes notifications to the log instead of sending them
type LogNotifier struct{}

func (LogNotifier) SendDonationConfirmation(_ context.Context, tx *models.Transaction) error {
	logging.With(
		zap.String("email", tx.CustomerEmail),
		zap.String("amount", tx.Amount.StringFixed(2)),
		zap.String("transaction_id", tx.ID.String()),
	).Info("Donation confirmation")
	return nil
}

func (LogNotifier) SendEventRegistrationConfirmation(_ context.Context, tx *models.Transaction) error {
	logging.With(
		zap.String("email", tx.CustomerEmail),
		zap.String("event", tx.DescriptionOr("Event")),
		zap.String("transaction_id", tx.ID.String()),
	).Info("Event registration confirmation")
	return nil
}

func (LogNotifier) SendPaymentFailedNotification(_ context.Context, tx *models.Transaction, reason string) error {
	logging.With(
		zap.String("email", tx.CustomerEmail),
		zap.String("amount", tx.Amount.StringFixed(2)),
		zap.String("reason", reason),
	).Info("Payment failure notification")
	return nil
}
