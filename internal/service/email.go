package service

import (
	"context"
	"fmt"
	"time"

	"renthub-backend/internal/config"
	"renthub-backend/internal/domain"
	"renthub-backend/internal/logger"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

type emailService struct {
	client   *sendgrid.Client
	from     *mail.Email
	disabled bool
}

// NewEmailService builds the SendGrid-backed mailer. With no API key
// configured it degrades to logging the would-be sends, which keeps local
// development working without credentials.
func NewEmailService(cfg config.EmailConfig) EmailService {
	svc := &emailService{
		from:     mail.NewEmail(cfg.FromName, cfg.From),
		disabled: cfg.APIKey == "",
	}
	if !svc.disabled {
		svc.client = sendgrid.NewSendClient(cfg.APIKey)
	}
	return svc
}

func (s *emailService) send(ctx context.Context, to *mail.Email, subject, plainText, htmlBody string) error {
	if s.disabled {
		logger.Info("email disabled, skipping send", "to", to.Address, "subject", subject)
		return nil
	}

	message := mail.NewSingleEmail(s.from, subject, to, plainText, htmlBody)
	resp, err := s.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("sendgrid rejected email: status %d: %s", resp.StatusCode, resp.Body)
	}
	return nil
}

var orderStatusLines = map[domain.OrderStatus]string{
	domain.OrderStatusConfirmed: "the owner confirmed your order",
	domain.OrderStatusProgress:  "the rental has started",
	domain.OrderStatusReturned:  "the item was reported returned",
	domain.OrderStatusCompleted: "the order was completed",
	domain.OrderStatusCancelled: "the order was cancelled",
	domain.OrderStatusDisputed:  "a dispute was opened on the order",
}

func (s *emailService) SendOrderStatusEmail(ctx context.Context, email, name, itemTitle string, status domain.OrderStatus) error {
	line, ok := orderStatusLines[status]
	if !ok {
		line = fmt.Sprintf("the order status changed to %s", status)
	}
	subject := fmt.Sprintf("Update on your rental of %s", itemTitle)
	plain := fmt.Sprintf("Hi %s,\n\nRegarding %q: %s.\n\nThe RentHub Team", name, itemTitle, line)
	html := fmt.Sprintf("<p>Hi %s,</p><p>Regarding <strong>%s</strong>: %s.</p><p>The RentHub Team</p>", name, itemTitle, line)
	return s.send(ctx, mail.NewEmail(name, email), subject, plain, html)
}

func (s *emailService) SendExtensionDecisionEmail(ctx context.Context, email, name, itemTitle string, approved bool, newEndAt time.Time) error {
	var subject, line string
	if approved {
		subject = fmt.Sprintf("Extension approved for %s", itemTitle)
		line = fmt.Sprintf("your extension was approved. The rental now ends on %s", newEndAt.Format("January 2, 2006"))
	} else {
		subject = fmt.Sprintf("Extension declined for %s", itemTitle)
		line = "your extension request was declined. The original end date still applies"
	}
	plain := fmt.Sprintf("Hi %s,\n\nRegarding %q: %s.\n\nThe RentHub Team", name, itemTitle, line)
	html := fmt.Sprintf("<p>Hi %s,</p><p>Regarding <strong>%s</strong>: %s.</p><p>The RentHub Team</p>", name, itemTitle, line)
	return s.send(ctx, mail.NewEmail(name, email), subject, plain, html)
}

func (s *emailService) SendReturnReminderEmail(ctx context.Context, email, name, itemTitle string, endAt time.Time) error {
	subject := fmt.Sprintf("Reminder: %s is due back soon", itemTitle)
	plain := fmt.Sprintf("Hi %s,\n\nYour rental of %q ends on %s. Please arrange the return, or request an extension in the app.\n\nThe RentHub Team",
		name, itemTitle, endAt.Format("January 2, 2006 15:04 MST"))
	html := fmt.Sprintf("<p>Hi %s,</p><p>Your rental of <strong>%s</strong> ends on %s. Please arrange the return, or request an extension in the app.</p><p>The RentHub Team</p>",
		name, itemTitle, endAt.Format("January 2, 2006 15:04 MST"))
	return s.send(ctx, mail.NewEmail(name, email), subject, plain, html)
}

func (s *emailService) SendContractSignedEmail(ctx context.Context, email, name, itemTitle string) error {
	subject := fmt.Sprintf("Contract signed for %s", itemTitle)
	plain := fmt.Sprintf("Hi %s,\n\nThe rental contract for %q has been signed by both parties and is now in effect.\n\nThe RentHub Team", name, itemTitle)
	html := fmt.Sprintf("<p>Hi %s,</p><p>The rental contract for <strong>%s</strong> has been signed by both parties and is now in effect.</p><p>The RentHub Team</p>", name, itemTitle)
	return s.send(ctx, mail.NewEmail(name, email), subject, plain, html)
}
