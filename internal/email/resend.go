package email

import (
	"context"
	"fmt"

	"github.com/resend/resend-go/v2"

	"github.com/1code1day/platform-service/pkg/logger"
)

// Sender отправляет транзакционные письма
type Sender interface {
	Send(ctx context.Context, to, subject, html string) error
}

type resendSender struct {
	client *resend.Client
	from   string
	log    *logger.Logger
}

// NewResendSender создает отправителя писем через Resend
func NewResendSender(apiKey, from string, log *logger.Logger) Sender {
	return &resendSender{
		client: resend.NewClient(apiKey),
		from:   from,
		log:    log,
	}
}

// Send отправляет письмо одному получателю
func (s *resendSender) Send(ctx context.Context, to, subject, html string) error {
	params := &resend.SendEmailRequest{
		From:    s.from,
		To:      []string{to},
		Subject: subject,
		Html:    html,
	}

	sent, err := s.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		s.log.Errorw("Failed to send email", "to", to, "subject", subject, "error", err)
		return fmt.Errorf("email: failed to send: %w", err)
	}

	s.log.Infow("Email sent", "to", to, "subject", subject, "emailID", sent.Id)
	return nil
}

// NoopSender заглушка для окружений без почтового провайдера
type NoopSender struct {
	Log *logger.Logger
}

// Send логирует письмо вместо отправки
func (s *NoopSender) Send(_ context.Context, to, subject, _ string) error {
	s.Log.Warnw("Email provider not configured, message dropped", "to", to, "subject", subject)
	return nil
}
