package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/resend/resend-go/v2"
)

// EmailService отправляет транзакционные письма
type EmailService interface {
	// SendAwardNotification уведомляет пользователя о выданной награде
	SendAwardNotification(ctx context.Context, toEmail, eventTitle string, position, robuxAwarded int) error
}

// NoopEmailService используется, когда отправка писем выключена
type NoopEmailService struct{}

func (s *NoopEmailService) SendAwardNotification(ctx context.Context, toEmail, eventTitle string, position, robuxAwarded int) error {
	log.Printf("[EmailService] noop award notification to=%s event=%q", toEmail, eventTitle)
	return nil
}

// ResendEmailService отправляет письма через Resend REST API
type ResendEmailService struct {
	from   string
	client *resend.Client
}

// NewResendEmailService создает новый сервис отправки писем
func NewResendEmailService(apiKey, from string) (*ResendEmailService, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("resend api key is required")
	}
	if from == "" {
		return nil, fmt.Errorf("email from is required")
	}
	return &ResendEmailService{
		from:   from,
		client: resend.NewClient(apiKey),
	}, nil
}

func (s *ResendEmailService) SendAwardNotification(ctx context.Context, toEmail, eventTitle string, position, robuxAwarded int) error {
	if strings.TrimSpace(toEmail) == "" {
		return fmt.Errorf("toEmail is required")
	}

	params := &resend.SendEmailRequest{
		From:    s.from,
		To:      []string{toEmail},
		Subject: fmt.Sprintf("You placed #%d in %s!", position, eventTitle),
		Text: fmt.Sprintf("Congratulations! You finished #%d in %s and earned %d Robux.",
			position, eventTitle, robuxAwarded),
		Html: fmt.Sprintf("<p>Congratulations! You finished <strong>#%d</strong> in <strong>%s</strong> and earned <strong>%d Robux</strong>.</p>",
			position, eventTitle, robuxAwarded),
	}

	// Несколько попыток с небольшой паузой — Resend изредка отвечает 429/5xx
	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		if _, err := s.client.Emails.SendWithContext(ctx, params); err == nil {
			return nil
		} else {
			lastErr = err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt+1) * time.Second):
		}
	}

	return fmt.Errorf("failed to send award notification after retries: %w", lastErr)
}
