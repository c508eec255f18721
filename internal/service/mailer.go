package service

import (
	"context"
	"enem_quiz_backend/pkg/logger"

	"go.uber.org/zap"
)

// Mailer delivers sign-in codes.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// LogMailer writes the message to the log instead of sending it. Used in development
// and when no mail transport is configured.
type LogMailer struct {
	From string
}

func (m LogMailer) Send(_ context.Context, to, subject, body string) error {
	logger.Log.Info("Mail (not sent)",
		zap.String("from", m.From),
		zap.String("to", to),
		zap.String("subject", subject),
		zap.String("body", body))
	return nil
}
