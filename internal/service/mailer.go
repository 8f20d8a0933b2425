package service

import (
	"context"

	"go.uber.org/zap"
)

// Mailer delivers account verification links
type Mailer interface {
	SendVerification(ctx context.Context, email, username, link string) error
}

// LogMailer writes verification links to the log instead of sending email
type LogMailer struct {
	logger *zap.Logger
}

// NewLogMailer creates a new log mailer
func NewLogMailer(logger *zap.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

func (m *LogMailer) SendVerification(_ context.Context, email, username, link string) error {
	m.logger.Info("Verification link issued",
		zap.String("email", email),
		zap.String("username", username),
		zap.String("link", link))
	return nil
}
