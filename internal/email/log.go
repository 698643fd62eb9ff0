package email

import (
	"context"
	"log/slog"
)

// LogSender writes messages to the log instead of sending them. Used when no
// Postmark token is configured.
type LogSender struct {
	logger *slog.Logger
}

func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) SendEmail(ctx context.Context, to, subject, body string) error {
	s.logger.InfoContext(ctx, "email not sent, no provider configured",
		"to", to,
		"subject", subject,
		"body", body,
	)
	return nil
}
