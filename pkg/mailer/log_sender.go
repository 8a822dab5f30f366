package mailer

import (
	"context"
	"io"
	"log/slog"
)

// LogSender writes messages to the log instead of delivering them.
// Useful for local runs without provider credentials.
type LogSender struct {
	logger *slog.Logger
	from   string
}

// NewLogSender creates a LogSender. from is reported when the email has no
// explicit sender.
func NewLogSender(logger *slog.Logger, from string) *LogSender {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &LogSender{logger: logger, from: from}
}

// Send implements Sender.
func (s *LogSender) Send(ctx context.Context, email *Email) error {
	if err := email.Validate(); err != nil {
		return err
	}

	from := email.From
	if from == "" {
		from = s.from
	}

	s.logger.InfoContext(ctx, "email not delivered, log sender in use",
		slog.String("from", from),
		slog.Any("to", email.To),
		slog.String("subject", email.Subject),
		slog.Int("html_bytes", len(email.HTML)),
		slog.Int("text_bytes", len(email.Text)),
	)
	return nil
}

var _ Sender = (*LogSender)(nil)
