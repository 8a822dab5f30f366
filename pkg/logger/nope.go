package logger

import "log/slog"

// NewNope returns a logger that drops every record. Constructors default
// to it so a missing WithLogger never panics on a nil logger.
func NewNope() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
