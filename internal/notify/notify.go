// Package notify delivers human-readable status lines to users.
// Delivery is fire-and-forget: failures are logged, never propagated.
package notify

import (
	"context"
	"log"
)

// Notifier delivers a status line to one user.
type Notifier interface {
	Notify(ctx context.Context, userID, message string) error
}

// LogNotifier writes notifications to a logger. Used when no Telegram token
// is configured and as the operator-visible fallback.
type LogNotifier struct {
	logger *log.Logger
}

// NewLogNotifier creates a log-backed notifier.
func NewLogNotifier(logger *log.Logger) *LogNotifier {
	if logger == nil {
		logger = log.Default()
	}
	return &LogNotifier{logger: logger}
}

// Notify logs the message.
func (n *LogNotifier) Notify(_ context.Context, userID, message string) error {
	n.logger.Printf("[notify user=%s] %s", userID, message)
	return nil
}

// Compile-time interface check.
var _ Notifier = (*LogNotifier)(nil)
