package notify

import (
	"context"
	"log/slog"
)

// NoOpNotifier implements Notifier by logging discarded notifications. It
// backs dry runs and deployments without a chat room configured.
type NoOpNotifier struct {
	log *slog.Logger
}

// NewNoOpNotifier creates a notifier that discards notifications with a log message.
func NewNoOpNotifier(log *slog.Logger) *NoOpNotifier {
	return &NoOpNotifier{log: log}
}

// Send logs and discards a notification.
func (n *NoOpNotifier) Send(_ context.Context, msg *Notification) error {
	n.log.Info("notification discarded (dry run)",
		"shop", msg.Shop,
		"item", msg.ItemName,
		"price", msg.Price,
		"url", msg.URL,
		"label", msg.Label,
	)
	return nil
}
