package frontend

import (
	"context"

	"go.uber.org/zap"
)

// LogNotifier delivers alerts through the structured log. Deployments
// typically ship these log lines to whatever paging or chat integration
// they already run.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier creates a new log-backed notifier.
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Notify emits an alert log line.
func (n *LogNotifier) Notify(ctx context.Context, title, message string) error {
	n.logger.Warn("ALERT",
		zap.String("title", title),
		zap.String("message", message))
	return nil
}
