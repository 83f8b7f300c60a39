package agent

import (
	"context"

	"github.com/gramseva/idverify/internal/logger"
	"github.com/gramseva/idverify/models"
)

// logNotifier delivers lockout notifications through the agent log. The
// field deployment ships agent logs to the administration console, so a
// warn-level entry is the notification channel.
type logNotifier struct {
	logger *logger.Logger
}

// NewLogNotifier builds the log-backed lockout notifier.
func NewLogNotifier(logger *logger.Logger) *logNotifier {
	return &logNotifier{logger: logger}
}

func (n *logNotifier) NotifyLockout(_ context.Context, record models.LockoutRecord) {
	n.logger.Warn().
		Str("lockout", record.LockoutID.String()).
		Str("user", record.SubjectUserID.String()).
		Str("device", record.DeviceID).
		Str("reason", record.Reason).
		Time("expires_at", record.ExpiresAt).
		Msg("administrator notification: account locked")
}
