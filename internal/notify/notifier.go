package notify

import (
	"github.com/valtervalik/InstaShare/internal/logger"
)

const EventPrincipalCreated = "principal.created"

// Notifier is a fire-and-forget event sink. Emit never returns an
// error: a lost notification must not fail the operation that
// produced it.
type Notifier interface {
	Emit(event string, payload map[string]any)
}

// LogNotifier writes events to the application log. It stands in for
// whatever downstream consumer (mailer, queue) picks events up in a
// full deployment.
type LogNotifier struct{}

func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

func (*LogNotifier) Emit(event string, payload map[string]any) {
	go logger.Info("event emitted", map[string]any{
		"event":   event,
		"payload": payload,
	})
}
