package notifier

import (
	"context"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
)

// LogNotifier пишет события в лог. Используется, когда брокеры Kafka не настроены.
type LogNotifier struct {
	log Logger
}

// NewLogNotifier создает notifier, который только логирует события
func NewLogNotifier(log Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

// Emit логирует событие
func (n *LogNotifier) Emit(_ context.Context, event domain.BookingEvent) error {
	n.log.Info("Notifier: event id=%s type=%s booking=%d status=%s actor=%d",
		event.ID, event.Type, event.BookingID, event.Status, event.ActorID)
	return nil
}

// Close ничего не делает
func (n *LogNotifier) Close() error {
	return nil
}
