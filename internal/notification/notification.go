package notification

import (
	"context"
	"log/slog"

	"github.com/expenseops/expense-approval/internal/core/events"
)

// Subscriber listens for terminal workflow events and records them for the
// notification channel. Actual delivery (email, chat) is out of scope; the
// subscriber logs what would be sent.
type Subscriber struct {
	logger *slog.Logger
}

func NewSubscriber(logger *slog.Logger) *Subscriber {
	return &Subscriber{logger: logger}
}

// Register wires the subscriber to every workflow event type.
func (s *Subscriber) Register(bus *events.EventBus) {
	for _, eventType := range []string{
		events.EventTypeReimbursementPaid,
		events.EventTypeReimbursementRejected,
		events.EventTypeDirectExpensePaid,
		events.EventTypeDirectExpenseRejected,
	} {
		bus.Subscribe(eventType, s.handle)
	}
}

func (s *Subscriber) handle(ctx context.Context, event events.Event) error {
	s.logger.Info("notification queued",
		"event_type", event.EventType(),
		"event_id", event.EventID(),
		"occurred_at", event.OccurredAt(),
		"payload", event.Payload())
	return nil
}
