package command

import (
	"github.com/jonboulle/clockwork"

	"github.com/alem-hub/interaction-hub/internal/domain/shared"
	"github.com/alem-hub/interaction-hub/pkg/logger"
)

func withDefaults(
	publisher shared.EventPublisher,
	clock clockwork.Clock,
	log *logger.Logger,
) (shared.EventPublisher, clockwork.Clock, *logger.Logger) {
	if publisher == nil {
		publisher = shared.NoopPublisher{}
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if log == nil {
		log = logger.Nop()
	}
	return publisher, clock, log
}

// publishAll publishes events in order. Publish failures are logged only;
// the write has already been applied.
func publishAll(publisher shared.EventPublisher, log *logger.Logger, events []shared.Event) {
	for _, event := range events {
		if err := publisher.Publish(event); err != nil {
			log.Warn("failed to publish event",
				logger.String("event_type", string(event.EventType())),
				logger.RecordID(event.AggregateID()),
				logger.Err(err),
			)
		}
	}
}
