package messaging

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/alem-hub/feedback-helper/internal/domain/shared"
)

// NewEnvelope wraps an event for JSON output.
func NewEnvelope(event shared.Event) (shared.EventEnvelope, error) {
	payload, err := json.Marshal(event.Payload())
	if err != nil {
		return shared.EventEnvelope{}, fmt.Errorf("marshal %s payload: %w", event.EventType(), err)
	}
	return shared.EventEnvelope{
		ID:          uuid.NewString(),
		Type:        event.EventType(),
		AggregateID: event.AggregateID(),
		Timestamp:   event.OccurredAt(),
		Version:     1,
		Payload:     payload,
	}, nil
}

// JSONLinesHandler returns a handler that writes each event as one JSON line
// through write.
func JSONLinesHandler(write func([]byte) error) shared.EventHandler {
	return func(event shared.Event) error {
		env, err := NewEnvelope(event)
		if err != nil {
			return err
		}
		line, err := json.Marshal(env)
		if err != nil {
			return err
		}
		return write(append(line, '\n'))
	}
}
