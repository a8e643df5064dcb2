package queue

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/ecofinds/marketplace/internal/core/domain"
)

// LogSink writes events to the log. It is the sink when no broker is configured.
type LogSink struct {
	log zerolog.Logger
}

func NewLogSink(log zerolog.Logger) *LogSink {
	return &LogSink{log: log}
}

func (s *LogSink) Publish(_ context.Context, event domain.Event) error {
	s.log.Info().
		Str("subject", event.Subject).
		Str("key", event.Key).
		Time("occurred_at", event.OccurredAt).
		Interface("payload", event.Payload).
		Msg("domain event")
	return nil
}
