package notify

import (
	"context"

	"bookstock/internal/domain"
	"bookstock/internal/pkg/logger"
)

// LogPublisher apenas registra o evento. É o backend padrão em desenvolvimento.
type LogPublisher struct {
	log logger.Logger
}

func NewLogPublisher(log logger.Logger) *LogPublisher {
	return &LogPublisher{log: log}
}

func (p *LogPublisher) Publish(_ context.Context, event domain.Event) error {
	p.log.Info("Evento de estoque.", map[string]interface{}{
		"event":        event.Name,
		"event_id":     event.ID,
		"aggregate_id": event.AggregateID,
		"payload":      event.Payload,
	})
	return nil
}

func (p *LogPublisher) Close() error { return nil }
