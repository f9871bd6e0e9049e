// Package notify publica eventos de estoque para ouvintes externos com
// semântica de melhor esforço: no máximo uma entrega, sem confirmação nem retry.
// Falhas de publicação nunca desfazem a mudança de estoque já confirmada.
package notify

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"bookstock/internal/domain"
	"bookstock/internal/pkg/logger"
)

// Publisher entrega um evento a um transporte (log, Redis, Kafka).
type Publisher interface {
	Publish(ctx context.Context, event domain.Event) error
	Close() error
}

// Emitter desacopla o chamador do transporte: Emit nunca bloqueia.
// Um único worker drena o buffer e publica cada evento com prazo próprio.
type Emitter struct {
	pub     Publisher
	log     logger.Logger
	timeout time.Duration

	mu      sync.RWMutex // protege o fechamento de events
	events  chan domain.Event
	closing bool
	done    chan struct{}

	// stop é cancelado quando Close desiste de drenar: o worker abandona
	// a publicação em curso e descarta o que resta no buffer.
	stop       context.Context
	cancelStop context.CancelFunc

	published atomic.Uint64
	dropped   atomic.Uint64
	failed    atomic.Uint64
}

// NewEmitter cria o emissor e inicia o worker.
func NewEmitter(pub Publisher, log logger.Logger, buffer int, timeout time.Duration) *Emitter {
	if buffer <= 0 {
		buffer = 256
	}
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	stop, cancelStop := context.WithCancel(context.Background())
	e := &Emitter{
		pub:        pub,
		log:        log,
		timeout:    timeout,
		events:     make(chan domain.Event, buffer),
		done:       make(chan struct{}),
		stop:       stop,
		cancelStop: cancelStop,
	}
	go e.run()
	return e
}

// Emit enfileira o evento. Com o buffer cheio ou o emissor encerrando,
// o evento é descartado e registrado em log.
func (e *Emitter) Emit(name, aggregateID string, payload interface{}) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.closing {
		e.drop(name, aggregateID, "emissor encerrado")
		return
	}

	event := domain.Event{
		ID:          uuid.NewString(),
		Name:        name,
		AggregateID: aggregateID,
		OccurredAt:  time.Now().UTC(),
		Payload:     payload,
	}

	select {
	case e.events <- event:
	default:
		e.drop(name, aggregateID, "buffer cheio")
	}
}

func (e *Emitter) drop(name, aggregateID, reason string) {
	e.dropped.Add(1)
	e.log.Warn("Evento descartado.", map[string]interface{}{
		"event":        name,
		"aggregate_id": aggregateID,
		"reason":       reason,
	})
}

func (e *Emitter) run() {
	defer close(e.done)
	for event := range e.events {
		if e.stop.Err() != nil {
			e.drop(event.Name, event.AggregateID, "encerramento sem drenagem")
			continue
		}
		e.publish(event)
	}
}

func (e *Emitter) publish(event domain.Event) {
	ctx, cancel := context.WithTimeout(e.stop, e.timeout)
	defer cancel()

	if err := e.pub.Publish(ctx, event); err != nil {
		e.failed.Add(1)
		e.log.Warn("Falha ao publicar evento (melhor esforço, sem retry).", map[string]interface{}{
			"event":        event.Name,
			"event_id":     event.ID,
			"aggregate_id": event.AggregateID,
			"error":        err.Error(),
		})
		return
	}
	e.published.Add(1)
	e.log.Debug("Evento publicado.", map[string]interface{}{"event": event.Name, "event_id": event.ID})
}

// Close fecha a entrada e drena o buffer até o fim do ctx. Se o ctx expirar,
// o worker é interrompido e o restante é descartado. O publicador só é fechado
// depois que o worker terminou.
func (e *Emitter) Close(ctx context.Context) error {
	e.mu.Lock()
	first := !e.closing
	if first {
		e.closing = true
		close(e.events)
	}
	e.mu.Unlock()

	select {
	case <-e.done:
	case <-ctx.Done():
		e.log.Warn("Encerramento do emissor antes de drenar o buffer.", map[string]interface{}{"pending": len(e.events)})
		e.cancelStop()
		<-e.done
	}
	e.cancelStop()

	if !first {
		return nil
	}
	return e.pub.Close()
}

// Stats devolve contadores de publicação para observabilidade.
func (e *Emitter) Stats() (published, dropped, failed uint64) {
	return e.published.Load(), e.dropped.Load(), e.failed.Load()
}
