package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	otelkafka "github.com/Trendyol/otel-kafka-konsumer"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"bookstock/internal/domain"
)

// MessageWriter é o contrato mínimo do writer Kafka (instrumentado ou não).
type MessageWriter interface {
	WriteMessage(ctx context.Context, msg kafka.Message) error
	Close() error
}

// KafkaPublisher publica eventos em um tópico, com o id do produto como chave
// para preservar a ordem por produto dentro da partição.
type KafkaPublisher struct {
	writer MessageWriter
}

// NewKafkaPublisher cria o writer instrumentado com OpenTelemetry; o contexto
// de trace do pedido segue nos headers da mensagem.
func NewKafkaPublisher(brokers []string, topic string, tp trace.TracerProvider) (*KafkaPublisher, error) {
	if len(brokers) == 0 || topic == "" {
		return nil, fmt.Errorf("kafka: brokers e tópico são obrigatórios")
	}

	base := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		BatchTimeout:           10 * time.Millisecond,
		BatchSize:              100,
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}

	writer, err := otelkafka.NewWriter(base,
		otelkafka.WithTracerProvider(tp),
		otelkafka.WithPropagator(propagation.TraceContext{}),
		otelkafka.WithAttributes([]attribute.KeyValue{
			semconv.MessagingDestinationNameKey.String(topic),
			attribute.String("messaging.kafka.client_id", "bookstock"),
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka: falha ao instrumentar writer: %w", err)
	}

	return &KafkaPublisher{writer: writer}, nil
}

// NewKafkaPublisherWithWriter usa um writer já construído (testes ou writer sem instrumentação).
func NewKafkaPublisherWithWriter(w MessageWriter) *KafkaPublisher {
	return &KafkaPublisher{writer: w}
}

func (p *KafkaPublisher) Publish(ctx context.Context, event domain.Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("serializar evento %s: %w", event.ID, err)
	}

	msg := kafka.Message{
		Key:   []byte(event.AggregateID),
		Value: body,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.Name)},
			{Key: "event_id", Value: []byte(event.ID)},
		},
	}
	return p.writer.WriteMessage(ctx, msg)
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
