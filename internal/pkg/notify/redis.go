package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"

	"bookstock/internal/domain"
)

// RedisPublisher publica eventos via PUBLISH em um canal por nome de evento
// ("<prefixo>:<evento>"). Sem assinantes, o evento é simplesmente perdido.
type RedisPublisher struct {
	rdb    redis.UniversalClient
	prefix string
}

func NewRedisPublisher(rdb redis.UniversalClient, prefix string) *RedisPublisher {
	if prefix == "" {
		prefix = "bookstock.events"
	}
	return &RedisPublisher{rdb: rdb, prefix: prefix}
}

// Channel devolve o canal usado para um nome de evento.
func (p *RedisPublisher) Channel(eventName string) string {
	return fmt.Sprintf("%s:%s", p.prefix, eventName)
}

func (p *RedisPublisher) Publish(ctx context.Context, event domain.Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("serializar evento %s: %w", event.ID, err)
	}
	return p.rdb.Publish(ctx, p.Channel(event.Name), body).Err()
}

// Close não fecha o cliente Redis: ele é compartilhado com o cache.
func (p *RedisPublisher) Close() error { return nil }
