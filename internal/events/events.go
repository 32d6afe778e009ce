package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Event descreve uma mudança de relato já confirmada no banco.
type Event struct {
	ReportID   uuid.UUID  `json:"report_id"`
	Number     string     `json:"number"`
	ZoneID     uuid.UUID  `json:"zone_id"`
	Action     string     `json:"action"`
	FromState  string     `json:"from_state,omitempty"`
	ToState    string     `json:"to_state"`
	ActorID    uuid.UUID  `json:"actor_id"`
	ActorKind  string     `json:"actor_kind"`
	StaffID    *uuid.UUID `json:"staff_id,omitempty"`
	OccurredAt time.Time  `json:"occurred_at"`
}

// Publisher entrega eventos a assinantes externos (notificações, painéis).
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// RedisPublisher publica eventos serializados em JSON em um canal pub/sub.
type RedisPublisher struct {
	client  redis.UniversalClient
	channel string
}

// NewRedisPublisher cria o publicador para o canal informado.
func NewRedisPublisher(client redis.UniversalClient, channel string) *RedisPublisher {
	return &RedisPublisher{client: client, channel: channel}
}

// Publish envia o evento; a falha é devolvida para o chamador registrar.
func (p *RedisPublisher) Publish(ctx context.Context, ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("serializar evento: %w", err)
	}
	if err := p.client.Publish(ctx, p.channel, payload).Err(); err != nil {
		return fmt.Errorf("publicar evento em %s: %w", p.channel, err)
	}
	return nil
}

// Noop descarta eventos quando não há Redis configurado.
type Noop struct{}

func (Noop) Publish(context.Context, Event) error { return nil }
