package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/josh-kwaku/payments-es/internal/domain"
)

const DefaultStream = "payments.events"

// Message is one appended event as seen by stream consumers.
type Message struct {
	ID          int64            `json:"id"`
	AggregateID uuid.UUID        `json:"aggregate_id"`
	Version     int64            `json:"version"`
	Type        domain.EventType `json:"type"`
	OccurredAt  time.Time        `json:"occurred_at"`
	Payload     json.RawMessage  `json:"payload"`
}

// RedisPublisher appends messages to a Redis stream. Each entry carries the
// JSON envelope under the "event" field.
type RedisPublisher struct {
	client *redis.Client
	stream string
	logger *slog.Logger
}

func NewRedisPublisher(ctx context.Context, url, stream string, logger *slog.Logger) (*RedisPublisher, error) {
	if url == "" {
		return nil, errors.New("NewRedisPublisher: url is required")
	}
	if stream == "" {
		stream = DefaultStream
	}

	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("NewRedisPublisher: parse url: %w", err)
	}

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("NewRedisPublisher: ping: %w", err)
	}

	return &RedisPublisher{
		client: client,
		stream: stream,
		logger: logger.With("component", "redis-publisher", "stream", stream),
	}, nil
}

// Publish returns the id Redis assigned to the stream entry.
func (p *RedisPublisher) Publish(ctx context.Context, msg Message) (string, error) {
	body, err := json.Marshal(msg)
	if err != nil {
		return "", fmt.Errorf("Publish: marshal: %w", err)
	}

	id, err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		Values: map[string]any{
			"event":        string(body),
			"type":         string(msg.Type),
			"aggregate_id": msg.AggregateID.String(),
		},
	}).Result()
	if err != nil {
		return "", fmt.Errorf("Publish: xadd %s: %w", msg.Type, err)
	}

	p.logger.Debug("event published", "entry_id", id, "aggregate_id", msg.AggregateID, "version", msg.Version)
	return id, nil
}

func (p *RedisPublisher) Ping(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}

func (p *RedisPublisher) Close() error {
	return p.client.Close()
}
