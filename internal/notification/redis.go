// Package notification fans meeting events out to subscribers.
package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/example/room-booking/internal/application"
	"github.com/example/room-booking/internal/logging"
)

// DefaultChannel is used when no channel is configured.
const DefaultChannel = "room-booking.events"

// RedisConfig describes the Redis connection used for publishing.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Channel  string
}

// NewRedisClient opens a client for cfg.
func NewRedisClient(cfg RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

// Payload is the JSON document published for each event.
type Payload struct {
	Type       string    `json:"type"`
	MeetingID  string    `json:"meeting_id"`
	RoomID     string    `json:"room_id,omitempty"`
	ActorID    string    `json:"actor_id"`
	UserID     string    `json:"user_id,omitempty"`
	Status     string    `json:"status,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// PayloadFromEvent converts an application event into its wire form.
func PayloadFromEvent(event application.MeetingEvent) Payload {
	return Payload{
		Type:       event.Type,
		MeetingID:  event.MeetingID,
		RoomID:     event.RoomID,
		ActorID:    event.ActorID,
		UserID:     event.UserID,
		Status:     event.Status,
		OccurredAt: event.OccurredAt.UTC(),
	}
}

// RedisPublisher publishes meeting events on a Redis pub/sub channel.
type RedisPublisher struct {
	client  redis.UniversalClient
	channel string
	logger  *slog.Logger
}

var _ application.Notifier = (*RedisPublisher)(nil)

// NewRedisPublisher returns a publisher writing to channel.
func NewRedisPublisher(client redis.UniversalClient, channel string, logger *slog.Logger) *RedisPublisher {
	if strings.TrimSpace(channel) == "" {
		channel = DefaultChannel
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisPublisher{client: client, channel: channel, logger: logger}
}

// Channel returns the channel events are published on.
func (p *RedisPublisher) Channel() string {
	return p.channel
}

// Publish encodes event as JSON and publishes it.
func (p *RedisPublisher) Publish(ctx context.Context, event application.MeetingEvent) error {
	if p == nil || p.client == nil {
		return nil
	}

	body, err := json.Marshal(PayloadFromEvent(event))
	if err != nil {
		return fmt.Errorf("encode meeting event: %w", err)
	}

	receivers, err := p.client.Publish(ctx, p.channel, body).Result()
	if err != nil {
		return fmt.Errorf("publish %s: %w", event.Type, err)
	}

	logging.FromContextOr(ctx, p.logger).With("component", "RedisPublisher").DebugContext(ctx, "meeting event published",
		"channel", p.channel,
		"event_type", event.Type,
		"meeting_id", event.MeetingID,
		"receivers", receivers,
	)
	return nil
}

// Ping checks that Redis is reachable.
func (p *RedisPublisher) Ping(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}

// Close releases the underlying client.
func (p *RedisPublisher) Close() error {
	return p.client.Close()
}

// Nop discards every event. It stands in when Redis is not configured.
type Nop struct{}

// Publish implements application.Notifier.
func (Nop) Publish(context.Context, application.MeetingEvent) error { return nil }
