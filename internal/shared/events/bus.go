package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/lodhran-gov/complaints/internal/shared/config"
	"github.com/lodhran-gov/complaints/internal/shared/types"
)

// Event represents a realtime event delivered to a user channel
type Event struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`

	// Actor information
	ActorID   types.ID `json:"actor_id,omitempty"`
	ActorRole string   `json:"actor_role,omitempty"`

	// Event data
	Data any `json:"data"`
}

// NewEvent creates a new event with auto-generated ID and timestamp
func NewEvent(eventType string, data any) Event {
	return Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
}

// WithActor sets the actor information on the event
func (e Event) WithActor(actorID types.ID, actorRole string) Event {
	e.ActorID = actorID
	e.ActorRole = actorRole
	return e
}

// Bus publishes realtime events over Redis pub/sub. Each user has a
// dedicated channel; gateway processes subscribe and forward to open
// websocket connections. Delivery is best effort, the persisted
// notification row is the source of truth.
type Bus struct {
	client *redis.Client
}

// NewBus creates a new event bus connected to Redis. Returns a nil bus
// when realtime publishing is disabled.
func NewBus(ctx context.Context, cfg config.RedisConfig) (*Bus, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Bus{client: client}, nil
}

// UserChannel returns the pub/sub channel name for a user
func UserChannel(userID types.ID) string {
	return "user:" + userID.String()
}

// PublishToUser publishes an event to a single user's channel
func (b *Bus) PublishToUser(ctx context.Context, userID types.ID, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := b.client.Publish(ctx, UserChannel(userID), data).Err(); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	return nil
}

// Subscribe subscribes to a user's channel and invokes handler for each
// event until the context is cancelled. Used by gateway processes that
// hold the websocket connections.
func (b *Bus) Subscribe(ctx context.Context, userID types.ID, handler func(ctx context.Context, event Event)) error {
	sub := b.client.Subscribe(ctx, UserChannel(userID))
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var event Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				continue
			}
			handler(ctx, event)
		}
	}
}

// Health checks the Redis connection
func (b *Bus) Health(ctx context.Context) error {
	return b.client.Ping(ctx).Err()
}

// Close closes the event bus connection
func (b *Bus) Close() {
	if b.client != nil {
		b.client.Close()
	}
}
