package notification

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type redisPublishClient interface {
	Publish(ctx context.Context, channel string, message any) *redis.IntCmd
}

// RedisPublisher publishes each event on the tenant's Pub/Sub channel,
// <prefix>tenant:<tenant id>
type RedisPublisher struct {
	client redisPublishClient
	prefix string
}

// NewRedisPublisher creates a publisher on a shared client. The client is
// owned by the caller and is not closed by Close.
func NewRedisPublisher(client redisPublishClient, prefix string) *RedisPublisher {
	return &RedisPublisher{client: client, prefix: prefix}
}

// Channel returns the Pub/Sub channel of a tenant
func (p *RedisPublisher) Channel(tenantID uuid.UUID) string {
	return p.prefix + "tenant:" + tenantID.String()
}

// Publish implements notification.Publisher. Having no subscribers is not
// an error.
func (p *RedisPublisher) Publish(ctx context.Context, tenantID uuid.UUID, event string, payload any) error {
	body, err := encode(tenantID, event, payload)
	if err != nil {
		return err
	}
	if err := p.client.Publish(ctx, p.Channel(tenantID), body).Err(); err != nil {
		return fmt.Errorf("failed to publish to redis: %w", err)
	}
	return nil
}

// Close implements notification.Publisher
func (p *RedisPublisher) Close() error {
	return nil
}
