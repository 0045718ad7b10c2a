// Package notification implements the application notification publishers
// on top of zap, Redis Pub/Sub and RabbitMQ.
package notification

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/pluvyt/backend/internal/application/notification"
	"github.com/pluvyt/backend/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Supported publisher drivers
const (
	DriverLog      = "log"
	DriverRedis    = "redis"
	DriverRabbitMQ = "rabbitmq"
)

// NewPublisher builds the publisher selected by cfg.Driver. The redis driver
// reuses the shared client.
func NewPublisher(cfg config.NotificationConfig, redisClient *redis.Client, logger *zap.Logger) (notification.Publisher, error) {
	switch cfg.Driver {
	case "", DriverLog:
		return NewLogPublisher(logger), nil
	case DriverRedis:
		if redisClient == nil {
			return nil, fmt.Errorf("redis notification driver requires a redis client")
		}
		return NewRedisPublisher(redisClient, cfg.RedisChannelPrefix), nil
	case DriverRabbitMQ:
		return DialRabbitMQ(cfg.RabbitMQURL, cfg.RabbitMQExchange)
	default:
		return nil, fmt.Errorf("unknown notification driver %q", cfg.Driver)
	}
}

func encode(tenantID uuid.UUID, event string, payload any) ([]byte, error) {
	body, err := json.Marshal(notification.NewEnvelope(tenantID, event, payload))
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s notification: %w", event, err)
	}
	return body, nil
}

// LogPublisher writes notifications to the log. It is the development
// default when no broker is configured.
type LogPublisher struct {
	logger *zap.Logger
}

// NewLogPublisher creates a new LogPublisher
func NewLogPublisher(logger *zap.Logger) *LogPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogPublisher{logger: logger.Named("notification")}
}

// Publish implements notification.Publisher
func (p *LogPublisher) Publish(_ context.Context, tenantID uuid.UUID, event string, payload any) error {
	body, err := encode(tenantID, event, payload)
	if err != nil {
		return err
	}
	p.logger.Info("Notification",
		zap.String("tenant_id", tenantID.String()),
		zap.String("event", event),
		zap.ByteString("envelope", body))
	return nil
}

// Close implements notification.Publisher
func (p *LogPublisher) Close() error {
	return nil
}
