package notification

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pluvyt/backend/internal/application/notification"
	"github.com/pluvyt/backend/internal/infrastructure/config"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

var _ notification.Publisher = (*LogPublisher)(nil)
var _ notification.Publisher = (*RedisPublisher)(nil)
var _ notification.Publisher = (*RabbitMQPublisher)(nil)

type orderPayload struct {
	ComandaID string `json:"comandaId"`
	Table     string `json:"table"`
}

func TestNewPublisher(t *testing.T) {
	t.Run("log is the default", func(t *testing.T) {
		p, err := NewPublisher(config.NotificationConfig{}, nil, zap.NewNop())
		require.NoError(t, err)
		assert.IsType(t, &LogPublisher{}, p)
	})

	t.Run("redis needs a client", func(t *testing.T) {
		_, err := NewPublisher(config.NotificationConfig{Driver: DriverRedis}, nil, zap.NewNop())
		assert.Error(t, err)

		client := redis.NewClient(&redis.Options{Addr: "localhost:0"})
		defer client.Close()
		p, err := NewPublisher(config.NotificationConfig{Driver: DriverRedis, RedisChannelPrefix: "pluvyt:"}, client, zap.NewNop())
		require.NoError(t, err)
		assert.IsType(t, &RedisPublisher{}, p)
	})

	t.Run("unknown driver", func(t *testing.T) {
		_, err := NewPublisher(config.NotificationConfig{Driver: "kafka"}, nil, zap.NewNop())
		assert.Error(t, err)
	})
}

func TestLogPublisher_Publish(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	tenantID := uuid.New()
	p := NewLogPublisher(zap.New(core))

	require.NoError(t, p.Publish(context.Background(), tenantID, notification.EventOrderCreated, orderPayload{ComandaID: "c1", Table: "7"}))
	require.NoError(t, p.Close())

	entries := logs.All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, tenantID.String(), fields["tenant_id"])
	assert.Equal(t, notification.EventOrderCreated, fields["event"])
	assert.Contains(t, fields["envelope"], `"comandaId":"c1"`)
}

type fakeRedis struct {
	channel string
	message any
	err     error
}

func (f *fakeRedis) Publish(ctx context.Context, channel string, message any) *redis.IntCmd {
	f.channel = channel
	f.message = message
	return redis.NewIntResult(1, f.err)
}

func TestRedisPublisher_Publish(t *testing.T) {
	tenantID := uuid.New()

	t.Run("publishes the envelope on the tenant channel", func(t *testing.T) {
		client := &fakeRedis{}
		p := NewRedisPublisher(client, "pluvyt:")
		require.NoError(t, p.Publish(context.Background(), tenantID, notification.EventOrderCreated, orderPayload{ComandaID: "c1"}))

		assert.Equal(t, "pluvyt:tenant:"+tenantID.String(), client.channel)
		var env struct {
			Event    string       `json:"event"`
			TenantID string       `json:"tenantId"`
			Payload  orderPayload `json:"payload"`
		}
		require.NoError(t, json.Unmarshal(client.message.([]byte), &env))
		assert.Equal(t, notification.EventOrderCreated, env.Event)
		assert.Equal(t, tenantID.String(), env.TenantID)
		assert.Equal(t, "c1", env.Payload.ComandaID)
	})

	t.Run("redis failure is returned", func(t *testing.T) {
		p := NewRedisPublisher(&fakeRedis{err: errors.New("connection refused")}, "")
		err := p.Publish(context.Background(), tenantID, notification.EventOrderCreated, nil)
		assert.ErrorContains(t, err, "connection refused")
	})

	t.Run("unencodable payload", func(t *testing.T) {
		p := NewRedisPublisher(&fakeRedis{}, "")
		err := p.Publish(context.Background(), tenantID, notification.EventOrderCreated, make(chan int))
		assert.Error(t, err)
	})
}

// fakeChannel numbers publishes like a channel in confirm mode and answers
// the tags listed in replies on its confirm channel.
type fakeChannel struct {
	mu        sync.Mutex
	exchange  string
	key       string
	published []amqp.Publishing
	err       error
	closed    bool
	tag       uint64
	replies   map[uint64]bool
	acks      chan amqp.Confirmation
}

func newFakeChannel(replies map[uint64]bool) *fakeChannel {
	return &fakeChannel{replies: replies, acks: make(chan amqp.Confirmation, 8)}
}

func (f *fakeChannel) GetNextPublishSeqNo() uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.tag + 1
}

func (f *fakeChannel) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.exchange = exchange
	f.key = key
	if f.err != nil {
		return f.err
	}
	f.tag++
	f.published = append(f.published, msg)
	if ack, ok := f.replies[f.tag]; ok {
		f.acks <- amqp.Confirmation{DeliveryTag: f.tag, Ack: ack}
	}
	return nil
}

func (f *fakeChannel) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.closed {
		f.closed = true
		close(f.acks)
	}
	return nil
}

type fakeConn struct{ closed bool }

func (f *fakeConn) Close() error {
	f.closed = true
	return nil
}

func newFakeRabbit(t *testing.T, replies map[uint64]bool) (*RabbitMQPublisher, *fakeChannel, *fakeConn) {
	t.Helper()
	ch := newFakeChannel(replies)
	conn := &fakeConn{}
	p := newRabbitMQPublisher(conn, ch, ch.acks, "pluvyt.notifications")
	t.Cleanup(func() { _ = p.Close() })
	return p, ch, conn
}

func TestRabbitMQPublisher_Publish(t *testing.T) {
	tenantID := uuid.New()

	t.Run("acked publish", func(t *testing.T) {
		p, ch, _ := newFakeRabbit(t, map[uint64]bool{1: true})

		require.NoError(t, p.Publish(context.Background(), tenantID, notification.EventOrderCreated, orderPayload{Table: "3"}))
		assert.Equal(t, "pluvyt.notifications", ch.exchange)
		assert.Equal(t, "tenant."+tenantID.String()+".order.created", ch.key)
		require.Len(t, ch.published, 1)
		assert.Equal(t, amqp.Persistent, ch.published[0].DeliveryMode)
		assert.Equal(t, "application/json", ch.published[0].ContentType)
		assert.Equal(t, notification.EventOrderCreated, ch.published[0].Type)
	})

	t.Run("nacked publish", func(t *testing.T) {
		p, _, _ := newFakeRabbit(t, map[uint64]bool{1: false})

		err := p.Publish(context.Background(), tenantID, notification.EventOrderCreated, nil)
		assert.ErrorIs(t, err, ErrPublishNacked)
	})

	t.Run("waiting for the confirm honours the deadline", func(t *testing.T) {
		p, _, _ := newFakeRabbit(t, nil)
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		err := p.Publish(ctx, tenantID, notification.EventOrderCreated, nil)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("late confirm of a timed out publish is not paired with the next one", func(t *testing.T) {
		p, ch, _ := newFakeRabbit(t, map[uint64]bool{2: false, 3: true})

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()
		err := p.Publish(ctx, tenantID, notification.EventOrderCreated, nil)
		require.ErrorIs(t, err, context.DeadlineExceeded)

		ch.acks <- amqp.Confirmation{DeliveryTag: 1, Ack: true}

		err = p.Publish(context.Background(), tenantID, notification.EventOrderCreated, nil)
		assert.ErrorIs(t, err, ErrPublishNacked)
		assert.NoError(t, p.Publish(context.Background(), tenantID, notification.EventOrderCreated, nil))
	})

	t.Run("stale confirms are drained without a publisher waiting", func(t *testing.T) {
		p, ch, _ := newFakeRabbit(t, map[uint64]bool{1: true})
		for tag := uint64(100); tag < 120; tag++ {
			ch.acks <- amqp.Confirmation{DeliveryTag: tag, Ack: true}
		}
		assert.NoError(t, p.Publish(context.Background(), tenantID, notification.EventOrderCreated, nil))
	})

	t.Run("channel error", func(t *testing.T) {
		p, ch, _ := newFakeRabbit(t, nil)
		ch.err = amqp.ErrClosed
		err := p.Publish(context.Background(), tenantID, notification.EventOrderCreated, nil)
		assert.ErrorIs(t, err, amqp.ErrClosed)

		ch.err = nil
		ch.replies = map[uint64]bool{1: true}
		assert.NoError(t, p.Publish(context.Background(), tenantID, notification.EventOrderCreated, nil))
	})

	t.Run("closed confirm channel fails the waiting publish", func(t *testing.T) {
		p, ch, _ := newFakeRabbit(t, nil)
		errc := make(chan error, 1)
		go func() {
			errc <- p.Publish(context.Background(), tenantID, notification.EventOrderCreated, nil)
		}()
		require.Eventually(t, func() bool {
			ch.mu.Lock()
			defer ch.mu.Unlock()
			return ch.tag == 1
		}, time.Second, time.Millisecond)
		require.NoError(t, ch.Close())
		assert.ErrorContains(t, <-errc, "confirm channel closed")
	})

	t.Run("close is idempotent and blocks further publishes", func(t *testing.T) {
		p, ch, conn := newFakeRabbit(t, nil)

		require.NoError(t, p.Close())
		require.NoError(t, p.Close())
		assert.True(t, conn.closed)
		assert.True(t, ch.closed)
		assert.Error(t, p.Publish(context.Background(), tenantID, notification.EventOrderCreated, nil))
	})
}
