package notification

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// ErrPublishNacked is returned when the broker refuses a message
var ErrPublishNacked = errors.New("publish NACK from broker")

type amqpChannel interface {
	GetNextPublishSeqNo() uint64
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// RabbitMQPublisher publishes to a durable topic exchange with routing key
// tenant.<tenant id>.<event> and waits for the broker confirm of that
// delivery tag. A background loop drains the confirm channel; confirms of
// publishes whose caller already gave up are discarded.
type RabbitMQPublisher struct {
	conn     io.Closer
	ch       amqpChannel
	exchange string

	// mu keeps tag reservation and the publish frame together
	mu     sync.Mutex
	closed bool

	waitMu  sync.Mutex
	waiters map[uint64]chan bool
	done    chan struct{}
}

// DialRabbitMQ connects, declares the exchange and enables publisher confirms
func DialRabbitMQ(url, exchange string) (*RabbitMQPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to open rabbitmq channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("failed to declare exchange %s: %w", exchange, err)
	}
	if err := ch.Confirm(false); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("failed to enable publisher confirms: %w", err)
	}
	acks := ch.NotifyPublish(make(chan amqp.Confirmation, 16))
	return newRabbitMQPublisher(conn, ch, acks, exchange), nil
}

func newRabbitMQPublisher(conn io.Closer, ch amqpChannel, acks <-chan amqp.Confirmation, exchange string) *RabbitMQPublisher {
	p := &RabbitMQPublisher{
		conn:     conn,
		ch:       ch,
		exchange: exchange,
		waiters:  make(map[uint64]chan bool),
		done:     make(chan struct{}),
	}
	go p.confirmLoop(acks)
	return p
}

// confirmLoop hands each confirm to the publish waiting on its tag. It ends
// when the library closes the channel together with the AMQP channel.
func (p *RabbitMQPublisher) confirmLoop(acks <-chan amqp.Confirmation) {
	defer close(p.done)
	for conf := range acks {
		p.waitMu.Lock()
		w, ok := p.waiters[conf.DeliveryTag]
		delete(p.waiters, conf.DeliveryTag)
		p.waitMu.Unlock()
		if ok {
			w <- conf.Ack
		}
	}
}

func (p *RabbitMQPublisher) expect(tag uint64) <-chan bool {
	w := make(chan bool, 1)
	p.waitMu.Lock()
	p.waiters[tag] = w
	p.waitMu.Unlock()
	return w
}

func (p *RabbitMQPublisher) forget(tag uint64) {
	p.waitMu.Lock()
	delete(p.waiters, tag)
	p.waitMu.Unlock()
}

// RoutingKey returns the routing key of an event
func RoutingKey(tenantID uuid.UUID, event string) string {
	return "tenant." + tenantID.String() + "." + event
}

// Publish implements notification.Publisher
func (p *RabbitMQPublisher) Publish(ctx context.Context, tenantID uuid.UUID, event string, payload any) error {
	body, err := encode(tenantID, event, payload)
	if err != nil {
		return err
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return errors.New("rabbitmq publisher is closed")
	}
	tag := p.ch.GetNextPublishSeqNo()
	confirmed := p.expect(tag)
	err = p.ch.PublishWithContext(ctx, p.exchange, RoutingKey(tenantID, event), false, false, amqp.Publishing{
		DeliveryMode: amqp.Persistent,
		ContentType:  "application/json",
		Timestamp:    time.Now().UTC(),
		Type:         event,
		Body:         body,
	})
	p.mu.Unlock()
	if err != nil {
		p.forget(tag)
		return fmt.Errorf("failed to publish to rabbitmq: %w", err)
	}

	select {
	case ack := <-confirmed:
		return confirmResult(ack)
	case <-p.done:
		select {
		case ack := <-confirmed:
			return confirmResult(ack)
		default:
			return errors.New("rabbitmq confirm channel closed")
		}
	case <-ctx.Done():
		p.forget(tag)
		return ctx.Err()
	}
}

func confirmResult(ack bool) error {
	if !ack {
		return ErrPublishNacked
	}
	return nil
}

// Close closes the channel and the connection
func (p *RabbitMQPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	return errors.Join(p.ch.Close(), p.conn.Close())
}
