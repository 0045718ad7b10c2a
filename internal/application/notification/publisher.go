// Package notification defines how the application announces events to a
// tenant's live channel.
package notification

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Events published to a tenant channel
const (
	// EventOrderCreated is published when a guest places an order
	EventOrderCreated = "order.created"
	// EventVerificationRequested carries a fresh e-mail verification token
	// to the mail worker bound to the account.* routing keys
	EventVerificationRequested = "account.verification_requested"
)

// Publisher delivers an event to every subscriber of a tenant channel.
// Implementations must be safe for concurrent use.
type Publisher interface {
	Publish(ctx context.Context, tenantID uuid.UUID, event string, payload any) error
	Close() error
}

// Envelope is the wire format shared by every publisher
type Envelope struct {
	Event      string    `json:"event"`
	TenantID   string    `json:"tenantId"`
	Payload    any       `json:"payload"`
	OccurredAt time.Time `json:"occurredAt"`
}

// NewEnvelope wraps a payload for delivery
func NewEnvelope(tenantID uuid.UUID, event string, payload any) Envelope {
	return Envelope{
		Event:      event,
		TenantID:   tenantID.String(),
		Payload:    payload,
		OccurredAt: time.Now().UTC(),
	}
}

// Announcer publishes best-effort notifications. Failures are logged and
// never returned, so callers can announce after committing their work.
type Announcer struct {
	publisher Publisher
	timeout   time.Duration
	logger    *zap.Logger
}

// NewAnnouncer creates a new Announcer
func NewAnnouncer(publisher Publisher, timeout time.Duration, logger *zap.Logger) *Announcer {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &Announcer{publisher: publisher, timeout: timeout, logger: logger}
}

// Announce publishes the event within the configured timeout
func (a *Announcer) Announce(ctx context.Context, tenantID uuid.UUID, event string, payload any) {
	if a == nil || a.publisher == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.timeout)
	defer cancel()

	if err := a.publisher.Publish(ctx, tenantID, event, payload); err != nil {
		a.logger.Warn("Failed to publish notification",
			zap.String("tenant_id", tenantID.String()),
			zap.String("event", event),
			zap.Error(err))
		return
	}
	a.logger.Debug("Notification published",
		zap.String("tenant_id", tenantID.String()),
		zap.String("event", event))
}
