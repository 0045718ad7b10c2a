package shared

import (
	"time"

	"github.com/google/uuid"
)

// DomainEvent is a fact raised by an aggregate while it is mutated. Events
// are drained by the application layer once the surrounding transaction
// commits; a rolled back mutation drops them.
type DomainEvent interface {
	EventID() uuid.UUID
	EventType() string
	OccurredAt() time.Time
	AggregateID() uuid.UUID
	AggregateType() string
	TenantID() uuid.UUID
	Actor() string
}

// BaseDomainEvent carries the envelope shared by every event
type BaseDomainEvent struct {
	ID        uuid.UUID `json:"id"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Aggregate struct {
		ID   uuid.UUID `json:"id"`
		Type string    `json:"type"`
	} `json:"aggregate"`
	Tenant uuid.UUID `json:"tenant_id"`
	By     string    `json:"actor"`
}

func (e *BaseDomainEvent) EventID() uuid.UUID { return e.ID }
func (e *BaseDomainEvent) EventType() string { return e.Type }
func (e *BaseDomainEvent) OccurredAt() time.Time { return e.Timestamp }
func (e *BaseDomainEvent) AggregateID() uuid.UUID { return e.Aggregate.ID }
func (e *BaseDomainEvent) AggregateType() string { return e.Aggregate.Type }
func (e *BaseDomainEvent) TenantID() uuid.UUID { return e.Tenant }

// Actor returns who caused the event: a login, or a sentinel such as the
// public customer
func (e *BaseDomainEvent) Actor() string { return e.By }

// NewBaseDomainEvent stamps an event raised by root. The actor is the last
// one recorded on the aggregate, so mutations must call MarkUpdated first.
func NewBaseDomainEvent(eventType, aggregateType string, root *TenantAggregateRoot) BaseDomainEvent {
	e := BaseDomainEvent{
		ID:        uuid.New(),
		Type:      eventType,
		Timestamp: time.Now(),
		Tenant:    root.TenantID,
		By:        root.UpdatedBy,
	}
	e.Aggregate.ID = root.ID
	e.Aggregate.Type = aggregateType
	return e
}
