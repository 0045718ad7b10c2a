package logger

import (
	"github.com/pluvyt/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// DomainEvents writes committed domain events at debug level
func DomainEvents(logger *zap.Logger, events []shared.DomainEvent) {
	for _, e := range events {
		logger.Debug("Domain event",
			zap.String("event_type", e.EventType()),
			zap.String("event_id", e.EventID().String()),
			zap.String("aggregate_type", e.AggregateType()),
			zap.String("aggregate_id", e.AggregateID().String()),
			zap.String("tenant_id", e.TenantID().String()),
			zap.String("actor", e.Actor()),
			zap.Time("occurred_at", e.OccurredAt()),
		)
	}
}

// PullEvents returns the events an aggregate raised and clears them
func PullEvents(agg shared.AggregateRoot) []shared.DomainEvent {
	events := agg.GetDomainEvents()
	agg.ClearDomainEvents()
	return events
}
