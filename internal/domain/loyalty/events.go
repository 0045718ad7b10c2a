package loyalty

import (
	"github.com/google/uuid"
	"github.com/pluvyt/backend/internal/domain/shared"
)

// EventTypePointsApplied is raised for every ledger entry
const EventTypePointsApplied = "PointsApplied"

// PointsAppliedEvent is raised when a ledger entry changes a client balance
type PointsAppliedEvent struct {
	shared.BaseDomainEvent
	ClientID         uuid.UUID       `json:"client_id"`
	TransactionID    uuid.UUID       `json:"transaction_id"`
	Kind             TransactionKind `json:"kind"`
	Points           int64           `json:"points"`
	ResultingBalance int64           `json:"resulting_balance"`
}

// NewPointsAppliedEvent creates a new PointsAppliedEvent
func NewPointsAppliedEvent(c *Client, tx *PointTransaction) *PointsAppliedEvent {
	return &PointsAppliedEvent{
		BaseDomainEvent:  shared.NewBaseDomainEvent(EventTypePointsApplied, AggregateTypeClient, &c.TenantAggregateRoot),
		ClientID:         c.ID,
		TransactionID:    tx.ID,
		Kind:             tx.Kind,
		Points:           tx.Points,
		ResultingBalance: tx.ResultingBalance,
	}
}
