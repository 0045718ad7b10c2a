package ordering

import (
	"github.com/google/uuid"
	"github.com/pluvyt/backend/internal/domain/shared"
)

// Event type constants
const (
	EventTypeComandaOpened        = "ComandaOpened"
	EventTypeComandaStatusChanged = "ComandaStatusChanged"
	EventTypeTableClosed          = "TableClosed"
)

// ComandaOpenedEvent is raised when a new comanda is opened on a table
type ComandaOpenedEvent struct {
	shared.BaseDomainEvent
	ComandaID uuid.UUID `json:"comanda_id"`
	TableID   uuid.UUID `json:"table_id"`
}

// NewComandaOpenedEvent creates a new ComandaOpenedEvent
func NewComandaOpenedEvent(c *Comanda) *ComandaOpenedEvent {
	return &ComandaOpenedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeComandaOpened, AggregateTypeComanda, &c.TenantAggregateRoot),
		ComandaID:       c.ID,
		TableID:         c.TableID,
	}
}

// ComandaStatusChangedEvent is raised on every lifecycle transition
type ComandaStatusChangedEvent struct {
	shared.BaseDomainEvent
	ComandaID uuid.UUID     `json:"comanda_id"`
	From      ComandaStatus `json:"from"`
	To        ComandaStatus `json:"to"`
}

// NewComandaStatusChangedEvent creates a new ComandaStatusChangedEvent
func NewComandaStatusChangedEvent(c *Comanda, from ComandaStatus) *ComandaStatusChangedEvent {
	return &ComandaStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeComandaStatusChanged, AggregateTypeComanda, &c.TenantAggregateRoot),
		ComandaID:       c.ID,
		From:            from,
		To:              c.Status,
	}
}

// TableClosedEvent is raised when a table is freed and its comandas settled
type TableClosedEvent struct {
	shared.BaseDomainEvent
	TableID         uuid.UUID `json:"table_id"`
	SettledComandas int       `json:"settled_comandas"`
}

// NewTableClosedEvent creates a new TableClosedEvent
func NewTableClosedEvent(t *Table, settled int) *TableClosedEvent {
	return &TableClosedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeTableClosed, AggregateTypeTable, &t.TenantAggregateRoot),
		TableID:         t.ID,
		SettledComandas: settled,
	}
}
