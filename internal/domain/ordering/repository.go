package ordering

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TableRepository persists tables. Lookups are tenant scoped, skip soft
// deleted rows and return shared.ErrNotFound when nothing matches.
// Create and Update return ErrDuplicateTableNumber on a number clash.
type TableRepository interface {
	Create(ctx context.Context, table *Table) error
	Update(ctx context.Context, table *Table) error
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Table, error)
	FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*Table, error)
	// List returns the tables of a tenant ordered by number
	List(ctx context.Context, tenantID uuid.UUID) ([]*Table, error)
	SoftDelete(ctx context.Context, table *Table) error
}

// ComandaFilter narrows a comanda listing
type ComandaFilter struct {
	Status  ComandaStatus
	TableID *uuid.UUID
}

// ComandaRepository persists comandas. Loaded comandas carry their
// non-deleted items.
type ComandaRepository interface {
	Create(ctx context.Context, comanda *Comanda) error
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Comanda, error)
	FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*Comanda, error)
	// FindActiveByTableForUpdate locks every OPEN or CLOSED comanda of a table
	FindActiveByTableForUpdate(ctx context.Context, tenantID, tableID uuid.UUID) ([]*Comanda, error)
	// List returns comandas newest first
	List(ctx context.Context, tenantID uuid.UUID, filter ComandaFilter) ([]*Comanda, error)
	// Save writes status, total, closed_at and audit columns
	Save(ctx context.Context, comanda *Comanda) error
}

// OrderItemRepository persists comanda items
type OrderItemRepository interface {
	Create(ctx context.Context, item *OrderItem) error
	Update(ctx context.Context, item *OrderItem) error
	// SumLineTotals recomputes a comanda total from its non-deleted items
	SumLineTotals(ctx context.Context, tenantID, comandaID uuid.UUID) (decimal.Decimal, error)
}
