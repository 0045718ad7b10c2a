package ordering

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pluvyt/backend/internal/domain/shared"
)

// AggregateTypeTable is the aggregate type name used in events
const AggregateTypeTable = "Table"

// TableStatus represents the occupancy of a table
type TableStatus string

const (
	TableStatusFree        TableStatus = "FREE"
	TableStatusOccupied    TableStatus = "OCCUPIED"
	TableStatusReserved    TableStatus = "RESERVED"
	TableStatusMaintenance TableStatus = "MAINTENANCE"
)

// IsValid checks if the status is a valid TableStatus
func (s TableStatus) IsValid() bool {
	switch s {
	case TableStatusFree, TableStatusOccupied, TableStatusReserved, TableStatusMaintenance:
		return true
	}
	return false
}

// String returns the string representation of TableStatus
func (s TableStatus) String() string {
	return string(s)
}

// ErrDuplicateTableNumber is returned when a tenant already has a table with the same number
var ErrDuplicateTableNumber = shared.ErrDuplicateKey.WithMessage("Table number already registered")

// Table is a physical table of a tenant. Number is unique per tenant.
type Table struct {
	shared.TenantAggregateRoot
	Number    string
	Capacity  int
	Status    TableStatus
	DeletedAt *time.Time
}

// NewTable creates a new table; an empty status defaults to FREE
func NewTable(tenantID uuid.UUID, number string, capacity int, status TableStatus, actor string) (*Table, error) {
	if tenantID == uuid.Nil {
		return nil, shared.ErrInvalidInput.WithMessage("Tenant ID cannot be empty")
	}
	if status == "" {
		status = TableStatusFree
	}
	t := &Table{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID, actor),
	}
	if err := t.apply(number, capacity, status); err != nil {
		return nil, err
	}
	return t, nil
}

// Update replaces the editable attributes of the table
func (t *Table) Update(number string, capacity int, status TableStatus, actor string) error {
	if err := t.apply(number, capacity, status); err != nil {
		return err
	}
	t.MarkUpdated(actor)
	return nil
}

func (t *Table) apply(number string, capacity int, status TableStatus) error {
	number = strings.TrimSpace(number)
	if number == "" {
		return shared.ErrInvalidInput.WithMessage("Table number cannot be empty")
	}
	if len(number) > 20 {
		return shared.ErrInvalidInput.WithMessage("Table number cannot exceed 20 characters")
	}
	if capacity <= 0 {
		return shared.ErrInvalidInput.WithMessage("Capacity must be positive")
	}
	if !status.IsValid() {
		return shared.ErrInvalidInput.WithMessage("Invalid table status")
	}
	t.Number = number
	t.Capacity = capacity
	t.Status = status
	return nil
}

// Occupy marks the table as in use when a comanda is opened on it.
// Tables under maintenance cannot take orders.
func (t *Table) Occupy(actor string) error {
	switch t.Status {
	case TableStatusMaintenance:
		return shared.ErrInvalidState.WithMessage("Table is under maintenance")
	case TableStatusOccupied:
		return nil
	}
	t.Status = TableStatusOccupied
	t.MarkUpdated(actor)
	return nil
}

// Release frees the table after its comandas were settled
func (t *Table) Release(settled int, actor string) {
	t.Status = TableStatusFree
	t.MarkUpdated(actor)
	t.AddDomainEvent(NewTableClosedEvent(t, settled))
}

// IsDeleted reports whether the table was soft deleted
func (t *Table) IsDeleted() bool {
	return t.DeletedAt != nil
}
