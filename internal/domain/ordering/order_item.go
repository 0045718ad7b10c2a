package ordering

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pluvyt/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// ItemStatus represents the kitchen status of an order item
type ItemStatus string

const (
	ItemStatusPending   ItemStatus = "PENDING"
	ItemStatusDelivered ItemStatus = "DELIVERED"
	ItemStatusCancelled ItemStatus = "CANCELLED"
)

// IsValid checks if the status is a valid ItemStatus
func (s ItemStatus) IsValid() bool {
	switch s {
	case ItemStatusPending, ItemStatusDelivered, ItemStatusCancelled:
		return true
	}
	return false
}

// OrderItem is a line of a comanda. LineTotal is Quantity * UnitPrice
// rounded to cents, half away from zero; the comanda total sums the rounded
// line totals.
type OrderItem struct {
	ID        uuid.UUID
	TenantID  uuid.UUID
	ComandaID uuid.UUID
	ProductID uuid.UUID
	Quantity  decimal.Decimal
	UnitPrice decimal.Decimal
	LineTotal decimal.Decimal
	Status    ItemStatus
	Note      string
	CreatedAt time.Time
	UpdatedAt time.Time
	CreatedBy string
	UpdatedBy string
	DeletedAt *time.Time
}

// NewOrderItem creates a pending item and computes its line total
func NewOrderItem(tenantID, comandaID, productID uuid.UUID, quantity, unitPrice decimal.Decimal, note, actor string) (*OrderItem, error) {
	if productID == uuid.Nil {
		return nil, shared.ErrInvalidInput.WithMessage("Product ID cannot be empty")
	}
	if quantity.LessThanOrEqual(decimal.Zero) {
		return nil, shared.ErrInvalidInput.WithMessage("Quantity must be positive")
	}
	if unitPrice.IsNegative() {
		return nil, shared.ErrInvalidInput.WithMessage("Unit price cannot be negative")
	}
	note = strings.TrimSpace(note)
	if len(note) > 500 {
		return nil, shared.ErrInvalidInput.WithMessage("Note cannot exceed 500 characters")
	}

	now := time.Now()
	return &OrderItem{
		ID:        uuid.New(),
		TenantID:  tenantID,
		ComandaID: comandaID,
		ProductID: productID,
		Quantity:  quantity,
		UnitPrice: unitPrice,
		LineTotal: quantity.Mul(unitPrice).Round(2),
		Status:    ItemStatusPending,
		Note:      note,
		CreatedAt: now,
		UpdatedAt: now,
		CreatedBy: actor,
		UpdatedBy: actor,
	}, nil
}

// SetStatus changes the kitchen status of the item
func (i *OrderItem) SetStatus(status ItemStatus, actor string) error {
	if !status.IsValid() {
		return shared.ErrInvalidInput.WithMessage("Invalid item status")
	}
	i.Status = status
	i.UpdatedBy = actor
	i.UpdatedAt = time.Now()
	return nil
}

// IsDeleted reports whether the item was soft deleted
func (i *OrderItem) IsDeleted() bool {
	return i.DeletedAt != nil
}

func (i *OrderItem) markDeleted(actor string) {
	now := time.Now()
	i.DeletedAt = &now
	i.UpdatedBy = actor
	i.UpdatedAt = now
}
