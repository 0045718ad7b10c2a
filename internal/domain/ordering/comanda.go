// Package ordering holds the table-service model: tables, comandas (open
// tabs) and their items.
package ordering

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pluvyt/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// AggregateTypeComanda is the aggregate type name used in events
const AggregateTypeComanda = "Comanda"

// ComandaStatus represents the lifecycle status of a comanda
type ComandaStatus string

const (
	ComandaStatusOpen      ComandaStatus = "OPEN"
	ComandaStatusClosed    ComandaStatus = "CLOSED"
	ComandaStatusPaid      ComandaStatus = "PAID"
	ComandaStatusCancelled ComandaStatus = "CANCELLED"
)

// IsValid checks if the status is a valid ComandaStatus
func (s ComandaStatus) IsValid() bool {
	switch s {
	case ComandaStatusOpen, ComandaStatusClosed, ComandaStatusPaid, ComandaStatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of ComandaStatus
func (s ComandaStatus) String() string {
	return string(s)
}

// IsTerminal reports whether no transition may leave this status
func (s ComandaStatus) IsTerminal() bool {
	return s == ComandaStatusPaid || s == ComandaStatusCancelled
}

// CanTransitionTo checks if the status can transition to the target status
func (s ComandaStatus) CanTransitionTo(target ComandaStatus) bool {
	switch s {
	case ComandaStatusOpen:
		return target == ComandaStatusClosed || target == ComandaStatusPaid || target == ComandaStatusCancelled
	case ComandaStatusClosed:
		return target == ComandaStatusPaid || target == ComandaStatusCancelled
	case ComandaStatusPaid, ComandaStatusCancelled:
		return false // Terminal states
	}
	return false
}

// CustomerActor identifies orders placed by guests through the public menu
const CustomerActor = "customer"

// Comanda is an open tab on a table. Total is derived from the non-deleted
// items and is never supplied by callers.
type Comanda struct {
	shared.TenantAggregateRoot
	TableID      uuid.UUID
	TableNumber  string
	CustomerName string
	Status       ComandaStatus
	Total        decimal.Decimal
	OpenedAt     time.Time
	ClosedAt     *time.Time
	Items        []*OrderItem
	DeletedAt    *time.Time
}

// NewComanda opens a comanda with a zero total
func NewComanda(tenantID, tableID uuid.UUID, customerName, actor string) (*Comanda, error) {
	if tenantID == uuid.Nil {
		return nil, shared.ErrInvalidInput.WithMessage("Tenant ID cannot be empty")
	}
	if tableID == uuid.Nil {
		return nil, shared.ErrInvalidInput.WithMessage("Table ID cannot be empty")
	}
	customerName = strings.TrimSpace(customerName)
	if len(customerName) > 200 {
		return nil, shared.ErrInvalidInput.WithMessage("Customer name cannot exceed 200 characters")
	}

	c := &Comanda{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID, actor),
		TableID:             tableID,
		CustomerName:        customerName,
		Status:              ComandaStatusOpen,
		Total:               decimal.Zero,
		Items:               make([]*OrderItem, 0),
	}
	c.OpenedAt = c.CreatedAt
	c.AddDomainEvent(NewComandaOpenedEvent(c))
	return c, nil
}

// AddItem validates and appends a new item. The caller persists the item and
// then refreshes Total from the store with ApplyTotal.
func (c *Comanda) AddItem(productID uuid.UUID, quantity, unitPrice decimal.Decimal, note, actor string) (*OrderItem, error) {
	if c.Status.IsTerminal() {
		return nil, shared.ErrInvalidState.WithMessage(
			fmt.Sprintf("Cannot add items to a %s comanda", c.Status))
	}
	item, err := NewOrderItem(c.TenantID, c.ID, productID, quantity, unitPrice, note, actor)
	if err != nil {
		return nil, err
	}
	c.Items = append(c.Items, item)
	c.MarkUpdated(actor)
	return item, nil
}

// RemoveItem soft deletes an item of a non-terminal comanda
func (c *Comanda) RemoveItem(itemID uuid.UUID, actor string) (*OrderItem, error) {
	if c.Status.IsTerminal() {
		return nil, shared.ErrInvalidState.WithMessage(
			fmt.Sprintf("Cannot remove items from a %s comanda", c.Status))
	}
	item := c.GetItem(itemID)
	if item == nil {
		return nil, shared.ErrNotFound.WithMessage("Comanda item not found")
	}
	item.markDeleted(actor)
	c.MarkUpdated(actor)
	return item, nil
}

// ApplyTotal stores the total recomputed from persisted items
func (c *Comanda) ApplyTotal(total decimal.Decimal, actor string) {
	c.Total = total
	c.MarkUpdated(actor)
}

// Transition moves the comanda along a legal edge of its lifecycle.
// ClosedAt is stamped when entering PAID or CANCELLED and cleared otherwise.
func (c *Comanda) Transition(target ComandaStatus, actor string, now time.Time) error {
	if !target.IsValid() {
		return shared.ErrInvalidInput.WithMessage("Invalid comanda status")
	}
	if !c.Status.CanTransitionTo(target) {
		return shared.ErrInvalidTransition.WithMessage(
			fmt.Sprintf("Cannot change comanda status from %s to %s", c.Status, target))
	}

	from := c.Status
	c.Status = target
	if target.IsTerminal() {
		closedAt := now
		c.ClosedAt = &closedAt
	} else {
		c.ClosedAt = nil
	}
	c.UpdatedBy = actor
	c.UpdatedAt = now
	c.AddDomainEvent(NewComandaStatusChangedEvent(c, from))
	return nil
}

// GetItem returns a non-deleted item by ID
func (c *Comanda) GetItem(itemID uuid.UUID) *OrderItem {
	for _, item := range c.Items {
		if item.ID == itemID && !item.IsDeleted() {
			return item
		}
	}
	return nil
}

// ActiveItems returns the items that count towards the total
func (c *Comanda) ActiveItems() []*OrderItem {
	items := make([]*OrderItem, 0, len(c.Items))
	for _, item := range c.Items {
		if !item.IsDeleted() {
			items = append(items, item)
		}
	}
	return items
}

// ItemCount returns the number of active items
func (c *Comanda) ItemCount() int {
	return len(c.ActiveItems())
}

// IsTerminal reports whether the comanda reached PAID or CANCELLED
func (c *Comanda) IsTerminal() bool {
	return c.Status.IsTerminal()
}
