package ordering

import (
	"time"

	"github.com/google/uuid"
	"github.com/pluvyt/backend/internal/domain/ordering"
	"github.com/shopspring/decimal"
)

// ==================== Table DTOs ====================

// CreateTableRequest represents a request to register a table
type CreateTableRequest struct {
	Number   string `json:"number" binding:"required,min=1,max=20"`
	Capacity int    `json:"capacity" binding:"required,gt=0"`
	Status   string `json:"status" binding:"omitempty,oneof=FREE OCCUPIED RESERVED MAINTENANCE"`
}

// UpdateTableRequest represents a request to edit a table
type UpdateTableRequest struct {
	Number   *string `json:"number" binding:"omitempty,min=1,max=20"`
	Capacity *int    `json:"capacity" binding:"omitempty,gt=0"`
	Status   *string `json:"status" binding:"omitempty,oneof=FREE OCCUPIED RESERVED MAINTENANCE"`
}

// SetTableStatusRequest represents an explicit staff status change
type SetTableStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=FREE OCCUPIED RESERVED MAINTENANCE"`
}

// TableResponse represents a table in API responses
type TableResponse struct {
	ID        uuid.UUID `json:"id"`
	TenantID  uuid.UUID `json:"tenant_id"`
	Number    string    `json:"number"`
	Capacity  int       `json:"capacity"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ToTableResponse converts a domain table to its response
func ToTableResponse(t *ordering.Table) TableResponse {
	return TableResponse{
		ID:        t.ID,
		TenantID:  t.TenantID,
		Number:    t.Number,
		Capacity:  t.Capacity,
		Status:    string(t.Status),
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
}

// CloseTableResponse reports the outcome of closing a table
type CloseTableResponse struct {
	Table           TableResponse   `json:"table"`
	SettledComandas []uuid.UUID     `json:"settled_comandas"`
	SettledTotal    decimal.Decimal `json:"settled_total"`
}

// ==================== Comanda DTOs ====================

// OrderItemInput represents an item ordered on a comanda
type OrderItemInput struct {
	ProductID uuid.UUID       `json:"product_id" binding:"required"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Note      string          `json:"note" binding:"max=500"`
}

// OpenComandaRequest represents a staff request to open a comanda
type OpenComandaRequest struct {
	TableID      uuid.UUID        `json:"table_id" binding:"required"`
	CustomerName string           `json:"customer_name" binding:"max=200"`
	Items        []OrderItemInput `json:"items" binding:"dive"`
}

// PublicOrderRequest represents an order placed by a guest through the menu
type PublicOrderRequest struct {
	TenantID     uuid.UUID        `json:"tenant_id" binding:"required"`
	TableID      uuid.UUID        `json:"table_id" binding:"required"`
	CustomerName string           `json:"customer_name" binding:"max=200"`
	Items        []OrderItemInput `json:"items" binding:"required,min=1,dive"`
}

// UpdateComandaStatusRequest represents a lifecycle transition
type UpdateComandaStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=OPEN CLOSED PAID CANCELLED"`
}

// UpdateItemStatusRequest represents a kitchen status change of an item
type UpdateItemStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=PENDING DELIVERED CANCELLED"`
}

// ComandaListFilter narrows a comanda listing
type ComandaListFilter struct {
	Status  string
	TableID *uuid.UUID
}

// OrderItemResponse represents a comanda item in API responses
type OrderItemResponse struct {
	ID        uuid.UUID       `json:"id"`
	ProductID uuid.UUID       `json:"product_id"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	LineTotal decimal.Decimal `json:"line_total"`
	Status    string          `json:"status"`
	Note      string          `json:"note,omitempty"`
	CreatedBy string          `json:"created_by"`
	CreatedAt time.Time       `json:"created_at"`
}

// ComandaResponse represents a comanda with its items in API responses
type ComandaResponse struct {
	ID           uuid.UUID           `json:"id"`
	TenantID     uuid.UUID           `json:"tenant_id"`
	TableID      uuid.UUID           `json:"table_id"`
	TableNumber  string              `json:"table_number,omitempty"`
	CustomerName string              `json:"customer_name,omitempty"`
	Status       string              `json:"status"`
	Total        decimal.Decimal     `json:"total"`
	OpenedAt     time.Time           `json:"opened_at"`
	ClosedAt     *time.Time          `json:"closed_at,omitempty"`
	CreatedBy    string              `json:"created_by"`
	UpdatedAt    time.Time           `json:"updated_at"`
	Items        []OrderItemResponse `json:"items"`
}

// ToComandaResponse converts a domain comanda to its response
func ToComandaResponse(c *ordering.Comanda) ComandaResponse {
	active := c.ActiveItems()
	items := make([]OrderItemResponse, len(active))
	for i, item := range active {
		items[i] = OrderItemResponse{
			ID:        item.ID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			LineTotal: item.LineTotal,
			Status:    string(item.Status),
			Note:      item.Note,
			CreatedBy: item.CreatedBy,
			CreatedAt: item.CreatedAt,
		}
	}
	return ComandaResponse{
		ID:           c.ID,
		TenantID:     c.TenantID,
		TableID:      c.TableID,
		TableNumber:  c.TableNumber,
		CustomerName: c.CustomerName,
		Status:       string(c.Status),
		Total:        c.Total,
		OpenedAt:     c.OpenedAt,
		ClosedAt:     c.ClosedAt,
		CreatedBy:    c.CreatedBy,
		UpdatedAt:    c.UpdatedAt,
		Items:        items,
	}
}

// OrderCreatedPayload is announced to the tenant channel after a guest order
type OrderCreatedPayload struct {
	ComandaID   uuid.UUID       `json:"comandaId"`
	TableID     uuid.UUID       `json:"tableId"`
	TableNumber string          `json:"tableNumber"`
	Total       decimal.Decimal `json:"total"`
	ItemCount   int             `json:"itemCount"`
}
