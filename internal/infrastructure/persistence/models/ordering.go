package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/pluvyt/backend/internal/domain/ordering"
	"github.com/shopspring/decimal"
)

// MesaModel is the persistence model of a dining table. Number is unique
// per tenant among tables that were not deleted.
type MesaModel struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey"`
	TenantID  uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_mesas_tenant_number,priority:1,where:deleted_at IS NULL"`
	Number    string     `gorm:"type:varchar(20);not null;uniqueIndex:idx_mesas_tenant_number,priority:2,where:deleted_at IS NULL"`
	Capacity  int        `gorm:"not null;check:chk_mesas_capacity,capacity > 0"`
	Status    string     `gorm:"type:varchar(20);not null;default:'FREE'"`
	CreatedAt time.Time  `gorm:"not null"`
	UpdatedAt time.Time  `gorm:"not null"`
	CreatedBy string     `gorm:"type:varchar(100)"`
	UpdatedBy string     `gorm:"type:varchar(100)"`
	DeletedAt *time.Time `gorm:"index"`
}

// TableName returns the table name for GORM
func (MesaModel) TableName() string {
	return "mesas"
}

// ToDomain converts the model to a domain Table
func (m *MesaModel) ToDomain() *ordering.Table {
	return &ordering.Table{
		TenantAggregateRoot: tenantRoot(m.ID, m.TenantID, m.CreatedAt, m.UpdatedAt, m.CreatedBy, m.UpdatedBy),
		Number:              m.Number,
		Capacity:            m.Capacity,
		Status:              ordering.TableStatus(m.Status),
		DeletedAt:           m.DeletedAt,
	}
}

// MesaModelFromDomain creates a model from a domain Table
func MesaModelFromDomain(t *ordering.Table) *MesaModel {
	return &MesaModel{
		ID:        t.ID,
		TenantID:  t.TenantID,
		Number:    t.Number,
		Capacity:  t.Capacity,
		Status:    string(t.Status),
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
		CreatedBy: t.CreatedBy,
		UpdatedBy: t.UpdatedBy,
		DeletedAt: t.DeletedAt,
	}
}

// ComandaModel is the persistence model of a comanda. TableNumber is read
// from mesas by the repository queries and never written.
type ComandaModel struct {
	TenantModel
	TableID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	CustomerName string          `gorm:"type:varchar(200)"`
	Status       string          `gorm:"type:varchar(20);not null;default:'OPEN';index"`
	Total        decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0"`
	OpenedAt     time.Time       `gorm:"not null"`
	ClosedAt     *time.Time
	DeletedAt    *time.Time `gorm:"index"`
	TableNumber  string     `gorm:"->;-:migration"`
}

// TableName returns the table name for GORM
func (ComandaModel) TableName() string {
	return "comandas"
}

// ToDomain converts the model to a domain Comanda without items
func (m *ComandaModel) ToDomain() *ordering.Comanda {
	return &ordering.Comanda{
		TenantAggregateRoot: m.ToTenantAggregateRoot(),
		TableID:             m.TableID,
		TableNumber:         m.TableNumber,
		CustomerName:        m.CustomerName,
		Status:              ordering.ComandaStatus(m.Status),
		Total:               m.Total,
		OpenedAt:            m.OpenedAt,
		ClosedAt:            m.ClosedAt,
		DeletedAt:           m.DeletedAt,
		Items:               make([]*ordering.OrderItem, 0),
	}
}

// ComandaModelFromDomain creates a model from a domain Comanda
func ComandaModelFromDomain(c *ordering.Comanda) *ComandaModel {
	m := &ComandaModel{
		TableID:      c.TableID,
		CustomerName: c.CustomerName,
		Status:       string(c.Status),
		Total:        c.Total,
		OpenedAt:     c.OpenedAt,
		ClosedAt:     c.ClosedAt,
		DeletedAt:    c.DeletedAt,
	}
	m.FromDomainTenantAggregateRoot(c.TenantAggregateRoot)
	return m
}

// ComandaItemModel is a line of a comanda
type ComandaItemModel struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey"`
	TenantID  uuid.UUID       `gorm:"type:uuid;not null;index"`
	ComandaID uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID uuid.UUID       `gorm:"type:uuid;not null"`
	Quantity  decimal.Decimal `gorm:"type:decimal(12,3);not null"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(14,2);not null"`
	LineTotal decimal.Decimal `gorm:"type:decimal(14,2);not null"`
	Status    string          `gorm:"type:varchar(20);not null;default:'PENDING'"`
	Note      string          `gorm:"type:varchar(500)"`
	CreatedAt time.Time       `gorm:"not null"`
	UpdatedAt time.Time       `gorm:"not null"`
	CreatedBy string          `gorm:"type:varchar(100)"`
	UpdatedBy string          `gorm:"type:varchar(100)"`
	DeletedAt *time.Time      `gorm:"index"`
}

// TableName returns the table name for GORM
func (ComandaItemModel) TableName() string {
	return "comanda_itens"
}

// ToDomain converts the model to a domain OrderItem
func (m *ComandaItemModel) ToDomain() *ordering.OrderItem {
	return &ordering.OrderItem{
		ID:        m.ID,
		TenantID:  m.TenantID,
		ComandaID: m.ComandaID,
		ProductID: m.ProductID,
		Quantity:  m.Quantity,
		UnitPrice: m.UnitPrice,
		LineTotal: m.LineTotal,
		Status:    ordering.ItemStatus(m.Status),
		Note:      m.Note,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
		CreatedBy: m.CreatedBy,
		UpdatedBy: m.UpdatedBy,
		DeletedAt: m.DeletedAt,
	}
}

// ComandaItemModelFromDomain creates a model from a domain OrderItem
func ComandaItemModelFromDomain(i *ordering.OrderItem) *ComandaItemModel {
	return &ComandaItemModel{
		ID:        i.ID,
		TenantID:  i.TenantID,
		ComandaID: i.ComandaID,
		ProductID: i.ProductID,
		Quantity:  i.Quantity,
		UnitPrice: i.UnitPrice,
		LineTotal: i.LineTotal,
		Status:    string(i.Status),
		Note:      i.Note,
		CreatedAt: i.CreatedAt,
		UpdatedAt: i.UpdatedAt,
		CreatedBy: i.CreatedBy,
		UpdatedBy: i.UpdatedBy,
		DeletedAt: i.DeletedAt,
	}
}
