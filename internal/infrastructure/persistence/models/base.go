package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/pluvyt/backend/internal/domain/shared"
)

// TenantModel holds the columns every tenant scoped aggregate shares
type TenantModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	TenantID  uuid.UUID `gorm:"type:uuid;not null;index"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
	CreatedBy string    `gorm:"type:varchar(100)"`
	UpdatedBy string    `gorm:"type:varchar(100)"`
}

// FromDomainTenantAggregateRoot copies the shared aggregate columns
func (m *TenantModel) FromDomainTenantAggregateRoot(t shared.TenantAggregateRoot) {
	m.ID = t.ID
	m.TenantID = t.TenantID
	m.CreatedAt = t.CreatedAt
	m.UpdatedAt = t.UpdatedAt
	m.CreatedBy = t.CreatedBy
	m.UpdatedBy = t.UpdatedBy
}

// ToTenantAggregateRoot rebuilds the shared aggregate part of an entity
func (m *TenantModel) ToTenantAggregateRoot() shared.TenantAggregateRoot {
	return tenantRoot(m.ID, m.TenantID, m.CreatedAt, m.UpdatedAt, m.CreatedBy, m.UpdatedBy)
}

// tenantRoot is used by models that declare tenant_id themselves because it
// takes part in a composite unique index.
func tenantRoot(id, tenantID uuid.UUID, createdAt, updatedAt time.Time, createdBy, updatedBy string) shared.TenantAggregateRoot {
	return shared.TenantAggregateRoot{
		BaseAggregateRoot: shared.BaseAggregateRoot{
			BaseEntity: shared.BaseEntity{
				ID:        id,
				CreatedAt: createdAt,
				UpdatedAt: updatedAt,
			},
		},
		TenantID:  tenantID,
		CreatedBy: createdBy,
		UpdatedBy: updatedBy,
	}
}
