package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/pluvyt/backend/internal/domain/loyalty"
)

// ClientModel is the persistence model of a loyalty client. A person is
// enrolled at most once per tenant.
type ClientModel struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey"`
	TenantID     uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_pluvyt_clients_tenant_person,priority:1,where:deleted_at IS NULL"`
	PersonID     uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_pluvyt_clients_tenant_person,priority:2,where:deleted_at IS NULL"`
	Balance      int64      `gorm:"not null;default:0;check:chk_pluvyt_clients_balance,balance >= 0"`
	LastSequence int64      `gorm:"not null;default:0"`
	CreatedAt    time.Time  `gorm:"not null"`
	UpdatedAt    time.Time  `gorm:"not null"`
	CreatedBy    string     `gorm:"type:varchar(100)"`
	UpdatedBy    string     `gorm:"type:varchar(100)"`
	DeletedAt    *time.Time `gorm:"index"`
}

// TableName returns the table name for GORM
func (ClientModel) TableName() string {
	return "pluvyt_clients"
}

// ToDomain converts the model to a domain Client
func (m *ClientModel) ToDomain() *loyalty.Client {
	return &loyalty.Client{
		TenantAggregateRoot: tenantRoot(m.ID, m.TenantID, m.CreatedAt, m.UpdatedAt, m.CreatedBy, m.UpdatedBy),
		PersonID:            m.PersonID,
		Balance:             m.Balance,
		LastSequence:        m.LastSequence,
		DeletedAt:           m.DeletedAt,
	}
}

// FromDomain populates the model from a domain Client
func (m *ClientModel) FromDomain(c *loyalty.Client) {
	m.ID = c.ID
	m.TenantID = c.TenantID
	m.CreatedAt = c.CreatedAt
	m.UpdatedAt = c.UpdatedAt
	m.CreatedBy = c.CreatedBy
	m.UpdatedBy = c.UpdatedBy
	m.PersonID = c.PersonID
	m.Balance = c.Balance
	m.LastSequence = c.LastSequence
	m.DeletedAt = c.DeletedAt
}

// ClientModelFromDomain creates a model from a domain Client
func ClientModelFromDomain(c *loyalty.Client) *ClientModel {
	m := &ClientModel{}
	m.FromDomain(c)
	return m
}

// PointTransactionModel is one row of the append-only points ledger.
// (client_id, sequence) is unique and a credit is reversed at most once.
type PointTransactionModel struct {
	ID               uuid.UUID  `gorm:"type:uuid;primaryKey"`
	TenantID         uuid.UUID  `gorm:"type:uuid;not null;index"`
	ClientID         uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_point_transactions_client_sequence,priority:1"`
	Sequence         int64      `gorm:"not null;uniqueIndex:idx_point_transactions_client_sequence,priority:2"`
	Kind             string     `gorm:"type:varchar(10);not null"`
	Points           int64      `gorm:"not null;check:chk_point_transactions_points,points > 0"`
	ResultingBalance int64      `gorm:"not null;check:chk_point_transactions_balance,resulting_balance >= 0"`
	Origin           string     `gorm:"type:varchar(20);not null"`
	RewardRef        *uuid.UUID `gorm:"type:uuid"`
	StoreRef         *uuid.UUID `gorm:"type:uuid"`
	Note             string     `gorm:"type:varchar(500)"`
	ReversalOf       *uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_point_transactions_reversal_of,where:reversal_of IS NOT NULL"`
	CreatedAt        time.Time  `gorm:"not null;index"`
	CreatedBy        string     `gorm:"type:varchar(100)"`
}

// TableName returns the table name for GORM
func (PointTransactionModel) TableName() string {
	return "point_transactions"
}

// ToDomain converts the model to a domain PointTransaction
func (m *PointTransactionModel) ToDomain() *loyalty.PointTransaction {
	tx := &loyalty.PointTransaction{
		TenantID:         m.TenantID,
		ClientID:         m.ClientID,
		Kind:             loyalty.TransactionKind(m.Kind),
		Points:           m.Points,
		ResultingBalance: m.ResultingBalance,
		Sequence:         m.Sequence,
		Origin:           loyalty.Origin(m.Origin),
		RewardRef:        m.RewardRef,
		StoreRef:         m.StoreRef,
		Note:             m.Note,
		ReversalOf:       m.ReversalOf,
		CreatedBy:        m.CreatedBy,
	}
	tx.ID = m.ID
	tx.CreatedAt = m.CreatedAt
	tx.UpdatedAt = m.CreatedAt
	return tx
}

// PointTransactionModelFromDomain creates a model from a domain PointTransaction
func PointTransactionModelFromDomain(tx *loyalty.PointTransaction) *PointTransactionModel {
	return &PointTransactionModel{
		ID:               tx.ID,
		TenantID:         tx.TenantID,
		ClientID:         tx.ClientID,
		Sequence:         tx.Sequence,
		Kind:             string(tx.Kind),
		Points:           tx.Points,
		ResultingBalance: tx.ResultingBalance,
		Origin:           string(tx.Origin),
		RewardRef:        tx.RewardRef,
		StoreRef:         tx.StoreRef,
		Note:             tx.Note,
		ReversalOf:       tx.ReversalOf,
		CreatedAt:        tx.CreatedAt,
		CreatedBy:        tx.CreatedBy,
	}
}
