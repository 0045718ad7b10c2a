package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/pluvyt/backend/internal/domain/identity"
)

// UserModel is the persistence model of a user account. Login and e-mail
// are unique across tenants because authentication happens before the
// tenant is known.
type UserModel struct {
	TenantModel
	FullName                   string     `gorm:"type:varchar(200)"`
	Login                      string     `gorm:"type:varchar(100);not null;uniqueIndex"`
	Email                      string     `gorm:"type:varchar(200);not null;uniqueIndex"`
	PasswordHash               string     `gorm:"type:varchar(255);not null"`
	PersonID                   *uuid.UUID `gorm:"type:uuid;index"`
	Active                     bool       `gorm:"not null;default:true"`
	EmailVerifiedAt            *time.Time
	EmailVerificationToken     string `gorm:"type:varchar(255);index"`
	EmailVerificationExpiresAt *time.Time
	LastLoginAt                *time.Time
	AllowFeatures              []string `gorm:"type:jsonb;serializer:json;not null;default:'[]'"`
	DeniedFeatures             []string `gorm:"type:jsonb;serializer:json;not null;default:'[]'"`
}

// TableName returns the table name for GORM
func (UserModel) TableName() string {
	return "users"
}

// ToDomain converts the model to a domain User. Group IDs are attached by
// the repository from access_group_memberships.
func (m *UserModel) ToDomain(groupIDs []uuid.UUID) *identity.User {
	if groupIDs == nil {
		groupIDs = make([]uuid.UUID, 0)
	}
	return &identity.User{
		TenantAggregateRoot:        m.ToTenantAggregateRoot(),
		FullName:                   m.FullName,
		Login:                      m.Login,
		Email:                      m.Email,
		PasswordHash:               m.PasswordHash,
		PersonID:                   m.PersonID,
		Active:                     m.Active,
		EmailVerifiedAt:            m.EmailVerifiedAt,
		EmailVerificationToken:     m.EmailVerificationToken,
		EmailVerificationExpiresAt: m.EmailVerificationExpiresAt,
		LastLoginAt:                m.LastLoginAt,
		GroupIDs:                   groupIDs,
		AllowFeatures:              nonNil(m.AllowFeatures),
		DeniedFeatures:             nonNil(m.DeniedFeatures),
	}
}

// UserModelFromDomain creates a model from a domain User
func UserModelFromDomain(u *identity.User) *UserModel {
	m := &UserModel{
		FullName:                   u.FullName,
		Login:                      u.Login,
		Email:                      u.Email,
		PasswordHash:               u.PasswordHash,
		PersonID:                   u.PersonID,
		Active:                     u.Active,
		EmailVerifiedAt:            u.EmailVerifiedAt,
		EmailVerificationToken:     u.EmailVerificationToken,
		EmailVerificationExpiresAt: u.EmailVerificationExpiresAt,
		LastLoginAt:                u.LastLoginAt,
		AllowFeatures:              nonNil(u.AllowFeatures),
		DeniedFeatures:             nonNil(u.DeniedFeatures),
	}
	m.FromDomainTenantAggregateRoot(u.TenantAggregateRoot)
	return m
}

// AccessGroupModel is the persistence model of an access group. Code is
// unique per tenant.
type AccessGroupModel struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	TenantID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_access_groups_tenant_code,priority:1"`
	Code        string    `gorm:"type:varchar(50);not null;uniqueIndex:idx_access_groups_tenant_code,priority:2"`
	Name        string    `gorm:"type:varchar(100);not null"`
	Description string    `gorm:"type:text"`
	Features    []string  `gorm:"type:jsonb;serializer:json;not null;default:'[]'"`
	Permissions string    `gorm:"type:jsonb;not null;default:'{}'"`
	CreatedAt   time.Time `gorm:"not null"`
	UpdatedAt   time.Time `gorm:"not null"`
	CreatedBy   string    `gorm:"type:varchar(100)"`
	UpdatedBy   string    `gorm:"type:varchar(100)"`
}

// TableName returns the table name for GORM
func (AccessGroupModel) TableName() string {
	return "access_groups"
}

// ToDomain converts the model to a domain AccessGroup
func (m *AccessGroupModel) ToDomain() *identity.AccessGroup {
	permissions := m.Permissions
	if permissions == "" {
		permissions = "{}"
	}
	return &identity.AccessGroup{
		TenantAggregateRoot: tenantRoot(m.ID, m.TenantID, m.CreatedAt, m.UpdatedAt, m.CreatedBy, m.UpdatedBy),
		Code:                m.Code,
		Name:                m.Name,
		Description:         m.Description,
		Features:            nonNil(m.Features),
		Permissions:         json.RawMessage(permissions),
	}
}

// AccessGroupModelFromDomain creates a model from a domain AccessGroup
func AccessGroupModelFromDomain(g *identity.AccessGroup) *AccessGroupModel {
	permissions := string(g.Permissions)
	if permissions == "" {
		permissions = "{}"
	}
	return &AccessGroupModel{
		ID:          g.ID,
		TenantID:    g.TenantID,
		Code:        g.Code,
		Name:        g.Name,
		Description: g.Description,
		Features:    nonNil(g.Features),
		Permissions: permissions,
		CreatedAt:   g.CreatedAt,
		UpdatedAt:   g.UpdatedAt,
		CreatedBy:   g.CreatedBy,
		UpdatedBy:   g.UpdatedBy,
	}
}

// AccessGroupMembershipModel links a user to an access group
type AccessGroupMembershipModel struct {
	UserID    uuid.UUID `gorm:"type:uuid;primaryKey"`
	GroupID   uuid.UUID `gorm:"type:uuid;primaryKey;index"`
	TenantID  uuid.UUID `gorm:"type:uuid;not null;index"`
	CreatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (AccessGroupMembershipModel) TableName() string {
	return "access_group_memberships"
}

func nonNil(s []string) []string {
	if s == nil {
		return make([]string, 0)
	}
	return s
}
