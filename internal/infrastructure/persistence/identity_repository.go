package persistence

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pluvyt/backend/internal/domain/identity"
	"github.com/pluvyt/backend/internal/domain/shared"
	"github.com/pluvyt/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

var (
	errUserNotFound  = shared.ErrNotFound.WithMessage("User not found")
	errGroupNotFound = shared.ErrNotFound.WithMessage("Access group not found")
	errDuplicateUser = shared.ErrDuplicateKey.WithMessage("Login or e-mail already registered")
)

// GormUserRepository implements identity.UserRepository using GORM.
// Group memberships live in access_group_memberships.
type GormUserRepository struct {
	db *gorm.DB
}

// NewGormUserRepository creates a new GormUserRepository
func NewGormUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

// Create inserts a user and its memberships
func (r *GormUserRepository) Create(ctx context.Context, user *identity.User) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(models.UserModelFromDomain(user)).Error; err != nil {
			return translate(err, nil, errDuplicateUser)
		}
		return insertMemberships(tx, user)
	})
}

// FindByID finds a user within a tenant
func (r *GormUserRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*identity.User, error) {
	return r.first(ctx, "tenant_id = ? AND id = ?", tenantID, id)
}

// FindByLoginOrEmail finds a user by login or e-mail, case insensitively
func (r *GormUserRepository) FindByLoginOrEmail(ctx context.Context, loginOrEmail string) (*identity.User, error) {
	value := strings.ToLower(strings.TrimSpace(loginOrEmail))
	if value == "" {
		return nil, errUserNotFound
	}
	return r.first(ctx, "login = ? OR email = ?", value, value)
}

// FindByPersonID finds the account linked to a person
func (r *GormUserRepository) FindByPersonID(ctx context.Context, tenantID, personID uuid.UUID) (*identity.User, error) {
	return r.first(ctx, "tenant_id = ? AND person_id = ?", tenantID, personID)
}

// FindByVerificationToken finds the user holding a pending e-mail token
func (r *GormUserRepository) FindByVerificationToken(ctx context.Context, token string) (*identity.User, error) {
	if token == "" {
		return nil, errUserNotFound
	}
	return r.first(ctx, "email_verification_token = ? AND email_verified_at IS NULL", token)
}

func (r *GormUserRepository) first(ctx context.Context, query string, args ...any) (*identity.User, error) {
	db := r.db.WithContext(ctx)
	var model models.UserModel
	if err := db.Where(query, args...).First(&model).Error; err != nil {
		return nil, translate(err, errUserNotFound, nil)
	}
	var groupIDs []uuid.UUID
	if err := db.Model(&models.AccessGroupMembershipModel{}).
		Where("user_id = ?", model.ID).
		Order("created_at ASC, group_id ASC").
		Pluck("group_id", &groupIDs).Error; err != nil {
		return nil, err
	}
	return model.ToDomain(groupIDs), nil
}

// SaveAccess replaces memberships and feature overrides in one transaction
func (r *GormUserRepository) SaveAccess(ctx context.Context, user *identity.User) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		model := models.UserModelFromDomain(user)
		result := tx.Model(&models.UserModel{}).
			Where("tenant_id = ? AND id = ?", user.TenantID, user.ID).
			Updates(map[string]any{
				"allow_features":  featuresJSON(model.AllowFeatures),
				"denied_features": featuresJSON(model.DeniedFeatures),
				"updated_at":      user.UpdatedAt,
				"updated_by":      user.UpdatedBy,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return errUserNotFound
		}
		if err := tx.Where("user_id = ?", user.ID).
			Delete(&models.AccessGroupMembershipModel{}).Error; err != nil {
			return err
		}
		return insertMemberships(tx, user)
	})
}

// UpdateLastLogin stamps last_login_at
func (r *GormUserRepository) UpdateLastLogin(ctx context.Context, user *identity.User) error {
	return r.db.WithContext(ctx).Model(&models.UserModel{}).
		Where("tenant_id = ? AND id = ?", user.TenantID, user.ID).
		Update("last_login_at", user.LastLoginAt).Error
}

// UpdateVerification writes the verification token, its expiry and verified_at
func (r *GormUserRepository) UpdateVerification(ctx context.Context, user *identity.User) error {
	return r.updateColumns(ctx, user, map[string]any{
		"email_verification_token":      user.EmailVerificationToken,
		"email_verification_expires_at": user.EmailVerificationExpiresAt,
		"email_verified_at":             user.EmailVerifiedAt,
		"updated_at":                    user.UpdatedAt,
	})
}

// UpdatePerson writes person_id
func (r *GormUserRepository) UpdatePerson(ctx context.Context, user *identity.User) error {
	return r.updateColumns(ctx, user, map[string]any{
		"person_id":  user.PersonID,
		"updated_at": user.UpdatedAt,
	})
}

func (r *GormUserRepository) updateColumns(ctx context.Context, user *identity.User, columns map[string]any) error {
	result := r.db.WithContext(ctx).Model(&models.UserModel{}).
		Where("tenant_id = ? AND id = ?", user.TenantID, user.ID).
		Updates(columns)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errUserNotFound
	}
	return nil
}

func insertMemberships(tx *gorm.DB, user *identity.User) error {
	if len(user.GroupIDs) == 0 {
		return nil
	}
	now := time.Now().UTC()
	rows := make([]models.AccessGroupMembershipModel, len(user.GroupIDs))
	for i, groupID := range user.GroupIDs {
		rows[i] = models.AccessGroupMembershipModel{
			UserID:    user.ID,
			GroupID:   groupID,
			TenantID:  user.TenantID,
			CreatedAt: now.Add(time.Duration(i) * time.Microsecond),
		}
	}
	return tx.Create(&rows).Error
}

// GormAccessGroupRepository implements identity.AccessGroupRepository using GORM
type GormAccessGroupRepository struct {
	db *gorm.DB
}

// NewGormAccessGroupRepository creates a new GormAccessGroupRepository
func NewGormAccessGroupRepository(db *gorm.DB) *GormAccessGroupRepository {
	return &GormAccessGroupRepository{db: db}
}

// Create inserts a group
func (r *GormAccessGroupRepository) Create(ctx context.Context, group *identity.AccessGroup) error {
	err := r.db.WithContext(ctx).Create(models.AccessGroupModelFromDomain(group)).Error
	return translate(err, nil, identity.ErrDuplicateGroupCode)
}

// Update writes the editable columns of a group
func (r *GormAccessGroupRepository) Update(ctx context.Context, group *identity.AccessGroup) error {
	model := models.AccessGroupModelFromDomain(group)
	result := r.db.WithContext(ctx).Model(&models.AccessGroupModel{}).
		Where("tenant_id = ? AND id = ?", group.TenantID, group.ID).
		Updates(map[string]any{
			"code":        model.Code,
			"name":        model.Name,
			"description": model.Description,
			"features":    featuresJSON(model.Features),
			"permissions": model.Permissions,
			"updated_at":  model.UpdatedAt,
			"updated_by":  model.UpdatedBy,
		})
	if result.Error != nil {
		return translate(result.Error, nil, identity.ErrDuplicateGroupCode)
	}
	if result.RowsAffected == 0 {
		return errGroupNotFound
	}
	return nil
}

// Delete removes a group and its memberships
func (r *GormAccessGroupRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("tenant_id = ? AND group_id = ?", tenantID, id).
			Delete(&models.AccessGroupMembershipModel{}).Error; err != nil {
			return err
		}
		result := tx.Where("tenant_id = ? AND id = ?", tenantID, id).Delete(&models.AccessGroupModel{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return errGroupNotFound
		}
		return nil
	})
}

// FindByID finds a group within a tenant
func (r *GormAccessGroupRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*identity.AccessGroup, error) {
	var model models.AccessGroupModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		return nil, translate(err, errGroupNotFound, nil)
	}
	return model.ToDomain(), nil
}

// FindByIDs returns the groups of the tenant among ids; unknown IDs are skipped
func (r *GormAccessGroupRepository) FindByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]*identity.AccessGroup, error) {
	if len(ids) == 0 {
		return []*identity.AccessGroup{}, nil
	}
	var rows []models.AccessGroupModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id IN ?", tenantID, ids).
		Order("code ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toGroups(rows), nil
}

// List returns the groups of a tenant ordered by code
func (r *GormAccessGroupRepository) List(ctx context.Context, tenantID uuid.UUID) ([]*identity.AccessGroup, error) {
	var rows []models.AccessGroupModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("code ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toGroups(rows), nil
}

// featuresJSON encodes a feature list for column maps, which bypass the
// json serializer declared on the models
func featuresJSON(features []string) string {
	data, _ := json.Marshal(features)
	return string(data)
}

func toGroups(rows []models.AccessGroupModel) []*identity.AccessGroup {
	out := make([]*identity.AccessGroup, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out
}

var (
	_ identity.UserRepository        = (*GormUserRepository)(nil)
	_ identity.AccessGroupRepository = (*GormAccessGroupRepository)(nil)
)
