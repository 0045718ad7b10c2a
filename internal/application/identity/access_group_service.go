package identity

import (
	"context"

	"github.com/google/uuid"
	"github.com/pluvyt/backend/internal/domain/identity"
	"github.com/pluvyt/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// AccessGroupService manages the tenant's access groups
type AccessGroupService struct {
	groupRepo identity.AccessGroupRepository
	logger    *zap.Logger
}

// NewAccessGroupService creates a new AccessGroupService
func NewAccessGroupService(groupRepo identity.AccessGroupRepository, logger *zap.Logger) *AccessGroupService {
	return &AccessGroupService{groupRepo: groupRepo, logger: logger}
}

// Create registers a group. The code is unique per tenant.
func (s *AccessGroupService) Create(ctx context.Context, tenantID uuid.UUID, actor string, req CreateAccessGroupRequest) (*AccessGroupResponse, error) {
	group, err := identity.NewAccessGroup(tenantID, req.Code, req.Name, actor)
	if err != nil {
		return nil, err
	}
	if err := group.Rename(req.Name, req.Description, actor); err != nil {
		return nil, err
	}
	group.SetFeatures(req.Features, actor)
	if err := group.SetPermissions(req.Permissions, actor); err != nil {
		return nil, err
	}

	if err := s.groupRepo.Create(ctx, group); err != nil {
		return nil, shared.AsStorageError(err)
	}
	s.logger.Info("Access group created",
		zap.String("tenant_id", tenantID.String()),
		zap.String("group_id", group.ID.String()),
		zap.String("code", group.Code))
	resp := ToAccessGroupResponse(group)
	return &resp, nil
}

// Update edits name, description, features and the permissions document
func (s *AccessGroupService) Update(ctx context.Context, tenantID, id uuid.UUID, actor string, req UpdateAccessGroupRequest) (*AccessGroupResponse, error) {
	group, err := s.groupRepo.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, shared.AsStorageError(err)
	}

	name, description := group.Name, group.Description
	if req.Name != nil {
		name = *req.Name
	}
	if req.Description != nil {
		description = *req.Description
	}
	if err := group.Rename(name, description, actor); err != nil {
		return nil, err
	}
	if req.Features != nil {
		group.SetFeatures(req.Features, actor)
	}
	if req.Permissions != nil {
		if err := group.SetPermissions(req.Permissions, actor); err != nil {
			return nil, err
		}
	}

	if err := s.groupRepo.Update(ctx, group); err != nil {
		return nil, shared.AsStorageError(err)
	}
	s.logger.Info("Access group updated",
		zap.String("tenant_id", tenantID.String()),
		zap.String("group_id", id.String()),
		zap.Strings("features", group.Features))
	resp := ToAccessGroupResponse(group)
	return &resp, nil
}

// Delete removes a group together with its memberships
func (s *AccessGroupService) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	if err := s.groupRepo.Delete(ctx, tenantID, id); err != nil {
		return shared.AsStorageError(err)
	}
	s.logger.Info("Access group deleted",
		zap.String("tenant_id", tenantID.String()),
		zap.String("group_id", id.String()))
	return nil
}

// Get returns a group by ID
func (s *AccessGroupService) Get(ctx context.Context, tenantID, id uuid.UUID) (*AccessGroupResponse, error) {
	group, err := s.groupRepo.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, shared.AsStorageError(err)
	}
	resp := ToAccessGroupResponse(group)
	return &resp, nil
}

// List returns the tenant's groups ordered by code
func (s *AccessGroupService) List(ctx context.Context, tenantID uuid.UUID) ([]AccessGroupResponse, error) {
	groups, err := s.groupRepo.List(ctx, tenantID)
	if err != nil {
		return nil, shared.AsStorageError(err)
	}
	out := make([]AccessGroupResponse, len(groups))
	for i, g := range groups {
		out[i] = ToAccessGroupResponse(g)
	}
	return out, nil
}
