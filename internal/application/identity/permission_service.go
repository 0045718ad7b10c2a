package identity

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pluvyt/backend/internal/domain/identity"
	"github.com/pluvyt/backend/internal/domain/shared"
	"github.com/pluvyt/backend/internal/infrastructure/auth"
	"go.uber.org/zap"
)

// PermissionService resolves live permissions and edits user access
type PermissionService struct {
	userRepo  identity.UserRepository
	groupRepo identity.AccessGroupRepository
	blacklist auth.TokenBlacklist
	tokenTTL  time.Duration
	logger    *zap.Logger
}

// NewPermissionService creates a new PermissionService. tokenTTL bounds how
// long an access change keeps older tokens revoked.
func NewPermissionService(
	userRepo identity.UserRepository,
	groupRepo identity.AccessGroupRepository,
	blacklist auth.TokenBlacklist,
	tokenTTL time.Duration,
	logger *zap.Logger,
) *PermissionService {
	return &PermissionService{
		userRepo:  userRepo,
		groupRepo: groupRepo,
		blacklist: blacklist,
		tokenTTL:  tokenTTL,
		logger:    logger,
	}
}

// EffectivePermissions computes (union of group features ∪ allow) \ deny
func (s *PermissionService) EffectivePermissions(ctx context.Context, tenantID, userID uuid.UUID) (*EffectivePermissionsResponse, error) {
	user, err := s.userRepo.FindByID(ctx, tenantID, userID)
	if err != nil {
		return nil, shared.AsStorageError(err)
	}
	permissions, err := resolvePermissions(ctx, s.groupRepo, user)
	if err != nil {
		s.logger.Error("Failed to resolve permissions", zap.String("user_id", userID.String()), zap.Error(err))
		return nil, shared.AsStorageError(err)
	}
	return toEffective(user, permissions), nil
}

// SetUserAccess replaces memberships and overrides. Tokens issued before the
// change are revoked, so the next login carries the new snapshot.
func (s *PermissionService) SetUserAccess(ctx context.Context, tenantID, userID uuid.UUID, actor string, req SetUserAccessRequest) (*EffectivePermissionsResponse, error) {
	user, err := s.userRepo.FindByID(ctx, tenantID, userID)
	if err != nil {
		return nil, shared.AsStorageError(err)
	}

	user.SetAccess(req.GroupIDs, req.AllowFeatures, req.DeniedFeatures, actor)
	groups := make([]*identity.AccessGroup, 0)
	if len(user.GroupIDs) > 0 {
		groups, err = s.groupRepo.FindByIDs(ctx, tenantID, user.GroupIDs)
		if err != nil {
			return nil, shared.AsStorageError(err)
		}
		if len(groups) != len(user.GroupIDs) {
			return nil, shared.ErrNotFound.WithMessage("Access group not found")
		}
	}

	if err := s.userRepo.SaveAccess(ctx, user); err != nil {
		s.logger.Error("Failed to save user access", zap.String("user_id", userID.String()), zap.Error(err))
		return nil, shared.AsStorageError(err)
	}

	if s.blacklist != nil {
		if err := s.blacklist.AddUserTokensToBlacklist(ctx, userID.String(), s.tokenTTL); err != nil {
			s.logger.Warn("Failed to revoke tokens after access change", zap.String("user_id", userID.String()), zap.Error(err))
		}
	}

	permissions := identity.ResolveEffectivePermissions(groups, user)
	s.logger.Info("User access updated",
		zap.String("tenant_id", tenantID.String()),
		zap.String("user_id", userID.String()),
		zap.Strings("permissions", permissions),
		zap.String("actor", actor))
	return toEffective(user, permissions), nil
}

func toEffective(user *identity.User, permissions []string) *EffectivePermissionsResponse {
	resp := &EffectivePermissionsResponse{
		UserID:         user.ID,
		GroupIDs:       user.GroupIDs,
		AllowFeatures:  user.AllowFeatures,
		DeniedFeatures: user.DeniedFeatures,
		Permissions:    permissions,
	}
	if resp.GroupIDs == nil {
		resp.GroupIDs = []uuid.UUID{}
	}
	if resp.AllowFeatures == nil {
		resp.AllowFeatures = []string{}
	}
	if resp.DeniedFeatures == nil {
		resp.DeniedFeatures = []string{}
	}
	return resp
}
