package identity

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/pluvyt/backend/internal/domain/identity"
	"github.com/pluvyt/backend/internal/domain/shared"
	"github.com/pluvyt/backend/internal/infrastructure/auth"
	"go.uber.org/zap"
)

// AuthService handles authentication operations. Access tokens carry the
// effective permissions resolved at issuance.
type AuthService struct {
	userRepo   identity.UserRepository
	groupRepo  identity.AccessGroupRepository
	jwtService *auth.JWTService
	blacklist  auth.TokenBlacklist
	logger     *zap.Logger
}

// NewAuthService creates a new authentication service
func NewAuthService(
	userRepo identity.UserRepository,
	groupRepo identity.AccessGroupRepository,
	jwtService *auth.JWTService,
	blacklist auth.TokenBlacklist,
	logger *zap.Logger,
) *AuthService {
	return &AuthService{
		userRepo:   userRepo,
		groupRepo:  groupRepo,
		jwtService: jwtService,
		blacklist:  blacklist,
		logger:     logger,
	}
}

// Login authenticates by login or e-mail and returns a token pair
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	user, err := s.userRepo.FindByLoginOrEmail(ctx, input.LoginOrEmail)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			s.logger.Warn("Login for unknown account", zap.String("login", input.LoginOrEmail), zap.String("ip", input.IP))
			return nil, ErrInvalidCredentials
		}
		s.logger.Error("Failed to load user during login", zap.Error(err))
		return nil, shared.AsStorageError(err)
	}
	if !user.VerifyPassword(input.Password) {
		s.logger.Warn("Invalid password attempt",
			zap.String("login", input.LoginOrEmail),
			zap.String("ip", input.IP))
		return nil, ErrInvalidCredentials
	}
	if !user.CanLogin() {
		s.logger.Warn("Login attempt for inactive account", zap.String("user_id", user.ID.String()))
		return nil, ErrAccountInactive
	}

	permissions, err := resolvePermissions(ctx, s.groupRepo, user)
	if err != nil {
		s.logger.Error("Failed to resolve permissions", zap.String("user_id", user.ID.String()), zap.Error(err))
		return nil, shared.AsStorageError(err)
	}

	pair, err := s.jwtService.GenerateTokenPair(tokenInput(user, permissions))
	if err != nil {
		s.logger.Error("Failed to generate token pair", zap.Error(err))
		return nil, shared.NewStorageError(err)
	}

	user.RecordLogin(time.Now())
	if err := s.userRepo.UpdateLastLogin(ctx, user); err != nil {
		// The login itself succeeded
		s.logger.Error("Failed to record last login", zap.String("user_id", user.ID.String()), zap.Error(err))
	}

	s.logger.Info("User logged in",
		zap.String("tenant_id", user.TenantID.String()),
		zap.String("user_id", user.ID.String()),
		zap.Int("permissions", len(permissions)))

	return &LoginResult{
		TokenResult: toTokenResult(pair),
		User:        toUserInfo(user, permissions),
	}, nil
}

// Refresh re-resolves permissions and rotates the token pair. The presented
// refresh token is revoked so it cannot be replayed.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*TokenResult, error) {
	claims, err := s.jwtService.ValidateRefreshToken(refreshToken)
	if err != nil {
		s.logger.Warn("Refresh token validation failed", zap.Error(err))
		return nil, mapTokenError(err)
	}

	revoked, err := s.blacklist.IsBlacklisted(ctx, claims.ID)
	if err != nil {
		s.logger.Error("Failed to check token blacklist", zap.Error(err))
		return nil, shared.NewStorageError(err)
	}
	if revoked {
		s.logger.Warn("Revoked refresh token presented", zap.String("user_id", claims.UserID))
		return nil, ErrTokenRevoked
	}

	tenantID, err := claims.GetTenantUUID()
	if err != nil {
		return nil, ErrTokenInvalid
	}
	userID, err := claims.GetUserUUID()
	if err != nil {
		return nil, ErrTokenInvalid
	}
	invalidated, err := s.blacklist.IsUserTokenInvalidated(ctx, claims.UserID, claims.GetIssuedAtTime())
	if err != nil {
		return nil, shared.NewStorageError(err)
	}
	if invalidated {
		return nil, ErrTokenRevoked
	}

	user, err := s.userRepo.FindByID(ctx, tenantID, userID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, ErrTokenInvalid
		}
		return nil, shared.AsStorageError(err)
	}
	if !user.CanLogin() {
		return nil, ErrAccountInactive
	}

	permissions, err := resolvePermissions(ctx, s.groupRepo, user)
	if err != nil {
		return nil, shared.AsStorageError(err)
	}

	pair, err := s.jwtService.RefreshTokenPair(refreshToken, tokenInput(user, permissions))
	if err != nil {
		s.logger.Warn("Token refresh failed", zap.Error(err))
		return nil, mapTokenError(err)
	}

	if err := s.blacklist.AddToBlacklist(ctx, claims.ID, claims.GetRemainingTTL()); err != nil {
		s.logger.Error("Failed to revoke rotated refresh token", zap.Error(err))
	}

	s.logger.Info("Token refreshed", zap.String("user_id", userID.String()))
	result := toTokenResult(pair)
	return &result, nil
}

// Logout revokes the access token and, when supplied, the refresh token
func (s *AuthService) Logout(ctx context.Context, input LogoutInput) error {
	if input.TokenJTI != "" {
		if err := s.blacklist.AddToBlacklist(ctx, input.TokenJTI, input.TokenTTL); err != nil {
			s.logger.Error("Failed to revoke access token", zap.Error(err))
			return shared.NewStorageError(err)
		}
	}
	if input.RefreshToken != "" {
		claims, err := s.jwtService.ValidateRefreshToken(input.RefreshToken)
		if err == nil && claims.UserID == input.UserID.String() {
			if err := s.blacklist.AddToBlacklist(ctx, claims.ID, claims.GetRemainingTTL()); err != nil {
				s.logger.Error("Failed to revoke refresh token", zap.Error(err))
			}
		}
	}

	s.logger.Info("User logout",
		zap.String("user_id", input.UserID.String()),
		zap.String("tenant_id", input.TenantID.String()))
	return nil
}

// GetCurrentUser returns the profile with the caller's token snapshot
func (s *AuthService) GetCurrentUser(ctx context.Context, tenantID, userID uuid.UUID, permissions []string) (*UserInfo, error) {
	user, err := s.userRepo.FindByID(ctx, tenantID, userID)
	if err != nil {
		return nil, shared.AsStorageError(err)
	}
	if permissions == nil {
		permissions = []string{}
	}
	info := toUserInfo(user, permissions)
	return &info, nil
}

// ConfirmEmail verifies the caller's e-mail address. Confirming an already
// verified address is a no-op.
func (s *AuthService) ConfirmEmail(ctx context.Context, tenantID, userID uuid.UUID, token string, permissions []string) (*UserInfo, error) {
	user, err := s.userRepo.FindByID(ctx, tenantID, userID)
	if err != nil {
		return nil, shared.AsStorageError(err)
	}
	if permissions == nil {
		permissions = []string{}
	}
	if user.IsEmailVerified() {
		info := toUserInfo(user, permissions)
		return &info, nil
	}

	if err := user.ConfirmEmail(token, time.Now()); err != nil {
		s.logger.Warn("Rejected e-mail confirmation", zap.String("user_id", userID.String()))
		return nil, err
	}
	if err := s.userRepo.UpdateVerification(ctx, user); err != nil {
		s.logger.Error("Failed to store e-mail verification", zap.Error(err))
		return nil, shared.AsStorageError(err)
	}

	s.logger.Info("E-mail confirmed",
		zap.String("user_id", userID.String()),
		zap.String("tenant_id", tenantID.String()))
	info := toUserInfo(user, permissions)
	return &info, nil
}

// CheckPermission answers from the token snapshot, not live state
func (s *AuthService) CheckPermission(permissions []string, feature string) CheckPermissionResponse {
	return CheckPermissionResponse{
		Permission:    feature,
		HasPermission: identity.HasPermission(permissions, feature),
	}
}

func tokenInput(user *identity.User, permissions []string) auth.GenerateTokenInput {
	return auth.GenerateTokenInput{
		TenantID:    user.TenantID,
		UserID:      user.ID,
		Username:    user.Login,
		GroupIDs:    user.GroupIDs,
		Permissions: permissions,
	}
}

func toTokenResult(pair *auth.TokenPair) TokenResult {
	return TokenResult{
		AccessToken:           pair.AccessToken,
		RefreshToken:          pair.RefreshToken,
		AccessTokenExpiresAt:  pair.AccessTokenExpiresAt,
		RefreshTokenExpiresAt: pair.RefreshTokenExpiresAt,
		TokenType:             pair.TokenType,
	}
}

func mapTokenError(err error) error {
	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		return ErrTokenExpired
	case errors.Is(err, auth.ErrMaxRefreshExceeded):
		return ErrTokenMaxRefresh
	case errors.Is(err, auth.ErrTokenBlacklisted):
		return ErrTokenRevoked
	default:
		return ErrTokenInvalid
	}
}

// resolvePermissions loads the user's groups and applies the allow/deny overrides
func resolvePermissions(ctx context.Context, groupRepo identity.AccessGroupRepository, user *identity.User) ([]string, error) {
	var groups []*identity.AccessGroup
	if len(user.GroupIDs) > 0 {
		found, err := groupRepo.FindByIDs(ctx, user.TenantID, user.GroupIDs)
		if err != nil {
			return nil, err
		}
		groups = found
	}
	return identity.ResolveEffectivePermissions(groups, user), nil
}
