package identity

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/pluvyt/backend/internal/domain/identity"
	"github.com/pluvyt/backend/internal/domain/loyalty"
	"github.com/pluvyt/backend/internal/domain/shared"
)

// Authentication errors
var (
	ErrInvalidCredentials = shared.NewDomainError("INVALID_CREDENTIALS", "Invalid login or password")
	ErrAccountInactive    = shared.NewDomainError("ACCOUNT_INACTIVE", "Account is not active")
	ErrTokenExpired       = shared.NewDomainError("TOKEN_EXPIRED", "Token has expired")
	ErrTokenInvalid       = shared.NewDomainError("TOKEN_INVALID", "Invalid token")
	ErrTokenRevoked       = shared.NewDomainError("TOKEN_REVOKED", "Token has been revoked")
	ErrTokenMaxRefresh    = shared.NewDomainError("TOKEN_MAX_REFRESH", "Maximum token refresh count exceeded. Please log in again")
)

// ==================== Auth DTOs ====================

// LoginInput contains the input for user login
type LoginInput struct {
	LoginOrEmail string
	Password     string
	IP           string
}

// LoginRequest is the HTTP body of a login
type LoginRequest struct {
	LoginOrEmail string `json:"loginOrEmail" binding:"required,max=200"`
	Password     string `json:"password" binding:"required,max=72"`
}

// RefreshRequest is the HTTP body of a token refresh
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

// LogoutRequest optionally names the refresh token to revoke with the session
type LogoutRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// ConfirmEmailRequest carries the token mailed to the account owner
type ConfirmEmailRequest struct {
	Token string `json:"token" binding:"required,max=255"`
}

// RegisterRequest is the public self-registration body. Login defaults to
// the e-mail address.
type RegisterRequest struct {
	FullName string `json:"fullName" binding:"required,min=1,max=200"`
	Email    string `json:"email" binding:"required,email,max=200"`
	Password string `json:"password" binding:"required,min=8,max=72"`
	Login    string `json:"login" binding:"omitempty,min=3,max=100"`
}

// RegisterResult identifies the account and loyalty client of a new member
type RegisterResult struct {
	UserID              uuid.UUID `json:"user_id"`
	TenantID            uuid.UUID `json:"tenant_id"`
	PersonID            uuid.UUID `json:"person_id"`
	ClientID            uuid.UUID `json:"client_id"`
	Email               string    `json:"email"`
	FullName            string    `json:"full_name,omitempty"`
	PendingVerification bool      `json:"pendingVerification"`
}

func toRegisterResult(u *identity.User, c *loyalty.Client) *RegisterResult {
	return &RegisterResult{
		UserID:              u.ID,
		TenantID:            u.TenantID,
		PersonID:            c.PersonID,
		ClientID:            c.ID,
		Email:               u.Email,
		FullName:            u.FullName,
		PendingVerification: u.IsPendingVerification(),
	}
}

// ResendVerificationRequest names the address waiting for confirmation
type ResendVerificationRequest struct {
	Email string `json:"email" binding:"required,email,max=200"`
}

// VerifiedEmailResult identifies the account whose address was confirmed
type VerifiedEmailResult struct {
	UserID uuid.UUID `json:"user_id"`
	Email  string    `json:"email"`
}

// VerificationRequestedPayload is published for the mail worker
type VerificationRequestedPayload struct {
	UserID    uuid.UUID `json:"userId"`
	Email     string    `json:"email"`
	FullName  string    `json:"fullName,omitempty"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// CheckPermissionRequest asks whether the caller holds a feature
type CheckPermissionRequest struct {
	Permission string `json:"permission" binding:"required,max=100"`
}

// CheckPermissionResponse answers a permission check
type CheckPermissionResponse struct {
	Permission    string `json:"permission"`
	HasPermission bool   `json:"hasPermission"`
}

// TokenResult is a freshly issued token pair
type TokenResult struct {
	AccessToken           string    `json:"access_token"`
	RefreshToken          string    `json:"refresh_token"`
	AccessTokenExpiresAt  time.Time `json:"access_token_expires_at"`
	RefreshTokenExpiresAt time.Time `json:"refresh_token_expires_at"`
	TokenType             string    `json:"token_type"`
}

// LoginResult contains the result of a successful login
type LoginResult struct {
	TokenResult
	User UserInfo `json:"user"`
}

// UserInfo summarizes the authenticated user
type UserInfo struct {
	ID            uuid.UUID   `json:"id"`
	TenantID      uuid.UUID   `json:"tenant_id"`
	Login         string      `json:"login"`
	Email         string      `json:"email"`
	FullName      string      `json:"full_name,omitempty"`
	PersonID      *uuid.UUID  `json:"person_id,omitempty"`
	EmailVerified bool        `json:"emailVerified"`
	GroupIDs      []uuid.UUID `json:"group_ids"`
	Permissions   []string    `json:"permissions"`
}

func toUserInfo(u *identity.User, permissions []string) UserInfo {
	groupIDs := u.GroupIDs
	if groupIDs == nil {
		groupIDs = []uuid.UUID{}
	}
	return UserInfo{
		ID:            u.ID,
		TenantID:      u.TenantID,
		Login:         u.Login,
		Email:         u.Email,
		FullName:      u.FullName,
		PersonID:      u.PersonID,
		EmailVerified: !u.IsPendingVerification(),
		GroupIDs:      groupIDs,
		Permissions:   permissions,
	}
}

// LogoutInput identifies the session being closed
type LogoutInput struct {
	UserID       uuid.UUID
	TenantID     uuid.UUID
	TokenJTI     string
	TokenTTL     time.Duration
	RefreshToken string
}

// ==================== Access DTOs ====================

// SetUserAccessRequest replaces a user's memberships and overrides
type SetUserAccessRequest struct {
	GroupIDs       []uuid.UUID `json:"groupIds"`
	AllowFeatures  []string    `json:"allowFeatures" binding:"dive,max=100"`
	DeniedFeatures []string    `json:"deniedFeatures" binding:"dive,max=100"`
}

// EffectivePermissionsResponse lists a user's resolved features and their sources
type EffectivePermissionsResponse struct {
	UserID         uuid.UUID   `json:"user_id"`
	GroupIDs       []uuid.UUID `json:"group_ids"`
	AllowFeatures  []string    `json:"allow_features"`
	DeniedFeatures []string    `json:"denied_features"`
	Permissions    []string    `json:"permissions"`
}

// ==================== Access group DTOs ====================

// CreateAccessGroupRequest represents a request to create an access group
type CreateAccessGroupRequest struct {
	Code        string          `json:"code" binding:"required,min=1,max=50"`
	Name        string          `json:"name" binding:"required,min=1,max=100"`
	Description string          `json:"description" binding:"max=500"`
	Features    []string        `json:"features" binding:"dive,max=100"`
	Permissions json.RawMessage `json:"permissions"`
}

// UpdateAccessGroupRequest represents a partial access group update
type UpdateAccessGroupRequest struct {
	Name        *string         `json:"name" binding:"omitempty,min=1,max=100"`
	Description *string         `json:"description" binding:"omitempty,max=500"`
	Features    []string        `json:"features" binding:"omitempty,dive,max=100"`
	Permissions json.RawMessage `json:"permissions"`
}

// AccessGroupResponse represents an access group in API responses
type AccessGroupResponse struct {
	ID          uuid.UUID       `json:"id"`
	TenantID    uuid.UUID       `json:"tenant_id"`
	Code        string          `json:"code"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Features    []string        `json:"features"`
	Permissions json.RawMessage `json:"permissions"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// ToAccessGroupResponse converts a domain access group to its response
func ToAccessGroupResponse(g *identity.AccessGroup) AccessGroupResponse {
	features := g.Features
	if features == nil {
		features = []string{}
	}
	return AccessGroupResponse{
		ID:          g.ID,
		TenantID:    g.TenantID,
		Code:        g.Code,
		Name:        g.Name,
		Description: g.Description,
		Features:    features,
		Permissions: g.Permissions,
		CreatedAt:   g.CreatedAt,
		UpdatedAt:   g.UpdatedAt,
	}
}
