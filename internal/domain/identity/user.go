package identity

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pluvyt/backend/internal/domain/shared"
	"golang.org/x/crypto/bcrypt"
)

// Password cost for bcrypt
const bcryptCost = 12

// Verification errors
var (
	ErrInvalidVerificationToken = shared.ErrInvalidInput.WithMessage("Invalid verification token")
	ErrVerificationExpired      = shared.ErrInvalidInput.WithMessage("Verification token has expired")
	ErrAlreadyVerified          = shared.ErrInvalidInput.WithMessage("E-mail is already verified")
	ErrResendTooSoon            = shared.NewDomainError("RATE_LIMITED", "Wait a moment before requesting another e-mail")
)

var (
	loginPattern = regexp.MustCompile(`^[a-zA-Z0-9_\-.@]+$`)
	emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
)

// User is a staff or customer account of a tenant.
// GroupIDs, AllowFeatures and DeniedFeatures live in join tables and are
// loaded by the repository. A nil EmailVerificationExpiresAt never expires.
type User struct {
	shared.TenantAggregateRoot
	FullName                   string
	Login                      string
	Email                      string
	PasswordHash               string
	PersonID                   *uuid.UUID
	Active                     bool
	EmailVerifiedAt            *time.Time
	EmailVerificationToken     string
	EmailVerificationExpiresAt *time.Time
	LastLoginAt                *time.Time
	GroupIDs                   []uuid.UUID
	AllowFeatures              []string
	DeniedFeatures             []string
}

// NewUser creates an active user with a hashed password
func NewUser(tenantID uuid.UUID, login, email, password, actor string) (*User, error) {
	if tenantID == uuid.Nil {
		return nil, shared.ErrInvalidInput.WithMessage("Tenant ID cannot be empty")
	}
	login = strings.ToLower(strings.TrimSpace(login))
	if err := validateLogin(login); err != nil {
		return nil, err
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	return &User{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID, actor),
		Login:               login,
		Email:               email,
		PasswordHash:        hash,
		Active:              true,
		GroupIDs:            make([]uuid.UUID, 0),
		AllowFeatures:       make([]string, 0),
		DeniedFeatures:      make([]string, 0),
	}, nil
}

// VerifyPassword checks a plain password against the stored hash
func (u *User) VerifyPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

// IsPendingVerification reports whether a verification token was issued
// and never confirmed.
func (u *User) IsPendingVerification() bool {
	return u.EmailVerificationToken != "" && u.EmailVerifiedAt == nil
}

// IsEmailVerified reports whether the e-mail address was confirmed
func (u *User) IsEmailVerified() bool {
	return u.EmailVerifiedAt != nil
}

// RequestVerification stores a fresh verification token valid until expiresAt
func (u *User) RequestVerification(token string, expiresAt time.Time) {
	u.EmailVerificationToken = token
	u.EmailVerificationExpiresAt = &expiresAt
	u.EmailVerifiedAt = nil
	u.Touch()
}

// ConfirmEmail marks the address as verified when the token matches and
// has not expired
func (u *User) ConfirmEmail(token string, now time.Time) error {
	if u.EmailVerificationToken == "" || u.EmailVerificationToken != token {
		return ErrInvalidVerificationToken
	}
	if u.EmailVerificationExpiresAt != nil && !now.Before(*u.EmailVerificationExpiresAt) {
		return ErrVerificationExpired
	}
	u.EmailVerifiedAt = &now
	u.EmailVerificationToken = ""
	u.EmailVerificationExpiresAt = nil
	u.Touch()
	return nil
}

// CanResendVerification reports whether at least cooldown has passed since
// the current token was issued with the given ttl
func (u *User) CanResendVerification(now time.Time, ttl, cooldown time.Duration) bool {
	if u.EmailVerificationExpiresAt == nil {
		return true
	}
	issuedAt := u.EmailVerificationExpiresAt.Add(-ttl)
	return !now.Before(issuedAt.Add(cooldown))
}

// LinkPerson attaches the user to a person record
func (u *User) LinkPerson(personID uuid.UUID) {
	u.PersonID = &personID
	u.Touch()
}

// SetAccess replaces the user's memberships and feature overrides
func (u *User) SetAccess(groupIDs []uuid.UUID, allow, deny []string, actor string) {
	seen := make(map[uuid.UUID]struct{}, len(groupIDs))
	ids := make([]uuid.UUID, 0, len(groupIDs))
	for _, id := range groupIDs {
		if _, ok := seen[id]; ok || id == uuid.Nil {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	u.GroupIDs = ids
	u.AllowFeatures = NormalizeFeatures(allow)
	u.DeniedFeatures = NormalizeFeatures(deny)
	u.MarkUpdated(actor)
}

// RecordLogin stamps the last successful login
func (u *User) RecordLogin(now time.Time) {
	u.LastLoginAt = &now
}

// CanLogin reports whether the account is allowed to authenticate
func (u *User) CanLogin() bool {
	return u.Active
}

// HashPassword hashes a plain password after checking its strength
func HashPassword(password string) (string, error) {
	if err := validatePassword(password); err != nil {
		return "", err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", shared.NewDomainError("PASSWORD_HASH_ERROR", "Failed to hash password")
	}
	return string(hash), nil
}

func validateLogin(login string) error {
	if len(login) < 3 {
		return shared.ErrInvalidInput.WithMessage("Login must be at least 3 characters")
	}
	if len(login) > 100 {
		return shared.ErrInvalidInput.WithMessage("Login cannot exceed 100 characters")
	}
	if !loginPattern.MatchString(login) {
		return shared.ErrInvalidInput.WithMessage("Login contains invalid characters")
	}
	return nil
}

func validatePassword(password string) error {
	if len(password) < 8 {
		return shared.ErrInvalidInput.WithMessage("Password must be at least 8 characters")
	}
	if len(password) > 72 {
		return shared.ErrInvalidInput.WithMessage("Password cannot exceed 72 characters")
	}
	return nil
}

func validateEmail(email string) error {
	if len(email) > 200 {
		return shared.ErrInvalidInput.WithMessage("Email cannot exceed 200 characters")
	}
	if !emailPattern.MatchString(email) {
		return shared.ErrInvalidInput.WithMessage("Invalid email format")
	}
	return nil
}
