package identity

import (
	"context"

	"github.com/google/uuid"
)

// UserRepository persists users together with their memberships and
// feature overrides
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*User, error)

	// FindByLoginOrEmail looks a user up across tenants for authentication
	FindByLoginOrEmail(ctx context.Context, loginOrEmail string) (*User, error)

	// FindByPersonID returns the account linked to a person, if any
	FindByPersonID(ctx context.Context, tenantID, personID uuid.UUID) (*User, error)

	// SaveAccess replaces group memberships and allow/deny lists
	SaveAccess(ctx context.Context, user *User) error

	// UpdateLastLogin stamps the last login time
	UpdateLastLogin(ctx context.Context, user *User) error

	// FindByVerificationToken finds the user holding a pending e-mail token
	FindByVerificationToken(ctx context.Context, token string) (*User, error)

	// UpdateVerification stores the e-mail verification token and state
	UpdateVerification(ctx context.Context, user *User) error

	// UpdatePerson stores the person link
	UpdatePerson(ctx context.Context, user *User) error
}

// AccessGroupRepository persists access groups. Create and Update return
// ErrDuplicateGroupCode on a code clash.
type AccessGroupRepository interface {
	Create(ctx context.Context, group *AccessGroup) error
	Update(ctx context.Context, group *AccessGroup) error
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*AccessGroup, error)
	FindByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]*AccessGroup, error)
	List(ctx context.Context, tenantID uuid.UUID) ([]*AccessGroup, error)
}
