package identity

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/pluvyt/backend/internal/domain/identity"
	"github.com/pluvyt/backend/internal/domain/shared"
)

// UserAccountVerifier answers whether the person behind a loyalty client has
// an account still waiting for e-mail confirmation
type UserAccountVerifier struct {
	userRepo identity.UserRepository
}

// NewUserAccountVerifier creates a verifier backed by the user repository
func NewUserAccountVerifier(userRepo identity.UserRepository) *UserAccountVerifier {
	return &UserAccountVerifier{userRepo: userRepo}
}

// IsPendingVerification is false for persons without an account
func (v *UserAccountVerifier) IsPendingVerification(ctx context.Context, tenantID, personID uuid.UUID) (bool, error) {
	user, err := v.userRepo.FindByPersonID(ctx, tenantID, personID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return user.IsPendingVerification(), nil
}
