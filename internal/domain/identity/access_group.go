package identity

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/pluvyt/backend/internal/domain/shared"
)

// ErrDuplicateGroupCode is returned when a tenant already has a group with the same code
var ErrDuplicateGroupCode = shared.ErrDuplicateKey.WithMessage("Access group code already registered")

var groupCodePattern = regexp.MustCompile(`^[a-z0-9_\-]+$`)

// AccessGroup grants a set of features to its members. Permissions is an
// opaque JSON document kept for the front end.
type AccessGroup struct {
	shared.TenantAggregateRoot
	Code        string
	Name        string
	Description string
	Features    []string
	Permissions json.RawMessage
}

// NewAccessGroup creates a new access group
func NewAccessGroup(tenantID uuid.UUID, code, name, actor string) (*AccessGroup, error) {
	if tenantID == uuid.Nil {
		return nil, shared.ErrInvalidInput.WithMessage("Tenant ID cannot be empty")
	}
	code = strings.ToLower(strings.TrimSpace(code))
	if err := validateGroupCode(code); err != nil {
		return nil, err
	}
	g := &AccessGroup{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID, actor),
		Code:                code,
		Features:            make([]string, 0),
		Permissions:         json.RawMessage("{}"),
	}
	if err := g.Rename(name, "", actor); err != nil {
		return nil, err
	}
	return g, nil
}

// Rename changes the display name and description
func (g *AccessGroup) Rename(name, description, actor string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.ErrInvalidInput.WithMessage("Group name cannot be empty")
	}
	if len(name) > 100 {
		return shared.ErrInvalidInput.WithMessage("Group name cannot exceed 100 characters")
	}
	g.Name = name
	g.Description = strings.TrimSpace(description)
	g.MarkUpdated(actor)
	return nil
}

// SetFeatures replaces the features granted by the group
func (g *AccessGroup) SetFeatures(features []string, actor string) {
	g.Features = NormalizeFeatures(features)
	g.MarkUpdated(actor)
}

// SetPermissions stores the opaque permissions document. Empty input resets it to {}.
func (g *AccessGroup) SetPermissions(doc json.RawMessage, actor string) error {
	if len(doc) == 0 {
		doc = json.RawMessage("{}")
	}
	if !json.Valid(doc) {
		return shared.ErrInvalidInput.WithMessage("Permissions must be valid JSON")
	}
	g.Permissions = doc
	g.MarkUpdated(actor)
	return nil
}

func validateGroupCode(code string) error {
	if code == "" {
		return shared.ErrInvalidInput.WithMessage("Group code cannot be empty")
	}
	if len(code) > 50 {
		return shared.ErrInvalidInput.WithMessage("Group code cannot exceed 50 characters")
	}
	if !groupCodePattern.MatchString(code) {
		return shared.ErrInvalidInput.WithMessage("Group code can only contain letters, numbers, underscores and hyphens")
	}
	return nil
}
