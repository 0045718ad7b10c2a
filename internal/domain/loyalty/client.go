// Package loyalty holds the points ledger: client accounts and their
// append-only history of point transactions.
package loyalty

import (
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/pluvyt/backend/internal/domain/shared"
)

// AggregateTypeClient is the aggregate type name used in events
const AggregateTypeClient = "LoyaltyClient"

// ErrClientAlreadyEnrolled is returned when the person already has a client in the tenant
var ErrClientAlreadyEnrolled = shared.ErrDuplicateKey.WithMessage("Person is already enrolled in the loyalty club")

// ErrBalanceOverflow is returned when a credit would exceed the largest storable balance
var ErrBalanceOverflow = shared.ErrInvalidInput.WithMessage("Credit would overflow the client balance")

// Client is a loyalty account. Its balance only changes through Apply.
type Client struct {
	shared.TenantAggregateRoot
	PersonID     uuid.UUID
	Balance      int64
	LastSequence int64
	DeletedAt    *time.Time
}

// NewClient enrolls a person in the loyalty club with a zero balance
func NewClient(tenantID, personID uuid.UUID, actor string) (*Client, error) {
	if tenantID == uuid.Nil {
		return nil, shared.ErrInvalidInput.WithMessage("Tenant ID cannot be empty")
	}
	if personID == uuid.Nil {
		return nil, shared.ErrInvalidInput.WithMessage("Person ID cannot be empty")
	}
	return &Client{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID, actor),
		PersonID:            personID,
	}, nil
}

// ApplyInput describes a single ledger movement
type ApplyInput struct {
	Kind   TransactionKind
	Points int64
	Origin Origin
	Refs   TransactionRefs
	Actor  string
}

// Validate checks the movement independently of any balance
func (in ApplyInput) Validate() error {
	if !in.Kind.IsValid() {
		return shared.ErrInvalidInput.WithMessage("Transaction kind must be CREDIT, DEBIT or REVERSAL")
	}
	if in.Points <= 0 {
		return shared.ErrInvalidInput.WithMessage("Points must be a positive integer")
	}
	if !in.Origin.IsValid() {
		return shared.ErrInvalidInput.WithMessage("Invalid transaction origin")
	}
	if in.Refs.ReversalOf != nil && in.Kind != KindReversal {
		return shared.ErrInvalidInput.WithMessage("Only a REVERSAL can reference another transaction")
	}
	return nil
}

// Apply computes the new balance, mutates the client and returns the ledger
// entry stamped with the resulting balance. The client is left untouched
// when the movement is invalid or would make the balance negative.
func (c *Client) Apply(in ApplyInput) (*PointTransaction, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if c.DeletedAt != nil {
		return nil, shared.ErrNotFound.WithMessage("Loyalty client not found")
	}

	if !in.Kind.IsSpend() && in.Points > math.MaxInt64-c.Balance {
		return nil, ErrBalanceOverflow
	}
	newBalance := c.Balance + in.Kind.Signed(in.Points)
	if newBalance < 0 {
		return nil, shared.ErrInsufficientBalance
	}

	c.Balance = newBalance
	c.LastSequence++
	c.MarkUpdated(in.Actor)

	tx := &PointTransaction{
		BaseEntity:       shared.NewBaseEntity(),
		TenantID:         c.TenantID,
		ClientID:         c.ID,
		Kind:             in.Kind,
		Points:           in.Points,
		ResultingBalance: newBalance,
		Sequence:         c.LastSequence,
		Origin:           in.Origin,
		RewardRef:        in.Refs.RewardRef,
		StoreRef:         in.Refs.StoreRef,
		Note:             in.Refs.Note,
		ReversalOf:       in.Refs.ReversalOf,
		CreatedBy:        in.Actor,
	}
	c.AddDomainEvent(NewPointsAppliedEvent(c, tx))
	return tx, nil
}
