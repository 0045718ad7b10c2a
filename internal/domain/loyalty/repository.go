package loyalty

import (
	"context"

	"github.com/google/uuid"
	"github.com/pluvyt/backend/internal/domain/shared"
)

// ClientRepository persists loyalty clients. Every lookup is tenant scoped
// and returns shared.ErrNotFound when the client is absent. Create returns
// ErrClientAlreadyEnrolled when the person is already a client.
type ClientRepository interface {
	Create(ctx context.Context, client *Client) error
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Client, error)
	// FindByIDForUpdate loads the client holding a row lock until the
	// surrounding transaction ends.
	FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*Client, error)
	FindByPersonID(ctx context.Context, tenantID, personID uuid.UUID) (*Client, error)
	List(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]*Client, int64, error)
	// SaveBalance writes balance, sequence and audit columns only
	SaveBalance(ctx context.Context, client *Client) error
}

// TransactionFilter narrows a ledger listing
type TransactionFilter struct {
	shared.Filter
	ClientID *uuid.UUID
	Kind     TransactionKind
	Origin   Origin
}

// PointTransactionRepository is the append-only store of ledger entries.
// Entries are never updated or deleted.
type PointTransactionRepository interface {
	Create(ctx context.Context, tx *PointTransaction) error
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*PointTransaction, error)
	// List returns entries newest first
	List(ctx context.Context, tenantID uuid.UUID, filter TransactionFilter) ([]*PointTransaction, int64, error)
	// History returns every entry of a client ordered by sequence
	History(ctx context.Context, tenantID, clientID uuid.UUID) ([]*PointTransaction, error)
	ExistsReversalOf(ctx context.Context, tenantID, transactionID uuid.UUID) (bool, error)
}
