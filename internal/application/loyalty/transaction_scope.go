package loyalty

import (
	"context"

	"github.com/pluvyt/backend/internal/domain/loyalty"
)

// TransactionScope runs ledger work inside a single database transaction.
// If fn returns an error every write made through repos is rolled back.
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories exposes the ledger repositories bound to the
// current transaction.
//
// Clients is the aggregate root repository; FindByIDForUpdate holds the row
// lock that serializes concurrent movements of one client. PointTransactions
// is append-only.
type TransactionalRepositories interface {
	Clients() loyalty.ClientRepository
	PointTransactions() loyalty.PointTransactionRepository
}

// NoOpTransactionScope runs fn against plain repositories without a
// transaction. Used by unit tests.
type NoOpTransactionScope struct {
	clients      loyalty.ClientRepository
	transactions loyalty.PointTransactionRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope
func NewNoOpTransactionScope(clients loyalty.ClientRepository, transactions loyalty.PointTransactionRepository) *NoOpTransactionScope {
	return &NoOpTransactionScope{clients: clients, transactions: transactions}
}

// Execute runs fn directly
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// Clients returns the client repository
func (s *NoOpTransactionScope) Clients() loyalty.ClientRepository {
	return s.clients
}

// PointTransactions returns the transaction repository
func (s *NoOpTransactionScope) PointTransactions() loyalty.PointTransactionRepository {
	return s.transactions
}

var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
