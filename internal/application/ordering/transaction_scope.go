package ordering

import (
	"context"

	"github.com/pluvyt/backend/internal/domain/ordering"
)

// TransactionScope runs table and comanda work inside one database
// transaction. If fn returns an error nothing it wrote is kept.
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories exposes the ordering repositories bound to the
// current transaction. Tables and Comandas offer *ForUpdate lookups that
// hold row locks until commit.
type TransactionalRepositories interface {
	Tables() ordering.TableRepository
	Comandas() ordering.ComandaRepository
	Items() ordering.OrderItemRepository
}
