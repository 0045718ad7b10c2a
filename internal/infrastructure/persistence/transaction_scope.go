package persistence

import (
	"context"

	appidentity "github.com/pluvyt/backend/internal/application/identity"
	apployalty "github.com/pluvyt/backend/internal/application/loyalty"
	appordering "github.com/pluvyt/backend/internal/application/ordering"
	"github.com/pluvyt/backend/internal/domain/identity"
	"github.com/pluvyt/backend/internal/domain/loyalty"
	"github.com/pluvyt/backend/internal/domain/ordering"
	"gorm.io/gorm"
)

// LoyaltyTransactionScope runs ledger work inside a GORM transaction.
// Returning an error from fn rolls back the balance and the ledger entry.
type LoyaltyTransactionScope struct {
	db *gorm.DB
}

// NewLoyaltyTransactionScope creates a new LoyaltyTransactionScope
func NewLoyaltyTransactionScope(db *gorm.DB) *LoyaltyTransactionScope {
	return &LoyaltyTransactionScope{db: db}
}

// Execute runs fn within a database transaction
func (s *LoyaltyTransactionScope) Execute(ctx context.Context, fn func(repos apployalty.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(loyaltyRepos{tx: tx})
	})
}

type loyaltyRepos struct {
	tx *gorm.DB
}

func (r loyaltyRepos) Clients() loyalty.ClientRepository {
	return NewGormClientRepository(r.tx)
}

func (r loyaltyRepos) PointTransactions() loyalty.PointTransactionRepository {
	return NewGormPointTransactionRepository(r.tx)
}

// OrderingTransactionScope runs table and comanda work inside a GORM transaction
type OrderingTransactionScope struct {
	db *gorm.DB
}

// NewOrderingTransactionScope creates a new OrderingTransactionScope
func NewOrderingTransactionScope(db *gorm.DB) *OrderingTransactionScope {
	return &OrderingTransactionScope{db: db}
}

// Execute runs fn within a database transaction
func (s *OrderingTransactionScope) Execute(ctx context.Context, fn func(repos appordering.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(orderingRepos{tx: tx})
	})
}

type orderingRepos struct {
	tx *gorm.DB
}

func (r orderingRepos) Tables() ordering.TableRepository {
	return NewGormTableRepository(r.tx)
}

func (r orderingRepos) Comandas() ordering.ComandaRepository {
	return NewGormComandaRepository(r.tx)
}

func (r orderingRepos) Items() ordering.OrderItemRepository {
	return NewGormOrderItemRepository(r.tx)
}

// RegistrationTransactionScope runs a member self-registration inside a
// GORM transaction
type RegistrationTransactionScope struct {
	db *gorm.DB
}

// NewRegistrationTransactionScope creates a new RegistrationTransactionScope
func NewRegistrationTransactionScope(db *gorm.DB) *RegistrationTransactionScope {
	return &RegistrationTransactionScope{db: db}
}

// Execute runs fn within a database transaction
func (s *RegistrationTransactionScope) Execute(ctx context.Context, fn func(repos appidentity.RegistrationRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(registrationRepos{tx: tx})
	})
}

type registrationRepos struct {
	tx *gorm.DB
}

func (r registrationRepos) Users() identity.UserRepository {
	return NewGormUserRepository(r.tx)
}

func (r registrationRepos) Clients() loyalty.ClientRepository {
	return NewGormClientRepository(r.tx)
}

var (
	_ apployalty.TransactionScope           = (*LoyaltyTransactionScope)(nil)
	_ apployalty.TransactionalRepositories  = loyaltyRepos{}
	_ appordering.TransactionScope          = (*OrderingTransactionScope)(nil)
	_ appordering.TransactionalRepositories = orderingRepos{}
	_ appidentity.RegistrationScope         = (*RegistrationTransactionScope)(nil)
	_ appidentity.RegistrationRepositories  = registrationRepos{}
)
