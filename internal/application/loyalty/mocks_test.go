package loyalty

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/pluvyt/backend/internal/domain/loyalty"
	"github.com/pluvyt/backend/internal/domain/shared"
	"github.com/stretchr/testify/mock"
)

// MockClientRepository is a mock implementation of loyalty.ClientRepository
type MockClientRepository struct {
	mock.Mock
}

func (m *MockClientRepository) Create(ctx context.Context, client *loyalty.Client) error {
	args := m.Called(ctx, client)
	return args.Error(0)
}

func (m *MockClientRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*loyalty.Client, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*loyalty.Client), args.Error(1)
}

func (m *MockClientRepository) FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*loyalty.Client, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*loyalty.Client), args.Error(1)
}

func (m *MockClientRepository) FindByPersonID(ctx context.Context, tenantID, personID uuid.UUID) (*loyalty.Client, error) {
	args := m.Called(ctx, tenantID, personID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*loyalty.Client), args.Error(1)
}

func (m *MockClientRepository) List(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]*loyalty.Client, int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).([]*loyalty.Client), args.Get(1).(int64), args.Error(2)
}

func (m *MockClientRepository) SaveBalance(ctx context.Context, client *loyalty.Client) error {
	args := m.Called(ctx, client)
	return args.Error(0)
}

// MockPointTransactionRepository is a mock implementation of loyalty.PointTransactionRepository
type MockPointTransactionRepository struct {
	mock.Mock
}

func (m *MockPointTransactionRepository) Create(ctx context.Context, tx *loyalty.PointTransaction) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func (m *MockPointTransactionRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*loyalty.PointTransaction, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*loyalty.PointTransaction), args.Error(1)
}

func (m *MockPointTransactionRepository) List(ctx context.Context, tenantID uuid.UUID, filter loyalty.TransactionFilter) ([]*loyalty.PointTransaction, int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).([]*loyalty.PointTransaction), args.Get(1).(int64), args.Error(2)
}

func (m *MockPointTransactionRepository) History(ctx context.Context, tenantID, clientID uuid.UUID) ([]*loyalty.PointTransaction, error) {
	args := m.Called(ctx, tenantID, clientID)
	return args.Get(0).([]*loyalty.PointTransaction), args.Error(1)
}

func (m *MockPointTransactionRepository) ExistsReversalOf(ctx context.Context, tenantID, transactionID uuid.UUID) (bool, error) {
	args := m.Called(ctx, tenantID, transactionID)
	return args.Bool(0), args.Error(1)
}

// MockAccountVerifier is a mock implementation of AccountVerifier
type MockAccountVerifier struct {
	mock.Mock
}

func (m *MockAccountVerifier) IsPendingVerification(ctx context.Context, tenantID, personID uuid.UUID) (bool, error) {
	args := m.Called(ctx, tenantID, personID)
	return args.Bool(0), args.Error(1)
}

// memoryStore is an in-memory ledger store. Its transaction scope takes a
// single lock and restores a snapshot when fn fails, which mirrors row
// locking plus rollback closely enough for property tests.
type memoryStore struct {
	mu      sync.Mutex
	clients map[uuid.UUID]loyalty.Client
	entries []*loyalty.PointTransaction
	failOn  func(tx *loyalty.PointTransaction) error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{clients: make(map[uuid.UUID]loyalty.Client)}
}

func (s *memoryStore) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	clients := make(map[uuid.UUID]loyalty.Client, len(s.clients))
	for k, v := range s.clients {
		clients[k] = v
	}
	entries := append([]*loyalty.PointTransaction(nil), s.entries...)

	if err := fn(memoryRepos{s}); err != nil {
		s.clients = clients
		s.entries = entries
		return err
	}
	return nil
}

type memoryRepos struct{ s *memoryStore }

func (r memoryRepos) Clients() loyalty.ClientRepository { return memoryClients{r.s} }
func (r memoryRepos) PointTransactions() loyalty.PointTransactionRepository { return memoryEntries{r.s} }

type memoryClients struct{ s *memoryStore }

func (r memoryClients) Create(_ context.Context, c *loyalty.Client) error {
	for _, existing := range r.s.clients {
		if existing.TenantID == c.TenantID && existing.PersonID == c.PersonID {
			return shared.ErrDuplicateKey
		}
	}
	r.s.clients[c.ID] = *c
	return nil
}

func (r memoryClients) FindByID(_ context.Context, tenantID, id uuid.UUID) (*loyalty.Client, error) {
	c, ok := r.s.clients[id]
	if !ok || c.TenantID != tenantID {
		return nil, shared.ErrNotFound
	}
	return &c, nil
}

func (r memoryClients) FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*loyalty.Client, error) {
	return r.FindByID(ctx, tenantID, id)
}

func (r memoryClients) FindByPersonID(_ context.Context, tenantID, personID uuid.UUID) (*loyalty.Client, error) {
	for _, c := range r.s.clients {
		if c.TenantID == tenantID && c.PersonID == personID {
			found := c
			return &found, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r memoryClients) List(_ context.Context, tenantID uuid.UUID, _ shared.Filter) ([]*loyalty.Client, int64, error) {
	out := make([]*loyalty.Client, 0)
	for _, c := range r.s.clients {
		if c.TenantID == tenantID {
			found := c
			out = append(out, &found)
		}
	}
	return out, int64(len(out)), nil
}

func (r memoryClients) SaveBalance(_ context.Context, c *loyalty.Client) error {
	r.s.clients[c.ID] = *c
	return nil
}

type memoryEntries struct{ s *memoryStore }

func (r memoryEntries) Create(_ context.Context, tx *loyalty.PointTransaction) error {
	if r.s.failOn != nil {
		if err := r.s.failOn(tx); err != nil {
			return err
		}
	}
	r.s.entries = append(r.s.entries, tx)
	return nil
}

func (r memoryEntries) FindByID(_ context.Context, tenantID, id uuid.UUID) (*loyalty.PointTransaction, error) {
	for _, tx := range r.s.entries {
		if tx.ID == id && tx.TenantID == tenantID {
			return tx, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r memoryEntries) List(_ context.Context, tenantID uuid.UUID, _ loyalty.TransactionFilter) ([]*loyalty.PointTransaction, int64, error) {
	out := make([]*loyalty.PointTransaction, 0)
	for i := len(r.s.entries) - 1; i >= 0; i-- {
		if r.s.entries[i].TenantID == tenantID {
			out = append(out, r.s.entries[i])
		}
	}
	return out, int64(len(out)), nil
}

func (r memoryEntries) History(_ context.Context, tenantID, clientID uuid.UUID) ([]*loyalty.PointTransaction, error) {
	out := make([]*loyalty.PointTransaction, 0)
	for _, tx := range r.s.entries {
		if tx.TenantID == tenantID && tx.ClientID == clientID {
			out = append(out, tx)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Sequence < out[j].Sequence })
	return out, nil
}

func (r memoryEntries) ExistsReversalOf(_ context.Context, tenantID, transactionID uuid.UUID) (bool, error) {
	for _, tx := range r.s.entries {
		if tx.TenantID == tenantID && tx.ReversalOf != nil && *tx.ReversalOf == transactionID {
			return true, nil
		}
	}
	return false, nil
}

// newMemoryLedger builds a Ledger whose plain reads go through the same store
func newMemoryLedger(s *memoryStore) *Ledger {
	repos := memoryRepos{s}
	return NewLedger(repos.Clients(), repos.PointTransactions(), s, zapNop())
}
