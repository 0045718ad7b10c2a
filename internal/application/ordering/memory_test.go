package ordering

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pluvyt/backend/internal/domain/ordering"
	"github.com/pluvyt/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// memoryStore keeps tables, comandas and items as values. Execute holds a
// single lock and restores a snapshot when fn fails.
type memoryStore struct {
	mu          sync.Mutex
	tables      map[uuid.UUID]ordering.Table
	comandas    map[uuid.UUID]ordering.Comanda
	items       map[uuid.UUID]ordering.OrderItem
	failComanda func(c *ordering.Comanda) error
	failTable   func(t *ordering.Table) error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		tables:   make(map[uuid.UUID]ordering.Table),
		comandas: make(map[uuid.UUID]ordering.Comanda),
		items:    make(map[uuid.UUID]ordering.OrderItem),
	}
}

func (s *memoryStore) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables := copyMap(s.tables)
	comandas := copyMap(s.comandas)
	items := copyMap(s.items)
	if err := fn(memoryRepos{s}); err != nil {
		s.tables, s.comandas, s.items = tables, comandas, items
		return err
	}
	return nil
}

func copyMap[K comparable, V any](in map[K]V) map[K]V {
	out := make(map[K]V, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

type memoryRepos struct{ s *memoryStore }

func (r memoryRepos) Tables() ordering.TableRepository     { return memoryTables(r) }
func (r memoryRepos) Comandas() ordering.ComandaRepository { return memoryComandas(r) }
func (r memoryRepos) Items() ordering.OrderItemRepository  { return memoryItems(r) }

type memoryTables struct{ s *memoryStore }

func (r memoryTables) Create(_ context.Context, t *ordering.Table) error {
	for _, existing := range r.s.tables {
		if existing.TenantID == t.TenantID && existing.Number == t.Number && existing.DeletedAt == nil {
			return ordering.ErrDuplicateTableNumber
		}
	}
	r.s.tables[t.ID] = *t
	return nil
}

func (r memoryTables) Update(_ context.Context, t *ordering.Table) error {
	if r.s.failTable != nil {
		if err := r.s.failTable(t); err != nil {
			return err
		}
	}
	r.s.tables[t.ID] = *t
	return nil
}

func (r memoryTables) FindByID(_ context.Context, tenantID, id uuid.UUID) (*ordering.Table, error) {
	t, ok := r.s.tables[id]
	if !ok || t.TenantID != tenantID || t.DeletedAt != nil {
		return nil, shared.ErrNotFound.WithMessage("Table not found")
	}
	return &t, nil
}

func (r memoryTables) FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*ordering.Table, error) {
	return r.FindByID(ctx, tenantID, id)
}

func (r memoryTables) List(_ context.Context, tenantID uuid.UUID) ([]*ordering.Table, error) {
	out := make([]*ordering.Table, 0)
	for _, t := range r.s.tables {
		if t.TenantID == tenantID && t.DeletedAt == nil {
			found := t
			out = append(out, &found)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out, nil
}

func (r memoryTables) SoftDelete(_ context.Context, t *ordering.Table) error {
	now := time.Now()
	t.DeletedAt = &now
	r.s.tables[t.ID] = *t
	return nil
}

type memoryComandas struct{ s *memoryStore }

func (r memoryComandas) load(c ordering.Comanda) *ordering.Comanda {
	c.Items = make([]*ordering.OrderItem, 0)
	for _, item := range r.s.items {
		if item.ComandaID == c.ID && item.DeletedAt == nil {
			found := item
			c.Items = append(c.Items, &found)
		}
	}
	sort.Slice(c.Items, func(i, j int) bool { return c.Items[i].CreatedAt.Before(c.Items[j].CreatedAt) })
	return &c
}

func (r memoryComandas) Create(_ context.Context, c *ordering.Comanda) error {
	stored := *c
	stored.Items = nil
	r.s.comandas[c.ID] = stored
	return nil
}

func (r memoryComandas) FindByID(_ context.Context, tenantID, id uuid.UUID) (*ordering.Comanda, error) {
	c, ok := r.s.comandas[id]
	if !ok || c.TenantID != tenantID {
		return nil, shared.ErrNotFound.WithMessage("Comanda not found")
	}
	return r.load(c), nil
}

func (r memoryComandas) FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*ordering.Comanda, error) {
	return r.FindByID(ctx, tenantID, id)
}

func (r memoryComandas) FindActiveByTableForUpdate(_ context.Context, tenantID, tableID uuid.UUID) ([]*ordering.Comanda, error) {
	out := make([]*ordering.Comanda, 0)
	for _, c := range r.s.comandas {
		if c.TenantID == tenantID && c.TableID == tableID && (c.Status == ordering.ComandaStatusOpen || c.Status == ordering.ComandaStatusClosed) {
			out = append(out, r.load(c))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OpenedAt.Before(out[j].OpenedAt) })
	return out, nil
}

func (r memoryComandas) List(_ context.Context, tenantID uuid.UUID, filter ordering.ComandaFilter) ([]*ordering.Comanda, error) {
	out := make([]*ordering.Comanda, 0)
	for _, c := range r.s.comandas {
		if c.TenantID != tenantID {
			continue
		}
		if filter.Status != "" && c.Status != filter.Status {
			continue
		}
		if filter.TableID != nil && c.TableID != *filter.TableID {
			continue
		}
		out = append(out, r.load(c))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OpenedAt.After(out[j].OpenedAt) })
	return out, nil
}

func (r memoryComandas) Save(_ context.Context, c *ordering.Comanda) error {
	if r.s.failComanda != nil {
		if err := r.s.failComanda(c); err != nil {
			return err
		}
	}
	stored := *c
	stored.Items = nil
	r.s.comandas[c.ID] = stored
	return nil
}

type memoryItems struct{ s *memoryStore }

func (r memoryItems) Create(_ context.Context, item *ordering.OrderItem) error {
	r.s.items[item.ID] = *item
	return nil
}

func (r memoryItems) Update(_ context.Context, item *ordering.OrderItem) error {
	r.s.items[item.ID] = *item
	return nil
}

func (r memoryItems) SumLineTotals(_ context.Context, tenantID, comandaID uuid.UUID) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, item := range r.s.items {
		if item.TenantID == tenantID && item.ComandaID == comandaID && item.DeletedAt == nil {
			total = total.Add(item.LineTotal)
		}
	}
	return total, nil
}

// MockAnnouncer is a mock implementation of Announcer
type MockAnnouncer struct {
	mock.Mock
}

func (m *MockAnnouncer) Announce(ctx context.Context, tenantID uuid.UUID, event string, payload any) {
	m.Called(ctx, tenantID, event, payload)
}
