package ordering

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/pluvyt/backend/internal/application/notification"
	"github.com/pluvyt/backend/internal/domain/ordering"
	"github.com/pluvyt/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func seedTable(t *testing.T, s *memoryStore, tenantID uuid.UUID, number string, status ordering.TableStatus) *ordering.Table {
	t.Helper()
	table, err := ordering.NewTable(tenantID, number, 4, status, "admin")
	require.NoError(t, err)
	s.tables[table.ID] = *table
	return table
}

func item(qty, price int64) OrderItemInput {
	return OrderItemInput{
		ProductID: uuid.New(),
		Quantity:  decimal.NewFromInt(qty),
		UnitPrice: decimal.NewFromInt(price),
	}
}

func newComandaService(s *memoryStore, announcer Announcer) *ComandaService {
	return NewComandaService(memoryComandas{s}, s, announcer, zap.NewNop())
}

func TestComandaService_Open(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()

	t.Run("occupies a free table and totals items", func(t *testing.T) {
		s := newMemoryStore()
		table := seedTable(t, s, tenantID, "1", ordering.TableStatusFree)
		svc := newComandaService(s, nil)

		resp, err := svc.Open(ctx, tenantID, "waiter", OpenComandaRequest{
			TableID: table.ID,
			Items:   []OrderItemInput{item(2, 5), item(1, 3)},
		})
		require.NoError(t, err)
		assert.Equal(t, "OPEN", resp.Status)
		assert.Equal(t, "1", resp.TableNumber)
		assert.True(t, resp.Total.Equal(decimal.NewFromInt(13)))
		assert.Len(t, resp.Items, 2)
		assert.Equal(t, ordering.TableStatusOccupied, s.tables[table.ID].Status)
	})

	t.Run("second comanda on an occupied table", func(t *testing.T) {
		s := newMemoryStore()
		table := seedTable(t, s, tenantID, "2", ordering.TableStatusOccupied)
		svc := newComandaService(s, nil)

		_, err := svc.Open(ctx, tenantID, "waiter", OpenComandaRequest{TableID: table.ID})
		require.NoError(t, err)
		_, err = svc.Open(ctx, tenantID, "waiter", OpenComandaRequest{TableID: table.ID})
		require.NoError(t, err)
		assert.Len(t, s.comandas, 2)
	})

	t.Run("table under maintenance", func(t *testing.T) {
		s := newMemoryStore()
		table := seedTable(t, s, tenantID, "3", ordering.TableStatusMaintenance)
		svc := newComandaService(s, nil)

		_, err := svc.Open(ctx, tenantID, "waiter", OpenComandaRequest{TableID: table.ID})
		assert.True(t, errors.Is(err, shared.ErrInvalidState))
		assert.Empty(t, s.comandas)
	})

	t.Run("unknown table", func(t *testing.T) {
		s := newMemoryStore()
		svc := newComandaService(s, nil)

		_, err := svc.Open(ctx, tenantID, "waiter", OpenComandaRequest{TableID: uuid.New()})
		assert.True(t, errors.Is(err, shared.ErrNotFound))
	})

	t.Run("invalid item rolls back the whole comanda", func(t *testing.T) {
		s := newMemoryStore()
		table := seedTable(t, s, tenantID, "4", ordering.TableStatusFree)
		svc := newComandaService(s, nil)

		_, err := svc.Open(ctx, tenantID, "waiter", OpenComandaRequest{
			TableID: table.ID,
			Items:   []OrderItemInput{item(1, 10), item(0, 10)},
		})
		assert.True(t, errors.Is(err, shared.ErrInvalidInput))
		assert.Empty(t, s.comandas)
		assert.Empty(t, s.items)
		assert.Equal(t, ordering.TableStatusFree, s.tables[table.ID].Status)
	})
}

func TestComandaService_OpenPublic(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()

	t.Run("announces the order after commit", func(t *testing.T) {
		s := newMemoryStore()
		table := seedTable(t, s, tenantID, "7", ordering.TableStatusFree)
		announcer := new(MockAnnouncer)
		announcer.On("Announce", mock.Anything, tenantID, notification.EventOrderCreated,
			mock.MatchedBy(func(p OrderCreatedPayload) bool {
				return p.TableID == table.ID &&
					p.TableNumber == "7" &&
					p.ItemCount == 1 &&
					p.Total.Equal(decimal.NewFromInt(24))
			})).Return().Once()
		svc := newComandaService(s, announcer)

		resp, err := svc.OpenPublic(ctx, PublicOrderRequest{
			TenantID:     tenantID,
			TableID:      table.ID,
			CustomerName: "Ana",
			Items:        []OrderItemInput{item(3, 8)},
		})
		require.NoError(t, err)
		assert.Equal(t, ordering.CustomerActor, resp.CreatedBy)
		assert.Equal(t, "Ana", resp.CustomerName)
		announcer.AssertExpectations(t)
	})

	t.Run("empty order is rejected without announcing", func(t *testing.T) {
		s := newMemoryStore()
		table := seedTable(t, s, tenantID, "8", ordering.TableStatusFree)
		announcer := new(MockAnnouncer)
		svc := newComandaService(s, announcer)

		_, err := svc.OpenPublic(ctx, PublicOrderRequest{TenantID: tenantID, TableID: table.ID})
		assert.True(t, errors.Is(err, shared.ErrInvalidInput))
		announcer.AssertNotCalled(t, "Announce", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("failed open is not announced", func(t *testing.T) {
		s := newMemoryStore()
		announcer := new(MockAnnouncer)
		svc := newComandaService(s, announcer)

		_, err := svc.OpenPublic(ctx, PublicOrderRequest{
			TenantID: tenantID,
			TableID:  uuid.New(),
			Items:    []OrderItemInput{item(1, 1)},
		})
		assert.Error(t, err)
		announcer.AssertNotCalled(t, "Announce", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("works without an announcer", func(t *testing.T) {
		s := newMemoryStore()
		table := seedTable(t, s, tenantID, "9", ordering.TableStatusFree)
		svc := newComandaService(s, nil)

		_, err := svc.OpenPublic(ctx, PublicOrderRequest{
			TenantID: tenantID,
			TableID:  table.ID,
			Items:    []OrderItemInput{item(1, 1)},
		})
		assert.NoError(t, err)
	})
}

func TestComandaService_Items(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	s := newMemoryStore()
	table := seedTable(t, s, tenantID, "1", ordering.TableStatusFree)
	svc := newComandaService(s, nil)

	opened, err := svc.Open(ctx, tenantID, "waiter", OpenComandaRequest{
		TableID: table.ID,
		Items:   []OrderItemInput{item(2, 5)},
	})
	require.NoError(t, err)

	t.Run("add item recomputes the total", func(t *testing.T) {
		resp, err := svc.AddItem(ctx, tenantID, opened.ID, "waiter", item(1, 7))
		require.NoError(t, err)
		assert.True(t, resp.Total.Equal(decimal.NewFromInt(17)))
		assert.Len(t, resp.Items, 2)
	})

	t.Run("remove item recomputes the total", func(t *testing.T) {
		resp, err := svc.RemoveItem(ctx, tenantID, opened.ID, opened.Items[0].ID, "waiter")
		require.NoError(t, err)
		assert.True(t, resp.Total.Equal(decimal.NewFromInt(7)))
		assert.Len(t, resp.Items, 1)
	})

	t.Run("removing an unknown item", func(t *testing.T) {
		_, err := svc.RemoveItem(ctx, tenantID, opened.ID, uuid.New(), "waiter")
		assert.True(t, errors.Is(err, shared.ErrNotFound))
	})

	t.Run("item status", func(t *testing.T) {
		current, err := svc.Get(ctx, tenantID, opened.ID)
		require.NoError(t, err)
		resp, err := svc.SetItemStatus(ctx, tenantID, opened.ID, current.Items[0].ID, "kitchen", UpdateItemStatusRequest{Status: "DELIVERED"})
		require.NoError(t, err)
		assert.Equal(t, "DELIVERED", resp.Items[0].Status)
	})

	t.Run("no items after payment", func(t *testing.T) {
		_, err := svc.Transition(ctx, tenantID, opened.ID, "cashier", UpdateComandaStatusRequest{Status: "PAID"})
		require.NoError(t, err)

		_, err = svc.AddItem(ctx, tenantID, opened.ID, "waiter", item(1, 1))
		assert.True(t, errors.Is(err, shared.ErrInvalidState))

		current, err := svc.Get(ctx, tenantID, opened.ID)
		require.NoError(t, err)
		assert.True(t, current.Total.Equal(decimal.NewFromInt(7)))
	})
}

func TestComandaService_Transition(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()

	open := func(t *testing.T) (*ComandaService, *ComandaResponse) {
		s := newMemoryStore()
		table := seedTable(t, s, tenantID, "1", ordering.TableStatusFree)
		svc := newComandaService(s, nil)
		resp, err := svc.Open(ctx, tenantID, "waiter", OpenComandaRequest{TableID: table.ID})
		require.NoError(t, err)
		return svc, resp
	}

	t.Run("OPEN to CLOSED to PAID", func(t *testing.T) {
		svc, c := open(t)

		resp, err := svc.Transition(ctx, tenantID, c.ID, "waiter", UpdateComandaStatusRequest{Status: "CLOSED"})
		require.NoError(t, err)
		assert.Nil(t, resp.ClosedAt)

		resp, err = svc.Transition(ctx, tenantID, c.ID, "cashier", UpdateComandaStatusRequest{Status: "PAID"})
		require.NoError(t, err)
		assert.Equal(t, "PAID", resp.Status)
		assert.NotNil(t, resp.ClosedAt)
	})

	t.Run("terminal comandas do not move", func(t *testing.T) {
		svc, c := open(t)
		_, err := svc.Transition(ctx, tenantID, c.ID, "waiter", UpdateComandaStatusRequest{Status: "CANCELLED"})
		require.NoError(t, err)

		for _, target := range []string{"OPEN", "CLOSED", "PAID"} {
			_, err := svc.Transition(ctx, tenantID, c.ID, "waiter", UpdateComandaStatusRequest{Status: target})
			assert.True(t, errors.Is(err, shared.ErrInvalidTransition), target)
		}
	})

	t.Run("CLOSED cannot reopen", func(t *testing.T) {
		svc, c := open(t)
		_, err := svc.Transition(ctx, tenantID, c.ID, "waiter", UpdateComandaStatusRequest{Status: "CLOSED"})
		require.NoError(t, err)

		_, err = svc.Transition(ctx, tenantID, c.ID, "waiter", UpdateComandaStatusRequest{Status: "OPEN"})
		assert.True(t, errors.Is(err, shared.ErrInvalidTransition))
	})

	t.Run("unknown status", func(t *testing.T) {
		svc, c := open(t)
		_, err := svc.Transition(ctx, tenantID, c.ID, "waiter", UpdateComandaStatusRequest{Status: "LOST"})
		assert.True(t, errors.Is(err, shared.ErrInvalidInput))
	})

	t.Run("other tenant", func(t *testing.T) {
		svc, c := open(t)
		_, err := svc.Transition(ctx, uuid.New(), c.ID, "waiter", UpdateComandaStatusRequest{Status: "PAID"})
		assert.True(t, errors.Is(err, shared.ErrNotFound))
	})
}

func TestComandaService_List(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	s := newMemoryStore()
	t1 := seedTable(t, s, tenantID, "1", ordering.TableStatusFree)
	t2 := seedTable(t, s, tenantID, "2", ordering.TableStatusFree)
	svc := newComandaService(s, nil)

	a, err := svc.Open(ctx, tenantID, "waiter", OpenComandaRequest{TableID: t1.ID})
	require.NoError(t, err)
	_, err = svc.Open(ctx, tenantID, "waiter", OpenComandaRequest{TableID: t2.ID})
	require.NoError(t, err)
	_, err = svc.Transition(ctx, tenantID, a.ID, "waiter", UpdateComandaStatusRequest{Status: "CLOSED"})
	require.NoError(t, err)

	all, err := svc.List(ctx, tenantID, ComandaListFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	closed, err := svc.List(ctx, tenantID, ComandaListFilter{Status: "CLOSED"})
	require.NoError(t, err)
	require.Len(t, closed, 1)
	assert.Equal(t, a.ID, closed[0].ID)

	byTable, err := svc.List(ctx, tenantID, ComandaListFilter{TableID: &t2.ID})
	require.NoError(t, err)
	require.Len(t, byTable, 1)
	assert.Equal(t, t2.ID, byTable[0].TableID)

	other, err := svc.List(ctx, uuid.New(), ComandaListFilter{})
	require.NoError(t, err)
	assert.Empty(t, other)
}
