package ordering

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pluvyt/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestComanda(t *testing.T) *Comanda {
	t.Helper()
	c, err := NewComanda(uuid.New(), uuid.New(), "Maria", "waiter")
	require.NoError(t, err)
	return c
}

func TestNewComanda(t *testing.T) {
	t.Run("opens with zero total", func(t *testing.T) {
		c := newTestComanda(t)
		assert.Equal(t, ComandaStatusOpen, c.Status)
		assert.True(t, c.Total.IsZero())
		assert.Nil(t, c.ClosedAt)
		assert.Equal(t, c.CreatedAt, c.OpenedAt)
		require.Len(t, c.GetDomainEvents(), 1)
		assert.Equal(t, EventTypeComandaOpened, c.GetDomainEvents()[0].EventType())
	})

	t.Run("requires table", func(t *testing.T) {
		_, err := NewComanda(uuid.New(), uuid.Nil, "", "waiter")
		assert.True(t, errors.Is(err, shared.ErrInvalidInput))
	})
}

func TestComandaStatus_CanTransitionTo(t *testing.T) {
	all := []ComandaStatus{ComandaStatusOpen, ComandaStatusClosed, ComandaStatusPaid, ComandaStatusCancelled}
	legal := map[[2]ComandaStatus]bool{
		{ComandaStatusOpen, ComandaStatusClosed}:      true,
		{ComandaStatusOpen, ComandaStatusPaid}:        true,
		{ComandaStatusOpen, ComandaStatusCancelled}:   true,
		{ComandaStatusClosed, ComandaStatusPaid}:      true,
		{ComandaStatusClosed, ComandaStatusCancelled}: true,
	}

	for _, from := range all {
		for _, to := range all {
			edge := [2]ComandaStatus{from, to}
			t.Run(string(from)+"->"+string(to), func(t *testing.T) {
				assert.Equal(t, legal[edge], from.CanTransitionTo(to))
			})
		}
	}
}

func TestComanda_Transition(t *testing.T) {
	now := time.Date(2026, 3, 14, 20, 30, 0, 0, time.UTC)

	t.Run("paid stamps closedAt", func(t *testing.T) {
		c := newTestComanda(t)
		require.NoError(t, c.Transition(ComandaStatusClosed, "cashier", now))
		assert.Nil(t, c.ClosedAt)

		require.NoError(t, c.Transition(ComandaStatusPaid, "cashier", now))
		require.NotNil(t, c.ClosedAt)
		assert.Equal(t, now, *c.ClosedAt)
		assert.Equal(t, "cashier", c.UpdatedBy)
	})

	t.Run("cancel from open", func(t *testing.T) {
		c := newTestComanda(t)
		require.NoError(t, c.Transition(ComandaStatusCancelled, "manager", now))
		assert.NotNil(t, c.ClosedAt)
	})

	t.Run("terminal rejects everything", func(t *testing.T) {
		c := newTestComanda(t)
		require.NoError(t, c.Transition(ComandaStatusPaid, "cashier", now))
		for _, target := range []ComandaStatus{ComandaStatusOpen, ComandaStatusClosed, ComandaStatusPaid, ComandaStatusCancelled} {
			err := c.Transition(target, "cashier", now)
			assert.True(t, errors.Is(err, shared.ErrInvalidTransition), "target %s", target)
		}
		assert.Equal(t, ComandaStatusPaid, c.Status)
	})

	t.Run("closed cannot reopen", func(t *testing.T) {
		c := newTestComanda(t)
		require.NoError(t, c.Transition(ComandaStatusClosed, "cashier", now))
		err := c.Transition(ComandaStatusOpen, "cashier", now)
		assert.True(t, errors.Is(err, shared.ErrInvalidTransition))
	})

	t.Run("unknown status is a validation error", func(t *testing.T) {
		c := newTestComanda(t)
		err := c.Transition("ARCHIVED", "cashier", now)
		assert.True(t, errors.Is(err, shared.ErrInvalidInput))
	})

	t.Run("raises status changed event", func(t *testing.T) {
		c := newTestComanda(t)
		c.ClearDomainEvents()
		require.NoError(t, c.Transition(ComandaStatusPaid, "cashier", now))
		ev, ok := c.GetDomainEvents()[0].(*ComandaStatusChangedEvent)
		require.True(t, ok)
		assert.Equal(t, ComandaStatusOpen, ev.From)
		assert.Equal(t, ComandaStatusPaid, ev.To)
	})
}

func activeTotal(c *Comanda) decimal.Decimal {
	total := decimal.Zero
	for _, item := range c.ActiveItems() {
		total = total.Add(item.LineTotal)
	}
	return total
}

func TestComanda_Items(t *testing.T) {
	t.Run("line total and recalculated total", func(t *testing.T) {
		c := newTestComanda(t)
		i1, err := c.AddItem(uuid.New(), decimal.NewFromInt(2), decimal.RequireFromString("12.50"), "no onions", "waiter")
		require.NoError(t, err)
		assert.True(t, decimal.RequireFromString("25.00").Equal(i1.LineTotal))
		assert.Equal(t, ItemStatusPending, i1.Status)

		_, err = c.AddItem(uuid.New(), decimal.NewFromInt(1), decimal.RequireFromString("5"), "", "waiter")
		require.NoError(t, err)
		assert.True(t, decimal.NewFromInt(30).Equal(activeTotal(c)))

		_, err = c.RemoveItem(i1.ID, "waiter")
		require.NoError(t, err)
		assert.True(t, decimal.NewFromInt(5).Equal(activeTotal(c)))
		assert.Equal(t, 1, c.ItemCount())
		assert.Nil(t, c.GetItem(i1.ID))
	})

	t.Run("rejects invalid quantity and price", func(t *testing.T) {
		c := newTestComanda(t)
		_, err := c.AddItem(uuid.New(), decimal.Zero, decimal.NewFromInt(1), "", "waiter")
		assert.True(t, errors.Is(err, shared.ErrInvalidInput))
		_, err = c.AddItem(uuid.New(), decimal.NewFromInt(1), decimal.NewFromInt(-1), "", "waiter")
		assert.True(t, errors.Is(err, shared.ErrInvalidInput))
		assert.Empty(t, c.Items)
	})

	t.Run("fractional quantity is rounded to cents per line", func(t *testing.T) {
		c := newTestComanda(t)
		i1, err := c.AddItem(uuid.New(), decimal.RequireFromString("0.333"), decimal.RequireFromString("10.00"), "", "waiter")
		require.NoError(t, err)
		assert.Equal(t, "3.33", i1.LineTotal.StringFixed(2))

		i2, err := c.AddItem(uuid.New(), decimal.RequireFromString("0.125"), decimal.RequireFromString("0.20"), "", "waiter")
		require.NoError(t, err)
		assert.Equal(t, "0.03", i2.LineTotal.StringFixed(2))

		assert.Equal(t, "3.36", activeTotal(c).StringFixed(2))
	})

	t.Run("free items are allowed", func(t *testing.T) {
		c := newTestComanda(t)
		item, err := c.AddItem(uuid.New(), decimal.NewFromInt(1), decimal.Zero, "courtesy", "waiter")
		require.NoError(t, err)
		assert.True(t, item.LineTotal.IsZero())
	})

	t.Run("terminal comanda rejects item changes", func(t *testing.T) {
		c := newTestComanda(t)
		item, err := c.AddItem(uuid.New(), decimal.NewFromInt(1), decimal.NewFromInt(3), "", "waiter")
		require.NoError(t, err)
		require.NoError(t, c.Transition(ComandaStatusCancelled, "manager", time.Now()))

		_, err = c.AddItem(uuid.New(), decimal.NewFromInt(1), decimal.NewFromInt(3), "", "waiter")
		assert.True(t, errors.Is(err, shared.ErrInvalidState))
		_, err = c.RemoveItem(item.ID, "waiter")
		assert.True(t, errors.Is(err, shared.ErrInvalidState))
	})

	t.Run("remove unknown item", func(t *testing.T) {
		c := newTestComanda(t)
		_, err := c.RemoveItem(uuid.New(), "waiter")
		assert.True(t, errors.Is(err, shared.ErrNotFound))
	})
}

func TestTable(t *testing.T) {
	t.Run("defaults to free", func(t *testing.T) {
		tbl, err := NewTable(uuid.New(), " 12 ", 4, "", "staff")
		require.NoError(t, err)
		assert.Equal(t, TableStatusFree, tbl.Status)
		assert.Equal(t, "12", tbl.Number)
	})

	t.Run("validates attributes", func(t *testing.T) {
		_, err := NewTable(uuid.New(), "", 4, "", "staff")
		assert.True(t, errors.Is(err, shared.ErrInvalidInput))
		_, err = NewTable(uuid.New(), "1", 0, "", "staff")
		assert.True(t, errors.Is(err, shared.ErrInvalidInput))
		_, err = NewTable(uuid.New(), "1", 2, "BROKEN", "staff")
		assert.True(t, errors.Is(err, shared.ErrInvalidInput))
	})

	t.Run("occupy and release", func(t *testing.T) {
		tbl, err := NewTable(uuid.New(), "3", 2, TableStatusReserved, "staff")
		require.NoError(t, err)
		require.NoError(t, tbl.Occupy("waiter"))
		assert.Equal(t, TableStatusOccupied, tbl.Status)

		tbl.Release(2, "cashier")
		assert.Equal(t, TableStatusFree, tbl.Status)
		ev, ok := tbl.GetDomainEvents()[0].(*TableClosedEvent)
		require.True(t, ok)
		assert.Equal(t, 2, ev.SettledComandas)
	})

	t.Run("maintenance blocks occupation", func(t *testing.T) {
		tbl, err := NewTable(uuid.New(), "4", 2, TableStatusMaintenance, "staff")
		require.NoError(t, err)
		err = tbl.Occupy("waiter")
		assert.True(t, errors.Is(err, shared.ErrInvalidState))
		assert.Equal(t, TableStatusMaintenance, tbl.Status)
	})

	t.Run("duplicate number error is a duplicate key", func(t *testing.T) {
		assert.True(t, errors.Is(ErrDuplicateTableNumber, shared.ErrDuplicateKey))
	})
}
