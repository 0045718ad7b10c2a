package loyalty

import (
	"errors"
	"math"
	"testing"

	"github.com/google/uuid"
	"github.com/pluvyt/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, balance int64) *Client {
	t.Helper()
	c, err := NewClient(uuid.New(), uuid.New(), "tester")
	require.NoError(t, err)
	if balance > 0 {
		_, err = c.Apply(ApplyInput{Kind: KindCredit, Points: balance, Origin: OriginManual, Actor: "tester"})
		require.NoError(t, err)
	}
	c.ClearDomainEvents()
	return c
}

func TestNewClient(t *testing.T) {
	t.Run("starts with zero balance", func(t *testing.T) {
		c, err := NewClient(uuid.New(), uuid.New(), "staff")
		require.NoError(t, err)
		assert.Equal(t, int64(0), c.Balance)
		assert.Equal(t, int64(0), c.LastSequence)
		assert.Equal(t, "staff", c.CreatedBy)
	})

	t.Run("rejects empty identifiers", func(t *testing.T) {
		_, err := NewClient(uuid.Nil, uuid.New(), "staff")
		assert.True(t, errors.Is(err, shared.ErrInvalidInput))

		_, err = NewClient(uuid.New(), uuid.Nil, "staff")
		assert.True(t, errors.Is(err, shared.ErrInvalidInput))
	})
}

func TestClient_Apply(t *testing.T) {
	t.Run("credit then over-debit keeps balance", func(t *testing.T) {
		c := newTestClient(t, 100)

		tx, err := c.Apply(ApplyInput{Kind: KindCredit, Points: 50, Origin: OriginPromo, Actor: "staff"})
		require.NoError(t, err)
		assert.Equal(t, int64(150), c.Balance)
		assert.Equal(t, int64(150), tx.ResultingBalance)
		assert.Equal(t, int64(2), tx.Sequence)

		_, err = c.Apply(ApplyInput{Kind: KindDebit, Points: 200, Origin: OriginRedemption, Actor: "staff"})
		assert.True(t, errors.Is(err, shared.ErrInsufficientBalance))
		assert.Equal(t, int64(150), c.Balance)
		assert.Equal(t, int64(2), c.LastSequence)
	})

	t.Run("debit to exactly zero is allowed", func(t *testing.T) {
		c := newTestClient(t, 30)
		tx, err := c.Apply(ApplyInput{Kind: KindDebit, Points: 30, Origin: OriginRedemption})
		require.NoError(t, err)
		assert.Equal(t, int64(0), tx.ResultingBalance)
	})

	t.Run("unlinked reversal is a plain debit", func(t *testing.T) {
		c := newTestClient(t, 100)

		tx, err := c.Apply(ApplyInput{Kind: KindReversal, Points: 30, Origin: OriginAdjustment})
		require.NoError(t, err)
		assert.Equal(t, int64(70), tx.ResultingBalance)
		assert.Nil(t, tx.ReversalOf)

		_, err = c.Apply(ApplyInput{Kind: KindReversal, Points: 71, Origin: OriginAdjustment})
		assert.True(t, errors.Is(err, shared.ErrInsufficientBalance))
		assert.Equal(t, int64(70), c.Balance)
	})

	t.Run("reversal keeps its reference", func(t *testing.T) {
		c := newTestClient(t, 40)
		ref := uuid.New()
		tx, err := c.Apply(ApplyInput{
			Kind:   KindReversal,
			Points: 10,
			Origin: OriginAdjustment,
			Refs:   TransactionRefs{ReversalOf: &ref},
		})
		require.NoError(t, err)
		assert.Equal(t, int64(30), tx.ResultingBalance)
		assert.Equal(t, &ref, tx.ReversalOf)
	})

	t.Run("only a reversal may reference another entry", func(t *testing.T) {
		c := newTestClient(t, 40)
		ref := uuid.New()
		_, err := c.Apply(ApplyInput{
			Kind:   KindCredit,
			Points: 10,
			Origin: OriginManual,
			Refs:   TransactionRefs{ReversalOf: &ref},
		})
		assert.True(t, errors.Is(err, shared.ErrInvalidInput))
		assert.Equal(t, int64(40), c.Balance)
	})

	t.Run("credit that would overflow is rejected", func(t *testing.T) {
		c := newTestClient(t, 0)
		_, err := c.Apply(ApplyInput{Kind: KindCredit, Points: 1 << 62, Origin: OriginManual})
		require.NoError(t, err)

		_, err = c.Apply(ApplyInput{Kind: KindCredit, Points: 1 << 62, Origin: OriginManual})
		assert.True(t, errors.Is(err, shared.ErrInvalidInput))
		assert.Equal(t, int64(1<<62), c.Balance)
		assert.Equal(t, int64(1), c.LastSequence)

		_, err = c.Apply(ApplyInput{Kind: KindCredit, Points: math.MaxInt64 - 1<<62, Origin: OriginManual})
		require.NoError(t, err)
		assert.Equal(t, int64(math.MaxInt64), c.Balance)
	})

	invalid := []struct {
		name string
		in   ApplyInput
	}{
		{"zero points", ApplyInput{Kind: KindCredit, Points: 0, Origin: OriginManual}},
		{"negative points", ApplyInput{Kind: KindCredit, Points: -5, Origin: OriginManual}},
		{"unknown kind", ApplyInput{Kind: "GIFT", Points: 5, Origin: OriginManual}},
		{"unknown origin", ApplyInput{Kind: KindCredit, Points: 5, Origin: "LOTTERY"}},
	}
	for _, tc := range invalid {
		t.Run(tc.name, func(t *testing.T) {
			c := newTestClient(t, 10)
			_, err := c.Apply(tc.in)
			assert.True(t, errors.Is(err, shared.ErrInvalidInput))
			assert.Equal(t, int64(10), c.Balance)
			assert.Empty(t, c.GetDomainEvents())
		})
	}

	t.Run("raises a points applied event", func(t *testing.T) {
		c := newTestClient(t, 0)
		tx, err := c.Apply(ApplyInput{Kind: KindCredit, Points: 7, Origin: OriginManual})
		require.NoError(t, err)
		events := c.GetDomainEvents()
		require.Len(t, events, 1)
		ev, ok := events[0].(*PointsAppliedEvent)
		require.True(t, ok)
		assert.Equal(t, tx.ID, ev.TransactionID)
		assert.Equal(t, int64(7), ev.ResultingBalance)
	})
}

func TestReplayBalance(t *testing.T) {
	t.Run("history reconstructs balance", func(t *testing.T) {
		c := newTestClient(t, 0)
		var history []*PointTransaction
		steps := []ApplyInput{
			{Kind: KindCredit, Points: 100, Origin: OriginManual},
			{Kind: KindDebit, Points: 30, Origin: OriginRedemption},
			{Kind: KindCredit, Points: 5, Origin: OriginPromo},
			{Kind: KindDebit, Points: 75, Origin: OriginRedemption},
		}
		for _, s := range steps {
			tx, err := c.Apply(s)
			require.NoError(t, err)
			history = append(history, tx)
		}

		balance, err := ReplayBalance(history)
		require.NoError(t, err)
		assert.Equal(t, c.Balance, balance)
		assert.Equal(t, int64(0), balance)
	})

	t.Run("detects tampered snapshot", func(t *testing.T) {
		c := newTestClient(t, 0)
		tx1, _ := c.Apply(ApplyInput{Kind: KindCredit, Points: 10, Origin: OriginManual})
		tx2, _ := c.Apply(ApplyInput{Kind: KindCredit, Points: 10, Origin: OriginManual})
		tx2.ResultingBalance = 25

		_, err := ReplayBalance([]*PointTransaction{tx1, tx2})
		require.Error(t, err)
		assert.Contains(t, err.Error(), tx2.ID.String())
	})

	t.Run("detects sequence gap", func(t *testing.T) {
		c := newTestClient(t, 0)
		_, _ = c.Apply(ApplyInput{Kind: KindCredit, Points: 10, Origin: OriginManual})
		tx2, _ := c.Apply(ApplyInput{Kind: KindCredit, Points: 10, Origin: OriginManual})

		_, err := ReplayBalance([]*PointTransaction{tx2})
		require.Error(t, err)
	})

	t.Run("empty history is zero", func(t *testing.T) {
		balance, err := ReplayBalance(nil)
		require.NoError(t, err)
		assert.Equal(t, int64(0), balance)
	})
}

func TestTransactionKind(t *testing.T) {
	assert.Equal(t, int64(5), KindCredit.Signed(5))
	assert.Equal(t, int64(-5), KindDebit.Signed(5))
	assert.Equal(t, int64(-5), KindReversal.Signed(5))
	assert.False(t, TransactionKind("ESTORNO").IsValid())
	assert.True(t, KindReversal.IsSpend())
	assert.False(t, KindCredit.IsSpend())
}
