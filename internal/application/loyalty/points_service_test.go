package loyalty

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/pluvyt/backend/internal/domain/loyalty"
	"github.com/pluvyt/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestParseVerificationPolicy(t *testing.T) {
	assert.Equal(t, VerificationPolicySpend, ParseVerificationPolicy("spend"))
	assert.Equal(t, VerificationPolicyAll, ParseVerificationPolicy("all"))
	assert.Equal(t, VerificationPolicyAll, ParseVerificationPolicy(""))
	assert.Equal(t, VerificationPolicyAll, ParseVerificationPolicy("bogus"))
}

func TestPointsService_Create(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()

	setup := func(t *testing.T, policy VerificationPolicy, balance int64) (*PointsService, *MockAccountVerifier, *loyalty.Client) {
		s := newMemoryStore()
		client := seedClient(t, s, tenantID, balance)
		verifier := new(MockAccountVerifier)
		svc := NewPointsService(newMemoryLedger(s), verifier, policy, zapNop())
		return svc, verifier, client
	}

	t.Run("credits a verified owner", func(t *testing.T) {
		svc, verifier, client := setup(t, VerificationPolicyAll, 100)
		verifier.On("IsPendingVerification", ctx, tenantID, client.PersonID).Return(false, nil)

		resp, err := svc.Create(ctx, tenantID, "staff", CreatePointTransactionRequest{
			ClientID: client.ID, Kind: "CREDIT", Points: 50,
		})
		require.NoError(t, err)
		assert.Equal(t, int64(150), resp.ResultingBalance)
		assert.Equal(t, "MANUAL", resp.Origin)
		assert.Equal(t, "staff", resp.CreatedBy)
	})

	t.Run("unverified owner is blocked under policy all", func(t *testing.T) {
		svc, verifier, client := setup(t, VerificationPolicyAll, 100)
		verifier.On("IsPendingVerification", ctx, tenantID, client.PersonID).Return(true, nil)

		_, err := svc.Create(ctx, tenantID, "staff", CreatePointTransactionRequest{
			ClientID: client.ID, Kind: "CREDIT", Points: 5,
		})
		assert.True(t, errors.Is(err, shared.ErrUnverifiedAccount))

		stored, err := svc.ledger.GetClient(ctx, tenantID, client.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(100), stored.Balance)
	})

	t.Run("policy spend lets credits through", func(t *testing.T) {
		svc, verifier, client := setup(t, VerificationPolicySpend, 100)

		resp, err := svc.Create(ctx, tenantID, "staff", CreatePointTransactionRequest{
			ClientID: client.ID, Kind: "CREDIT", Points: 5,
		})
		require.NoError(t, err)
		assert.Equal(t, int64(105), resp.ResultingBalance)
		verifier.AssertNotCalled(t, "IsPendingVerification", mock.Anything, mock.Anything, mock.Anything)

		verifier.On("IsPendingVerification", ctx, tenantID, client.PersonID).Return(true, nil)
		_, err = svc.Create(ctx, tenantID, "staff", CreatePointTransactionRequest{
			ClientID: client.ID, Kind: "DEBIT", Points: 5,
		})
		assert.True(t, errors.Is(err, shared.ErrUnverifiedAccount))
	})

	t.Run("missing client is not found before verification", func(t *testing.T) {
		svc, verifier, _ := setup(t, VerificationPolicyAll, 0)

		_, err := svc.Create(ctx, tenantID, "staff", CreatePointTransactionRequest{
			ClientID: uuid.New(), Kind: "CREDIT", Points: 5,
		})
		assert.True(t, errors.Is(err, shared.ErrNotFound))
		verifier.AssertNotCalled(t, "IsPendingVerification", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("verifier failure is a storage error", func(t *testing.T) {
		svc, verifier, client := setup(t, VerificationPolicyAll, 0)
		verifier.On("IsPendingVerification", ctx, tenantID, client.PersonID).Return(false, errors.New("db down"))

		_, err := svc.Create(ctx, tenantID, "staff", CreatePointTransactionRequest{
			ClientID: client.ID, Kind: "CREDIT", Points: 5,
		})
		assert.True(t, errors.Is(err, shared.ErrStorage))
	})

	t.Run("reversal without reference is a plain debit", func(t *testing.T) {
		svc, verifier, client := setup(t, VerificationPolicyAll, 100)
		verifier.On("IsPendingVerification", ctx, tenantID, client.PersonID).Return(false, nil)

		rev, err := svc.Create(ctx, tenantID, "staff", CreatePointTransactionRequest{
			ClientID: client.ID, Kind: "REVERSAL", Points: 30, Origin: "ADJUSTMENT",
		})
		require.NoError(t, err)
		assert.Equal(t, "REVERSAL", rev.Kind)
		assert.Equal(t, int64(70), rev.ResultingBalance)
		assert.Nil(t, rev.ReversalOf)
	})

	t.Run("linked reversal through create is accepted once", func(t *testing.T) {
		svc, verifier, client := setup(t, VerificationPolicyAll, 0)
		verifier.On("IsPendingVerification", ctx, tenantID, client.PersonID).Return(false, nil)

		original, err := svc.Create(ctx, tenantID, "staff", CreatePointTransactionRequest{
			ClientID: client.ID, Kind: "CREDIT", Points: 40,
		})
		require.NoError(t, err)

		_, err = svc.Create(ctx, tenantID, "staff", CreatePointTransactionRequest{
			ClientID: client.ID, Kind: "REVERSAL", Points: 41, ReversalOf: &original.ID,
		})
		assert.True(t, errors.Is(err, shared.ErrInvalidInput))

		rev, err := svc.Create(ctx, tenantID, "staff", CreatePointTransactionRequest{
			ClientID: client.ID, Kind: "REVERSAL", Points: 40, ReversalOf: &original.ID,
		})
		require.NoError(t, err)
		assert.Equal(t, int64(0), rev.ResultingBalance)
		assert.Equal(t, &original.ID, rev.ReversalOf)

		_, err = svc.Create(ctx, tenantID, "staff", CreatePointTransactionRequest{
			ClientID: client.ID, Kind: "REVERSAL", Points: 1, ReversalOf: &original.ID,
		})
		assert.True(t, errors.Is(err, shared.ErrAlreadyExists))
	})
}

func TestPointsService_Reverse(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	s := newMemoryStore()
	client := seedClient(t, s, tenantID, 0)
	ledger := newMemoryLedger(s)
	original, err := ledger.ApplyTransaction(ctx, tenantID, client.ID, credit(25))
	require.NoError(t, err)

	verifier := new(MockAccountVerifier)
	verifier.On("IsPendingVerification", ctx, tenantID, client.PersonID).Return(false, nil)
	svc := NewPointsService(ledger, verifier, VerificationPolicySpend, zapNop())

	rev, err := svc.Reverse(ctx, tenantID, original.ID, "manager", "wrong customer")
	require.NoError(t, err)
	assert.Equal(t, "REVERSAL", rev.Kind)
	assert.Equal(t, "wrong customer", rev.Note)

	_, err = svc.Reverse(ctx, tenantID, uuid.New(), "manager", "")
	assert.True(t, errors.Is(err, shared.ErrNotFound))

	list, total, err := svc.List(ctx, tenantID, PointTransactionListFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Equal(t, rev.ID, list[0].ID)
}
