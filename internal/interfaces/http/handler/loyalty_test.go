package handler

import (
	"net/http"
	"testing"

	"github.com/google/uuid"
	loyaltyapp "github.com/pluvyt/backend/internal/application/loyalty"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func enrollClient(t *testing.T, s *testServer, token string) loyaltyapp.ClientResponse {
	t.Helper()
	rec := s.do(http.MethodPost, "/api/v1/clients", token, map[string]any{"person_id": uuid.New()})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var client loyaltyapp.ClientResponse
	decode(t, rec, &client)
	return client
}

func TestPointsHandler_Flow(t *testing.T) {
	s := newTestServer(t)
	token := s.token(t, "point-transactions")
	client := enrollClient(t, s, token)

	var credit loyaltyapp.PointTransactionResponse

	t.Run("credit", func(t *testing.T) {
		rec := s.do(http.MethodPost, "/api/v1/point-transactions", token, map[string]any{
			"client_id": client.ID,
			"kind":      "CREDIT",
			"points":    100,
			"origin":    "PROMO",
		})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		decode(t, rec, &credit)
		assert.Equal(t, int64(100), credit.ResultingBalance)
		assert.Equal(t, int64(1), credit.Sequence)
		assert.Equal(t, "caixa", credit.CreatedBy)
	})

	t.Run("debit beyond balance", func(t *testing.T) {
		rec := s.do(http.MethodPost, "/api/v1/point-transactions", token, map[string]any{
			"client_id": client.ID,
			"kind":      "DEBIT",
			"points":    101,
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "ERR_INSUFFICIENT_BALANCE", errorCode(t, rec))
	})

	t.Run("debit within balance", func(t *testing.T) {
		rec := s.do(http.MethodPost, "/api/v1/point-transactions", token, map[string]any{
			"client_id": client.ID,
			"kind":      "DEBIT",
			"points":    30,
			"origin":    "REDEMPTION",
		})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		var tx loyaltyapp.PointTransactionResponse
		decode(t, rec, &tx)
		assert.Equal(t, int64(70), tx.ResultingBalance)
	})

	t.Run("validation", func(t *testing.T) {
		rec := s.do(http.MethodPost, "/api/v1/point-transactions", token, map[string]any{
			"client_id": client.ID,
			"kind":      "GIFT",
			"points":    0,
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "ERR_VALIDATION", errorCode(t, rec))
	})

	t.Run("list with meta", func(t *testing.T) {
		rec := s.do(http.MethodGet, "/api/v1/point-transactions?client_id="+client.ID.String()+"&page_size=1", token, nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var txs []loyaltyapp.PointTransactionResponse
		env := decode(t, rec, &txs)
		require.NotNil(t, env.Meta)
		assert.Equal(t, int64(2), env.Meta.Total)
		assert.Equal(t, 1, env.Meta.PageSize)
		assert.Equal(t, 2, env.Meta.TotalPages)
		assert.Len(t, txs, 1)
	})

	t.Run("get", func(t *testing.T) {
		rec := s.do(http.MethodGet, "/api/v1/point-transactions/"+credit.ID.String(), token, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var tx loyaltyapp.PointTransactionResponse
		decode(t, rec, &tx)
		assert.Equal(t, credit.ID, tx.ID)
	})

	t.Run("reversal is guarded by the balance", func(t *testing.T) {
		rec := s.do(http.MethodDelete, "/api/v1/point-transactions/"+credit.ID.String(), token, map[string]any{"note": "estorno"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "ERR_INSUFFICIENT_BALANCE", errorCode(t, rec))
	})

	t.Run("reversal without reference debits the balance", func(t *testing.T) {
		rec := s.do(http.MethodPost, "/api/v1/point-transactions", token, map[string]any{
			"client_id": client.ID,
			"kind":      "REVERSAL",
			"points":    30,
			"origin":    "ADJUSTMENT",
		})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		var tx loyaltyapp.PointTransactionResponse
		decode(t, rec, &tx)
		assert.Equal(t, "REVERSAL", tx.Kind)
		assert.Equal(t, int64(40), tx.ResultingBalance)
		assert.Nil(t, tx.ReversalOf)
	})

	t.Run("malformed id", func(t *testing.T) {
		rec := s.do(http.MethodGet, "/api/v1/point-transactions/not-a-uuid", token, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "ERR_BAD_REQUEST", errorCode(t, rec))
	})

	t.Run("unknown id", func(t *testing.T) {
		rec := s.do(http.MethodGet, "/api/v1/point-transactions/"+uuid.NewString(), token, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("other tenant sees nothing", func(t *testing.T) {
		rec := s.do(http.MethodGet, "/api/v1/point-transactions/"+credit.ID.String(), s.tokenFor(t, uuid.New()), nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestPointsHandler_Reverse(t *testing.T) {
	s := newTestServer(t)
	token := s.token(t)
	client := enrollClient(t, s, token)

	rec := s.do(http.MethodPost, "/api/v1/point-transactions", token, map[string]any{
		"client_id": client.ID,
		"kind":      "CREDIT",
		"points":    40,
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var credit loyaltyapp.PointTransactionResponse
	decode(t, rec, &credit)

	t.Run("without body", func(t *testing.T) {
		rec := s.do(http.MethodDelete, "/api/v1/point-transactions/"+credit.ID.String(), token, nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var reversal loyaltyapp.PointTransactionResponse
		decode(t, rec, &reversal)
		assert.Equal(t, "REVERSAL", reversal.Kind)
		assert.Equal(t, int64(0), reversal.ResultingBalance)
		require.NotNil(t, reversal.ReversalOf)
		assert.Equal(t, credit.ID, *reversal.ReversalOf)
	})

	t.Run("only once", func(t *testing.T) {
		rec := s.do(http.MethodDelete, "/api/v1/point-transactions/"+credit.ID.String(), token, nil)
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, "ERR_ALREADY_EXISTS", errorCode(t, rec))
	})
}

func TestClientHandler(t *testing.T) {
	s := newTestServer(t)
	token := s.token(t)
	personID := uuid.New()

	rec := s.do(http.MethodPost, "/api/v1/clients", token, map[string]any{"person_id": personID})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var client loyaltyapp.ClientResponse
	decode(t, rec, &client)
	assert.Equal(t, int64(0), client.Balance)

	t.Run("duplicate enrollment", func(t *testing.T) {
		rec := s.do(http.MethodPost, "/api/v1/clients", token, map[string]any{"person_id": personID})
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, "ERR_DUPLICATE_KEY", errorCode(t, rec))
	})

	t.Run("missing person", func(t *testing.T) {
		rec := s.do(http.MethodPost, "/api/v1/clients", token, map[string]any{})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	for _, points := range []int{10, 25} {
		rec := s.do(http.MethodPost, "/api/v1/point-transactions", token, map[string]any{
			"client_id": client.ID, "kind": "CREDIT", "points": points,
		})
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	t.Run("get", func(t *testing.T) {
		rec := s.do(http.MethodGet, "/api/v1/clients/"+client.ID.String(), token, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var got loyaltyapp.ClientResponse
		decode(t, rec, &got)
		assert.Equal(t, int64(35), got.Balance)
		assert.Equal(t, int64(2), got.LastSequence)
	})

	t.Run("list", func(t *testing.T) {
		enrollClient(t, s, token)
		rec := s.do(http.MethodGet, "/api/v1/clients?order_by=balance&order_dir=desc", token, nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var clients []loyaltyapp.ClientResponse
		env := decode(t, rec, &clients)
		assert.Equal(t, int64(2), env.Meta.Total)
		require.Len(t, clients, 2)
		assert.Equal(t, client.ID, clients[0].ID)
	})

	t.Run("unsupported order", func(t *testing.T) {
		rec := s.do(http.MethodGet, "/api/v1/clients?order_by=password", token, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("history is chronological", func(t *testing.T) {
		rec := s.do(http.MethodGet, "/api/v1/clients/"+client.ID.String()+"/transactions", token, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var history []loyaltyapp.PointTransactionResponse
		decode(t, rec, &history)
		require.Len(t, history, 2)
		assert.Equal(t, int64(10), history[0].ResultingBalance)
		assert.Equal(t, int64(35), history[1].ResultingBalance)
	})

	t.Run("audit", func(t *testing.T) {
		rec := s.do(http.MethodGet, "/api/v1/clients/"+client.ID.String()+"/audit", token, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var audit loyaltyapp.LedgerAudit
		decode(t, rec, &audit)
		assert.True(t, audit.Consistent)
		assert.Equal(t, int64(35), audit.ReplayedBalance)
		assert.Equal(t, 2, audit.Entries)
	})
}
