package loyalty

import (
	"time"

	"github.com/google/uuid"
	"github.com/pluvyt/backend/internal/domain/loyalty"
)

// =============================================================================
// Client DTOs
// =============================================================================

// EnrollClientRequest enrolls a person in the loyalty club
type EnrollClientRequest struct {
	PersonID uuid.UUID `json:"person_id" binding:"required"`
}

// ClientResponse represents a loyalty client in API responses
type ClientResponse struct {
	ID           uuid.UUID `json:"id"`
	TenantID     uuid.UUID `json:"tenant_id"`
	PersonID     uuid.UUID `json:"person_id"`
	Balance      int64     `json:"balance"`
	LastSequence int64     `json:"last_sequence"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ToClientResponse converts a domain client to its response
func ToClientResponse(c *loyalty.Client) ClientResponse {
	return ClientResponse{
		ID:           c.ID,
		TenantID:     c.TenantID,
		PersonID:     c.PersonID,
		Balance:      c.Balance,
		LastSequence: c.LastSequence,
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
	}
}

// =============================================================================
// Point transaction DTOs
// =============================================================================

// CreatePointTransactionRequest applies a movement to a client balance
type CreatePointTransactionRequest struct {
	ClientID   uuid.UUID  `json:"client_id" binding:"required"`
	Kind       string     `json:"kind" binding:"required,oneof=CREDIT DEBIT REVERSAL"`
	Points     int64      `json:"points" binding:"required,gt=0"`
	Origin     string     `json:"origin" binding:"omitempty,oneof=MANUAL REDEMPTION ADJUSTMENT PROMO OTHER"`
	RewardRef  *uuid.UUID `json:"reward_ref"`
	StoreRef   *uuid.UUID `json:"store_ref"`
	ReversalOf *uuid.UUID `json:"reversal_of"`
	Note       string     `json:"note" binding:"max=500"`
}

// ReversePointTransactionRequest compensates an earlier credit
type ReversePointTransactionRequest struct {
	Note string `json:"note" binding:"max=500"`
}

// PointTransactionListFilter narrows a transaction listing
type PointTransactionListFilter struct {
	ClientID *uuid.UUID
	Kind     string
	Origin   string
	Page     int
	PageSize int
}

// PointTransactionResponse represents a ledger entry in API responses
type PointTransactionResponse struct {
	ID               uuid.UUID  `json:"id"`
	TenantID         uuid.UUID  `json:"tenant_id"`
	ClientID         uuid.UUID  `json:"client_id"`
	Kind             string     `json:"kind"`
	Points           int64      `json:"points"`
	ResultingBalance int64      `json:"resulting_balance"`
	Sequence         int64      `json:"sequence"`
	Origin           string     `json:"origin"`
	RewardRef        *uuid.UUID `json:"reward_ref,omitempty"`
	StoreRef         *uuid.UUID `json:"store_ref,omitempty"`
	Note             string     `json:"note,omitempty"`
	ReversalOf       *uuid.UUID `json:"reversal_of,omitempty"`
	CreatedBy        string     `json:"created_by"`
	CreatedAt        time.Time  `json:"created_at"`
}

// ToPointTransactionResponse converts a ledger entry to its response
func ToPointTransactionResponse(t *loyalty.PointTransaction) PointTransactionResponse {
	return PointTransactionResponse{
		ID:               t.ID,
		TenantID:         t.TenantID,
		ClientID:         t.ClientID,
		Kind:             string(t.Kind),
		Points:           t.Points,
		ResultingBalance: t.ResultingBalance,
		Sequence:         t.Sequence,
		Origin:           string(t.Origin),
		RewardRef:        t.RewardRef,
		StoreRef:         t.StoreRef,
		Note:             t.Note,
		ReversalOf:       t.ReversalOf,
		CreatedBy:        t.CreatedBy,
		CreatedAt:        t.CreatedAt,
	}
}

// ToPointTransactionResponses converts a slice of ledger entries
func ToPointTransactionResponses(txs []*loyalty.PointTransaction) []PointTransactionResponse {
	out := make([]PointTransactionResponse, len(txs))
	for i, t := range txs {
		out[i] = ToPointTransactionResponse(t)
	}
	return out
}

// LedgerAudit is the result of replaying a client's history
type LedgerAudit struct {
	ClientID        uuid.UUID `json:"client_id"`
	StoredBalance   int64     `json:"stored_balance"`
	ReplayedBalance int64     `json:"replayed_balance"`
	Entries         int       `json:"entries"`
	Consistent      bool      `json:"consistent"`
	Problem         string    `json:"problem,omitempty"`
}
