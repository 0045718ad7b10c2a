package loyalty

import (
	"github.com/google/uuid"
	"github.com/pluvyt/backend/internal/domain/shared"
)

// TransactionKind is the direction of a point movement
type TransactionKind string

const (
	// KindCredit adds points to the client balance
	KindCredit TransactionKind = "CREDIT"
	// KindDebit spends points from the client balance
	KindDebit TransactionKind = "DEBIT"
	// KindReversal takes points back. It may reference the credit it
	// compensates; an unlinked reversal behaves like a debit.
	KindReversal TransactionKind = "REVERSAL"
)

// String returns the string representation of TransactionKind
func (k TransactionKind) String() string {
	return string(k)
}

// IsValid returns true if the kind is known
func (k TransactionKind) IsValid() bool {
	switch k {
	case KindCredit, KindDebit, KindReversal:
		return true
	}
	return false
}

// IsSpend reports whether the kind lowers the balance
func (k TransactionKind) IsSpend() bool {
	return k == KindDebit || k == KindReversal
}

// Signed returns points with the sign this kind applies to a balance
func (k TransactionKind) Signed(points int64) int64 {
	if k.IsSpend() {
		return -points
	}
	return points
}

// Origin describes why points moved
type Origin string

const (
	OriginManual     Origin = "MANUAL"
	OriginRedemption Origin = "REDEMPTION"
	OriginAdjustment Origin = "ADJUSTMENT"
	OriginPromo      Origin = "PROMO"
	OriginOther      Origin = "OTHER"
)

// String returns the string representation of Origin
func (o Origin) String() string {
	return string(o)
}

// IsValid returns true if the origin is known
func (o Origin) IsValid() bool {
	switch o {
	case OriginManual, OriginRedemption, OriginAdjustment, OriginPromo, OriginOther:
		return true
	}
	return false
}

// TransactionRefs carries the optional references of a point transaction
type TransactionRefs struct {
	RewardRef  *uuid.UUID
	StoreRef   *uuid.UUID
	Note       string
	ReversalOf *uuid.UUID
}

// PointTransaction is an immutable entry of the points ledger.
// ResultingBalance is the client balance right after this entry was applied
// and Sequence orders the entries of one client starting at 1.
type PointTransaction struct {
	shared.BaseEntity
	TenantID         uuid.UUID
	ClientID         uuid.UUID
	Kind             TransactionKind
	Points           int64
	ResultingBalance int64
	Sequence         int64
	Origin           Origin
	RewardRef        *uuid.UUID
	StoreRef         *uuid.UUID
	Note             string
	ReversalOf       *uuid.UUID
	CreatedBy        string
}

// SignedPoints returns the delta this entry applied to the balance
func (t *PointTransaction) SignedPoints() int64 {
	return t.Kind.Signed(t.Points)
}

// IsReversible reports whether a compensating reversal may target this entry
func (t *PointTransaction) IsReversible() bool {
	return t.Kind == KindCredit
}

// ReplayBalance recomputes a balance from a history ordered by sequence and
// checks every snapshot along the way. It returns the final balance or an
// error naming the first entry that breaks the chain.
func ReplayBalance(history []*PointTransaction) (int64, error) {
	var balance int64
	for i, tx := range history {
		if tx.Sequence != int64(i+1) {
			return balance, shared.NewDomainError("LEDGER_GAP",
				"ledger sequence gap at transaction "+tx.ID.String())
		}
		balance += tx.SignedPoints()
		if balance < 0 || balance != tx.ResultingBalance {
			return balance, shared.NewDomainError("LEDGER_MISMATCH",
				"resulting balance mismatch at transaction "+tx.ID.String())
		}
	}
	return balance, nil
}
