package loyalty

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/pluvyt/backend/internal/domain/loyalty"
	"github.com/pluvyt/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// VerificationPolicy selects which movements require a verified owner
type VerificationPolicy string

const (
	// VerificationPolicyAll blocks every movement while the owner is unverified
	VerificationPolicyAll VerificationPolicy = "all"
	// VerificationPolicySpend blocks only DEBIT and REVERSAL
	VerificationPolicySpend VerificationPolicy = "spend"
)

// ParseVerificationPolicy maps a config value to a policy; unknown values
// fall back to VerificationPolicyAll.
func ParseVerificationPolicy(v string) VerificationPolicy {
	if VerificationPolicy(v) == VerificationPolicySpend {
		return VerificationPolicySpend
	}
	return VerificationPolicyAll
}

func (p VerificationPolicy) blocks(kind loyalty.TransactionKind) bool {
	if p == VerificationPolicySpend {
		return kind.IsSpend()
	}
	return true
}

// AccountVerifier reports whether the user account behind a person still
// has an outstanding e-mail verification.
type AccountVerifier interface {
	IsPendingVerification(ctx context.Context, tenantID, personID uuid.UUID) (bool, error)
}

// PointsService is the workflow in front of the ledger used by the HTTP
// layer. It checks the owner's verification status before any movement.
type PointsService struct {
	ledger   *Ledger
	verifier AccountVerifier
	policy   VerificationPolicy
	logger   *zap.Logger
}

// NewPointsService creates a new PointsService
func NewPointsService(ledger *Ledger, verifier AccountVerifier, policy VerificationPolicy, logger *zap.Logger) *PointsService {
	return &PointsService{
		ledger:   ledger,
		verifier: verifier,
		policy:   policy,
		logger:   logger,
	}
}

// Create applies a movement requested through the API. A REVERSAL without
// reversal_of is a plain debit; with it the ledger checks the linked credit.
func (s *PointsService) Create(ctx context.Context, tenantID uuid.UUID, actor string, req CreatePointTransactionRequest) (*PointTransactionResponse, error) {
	kind := loyalty.TransactionKind(req.Kind)
	origin := loyalty.Origin(req.Origin)
	if origin == "" {
		origin = loyalty.OriginManual
	}

	client, err := s.ledger.GetClient(ctx, tenantID, req.ClientID)
	if err != nil {
		return nil, err
	}
	if err := s.checkVerified(ctx, tenantID, client, kind); err != nil {
		return nil, err
	}

	tx, err := s.ledger.ApplyTransaction(ctx, tenantID, client.ID, loyalty.ApplyInput{
		Kind:   kind,
		Points: req.Points,
		Origin: origin,
		Refs: loyalty.TransactionRefs{
			RewardRef:  req.RewardRef,
			StoreRef:   req.StoreRef,
			Note:       req.Note,
			ReversalOf: req.ReversalOf,
		},
		Actor: actor,
	})
	if err != nil {
		return nil, err
	}
	resp := ToPointTransactionResponse(tx)
	return &resp, nil
}

// Reverse compensates an earlier credit with a REVERSAL entry
func (s *PointsService) Reverse(ctx context.Context, tenantID, transactionID uuid.UUID, actor, note string) (*PointTransactionResponse, error) {
	original, err := s.ledger.GetTransaction(ctx, tenantID, transactionID)
	if err != nil {
		return nil, err
	}
	client, err := s.ledger.GetClient(ctx, tenantID, original.ClientID)
	if err != nil {
		return nil, err
	}
	if err := s.checkVerified(ctx, tenantID, client, loyalty.KindReversal); err != nil {
		return nil, err
	}

	tx, err := s.ledger.ReverseTransaction(ctx, tenantID, transactionID, actor, note)
	if err != nil {
		return nil, err
	}
	resp := ToPointTransactionResponse(tx)
	return &resp, nil
}

// Get returns a single entry
func (s *PointsService) Get(ctx context.Context, tenantID, transactionID uuid.UUID) (*PointTransactionResponse, error) {
	tx, err := s.ledger.GetTransaction(ctx, tenantID, transactionID)
	if err != nil {
		return nil, err
	}
	resp := ToPointTransactionResponse(tx)
	return &resp, nil
}

// List returns a page of entries, newest first
func (s *PointsService) List(ctx context.Context, tenantID uuid.UUID, filter PointTransactionListFilter) ([]PointTransactionResponse, int64, error) {
	txs, total, err := s.ledger.ListTransactions(ctx, tenantID, loyalty.TransactionFilter{
		Filter:   shared.Filter{Page: filter.Page, PageSize: filter.PageSize},
		ClientID: filter.ClientID,
		Kind:     loyalty.TransactionKind(filter.Kind),
		Origin:   loyalty.Origin(filter.Origin),
	})
	if err != nil {
		return nil, 0, err
	}
	return ToPointTransactionResponses(txs), total, nil
}

func (s *PointsService) checkVerified(ctx context.Context, tenantID uuid.UUID, client *loyalty.Client, kind loyalty.TransactionKind) error {
	if !s.policy.blocks(kind) {
		return nil
	}
	pending, err := s.verifier.IsPendingVerification(ctx, tenantID, client.PersonID)
	if err != nil {
		return shared.AsStorageError(fmt.Errorf("verification lookup: %w", err))
	}
	if pending {
		s.logger.Warn("Point transaction blocked for unverified account",
			zap.String("tenant_id", tenantID.String()),
			zap.String("client_id", client.ID.String()),
			zap.String("kind", string(kind)))
		return shared.ErrUnverifiedAccount
	}
	return nil
}
