package loyalty

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/pluvyt/backend/internal/domain/loyalty"
	"github.com/pluvyt/backend/internal/domain/shared"
	"github.com/pluvyt/backend/internal/infrastructure/logger"
	"github.com/pluvyt/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// Outcome labels reported to a Recorder
const (
	OutcomeApplied  = "applied"
	OutcomeRejected = "rejected"
	OutcomeFailed   = "failed"
)

// Recorder observes ledger movements for metrics
type Recorder interface {
	RecordPointTransaction(kind, outcome string)
}

type noopRecorder struct{}

func (noopRecorder) RecordPointTransaction(string, string) {}

// Ledger owns client balances and their append-only history. Every movement
// locks the client row, applies the domain guard and writes balance and
// entry in one transaction.
type Ledger struct {
	clientRepo loyalty.ClientRepository
	txRepo     loyalty.PointTransactionRepository
	txScope    TransactionScope
	recorder   Recorder
	logger     *zap.Logger
}

// NewLedger creates a new Ledger
func NewLedger(
	clientRepo loyalty.ClientRepository,
	txRepo loyalty.PointTransactionRepository,
	txScope TransactionScope,
	logger *zap.Logger,
) *Ledger {
	return &Ledger{
		clientRepo: clientRepo,
		txRepo:     txRepo,
		txScope:    txScope,
		recorder:   noopRecorder{},
		logger:     logger,
	}
}

// SetRecorder installs a metrics recorder
func (l *Ledger) SetRecorder(r Recorder) {
	if r != nil {
		l.recorder = r
	}
}

// ApplyTransaction moves points on a client balance and appends the entry
// stamped with the resulting balance. A REVERSAL naming the credit it
// compensates must belong to the same client, cannot exceed that credit and
// is accepted once. NotFound, InsufficientBalance and validation errors are
// returned as is; anything else becomes a StorageError after the
// transaction was rolled back.
func (l *Ledger) ApplyTransaction(ctx context.Context, tenantID, clientID uuid.UUID, in loyalty.ApplyInput) (*loyalty.PointTransaction, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "ledger", "apply",
		telemetry.SpanAttrTenantID, tenantID,
		telemetry.SpanAttrClientID, clientID,
		telemetry.SpanAttrKind, string(in.Kind),
		telemetry.SpanAttrPoints, in.Points)
	defer span.End()

	if err := in.Validate(); err != nil {
		l.recorder.RecordPointTransaction(string(in.Kind), OutcomeRejected)
		return nil, err
	}

	var (
		created *loyalty.PointTransaction
		events  []shared.DomainEvent
	)
	err := l.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		tx, raised, err := applyLocked(ctx, repos, tenantID, clientID, in)
		if err != nil {
			return err
		}
		created, events = tx, raised
		return nil
	})
	if err != nil {
		err = l.fail(in.Kind, tenantID, clientID, err)
		telemetry.RecordError(span, err)
		return nil, err
	}

	telemetry.SetAttributes(span, telemetry.SpanAttrTransactionID, created.ID)
	l.recorder.RecordPointTransaction(string(in.Kind), OutcomeApplied)
	l.logger.Info("Point transaction applied",
		zap.String("tenant_id", tenantID.String()),
		zap.String("client_id", clientID.String()),
		zap.String("kind", string(in.Kind)),
		zap.Int64("points", in.Points),
		zap.Int64("resulting_balance", created.ResultingBalance))
	logger.DomainEvents(l.logger, events)
	return created, nil
}

// ReverseTransaction appends a REVERSAL compensating an earlier credit.
// Only CREDIT entries can be reversed and each one only once.
func (l *Ledger) ReverseTransaction(ctx context.Context, tenantID, transactionID uuid.UUID, actor, note string) (*loyalty.PointTransaction, error) {
	var (
		created  *loyalty.PointTransaction
		events   []shared.DomainEvent
		clientID uuid.UUID
	)
	err := l.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		original, err := repos.PointTransactions().FindByID(ctx, tenantID, transactionID)
		if err != nil {
			return err
		}
		clientID = original.ClientID

		if note == "" {
			note = "Reversal of " + original.ID.String()
		}
		ref := original.ID
		tx, raised, err := applyLocked(ctx, repos, tenantID, original.ClientID, loyalty.ApplyInput{
			Kind:   loyalty.KindReversal,
			Points: original.Points,
			Origin: original.Origin,
			Refs:   loyalty.TransactionRefs{Note: note, ReversalOf: &ref},
			Actor:  actor,
		})
		if err != nil {
			return err
		}
		created, events = tx, raised
		return nil
	})
	if err != nil {
		return nil, l.fail(loyalty.KindReversal, tenantID, clientID, err)
	}

	l.recorder.RecordPointTransaction(string(loyalty.KindReversal), OutcomeApplied)
	l.logger.Info("Point transaction reversed",
		zap.String("tenant_id", tenantID.String()),
		zap.String("transaction_id", transactionID.String()),
		zap.String("reversal_id", created.ID.String()))
	logger.DomainEvents(l.logger, events)
	return created, nil
}

// EnrollClient opens a loyalty account for a person
func (l *Ledger) EnrollClient(ctx context.Context, tenantID, personID uuid.UUID, actor string) (*loyalty.Client, error) {
	client, err := loyalty.NewClient(tenantID, personID, actor)
	if err != nil {
		return nil, err
	}
	if err := l.clientRepo.Create(ctx, client); err != nil {
		return nil, shared.AsStorageError(err)
	}
	l.logger.Info("Loyalty client enrolled",
		zap.String("tenant_id", tenantID.String()),
		zap.String("client_id", client.ID.String()))
	return client, nil
}

// GetClient returns a client by ID
func (l *Ledger) GetClient(ctx context.Context, tenantID, clientID uuid.UUID) (*loyalty.Client, error) {
	client, err := l.clientRepo.FindByID(ctx, tenantID, clientID)
	if err != nil {
		return nil, shared.AsStorageError(err)
	}
	return client, nil
}

// ListClients returns a page of clients
func (l *Ledger) ListClients(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]*loyalty.Client, int64, error) {
	clients, total, err := l.clientRepo.List(ctx, tenantID, filter.Normalize())
	if err != nil {
		return nil, 0, shared.AsStorageError(err)
	}
	return clients, total, nil
}

// GetTransaction returns a ledger entry by ID
func (l *Ledger) GetTransaction(ctx context.Context, tenantID, transactionID uuid.UUID) (*loyalty.PointTransaction, error) {
	tx, err := l.txRepo.FindByID(ctx, tenantID, transactionID)
	if err != nil {
		return nil, shared.AsStorageError(err)
	}
	return tx, nil
}

// ListTransactions returns a page of entries, newest first
func (l *Ledger) ListTransactions(ctx context.Context, tenantID uuid.UUID, filter loyalty.TransactionFilter) ([]*loyalty.PointTransaction, int64, error) {
	filter.Filter = filter.Filter.Normalize()
	txs, total, err := l.txRepo.List(ctx, tenantID, filter)
	if err != nil {
		return nil, 0, shared.AsStorageError(err)
	}
	return txs, total, nil
}

// History returns every entry of a client in application order
func (l *Ledger) History(ctx context.Context, tenantID, clientID uuid.UUID) ([]*loyalty.PointTransaction, error) {
	if _, err := l.clientRepo.FindByID(ctx, tenantID, clientID); err != nil {
		return nil, shared.AsStorageError(err)
	}
	history, err := l.txRepo.History(ctx, tenantID, clientID)
	if err != nil {
		return nil, shared.AsStorageError(err)
	}
	return history, nil
}

// Audit replays a client's history and compares it with the stored balance
func (l *Ledger) Audit(ctx context.Context, tenantID, clientID uuid.UUID) (*LedgerAudit, error) {
	client, err := l.clientRepo.FindByID(ctx, tenantID, clientID)
	if err != nil {
		return nil, shared.AsStorageError(err)
	}
	history, err := l.txRepo.History(ctx, tenantID, clientID)
	if err != nil {
		return nil, shared.AsStorageError(err)
	}

	audit := &LedgerAudit{
		ClientID:      client.ID,
		StoredBalance: client.Balance,
		Entries:       len(history),
	}
	var replayed int64
	telemetry.WithProfilingLabels(ctx, telemetry.OperationLabels("ledger_audit", tenantID.String()), func(context.Context) {
		replayed, err = loyalty.ReplayBalance(history)
	})
	audit.ReplayedBalance = replayed
	switch {
	case err != nil:
		audit.Problem = err.Error()
	case replayed != client.Balance:
		audit.Problem = "stored balance differs from replayed history"
	default:
		audit.Consistent = true
	}
	if !audit.Consistent {
		l.logger.Error("Ledger audit found an inconsistency",
			zap.String("tenant_id", tenantID.String()),
			zap.String("client_id", clientID.String()),
			zap.String("problem", audit.Problem))
	}
	return audit, nil
}

func (l *Ledger) fail(kind loyalty.TransactionKind, tenantID, clientID uuid.UUID, err error) error {
	var de *shared.DomainError
	if errors.As(err, &de) && de.Code != shared.CodeStorage {
		l.recorder.RecordPointTransaction(string(kind), OutcomeRejected)
		l.logger.Warn("Point transaction rejected",
			zap.String("tenant_id", tenantID.String()),
			zap.String("client_id", clientID.String()),
			zap.String("kind", string(kind)),
			zap.String("code", de.Code))
		return err
	}
	l.recorder.RecordPointTransaction(string(kind), OutcomeFailed)
	l.logger.Error("Point transaction failed",
		zap.String("tenant_id", tenantID.String()),
		zap.String("client_id", clientID.String()),
		zap.String("kind", string(kind)),
		zap.Error(err))
	return shared.AsStorageError(err)
}

func applyLocked(ctx context.Context, repos TransactionalRepositories, tenantID, clientID uuid.UUID, in loyalty.ApplyInput) (*loyalty.PointTransaction, []shared.DomainEvent, error) {
	client, err := repos.Clients().FindByIDForUpdate(ctx, tenantID, clientID)
	if err != nil {
		return nil, nil, err
	}
	if in.Refs.ReversalOf != nil {
		// the client row lock serializes the once-only check
		if err := checkLinkedReversal(ctx, repos, tenantID, client.ID, *in.Refs.ReversalOf, in.Points); err != nil {
			return nil, nil, err
		}
	}
	return applyToClient(ctx, repos, client, in)
}

func checkLinkedReversal(ctx context.Context, repos TransactionalRepositories, tenantID, clientID, originalID uuid.UUID, points int64) error {
	original, err := repos.PointTransactions().FindByID(ctx, tenantID, originalID)
	if err != nil {
		return err
	}
	if original.ClientID != clientID {
		return shared.ErrInvalidInput.WithMessage("The reversed transaction belongs to another client")
	}
	if !original.IsReversible() {
		return shared.ErrInvalidInput.WithMessage("Only CREDIT transactions can be reversed")
	}
	if points > original.Points {
		return shared.ErrInvalidInput.WithMessage("A reversal cannot exceed the points of the credit it compensates")
	}
	reversed, err := repos.PointTransactions().ExistsReversalOf(ctx, tenantID, original.ID)
	if err != nil {
		return err
	}
	if reversed {
		return shared.ErrAlreadyExists.WithMessage("Transaction was already reversed")
	}
	return nil
}

func applyToClient(ctx context.Context, repos TransactionalRepositories, client *loyalty.Client, in loyalty.ApplyInput) (*loyalty.PointTransaction, []shared.DomainEvent, error) {
	tx, err := client.Apply(in)
	if err != nil {
		return nil, nil, err
	}
	if err := repos.Clients().SaveBalance(ctx, client); err != nil {
		return nil, nil, err
	}
	if err := repos.PointTransactions().Create(ctx, tx); err != nil {
		return nil, nil, err
	}
	return tx, logger.PullEvents(client), nil
}
