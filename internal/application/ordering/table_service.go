package ordering

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pluvyt/backend/internal/domain/ordering"
	"github.com/pluvyt/backend/internal/domain/shared"
	"github.com/pluvyt/backend/internal/infrastructure/logger"
	"github.com/pluvyt/backend/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// TableService manages tables and coordinates closing them
type TableService struct {
	tableRepo ordering.TableRepository
	txScope   TransactionScope
	recorder  Recorder
	logger    *zap.Logger
}

// NewTableService creates a new TableService
func NewTableService(tableRepo ordering.TableRepository, txScope TransactionScope, logger *zap.Logger) *TableService {
	return &TableService{
		tableRepo: tableRepo,
		txScope:   txScope,
		recorder:  noopRecorder{},
		logger:    logger,
	}
}

// SetRecorder installs a metrics recorder
func (s *TableService) SetRecorder(r Recorder) {
	if r != nil {
		s.recorder = r
	}
}

// Create registers a table. A repeated number yields ErrDuplicateTableNumber.
func (s *TableService) Create(ctx context.Context, tenantID uuid.UUID, actor string, req CreateTableRequest) (*TableResponse, error) {
	table, err := ordering.NewTable(tenantID, req.Number, req.Capacity, ordering.TableStatus(req.Status), actor)
	if err != nil {
		return nil, err
	}
	if err := s.tableRepo.Create(ctx, table); err != nil {
		return nil, shared.AsStorageError(err)
	}
	s.logger.Info("Table created",
		zap.String("tenant_id", tenantID.String()),
		zap.String("table_id", table.ID.String()),
		zap.String("number", table.Number))
	resp := ToTableResponse(table)
	return &resp, nil
}

// Update edits number, capacity and status
func (s *TableService) Update(ctx context.Context, tenantID, tableID uuid.UUID, actor string, req UpdateTableRequest) (*TableResponse, error) {
	var table *ordering.Table
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		t, err := repos.Tables().FindByIDForUpdate(ctx, tenantID, tableID)
		if err != nil {
			return err
		}
		number, capacity, status := t.Number, t.Capacity, t.Status
		if req.Number != nil {
			number = *req.Number
		}
		if req.Capacity != nil {
			capacity = *req.Capacity
		}
		if req.Status != nil {
			status = ordering.TableStatus(*req.Status)
		}
		if err := t.Update(number, capacity, status, actor); err != nil {
			return err
		}
		if err := repos.Tables().Update(ctx, t); err != nil {
			return err
		}
		table = t
		return nil
	})
	if err != nil {
		return nil, shared.AsStorageError(err)
	}
	resp := ToTableResponse(table)
	return &resp, nil
}

// SetStatus changes the status by explicit staff action
func (s *TableService) SetStatus(ctx context.Context, tenantID, tableID uuid.UUID, actor string, req SetTableStatusRequest) (*TableResponse, error) {
	status := req.Status
	return s.Update(ctx, tenantID, tableID, actor, UpdateTableRequest{Status: &status})
}

// Get returns a table by ID
func (s *TableService) Get(ctx context.Context, tenantID, tableID uuid.UUID) (*TableResponse, error) {
	table, err := s.tableRepo.FindByID(ctx, tenantID, tableID)
	if err != nil {
		return nil, shared.AsStorageError(err)
	}
	resp := ToTableResponse(table)
	return &resp, nil
}

// List returns the tenant's tables ordered by number
func (s *TableService) List(ctx context.Context, tenantID uuid.UUID) ([]TableResponse, error) {
	tables, err := s.tableRepo.List(ctx, tenantID)
	if err != nil {
		return nil, shared.AsStorageError(err)
	}
	out := make([]TableResponse, len(tables))
	for i, t := range tables {
		out[i] = ToTableResponse(t)
	}
	return out, nil
}

// Delete soft deletes a table that holds no active comanda
func (s *TableService) Delete(ctx context.Context, tenantID, tableID uuid.UUID, actor string) error {
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		t, err := repos.Tables().FindByIDForUpdate(ctx, tenantID, tableID)
		if err != nil {
			return err
		}
		active, err := repos.Comandas().FindActiveByTableForUpdate(ctx, tenantID, tableID)
		if err != nil {
			return err
		}
		if len(active) > 0 {
			return shared.ErrInvalidState.WithMessage("Table has open comandas")
		}
		t.MarkUpdated(actor)
		return repos.Tables().SoftDelete(ctx, t)
	})
	if err != nil {
		return shared.AsStorageError(err)
	}
	s.logger.Info("Table deleted",
		zap.String("tenant_id", tenantID.String()),
		zap.String("table_id", tableID.String()))
	return nil
}

// CloseTable settles every OPEN or CLOSED comanda of the table as PAID and
// frees the table, all in one transaction. Closing a table without active
// comandas only frees it.
func (s *TableService) CloseTable(ctx context.Context, tenantID, tableID uuid.UUID, actor string) (*CloseTableResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "table", "close",
		telemetry.SpanAttrTenantID, tenantID,
		telemetry.SpanAttrTableID, tableID)
	defer span.End()

	result := &CloseTableResponse{SettledComandas: make([]uuid.UUID, 0), SettledTotal: decimal.Zero}
	var events []shared.DomainEvent

	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		table, err := repos.Tables().FindByIDForUpdate(ctx, tenantID, tableID)
		if err != nil {
			return err
		}
		comandas, err := repos.Comandas().FindActiveByTableForUpdate(ctx, tenantID, tableID)
		if err != nil {
			return err
		}

		now := time.Now()
		for _, c := range comandas {
			if err := c.Transition(ordering.ComandaStatusPaid, actor, now); err != nil {
				return err
			}
			if err := repos.Comandas().Save(ctx, c); err != nil {
				return err
			}
			result.SettledComandas = append(result.SettledComandas, c.ID)
			result.SettledTotal = result.SettledTotal.Add(c.Total)
			events = append(events, logger.PullEvents(c)...)
		}

		table.Release(len(comandas), actor)
		if err := repos.Tables().Update(ctx, table); err != nil {
			return err
		}
		result.Table = ToTableResponse(table)
		events = append(events, logger.PullEvents(table)...)
		return nil
	})
	if err != nil {
		if !shared.IsDomainError(err) {
			s.logger.Error("Close table failed",
				zap.String("tenant_id", tenantID.String()),
				zap.String("table_id", tableID.String()),
				zap.Error(err))
		}
		err = shared.AsStorageError(err)
		telemetry.RecordError(span, err)
		return nil, err
	}

	telemetry.SetAttributes(span, telemetry.SpanAttrComandas, len(result.SettledComandas))
	s.recorder.RecordTableClosed(len(result.SettledComandas))
	s.logger.Info("Table closed",
		zap.String("tenant_id", tenantID.String()),
		zap.String("table_id", tableID.String()),
		zap.Int("settled_comandas", len(result.SettledComandas)),
		zap.String("settled_total", result.SettledTotal.String()),
		zap.String("actor", actor))
	logger.DomainEvents(s.logger, events)
	return result, nil
}
