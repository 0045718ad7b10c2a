package ordering

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pluvyt/backend/internal/application/notification"
	"github.com/pluvyt/backend/internal/domain/ordering"
	"github.com/pluvyt/backend/internal/domain/shared"
	"github.com/pluvyt/backend/internal/infrastructure/logger"
	"github.com/pluvyt/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// Announcer delivers best-effort notifications after a commit
type Announcer interface {
	Announce(ctx context.Context, tenantID uuid.UUID, event string, payload any)
}

// Recorder observes ordering outcomes for metrics
type Recorder interface {
	RecordComandaStatus(status string)
	RecordOrderCreated(source string)
	RecordTableClosed(settled int)
}

type noopRecorder struct{}

func (noopRecorder) RecordComandaStatus(string) {}
func (noopRecorder) RecordOrderCreated(string) {}
func (noopRecorder) RecordTableClosed(int) {}

// Order sources reported to a Recorder
const (
	SourceStaff  = "staff"
	SourcePublic = "public"
)

// ComandaService runs the comanda state machine. Mutations lock the comanda
// (or its table when opening) and recompute the total from stored items in
// the same transaction.
type ComandaService struct {
	comandaRepo ordering.ComandaRepository
	txScope     TransactionScope
	announcer   Announcer
	recorder    Recorder
	logger      *zap.Logger
}

// NewComandaService creates a new ComandaService
func NewComandaService(
	comandaRepo ordering.ComandaRepository,
	txScope TransactionScope,
	announcer Announcer,
	logger *zap.Logger,
) *ComandaService {
	return &ComandaService{
		comandaRepo: comandaRepo,
		txScope:     txScope,
		announcer:   announcer,
		recorder:    noopRecorder{},
		logger:      logger,
	}
}

// SetRecorder installs a metrics recorder
func (s *ComandaService) SetRecorder(r Recorder) {
	if r != nil {
		s.recorder = r
	}
}

// Open creates an OPEN comanda on a table and adds the supplied items.
// The table is marked OCCUPIED in the same transaction.
func (s *ComandaService) Open(ctx context.Context, tenantID uuid.UUID, actor string, req OpenComandaRequest) (*ComandaResponse, error) {
	comanda, err := s.open(ctx, tenantID, req.TableID, req.CustomerName, req.Items, actor)
	if err != nil {
		return nil, err
	}
	s.recorder.RecordOrderCreated(SourceStaff)
	resp := ToComandaResponse(comanda)
	return &resp, nil
}

// OpenPublic opens a comanda for a guest order and announces it to the
// tenant channel once committed. A failed announcement never fails the order.
func (s *ComandaService) OpenPublic(ctx context.Context, req PublicOrderRequest) (*ComandaResponse, error) {
	if len(req.Items) == 0 {
		return nil, shared.ErrInvalidInput.WithMessage("An order needs at least one item")
	}
	comanda, err := s.open(ctx, req.TenantID, req.TableID, req.CustomerName, req.Items, ordering.CustomerActor)
	if err != nil {
		return nil, err
	}
	s.recorder.RecordOrderCreated(SourcePublic)

	if s.announcer != nil {
		s.announcer.Announce(ctx, comanda.TenantID, notification.EventOrderCreated, OrderCreatedPayload{
			ComandaID:   comanda.ID,
			TableID:     comanda.TableID,
			TableNumber: comanda.TableNumber,
			Total:       comanda.Total,
			ItemCount:   comanda.ItemCount(),
		})
	}
	resp := ToComandaResponse(comanda)
	return &resp, nil
}

func (s *ComandaService) open(ctx context.Context, tenantID, tableID uuid.UUID, customerName string, items []OrderItemInput, actor string) (*ordering.Comanda, error) {
	var comanda *ordering.Comanda
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		table, err := repos.Tables().FindByIDForUpdate(ctx, tenantID, tableID)
		if err != nil {
			return err
		}
		if table.Status != ordering.TableStatusOccupied {
			if err := table.Occupy(actor); err != nil {
				return err
			}
			if err := repos.Tables().Update(ctx, table); err != nil {
				return err
			}
		}

		c, err := ordering.NewComanda(tenantID, table.ID, customerName, actor)
		if err != nil {
			return err
		}
		c.TableNumber = table.Number
		if err := repos.Comandas().Create(ctx, c); err != nil {
			return err
		}
		for _, in := range items {
			if _, err := addItem(ctx, repos, c, in, actor); err != nil {
				return err
			}
		}
		comanda = c
		return nil
	})
	if err != nil {
		return nil, s.fail("open", tenantID, tableID, err)
	}

	s.logger.Info("Comanda opened",
		zap.String("tenant_id", tenantID.String()),
		zap.String("comanda_id", comanda.ID.String()),
		zap.String("table_id", tableID.String()),
		zap.String("actor", actor),
		zap.Int("items", comanda.ItemCount()),
		zap.String("total", comanda.Total.String()))
	logger.DomainEvents(s.logger, logger.PullEvents(comanda))
	return comanda, nil
}

// AddItem appends an item and recomputes the total from stored items
func (s *ComandaService) AddItem(ctx context.Context, tenantID, comandaID uuid.UUID, actor string, req OrderItemInput) (*ComandaResponse, error) {
	comanda, err := s.mutate(ctx, "add_item", tenantID, comandaID, func(repos TransactionalRepositories, c *ordering.Comanda) error {
		_, err := addItem(ctx, repos, c, req, actor)
		return err
	})
	if err != nil {
		return nil, err
	}
	resp := ToComandaResponse(comanda)
	return &resp, nil
}

// RemoveItem soft deletes an item and recomputes the total
func (s *ComandaService) RemoveItem(ctx context.Context, tenantID, comandaID, itemID uuid.UUID, actor string) (*ComandaResponse, error) {
	comanda, err := s.mutate(ctx, "remove_item", tenantID, comandaID, func(repos TransactionalRepositories, c *ordering.Comanda) error {
		item, err := c.RemoveItem(itemID, actor)
		if err != nil {
			return err
		}
		if err := repos.Items().Update(ctx, item); err != nil {
			return err
		}
		return refreshTotal(ctx, repos, c, actor)
	})
	if err != nil {
		return nil, err
	}
	resp := ToComandaResponse(comanda)
	return &resp, nil
}

// SetItemStatus changes the kitchen status of an item
func (s *ComandaService) SetItemStatus(ctx context.Context, tenantID, comandaID, itemID uuid.UUID, actor string, req UpdateItemStatusRequest) (*ComandaResponse, error) {
	comanda, err := s.mutate(ctx, "item_status", tenantID, comandaID, func(repos TransactionalRepositories, c *ordering.Comanda) error {
		if c.IsTerminal() {
			return shared.ErrInvalidState.WithMessage("Cannot change items of a closed comanda")
		}
		item := c.GetItem(itemID)
		if item == nil {
			return shared.ErrNotFound.WithMessage("Comanda item not found")
		}
		if err := item.SetStatus(ordering.ItemStatus(req.Status), actor); err != nil {
			return err
		}
		return repos.Items().Update(ctx, item)
	})
	if err != nil {
		return nil, err
	}
	resp := ToComandaResponse(comanda)
	return &resp, nil
}

// Transition moves the comanda along a legal edge of its lifecycle
func (s *ComandaService) Transition(ctx context.Context, tenantID, comandaID uuid.UUID, actor string, req UpdateComandaStatusRequest) (*ComandaResponse, error) {
	target := ordering.ComandaStatus(req.Status)
	comanda, err := s.mutate(ctx, "transition", tenantID, comandaID, func(repos TransactionalRepositories, c *ordering.Comanda) error {
		if err := c.Transition(target, actor, time.Now()); err != nil {
			return err
		}
		return repos.Comandas().Save(ctx, c)
	})
	if err != nil {
		return nil, err
	}
	s.recorder.RecordComandaStatus(string(target))
	s.logger.Info("Comanda status changed",
		zap.String("tenant_id", tenantID.String()),
		zap.String("comanda_id", comandaID.String()),
		zap.String("status", string(target)),
		zap.String("actor", actor))
	resp := ToComandaResponse(comanda)
	return &resp, nil
}

// Get returns a comanda with its items
func (s *ComandaService) Get(ctx context.Context, tenantID, comandaID uuid.UUID) (*ComandaResponse, error) {
	comanda, err := s.comandaRepo.FindByID(ctx, tenantID, comandaID)
	if err != nil {
		return nil, shared.AsStorageError(err)
	}
	resp := ToComandaResponse(comanda)
	return &resp, nil
}

// List returns comandas newest first
func (s *ComandaService) List(ctx context.Context, tenantID uuid.UUID, filter ComandaListFilter) ([]ComandaResponse, error) {
	comandas, err := s.comandaRepo.List(ctx, tenantID, ordering.ComandaFilter{
		Status:  ordering.ComandaStatus(filter.Status),
		TableID: filter.TableID,
	})
	if err != nil {
		return nil, shared.AsStorageError(err)
	}
	out := make([]ComandaResponse, len(comandas))
	for i, c := range comandas {
		out[i] = ToComandaResponse(c)
	}
	return out, nil
}

func (s *ComandaService) mutate(ctx context.Context, op string, tenantID, comandaID uuid.UUID, fn func(repos TransactionalRepositories, c *ordering.Comanda) error) (*ordering.Comanda, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "comanda", op,
		telemetry.SpanAttrTenantID, tenantID,
		telemetry.SpanAttrComandaID, comandaID)
	defer span.End()

	var comanda *ordering.Comanda
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		c, err := repos.Comandas().FindByIDForUpdate(ctx, tenantID, comandaID)
		if err != nil {
			return err
		}
		if err := fn(repos, c); err != nil {
			return err
		}
		comanda = c
		return nil
	})
	if err != nil {
		err = s.fail(op, tenantID, comandaID, err)
		telemetry.RecordError(span, err)
		return nil, err
	}
	logger.DomainEvents(s.logger, logger.PullEvents(comanda))
	return comanda, nil
}

func (s *ComandaService) fail(op string, tenantID, id uuid.UUID, err error) error {
	if !shared.IsDomainError(err) {
		s.logger.Error("Comanda operation failed",
			zap.String("op", op),
			zap.String("tenant_id", tenantID.String()),
			zap.String("id", id.String()),
			zap.Error(err))
	}
	return shared.AsStorageError(err)
}

// addItem inserts the item and refreshes the comanda total from storage
func addItem(ctx context.Context, repos TransactionalRepositories, c *ordering.Comanda, in OrderItemInput, actor string) (*ordering.OrderItem, error) {
	item, err := c.AddItem(in.ProductID, in.Quantity, in.UnitPrice, in.Note, actor)
	if err != nil {
		return nil, err
	}
	if err := repos.Items().Create(ctx, item); err != nil {
		return nil, err
	}
	if err := refreshTotal(ctx, repos, c, actor); err != nil {
		return nil, err
	}
	return item, nil
}

func refreshTotal(ctx context.Context, repos TransactionalRepositories, c *ordering.Comanda, actor string) error {
	total, err := repos.Items().SumLineTotals(ctx, c.TenantID, c.ID)
	if err != nil {
		return err
	}
	c.ApplyTotal(total, actor)
	return repos.Comandas().Save(ctx, c)
}
