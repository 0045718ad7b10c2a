package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pluvyt/backend/internal/domain/ordering"
	"github.com/pluvyt/backend/internal/domain/shared"
	"github.com/pluvyt/backend/internal/infrastructure/persistence/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	errTableNotFound   = shared.ErrNotFound.WithMessage("Table not found")
	errComandaNotFound = shared.ErrNotFound.WithMessage("Comanda not found")
	errItemNotFound    = shared.ErrNotFound.WithMessage("Order item not found")
)

// GormTableRepository implements ordering.TableRepository using GORM
type GormTableRepository struct {
	db *gorm.DB
}

// NewGormTableRepository creates a new GormTableRepository
func NewGormTableRepository(db *gorm.DB) *GormTableRepository {
	return &GormTableRepository{db: db}
}

// Create inserts a table
func (r *GormTableRepository) Create(ctx context.Context, table *ordering.Table) error {
	err := r.db.WithContext(ctx).Create(models.MesaModelFromDomain(table)).Error
	return translate(err, nil, ordering.ErrDuplicateTableNumber)
}

// Update writes every editable column of a table
func (r *GormTableRepository) Update(ctx context.Context, table *ordering.Table) error {
	result := r.db.WithContext(ctx).Model(&models.MesaModel{}).
		Where("tenant_id = ? AND id = ? AND deleted_at IS NULL", table.TenantID, table.ID).
		Updates(map[string]any{
			"number":     table.Number,
			"capacity":   table.Capacity,
			"status":     string(table.Status),
			"updated_at": table.UpdatedAt,
			"updated_by": table.UpdatedBy,
		})
	if result.Error != nil {
		return translate(result.Error, nil, ordering.ErrDuplicateTableNumber)
	}
	if result.RowsAffected == 0 {
		return errTableNotFound
	}
	return nil
}

// FindByID finds a live table
func (r *GormTableRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*ordering.Table, error) {
	return r.first(r.db.WithContext(ctx), tenantID, id)
}

// FindByIDForUpdate finds a live table and locks its row
func (r *GormTableRepository) FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*ordering.Table, error) {
	return r.first(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), tenantID, id)
}

func (r *GormTableRepository) first(db *gorm.DB, tenantID, id uuid.UUID) (*ordering.Table, error) {
	var model models.MesaModel
	if err := db.Where("tenant_id = ? AND id = ? AND deleted_at IS NULL", tenantID, id).
		First(&model).Error; err != nil {
		return nil, translate(err, errTableNotFound, nil)
	}
	return model.ToDomain(), nil
}

// List returns the live tables of a tenant ordered by number
func (r *GormTableRepository) List(ctx context.Context, tenantID uuid.UUID) ([]*ordering.Table, error) {
	var rows []models.MesaModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND deleted_at IS NULL", tenantID).
		Order("number ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	tables := make([]*ordering.Table, len(rows))
	for i := range rows {
		tables[i] = rows[i].ToDomain()
	}
	return tables, nil
}

// SoftDelete stamps deleted_at so the number can be reused
func (r *GormTableRepository) SoftDelete(ctx context.Context, table *ordering.Table) error {
	now := time.Now().UTC()
	result := r.db.WithContext(ctx).Model(&models.MesaModel{}).
		Where("tenant_id = ? AND id = ? AND deleted_at IS NULL", table.TenantID, table.ID).
		Updates(map[string]any{
			"deleted_at": now,
			"updated_at": now,
			"updated_by": table.UpdatedBy,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errTableNotFound
	}
	table.DeletedAt = &now
	return nil
}

// GormComandaRepository implements ordering.ComandaRepository using GORM.
// Reads join mesas for the table number.
type GormComandaRepository struct {
	db *gorm.DB
}

// NewGormComandaRepository creates a new GormComandaRepository
func NewGormComandaRepository(db *gorm.DB) *GormComandaRepository {
	return &GormComandaRepository{db: db}
}

func (r *GormComandaRepository) base(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.ComandaModel{}).
		Select("comandas.*, mesas.number AS table_number").
		Joins("JOIN mesas ON mesas.id = comandas.table_id").
		Where("comandas.deleted_at IS NULL")
}

// forUpdate locks comanda rows only; the joined mesa stays unlocked
func forUpdate(db *gorm.DB) *gorm.DB {
	return db.Clauses(clause.Locking{Strength: "UPDATE", Table: clause.Table{Name: "comandas"}})
}

// Create inserts a comanda without its items
func (r *GormComandaRepository) Create(ctx context.Context, comanda *ordering.Comanda) error {
	return r.db.WithContext(ctx).Create(models.ComandaModelFromDomain(comanda)).Error
}

// FindByID loads a comanda with its live items
func (r *GormComandaRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*ordering.Comanda, error) {
	return r.find(ctx, r.base(ctx), tenantID, id)
}

// FindByIDForUpdate loads a comanda with its items and locks the comanda row
func (r *GormComandaRepository) FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*ordering.Comanda, error) {
	return r.find(ctx, forUpdate(r.base(ctx)), tenantID, id)
}

func (r *GormComandaRepository) find(ctx context.Context, db *gorm.DB, tenantID, id uuid.UUID) (*ordering.Comanda, error) {
	var model models.ComandaModel
	if err := db.Where("comandas.tenant_id = ? AND comandas.id = ?", tenantID, id).
		Take(&model).Error; err != nil {
		return nil, translate(err, errComandaNotFound, nil)
	}
	comandas, err := r.withItems(ctx, []models.ComandaModel{model})
	if err != nil {
		return nil, err
	}
	return comandas[0], nil
}

// FindActiveByTableForUpdate locks every OPEN or CLOSED comanda of a table
func (r *GormComandaRepository) FindActiveByTableForUpdate(ctx context.Context, tenantID, tableID uuid.UUID) ([]*ordering.Comanda, error) {
	var rows []models.ComandaModel
	if err := forUpdate(r.base(ctx)).
		Where("comandas.tenant_id = ? AND comandas.table_id = ?", tenantID, tableID).
		Where("comandas.status IN ?", []string{string(ordering.ComandaStatusOpen), string(ordering.ComandaStatusClosed)}).
		Order("comandas.opened_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return r.withItems(ctx, rows)
}

// List returns comandas newest first
func (r *GormComandaRepository) List(ctx context.Context, tenantID uuid.UUID, filter ordering.ComandaFilter) ([]*ordering.Comanda, error) {
	query := r.base(ctx).Where("comandas.tenant_id = ?", tenantID)
	if filter.Status != "" {
		query = query.Where("comandas.status = ?", string(filter.Status))
	}
	if filter.TableID != nil {
		query = query.Where("comandas.table_id = ?", *filter.TableID)
	}
	var rows []models.ComandaModel
	if err := query.Order("comandas.opened_at DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return r.withItems(ctx, rows)
}

// withItems attaches live items to the comandas with a single query
func (r *GormComandaRepository) withItems(ctx context.Context, rows []models.ComandaModel) ([]*ordering.Comanda, error) {
	comandas := make([]*ordering.Comanda, len(rows))
	if len(rows) == 0 {
		return comandas, nil
	}
	byID := make(map[uuid.UUID]*ordering.Comanda, len(rows))
	ids := make([]uuid.UUID, len(rows))
	for i := range rows {
		comandas[i] = rows[i].ToDomain()
		byID[rows[i].ID] = comandas[i]
		ids[i] = rows[i].ID
	}

	var items []models.ComandaItemModel
	if err := r.db.WithContext(ctx).
		Where("comanda_id IN ? AND deleted_at IS NULL", ids).
		Order("created_at ASC").
		Find(&items).Error; err != nil {
		return nil, err
	}
	for i := range items {
		if c, ok := byID[items[i].ComandaID]; ok {
			c.Items = append(c.Items, items[i].ToDomain())
		}
	}
	return comandas, nil
}

// Save writes status, total, closed_at and audit columns
func (r *GormComandaRepository) Save(ctx context.Context, comanda *ordering.Comanda) error {
	result := r.db.WithContext(ctx).Model(&models.ComandaModel{}).
		Where("tenant_id = ? AND id = ?", comanda.TenantID, comanda.ID).
		Updates(map[string]any{
			"status":     string(comanda.Status),
			"total":      comanda.Total,
			"closed_at":  comanda.ClosedAt,
			"updated_at": comanda.UpdatedAt,
			"updated_by": comanda.UpdatedBy,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errComandaNotFound
	}
	return nil
}

// GormOrderItemRepository implements ordering.OrderItemRepository using GORM
type GormOrderItemRepository struct {
	db *gorm.DB
}

// NewGormOrderItemRepository creates a new GormOrderItemRepository
func NewGormOrderItemRepository(db *gorm.DB) *GormOrderItemRepository {
	return &GormOrderItemRepository{db: db}
}

// Create inserts an item
func (r *GormOrderItemRepository) Create(ctx context.Context, item *ordering.OrderItem) error {
	return r.db.WithContext(ctx).Create(models.ComandaItemModelFromDomain(item)).Error
}

// Update writes status, note, deletion and audit columns of an item
func (r *GormOrderItemRepository) Update(ctx context.Context, item *ordering.OrderItem) error {
	result := r.db.WithContext(ctx).Model(&models.ComandaItemModel{}).
		Where("tenant_id = ? AND id = ?", item.TenantID, item.ID).
		Updates(map[string]any{
			"status":     string(item.Status),
			"note":       item.Note,
			"deleted_at": item.DeletedAt,
			"updated_at": item.UpdatedAt,
			"updated_by": item.UpdatedBy,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errItemNotFound
	}
	return nil
}

// SumLineTotals adds up the live line totals of a comanda
func (r *GormOrderItemRepository) SumLineTotals(ctx context.Context, tenantID, comandaID uuid.UUID) (decimal.Decimal, error) {
	var total decimal.NullDecimal
	row := r.db.WithContext(ctx).Model(&models.ComandaItemModel{}).
		Select("SUM(line_total)").
		Where("tenant_id = ? AND comanda_id = ? AND deleted_at IS NULL", tenantID, comandaID).
		Row()
	if err := row.Scan(&total); err != nil {
		return decimal.Zero, err
	}
	if !total.Valid {
		return decimal.Zero, nil
	}
	return total.Decimal.Round(2), nil
}

var (
	_ ordering.TableRepository     = (*GormTableRepository)(nil)
	_ ordering.ComandaRepository   = (*GormComandaRepository)(nil)
	_ ordering.OrderItemRepository = (*GormOrderItemRepository)(nil)
)
