package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/pluvyt/backend/internal/domain/loyalty"
	"github.com/pluvyt/backend/internal/domain/shared"
	"github.com/pluvyt/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	errClientNotFound      = shared.ErrNotFound.WithMessage("Loyalty client not found")
	errTransactionNotFound = shared.ErrNotFound.WithMessage("Point transaction not found")
	errAlreadyReversed     = shared.ErrAlreadyExists.WithMessage("Transaction was already reversed")
)

// GormClientRepository implements loyalty.ClientRepository using GORM
type GormClientRepository struct {
	db *gorm.DB
}

// NewGormClientRepository creates a new GormClientRepository
func NewGormClientRepository(db *gorm.DB) *GormClientRepository {
	return &GormClientRepository{db: db}
}

// Create inserts a new client
func (r *GormClientRepository) Create(ctx context.Context, client *loyalty.Client) error {
	err := r.db.WithContext(ctx).Create(models.ClientModelFromDomain(client)).Error
	return translate(err, nil, loyalty.ErrClientAlreadyEnrolled)
}

// FindByID finds a live client by ID within a tenant
func (r *GormClientRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*loyalty.Client, error) {
	return r.first(r.db.WithContext(ctx), "tenant_id = ? AND id = ?", tenantID, id)
}

// FindByIDForUpdate finds a client and locks its row with SELECT ... FOR UPDATE
func (r *GormClientRepository) FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*loyalty.Client, error) {
	return r.first(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}),
		"tenant_id = ? AND id = ?", tenantID, id)
}

// FindByPersonID finds the client enrolled for a person
func (r *GormClientRepository) FindByPersonID(ctx context.Context, tenantID, personID uuid.UUID) (*loyalty.Client, error) {
	return r.first(r.db.WithContext(ctx), "tenant_id = ? AND person_id = ?", tenantID, personID)
}

func (r *GormClientRepository) first(db *gorm.DB, query string, args ...any) (*loyalty.Client, error) {
	var model models.ClientModel
	if err := db.Where(query, args...).Where("deleted_at IS NULL").First(&model).Error; err != nil {
		return nil, translate(err, errClientNotFound, nil)
	}
	return model.ToDomain(), nil
}

// List returns a page of live clients, newest first
func (r *GormClientRepository) List(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]*loyalty.Client, int64, error) {
	filter = filter.Normalize()
	query := r.db.WithContext(ctx).Model(&models.ClientModel{}).
		Where("tenant_id = ? AND deleted_at IS NULL", tenantID).
		Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.ClientModel
	order := ValidateSortField(filter.OrderBy, ClientSortFields, "created_at") + " " + ValidateSortOrder(filter.OrderDir)
	if err := query.Order(order + ", id").
		Offset(filter.Offset()).Limit(filter.PageSize).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	clients := make([]*loyalty.Client, len(rows))
	for i := range rows {
		clients[i] = rows[i].ToDomain()
	}
	return clients, total, nil
}

// SaveBalance writes the balance, last sequence and audit columns
func (r *GormClientRepository) SaveBalance(ctx context.Context, client *loyalty.Client) error {
	result := r.db.WithContext(ctx).Model(&models.ClientModel{}).
		Where("tenant_id = ? AND id = ?", client.TenantID, client.ID).
		Updates(map[string]any{
			"balance":       client.Balance,
			"last_sequence": client.LastSequence,
			"updated_at":    client.UpdatedAt,
			"updated_by":    client.UpdatedBy,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errClientNotFound
	}
	return nil
}

// GormPointTransactionRepository implements loyalty.PointTransactionRepository
// using GORM. It only ever inserts.
type GormPointTransactionRepository struct {
	db *gorm.DB
}

// NewGormPointTransactionRepository creates a new GormPointTransactionRepository
func NewGormPointTransactionRepository(db *gorm.DB) *GormPointTransactionRepository {
	return &GormPointTransactionRepository{db: db}
}

// Create appends an entry to the ledger
func (r *GormPointTransactionRepository) Create(ctx context.Context, tx *loyalty.PointTransaction) error {
	err := r.db.WithContext(ctx).Create(models.PointTransactionModelFromDomain(tx)).Error
	if err != nil && tx.ReversalOf != nil && isDuplicateKey(err) {
		return errAlreadyReversed
	}
	return translate(err, nil, shared.ErrConcurrencyConflict)
}

// FindByID finds an entry by ID within a tenant
func (r *GormPointTransactionRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*loyalty.PointTransaction, error) {
	var model models.PointTransactionModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		return nil, translate(err, errTransactionNotFound, nil)
	}
	return model.ToDomain(), nil
}

// List returns a filtered page of entries, newest first
func (r *GormPointTransactionRepository) List(ctx context.Context, tenantID uuid.UUID, filter loyalty.TransactionFilter) ([]*loyalty.PointTransaction, int64, error) {
	page := filter.Filter.Normalize()
	query := r.db.WithContext(ctx).Model(&models.PointTransactionModel{}).
		Where("tenant_id = ?", tenantID)
	if filter.ClientID != nil {
		query = query.Where("client_id = ?", *filter.ClientID)
	}
	if filter.Kind != "" {
		query = query.Where("kind = ?", string(filter.Kind))
	}
	if filter.Origin != "" {
		query = query.Where("origin = ?", string(filter.Origin))
	}
	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.PointTransactionModel
	if err := query.Order("created_at DESC, sequence DESC").
		Offset(page.Offset()).Limit(page.PageSize).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return toTransactions(rows), total, nil
}

// History returns every entry of a client ordered by sequence
func (r *GormPointTransactionRepository) History(ctx context.Context, tenantID, clientID uuid.UUID) ([]*loyalty.PointTransaction, error) {
	var rows []models.PointTransactionModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND client_id = ?", tenantID, clientID).
		Order("sequence ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toTransactions(rows), nil
}

// ExistsReversalOf reports whether a reversal already targets the entry
func (r *GormPointTransactionRepository) ExistsReversalOf(ctx context.Context, tenantID, transactionID uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.PointTransactionModel{}).
		Where("tenant_id = ? AND reversal_of = ?", tenantID, transactionID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func toTransactions(rows []models.PointTransactionModel) []*loyalty.PointTransaction {
	out := make([]*loyalty.PointTransaction, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out
}

var (
	_ loyalty.ClientRepository           = (*GormClientRepository)(nil)
	_ loyalty.PointTransactionRepository = (*GormPointTransactionRepository)(nil)
)
