package repositories

import (
	"context"

	"bankcards/internal/adapters/persistence/models"
	"bankcards/internal/pkg/pagination"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// blockRequestRepository implements BlockRequestRepository interface
type blockRequestRepository struct {
	db *gorm.DB
}

// NewBlockRequestRepository creates a new block request repository
func NewBlockRequestRepository(db *gorm.DB) BlockRequestRepository {
	return &blockRequestRepository{db: db}
}

// Create creates a new block request
func (r *blockRequestRepository) Create(ctx context.Context, req *models.BlockRequest) error {
	return conn(ctx, r.db).Omit(clause.Associations).Create(req).Error
}

// GetByID gets a block request with its card and deciding admin
func (r *blockRequestRepository) GetByID(ctx context.Context, id uint) (*models.BlockRequest, error) {
	var req models.BlockRequest
	err := withRelations(conn(ctx, r.db)).Where("id = ?", id).First(&req).Error
	if err != nil {
		return nil, err
	}
	return &req, nil
}

// LockByID reads a block request with a row lock
func (r *blockRequestRepository) LockByID(ctx context.Context, id uint) (*models.BlockRequest, error) {
	var req models.BlockRequest
	err := forUpdate(conn(ctx, r.db)).Where("id = ?", id).First(&req).Error
	if err != nil {
		return nil, err
	}
	return &req, nil
}

// Update saves the request's columns
func (r *blockRequestRepository) Update(ctx context.Context, req *models.BlockRequest) error {
	return conn(ctx, r.db).Omit(clause.Associations).Save(req).Error
}

// ListByUser lists a user's block requests, newest first
func (r *blockRequestRepository) ListByUser(ctx context.Context, userID uint, params *pagination.Params) ([]*models.BlockRequest, int64, error) {
	return r.list(ctx, params, func(db *gorm.DB) *gorm.DB {
		return db.Where("user_id = ?", userID)
	})
}

// ListByStatus lists block requests in one status, newest first
func (r *blockRequestRepository) ListByStatus(ctx context.Context, status string, params *pagination.Params) ([]*models.BlockRequest, int64, error) {
	return r.list(ctx, params, func(db *gorm.DB) *gorm.DB {
		return db.Where("status = ?", status)
	})
}

// List lists every block request, newest first
func (r *blockRequestRepository) List(ctx context.Context, params *pagination.Params) ([]*models.BlockRequest, int64, error) {
	return r.list(ctx, params, func(db *gorm.DB) *gorm.DB { return db })
}

func (r *blockRequestRepository) list(ctx context.Context, params *pagination.Params, scope func(*gorm.DB) *gorm.DB) ([]*models.BlockRequest, int64, error) {
	var reqs []*models.BlockRequest
	var total int64

	// Count total
	if err := conn(ctx, r.db).Model(&models.BlockRequest{}).Scopes(scope).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := withRelations(conn(ctx, r.db)).
		Scopes(scope).
		Order("created_at DESC").
		Order("id DESC").
		Offset(params.Offset).
		Limit(params.Size).
		Find(&reqs).Error
	if err != nil {
		return nil, 0, err
	}

	return reqs, total, nil
}

// ExistsByCardAndStatus checks for a request on the card in the given status
func (r *blockRequestRepository) ExistsByCardAndStatus(ctx context.Context, cardID uint, status string) (bool, error) {
	var count int64
	err := conn(ctx, r.db).Model(&models.BlockRequest{}).
		Where("card_id = ? AND status = ?", cardID, status).
		Count(&count).Error
	return count > 0, err
}

// CountByStatus counts block requests in one status
func (r *blockRequestRepository) CountByStatus(ctx context.Context, status string) (int64, error) {
	var count int64
	err := conn(ctx, r.db).Model(&models.BlockRequest{}).Where("status = ?", status).Count(&count).Error
	return count, err
}

// DeleteByUser deletes the user's requests and every request on the user's cards
func (r *blockRequestRepository) DeleteByUser(ctx context.Context, userID uint) error {
	db := conn(ctx, r.db)
	return db.
		Where("user_id = ?", userID).
		Or("card_id IN (?)", db.Model(&models.Card{}).Select("id").Where("user_id = ?", userID)).
		Delete(&models.BlockRequest{}).Error
}

// DeleteByCard deletes every request on a card
func (r *blockRequestRepository) DeleteByCard(ctx context.Context, cardID uint) error {
	return conn(ctx, r.db).Where("card_id = ?", cardID).Delete(&models.BlockRequest{}).Error
}

// ClearProcessedBy detaches requests from a deleted admin
func (r *blockRequestRepository) ClearProcessedBy(ctx context.Context, adminID uint) error {
	return conn(ctx, r.db).Model(&models.BlockRequest{}).
		Where("processed_by_admin_id = ?", adminID).
		Update("processed_by_admin_id", nil).Error
}

func withRelations(db *gorm.DB) *gorm.DB {
	return db.Preload("Card").Preload("ProcessedByAdmin")
}
