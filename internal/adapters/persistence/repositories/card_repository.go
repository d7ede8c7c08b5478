package repositories

import (
	"context"
	"sort"
	"strings"

	"bankcards/internal/adapters/persistence/models"
	"bankcards/internal/core/domain"
	"bankcards/internal/pkg/pagination"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// cardRepository implements CardRepository interface
type cardRepository struct {
	db *gorm.DB
}

// NewCardRepository creates a new card repository
func NewCardRepository(db *gorm.DB) CardRepository {
	return &cardRepository{db: db}
}

// Create creates a new card
func (r *cardRepository) Create(ctx context.Context, card *models.Card) error {
	return conn(ctx, r.db).Omit(clause.Associations).Create(card).Error
}

// GetByID gets a card by ID
func (r *cardRepository) GetByID(ctx context.Context, id uint) (*models.Card, error) {
	var card models.Card
	err := conn(ctx, r.db).Where("id = ?", id).First(&card).Error
	if err != nil {
		return nil, err
	}
	return &card, nil
}

// GetByIDAndUsername gets a card only if it belongs to the named user
func (r *cardRepository) GetByIDAndUsername(ctx context.Context, id uint, username string) (*models.Card, error) {
	var card models.Card
	err := conn(ctx, r.db).
		Where("id = ?", id).
		Where("user_id = (?)", conn(ctx, r.db).Model(&models.User{}).Select("id").Where("username = ?", username)).
		First(&card).Error
	if err != nil {
		return nil, err
	}
	return &card, nil
}

// ListByUser lists every card of a user
func (r *cardRepository) ListByUser(ctx context.Context, userID uint) ([]*models.Card, error) {
	var cards []*models.Card
	err := conn(ctx, r.db).Where("user_id = ?", userID).Order("id ASC").Find(&cards).Error
	if err != nil {
		return nil, err
	}
	return cards, nil
}

// LockByIDs reads the cards with a row lock, acquired in ascending id order
func (r *cardRepository) LockByIDs(ctx context.Context, ids ...uint) ([]*models.Card, error) {
	sorted := uniqueSorted(ids)

	var cards []*models.Card
	err := forUpdate(conn(ctx, r.db)).
		Where("id IN ?", sorted).
		Order("id ASC").
		Find(&cards).Error
	if err != nil {
		return nil, err
	}
	return cards, nil
}

// Update saves the card's columns
func (r *cardRepository) Update(ctx context.Context, card *models.Card) error {
	return conn(ctx, r.db).Omit(clause.Associations).Save(card).Error
}

// Delete deletes a card by ID
func (r *cardRepository) Delete(ctx context.Context, id uint) error {
	return conn(ctx, r.db).Delete(&models.Card{}, id).Error
}

// DeleteByUser deletes every card of a user
func (r *cardRepository) DeleteByUser(ctx context.Context, userID uint) error {
	return conn(ctx, r.db).Where("user_id = ?", userID).Delete(&models.Card{}).Error
}

// ExistsByEncryptedNumber checks if a card with this ciphertext exists
func (r *cardRepository) ExistsByEncryptedNumber(ctx context.Context, encrypted string) (bool, error) {
	var count int64
	err := conn(ctx, r.db).Model(&models.Card{}).Where("encrypted_number = ?", encrypted).Count(&count).Error
	return count > 0, err
}

// Search lists cards matching the filter with pagination
func (r *cardRepository) Search(ctx context.Context, filter CardFilter, params *pagination.Params) ([]*models.Card, int64, error) {
	var cards []*models.Card
	var total int64

	// Count total
	if err := conn(ctx, r.db).Model(&models.Card{}).Scopes(cardFilterScope(filter)).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := conn(ctx, r.db).
		Scopes(cardFilterScope(filter)).
		Order(orderBy(params, "id")).
		Offset(params.Offset).
		Limit(params.Size).
		Find(&cards).Error
	if err != nil {
		return nil, 0, err
	}

	return cards, total, nil
}

// Statistics aggregates counts and balances over all cards
func (r *cardRepository) Statistics(ctx context.Context) (*CardStatistics, error) {
	stats := &CardStatistics{}

	if err := conn(ctx, r.db).Model(&models.Card{}).Count(&stats.TotalCards).Error; err != nil {
		return nil, err
	}
	if err := conn(ctx, r.db).Model(&models.Card{}).
		Where("status = ?", string(domain.CardStatusActive)).
		Count(&stats.ActiveCards).Error; err != nil {
		return nil, err
	}
	if err := conn(ctx, r.db).Model(&models.Card{}).
		Where("status = ?", string(domain.CardStatusBlocked)).
		Count(&stats.BlockedCards).Error; err != nil {
		return nil, err
	}

	total, err := r.sumBalance(conn(ctx, r.db).Model(&models.Card{}))
	if err != nil {
		return nil, err
	}
	stats.TotalBalance = total

	return stats, nil
}

// BalanceByUser sums the balances of a user's cards
func (r *cardRepository) BalanceByUser(ctx context.Context, userID uint) (decimal.Decimal, int64, error) {
	var count int64
	if err := conn(ctx, r.db).Model(&models.Card{}).Where("user_id = ?", userID).Count(&count).Error; err != nil {
		return decimal.Zero, 0, err
	}

	total, err := r.sumBalance(conn(ctx, r.db).Model(&models.Card{}).Where("user_id = ?", userID))
	if err != nil {
		return decimal.Zero, 0, err
	}
	return total, count, nil
}

func (r *cardRepository) sumBalance(db *gorm.DB) (decimal.Decimal, error) {
	var total decimal.Decimal
	if err := db.Select("COALESCE(SUM(balance), 0)").Row().Scan(&total); err != nil {
		return decimal.Zero, err
	}
	return total.Round(2), nil
}

// cardFilterScope applies the optional predicates of a card search
func cardFilterScope(f CardFilter) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if f.UserID != nil {
			db = db.Where("user_id = ?", *f.UserID)
		}
		if f.EncryptedNumber != "" {
			db = db.Where("encrypted_number = ?", f.EncryptedNumber)
		}
		if f.NumberFragment != "" {
			db = db.Where("LOWER(encrypted_number) LIKE ?", "%"+strings.ToLower(f.NumberFragment)+"%")
		}
		if f.CardHolderName != "" {
			db = db.Where("LOWER(card_holder_name) LIKE ?", "%"+strings.ToLower(f.CardHolderName)+"%")
		}
		if f.Status != "" {
			db = db.Where("status = ?", f.Status)
		}
		if f.MinBalance != nil {
			db = db.Where("balance >= ?", *f.MinBalance)
		}
		if f.MaxBalance != nil {
			db = db.Where("balance <= ?", *f.MaxBalance)
		}
		return db
	}
}

func uniqueSorted(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
