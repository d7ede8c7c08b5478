package repositories

import (
	"context"
	"time"

	"bankcards/internal/adapters/persistence/models"
	"bankcards/internal/pkg/pagination"

	"github.com/shopspring/decimal"
)

// Transactor runs a function inside a database transaction. The transaction
// travels in the context; repositories called with that context join it.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
	WithinReadOnlyTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// UserRepository defines user repository interface
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uint) (*models.User, error)
	LockByID(ctx context.Context, id uint) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	ReplaceRoles(ctx context.Context, user *models.User, roles []models.Role) error
	Delete(ctx context.Context, user *models.User) error
	List(ctx context.Context, params *pagination.Params) ([]*models.User, int64, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
}

// RoleRepository defines role repository interface
type RoleRepository interface {
	GetByName(ctx context.Context, name string) (*models.Role, error)
	Create(ctx context.Context, role *models.Role) error
}

// CardFilter composes the optional predicates of a card listing
type CardFilter struct {
	UserID *uint
	// EncryptedNumber matches one card exactly
	EncryptedNumber string
	// NumberFragment is a case-insensitive substring of the stored ciphertext
	NumberFragment string
	CardHolderName string
	Status         string
	MinBalance     *decimal.Decimal
	MaxBalance     *decimal.Decimal
}

// CardStatistics aggregates over all cards
type CardStatistics struct {
	TotalCards   int64
	ActiveCards  int64
	BlockedCards int64
	TotalBalance decimal.Decimal
}

// CardRepository defines card repository interface
type CardRepository interface {
	Create(ctx context.Context, card *models.Card) error
	GetByID(ctx context.Context, id uint) (*models.Card, error)
	GetByIDAndUsername(ctx context.Context, id uint, username string) (*models.Card, error)
	ListByUser(ctx context.Context, userID uint) ([]*models.Card, error)
	LockByIDs(ctx context.Context, ids ...uint) ([]*models.Card, error)
	Update(ctx context.Context, card *models.Card) error
	Delete(ctx context.Context, id uint) error
	DeleteByUser(ctx context.Context, userID uint) error
	ExistsByEncryptedNumber(ctx context.Context, encrypted string) (bool, error)
	Search(ctx context.Context, filter CardFilter, params *pagination.Params) ([]*models.Card, int64, error)
	Statistics(ctx context.Context) (*CardStatistics, error)
	BalanceByUser(ctx context.Context, userID uint) (decimal.Decimal, int64, error)
}

// BlockRequestRepository defines block request repository interface
type BlockRequestRepository interface {
	Create(ctx context.Context, req *models.BlockRequest) error
	GetByID(ctx context.Context, id uint) (*models.BlockRequest, error)
	LockByID(ctx context.Context, id uint) (*models.BlockRequest, error)
	Update(ctx context.Context, req *models.BlockRequest) error
	ListByUser(ctx context.Context, userID uint, params *pagination.Params) ([]*models.BlockRequest, int64, error)
	ListByStatus(ctx context.Context, status string, params *pagination.Params) ([]*models.BlockRequest, int64, error)
	List(ctx context.Context, params *pagination.Params) ([]*models.BlockRequest, int64, error)
	ExistsByCardAndStatus(ctx context.Context, cardID uint, status string) (bool, error)
	CountByStatus(ctx context.Context, status string) (int64, error)
	DeleteByUser(ctx context.Context, userID uint) error
	DeleteByCard(ctx context.Context, cardID uint) error
	ClearProcessedBy(ctx context.Context, adminID uint) error
}

// RefreshTokenRepository defines refresh token repository interface
type RefreshTokenRepository interface {
	Create(ctx context.Context, token *models.RefreshToken) error
	GetActiveByTokenHash(ctx context.Context, tokenHash string) (*models.RefreshToken, error)
	Update(ctx context.Context, token *models.RefreshToken) error
	CountActiveByUserID(ctx context.Context, userID uint, now time.Time) (int64, error)
	ListActiveByUserID(ctx context.Context, userID uint, now time.Time) ([]*models.RefreshToken, error)
	RevokeByIDs(ctx context.Context, ids []uint) error
	RevokeByTokenHash(ctx context.Context, tokenHash string) (int64, error)
	RevokeAllByUserID(ctx context.Context, userID uint) (int64, error)
	CountExpiredAndRevoked(ctx context.Context, now time.Time) (int64, error)
	DeleteExpiredAndRevoked(ctx context.Context, now time.Time) (int64, error)
	DeleteByUser(ctx context.Context, userID uint) error
}
