package repositories

import (
	"context"

	"bankcards/internal/adapters/persistence/models"
	"bankcards/internal/pkg/pagination"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// userRepository implements UserRepository interface
type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

// Create creates a new user together with its role links
func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	return conn(ctx, r.db).Create(user).Error
}

// GetByID gets a user by ID
func (r *userRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	err := conn(ctx, r.db).Preload("Roles").Where("id = ?", id).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// LockByID reads a user row with a row lock. Roles are not loaded.
func (r *userRepository) LockByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	err := forUpdate(conn(ctx, r.db)).Where("id = ?", id).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByUsername gets a user by username
func (r *userRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	err := conn(ctx, r.db).Preload("Roles").Where("username = ?", username).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Update updates the user's own columns
func (r *userRepository) Update(ctx context.Context, user *models.User) error {
	return conn(ctx, r.db).Omit(clause.Associations).Save(user).Error
}

// ReplaceRoles replaces the user's role set
func (r *userRepository) ReplaceRoles(ctx context.Context, user *models.User, roles []models.Role) error {
	if err := conn(ctx, r.db).Model(user).Association("Roles").Replace(roles); err != nil {
		return err
	}
	user.Roles = roles
	return nil
}

// Delete removes the user and its role links
func (r *userRepository) Delete(ctx context.Context, user *models.User) error {
	db := conn(ctx, r.db)
	if err := db.Model(user).Association("Roles").Clear(); err != nil {
		return err
	}
	return db.Delete(&models.User{}, user.ID).Error
}

// List lists users with pagination
func (r *userRepository) List(ctx context.Context, params *pagination.Params) ([]*models.User, int64, error) {
	var users []*models.User
	var total int64

	// Count total
	if err := conn(ctx, r.db).Model(&models.User{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := conn(ctx, r.db).Preload("Roles").
		Order(orderBy(params, "id")).
		Offset(params.Offset).
		Limit(params.Size).
		Find(&users).Error
	if err != nil {
		return nil, 0, err
	}

	return users, total, nil
}

// ExistsByUsername checks if username exists
func (r *userRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	var count int64
	err := conn(ctx, r.db).Model(&models.User{}).Where("username = ?", username).Count(&count).Error
	return count > 0, err
}

// orderBy builds the ORDER BY clause from whitelisted params
func orderBy(params *pagination.Params, fallback string) clause.OrderByColumn {
	column := params.SortColumn
	if column == "" {
		column = fallback
	}
	return clause.OrderByColumn{Column: clause.Column{Name: column}, Desc: params.SortDesc}
}
