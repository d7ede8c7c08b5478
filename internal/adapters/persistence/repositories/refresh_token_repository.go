package repositories

import (
	"context"
	"time"

	"bankcards/internal/adapters/persistence/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// refreshTokenRepository implements RefreshTokenRepository interface
type refreshTokenRepository struct {
	db *gorm.DB
}

// NewRefreshTokenRepository creates a new refresh token repository
func NewRefreshTokenRepository(db *gorm.DB) RefreshTokenRepository {
	return &refreshTokenRepository{db: db}
}

// Create creates a new refresh token
func (r *refreshTokenRepository) Create(ctx context.Context, token *models.RefreshToken) error {
	return conn(ctx, r.db).Omit(clause.Associations).Create(token).Error
}

// GetActiveByTokenHash gets a non-revoked token by its hash, with its user and roles
func (r *refreshTokenRepository) GetActiveByTokenHash(ctx context.Context, tokenHash string) (*models.RefreshToken, error) {
	var token models.RefreshToken
	err := conn(ctx, r.db).
		Preload("User.Roles").
		Where("token_hash = ?", tokenHash).
		Where("revoked = ?", false).
		First(&token).Error
	if err != nil {
		return nil, err
	}
	return &token, nil
}

// Update saves the token's columns
func (r *refreshTokenRepository) Update(ctx context.Context, token *models.RefreshToken) error {
	return conn(ctx, r.db).Omit(clause.Associations).Save(token).Error
}

// CountActiveByUserID counts non-revoked, unexpired tokens of a user
func (r *refreshTokenRepository) CountActiveByUserID(ctx context.Context, userID uint, now time.Time) (int64, error) {
	var count int64
	err := conn(ctx, r.db).
		Model(&models.RefreshToken{}).
		Where("user_id = ?", userID).
		Where("revoked = ?", false).
		Where("expires_at > ?", now).
		Count(&count).Error
	return count, err
}

// ListActiveByUserID lists active tokens of a user, newest first
func (r *refreshTokenRepository) ListActiveByUserID(ctx context.Context, userID uint, now time.Time) ([]*models.RefreshToken, error) {
	var tokens []*models.RefreshToken
	err := conn(ctx, r.db).
		Where("user_id = ?", userID).
		Where("revoked = ?", false).
		Where("expires_at > ?", now).
		Order("created_at DESC").
		Order("id DESC").
		Find(&tokens).Error
	if err != nil {
		return nil, err
	}
	return tokens, nil
}

// RevokeByIDs revokes the given tokens
func (r *refreshTokenRepository) RevokeByIDs(ctx context.Context, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	return conn(ctx, r.db).
		Model(&models.RefreshToken{}).
		Where("id IN ?", ids).
		Updates(revokedColumns()).Error
}

// RevokeByTokenHash revokes a refresh token by its hash
func (r *refreshTokenRepository) RevokeByTokenHash(ctx context.Context, tokenHash string) (int64, error) {
	result := conn(ctx, r.db).
		Model(&models.RefreshToken{}).
		Where("token_hash = ?", tokenHash).
		Where("revoked = ?", false).
		Updates(revokedColumns())
	return result.RowsAffected, result.Error
}

// RevokeAllByUserID revokes all refresh tokens for a user
func (r *refreshTokenRepository) RevokeAllByUserID(ctx context.Context, userID uint) (int64, error) {
	result := conn(ctx, r.db).
		Model(&models.RefreshToken{}).
		Where("user_id = ?", userID).
		Where("revoked = ?", false).
		Updates(revokedColumns())
	return result.RowsAffected, result.Error
}

// CountExpiredAndRevoked counts tokens the cleanup job would delete
func (r *refreshTokenRepository) CountExpiredAndRevoked(ctx context.Context, now time.Time) (int64, error) {
	var count int64
	err := conn(ctx, r.db).
		Model(&models.RefreshToken{}).
		Where("revoked = ?", true).
		Where("expires_at < ?", now).
		Count(&count).Error
	return count, err
}

// DeleteExpiredAndRevoked deletes tokens that are both revoked and expired (cleanup job)
func (r *refreshTokenRepository) DeleteExpiredAndRevoked(ctx context.Context, now time.Time) (int64, error) {
	result := conn(ctx, r.db).
		Where("revoked = ?", true).
		Where("expires_at < ?", now).
		Delete(&models.RefreshToken{})
	return result.RowsAffected, result.Error
}

// DeleteByUser deletes every token of a user
func (r *refreshTokenRepository) DeleteByUser(ctx context.Context, userID uint) error {
	return conn(ctx, r.db).Where("user_id = ?", userID).Delete(&models.RefreshToken{}).Error
}

func revokedColumns() map[string]interface{} {
	return map[string]interface{}{
		"revoked":    true,
		"revoked_at": time.Now(),
	}
}
