package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ============================================================
// Identity
// ============================================================

// User represents users table
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"uniqueIndex;size:50;not null" json:"username"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	Enabled      bool      `gorm:"not null" json:"enabled"`
	Roles        []Role    `gorm:"many2many:user_roles;" json:"roles"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

// RoleNames returns the names of the loaded roles
func (u *User) RoleNames() []string {
	names := make([]string, 0, len(u.Roles))
	for _, r := range u.Roles {
		names = append(names, r.RoleName)
	}
	return names
}

// UserResponse DTO
type UserResponse struct {
	ID       uint     `json:"id"`
	Username string   `json:"username"`
	Enabled  bool     `json:"enabled"`
	Roles    []string `json:"roles"`
}

func (u *User) ToResponse() *UserResponse {
	return &UserResponse{
		ID:       u.ID,
		Username: u.Username,
		Enabled:  u.Enabled,
		Roles:    u.RoleNames(),
	}
}

// Role represents roles table
type Role struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	RoleName string `gorm:"uniqueIndex;size:50;not null" json:"role_name"`
	Enabled  bool   `gorm:"not null" json:"enabled"`
}

func (Role) TableName() string {
	return "roles"
}

// RefreshToken represents refresh_tokens table
type RefreshToken struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	UserID    uint       `gorm:"index;not null" json:"user_id"`
	TokenHash string     `gorm:"size:64;not null;uniqueIndex" json:"-"`
	ExpiresAt time.Time  `gorm:"not null;index" json:"expires_at"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	Revoked   bool       `gorm:"not null;index" json:"revoked"`
	RevokedAt *time.Time `json:"revoked_at"`
	User      User       `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

func (RefreshToken) TableName() string {
	return "refresh_tokens"
}

func (rt *RefreshToken) IsExpiredAt(now time.Time) bool {
	return rt.ExpiresAt.Before(now)
}

// ============================================================
// Cards
// ============================================================

// Card represents cards table. The card number is stored only as ciphertext.
type Card struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	UserID          uint            `gorm:"index;not null" json:"user_id"`
	EncryptedNumber string          `gorm:"size:255;uniqueIndex;not null" json:"-"`
	CardHolderName  string          `gorm:"size:100;not null" json:"card_holder_name"`
	ExpirationMonth int             `gorm:"not null" json:"expiration_month"`
	ExpirationYear  int             `gorm:"not null" json:"expiration_year"`
	Status          string          `gorm:"size:20;not null;index" json:"status"`
	Balance         decimal.Decimal `gorm:"type:decimal(19,2);not null" json:"balance"`
	CreatedAt       time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
	User            User            `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Card) TableName() string {
	return "cards"
}

// BlockRequest represents block_requests table
type BlockRequest struct {
	ID                 uint       `gorm:"primaryKey" json:"id"`
	CardID             uint       `gorm:"index;not null" json:"card_id"`
	UserID             uint       `gorm:"index;not null" json:"user_id"`
	Reason             string     `gorm:"size:500;not null" json:"reason"`
	Status             string     `gorm:"size:20;not null;index" json:"status"`
	CreatedAt          time.Time  `gorm:"autoCreateTime;index" json:"created_at"`
	ProcessedAt        *time.Time `json:"processed_at"`
	ProcessedByAdminID *uint      `gorm:"index" json:"processed_by_admin_id"`
	AdminComment       string     `gorm:"size:500" json:"admin_comment"`
	Card               Card       `gorm:"foreignKey:CardID;constraint:OnDelete:CASCADE" json:"-"`
	User               User       `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	ProcessedByAdmin   *User      `gorm:"foreignKey:ProcessedByAdminID;constraint:OnDelete:SET NULL" json:"-"`
}

func (BlockRequest) TableName() string {
	return "block_requests"
}

// AutoMigrate creates or updates all tables
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&Role{},
		&User{},
		&Card{},
		&BlockRequest{},
		&RefreshToken{},
	)
}
