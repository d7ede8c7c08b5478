package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"bankcards/internal/adapters/persistence/models"
	"bankcards/internal/adapters/persistence/repositories"
	"bankcards/internal/config"
	"bankcards/internal/core/domain"
	"bankcards/internal/pkg/jwt"
	"bankcards/internal/pkg/password"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	dummyHashOnce sync.Once
	dummyHash     string
)

// verifyDummy spends one bcrypt comparison for a username that does not exist
func verifyDummy(verify func(plain, hash string) bool, plain string) {
	dummyHashOnce.Do(func() {
		dummyHash, _ = password.Hash(uuid.NewString())
	})
	verify(plain, dummyHash)
}

// AuthService handles authentication business logic
type AuthService struct {
	tx        repositories.Transactor
	userRepo  repositories.UserRepository
	sessions  *SessionStore
	secret    string
	accessTTL time.Duration
	verify    func(plain, hash string) bool
}

// NewAuthService creates a new auth service
func NewAuthService(
	tx repositories.Transactor,
	userRepo repositories.UserRepository,
	sessions *SessionStore,
	cfg *config.Config,
) *AuthService {
	return &AuthService{
		tx:        tx,
		userRepo:  userRepo,
		sessions:  sessions,
		secret:    cfg.JWT.AccessSecret,
		accessTTL: cfg.JWT.AccessTTL,
		verify:    password.Verify,
	}
}

// LoginInput represents login input
type LoginInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// RefreshInput carries a raw refresh token
type RefreshInput struct {
	RefreshToken string `json:"refreshToken"`
}

// TokenPair represents access and refresh tokens
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// Principal is the authenticated caller of a request
type Principal struct {
	UserID   uint
	Username string
	Roles    []string
}

// SessionsResponse reports the caller's active sessions
type SessionsResponse struct {
	ActiveSessionsCount int64     `json:"activeSessionsCount"`
	Username            string    `json:"username"`
	Timestamp           time.Time `json:"timestamp"`
}

// Login authenticates a user and opens a new session
func (s *AuthService) Login(ctx context.Context, input *LoginInput) (*TokenPair, error) {
	// 1. Find user by username
	var user *models.User
	err := s.tx.WithinReadOnlyTransaction(ctx, func(ctx context.Context) error {
		var err error
		user, err = s.userRepo.GetByUsername(ctx, input.Username)
		return err
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			verifyDummy(s.verify, input.Password)
			return nil, domain.ErrInvalidCredentials
		}
		return nil, dbError("load user", err)
	}

	// 2. Verify password
	if !s.verify(input.Password, user.PasswordHash) {
		log.Printf("⚠️ Failed login for user: %s", input.Username)
		return nil, domain.ErrInvalidCredentials
	}

	// 3. Check if user is enabled
	if !user.Enabled {
		log.Printf("⚠️ Login attempt for disabled user: %s", input.Username)
		return nil, &domain.Error{Kind: domain.ErrAuthenticationFailed, Message: "user account is disabled"}
	}

	// 4. Generate access token
	accessToken, err := s.accessToken(user)
	if err != nil {
		return nil, err
	}

	// 5. Store refresh token
	refreshToken, err := s.sessions.Issue(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	log.Printf("✅ User logged in: %s", user.Username)
	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

// Refresh issues a new access token for a valid refresh token.
// The refresh token itself is reused.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	user, err := s.sessions.Resolve(ctx, refreshToken)
	if err != nil {
		return nil, err
	}
	if !user.Enabled {
		log.Printf("⚠️ Refresh attempt for disabled user: %s", user.Username)
		return nil, &domain.Error{Kind: domain.ErrAuthenticationFailed, Message: "user account is disabled"}
	}

	accessToken, err := s.accessToken(user)
	if err != nil {
		return nil, err
	}

	log.Printf("✅ Token refreshed for user: %s", user.Username)
	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

// Logout revokes the refresh token
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	if err := s.sessions.Revoke(ctx, refreshToken); err != nil {
		return err
	}

	log.Printf("✅ User logged out")
	return nil
}

// LogoutAll revokes all refresh tokens for a user
func (s *AuthService) LogoutAll(ctx context.Context, userID uint) error {
	n, err := s.sessions.RevokeAll(ctx, userID)
	if err != nil {
		return err
	}

	log.Printf("✅ %d session(s) revoked for user ID: %d", n, userID)
	return nil
}

// Sessions reports how many sessions the user has open
func (s *AuthService) Sessions(ctx context.Context, userID uint, username string) (*SessionsResponse, error) {
	count, err := s.sessions.CountActive(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &SessionsResponse{
		ActiveSessionsCount: count,
		Username:            username,
		Timestamp:           time.Now(),
	}, nil
}

// ValidateAccessToken validates an access token
func (s *AuthService) ValidateAccessToken(accessToken string) (*jwt.Claims, error) {
	return jwt.ValidateAccessToken(accessToken, s.secret)
}

// Authenticate validates an access token and reloads its user.
// Roles come from the database, not from the token.
func (s *AuthService) Authenticate(ctx context.Context, accessToken string) (*Principal, error) {
	// 1. Validate token
	claims, err := s.ValidateAccessToken(accessToken)
	if err != nil {
		message := "Invalid access token"
		if errors.Is(err, jwt.ErrTokenExpired) {
			message = "Access token expired"
		}
		return nil, &domain.Error{Kind: domain.ErrAuthenticationFailed, Message: message, Cause: err}
	}

	// 2. Reload user
	var user *models.User
	err = s.tx.WithinReadOnlyTransaction(ctx, func(ctx context.Context) error {
		user, err = s.userRepo.GetByID(ctx, claims.UserID)
		return err
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &domain.Error{Kind: domain.ErrAuthenticationFailed, Message: "User no longer exists"}
		}
		return nil, dbError("load user", err)
	}

	if user.Username != claims.Username() {
		return nil, &domain.Error{Kind: domain.ErrAuthenticationFailed, Message: "Invalid access token"}
	}

	// 3. Check if user is enabled
	if !user.Enabled {
		return nil, &domain.Error{Kind: domain.ErrAuthenticationFailed, Message: "User account is disabled"}
	}

	roles := user.RoleNames()
	if !sameRoles(roles, claims.RoleList()) {
		log.Printf("ℹ️ Roles changed since token issue for user: %s", user.Username)
	}

	return &Principal{UserID: user.ID, Username: user.Username, Roles: roles}, nil
}

func sameRoles(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	seen := make(map[string]bool, len(a))
	for _, r := range a {
		seen[r] = true
	}
	for _, r := range b {
		if !seen[r] {
			return false
		}
	}
	return true
}

// accessToken signs a short-lived token carrying the user's roles
func (s *AuthService) accessToken(user *models.User) (string, error) {
	token, err := jwt.GenerateAccessToken(user.ID, user.Username, user.RoleNames(), s.secret, s.accessTTL)
	if err != nil {
		return "", fmt.Errorf("failed to issue access token: %w", err)
	}
	return token, nil
}
