package services

import (
	"context"
	"log"
	"slices"
	"time"

	"bankcards/internal/adapters/persistence/models"
	"bankcards/internal/adapters/persistence/repositories"
	"bankcards/internal/config"
	"bankcards/internal/core/domain"
	"bankcards/internal/pkg/password"

	"github.com/google/uuid"
)

// SessionStore issues, resolves and revokes refresh tokens.
// Only the SHA-256 of a raw token is ever stored.
type SessionStore struct {
	tx          repositories.Transactor
	userRepo    repositories.UserRepository
	tokenRepo   repositories.RefreshTokenRepository
	maxSessions int
	refreshTTL  time.Duration
	now         func() time.Time
}

// NewSessionStore creates a new session store
func NewSessionStore(
	tx repositories.Transactor,
	userRepo repositories.UserRepository,
	tokenRepo repositories.RefreshTokenRepository,
	cfg *config.Config,
) *SessionStore {
	return &SessionStore{
		tx:          tx,
		userRepo:    userRepo,
		tokenRepo:   tokenRepo,
		maxSessions: cfg.App.MaxSessionsPerUser,
		refreshTTL:  cfg.JWT.RefreshTTL,
		now:         time.Now,
	}
}

// Issue creates a refresh token for the user and returns the raw value.
// When the user is at the session cap the oldest sessions are revoked first.
func (s *SessionStore) Issue(ctx context.Context, userID uint) (string, error) {
	var raw string

	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		// 1. Lock the user so concurrent logins count sessions one at a time
		user, err := s.userRepo.LockByID(ctx, userID)
		if err != nil {
			return lookupError(err, domain.ErrUserNotFound, "load user")
		}

		// 2. Enforce session cap
		now := s.now()
		if err := s.enforceCap(ctx, user, now); err != nil {
			return err
		}

		// 3. Create token
		raw = uuid.NewString()
		token := &models.RefreshToken{
			UserID:    user.ID,
			TokenHash: password.HashToken(raw),
			ExpiresAt: now.Add(s.refreshTTL),
		}
		if err := s.tokenRepo.Create(ctx, token); err != nil {
			return dbError("create refresh token", err)
		}
		return nil
	})
	if err != nil {
		return "", dbError("issue refresh token", err)
	}

	return raw, nil
}

// enforceCap revokes the oldest active tokens so one more fits under the cap
func (s *SessionStore) enforceCap(ctx context.Context, user *models.User, now time.Time) error {
	active, err := s.tokenRepo.CountActiveByUserID(ctx, user.ID, now)
	if err != nil {
		return dbError("count sessions", err)
	}
	if active < int64(s.maxSessions) {
		return nil
	}

	tokens, err := s.tokenRepo.ListActiveByUserID(ctx, user.ID, now)
	if err != nil {
		return dbError("list sessions", err)
	}
	// newest first from the repository; oldest first after reversal
	slices.Reverse(tokens)

	excess := int(active) - s.maxSessions + 1
	if excess > len(tokens) {
		excess = len(tokens)
	}

	ids := make([]uint, 0, excess)
	for _, t := range tokens[:excess] {
		ids = append(ids, t.ID)
	}
	if err := s.tokenRepo.RevokeByIDs(ctx, ids); err != nil {
		return dbError("revoke sessions", err)
	}

	log.Printf("🔒 Session limit reached for %s: revoked %d oldest session(s)", user.Username, len(ids))
	return nil
}

// Resolve returns the user owning an active refresh token.
// An expired token is revoked and the revocation is committed before
// ErrRefreshTokenExpired is returned.
func (s *SessionStore) Resolve(ctx context.Context, raw string) (*models.User, error) {
	var (
		user    *models.User
		expired bool
	)

	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		token, err := s.tokenRepo.GetActiveByTokenHash(ctx, password.HashToken(raw))
		if err != nil {
			return lookupError(err, domain.ErrRefreshTokenNotFound, "load refresh token")
		}

		now := s.now()
		if token.IsExpiredAt(now) {
			token.Revoked = true
			token.RevokedAt = &now
			if err := s.tokenRepo.Update(ctx, token); err != nil {
				return dbError("revoke expired token", err)
			}
			expired = true
			return nil
		}

		user = &token.User
		return nil
	})
	if err != nil {
		return nil, dbError("refresh", err)
	}
	if expired {
		return nil, domain.ErrRefreshTokenExpired
	}

	return user, nil
}

// Revoke revokes one refresh token. Unknown or already revoked tokens are ignored.
func (s *SessionStore) Revoke(ctx context.Context, raw string) error {
	var n int64
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		n, err = s.tokenRepo.RevokeByTokenHash(ctx, password.HashToken(raw))
		return err
	})
	if err != nil {
		return dbError("revoke refresh token", err)
	}

	if n == 0 {
		log.Printf("⚠️ Logout with unknown or revoked refresh token")
	}
	return nil
}

// RevokeAll revokes every active refresh token of a user
func (s *SessionStore) RevokeAll(ctx context.Context, userID uint) (int64, error) {
	var n int64
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		n, err = s.tokenRepo.RevokeAllByUserID(ctx, userID)
		return err
	})
	if err != nil {
		return 0, dbError("revoke refresh tokens", err)
	}
	return n, nil
}

// CountActive counts unrevoked, unexpired tokens of a user
func (s *SessionStore) CountActive(ctx context.Context, userID uint) (int64, error) {
	var n int64
	err := s.tx.WithinReadOnlyTransaction(ctx, func(ctx context.Context) error {
		var err error
		n, err = s.tokenRepo.CountActiveByUserID(ctx, userID, s.now())
		return err
	})
	if err != nil {
		return 0, dbError("count sessions", err)
	}
	return n, nil
}

// Cleanup deletes tokens that are both revoked and expired
func (s *SessionStore) Cleanup(ctx context.Context) (int64, error) {
	var deleted int64
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		now := s.now()

		count, err := s.tokenRepo.CountExpiredAndRevoked(ctx, now)
		if err != nil {
			return err
		}
		if count == 0 {
			return nil
		}
		log.Printf("🧹 Found %d revoked and expired refresh token(s)", count)

		deleted, err = s.tokenRepo.DeleteExpiredAndRevoked(ctx, now)
		return err
	})
	if err != nil {
		return 0, dbError("cleanup refresh tokens", err)
	}
	return deleted, nil
}
