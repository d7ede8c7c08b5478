package services

import (
	"context"
	"errors"
	"log"
	"strings"

	"bankcards/internal/adapters/persistence/models"
	"bankcards/internal/adapters/persistence/repositories"
	"bankcards/internal/core/domain"
	"bankcards/internal/pkg/pagination"
	"bankcards/internal/pkg/password"

	"gorm.io/gorm"
)

// UserService handles registration and user management
type UserService struct {
	tx        repositories.Transactor
	userRepo  repositories.UserRepository
	roleRepo  repositories.RoleRepository
	cardRepo  repositories.CardRepository
	blockRepo repositories.BlockRequestRepository
	tokenRepo repositories.RefreshTokenRepository
}

// NewUserService creates a new user service
func NewUserService(
	tx repositories.Transactor,
	userRepo repositories.UserRepository,
	roleRepo repositories.RoleRepository,
	cardRepo repositories.CardRepository,
	blockRepo repositories.BlockRequestRepository,
	tokenRepo repositories.RefreshTokenRepository,
) *UserService {
	return &UserService{
		tx:        tx,
		userRepo:  userRepo,
		roleRepo:  roleRepo,
		cardRepo:  cardRepo,
		blockRepo: blockRepo,
		tokenRepo: tokenRepo,
	}
}

// RegisterInput represents self-registration input
type RegisterInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// CreateUserInput represents admin user creation input
type CreateUserInput struct {
	Username string   `json:"username"`
	Password string   `json:"password"`
	Enabled  *bool    `json:"enabled"`
	Roles    []string `json:"roles"`
}

// Register creates an enabled USER account
func (s *UserService) Register(ctx context.Context, input *RegisterInput) (*models.UserResponse, error) {
	log.Printf("📝 Registering new user: %s", input.Username)
	return s.create(ctx, input.Username, input.Password, true, []string{domain.RoleUser}, false)
}

// CreateUser creates an account on behalf of an admin
func (s *UserService) CreateUser(ctx context.Context, input *CreateUserInput) (*models.UserResponse, error) {
	enabled := true
	if input.Enabled != nil {
		enabled = *input.Enabled
	}
	roles := input.Roles
	if len(roles) == 0 {
		roles = []string{domain.RoleUser}
	}

	log.Printf("📝 Admin creating new user: %s", input.Username)
	return s.create(ctx, input.Username, input.Password, enabled, roles, true)
}

func (s *UserService) create(ctx context.Context, username, plain string, enabled bool, roleNames []string, byAdmin bool) (*models.UserResponse, error) {
	username = strings.TrimSpace(username)

	// Hash outside the transaction; bcrypt is slow
	hash, err := password.Hash(plain)
	if err != nil {
		return nil, err
	}

	var user *models.User
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		// 1. Check username
		exists, err := s.userRepo.ExistsByUsername(ctx, username)
		if err != nil {
			return dbError("check username", err)
		}
		if exists {
			return userExists(username)
		}

		// 2. Resolve roles
		roles, err := s.resolveRoles(ctx, roleNames)
		if err != nil {
			return err
		}

		// 3. Create user
		user = &models.User{
			Username:     username,
			PasswordHash: hash,
			Enabled:      enabled,
			Roles:        roles,
		}
		if err := s.userRepo.Create(ctx, user); err != nil {
			// a concurrent registration won the unique index
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return userExists(username)
			}
			return dbError("save user", err)
		}
		return nil
	})
	if err != nil {
		return nil, dbError("create user", err)
	}

	if byAdmin {
		log.Printf("✅ User %s created by admin with ID: %d", user.Username, user.ID)
	} else {
		log.Printf("✅ User %s registered successfully with ID: %d", user.Username, user.ID)
	}
	return user.ToResponse(), nil
}

// ListUsers lists users with pagination
func (s *UserService) ListUsers(ctx context.Context, params *pagination.Params) (*pagination.Page[*models.UserResponse], error) {
	var page *pagination.Page[*models.UserResponse]
	err := s.tx.WithinReadOnlyTransaction(ctx, func(ctx context.Context) error {
		users, total, err := s.userRepo.List(ctx, params)
		if err != nil {
			return err
		}

		page = pagination.Map(pagination.NewPage(users, params, total), (*models.User).ToResponse)
		return nil
	})
	if err != nil {
		return nil, dbError("list users", err)
	}
	return page, nil
}

// GetByUsername gets a user by username
func (s *UserService) GetByUsername(ctx context.Context, username string) (*models.UserResponse, error) {
	var user *models.User
	err := s.tx.WithinReadOnlyTransaction(ctx, func(ctx context.Context) error {
		var err error
		user, err = s.findByUsername(ctx, username)
		return err
	})
	if err != nil {
		return nil, dbError("get user", err)
	}
	return user.ToResponse(), nil
}

// GetByID gets a user by ID
func (s *UserService) GetByID(ctx context.Context, id uint) (*models.UserResponse, error) {
	var user *models.User
	err := s.tx.WithinReadOnlyTransaction(ctx, func(ctx context.Context) error {
		var err error
		user, err = s.userRepo.GetByID(ctx, id)
		if err != nil {
			return lookupError(err, domain.ErrUserNotFound, "load user")
		}
		return nil
	})
	if err != nil {
		return nil, dbError("get user", err)
	}
	return user.ToResponse(), nil
}

// UpdateRoles replaces a user's roles. Every name must exist.
func (s *UserService) UpdateRoles(ctx context.Context, username string, roleNames []string) (*models.UserResponse, error) {
	if len(roleNames) == 0 {
		return nil, domain.ValidationFailed("at least one role is required")
	}

	var user *models.User
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		user, err = s.findByUsername(ctx, username)
		if err != nil {
			return err
		}

		roles, err := s.resolveRoles(ctx, roleNames)
		if err != nil {
			return err
		}

		if err := s.userRepo.ReplaceRoles(ctx, user, roles); err != nil {
			return dbError("save user", err)
		}
		return nil
	})
	if err != nil {
		return nil, dbError("update roles", err)
	}

	log.Printf("✅ Roles updated for user %s: %v", username, user.RoleNames())
	return user.ToResponse(), nil
}

// ToggleStatus flips the enabled flag. Disabling revokes every session of the user.
func (s *UserService) ToggleStatus(ctx context.Context, username string) (*models.UserResponse, error) {
	var user *models.User
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		user, err = s.findByUsername(ctx, username)
		if err != nil {
			return err
		}

		wasEnabled := user.Enabled
		user.Enabled = !wasEnabled
		if err := s.userRepo.Update(ctx, user); err != nil {
			return dbError("save user", err)
		}

		if wasEnabled {
			n, err := s.tokenRepo.RevokeAllByUserID(ctx, user.ID)
			if err != nil {
				return dbError("revoke refresh tokens", err)
			}
			log.Printf("🔒 Revoked %d refresh token(s) of disabled user %s", n, username)
		}
		return nil
	})
	if err != nil {
		return nil, dbError("toggle user status", err)
	}

	state := "disabled"
	if user.Enabled {
		state = "enabled"
	}
	log.Printf("✅ User %s status changed to: %s", username, state)
	return user.ToResponse(), nil
}

// DeleteUser deletes a user with their cards, block requests and refresh tokens
func (s *UserService) DeleteUser(ctx context.Context, username string) error {
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		user, err := s.findByUsername(ctx, username)
		if err != nil {
			return err
		}

		steps := []struct {
			op  string
			run func(context.Context, uint) error
		}{
			{"delete block requests", s.blockRepo.DeleteByUser},
			{"detach processed block requests", s.blockRepo.ClearProcessedBy},
			{"delete cards", s.cardRepo.DeleteByUser},
			{"delete refresh tokens", s.tokenRepo.DeleteByUser},
		}
		for _, step := range steps {
			if err := step.run(ctx, user.ID); err != nil {
				return dbError(step.op, err)
			}
		}

		if err := s.userRepo.Delete(ctx, user); err != nil {
			return domain.DatabaseError("delete user", err)
		}
		return nil
	})
	if err != nil {
		return dbError("delete user", err)
	}

	log.Printf("✅ User %s deleted successfully", username)
	return nil
}

func (s *UserService) findByUsername(ctx context.Context, username string) (*models.User, error) {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &domain.Error{Kind: domain.ErrUserNotFound, Message: "user not found: " + username}
		}
		return nil, dbError("load user", err)
	}
	return user, nil
}

func (s *UserService) resolveRoles(ctx context.Context, names []string) ([]models.Role, error) {
	seen := make(map[string]struct{}, len(names))
	roles := make([]models.Role, 0, len(names))

	for _, name := range names {
		name = strings.ToUpper(strings.TrimSpace(name))
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}

		role, err := s.roleRepo.GetByName(ctx, name)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, &domain.Error{Kind: domain.ErrRoleNotFound, Message: "role not found: " + name}
			}
			return nil, dbError("load role", err)
		}
		roles = append(roles, *role)
	}
	return roles, nil
}

func userExists(username string) error {
	return &domain.Error{Kind: domain.ErrUserAlreadyExists, Message: "user already exists: " + username}
}
