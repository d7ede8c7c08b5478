package config

import (
	"context"
	"errors"
	"log"

	"bankcards/internal/adapters/persistence/models"
	"bankcards/internal/adapters/persistence/repositories"
	"bankcards/internal/pkg/password"

	"gorm.io/gorm"
)

var seedRoles = []string{"USER", "ADMIN"}

// Seeder handles database seeding
type Seeder struct {
	roles repositories.RoleRepository
	users repositories.UserRepository
	admin AdminConfig
}

// NewSeeder creates a new seeder instance
func NewSeeder(db *gorm.DB, admin AdminConfig) *Seeder {
	return &Seeder{
		roles: repositories.NewRoleRepository(db),
		users: repositories.NewUserRepository(db),
		admin: admin,
	}
}

// Run executes all seeders
func (s *Seeder) Run() error {
	log.Println("🌱 Running database seeders...")
	ctx := context.Background()

	roles, err := s.seedRoles(ctx)
	if err != nil {
		return err
	}

	if err := s.seedAdminUser(ctx, roles); err != nil {
		log.Printf("⚠️ Admin seeder skipped: %v", err)
	}

	log.Println("✅ Database seeding completed")
	return nil
}

// seedRoles creates the USER and ADMIN roles if they are missing
func (s *Seeder) seedRoles(ctx context.Context) ([]models.Role, error) {
	roles := make([]models.Role, 0, len(seedRoles))
	for _, name := range seedRoles {
		role, err := s.roles.GetByName(ctx, name)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			role = &models.Role{RoleName: name, Enabled: true}
			err = s.roles.Create(ctx, role)
			if err == nil {
				log.Printf("✅ Role created: %s", name)
			}
		}
		if err != nil {
			return nil, err
		}
		roles = append(roles, *role)
	}
	return roles, nil
}

// seedAdminUser creates the bootstrap administrator.
// Skipped when no admin password is configured or the username is taken.
func (s *Seeder) seedAdminUser(ctx context.Context, roles []models.Role) error {
	if s.admin.Password == "" {
		log.Println("⚠️ Skipping admin seed: no admin password configured")
		return nil
	}

	exists, err := s.users.ExistsByUsername(ctx, s.admin.Username)
	if err != nil || exists {
		return err
	}

	hashedPassword, err := password.Hash(s.admin.Password)
	if err != nil {
		return err
	}

	admin := &models.User{
		Username:     s.admin.Username,
		PasswordHash: hashedPassword,
		Enabled:      true,
		Roles:        roles,
	}
	if err := s.users.Create(ctx, admin); err != nil {
		return err
	}

	log.Printf("✅ Admin user created: %s", admin.Username)
	return nil
}
