package services

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"bankcards/internal/adapters/persistence/repositories"
	"bankcards/internal/config"
	"bankcards/internal/pkg/cardcrypto"
	"bankcards/internal/pkg/pagination"
	"bankcards/internal/pkg/password"
	"bankcards/internal/testutil"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const testKey = "MDEyMzQ1Njc4OWFiY2RlZg=="

func TestMain(m *testing.M) {
	password.Cost = bcrypt.MinCost
	os.Exit(m.Run())
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []Event
}

func (p *recordingPublisher) Publish(_ context.Context, event Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

type fixture struct {
	db     *gorm.DB
	cfg    *config.Config
	codec  *cardcrypto.Codec
	events *recordingPublisher

	tokenRepo repositories.RefreshTokenRepository
	cardRepo  repositories.CardRepository

	sessions *SessionStore
	auth     *AuthService
	users    *UserService
	cards    *CardService
	blocks   *BlockRequestService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := testutil.OpenDB(t)
	cfg := &config.Config{
		AppMode: "dev",
		App:     config.AppConfig{MaxSessionsPerUser: 5},
		JWT: config.JWTConfig{
			AccessSecret:    "test-secret",
			AccessTTL:       15 * time.Minute,
			RefreshTTL:      7 * 24 * time.Hour,
			CleanupInterval: time.Hour,
		},
	}

	codec, err := cardcrypto.NewCodec(testKey, cardcrypto.DefaultIV)
	require.NoError(t, err)

	tx := repositories.NewTxManager(db, 10*time.Second)
	userRepo := repositories.NewUserRepository(db)
	roleRepo := repositories.NewRoleRepository(db)
	cardRepo := repositories.NewCardRepository(db)
	blockRepo := repositories.NewBlockRequestRepository(db)
	tokenRepo := repositories.NewRefreshTokenRepository(db)
	events := &recordingPublisher{}

	sessions := NewSessionStore(tx, userRepo, tokenRepo, cfg)

	return &fixture{
		db:        db,
		cfg:       cfg,
		codec:     codec,
		events:    events,
		tokenRepo: tokenRepo,
		cardRepo:  cardRepo,
		sessions:  sessions,
		auth:      NewAuthService(tx, userRepo, sessions, cfg),
		users:     NewUserService(tx, userRepo, roleRepo, cardRepo, blockRepo, tokenRepo),
		cards:     NewCardService(tx, cardRepo, userRepo, blockRepo, codec, events),
		blocks:    NewBlockRequestService(tx, blockRepo, cardRepo, userRepo, codec, events),
	}
}

func (f *fixture) createUser(t *testing.T, username string, roles ...string) {
	t.Helper()
	_, err := f.users.CreateUser(context.Background(), &CreateUserInput{
		Username: username,
		Password: "password123",
		Roles:    roles,
	})
	require.NoError(t, err)
}

func (f *fixture) createCard(t *testing.T, username, number, balance string) *CardResponse {
	t.Helper()
	card, err := f.cards.CreateCard(context.Background(), &CreateCardInput{
		Username:        username,
		CardNumber:      number,
		CardHolderName:  "TEST HOLDER",
		ExpirationMonth: 12,
		ExpirationYear:  time.Now().Year() + 3,
		InitialBalance:  decimal.RequireFromString(balance),
	})
	require.NoError(t, err)
	return card
}

func pageParams(t *testing.T, page, size int) *pagination.Params {
	t.Helper()
	p, err := pagination.NewParams(page, size)
	require.NoError(t, err)
	return p
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
