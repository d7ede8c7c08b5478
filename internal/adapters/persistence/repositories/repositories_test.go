package repositories

import (
	"context"
	"errors"
	"testing"
	"time"

	"bankcards/internal/adapters/persistence/models"
	"bankcards/internal/core/domain"
	"bankcards/internal/pkg/pagination"
	"bankcards/internal/testutil"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func createUser(t *testing.T, ctx context.Context, db *gorm.DB, username string) *models.User {
	t.Helper()

	role, err := NewRoleRepository(db).GetByName(ctx, domain.RoleUser)
	require.NoError(t, err)

	user := &models.User{Username: username, PasswordHash: "x", Enabled: true, Roles: []models.Role{*role}}
	require.NoError(t, NewUserRepository(db).Create(ctx, user))
	return user
}

func createCard(t *testing.T, ctx context.Context, db *gorm.DB, userID uint, number, holder, status, balance string) *models.Card {
	t.Helper()

	card := &models.Card{
		UserID:          userID,
		EncryptedNumber: number,
		CardHolderName:  holder,
		ExpirationMonth: 12,
		ExpirationYear:  time.Now().Year() + 2,
		Status:          status,
		Balance:         decimal.RequireFromString(balance),
	}
	require.NoError(t, NewCardRepository(db).Create(ctx, card))
	return card
}

func mustParams(t *testing.T, page, size int) *pagination.Params {
	t.Helper()
	p, err := pagination.NewParams(page, size)
	require.NoError(t, err)
	return p
}

func TestUserRepository(t *testing.T) {
	ctx := context.Background()
	db := testutil.OpenDB(t)
	repo := NewUserRepository(db)

	alice := createUser(t, ctx, db, "alice")
	createUser(t, ctx, db, "bob")

	t.Run("get by username loads roles", func(t *testing.T) {
		got, err := repo.GetByUsername(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, alice.ID, got.ID)
		assert.Equal(t, []string{domain.RoleUser}, got.RoleNames())
	})

	t.Run("missing user", func(t *testing.T) {
		_, err := repo.GetByUsername(ctx, "nobody")
		assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
	})

	t.Run("exists", func(t *testing.T) {
		ok, err := repo.ExistsByUsername(ctx, "bob")
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("replace roles", func(t *testing.T) {
		admin, err := NewRoleRepository(db).GetByName(ctx, domain.RoleAdmin)
		require.NoError(t, err)

		require.NoError(t, repo.ReplaceRoles(ctx, alice, []models.Role{*admin}))

		got, err := repo.GetByID(ctx, alice.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{domain.RoleAdmin}, got.RoleNames())
	})

	t.Run("list sorted", func(t *testing.T) {
		params := mustParams(t, 0, 10)
		params.SortColumn = "username"
		params.SortDesc = true

		users, total, err := repo.List(ctx, params)
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
		require.Len(t, users, 2)
		assert.Equal(t, "bob", users[0].Username)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, repo.Delete(ctx, alice))
		_, err := repo.GetByID(ctx, alice.ID)
		assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
	})
}

func TestCardRepository_Search(t *testing.T) {
	ctx := context.Background()
	db := testutil.OpenDB(t)
	repo := NewCardRepository(db)

	alice := createUser(t, ctx, db, "alice")
	bob := createUser(t, ctx, db, "bob")

	createCard(t, ctx, db, alice.ID, "cipherAAA", "ALICE SMITH", "ACTIVE", "100.00")
	createCard(t, ctx, db, alice.ID, "cipherBBB", "ALICE SMITH", "BLOCKED", "5.50")
	createCard(t, ctx, db, bob.ID, "cipherCCC", "BOB JONES", "ACTIVE", "40.00")

	min := decimal.RequireFromString("10")

	tests := []struct {
		name   string
		filter CardFilter
		want   int64
	}{
		{name: "no filter", filter: CardFilter{}, want: 3},
		{name: "by user", filter: CardFilter{UserID: &alice.ID}, want: 2},
		{name: "holder substring case-insensitive", filter: CardFilter{CardHolderName: "jon"}, want: 1},
		{name: "status", filter: CardFilter{Status: "BLOCKED"}, want: 1},
		{name: "min balance", filter: CardFilter{MinBalance: &min}, want: 2},
		{name: "exact ciphertext", filter: CardFilter{EncryptedNumber: "cipherCCC"}, want: 1},
		{name: "ciphertext fragment", filter: CardFilter{NumberFragment: "BBB"}, want: 1},
		{name: "combined", filter: CardFilter{UserID: &alice.ID, Status: "ACTIVE", MinBalance: &min}, want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cards, total, err := repo.Search(ctx, tt.filter, mustParams(t, 0, 20))
			require.NoError(t, err)
			assert.Equal(t, tt.want, total)
			assert.Len(t, cards, int(tt.want))
		})
	}

	t.Run("sort by balance asc with paging", func(t *testing.T) {
		params := mustParams(t, 0, 2)
		params.SortColumn = "balance"

		cards, total, err := repo.Search(ctx, CardFilter{}, params)
		require.NoError(t, err)
		assert.Equal(t, int64(3), total)
		require.Len(t, cards, 2)
		assert.True(t, cards[0].Balance.Equal(decimal.RequireFromString("5.50")))
		assert.True(t, cards[1].Balance.Equal(decimal.RequireFromString("40")))
	})
}

func TestCardRepository_OwnershipAndLocks(t *testing.T) {
	ctx := context.Background()
	db := testutil.OpenDB(t)
	repo := NewCardRepository(db)
	tx := NewTxManager(db, time.Second)

	alice := createUser(t, ctx, db, "alice")
	createUser(t, ctx, db, "bob")
	a := createCard(t, ctx, db, alice.ID, "c1", "ALICE", "ACTIVE", "1")
	b := createCard(t, ctx, db, alice.ID, "c2", "ALICE", "ACTIVE", "2")

	got, err := repo.GetByIDAndUsername(ctx, a.ID, "alice")
	require.NoError(t, err)
	assert.Equal(t, a.ID, got.ID)

	_, err = repo.GetByIDAndUsername(ctx, a.ID, "bob")
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))

	err = tx.WithinTransaction(ctx, func(ctx context.Context) error {
		locked, err := repo.LockByIDs(ctx, b.ID, a.ID, b.ID)
		require.NoError(t, err)
		require.Len(t, locked, 2)
		assert.Equal(t, a.ID, locked[0].ID)
		assert.Equal(t, b.ID, locked[1].ID)
		return nil
	})
	require.NoError(t, err)

	exists, err := repo.ExistsByEncryptedNumber(ctx, "c2")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestCardRepository_Statistics(t *testing.T) {
	ctx := context.Background()
	db := testutil.OpenDB(t)
	repo := NewCardRepository(db)

	empty, err := repo.Statistics(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), empty.TotalCards)
	assert.True(t, empty.TotalBalance.IsZero())

	alice := createUser(t, ctx, db, "alice")
	createCard(t, ctx, db, alice.ID, "c1", "ALICE", "ACTIVE", "10.25")
	createCard(t, ctx, db, alice.ID, "c2", "ALICE", "BLOCKED", "0.50")

	stats, err := repo.Statistics(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.TotalCards)
	assert.Equal(t, int64(1), stats.ActiveCards)
	assert.Equal(t, int64(1), stats.BlockedCards)
	assert.Equal(t, "10.75", stats.TotalBalance.StringFixed(2))

	sum, count, err := repo.BalanceByUser(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
	assert.Equal(t, "10.75", sum.StringFixed(2))
}

func TestTxManager_RollbackAndJoin(t *testing.T) {
	ctx := context.Background()
	db := testutil.OpenDB(t)
	repo := NewCardRepository(db)
	tx := NewTxManager(db, time.Second)

	alice := createUser(t, ctx, db, "alice")
	card := createCard(t, ctx, db, alice.ID, "c1", "ALICE", "ACTIVE", "10")

	boom := errors.New("boom")
	err := tx.WithinTransaction(ctx, func(ctx context.Context) error {
		card.Balance = decimal.NewFromInt(99)
		require.NoError(t, repo.Update(ctx, card))

		// nested call joins the outer transaction
		return tx.WithinTransaction(ctx, func(ctx context.Context) error {
			return boom
		})
	})
	assert.ErrorIs(t, err, boom)

	got, err := repo.GetByID(ctx, card.ID)
	require.NoError(t, err)
	assert.True(t, got.Balance.Equal(decimal.NewFromInt(10)))
}

func TestBlockRequestRepository(t *testing.T) {
	ctx := context.Background()
	db := testutil.OpenDB(t)
	repo := NewBlockRequestRepository(db)

	alice := createUser(t, ctx, db, "alice")
	card := createCard(t, ctx, db, alice.ID, "c1", "ALICE", "ACTIVE", "0")

	first := &models.BlockRequest{CardID: card.ID, UserID: alice.ID, Reason: "lost my wallet", Status: "REJECTED"}
	require.NoError(t, repo.Create(ctx, first))
	second := &models.BlockRequest{CardID: card.ID, UserID: alice.ID, Reason: "stolen at station", Status: "PENDING"}
	require.NoError(t, repo.Create(ctx, second))

	exists, err := repo.ExistsByCardAndStatus(ctx, card.ID, "PENDING")
	require.NoError(t, err)
	assert.True(t, exists)

	count, err := repo.CountByStatus(ctx, "REJECTED")
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	list, total, err := repo.ListByUser(ctx, alice.ID, mustParams(t, 0, 10))
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
	assert.Equal(t, card.ID, list[0].Card.ID)

	pending, total, err := repo.ListByStatus(ctx, "PENDING", mustParams(t, 0, 10))
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, second.ID, pending[0].ID)

	require.NoError(t, repo.DeleteByUser(ctx, alice.ID))
	_, total, err = repo.List(ctx, mustParams(t, 0, 10))
	require.NoError(t, err)
	assert.Equal(t, int64(0), total)
}

func TestRefreshTokenRepository(t *testing.T) {
	ctx := context.Background()
	db := testutil.OpenDB(t)
	repo := NewRefreshTokenRepository(db)
	now := time.Now()

	alice := createUser(t, ctx, db, "alice")

	active := &models.RefreshToken{UserID: alice.ID, TokenHash: "h-active", ExpiresAt: now.Add(time.Hour)}
	expired := &models.RefreshToken{UserID: alice.ID, TokenHash: "h-expired", ExpiresAt: now.Add(-time.Hour)}
	dead := &models.RefreshToken{UserID: alice.ID, TokenHash: "h-dead", ExpiresAt: now.Add(-time.Hour), Revoked: true}
	for _, tok := range []*models.RefreshToken{active, expired, dead} {
		require.NoError(t, repo.Create(ctx, tok))
	}

	got, err := repo.GetActiveByTokenHash(ctx, "h-active")
	require.NoError(t, err)
	assert.Equal(t, "alice", got.User.Username)
	assert.Equal(t, []string{domain.RoleUser}, got.User.RoleNames())

	_, err = repo.GetActiveByTokenHash(ctx, "h-dead")
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))

	count, err := repo.CountActiveByUserID(ctx, alice.ID, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	cleanable, err := repo.CountExpiredAndRevoked(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), cleanable)

	deleted, err := repo.DeleteExpiredAndRevoked(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	n, err := repo.RevokeAllByUserID(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	count, err = repo.CountActiveByUserID(ctx, alice.ID, now)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)

	n, err = repo.RevokeByTokenHash(ctx, "h-active")
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}
