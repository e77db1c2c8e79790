package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	enfmodels "birthday-guard-backend/internal/features/enforcement/models"
	enfsqlite "birthday-guard-backend/internal/features/enforcement/repository/sqlite"
	invitemodels "birthday-guard-backend/internal/features/invite/models"
	invitesqlite "birthday-guard-backend/internal/features/invite/repository/sqlite"
	"birthday-guard-backend/internal/features/roster/models"
	"birthday-guard-backend/internal/features/roster/repository"
	"birthday-guard-backend/internal/platform/sqlite"
)

func newTestDB(t *testing.T) *sqlite.Client {
	t.Helper()

	client, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"), sqlite.Migrations())
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	return client
}

func TestUserRepository(t *testing.T) {
	db := newTestDB(t)
	repo := NewUserRepository(db.DB())
	ctx := context.Background()

	user := &models.User{ID: 42, FirstName: "Ivan", LastName: "Petrov", Username: "ivanpetrov"}
	require.NoError(t, repo.Create(ctx, user))

	got, err := repo.GetByID(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, user, got)

	got, err = repo.GetByUsername(ctx, "@ivanpetrov")
	require.NoError(t, err)
	assert.Equal(t, int64(42), got.ID)

	user.Username = "ivan_p"
	require.NoError(t, repo.Update(ctx, user))
	got, err = repo.GetByID(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, "ivan_p", got.Username)

	_, err = repo.GetByID(ctx, 999)
	assert.ErrorIs(t, err, repository.ErrUserNotFound)

	err = repo.Update(ctx, &models.User{ID: 999, FirstName: "Nobody"})
	assert.ErrorIs(t, err, repository.ErrUserNotFound)
}

func TestMembershipRepository(t *testing.T) {
	db := newTestDB(t)
	repo := NewMembershipRepository(db.DB())
	ctx := context.Background()

	require.NoError(t, repo.Add(ctx, 7, 42))
	require.NoError(t, repo.Add(ctx, 8, 42))
	// Duplicate rows are tolerated, not rejected.
	require.NoError(t, repo.Add(ctx, 7, 42))

	chats, err := repo.ChatsByUser(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, []int64{7, 8}, chats, "duplicates collapse to one entry per chat")

	exists, err := repo.Exists(ctx, 7, 42)
	require.NoError(t, err)
	assert.True(t, exists)

	// Remove clears duplicates with the pair.
	require.NoError(t, repo.Remove(ctx, 7, 42))
	exists, err = repo.Exists(ctx, 7, 42)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestChatMigrateIDCascades(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	chats := NewChatRepository(db.DB())
	memberships := NewMembershipRepository(db.DB())
	bans := enfsqlite.NewBanRepository(db.DB())
	bindings := invitesqlite.NewBindingRepository(db.DB())

	require.NoError(t, chats.Upsert(ctx, &models.Chat{ID: 7, Title: "Друзья", Type: "group"}))
	require.NoError(t, memberships.Add(ctx, 7, 42))
	now := time.Date(2026, time.August, 31, 0, 0, 0, 0, time.UTC)
	require.NoError(t, bans.Create(ctx, &enfmodels.BanRecord{UserID: 42, ChatID: 7, BannedUntil: now.Add(time.Hour)}))
	require.NoError(t, bindings.Create(ctx, &invitemodels.Binding{Link: "https://t.me/+x", ChatID: 7, UserID: 42}))

	require.NoError(t, chats.MigrateID(ctx, 7, -1007))

	_, err := chats.GetByID(ctx, 7)
	assert.ErrorIs(t, err, repository.ErrChatNotFound)

	migrated, err := chats.GetByID(ctx, -1007)
	require.NoError(t, err)
	assert.Equal(t, "Друзья", migrated.Title)

	memberChats, err := memberships.ChatsByUser(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, []int64{-1007}, memberChats)

	active, err := bans.ExistsActive(ctx, 42, -1007, now)
	require.NoError(t, err)
	assert.True(t, active, "ban record follows the chat id")

	binding, err := bindings.Consume(ctx, "https://t.me/+x")
	require.NoError(t, err)
	assert.Equal(t, int64(-1007), binding.ChatID)
}
