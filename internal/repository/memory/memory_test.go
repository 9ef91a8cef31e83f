package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"example.com/identity/internal/model"
)

func TestAccountRepository_BindIdempotencyKey_FirstWriterWins(t *testing.T) {
	repo := NewAccountRepository()
	ctx := context.Background()

	first, err := repo.Create(ctx, model.Account{TenantID: "tenant-a", Email: "a@example.com"})
	require.NoError(t, err)
	second, err := repo.Create(ctx, model.Account{TenantID: "tenant-a", Email: "a@example.com"})
	require.NoError(t, err)

	winner, err := repo.BindIdempotencyKey(ctx, "tenant-a", "key-1", first.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, winner)

	winner, err = repo.BindIdempotencyKey(ctx, "tenant-a", "key-1", second.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, winner)

	// The losing duplicate row is discarded.
	_, err = repo.Get(ctx, second.ID, "tenant-a")
	require.ErrorIs(t, err, model.ErrNotFound)

	got, err := repo.Get(ctx, first.ID, "tenant-a")
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", got.Email)
}

func TestAccountRepository_BindIdempotencyKey_Concurrent(t *testing.T) {
	repo := NewAccountRepository()
	ctx := context.Background()

	const callers = 16
	winners := make([]uuid.UUID, callers)

	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			account, err := repo.Create(ctx, model.Account{TenantID: "tenant-a", Email: "race@example.com"})
			assert.NoError(t, err)
			winner, err := repo.BindIdempotencyKey(ctx, "tenant-a", "race-key", account.ID)
			assert.NoError(t, err)
			winners[i] = winner
		}(i)
	}
	wg.Wait()

	for i := 1; i < callers; i++ {
		assert.Equal(t, winners[0], winners[i])
	}
}

func TestAccountRepository_Get_TenantScoped(t *testing.T) {
	repo := NewAccountRepository()
	ctx := context.Background()

	account, err := repo.Create(ctx, model.Account{TenantID: "tenant-a", Email: "a@example.com"})
	require.NoError(t, err)

	_, err = repo.Get(ctx, account.ID, "tenant-b")
	require.ErrorIs(t, err, model.ErrNotFound)
}

func TestRefreshTokenRepository_RevokeClaimedOnce(t *testing.T) {
	repo := NewRefreshTokenRepository()
	ctx := context.Background()

	token := model.RefreshToken{
		ID:        uuid.New(),
		AccountID: uuid.New(),
		TenantID:  "tenant-a",
		TokenHash: "hash-1",
		ExpiresAt: time.Now().Add(time.Hour),
	}
	require.NoError(t, repo.Create(ctx, token))

	const callers = 16
	claims := make([]bool, callers)

	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			claimed, err := repo.Revoke(ctx, token.ID)
			assert.NoError(t, err)
			claims[i] = claimed
		}(i)
	}
	wg.Wait()

	total := 0
	for _, claimed := range claims {
		if claimed {
			total++
		}
	}
	assert.Equal(t, 1, total)

	found, err := repo.Find(ctx, "hash-1")
	require.NoError(t, err)
	assert.NotNil(t, found.RevokedAt)
}

func TestAuditLogRepository_KeysetOrderBreaksTies(t *testing.T) {
	repo := NewAuditLogRepository()
	fixed := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	repo.Now = func() time.Time { return fixed }
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := repo.Append(ctx, model.AuditEvent{TenantID: "tenant-a", EventType: model.EventTokenIssued})
		require.NoError(t, err)
	}

	events, err := repo.Query(ctx, model.AuditQuery{TenantID: "tenant-a", Limit: 10})
	require.NoError(t, err)
	require.Len(t, events, 3)

	// Same timestamp: the audit id alone must order the page.
	assert.Equal(t, int64(3), events[0].AuditID)
	assert.Equal(t, int64(2), events[1].AuditID)
	assert.Equal(t, int64(1), events[2].AuditID)

	cursor := &model.AuditCursor{CreatedAt: events[1].CreatedAt, AuditID: events[1].AuditID}
	rest, err := repo.Query(ctx, model.AuditQuery{TenantID: "tenant-a", Limit: 10, Cursor: cursor})
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.Equal(t, int64(1), rest[0].AuditID)
}
