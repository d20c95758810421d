package postgres

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"solana-copy-engine/internal/domain"
	"solana-copy-engine/internal/storage"
)

func TestUserStore_InsertAndGet(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewUserStore(pool)
	ctx := context.Background()

	user := &domain.UserRecord{
		UserID:        "chat-1001",
		TargetAddress: "9yg3B2vUpCuFmJBdtyRjBZMJDSzAWSaroXo6iZne7CVj",
		WalletPubkey:  "FeEVo9fJ1JFholPuHWYzHzGyhbYdWbk41mzyPcb3KSWb",
		QuotaLimit:    5,
		CreatedAt:     1756600000,
	}
	require.NoError(t, store.Insert(ctx, user))

	got, err := store.GetByID(ctx, "chat-1001")
	require.NoError(t, err)
	require.Equal(t, user.TargetAddress, got.TargetAddress)
	require.Equal(t, user.WalletPubkey, got.WalletPubkey)
	require.Equal(t, uint64(0), got.UsageCount)
	require.Equal(t, uint64(5), got.QuotaLimit)
	require.Equal(t, int64(1756600000), got.CreatedAt)
}

func TestUserStore_InsertDefaultQuota(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewUserStore(pool)
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, &domain.UserRecord{UserID: "chat-1"}))

	got, err := store.GetByID(ctx, "chat-1")
	require.NoError(t, err)
	require.Equal(t, uint64(domain.DefaultQuotaLimit), got.QuotaLimit)
}

func TestUserStore_InsertDuplicate(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewUserStore(pool)
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, &domain.UserRecord{UserID: "chat-1"}))
	err := store.Insert(ctx, &domain.UserRecord{UserID: "chat-1"})
	require.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestUserStore_InsertInvalid(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewUserStore(pool)
	ctx := context.Background()

	require.ErrorIs(t, store.Insert(ctx, nil), storage.ErrInvalidInput)
	require.ErrorIs(t, store.Insert(ctx, &domain.UserRecord{}), storage.ErrInvalidInput)
}

func TestUserStore_GetByIDNotFound(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewUserStore(pool)

	_, err := store.GetByID(context.Background(), "missing")
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestUserStore_GetUsage(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewUserStore(pool)
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, &domain.UserRecord{UserID: "chat-1", QuotaLimit: 3}))

	usage, limit, err := store.GetUsage(ctx, "chat-1")
	require.NoError(t, err)
	require.Equal(t, uint64(0), usage)
	require.Equal(t, uint64(3), limit)

	_, _, err = store.GetUsage(ctx, "missing")
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestUserStore_IncrementUsage(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewUserStore(pool)
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, &domain.UserRecord{UserID: "chat-1"}))

	usage, err := store.IncrementUsage(ctx, "chat-1")
	require.NoError(t, err)
	require.Equal(t, uint64(1), usage)

	usage, err = store.IncrementUsage(ctx, "chat-1")
	require.NoError(t, err)
	require.Equal(t, uint64(2), usage)

	_, err = store.IncrementUsage(ctx, "missing")
	require.ErrorIs(t, err, storage.ErrNotFound)
}

// Concurrent dispatch units increment the same row; the single UPDATE must
// not lose counts.
func TestUserStore_IncrementUsageConcurrent(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewUserStore(pool)
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, &domain.UserRecord{UserID: "chat-1"}))

	const n = 10
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := store.IncrementUsage(ctx, "chat-1"); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	usage, _, err := store.GetUsage(ctx, "chat-1")
	require.NoError(t, err)
	require.Equal(t, uint64(n), usage)
}

func TestUserStore_SetTargetAddress(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewUserStore(pool)
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, &domain.UserRecord{UserID: "chat-1", TargetAddress: "old"}))
	require.NoError(t, store.SetTargetAddress(ctx, "chat-1", "new-target"))

	got, err := store.GetByID(ctx, "chat-1")
	require.NoError(t, err)
	require.Equal(t, "new-target", got.TargetAddress)

	require.ErrorIs(t, store.SetTargetAddress(ctx, "missing", "x"), storage.ErrNotFound)
}
