package memory

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"solana-copy-engine/internal/domain"
	"solana-copy-engine/internal/storage"
)

func TestUserStore_InsertAndGet(t *testing.T) {
	store := NewUserStore()
	ctx := context.Background()

	user := &domain.UserRecord{UserID: "chat-1", TargetAddress: "target", QuotaLimit: 4}
	require.NoError(t, store.Insert(ctx, user))

	got, err := store.GetByID(ctx, "chat-1")
	require.NoError(t, err)
	require.Equal(t, "target", got.TargetAddress)
	require.Equal(t, uint64(4), got.QuotaLimit)

	// Mutating the returned copy must not affect the store.
	got.TargetAddress = "tampered"
	again, err := store.GetByID(ctx, "chat-1")
	require.NoError(t, err)
	require.Equal(t, "target", again.TargetAddress)
}

func TestUserStore_InsertDefaultsAndErrors(t *testing.T) {
	store := NewUserStore()
	ctx := context.Background()

	require.ErrorIs(t, store.Insert(ctx, nil), storage.ErrInvalidInput)
	require.ErrorIs(t, store.Insert(ctx, &domain.UserRecord{}), storage.ErrInvalidInput)

	require.NoError(t, store.Insert(ctx, &domain.UserRecord{UserID: "chat-1"}))
	require.ErrorIs(t, store.Insert(ctx, &domain.UserRecord{UserID: "chat-1"}), storage.ErrDuplicateKey)

	_, limit, err := store.GetUsage(ctx, "chat-1")
	require.NoError(t, err)
	require.Equal(t, uint64(domain.DefaultQuotaLimit), limit)
}

func TestUserStore_IncrementUsageConcurrent(t *testing.T) {
	store := NewUserStore()
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, &domain.UserRecord{UserID: "chat-1"}))

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = store.IncrementUsage(ctx, "chat-1")
		}()
	}
	wg.Wait()

	usage, _, err := store.GetUsage(ctx, "chat-1")
	require.NoError(t, err)
	require.Equal(t, uint64(n), usage)
}

func TestUserStore_NotFound(t *testing.T) {
	store := NewUserStore()
	ctx := context.Background()

	_, err := store.GetByID(ctx, "missing")
	require.ErrorIs(t, err, storage.ErrNotFound)
	_, _, err = store.GetUsage(ctx, "missing")
	require.ErrorIs(t, err, storage.ErrNotFound)
	_, err = store.IncrementUsage(ctx, "missing")
	require.ErrorIs(t, err, storage.ErrNotFound)
	require.ErrorIs(t, store.SetTargetAddress(ctx, "missing", "x"), storage.ErrNotFound)
}

func TestCopyResultStore(t *testing.T) {
	store := NewCopyResultStore()
	ctx := context.Background()

	require.ErrorIs(t, store.Insert(ctx, &domain.CopyResult{}), storage.ErrInvalidInput)

	require.NoError(t, store.Insert(ctx, &domain.CopyResult{UserID: "chat-1", SourceSig: "a", DispatchedAtMs: 100}))
	require.NoError(t, store.Insert(ctx, &domain.CopyResult{UserID: "chat-1", SourceSig: "b", DispatchedAtMs: 300}))
	require.NoError(t, store.Insert(ctx, &domain.CopyResult{UserID: "chat-2", SourceSig: "c", DispatchedAtMs: 200}))

	got, err := store.GetByUser(ctx, "chat-1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, "b", got[0].SourceSig, "newest first")
	require.Equal(t, "a", got[1].SourceSig)
}
