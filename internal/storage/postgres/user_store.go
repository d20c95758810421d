package postgres

import (
	"context"
	"fmt"

	"solana-copy-engine/internal/domain"
	"solana-copy-engine/internal/storage"
)

// UserStore implements storage.UserStore using PostgreSQL.
type UserStore struct {
	pool *Pool
}

// NewUserStore creates a new UserStore.
func NewUserStore(pool *Pool) *UserStore {
	return &UserStore{pool: pool}
}

// Compile-time interface check.
var _ storage.UserStore = (*UserStore)(nil)

// Insert adds a new user. Returns ErrDuplicateKey if user_id exists.
func (s *UserStore) Insert(ctx context.Context, u *domain.UserRecord) error {
	if u == nil || u.UserID == "" {
		return storage.ErrInvalidInput
	}

	quota := u.QuotaLimit
	if quota == 0 {
		quota = domain.DefaultQuotaLimit
	}

	query := `
		INSERT INTO users (
			user_id, target_address, wallet_pubkey, usage_count, quota_limit, created_at
		) VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := s.pool.Exec(ctx, query,
		u.UserID,
		u.TargetAddress,
		u.WalletPubkey,
		u.UsageCount,
		quota,
		u.CreatedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// GetByID retrieves a user by id. Returns ErrNotFound if not exists.
func (s *UserStore) GetByID(ctx context.Context, userID string) (*domain.UserRecord, error) {
	query := `
		SELECT user_id, target_address, wallet_pubkey, usage_count, quota_limit, created_at
		FROM users
		WHERE user_id = $1
	`

	var u domain.UserRecord
	err := s.pool.QueryRow(ctx, query, userID).Scan(
		&u.UserID,
		&u.TargetAddress,
		&u.WalletPubkey,
		&u.UsageCount,
		&u.QuotaLimit,
		&u.CreatedAt,
	)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}

// GetUsage reads the user's current usage count and quota limit.
func (s *UserStore) GetUsage(ctx context.Context, userID string) (uint64, uint64, error) {
	query := `SELECT usage_count, quota_limit FROM users WHERE user_id = $1`

	var usage, limit uint64
	err := s.pool.QueryRow(ctx, query, userID).Scan(&usage, &limit)
	if err != nil {
		if isNotFoundError(err) {
			return 0, 0, storage.ErrNotFound
		}
		return 0, 0, fmt.Errorf("get usage: %w", err)
	}
	return usage, limit, nil
}

// IncrementUsage atomically adds 1 to the user's usage count. The single
// UPDATE serializes concurrent increments at the row level, so concurrent
// dispatch units cannot lose a count.
func (s *UserStore) IncrementUsage(ctx context.Context, userID string) (uint64, error) {
	query := `
		UPDATE users
		SET usage_count = usage_count + 1
		WHERE user_id = $1
		RETURNING usage_count
	`

	var usage uint64
	err := s.pool.QueryRow(ctx, query, userID).Scan(&usage)
	if err != nil {
		if isNotFoundError(err) {
			return 0, storage.ErrNotFound
		}
		return 0, fmt.Errorf("increment usage: %w", err)
	}
	return usage, nil
}

// SetTargetAddress updates the wallet this user copies.
func (s *UserStore) SetTargetAddress(ctx context.Context, userID, address string) error {
	query := `UPDATE users SET target_address = $2 WHERE user_id = $1`

	tag, err := s.pool.Exec(ctx, query, userID, address)
	if err != nil {
		return fmt.Errorf("set target address: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}
