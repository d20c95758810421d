package clickhouse

import (
	"context"
	"fmt"

	"solana-copy-engine/internal/domain"
	"solana-copy-engine/internal/storage"
)

// CopyResultStore implements storage.CopyResultStore using ClickHouse.
// Dispatch outcomes are append-only analytic rows; MergeTree fits.
type CopyResultStore struct {
	conn *Conn
}

// NewCopyResultStore creates a new CopyResultStore.
func NewCopyResultStore(conn *Conn) *CopyResultStore {
	return &CopyResultStore{conn: conn}
}

// Compile-time interface check.
var _ storage.CopyResultStore = (*CopyResultStore)(nil)

// Insert records one dispatch outcome.
func (s *CopyResultStore) Insert(ctx context.Context, r *domain.CopyResult) error {
	if r == nil || r.UserID == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO copy_results (
			user_id, source_sig, mint, direction, amount,
			outcome, copy_tx_sig, error, latency_ms, dispatched_at_ms
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	err := s.conn.Exec(ctx, query,
		r.UserID, r.SourceSig, r.Mint, r.Direction, r.Amount,
		r.Outcome, r.CopyTxSig, r.Error, r.LatencyMs, uint64(r.DispatchedAtMs),
	)
	if err != nil {
		return fmt.Errorf("insert copy result: %w", err)
	}
	return nil
}

// GetByUser retrieves all results for a user, newest first.
func (s *CopyResultStore) GetByUser(ctx context.Context, userID string) ([]*domain.CopyResult, error) {
	query := `
		SELECT user_id, source_sig, mint, direction, amount,
		       outcome, copy_tx_sig, error, latency_ms, dispatched_at_ms
		FROM copy_results
		WHERE user_id = ?
		ORDER BY dispatched_at_ms DESC
	`

	rows, err := s.conn.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("query copy results: %w", err)
	}
	defer rows.Close()

	var results []*domain.CopyResult
	for rows.Next() {
		var r domain.CopyResult
		var dispatchedAt uint64
		err := rows.Scan(
			&r.UserID, &r.SourceSig, &r.Mint, &r.Direction, &r.Amount,
			&r.Outcome, &r.CopyTxSig, &r.Error, &r.LatencyMs, &dispatchedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan copy result: %w", err)
		}
		r.DispatchedAtMs = int64(dispatchedAt)
		results = append(results, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate copy results: %w", err)
	}

	return results, nil
}
