package engine

import (
	"context"
	"crypto/sha256"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/mr-tron/base58"

	"solana-copy-engine/internal/domain"
)

// DryRunExecutor records every intent it receives and fabricates a
// deterministic signature instead of touching the chain. Used for paper
// trading a target before committing funds.
type DryRunExecutor struct {
	logger *log.Logger

	mu      sync.Mutex
	intents []domain.SwapIntent
}

var _ SwapExecutor = (*DryRunExecutor)(nil)

// NewDryRunExecutor creates a new DryRunExecutor.
func NewDryRunExecutor(logger *log.Logger) *DryRunExecutor {
	if logger == nil {
		logger = log.Default()
	}
	return &DryRunExecutor{logger: logger}
}

// SwapByMint records the intent and returns a synthetic signature derived
// from the mint and submission time.
func (e *DryRunExecutor) SwapByMint(ctx context.Context, mint string, intent domain.SwapIntent) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	e.mu.Lock()
	e.intents = append(e.intents, intent)
	e.mu.Unlock()

	sum := sha256.Sum256(fmt.Appendf(nil, "%s/%s/%f/%d", mint, intent.Direction, intent.Amount, time.Now().UnixNano()))
	sig := base58.Encode(sum[:])

	e.logger.Printf("dry run: %s %f (%s basis) of %s slippage=%dbps", intent.Direction, intent.Amount, intent.Basis, mint, intent.SlippageBps)
	return []string{sig}, nil
}

// Intents returns a copy of every intent recorded so far.
func (e *DryRunExecutor) Intents() []domain.SwapIntent {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]domain.SwapIntent, len(e.intents))
	copy(out, e.intents)
	return out
}
