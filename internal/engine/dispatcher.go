package engine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"solana-copy-engine/internal/domain"
	"solana-copy-engine/internal/notify"
	"solana-copy-engine/internal/observability"
	"solana-copy-engine/internal/storage"
)

// ErrQuotaExceeded is returned by Dispatch when the user is over their usage
// ceiling. The caller should consider the session terminated for that user.
var ErrQuotaExceeded = errors.New("usage quota exceeded")

// SwapExecutor is the external collaborator that builds, signs, and submits
// the copy swap. The engine only sees the outcome and, on success, the
// resulting transaction ids.
type SwapExecutor interface {
	SwapByMint(ctx context.Context, mint string, intent domain.SwapIntent) ([]string, error)
}

// DefaultExecTimeout bounds a single executor call. The provider has its own
// timeout semantics; this is the engine's ceiling on stuck units.
const DefaultExecTimeout = 90 * time.Second

// DispatcherOptions contains configuration for creating a Dispatcher.
type DispatcherOptions struct {
	Executor    SwapExecutor
	Ledger      storage.UserStore
	Notifier    notify.Notifier
	Results     storage.CopyResultStore // optional result archive
	Metrics     *observability.Metrics  // optional
	ExecTimeout time.Duration           // default DefaultExecTimeout
	Logger      *log.Logger
}

// Dispatcher fans qualifying trade events out to the swap executor. Each
// dispatch runs in its own goroutine so the stream-consume loop never blocks
// on execution; units are tracked so shutdown can observe and optionally
// drain the backlog. The usage ledger is the only shared mutable state and
// all increments go through the store's atomic per-user increment.
type Dispatcher struct {
	executor    SwapExecutor
	ledger      storage.UserStore
	notifier    notify.Notifier
	results     storage.CopyResultStore
	metrics     *observability.Metrics
	execTimeout time.Duration
	logger      *log.Logger

	wg       sync.WaitGroup
	inFlight atomic.Int64
}

// NewDispatcher creates a new Dispatcher.
func NewDispatcher(opts DispatcherOptions) *Dispatcher {
	execTimeout := opts.ExecTimeout
	if execTimeout == 0 {
		execTimeout = DefaultExecTimeout
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	return &Dispatcher{
		executor:    opts.Executor,
		ledger:      opts.Ledger,
		notifier:    opts.Notifier,
		results:     opts.Results,
		metrics:     opts.Metrics,
		execTimeout: execTimeout,
		logger:      logger,
	}
}

// Dispatch checks the user's quota and, if allowed, launches one concurrent
// execution unit for the event. It returns as soon as the unit is launched;
// only the quota check runs synchronously.
//
// Returns ErrQuotaExceeded on quota rejection (the unit is not launched and
// the user is notified), or a ledger error when the quota cannot be read.
func (d *Dispatcher) Dispatch(ctx context.Context, session *domain.SessionContext, event *domain.TradeEvent, intent *domain.SwapIntent, observedAt time.Time) error {
	usage, limit, err := d.ledger.GetUsage(ctx, session.UserID)
	if err != nil {
		// Fail closed: without a readable ledger no money moves.
		if d.metrics != nil {
			d.metrics.LedgerErrors.Inc()
		}
		return fmt.Errorf("quota check for user %s: %w", session.UserID, err)
	}

	if usage > limit {
		if d.metrics != nil {
			d.metrics.QuotaRejections.Inc()
		}
		d.notify(session.UserID, fmt.Sprintf(
			"Copy limit reached (%d used, limit %d). Trade %s not copied; reset your quota to continue.",
			usage, limit, event.Signature))
		return fmt.Errorf("user %s: %w", session.UserID, ErrQuotaExceeded)
	}

	d.wg.Add(1)
	d.inFlight.Add(1)
	if d.metrics != nil {
		d.metrics.DispatchInFlight.Inc()
	}

	// The unit is detached from the session context on purpose: once a swap
	// is submitted it runs to completion regardless of disconnects. Only the
	// execution timeout bounds it.
	unitCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.execTimeout)

	go func() {
		defer func() {
			cancel()
			d.inFlight.Add(-1)
			if d.metrics != nil {
				d.metrics.DispatchInFlight.Dec()
			}
			d.wg.Done()
		}()
		d.settle(unitCtx, session, event, intent, observedAt)
	}()

	return nil
}

// settle runs one execution unit to its terminal state and reports exactly
// one notification for it.
func (d *Dispatcher) settle(ctx context.Context, session *domain.SessionContext, event *domain.TradeEvent, intent *domain.SwapIntent, observedAt time.Time) {
	execStart := time.Now()
	txIDs, execErr := d.executor.SwapByMint(ctx, event.Mint, *intent)
	if d.metrics != nil {
		d.metrics.SwapExecution.Observe(time.Since(execStart).Seconds())
	}

	result := &domain.CopyResult{
		UserID:         session.UserID,
		SourceSig:      event.Signature,
		Mint:           event.Mint,
		Direction:      string(intent.Direction),
		Amount:         intent.Amount,
		LatencyMs:      time.Since(observedAt).Milliseconds(),
		DispatchedAtMs: observedAt.UnixMilli(),
	}

	if execErr != nil {
		if d.metrics != nil {
			d.metrics.SwapsFailed.Inc()
		}
		result.Outcome = domain.OutcomeFailed
		result.Error = execErr.Error()
		d.logger.Printf("swap failed user=%s mint=%s source=%s: %v",
			session.UserID, event.Mint, event.Signature, execErr)
		d.notify(session.UserID, fmt.Sprintf("Skip %s: %v", event.Mint, execErr))
		d.archive(result)
		return
	}

	if d.metrics != nil {
		d.metrics.SwapsSucceeded.Inc()
	}
	result.Outcome = domain.OutcomeSucceeded
	if len(txIDs) > 0 {
		result.CopyTxSig = txIDs[0]
	}

	// Ledger update after a successful swap. A failure here means the swap
	// happened but is not counted; that inconsistency is logged loudly for
	// manual reconciliation and the success is still reported to the user.
	usage, err := d.ledger.IncrementUsage(ctx, session.UserID)
	if err != nil {
		if d.metrics != nil {
			d.metrics.LedgerErrors.Inc()
		}
		d.logger.Printf("PERSISTENCE ERROR: usage increment lost user=%s copy_tx=%s: %v",
			session.UserID, result.CopyTxSig, err)
	}

	d.notify(session.UserID, fmt.Sprintf(
		"Copied %s %s: https://solscan.io/tx/%s (source https://solscan.io/tx/%s, %.6f %s, %dms, usage %d)",
		intent.Direction, event.Mint, result.CopyTxSig, event.Signature,
		intent.Amount, basisUnit(intent), result.LatencyMs, usage))
	d.archive(result)
}

// basisUnit names the intent amount's denomination for notifications.
func basisUnit(intent *domain.SwapIntent) string {
	if intent.Basis == domain.SizeBasisQuote {
		return "SOL"
	}
	return "tokens"
}

// notify delivers one status line, logging delivery failures.
func (d *Dispatcher) notify(userID, message string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := d.notifier.Notify(ctx, userID, message); err != nil {
		d.logger.Printf("notify user=%s failed: %v", userID, err)
	}
}

// archive persists a dispatch outcome when a result store is configured.
func (d *Dispatcher) archive(result *domain.CopyResult) {
	if d.results == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := d.results.Insert(ctx, result); err != nil {
		d.logger.Printf("archive copy result source=%s: %v", result.SourceSig, err)
	}
}

// InFlight returns the number of dispatch units currently running.
func (d *Dispatcher) InFlight() int64 {
	return d.inFlight.Load()
}

// Wait blocks until all in-flight units have settled. Shutdown may call it
// to drain, but is not required to.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}
