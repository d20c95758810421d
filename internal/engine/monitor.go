package engine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"solana-copy-engine/internal/domain"
	"solana-copy-engine/internal/observability"
	"solana-copy-engine/internal/solana"
)

// MessageStream is the subset of the stream client the monitor consumes.
type MessageStream interface {
	Next(ctx context.Context) ([]byte, error)
	Close() error
}

// DefaultDedupCapacity bounds the signature dedup window. Old entries are
// evicted FIFO once the window fills.
const DefaultDedupCapacity = 4096

// MonitorOptions contains configuration for creating a Monitor.
type MonitorOptions struct {
	Stream        MessageStream
	Registry      *Registry
	Dispatcher    *Dispatcher
	Session       *domain.SessionContext
	Metrics       *observability.Metrics // optional
	Logger        *log.Logger
	DedupCapacity int // default DefaultDedupCapacity
}

// Monitor consumes the raw message stream for one session: it extracts trade
// events, filters them against the target registry, sizes copy orders, and
// hands qualifying ones to the dispatcher. The consume loop never blocks on
// execution and never dies from a single bad message.
type Monitor struct {
	stream     MessageStream
	registry   *Registry
	dispatcher *Dispatcher
	session    *domain.SessionContext
	metrics    *observability.Metrics
	logger     *log.Logger

	seen      map[string]struct{}
	seenOrder []string
	seenCap   int
}

// NewMonitor creates a new Monitor.
func NewMonitor(opts MonitorOptions) *Monitor {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	seenCap := opts.DedupCapacity
	if seenCap <= 0 {
		seenCap = DefaultDedupCapacity
	}

	return &Monitor{
		stream:     opts.Stream,
		registry:   opts.Registry,
		dispatcher: opts.Dispatcher,
		session:    opts.Session,
		metrics:    opts.Metrics,
		logger:     logger,
		seen:       make(map[string]struct{}, seenCap),
		seenCap:    seenCap,
	}
}

// Run consumes the stream until the context is cancelled, the connection is
// lost, or the user's quota is exhausted.
//
// Returns nil on cancellation and on quota exhaustion (both end the session
// cleanly); connection loss is returned as an error so the caller can apply
// its restart policy.
func (m *Monitor) Run(ctx context.Context) error {
	if m.metrics != nil {
		m.metrics.SessionsStarted.Inc()
	}
	defer m.stream.Close()

	m.logger.Printf("session started user=%s targets=%d percent=%.1f", m.session.UserID, m.registry.Len(), m.session.TokenPercent)

	for {
		message, err := m.stream.Next(ctx)
		if err != nil {
			if ctx.Err() != nil {
				m.endSession("shutdown")
				return nil
			}
			m.endSession("disconnect")
			return fmt.Errorf("stream ended: %w", err)
		}
		receivedAt := time.Now()

		if m.metrics != nil {
			m.metrics.MessagesReceived.Inc()
		}

		if subID, ok := solana.ParseSubscribeAck(message); ok {
			m.logger.Printf("subscription confirmed id=%d", subID)
			continue
		}

		event, err := ExtractTradeEvent(message)
		if err != nil {
			m.countExtractionFailure(err)
			continue
		}

		if m.metrics != nil {
			m.metrics.TradesDetected.Inc()
		}

		if m.isDuplicate(event.Signature) {
			continue
		}

		if !m.registry.IsTarget(event.Actor) {
			continue
		}
		if m.metrics != nil {
			m.metrics.TargetTrades.Inc()
		}
		m.logger.Printf("target trade sig=%s actor=%s mint=%s slot=%d", event.Signature, event.Actor, event.Mint, event.Slot)

		intent := Decide(event, m.session)
		if intent == nil {
			continue
		}

		if err := m.dispatcher.Dispatch(ctx, m.session, event, intent, receivedAt); err != nil {
			if errors.Is(err, ErrQuotaExceeded) {
				m.logger.Printf("session ending: %v", err)
				m.endSession("quota")
				return nil
			}
			// Ledger read failure: skip this event, keep the stream alive.
			m.logger.Printf("dispatch skipped: %v", err)
			continue
		}

		if m.metrics != nil {
			m.metrics.MessageHandling.Observe(time.Since(receivedAt).Seconds())
		}
	}
}

// isDuplicate records the signature and reports whether it was already seen
// inside the dedup window.
func (m *Monitor) isDuplicate(signature string) bool {
	if signature == "" {
		return false
	}
	if _, ok := m.seen[signature]; ok {
		return true
	}

	if len(m.seenOrder) >= m.seenCap {
		oldest := m.seenOrder[0]
		m.seenOrder = m.seenOrder[1:]
		delete(m.seen, oldest)
	}
	m.seen[signature] = struct{}{}
	m.seenOrder = append(m.seenOrder, signature)
	return false
}

func (m *Monitor) countExtractionFailure(err error) {
	if m.metrics == nil {
		return
	}
	switch {
	case errors.Is(err, ErrNoSigner):
		m.metrics.ExtractionFailures.WithLabelValues("no_signer").Inc()
	default:
		m.metrics.ExtractionFailures.WithLabelValues("not_trade").Inc()
	}
}

func (m *Monitor) endSession(reason string) {
	if m.metrics != nil {
		m.metrics.SessionsEnded.WithLabelValues(reason).Inc()
	}
}
