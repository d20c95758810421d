package engine

import (
	"solana-copy-engine/internal/domain"
)

// Decide sizes a copy order for an event already known to involve a tracked
// target. Pure function: no I/O, no side effects.
//
// The actor's token balance increasing classifies a buy; the SOL the target
// spent is inferred from the pool's lamport delta and scaled by the session
// percentage. Anything else is a sell of the actor's token delta. A zero
// delta produces no intent; zero-amount orders are never emitted.
func Decide(event *domain.TradeEvent, session *domain.SessionContext) *domain.SwapIntent {
	delta := event.TokenDelta()
	if delta == 0 {
		return nil
	}

	intent := &domain.SwapIntent{
		SlippageBps:         session.SlippageBps,
		UseAcceleratedRelay: session.UseAcceleratedRelay,
	}

	if delta > 0 {
		// Pool lamport deltas come out signed either way depending on which
		// side of the curve the resolved account sits on; the spend magnitude
		// is what matters.
		var spentLamports uint64
		if event.PoolPostLamports >= event.PoolPreLamports {
			spentLamports = event.PoolPostLamports - event.PoolPreLamports
		} else {
			spentLamports = event.PoolPreLamports - event.PoolPostLamports
		}
		spent := domain.LamportsToSOL(spentLamports)
		intent.Direction = domain.SwapDirectionBuy
		intent.Basis = domain.SizeBasisQuote
		intent.Amount = spent * session.TokenPercent / 100
	} else {
		intent.Direction = domain.SwapDirectionSell
		intent.Basis = domain.SizeBasisBase
		intent.Amount = -delta * session.TokenPercent / 100
	}

	if intent.Amount <= 0 {
		return nil
	}
	return intent
}
