package domain

// TradeEvent represents one observed on-chain swap by a monitored wallet.
// It is constructed once per streamed message and never mutated.
type TradeEvent struct {
	Slot      uint64 // ledger slot, ordering hint only
	Signature string // unique transaction signature
	Actor     string // signing wallet that initiated the trade
	Mint      string // traded token mint address

	// Actor's token balance before and after the trade (ui-scaled).
	TokenPreAmount  float64
	TokenPostAmount float64

	// The pool account's native balance before and after, in lamports.
	PoolPreLamports  uint64
	PoolPostLamports uint64
}

// TokenDelta returns the actor's token balance change (post - pre).
func (e *TradeEvent) TokenDelta() float64 {
	return e.TokenPostAmount - e.TokenPreAmount
}

// SwapDirection is the side of a copy trade.
type SwapDirection string

const (
	SwapDirectionBuy  SwapDirection = "buy"
	SwapDirectionSell SwapDirection = "sell"
)

// SizeBasis defines what the intent amount is denominated in.
type SizeBasis string

const (
	// SizeBasisQuote means Amount is SOL to spend (buys).
	SizeBasisQuote SizeBasis = "quote"
	// SizeBasisBase means Amount is token quantity to sell.
	SizeBasisBase SizeBasis = "base"
)

// SwapIntent is the decision engine's output: a sized, directional copy order.
type SwapIntent struct {
	Direction           SwapDirection
	Basis               SizeBasis
	Amount              float64 // strictly positive
	SlippageBps         uint64
	UseAcceleratedRelay bool
}

// LamportsPerSOL is the native-currency scale factor.
const LamportsPerSOL = 1_000_000_000

// LamportsToSOL converts a lamport amount to ui-scaled SOL.
func LamportsToSOL(lamports uint64) float64 {
	return float64(lamports) / LamportsPerSOL
}
