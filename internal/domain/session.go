package domain

// SessionContext is the immutable per-run configuration snapshot for one
// monitoring session. It is constructed once at startup and shared read-only
// across all concurrently dispatched units. Configuration changes require a
// new context and a re-subscription, never mutation.
type SessionContext struct {
	UserID       string   // owner of this session (ledger key)
	WSEndpoint   string   // provider WebSocket endpoint
	WalletPubkey string   // base58 public key of the copy wallet
	TokenPercent float64  // scaling percentage applied to observed deltas
	SlippageBps  uint64   // slippage tolerance for copy swaps
	Targets      []string // wallet addresses whose trades are mirrored

	// UseAcceleratedRelay routes copy swaps through the priority submission
	// path. Defaults on: the copy is racing the original trade.
	UseAcceleratedRelay bool
}
