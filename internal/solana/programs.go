package solana

// Well-known program IDs.
const (
	// PumpFunProgram is the pump.fun bonding-curve program.
	PumpFunProgram = "6EF8rrecthR5Dkzon8Nwu78hRvfCKubJ14M5uBEwF6P"

	// JupiterAggregatorV6 is the Jupiter swap aggregator. Transactions routed
	// through it are excluded from the copy stream: the aggregator's multi-hop
	// balance layout breaks the two-party pool resolution.
	JupiterAggregatorV6 = "JUP6LkbZbjS1jKKwapdHNy74zcZ3tLUZoi5QNyVTaV4"
)
