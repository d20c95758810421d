package domain

// DefaultQuotaLimit is the number of successful copy trades permitted per
// user before an external reset is required.
const DefaultQuotaLimit = 2

// UserRecord represents a subscribed user's persisted state.
// Corresponds to the users table in PostgreSQL.
type UserRecord struct {
	UserID        string // PRIMARY KEY (chat/session identifier)
	TargetAddress string // wallet this user copies
	WalletPubkey  string // user's copy wallet public key
	UsageCount    uint64 // successful copy trades so far, monotonic
	QuotaLimit    uint64 // usage ceiling (DefaultQuotaLimit unless overridden)
	CreatedAt     int64  // record creation timestamp (ms)
}

// QuotaExhausted reports whether the user is over the usage ceiling.
// The comparison is strictly greater-than: a user at the limit still gets
// their last dispatch.
func (u *UserRecord) QuotaExhausted() bool {
	return u.UsageCount > u.QuotaLimit
}

// CopyResult is the persisted consequence of one dispatched copy trade.
// Corresponds to copy_results in ClickHouse. TradeEvents themselves are not
// persisted, only their dispatch outcomes.
type CopyResult struct {
	UserID         string
	SourceSig      string  // signature of the observed target trade
	Mint           string
	Direction      string  // "buy" | "sell"
	Amount         float64 // intent amount in its basis units
	Outcome        string  // "succeeded" | "failed" | "rejected"
	CopyTxSig      string  // first executor transaction id, empty on failure
	Error          string  // failure reason, empty on success
	LatencyMs      int64   // observe-to-settle latency
	DispatchedAtMs int64
}

// Copy outcome constants.
const (
	OutcomeSucceeded = "succeeded"
	OutcomeFailed    = "failed"
	OutcomeRejected  = "rejected"
)
