package solana

import "context"

// RPCClient defines the Solana RPC HTTP surface the copy engine touches:
// startup balance reporting and the transaction-submission path used by the
// swap executor collaborator.
type RPCClient interface {
	// GetBalance retrieves the lamport balance of an account.
	GetBalance(ctx context.Context, pubkey string) (uint64, error)

	// GetLatestBlockhash retrieves a recent blockhash for transaction building.
	GetLatestBlockhash(ctx context.Context) (string, error)

	// SendTransaction submits a signed, serialized transaction and returns
	// its signature.
	SendTransaction(ctx context.Context, signedTxBase64 string) (string, error)
}
