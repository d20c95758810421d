// Package engine implements the trade monitoring and copy-execution core:
// event extraction, the copy decision, and concurrent dispatch.
package engine

import (
	"errors"
	"fmt"

	"solana-copy-engine/internal/domain"
	"solana-copy-engine/internal/solana"
)

// Extraction failure classes. They are distinct for observability: acks and
// keepalives are routine, a trade notification without a signer is not.
var (
	// ErrNotTradeMessage marks messages that carry no transaction payload
	// (subscription acks, keepalives, unparseable frames).
	ErrNotTradeMessage = errors.New("not a trade notification")

	// ErrNoSigner marks a transaction payload whose account-key list has no
	// signer entry; the trade cannot be attributed to a wallet.
	ErrNoSigner = errors.New("no signer in account keys")
)

// ExtractTradeEvent turns one raw streamed message into a TradeEvent.
// It is pure and idempotent: the same message always yields the same event
// or the same failure class.
//
// Every lookup except the two hard failures defaults instead of aborting:
// a missing actor balance entry reads as 0 (fresh token account), an
// unresolvable pool index reads as index 0 with 0 lamport balances.
func ExtractTradeEvent(message []byte) (*domain.TradeEvent, error) {
	notif, err := solana.DecodeTxNotification(message)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotTradeMessage, err)
	}

	keys := notif.AccountKeys()
	if keys == nil {
		return nil, ErrNotTradeMessage
	}

	actor := ""
	for _, key := range keys {
		if key.Signer {
			actor = key.Pubkey
			break
		}
	}
	if actor == "" {
		return nil, ErrNoSigner
	}

	event := &domain.TradeEvent{
		Slot:      notif.Params.Result.Slot,
		Signature: notif.Params.Result.Signature,
		Actor:     actor,
	}

	meta := notif.Meta()
	if meta == nil {
		return event, nil
	}

	// Pool heuristic carried over from the observed program shape: whichever
	// post-balance owner is not the actor is taken as the pool (bonding
	// curve), last writer wins. The mint follows whichever of actor/pool
	// owns an entry, again last writer wins.
	pool := ""
	for _, b := range meta.PostTokenBalances {
		if b.Owner != actor {
			pool = b.Owner
		}
		if b.Owner == actor || b.Owner == pool {
			event.Mint = b.Mint
		}
	}

	for _, b := range meta.PostTokenBalances {
		if b.Owner == actor {
			event.TokenPostAmount = b.UITokenAmount.UIValue()
			break
		}
	}
	for _, b := range meta.PreTokenBalances {
		if b.Owner == actor {
			event.TokenPreAmount = b.UITokenAmount.UIValue()
			break
		}
	}

	poolIndex := 0
	for i, key := range keys {
		if key.Pubkey == pool {
			poolIndex = i
			break
		}
	}
	if poolIndex < len(meta.PreBalances) {
		event.PoolPreLamports = meta.PreBalances[poolIndex]
	}
	if poolIndex < len(meta.PostBalances) {
		event.PoolPostLamports = meta.PostBalances[poolIndex]
	}

	return event, nil
}
