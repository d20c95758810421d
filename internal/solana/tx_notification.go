package solana

import "encoding/json"

// TxNotification is the minimal typed view of a transactionNotification
// message. Only the fields the trade extractor needs are captured; everything
// else in the provider payload is ignored so wire-format drift stays isolated
// here.
type TxNotification struct {
	Method string               `json:"method"`
	Params *TxNotificationParam `json:"params"`
}

// TxNotificationParam carries the subscription id and the result envelope.
type TxNotificationParam struct {
	Subscription int64    `json:"subscription"`
	Result       TxResult `json:"result"`
}

// TxResult is one streamed transaction.
type TxResult struct {
	Slot        uint64     `json:"slot"`
	Signature   string     `json:"signature"`
	Transaction *TxWrapper `json:"transaction"`
}

// TxWrapper mirrors the provider's nested transaction/meta split.
type TxWrapper struct {
	Transaction *TxInner `json:"transaction"`
	Meta        *TxMeta  `json:"meta"`
}

// TxInner holds the parsed message.
type TxInner struct {
	Message *TxMessage `json:"message"`
}

// TxMessage holds the jsonParsed account-key list.
type TxMessage struct {
	AccountKeys []AccountKey `json:"accountKeys"`
}

// AccountKey is one entry of the jsonParsed account-key list.
type AccountKey struct {
	Pubkey   string `json:"pubkey"`
	Signer   bool   `json:"signer"`
	Writable bool   `json:"writable"`
}

// TxMeta carries balance deltas. PreBalances/PostBalances are lamport arrays
// indexed by account-key position.
type TxMeta struct {
	PreBalances       []uint64       `json:"preBalances"`
	PostBalances      []uint64       `json:"postBalances"`
	PreTokenBalances  []TokenBalance `json:"preTokenBalances"`
	PostTokenBalances []TokenBalance `json:"postTokenBalances"`
}

// TokenBalance is one SPL token balance entry.
type TokenBalance struct {
	AccountIndex  int           `json:"accountIndex"`
	Mint          string        `json:"mint"`
	Owner         string        `json:"owner"`
	UITokenAmount UITokenAmount `json:"uiTokenAmount"`
}

// UITokenAmount is the ui-scaled token amount. UIAmount is null for
// zero-balance accounts, hence the pointer.
type UITokenAmount struct {
	UIAmount *float64 `json:"uiAmount"`
	Decimals int      `json:"decimals"`
	Amount   string   `json:"amount"`
}

// UIValue returns the ui-scaled amount, defaulting to 0 when absent.
func (a UITokenAmount) UIValue() float64 {
	if a.UIAmount == nil {
		return 0
	}
	return *a.UIAmount
}

// DecodeTxNotification parses a raw stream message into the typed schema.
// A message that is valid JSON but not a transactionNotification (acks,
// keepalives) decodes with a nil or empty Params; the extractor classifies
// those, not this layer.
func DecodeTxNotification(message []byte) (*TxNotification, error) {
	var n TxNotification
	if err := json.Unmarshal(message, &n); err != nil {
		return nil, err
	}
	return &n, nil
}

// AccountKeys returns the transaction's account-key list, or nil when any
// layer of the envelope is missing.
func (n *TxNotification) AccountKeys() []AccountKey {
	if n.Params == nil || n.Params.Result.Transaction == nil {
		return nil
	}
	inner := n.Params.Result.Transaction.Transaction
	if inner == nil || inner.Message == nil {
		return nil
	}
	return inner.Message.AccountKeys
}

// Meta returns the transaction meta, or nil when absent.
func (n *TxNotification) Meta() *TxMeta {
	if n.Params == nil || n.Params.Result.Transaction == nil {
		return nil
	}
	return n.Params.Result.Transaction.Meta
}
