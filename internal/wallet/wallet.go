// Package wallet handles the copy wallet keypair and address validation.
package wallet

import (
	"crypto/ed25519"
	"fmt"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"
)

// Keypair is an ed25519 signing key with its base58 public address.
type Keypair struct {
	priv   ed25519.PrivateKey
	pubkey string
}

// FromBase58 imports a keypair from its base58-encoded 64-byte secret, the
// format wallet apps export.
func FromBase58(secret string) (*Keypair, error) {
	raw, err := base58.Decode(secret)
	if err != nil {
		return nil, fmt.Errorf("decode keypair: %w", err)
	}
	if len(raw) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("keypair must be %d bytes, got %d", ed25519.PrivateKeySize, len(raw))
	}

	priv := ed25519.PrivateKey(raw)
	pub := priv.Public().(ed25519.PublicKey)

	return &Keypair{
		priv:   priv,
		pubkey: base58.Encode(pub),
	}, nil
}

// Pubkey returns the base58 public address.
func (k *Keypair) Pubkey() string {
	return k.pubkey
}

// Sign signs a message with the private key.
func (k *Keypair) Sign(message []byte) []byte {
	return ed25519.Sign(k.priv, message)
}

// ValidateAddress checks that addr is a base58-encoded 32-byte key.
func ValidateAddress(addr string) error {
	raw, err := base58.Decode(addr)
	if err != nil {
		return fmt.Errorf("decode address: %w", err)
	}
	if len(raw) != 32 {
		return fmt.Errorf("address must decode to 32 bytes, got %d", len(raw))
	}
	return nil
}

// IsOnCurve reports whether the address is a valid ed25519 curve point.
// Wallet addresses are on-curve; program-derived addresses (bonding curves,
// vaults) are off-curve. Useful for telling a signer apart from a pool.
func IsOnCurve(addr string) bool {
	raw, err := base58.Decode(addr)
	if err != nil || len(raw) != 32 {
		return false
	}
	_, err = new(edwards25519.Point).SetBytes(raw)
	return err == nil
}
