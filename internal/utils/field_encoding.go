// Package utils provides hex parsing helpers for the HTTP surface. All
// handlers funnel user-supplied hex through these so malformed input is
// rejected before it reaches the pool.
package utils

import (
	"crypto/ecdsa"
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// ParseHash parses a 0x-prefixed 32-byte hex word.
func ParseHash(s string) (common.Hash, error) {
	trimmed := strings.TrimPrefix(strings.ToLower(s), "0x")
	if len(trimmed) != 64 {
		return common.Hash{}, fmt.Errorf("expected 32-byte hex word, got %d hex chars", len(trimmed))
	}
	raw, err := hex.DecodeString(trimmed)
	if err != nil {
		return common.Hash{}, fmt.Errorf("invalid hex: %w", err)
	}
	return common.BytesToHash(raw), nil
}

// ParseAddress parses a 0x-prefixed 20-byte address.
func ParseAddress(s string) (common.Address, error) {
	trimmed := strings.TrimPrefix(strings.ToLower(s), "0x")
	if len(trimmed) != 40 {
		return common.Address{}, fmt.Errorf("expected 20-byte address, got %d hex chars", len(trimmed))
	}
	raw, err := hex.DecodeString(trimmed)
	if err != nil {
		return common.Address{}, fmt.Errorf("invalid hex: %w", err)
	}
	return common.BytesToAddress(raw), nil
}

// ParseBytes parses arbitrary-length 0x-prefixed hex, rejecting empty input.
func ParseBytes(s string) ([]byte, error) {
	trimmed := strings.TrimPrefix(strings.ToLower(s), "0x")
	if trimmed == "" {
		return nil, fmt.Errorf("empty hex input")
	}
	raw, err := hex.DecodeString(trimmed)
	if err != nil {
		return nil, fmt.Errorf("invalid hex: %w", err)
	}
	return raw, nil
}

// ParseBigInt parses a non-negative decimal string.
func ParseBigInt(s string) (*big.Int, error) {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("invalid decimal number: %q", s)
	}
	if v.Sign() < 0 {
		return nil, fmt.Errorf("negative number: %q", s)
	}
	return v, nil
}

// ParsePublicKey parses a 65-byte uncompressed secp256k1 public key.
func ParsePublicKey(s string) (*ecdsa.PublicKey, error) {
	raw, err := ParseBytes(s)
	if err != nil {
		return nil, err
	}
	pub, err := crypto.UnmarshalPubkey(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid public key: %w", err)
	}
	return pub, nil
}

// ParsePrivateScalar parses a 32-byte private key scalar.
func ParsePrivateScalar(s string) (*ecdsa.PrivateKey, error) {
	raw, err := ParseBytes(s)
	if err != nil {
		return nil, err
	}
	priv, err := crypto.ToECDSA(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}
	return priv, nil
}

// EncodePublicKey encodes a public key in 65-byte uncompressed hex form.
func EncodePublicKey(pub *ecdsa.PublicKey) string {
	return "0x" + hex.EncodeToString(crypto.FromECDSAPub(pub))
}
