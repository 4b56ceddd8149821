// Package types provides common request type definitions used across the
// HTTP surface.
package types

// ShieldRequest escrows a public asset into the pool.
type ShieldRequest struct {
	Caller     string `json:"caller" binding:"required"`     // 0x + 40 hex
	AssetID    string `json:"asset_id" binding:"required"`   // 0x + 64 hex
	Commitment string `json:"commitment" binding:"required"` // 0x + 64 hex
	Proof      string `json:"proof" binding:"required"`      // hex encoded proof bytes
}

// MintShieldedRequest mints a fresh asset directly into the pool.
type MintShieldedRequest struct {
	Commitment  string `json:"commitment" binding:"required"`
	MetadataTag string `json:"metadata_tag" binding:"required"` // 0x + 64 hex
	Proof       string `json:"proof" binding:"required"`
}

// TransferRequest spends a note and inserts its replacement commitment.
type TransferRequest struct {
	Nullifier     string `json:"nullifier" binding:"required"`
	NewCommitment string `json:"new_commitment" binding:"required"`
	Root          string `json:"root" binding:"required"`
	Proof         string `json:"proof" binding:"required"`
}

// UnshieldRequest spends a note and releases the asset to a public recipient.
type UnshieldRequest struct {
	Nullifier string `json:"nullifier" binding:"required"`
	AssetID   string `json:"asset_id" binding:"required"`
	Recipient string `json:"recipient" binding:"required"` // 0x + 40 hex
	Root      string `json:"root" binding:"required"`
	Proof     string `json:"proof" binding:"required"`
}

// RelayTransferRequest carries a signed transfer intent submitted by a relayer.
type RelayTransferRequest struct {
	Intent    TransferIntentRequest `json:"intent" binding:"required"`
	Signature string                `json:"signature" binding:"required"` // 65-byte hex
	Relayer   string                `json:"relayer" binding:"required"`
	Proof     string                `json:"proof" binding:"required"`
}

// TransferIntentRequest is the wire form of a transfer intent.
type TransferIntentRequest struct {
	Nullifier     string `json:"nullifier" binding:"required"`
	NewCommitment string `json:"new_commitment" binding:"required"`
	Root          string `json:"root" binding:"required"`
	Relayer       string `json:"relayer" binding:"required"`
	Fee           string `json:"fee" binding:"required"` // decimal string
	Nonce         uint64 `json:"nonce"`
	Deadline      int64  `json:"deadline" binding:"required"` // unix seconds
}

// RelayUnshieldRequest carries a signed unshield intent submitted by a relayer.
type RelayUnshieldRequest struct {
	Intent    UnshieldIntentRequest `json:"intent" binding:"required"`
	Signature string                `json:"signature" binding:"required"`
	Relayer   string                `json:"relayer" binding:"required"`
	Proof     string                `json:"proof" binding:"required"`
}

// UnshieldIntentRequest is the wire form of an unshield intent.
type UnshieldIntentRequest struct {
	Nullifier string `json:"nullifier" binding:"required"`
	AssetID   string `json:"asset_id" binding:"required"`
	Recipient string `json:"recipient" binding:"required"`
	Root      string `json:"root" binding:"required"`
	Relayer   string `json:"relayer" binding:"required"`
	Fee       string `json:"fee" binding:"required"`
	Nonce     uint64 `json:"nonce"`
	Deadline  int64  `json:"deadline" binding:"required"`
}

// StealthAddressRequest derives a one-time address for a recipient view key.
type StealthAddressRequest struct {
	RecipientViewPub string `json:"recipient_view_pub" binding:"required"` // 65-byte uncompressed hex
}

// StealthCheckRequest tests whether a stealth address belongs to a view key.
type StealthCheckRequest struct {
	ViewPriv     string `json:"view_priv" binding:"required"`     // 32-byte hex
	EphemeralPub string `json:"ephemeral_pub" binding:"required"` // 65-byte uncompressed hex
	StealthPub   string `json:"stealth_pub" binding:"required"`
}
