package models

import (
	"time"
)

// ============ Tree state ============

// CommitmentRecord is one inserted leaf of the commitment tree.
type CommitmentRecord struct {
	ID             uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	LeafIndex      uint64    `gorm:"uniqueIndex;not null" json:"leaf_index"`
	CommitmentHash string    `gorm:"type:varchar(66);uniqueIndex;not null" json:"commitment_hash"` // 0x + 64 hex
	RootAfter      string    `gorm:"type:varchar(66);not null" json:"root_after"`                  // tree root after this insert
	Operation      string    `gorm:"type:varchar(20);not null" json:"operation"`                   // shield | mint | transfer
	CreatedAt      time.Time `json:"created_at"`
}

func (CommitmentRecord) TableName() string {
	return "commitments"
}

// RootRecord is one historical tree root. Roots never expire.
type RootRecord struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	RootHash  string    `gorm:"type:varchar(66);uniqueIndex;not null" json:"root_hash"`
	LeafCount uint64    `gorm:"not null" json:"leaf_count"` // leaves in the tree when this root was produced
	CreatedAt time.Time `json:"created_at"`
}

func (RootRecord) TableName() string {
	return "roots"
}

// NullifierRecord is one consumed nullifier. A row here means the note is
// spent forever.
type NullifierRecord struct {
	ID            uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	NullifierHash string    `gorm:"type:varchar(66);uniqueIndex;not null" json:"nullifier_hash"`
	Operation     string    `gorm:"type:varchar(20);not null" json:"operation"` // transfer | unshield
	CreatedAt     time.Time `json:"created_at"`
}

func (NullifierRecord) TableName() string {
	return "nullifiers"
}

// ============ Asset state ============

// ShieldedAssetRecord.State values
const (
	AssetStatePublic   = "public"
	AssetStateShielded = "shielded"
)

// ShieldedAssetRecord tracks the shield cycle position of one asset.
type ShieldedAssetRecord struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	AssetID   string    `gorm:"type:varchar(66);uniqueIndex;not null" json:"asset_id"`
	State     string    `gorm:"type:varchar(20);not null" json:"state"` // public | shielded
	Minted    bool      `gorm:"default:false" json:"minted"`            // true when born inside the pool
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (ShieldedAssetRecord) TableName() string {
	return "shielded_assets"
}

// AssetOwnerRecord is the public ownership row backing the asset registry.
// While an asset sits in escrow its Owner is the zero address.
type AssetOwnerRecord struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	AssetID   string    `gorm:"type:varchar(66);uniqueIndex;not null" json:"asset_id"`
	Owner     string    `gorm:"type:varchar(42);not null" json:"owner"`
	Escrowed  bool      `gorm:"default:false" json:"escrowed"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (AssetOwnerRecord) TableName() string {
	return "asset_owners"
}

// ============ Relay state ============

// RelayNonceRecord is the persisted per-signer relay nonce.
type RelayNonceRecord struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Signer    string    `gorm:"type:varchar(42);uniqueIndex;not null" json:"signer"` // 0x + 40 hex
	Nonce     uint64    `gorm:"not null" json:"nonce"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (RelayNonceRecord) TableName() string {
	return "relay_nonces"
}

// RelayedOperation is one executed relayed intent, kept for auditing.
type RelayedOperation struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Kind      string    `gorm:"type:varchar(20);not null" json:"kind"` // transfer | unshield
	Signer    string    `gorm:"type:varchar(42);not null;index" json:"signer"`
	Relayer   string    `gorm:"type:varchar(42);not null;index" json:"relayer"`
	Nullifier string    `gorm:"type:varchar(66);not null" json:"nullifier"`
	Fee       string    `gorm:"type:varchar(78);not null" json:"fee"` // decimal string, fits uint256
	Nonce     uint64    `gorm:"not null" json:"nonce"`
	CreatedAt time.Time `json:"created_at"`
}

func (RelayedOperation) TableName() string {
	return "relayed_operations"
}

// RelayerBalance is the accrued fee balance of one relayer.
type RelayerBalance struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Relayer   string    `gorm:"type:varchar(42);uniqueIndex;not null" json:"relayer"`
	Balance   string    `gorm:"type:varchar(78);not null;default:'0'" json:"balance"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (RelayerBalance) TableName() string {
	return "relayer_balances"
}
