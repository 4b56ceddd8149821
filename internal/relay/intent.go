package relay

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// IntentKind identifies the operation a signed intent authorizes. Each kind
// hashes under its own type identifier, so a signature for one kind can
// never be replayed as another.
type IntentKind string

const (
	KindTransfer IntentKind = "transfer"
	KindUnshield IntentKind = "unshield"
)

var (
	domainTypeHash = crypto.Keccak256Hash(
		[]byte("EIP712Domain(string name,string version,uint256 chainId,bytes32 poolId)"))

	transferTypeHash = crypto.Keccak256Hash(
		[]byte("TransferIntent(bytes32 nullifier,bytes32 newCommitment,bytes32 root,address relayer,uint256 fee,uint256 nonce,uint256 deadline)"))

	unshieldTypeHash = crypto.Keccak256Hash(
		[]byte("UnshieldIntent(bytes32 nullifier,bytes32 assetId,address recipient,bytes32 root,address relayer,uint256 fee,uint256 nonce,uint256 deadline)"))
)

// TransferIntent authorizes a relayer to submit a private transfer on the
// signer's behalf.
type TransferIntent struct {
	Nullifier     common.Hash
	NewCommitment common.Hash
	Root          common.Hash
	Relayer       common.Address
	Fee           *big.Int
	Nonce         uint64
	Deadline      time.Time
}

// UnshieldIntent authorizes a relayer to submit an unshield on the signer's
// behalf.
type UnshieldIntent struct {
	Nullifier common.Hash
	AssetID   common.Hash
	Recipient common.Address
	Root      common.Hash
	Relayer   common.Address
	Fee       *big.Int
	Nonce     uint64
	Deadline  time.Time
}

func uint256Word(v *big.Int) common.Hash {
	var w common.Hash
	if v != nil {
		v.FillBytes(w[:])
	}
	return w
}

func uint64Word(v uint64) common.Hash {
	return uint256Word(new(big.Int).SetUint64(v))
}

func addressWord(a common.Address) common.Hash {
	var w common.Hash
	copy(w[12:], a.Bytes())
	return w
}

// structHash hashes the fixed field layout of a transfer intent under its
// type identifier.
func (in *TransferIntent) structHash() common.Hash {
	relayer := addressWord(in.Relayer)
	fee := uint256Word(in.Fee)
	nonce := uint64Word(in.Nonce)
	deadline := uint64Word(uint64(in.Deadline.Unix()))

	return crypto.Keccak256Hash(
		transferTypeHash.Bytes(),
		in.Nullifier.Bytes(),
		in.NewCommitment.Bytes(),
		in.Root.Bytes(),
		relayer.Bytes(),
		fee.Bytes(),
		nonce.Bytes(),
		deadline.Bytes(),
	)
}

// structHash hashes the fixed field layout of an unshield intent under its
// type identifier.
func (in *UnshieldIntent) structHash() common.Hash {
	recipient := addressWord(in.Recipient)
	relayer := addressWord(in.Relayer)
	fee := uint256Word(in.Fee)
	nonce := uint64Word(in.Nonce)
	deadline := uint64Word(uint64(in.Deadline.Unix()))

	return crypto.Keccak256Hash(
		unshieldTypeHash.Bytes(),
		in.Nullifier.Bytes(),
		in.AssetID.Bytes(),
		recipient.Bytes(),
		in.Root.Bytes(),
		relayer.Bytes(),
		fee.Bytes(),
		nonce.Bytes(),
		deadline.Bytes(),
	)
}
