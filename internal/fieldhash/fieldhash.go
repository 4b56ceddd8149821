// Package fieldhash provides the deterministic field-element hash used for
// commitments, nullifiers and Merkle node combination. All values are BN254
// scalar field elements encoded as 32-byte big-endian hashes; inputs are
// reduced into the field before hashing so the output is stable regardless of
// how the caller obtained the bytes.
package fieldhash

import (
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr/mimc"
	"github.com/ethereum/go-ethereum/common"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

// nullifierDomainTag separates nullifier hashes from commitment hashes that
// share the same note preimage. The tag is itself a field element.
var nullifierDomainTag = Reduce(common.BytesToHash(ethcrypto.Keccak256([]byte("shieldpool.nullifier.v1"))))

// Reduce maps an arbitrary 32-byte value into the scalar field and returns
// its canonical big-endian encoding.
func Reduce(v common.Hash) common.Hash {
	var el fr.Element
	el.SetBytes(v.Bytes())
	b := el.Bytes()
	return common.BytesToHash(b[:])
}

// Hash absorbs each element (reduced into the field) into a MiMC sponge and
// returns the squeezed element.
func Hash(elems ...common.Hash) common.Hash {
	h := mimc.NewMiMC()
	for _, e := range elems {
		var el fr.Element
		el.SetBytes(e.Bytes())
		b := el.Bytes()
		// canonical field bytes never fail the hasher's range check
		h.Write(b[:]) //nolint:errcheck
	}
	return common.BytesToHash(h.Sum(nil))
}

// Commitment computes the note commitment H(secret, assetID, ownerKey).
func Commitment(secret, assetID, ownerKey common.Hash) common.Hash {
	return Hash(secret, assetID, ownerKey)
}

// Nullifier computes the one-time spend tag H(secret, assetID, ownerKey, tag).
// The domain tag keeps a note's nullifier distinct from its commitment.
func Nullifier(secret, assetID, ownerKey common.Hash) common.Hash {
	return Hash(secret, assetID, ownerKey, nullifierDomainTag)
}

// CombineNodes hashes two Merkle siblings into their parent node.
func CombineNodes(left, right common.Hash) common.Hash {
	return Hash(left, right)
}

// Modulus returns the scalar field modulus.
func Modulus() *big.Int {
	return fr.Modulus()
}
