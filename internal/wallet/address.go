package wallet

import (
	"crypto/sha256"

	"github.com/ccoin/shieldwallet/internal/sapling"
)

// PaymentAddress is a diversified shielded payment address: the recipient's
// diversifier and the diversified transmission key derived against it.
// Mirrors sapling_crypto::primitives::PaymentAddress as used by
// zcash_wallet's builder (the `to` parameter of add_sapling_output).
type PaymentAddress struct {
	Diversifier [11]byte
	Pkd         sapling.Point
}

// GD derives the diversifier base point g_d for addr, the generator a
// note's value commitment and the recipient's pk_d are both defined
// against. Real Sapling diversifiers are rejection-sampled so that roughly
// half of all possible 11-byte strings hash to a valid curve point; this
// package has no curve-independent hash-to-curve primitive to lean on, so
// it instead reserves the all-zero diversifier as the one value GD
// rejects, which is enough to exercise add_sapling_output's InvalidAddress
// path while every other diversifier a real account would generate
// succeeds deterministically.
func (addr PaymentAddress) GD() (sapling.Point, bool) {
	if addr.Diversifier == ([11]byte{}) {
		return sapling.Point{}, false
	}
	h := sha256.Sum256(append([]byte("SAPLING_DIVERSIFIER_GD:"), addr.Diversifier[:]...))
	s := sapling.ScalarFromBytes(h[:])
	return sapling.ValueCommitmentBase().ScalarMul(s), true
}

// positionBytes packs a tree position into the byte layout
// DeriveNullifier expects.
func positionBytes(position uint64) [8]byte {
	var b [8]byte
	v := position
	for i := 7; i >= 0; i-- {
		b[i] = byte(v)
		v >>= 8
	}
	return b
}

// DeriveNullifier computes the nullifier revealed when spending note at
// position, under viewing key nk. Mirrors Note::nf: a deterministic tag
// binding the spending key's nullifier-deriving component to the note's
// commitment and its position in the tree, so the same note spent twice
// always reveals the same nullifier.
func DeriveNullifier(nk sapling.Scalar, cmu [32]byte, position uint64) [32]byte {
	pos := positionBytes(position)
	h := sha256.New()
	h.Write([]byte("SAPLING_NULLIFIER:"))
	h.Write(nk.Bytes())
	h.Write(cmu[:])
	h.Write(pos[:])
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

// Commitment computes the note commitment cmu for a note, binding its
// value, diversified address and randomness. Mirrors Note::cm.
func Commitment(value uint64, gd, pkd sapling.Point, rcm sapling.Scalar) [32]byte {
	h := sha256.New()
	h.Write([]byte("SAPLING_NOTE_COMMITMENT:"))
	var vb [8]byte
	v := value
	for i := 7; i >= 0; i-- {
		vb[i] = byte(v)
		v >>= 8
	}
	h.Write(vb[:])
	h.Write(gd.Bytes())
	h.Write(pkd.Bytes())
	h.Write(rcm.Bytes())
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}
