package sapling

import (
	"crypto/sha256"
	"errors"
)

// Signature errors.
var (
	ErrInvalidSignature = errors.New("invalid signature")
)

// PrivateKey is a spend-authorizing or binding-signature signing key.
type PrivateKey struct {
	s Scalar
}

// PublicKey is the corresponding verification key, rk = sk*generator.
type PublicKey struct {
	p Point
}

// Signature is a randomizable Schnorr-style signature over the group
// returned by SpendAuthGenerator/ValueCommitmentRandomnessBase, playing the
// role librustzcash assigns to RedJubjub: a spend-auth signature binds a
// randomized key rk to a sighash, and a binding signature binds the bvk
// accumulator to the same sighash and a signed value balance.
type Signature struct {
	R Point
	S Scalar
}

// NewPrivateKey derives a signing key from a scalar, typically produced by
// HD key derivation (see internal/keystore) or drawn at random for the
// binding signature keypair.
func NewPrivateKey(s Scalar) PrivateKey {
	return PrivateKey{s: s}
}

// PublicKeyFor computes the public key for sk under the given fixed
// generator (SpendAuthGenerator for spend-auth keys, or
// ValueCommitmentRandomnessBase for the binding signature keypair).
func PublicKeyFor(sk PrivateKey, generator Point) PublicKey {
	return PublicKey{p: generator.ScalarMul(sk.s)}
}

// Sign produces a signature over msg under generator, in the manner of
// librustzcash's redjubjub::Signature::sign: draw a random nonce r, form
// R = r*generator, derive a Fiat-Shamir challenge e = H(R || pk || msg),
// and set S = r + e*sk.
func Sign(sk PrivateKey, generator Point, msg []byte) (Signature, error) {
	r, err := RandomScalar()
	if err != nil {
		return Signature{}, err
	}
	R := generator.ScalarMul(r)
	pub := PublicKeyFor(sk, generator)
	e := challenge(R, pub, msg)
	s := r.Add(e.mulScalar(sk.s))
	return Signature{R: R, S: s}, nil
}

// Verify checks that sig is a valid signature over msg under generator for
// public key pub: it accepts iff S*generator == R + e*pk.
func Verify(pub PublicKey, generator Point, msg []byte, sig Signature) bool {
	e := challenge(sig.R, pub, msg)
	lhs := generator.ScalarMul(sig.S)
	rhs := sig.R.Add(pub.p.ScalarMul(e))
	return lhs.Equal(rhs)
}

// Point returns the public key's underlying curve point.
func (pk PublicKey) Point() Point { return pk.p }

// Bytes returns the canonical 64-byte wire encoding of sig: the R point's
// compressed 32-byte encoding followed by the S scalar's 32-byte encoding.
func (sig Signature) Bytes() [64]byte {
	var out [64]byte
	copy(out[:32], sig.R.Bytes())
	copy(out[32:], sig.S.Bytes())
	return out
}

// SignatureFromBytes decodes a signature from its 64-byte wire encoding.
func SignatureFromBytes(b [64]byte) (Signature, error) {
	r, err := PointFromBytes(b[:32])
	if err != nil {
		return Signature{}, err
	}
	return Signature{R: r, S: ScalarFromBytes(b[32:])}, nil
}

// PublicKeyFromPoint wraps an already-computed point as a public key, used
// when rk arrives over the wire as part of a spend description.
func PublicKeyFromPoint(p Point) PublicKey { return PublicKey{p: p} }

func challenge(R Point, pub PublicKey, msg []byte) Scalar {
	h := sha256.New()
	h.Write(R.Bytes())
	h.Write(pub.p.Bytes())
	h.Write(msg)
	return ScalarFromBytes(h.Sum(nil))
}

func (s Scalar) mulScalar(t Scalar) Scalar {
	// fr.Element multiplication, exposed here rather than on Point since it
	// operates purely on scalars.
	return mulScalars(s, t)
}
