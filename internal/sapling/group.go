// Package sapling implements the shielded-transaction verification context:
// value commitment accumulation, RedJubjub-style signatures and Groth16
// proof verification for spends and outputs.
package sapling

import (
	"crypto/sha256"
	"errors"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
)

// Group errors.
var (
	ErrSmallOrder  = errors.New("point has small order")
	ErrInvalidPoint = errors.New("invalid curve point encoding")
)

// Point is a curve point in the group the Sapling value commitments,
// binding signature and spend-auth signatures all share. The teacher's
// own domain code (internal/zkp/pedersen.go) picks BN254's G1 for its
// Pedersen accumulator; this package keeps that choice so the verification
// context's bvk accumulator, the builder's value commitments and the
// RedJubjub-analog signatures all live on one curve.
type Point struct {
	p bn254.G1Affine
}

// Scalar is an element of BN254's scalar field.
type Scalar struct {
	e fr.Element
}

var (
	baseG        bn254.G1Affine
	randomnessH  bn254.G1Affine
	spendAuthGen bn254.G1Affine
	generatorsOK bool
)

// cofactor is BN254 G1's cofactor; it is 1, so small-order rejection in
// practice only ever rejects the identity. The check is still performed
// because the spec requires it and because it keeps this code honest if
// the curve were ever swapped for one with a non-trivial cofactor.
var cofactor = big.NewInt(1)

func initGenerators() {
	if generatorsOK {
		return
	}
	_, _, g1, _ := bn254.Generators()
	baseG = g1
	randomnessH.ScalarMultiplication(&baseG, new(big.Int).SetBytes(domainHash("SAPLING_VALUE_COMMITMENT_RANDOMNESS")))
	spendAuthGen.ScalarMultiplication(&baseG, new(big.Int).SetBytes(domainHash("SAPLING_SPEND_AUTH_GENERATOR")))
	generatorsOK = true
}

func domainHash(label string) []byte {
	sum := sha256.Sum256([]byte(label))
	return sum[:]
}

// ValueCommitmentBase returns the generator used for the value component of
// a value commitment (v*G).
func ValueCommitmentBase() Point {
	initGenerators()
	return Point{p: baseG}
}

// ValueCommitmentRandomnessBase returns the generator used for the
// randomness component of a value commitment (r*H), and of the binding
// signature's own keypair.
func ValueCommitmentRandomnessBase() Point {
	initGenerators()
	return Point{p: randomnessH}
}

// SpendAuthGenerator returns the fixed generator spend-authorization keys
// and signatures are defined against.
func SpendAuthGenerator() Point {
	initGenerators()
	return Point{p: spendAuthGen}
}

// Identity returns the group identity element.
func Identity() Point {
	var p bn254.G1Affine
	p.SetInfinity()
	return Point{p: p}
}

// ScalarMul returns s*p.
func (p Point) ScalarMul(s Scalar) Point {
	var r bn254.G1Affine
	r.ScalarMultiplication(&p.p, s.BigInt())
	return Point{p: r}
}

// Add returns p+q.
func (p Point) Add(q Point) Point {
	var r bn254.G1Affine
	r.Add(&p.p, &q.p)
	return Point{p: r}
}

// Neg returns -p.
func (p Point) Neg() Point {
	var r bn254.G1Affine
	r.Neg(&p.p)
	return Point{p: r}
}

// Sub returns p-q.
func (p Point) Sub(q Point) Point {
	return p.Add(q.Neg())
}

// Equal reports whether p and q represent the same point.
func (p Point) Equal(q Point) bool {
	return p.p.Equal(&q.p)
}

// IsSmallOrder reports whether p is annihilated by the group's cofactor,
// i.e. whether multiplying by the cofactor yields the identity. Mirrors
// librustzcash's small-order rejection of cv and rk/epk in check_spend and
// check_output.
func (p Point) IsSmallOrder() bool {
	var r bn254.G1Affine
	r.ScalarMultiplication(&p.p, cofactor)
	var id bn254.G1Affine
	id.SetInfinity()
	return r.Equal(&id)
}

// X returns the affine X coordinate as a big.Int, for use as a Groth16
// public input. The value is not reduced modulo the scalar-field order.
func (p Point) X() *big.Int {
	x := p.p.X.BigInt(new(big.Int))
	return x
}

// Y returns the affine Y coordinate.
func (p Point) Y() *big.Int {
	y := p.p.Y.BigInt(new(big.Int))
	return y
}

// Bytes returns the compressed encoding of p: gnark-crypto's G1Affine.Bytes,
// not Marshal (which is the 64-byte uncompressed encoding, the same
// mislabel the teacher's own pedersen.go:Bytes carries).
func (p Point) Bytes() []byte {
	b := p.p.Bytes()
	return b[:]
}

// Encode32 returns p's compressed encoding as the fixed 32-byte array every
// wire-format point field (cv, rk, epk) uses.
func (p Point) Encode32() [32]byte {
	return p.p.Bytes()
}

// DecodePoint32 decodes a point from its fixed 32-byte wire encoding.
func DecodePoint32(b [32]byte) (Point, error) {
	return PointFromBytes(b[:])
}

// PointFromBytes decodes a compressed point, the inverse of Bytes/Encode32.
func PointFromBytes(b []byte) (Point, error) {
	var p bn254.G1Affine
	if _, err := p.SetBytes(b); err != nil {
		return Point{}, ErrInvalidPoint
	}
	return Point{p: p}, nil
}

// RandomScalar draws a uniformly random scalar.
func RandomScalar() (Scalar, error) {
	var e fr.Element
	if _, err := e.SetRandom(); err != nil {
		return Scalar{}, err
	}
	return Scalar{e: e}, nil
}

// ScalarFromBytes reduces a byte string into a scalar mod the group order.
// Used to fold arbitrary derived key material (e.g. HD-derived child keys)
// into a valid scalar.
func ScalarFromBytes(b []byte) Scalar {
	var e fr.Element
	e.SetBytes(b)
	return Scalar{e: e}
}

// ScalarFromUint64 builds a scalar from a small non-negative integer,
// used for fee/value terms in the commitment algebra.
func ScalarFromUint64(v uint64) Scalar {
	var e fr.Element
	e.SetUint64(v)
	return Scalar{e: e}
}

// BigInt returns the scalar as a big.Int in [0, r).
func (s Scalar) BigInt() *big.Int {
	return s.e.BigInt(new(big.Int))
}

// Bytes returns the canonical 32-byte big-endian encoding of the scalar,
// the form ScalarFromBytes reads back.
func (s Scalar) Bytes() []byte {
	b := s.e.Bytes()
	return b[:]
}

// Add returns s+t mod r.
func (s Scalar) Add(t Scalar) Scalar {
	var r fr.Element
	r.Add(&s.e, &t.e)
	return Scalar{e: r}
}

// Neg returns -s mod r.
func (s Scalar) Neg() Scalar {
	var r fr.Element
	r.Neg(&s.e)
	return Scalar{e: r}
}

// mulScalars returns s*t mod r.
func mulScalars(s, t Scalar) Scalar {
	var r fr.Element
	r.Mul(&s.e, &t.e)
	return Scalar{e: r}
}
