package sapling

import (
	"math/big"

	"github.com/ccoin/shieldwallet/pkg/common"
	"github.com/ccoin/shieldwallet/pkg/types"
)

// SpendDescription carries the public fields of a Sapling spend that the
// verification context checks.
type SpendDescription struct {
	Cv           Point
	Anchor       types.Hash
	Nullifier    types.Nullifier
	Rk           PublicKey
	SpendAuthSig Signature
	Proof        []byte
}

// OutputDescription carries the public fields of a Sapling output.
type OutputDescription struct {
	Cv    Point
	Cm    types.Hash
	Epk   Point
	Proof []byte
}

// SaplingVerificationContext accumulates value commitments across the
// spends and outputs of one transaction and checks the final binding
// signature for value conservation. Grounded line-for-line on
// librustzcash's SaplingVerificationContext (sapling.rs); the Jubjub/
// BLS12-381 group there is realized here over the BN254 G1 group defined
// in group.go, and Groth16 verification goes through CircuitManager.
type SaplingVerificationContext struct {
	bvk      Point
	circuits *CircuitManager
}

// NewContext constructs a context for verifying a single transaction's
// Sapling components, checked against circuits.
func NewContext(circuits *CircuitManager) *SaplingVerificationContext {
	return &SaplingVerificationContext{bvk: Identity(), circuits: circuits}
}

// CheckSpend performs consensus checks on a single spend description while
// accumulating its value commitment into bvk. sighash is the transaction's
// signature hash.
func (ctx *SaplingVerificationContext) CheckSpend(sd SpendDescription, sighash [32]byte) bool {
	if sd.Cv.IsSmallOrder() {
		return false
	}
	if sd.Rk.Point().IsSmallOrder() {
		return false
	}

	ctx.bvk = sd.Cv.Add(ctx.bvk)

	msg := make([]byte, 0, 64)
	msg = append(msg, sd.Rk.Point().Bytes()...)
	msg = append(msg, sighash[:]...)
	if !Verify(sd.Rk, SpendAuthGenerator(), msg, sd.SpendAuthSig) {
		return false
	}

	nfPacked := packNullifier([32]byte(sd.Nullifier))
	public := &SpendCircuit{
		RkX:        sd.Rk.Point().X(),
		RkY:        sd.Rk.Point().Y(),
		CvX:        sd.Cv.X(),
		CvY:        sd.Cv.Y(),
		Anchor:     new(big.Int).SetBytes(sd.Anchor[:]),
		Nullifier0: nfPacked[0].BigInt(),
		Nullifier1: nfPacked[1].BigInt(),
	}

	ok, err := ctx.circuits.Verify(CircuitSpend, sd.Proof, public)
	if err != nil {
		return false
	}
	return ok
}

// CheckOutput performs consensus checks on a single output description
// while accumulating its (negated) value commitment into bvk.
func (ctx *SaplingVerificationContext) CheckOutput(od OutputDescription) bool {
	if od.Cv.IsSmallOrder() {
		return false
	}
	if od.Epk.IsSmallOrder() {
		return false
	}

	ctx.bvk = ctx.bvk.Sub(od.Cv)

	public := &OutputCircuit{
		CvX:  od.Cv.X(),
		CvY:  od.Cv.Y(),
		EpkX: od.Epk.X(),
		EpkY: od.Epk.Y(),
		Cm:   new(big.Int).SetBytes(od.Cm[:]),
	}

	ok, err := ctx.circuits.Verify(CircuitOutput, od.Proof, public)
	if err != nil {
		return false
	}
	return ok
}

// FinalCheck verifies the valueBalance and bindingSig parts of a Sapling
// transaction, after every spend and output has been checked. valueBalance
// is the net shielded value of the transaction: positive when spends
// exceed outputs, negative otherwise.
func (ctx *SaplingVerificationContext) FinalCheck(valueBalance types.Amount, sighash [32]byte, bindingSig Signature) bool {
	abs, ok := absAmount(valueBalance)
	if !ok {
		return false
	}

	vbPoint := ValueCommitmentBase().ScalarMul(ScalarFromUint64(abs))
	if valueBalance < 0 {
		vbPoint = vbPoint.Neg()
	}

	finalBvk := ctx.bvk.Sub(vbPoint)

	msg := make([]byte, 0, 64)
	msg = append(msg, finalBvk.Bytes()...)
	msg = append(msg, sighash[:]...)

	return Verify(PublicKeyFromPoint(finalBvk), ValueCommitmentRandomnessBase(), msg, bindingSig)
}

func absAmount(a types.Amount) (uint64, bool) {
	v, ok := common.CheckedAbs(int64(a))
	if !ok {
		return 0, false
	}
	return uint64(v), true
}
