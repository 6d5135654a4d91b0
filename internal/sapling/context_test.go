package sapling

import (
	"math/big"
	"testing"

	"github.com/ccoin/shieldwallet/pkg/types"
)

// buildCircuits compiles and sets up both circuits once; Setup runs a real
// (insecure, test-only) Groth16 trusted setup, mirroring how the teacher's
// own circuit tests exercise CompileTransactionCircuit.
func buildCircuits(t *testing.T) *CircuitManager {
	t.Helper()
	cm := NewCircuitManager()
	if err := cm.Setup(); err != nil {
		t.Fatalf("circuit setup failed: %v", err)
	}
	return cm
}

func hashBigInt(h types.Hash) *big.Int {
	return new(big.Int).SetBytes(h[:])
}

// syntheticSpend builds a spend description carrying a correctly accumulated
// value commitment, a valid spend-auth signature, and a proof whose public
// inputs match the description's own fields.
func syntheticSpend(t *testing.T, cm *CircuitManager, value uint64, sighash [32]byte) SpendDescription {
	t.Helper()

	blinder, err := RandomScalar()
	if err != nil {
		t.Fatalf("random blinder: %v", err)
	}
	cv := ValueCommitmentBase().ScalarMul(ScalarFromUint64(value)).Add(ValueCommitmentRandomnessBase().ScalarMul(blinder))

	ask, err := RandomScalar()
	if err != nil {
		t.Fatalf("random ask: %v", err)
	}
	sk := NewPrivateKey(ask)
	rk := PublicKeyFor(sk, SpendAuthGenerator())

	var anchor types.Hash
	anchor[0] = 0x42
	var nf types.Nullifier
	nf[0] = 0x07
	packed := packNullifier([32]byte(nf))

	witness := &SpendCircuit{
		RkX:        rk.Point().X(),
		RkY:        rk.Point().Y(),
		CvX:        cv.X(),
		CvY:        cv.Y(),
		Anchor:     hashBigInt(anchor),
		Nullifier0: packed[0].BigInt(),
		Nullifier1: packed[1].BigInt(),
		Value:      new(big.Int).SetUint64(value),
		Blinder:    blinder.BigInt(),
	}
	proof, err := cm.Prove(CircuitSpend, witness)
	if err != nil {
		t.Fatalf("spend proof: %v", err)
	}

	msg := append(append([]byte{}, rk.Point().Bytes()...), sighash[:]...)
	sig, err := Sign(sk, SpendAuthGenerator(), msg)
	if err != nil {
		t.Fatalf("spend auth sign: %v", err)
	}

	return SpendDescription{
		Cv:           cv,
		Anchor:       anchor,
		Nullifier:    nf,
		Rk:           rk,
		SpendAuthSig: sig,
		Proof:        proof,
	}
}

// syntheticOutput mirrors syntheticSpend for an output description.
func syntheticOutput(t *testing.T, cm *CircuitManager, value uint64) OutputDescription {
	t.Helper()

	blinder, err := RandomScalar()
	if err != nil {
		t.Fatalf("random blinder: %v", err)
	}
	cv := ValueCommitmentBase().ScalarMul(ScalarFromUint64(value)).Add(ValueCommitmentRandomnessBase().ScalarMul(blinder))

	esk, err := RandomScalar()
	if err != nil {
		t.Fatalf("random esk: %v", err)
	}
	epk := ValueCommitmentRandomnessBase().ScalarMul(esk)

	var cm32 types.Hash
	cm32[0] = 0x09

	witness := &OutputCircuit{
		CvX:     cv.X(),
		CvY:     cv.Y(),
		EpkX:    epk.X(),
		EpkY:    epk.Y(),
		Cm:      hashBigInt(cm32),
		Value:   new(big.Int).SetUint64(value),
		Blinder: blinder.BigInt(),
	}
	proof, err := cm.Prove(CircuitOutput, witness)
	if err != nil {
		t.Fatalf("output proof: %v", err)
	}

	return OutputDescription{Cv: cv, Cm: cm32, Epk: epk, Proof: proof}
}

// TestCheckSpendAccumulatesValueCommitment exercises the bvk-accumulation
// half of the verification algebra: a single correctly-formed spend must be
// accepted and must add its own cv into the running accumulator.
func TestCheckSpendAccumulatesValueCommitment(t *testing.T) {
	cm := buildCircuits(t)
	var sighash [32]byte
	sighash[0] = 0xaa

	spend := syntheticSpend(t, cm, 100, sighash)

	ctx := NewContext(cm)
	if !ctx.CheckSpend(spend, sighash) {
		t.Fatal("expected a correctly formed spend to be accepted")
	}
	if !ctx.bvk.Equal(spend.Cv) {
		t.Fatal("expected bvk to equal the single spend's value commitment")
	}
}

// TestCheckOutputSubtractsValueCommitment mirrors the spend test for the
// output side, where bvk is the negated sum of output commitments.
func TestCheckOutputSubtractsValueCommitment(t *testing.T) {
	cm := buildCircuits(t)
	output := syntheticOutput(t, cm, 40)

	ctx := NewContext(cm)
	if !ctx.CheckOutput(output) {
		t.Fatal("expected a correctly formed output to be accepted")
	}
	if !ctx.bvk.Equal(output.Cv.Neg()) {
		t.Fatal("expected bvk to equal the negated output value commitment")
	}
}

// TestFinalCheckAcceptsConservedValue exercises the full verification
// algebra end to end: one spend of 100 and one output of 60, with a value
// balance of 40, binding-signed with the residual randomness.
func TestFinalCheckAcceptsConservedValue(t *testing.T) {
	cm := buildCircuits(t)
	var sighash [32]byte
	sighash[0] = 0xbb

	spendValue := uint64(100)
	outputValue := uint64(60)

	spendBlinder, err := RandomScalar()
	if err != nil {
		t.Fatalf("random spend blinder: %v", err)
	}
	outputBlinder, err := RandomScalar()
	if err != nil {
		t.Fatalf("random output blinder: %v", err)
	}

	spend := signedSyntheticSpend(t, cm, spendValue, spendBlinder, sighash)
	output := signedSyntheticOutput(t, cm, outputValue, outputBlinder)

	ctx := NewContext(cm)
	if !ctx.CheckSpend(spend, sighash) {
		t.Fatal("spend rejected")
	}
	if !ctx.CheckOutput(output) {
		t.Fatal("output rejected")
	}

	valueBalance := types.Amount(int64(spendValue) - int64(outputValue))
	bindingSK := NewPrivateKey(spendBlinder.Add(outputBlinder.Neg()))

	finalBvk := ctx.bvk.Sub(ValueCommitmentBase().ScalarMul(ScalarFromUint64(uint64(valueBalance))))
	msg := append(append([]byte{}, finalBvk.Bytes()...), sighash[:]...)
	bindingSig, err := Sign(bindingSK, ValueCommitmentRandomnessBase(), msg)
	if err != nil {
		t.Fatalf("binding sign: %v", err)
	}

	if !ctx.FinalCheck(valueBalance, sighash, bindingSig) {
		t.Fatal("expected FinalCheck to accept a correctly conserved, correctly signed transaction")
	}
}

// signedSyntheticSpend is syntheticSpend with an explicit blinder, so the
// caller can derive the binding signature's key from the same randomness.
func signedSyntheticSpend(t *testing.T, cm *CircuitManager, value uint64, blinder Scalar, sighash [32]byte) SpendDescription {
	t.Helper()

	cv := ValueCommitmentBase().ScalarMul(ScalarFromUint64(value)).Add(ValueCommitmentRandomnessBase().ScalarMul(blinder))

	ask, err := RandomScalar()
	if err != nil {
		t.Fatalf("random ask: %v", err)
	}
	sk := NewPrivateKey(ask)
	rk := PublicKeyFor(sk, SpendAuthGenerator())

	var anchor types.Hash
	anchor[0] = 0x42
	var nf types.Nullifier
	nf[0] = 0x07
	packed := packNullifier([32]byte(nf))

	witness := &SpendCircuit{
		RkX:        rk.Point().X(),
		RkY:        rk.Point().Y(),
		CvX:        cv.X(),
		CvY:        cv.Y(),
		Anchor:     hashBigInt(anchor),
		Nullifier0: packed[0].BigInt(),
		Nullifier1: packed[1].BigInt(),
		Value:      new(big.Int).SetUint64(value),
		Blinder:    blinder.BigInt(),
	}
	proof, err := cm.Prove(CircuitSpend, witness)
	if err != nil {
		t.Fatalf("spend proof: %v", err)
	}

	msg := append(append([]byte{}, rk.Point().Bytes()...), sighash[:]...)
	sig, err := Sign(sk, SpendAuthGenerator(), msg)
	if err != nil {
		t.Fatalf("spend auth sign: %v", err)
	}

	return SpendDescription{
		Cv:           cv,
		Anchor:       anchor,
		Nullifier:    nf,
		Rk:           rk,
		SpendAuthSig: sig,
		Proof:        proof,
	}
}

// signedSyntheticOutput is syntheticOutput with an explicit blinder.
func signedSyntheticOutput(t *testing.T, cm *CircuitManager, value uint64, blinder Scalar) OutputDescription {
	t.Helper()

	cv := ValueCommitmentBase().ScalarMul(ScalarFromUint64(value)).Add(ValueCommitmentRandomnessBase().ScalarMul(blinder))

	esk, err := RandomScalar()
	if err != nil {
		t.Fatalf("random esk: %v", err)
	}
	epk := ValueCommitmentRandomnessBase().ScalarMul(esk)

	var cmu types.Hash
	cmu[0] = 0x09

	witness := &OutputCircuit{
		CvX:     cv.X(),
		CvY:     cv.Y(),
		EpkX:    epk.X(),
		EpkY:    epk.Y(),
		Cm:      hashBigInt(cmu),
		Value:   new(big.Int).SetUint64(value),
		Blinder: blinder.BigInt(),
	}
	proof, err := cm.Prove(CircuitOutput, witness)
	if err != nil {
		t.Fatalf("output proof: %v", err)
	}

	return OutputDescription{Cv: cv, Cm: cmu, Epk: epk, Proof: proof}
}

// TestFinalCheckRejectsWrongBindingKey exercises the negative path: a
// binding signature signed with the wrong key must not verify.
func TestFinalCheckRejectsWrongBindingKey(t *testing.T) {
	cm := buildCircuits(t)
	var sighash [32]byte
	sighash[0] = 0xcc

	spend := syntheticSpend(t, cm, 100, sighash)
	output := syntheticOutput(t, cm, 60)

	ctx := NewContext(cm)
	if !ctx.CheckSpend(spend, sighash) {
		t.Fatal("spend rejected")
	}
	if !ctx.CheckOutput(output) {
		t.Fatal("output rejected")
	}

	wrongKey, err := RandomScalar()
	if err != nil {
		t.Fatalf("random key: %v", err)
	}
	bindingSK := NewPrivateKey(wrongKey)
	msg := append(append([]byte{}, ctx.bvk.Bytes()...), sighash[:]...)
	bindingSig, err := Sign(bindingSK, ValueCommitmentRandomnessBase(), msg)
	if err != nil {
		t.Fatalf("binding sign: %v", err)
	}

	valueBalance := types.Amount(40)
	if ctx.FinalCheck(valueBalance, sighash, bindingSig) {
		t.Fatal("expected FinalCheck to reject a binding signature signed with an unrelated key")
	}
}

// TestCheckSpendRejectsSmallOrderCv exercises the small-order rejection
// spec.md requires for the value commitment.
func TestCheckSpendRejectsSmallOrderCv(t *testing.T) {
	cm := buildCircuits(t)
	var sighash [32]byte
	spend := syntheticSpend(t, cm, 100, sighash)
	spend.Cv = Identity()

	ctx := NewContext(cm)
	if ctx.CheckSpend(spend, sighash) {
		t.Fatal("expected a small-order cv to be rejected")
	}
}

// TestCheckSpendRejectsSmallOrderRk mirrors the above for rk.
func TestCheckSpendRejectsSmallOrderRk(t *testing.T) {
	cm := buildCircuits(t)
	var sighash [32]byte
	spend := syntheticSpend(t, cm, 100, sighash)
	spend.Rk = PublicKeyFromPoint(Identity())

	ctx := NewContext(cm)
	if ctx.CheckSpend(spend, sighash) {
		t.Fatal("expected a small-order rk to be rejected")
	}
}

// TestCheckOutputRejectsSmallOrderEpk mirrors small-order rejection for an
// output's ephemeral key.
func TestCheckOutputRejectsSmallOrderEpk(t *testing.T) {
	cm := buildCircuits(t)
	output := syntheticOutput(t, cm, 40)
	output.Epk = Identity()

	ctx := NewContext(cm)
	if ctx.CheckOutput(output) {
		t.Fatal("expected a small-order epk to be rejected")
	}
}
