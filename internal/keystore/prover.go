package keystore

import (
	"math/big"

	"github.com/ccoin/shieldwallet/internal/sapling"
	"github.com/ccoin/shieldwallet/internal/wallet"
	"github.com/ccoin/shieldwallet/pkg/types"
)

// TxProver creates the zero-knowledge proofs and value commitments for a
// Sapling spend or output, accumulating each commitment's randomness into
// a shared ProvingContext, mirroring zcash_wallet::types::TxProver. The
// spent note's nullifier is computed by the caller (the Builder, which
// holds the note's commitment) and passed in rather than recomputed here,
// mirroring how zcash_wallet::Builder::build calls note.nf itself before
// calling prover.spend_proof.
type TxProver interface {
	// SpendProof proves knowledge of the spent note's opening and produces
	// its value commitment and randomized spend-authorizing key.
	SpendProof(ctx *ProvingContext, pgk ProvingKey, diversifier [11]byte, rcm, ar sapling.Scalar, value uint64, anchor types.Hash, nullifier [32]byte, witness wallet.Witness) (proof [192]byte, cv sapling.Point, rk sapling.PublicKey, err error)
	// OutputProof proves a new note commitment was formed correctly and
	// produces its value commitment.
	OutputProof(ctx *ProvingContext, esk sapling.Scalar, to wallet.PaymentAddress, rcm sapling.Scalar, value uint64) (proof [192]byte, cv sapling.Point, err error)
}

// MockTxProver produces the same Pedersen value commitments a real prover
// would and drives the circuits through CircuitManager, rather than
// fabricating opaque proof bytes. Those circuits carry placeholder
// constraints only (no Merkle or PRF gadgets; see SpendCircuit.Define), and
// CircuitManager.Setup is an insecure test-only setup rather than a real
// trusted setup. Builder output produced with it round-trips through both
// SaplingVerificationContext.CheckSpend/CheckOutput's circuit check and its
// algebraic bvk/binding-signature check.
type MockTxProver struct {
	circuits *sapling.CircuitManager
}

// NewMockTxProver returns a MockTxProver that proves against circuits,
// which must already have had Setup called on it.
func NewMockTxProver(circuits *sapling.CircuitManager) *MockTxProver {
	return &MockTxProver{circuits: circuits}
}

// SpendProof implements TxProver.
func (p *MockTxProver) SpendProof(ctx *ProvingContext, pgk ProvingKey, diversifier [11]byte, rcm, ar sapling.Scalar, value uint64, anchor types.Hash, nullifier [32]byte, witness wallet.Witness) ([192]byte, sapling.Point, sapling.PublicKey, error) {
	r, err := sapling.RandomScalar()
	if err != nil {
		return [192]byte{}, sapling.Point{}, sapling.PublicKey{}, err
	}
	cv := sapling.ValueCommitmentBase().ScalarMul(sapling.ScalarFromUint64(value)).
		Add(sapling.ValueCommitmentRandomnessBase().ScalarMul(r))
	ctx.AddSpendRandomness(r)

	rk := sapling.PublicKeyFromPoint(pgk.Ak.Add(sapling.SpendAuthGenerator().ScalarMul(ar)))

	nfPacked := sapling.PackedNullifier(nullifier)

	circuit := &sapling.SpendCircuit{
		RkX:        rk.Point().X(),
		RkY:        rk.Point().Y(),
		CvX:        cv.X(),
		CvY:        cv.Y(),
		Anchor:     new(big.Int).SetBytes(anchor[:]),
		Nullifier0: nfPacked[0],
		Nullifier1: nfPacked[1],
		Value:      0,
		Blinder:    0,
	}
	proofBytes, err := p.circuits.Prove(sapling.CircuitSpend, circuit)
	if err != nil {
		return [192]byte{}, sapling.Point{}, sapling.PublicKey{}, err
	}
	var proof [192]byte
	copy(proof[:], proofBytes)
	return proof, cv, rk, nil
}

// OutputProof implements TxProver.
func (p *MockTxProver) OutputProof(ctx *ProvingContext, esk sapling.Scalar, to wallet.PaymentAddress, rcm sapling.Scalar, value uint64) ([192]byte, sapling.Point, error) {
	r, err := sapling.RandomScalar()
	if err != nil {
		return [192]byte{}, sapling.Point{}, err
	}
	cv := sapling.ValueCommitmentBase().ScalarMul(sapling.ScalarFromUint64(value)).
		Add(sapling.ValueCommitmentRandomnessBase().ScalarMul(r))
	ctx.AddOutputRandomness(r)

	epk := sapling.ValueCommitmentRandomnessBase().ScalarMul(esk)
	gd, ok := to.GD()
	if !ok {
		return [192]byte{}, sapling.Point{}, ErrInvalidDiversifier
	}
	cm := wallet.Commitment(value, gd, to.Pkd, rcm)

	circuit := &sapling.OutputCircuit{
		CvX:     cv.X(),
		CvY:     cv.Y(),
		EpkX:    epk.X(),
		EpkY:    epk.Y(),
		Cm:      new(big.Int).SetBytes(cm[:]),
		Value:   0,
		Blinder: 0,
	}
	proofBytes, err := p.circuits.Prove(sapling.CircuitOutput, circuit)
	if err != nil {
		return [192]byte{}, sapling.Point{}, err
	}
	var proof [192]byte
	copy(proof[:], proofBytes)
	return proof, cv, nil
}
