package sapling

import (
	"math/big"

	"github.com/ccoin/shieldwallet/pkg/types"
)

// DecodeSpend converts a transaction's wire-format spend description into
// the rich points and signature CheckSpend operates on. A consensus
// verifier walks a Transaction's ShieldedSpends, decodes each one and feeds
// it to CheckSpend. EncodeSpend is the inverse.
func DecodeSpend(wire types.SpendDescription) (SpendDescription, error) {
	cv, err := DecodePoint32(wire.Cv)
	if err != nil {
		return SpendDescription{}, err
	}
	rkPoint, err := DecodePoint32(wire.Rk)
	if err != nil {
		return SpendDescription{}, err
	}
	sig, err := SignatureFromBytes(wire.SpendAuthSig)
	if err != nil {
		return SpendDescription{}, err
	}
	return SpendDescription{
		Cv:           cv,
		Anchor:       wire.Anchor,
		Nullifier:    wire.Nullifier,
		Rk:           PublicKeyFromPoint(rkPoint),
		SpendAuthSig: sig,
		Proof:        append([]byte(nil), wire.ZkProof[:]...),
	}, nil
}

// EncodeSpend is the inverse of DecodeSpend: it renders a spend whose proof,
// value commitment and signature have all been produced in wire form.
// Builder.Build fills its wire descriptions directly and does not call it.
func EncodeSpend(sd SpendDescription) types.SpendDescription {
	var out types.SpendDescription
	out.Cv = sd.Cv.Encode32()
	out.Anchor = sd.Anchor
	out.Nullifier = sd.Nullifier
	out.Rk = sd.Rk.Point().Encode32()
	out.SpendAuthSig = sd.SpendAuthSig.Bytes()
	copy(out.ZkProof[:], sd.Proof)
	return out
}

// DecodeOutput is DecodeSpend's counterpart for output descriptions.
func DecodeOutput(wire types.OutputDescription) (OutputDescription, error) {
	cv, err := DecodePoint32(wire.Cv)
	if err != nil {
		return OutputDescription{}, err
	}
	epk, err := DecodePoint32(wire.EphemeralKey)
	if err != nil {
		return OutputDescription{}, err
	}
	return OutputDescription{
		Cv:    cv,
		Cm:    wire.Cmu,
		Epk:   epk,
		Proof: append([]byte(nil), wire.ZkProof[:]...),
	}, nil
}

// EncodeOutput is DecodeOutput's inverse.
func EncodeOutput(od OutputDescription, encCiphertext [580]byte, outCiphertext [80]byte) types.OutputDescription {
	var out types.OutputDescription
	out.Cv = od.Cv.Encode32()
	out.Cmu = od.Cm
	out.EphemeralKey = od.Epk.Encode32()
	out.EncCiphertext = encCiphertext
	out.OutCiphertext = outCiphertext
	copy(out.ZkProof[:], od.Proof)
	return out
}

// VerifyTransaction decodes every shielded spend and output a Builder froze
// into tx and checks them against circuits, then verifies the binding
// signature over sighash. This is the consensus-verifier entry point spec.md
// §2 describes ("a transaction whose validity a verification context
// elsewhere would check with exactly the consensus rules of §4.1"): it is
// what turns the wire-format Transaction a Builder produces and the rich
// SaplingVerificationContext this package defines from two disconnected
// islands into one checked pipeline.
func VerifyTransaction(tx *types.Transaction, circuits *CircuitManager, sighash [32]byte) (bool, error) {
	ctx := NewContext(circuits)

	for _, wire := range tx.ShieldedSpends {
		sd, err := DecodeSpend(wire)
		if err != nil {
			return false, err
		}
		if !ctx.CheckSpend(sd, sighash) {
			return false, nil
		}
	}

	for _, wire := range tx.ShieldedOutputs {
		od, err := DecodeOutput(wire)
		if err != nil {
			return false, err
		}
		if !ctx.CheckOutput(od) {
			return false, nil
		}
	}

	bindingSig, err := SignatureFromBytes(tx.BindingSig)
	if err != nil {
		return false, err
	}
	return ctx.FinalCheck(tx.ValueBalance, sighash, bindingSig), nil
}

// PackedNullifier exposes packNullifier's two-field-element decomposition
// for callers (tests, other packages) that need the exact public-input
// layout CheckSpend builds internally.
func PackedNullifier(nf [32]byte) [2]*big.Int {
	packed := packNullifier(nf)
	return [2]*big.Int{packed[0].BigInt(), packed[1].BigInt()}
}
