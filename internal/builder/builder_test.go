package builder

import (
	"testing"

	"github.com/ccoin/shieldwallet/internal/keystore"
	"github.com/ccoin/shieldwallet/internal/sapling"
	"github.com/ccoin/shieldwallet/internal/wallet"
	"github.com/ccoin/shieldwallet/pkg/types"
)

func sampleWitness(root byte) wallet.Witness {
	var r types.Hash
	r[0] = root
	return wallet.Witness{Position: 0, Root: r}
}

func sampleNote(value uint64) wallet.Note {
	rcm, _ := sapling.RandomScalar()
	return wallet.Note{Value: value, Rcm: rcm}
}

// TestAddSaplingSpendFixesAnchor checks that the first spend added fixes the
// transaction's anchor to its own witness root.
func TestAddSaplingSpendFixesAnchor(t *testing.T) {
	b := New(0)
	witness := sampleWitness(0x01)

	if err := b.AddSaplingSpend(0, [11]byte{1}, sampleNote(100), sapling.Scalar{}, witness); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.anchor == nil || *b.anchor != witness.Root {
		t.Fatal("expected the first spend's witness root to become the transaction anchor")
	}
}

// TestAddSaplingSpendRejectsAnchorMismatch is the anchor-consistency
// property: a second spend whose witness authenticates against a different
// root must be rejected rather than silently accepted.
func TestAddSaplingSpendRejectsAnchorMismatch(t *testing.T) {
	b := New(0)

	if err := b.AddSaplingSpend(0, [11]byte{1}, sampleNote(100), sapling.Scalar{}, sampleWitness(0x01)); err != nil {
		t.Fatalf("unexpected error on first spend: %v", err)
	}

	err := b.AddSaplingSpend(0, [11]byte{2}, sampleNote(50), sapling.Scalar{}, sampleWitness(0x02))
	if err != ErrAnchorMismatch {
		t.Fatalf("expected ErrAnchorMismatch, got %v", err)
	}
}

// TestAddSaplingSpendAccumulatesValueBalance checks that spends and outputs
// move the running value balance in the expected signed directions.
func TestAddSaplingSpendAccumulatesValueBalance(t *testing.T) {
	b := New(0)
	if err := b.AddSaplingSpend(0, [11]byte{1}, sampleNote(100), sapling.Scalar{}, sampleWitness(0x01)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.valueBalance != 100 {
		t.Fatalf("expected value balance 100, got %d", b.valueBalance)
	}

	to := wallet.PaymentAddress{Diversifier: [11]byte{9}}
	rcm, _ := sapling.RandomScalar()
	if err := b.AddSaplingOutput(wallet.OutgoingViewingKey{}, to, 30, rcm, types.Memo{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.valueBalance != 70 {
		t.Fatalf("expected value balance 70 after a 30-value output, got %d", b.valueBalance)
	}
}

// TestAddSaplingOutputRejectsInvalidAddress checks the all-zero diversifier
// sentinel is rejected, per PaymentAddress.GD's documented contract.
func TestAddSaplingOutputRejectsInvalidAddress(t *testing.T) {
	b := New(0)
	rcm, _ := sapling.RandomScalar()
	err := b.AddSaplingOutput(wallet.OutgoingViewingKey{}, wallet.PaymentAddress{}, 10, rcm, types.Memo{})
	if err != ErrInvalidAddress {
		t.Fatalf("expected ErrInvalidAddress, got %v", err)
	}
}

// TestAddSaplingSpendRejectsOverflow checks that accumulating two spends
// whose sum overflows a signed 64-bit amount is rejected rather than
// silently wrapping.
func TestAddSaplingSpendRejectsOverflow(t *testing.T) {
	b := New(0)
	huge := sampleNote(1<<63 - 1)
	if err := b.AddSaplingSpend(0, [11]byte{1}, huge, sapling.Scalar{}, sampleWitness(0x01)); err != nil {
		t.Fatalf("unexpected error on first spend: %v", err)
	}

	err := b.AddSaplingSpend(0, [11]byte{1}, sampleNote(1), sapling.Scalar{}, sampleWitness(0x01))
	if err != ErrValueOverflow {
		t.Fatalf("expected ErrValueOverflow, got %v", err)
	}
}

// TestBuildProducesVerifiableTransaction is spec property #8 exercised
// against a real builder-produced transaction rather than hand-constructed
// rich points: a spend built, proved and signed by Builder.Build, when fed
// back through sapling.VerifyTransaction, must check out under the same
// circuits and sighash the keystore signed over. This is the build→sign→
// verify round trip connecting the builder and the verification context,
// which until now had no test exercising the two together.
func TestBuildProducesVerifiableTransaction(t *testing.T) {
	circuits := sapling.NewCircuitManager()
	if err := circuits.Setup(); err != nil {
		t.Fatalf("circuit setup: %v", err)
	}

	ks := keystore.MockKeyStore()
	prover := keystore.NewMockTxProver(circuits)

	const coinType = 1
	const branchID = 0x76b809bb

	diversifier := [11]byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11}
	rcm, err := sapling.RandomScalar()
	if err != nil {
		t.Fatalf("rcm: %v", err)
	}
	note := wallet.Note{
		Value:       20000,
		Diversifier: diversifier,
		Pkd:         sapling.ValueCommitmentBase(),
		Rcm:         rcm,
	}
	ar, err := sapling.RandomScalar()
	if err != nil {
		t.Fatalf("ar: %v", err)
	}
	witness := sampleWitness(0x42)
	witness.Position = 3

	b := New(coinType)
	if err := b.AddSaplingSpend(0, diversifier, note, ar, witness); err != nil {
		t.Fatalf("add spend: %v", err)
	}

	tx, err := b.Build(branchID, ks, prover)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if len(tx.ShieldedSpends) != 1 {
		t.Fatalf("expected 1 shielded spend, got %d", len(tx.ShieldedSpends))
	}
	if len(tx.ShieldedOutputs) != 1 {
		t.Fatalf("expected the fee-covering change to produce 1 output, got %d", len(tx.ShieldedOutputs))
	}

	sighash := keystore.SighashAll(tx, branchID)
	ok, err := sapling.VerifyTransaction(tx, circuits, sighash)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if !ok {
		t.Fatal("expected a builder-produced transaction to verify end-to-end")
	}
}
