package types

import (
	"bytes"
	"testing"
)

// TestTransactionRoundTrip exercises Write/ReadTransaction byte-identity for
// a transaction carrying one spend and one output, the property spec.md
// requires of the wire format.
func TestTransactionRoundTrip(t *testing.T) {
	tx := &Transaction{
		Version:      4,
		ValueBalance: -12345,
		ShieldedSpends: []SpendDescription{
			{
				Cv:        [32]byte{1, 2, 3},
				Anchor:    Hash{4, 5, 6},
				Nullifier: Nullifier{7, 8, 9},
				Rk:        [32]byte{10, 11, 12},
				ZkProof:   [192]byte{13},
				SpendAuthSig: [64]byte{14},
			},
		},
		ShieldedOutputs: []OutputDescription{
			{
				Cv:            [32]byte{15, 16},
				Cmu:           Hash{17, 18},
				EphemeralKey:  [32]byte{19, 20},
				EncCiphertext: [580]byte{21},
				OutCiphertext: [80]byte{22},
				ZkProof:       [192]byte{23},
			},
		},
		BindingSig: [64]byte{24, 25},
	}

	var buf bytes.Buffer
	if err := tx.Write(&buf); err != nil {
		t.Fatalf("write: %v", err)
	}

	got, err := ReadTransaction(&buf)
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	var reencoded bytes.Buffer
	if err := got.Write(&reencoded); err != nil {
		t.Fatalf("re-write: %v", err)
	}

	var original bytes.Buffer
	if err := tx.Write(&original); err != nil {
		t.Fatalf("re-write original: %v", err)
	}

	if !bytes.Equal(original.Bytes(), reencoded.Bytes()) {
		t.Fatal("expected Read(Write(tx)) to reproduce the identical byte sequence")
	}
	if got.ValueBalance != tx.ValueBalance {
		t.Fatalf("value balance mismatch: got %d want %d", got.ValueBalance, tx.ValueBalance)
	}
	if len(got.ShieldedSpends) != 1 || len(got.ShieldedOutputs) != 1 {
		t.Fatalf("unexpected vector lengths: %d spends, %d outputs", len(got.ShieldedSpends), len(got.ShieldedOutputs))
	}
}

// TestTransactionTxIdDeterministic checks that TxId is a pure function of
// the transaction's encoding: two structurally identical transactions hash
// to the same id, and a changed field changes it.
func TestTransactionTxIdDeterministic(t *testing.T) {
	a := &Transaction{Version: 4, ValueBalance: 100}
	b := &Transaction{Version: 4, ValueBalance: 100}
	if a.TxId() != b.TxId() {
		t.Fatal("expected identical transactions to share a TxId")
	}

	b.ValueBalance = 101
	if a.TxId() == b.TxId() {
		t.Fatal("expected a changed value balance to change the TxId")
	}
}

// TestReadTransactionTruncated checks that a truncated encoding is reported
// as ErrTruncated rather than a generic I/O error.
func TestReadTransactionTruncated(t *testing.T) {
	tx := &Transaction{Version: 4, ValueBalance: 1}
	var buf bytes.Buffer
	if err := tx.Write(&buf); err != nil {
		t.Fatalf("write: %v", err)
	}

	truncated := bytes.NewReader(buf.Bytes()[:buf.Len()-4])
	if _, err := ReadTransaction(truncated); err != ErrTruncated {
		t.Fatalf("expected ErrTruncated, got %v", err)
	}
}
