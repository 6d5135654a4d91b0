package wallet

import (
	"testing"

	"github.com/ccoin/shieldwallet/internal/sapling"
	"github.com/ccoin/shieldwallet/pkg/types"
)

func fakeNote(ivk sapling.Scalar, value uint64) Note {
	return Note{Value: value}
}

func fakeWitness() Witness {
	return Witness{Position: 0}
}

// TestAccountBalances mirrors account.rs's account_balances test: two notes
// received in two different transactions, with balances moving from
// pending to spendable as each transaction crosses the verified threshold.
func TestAccountBalances(t *testing.T) {
	w := NewWallet(1, nil, nil)
	xfvk := ExtendedFullViewingKey{}
	account := NewAccount("test", xfvk)
	ivk := account.IVK()

	spendable, pending := account.Balances(w.TxByID)
	if spendable != 0 || pending != 0 {
		t.Fatalf("empty account balances = (%d,%d), want (0,0)", spendable, pending)
	}

	tx1id := types.TxId{0: 0}
	tx1 := NewWalletTxFromBlock(tx1id, 12345, 120, 100)
	w.AddTransaction(tx1)
	n1 := &WalletNote{Note: fakeNote(ivk, 5), Witness: fakeWitness()}
	n1.MarkReceived(tx1id)
	account.Notes = append(account.Notes, n1)

	tx2id := types.TxId{0: 1}
	tx2 := NewWalletTxFromBlock(tx2id, 12345, 130, 110)
	w.AddTransaction(tx2)
	n2 := &WalletNote{Note: fakeNote(ivk, 6), Witness: fakeWitness()}
	n2.MarkReceived(tx2id)
	account.Notes = append(account.Notes, n2)

	if tx1.IsVerified() || tx2.IsVerified() {
		t.Fatal("freshly mined transactions should not be verified yet")
	}
	spendable, pending = account.Balances(w.TxByID)
	if spendable != 0 || pending != 11 {
		t.Fatalf("balances = (%d,%d), want (0,11)", spendable, pending)
	}

	tx1.ChainTip(110)
	tx2.ChainTip(110)
	if !tx1.IsVerified() || tx2.IsVerified() {
		t.Fatal("expected only tx1 verified at height 110")
	}
	spendable, pending = account.Balances(w.TxByID)
	if spendable != 5 || pending != 6 {
		t.Fatalf("balances = (%d,%d), want (5,6)", spendable, pending)
	}

	tx1.ChainTip(120)
	tx2.ChainTip(120)
	if !tx1.IsVerified() || !tx2.IsVerified() {
		t.Fatal("expected both verified at height 120")
	}
	spendable, pending = account.Balances(w.TxByID)
	if spendable != 11 || pending != 0 {
		t.Fatalf("balances = (%d,%d), want (11,0)", spendable, pending)
	}
}
