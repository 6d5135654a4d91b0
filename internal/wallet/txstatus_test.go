package wallet

import (
	"testing"

	"github.com/ccoin/shieldwallet/pkg/types"
)

func expectStatus(t *testing.T, tx *WalletTx, want TxStatus) {
	t.Helper()
	if !tx.Status.Equal(want) {
		t.Fatalf("status = %s, want %s", tx.Status, want)
	}
}

func TestWalletTxStateMachine(t *testing.T) {
	tx := NewWalletTx(types.TxId{}, 12345, 120)
	expectStatus(t, tx, TxStatus{kind: statusPending, expires: 120})

	// Pending <--> PendingExpired
	tx.ChainTip(120)
	expectStatus(t, tx, TxStatus{kind: statusPending, expires: 120})
	tx.ChainTip(121)
	expectStatus(t, tx, TxStatus{kind: statusPendingExpired, expires: 120})
	tx.ChainTip(115)
	expectStatus(t, tx, TxStatus{kind: statusPending, expires: 120})

	// Pending --> InMemPool
	tx.Sent()
	expectStatus(t, tx, TxStatus{kind: statusInMemPool, expires: 120})

	// InMemPool <--> Expired
	tx.ChainTip(120)
	expectStatus(t, tx, TxStatus{kind: statusInMemPool, expires: 120})
	tx.ChainTip(121)
	expectStatus(t, tx, TxStatus{kind: statusExpired, expires: 120})
	tx.ChainTip(110)
	expectStatus(t, tx, TxStatus{kind: statusInMemPool, expires: 120})

	// InMemPool --> Mined
	tx.Mined(115)
	expectStatus(t, tx, TxStatus{kind: statusMined, expires: 120, mined: 115})

	// Mined <--> Verified
	tx.ChainTip(121)
	if tx.IsVerified() {
		t.Fatal("expected not verified at height 121")
	}
	expectStatus(t, tx, TxStatus{kind: statusMined, expires: 120, mined: 115})
	tx.ChainTip(125)
	if !tx.IsVerified() {
		t.Fatal("expected verified at height 125")
	}
	expectStatus(t, tx, TxStatus{kind: statusVerified, expires: 120, mined: 115})
	tx.ChainTip(124)
	if tx.IsVerified() {
		t.Fatal("expected not verified at height 124")
	}
	expectStatus(t, tx, TxStatus{kind: statusMined, expires: 120, mined: 115})

	// Mined --> InMemPool
	tx.ChainTip(115)
	expectStatus(t, tx, TxStatus{kind: statusMined, expires: 120, mined: 115})
	tx.ChainTip(114)
	expectStatus(t, tx, TxStatus{kind: statusInMemPool, expires: 120})

	// InMemPool --> Mined --> Verified
	tx.Mined(115)
	if tx.IsVerified() {
		t.Fatal("expected not verified immediately after mining")
	}
	expectStatus(t, tx, TxStatus{kind: statusMined, expires: 120, mined: 115})
	tx.ChainTip(130)
	if !tx.IsVerified() {
		t.Fatal("expected verified at height 130")
	}
	expectStatus(t, tx, TxStatus{kind: statusVerified, expires: 120, mined: 115})

	// Verified --> InMemPool
	tx.ChainTip(110)
	if tx.IsVerified() {
		t.Fatal("expected not verified after rollback to 110")
	}
	expectStatus(t, tx, TxStatus{kind: statusInMemPool, expires: 120})
}

func TestWalletTxSentPanicsUnlessPending(t *testing.T) {
	tx := NewWalletTxFromBlock(types.TxId{}, 1, 100, 50)
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic sending an already-mined transaction")
		}
	}()
	tx.Sent()
}
