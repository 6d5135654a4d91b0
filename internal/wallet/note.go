// Package wallet implements the light-client wallet state engine: notes,
// per-transaction status tracking and account balances.
package wallet

import (
	"github.com/ccoin/shieldwallet/internal/sapling"
	"github.com/ccoin/shieldwallet/pkg/types"
)

// Note is the plaintext content of a shielded note: how much value it
// carries, which diversified address it was sent to, and the randomness
// used to blind its commitment.
type Note struct {
	Value       uint64
	Diversifier [11]byte
	Pkd         sapling.Point
	Rcm         sapling.Scalar
}

// Witness is the path from a note commitment's leaf position up to a tree
// root, as used when building a spend. It is a plain value: nothing in this
// module updates it as new commitments are appended, and no package here
// maintains a note-commitment tree.
type Witness struct {
	Position uint64
	Path     [][32]byte
	Root     types.Hash
}

// WalletNote couples a plaintext Note with the witness needed to spend it
// and back-references to the transactions that created and (if spent)
// consumed it. Those back-references are weak: a note does not keep its
// owning transaction alive, mirroring the Rc<WalletNote> ownership the
// original wallet threads the other way (transactions own notes; notes
// only reference transactions for bookkeeping).
type WalletNote struct {
	Diversifier [11]byte
	Note        Note
	Memo        types.Memo
	Witness     Witness

	receivedTx weakTxId
	spentTx    weakTxId
}

// IsSpendable reports whether the note has not been spent and the
// transaction that created it has reached the verified confirmation depth,
// mirroring account.rs's account_balances test: a note is spendable once
// its receiving transaction is verified, and merely pending before that.
func (n *WalletNote) IsSpendable(txOf func(types.TxId) *WalletTx) bool {
	if n.spentTx.ok {
		return false
	}
	if !n.receivedTx.ok {
		return false
	}
	tx := txOf(n.receivedTx.id)
	if tx == nil {
		return false
	}
	return tx.IsVerified()
}

// MarkReceived records which transaction created this note.
func (n *WalletNote) MarkReceived(txid types.TxId) {
	n.receivedTx = weakTxId{id: txid, ok: true}
}

// MarkSpent records which transaction consumed this note.
func (n *WalletNote) MarkSpent(txid types.TxId) {
	n.spentTx = weakTxId{id: txid, ok: true}
}

// ReceivedTx returns the id of the transaction that created this note, if
// known.
func (n *WalletNote) ReceivedTx() (types.TxId, bool) {
	return n.receivedTx.id, n.receivedTx.ok
}

// SpentTx returns the id of the transaction that spent this note, if any.
func (n *WalletNote) SpentTx() (types.TxId, bool) {
	return n.spentTx.id, n.spentTx.ok
}
