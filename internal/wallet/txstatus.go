package wallet

import (
	"fmt"

	"github.com/ccoin/shieldwallet/pkg/types"
)

// statusKind enumerates the phases of TxStatus. Rust expresses TxStatus as
// an enum with per-variant payloads; Go has no sum type with that shape, so
// the most literal transliteration is a small tag plus the union of the
// fields every variant needs (expires always, mined only once observed).
type statusKind uint8

const (
	statusPending statusKind = iota
	statusPendingExpired
	statusInMemPool
	statusExpired
	statusMined
	statusVerified
)

func (k statusKind) String() string {
	switch k {
	case statusPending:
		return "Pending"
	case statusPendingExpired:
		return "PendingExpired"
	case statusInMemPool:
		return "InMemPool"
	case statusExpired:
		return "Expired"
	case statusMined:
		return "Mined"
	case statusVerified:
		return "Verified"
	default:
		return "Unknown"
	}
}

// verifiedConfirmations is the confirmation depth at which a mined
// transaction is considered verified.
const verifiedConfirmations = 10

// TxStatus is the status of a wallet transaction, mirroring
// zcash_wallet::transaction::TxStatus.
type TxStatus struct {
	kind    statusKind
	expires uint32
	mined   uint32
}

// NewPendingStatus returns the initial status of a transaction the wallet
// has constructed but not yet sent.
func NewPendingStatus(expiryHeight uint32) TxStatus {
	return TxStatus{kind: statusPending, expires: expiryHeight}
}

// NewMinedStatus returns the status of a transaction discovered already
// mined in a scanned block, e.g. one not created by this wallet.
func NewMinedStatus(expiryHeight, minedHeight uint32) TxStatus {
	return TxStatus{kind: statusMined, expires: expiryHeight, mined: minedHeight}
}

func (s TxStatus) isConfirmed() bool {
	return s.kind == statusMined || s.kind == statusVerified
}

// String renders the status for logging/debugging.
func (s TxStatus) String() string {
	switch s.kind {
	case statusMined, statusVerified:
		return fmt.Sprintf("%s{expires:%d,mined:%d}", s.kind, s.expires, s.mined)
	default:
		return fmt.Sprintf("%s{expires:%d}", s.kind, s.expires)
	}
}

// Equal reports whether two statuses are identical, used by tests in place
// of Rust's derived PartialEq.
func (s TxStatus) Equal(o TxStatus) bool {
	return s == o
}

// WalletTx tracks a single transaction's status and the notes it produced
// and/or consumed.
type WalletTx struct {
	TxId        types.TxId
	CreatedTime uint32
	Status      TxStatus
	Notes       map[uint32]*WalletNote
	Raw         []byte
}

// NewWalletTx constructs a freshly-created, not-yet-sent transaction
// record, mirroring WalletTx::new.
func NewWalletTx(txid types.TxId, createdTime, expiryHeight uint32) *WalletTx {
	return &WalletTx{
		TxId:        txid,
		CreatedTime: createdTime,
		Status:      NewPendingStatus(expiryHeight),
		Notes:       make(map[uint32]*WalletNote),
	}
}

// NewWalletTxFromBlock constructs a transaction record discovered already
// mined during a scan, mirroring WalletTx::from_block.
func NewWalletTxFromBlock(txid types.TxId, createdTime, expiryHeight, minedHeight uint32) *WalletTx {
	return &WalletTx{
		TxId:        txid,
		CreatedTime: createdTime,
		Status:      NewMinedStatus(expiryHeight, minedHeight),
		Notes:       make(map[uint32]*WalletNote),
	}
}

// IsVerified reports whether the transaction has reached verifiedConfirmations.
func (w *WalletTx) IsVerified() bool {
	return w.Status.kind == statusVerified
}

// Sent transitions a pending transaction to in-mempool, mirroring
// WalletTx::sent. Calling it on any other status is a programming error, as
// in the original.
func (w *WalletTx) Sent() {
	if w.Status.kind != statusPending {
		panic("wallet: can only send pending transactions")
	}
	w.Status = TxStatus{kind: statusInMemPool, expires: w.Status.expires}
}

// Mined transitions an in-mempool, unexpired transaction to mined at the
// given height, mirroring WalletTx::mined.
func (w *WalletTx) Mined(minedHeight uint32) {
	if w.Status.kind != statusInMemPool {
		panic("wallet: can only mine transactions in the mempool")
	}
	if w.Status.expires != 0 && minedHeight > w.Status.expires {
		panic("wallet: can only mine transactions that are not expired")
	}
	w.Status = TxStatus{kind: statusMined, expires: w.Status.expires, mined: minedHeight}
}

// ChainTip transitions the transaction's status in response to a new
// (or rolled-back) chain tip height. It must be called separately for
// height increases and decreases, mirroring WalletTx::chain_tip.
func (w *WalletTx) ChainTip(height uint32) {
	s := w.Status
	switch {
	case s.kind == statusPending && s.expires != 0 && height > s.expires:
		w.Status = TxStatus{kind: statusPendingExpired, expires: s.expires}
	case s.kind == statusPendingExpired && height <= s.expires:
		w.Status = TxStatus{kind: statusPending, expires: s.expires}

	case s.kind == statusInMemPool && s.expires != 0 && height > s.expires:
		w.Status = TxStatus{kind: statusExpired, expires: s.expires}
	case s.kind == statusExpired && height <= s.expires:
		w.Status = TxStatus{kind: statusInMemPool, expires: s.expires}

	case s.kind == statusMined && height < s.mined:
		w.Status = TxStatus{kind: statusInMemPool, expires: s.expires}
	case s.kind == statusVerified && height < s.mined:
		w.Status = TxStatus{kind: statusInMemPool, expires: s.expires}

	case s.kind == statusMined && height-s.mined >= verifiedConfirmations:
		w.Status = TxStatus{kind: statusVerified, expires: s.expires, mined: s.mined}
	case s.kind == statusVerified && height-s.mined < verifiedConfirmations:
		w.Status = TxStatus{kind: statusMined, expires: s.expires, mined: s.mined}
	}
}
