package wallet

import (
	"sync"

	"github.com/ccoin/shieldwallet/pkg/types"
)

// KeyStore and ChainState are the wallet's external collaborators. This
// package only depends on the contracts, mirroring zcash_wallet::types;
// cmd/walletd satisfies them with adapters over keystore.LocalKeyStore and
// params.ConsensusBranchID.
type KeyStore interface {
	ProvingKey(account types.AccountId) ([]byte, bool)
	Xfvk(account types.AccountId) (ExtendedFullViewingKey, bool)
}

type ChainState interface {
	ConsensusBranchID(height uint32) uint32
}

// Wallet is the top-level aggregate: a keystore, a view of chain state, a
// set of accounts and the transactions that touch them. Mirrors
// zcash_wallet::wallet::Wallet, generalized with a mutex because, unlike
// the original's single-threaded Rc/RefCell graph, Go callers may share a
// *Wallet across goroutines.
type Wallet struct {
	mu           sync.Mutex
	CoinType     uint32
	KeyStore     KeyStore
	ChainState   ChainState
	Accounts     map[types.AccountId]*Account
	Transactions map[types.TxId]*WalletTx
}

// NewWallet constructs an empty wallet for the given coin type (ZIP-32's
// coin_type field; internal/params names the standard and testnet values).
func NewWallet(coinType uint32, ks KeyStore, cs ChainState) *Wallet {
	return &Wallet{
		CoinType:     coinType,
		KeyStore:     ks,
		ChainState:   cs,
		Accounts:     make(map[types.AccountId]*Account),
		Transactions: make(map[types.TxId]*WalletTx),
	}
}

// TxByID looks up a tracked transaction, used as the txOf callback notes
// and accounts need to resolve their back-references.
func (w *Wallet) TxByID(id types.TxId) *WalletTx {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.Transactions[id]
}

// AddAccount registers a new account under id.
func (w *Wallet) AddAccount(id types.AccountId, account *Account) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.Accounts[id] = account
}

// AddTransaction registers a new or updated transaction record.
func (w *Wallet) AddTransaction(tx *WalletTx) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.Transactions[tx.TxId] = tx
}

// ChainTip advances every tracked transaction's status to reflect a new
// chain tip height. Must be called separately for increasing and
// decreasing heights (i.e. once per reorg step), mirroring WalletTx's own
// per-call contract.
func (w *Wallet) ChainTip(height uint32) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, tx := range w.Transactions {
		tx.ChainTip(height)
	}
}

// TotalBalances sums every account's (spendable, pending) balance.
func (w *Wallet) TotalBalances() (spendable, pending types.Amount) {
	w.mu.Lock()
	accounts := make([]*Account, 0, len(w.Accounts))
	for _, a := range w.Accounts {
		accounts = append(accounts, a)
	}
	w.mu.Unlock()

	for _, a := range accounts {
		s, p := a.Balances(w.TxByID)
		spendable += s
		pending += p
	}
	return spendable, pending
}
