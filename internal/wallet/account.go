package wallet

import (
	"github.com/ccoin/shieldwallet/internal/sapling"
	"github.com/ccoin/shieldwallet/pkg/types"
)

// OutgoingViewingKey lets the sender of a shielded output recover its
// plaintext memo later; the builder also falls back to it (and the default
// diversified address) when assembling a change output with no change
// address configured.
type OutgoingViewingKey [32]byte

// ExtendedFullViewingKey stands in for ZIP-32's xfvk: the key material an
// account uses to detect and spend its own notes. Real ZIP-32 derivation is
// out of scope (see internal/keystore); an account simply holds whatever
// key material its keystore derived for it.
type ExtendedFullViewingKey struct {
	Ivk         sapling.Scalar
	Ovk         OutgoingViewingKey
	Pk          sapling.Point
	Diversifier [11]byte
}

// Account is a pool of value controlled by a single spending key, mirroring
// zcash_wallet::account::Account.
type Account struct {
	Label string
	Xfvk  ExtendedFullViewingKey
	Notes []*WalletNote
}

// NewAccount constructs an empty account for the given viewing key.
func NewAccount(label string, xfvk ExtendedFullViewingKey) *Account {
	return &Account{Label: label, Xfvk: xfvk}
}

// IVK returns the account's incoming viewing key, used to trial-decrypt
// candidate outputs during a scan.
func (a *Account) IVK() sapling.Scalar {
	return a.Xfvk.Ivk
}

// DefaultAddress returns the account's canonical payment address: the
// diversifier and diversified transmission key its viewing key was derived
// against.
func (a *Account) DefaultAddress() PaymentAddress {
	return PaymentAddress{Diversifier: a.Xfvk.Diversifier, Pkd: a.Xfvk.Pk}
}

// Balances returns the account's (spendable, pending) balance, mirroring
// Account::balances: notes that have already been spent are excluded
// entirely; of the rest, a note counts toward spendable once its
// receiving transaction is verified, and toward pending otherwise.
func (a *Account) Balances(txOf func(types.TxId) *WalletTx) (spendable, pending types.Amount) {
	var spendableTotal, pendingTotal uint64
	for _, n := range a.Notes {
		if n.spentTx.ok {
			continue
		}
		if n.IsSpendable(txOf) {
			spendableTotal += n.Note.Value
		} else {
			pendingTotal += n.Note.Value
		}
	}
	return types.Amount(spendableTotal), types.Amount(pendingTotal)
}
