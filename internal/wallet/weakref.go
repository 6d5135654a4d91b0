package wallet

import "github.com/ccoin/shieldwallet/pkg/types"

// weakTxId is a note's back-reference to a transaction, expressed as a
// plain identifier rather than a pointer. Go's garbage collector collects
// reference cycles on its own, so unlike the original wallet's Rc-based
// graph there is no cycle-breaking weak pointer to emulate; ok distinguishes
// "not yet set" from the zero TxId.
type weakTxId struct {
	id types.TxId
	ok bool
}
