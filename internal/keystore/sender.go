package keystore

import "github.com/ccoin/shieldwallet/pkg/types"

// SendResult reports how a TxSender's backend accepted a transaction,
// mirroring zcash_wallet::types::SendResult.
type SendResult int

const (
	// SendInMemPool means the backend accepted the transaction and it is
	// now sitting in the network's mempool.
	SendInMemPool SendResult = iota
	// SendBestEffort means the backend accepted the submission request but
	// cannot confirm mempool acceptance (e.g. a fire-and-forget relay).
	SendBestEffort
)

// String implements fmt.Stringer.
func (r SendResult) String() string {
	switch r {
	case SendInMemPool:
		return "in-mempool"
	case SendBestEffort:
		return "best-effort"
	default:
		return "unknown"
	}
}

// TxSender submits a built, signed transaction to the network, mirroring
// zcash_wallet::types::TxSender.
type TxSender interface {
	Send(tx *types.Transaction) (SendResult, error)
}

// MockTxSender records the last transaction it was given and always
// reports a fixed result, standing in for the real network backend
// (out of scope per spec.md §1).
type MockTxSender struct {
	Result SendResult
	Last   *types.Transaction
}

// NewMockTxSender returns a MockTxSender that reports result for every send.
func NewMockTxSender(result SendResult) *MockTxSender {
	return &MockTxSender{Result: result}
}

// Send implements TxSender.
func (s *MockTxSender) Send(tx *types.Transaction) (SendResult, error) {
	s.Last = tx
	return s.Result, nil
}
