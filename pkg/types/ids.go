// Package types defines shared identifiers and value types for the
// shielded wallet core.
package types

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashSize is the width in bytes of every hash-derived identifier in this
// package.
const HashSize = 32

// Hash is a generic 32-byte digest.
type Hash [HashSize]byte

// TxId identifies a transaction by the hash of its serialized form.
type TxId Hash

// BlockHash identifies a block.
type BlockHash Hash

// Nullifier is the per-spend tag that prevents a note from being spent
// twice; derived deterministically from the spending key and the note
// being spent.
type Nullifier Hash

// NoteCommitment is the leaf value inserted into the note commitment tree
// when a shielded output is created.
type NoteCommitment Hash

// AccountId identifies an account within a wallet.
type AccountId uint32

// Amount is a signed quantity of value, denominated in the smallest unit
// of the currency. Shielded value balances are signed: positive means the
// transaction is a net source of shielded value, negative a net sink.
type Amount int64

// String renders a hash as 0x-prefixed hex, most-significant byte first.
func (h Hash) String() string {
	return "0x" + hex.EncodeToString(h[:])
}

func (t TxId) String() string          { return Hash(t).String() }
func (b BlockHash) String() string     { return Hash(b).String() }
func (n Nullifier) String() string     { return Hash(n).String() }
func (c NoteCommitment) String() string { return Hash(c).String() }

// IsEmpty reports whether h is the all-zero hash.
func (h Hash) IsEmpty() bool {
	return h == Hash{}
}

// Bytes returns a copy of the underlying bytes.
func (h Hash) Bytes() []byte {
	out := make([]byte, HashSize)
	copy(out, h[:])
	return out
}

// HashFromBytes copies up to HashSize bytes of b into a Hash.
func HashFromBytes(b []byte) Hash {
	var h Hash
	copy(h[:], b)
	return h
}

// HashBytes computes the SHA-256 digest of data, used where a package needs
// a generic identifying hash (e.g. a transaction's txid from its wire
// encoding) rather than a domain-specific commitment or nullifier.
func HashBytes(data []byte) Hash {
	return Hash(sha256.Sum256(data))
}
