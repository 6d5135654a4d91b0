package keystore

import (
	"crypto/sha256"
	"encoding/binary"

	"github.com/ccoin/shieldwallet/pkg/types"
)

// sighashPersonalization domain-separates this module's signature hash
// from any other digest computed over the same transaction bytes,
// standing in for ZIP-243's per-branch BLAKE2b personalization string
// (e.g. "ZcashSigHash" + consensus_branch_id). A byte-identical
// implementation of ZIP-0143/ZIP-0243 needs the full transparent
// transaction wire format this module's Transaction does not carry
// (transparent inputs/outputs, script codes) — see DESIGN.md for the
// resulting test-vector decision.
const sighashPersonalization = "ShieldWalletSigHash"

// SighashAll computes the signature hash every shielded spend's
// spend_auth_sig and the transaction's binding_sig are signed over,
// mirroring signature_hash_data(mtx, consensus_branch_id, SIGHASH_ALL,
// None): a single digest binding the transaction's shielded contents and
// the network's current consensus branch, so a signature produced for one
// branch or one transaction can never verify against another.
func SighashAll(mtx *types.Transaction, consensusBranchID uint32) [32]byte {
	h := sha256.New()
	h.Write([]byte(sighashPersonalization))

	var branch [4]byte
	binary.BigEndian.PutUint32(branch[:], consensusBranchID)
	h.Write(branch[:])

	var version [4]byte
	binary.BigEndian.PutUint32(version[:], mtx.Version)
	h.Write(version[:])

	var vb [8]byte
	binary.BigEndian.PutUint64(vb[:], uint64(mtx.ValueBalance))
	h.Write(vb[:])

	for _, sd := range mtx.ShieldedSpends {
		h.Write(sd.Cv[:])
		h.Write(sd.Anchor[:])
		h.Write(sd.Nullifier[:])
		h.Write(sd.Rk[:])
		h.Write(sd.ZkProof[:])
	}
	for _, od := range mtx.ShieldedOutputs {
		h.Write(od.Cv[:])
		h.Write(od.Cmu[:])
		h.Write(od.EphemeralKey[:])
		h.Write(od.EncCiphertext[:])
		h.Write(od.OutCiphertext[:])
		h.Write(od.ZkProof[:])
	}

	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}
