// Package chain drives compact-block synchronization: it maintains the
// block index, matches incoming spend nullifiers against the wallet's
// tracked notes, hands every fresh shielded output to an OnOutput hook for
// trial-decryption (it does not decrypt outputs itself), and handles
// rollbacks. Grounded on zcash_wallet/src/chain/mod.rs for the sync
// algorithm and on the teacher's internal/zkp/nullifier.go (NullifierSet +
// pluggable NullifierStore) for the Go shape of the nullifier table. The
// manager keeps no note-commitment tree.
package chain

import (
	"context"
	"errors"
	"sync"

	"github.com/ccoin/shieldwallet/internal/params"
	"github.com/ccoin/shieldwallet/internal/sapling"
	"github.com/ccoin/shieldwallet/internal/storage"
	"github.com/ccoin/shieldwallet/pkg/types"
)

// Errors returned while syncing.
var (
	ErrDoubleSpend = errors.New("chain: nullifier already recorded as spent at an earlier height")
)

// CompactTx is the minimal per-transaction view a compact block carries:
// enough to detect double spends and discover new notes without shipping
// full transaction data.
type CompactTx struct {
	TxId            types.TxId
	ShieldedSpends  []types.Nullifier
	ShieldedOutputs []CompactOutput
}

// CompactOutput is one shielded output's trial-decryption material.
type CompactOutput struct {
	Cmu           types.NoteCommitment
	EphemeralKey  [32]byte
	EncCiphertext [52]byte
}

// CompactBlock is one block's worth of compact transactions.
type CompactBlock struct {
	Hash   types.BlockHash
	Prev   types.BlockHash
	Height uint32
	Txs    []CompactTx
}

// CompactBlockSource streams compact blocks from a given height, optionally
// reporting a rollback the caller must apply first, mirroring
// zcash_wallet::chain::ChainSync.
type CompactBlockSource interface {
	// StartSession begins a sync session from startHeight. The returned
	// channel is closed when the stream ends; a value received with a
	// non-nil Err terminates the session. rollbackHeight, if non-nil,
	// means the caller must first drop every locally indexed block whose
	// height exceeds it.
	StartSession(startHeight uint32) (blocks <-chan CompactBlockOrError, rollbackHeight *uint32, err error)
}

// CompactBlockOrError is one element of a CompactBlockSource stream.
type CompactBlockOrError struct {
	Block CompactBlock
	Err   error
}

type blockIndex struct {
	hash   types.BlockHash
	prev   types.BlockHash
	height uint32
	txIds  []types.TxId
}

// Persister is the optional durable backing store a ChainManager mirrors
// its nullifier table and block index to, satisfied by *storage.Store. A
// ChainManager with no Persister configured keeps state in memory only,
// matching spec.md §1's "no wallet persistence format is mandated"
// non-goal.
type Persister interface {
	SaveNullifier(ctx context.Context, nf types.Nullifier, height uint32, spent bool) error
	SaveBlock(ctx context.Context, b storage.BlockRecord) error
	DeleteBlocksAbove(ctx context.Context, height uint32) error
}

// Loader is the optional capability a Persister may also satisfy, letting
// Resume rebuild a ChainManager's in-memory state from a previous run
// instead of resyncing from height 0. *storage.Store satisfies this
// alongside Persister.
type Loader interface {
	LoadBlocks(ctx context.Context) ([]storage.BlockRecord, error)
	NullifierHeight(ctx context.Context, nf types.Nullifier) (height uint32, spent bool, tracked bool, err error)
}

// ChainManager drives synchronization against a CompactBlockSource,
// maintaining the block index and the nullifier table used for
// double-spend detection, mirroring zcash_wallet::chain::ChainManager.
type ChainManager struct {
	mu sync.Mutex

	upgrades   []params.Upgrade
	source     CompactBlockSource
	blocks     []blockIndex
	nullifiers map[types.Nullifier]*uint32
	ivks       []sapling.Scalar
	persist    Persister

	// OnSpend is called for every nullifier matched against a prior
	// record, so a caller can mark the corresponding WalletNote spent.
	OnSpend func(nf types.Nullifier, height uint32)

	// OnOutput is called for every shielded output in a fresh block,
	// alongside every registered viewing key; trial-decryption itself is
	// a collaborator's job (real note encryption is out of scope), so
	// this hook only hands the caller the material to attempt it with.
	OnOutput func(txid types.TxId, ivks []sapling.Scalar, output CompactOutput)
}

// NewChainManager constructs a manager over source, using upgrades as its
// consensus-branch schedule.
func NewChainManager(source CompactBlockSource, upgrades []params.Upgrade) *ChainManager {
	return &ChainManager{
		source:     source,
		upgrades:   upgrades,
		nullifiers: make(map[types.Nullifier]*uint32),
	}
}

// SetPersister configures a durable backing store the manager mirrors its
// nullifier table and block index to as blocks are applied and rolled back.
func (cm *ChainManager) SetPersister(p Persister) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.persist = p
}

// Resume rebuilds the manager's in-memory block index and nullifier state
// from its persister, if one is configured and it also satisfies Loader.
// Call it once after SetPersister and TrackNullifier (Resume only restores
// the spend height of nullifiers already tracked) and before the first
// Sync, so a restarted daemon continues from its last indexed height
// instead of resyncing the whole chain.
func (cm *ChainManager) Resume(ctx context.Context) error {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	loader, ok := cm.persist.(Loader)
	if !ok {
		return nil
	}

	records, err := loader.LoadBlocks(ctx)
	if err != nil {
		return err
	}
	cm.blocks = cm.blocks[:0]
	for _, rec := range records {
		cm.blocks = append(cm.blocks, blockIndex{
			hash:   rec.Hash,
			prev:   rec.Prev,
			height: rec.Height,
			txIds:  rec.TxIds,
		})
	}

	for nf := range cm.nullifiers {
		height, spent, tracked, err := loader.NullifierHeight(ctx, nf)
		if err != nil {
			return err
		}
		if tracked && spent {
			h := height
			cm.nullifiers[nf] = &h
		}
	}
	return nil
}

// SetViewingKeys replaces the set of incoming viewing keys every fresh
// output is offered to via OnOutput, mirroring
// ChainManager::set_viewing_keys.
func (cm *ChainManager) SetViewingKeys(ivks []sapling.Scalar) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.ivks = ivks
}

// TrackNullifier registers a nullifier the wallet expects to see spent
// on-chain (the nullifier of one of its own unspent notes), so Sync can
// recognize it and report double-spends.
func (cm *ChainManager) TrackNullifier(nf types.Nullifier) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	if _, ok := cm.nullifiers[nf]; !ok {
		cm.nullifiers[nf] = nil
	}
}

// Height returns the height of the last indexed block, or 0 if none.
func (cm *ChainManager) Height() uint32 {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	return cm.curHeightLocked()
}

func (cm *ChainManager) curHeightLocked() uint32 {
	if len(cm.blocks) == 0 {
		return 0
	}
	return cm.blocks[len(cm.blocks)-1].height
}

// ConsensusBranchID returns the branch id active at the current synced
// height, mirroring ChainManager::consensus_branch_id: the last upgrade
// whose activation height is at most the current height, or the first
// (pre-activation) entry if no blocks have been seen.
func (cm *ChainManager) ConsensusBranchID() uint32 {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	return params.ConsensusBranchID(cm.upgrades, cm.curHeightLocked())
}

// Sync drives one synchronization pass: it starts a session from the block
// after the last one indexed, applies any reported rollback, then consumes
// fresh blocks in order, checking every shielded spend's nullifier for a
// double-spend and appending each block to the index. A DoubleSpend error
// aborts the pass, leaving every block consumed before the offending one
// committed.
func (cm *ChainManager) Sync() error {
	cm.mu.Lock()
	curHeight := cm.curHeightLocked()
	cm.mu.Unlock()

	blocksCh, rollbackHeight, err := cm.source.StartSession(curHeight + 1)
	if err != nil {
		return err
	}

	cm.mu.Lock()
	if rollbackHeight != nil {
		if err := cm.rollbackLocked(*rollbackHeight); err != nil {
			cm.mu.Unlock()
			return err
		}
		curHeight = cm.curHeightLocked()
	}
	cm.mu.Unlock()

	for item := range blocksCh {
		if item.Err != nil {
			return item.Err
		}
		block := item.Block
		if block.Height <= curHeight {
			// Duplicate suffix from before the rollback point; skip.
			continue
		}
		if err := cm.applyBlock(block); err != nil {
			return err
		}
	}
	return nil
}

func (cm *ChainManager) applyBlock(block CompactBlock) error {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	// Validate every spend in the block before mutating any state, so a
	// double-spend later in the block leaves no earlier spend in the same
	// block marked spent. Without this a failed applyBlock (which does not
	// advance cm.blocks) would be retried by the next Sync and see its own
	// partial mutation as a spurious double-spend.
	for _, tx := range block.Txs {
		for _, nf := range tx.ShieldedSpends {
			if height, tracked := cm.nullifiers[nf]; tracked && height != nil {
				return ErrDoubleSpend
			}
		}
	}

	txIds := make([]types.TxId, 0, len(block.Txs))
	for _, tx := range block.Txs {
		for _, nf := range tx.ShieldedSpends {
			if _, tracked := cm.nullifiers[nf]; !tracked {
				continue
			}
			h := block.Height
			cm.nullifiers[nf] = &h
			if cm.persist != nil {
				if err := cm.persist.SaveNullifier(context.Background(), nf, h, true); err != nil {
					return err
				}
			}
			if cm.OnSpend != nil {
				cm.OnSpend(nf, block.Height)
			}
		}
		if cm.OnOutput != nil {
			for _, output := range tx.ShieldedOutputs {
				cm.OnOutput(tx.TxId, cm.ivks, output)
			}
		}
		txIds = append(txIds, tx.TxId)
	}

	cm.blocks = append(cm.blocks, blockIndex{
		hash:   block.Hash,
		prev:   block.Prev,
		height: block.Height,
		txIds:  txIds,
	})
	if cm.persist != nil {
		record := storage.BlockRecord{Hash: block.Hash, Prev: block.Prev, Height: block.Height, TxIds: txIds}
		if err := cm.persist.SaveBlock(context.Background(), record); err != nil {
			return err
		}
	}
	return nil
}

// rollbackLocked truncates the block index to drop every block whose
// height exceeds rollbackHeight. Callers must hold cm.mu.
func (cm *ChainManager) rollbackLocked(rollbackHeight uint32) error {
	split := len(cm.blocks)
	for i, b := range cm.blocks {
		if b.height > rollbackHeight {
			split = i
			break
		}
	}
	cm.blocks = cm.blocks[:split]

	for nf, height := range cm.nullifiers {
		if height != nil && *height > rollbackHeight {
			cm.nullifiers[nf] = nil
			if cm.persist != nil {
				if err := cm.persist.SaveNullifier(context.Background(), nf, 0, false); err != nil {
					return err
				}
			}
		}
	}

	if cm.persist != nil {
		return cm.persist.DeleteBlocksAbove(context.Background(), rollbackHeight)
	}
	return nil
}
