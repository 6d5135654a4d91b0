// Package builder assembles a shielded transaction from selected input
// notes and requested outputs, coordinating proof creation and signing.
// Grounded on zcash_wallet/src/transaction/builder.rs for control flow and
// on the teacher's internal/zkp/transaction.go TransactionBuilder for Go
// naming and shape.
package builder

import (
	"errors"

	"github.com/ccoin/shieldwallet/internal/keystore"
	"github.com/ccoin/shieldwallet/internal/sapling"
	"github.com/ccoin/shieldwallet/internal/wallet"
	"github.com/ccoin/shieldwallet/pkg/common"
	"github.com/ccoin/shieldwallet/pkg/types"
)

// DefaultFee is the builder's default transaction fee when none is set.
const DefaultFee types.Amount = 10000

// Errors returned while assembling a transaction.
var (
	ErrAnchorMismatch  = errors.New("builder: spend witness root does not match the transaction's anchor")
	ErrInvalidAddress  = errors.New("builder: output address has no valid diversifier base point")
	ErrNegativeChange  = errors.New("builder: spends do not cover outputs plus fee")
	ErrNoChangeAddress = errors.New("builder: positive change but no spends and no change address configured")
	ErrValueOverflow   = errors.New("builder: accumulated value balance overflows a signed 64-bit amount")
)

type spendInfo struct {
	accountId   types.AccountId
	diversifier [11]byte
	note        wallet.Note
	ar          sapling.Scalar
	witness     wallet.Witness
}

type outputInfo struct {
	ovk   wallet.OutgoingViewingKey
	to    wallet.PaymentAddress
	value types.Amount
	rcm   sapling.Scalar
	memo  types.Memo
}

// Builder accumulates spends and outputs for one transaction, mirroring
// zcash_wallet::transaction::builder::Builder.
type Builder struct {
	coinType      uint32
	fee           types.Amount
	valueBalance  types.Amount
	anchor        *types.Hash
	spends        []spendInfo
	outputs       []outputInfo
	changeAddress *changeAddress
}

type changeAddress struct {
	ovk wallet.OutgoingViewingKey
	to  wallet.PaymentAddress
}

// New constructs an empty builder for coinType, with the default fee.
func New(coinType uint32) *Builder {
	return &Builder{coinType: coinType, fee: DefaultFee}
}

// SetFee overrides the builder's default fee.
func (b *Builder) SetFee(fee types.Amount) {
	b.fee = fee
}

// SetChangeAddress configures where positive change is sent, overriding
// the fallback to the first spend's own address.
func (b *Builder) SetChangeAddress(ovk wallet.OutgoingViewingKey, to wallet.PaymentAddress) {
	b.changeAddress = &changeAddress{ovk: ovk, to: to}
}

// AddSaplingSpend records a note to be spent. Every spend's witness must
// authenticate against the same tree root; the first spend added fixes
// that root as the transaction's anchor.
func (b *Builder) AddSaplingSpend(accountId types.AccountId, diversifier [11]byte, note wallet.Note, ar sapling.Scalar, witness wallet.Witness) error {
	if b.anchor == nil {
		root := witness.Root
		b.anchor = &root
	} else if witness.Root != *b.anchor {
		return ErrAnchorMismatch
	}

	sum, ok := common.CheckedAddInt64(int64(b.valueBalance), int64(note.Value))
	if !ok {
		return ErrValueOverflow
	}
	b.valueBalance = types.Amount(sum)
	b.spends = append(b.spends, spendInfo{
		accountId:   accountId,
		diversifier: diversifier,
		note:        note,
		ar:          ar,
		witness:     witness,
	})
	return nil
}

// AddSaplingOutput records a requested payment. memo defaults to the
// ZIP-302 empty sentinel when zero-valued.
func (b *Builder) AddSaplingOutput(ovk wallet.OutgoingViewingKey, to wallet.PaymentAddress, value types.Amount, rcm sapling.Scalar, memo types.Memo) error {
	if _, ok := to.GD(); !ok {
		return ErrInvalidAddress
	}

	diff, ok := common.CheckedAddInt64(int64(b.valueBalance), -int64(value))
	if !ok {
		return ErrValueOverflow
	}
	b.valueBalance = types.Amount(diff)
	if memo == (types.Memo{}) {
		memo = types.DefaultMemo()
	}
	b.outputs = append(b.outputs, outputInfo{ovk: ovk, to: to, value: value, rcm: rcm, memo: memo})
	return nil
}

// Build assembles, proves and signs the accumulated spends and outputs
// into a frozen Transaction, mirroring Builder::build.
func (b *Builder) Build(consensusBranchID uint32, ks keystore.KeyStore, prover keystore.TxProver) (*types.Transaction, error) {
	changeSum, ok := common.CheckedAddInt64(int64(b.valueBalance), -int64(b.fee))
	if !ok {
		return nil, ErrValueOverflow
	}
	change := types.Amount(changeSum)
	if change < 0 {
		return nil, ErrNegativeChange
	}
	if change > 0 {
		ovk, to, err := b.resolveChangeAddress(ks)
		if err != nil {
			return nil, err
		}
		r, err := sapling.RandomScalar()
		if err != nil {
			return nil, err
		}
		if err := b.AddSaplingOutput(ovk, to, change, r, types.Memo{}); err != nil {
			return nil, err
		}
	}

	mtx := &types.Transaction{
		Version:      4,
		ValueBalance: b.valueBalance,
	}

	ctx := keystore.NewProvingContext()
	var anchor types.Hash
	if b.anchor != nil {
		anchor = *b.anchor
	}

	inputsToSign := make([]keystore.SignInput, 0, len(b.spends))
	for _, spend := range b.spends {
		pgk, err := ks.ProvingKey(b.coinType, spend.accountId)
		if err != nil {
			return nil, err
		}

		gd, ok := (wallet.PaymentAddress{Diversifier: spend.diversifier}).GD()
		if !ok {
			return nil, ErrInvalidAddress
		}
		cmu := wallet.Commitment(spend.note.Value, gd, spend.note.Pkd, spend.note.Rcm)
		nullifier := wallet.DeriveNullifier(pgk.Nsk, cmu, spend.witness.Position)

		proof, cv, rk, err := prover.SpendProof(ctx, pgk, spend.diversifier, spend.note.Rcm, spend.ar, spend.note.Value, anchor, nullifier, spend.witness)
		if err != nil {
			return nil, err
		}

		mtx.ShieldedSpends = append(mtx.ShieldedSpends, types.SpendDescription{
			Cv:        cv.Encode32(),
			Anchor:    anchor,
			Nullifier: types.Nullifier(nullifier),
			Rk:        rk.Point().Encode32(),
			ZkProof:   proof,
			// SpendAuthSig is left blank; ks.Sign fills it below.
		})
		inputsToSign = append(inputsToSign, keystore.SignInput{AccountId: spend.accountId, Ar: spend.ar})
	}

	for _, output := range b.outputs {
		esk, err := sapling.RandomScalar()
		if err != nil {
			return nil, err
		}
		proof, cv, err := prover.OutputProof(ctx, esk, output.to, output.rcm, uint64(output.value))
		if err != nil {
			return nil, err
		}

		gd, _ := output.to.GD()
		cmu := wallet.Commitment(uint64(output.value), gd, output.to.Pkd, output.rcm)
		epk := sapling.ValueCommitmentRandomnessBase().ScalarMul(esk)

		var encCiphertext [580]byte
		var outCiphertext [80]byte
		mtx.ShieldedOutputs = append(mtx.ShieldedOutputs, types.OutputDescription{
			Cv:            cv.Encode32(),
			Cmu:           cmu,
			EphemeralKey:  epk.Encode32(),
			EncCiphertext: encCiphertext,
			OutCiphertext: outCiphertext,
			ZkProof:       proof,
		})
	}

	if err := ks.Sign(mtx, inputsToSign, consensusBranchID, b.coinType, ctx); err != nil {
		return nil, err
	}

	return mtx, nil
}

func (b *Builder) resolveChangeAddress(ks keystore.KeyStore) (wallet.OutgoingViewingKey, wallet.PaymentAddress, error) {
	if b.changeAddress != nil {
		return b.changeAddress.ovk, b.changeAddress.to, nil
	}
	if len(b.spends) == 0 {
		return wallet.OutgoingViewingKey{}, wallet.PaymentAddress{}, ErrNoChangeAddress
	}
	first := b.spends[0]
	xfvk, err := ks.Xfvk(b.coinType, first.accountId)
	if err != nil {
		return wallet.OutgoingViewingKey{}, wallet.PaymentAddress{}, err
	}
	return xfvk.Ovk, wallet.PaymentAddress{
		Diversifier: first.diversifier,
		Pkd:         first.note.Pkd,
	}, nil
}
