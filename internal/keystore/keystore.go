// Package keystore implements the wallet's key-management, proving and
// transmission collaborators: KeyStore, TxProver and TxSender, grounded on
// zcash_wallet/src/keystore.rs, src/types.rs and src/prover.rs. LocalKeyStore
// derives per-account key material with real ZIP-32-style hardened HD
// derivation (github.com/tyler-smith/go-bip32) along the m/32'/coin_type'/
// account' path spec.md names; MockTxProver and MockTxSender stand in for
// the trusted-setup prover and network backend spec.md treats as black-box
// collaborators.
package keystore

import (
	"crypto/sha256"
	"errors"

	"github.com/tyler-smith/go-bip32"

	"github.com/ccoin/shieldwallet/internal/sapling"
	"github.com/ccoin/shieldwallet/internal/wallet"
	"github.com/ccoin/shieldwallet/pkg/types"
)

// Errors returned by KeyStore implementations, mirroring the
// SignCountMismatch/BindingSigFailed kinds in spec.md §7.
var (
	ErrSignCountMismatch  = errors.New("keystore: more signing inputs than shielded spends")
	ErrBindingSigFailed   = errors.New("keystore: failed to produce binding signature")
	ErrInvalidDiversifier = errors.New("keystore: derived diversifier has no valid gd")
	ErrUnknownAccount     = errors.New("keystore: no key material for account")
)

// ProvingKey is the key material a TxProver needs to prove a spend: the
// spend-authorizing public key and the nullifier-deriving key, mirroring
// sapling_crypto::primitives::ProofGenerationKey.
type ProvingKey struct {
	Ak  sapling.Point
	Nsk sapling.Scalar
}

// SignInput names one shielded spend to authorize: which account's key
// signs it, and the randomizer ar the builder drew for that spend (the
// same ar the prover used to compute rk).
type SignInput struct {
	AccountId types.AccountId
	Ar        sapling.Scalar
}

// KeyStore holds a wallet's spending keys and authorizes the spending of
// its funds, mirroring zcash_wallet::types::KeyStore.
type KeyStore interface {
	// ProvingKey returns the proof-generation key for coinType/account at
	// the ZIP-32-style path m/32'/coin_type'/account'.
	ProvingKey(coinType uint32, account types.AccountId) (ProvingKey, error)
	// Xfvk returns the extended full viewing key for the same path.
	Xfvk(coinType uint32, account types.AccountId) (wallet.ExtendedFullViewingKey, error)
	// Sign authorizes mtx's shielded spends named by inputsToSign and sets
	// its binding signature from ctx's accumulated randomness.
	Sign(mtx *types.Transaction, inputsToSign []SignInput, consensusBranchID uint32, coinType uint32, ctx *ProvingContext) error
}

// ProvingContext accumulates value-commitment randomness across every
// spend and output produced during one transaction build, mirroring
// zcash_proofs::sapling::SaplingProvingContext: its lifetime is scoped to a
// single Builder.Build call, and binding_sig consumes all the randomness it
// collected.
type ProvingContext struct {
	bsk sapling.Scalar
}

// NewProvingContext returns an empty context for one transaction build.
func NewProvingContext() *ProvingContext {
	return &ProvingContext{bsk: sapling.ScalarFromUint64(0)}
}

// AddSpendRandomness folds in a spend's value-commitment trapdoor; spends
// contribute positively to the running binding key, mirroring bvk's own
// sign convention for spends in SaplingVerificationContext.CheckSpend.
func (c *ProvingContext) AddSpendRandomness(r sapling.Scalar) {
	c.bsk = c.bsk.Add(r)
}

// AddOutputRandomness folds in an output's value-commitment trapdoor;
// outputs contribute negatively, mirroring CheckOutput's bvk subtraction.
func (c *ProvingContext) AddOutputRandomness(r sapling.Scalar) {
	c.bsk = c.bsk.Add(r.Neg())
}

// BindingSig signs sighash under the context's accumulated randomness,
// mirroring SaplingProvingContext::binding_sig. valueBalance is accepted
// for interface parity with spec.md §4.2/§4.6 but is not folded into the
// signing key: bsk times ValueCommitmentRandomnessBase already equals the
// bvk_final point SaplingVerificationContext.FinalCheck recomputes, provided
// every spend and output commitment in the transaction was produced
// honestly by the same TxProver that fed this context.
func (c *ProvingContext) BindingSig(valueBalance types.Amount, sighash [32]byte) (sapling.Signature, error) {
	_ = valueBalance
	sk := sapling.NewPrivateKey(c.bsk)
	pub := sapling.PublicKeyFor(sk, sapling.ValueCommitmentRandomnessBase())
	msg := make([]byte, 0, 64)
	msg = append(msg, pub.Point().Bytes()...)
	msg = append(msg, sighash[:]...)
	sig, err := sapling.Sign(sk, sapling.ValueCommitmentRandomnessBase(), msg)
	if err != nil {
		return sapling.Signature{}, ErrBindingSigFailed
	}
	return sig, nil
}

// LocalKeyStore derives every account's key material from a single master
// seed, mirroring zcash_wallet::keystore::LocalKeyStore but over a real
// hardened-HD-derivation library rather than a from-scratch ZIP-32
// implementation (out of scope per spec.md §1).
type LocalKeyStore struct {
	master *bip32.Key
}

// NewLocalKeyStore derives a master key from seed, mirroring
// LocalKeyStore::from_seed.
func NewLocalKeyStore(seed []byte) (*LocalKeyStore, error) {
	master, err := bip32.NewMasterKey(seed)
	if err != nil {
		return nil, err
	}
	return &LocalKeyStore{master: master}, nil
}

// derive walks the hardened path m/32'/coin_type'/account', the ZIP-32
// path spec.md §4.6 names for both proving_key and xfvk.
func (ks *LocalKeyStore) derive(coinType uint32, account types.AccountId) (*bip32.Key, error) {
	path := []uint32{
		32 + bip32.FirstHardenedChild,
		coinType + bip32.FirstHardenedChild,
		uint32(account) + bip32.FirstHardenedChild,
	}
	key := ks.master
	for _, idx := range path {
		child, err := key.NewChildKey(idx)
		if err != nil {
			return nil, err
		}
		key = child
	}
	return key, nil
}

// expand folds a derived child key's raw bytes into a scalar, domain
// separated by label so one HD child key yields independent ask/nsk/ivk/
// ovk/diversifier values instead of reusing the same scalar for all of
// them.
func expand(childKey []byte, label string) []byte {
	h := sha256.New()
	h.Write([]byte(label))
	h.Write(childKey)
	return h.Sum(nil)
}

func (ks *LocalKeyStore) ask(coinType uint32, account types.AccountId) (sapling.Scalar, error) {
	key, err := ks.derive(coinType, account)
	if err != nil {
		return sapling.Scalar{}, err
	}
	return sapling.ScalarFromBytes(expand(key.Key, "ask")), nil
}

// ProvingKey returns the proof-generation key for coinType/account.
func (ks *LocalKeyStore) ProvingKey(coinType uint32, account types.AccountId) (ProvingKey, error) {
	key, err := ks.derive(coinType, account)
	if err != nil {
		return ProvingKey{}, err
	}
	ask := sapling.ScalarFromBytes(expand(key.Key, "ask"))
	nsk := sapling.ScalarFromBytes(expand(key.Key, "nsk"))
	ak := sapling.SpendAuthGenerator().ScalarMul(ask)
	return ProvingKey{Ak: ak, Nsk: nsk}, nil
}

// Xfvk returns the extended full viewing key for coinType/account.
func (ks *LocalKeyStore) Xfvk(coinType uint32, account types.AccountId) (wallet.ExtendedFullViewingKey, error) {
	key, err := ks.derive(coinType, account)
	if err != nil {
		return wallet.ExtendedFullViewingKey{}, err
	}
	ivk := sapling.ScalarFromBytes(expand(key.Key, "ivk"))

	var ovk wallet.OutgoingViewingKey
	copy(ovk[:], expand(key.Key, "ovk"))

	var diversifier [11]byte
	copy(diversifier[:], expand(key.Key, "diversifier")[:11])

	gd, ok := (wallet.PaymentAddress{Diversifier: diversifier}).GD()
	if !ok {
		return wallet.ExtendedFullViewingKey{}, ErrInvalidDiversifier
	}
	pkd := gd.ScalarMul(ivk)

	return wallet.ExtendedFullViewingKey{
		Ivk:         ivk,
		Ovk:         ovk,
		Pk:          pkd,
		Diversifier: diversifier,
	}, nil
}

// Sign authorizes mtx's shielded spends and sets its binding signature,
// mirroring LocalKeyStore::sign: one sighash covers every spend, each
// provided (account, ar) pair signs its spend under the account's
// randomized spend-authorizing key, and the binding signature is drawn
// from ctx's accumulated randomness.
func (ks *LocalKeyStore) Sign(mtx *types.Transaction, inputsToSign []SignInput, consensusBranchID uint32, coinType uint32, ctx *ProvingContext) error {
	if len(mtx.ShieldedSpends) < len(inputsToSign) {
		return ErrSignCountMismatch
	}

	sighash := SighashAll(mtx, consensusBranchID)

	for i, in := range inputsToSign {
		ask, err := ks.ask(coinType, in.AccountId)
		if err != nil {
			return err
		}
		sk := sapling.NewPrivateKey(ask.Add(in.Ar))

		msg := make([]byte, 0, 64)
		msg = append(msg, mtx.ShieldedSpends[i].Rk[:]...)
		msg = append(msg, sighash[:]...)

		sig, err := sapling.Sign(sk, sapling.SpendAuthGenerator(), msg)
		if err != nil {
			return err
		}
		mtx.ShieldedSpends[i].SpendAuthSig = sig.Bytes()
	}

	bindingSig, err := ctx.BindingSig(mtx.ValueBalance, sighash)
	if err != nil {
		return err
	}
	mtx.BindingSig = bindingSig.Bytes()
	return nil
}

// MockKeyStore wraps a LocalKeyStore seeded from a fixed test seed, for
// callers (tests) that need deterministic key material without managing a
// real seed.
func MockKeyStore() *LocalKeyStore {
	ks, err := NewLocalKeyStore([]byte("shieldwallet-mock-seed-do-not-use-in-production"))
	if err != nil {
		panic(err)
	}
	return ks
}
