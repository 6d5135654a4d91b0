package types

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// ErrTruncated is returned when a transaction's wire encoding ends before
// all its declared fields have been read.
var ErrTruncated = errors.New("types: truncated transaction encoding")

// SpendDescription is the wire form of a single Sapling spend: the fields a
// SaplingVerificationContext checks and a transaction carries alongside its
// proof and signature.
type SpendDescription struct {
	Cv           [32]byte
	Anchor       Hash
	Nullifier    Nullifier
	Rk           [32]byte
	ZkProof      [192]byte
	SpendAuthSig [64]byte
}

// OutputDescription is the wire form of a single Sapling output.
type OutputDescription struct {
	Cv            [32]byte
	Cmu           Hash
	EphemeralKey  [32]byte
	EncCiphertext [580]byte
	OutCiphertext [80]byte
	ZkProof       [192]byte
}

// Transaction is a frozen, fully-assembled shielded transaction: the output
// of Builder.Build, and the input a SaplingVerificationContext checks.
// ValueBalance is signed: positive means the shielded pool is a net source
// of value for this transaction (spends exceed outputs), negative a net
// sink.
type Transaction struct {
	Version         uint32
	ValueBalance    Amount
	ShieldedSpends  []SpendDescription
	ShieldedOutputs []OutputDescription
	BindingSig      [64]byte
}

// TxId computes the transaction's identifying hash as the digest of its
// canonical wire encoding.
func (tx *Transaction) TxId() TxId {
	return TxId(HashBytes(tx.mustEncode()))
}

func (tx *Transaction) mustEncode() []byte {
	var buf []byte
	w := &byteWriter{buf: &buf}
	if err := tx.write(w); err != nil {
		panic(fmt.Sprintf("types: encoding a frozen transaction failed: %v", err))
	}
	return buf
}

// Write serializes tx in its canonical wire format: a version, a signed
// value balance, length-prefixed spend and output description vectors, and
// finally the binding signature. Every fixed-width field writes its full
// width so that Read(Write(tx)) reproduces the identical byte sequence.
func (tx *Transaction) Write(w io.Writer) error {
	return tx.write(&ioWriter{w: w})
}

func (tx *Transaction) write(w writer) error {
	if err := w.writeUint32(tx.Version); err != nil {
		return err
	}
	if err := w.writeInt64(int64(tx.ValueBalance)); err != nil {
		return err
	}
	if err := w.writeUint32(uint32(len(tx.ShieldedSpends))); err != nil {
		return err
	}
	for _, sd := range tx.ShieldedSpends {
		if err := writeAll(w,
			sd.Cv[:], sd.Anchor[:], sd.Nullifier[:], sd.Rk[:],
			sd.ZkProof[:], sd.SpendAuthSig[:]); err != nil {
			return err
		}
	}
	if err := w.writeUint32(uint32(len(tx.ShieldedOutputs))); err != nil {
		return err
	}
	for _, od := range tx.ShieldedOutputs {
		if err := writeAll(w,
			od.Cv[:], od.Cmu[:], od.EphemeralKey[:], od.EncCiphertext[:],
			od.OutCiphertext[:], od.ZkProof[:]); err != nil {
			return err
		}
	}
	return writeAll(w, tx.BindingSig[:])
}

// ReadTransaction deserializes a Transaction from its canonical wire
// format, the inverse of Write.
func ReadTransaction(r io.Reader) (*Transaction, error) {
	br := &ioReader{r: r}
	tx := &Transaction{}

	version, err := br.readUint32()
	if err != nil {
		return nil, err
	}
	tx.Version = version

	vb, err := br.readInt64()
	if err != nil {
		return nil, err
	}
	tx.ValueBalance = Amount(vb)

	nSpends, err := br.readUint32()
	if err != nil {
		return nil, err
	}
	tx.ShieldedSpends = make([]SpendDescription, nSpends)
	for i := range tx.ShieldedSpends {
		sd := &tx.ShieldedSpends[i]
		if err := readAll(br, sd.Cv[:], sd.Anchor[:], sd.Nullifier[:], sd.Rk[:],
			sd.ZkProof[:], sd.SpendAuthSig[:]); err != nil {
			return nil, err
		}
	}

	nOutputs, err := br.readUint32()
	if err != nil {
		return nil, err
	}
	tx.ShieldedOutputs = make([]OutputDescription, nOutputs)
	for i := range tx.ShieldedOutputs {
		od := &tx.ShieldedOutputs[i]
		if err := readAll(br, od.Cv[:], od.Cmu[:], od.EphemeralKey[:], od.EncCiphertext[:],
			od.OutCiphertext[:], od.ZkProof[:]); err != nil {
			return nil, err
		}
	}

	if err := readAll(br, tx.BindingSig[:]); err != nil {
		return nil, err
	}
	return tx, nil
}

// writer/reader are a tiny seam so Transaction can serialize either to a
// growable in-memory buffer (for hashing a not-yet-written transaction) or
// to an io.Writer, without allocating twice.
type writer interface {
	writeUint32(uint32) error
	writeInt64(int64) error
	write([]byte) error
}

type reader interface {
	readUint32() (uint32, error)
	readInt64() (int64, error)
	read([]byte) error
}

type byteWriter struct{ buf *[]byte }

func (w *byteWriter) writeUint32(v uint32) error {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	*w.buf = append(*w.buf, b[:]...)
	return nil
}

func (w *byteWriter) writeInt64(v int64) error {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(v))
	*w.buf = append(*w.buf, b[:]...)
	return nil
}

func (w *byteWriter) write(b []byte) error {
	*w.buf = append(*w.buf, b...)
	return nil
}

type ioWriter struct{ w io.Writer }

func (w *ioWriter) writeUint32(v uint32) error {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	_, err := w.w.Write(b[:])
	return err
}

func (w *ioWriter) writeInt64(v int64) error {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(v))
	_, err := w.w.Write(b[:])
	return err
}

func (w *ioWriter) write(b []byte) error {
	_, err := w.w.Write(b)
	return err
}

type ioReader struct{ r io.Reader }

func (r *ioReader) readUint32() (uint32, error) {
	var b [4]byte
	if _, err := io.ReadFull(r.r, b[:]); err != nil {
		return 0, wrapTruncated(err)
	}
	return binary.BigEndian.Uint32(b[:]), nil
}

func (r *ioReader) readInt64() (int64, error) {
	var b [8]byte
	if _, err := io.ReadFull(r.r, b[:]); err != nil {
		return 0, wrapTruncated(err)
	}
	return int64(binary.BigEndian.Uint64(b[:])), nil
}

func (r *ioReader) read(b []byte) error {
	_, err := io.ReadFull(r.r, b)
	return wrapTruncated(err)
}

func wrapTruncated(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return ErrTruncated
	}
	return err
}

func writeAll(w writer, bs ...[]byte) error {
	for _, b := range bs {
		if err := w.write(b); err != nil {
			return err
		}
	}
	return nil
}

func readAll(r reader, bs ...[]byte) error {
	for _, b := range bs {
		if err := r.read(b); err != nil {
			return err
		}
	}
	return nil
}
