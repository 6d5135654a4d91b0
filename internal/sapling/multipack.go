package sapling

import "math/big"

// packNullifier decomposes a 32-byte nullifier into exactly two field
// elements, each built from a little-endian 128-bit chunk. This mirrors
// librustzcash's multipack::compute_multipacking over the nullifier's bits
// (there, packed into two BLS12-381 Fr elements); here the same fixed,
// two-chunk scheme is reused over BN254 Fr, which has ample capacity for
// 128-bit chunks.
func packNullifier(nf [32]byte) [2]Scalar {
	lo := littleEndianChunkToScalar(nf[0:16])
	hi := littleEndianChunkToScalar(nf[16:32])
	return [2]Scalar{lo, hi}
}

// littleEndianChunkToScalar interprets chunk as a little-endian integer and
// returns it as a scalar.
func littleEndianChunkToScalar(chunk []byte) Scalar {
	be := make([]byte, len(chunk))
	for i, b := range chunk {
		be[len(chunk)-1-i] = b
	}
	v := new(big.Int).SetBytes(be)
	return ScalarFromBytes(v.Bytes())
}
