// Package address encodes and decodes Sapling-style shielded payment
// addresses as bech32 strings, grounded on zcash_wallet/src/address.rs.
package address

import (
	"errors"

	"github.com/btcsuite/btcutil/bech32"
)

// DiversifierSize and PkdSize are the two payload fields of a payment
// address, matching the original PaymentAddress layout.
const (
	DiversifierSize = 11
	PkdSize         = 32
	payloadSize     = DiversifierSize + PkdSize
)

// Errors returned by Decode.
var (
	ErrInvalidPayloadLength = errors.New("address: decoded payload has wrong length")
)

// PaymentAddress is a diversified shielded address: an 11-byte diversifier
// and the 32-byte compressed pk_d point it was derived against.
type PaymentAddress struct {
	Diversifier [DiversifierSize]byte
	Pkd         [PkdSize]byte
}

// Encode renders addr as a bech32 string under the given HRP ("zs" for
// mainnet, "ztestsapling" for testnet — see internal/params), matching
// encode_payment_address: the payload is diversifier||pk_d, converted from
// 8-bit to 5-bit groups with padding before the checksum is appended.
func Encode(hrp string, addr PaymentAddress) (string, error) {
	payload := make([]byte, 0, payloadSize)
	payload = append(payload, addr.Diversifier[:]...)
	payload = append(payload, addr.Pkd[:]...)

	converted, err := bech32.ConvertBits(payload, 8, 5, true)
	if err != nil {
		return "", err
	}
	return bech32.Encode(hrp, converted)
}

// Decode parses a bech32 payment address, returning the HRP it was encoded
// with alongside the address.
func Decode(encoded string) (hrp string, addr PaymentAddress, err error) {
	hrp, data, err := bech32.Decode(encoded)
	if err != nil {
		return "", PaymentAddress{}, err
	}
	payload, err := bech32.ConvertBits(data, 5, 8, false)
	if err != nil {
		return "", PaymentAddress{}, err
	}
	if len(payload) != payloadSize {
		return "", PaymentAddress{}, ErrInvalidPayloadLength
	}
	copy(addr.Diversifier[:], payload[:DiversifierSize])
	copy(addr.Pkd[:], payload[DiversifierSize:])
	return hrp, addr, nil
}
