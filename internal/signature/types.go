package signature

import (
	"errors"
	"fmt"
	"math/big"
	"slices"
	"strings"

	"github.com/btcsuite/btcd/txscript"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
)

// ErrUnknownAddressType is returned for address types other than legacy, segwit and taproot.
var ErrUnknownAddressType = errors.New("unknown address type")

// CurveOrder is the order n of the secp256k1 group.
var CurveOrder = new(big.Int).Set(secp256k1.S256().N)

// AddressType selects which input encodings are inspected for signatures.
type AddressType string

const (
	AddressLegacy  AddressType = "legacy"
	AddressSegwit  AddressType = "segwit"
	AddressTaproot AddressType = "taproot"
)

// ParseAddressTypes validates and de-duplicates the given address types. The result is sorted.
func ParseAddressTypes(raw []string) ([]AddressType, error) {
	out := make([]AddressType, 0, len(raw))
	for s := range slices.Values(raw) {
		t := AddressType(strings.ToLower(strings.TrimSpace(s)))
		switch t {
		case AddressLegacy, AddressSegwit, AddressTaproot:
		default:
			return nil, fmt.Errorf("%w: %q", ErrUnknownAddressType, s)
		}
		if !slices.Contains(out, t) {
			out = append(out, t)
		}
	}
	slices.Sort(out)
	return out, nil
}

// Type is the encoding a signature was extracted from.
type Type string

const (
	TypeLegacy Type = "legacy"
	TypeSegwit Type = "segwit"
)

// Record is a single ECDSA signature found in a transaction input.
type Record struct {
	TxID       string
	InputIndex int
	R          *big.Int
	S          *big.Int
	Type       Type
	HashType   txscript.SigHashType
	// MessageDigest is the input's signature hash. It is nil when the hash could not be computed,
	// e.g. the provider didn't report the spent outputs.
	MessageDigest []byte
	// PubKey is the serialized public key pushed next to the signature, if any.
	PubKey []byte
}

// RHex returns r as a zero padded hex string. Records are grouped by this value.
func (r *Record) RHex() string {
	return fmt.Sprintf("%064x", r.R)
}

// SHex returns s as a zero padded hex string.
func (r *Record) SHex() string {
	return fmt.Sprintf("%064x", r.S)
}

// DigestHex returns the message digest as a hex string, or an empty string if it is unknown.
func (r *Record) DigestHex() string {
	if r.MessageDigest == nil {
		return ""
	}
	return fmt.Sprintf("%x", r.MessageDigest)
}

// SameInput reports whether both records were extracted from the very same transaction input.
func (r *Record) SameInput(other *Record) bool {
	return r.TxID == other.TxID && r.InputIndex == other.InputIndex
}
