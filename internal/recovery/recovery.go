package recovery

import (
	"bytes"
	"errors"
	"fmt"
	"math/big"
	"slices"

	"github.com/btcsuite/btcd/chaincfg"

	"github.com/hedisam/rscanner/internal/signature"
)

var (
	// ErrDegenerate is returned when a pair of signatures cannot yield a private key,
	// e.g. equal s values, equal digests, or a zero nonce or key.
	ErrDegenerate = errors.New("degenerate signature pair")
	// ErrKeyMismatch is returned when every recovered candidate fails to match the signing public key.
	ErrKeyMismatch = errors.New("recovered key does not match the signing public key")
)

// Recover computes the private key d from two signatures (r, s1) and (r, s2) over the message
// digests h1 and h2 that share the nonce k:
//
//	k = (h1 - h2) / (s1 - s2) mod n
//	d = (s1*k - h1) / r mod n
func Recover(r, s1, s2, h1, h2 *big.Int) (*big.Int, error) {
	n := signature.CurveOrder

	sDiff := modSub(s1, s2, n)
	if sDiff.Sign() == 0 {
		return nil, fmt.Errorf("%w: s values are equal", ErrDegenerate)
	}
	hashDiff := modSub(h1, h2, n)
	if hashDiff.Sign() == 0 {
		return nil, fmt.Errorf("%w: message digests are equal", ErrDegenerate)
	}

	sDiffInv := new(big.Int).ModInverse(sDiff, n)
	k := new(big.Int).Mul(hashDiff, sDiffInv)
	k.Mod(k, n)
	if k.Sign() == 0 {
		return nil, fmt.Errorf("%w: nonce is zero", ErrDegenerate)
	}

	rInv := new(big.Int).ModInverse(new(big.Int).Mod(r, n), n)
	if rInv == nil {
		return nil, fmt.Errorf("%w: r has no inverse", ErrDegenerate)
	}

	d := new(big.Int).Mul(s1, k)
	d.Sub(d, h1)
	d.Mul(d, rInv)
	d.Mod(d, n)
	if d.Sign() == 0 {
		return nil, fmt.Errorf("%w: private key is zero", ErrDegenerate)
	}

	return d, nil
}

func modSub(a, b, n *big.Int) *big.Int {
	out := new(big.Int).Sub(a, b)
	return out.Mod(out, n)
}

// DigestToInt interprets a 32 byte message digest as an integer mod n.
func DigestToInt(digest []byte) *big.Int {
	h := new(big.Int).SetBytes(digest)
	return h.Mod(h, signature.CurveOrder)
}

// RecoverPair recovers the key behind two signature records sharing r.
// When either record carries the signing public key the candidate is verified against it, and the
// negated s of the second record is tried as well since signers may normalize s to the lower half
// of the group order independently.
func RecoverPair(first, second *signature.Record, params *chaincfg.Params) (*Key, error) {
	if first.R.Cmp(second.R) != 0 {
		return nil, fmt.Errorf("%w: r values differ", ErrDegenerate)
	}
	if first.MessageDigest == nil || second.MessageDigest == nil {
		return nil, fmt.Errorf("%w: message digest unknown", ErrDegenerate)
	}

	h1 := DigestToInt(first.MessageDigest)
	h2 := DigestToInt(second.MessageDigest)
	pubKeys := knownPubKeys(first, second)

	negS2 := new(big.Int).Sub(signature.CurveOrder, second.S)
	var lastErr error
	for s2 := range slices.Values([]*big.Int{second.S, negS2}) {
		d, err := Recover(first.R, first.S, s2, h1, h2)
		if err != nil {
			lastErr = err
			continue
		}
		if len(pubKeys) == 0 {
			return NewKey(d, false, params)
		}

		key, err := NewKey(d, true, params)
		if err != nil {
			return nil, err
		}
		if key.matches(pubKeys) {
			return key, nil
		}
		lastErr = ErrKeyMismatch
	}

	return nil, lastErr
}

func knownPubKeys(records ...*signature.Record) [][]byte {
	var out [][]byte
	for rec := range slices.Values(records) {
		if len(rec.PubKey) > 0 && !slices.ContainsFunc(out, func(pk []byte) bool { return bytes.Equal(pk, rec.PubKey) }) {
			out = append(out, rec.PubKey)
		}
	}
	return out
}
