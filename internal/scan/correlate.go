package scan

import (
	"cmp"
	"encoding/hex"
	"errors"
	"maps"
	"slices"

	"github.com/sirupsen/logrus"

	"github.com/hedisam/rscanner/internal/recovery"
	"github.com/hedisam/rscanner/internal/signature"
	"github.com/hedisam/rscanner/internal/store"
)

// correlate attempts key recovery on every pair of signatures that share r but come from distinct
// inputs. It returns the number of such pairs and one key for every pair that yielded one, so a key
// recovered from several pairs appears once per pair. Groups and records are visited in a fixed order
// so the same input always yields the same output.
func (s *Scanner) correlate(job *store.Job, groups map[string][]*signature.Record) (int64, []*store.RecoveredKey) {
	var (
		pairs int64
		keys  []*store.RecoveredKey
	)

	for _, r := range slices.Sorted(maps.Keys(groups)) {
		group := groups[r]
		if len(group) < 2 {
			continue
		}
		slices.SortFunc(group, func(a, b *signature.Record) int {
			return cmp.Or(cmp.Compare(a.TxID, b.TxID), cmp.Compare(a.InputIndex, b.InputIndex), cmp.Compare(a.Type, b.Type))
		})

		s.log(job, logrus.InfoLevel, "R value %s... is shared by %d signatures", r[:16], len(group))
		for i, first := range group {
			for _, second := range group[i+1:] {
				if first.SameInput(second) {
					continue
				}
				pairs++

				key, err := recovery.RecoverPair(first, second, s.params)
				if err != nil {
					level := logrus.InfoLevel
					if !errors.Is(err, recovery.ErrDegenerate) && !errors.Is(err, recovery.ErrKeyMismatch) {
						level = logrus.WarnLevel
					}
					s.log(job, level, "No key from %s:%d and %s:%d: %v",
						first.TxID, first.InputIndex, second.TxID, second.InputIndex, err)
					continue
				}
				keys = append(keys, newRecoveredKey(key, r, first, second))
				keysRecovered.Inc()
				s.log(job, logrus.WarnLevel, "Recovered private key for %s (verified: %t) from %s:%d and %s:%d",
					key.Compressed, key.Verified, first.TxID, first.InputIndex, second.TxID, second.InputIndex)
			}
		}
	}

	reusePairs.Add(float64(pairs))
	return pairs, keys
}

func newRecoveredKey(key *recovery.Key, r string, first, second *signature.Record) *store.RecoveredKey {
	return &store.RecoveredKey{
		PrivateKey:          key.Hex(),
		WIF:                 key.WIF,
		CompressedAddress:   key.Compressed,
		UncompressedAddress: key.Uncompressed,
		SegwitAddress:       key.Segwit,
		TaprootAddress:      key.Taproot,
		Verified:            key.Verified,
		R:                   r,
		Signatures:          [2]store.SignatureRef{signatureRef(first), signatureRef(second)},
	}
}

func signatureRef(rec *signature.Record) store.SignatureRef {
	return store.SignatureRef{
		TxID:          rec.TxID,
		InputIndex:    rec.InputIndex,
		S:             rec.SHex(),
		Type:          string(rec.Type),
		MessageDigest: rec.DigestHex(),
		PubKey:        hexOrEmpty(rec.PubKey),
	}
}

func hexOrEmpty(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	return hex.EncodeToString(b)
}
