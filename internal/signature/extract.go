package signature

import (
	"encoding/hex"
	"math/big"
	"slices"

	"github.com/btcsuite/btcd/txscript"

	"github.com/hedisam/rscanner/internal/provider"
)

const (
	// minScriptSigLength is the smallest decoded scriptSig inspected for a signature.
	minScriptSigLength = 20
	// minWitnessItems is the smallest witness stack inspected, i.e. [signature, pubkey].
	minWitnessItems = 2
)

// Extract returns the ECDSA signatures found in the inputs of tx that match the given address types.
// Malformed scripts and signatures are skipped. A record's MessageDigest is left nil when the
// signature hash of its input could not be computed.
func Extract(tx *provider.Tx, addressTypes []AddressType) []*Record {
	if tx == nil {
		return nil
	}

	scanLegacy := slices.Contains(addressTypes, AddressLegacy)
	scanWitness := slices.Contains(addressTypes, AddressSegwit) || slices.Contains(addressTypes, AddressTaproot)

	var records []*Record
	for i, in := range tx.Vin {
		if in.IsCoinbase {
			continue
		}
		if scanLegacy && in.ScriptSigHex != "" {
			if rec := legacySignature(in.ScriptSigHex); rec != nil {
				records = append(records, stamp(rec, tx, i))
			}
		}
		if scanWitness && len(in.Witness) >= minWitnessItems {
			if rec := witnessSignature(in.Witness); rec != nil {
				records = append(records, stamp(rec, tx, i))
			}
		}
	}

	if len(records) == 0 {
		return nil
	}

	d, err := newDigester(tx)
	if err != nil {
		return records
	}
	for rec := range slices.Values(records) {
		var digest []byte
		switch rec.Type {
		case TypeLegacy:
			digest, err = d.legacy(rec.InputIndex, rec.HashType)
		case TypeSegwit:
			digest, err = d.witness(rec.InputIndex, rec.HashType)
		}
		if err == nil {
			rec.MessageDigest = digest
		}
	}

	return records
}

func stamp(rec *Record, tx *provider.Tx, idx int) *Record {
	rec.TxID = tx.TxID
	rec.InputIndex = idx
	return rec
}

// legacySignature scans a scriptSig for the first DER sequence that parses.
func legacySignature(scriptSigHex string) *Record {
	script, err := hex.DecodeString(scriptSigHex)
	if err != nil || len(script) < minScriptSigLength {
		return nil
	}

	for i := 0; i <= len(script)-minDERLength; i++ {
		if script[i] != derSequenceTag {
			continue
		}
		end := i + 2 + int(script[i+1])
		if end > len(script) {
			continue
		}
		r, s, ok := ParseDER(script[i:end])
		if !ok || !inRange(r) || !inRange(s) {
			continue
		}

		hashType := txscript.SigHashAll
		if end < len(script) {
			hashType = txscript.SigHashType(script[end])
		}
		return &Record{
			R:        r,
			S:        s,
			Type:     TypeLegacy,
			HashType: hashType,
			PubKey:   legacyPubKey(script),
		}
	}

	return nil
}

// witnessSignature parses the first witness item as a DER signature followed by a sighash byte.
func witnessSignature(witness []string) *Record {
	sig, err := hex.DecodeString(witness[0])
	if err != nil || len(sig) <= minDERLength || sig[0] != derSequenceTag {
		return nil
	}

	r, s, ok := ParseDER(sig[:len(sig)-1])
	if !ok || !inRange(r) || !inRange(s) {
		return nil
	}

	var pubKey []byte
	if b, err := hex.DecodeString(witness[1]); err == nil && isPubKey(b) {
		pubKey = b
	}

	return &Record{
		R:        r,
		S:        s,
		Type:     TypeSegwit,
		HashType: txscript.SigHashType(sig[len(sig)-1]),
		PubKey:   pubKey,
	}
}

func legacyPubKey(script []byte) []byte {
	pushes, err := txscript.PushedData(script)
	if err != nil || len(pushes) < 2 {
		return nil
	}
	last := pushes[len(pushes)-1]
	if !isPubKey(last) {
		return nil
	}
	return last
}

func isPubKey(b []byte) bool {
	switch len(b) {
	case 33:
		return b[0] == 0x02 || b[0] == 0x03
	case 65:
		return b[0] == 0x04
	default:
		return false
	}
}

func inRange(v *big.Int) bool {
	return v.Sign() > 0 && v.Cmp(CurveOrder) < 0
}
