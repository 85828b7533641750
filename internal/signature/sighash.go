package signature

import (
	"encoding/hex"
	"errors"
	"fmt"
	"slices"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"

	"github.com/hedisam/rscanner/internal/provider"
)

var (
	errMissingPrevout    = errors.New("spent output unknown")
	errUnsupportedScript = errors.New("unsupported spent script")
)

// digester computes per-input signature hashes of a transaction rebuilt from its normalized form.
type digester struct {
	tx        *wire.MsgTx
	prevouts  []*wire.TxOut
	sigHashes *txscript.TxSigHashes
}

// newDigester rebuilds the wire transaction and checks its hash against the reported txid,
// so digests are never computed over a transaction that differs from what was signed.
func newDigester(tx *provider.Tx) (*digester, error) {
	msgTx := wire.NewMsgTx(tx.Version)
	msgTx.LockTime = tx.LockTime
	prevouts := make([]*wire.TxOut, len(tx.Vin))

	for i, in := range tx.Vin {
		prevHash := new(chainhash.Hash)
		if !in.IsCoinbase {
			h, err := chainhash.NewHashFromStr(in.PrevTxID)
			if err != nil {
				return nil, fmt.Errorf("parse prev txid of input %d: %w", i, err)
			}
			prevHash = h
		}
		scriptSig, err := hex.DecodeString(in.ScriptSigHex)
		if err != nil {
			return nil, fmt.Errorf("decode scriptSig of input %d: %w", i, err)
		}
		witness, err := decodeWitness(in.Witness)
		if err != nil {
			return nil, fmt.Errorf("decode witness of input %d: %w", i, err)
		}

		txIn := wire.NewTxIn(wire.NewOutPoint(prevHash, in.PrevVout), scriptSig, witness)
		txIn.Sequence = in.Sequence
		msgTx.AddTxIn(txIn)

		if in.Prevout != nil {
			pkScript, err := hex.DecodeString(in.Prevout.ScriptPubKeyHex)
			if err != nil {
				return nil, fmt.Errorf("decode prevout script of input %d: %w", i, err)
			}
			prevouts[i] = wire.NewTxOut(in.Prevout.Value, pkScript)
		}
	}

	for i, out := range tx.Vout {
		pkScript, err := hex.DecodeString(out.ScriptPubKeyHex)
		if err != nil {
			return nil, fmt.Errorf("decode script of output %d: %w", i, err)
		}
		msgTx.AddTxOut(wire.NewTxOut(out.Value, pkScript))
	}

	if got := msgTx.TxHash().String(); got != tx.TxID {
		return nil, fmt.Errorf("rebuilt txid %s does not match %s", got, tx.TxID)
	}

	return &digester{
		tx:       msgTx,
		prevouts: prevouts,
	}, nil
}

func decodeWitness(items []string) (wire.TxWitness, error) {
	if len(items) == 0 {
		return nil, nil
	}
	witness := make(wire.TxWitness, 0, len(items))
	for item := range slices.Values(items) {
		b, err := hex.DecodeString(item)
		if err != nil {
			return nil, err
		}
		witness = append(witness, b)
	}
	return witness, nil
}

// legacy returns the pre-segwit signature hash of input idx.
func (d *digester) legacy(idx int, hashType txscript.SigHashType) ([]byte, error) {
	prevout := d.prevouts[idx]
	if prevout == nil {
		return nil, errMissingPrevout
	}

	subScript := prevout.PkScript
	if txscript.IsPayToScriptHash(prevout.PkScript) {
		redeem, err := lastPush(d.tx.TxIn[idx].SignatureScript)
		if err != nil {
			return nil, err
		}
		subScript = redeem
	}

	return txscript.CalcSignatureHash(subScript, hashType, d.tx, idx)
}

// witness returns the BIP-143 signature hash of input idx.
func (d *digester) witness(idx int, hashType txscript.SigHashType) ([]byte, error) {
	prevout := d.prevouts[idx]
	if prevout == nil {
		return nil, errMissingPrevout
	}

	txIn := d.tx.TxIn[idx]
	program := prevout.PkScript
	if txscript.IsPayToScriptHash(program) {
		redeem, err := lastPush(txIn.SignatureScript)
		if err != nil {
			return nil, err
		}
		program = redeem
	}

	var subScript []byte
	switch {
	case txscript.IsPayToWitnessPubKeyHash(program):
		subScript = program
	case txscript.IsPayToWitnessScriptHash(program):
		subScript = txIn.Witness[len(txIn.Witness)-1]
	default:
		return nil, errUnsupportedScript
	}

	sigHashes, err := d.witnessSigHashes()
	if err != nil {
		return nil, err
	}

	return txscript.CalcWitnessSigHash(subScript, sigHashes, hashType, d.tx, idx, prevout.Value)
}

// witnessSigHashes lazily computes the midstate shared by every witness input.
// All spent outputs must be known since taproot midstate hashes commit to them.
func (d *digester) witnessSigHashes() (*txscript.TxSigHashes, error) {
	if d.sigHashes != nil {
		return d.sigHashes, nil
	}

	fetcher := txscript.NewMultiPrevOutFetcher(nil)
	for i, prevout := range d.prevouts {
		if prevout == nil {
			return nil, errMissingPrevout
		}
		fetcher.AddPrevOut(d.tx.TxIn[i].PreviousOutPoint, prevout)
	}

	d.sigHashes = txscript.NewTxSigHashes(d.tx, fetcher)
	return d.sigHashes, nil
}

func lastPush(script []byte) ([]byte, error) {
	pushes, err := txscript.PushedData(script)
	if err != nil {
		return nil, fmt.Errorf("parse pushes: %w", err)
	}
	if len(pushes) == 0 {
		return nil, errUnsupportedScript
	}
	return pushes[len(pushes)-1], nil
}
