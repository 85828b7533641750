// Package sigtest builds signed transactions whose inputs reuse one ECDSA nonce.
// It is meant for tests only.
package sigtest

import (
	"encoding/hex"
	"fmt"
	"math/big"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"

	"github.com/hedisam/rscanner/internal/provider"
	"github.com/hedisam/rscanner/internal/signature"
)

const prevoutValue = 100_000

// SignWithNonce produces an ECDSA signature of hash by d using the caller chosen nonce k.
// The s value is not normalized to the lower half of the group order.
func SignWithNonce(d, k *big.Int, hash []byte) (r, s *big.Int) {
	var dScalar, kScalar, e secp256k1.ModNScalar
	dScalar.SetByteSlice(d.Bytes())
	kScalar.SetByteSlice(k.Bytes())
	e.SetByteSlice(hash)

	var kG secp256k1.JacobianPoint
	secp256k1.ScalarBaseMultNonConst(&kScalar, &kG)
	kG.ToAffine()

	var rScalar secp256k1.ModNScalar
	rScalar.SetByteSlice(kG.X.Bytes()[:])

	sScalar := new(secp256k1.ModNScalar).Mul2(&rScalar, &dScalar)
	sScalar.Add(&e)
	sScalar.Mul(new(secp256k1.ModNScalar).InverseValNonConst(&kScalar))

	rb, sb := rScalar.Bytes(), sScalar.Bytes()
	return new(big.Int).SetBytes(rb[:]), new(big.Int).SetBytes(sb[:])
}

// PrivKey returns the private key for scalar d.
func PrivKey(d *big.Int) *btcec.PrivateKey {
	var b [32]byte
	d.FillBytes(b[:])
	priv, _ := btcec.PrivKeyFromBytes(b[:])
	return priv
}

// P2PKHReuseTx builds a transaction spending `inputs` P2PKH outputs of d, every input signed with nonce k.
func P2PKHReuseTx(d, k *big.Int, inputs int) (*provider.Tx, error) {
	pub := PrivKey(d).PubKey().SerializeCompressed()
	addr, err := btcutil.NewAddressPubKeyHash(btcutil.Hash160(pub), &chaincfg.MainNetParams)
	if err != nil {
		return nil, err
	}
	pkScript, err := txscript.PayToAddrScript(addr)
	if err != nil {
		return nil, err
	}

	tx, prevouts := unsignedTx(pkScript, inputs)
	for i := range tx.TxIn {
		hash, err := txscript.CalcSignatureHash(pkScript, txscript.SigHashAll, tx, i)
		if err != nil {
			return nil, fmt.Errorf("calc sighash of input %d: %w", i, err)
		}
		scriptSig, err := txscript.NewScriptBuilder().
			AddData(sign(d, k, hash)).
			AddData(pub).
			Script()
		if err != nil {
			return nil, err
		}
		tx.TxIn[i].SignatureScript = scriptSig
	}

	return Normalize(tx, prevouts), nil
}

// P2WPKHReuseTx builds a transaction spending `inputs` P2WPKH outputs of d, every input signed with nonce k.
func P2WPKHReuseTx(d, k *big.Int, inputs int) (*provider.Tx, error) {
	pub := PrivKey(d).PubKey().SerializeCompressed()
	addr, err := btcutil.NewAddressWitnessPubKeyHash(btcutil.Hash160(pub), &chaincfg.MainNetParams)
	if err != nil {
		return nil, err
	}
	pkScript, err := txscript.PayToAddrScript(addr)
	if err != nil {
		return nil, err
	}

	tx, prevouts := unsignedTx(pkScript, inputs)
	fetcher := txscript.NewMultiPrevOutFetcher(nil)
	for i, txIn := range tx.TxIn {
		fetcher.AddPrevOut(txIn.PreviousOutPoint, prevouts[i])
	}
	sigHashes := txscript.NewTxSigHashes(tx, fetcher)

	for i := range tx.TxIn {
		hash, err := txscript.CalcWitnessSigHash(pkScript, sigHashes, txscript.SigHashAll, tx, i, prevoutValue)
		if err != nil {
			return nil, fmt.Errorf("calc witness sighash of input %d: %w", i, err)
		}
		tx.TxIn[i].Witness = wire.TxWitness{sign(d, k, hash), pub}
	}

	return Normalize(tx, prevouts), nil
}

func sign(d, k *big.Int, hash []byte) []byte {
	r, s := SignWithNonce(d, k, hash)
	return append(signature.EncodeDER(r.Bytes(), s.Bytes()), byte(txscript.SigHashAll))
}

func unsignedTx(pkScript []byte, inputs int) (*wire.MsgTx, []*wire.TxOut) {
	tx := wire.NewMsgTx(wire.TxVersion)
	prevouts := make([]*wire.TxOut, 0, inputs)
	for i := range inputs {
		prevHash := chainhash.DoubleHashH(append([]byte{byte(i)}, pkScript...))
		tx.AddTxIn(wire.NewTxIn(wire.NewOutPoint(&prevHash, uint32(i)), nil, nil))
		prevouts = append(prevouts, wire.NewTxOut(prevoutValue, pkScript))
	}
	tx.AddTxOut(wire.NewTxOut(int64(inputs)*prevoutValue-1_000, pkScript))
	return tx, prevouts
}

// Normalize converts a wire transaction and the outputs it spends into the provider shape.
func Normalize(tx *wire.MsgTx, prevouts []*wire.TxOut) *provider.Tx {
	out := &provider.Tx{
		TxID:     tx.TxHash().String(),
		Version:  tx.Version,
		LockTime: tx.LockTime,
	}
	for i, txIn := range tx.TxIn {
		in := &provider.TxIn{
			PrevTxID:     txIn.PreviousOutPoint.Hash.String(),
			PrevVout:     txIn.PreviousOutPoint.Index,
			Sequence:     txIn.Sequence,
			ScriptSigHex: hex.EncodeToString(txIn.SignatureScript),
		}
		for _, item := range txIn.Witness {
			in.Witness = append(in.Witness, hex.EncodeToString(item))
		}
		if i < len(prevouts) && prevouts[i] != nil {
			in.Prevout = &provider.TxOut{
				ScriptPubKeyHex: hex.EncodeToString(prevouts[i].PkScript),
				Value:           prevouts[i].Value,
			}
		}
		out.Vin = append(out.Vin, in)
	}
	for _, txOut := range tx.TxOut {
		out.Vout = append(out.Vout, &provider.TxOut{
			ScriptPubKeyHex: hex.EncodeToString(txOut.PkScript),
			Value:           txOut.Value,
		})
	}
	return out
}
