package recovery

import (
	"bytes"
	"errors"
	"fmt"
	"math/big"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"

	"github.com/hedisam/rscanner/internal/signature"
)

// ErrKeyOutOfRange is returned for private keys outside [1, n-1].
var ErrKeyOutOfRange = errors.New("private key out of range")

// Key is a recovered private key and the addresses it controls.
type Key struct {
	D        *big.Int
	Verified bool
	Addresses

	pubKey *btcec.PublicKey
}

// Addresses holds the encodings derived from a private key.
type Addresses struct {
	WIF          string
	Compressed   string // P2PKH of the compressed public key
	Uncompressed string // P2PKH of the uncompressed public key
	Segwit       string // P2WPKH
	Taproot      string // P2TR key path, no script tree
}

// NewKey derives the public key and addresses of d on the given network.
func NewKey(d *big.Int, verified bool, params *chaincfg.Params) (*Key, error) {
	if d.Sign() <= 0 || d.Cmp(signature.CurveOrder) >= 0 {
		return nil, ErrKeyOutOfRange
	}

	var raw [32]byte
	d.FillBytes(raw[:])
	priv, pub := btcec.PrivKeyFromBytes(raw[:])

	compressed := pub.SerializeCompressed()
	p2pkh, err := btcutil.NewAddressPubKeyHash(btcutil.Hash160(compressed), params)
	if err != nil {
		return nil, fmt.Errorf("compressed p2pkh address: %w", err)
	}
	p2pkhUncompressed, err := btcutil.NewAddressPubKeyHash(btcutil.Hash160(pub.SerializeUncompressed()), params)
	if err != nil {
		return nil, fmt.Errorf("uncompressed p2pkh address: %w", err)
	}
	p2wpkh, err := btcutil.NewAddressWitnessPubKeyHash(btcutil.Hash160(compressed), params)
	if err != nil {
		return nil, fmt.Errorf("p2wpkh address: %w", err)
	}
	outputKey := txscript.ComputeTaprootKeyNoScript(pub)
	p2tr, err := btcutil.NewAddressTaproot(schnorr.SerializePubKey(outputKey), params)
	if err != nil {
		return nil, fmt.Errorf("p2tr address: %w", err)
	}
	wif, err := btcutil.NewWIF(priv, params, true)
	if err != nil {
		return nil, fmt.Errorf("wif: %w", err)
	}

	return &Key{
		D:        d,
		Verified: verified,
		Addresses: Addresses{
			WIF:          wif.String(),
			Compressed:   p2pkh.EncodeAddress(),
			Uncompressed: p2pkhUncompressed.EncodeAddress(),
			Segwit:       p2wpkh.EncodeAddress(),
			Taproot:      p2tr.EncodeAddress(),
		},
		pubKey: pub,
	}, nil
}

// Hex returns d zero padded to 32 bytes.
func (k *Key) Hex() string {
	return fmt.Sprintf("%064x", k.D)
}

func (k *Key) matches(pubKeys [][]byte) bool {
	compressed := k.pubKey.SerializeCompressed()
	uncompressed := k.pubKey.SerializeUncompressed()
	for _, pk := range pubKeys {
		if bytes.Equal(pk, compressed) || bytes.Equal(pk, uncompressed) {
			return true
		}
	}
	return false
}
