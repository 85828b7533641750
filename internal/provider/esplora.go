package provider

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// Esplora talks to the Esplora REST API served by blockstream.info and mempool.space.
type Esplora struct {
	t *transport
}

type esploraOutput struct {
	ScriptPubKey string `json:"scriptpubkey"`
	Value        int64  `json:"value"`
}

type esploraTx struct {
	TxID     string `json:"txid"`
	Version  int32  `json:"version"`
	LockTime uint32 `json:"locktime"`
	Vin      []struct {
		TxID       string         `json:"txid"`
		Vout       uint32         `json:"vout"`
		Prevout    *esploraOutput `json:"prevout"`
		ScriptSig  string         `json:"scriptsig"`
		Witness    []string       `json:"witness"`
		IsCoinbase bool           `json:"is_coinbase"`
		Sequence   uint32         `json:"sequence"`
	} `json:"vin"`
	Vout []*esploraOutput `json:"vout"`
}

type esploraStats struct {
	FundedTxoSum int64 `json:"funded_txo_sum"`
	SpentTxoSum  int64 `json:"spent_txo_sum"`
}

type esploraAddress struct {
	Address      string       `json:"address"`
	ChainStats   esploraStats `json:"chain_stats"`
	MempoolStats esploraStats `json:"mempool_stats"`
}

func (e *Esplora) Name() string {
	return e.t.name
}

func (e *Esplora) TipHeight(ctx context.Context) (int64, error) {
	return fetch(ctx, e.t, "/blocks/tip/height", decodeHeight)
}

func (e *Esplora) BlockHash(ctx context.Context, height int64) (string, error) {
	return fetch(ctx, e.t, fmt.Sprintf("/block-height/%d", height), decodeBlockHash)
}

func (e *Esplora) BlockTxIDs(ctx context.Context, hash string) ([]string, error) {
	return fetch(ctx, e.t, "/block/"+url.PathEscape(hash)+"/txids", decodeJSON[[]string])
}

func (e *Esplora) Transaction(ctx context.Context, txID string) (*Tx, error) {
	return fetch(ctx, e.t, "/tx/"+url.PathEscape(txID), func(body []byte) (*Tx, error) {
		raw, err := decodeJSON[*esploraTx](body)
		if err != nil {
			return nil, err
		}
		if raw == nil || raw.TxID == "" {
			return nil, errors.New("transaction without txid")
		}
		return raw.normalize(), nil
	})
}

func (e *Esplora) AddressBalance(ctx context.Context, address string) (*Balance, error) {
	stats, err := fetch(ctx, e.t, "/address/"+url.PathEscape(address), decodeJSON[*esploraAddress])
	if err != nil {
		return nil, err
	}
	if stats == nil {
		return nil, fmt.Errorf("%w: empty address stats", ErrTransient)
	}

	return &Balance{
		Address:     address,
		Confirmed:   btcutil.Amount(stats.ChainStats.FundedTxoSum - stats.ChainStats.SpentTxoSum),
		Unconfirmed: btcutil.Amount(stats.MempoolStats.FundedTxoSum - stats.MempoolStats.SpentTxoSum),
	}, nil
}

func (raw *esploraTx) normalize() *Tx {
	tx := &Tx{
		TxID:     raw.TxID,
		Version:  raw.Version,
		LockTime: raw.LockTime,
		Vin:      make([]*TxIn, 0, len(raw.Vin)),
		Vout:     make([]*TxOut, 0, len(raw.Vout)),
	}
	for _, in := range raw.Vin {
		txIn := &TxIn{
			PrevTxID:     in.TxID,
			PrevVout:     in.Vout,
			Sequence:     in.Sequence,
			ScriptSigHex: in.ScriptSig,
			Witness:      in.Witness,
			IsCoinbase:   in.IsCoinbase,
		}
		if in.Prevout != nil {
			txIn.Prevout = &TxOut{ScriptPubKeyHex: in.Prevout.ScriptPubKey, Value: in.Prevout.Value}
		}
		tx.Vin = append(tx.Vin, txIn)
	}
	for _, out := range raw.Vout {
		if out == nil {
			continue
		}
		tx.Vout = append(tx.Vout, &TxOut{ScriptPubKeyHex: out.ScriptPubKey, Value: out.Value})
	}
	return tx
}

func decodeBlockHash(body []byte) (string, error) {
	s, err := decodeText(body)
	if err != nil {
		return "", err
	}
	if _, err := chainhash.NewHashFromStr(s); err != nil || len(s) != 2*chainhash.HashSize {
		return "", fmt.Errorf("invalid block hash %q", s)
	}
	return s, nil
}
