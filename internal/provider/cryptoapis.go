package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"

	"github.com/btcsuite/btcd/btcutil"
)

// CryptoAPIs talks to the rest.cryptoapis.io unified UTXO endpoints. Its transactions come without
// the spent outputs, so signatures extracted from them carry no message digest.
type CryptoAPIs struct {
	t       *transport
	network string
}

type cryptoAPIsItem[T any] struct {
	Data struct {
		Item T `json:"item"`
	} `json:"data"`
}

type cryptoAPIsItems[T any] struct {
	Data struct {
		Items []T `json:"items"`
	} `json:"data"`
}

// flexUint32 accepts both JSON numbers and numeric strings.
type flexUint32 uint32

func (f *flexUint32) UnmarshalJSON(b []byte) error {
	b = bytes.Trim(b, `"`)
	if len(b) == 0 || string(b) == "null" {
		return nil
	}
	v, err := strconv.ParseUint(string(b), 10, 32)
	if err != nil {
		return err
	}
	*f = flexUint32(v)
	return nil
}

// hexScript accepts either {"hex": "..."} or a bare hex string.
type hexScript string

func (h *hexScript) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*h = hexScript(s)
		return nil
	}
	var obj struct {
		Hex string `json:"hex"`
	}
	if err := json.Unmarshal(b, &obj); err != nil {
		return err
	}
	*h = hexScript(obj.Hex)
	return nil
}

type cryptoAPIsAmount struct {
	Amount string `json:"amount"`
	Unit   string `json:"unit"`
}

func (a cryptoAPIsAmount) satoshi() (btcutil.Amount, error) {
	if a.Amount == "" {
		return 0, nil
	}
	btc, err := strconv.ParseFloat(a.Amount, 64)
	if err != nil {
		return 0, fmt.Errorf("parse amount %q: %w", a.Amount, err)
	}
	return btcutil.NewAmount(btc)
}

type cryptoAPIsTx struct {
	TransactionID string     `json:"transactionId"`
	Hash          string     `json:"hash"`
	Version       int32      `json:"version"`
	LockTime      flexUint32 `json:"locktime"`
	Vin           []struct {
		TxID        string     `json:"txid"`
		Vout        flexUint32 `json:"vout"`
		Sequence    flexUint32 `json:"sequence"`
		ScriptSig   hexScript  `json:"scriptSig"`
		TxInWitness []string   `json:"txinwitness"`
		Witnesses   []string   `json:"witnesses"`
		Witness     []string   `json:"witness"`
		Coinbase    string     `json:"coinbase"`
	} `json:"vin"`
	Vout []struct {
		ScriptPubKey hexScript        `json:"scriptPubKey"`
		Value        cryptoAPIsAmount `json:"value"`
	} `json:"vout"`
}

func (c *CryptoAPIs) Name() string {
	return c.t.name
}

func (c *CryptoAPIs) TipHeight(ctx context.Context) (int64, error) {
	type block struct {
		Height int64 `json:"height"`
	}
	resp, err := fetch(ctx, c.t, c.path("/blocks/utxo/bitcoin/%s/latest/details"), decodeJSON[cryptoAPIsItem[block]])
	if err != nil {
		return 0, err
	}
	return resp.Data.Item.Height, nil
}

func (c *CryptoAPIs) BlockHash(ctx context.Context, height int64) (string, error) {
	type block struct {
		Hash string `json:"hash"`
	}
	path := c.path("/blocks/utxo/bitcoin/%s/height/") + strconv.FormatInt(height, 10) + "/details"
	resp, err := fetch(ctx, c.t, path, decodeJSON[cryptoAPIsItem[block]])
	if err != nil {
		return "", err
	}
	return resp.Data.Item.Hash, nil
}

func (c *CryptoAPIs) BlockTxIDs(ctx context.Context, hash string) ([]string, error) {
	type tx struct {
		TransactionID string `json:"transactionId"`
	}
	path := c.path("/blocks/utxo/bitcoin/%s/hash/") + url.PathEscape(hash) + "/transactions"
	resp, err := fetch(ctx, c.t, path, decodeJSON[cryptoAPIsItems[tx]])
	if err != nil {
		return nil, err
	}

	txIDs := make([]string, 0, len(resp.Data.Items))
	for _, item := range resp.Data.Items {
		if item.TransactionID != "" {
			txIDs = append(txIDs, item.TransactionID)
		}
	}
	return txIDs, nil
}

func (c *CryptoAPIs) Transaction(ctx context.Context, txID string) (*Tx, error) {
	path := c.path("/transactions/utxo/bitcoin/%s/") + url.PathEscape(txID)
	return fetch(ctx, c.t, path, func(body []byte) (*Tx, error) {
		resp, err := decodeJSON[cryptoAPIsItem[*cryptoAPIsTx]](body)
		if err != nil {
			return nil, err
		}
		raw := resp.Data.Item
		if raw == nil {
			return nil, errors.New("response without transaction item")
		}
		return raw.normalize()
	})
}

func (c *CryptoAPIs) AddressBalance(ctx context.Context, address string) (*Balance, error) {
	type balance struct {
		ConfirmedBalance cryptoAPIsAmount `json:"confirmedBalance"`
	}
	path := c.path("/addresses-latest/utxo/bitcoin/%s/") + url.PathEscape(address) + "/balance"
	resp, err := fetch(ctx, c.t, path, decodeJSON[cryptoAPIsItem[balance]])
	if err != nil {
		return nil, err
	}

	confirmed, err := resp.Data.Item.ConfirmedBalance.satoshi()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransient, err)
	}
	return &Balance{
		Address:   address,
		Confirmed: confirmed,
	}, nil
}

func (c *CryptoAPIs) path(format string) string {
	return fmt.Sprintf(format, c.network)
}

func (raw *cryptoAPIsTx) normalize() (*Tx, error) {
	txID := raw.TransactionID
	if txID == "" {
		txID = raw.Hash
	}
	if txID == "" {
		return nil, errors.New("transaction without id")
	}

	tx := &Tx{
		TxID:     txID,
		Version:  raw.Version,
		LockTime: uint32(raw.LockTime),
		Vin:      make([]*TxIn, 0, len(raw.Vin)),
		Vout:     make([]*TxOut, 0, len(raw.Vout)),
	}
	for _, in := range raw.Vin {
		witness := in.TxInWitness
		if len(witness) == 0 {
			witness = in.Witnesses
		}
		if len(witness) == 0 {
			witness = in.Witness
		}
		tx.Vin = append(tx.Vin, &TxIn{
			PrevTxID:     in.TxID,
			PrevVout:     uint32(in.Vout),
			Sequence:     uint32(in.Sequence),
			ScriptSigHex: string(in.ScriptSig),
			Witness:      witness,
			IsCoinbase:   in.Coinbase != "",
		})
	}
	for _, out := range raw.Vout {
		value, err := out.Value.satoshi()
		if err != nil {
			return nil, err
		}
		tx.Vout = append(tx.Vout, &TxOut{ScriptPubKeyHex: string(out.ScriptPubKey), Value: int64(value)})
	}
	return tx, nil
}
