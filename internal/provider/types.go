package provider

import (
	"errors"

	"github.com/btcsuite/btcd/btcutil"
)

var (
	// ErrNotFound is returned when a provider has no record of the requested item. It is never retried.
	ErrNotFound = errors.New("not found")
	// ErrRateLimited is returned when a provider responds with 429 Too Many Requests.
	ErrRateLimited = errors.New("rate limited")
	// ErrTransient covers timeouts, unexpected statuses and malformed bodies.
	ErrTransient = errors.New("transient provider failure")
	// ErrUnavailable is returned by the Orchestrator when no provider produced a usable result.
	ErrUnavailable = errors.New("no provider returned a result")
)

// Tx is the canonical transaction shape every provider response is normalized into.
type Tx struct {
	TxID     string   `json:"txid"`
	Version  int32    `json:"version"`
	LockTime uint32   `json:"locktime"`
	Vin      []*TxIn  `json:"vin"`
	Vout     []*TxOut `json:"vout"`
}

// HasPrevouts reports whether every input other than a coinbase carries the output it spends.
func (tx *Tx) HasPrevouts() bool {
	for _, in := range tx.Vin {
		if !in.IsCoinbase && in.Prevout == nil {
			return false
		}
	}
	return true
}

// TxIn is a normalized transaction input.
type TxIn struct {
	PrevTxID     string   `json:"prevTxid,omitempty"`
	PrevVout     uint32   `json:"prevVout"`
	Sequence     uint32   `json:"sequence"`
	ScriptSigHex string   `json:"scriptSigHex"`
	Witness      []string `json:"witness"`
	IsCoinbase   bool     `json:"isCoinbase,omitempty"`
	// Prevout is the output spent by this input. Providers that don't report it leave it nil.
	Prevout *TxOut `json:"prevout,omitempty"`
}

// TxOut is a normalized transaction output. Value is in satoshi.
type TxOut struct {
	ScriptPubKeyHex string `json:"scriptPubKeyHex"`
	Value           int64  `json:"value"`
}

// Balance holds the funded minus spent totals of an address.
type Balance struct {
	Address     string         `json:"address"`
	Confirmed   btcutil.Amount `json:"confirmed"`
	Unconfirmed btcutil.Amount `json:"unconfirmed"`
}

// Total returns the sum of the confirmed and unconfirmed balances.
func (b *Balance) Total() btcutil.Amount {
	return b.Confirmed + b.Unconfirmed
}
