package provider_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hedisam/rscanner/internal/provider"
	"github.com/hedisam/rscanner/internal/provider/mocks"
)

//go:generate moq -out mocks/provider.go -pkg mocks -skip-ensure . Provider

var (
	fastRetry = provider.RetryConfig{
		MaxAttempts:   3,
		RateLimitBase: time.Millisecond,
		RetryDelay:    time.Millisecond,
	}
	blockHash = strings.Repeat("0f", 32)
)

func newOrchestrator(t *testing.T, global int64, endpoints ...provider.Endpoint) *provider.Orchestrator {
	t.Helper()
	o, err := provider.New(logrus.New(), provider.Options{
		GlobalMaxConcurrent: global,
		RequestTimeout:      5 * time.Second,
		Retry:               fastRetry,
		Network:             "mainnet",
		Endpoints:           endpoints,
	})
	require.NoError(t, err)
	return o
}

func esploraEndpoint(name, url string, maxConcurrent int64) provider.Endpoint {
	return provider.Endpoint{
		Name:          name,
		Kind:          provider.KindEsplora,
		BaseURL:       url,
		MaxConcurrent: maxConcurrent,
	}
}

type response struct {
	status int
	body   string
}

func TestRequestRetries(t *testing.T) {
	tests := map[string]struct {
		responses     []response
		expectedCalls int
		expectedHash  string
		expectedErr   error
	}{
		"first attempt succeeds": {
			responses:     []response{{status: http.StatusOK, body: blockHash}},
			expectedCalls: 1,
			expectedHash:  blockHash,
		},
		"rate limited then ok": {
			responses: []response{
				{status: http.StatusTooManyRequests},
				{status: http.StatusOK, body: blockHash},
			},
			expectedCalls: 2,
			expectedHash:  blockHash,
		},
		"malformed body is retried": {
			responses: []response{
				{status: http.StatusOK, body: "<html>bad gateway</html>"},
				{status: http.StatusOK, body: blockHash + "\n"},
			},
			expectedCalls: 2,
			expectedHash:  blockHash,
		},
		"not found is not retried": {
			responses:     []response{{status: http.StatusNotFound}},
			expectedCalls: 1,
			expectedErr:   provider.ErrUnavailable,
		},
		"server errors exhaust attempts": {
			responses:     []response{{status: http.StatusBadGateway}},
			expectedCalls: 3,
			expectedErr:   provider.ErrUnavailable,
		},
		"rate limited on every attempt": {
			responses:     []response{{status: http.StatusTooManyRequests}},
			expectedCalls: 3,
			expectedErr:   provider.ErrUnavailable,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			var calls atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/block-height/7", r.URL.Path)
				i := int(calls.Add(1)) - 1
				resp := test.responses[min(i, len(test.responses)-1)]
				w.WriteHeader(resp.status)
				_, _ = w.Write([]byte(resp.body))
			}))
			defer srv.Close()

			o := newOrchestrator(t, 10, esploraEndpoint("esplora", srv.URL, 1))
			hash, err := o.BlockHash(context.Background(), 7)
			assert.Equal(t, test.expectedCalls, int(calls.Load()))
			if test.expectedErr != nil {
				require.ErrorIs(t, err, test.expectedErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, test.expectedHash, hash)
		})
	}
}

// concurrencyRecorder tracks the highest number of requests served at the same time.
type concurrencyRecorder struct {
	inFlight atomic.Int32
	peak     atomic.Int32
	served   atomic.Int32
}

func (c *concurrencyRecorder) handler(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		n := c.inFlight.Add(1)
		defer c.inFlight.Add(-1)
		for {
			peak := c.peak.Load()
			if n <= peak || c.peak.CompareAndSwap(peak, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		c.served.Add(1)
		_, _ = w.Write([]byte(body))
	}
}

func TestProviderConcurrencyCap(t *testing.T) {
	rec := &concurrencyRecorder{}
	srv := httptest.NewServer(rec.handler(`["aa","bb"]`))
	defer srv.Close()

	o := newOrchestrator(t, 100, esploraEndpoint("esplora", srv.URL, 1))

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			txIDs, err := o.BlockTxIDs(context.Background(), blockHash)
			assert.NoError(t, err)
			assert.Equal(t, []string{"aa", "bb"}, txIDs)
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 10, rec.served.Load())
	assert.EqualValues(t, 1, rec.peak.Load())
}

func TestGlobalConcurrencyCap(t *testing.T) {
	rec := &concurrencyRecorder{}
	body := `{"chain_stats": {"funded_txo_sum": 10}, "mempool_stats": {}}`
	first := httptest.NewServer(rec.handler(body))
	defer first.Close()
	second := httptest.NewServer(rec.handler(body))
	defer second.Close()

	o := newOrchestrator(t, 1,
		esploraEndpoint("first", first.URL, 10),
		esploraEndpoint("second", second.URL, 10),
	)

	var wg sync.WaitGroup
	for range 6 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			balance, err := o.AddressBalance(context.Background(), "addr")
			if assert.NoError(t, err) {
				assert.EqualValues(t, 10, balance.Confirmed)
			}
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 6, rec.served.Load())
	assert.EqualValues(t, 1, rec.peak.Load())
}

func TestEsplora_Transaction(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/tx/c0ffee", r.URL.Path)
		_, _ = w.Write([]byte(`{
			"txid": "c0ffee",
			"version": 2,
			"locktime": 840000,
			"vin": [
				{
					"txid": "beef",
					"vout": 1,
					"prevout": {"scriptpubkey": "0014aa", "value": 5000},
					"scriptsig": "",
					"witness": ["3044aa01", "02bb"],
					"is_coinbase": false,
					"sequence": 4294967293
				},
				{
					"txid": "0000000000000000000000000000000000000000000000000000000000000000",
					"vout": 4294967295,
					"prevout": null,
					"scriptsig": "03c0ffee",
					"is_coinbase": true,
					"sequence": 4294967295
				}
			],
			"vout": [{"scriptpubkey": "76a914cc88ac", "value": 4000}]
		}`))
	}))
	defer srv.Close()

	o := newOrchestrator(t, 10, esploraEndpoint("esplora", srv.URL, 1))
	tx, err := o.Transaction(context.Background(), "c0ffee")
	require.NoError(t, err)

	expected := &provider.Tx{
		TxID:     "c0ffee",
		Version:  2,
		LockTime: 840000,
		Vin: []*provider.TxIn{
			{
				PrevTxID: "beef",
				PrevVout: 1,
				Sequence: 4294967293,
				Witness:  []string{"3044aa01", "02bb"},
				Prevout:  &provider.TxOut{ScriptPubKeyHex: "0014aa", Value: 5000},
			},
			{
				PrevTxID:     "0000000000000000000000000000000000000000000000000000000000000000",
				PrevVout:     4294967295,
				Sequence:     4294967295,
				ScriptSigHex: "03c0ffee",
				IsCoinbase:   true,
			},
		},
		Vout: []*provider.TxOut{{ScriptPubKeyHex: "76a914cc88ac", Value: 4000}},
	}
	assert.Equal(t, expected, tx)
}

func TestEsplora_AddressBalance(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/address/1BgGZ9tcN4rm9KBzDn7KprQz87SZ26SAMH", r.URL.Path)
		_, _ = w.Write([]byte(`{
			"address": "1BgGZ9tcN4rm9KBzDn7KprQz87SZ26SAMH",
			"chain_stats": {"funded_txo_sum": 150000000, "spent_txo_sum": 50000000},
			"mempool_stats": {"funded_txo_sum": 2000, "spent_txo_sum": 500}
		}`))
	}))
	defer srv.Close()

	o := newOrchestrator(t, 10, esploraEndpoint("esplora", srv.URL, 1))
	balance, err := o.AddressBalance(context.Background(), "1BgGZ9tcN4rm9KBzDn7KprQz87SZ26SAMH")
	require.NoError(t, err)
	assert.EqualValues(t, 100_000_000, balance.Confirmed)
	assert.EqualValues(t, 1500, balance.Unconfirmed)
	assert.EqualValues(t, 100_001_500, balance.Total())
}

func TestCryptoAPIs(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret", r.Header.Get("X-API-Key"))
		switch r.URL.Path {
		case "/blocks/utxo/bitcoin/mainnet/latest/details":
			_, _ = w.Write([]byte(`{"data": {"item": {"height": 871234}}}`))
		case "/blocks/utxo/bitcoin/mainnet/height/100/details":
			_, _ = w.Write([]byte(fmt.Sprintf(`{"data": {"item": {"hash": %q}}}`, blockHash)))
		case "/blocks/utxo/bitcoin/mainnet/hash/" + blockHash + "/transactions":
			_, _ = w.Write([]byte(`{"data": {"items": [{"transactionId": "aa"}, {"transactionId": ""}, {"transactionId": "bb"}]}}`))
		case "/transactions/utxo/bitcoin/mainnet/c0ffee":
			_, _ = w.Write([]byte(`{"data": {"item": {
				"transactionId": "c0ffee",
				"version": 1,
				"locktime": 0,
				"vin": [
					{"txid": "beef", "vout": 0, "sequence": "4294967295", "scriptSig": {"hex": "4830450221"}},
					{"txid": "dead", "vout": "2", "sequence": 4294967295, "scriptSig": "", "txinwitness": ["3044", "02aa"]}
				],
				"vout": [{"scriptPubKey": {"hex": "0014ff"}, "value": {"amount": "0.0001", "symbol": "BTC"}}]
			}}}`))
		case "/addresses-latest/utxo/bitcoin/mainnet/1BgGZ9tcN4rm9KBzDn7KprQz87SZ26SAMH/balance":
			_, _ = w.Write([]byte(`{"data": {"item": {"confirmedBalance": {"amount": "0.5", "unit": "BTC"}}}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	o := newOrchestrator(t, 10, provider.Endpoint{
		Name:          "cryptoapis",
		Kind:          provider.KindCryptoAPIs,
		BaseURL:       srv.URL + "/",
		APIKey:        "secret",
		MaxConcurrent: 2,
	})
	ctx := context.Background()

	height, err := o.TipHeight(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 871234, height)

	hash, err := o.BlockHash(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, blockHash, hash)

	txIDs, err := o.BlockTxIDs(ctx, blockHash)
	require.NoError(t, err)
	assert.Equal(t, []string{"aa", "bb"}, txIDs)

	tx, err := o.Transaction(ctx, "c0ffee")
	require.NoError(t, err)
	assert.Equal(t, &provider.Tx{
		TxID:    "c0ffee",
		Version: 1,
		Vin: []*provider.TxIn{
			{PrevTxID: "beef", Sequence: 4294967295, ScriptSigHex: "4830450221"},
			{PrevTxID: "dead", PrevVout: 2, Sequence: 4294967295, Witness: []string{"3044", "02aa"}},
		},
		Vout: []*provider.TxOut{{ScriptPubKeyHex: "0014ff", Value: 10_000}},
	}, tx)

	balance, err := o.AddressBalance(ctx, "1BgGZ9tcN4rm9KBzDn7KprQz87SZ26SAMH")
	require.NoError(t, err)
	assert.EqualValues(t, 50_000_000, balance.Confirmed)
}

func TestNew(t *testing.T) {
	tests := map[string]struct {
		endpoints         []provider.Endpoint
		expectedProviders []string
		expectedErr       string
	}{
		"ordered by priority": {
			endpoints: []provider.Endpoint{
				{Name: "mempool", Kind: provider.KindEsplora, BaseURL: "http://mempool", MaxConcurrent: 30, Priority: 2},
				{Name: "cryptoapis", Kind: provider.KindCryptoAPIs, BaseURL: "http://capi", APIKey: "k", MaxConcurrent: 40},
				{Name: "blockstream", Kind: provider.KindEsplora, BaseURL: "http://blockstream", MaxConcurrent: 30, Priority: 1},
			},
			expectedProviders: []string{"cryptoapis", "blockstream", "mempool"},
		},
		"cryptoapis without key is skipped": {
			endpoints: []provider.Endpoint{
				{Name: "cryptoapis", Kind: provider.KindCryptoAPIs, BaseURL: "http://capi", MaxConcurrent: 40},
				{Name: "blockstream", Kind: provider.KindEsplora, BaseURL: "http://blockstream", MaxConcurrent: 30, Priority: 1},
			},
			expectedProviders: []string{"blockstream"},
		},
		"only cryptoapis without key": {
			endpoints: []provider.Endpoint{
				{Name: "cryptoapis", Kind: provider.KindCryptoAPIs, BaseURL: "http://capi", MaxConcurrent: 40},
			},
			expectedErr: "no usable provider configured",
		},
		"unknown kind": {
			endpoints: []provider.Endpoint{
				{Name: "electrum", Kind: "electrum", BaseURL: "tcp://electrum", MaxConcurrent: 1},
			},
			expectedErr: `provider "electrum": unknown kind "electrum"`,
		},
		"zero concurrency": {
			endpoints: []provider.Endpoint{
				{Name: "blockstream", Kind: provider.KindEsplora, BaseURL: "http://blockstream"},
			},
			expectedErr: `provider "blockstream": invalid max concurrent: 0`,
		},
		"no endpoints": {
			expectedErr: "no provider endpoints configured",
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			o, err := provider.New(logrus.New(), provider.Options{
				GlobalMaxConcurrent: 100,
				RequestTimeout:      time.Second,
				Retry:               fastRetry,
				Network:             "mainnet",
				Endpoints:           test.endpoints,
			})
			if test.expectedErr != "" {
				require.EqualError(t, err, test.expectedErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, test.expectedProviders, o.Providers())
		})
	}
}

func named(name string) *mocks.ProviderMock {
	return &mocks.ProviderMock{
		NameFunc: func() string { return name },
	}
}

func TestRace_FirstResultWinsAndLosersAreCancelled(t *testing.T) {
	cancelled := make(chan struct{})
	slow := named("slow")
	slow.BlockHashFunc = func(ctx context.Context, height int64) (string, error) {
		<-ctx.Done()
		close(cancelled)
		return "", ctx.Err()
	}
	fast := named("fast")
	fast.BlockHashFunc = func(ctx context.Context, height int64) (string, error) {
		return blockHash, nil
	}

	o := provider.NewOrchestrator(logrus.New(), slow, fast)
	hash, err := o.BlockHash(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, blockHash, hash)

	select {
	case <-cancelled:
	case <-time.After(time.Second):
		t.Fatal("losing provider call was not cancelled")
	}
}

func TestRace_Results(t *testing.T) {
	tests := map[string]struct {
		results       map[string][]string
		errs          map[string]error
		expectedTxIDs []string
		expectedErr   error
	}{
		"empty result loses to non-empty": {
			results:       map[string][]string{"a": {}, "b": {"tx"}},
			expectedTxIDs: []string{"tx"},
		},
		"failure loses to success": {
			results:       map[string][]string{"b": {"tx"}},
			errs:          map[string]error{"a": provider.ErrTransient},
			expectedTxIDs: []string{"tx"},
		},
		"every provider empty": {
			results: map[string][]string{"a": {}, "b": nil},
		},
		"every provider failed": {
			errs:        map[string]error{"a": provider.ErrTransient, "b": provider.ErrRateLimited},
			expectedErr: provider.ErrUnavailable,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			var providers []provider.Provider
			for _, n := range []string{"a", "b"} {
				p := named(n)
				p.BlockTxIDsFunc = func(ctx context.Context, hash string) ([]string, error) {
					if err := test.errs[n]; err != nil {
						return nil, err
					}
					return test.results[n], nil
				}
				providers = append(providers, p)
			}

			o := provider.NewOrchestrator(logrus.New(), providers...)
			txIDs, err := o.BlockTxIDs(context.Background(), blockHash)
			if test.expectedErr != nil {
				require.ErrorIs(t, err, test.expectedErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, len(test.expectedTxIDs), len(txIDs))
			if len(test.expectedTxIDs) > 0 {
				assert.Equal(t, test.expectedTxIDs, txIDs)
			}
		})
	}
}

func TestRace_TransactionPrefersPrevouts(t *testing.T) {
	const txID = "aa"
	bare := &provider.Tx{
		TxID: txID,
		Vin:  []*provider.TxIn{{PrevTxID: "bb"}},
	}
	full := &provider.Tx{
		TxID: txID,
		Vin: []*provider.TxIn{{
			PrevTxID: "bb",
			Prevout:  &provider.TxOut{Value: 5000, ScriptPubKeyHex: "76a914" + strings.Repeat("00", 20) + "88ac"},
		}},
	}
	coinbase := &provider.Tx{
		TxID: txID,
		Vin:  []*provider.TxIn{{IsCoinbase: true}},
	}

	tests := map[string]struct {
		fast        *provider.Tx
		fastErr     error
		slow        *provider.Tx
		slowErr     error
		expectedTx  *provider.Tx
		expectedErr error
	}{
		"slower result with prevouts beats faster one without": {
			fast:       bare,
			slow:       full,
			expectedTx: full,
		},
		"result without prevouts is used when nothing better arrives": {
			fast:       bare,
			slowErr:    provider.ErrTransient,
			expectedTx: bare,
		},
		"result without prevouts beats an empty one": {
			fast:       bare,
			slow:       &provider.Tx{},
			expectedTx: bare,
		},
		"coinbase input needs no prevout": {
			fast:       coinbase,
			slow:       full,
			expectedTx: coinbase,
		},
		"every provider failed": {
			fastErr:     provider.ErrTransient,
			slowErr:     provider.ErrTransient,
			expectedErr: provider.ErrUnavailable,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			fast := named("fast")
			fast.TransactionFunc = func(ctx context.Context, id string) (*provider.Tx, error) {
				return test.fast, test.fastErr
			}
			slow := named("slow")
			slow.TransactionFunc = func(ctx context.Context, id string) (*provider.Tx, error) {
				select {
				case <-time.After(20 * time.Millisecond):
				case <-ctx.Done():
					return nil, ctx.Err()
				}
				return test.slow, test.slowErr
			}

			o := provider.NewOrchestrator(logrus.New(), fast, slow)
			tx, err := o.Transaction(context.Background(), txID)
			if test.expectedErr != nil {
				require.ErrorIs(t, err, test.expectedErr)
				return
			}
			require.NoError(t, err)
			assert.Same(t, test.expectedTx, tx)
		})
	}
}

func TestRace_ParentContextCancelled(t *testing.T) {
	p := named("blocking")
	p.TransactionFunc = func(ctx context.Context, txID string) (*provider.Tx, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	o := provider.NewOrchestrator(logrus.New(), p)
	_, err := o.Transaction(ctx, "aa")
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestTipHeight_PriorityOrder(t *testing.T) {
	first := named("first")
	first.TipHeightFunc = func(ctx context.Context) (int64, error) {
		return 0, errors.New("boom")
	}
	second := named("second")
	second.TipHeightFunc = func(ctx context.Context) (int64, error) {
		return 871_000, nil
	}
	third := named("third")
	third.TipHeightFunc = func(ctx context.Context) (int64, error) {
		return 871_001, nil
	}

	o := provider.NewOrchestrator(logrus.New(), first, second, third)
	height, err := o.TipHeight(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 871_000, height)
	assert.Len(t, first.TipHeightCalls(), 1)
	assert.Len(t, second.TipHeightCalls(), 1)
	assert.Empty(t, third.TipHeightCalls())

	second.TipHeightFunc = func(ctx context.Context) (int64, error) { return 0, nil }
	third.TipHeightFunc = func(ctx context.Context) (int64, error) { return 0, provider.ErrTransient }
	_, err = o.TipHeight(context.Background())
	require.ErrorIs(t, err, provider.ErrUnavailable)
}

func TestAddressBalance_RoundRobin(t *testing.T) {
	balanceOf := func(p string) func(context.Context, string) (*provider.Balance, error) {
		return func(_ context.Context, address string) (*provider.Balance, error) {
			return &provider.Balance{Address: address + "@" + p}, nil
		}
	}
	a := named("a")
	a.AddressBalanceFunc = balanceOf("a")
	b := named("b")
	b.AddressBalanceFunc = balanceOf("b")

	o := provider.NewOrchestrator(logrus.New(), a, b)
	var got []string
	for range 3 {
		balance, err := o.AddressBalance(context.Background(), "addr")
		require.NoError(t, err)
		got = append(got, balance.Address)
	}
	assert.Equal(t, []string{"addr@a", "addr@b", "addr@a"}, got)

	a.AddressBalanceFunc = func(context.Context, string) (*provider.Balance, error) {
		return nil, provider.ErrTransient
	}
	// next pick is b, then a which fails over to b
	for range 2 {
		balance, err := o.AddressBalance(context.Background(), "addr")
		require.NoError(t, err)
		assert.Equal(t, "addr@b", balance.Address)
	}

	b.AddressBalanceFunc = a.AddressBalanceFunc
	_, err := o.AddressBalance(context.Background(), "addr")
	require.ErrorIs(t, err, provider.ErrUnavailable)
}
