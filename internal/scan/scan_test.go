package scan_test

import (
	"context"
	"fmt"
	"math/big"
	"strconv"
	"testing"
	"time"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hedisam/rscanner/internal/provider"
	"github.com/hedisam/rscanner/internal/recovery"
	"github.com/hedisam/rscanner/internal/scan"
	"github.com/hedisam/rscanner/internal/scan/mocks"
	"github.com/hedisam/rscanner/internal/signature/sigtest"
	"github.com/hedisam/rscanner/internal/store"
	"github.com/hedisam/rscanner/internal/store/memdb"
)

//go:generate moq -out mocks/fetcher.go -pkg mocks -skip-ensure . Fetcher

var (
	victimKey   = big.NewInt(0xbad_c0ffee)
	victimNonce = big.NewInt(0x1234_5678_9abc)
	otherKey    = big.NewInt(0x600d_5eed)
	otherNonce  = big.NewInt(0x0fed_cba9_8765)

	testConfig = scan.Config{
		BatchSize:           2,
		MaxConcurrentBlocks: 4,
		MaxConcurrentTxs:    4,
		LogCapacity:         200,
		LogTail:             50,
	}
)

// chain maps block heights to their transactions.
type chain map[int64][]*provider.Tx

func blockHash(height int64) string {
	return fmt.Sprintf("%064x", height)
}

func (c chain) fetcher() *mocks.FetcherMock {
	return &mocks.FetcherMock{
		BlockHashFunc: func(_ context.Context, height int64) (string, error) {
			if _, ok := c[height]; !ok {
				return "", provider.ErrUnavailable
			}
			return blockHash(height), nil
		},
		BlockTxIDsFunc: func(_ context.Context, hash string) ([]string, error) {
			height, err := strconv.ParseInt(hash, 16, 64)
			if err != nil {
				return nil, err
			}
			txIDs := []string{}
			for _, tx := range c[height] {
				txIDs = append(txIDs, tx.TxID)
			}
			return txIDs, nil
		},
		TransactionFunc: func(_ context.Context, txID string) (*provider.Tx, error) {
			for _, txs := range c {
				for _, tx := range txs {
					if tx.TxID == txID {
						return tx, nil
					}
				}
			}
			return nil, provider.ErrUnavailable
		},
	}
}

func newScanner(t *testing.T, fetcher scan.Fetcher, cfg scan.Config) *scan.Scanner {
	t.Helper()
	s := scan.New(logrus.New(), fetcher, memdb.NewJobStore(), &chaincfg.MainNetParams, cfg)
	t.Cleanup(s.Close)
	return s
}

func waitDone(t *testing.T, s *scan.Scanner, id string) *store.Snapshot {
	t.Helper()
	var snap *store.Snapshot
	require.Eventually(t, func() bool {
		var err error
		snap, err = s.Progress(context.Background(), id)
		return err == nil && snap.Status.Terminal()
	}, 5*time.Second, 5*time.Millisecond)
	return snap
}

func mustTx(t *testing.T, build func(d, k *big.Int, inputs int) (*provider.Tx, error), d, k *big.Int, inputs int) *provider.Tx {
	t.Helper()
	tx, err := build(d, k, inputs)
	require.NoError(t, err)
	return tx
}

func TestScan_RecoversReusedNonceKey(t *testing.T) {
	expectedKey, err := recovery.NewKey(victimKey, true, &chaincfg.MainNetParams)
	require.NoError(t, err)

	tests := map[string]struct {
		reuseTx            func(d, k *big.Int, inputs int) (*provider.Tx, error)
		addressTypes       []string
		expectedSignatures int64
		expectedType       string
	}{
		"legacy p2pkh inputs": {
			reuseTx:            sigtest.P2PKHReuseTx,
			addressTypes:       []string{"legacy"},
			expectedSignatures: 3,
			expectedType:       "legacy",
		},
		"segwit p2wpkh inputs": {
			reuseTx:            sigtest.P2WPKHReuseTx,
			addressTypes:       []string{"segwit"},
			expectedSignatures: 2,
			expectedType:       "segwit",
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			c := chain{
				100: {
					mustTx(t, sigtest.P2PKHReuseTx, otherKey, otherNonce, 1),
					mustTx(t, test.reuseTx, victimKey, victimNonce, 2),
				},
			}
			s := newScanner(t, c.fetcher(), testConfig)

			id, err := s.StartScan(context.Background(), 100, 100, test.addressTypes)
			require.NoError(t, err)

			snap := waitDone(t, s, id)
			assert.Equal(t, store.StatusCompleted, snap.Status)
			assert.EqualValues(t, 1, snap.BlocksScanned)
			assert.EqualValues(t, 100, snap.CurrentBlock)
			assert.Equal(t, 100.0, snap.ProgressPercentage)
			assert.Equal(t, test.expectedSignatures, snap.SignaturesFound)
			assert.EqualValues(t, 1, snap.RReusePairs)
			assert.EqualValues(t, 1, snap.KeysRecovered)
			assert.EqualValues(t, 4, snap.APICallsMade)
			assert.Zero(t, snap.Errors)
			assert.NotEmpty(t, snap.Logs)

			res, err := s.Results(context.Background(), id)
			require.NoError(t, err)
			require.Len(t, res.RecoveredKeys, 1)
			key := res.RecoveredKeys[0]
			assert.Equal(t, fmt.Sprintf("%064x", victimKey), key.PrivateKey)
			assert.Equal(t, expectedKey.WIF, key.WIF)
			assert.Equal(t, expectedKey.Compressed, key.CompressedAddress)
			assert.Equal(t, expectedKey.Uncompressed, key.UncompressedAddress)
			assert.Equal(t, expectedKey.Segwit, key.SegwitAddress)
			assert.Equal(t, expectedKey.Taproot, key.TaprootAddress)
			assert.True(t, key.Verified)
			assert.Equal(t, 0, key.Signatures[0].InputIndex)
			assert.Equal(t, 1, key.Signatures[1].InputIndex)
			assert.Equal(t, test.expectedType, key.Signatures[0].Type)
			assert.NotEmpty(t, key.Signatures[0].MessageDigest)
		})
	}
}

func TestScan_SameKeyFromManyPairsIsReportedPerPair(t *testing.T) {
	c := chain{
		7: {mustTx(t, sigtest.P2PKHReuseTx, victimKey, victimNonce, 3)},
		8: {mustTx(t, sigtest.P2WPKHReuseTx, victimKey, victimNonce, 1)},
	}
	s := newScanner(t, c.fetcher(), testConfig)

	id, err := s.StartScan(context.Background(), 7, 8, []string{"legacy", "segwit"})
	require.NoError(t, err)

	snap := waitDone(t, s, id)
	assert.EqualValues(t, 4, snap.SignaturesFound)
	// 4 signatures share r: C(4, 2) pairs
	assert.EqualValues(t, 6, snap.RReusePairs)
	assert.EqualValues(t, 6, snap.KeysRecovered)

	res, err := s.Results(context.Background(), id)
	require.NoError(t, err)
	assert.Len(t, res.RecoveredKeys, 6)
	assert.Equal(t, 6, res.TotalKeys)
	assert.Equal(t, 1, res.UniqueKeys)
	for _, key := range res.RecoveredKeys {
		assert.Equal(t, res.RecoveredKeys[0].PrivateKey, key.PrivateKey)
		assert.NotEqual(t, key.Signatures[0], key.Signatures[1])
	}
}

func TestScan_Boundaries(t *testing.T) {
	tests := map[string]struct {
		chain              chain
		failTransactions   bool
		start, end         int64
		expectedScanned    int64
		expectedSignatures int64
		expectedErrors     int64
	}{
		"block without transactions": {
			chain:           chain{5: nil},
			start:           5,
			end:             5,
			expectedScanned: 1,
		},
		"single signature never triggers recovery": {
			chain:              chain{5: {mustTx(t, sigtest.P2PKHReuseTx, victimKey, victimNonce, 1)}},
			start:              5,
			end:                5,
			expectedScanned:    1,
			expectedSignatures: 1,
		},
		"unavailable blocks are skipped and counted": {
			chain:           chain{1: nil, 2: nil, 4: nil},
			start:           1,
			end:             5,
			expectedScanned: 5,
			expectedErrors:  2,
		},
		"unavailable transaction is counted": {
			chain:            chain{1: {{TxID: "missing"}}},
			failTransactions: true,
			start:            1,
			end:              1,
			expectedScanned:  1,
			expectedErrors:   1,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			fetcher := test.chain.fetcher()
			if test.failTransactions {
				fetcher.TransactionFunc = func(context.Context, string) (*provider.Tx, error) {
					return nil, provider.ErrUnavailable
				}
			}
			s := newScanner(t, fetcher, testConfig)

			id, err := s.StartScan(context.Background(), test.start, test.end, []string{"legacy"})
			require.NoError(t, err)

			snap := waitDone(t, s, id)
			assert.Equal(t, store.StatusCompleted, snap.Status)
			assert.Equal(t, test.expectedScanned, snap.BlocksScanned)
			assert.Equal(t, test.expectedSignatures, snap.SignaturesFound)
			assert.Equal(t, test.expectedErrors, snap.Errors)
			assert.Zero(t, snap.RReusePairs)
			assert.Zero(t, snap.KeysRecovered)
			assert.Equal(t, 100.0, snap.ProgressPercentage)
		})
	}
}

func TestScan_MalformedTransactionDoesNotAbortScan(t *testing.T) {
	c := chain{
		1: {
			{TxID: "broken", Vin: []*provider.TxIn{nil}},
			mustTx(t, sigtest.P2PKHReuseTx, victimKey, victimNonce, 2),
		},
	}
	s := newScanner(t, c.fetcher(), testConfig)

	id, err := s.StartScan(context.Background(), 1, 1, []string{"legacy"})
	require.NoError(t, err)

	snap := waitDone(t, s, id)
	assert.Equal(t, store.StatusCompleted, snap.Status)
	assert.EqualValues(t, 1, snap.Errors)
	assert.EqualValues(t, 1, snap.KeysRecovered)
}

func TestScan_Idempotent(t *testing.T) {
	c := chain{
		10: {mustTx(t, sigtest.P2PKHReuseTx, victimKey, victimNonce, 3)},
		11: {mustTx(t, sigtest.P2PKHReuseTx, otherKey, otherNonce, 2)},
		12: {mustTx(t, sigtest.P2WPKHReuseTx, otherKey, victimNonce, 2)},
	}
	s := newScanner(t, c.fetcher(), testConfig)

	run := func() (*store.Snapshot, *store.Results) {
		id, err := s.StartScan(context.Background(), 10, 12, []string{"legacy", "segwit"})
		require.NoError(t, err)
		snap := waitDone(t, s, id)
		res, err := s.Results(context.Background(), id)
		require.NoError(t, err)
		return snap, res
	}

	firstSnap, first := run()
	secondSnap, second := run()

	// 3 pairs in block 10, 1 in block 11 and 1 in block 12; pairs across blocks 10 and 12 share r but
	// were signed by different keys
	assert.Equal(t, 5, first.TotalKeys)
	assert.Equal(t, 2, first.UniqueKeys)
	assert.Equal(t, firstSnap.SignaturesFound, secondSnap.SignaturesFound)
	assert.Equal(t, firstSnap.RReusePairs, secondSnap.RReusePairs)
	assert.Equal(t, first.RecoveredKeys, second.RecoveredKeys)
}

func TestStartScan_InvalidRequest(t *testing.T) {
	tests := map[string]struct {
		start, end   int64
		addressTypes []string
		expectedErr  error
	}{
		"end before start": {
			start:        10,
			end:          9,
			addressTypes: []string{"legacy"},
			expectedErr:  scan.ErrInvalidRange,
		},
		"negative start": {
			start:        -1,
			end:          9,
			addressTypes: []string{"legacy"},
			expectedErr:  scan.ErrInvalidRange,
		},
		"no address types": {
			start:       1,
			end:         1,
			expectedErr: scan.ErrInvalidConfig,
		},
		"unknown address type": {
			start:        1,
			end:          1,
			addressTypes: []string{"legacy", "p2sh"},
			expectedErr:  scan.ErrInvalidConfig,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			s := newScanner(t, &mocks.FetcherMock{}, testConfig)
			id, err := s.StartScan(context.Background(), test.start, test.end, test.addressTypes)
			require.ErrorIs(t, err, test.expectedErr)
			assert.Empty(t, id)

			scans, err := s.List(context.Background())
			require.NoError(t, err)
			assert.Empty(t, scans)
		})
	}
}

func TestScan_Stop(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	fetcher := chain{}.fetcher()
	fetcher.BlockHashFunc = func(_ context.Context, height int64) (string, error) {
		if height == 1 {
			close(entered)
			<-release
		}
		return blockHash(height), nil
	}

	cfg := testConfig
	cfg.BatchSize = 1
	s := newScanner(t, fetcher, cfg)

	id, err := s.StartScan(context.Background(), 1, 5, []string{"legacy"})
	require.NoError(t, err)

	<-entered
	require.NoError(t, s.Stop(context.Background(), id))
	snap, err := s.Progress(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, store.StatusStopped, snap.Status)
	assert.Zero(t, snap.CurrentBlock, "block 1 is still in flight")
	close(release)

	require.Eventually(t, func() bool {
		snap, err = s.Progress(context.Background(), id)
		return err == nil && !snap.FinishedAt.IsZero()
	}, 5*time.Second, 5*time.Millisecond)

	assert.Equal(t, store.StatusStopped, snap.Status)
	assert.EqualValues(t, 1, snap.BlocksScanned)
	assert.Len(t, fetcher.BlockHashCalls(), 1)

	// stopping a finished scan is a no-op
	require.NoError(t, s.Stop(context.Background(), id))
	res, err := s.Results(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, store.StatusStopped, res.Status)
}

func TestScanner_Close(t *testing.T) {
	fetcher := chain{}.fetcher()
	fetcher.BlockHashFunc = func(ctx context.Context, height int64) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	}
	s := scan.New(logrus.New(), fetcher, memdb.NewJobStore(), &chaincfg.MainNetParams, testConfig)

	id, err := s.StartScan(context.Background(), 1, 100, []string{"legacy"})
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		return len(fetcher.BlockHashCalls()) > 0
	}, 5*time.Second, 5*time.Millisecond)

	s.Close()

	snap, err := s.Progress(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, store.StatusStopped, snap.Status)
	assert.Less(t, snap.BlocksScanned, int64(100))
}

func TestScanner_UnknownScan(t *testing.T) {
	s := newScanner(t, &mocks.FetcherMock{}, testConfig)
	ctx := context.Background()

	_, err := s.Progress(ctx, "nope")
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = s.Results(ctx, "nope")
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = s.Export(ctx, "nope")
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.ErrorIs(t, s.Stop(ctx, "nope"), store.ErrNotFound)
}

func TestScanner_ListAndExport(t *testing.T) {
	c := chain{
		3: {mustTx(t, sigtest.P2PKHReuseTx, victimKey, victimNonce, 2)},
	}
	s := newScanner(t, c.fetcher(), testConfig)
	ctx := context.Background()

	id, err := s.StartScan(ctx, 3, 3, []string{"LEGACY", "legacy"})
	require.NoError(t, err)
	waitDone(t, s, id)

	scans, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, scans, 1)
	assert.Equal(t, id, scans[0].ID)
	assert.EqualValues(t, 3, scans[0].Config.StartBlock)
	assert.Len(t, scans[0].Config.AddressTypes, 1)

	export, err := s.Export(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, export.ID)
	assert.Equal(t, store.StatusCompleted, export.Results.Status)
	assert.Equal(t, 1, export.Results.TotalKeys)
	assert.Equal(t, scan.Statistics{
		BlocksScanned:   1,
		SignaturesFound: 2,
		RReusePairs:     1,
		KeysRecovered:   1,
		APICallsMade:    3,
	}, export.Statistics)
}
