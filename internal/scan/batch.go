package scan

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/hedisam/rscanner/internal/signature"
	"github.com/hedisam/rscanner/internal/store"
)

// batchResult collects what the block tasks of one batch produced.
type batchResult struct {
	mu      sync.Mutex
	records []*signature.Record

	blocks   atomic.Int64
	apiCalls atomic.Int64
	errors   atomic.Int64
}

func (b *batchResult) add(records []*signature.Record) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.records = append(b.records, records...)
}

// scan walks the job's block range batch by batch and correlates the signatures found once done or
// stopped. It returns the context error if the scanner was closed.
func (s *Scanner) scan(ctx context.Context, job *store.Job) error {
	cfg := job.Config()
	s.log(job, logrus.InfoLevel, "Scanning blocks %d to %d (%d blocks) for %v signatures",
		cfg.StartBlock, cfg.EndBlock, cfg.TotalBlocks(), cfg.AddressTypes)

	groups := make(map[string][]*signature.Record)
	for batchStart := cfg.StartBlock; batchStart <= cfg.EndBlock; batchStart += s.cfg.BatchSize {
		if job.Stopped() || ctx.Err() != nil {
			break
		}

		batchEnd := min(batchStart+s.cfg.BatchSize-1, cfg.EndBlock)
		s.log(job, logrus.InfoLevel, "Processing batch: blocks %d to %d", batchStart, batchEnd)

		res := s.scanBatch(ctx, job, batchStart, batchEnd, cfg.AddressTypes)
		for _, rec := range res.records {
			groups[rec.RHex()] = append(groups[rec.RHex()], rec)
		}

		launched := res.blocks.Load()
		job.Update(s.now(), func(c *store.Counters) {
			if launched > 0 {
				c.CurrentBlock = max(c.CurrentBlock, batchStart+launched-1)
			}
			c.BlocksScanned += launched
			c.SignaturesFound += int64(len(res.records))
			c.APICallsMade += res.apiCalls.Load()
			c.Errors += res.errors.Load()
		})
		signaturesExtracted.Add(float64(len(res.records)))

		s.log(job, logrus.InfoLevel, "Batch complete: %d signatures, %d reused R values found so far",
			len(res.records), countCandidates(groups))

		if batchEnd < cfg.EndBlock && !s.pause(ctx) {
			break
		}
	}

	pairs, keys := s.correlate(job, groups)
	job.SetResults(pairs, keys, s.now())

	return ctx.Err()
}

// pause sleeps for the batch delay and reports whether the context is still alive.
func (s *Scanner) pause(ctx context.Context) bool {
	if s.cfg.BatchDelay <= 0 {
		return ctx.Err() == nil
	}

	t := time.NewTimer(s.cfg.BatchDelay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// scanBatch scans the blocks [from, to] concurrently. The stop flag is checked before each block is
// launched, blocks already launched run to completion.
func (s *Scanner) scanBatch(ctx context.Context, job *store.Job, from, to int64, types []signature.AddressType) *batchResult {
	res := &batchResult{}

	var g errgroup.Group
	g.SetLimit(s.cfg.MaxConcurrentBlocks)
	for height := from; height <= to; height++ {
		if job.Stopped() || ctx.Err() != nil {
			break
		}
		res.blocks.Add(1)
		g.Go(func() error {
			defer func() {
				if r := recover(); r != nil {
					res.errors.Add(1)
					s.log(job, logrus.ErrorLevel, "Scanning block %d panicked: %v", height, r)
				}
			}()
			res.add(s.scanBlock(ctx, job, height, types, res))
			return nil
		})
	}
	_ = g.Wait()

	return res
}

// scanBlock returns the signatures of every transaction in the block at height. Failures are logged,
// counted and yield no signatures.
func (s *Scanner) scanBlock(ctx context.Context, job *store.Job, height int64, types []signature.AddressType, res *batchResult) []*signature.Record {
	logger := s.logger.WithFields(logrus.Fields{
		"scan_id":      job.ID(),
		"block_height": height,
	})

	res.apiCalls.Add(1)
	hash, err := s.fetcher.BlockHash(ctx, height)
	if err != nil || hash == "" {
		res.errors.Add(1)
		blocksFailed.Inc()
		s.log(job, logrus.WarnLevel, "Failed to get block hash for %d: %v", height, err)
		return nil
	}

	res.apiCalls.Add(1)
	txIDs, err := s.fetcher.BlockTxIDs(ctx, hash)
	if err != nil {
		res.errors.Add(1)
		blocksFailed.Inc()
		s.log(job, logrus.WarnLevel, "Failed to get transactions of block %d: %v", height, err)
		return nil
	}

	var (
		mu      sync.Mutex
		records []*signature.Record
		failed  atomic.Int64
	)
	var g errgroup.Group
	g.SetLimit(s.cfg.MaxConcurrentTxs)
	for _, txID := range txIDs {
		g.Go(func() error {
			defer func() {
				if r := recover(); r != nil {
					failed.Add(1)
					logger.WithField("txid", txID).Errorf("Extracting signatures panicked: %v", r)
				}
			}()

			res.apiCalls.Add(1)
			tx, err := s.fetcher.Transaction(ctx, txID)
			if err != nil || tx == nil {
				failed.Add(1)
				logger.WithField("txid", txID).WithError(err).Debug("Failed to get transaction")
				return nil
			}

			found := signature.Extract(tx, types)
			if len(found) == 0 {
				return nil
			}
			mu.Lock()
			records = append(records, found...)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	if n := failed.Load(); n > 0 {
		res.errors.Add(n)
		s.log(job, logrus.WarnLevel, "Failed to get %d of %d transactions in block %d", n, len(txIDs), height)
	}

	blocksScanned.Inc()
	logger.WithFields(logrus.Fields{
		"block_hash": hash,
		"total_txs":  len(txIDs),
		"signatures": len(records),
	}).Debug("Scanned block")

	return records
}

func countCandidates(groups map[string][]*signature.Record) int {
	var n int
	for _, group := range groups {
		if len(group) > 1 {
			n++
		}
	}
	return n
}
