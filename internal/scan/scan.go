package scan

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/hedisam/rscanner/internal/provider"
	"github.com/hedisam/rscanner/internal/signature"
	"github.com/hedisam/rscanner/internal/store"
)

var (
	// ErrInvalidRange is returned when the end block precedes the start block.
	ErrInvalidRange = errors.New("end block must be greater than or equal to start block")
	// ErrInvalidConfig is returned for an empty or unknown set of address types.
	ErrInvalidConfig = errors.New("at least one valid address type must be selected")
)

// Fetcher provides the chain data a scan walks through.
type Fetcher interface {
	BlockHash(ctx context.Context, height int64) (string, error)
	BlockTxIDs(ctx context.Context, hash string) ([]string, error)
	Transaction(ctx context.Context, txID string) (*provider.Tx, error)
}

type JobStore interface {
	InsertJob(ctx context.Context, job *store.Job) error
	GetJob(ctx context.Context, id string) (*store.Job, error)
	ListJobs(ctx context.Context) ([]*store.Job, error)
}

// Config bounds the work a single scan does at once.
type Config struct {
	BatchSize           int64
	MaxConcurrentBlocks int
	MaxConcurrentTxs    int
	BatchDelay          time.Duration
	LogCapacity         int
	LogTail             int
}

// Scanner runs scans in the background and answers queries about them.
type Scanner struct {
	logger  *logrus.Logger
	fetcher Fetcher
	jobs    JobStore
	params  *chaincfg.Params
	cfg     Config
	now     func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func New(logger *logrus.Logger, fetcher Fetcher, jobs JobStore, params *chaincfg.Params, cfg Config) *Scanner {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scanner{
		logger:  logger,
		fetcher: fetcher,
		jobs:    jobs,
		params:  params,
		cfg:     cfg,
		now:     time.Now,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Close cancels the running scans and waits for them to wind down. They end up stopped.
func (s *Scanner) Close() {
	s.cancel()
	s.wg.Wait()
}

// StartScan validates the request, registers a new job and scans it in the background.
func (s *Scanner) StartScan(ctx context.Context, startBlock, endBlock int64, addressTypes []string) (string, error) {
	if startBlock < 0 || endBlock < startBlock {
		return "", fmt.Errorf("%w: [%d, %d]", ErrInvalidRange, startBlock, endBlock)
	}
	types, err := signature.ParseAddressTypes(addressTypes)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if len(types) == 0 {
		return "", ErrInvalidConfig
	}

	job := store.NewJob(uuid.NewString(), store.ScanConfig{
		StartBlock:   startBlock,
		EndBlock:     endBlock,
		AddressTypes: types,
	}, s.cfg.LogCapacity, s.cfg.LogTail, s.now())
	if err := s.jobs.InsertJob(ctx, job); err != nil {
		return "", fmt.Errorf("could not register scan: %w", err)
	}

	s.wg.Add(1)
	go s.run(job)

	scansStarted.Inc()
	return job.ID(), nil
}

// Progress returns a snapshot of the scan's progress.
func (s *Scanner) Progress(ctx context.Context, id string) (*store.Snapshot, error) {
	job, err := s.jobs.GetJob(ctx, id)
	if err != nil {
		return nil, err
	}
	return job.Snapshot(s.now()), nil
}

// Results returns the keys recovered by the scan so far.
func (s *Scanner) Results(ctx context.Context, id string) (*store.Results, error) {
	job, err := s.jobs.GetJob(ctx, id)
	if err != nil {
		return nil, err
	}
	return job.Results(), nil
}

// Stop asks the scan to stop. Blocks already being scanned are finished first.
func (s *Scanner) Stop(ctx context.Context, id string) error {
	job, err := s.jobs.GetJob(ctx, id)
	if err != nil {
		return err
	}
	if job.RequestStop(s.now()) {
		s.log(job, logrus.WarnLevel, "Stop requested")
	}
	return nil
}

// List returns a snapshot of every scan, oldest first.
func (s *Scanner) List(ctx context.Context) ([]*store.Snapshot, error) {
	jobs, err := s.jobs.ListJobs(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now()
	out := make([]*store.Snapshot, 0, len(jobs))
	for _, job := range jobs {
		out = append(out, job.Snapshot(now))
	}
	return out, nil
}

// Export is a self contained report of a scan.
type Export struct {
	ID         string           `json:"scanId"`
	Config     store.ScanConfig `json:"config"`
	Results    *store.Results   `json:"results"`
	Statistics Statistics       `json:"statistics"`
	ExportedAt time.Time        `json:"exportedAt"`
}

type Statistics struct {
	BlocksScanned   int64 `json:"blocksScanned"`
	SignaturesFound int64 `json:"signaturesFound"`
	RReusePairs     int64 `json:"rReusePairs"`
	KeysRecovered   int64 `json:"keysRecovered"`
	APICallsMade    int64 `json:"apiCallsMade"`
	Errors          int64 `json:"errorsEncountered"`
}

// Export bundles the scan's config, results and statistics.
func (s *Scanner) Export(ctx context.Context, id string) (*Export, error) {
	job, err := s.jobs.GetJob(ctx, id)
	if err != nil {
		return nil, err
	}

	c := job.Counters()
	return &Export{
		ID:      job.ID(),
		Config:  job.Config(),
		Results: job.Results(),
		Statistics: Statistics{
			BlocksScanned:   c.BlocksScanned,
			SignaturesFound: c.SignaturesFound,
			RReusePairs:     c.RReusePairs,
			KeysRecovered:   c.KeysRecovered,
			APICallsMade:    c.APICallsMade,
			Errors:          c.Errors,
		},
		ExportedAt: s.now(),
	}, nil
}

func (s *Scanner) run(job *store.Job) {
	defer s.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			s.logger.WithField("scan_id", job.ID()).WithField("stack", string(debug.Stack())).Error("Scan panicked")
			s.finish(job, store.StatusFailed, fmt.Sprintf("panic: %v", r))
		}
	}()

	if err := job.Start(s.now()); err != nil {
		s.finish(job, store.StatusStopped, "")
		return
	}

	err := s.scan(s.ctx, job)
	switch {
	case err == nil:
		s.finish(job, store.StatusCompleted, "")
	case errors.Is(err, context.Canceled):
		s.finish(job, store.StatusStopped, "")
	default:
		s.finish(job, store.StatusFailed, err.Error())
	}
}

func (s *Scanner) finish(job *store.Job, status store.Status, failure string) {
	final := job.Finish(status, failure, s.now())
	scansFinished.WithLabelValues(string(final)).Inc()

	c := job.Counters()
	switch final {
	case store.StatusFailed:
		s.log(job, logrus.ErrorLevel, "Scan failed: %s", failure)
	default:
		s.log(job, logrus.InfoLevel, "Scan %s! Processed %d blocks, found %d signatures, %d reuse pairs and %d private keys",
			final, c.BlocksScanned, c.SignaturesFound, c.RReusePairs, c.KeysRecovered)
	}
}

func (s *Scanner) log(job *store.Job, level logrus.Level, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	job.Log(level, msg, s.now())
	s.logger.WithField("scan_id", job.ID()).Log(level, msg)
}
