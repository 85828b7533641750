package provider

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"

	"github.com/hedisam/pipeline/chans"
)

// Kind names the response shape a provider speaks.
type Kind string

const (
	KindEsplora    Kind = "esplora"
	KindCryptoAPIs Kind = "cryptoapis"
)

// Provider is one remote source of chain data.
type Provider interface {
	Name() string
	TipHeight(ctx context.Context) (int64, error)
	BlockHash(ctx context.Context, height int64) (string, error)
	BlockTxIDs(ctx context.Context, hash string) ([]string, error)
	Transaction(ctx context.Context, txID string) (*Tx, error)
	AddressBalance(ctx context.Context, address string) (*Balance, error)
}

// Endpoint describes a configured provider.
type Endpoint struct {
	Name          string
	Kind          Kind
	BaseURL       string
	APIKey        string
	MaxConcurrent int64
	// Priority orders providers for tip height lookups, lower first.
	Priority int
}

// Options configures the providers built by New.
type Options struct {
	GlobalMaxConcurrent int64
	RequestTimeout      time.Duration
	Retry               RetryConfig
	// Network is the CryptoAPIs network path segment, e.g. mainnet or testnet.
	Network   string
	Endpoints []Endpoint
}

// Orchestrator fans calls out over several providers.
type Orchestrator struct {
	logger    *logrus.Logger
	providers []Provider
	next      atomic.Uint64
}

// New builds a client per endpoint, all sharing one global concurrency cap, and returns an
// Orchestrator over them ordered by priority.
func New(logger *logrus.Logger, opts Options) (*Orchestrator, error) {
	if len(opts.Endpoints) == 0 {
		return nil, errors.New("no provider endpoints configured")
	}
	if opts.GlobalMaxConcurrent <= 0 {
		return nil, fmt.Errorf("invalid global max concurrent: %d", opts.GlobalMaxConcurrent)
	}

	httpClient := &http.Client{Timeout: opts.RequestTimeout}
	global := semaphore.NewWeighted(opts.GlobalMaxConcurrent)

	endpoints := slices.Clone(opts.Endpoints)
	slices.SortStableFunc(endpoints, func(a, b Endpoint) int {
		return cmp.Compare(a.Priority, b.Priority)
	})

	providers := make([]Provider, 0, len(endpoints))
	for _, ep := range endpoints {
		if ep.MaxConcurrent <= 0 {
			return nil, fmt.Errorf("provider %q: invalid max concurrent: %d", ep.Name, ep.MaxConcurrent)
		}
		t := &transport{
			logger:     logger,
			name:       ep.Name,
			baseURL:    strings.TrimSuffix(ep.BaseURL, "/"),
			header:     http.Header{"Accept": {"application/json"}},
			httpClient: httpClient,
			global:     global,
			local:      semaphore.NewWeighted(ep.MaxConcurrent),
			retry:      opts.Retry,
		}

		switch ep.Kind {
		case KindEsplora:
			providers = append(providers, &Esplora{t: t})
		case KindCryptoAPIs:
			if ep.APIKey == "" {
				logger.WithField("provider", ep.Name).Warn("CryptoAPIs provider has no API key, skipping it")
				continue
			}
			t.header.Set("X-API-Key", ep.APIKey)
			providers = append(providers, &CryptoAPIs{t: t, network: opts.Network})
		default:
			return nil, fmt.Errorf("provider %q: unknown kind %q", ep.Name, ep.Kind)
		}
	}
	if len(providers) == 0 {
		return nil, errors.New("no usable provider configured")
	}

	return NewOrchestrator(logger, providers...), nil
}

// NewOrchestrator returns an Orchestrator over providers, given in priority order.
func NewOrchestrator(logger *logrus.Logger, providers ...Provider) *Orchestrator {
	return &Orchestrator{
		logger:    logger,
		providers: providers,
	}
}

// Providers returns the provider names in priority order.
func (o *Orchestrator) Providers() []string {
	names := make([]string, 0, len(o.providers))
	for _, p := range o.providers {
		names = append(names, p.Name())
	}
	return names
}

// TipHeight asks the providers one at a time in priority order and returns the first positive height.
func (o *Orchestrator) TipHeight(ctx context.Context) (int64, error) {
	for _, p := range o.providers {
		height, err := p.TipHeight(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return 0, ctx.Err()
			}
			o.logger.WithField("provider", p.Name()).WithError(err).Warn("Failed to get tip height, trying next provider")
			continue
		}
		if height > 0 {
			return height, nil
		}
	}

	unavailable.WithLabelValues("tip_height").Inc()
	return 0, ErrUnavailable
}

// BlockHash races all providers for the hash of the block at height.
func (o *Orchestrator) BlockHash(ctx context.Context, height int64) (string, error) {
	return race(ctx, o, "block_hash", func(ctx context.Context, p Provider) (string, error) {
		return p.BlockHash(ctx, height)
	}, func(hash string) resultQuality { return qualityOf(hash != "", true) })
}

// BlockTxIDs races all providers for the txids of the block with the given hash.
func (o *Orchestrator) BlockTxIDs(ctx context.Context, hash string) ([]string, error) {
	return race(ctx, o, "block_txids", func(ctx context.Context, p Provider) ([]string, error) {
		return p.BlockTxIDs(ctx, hash)
	}, func(txIDs []string) resultQuality { return qualityOf(len(txIDs) > 0, true) })
}

// Transaction races all providers for the transaction with the given id. A transaction missing the
// outputs its inputs spend is only returned if no provider reports them.
func (o *Orchestrator) Transaction(ctx context.Context, txID string) (*Tx, error) {
	return race(ctx, o, "transaction", func(ctx context.Context, p Provider) (*Tx, error) {
		return p.Transaction(ctx, txID)
	}, func(tx *Tx) resultQuality {
		if tx == nil {
			return resultEmpty
		}
		return qualityOf(tx.TxID != "", tx.HasPrevouts())
	})
}

// AddressBalance picks providers round-robin, moving on to the next one if the picked provider fails.
func (o *Orchestrator) AddressBalance(ctx context.Context, address string) (*Balance, error) {
	start := int((o.next.Add(1) - 1) % uint64(len(o.providers)))
	for i := range len(o.providers) {
		p := o.providers[(start+i)%len(o.providers)]
		balance, err := p.AddressBalance(ctx, address)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			o.logger.WithFields(logrus.Fields{
				"provider": p.Name(),
				"address":  address,
			}).WithError(err).Warn("Failed to get address balance")
			continue
		}
		return balance, nil
	}

	unavailable.WithLabelValues("address_balance").Inc()
	return nil, ErrUnavailable
}

type resultQuality int

const (
	resultEmpty resultQuality = iota
	resultPartial
	resultComplete
)

func qualityOf(nonEmpty, complete bool) resultQuality {
	switch {
	case !nonEmpty:
		return resultEmpty
	case !complete:
		return resultPartial
	default:
		return resultComplete
	}
}

type raceResult[T any] struct {
	provider string
	value    T
	err      error
}

// race calls every provider concurrently and returns the first complete result. The context passed to
// the losing calls is cancelled once a winner is picked. A partial result wins only once every provider
// has answered without a complete one, the earliest partial result being returned. If every provider
// succeeded with an empty result, the empty result is returned without error.
func race[T any](
	ctx context.Context,
	o *Orchestrator,
	operation string,
	call func(context.Context, Provider) (T, error),
	quality func(T) resultQuality,
) (T, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make(chan raceResult[T])
	var wg sync.WaitGroup
	for _, p := range o.providers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := call(ctx, p)
			chans.SendOrDone(ctx, results, raceResult[T]{provider: p.Name(), value: v, err: err})
		}()
	}
	go func() {
		wg.Wait()
		close(results)
	}()

	var (
		zero     T
		partial  T
		sawEmpty bool
		havePart bool
	)
	for res := range chans.ReceiveOrDoneSeq(ctx, results) {
		if res.err != nil {
			o.logger.WithFields(logrus.Fields{
				"provider":  res.provider,
				"operation": operation,
			}).WithError(res.err).Debug("Provider returned no result")
			continue
		}
		switch quality(res.value) {
		case resultEmpty:
			sawEmpty = true
		case resultPartial:
			if !havePart {
				partial, havePart = res.value, true
			}
		default:
			return res.value, nil
		}
	}

	if err := ctx.Err(); err != nil {
		return zero, err
	}
	if havePart {
		return partial, nil
	}
	if sawEmpty {
		return zero, nil
	}
	unavailable.WithLabelValues(operation).Inc()
	return zero, ErrUnavailable
}
