package rest

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/hedisam/rscanner/internal/provider"
	"github.com/hedisam/rscanner/internal/scan"
	"github.com/hedisam/rscanner/internal/store"
)

// balanceLookups bounds the concurrent lookups of a single balance check.
const balanceLookups = 4

type Scanner interface {
	StartScan(ctx context.Context, startBlock, endBlock int64, addressTypes []string) (string, error)
	Progress(ctx context.Context, id string) (*store.Snapshot, error)
	Results(ctx context.Context, id string) (*store.Results, error)
	Stop(ctx context.Context, id string) error
	List(ctx context.Context) ([]*store.Snapshot, error)
	Export(ctx context.Context, id string) (*scan.Export, error)
}

type ChainReader interface {
	Providers() []string
	TipHeight(ctx context.Context) (int64, error)
	AddressBalance(ctx context.Context, address string) (*provider.Balance, error)
}

type Server struct {
	logger  *logrus.Logger
	scanner Scanner
	chain   ChainReader
	params  *chaincfg.Params
}

func NewServer(logger *logrus.Logger, scanner Scanner, chain ChainReader, params *chaincfg.Params) *Server {
	return &Server{
		logger:  logger,
		scanner: scanner,
		chain:   chain,
		params:  params,
	}
}

func (s *Server) Health(_ context.Context, _ *HealthRequest) (*HealthResponse, error) {
	return &HealthResponse{
		Status:    "healthy",
		Network:   s.params.Name,
		Providers: s.chain.Providers(),
	}, nil
}

func (s *Server) GetTip(ctx context.Context, _ *GetTipRequest) (*GetTipResponse, error) {
	logger := s.logger.WithContext(ctx)

	height, err := s.chain.TipHeight(ctx)
	if err != nil {
		if errors.Is(err, provider.ErrUnavailable) {
			logger.WithError(err).Warn("No provider returned the chain tip")
			return nil, NewErrf(http.StatusServiceUnavailable, "Chain tip is unavailable, please retry later")
		}
		logger.WithError(err).Error("Failed to get chain tip")
		return nil, NewErrf(http.StatusInternalServerError, "could not get chain tip")
	}

	return &GetTipResponse{
		Height: height,
	}, nil
}

func (s *Server) StartScan(ctx context.Context, req *StartScanRequest) (*StartScanResponse, error) {
	logger := s.logger.WithContext(ctx).WithFields(logrus.Fields{
		"start_block": req.StartBlock,
		"end_block":   req.EndBlock,
	})

	addressTypes := req.AddressTypes
	if addressTypes == nil {
		addressTypes = DefaultAddressTypes
	}

	id, err := s.scanner.StartScan(ctx, req.StartBlock, req.EndBlock, addressTypes)
	if err != nil {
		if errors.Is(err, scan.ErrInvalidRange) || errors.Is(err, scan.ErrInvalidConfig) {
			logger.WithError(err).Warn("Rejected invalid scan request")
			return nil, NewErrf(http.StatusBadRequest, "%s", capitalize(err.Error()))
		}
		logger.WithError(err).Error("Failed to start scan")
		return nil, NewErrf(http.StatusInternalServerError, "could not start scan")
	}

	logger.WithField("scan_id", id).Info("Scan started")
	return &StartScanResponse{
		ScanID: id,
	}, nil
}

func (s *Server) ListScans(ctx context.Context, _ *ListScansRequest) (*ListScansResponse, error) {
	snapshots, err := s.scanner.List(ctx)
	if err != nil {
		s.logger.WithContext(ctx).WithError(err).Error("Failed to list scans")
		return nil, NewErrf(http.StatusInternalServerError, "could not list scans")
	}

	scans := make([]*ScanSummary, 0, len(snapshots))
	for _, snap := range snapshots {
		scans = append(scans, &ScanSummary{
			ScanID:             snap.ID,
			Status:             string(snap.Status),
			StartBlock:         snap.Config.StartBlock,
			EndBlock:           snap.Config.EndBlock,
			ProgressPercentage: snap.ProgressPercentage,
			KeysRecovered:      snap.KeysRecovered,
			CreatedAt:          snap.CreatedAt,
		})
	}

	return &ListScansResponse{
		Scans: scans,
	}, nil
}

func (s *Server) GetProgress(ctx context.Context, req *ScanRequest) (*store.Snapshot, error) {
	snap, err := s.scanner.Progress(ctx, req.ScanID)
	if err != nil {
		return nil, s.scanErr(ctx, req.ScanID, err, "could not get scan progress")
	}
	return snap, nil
}

func (s *Server) GetResults(ctx context.Context, req *ScanRequest) (*store.Results, error) {
	results, err := s.scanner.Results(ctx, req.ScanID)
	if err != nil {
		return nil, s.scanErr(ctx, req.ScanID, err, "could not get scan results")
	}
	return results, nil
}

func (s *Server) StopScan(ctx context.Context, req *ScanRequest) (*StopScanResponse, error) {
	err := s.scanner.Stop(ctx, req.ScanID)
	if err != nil {
		return nil, s.scanErr(ctx, req.ScanID, err, "could not stop scan")
	}
	return &StopScanResponse{
		Ok: true,
	}, nil
}

func (s *Server) ExportScan(ctx context.Context, req *ScanRequest) (*scan.Export, error) {
	export, err := s.scanner.Export(ctx, req.ScanID)
	if err != nil {
		return nil, s.scanErr(ctx, req.ScanID, err, "could not export scan")
	}
	return export, nil
}

func (s *Server) CheckBalances(ctx context.Context, req *CheckBalancesRequest) (*CheckBalancesResponse, error) {
	logger := s.logger.WithContext(ctx)

	if len(req.Addresses) == 0 {
		logger.Warn("No addresses provided to check balances for")
		return nil, NewErrf(http.StatusBadRequest, "Missing required field: 'addresses'")
	}
	if len(req.Addresses) > MaxBalanceAddresses {
		logger.WithField("count", len(req.Addresses)).Warn("Too many addresses provided to check balances for")
		return nil, NewErrf(http.StatusBadRequest, "At most %d addresses can be checked at once", MaxBalanceAddresses)
	}

	addresses := make([]string, len(req.Addresses))
	for i, addr := range req.Addresses {
		addr = strings.TrimSpace(addr)
		decoded, err := btcutil.DecodeAddress(addr, s.params)
		if err != nil || !decoded.IsForNet(s.params) {
			logger.WithField("addr", addr).WithError(err).Warn("Invalid address provided to check balance for")
			return nil, NewErrf(http.StatusBadRequest, "Invalid %s address: %q", s.params.Name, addr)
		}
		addresses[i] = addr
	}

	balances := make([]*AddressBalance, len(addresses))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(balanceLookups)
	for i, addr := range addresses {
		g.Go(func() error {
			balances[i] = s.addressBalance(gctx, addr)
			return nil
		})
	}
	_ = g.Wait()

	return &CheckBalancesResponse{
		Balances: balances,
	}, nil
}

func (s *Server) addressBalance(ctx context.Context, addr string) *AddressBalance {
	balance, err := s.chain.AddressBalance(ctx, addr)
	if err != nil {
		s.logger.WithContext(ctx).WithField("addr", addr).WithError(err).Warn("Failed to get address balance")
		return &AddressBalance{
			Address: addr,
			Error:   "balance unavailable",
		}
	}

	total := balance.Total()
	return &AddressBalance{
		Address:        addr,
		ConfirmedSat:   int64(balance.Confirmed),
		UnconfirmedSat: int64(balance.Unconfirmed),
		TotalSat:       int64(total),
		TotalBTC:       total.ToBTC(),
	}
}

func (s *Server) scanErr(ctx context.Context, id string, err error, msg string) error {
	logger := s.logger.WithContext(ctx).WithField("scan_id", id)
	if errors.Is(err, store.ErrNotFound) {
		logger.Warn("Scan not found")
		return NewErrf(http.StatusNotFound, "Scan not found")
	}
	logger.WithError(err).Error(msg)
	return NewErrf(http.StatusInternalServerError, "%s", msg)
}

func capitalize(msg string) string {
	if msg == "" {
		return msg
	}
	return strings.ToUpper(msg[:1]) + msg[1:]
}
