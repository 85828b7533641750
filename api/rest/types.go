package rest

import (
	"time"

	"github.com/hedisam/rscanner/internal/signature"
)

// request and response types are defined below.
// progress, results and export responses reuse the store and scan types directly.

// MaxBalanceAddresses is the most addresses a single balance check accepts.
const MaxBalanceAddresses = 100

// DefaultAddressTypes are scanned when a start request leaves addressTypes out.
var DefaultAddressTypes = []string{string(signature.AddressLegacy), string(signature.AddressSegwit)}

type HealthRequest struct{}

type HealthResponse struct {
	Status    string   `json:"status"`
	Network   string   `json:"network"`
	Providers []string `json:"providers"`
}

type GetTipRequest struct{}

type GetTipResponse struct {
	Height int64 `json:"height"`
}

type StartScanRequest struct {
	StartBlock   int64    `json:"startBlock"`
	EndBlock     int64    `json:"endBlock"`
	AddressTypes []string `json:"addressTypes"`
}

type StartScanResponse struct {
	ScanID string `json:"scanId"`
}

type ListScansRequest struct{}

type ListScansResponse struct {
	Scans []*ScanSummary `json:"scans"`
}

type ScanSummary struct {
	ScanID             string    `json:"scanId"`
	Status             string    `json:"status"`
	StartBlock         int64     `json:"startBlock"`
	EndBlock           int64     `json:"endBlock"`
	ProgressPercentage float64   `json:"progressPercentage"`
	KeysRecovered      int64     `json:"keysRecovered"`
	CreatedAt          time.Time `json:"createdAt"`
}

// ScanRequest addresses a single scan by the {id} path variable.
type ScanRequest struct {
	ScanID string `json:"-"`
}

func (r *ScanRequest) setPathParams(vars map[string]string) {
	r.ScanID = vars["id"]
}

type StopScanResponse struct {
	Ok bool `json:"ok"`
}

type CheckBalancesRequest struct {
	Addresses []string `json:"addresses"`
}

type CheckBalancesResponse struct {
	Balances []*AddressBalance `json:"balances"`
}

// AddressBalance reports amounts in satoshi, plus the total in BTC. Error is set instead when the
// balance could not be fetched.
type AddressBalance struct {
	Address        string  `json:"address"`
	ConfirmedSat   int64   `json:"confirmedSat"`
	UnconfirmedSat int64   `json:"unconfirmedSat"`
	TotalSat       int64   `json:"totalSat"`
	TotalBTC       float64 `json:"totalBtc"`
	Error          string  `json:"error,omitempty"`
}
