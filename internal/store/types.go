package store

import (
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/hedisam/rscanner/internal/signature"
)

var (
	// ErrNotFound is returned when an item in store is not found.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is returned when inserting an item whose id is taken.
	ErrAlreadyExists = errors.New("already exists")
)

// Status is the lifecycle state of a scan.
type Status string

const (
	StatusInitializing Status = "initializing"
	StatusRunning      Status = "running"
	StatusCompleted    Status = "completed"
	StatusFailed       Status = "failed"
	StatusStopped      Status = "stopped"
)

// Terminal reports whether no further transitions can happen from s.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusStopped
}

// ScanConfig is the immutable request a scan was started with.
type ScanConfig struct {
	StartBlock   int64                   `json:"startBlock"`
	EndBlock     int64                   `json:"endBlock"`
	AddressTypes []signature.AddressType `json:"addressTypes"`
}

// TotalBlocks returns the number of blocks in the inclusive range.
func (c ScanConfig) TotalBlocks() int64 {
	return c.EndBlock - c.StartBlock + 1
}

// Counters are the running totals of a scan.
type Counters struct {
	CurrentBlock    int64 `json:"currentBlock"`
	BlocksScanned   int64 `json:"blocksScanned"`
	SignaturesFound int64 `json:"signaturesFound"`
	RReusePairs     int64 `json:"rReusePairs"`
	KeysRecovered   int64 `json:"keysRecovered"`
	APICallsMade    int64 `json:"apiCallsMade"`
	Errors          int64 `json:"errorsEncountered"`
}

// LogEntry is a line of the per-scan log.
type LogEntry struct {
	Timestamp time.Time    `json:"timestamp"`
	Level     logrus.Level `json:"level"`
	Message   string       `json:"message"`
}

// SignatureRef identifies one of the two signatures a key was recovered from.
type SignatureRef struct {
	TxID          string `json:"txid"`
	InputIndex    int    `json:"inputIndex"`
	S             string `json:"s"`
	Type          string `json:"type"`
	MessageDigest string `json:"messageDigest"`
	PubKey        string `json:"pubKey,omitempty"`
}

// RecoveredKey is a private key recovered from a pair of signatures sharing R.
type RecoveredKey struct {
	PrivateKey          string          `json:"privateKey"`
	WIF                 string          `json:"wif"`
	CompressedAddress   string          `json:"compressedAddress"`
	UncompressedAddress string          `json:"uncompressedAddress"`
	SegwitAddress       string          `json:"segwitAddress"`
	TaprootAddress      string          `json:"taprootAddress"`
	Verified            bool            `json:"verified"`
	R                   string          `json:"r"`
	Signatures          [2]SignatureRef `json:"signatures"`
}

// Snapshot is a point in time copy of a scan's progress.
type Snapshot struct {
	ID     string     `json:"scanId"`
	Config ScanConfig `json:"config"`
	Status Status     `json:"status"`
	Counters
	TotalBlocks            int64      `json:"totalBlocks"`
	ProgressPercentage     float64    `json:"progressPercentage"`
	BlocksPerMinute        float64    `json:"blocksPerMinute"`
	EstimatedTimeRemaining string     `json:"estimatedTimeRemaining"`
	Logs                   []LogEntry `json:"logs"`
	Failure                string     `json:"failure,omitempty"`
	CreatedAt              time.Time  `json:"createdAt"`
	StartedAt              time.Time  `json:"startedAt,omitzero"`
	UpdatedAt              time.Time  `json:"updatedAt"`
	FinishedAt             time.Time  `json:"finishedAt,omitzero"`
}

// Results are the recovered keys of a scan along with its counts. Each reuse pair that yields a key
// contributes one entry, so UniqueKeys counts the distinct private keys among them.
type Results struct {
	ID              string          `json:"scanId"`
	Status          Status          `json:"status"`
	RecoveredKeys   []*RecoveredKey `json:"recoveredKeys"`
	TotalKeys       int             `json:"totalKeys"`
	UniqueKeys      int             `json:"uniqueKeys"`
	RReusePairs     int64           `json:"rReusePairs"`
	SignaturesFound int64           `json:"signaturesFound"`
}
