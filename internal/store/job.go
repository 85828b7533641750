package store

import (
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/hedisam/rscanner/internal/ringbuffer"
)

// Job is the registry entry of a single scan. All access goes through its own lock, so the scan
// goroutine and the API handlers can share it.
type Job struct {
	mu sync.RWMutex

	id       string
	config   ScanConfig
	status   Status
	counters Counters
	logs     *ringbuffer.RingBuffer[LogEntry]
	logTail  int
	keys     []*RecoveredKey
	failure  string

	createdAt  time.Time
	startedAt  time.Time
	updatedAt  time.Time
	finishedAt time.Time
}

// NewJob returns a job in the initializing state keeping up to logCapacity log entries, of which
// snapshots expose the newest logTail. CurrentBlock stays zero until the first batch of blocks is done.
func NewJob(id string, cfg ScanConfig, logCapacity, logTail int, now time.Time) *Job {
	return &Job{
		id:        id,
		config:    cfg,
		status:    StatusInitializing,
		logs:      ringbuffer.New[LogEntry](uint(max(logCapacity, 0))),
		logTail:   logTail,
		createdAt: now,
		updatedAt: now,
	}
}

func (j *Job) ID() string {
	return j.id
}

func (j *Job) Config() ScanConfig {
	return j.config
}

func (j *Job) Status() Status {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.status
}

func (j *Job) CreatedAt() time.Time {
	return j.createdAt
}

// Start moves an initializing job to running.
func (j *Job) Start(now time.Time) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.status != StatusInitializing {
		return fmt.Errorf("cannot start scan in status %s", j.status)
	}
	j.status = StatusRunning
	j.startedAt = now
	j.updatedAt = now
	return nil
}

// RequestStop marks a job that hasn't finished yet as stopped and reports whether it did.
func (j *Job) RequestStop(now time.Time) bool {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.status.Terminal() {
		return false
	}
	j.status = StatusStopped
	j.updatedAt = now
	return true
}

// Stopped reports whether a stop was requested.
func (j *Job) Stopped() bool {
	return j.Status() == StatusStopped
}

// Finish records the final state of the scan. A stopped job stays stopped unless it failed.
func (j *Job) Finish(status Status, failure string, now time.Time) Status {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.status != StatusStopped || status == StatusFailed {
		j.status = status
	}
	j.failure = failure
	j.finishedAt = now
	j.updatedAt = now
	return j.status
}

// Log appends an entry to the job's log, evicting the oldest one when full.
func (j *Job) Log(level logrus.Level, msg string, now time.Time) {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.logs.PushEvict(LogEntry{Timestamp: now, Level: level, Message: msg})
}

// Update applies fn to the counters under the job lock.
func (j *Job) Update(now time.Time, fn func(c *Counters)) {
	j.mu.Lock()
	defer j.mu.Unlock()

	fn(&j.counters)
	j.updatedAt = now
}

// Counters returns a copy of the current counters.
func (j *Job) Counters() Counters {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.counters
}

// SetResults stores the outcome of the reuse correlation.
func (j *Job) SetResults(pairs int64, keys []*RecoveredKey, now time.Time) {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.counters.RReusePairs = pairs
	j.counters.KeysRecovered = int64(len(keys))
	j.keys = slices.Clone(keys)
	j.updatedAt = now
}

// Snapshot returns a consistent copy of the job's progress at now.
func (j *Job) Snapshot(now time.Time) *Snapshot {
	j.mu.RLock()
	defer j.mu.RUnlock()

	total := j.config.TotalBlocks()
	snap := &Snapshot{
		ID:                     j.id,
		Config:                 j.config,
		Status:                 j.status,
		Counters:               j.counters,
		TotalBlocks:            total,
		EstimatedTimeRemaining: "unknown",
		Logs:                   j.logs.Last(j.logTail),
		Failure:                j.failure,
		CreatedAt:              j.createdAt,
		StartedAt:              j.startedAt,
		UpdatedAt:              j.updatedAt,
		FinishedAt:             j.finishedAt,
	}
	if total > 0 {
		snap.ProgressPercentage = float64(j.counters.BlocksScanned) / float64(total) * 100
	}

	end := now
	if !j.finishedAt.IsZero() {
		end = j.finishedAt
	}
	elapsed := end.Sub(j.startedAt)
	if j.startedAt.IsZero() || elapsed <= 0 || j.counters.BlocksScanned == 0 {
		return snap
	}

	snap.BlocksPerMinute = float64(j.counters.BlocksScanned) / elapsed.Minutes()
	if remaining := total - j.counters.BlocksScanned; remaining >= 0 {
		snap.EstimatedTimeRemaining = formatRemaining(float64(remaining) / snap.BlocksPerMinute)
	}
	return snap
}

func formatRemaining(minutes float64) string {
	if minutes < 60 {
		return fmt.Sprintf("%.1f minutes", minutes)
	}
	return fmt.Sprintf("%.1f hours", minutes/60)
}

// Results returns the recovered keys and counts.
func (j *Job) Results() *Results {
	j.mu.RLock()
	defer j.mu.RUnlock()

	unique := make(map[string]struct{}, len(j.keys))
	for _, key := range j.keys {
		unique[key.PrivateKey] = struct{}{}
	}

	return &Results{
		ID:              j.id,
		Status:          j.status,
		RecoveredKeys:   append([]*RecoveredKey{}, j.keys...),
		TotalKeys:       len(j.keys),
		UniqueKeys:      len(unique),
		RReusePairs:     j.counters.RReusePairs,
		SignaturesFound: j.counters.SignaturesFound,
	}
}
