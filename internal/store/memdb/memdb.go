// Package memdb keeps scan jobs in process memory. Nothing survives a restart.
package memdb

// DefaultMemSize is the initial capacity of the job map.
const DefaultMemSize = 64

type config struct {
	memSize int
}

// Option customizes a JobStore.
type Option func(*config)

// WithMemSize sets the initial capacity of the job map. Negative sizes are ignored.
func WithMemSize(memSize int) Option {
	return func(c *config) {
		if memSize >= 0 {
			c.memSize = memSize
		}
	}
}
