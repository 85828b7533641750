package custompromauto

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Namespace prefixes every metric exposed by the scanner.
const Namespace = "rscanner"

var registry *prometheus.Registry
var auto promauto.Factory

func init() {
	registry = prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	auto = promauto.With(registry)
}

// Auto returns a factory registering collectors with the scanner registry.
func Auto() promauto.Factory {
	return auto
}

// Registry returns the scanner registry. It excludes the default http handler metrics.
func Registry() *prometheus.Registry {
	return registry
}
