package scan

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hedisam/rscanner/internal/custompromauto"
)

var (
	scansStarted = custompromauto.Auto().NewCounter(prometheus.CounterOpts{
		Namespace: custompromauto.Namespace,
		Name:      "scans_started_total",
		Help:      "Total number of scans started",
	})
	scansFinished = custompromauto.Auto().NewCounterVec(prometheus.CounterOpts{
		Namespace: custompromauto.Namespace,
		Name:      "scans_finished_total",
		Help:      "Total number of scans finished by final status",
	}, []string{"status"})

	blocksScanned = custompromauto.Auto().NewCounter(prometheus.CounterOpts{
		Namespace: custompromauto.Namespace,
		Name:      "blocks_scanned_total",
		Help:      "Total number of blocks whose transactions were scanned",
	})
	blocksFailed = custompromauto.Auto().NewCounter(prometheus.CounterOpts{
		Namespace: custompromauto.Namespace,
		Name:      "blocks_failed_total",
		Help:      "Total number of blocks skipped because their hash or txids could not be fetched",
	})
	signaturesExtracted = custompromauto.Auto().NewCounter(prometheus.CounterOpts{
		Namespace: custompromauto.Namespace,
		Name:      "signatures_extracted_total",
		Help:      "Total number of ECDSA signatures extracted from transaction inputs",
	})
	reusePairs = custompromauto.Auto().NewCounter(prometheus.CounterOpts{
		Namespace: custompromauto.Namespace,
		Name:      "r_reuse_pairs_total",
		Help:      "Total number of signature pairs from distinct inputs sharing an R value",
	})
	keysRecovered = custompromauto.Auto().NewCounter(prometheus.CounterOpts{
		Namespace: custompromauto.Namespace,
		Name:      "keys_recovered_total",
		Help:      "Total number of private keys recovered, counted once per signature pair",
	})
)
