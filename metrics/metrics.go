// Package metrics defines prometheus metric types and provides convenience
// methods to add accounting to various parts of the pipeline.
//
// When defining new operations or metrics, these are helpful values to track:
//  - things coming into or go out of the system: requests, files, tests, api calls.
//  - the success or error status of any of the above.
//  - the distribution of processing latency.
package metrics

import (
	"log"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// DNSQueriesTotal counts DNS questions received, labeled by the
	// resolved qtype and the subdomain that selected the quota table row.
	//
	// Provides metrics:
	//   darkseed_dns_queries_total
	DNSQueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "darkseed_dns_queries_total",
			Help: "Number of DNS questions received, by qtype and subdomain.",
		}, []string{"qtype", "subdomain"})

	// DNSRefusedTotal counts DNS questions answered with REFUSED, labeled
	// by reason (multi_question, bad_qtype).
	DNSRefusedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "darkseed_dns_refused_total",
			Help: "Number of DNS questions refused, by reason.",
		}, []string{"reason"})

	// DNSResponseSizeHistogram tracks the wire size in bytes of DNS
	// responses sent, labeled by transport.
	DNSResponseSizeHistogram = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "darkseed_dns_response_size_bytes",
			Help: "DNS response size distribution in bytes, by transport.",
			Buckets: []float64{
				32, 64, 128, 256, 512, 1024, 2048, 4096, 8192, 16384, 32768, 65535,
			},
		}, []string{"transport"})

	// RESTRequestsTotal counts REST API requests served, labeled by route.
	RESTRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "darkseed_rest_requests_total",
			Help: "Number of REST API requests served, by route.",
		}, []string{"route"})

	// RefreshTotal counts completed, successful snapshot refresh cycles.
	RefreshTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "darkseed_refresh_total",
			Help: "Number of successful node pool refresh cycles.",
		},
	)

	// RefreshFailures counts refresh cycles that failed to locate or
	// parse a snapshot. The previously published pool is left intact.
	RefreshFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "darkseed_refresh_failures_total",
			Help: "Number of refresh cycles that failed to load a snapshot.",
		},
	)

	// RefreshRowsTotal counts the total number of CSV rows seen across all
	// refresh cycles.
	RefreshRowsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "darkseed_refresh_rows_total",
			Help: "Total number of snapshot rows read across all refreshes.",
		},
	)

	// RefreshRowsBadPort counts rows dropped for using a non-canonical port.
	RefreshRowsBadPort = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "darkseed_refresh_rows_bad_port_total",
			Help: "Total number of snapshot rows dropped for a non-canonical port.",
		},
	)

	// RefreshRowsIncompleteHandshake counts rows dropped for not completing
	// a handshake with the crawler.
	RefreshRowsIncompleteHandshake = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "darkseed_refresh_rows_incomplete_handshake_total",
			Help: "Total number of snapshot rows dropped for an incomplete handshake.",
		},
	)

	// RefreshRowsGood counts rows accepted into the published pool.
	RefreshRowsGood = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "darkseed_refresh_rows_good_total",
			Help: "Total number of snapshot rows accepted into the pool.",
		},
	)

	// PoolSize tracks the number of nodes currently published, by network.
	PoolSize = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "darkseed_pool_size",
			Help: "Number of nodes currently held in the published pool, by network.",
		}, []string{"network"})
)

// init() prints a log message to let the user know that the package has been
// loaded and the metrics registered. The metrics are auto-registered, which
// means they are registered as soon as this package is loaded, and the exact
// time this occurs (and whether this occurs at all in a given context) can be
// opaque.
func init() {
	log.Println("Prometheus metrics in darkseed.metrics are registered.")
}
