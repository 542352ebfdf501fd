// Package metrics provides Prometheus metrics for observability.
package metrics

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// TopologyRefreshes tracks topology rebuilds by outcome.
	TopologyRefreshes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "topology_refreshes_total",
			Help: "Total topology rebuilds by status",
		},
		[]string{"status"},
	)

	// TopologyRefreshDuration tracks how long a rebuild takes, fetch included.
	TopologyRefreshDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "topology_refresh_duration_seconds",
			Help:    "Topology rebuild duration in seconds",
			Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		},
	)

	// TopologyLastRefresh holds the unix time of the last successful rebuild.
	TopologyLastRefresh = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "topology_last_refresh_timestamp_seconds",
			Help: "Unix time of the last successful topology rebuild",
		},
	)

	// TopologyEntities tracks the size of the current snapshot by entity kind.
	TopologyEntities = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "topology_entities",
			Help: "Number of entities in the current topology snapshot by kind",
		},
		[]string{"kind"},
	)

	// InventoryFetchDuration tracks inventory source fetch duration.
	InventoryFetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "inventory_fetch_duration_seconds",
			Help:    "Inventory fetch duration in seconds by source",
			Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"source"},
	)

	// InventoryFetchErrors tracks failed inventory fetches.
	InventoryFetchErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inventory_fetch_errors_total",
			Help: "Total failed inventory fetches by source",
		},
		[]string{"source"},
	)

	// FilterCompilations tracks device filter compilations by result.
	FilterCompilations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "filter_compilations_total",
			Help: "Total device filter compilations by result",
		},
		[]string{"result"},
	)

	// HTTPRequestsTotal tracks total HTTP requests.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests by method, path, and status",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDuration tracks HTTP request duration.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// GRPCRequestsTotal tracks total gRPC requests.
	GRPCRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "grpc_requests_total",
			Help: "Total gRPC requests by method and status",
		},
		[]string{"method", "status"},
	)

	// GRPCRequestDuration tracks gRPC request duration.
	GRPCRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "grpc_request_duration_seconds",
			Help:    "gRPC request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)

	// CacheHits tracks cache hit/miss ratio.
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_operations_total",
			Help: "Total cache operations by type (hit/miss)",
		},
		[]string{"cache", "result"},
	)
)

// RegisterMetricsEndpoint registers the /metrics endpoint on a Gin router.
func RegisterMetricsEndpoint(router *gin.Engine) {
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// RecordTopologyRefresh records the outcome and duration of a rebuild.
func RecordTopologyRefresh(err error, seconds float64) {
	TopologyRefreshDuration.Observe(seconds)
	if err != nil {
		TopologyRefreshes.WithLabelValues("error").Inc()
		return
	}
	TopologyRefreshes.WithLabelValues("success").Inc()
	TopologyLastRefresh.SetToCurrentTime()
}

// SetTopologySize publishes the entity counts of the current snapshot.
func SetTopologySize(devices, ports, links, sites, locations int) {
	TopologyEntities.WithLabelValues("device").Set(float64(devices))
	TopologyEntities.WithLabelValues("port").Set(float64(ports))
	TopologyEntities.WithLabelValues("link").Set(float64(links))
	TopologyEntities.WithLabelValues("site").Set(float64(sites))
	TopologyEntities.WithLabelValues("location").Set(float64(locations))
}

// RecordInventoryFetch records an inventory fetch against a source.
func RecordInventoryFetch(source string, err error, seconds float64) {
	InventoryFetchDuration.WithLabelValues(source).Observe(seconds)
	if err != nil {
		InventoryFetchErrors.WithLabelValues(source).Inc()
	}
}

// RecordFilterCompilation records a device filter compilation.
func RecordFilterCompilation(result string) {
	FilterCompilations.WithLabelValues(result).Inc()
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(method, path, status string) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(method, path string, seconds float64) {
	HTTPRequestDuration.WithLabelValues(method, path).Observe(seconds)
}

// RecordGRPCRequest records a gRPC request.
func RecordGRPCRequest(method, status string) {
	GRPCRequestsTotal.WithLabelValues(method, status).Inc()
}

// RecordGRPCRequestDuration records gRPC request duration.
func RecordGRPCRequestDuration(method string, seconds float64) {
	GRPCRequestDuration.WithLabelValues(method).Observe(seconds)
}

// RecordCacheOperation records a cache operation.
func RecordCacheOperation(cache, result string) {
	CacheHits.WithLabelValues(cache, result).Inc()
}
