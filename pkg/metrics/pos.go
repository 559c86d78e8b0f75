package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// POSMetrics records register activity for the diagnostics endpoint.
type POSMetrics struct {
	checkoutDuration *prometheus.HistogramVec
	checkoutSuccess  *prometheus.CounterVec
	checkoutFailure  *prometheus.CounterVec
	scans            prometheus.Counter
	resolverMisses   prometheus.Counter
	catalogReloads   *prometheus.CounterVec
}

// NewPOSMetrics registers the register metrics on the provided registerer.
func NewPOSMetrics(reg prometheus.Registerer) *POSMetrics {
	if reg == nil {
		return &POSMetrics{}
	}
	checkoutDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "checkout_duration_seconds",
		Help:    "Duration of checkout submissions in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"payment_method"})
	checkoutSuccess := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_success",
		Help: "Committed sales.",
	}, []string{"payment_method"})
	checkoutFailure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_failure",
		Help: "Rejected or failed checkout submissions.",
	}, []string{"payment_method"})
	scans := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "scan_tokens_total",
		Help: "Barcode or name tokens handled by the resolver.",
	})
	resolverMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "resolver_misses_total",
		Help: "Scan tokens that resolved to no product.",
	})
	catalogReloads := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_reloads_total",
		Help: "Catalog cache reload attempts by outcome.",
	}, []string{"outcome"})
	reg.MustRegister(checkoutDuration, checkoutSuccess, checkoutFailure, scans, resolverMisses, catalogReloads)
	return &POSMetrics{
		checkoutDuration: checkoutDuration,
		checkoutSuccess:  checkoutSuccess,
		checkoutFailure:  checkoutFailure,
		scans:            scans,
		resolverMisses:   resolverMisses,
		catalogReloads:   catalogReloads,
	}
}

// ObserveCheckoutDuration records the duration of one submission.
func (p *POSMetrics) ObserveCheckoutDuration(method string, duration time.Duration) {
	if p == nil || p.checkoutDuration == nil {
		return
	}
	p.checkoutDuration.WithLabelValues(normalizeLabel(method)).Observe(duration.Seconds())
}

// IncCheckoutSuccess increments the committed sale counter.
func (p *POSMetrics) IncCheckoutSuccess(method string) {
	if p == nil || p.checkoutSuccess == nil {
		return
	}
	p.checkoutSuccess.WithLabelValues(normalizeLabel(method)).Inc()
}

// IncCheckoutFailure increments the failed submission counter.
func (p *POSMetrics) IncCheckoutFailure(method string) {
	if p == nil || p.checkoutFailure == nil {
		return
	}
	p.checkoutFailure.WithLabelValues(normalizeLabel(method)).Inc()
}

// IncScan counts one handled scan token.
func (p *POSMetrics) IncScan() {
	if p == nil || p.scans == nil {
		return
	}
	p.scans.Inc()
}

// IncResolverMiss counts one unresolved scan token.
func (p *POSMetrics) IncResolverMiss() {
	if p == nil || p.resolverMisses == nil {
		return
	}
	p.resolverMisses.Inc()
}

// IncCatalogReload counts one reload attempt with its outcome.
func (p *POSMetrics) IncCatalogReload(outcome string) {
	if p == nil || p.catalogReloads == nil {
		return
	}
	p.catalogReloads.WithLabelValues(normalizeLabel(outcome)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
