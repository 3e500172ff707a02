package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder exposes application metrics through Prometheus.
type Recorder struct {
	scansTotal       *prometheus.CounterVec
	scanErrors       *prometheus.CounterVec
	cacheLookups     *prometheus.CounterVec
	broadcastsTotal  prometheus.Counter
	signalsLast      prometheus.Gauge
	connectedViewers prometheus.Gauge
	upstreamDuration *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		scansTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "optionsentinel_scans_total",
				Help: "Total number of per-ticker flow scans",
			},
			[]string{"ticker"},
		),
		scanErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "optionsentinel_scan_errors_total",
				Help: "Total number of failed per-ticker scans",
			},
			[]string{"ticker"},
		),
		cacheLookups: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "optionsentinel_cache_lookups_total",
				Help: "Upstream cache lookups by outcome",
			},
			[]string{"outcome"},
		),
		broadcastsTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "optionsentinel_broadcasts_total",
				Help: "Total number of flow broadcasts sent",
			},
		),
		signalsLast: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "optionsentinel_signals_last",
				Help: "Signal count in the most recent broadcast",
			},
		),
		connectedViewers: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "optionsentinel_connected_viewers",
				Help: "Currently connected push-channel viewers",
			},
		),
		upstreamDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "optionsentinel_upstream_duration_seconds",
				Help:    "Duration of upstream market-data calls in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"endpoint"},
		),
	}
}

// RecordScan records a completed per-ticker scan.
func (r *Recorder) RecordScan(ticker string) {
	r.scansTotal.WithLabelValues(ticker).Inc()
}

// RecordScanError records a failed per-ticker scan.
func (r *Recorder) RecordScanError(ticker string) {
	r.scanErrors.WithLabelValues(ticker).Inc()
}

// RecordCacheLookup records a cache hit or miss.
func (r *Recorder) RecordCacheLookup(outcome string) {
	r.cacheLookups.WithLabelValues(outcome).Inc()
}

// RecordBroadcast records a broadcast and its signal count.
func (r *Recorder) RecordBroadcast(signals int) {
	r.broadcastsTotal.Inc()
	r.signalsLast.Set(float64(signals))
}

// SetConnectedViewers updates the connected viewers gauge.
func (r *Recorder) SetConnectedViewers(n int) {
	r.connectedViewers.Set(float64(n))
}

// RecordUpstreamLatency records upstream call latency in seconds.
func (r *Recorder) RecordUpstreamLatency(endpoint string, seconds float64) {
	r.upstreamDuration.WithLabelValues(endpoint).Observe(seconds)
}
