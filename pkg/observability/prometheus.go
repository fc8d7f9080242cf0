package observability

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "interflow"

// Prometheus implements every hook interface with client_golang metrics.
type Prometheus struct {
	builds        *prometheus.CounterVec
	buildDuration prometheus.Histogram
	diagramApps   prometheus.Histogram
	payloadBytes  prometheus.Histogram

	cacheLookups *prometheus.CounterVec
	cacheWrites  *prometheus.CounterVec

	batchFiles    *prometheus.CounterVec
	batchDuration prometheus.Histogram

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
}

// NewPrometheus creates the metrics and registers them on reg.
func NewPrometheus(reg prometheus.Registerer) *Prometheus {
	f := promauto.With(reg)
	return &Prometheus{
		builds: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "builds_total",
			Help:      "Diagram builds by status",
		}, []string{"status"}),
		buildDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "build_duration_seconds",
			Help:      "Duration of diagram builds in seconds",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}),
		diagramApps: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "diagram_apps",
			Help:      "Application columns per built diagram",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 8),
		}),
		payloadBytes: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "payload_bytes",
			Help:      "Size of encoded viewer payloads in bytes",
			Buckets:   prometheus.ExponentialBuckets(256, 2, 10),
		}),
		cacheLookups: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "lookups_total",
			Help:      "Cache lookups by key type and result",
		}, []string{"key_type", "result"}),
		cacheWrites: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "writes_total",
			Help:      "Cache writes by key type",
		}, []string{"key_type"}),
		batchFiles: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "batch",
			Name:      "files_total",
			Help:      "Batch input files by outcome",
		}, []string{"outcome"}),
		batchDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "batch",
			Name:      "run_duration_seconds",
			Help:      "Duration of batch runs in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 5, 10, 30, 60, 300},
		}),
		httpRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by method, route and status code",
		}, []string{"method", "route", "status_code"}),
		httpDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}, []string{"method", "route"}),
	}
}

func (p *Prometheus) OnBuildStart(context.Context, int) {}

func (p *Prometheus) OnBuildComplete(_ context.Context, apps, _ int, d time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	p.builds.WithLabelValues(status).Inc()
	p.buildDuration.Observe(d.Seconds())
	if err == nil {
		p.diagramApps.Observe(float64(apps))
	}
}

func (p *Prometheus) OnEncodeComplete(_ context.Context, size int, _ time.Duration) {
	p.payloadBytes.Observe(float64(size))
}

func (p *Prometheus) OnCacheHit(_ context.Context, keyType string) {
	p.cacheLookups.WithLabelValues(keyType, "hit").Inc()
}

func (p *Prometheus) OnCacheMiss(_ context.Context, keyType string) {
	p.cacheLookups.WithLabelValues(keyType, "miss").Inc()
}

func (p *Prometheus) OnCacheSet(_ context.Context, keyType string, _ int) {
	p.cacheWrites.WithLabelValues(keyType).Inc()
}

func (p *Prometheus) OnFileDone(_ context.Context, _ string, outcome string, _ time.Duration) {
	p.batchFiles.WithLabelValues(outcome).Inc()
}

func (p *Prometheus) OnBatchComplete(_ context.Context, _, _, _ int, d time.Duration) {
	p.batchDuration.Observe(d.Seconds())
}

func (p *Prometheus) OnResponse(_ context.Context, method, route string, status int, d time.Duration) {
	p.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	p.httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

var (
	_ PipelineHooks = (*Prometheus)(nil)
	_ CacheHooks    = (*Prometheus)(nil)
	_ BatchHooks    = (*Prometheus)(nil)
	_ HTTPHooks     = (*Prometheus)(nil)
)
