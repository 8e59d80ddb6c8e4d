package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector owns the engine's Prometheus series. A nil *Collector is a
// valid no-op so domain services can run without metrics.
type Collector struct {
	registry *prometheus.Registry

	httpRequests     *prometheus.CounterVec
	httpDuration     *prometheus.HistogramVec
	transitions      *prometheus.CounterVec
	policyGaps       *prometheus.CounterVec
	chainLength      prometheus.Histogram
	versionConflicts prometheus.Counter
	scoringFailures  prometheus.Counter
	noApprover       prometheus.Counter
	cacheLookups     *prometheus.CounterVec
}

func New() *Collector {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Collector{
		registry: reg,
		httpRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "appraisal_http_requests_total",
			Help: "HTTP requests by method and status code.",
		}, []string{"method", "code"}),
		httpDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "appraisal_http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method"}),
		transitions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "appraisal_transitions_total",
			Help: "Appraisal status transitions.",
		}, []string{"from", "to"}),
		policyGaps: f.NewCounterVec(prometheus.CounterOpts{
			Name: "appraisal_policy_gaps_total",
			Help: "Policy gaps observed while resolving approval chains.",
		}, []string{"reason"}),
		chainLength: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "appraisal_chain_length",
			Help:    "Number of approvers in resolved chains.",
			Buckets: []float64{0, 1, 2, 3, 4, 5, 6},
		}),
		versionConflicts: f.NewCounter(prometheus.CounterOpts{
			Name: "appraisal_version_conflicts_total",
			Help: "Optimistic concurrency conflicts on appraisal writes.",
		}),
		scoringFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "appraisal_scoring_failures_total",
			Help: "Scoring collaborator failures at completion.",
		}),
		noApprover: f.NewCounter(prometheus.CounterOpts{
			Name: "appraisal_no_approver_total",
			Help: "Appraisals completed with an empty frozen chain.",
		}),
		cacheLookups: f.NewCounterVec(prometheus.CounterOpts{
			Name: "appraisal_policy_cache_lookups_total",
			Help: "Policy cache lookups by result.",
		}, []string{"result"}),
	}
}

func (c *Collector) Record(method string, status int, duration time.Duration) {
	if c == nil {
		return
	}
	c.httpRequests.WithLabelValues(method, strconv.Itoa(status)).Inc()
	c.httpDuration.WithLabelValues(method).Observe(duration.Seconds())
}

func (c *Collector) Transition(from, to string) {
	if c == nil {
		return
	}
	c.transitions.WithLabelValues(from, to).Inc()
}

func (c *Collector) PolicyGap(reason string) {
	if c == nil {
		return
	}
	c.policyGaps.WithLabelValues(reason).Inc()
}

func (c *Collector) ChainResolved(length int) {
	if c == nil {
		return
	}
	c.chainLength.Observe(float64(length))
}

func (c *Collector) VersionConflict() {
	if c == nil {
		return
	}
	c.versionConflicts.Inc()
}

func (c *Collector) ScoringFailure() {
	if c == nil {
		return
	}
	c.scoringFailures.Inc()
}

func (c *Collector) NoApprover() {
	if c == nil {
		return
	}
	c.noApprover.Inc()
}

func (c *Collector) CacheLookup(hit bool) {
	if c == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	c.cacheLookups.WithLabelValues(result).Inc()
}

// Handler exposes the registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}
