// Package telemetry exports path-selection and fabric counters to Prometheus.
// A nil *Collector is valid and records nothing, so the simulator can call it
// unconditionally.
package telemetry

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// DefaultNamespace prefixes every metric name.
const DefaultNamespace = "uecmp"

// completionBuckets spans 10us to ~40ms in ticks (ns).
var completionBuckets = prometheus.ExponentialBuckets(10_000, 2, 13)

// Collector owns the Prometheus metrics of one simulation run.
type Collector struct {
	registry *prometheus.Registry

	selections     *prometheus.CounterVec
	feedback       *prometheus.CounterVec
	pathPackets    *prometheus.CounterVec
	mqlUpdates     *prometheus.CounterVec
	frozenFlows    prometheus.Gauge
	flowCompletion prometheus.Histogram
}

// NewCollector creates the metrics and registers them on registry. If registry
// is nil a fresh one is created. An empty namespace selects DefaultNamespace.
func NewCollector(namespace string, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	if namespace == "" {
		namespace = DefaultNamespace
	}

	c := &Collector{
		registry: registry,
		selections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "selections_total",
			Help:      "Entropy values handed out by path selectors.",
		}, []string{"policy"}),
		feedback: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "feedback_total",
			Help:      "Path feedback events delivered to selectors, by kind.",
		}, []string{"policy", "kind"}),
		pathPackets: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "path_packets_total",
			Help:      "Packets routed onto each fabric path.",
		}, []string{"path"}),
		mqlUpdates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mql_updates_total",
			Help:      "Queue-level reports delivered to selectors, by level.",
		}, []string{"level"}),
		frozenFlows: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "frozen_flows",
			Help:      "Flows whose REPS selector is in frozen mode.",
		}),
		flowCompletion: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "flow_completion_ticks",
			Help:      "Flow completion time in simulation ticks.",
			Buckets:   completionBuckets,
		}),
	}
	registry.MustRegister(c.selections, c.feedback, c.pathPackets, c.mqlUpdates, c.frozenFlows, c.flowCompletion)
	return c
}

// Registry returns the registry the metrics are registered on.
func (c *Collector) Registry() *prometheus.Registry { return c.registry }

// RecordSelection counts one entropy selection.
func (c *Collector) RecordSelection(policy string) {
	if c == nil {
		return
	}
	c.selections.WithLabelValues(policy).Inc()
}

// RecordFeedback counts one feedback event of the given kind.
func (c *Collector) RecordFeedback(policy, kind string) {
	if c == nil {
		return
	}
	c.feedback.WithLabelValues(policy, kind).Inc()
}

// RecordPathPacket counts one packet routed onto path.
func (c *Collector) RecordPathPacket(path int) {
	if c == nil {
		return
	}
	c.pathPackets.WithLabelValues(strconv.Itoa(path)).Inc()
}

// RecordMql counts one queue-level report.
func (c *Collector) RecordMql(level uint8) {
	if c == nil {
		return
	}
	c.mqlUpdates.WithLabelValues(strconv.Itoa(int(level))).Inc()
}

// SetFrozenFlows sets the number of frozen flows.
func (c *Collector) SetFrozenFlows(n int) {
	if c == nil {
		return
	}
	c.frozenFlows.Set(float64(n))
}

// RecordFlowCompletion observes one flow completion time.
func (c *Collector) RecordFlowCompletion(ticks int64) {
	if c == nil {
		return
	}
	c.flowCompletion.Observe(float64(ticks))
}

// Handler returns an HTTP handler exposing the collector's registry.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
		ErrorHandling:     promhttp.ContinueOnError,
	})
}
