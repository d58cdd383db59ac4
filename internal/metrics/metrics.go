// Package metrics records client-side operation outcomes with Prometheus collectors.
package metrics

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/desertthunder/recipebox/internal/shared"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// Outcome labels.
const (
	OutcomeSuccess      = "success"
	OutcomeFailure      = "failure"
	OutcomeUnauthorized = "unauthorized"
	OutcomeConflict     = "conflict"
	OutcomeDiscarded    = "discarded"
)

// Outcome maps an operation result to its outcome label.
func Outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeSuccess
	case errors.Is(err, shared.ErrUnauthorized), errors.Is(err, shared.ErrNotAuthenticated):
		return OutcomeUnauthorized
	case errors.Is(err, shared.ErrRecordConflict), errors.Is(err, shared.ErrAlreadyInProgress):
		return OutcomeConflict
	}
	return OutcomeFailure
}

// Recorder is the metrics sink used by the session, repository and workflow layers.
type Recorder interface {
	RecordOperation(op, outcome string)
	RecordLatency(op string, d time.Duration)
	RecordCollectionSize(n int)
	RecordSessionExpired()
}

// Nop discards everything.
type Nop struct{}

func (Nop) RecordOperation(string, string)      {}
func (Nop) RecordLatency(string, time.Duration) {}
func (Nop) RecordCollectionSize(int)            {}
func (Nop) RecordSessionExpired()               {}

// OrNop returns r, or [Nop] when r is nil.
func OrNop(r Recorder) Recorder {
	if r == nil {
		return Nop{}
	}
	return r
}

// Collector is the Prometheus-backed [Recorder].
type Collector struct {
	operations *prometheus.CounterVec
	latency    *prometheus.HistogramVec
	collection prometheus.Gauge
	expired    prometheus.Counter
}

// NewCollector creates a [Collector] and registers its metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "recipebox_operations_total",
			Help: "Operations by name and outcome.",
		}, []string{"operation", "outcome"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "recipebox_operation_latency_seconds",
			Help:    "Round-trip latency of remote operations in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
		collection: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "recipebox_collection_records",
			Help: "Records currently held in the local collection.",
		}),
		expired: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "recipebox_session_expired_total",
			Help: "Sessions cleared after an authorization rejection.",
		}),
	}

	reg.MustRegister(c.operations, c.latency, c.collection, c.expired)
	return c
}

// RecordOperation counts one finished operation.
func (c *Collector) RecordOperation(op, outcome string) {
	c.operations.WithLabelValues(op, outcome).Inc()
}

// RecordLatency observes the duration of one remote operation.
func (c *Collector) RecordLatency(op string, d time.Duration) {
	c.latency.WithLabelValues(op).Observe(d.Seconds())
}

// RecordCollectionSize sets the current collection size.
func (c *Collector) RecordCollectionSize(n int) {
	c.collection.Set(float64(n))
}

// RecordSessionExpired counts one centrally handled session expiry.
func (c *Collector) RecordSessionExpired() {
	c.expired.Inc()
}

// Dump writes every gathered sample as "name{labels} value" lines, sorted by name.
func Dump(w io.Writer, gatherer prometheus.Gatherer) error {
	families, err := gatherer.Gather()
	if err != nil {
		return fmt.Errorf("failed to gather metrics: %w", err)
	}

	sort.Slice(families, func(i, j int) bool { return families[i].GetName() < families[j].GetName() })

	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			if _, err := fmt.Fprintf(w, "%s%s %s\n", mf.GetName(), formatLabels(m.GetLabel()), formatValue(mf.GetType(), m)); err != nil {
				return err
			}
		}
	}
	return nil
}

func formatLabels(pairs []*dto.LabelPair) string {
	if len(pairs) == 0 {
		return ""
	}
	parts := make([]string, 0, len(pairs))
	for _, p := range pairs {
		parts = append(parts, fmt.Sprintf("%s=%q", p.GetName(), p.GetValue()))
	}
	return "{" + strings.Join(parts, ",") + "}"
}

func formatValue(kind dto.MetricType, m *dto.Metric) string {
	switch kind {
	case dto.MetricType_COUNTER:
		return fmt.Sprintf("%g", m.GetCounter().GetValue())
	case dto.MetricType_GAUGE:
		return fmt.Sprintf("%g", m.GetGauge().GetValue())
	case dto.MetricType_HISTOGRAM:
		h := m.GetHistogram()
		return fmt.Sprintf("count=%d sum=%.3fs", h.GetSampleCount(), h.GetSampleSum())
	default:
		return fmt.Sprintf("%g", m.GetUntyped().GetValue())
	}
}
