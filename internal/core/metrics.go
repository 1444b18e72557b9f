package core

import (
	"context"
	"expvar"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// MetricsRecorder receives per-operation timing and outcome observations from
// the service layer.
type MetricsRecorder interface {
	Observe(ctx context.Context, operation string, success bool, duration time.Duration)
}

// PrometheusMetricsRecorder publishes operation metrics to a Prometheus
// registry: a duration histogram and a result counter labelled by operation
// and status.
type PrometheusMetricsRecorder struct {
	durations *prometheus.HistogramVec
	results   *prometheus.CounterVec
}

// NewPrometheusMetricsRecorder constructs a recorder and registers its
// collectors with reg (prometheus.DefaultRegisterer when nil).
func NewPrometheusMetricsRecorder(reg prometheus.Registerer) (*PrometheusMetricsRecorder, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	r := &PrometheusMetricsRecorder{
		durations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "communitycore_operation_duration_seconds",
			Help:    "Store operation latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
		results: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "communitycore_operation_results_total",
			Help: "Total store operation outcomes.",
		}, []string{"operation", "status"}),
	}
	for _, c := range []prometheus.Collector{r.durations, r.results} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("register collector: %w", err)
		}
	}
	return r, nil
}

// Observe records a service operation outcome.
func (r *PrometheusMetricsRecorder) Observe(_ context.Context, operation string, success bool, duration time.Duration) {
	if operation == "" {
		return
	}
	status := "error"
	if success {
		status = "success"
	}
	r.durations.WithLabelValues(operation).Observe(duration.Seconds())
	r.results.WithLabelValues(operation, status).Inc()
}

var expvarSeq uint64

// ExpvarMetricsRecorder keeps one running tally per operation in process
// memory and exports the whole table through expvar. The CLI uses it so a
// command run shows its own operation totals without a Prometheus registry.
type ExpvarMetricsRecorder struct {
	name string

	mu  sync.Mutex
	ops map[string]*OperationTotals
}

// OperationTotals accumulates timing and outcome counts for one operation.
type OperationTotals struct {
	DurationMS float64 `json:"duration_ms_total"`
	Success    int64   `json:"success_total"`
	Failure    int64   `json:"failure_total"`
}

// ExpvarMetricsSnapshot is a point-in-time copy of a recorder's table.
type ExpvarMetricsSnapshot struct {
	Operations map[string]OperationTotals `json:"operations"`
	RecordedAt time.Time                  `json:"recorded_at"`
}

// NewExpvarMetricsRecorder publishes a recorder under name via expvar. An
// empty name gets a generated communitycore_metrics_N identifier so multiple
// recorders can coexist in one process.
func NewExpvarMetricsRecorder(name string) *ExpvarMetricsRecorder {
	if name == "" {
		name = fmt.Sprintf("communitycore_metrics_%d", atomic.AddUint64(&expvarSeq, 1))
	}
	rec := &ExpvarMetricsRecorder{name: name, ops: make(map[string]*OperationTotals)}
	expvar.Publish(name, expvar.Func(func() any {
		return rec.Snapshot()
	}))
	return rec
}

// Name returns the expvar export name.
func (r *ExpvarMetricsRecorder) Name() string { return r.name }

// Observe records a service operation outcome.
func (r *ExpvarMetricsRecorder) Observe(_ context.Context, operation string, success bool, duration time.Duration) {
	if operation == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	tally := r.ops[operation]
	if tally == nil {
		tally = &OperationTotals{}
		r.ops[operation] = tally
	}
	tally.DurationMS += float64(duration) / float64(time.Millisecond)
	if success {
		tally.Success++
	} else {
		tally.Failure++
	}
}

// Snapshot copies the table; mutating the result does not affect the recorder.
func (r *ExpvarMetricsRecorder) Snapshot() ExpvarMetricsSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	ops := make(map[string]OperationTotals, len(r.ops))
	for op, tally := range r.ops {
		ops[op] = *tally
	}
	return ExpvarMetricsSnapshot{Operations: ops, RecordedAt: time.Now().UTC()}
}
