package core

import (
	"context"
	"encoding/json"
	"expvar"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var expvarSeq uint64

// ExpvarMetricsRecorder publishes per-operation latency totals and outcome
// counters through expvar, served on /debug/vars.
type ExpvarMetricsRecorder struct {
	name      string
	mu        sync.Mutex
	durations map[string]float64
	outcomes  map[string]map[string]int64
}

// ExpvarMetricsSnapshot is a copy of the recorded totals.
type ExpvarMetricsSnapshot struct {
	DurationsMS map[string]float64          `json:"durations_ms_total"`
	Outcomes    map[string]map[string]int64 `json:"outcomes_total"`
	RecordedAt  time.Time                   `json:"recorded_at"`
}

// NewExpvarMetricsRecorder publishes a recorder under name, generating a
// unique name when empty. expvar names are process-global.
func NewExpvarMetricsRecorder(name string) *ExpvarMetricsRecorder {
	if name == "" {
		name = fmt.Sprintf("curriculum_service_metrics_%d", atomic.AddUint64(&expvarSeq, 1))
	}
	rec := &ExpvarMetricsRecorder{
		name:      name,
		durations: make(map[string]float64),
		outcomes:  make(map[string]map[string]int64),
	}
	expvar.Publish(name, expvar.Func(func() any {
		return rec.Snapshot()
	}))
	return rec
}

// Name returns the expvar key.
func (r *ExpvarMetricsRecorder) Name() string {
	return r.name
}

// Snapshot copies the aggregated metrics.
func (r *ExpvarMetricsRecorder) Snapshot() ExpvarMetricsSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	durations := make(map[string]float64, len(r.durations))
	for op, total := range r.durations {
		durations[op] = total
	}
	outcomes := make(map[string]map[string]int64, len(r.outcomes))
	for op, counts := range r.outcomes {
		cp := make(map[string]int64, len(counts))
		for status, n := range counts {
			cp[status] = n
		}
		outcomes[op] = cp
	}
	return ExpvarMetricsSnapshot{
		DurationsMS: durations,
		Outcomes:    outcomes,
		RecordedAt:  time.Now().UTC(),
	}
}

// Observe implements MetricsRecorder.
func (r *ExpvarMetricsRecorder) Observe(_ context.Context, operation string, success bool, duration time.Duration) {
	if operation == "" {
		return
	}
	status := outcomeLabel(success)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.durations[operation] += float64(duration) / float64(time.Millisecond)
	counts, ok := r.outcomes[operation]
	if !ok {
		counts = make(map[string]int64, 2)
		r.outcomes[operation] = counts
	}
	counts[status]++
}

// PrometheusMetricsRecorder exports operation latency as a histogram and
// outcomes as a counter, both labelled by operation.
type PrometheusMetricsRecorder struct {
	duration *prometheus.HistogramVec
	total    *prometheus.CounterVec
}

// NewPrometheusMetricsRecorder registers the service collectors with reg.
// A nil registerer uses prometheus.DefaultRegisterer.
func NewPrometheusMetricsRecorder(reg prometheus.Registerer) (*PrometheusMetricsRecorder, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	rec := &PrometheusMetricsRecorder{
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "curriculum",
			Subsystem: "service",
			Name:      "operation_duration_seconds",
			Help:      "Latency of curriculum service operations.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		total: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "curriculum",
			Subsystem: "service",
			Name:      "operations_total",
			Help:      "Curriculum service operations by outcome.",
		}, []string{"operation", "outcome"}),
	}
	for _, c := range []prometheus.Collector{rec.duration, rec.total} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("register collector: %w", err)
		}
	}
	return rec, nil
}

// Observe implements MetricsRecorder.
func (r *PrometheusMetricsRecorder) Observe(_ context.Context, operation string, success bool, duration time.Duration) {
	if operation == "" {
		return
	}
	r.duration.WithLabelValues(operation).Observe(duration.Seconds())
	r.total.WithLabelValues(operation, outcomeLabel(success)).Inc()
}

// MultiMetricsRecorder fans an observation out to several recorders.
type MultiMetricsRecorder []MetricsRecorder

// Observe implements MetricsRecorder.
func (m MultiMetricsRecorder) Observe(ctx context.Context, operation string, success bool, duration time.Duration) {
	for _, rec := range m {
		if rec != nil {
			rec.Observe(ctx, operation, success, duration)
		}
	}
}

func outcomeLabel(success bool) string {
	if success {
		return "success"
	}
	return "error"
}

// JSONTraceEntry is one finished span written by JSONTraceTracer.
type JSONTraceEntry struct {
	Operation  string    `json:"operation"`
	Status     string    `json:"status"`
	DurationMS float64   `json:"duration_ms"`
	Error      string    `json:"error,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	EndedAt    time.Time `json:"ended_at"`
}

// JSONTraceTracer writes finished spans as JSON lines and keeps them for
// inspection.
type JSONTraceTracer struct {
	mu      sync.Mutex
	entries []JSONTraceEntry
	enc     *json.Encoder
}

// NewJSONTracer writes spans to w. A nil writer only retains them.
func NewJSONTracer(w io.Writer) *JSONTraceTracer {
	t := &JSONTraceTracer{}
	if w != nil {
		t.enc = json.NewEncoder(w)
	}
	return t
}

// Entries returns a copy of the finished spans.
func (t *JSONTraceTracer) Entries() []JSONTraceEntry {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]JSONTraceEntry, len(t.entries))
	copy(out, t.entries)
	return out
}

// Start implements Tracer.
func (t *JSONTraceTracer) Start(ctx context.Context, operation string) (context.Context, TraceSpan) {
	return ctx, &jsonTraceSpan{tracer: t, operation: operation, started: time.Now().UTC()}
}

type jsonTraceSpan struct {
	tracer    *JSONTraceTracer
	operation string
	started   time.Time
	once      sync.Once
}

func (s *jsonTraceSpan) End(err error) {
	s.once.Do(func() {
		ended := time.Now().UTC()
		entry := JSONTraceEntry{
			Operation:  s.operation,
			Status:     outcomeLabel(err == nil),
			DurationMS: float64(ended.Sub(s.started)) / float64(time.Millisecond),
			StartedAt:  s.started,
			EndedAt:    ended,
		}
		if err != nil {
			entry.Error = err.Error()
		}
		s.tracer.mu.Lock()
		defer s.tracer.mu.Unlock()
		s.tracer.entries = append(s.tracer.entries, entry)
		if s.tracer.enc != nil {
			_ = s.tracer.enc.Encode(entry)
		}
	})
}
