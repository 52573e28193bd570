package metrics

import (
	"fmt"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "many_plugins"

// Recorder collects plugin invocation metrics. It implements
// pluginmanager.Observer.
type Recorder struct {
	registry *prometheus.Registry
	started  *prometheus.CounterVec
	failures *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewRecorder creates a Recorder with its own registry.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		started: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "plugin_runs_total",
			Help:      "Number of plugin invocations.",
		}, []string{"plugin"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "plugin_failures_total",
			Help:      "Number of plugin invocations that failed.",
		}, []string{"plugin"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "plugin_duration_seconds",
			Help:      "Plugin invocation duration.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}, []string{"plugin"}),
	}
	r.registry.MustRegister(r.started, r.failures, r.duration)
	return r
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// PluginStarted counts an invocation of plugin index.
func (r *Recorder) PluginStarted(index int) {
	r.started.WithLabelValues(strconv.Itoa(index)).Inc()
}

// PluginFinished records the duration of plugin index and counts err as a failure.
func (r *Recorder) PluginFinished(index int, elapsed time.Duration, err error) {
	label := strconv.Itoa(index)
	r.duration.WithLabelValues(label).Observe(elapsed.Seconds())
	if err != nil {
		r.failures.WithLabelValues(label).Inc()
	}
}

// WriteFile writes the collected metrics in the text exposition format,
// suitable for the node_exporter textfile collector.
func (r *Recorder) WriteFile(filename string) error {
	if err := prometheus.WriteToTextfile(filename, r.registry); err != nil {
		return fmt.Errorf("writing metrics file %s: %w", filename, err)
	}
	return nil
}
