package metrics

import (
	"time"

	"github.com/oicur0t/logl-check/internal/report"
	"github.com/oicur0t/logl-check/pkg/models"
	"github.com/prometheus/client_golang/prometheus"
)

// Recorder collects the gauges of one check run for node_exporter's
// textfile collector.
type Recorder struct {
	registry *prometheus.Registry

	lines      *prometheus.GaugeVec
	matches    *prometheus.GaugeVec
	keptAlerts *prometheus.GaugeVec
	status     prometheus.Gauge
	lastRun    prometheus.Gauge
}

// NewRecorder creates a Recorder with its own registry.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		lines: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "logl_check",
			Name:      "lines_scanned",
			Help:      "Lines read from a log stream by the last run.",
		}, []string{"file"}),
		matches: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "logl_check",
			Name:      "matches",
			Help:      "Messages matched in a log stream by the last run.",
		}, []string{"file", "severity"}),
		keptAlerts: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "logl_check",
			Name:      "kept_alerts",
			Help:      "Alerts from earlier runs still within their retention window.",
		}, []string{"file"}),
		status: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "logl_check",
			Name:      "status",
			Help:      "Overall status of the last run (0 OK, 1 WARNING, 2 CRITICAL, 3 UNKNOWN).",
		}),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "logl_check",
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the last run finished.",
		}),
	}

	r.registry.MustRegister(r.lines, r.matches, r.keptAlerts, r.status, r.lastRun)
	return r
}

// Observe records a finished run.
func (r *Recorder) Observe(s report.Summary, finished time.Time) {
	for _, res := range s.Results {
		r.lines.WithLabelValues(res.Path).Set(float64(res.LinesCount))
		r.matches.WithLabelValues(res.Path, models.SeverityWarning.String()).Set(float64(res.Count(models.SeverityWarning)))
		r.matches.WithLabelValues(res.Path, models.SeverityCritical.String()).Set(float64(res.Count(models.SeverityCritical)))
		r.keptAlerts.WithLabelValues(res.Path).Set(0)
	}
	for _, k := range s.Kept {
		r.keptAlerts.WithLabelValues(k.Path).Inc()
	}
	r.status.Set(float64(s.Severity))
	r.lastRun.Set(float64(finished.Unix()))
}

// ObserveFailure records a run that ended UNKNOWN.
func (r *Recorder) ObserveFailure(finished time.Time) {
	r.status.Set(float64(models.SeverityUnknown))
	r.lastRun.Set(float64(finished.Unix()))
}

// WriteFile atomically writes the metrics in text exposition format.
func (r *Recorder) WriteFile(path string) error {
	return prometheus.WriteToTextfile(path, r.registry)
}
