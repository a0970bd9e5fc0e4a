// Package metrics exposes run outcomes as Prometheus metrics. The bot runs
// from cron, so metrics are written to a node_exporter textfile rather than
// served.
package metrics

import (
	"fmt"
	"time"

	"github.com/DiFronzo/CatWatchBot2.0/internal/engine"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "catwatch"

// Recorder holds the gauges describing the latest run.
type Recorder struct {
	registry    *prometheus.Registry
	members     *prometheus.GaugeVec
	changes     *prometheus.GaugeVec
	failed      *prometheus.GaugeVec
	scans       *prometheus.GaugeVec
	causes      prometheus.Gauge
	articles    prometheus.Gauge
	duration    prometheus.Gauge
	lastSuccess prometheus.Gauge
}

// NewRecorder creates a Recorder with its own registry.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		members: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "class_members",
			Help:      "Pages in the class's categories after the last run",
		}, []string{"class"}),
		changes: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "class_changes",
			Help:      "Pages marked or fixed in the last run",
		}, []string{"class", "action"}),
		failed: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "class_failed",
			Help:      "1 if at least one category of the class could not be read",
		}, []string{"class"}),
		scans: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "scan_outcomes",
			Help:      "Revision scans in the last run by terminal state",
		}, []string{"state"}),
		causes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "causes_logged",
			Help:      "Causes attributed in the last run",
		}),
		articles: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "site_articles",
			Help:      "Article count reported by the wiki",
		}),
		duration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of the last run",
		}),
		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last run without category failures",
		}),
	}

	r.registry.MustRegister(
		r.members, r.changes, r.failed, r.scans,
		r.causes, r.articles, r.duration, r.lastSuccess,
	)
	return r
}

// Registry returns the registry holding the recorder's metrics.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// ObserveRun records a finished run. ok reports whether the run had no
// category failures.
func (r *Recorder) ObserveRun(report *engine.RunReport, finished time.Time, ok bool) {
	for _, c := range report.Classes {
		if !c.Failed {
			r.members.WithLabelValues(c.Name).Set(float64(c.After))
		}
		r.changes.WithLabelValues(c.Name, "merket").Set(float64(len(c.Marked)))
		r.changes.WithLabelValues(c.Name, "fikset").Set(float64(len(c.Fixed)))
		r.failed.WithLabelValues(c.Name).Set(boolToFloat(c.Failed))
	}
	r.ObserveScans(&report.Scans)

	if report.StatsSaved {
		r.articles.Set(float64(report.Articles))
	}
	r.duration.Set(report.Duration.Seconds())
	if ok {
		r.lastSuccess.Set(float64(finished.Unix()))
	}
}

// ObserveScans records scan outcome counts.
func (r *Recorder) ObserveScans(summary *engine.ScanSummary) {
	for state, n := range summary.ByState {
		r.scans.WithLabelValues(state.String()).Set(float64(n))
	}
	r.causes.Set(float64(summary.Causes))
}

// WriteTextfile writes the metrics atomically to path.
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
