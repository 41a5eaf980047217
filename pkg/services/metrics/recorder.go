package metrics

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	"github.com/de-tools/compliance-signals/pkg/models/domain"
)

const namespace = "compliance_signals"

// Recorder holds the batch metrics of a single run on a private registry.
type Recorder struct {
	job      string
	registry *prometheus.Registry

	rowsRead       prometheus.Gauge
	records        *prometheus.GaugeVec
	enrichFailures prometheus.Gauge
	duration       prometheus.Gauge
	lastSuccess    prometheus.Gauge
	runs           *prometheus.CounterVec
}

func NewRecorder(job string) *Recorder {
	r := &Recorder{job: job, registry: prometheus.NewRegistry()}

	r.rowsRead = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "rows_read",
		Help:      "CSV rows read from the export in the last run",
	})
	r.records = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "records_written",
		Help:      "Records written in the last run by risk bucket",
	}, []string{"risk"})
	r.enrichFailures = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "enrich_failures",
		Help:      "Rows that fell back to the static enrichment record",
	})
	r.duration = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "run_duration_seconds",
		Help:      "Wall time of the last run",
	})
	r.lastSuccess = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "last_success_timestamp_seconds",
		Help:      "Unix timestamp of the last successful run",
	})
	r.runs = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "runs_total",
		Help:      "Runs by final status",
	}, []string{"status"})

	r.registry.MustRegister(
		r.rowsRead, r.records, r.enrichFailures,
		r.duration, r.lastSuccess, r.runs,
	)
	return r
}

func (r *Recorder) Observe(run domain.Run, risks domain.RiskCounts) {
	r.rowsRead.Set(float64(run.RowsRead))
	r.enrichFailures.Set(float64(run.EnrichFailures))
	r.runs.WithLabelValues(string(run.Status)).Inc()

	for _, risk := range []domain.Risk{domain.RiskHigh, domain.RiskMed, domain.RiskLow} {
		r.records.WithLabelValues(string(risk)).Set(float64(risks[risk]))
	}

	if !run.FinishedAt.IsZero() {
		r.duration.Set(run.FinishedAt.Sub(run.StartedAt).Seconds())
		if run.Status == domain.RunStatusSucceeded {
			r.lastSuccess.Set(float64(run.FinishedAt.Unix()))
		}
	}
}

// Push replaces the job's metric group on the Pushgateway.
func (r *Recorder) Push(ctx context.Context, url string, mode domain.Mode) error {
	err := push.New(url, r.job).
		Gatherer(r.registry).
		Grouping("mode", string(mode)).
		PushContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to push metrics to %s: %w", url, err)
	}
	return nil
}
