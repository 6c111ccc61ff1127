package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/leaklens/leaklens/internal/model"
)

// Prometheus metrics
var (
	scansTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "leaklens", Subsystem: "scan", Name: "runs_total", Help: "Total number of scan runs by outcome."},
		[]string{"outcome"},
	)
	probeRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "leaklens", Subsystem: "probe", Name: "runs_total", Help: "Total number of probe executions by probe and terminal status."},
		[]string{"probe", "status"},
	)
	probeDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "leaklens",
			Subsystem: "probe",
			Name:      "duration_seconds",
			Help:      "Probe execution time in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"probe"},
	)
	scoreGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{Namespace: "leaklens", Subsystem: "scan", Name: "privacy_score", Help: "Latest composite privacy score by risk level."},
		[]string{"risk_level"},
	)
	findingsGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{Namespace: "leaklens", Subsystem: "scan", Name: "findings", Help: "Finding count from the latest scan by severity."},
		[]string{"severity"},
	)
)

func init() {
	_ = prometheus.Register(scansTotal)
	_ = prometheus.Register(probeRunsTotal)
	_ = prometheus.Register(probeDuration)
	_ = prometheus.Register(scoreGauge)
	_ = prometheus.Register(findingsGauge)
}

// Scan outcomes recorded in leaklens_scan_runs_total.
const (
	OutcomeCompleted = "completed"
	OutcomeTimedOut  = "timed_out"
	OutcomeFailed    = "failed"
)

// RecordReport publishes the observable facts of a completed report:
// run outcome, per-probe lifecycle, latest score, and severity counts.
func RecordReport(report *model.PrivacyReport) {
	if report == nil {
		return
	}

	switch {
	case report.ErrorMessage != "":
		scansTotal.WithLabelValues(OutcomeFailed).Inc()
	case report.TimedOut:
		scansTotal.WithLabelValues(OutcomeTimedOut).Inc()
	default:
		scansTotal.WithLabelValues(OutcomeCompleted).Inc()
	}

	for name, record := range report.Probes {
		probeRunsTotal.WithLabelValues(name, string(record.Status)).Inc()
		if record.Duration > 0 {
			probeDuration.WithLabelValues(name).Observe(record.Duration.Seconds())
		}
	}

	if score := report.DisplayScore(); score != nil {
		scoreGauge.Reset()
		scoreGauge.WithLabelValues(score.RiskLevelText).Set(float64(score.Total))
	}

	findingsGauge.WithLabelValues("critical").Set(float64(report.CriticalCount))
	findingsGauge.WithLabelValues("high").Set(float64(report.HighCount))
	findingsGauge.WithLabelValues("medium").Set(float64(report.MediumCount))
	findingsGauge.WithLabelValues("low").Set(float64(report.LowCount))
	findingsGauge.WithLabelValues("info").Set(float64(report.InfoCount))
}

// Handler returns the Prometheus exposition handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Serve exposes /metrics on the given address until ctx is cancelled.
// It blocks; run it in a goroutine when serving alongside a scan.
func Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
