package services

import (
	"github.com/prometheus/client_golang/prometheus"

	"aacsb-sync/models"
)

// Metrics bündelt die Prometheus-Metriken des Abgleichs.
type Metrics struct {
	Records     *prometheus.CounterVec
	RunDuration *prometheus.HistogramVec
	RunFailures *prometheus.CounterVec
}

// NewMetrics erzeugt die Metriken und registriert sie bei reg.
// Mit reg == nil werden sie nicht registriert (Tests).
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Records: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "aacsb_sync_records_total",
				Help: "Anzahl abgeglichener Datensätze nach Ergebnis.",
			},
			[]string{"entity", "origin", "outcome"},
		),
		RunDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "aacsb_sync_run_duration_seconds",
				Help:    "Dauer eines Abgleichlaufs.",
				Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
			},
			[]string{"entity", "origin"},
		),
		RunFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "aacsb_sync_run_failures_total",
				Help: "Anzahl abgebrochener Abgleichläufe.",
			},
			[]string{"entity", "origin"},
		),
	}
	if reg != nil {
		reg.MustRegister(m.Records, m.RunDuration, m.RunFailures)
	}
	return m
}

func (m *Metrics) record(entity string, origin models.DataSource, o models.Outcome) {
	if m == nil {
		return
	}
	m.Records.WithLabelValues(entity, string(origin), string(o)).Inc()
}

func (m *Metrics) observeRun(entity string, origin models.DataSource, seconds float64, failed bool) {
	if m == nil {
		return
	}
	m.RunDuration.WithLabelValues(entity, string(origin)).Observe(seconds)
	if failed {
		m.RunFailures.WithLabelValues(entity, string(origin)).Inc()
	}
}
