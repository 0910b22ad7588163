package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	entriesLoggedCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "carbonbuddy",
		Subsystem: "entries",
		Name:      "logged_total",
		Help:      "Number of activity entries accepted into the store.",
	}, []string{"category"})
	emissionsLoggedCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "carbonbuddy",
		Subsystem: "entries",
		Name:      "emissions_kg_total",
		Help:      "Cumulative kg CO2e of accepted entries.",
	})
	lastEntryGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "carbonbuddy",
		Subsystem: "entries",
		Name:      "last_logged_timestamp_seconds",
		Help:      "Unix timestamp of the most recent accepted entry.",
	})
)

func init() {
	prometheus.MustRegister(entriesLoggedCounter, emissionsLoggedCounter, lastEntryGauge)
}

// RecordEntryLogged updates the entry counters and the freshness gauge.
func RecordEntryLogged(category string, emissionsKg float64, ts time.Time) {
	entriesLoggedCounter.WithLabelValues(category).Inc()
	if emissionsKg > 0 {
		emissionsLoggedCounter.Add(emissionsKg)
	}
	if !ts.IsZero() {
		lastEntryGauge.Set(float64(ts.Unix()))
	}
}
