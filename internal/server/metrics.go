package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/franckalain/nutritionscore/internal/models"
)

// Metrics holds the Prometheus collectors exposed on /metrics
type Metrics struct {
	registry *prometheus.Registry

	ScoresTotal   *prometheus.CounterVec
	FinalScore    *prometheus.HistogramVec
	Errors        *prometheus.CounterVec
	ActiveClients prometheus.Gauge
}

// NewMetrics creates the collectors on a private registry
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		ScoresTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nutriscore_scores_total",
				Help: "Total number of scored products by food type",
			},
			[]string{"food_type"},
		),

		FinalScore: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "nutriscore_final_score",
				Help:    "Distribution of final 0-100 product scores",
				Buckets: prometheus.LinearBuckets(0, 10, 11),
			},
			[]string{"grade"},
		),

		Errors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nutriscore_request_errors_total",
				Help: "Total number of rejected requests by message type",
			},
			[]string{"message_type"},
		),

		ActiveClients: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "nutriscore_active_clients",
				Help: "Number of connected websocket clients",
			},
		),
	}

	m.registry.MustRegister(m.ScoresTotal, m.FinalScore, m.Errors, m.ActiveClients)
	return m
}

// ObserveScore records one successful score
func (m *Metrics) ObserveScore(res *models.ScoreResult) {
	m.ScoresTotal.WithLabelValues(string(res.FoodType)).Inc()
	m.FinalScore.WithLabelValues(res.NutriScoreGrade).Observe(float64(res.FinalScore))
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
