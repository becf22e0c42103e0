package matching

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds Prometheus collectors for the scoring pipelines.
type Metrics struct {
	RequestsTotal    *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	CandidatesScored *prometheus.HistogramVec
	MatchScores      prometheus.Histogram
}

// NewMetrics creates the scoring metrics collectors. Call Register to attach
// them to a registry.
func NewMetrics() *Metrics {
	return &Metrics{
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "questboard_scoring_requests_total",
				Help: "Scoring requests by pipeline and outcome",
			},
			[]string{"pipeline", "status"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "questboard_scoring_duration_seconds",
				Help:    "End-to-end scoring duration including store fetches",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"pipeline"},
		),
		CandidatesScored: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "questboard_scoring_candidates",
				Help:    "Number of candidate quests scored per request",
				Buckets: []float64{0, 1, 5, 10, 25, 50},
			},
			[]string{"pipeline"},
		),
		MatchScores: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "questboard_match_score",
				Help:    "Distribution of computed match scores",
				Buckets: []float64{0, 10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
			},
		),
	}
}

// Register registers all collectors with the given registerer.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		m.RequestsTotal,
		m.RequestDuration,
		m.CandidatesScored,
		m.MatchScores,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}
