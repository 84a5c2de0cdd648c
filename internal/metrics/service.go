package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var _ Metrics = (*Service)(nil)

// NewMetricsHandler returns an http.Handler for the given Gatherer.
// If no gatherer is provided, it uses the default one.
func NewMetricsHandler(gatherer ...prometheus.Gatherer) http.Handler {
	gath := prometheus.DefaultGatherer
	if len(gatherer) > 0 {
		gath = gatherer[0]
	}
	return promhttp.HandlerFor(gath, promhttp.HandlerOpts{})
}

// NewService creates and registers the Prometheus metrics.
// If no registerer is provided, it uses the default Prometheus registerer.
func NewService(registerer ...prometheus.Registerer) *Service {
	reg := prometheus.DefaultRegisterer
	if len(registerer) > 0 {
		reg = registerer[0]
	}

	s := &Service{
		AcquireWait: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "scorekeeper_pool_acquire_wait_seconds",
			Help:    "Time spent waiting for a pooled database connection.",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5},
		}),
		PoolExhausted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "scorekeeper_pool_exhausted_total",
			Help: "The total number of connection acquisitions that timed out.",
		}),
		StorageOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scorekeeper_storage_operations_total",
			Help: "The total number of table operations, by table, operation and outcome.",
		}, []string{"table", "op", "outcome"}),
		StorageOpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "scorekeeper_storage_operation_duration_seconds",
			Help:    "The duration of table operations including connection acquisition.",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"table", "op"}),
		ScoresRecorded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "scorekeeper_scores_recorded_total",
			Help: "The total number of scores submitted.",
		}),
		PersonalBests: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "scorekeeper_personal_bests_total",
			Help: "The total number of submitted scores that became a stored personal best.",
		}),
		LeaderboardComputations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "scorekeeper_leaderboard_computations_total",
			Help: "The total number of global leaderboard computations.",
		}),
		EventsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scorekeeper_events_published_total",
			Help: "The total number of events published, by topic.",
		}, []string{"topic"}),
		SlackNotifSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "scorekeeper_slack_notifications_sent_total",
			Help: "The total number of Slack notifications successfully sent.",
		}),
		SlackNotifFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "scorekeeper_slack_notifications_failed_total",
			Help: "The total number of Slack notifications that failed to send.",
		}),
		StartupTimeSeconds: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "scorekeeper_startup_duration_seconds",
			Help: "The duration of the application startup in seconds.",
		}),
	}

	reg.MustRegister(
		s.AcquireWait,
		s.PoolExhausted,
		s.StorageOps,
		s.StorageOpDuration,
		s.ScoresRecorded,
		s.PersonalBests,
		s.LeaderboardComputations,
		s.EventsPublished,
		s.SlackNotifSent,
		s.SlackNotifFailed,
		s.StartupTimeSeconds,
	)

	return s
}

func (s *Service) ObserveAcquireWait(seconds float64) {
	s.AcquireWait.Observe(seconds)
}

func (s *Service) IncPoolExhausted() {
	s.PoolExhausted.Inc()
}

func (s *Service) ObserveStorageOp(table, op string, seconds float64, failed bool) {
	outcome := "ok"
	if failed {
		outcome = "error"
	}
	s.StorageOps.WithLabelValues(table, op, outcome).Inc()
	s.StorageOpDuration.WithLabelValues(table, op).Observe(seconds)
}

func (s *Service) IncScoresRecorded() {
	s.ScoresRecorded.Inc()
}

func (s *Service) IncPersonalBests() {
	s.PersonalBests.Inc()
}

func (s *Service) IncLeaderboardComputations() {
	s.LeaderboardComputations.Inc()
}

func (s *Service) IncEventsPublished(topic string) {
	s.EventsPublished.WithLabelValues(topic).Inc()
}

func (s *Service) IncSlackNotifSent() {
	s.SlackNotifSent.Inc()
}

func (s *Service) IncSlackNotifFailed() {
	s.SlackNotifFailed.Inc()
}

func (s *Service) SetStartupTime(duration float64) {
	s.StartupTimeSeconds.Set(duration)
}
