package metrics

import "github.com/prometheus/client_golang/prometheus"

// Service holds all the Prometheus metrics for the application.
// By defining them all in one place, we ensure consistency in naming and labeling.
type Service struct {
	AcquireWait             prometheus.Histogram
	PoolExhausted           prometheus.Counter
	StorageOps              *prometheus.CounterVec
	StorageOpDuration       *prometheus.HistogramVec
	ScoresRecorded          prometheus.Counter
	PersonalBests           prometheus.Counter
	LeaderboardComputations prometheus.Counter
	EventsPublished         *prometheus.CounterVec
	SlackNotifSent          prometheus.Counter
	SlackNotifFailed        prometheus.Counter
	StartupTimeSeconds      prometheus.Gauge
}

// Noop discards every observation. It is used when no metrics sink is wired.
type Noop struct{}

var _ Metrics = Noop{}

func (Noop) ObserveAcquireWait(float64)                     {}
func (Noop) IncPoolExhausted()                              {}
func (Noop) ObserveStorageOp(string, string, float64, bool) {}
func (Noop) IncScoresRecorded()                             {}
func (Noop) IncPersonalBests()                              {}
func (Noop) IncLeaderboardComputations()                    {}
func (Noop) IncEventsPublished(string)                      {}
func (Noop) IncSlackNotifSent()                             {}
func (Noop) IncSlackNotifFailed()                           {}
func (Noop) SetStartupTime(float64)                         {}
