package metrics

// Metrics defines the interface for collecting application metrics.
// This decouples the application from the specific metrics implementation (e.g., Prometheus).
type Metrics interface {
	ObserveAcquireWait(seconds float64)
	IncPoolExhausted()
	ObserveStorageOp(table, op string, seconds float64, failed bool)
	IncScoresRecorded()
	IncPersonalBests()
	IncLeaderboardComputations()
	IncEventsPublished(topic string)
	IncSlackNotifSent()
	IncSlackNotifFailed()
	SetStartupTime(duration float64)
}
