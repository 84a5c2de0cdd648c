package metrics

import "sync"

// StorageOpCall holds the arguments for a call to ObserveStorageOp.
type StorageOpCall struct {
	Table  string
	Op     string
	Failed bool
}

// Mock is a mock implementation of the Metrics interface for testing.
// It is safe for concurrent use.
type Mock struct {
	mu                      sync.Mutex
	acquireWaits            []float64
	poolExhausted           int
	storageOps              []StorageOpCall
	scoresRecorded          int
	personalBests           int
	leaderboardComputations int
	eventsPublished         map[string]int
	slackNotifSent          int
	slackNotifFailed        int
	startupTime             float64
}

// NewMock creates a new mock instance.
func NewMock() *Mock {
	return &Mock{
		acquireWaits:    make([]float64, 0),
		eventsPublished: make(map[string]int),
	}
}

func (m *Mock) ObserveAcquireWait(seconds float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.acquireWaits = append(m.acquireWaits, seconds)
}

func (m *Mock) IncPoolExhausted() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.poolExhausted++
}

func (m *Mock) ObserveStorageOp(table, op string, seconds float64, failed bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.storageOps = append(m.storageOps, StorageOpCall{Table: table, Op: op, Failed: failed})
}

func (m *Mock) IncScoresRecorded() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scoresRecorded++
}

func (m *Mock) IncPersonalBests() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.personalBests++
}

func (m *Mock) IncLeaderboardComputations() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.leaderboardComputations++
}

func (m *Mock) IncEventsPublished(topic string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.eventsPublished[topic]++
}

func (m *Mock) IncSlackNotifSent() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.slackNotifSent++
}

func (m *Mock) IncSlackNotifFailed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.slackNotifFailed++
}

func (m *Mock) SetStartupTime(duration float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.startupTime = duration
}

// AcquireWaits returns the number of times ObserveAcquireWait was called.
func (m *Mock) AcquireWaits() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.acquireWaits)
}

// PoolExhausted returns the number of times IncPoolExhausted was called.
func (m *Mock) PoolExhausted() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.poolExhausted
}

// StorageOps returns a copy of the recorded ObserveStorageOp calls.
func (m *Mock) StorageOps() []StorageOpCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]StorageOpCall, len(m.storageOps))
	copy(out, m.storageOps)
	return out
}

// ScoresRecorded returns the number of times IncScoresRecorded was called.
func (m *Mock) ScoresRecorded() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.scoresRecorded
}

// PersonalBests returns the number of times IncPersonalBests was called.
func (m *Mock) PersonalBests() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.personalBests
}

// LeaderboardComputations returns the number of times IncLeaderboardComputations was called.
func (m *Mock) LeaderboardComputations() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.leaderboardComputations
}

// EventsPublished returns how many events were published on topic.
func (m *Mock) EventsPublished(topic string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.eventsPublished[topic]
}

// SlackNotifSent returns the number of times IncSlackNotifSent was called.
func (m *Mock) SlackNotifSent() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.slackNotifSent
}

// SlackNotifFailed returns the number of times IncSlackNotifFailed was called.
func (m *Mock) SlackNotifFailed() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.slackNotifFailed
}
