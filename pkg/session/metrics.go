package session

import (
	"sync"
	"time"
)

// TurnMetrics tracks latency over one conversation turn, measured
// from the moment the student's speech was transcribed.
type TurnMetrics struct {
	TranscriptTime time.Time // student transcription arrived
	FirstAudioTime time.Time // first tutor audio delta
	TurnDoneTime   time.Time // peer declared the turn complete

	FirstAudioLatency time.Duration
	TotalLatency      time.Duration

	AudioFramesOut int // mic frames sent this turn
	AudioChunksIn  int // tutor audio deltas received this turn
	ToolCalls      int // tool calls dispatched this turn
}

// metricsCollector accumulates TurnMetrics. Goroutine-safe; written
// from the read loop and the capture callback concurrently.
type metricsCollector struct {
	mu      sync.Mutex
	current TurnMetrics
	history []TurnMetrics
}

func newMetricsCollector() *metricsCollector {
	return &metricsCollector{history: make([]TurnMetrics, 0, 100)}
}

// markTranscript resets the turn and stamps the reference point.
func (m *metricsCollector) markTranscript() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = TurnMetrics{TranscriptTime: time.Now()}
}

func (m *metricsCollector) markFirstAudio() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.current.FirstAudioTime.IsZero() {
		return
	}
	m.current.FirstAudioTime = time.Now()
	if !m.current.TranscriptTime.IsZero() {
		m.current.FirstAudioLatency = m.current.FirstAudioTime.Sub(m.current.TranscriptTime)
	}
}

func (m *metricsCollector) markTurnDone() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current.TurnDoneTime = time.Now()
	if !m.current.TranscriptTime.IsZero() {
		m.current.TotalLatency = m.current.TurnDoneTime.Sub(m.current.TranscriptTime)
	}
	m.history = append(m.history, m.current)
	if len(m.history) > 100 {
		m.history = m.history[1:]
	}
}

func (m *metricsCollector) incrementAudioOut() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current.AudioFramesOut++
}

func (m *metricsCollector) incrementAudioIn() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current.AudioChunksIn++
}

func (m *metricsCollector) incrementToolCalls() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current.ToolCalls++
}

// Current returns the in-progress turn snapshot.
func (m *metricsCollector) Current() TurnMetrics {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}
