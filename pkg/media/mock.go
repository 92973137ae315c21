package media

import "sync"

// MockSurface is an in-memory Surface for testing.
// It tracks every call and exposes a settable playhead.
type MockSurface struct {
	mu sync.Mutex

	paused bool
	time   float64

	PlayCalls    int
	PauseCalls   int
	RestartCalls int
	SeekCalls    []float64
}

// NewMockSurface returns a paused mock surface at position 0.
func NewMockSurface() *MockSurface {
	return &MockSurface{paused: true}
}

// Play resumes the mock.
func (m *MockSurface) Play() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.paused = false
	m.PlayCalls++
	return nil
}

// Pause halts the mock.
func (m *MockSurface) Pause() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.paused = true
	m.PauseCalls++
	return nil
}

// Restart rewinds and plays.
func (m *MockSurface) Restart() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.time = 0
	m.paused = false
	m.RestartCalls++
	return nil
}

// SeekTo moves the playhead.
func (m *MockSurface) SeekTo(seconds float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.time = seconds
	m.SeekCalls = append(m.SeekCalls, seconds)
	return nil
}

// CurrentTime returns the playhead position.
func (m *MockSurface) CurrentTime() (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.time, nil
}

// IsPaused reports the mock's paused state.
func (m *MockSurface) IsPaused() (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.paused, nil
}

// SetTime positions the playhead without recording a seek.
func (m *MockSurface) SetTime(seconds float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.time = seconds
}

// SetPaused forces the paused state without recording a call.
func (m *MockSurface) SetPaused(paused bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.paused = paused
}

// Calls returns a snapshot of the call counters.
func (m *MockSurface) Calls() (play, pause, restart int, seeks []float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	seeks = append([]float64(nil), m.SeekCalls...)
	return m.PlayCalls, m.PauseCalls, m.RestartCalls, seeks
}

// Ensure MockSurface implements Surface.
var _ Surface = (*MockSurface)(nil)
