package web

import (
	"sync"
	"time"

	"github.com/altalearn/voicetutor/pkg/media"
)

// BrowserSurface is the media.Surface backed by the video element in
// the student's browser. Commands go out as JSON control frames; the
// browser reports playhead and paused state back, and CurrentTime
// extrapolates between reports while the video plays.
type BrowserSurface struct {
	// send writes one JSON control frame to the socket.
	send func(v any) error

	mu        sync.Mutex
	paused    bool
	position  float64
	updatedAt time.Time
}

// NewBrowserSurface creates a surface reporting paused at position 0.
func NewBrowserSurface(send func(v any) error) *BrowserSurface {
	return &BrowserSurface{
		send:      send,
		paused:    true,
		updatedAt: time.Now(),
	}
}

type mediaCommand struct {
	Type    string  `json:"type"`
	Action  string  `json:"action"`
	Seconds float64 `json:"seconds,omitempty"`
}

func (s *BrowserSurface) command(action string, seconds float64) error {
	return s.send(mediaCommand{Type: "media_command", Action: action, Seconds: seconds})
}

// Play resumes the video.
func (s *BrowserSurface) Play() error {
	if err := s.command("play", 0); err != nil {
		return err
	}
	s.mu.Lock()
	s.paused = false
	s.updatedAt = time.Now()
	s.mu.Unlock()
	return nil
}

// Pause halts the video.
func (s *BrowserSurface) Pause() error {
	if err := s.command("pause", 0); err != nil {
		return err
	}
	s.mu.Lock()
	s.position = s.extrapolateLocked()
	s.paused = true
	s.updatedAt = time.Now()
	s.mu.Unlock()
	return nil
}

// Restart rewinds to the start and plays.
func (s *BrowserSurface) Restart() error {
	if err := s.command("restart", 0); err != nil {
		return err
	}
	s.mu.Lock()
	s.position = 0
	s.paused = false
	s.updatedAt = time.Now()
	s.mu.Unlock()
	return nil
}

// SeekTo moves the playhead to an absolute position.
func (s *BrowserSurface) SeekTo(seconds float64) error {
	if err := s.command("seek", seconds); err != nil {
		return err
	}
	s.mu.Lock()
	s.position = seconds
	s.updatedAt = time.Now()
	s.mu.Unlock()
	return nil
}

// CurrentTime returns the playhead position.
func (s *BrowserSurface) CurrentTime() (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.extrapolateLocked(), nil
}

// IsPaused reports the paused state.
func (s *BrowserSurface) IsPaused() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.paused, nil
}

// UpdateState applies an authoritative state report from the browser.
func (s *BrowserSurface) UpdateState(position float64, paused bool) {
	s.mu.Lock()
	s.position = position
	s.paused = paused
	s.updatedAt = time.Now()
	s.mu.Unlock()
}

// extrapolateLocked advances the last reported position by wall time
// while the video is playing.
func (s *BrowserSurface) extrapolateLocked() float64 {
	if s.paused {
		return s.position
	}
	return s.position + time.Since(s.updatedAt).Seconds()
}

var _ media.Surface = (*BrowserSurface)(nil)
