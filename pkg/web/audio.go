package web

import (
	"context"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/altalearn/voicetutor/pkg/audioio"
)

// BrowserSource is an audioio.Source fed by microphone frames arriving
// over the session WebSocket. The gateway pushes decoded PCM into it;
// the capture pipeline reads it like any other microphone.
type BrowserSource struct {
	cfg audioio.Config

	mu      sync.Mutex
	running bool
	closed  bool
	ch      chan audioio.AudioChunk

	seq      atomic.Uint64
	chunks   atomic.Int64
	overruns atomic.Int64
}

// NewBrowserSource creates a source for the given inbound audio format.
func NewBrowserSource(cfg audioio.Config) *BrowserSource {
	return &BrowserSource{
		cfg: cfg,
		ch:  make(chan audioio.AudioChunk, 32),
	}
}

// SetSampleRate renegotiates the inbound rate. The capture pipeline
// resamples per chunk, so a rate change takes effect immediately.
func (s *BrowserSource) SetSampleRate(rate int) {
	if rate <= 0 {
		return
	}
	s.mu.Lock()
	s.cfg.SampleRate = rate
	s.mu.Unlock()
}

// Push delivers one decoded microphone chunk. Drops when the capture
// pipeline falls behind rather than blocking the WebSocket read loop.
func (s *BrowserSource) Push(samples []int16) {
	s.mu.Lock()
	running := s.running && !s.closed
	rate := s.cfg.SampleRate
	channels := s.cfg.Channels
	s.mu.Unlock()
	if !running || len(samples) == 0 {
		return
	}

	chunk := audioio.AudioChunk{
		Samples:    samples,
		SampleRate: rate,
		Channels:   channels,
		Seq:        s.seq.Add(1),
	}

	select {
	case s.ch <- chunk:
		s.chunks.Add(1)
	default:
		s.overruns.Add(1)
	}
}

// Start begins accepting pushed audio.
func (s *BrowserSource) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return io.ErrClosedPipe
	}
	s.running = true
	return nil
}

// Stop halts the source. Safe to call multiple times.
func (s *BrowserSource) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = false
	return nil
}

// Read returns the next pushed chunk, blocking until one arrives.
func (s *BrowserSource) Read(ctx context.Context) (audioio.AudioChunk, error) {
	select {
	case <-ctx.Done():
		return audioio.AudioChunk{}, ctx.Err()
	case chunk, ok := <-s.ch:
		if !ok {
			return audioio.AudioChunk{}, io.EOF
		}
		return chunk, nil
	}
}

// Stream returns the chunk channel.
func (s *BrowserSource) Stream() <-chan audioio.AudioChunk {
	return s.ch
}

// Config returns the inbound audio format.
func (s *BrowserSource) Config() audioio.Config {
	return s.cfg
}

// Name returns the backend name.
func (s *BrowserSource) Name() string {
	return "browser"
}

// Close releases the source. Pending reads receive io.EOF.
func (s *BrowserSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.running = false
	close(s.ch)
	return nil
}

// Stats returns source counters.
func (s *BrowserSource) Stats() audioio.SourceStats {
	s.mu.Lock()
	running := s.running
	s.mu.Unlock()

	return audioio.SourceStats{
		ChunksRead: s.chunks.Load(),
		Overruns:   s.overruns.Load(),
		Running:    running,
		Backend:    s.Name(),
	}
}

// BrowserSink is an audioio.Sink that ships tutor audio to the browser
// as binary WebSocket frames. The browser buffers and plays them; Flush
// models the playout delay locally so IsSpeaking tracks real audio.
type BrowserSink struct {
	cfg audioio.Config

	// send writes one binary PCM frame to the socket.
	send func(pcm []byte) error

	// clear tells the browser to drop its buffered audio.
	clear func() error

	mu       sync.Mutex
	running  bool
	closed   bool
	playhead time.Time

	chunks  atomic.Int64
	samples atomic.Int64
}

// NewBrowserSink creates a sink writing through the given callbacks.
func NewBrowserSink(cfg audioio.Config, send func(pcm []byte) error, clear func() error) *BrowserSink {
	return &BrowserSink{cfg: cfg, send: send, clear: clear}
}

// Start begins accepting audio.
func (s *BrowserSink) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return io.ErrClosedPipe
	}
	s.running = true
	s.playhead = time.Now()
	return nil
}

// Stop halts the sink. Safe to call multiple times.
func (s *BrowserSink) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = false
	return nil
}

// Write ships one chunk to the browser and advances the playhead.
func (s *BrowserSink) Write(ctx context.Context, chunk audioio.AudioChunk) error {
	s.mu.Lock()
	if s.closed || !s.running {
		s.mu.Unlock()
		return io.ErrClosedPipe
	}
	now := time.Now()
	if s.playhead.Before(now) {
		s.playhead = now
	}
	s.playhead = s.playhead.Add(chunk.Duration())
	s.mu.Unlock()

	s.chunks.Add(1)
	s.samples.Add(int64(len(chunk.Samples)))

	return s.send(audioio.SamplesToBytes(chunk.Samples))
}

// Flush waits until the browser should have finished playing
// everything written so far.
func (s *BrowserSink) Flush(ctx context.Context) error {
	s.mu.Lock()
	deadline := s.playhead
	s.mu.Unlock()

	wait := time.Until(deadline)
	if wait <= 0 {
		return nil
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(wait):
		return nil
	}
}

// Clear drops buffered audio on both sides immediately.
func (s *BrowserSink) Clear() error {
	s.mu.Lock()
	s.playhead = time.Now()
	s.mu.Unlock()

	if s.clear != nil {
		return s.clear()
	}
	return nil
}

// Config returns the outbound audio format.
func (s *BrowserSink) Config() audioio.Config {
	return s.cfg
}

// Name returns the backend name.
func (s *BrowserSink) Name() string {
	return "browser"
}

// Close releases the sink.
func (s *BrowserSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.running = false
	return nil
}

// Stats returns sink counters.
func (s *BrowserSink) Stats() audioio.SinkStats {
	s.mu.Lock()
	running := s.running
	s.mu.Unlock()

	return audioio.SinkStats{
		ChunksWritten:  s.chunks.Load(),
		SamplesWritten: s.samples.Load(),
		Running:        running,
		Backend:        s.Name(),
	}
}

var (
	_ audioio.SourceWithStats = (*BrowserSource)(nil)
	_ audioio.SinkWithStats   = (*BrowserSink)(nil)
)
