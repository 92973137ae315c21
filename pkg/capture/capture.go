// Package capture turns a live microphone stream into the fixed-size,
// base64-encoded PCM16 frames the session protocol sends upstream.
//
// Each frame optionally passes through a noise pipeline (high-pass,
// low-pass, dynamic range compression) and voice activity detection before
// emission. Frames are emitted only between Start and Stop, so the engine's
// startListening/stopListening map directly onto this package.
package capture

import (
	"context"
	"encoding/base64"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/altalearn/voicetutor/pkg/audioio"
)

// Sink consumes microphone audio and emits encoded frames.
type Sink struct {
	cfg    Config
	logger *slog.Logger

	mu        sync.Mutex
	listening bool
	cancel    context.CancelFunc

	chain *filterChain
	det   *Detector

	// Frame assembly buffer; source chunks rarely align with frame size.
	pending []int16

	framesOut  atomic.Int64
	suppressed atomic.Int64

	onFrame func(b64 string)
	onVoice func()
}

// New creates a capture sink with the given configuration.
func New(cfg Config, logger *slog.Logger) (*Sink, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Sink{
		cfg:    cfg,
		logger: logger,
		det:    NewDetector(cfg),
	}
	if cfg.NoiseReduction {
		s.chain = newFilterChain(cfg)
	}
	return s, nil
}

// OnFrame sets the callback receiving each base64-encoded PCM16 frame.
// Must be set before Start.
func (s *Sink) OnFrame(fn func(b64 string)) {
	s.onFrame = fn
}

// OnVoice sets the callback fired when a frame is classified as speech.
// Used to cancel the silence watchdog on locally detected speech.
func (s *Sink) OnVoice(fn func()) {
	s.onVoice = fn
}

// Start begins draining the source and emitting frames.
// Returns immediately; capture runs until Stop or context cancellation.
func (s *Sink) Start(ctx context.Context, src audioio.Source) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listening {
		return nil
	}

	runCtx, cancel := context.WithCancel(ctx)
	s.listening = true
	s.cancel = cancel
	s.pending = s.pending[:0]
	s.det.Reset()
	if s.chain != nil {
		s.chain.reset()
	}

	go s.pump(runCtx, src)

	s.logger.Debug("capture started",
		"sample_rate", s.cfg.SampleRate,
		"frame_ms", s.cfg.FrameDuration.Milliseconds(),
		"noise_reduction", s.cfg.NoiseReduction,
	)

	return nil
}

// Stop halts frame emission. Safe to call multiple times.
func (s *Sink) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.listening {
		return nil
	}

	s.listening = false
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}

	s.logger.Debug("capture stopped",
		"frames_out", s.framesOut.Load(),
		"frames_suppressed", s.suppressed.Load(),
	)

	return nil
}

// Active reports whether the sink is currently capturing.
func (s *Sink) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listening
}

func (s *Sink) pump(ctx context.Context, src audioio.Source) {
	for {
		chunk, err := src.Read(ctx)
		if err != nil {
			return
		}

		samples := chunk.Samples
		if chunk.Channels == 2 {
			samples = audioio.StereoToMono(samples)
		}
		if chunk.SampleRate != s.cfg.SampleRate && chunk.SampleRate > 0 {
			samples = audioio.Resample(samples, chunk.SampleRate, s.cfg.SampleRate)
		}

		s.mu.Lock()
		if !s.listening {
			s.mu.Unlock()
			return
		}
		s.pending = append(s.pending, samples...)
		frames := s.drainFramesLocked()
		s.mu.Unlock()

		for _, frame := range frames {
			s.emit(frame)
		}
	}
}

// drainFramesLocked slices complete frames off the assembly buffer.
func (s *Sink) drainFramesLocked() [][]int16 {
	frameSize := s.cfg.FrameSize()
	var frames [][]int16
	for len(s.pending) >= frameSize {
		frame := make([]int16, frameSize)
		copy(frame, s.pending[:frameSize])
		s.pending = s.pending[frameSize:]
		frames = append(frames, frame)
	}
	return frames
}

// emit runs one frame through the noise pipeline and VAD, then delivers it.
func (s *Sink) emit(frame []int16) {
	if s.chain != nil {
		s.chain.process(frame)
	}

	decision := FrameDecision{Voice: true, Transmit: true}
	if s.cfg.NoiseReduction {
		decision = s.det.Process(frame)
	}

	if decision.Voice && s.onVoice != nil {
		s.onVoice()
	}

	if !decision.Transmit {
		s.suppressed.Add(1)
		return
	}

	if s.onFrame != nil {
		s.framesOut.Add(1)
		s.onFrame(base64.StdEncoding.EncodeToString(audioio.SamplesToBytes(frame)))
	}
}
