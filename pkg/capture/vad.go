package capture

import (
	"math"

	"github.com/altalearn/voicetutor/pkg/audioio"
)

// Detector classifies audio frames as voice or non-voice using RMS energy
// and zero-crossing rate against an adaptive noise floor. Non-voice frames
// are attenuated with a soft gate rather than hard-muted, and sustained
// silence is suppressed entirely so the peer's own turn detection is not
// fed room noise.
type Detector struct {
	cfg Config

	noiseFloor  float64
	nonVoiceRun int
}

// NewDetector creates a voice activity detector.
func NewDetector(cfg Config) *Detector {
	return &Detector{
		cfg:        cfg,
		noiseFloor: cfg.VADMinRMS / 2,
	}
}

// FrameDecision is the per-frame VAD outcome.
type FrameDecision struct {
	// Voice reports whether the frame was classified as speech.
	Voice bool

	// Transmit reports whether the frame should be sent to the peer.
	// False once the hangover run of non-voice frames is exceeded.
	Transmit bool

	// RMS is the measured frame energy (0.0-1.0).
	RMS float64
}

// Process classifies one frame and applies the soft gate in place.
func (d *Detector) Process(samples []int16) FrameDecision {
	rms := frameRMS(samples)
	zcr := zeroCrossRate(samples)

	threshold := d.cfg.VADMinRMS
	if adaptive := d.noiseFloor * d.cfg.VADFloorMultiplier; adaptive > threshold {
		threshold = adaptive
	}

	voice := rms > threshold &&
		zcr >= d.cfg.VADZeroCrossMin &&
		zcr <= d.cfg.VADZeroCrossMax

	// Track the ambient noise level. Only frames well below the voice band
	// feed the floor, so speech does not raise it.
	if rms < 2*d.noiseFloor || d.noiseFloor == 0 {
		a := d.cfg.VADFloorAdaptRate
		d.noiseFloor = d.noiseFloor*(1-a) + rms*a
	}

	if voice {
		d.nonVoiceRun = 0
		return FrameDecision{Voice: true, Transmit: true, RMS: rms}
	}

	d.nonVoiceRun++

	// Soft gate: attenuate proportionally to how far below threshold the
	// frame sits, squared so near-threshold frames pass almost untouched.
	if threshold > 0 && rms > 0 {
		ratio := rms / threshold
		if ratio > 1 {
			ratio = 1
		}
		gain := ratio * ratio
		for i, s := range samples {
			samples[i] = int16(float64(s) * gain)
		}
	}

	return FrameDecision{
		Voice:    false,
		Transmit: d.nonVoiceRun < d.cfg.HangoverFrames,
		RMS:      rms,
	}
}

// NoiseFloor returns the current adaptive noise floor estimate.
func (d *Detector) NoiseFloor() float64 {
	return d.noiseFloor
}

// Reset clears the detector state for a new session.
func (d *Detector) Reset() {
	d.noiseFloor = d.cfg.VADMinRMS / 2
	d.nonVoiceRun = 0
}

// frameRMS returns the normalized RMS amplitude of a frame (0.0-1.0).
func frameRMS(samples []int16) float64 {
	return math.Sqrt(audioio.CalculateRMS(samples))
}

// zeroCrossRate returns the fraction of adjacent sample pairs that cross zero.
func zeroCrossRate(samples []int16) float64 {
	if len(samples) < 2 {
		return 0
	}
	crossings := 0
	for i := 1; i < len(samples); i++ {
		if (samples[i-1] >= 0) != (samples[i] >= 0) {
			crossings++
		}
	}
	return float64(crossings) / float64(len(samples)-1)
}
