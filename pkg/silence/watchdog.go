// Package silence re-engages a quiet student.
//
// After the tutor finishes a speaking turn while the video is paused,
// a watchdog timer starts. If the student says nothing before it
// elapses, the watchdog emits the next prompt from a PromptCycle.
// Any detected student speech disarms it.
package silence

import (
	"sync"
	"time"

	"github.com/altalearn/voicetutor/internal/log"
)

// Deps are the watchdog's observation and action hooks.
// All three must be non-nil and safe for concurrent use.
type Deps struct {
	// SurfacePaused reports whether the video surface is paused.
	// The watchdog only arms, and only fires, while this is true.
	SurfacePaused func() bool

	// PlaybackBusy reports whether tutor audio is still playing.
	// An expired timer reschedules instead of firing while busy.
	PlaybackBusy func() bool

	// SendPrompt delivers a re-engagement prompt to the peer as a
	// user-turn message and requests a response.
	SendPrompt func(prompt string)
}

// Watchdog is the silence timer. It has two states, idle and armed,
// and is safe for concurrent use.
type Watchdog struct {
	cfg     Config
	deps    Deps
	prompts *PromptCycle

	mu    sync.Mutex
	timer *time.Timer
	armed bool
	fired int
}

// NewWatchdog creates an idle watchdog.
// A nil prompts cycle uses the default prompts.
func NewWatchdog(cfg Config, deps Deps, prompts *PromptCycle) *Watchdog {
	if prompts == nil {
		prompts = NewPromptCycle()
	}
	return &Watchdog{
		cfg:     cfg,
		deps:    deps,
		prompts: prompts,
	}
}

// PeerTurnComplete arms the watchdog if the surface is paused.
// Called after each tutor speaking turn; rearms an already-armed
// watchdog by restarting the timer.
func (w *Watchdog) PeerTurnComplete() {
	if !w.deps.SurfacePaused() {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	w.stopTimerLocked()
	w.armed = true
	w.timer = time.AfterFunc(w.cfg.Threshold, w.expire)

	if w.cfg.Debug {
		log.Debug("silence watchdog armed", "threshold", w.cfg.Threshold)
	}
}

// StudentSpeech disarms the watchdog. Called on any speech-start
// signal or completed student transcription.
func (w *Watchdog) StudentSpeech() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.armed {
		return
	}
	w.stopTimerLocked()
	w.armed = false

	if w.cfg.Debug {
		log.Debug("silence watchdog disarmed by student speech")
	}
}

// Stop disarms the watchdog and cancels any pending timer.
// Called on disconnect; the watchdog can be rearmed afterwards.
func (w *Watchdog) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.stopTimerLocked()
	w.armed = false
}

// Armed reports whether the timer is currently running.
func (w *Watchdog) Armed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.armed
}

// Fired returns how many prompts the watchdog has sent.
func (w *Watchdog) Fired() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.fired
}

func (w *Watchdog) stopTimerLocked() {
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
}

// expire runs on the timer goroutine when the threshold elapses.
func (w *Watchdog) expire() {
	w.mu.Lock()
	if !w.armed {
		w.mu.Unlock()
		return
	}

	// Video resumed during the wait: suppress the prompt entirely.
	if !w.deps.SurfacePaused() {
		w.armed = false
		w.timer = nil
		w.mu.Unlock()
		if w.cfg.Debug {
			log.Debug("silence prompt suppressed, video playing")
		}
		return
	}

	// Tutor audio still draining: check again shortly instead of
	// talking over ourselves.
	if w.deps.PlaybackBusy() {
		w.timer = time.AfterFunc(w.cfg.RecheckInterval, w.expire)
		w.mu.Unlock()
		return
	}

	prompt := w.prompts.Next()
	w.armed = false
	w.timer = nil
	w.fired++
	w.mu.Unlock()

	log.Info("sending silence re-engagement prompt", "prompt", prompt)
	w.deps.SendPrompt(prompt)
}
