// Package media models the lesson video player the tutoring engine can
// command remotely. The player itself lives in the client; the engine sees
// it as an in-process Surface and never learns how rendering works.
package media

import (
	"errors"
	"log/slog"
	"sync"
)

// ErrNoSurface is returned when a command is issued with no video loaded.
var ErrNoSurface = errors.New("media: no video surface attached")

// ErrNotReady is returned by queries that need a ready surface.
var ErrNotReady = errors.New("media: surface not ready")

// Surface is the controllable video player.
type Surface interface {
	// Play resumes playback.
	Play() error

	// Pause halts playback.
	Pause() error

	// Restart seeks to the beginning and plays.
	Restart() error

	// SeekTo jumps to an absolute position in seconds.
	SeekTo(seconds float64) error

	// CurrentTime returns the playhead position in seconds.
	CurrentTime() (float64, error)

	// IsPaused reports whether playback is halted.
	IsPaused() (bool, error)
}

// Controller wraps a Surface that may not be ready yet. Commands issued
// before the surface signals readiness are queued and flushed once it
// becomes ready, FIFO and at most once per queued action.
type Controller struct {
	logger *slog.Logger

	mu      sync.Mutex
	surface Surface
	ready   bool
	pending []func(Surface) error
}

// NewController creates a controller with no surface attached.
func NewController(logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{logger: logger}
}

// Attach installs the surface. The surface is not considered ready until
// SetReady is called; commands keep queueing in the meantime.
func (c *Controller) Attach(s Surface) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.surface = s
	c.ready = false
}

// Detach removes the surface and drops any queued commands.
func (c *Controller) Detach() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.surface = nil
	c.ready = false
	c.pending = nil
}

// SetReady marks the surface ready and flushes queued commands in order.
func (c *Controller) SetReady() {
	c.mu.Lock()
	if c.surface == nil {
		c.mu.Unlock()
		return
	}
	c.ready = true
	pending := c.pending
	c.pending = nil
	surface := c.surface
	c.mu.Unlock()

	for _, cmd := range pending {
		if err := cmd(surface); err != nil {
			c.logger.Warn("media: queued command failed", "error", err)
		}
	}
}

// Ready reports whether the surface is attached and ready.
func (c *Controller) Ready() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.surface != nil && c.ready
}

// exec runs a command now if the surface is ready, queues it if attached
// but not yet ready, and fails if no surface is attached.
func (c *Controller) exec(cmd func(Surface) error) error {
	c.mu.Lock()
	if c.surface == nil {
		c.mu.Unlock()
		return ErrNoSurface
	}
	if !c.ready {
		c.pending = append(c.pending, cmd)
		c.mu.Unlock()
		return nil
	}
	surface := c.surface
	c.mu.Unlock()

	return cmd(surface)
}

// Play resumes playback, queueing if the surface is not ready.
func (c *Controller) Play() error {
	return c.exec(Surface.Play)
}

// Pause halts playback, queueing if the surface is not ready.
func (c *Controller) Pause() error {
	return c.exec(Surface.Pause)
}

// Restart replays from the beginning, queueing if the surface is not ready.
func (c *Controller) Restart() error {
	return c.exec(Surface.Restart)
}

// SeekTo jumps to an absolute position, queueing if the surface is not ready.
func (c *Controller) SeekTo(seconds float64) error {
	return c.exec(func(s Surface) error {
		return s.SeekTo(seconds)
	})
}

// CurrentTime returns the playhead position. Requires a ready surface.
func (c *Controller) CurrentTime() (float64, error) {
	c.mu.Lock()
	surface, ready := c.surface, c.ready
	c.mu.Unlock()

	if surface == nil {
		return 0, ErrNoSurface
	}
	if !ready {
		return 0, ErrNotReady
	}
	return surface.CurrentTime()
}

// IsPaused reports whether the video is paused. An unattached or not-ready
// surface reports paused, which keeps the silence watchdog armable before
// a lesson video loads.
func (c *Controller) IsPaused() bool {
	c.mu.Lock()
	surface, ready := c.surface, c.ready
	c.mu.Unlock()

	if surface == nil || !ready {
		return true
	}
	paused, err := surface.IsPaused()
	if err != nil {
		return true
	}
	return paused
}
