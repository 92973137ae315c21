package media

import (
	"errors"
	"testing"
)

func TestController_NoSurfaceFails(t *testing.T) {
	c := NewController(nil)

	if err := c.Play(); !errors.Is(err, ErrNoSurface) {
		t.Errorf("Play() without surface: expected ErrNoSurface, got %v", err)
	}
	if _, err := c.CurrentTime(); !errors.Is(err, ErrNoSurface) {
		t.Errorf("CurrentTime() without surface: expected ErrNoSurface, got %v", err)
	}
	if !c.IsPaused() {
		t.Error("unattached surface should report paused")
	}
}

func TestController_QueuesUntilReady(t *testing.T) {
	c := NewController(nil)
	surface := NewMockSurface()
	c.Attach(surface)

	// Not ready yet: commands queue without touching the surface.
	if err := c.Play(); err != nil {
		t.Fatalf("Play() while not ready: %v", err)
	}
	if err := c.SeekTo(12); err != nil {
		t.Fatalf("SeekTo() while not ready: %v", err)
	}
	if play, _, _, seeks := surface.Calls(); play != 0 || len(seeks) != 0 {
		t.Fatal("commands reached surface before ready")
	}

	c.SetReady()

	play, _, _, seeks := surface.Calls()
	if play != 1 {
		t.Errorf("expected 1 play after flush, got %d", play)
	}
	if len(seeks) != 1 || seeks[0] != 12 {
		t.Errorf("expected seek to 12 after flush, got %v", seeks)
	}

	// Flushed actions run at most once.
	c.SetReady()
	if play, _, _, _ := surface.Calls(); play != 1 {
		t.Errorf("queued play replayed on second SetReady, play=%d", play)
	}
}

func TestController_ExecutesDirectlyWhenReady(t *testing.T) {
	c := NewController(nil)
	surface := NewMockSurface()
	c.Attach(surface)
	c.SetReady()

	if err := c.Pause(); err != nil {
		t.Fatalf("Pause(): %v", err)
	}
	if err := c.Restart(); err != nil {
		t.Fatalf("Restart(): %v", err)
	}

	_, pause, restart, _ := surface.Calls()
	if pause != 1 || restart != 1 {
		t.Errorf("expected pause=1 restart=1, got pause=%d restart=%d", pause, restart)
	}

	if !c.Ready() {
		t.Error("Ready() false after SetReady")
	}
}

func TestController_DetachDropsQueue(t *testing.T) {
	c := NewController(nil)
	surface := NewMockSurface()
	c.Attach(surface)

	if err := c.Play(); err != nil {
		t.Fatalf("Play(): %v", err)
	}
	c.Detach()
	c.Attach(surface)
	c.SetReady()

	if play, _, _, _ := surface.Calls(); play != 0 {
		t.Errorf("detached queue still flushed, play=%d", play)
	}
}

func TestController_IsPausedTracksSurface(t *testing.T) {
	c := NewController(nil)
	surface := NewMockSurface()
	c.Attach(surface)
	c.SetReady()

	if !c.IsPaused() {
		t.Error("fresh mock surface should be paused")
	}

	surface.SetPaused(false)
	if c.IsPaused() {
		t.Error("IsPaused() true while surface playing")
	}
}
