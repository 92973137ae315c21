package memory

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestProfile_SaveStudentName(t *testing.T) {
	p := New("student-1")

	if err := p.SaveStudentName("  Maya  "); err != nil {
		t.Fatalf("SaveStudentName: %v", err)
	}
	if got := p.StudentName(); got != "Maya" {
		t.Errorf("expected trimmed name Maya, got %q", got)
	}
}

func TestProfile_Observations(t *testing.T) {
	p := New("student-1")
	p.now = func() time.Time { return time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC) }

	if err := p.SaveEmotionalObservation("frustrated", "fractions quiz"); err != nil {
		t.Fatalf("SaveEmotionalObservation: %v", err)
	}
	if err := p.SaveEmotionalObservation("proud", "finished the lesson"); err != nil {
		t.Fatalf("SaveEmotionalObservation: %v", err)
	}

	recent := p.RecentObservations(1)
	if len(recent) != 1 {
		t.Fatalf("expected 1 recent observation, got %d", len(recent))
	}
	if recent[0].Emotion != "proud" {
		t.Errorf("expected most recent observation, got %q", recent[0].Emotion)
	}
	if recent[0].At.IsZero() {
		t.Error("observation timestamp not set")
	}

	if got := p.RecentObservations(10); len(got) != 2 {
		t.Errorf("expected all 2 observations, got %d", len(got))
	}
	if got := p.RecentObservations(0); got != nil {
		t.Errorf("expected nil for n=0, got %v", got)
	}
}

func TestProfile_PersistsAcrossLoads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "memory.json")

	p := NewWithFile("student-1", path)
	if err := p.SaveStudentName("Leo"); err != nil {
		t.Fatalf("SaveStudentName: %v", err)
	}
	if err := p.SaveEmotionalObservation("curious", "asked about planets"); err != nil {
		t.Fatalf("SaveEmotionalObservation: %v", err)
	}
	p.Close()

	reloaded := NewWithFile("student-1", path)
	if got := reloaded.StudentName(); got != "Leo" {
		t.Errorf("expected persisted name Leo, got %q", got)
	}
	if obs := reloaded.RecentObservations(10); len(obs) != 1 || obs[0].Emotion != "curious" {
		t.Errorf("observations not persisted: %v", obs)
	}
}

func TestJSONStore_MissingFileIsEmpty(t *testing.T) {
	store := NewJSONStore(filepath.Join(t.TempDir(), "nope.json"))

	data, err := store.Load()
	if err != nil {
		t.Fatalf("Load of missing file: %v", err)
	}
	if data != nil {
		t.Errorf("expected nil data for missing file, got %q", data)
	}
}

func TestJSONStore_CreatesDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "memory.json")
	store := NewJSONStore(path)

	if err := store.Save([]byte(`{}`)); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("file not created: %v", err)
	}
}

func TestProfile_Stats(t *testing.T) {
	p := New("student-1")
	if got := p.Stats()["name_known"]; got != 0 {
		t.Errorf("expected name_known=0, got %d", got)
	}

	p.SaveStudentName("Maya")
	p.SaveEmotionalObservation("calm", "warm-up")

	stats := p.Stats()
	if stats["name_known"] != 1 {
		t.Errorf("expected name_known=1, got %d", stats["name_known"])
	}
	if stats["observations"] != 1 {
		t.Errorf("expected observations=1, got %d", stats["observations"])
	}
}
