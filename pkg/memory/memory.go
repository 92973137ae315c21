// Package memory provides persistent student knowledge for the tutor.
//
// The session protocol writes into it through two fire-and-forget tools:
// save_student_name and save_emotional_observation. Everything else about
// the student lives in the excluded storage layer; this package only holds
// what the voice session itself learns.
package memory

import (
	"encoding/json"
	"strings"
	"sync"
	"time"
)

// Observation is one emotional observation recorded during a session.
type Observation struct {
	// Emotion is the observed emotional state ("frustrated", "proud").
	Emotion string `json:"emotion"`

	// Context describes what was happening when it was observed.
	Context string `json:"context"`

	// At is when the observation was recorded.
	At time.Time `json:"at"`
}

// Profile is the per-student memory the tutor accumulates.
// All data persists to the configured Store backend.
type Profile struct {
	// StudentID identifies the student; set by the session bootstrap layer.
	StudentID string `json:"student_id"`

	// Name is the student's preferred name, as told to the tutor.
	Name string `json:"name"`

	// Observations are emotional observations in recording order.
	Observations []Observation `json:"observations"`

	// store is the persistence backend (not serialized)
	store Store `json:"-"`

	// mu protects concurrent access
	mu sync.RWMutex `json:"-"`

	// now is replaceable for tests
	now func() time.Time `json:"-"`
}

// New creates an in-memory profile (no persistence).
func New(studentID string) *Profile {
	return &Profile{
		StudentID: studentID,
		now:       time.Now,
	}
}

// NewWithStore creates a profile with a custom storage backend.
func NewWithStore(studentID string, store Store) *Profile {
	p := New(studentID)
	p.store = store
	p.Load() // Load existing data if available
	return p
}

// NewWithFile creates a profile that persists to a JSON file.
// This is a convenience wrapper around NewWithStore.
func NewWithFile(studentID, path string) *Profile {
	return NewWithStore(studentID, NewJSONStore(path))
}

// SaveStudentName records the student's name and persists.
func (p *Profile) SaveStudentName(name string) error {
	name = strings.TrimSpace(name)

	p.mu.Lock()
	p.Name = name
	p.mu.Unlock()

	return p.Save()
}

// SaveEmotionalObservation appends an observation and persists.
func (p *Profile) SaveEmotionalObservation(emotion, context string) error {
	obs := Observation{
		Emotion: strings.TrimSpace(emotion),
		Context: strings.TrimSpace(context),
		At:      p.now(),
	}

	p.mu.Lock()
	p.Observations = append(p.Observations, obs)
	p.mu.Unlock()

	return p.Save()
}

// StudentName returns the recorded name, or "" if unknown.
func (p *Profile) StudentName() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.Name
}

// RecentObservations returns up to n most recent observations.
func (p *Profile) RecentObservations(n int) []Observation {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if n <= 0 || len(p.Observations) == 0 {
		return nil
	}
	if n > len(p.Observations) {
		n = len(p.Observations)
	}
	out := make([]Observation, n)
	copy(out, p.Observations[len(p.Observations)-n:])
	return out
}

// Save persists the profile to the configured store.
func (p *Profile) Save() error {
	if p.store == nil {
		return nil
	}

	p.mu.RLock()
	data, err := json.MarshalIndent(p, "", "  ")
	p.mu.RUnlock()

	if err != nil {
		return err
	}

	return p.store.Save(data)
}

// Load reads the profile from the configured store.
func (p *Profile) Load() error {
	if p.store == nil {
		return nil
	}

	data, err := p.store.Load()
	if err != nil {
		return err
	}

	if data == nil {
		return nil // No data yet
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	var loaded Profile
	if err := json.Unmarshal(data, &loaded); err != nil {
		return err
	}

	if loaded.Name != "" {
		p.Name = loaded.Name
	}
	if loaded.Observations != nil {
		p.Observations = loaded.Observations
	}

	return nil
}

// Close releases resources held by the store.
func (p *Profile) Close() error {
	if p.store == nil {
		return nil
	}
	return p.store.Close()
}

// Stats returns counts of stored items.
func (p *Profile) Stats() map[string]int {
	p.mu.RLock()
	defer p.mu.RUnlock()

	named := 0
	if p.Name != "" {
		named = 1
	}

	return map[string]int{
		"name_known":   named,
		"observations": len(p.Observations),
	}
}
