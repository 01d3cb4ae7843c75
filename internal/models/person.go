package models

import "time"

// PersonRecord is one durable catalog entry for a distinct person.
// Records are append-only: attributes are fixed at capture time and the
// record is never mutated afterwards. Durable IDs start at 1 and are
// strictly increasing, never reused.
type PersonRecord struct {
	ID        int       `json:"id"`
	ImageRef  string    `json:"image"`
	Gender    string    `json:"gender"`
	Age       string    `json:"age"`
	FirstSeen time.Time `json:"entry_time"`

	// Signature is the cached appearance signature of the representative
	// image. Not part of the logical record; the Postgres backend persists
	// it, the file backend recomputes it lazily from the image.
	Signature []float32 `json:"-"`
}

// CaptureEvent is broadcast to event sinks when a new person is catalogued
// or an existing person is re-identified on a new track.
type CaptureEvent struct {
	Type      string       `json:"type"` // "person_captured" or "person_matched"
	Person    PersonRecord `json:"person"`
	Source    string       `json:"source"` // input video path or upload name
	Timestamp time.Time    `json:"timestamp"`
}

const (
	EventPersonCaptured = "person_captured"
	EventPersonMatched  = "person_matched"
)
