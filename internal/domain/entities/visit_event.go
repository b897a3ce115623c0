package entities

import (
	"time"
)

// VisitEventType labels visit lifecycle events on the event bus
type VisitEventType string

const (
	VisitEventCompleted VisitEventType = "visit_completed"
	VisitEventFailed    VisitEventType = "visit_failed"
)

// VisitEvent is published on the event bus when a visit finishes, so the
// presentation layer can react without polling the store
type VisitEvent struct {
	ID        string         `json:"id"`
	Type      VisitEventType `json:"type"`
	PatientID string         `json:"patient_id"`
	VisitID   string         `json:"visit_id,omitempty"`
	Error     string         `json:"error,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}
