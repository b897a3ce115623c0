package entities

import (
	"time"
)

// PatientRecord holds the history the orchestrator keeps per patient.
//
// Symptoms is the raw transcript of the most recent describe step and is
// overwritten on every visit. Medications accumulates across visits:
// append-only, never truncated or deduplicated.
type PatientRecord struct {
	PatientID   string    `json:"patient_id" db:"patient_id"`
	Symptoms    string    `json:"symptoms" db:"symptoms"`
	Medications []string  `json:"medications" db:"medications"`
	PriorVisits int       `json:"prior_visits" db:"prior_visits"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// NewPatientRecord creates an empty record for an unseen patient identifier
func NewPatientRecord(patientID string) *PatientRecord {
	now := time.Now()
	return &PatientRecord{
		PatientID:   patientID,
		Medications: []string{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// HasPriorHistory reports whether a describe step has ever run for this patient
func (r *PatientRecord) HasPriorHistory() bool {
	return r != nil && r.PriorVisits > 0
}
