package entities

import (
	"time"
)

// ViewerRole selects which fields of a visit record a caller may see
type ViewerRole string

const (
	RolePatient ViewerRole = "patient"
	RoleDoctor  ViewerRole = "doctor"
)

// Prescription is a single prescribed medication with its dosage
type Prescription struct {
	Name   string `json:"name" db:"name"`
	Dosage string `json:"dosage" db:"dosage"`
}

// DiagnosisPackage is the structured, per-visit outcome derived from
// generated diagnosis text. It is ephemeral; persistence happens through
// VisitRecord.
type DiagnosisPackage struct {
	SummarizedDiagnosis   string         `json:"summarized_diagnosis"`
	TreatmentSteps        []string       `json:"treatment_steps"`
	AppointmentSchedule   string         `json:"appointment_schedule"`
	PrescribedMedications []Prescription `json:"prescribed_medications"`
}

// VisitRecord is the persisted artifact of one completed visit
type VisitRecord struct {
	ID                    string         `json:"id" db:"id"`
	PatientID             string         `json:"patient_id" db:"patient_id"`
	Transcript            string         `json:"transcript" db:"transcript"`
	FormalDescription     string         `json:"formal_description" db:"formal_description"`
	DiagnosisText         string         `json:"diagnosis_text" db:"diagnosis_text"`
	PatientSummary        string         `json:"patient_summary" db:"patient_summary"`
	SeverityScore         int            `json:"severity_score" db:"severity_score"`
	SummarizedDiagnosis   string         `json:"summarized_diagnosis" db:"summarized_diagnosis"`
	TreatmentSteps        []string       `json:"treatment_steps" db:"treatment_steps"`
	AppointmentSchedule   string         `json:"appointment_schedule" db:"appointment_schedule"`
	PrescribedMedications []Prescription `json:"prescribed_medications" db:"prescribed_medications"`
	CreatedAt             time.Time      `json:"created_at" db:"created_at"`
}

// VisitView is a role-gated projection of a visit record for the
// presentation layer
type VisitView struct {
	ID                    string         `json:"id"`
	PatientID             string         `json:"patient_id"`
	Transcript            string         `json:"transcript,omitempty"`
	FormalDescription     string         `json:"formal_description,omitempty"`
	DiagnosisText         string         `json:"diagnosis_text,omitempty"`
	PatientSummary        string         `json:"patient_summary"`
	SeverityScore         int            `json:"severity_score,omitempty"`
	SummarizedDiagnosis   string         `json:"summarized_diagnosis,omitempty"`
	TreatmentSteps        []string       `json:"treatment_steps,omitempty"`
	AppointmentSchedule   string         `json:"appointment_schedule"`
	PrescribedMedications []Prescription `json:"prescribed_medications"`
	CreatedAt             time.Time      `json:"created_at"`
}

// ForRole returns the projection a viewer with the given role may see.
// Patients get the plain-language summary, schedule and prescriptions;
// doctors get everything.
func (v *VisitRecord) ForRole(role ViewerRole) VisitView {
	view := VisitView{
		ID:                    v.ID,
		PatientID:             v.PatientID,
		PatientSummary:        v.PatientSummary,
		AppointmentSchedule:   v.AppointmentSchedule,
		PrescribedMedications: v.PrescribedMedications,
		CreatedAt:             v.CreatedAt,
	}

	if role == RoleDoctor {
		view.Transcript = v.Transcript
		view.FormalDescription = v.FormalDescription
		view.DiagnosisText = v.DiagnosisText
		view.SeverityScore = v.SeverityScore
		view.SummarizedDiagnosis = v.SummarizedDiagnosis
		view.TreatmentSteps = v.TreatmentSteps
	}

	return view
}
