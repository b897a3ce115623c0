package repositories

import (
	"context"

	"github.com/careloop/medvisit/internal/domain/entities"
)

// PatientRepository defines the interface for patient history operations.
//
// Implementations must provide per-key read-after-write consistency: a Get
// for patient P always observes the most recent completed write for P.
type PatientRepository interface {
	// Get retrieves the record for a patient. An unseen patient identifier
	// is not an error: Get returns (nil, nil).
	Get(ctx context.Context, patientID string) (*entities.PatientRecord, error)

	// Put stores the full record, creating it if absent
	Put(ctx context.Context, record *entities.PatientRecord) error

	// UpdateSymptoms overwrites the symptoms field and bumps the prior-visit
	// count, creating the record if absent
	UpdateSymptoms(ctx context.Context, patientID, symptoms string) error

	// AppendMedications appends meds to the patient's medication history,
	// creating the record if absent. Duplicates are kept.
	AppendMedications(ctx context.Context, patientID string, meds []string) error
}
