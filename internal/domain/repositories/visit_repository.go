package repositories

import (
	"context"

	"github.com/careloop/medvisit/internal/domain/entities"
)

// VisitRepository defines the interface for persisted visit artifacts
type VisitRepository interface {
	// Create persists a completed visit record
	Create(ctx context.Context, record *entities.VisitRecord) error

	// GetByID retrieves a visit record by ID
	GetByID(ctx context.Context, id string) (*entities.VisitRecord, error)

	// ListByPatient retrieves visit records for a patient, newest first
	ListByPatient(ctx context.Context, patientID string, limit int) ([]*entities.VisitRecord, error)
}
