package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/careloop/medvisit/internal/domain/entities"
	"github.com/careloop/medvisit/internal/domain/repositories"
	apperrors "github.com/careloop/medvisit/pkg/errors"
)

// VisitStore is an in-memory VisitRepository
type VisitStore struct {
	mu     sync.RWMutex
	visits map[string]*entities.VisitRecord
}

// NewVisitStore creates an empty in-memory visit store
func NewVisitStore() repositories.VisitRepository {
	return &VisitStore{
		visits: make(map[string]*entities.VisitRecord),
	}
}

// Create persists a visit record
func (s *VisitStore) Create(ctx context.Context, record *entities.VisitRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	clone := *record
	s.visits[record.ID] = &clone
	return nil
}

// GetByID retrieves a visit record by ID
func (s *VisitStore) GetByID(ctx context.Context, id string) (*entities.VisitRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.visits[id]
	if !ok {
		return nil, apperrors.NewNotFoundError("visit " + id + " not found")
	}
	clone := *record
	return &clone, nil
}

// ListByPatient retrieves visit records for a patient, newest first
func (s *VisitStore) ListByPatient(ctx context.Context, patientID string, limit int) ([]*entities.VisitRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var records []*entities.VisitRecord
	for _, record := range s.visits {
		if record.PatientID == patientID {
			clone := *record
			records = append(records, &clone)
		}
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})

	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}
