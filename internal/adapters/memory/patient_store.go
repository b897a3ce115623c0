package memory

import (
	"context"
	"sync"
	"time"

	"github.com/careloop/medvisit/internal/domain/entities"
	"github.com/careloop/medvisit/internal/domain/repositories"
)

// PatientStore is an in-memory PatientRepository with per-key write locking.
// Records live for the process lifetime; it backs the CLI reference setup
// and the tests.
type PatientStore struct {
	mu      sync.RWMutex
	records map[string]*entities.PatientRecord
}

// NewPatientStore creates an empty in-memory patient store
func NewPatientStore() repositories.PatientRepository {
	return &PatientStore{
		records: make(map[string]*entities.PatientRecord),
	}
}

// Get retrieves a copy of the record for a patient. Unseen identifiers
// yield (nil, nil).
func (s *PatientStore) Get(ctx context.Context, patientID string) (*entities.PatientRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.records[patientID]
	if !ok {
		return nil, nil
	}
	return cloneRecord(record), nil
}

// Put stores the full record
func (s *PatientStore) Put(ctx context.Context, record *entities.PatientRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := cloneRecord(record)
	stored.UpdatedAt = time.Now()
	s.records[record.PatientID] = stored
	return nil
}

// UpdateSymptoms overwrites the symptoms field, creating the record if absent
func (s *PatientStore) UpdateSymptoms(ctx context.Context, patientID, symptoms string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record := s.getOrCreate(patientID)
	record.Symptoms = symptoms
	record.PriorVisits++
	record.UpdatedAt = time.Now()
	return nil
}

// AppendMedications appends meds without deduplication, creating the record
// if absent
func (s *PatientStore) AppendMedications(ctx context.Context, patientID string, meds []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record := s.getOrCreate(patientID)
	record.Medications = append(record.Medications, meds...)
	record.UpdatedAt = time.Now()
	return nil
}

// getOrCreate must be called with the write lock held
func (s *PatientStore) getOrCreate(patientID string) *entities.PatientRecord {
	record, ok := s.records[patientID]
	if !ok {
		record = entities.NewPatientRecord(patientID)
		s.records[patientID] = record
	}
	return record
}

func cloneRecord(record *entities.PatientRecord) *entities.PatientRecord {
	clone := *record
	clone.Medications = append([]string(nil), record.Medications...)
	return &clone
}
