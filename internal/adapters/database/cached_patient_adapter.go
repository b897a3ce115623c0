package database

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/careloop/medvisit/internal/domain/entities"
	"github.com/careloop/medvisit/internal/domain/providers"
	"github.com/careloop/medvisit/internal/domain/repositories"
	"github.com/careloop/medvisit/internal/infrastructure/observability"
)

// CachedPatientAdapter wraps a PatientRepository with a read-through cache.
//
// Every write invalidates the patient's cache entry before hitting the
// underlying store, so a Get after a completed write never observes a stale
// record (per-key read-after-write consistency).
type CachedPatientAdapter struct {
	adapter repositories.PatientRepository
	cache   providers.CacheProvider
	metrics *observability.Metrics
}

// NewCachedPatientAdapter creates a new cached patient adapter
func NewCachedPatientAdapter(adapter repositories.PatientRepository, cache providers.CacheProvider, metrics *observability.Metrics) repositories.PatientRepository {
	return &CachedPatientAdapter{
		adapter: adapter,
		cache:   cache,
		metrics: metrics,
	}
}

// patientRecordTTL is the cache lifetime in seconds
const patientRecordTTL = 300

func patientCacheKey(patientID string) string {
	return fmt.Sprintf("patient:%s", patientID)
}

// Get retrieves a patient record, serving from cache when possible
func (a *CachedPatientAdapter) Get(ctx context.Context, patientID string) (*entities.PatientRecord, error) {
	cacheKey := patientCacheKey(patientID)

	if cached, err := a.cache.Get(ctx, cacheKey); err == nil {
		var record entities.PatientRecord
		unmarshalErr := json.Unmarshal(cached, &record)
		if unmarshalErr == nil {
			observability.RecordCacheHit(ctx, a.metrics, "patient")
			return &record, nil
		}
		log.Printf("Failed to unmarshal cached patient %s: %v", patientID, unmarshalErr)
	}
	observability.RecordCacheMiss(ctx, a.metrics, "patient")

	record, err := a.adapter.Get(ctx, patientID)
	if err != nil {
		return nil, err
	}
	if record == nil {
		// Absent records are not cached; negative caching would delay the
		// implicit creation a first describe step performs.
		return nil, nil
	}

	if data, err := json.Marshal(record); err == nil {
		if err := a.cache.Set(ctx, cacheKey, data, patientRecordTTL); err != nil {
			log.Printf("Failed to cache patient %s: %v", patientID, err)
		}
	}

	return record, nil
}

// Put stores the full record and invalidates the cache entry
func (a *CachedPatientAdapter) Put(ctx context.Context, record *entities.PatientRecord) error {
	a.invalidate(ctx, record.PatientID)
	return a.adapter.Put(ctx, record)
}

// UpdateSymptoms overwrites symptoms and invalidates the cache entry
func (a *CachedPatientAdapter) UpdateSymptoms(ctx context.Context, patientID, symptoms string) error {
	a.invalidate(ctx, patientID)
	return a.adapter.UpdateSymptoms(ctx, patientID, symptoms)
}

// AppendMedications appends meds and invalidates the cache entry
func (a *CachedPatientAdapter) AppendMedications(ctx context.Context, patientID string, meds []string) error {
	a.invalidate(ctx, patientID)
	return a.adapter.AppendMedications(ctx, patientID, meds)
}

func (a *CachedPatientAdapter) invalidate(ctx context.Context, patientID string) {
	if err := a.cache.Delete(ctx, patientCacheKey(patientID)); err != nil {
		log.Printf("Failed to invalidate cached patient %s: %v", patientID, err)
	}
}
