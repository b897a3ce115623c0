package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"

	"github.com/careloop/medvisit/internal/domain/entities"
	"github.com/careloop/medvisit/internal/domain/repositories"
	"github.com/careloop/medvisit/internal/infrastructure/clients/postgres"
	"github.com/careloop/medvisit/internal/infrastructure/observability"
	apperrors "github.com/careloop/medvisit/pkg/errors"
)

// PatientAdapter implements the PatientRepository interface on PostgreSQL.
//
// Medication history lives in its own append-only table; rows are never
// updated or deleted, which preserves the grow-only invariant at the schema
// level.
type PatientAdapter struct {
	client  *postgres.Client
	db      *goqu.Database
	metrics *observability.Metrics
}

// NewPatientAdapter creates a new patient adapter. metrics may be nil.
func NewPatientAdapter(client *postgres.Client, metrics *observability.Metrics) repositories.PatientRepository {
	return &PatientAdapter{
		client:  client,
		db:      goqu.New("postgres", client.DB()),
		metrics: metrics,
	}
}

// Get retrieves the record for a patient. Unseen identifiers yield (nil, nil).
func (a *PatientAdapter) Get(ctx context.Context, patientID string) (*entities.PatientRecord, error) {
	defer a.timeQuery(ctx, "patients.get")()

	query, args, err := a.db.Select(
		"patient_id", "symptoms", "prior_visits", "created_at", "updated_at",
	).From("patients").
		Where(goqu.Ex{"patient_id": patientID}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build patient query", err)
	}

	record := &entities.PatientRecord{}
	var symptoms sql.NullString

	err = a.client.DB().QueryRowContext(ctx, query, args...).Scan(
		&record.PatientID,
		&symptoms,
		&record.PriorVisits,
		&record.CreatedAt,
		&record.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get patient record", err)
	}
	record.Symptoms = symptoms.String

	meds, err := a.loadMedications(ctx, patientID)
	if err != nil {
		return nil, err
	}
	record.Medications = meds

	return record, nil
}

// Put stores the full record, creating it if absent. Medications are not
// written here; they only grow through AppendMedications.
func (a *PatientAdapter) Put(ctx context.Context, record *entities.PatientRecord) error {
	defer a.timeQuery(ctx, "patients.put")()

	query, args, err := a.db.Insert("patients").Rows(goqu.Record{
		"patient_id":   record.PatientID,
		"symptoms":     record.Symptoms,
		"prior_visits": record.PriorVisits,
		"created_at":   record.CreatedAt,
		"updated_at":   time.Now(),
	}).OnConflict(goqu.DoUpdate("patient_id", goqu.Record{
		"symptoms":     record.Symptoms,
		"prior_visits": record.PriorVisits,
		"updated_at":   time.Now(),
	})).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build patient upsert", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to store patient record", err)
	}
	return nil
}

// UpdateSymptoms overwrites the symptoms field and bumps the prior-visit
// count, creating the record if absent
func (a *PatientAdapter) UpdateSymptoms(ctx context.Context, patientID, symptoms string) error {
	defer a.timeQuery(ctx, "patients.update_symptoms")()

	now := time.Now()
	query, args, err := a.db.Insert("patients").Rows(goqu.Record{
		"patient_id":   patientID,
		"symptoms":     symptoms,
		"prior_visits": 1,
		"created_at":   now,
		"updated_at":   now,
	}).OnConflict(goqu.DoUpdate("patient_id", goqu.Record{
		"symptoms":     symptoms,
		"prior_visits": goqu.L("patients.prior_visits + 1"),
		"updated_at":   now,
	})).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build symptoms upsert", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to update patient symptoms", err)
	}
	return nil
}

// AppendMedications appends meds to the history table, creating the patient
// row if absent. Duplicates are kept.
func (a *PatientAdapter) AppendMedications(ctx context.Context, patientID string, meds []string) error {
	if len(meds) == 0 {
		return nil
	}
	defer a.timeQuery(ctx, "patients.append_medications")()

	now := time.Now()
	query, args, err := a.db.Insert("patients").Rows(goqu.Record{
		"patient_id":   patientID,
		"symptoms":     "",
		"prior_visits": 0,
		"created_at":   now,
		"updated_at":   now,
	}).OnConflict(goqu.DoNothing()).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build patient insert", err)
	}
	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to ensure patient record", err)
	}

	rows := make([]interface{}, 0, len(meds))
	for _, med := range meds {
		rows = append(rows, goqu.Record{
			"patient_id": patientID,
			"medication": med,
			"created_at": now,
		})
	}

	query, args, err = a.db.Insert("patient_medications").Rows(rows...).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build medications insert", err)
	}
	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to append medications", err)
	}
	return nil
}

// timeQuery records the duration of one repository operation
func (a *PatientAdapter) timeQuery(ctx context.Context, operation string) func() {
	start := time.Now()
	return func() {
		observability.RecordDBMetric(ctx, a.metrics, operation, time.Since(start))
	}
}

// loadMedications returns the patient's medication history in insertion order
func (a *PatientAdapter) loadMedications(ctx context.Context, patientID string) ([]string, error) {
	query, args, err := a.db.Select("medication").
		From("patient_medications").
		Where(goqu.Ex{"patient_id": patientID}).
		Order(goqu.I("id").Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build medications query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to load medications", err)
	}
	defer rows.Close()

	meds := []string{}
	for rows.Next() {
		var med string
		if err := rows.Scan(&med); err != nil {
			return nil, apperrors.NewInternalError("failed to scan medication", err)
		}
		meds = append(meds, med)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to iterate medications", err)
	}
	return meds, nil
}
