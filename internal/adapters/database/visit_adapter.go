package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"

	"github.com/careloop/medvisit/internal/domain/entities"
	"github.com/careloop/medvisit/internal/domain/repositories"
	"github.com/careloop/medvisit/internal/infrastructure/clients/postgres"
	"github.com/careloop/medvisit/internal/infrastructure/observability"
	apperrors "github.com/careloop/medvisit/pkg/errors"
)

// VisitAdapter implements the VisitRepository interface on PostgreSQL.
// Treatment steps and prescriptions are stored as JSON columns.
type VisitAdapter struct {
	client  *postgres.Client
	db      *goqu.Database
	metrics *observability.Metrics
}

// NewVisitAdapter creates a new visit adapter. metrics may be nil.
func NewVisitAdapter(client *postgres.Client, metrics *observability.Metrics) repositories.VisitRepository {
	return &VisitAdapter{
		client:  client,
		db:      goqu.New("postgres", client.DB()),
		metrics: metrics,
	}
}

// Create persists a completed visit record
func (a *VisitAdapter) Create(ctx context.Context, record *entities.VisitRecord) error {
	defer a.timeQuery(ctx, "visits.create")()

	steps, err := json.Marshal(record.TreatmentSteps)
	if err != nil {
		return apperrors.NewInternalError("failed to marshal treatment steps", err)
	}
	prescriptions, err := json.Marshal(record.PrescribedMedications)
	if err != nil {
		return apperrors.NewInternalError("failed to marshal prescriptions", err)
	}

	query, args, err := a.db.Insert("visits").Rows(goqu.Record{
		"id":                     record.ID,
		"patient_id":             record.PatientID,
		"transcript":             record.Transcript,
		"formal_description":     record.FormalDescription,
		"diagnosis_text":         record.DiagnosisText,
		"patient_summary":        record.PatientSummary,
		"severity_score":         record.SeverityScore,
		"summarized_diagnosis":   record.SummarizedDiagnosis,
		"treatment_steps":        steps,
		"appointment_schedule":   record.AppointmentSchedule,
		"prescribed_medications": prescriptions,
		"created_at":             record.CreatedAt,
	}).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build visit insert", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to create visit record", err)
	}
	return nil
}

// GetByID retrieves a visit record by ID
func (a *VisitAdapter) GetByID(ctx context.Context, id string) (*entities.VisitRecord, error) {
	defer a.timeQuery(ctx, "visits.get")()

	query, args, err := a.selectVisits().Where(goqu.Ex{"id": id}).ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build visit query", err)
	}

	record, err := a.scanVisit(a.client.DB().QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("visit with id %s not found", id))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get visit record", err)
	}
	return record, nil
}

// ListByPatient retrieves visit records for a patient, newest first
func (a *VisitAdapter) ListByPatient(ctx context.Context, patientID string, limit int) ([]*entities.VisitRecord, error) {
	defer a.timeQuery(ctx, "visits.list")()

	ds := a.selectVisits().
		Where(goqu.Ex{"patient_id": patientID}).
		Order(goqu.I("created_at").Desc())
	if limit > 0 {
		ds = ds.Limit(uint(limit))
	}

	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build visit list query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list visit records", err)
	}
	defer rows.Close()

	var records []*entities.VisitRecord
	for rows.Next() {
		record, err := a.scanVisit(rows)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan visit record", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to iterate visit records", err)
	}
	return records, nil
}

// timeQuery records the duration of one repository operation
func (a *VisitAdapter) timeQuery(ctx context.Context, operation string) func() {
	start := time.Now()
	return func() {
		observability.RecordDBMetric(ctx, a.metrics, operation, time.Since(start))
	}
}

func (a *VisitAdapter) selectVisits() *goqu.SelectDataset {
	return a.db.Select(
		"id", "patient_id", "transcript", "formal_description",
		"diagnosis_text", "patient_summary", "severity_score",
		"summarized_diagnosis", "treatment_steps", "appointment_schedule",
		"prescribed_medications", "created_at",
	).From("visits")
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (a *VisitAdapter) scanVisit(row rowScanner) (*entities.VisitRecord, error) {
	record := &entities.VisitRecord{}
	var stepsRaw, prescriptionsRaw []byte

	err := row.Scan(
		&record.ID,
		&record.PatientID,
		&record.Transcript,
		&record.FormalDescription,
		&record.DiagnosisText,
		&record.PatientSummary,
		&record.SeverityScore,
		&record.SummarizedDiagnosis,
		&stepsRaw,
		&record.AppointmentSchedule,
		&prescriptionsRaw,
		&record.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(stepsRaw) > 0 {
		_ = json.Unmarshal(stepsRaw, &record.TreatmentSteps)
	}
	if len(prescriptionsRaw) > 0 {
		_ = json.Unmarshal(prescriptionsRaw, &record.PrescribedMedications)
	}
	return record, nil
}
