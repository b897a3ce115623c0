package database_test

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/careloop/medvisit/internal/adapters/database"
	"github.com/careloop/medvisit/internal/domain/repositories"
	"github.com/careloop/medvisit/internal/infrastructure/clients/postgres"
)

func newMockedPatientAdapter(t *testing.T) (repositories.PatientRepository, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return database.NewPatientAdapter(postgres.NewClientFromDB(db), nil), mock
}

func TestPatientAdapter_Get(t *testing.T) {
	t.Run("absent patient yields nil record and nil error", func(t *testing.T) {
		adapter, mock := newMockedPatientAdapter(t)

		mock.ExpectQuery(`SELECT .* FROM "patients"`).
			WillReturnRows(sqlmock.NewRows([]string{"patient_id", "symptoms", "prior_visits", "created_at", "updated_at"}))

		record, err := adapter.Get(context.Background(), "unknown")

		require.NoError(t, err)
		assert.Nil(t, record)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("loads the record with its medication history", func(t *testing.T) {
		adapter, mock := newMockedPatientAdapter(t)
		now := time.Now()

		mock.ExpectQuery(`SELECT .* FROM "patients"`).
			WillReturnRows(sqlmock.
				NewRows([]string{"patient_id", "symptoms", "prior_visits", "created_at", "updated_at"}).
				AddRow("123", "cough and fever", 2, now, now))
		mock.ExpectQuery(`SELECT .* FROM "patient_medications"`).
			WillReturnRows(sqlmock.
				NewRows([]string{"medication"}).
				AddRow("Metformin").
				AddRow("Ibuprofen"))

		record, err := adapter.Get(context.Background(), "123")

		require.NoError(t, err)
		assert.Equal(t, "cough and fever", record.Symptoms)
		assert.Equal(t, 2, record.PriorVisits)
		assert.Equal(t, []string{"Metformin", "Ibuprofen"}, record.Medications)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPatientAdapter_UpdateSymptoms(t *testing.T) {
	adapter, mock := newMockedPatientAdapter(t)

	mock.ExpectExec(`INSERT INTO "patients"`).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := adapter.UpdateSymptoms(context.Background(), "123", "still coughing")

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPatientAdapter_AppendMedications(t *testing.T) {
	t.Run("writes the patient row then the history rows", func(t *testing.T) {
		adapter, mock := newMockedPatientAdapter(t)

		mock.ExpectExec(`INSERT INTO "patients"`).
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectExec(`INSERT INTO "patient_medications"`).
			WillReturnResult(sqlmock.NewResult(1, 2))

		err := adapter.AppendMedications(context.Background(), "123", []string{"Metformin", "Ibuprofen"})

		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("no medications means no writes", func(t *testing.T) {
		adapter, mock := newMockedPatientAdapter(t)

		err := adapter.AppendMedications(context.Background(), "123", nil)

		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
