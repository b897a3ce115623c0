package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/careloop/medvisit/internal/adapters/memory"
	"github.com/careloop/medvisit/internal/domain/entities"
	apperrors "github.com/careloop/medvisit/pkg/errors"
)

func TestVisitStore(t *testing.T) {
	ctx := context.Background()

	t.Run("round-trips a visit record", func(t *testing.T) {
		store := memory.NewVisitStore()

		record := &entities.VisitRecord{
			ID:        "visit-1",
			PatientID: "123",
			CreatedAt: time.Now(),
		}
		require.NoError(t, store.Create(ctx, record))

		stored, err := store.GetByID(ctx, "visit-1")
		require.NoError(t, err)
		assert.Equal(t, "123", stored.PatientID)
	})

	t.Run("unknown id is a not-found error", func(t *testing.T) {
		store := memory.NewVisitStore()

		_, err := store.GetByID(ctx, "missing")

		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))
	})

	t.Run("lists a patient's visits newest first", func(t *testing.T) {
		store := memory.NewVisitStore()
		base := time.Now()

		for i, id := range []string{"a", "b", "c"} {
			require.NoError(t, store.Create(ctx, &entities.VisitRecord{
				ID:        id,
				PatientID: "123",
				CreatedAt: base.Add(time.Duration(i) * time.Minute),
			}))
		}
		require.NoError(t, store.Create(ctx, &entities.VisitRecord{
			ID:        "other",
			PatientID: "456",
			CreatedAt: base,
		}))

		visits, err := store.ListByPatient(ctx, "123", 2)
		require.NoError(t, err)

		require.Len(t, visits, 2)
		assert.Equal(t, "c", visits[0].ID)
		assert.Equal(t, "b", visits[1].ID)
	})
}
