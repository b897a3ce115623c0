package services_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/careloop/medvisit/internal/application/services"
)

func TestMedicationExtractor_Extract(t *testing.T) {
	extractor := services.NewMedicationExtractor(services.NewInteractionChecker(), nil)

	t.Run("finds table medications in a transcript", func(t *testing.T) {
		meds := extractor.Extract("I take Metformin daily and started Ibuprofen last week.")
		assert.Equal(t, []string{"Ibuprofen", "Metformin"}, meds)
	})

	t.Run("finds default extra medications", func(t *testing.T) {
		meds := extractor.Extract("She has been on Aspirin and Warfarin for years.")
		assert.Equal(t, []string{"Warfarin", "Aspirin"}, meds)
	})

	t.Run("matching is case-sensitive", func(t *testing.T) {
		meds := extractor.Extract("patient takes metformin")
		assert.Empty(t, meds)
	})

	t.Run("no medications yields empty result", func(t *testing.T) {
		assert.Empty(t, extractor.Extract("I have a persistent cough and mild fever."))
	})

	t.Run("configured extras extend the vocabulary", func(t *testing.T) {
		custom := services.NewMedicationExtractor(services.NewInteractionChecker(), []string{"Atorvastatin"})

		meds := custom.Extract("Currently on Atorvastatin.")
		assert.Equal(t, []string{"Atorvastatin"}, meds)

		// explicit extras replace the defaults
		assert.Empty(t, custom.Extract("Currently on Warfarin."))
	})
}
