package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/careloop/medvisit/internal/domain/entities"
)

func TestBuildDiagnoseUserPrompt(t *testing.T) {
	t.Run("with history quotes prior and current symptoms", func(t *testing.T) {
		prompt := buildDiagnoseUserPrompt("cough and fever", "still coughing", "", "")

		assert.Contains(t, prompt, "previous symptoms were: 'cough and fever'")
		assert.Contains(t, prompt, "current symptoms are: 'still coughing'")
	})

	t.Run("without history degrades to current symptoms only", func(t *testing.T) {
		prompt := buildDiagnoseUserPrompt("", "still coughing", "", "")

		assert.Contains(t, prompt, "no recorded history")
		assert.Contains(t, prompt, "'still coughing'")
		assert.NotContains(t, prompt, "previous symptoms")
	})

	t.Run("advisory and follow-up are included when present", func(t *testing.T) {
		advisory := "**MILD Alert:** something"
		prompt := buildDiagnoseUserPrompt("prior", "current", advisory, "Monday, October 21, 2024 at 10:30 AM")

		assert.Contains(t, prompt, advisory)
		assert.Contains(t, prompt, "Suggested follow-up appointment: Monday, October 21, 2024 at 10:30 AM.")
	})
}

func TestBuildAdvisoryBlock(t *testing.T) {
	t.Run("empty findings produce empty block", func(t *testing.T) {
		assert.Empty(t, buildAdvisoryBlock(nil))
	})

	t.Run("one line per finding", func(t *testing.T) {
		block := buildAdvisoryBlock([]entities.InteractionFinding{
			{Severity: entities.InteractionSevere, Message: "severe msg"},
			{Severity: entities.InteractionMild, Message: "mild msg"},
		})

		assert.Equal(t, "**SEVERE Alert:** severe msg\n**MILD Alert:** mild msg", block)
	})
}

func TestParseDiagnosisPayload(t *testing.T) {
	payload := `{
		"summarized_diagnosis": "Tension headache.",
		"treatment_steps": ["Rest", "Hydrate"],
		"appointment_schedule": "Monday, October 21, 2024 at 10:30 AM",
		"prescribed_medications": [{"name": "Ibuprofen", "dosage": "200mg"}]
	}`

	t.Run("parses plain JSON", func(t *testing.T) {
		pkg, err := parseDiagnosisPayload(payload)
		require.NoError(t, err)

		assert.Equal(t, "Tension headache.", pkg.SummarizedDiagnosis)
		assert.Equal(t, []string{"Rest", "Hydrate"}, pkg.TreatmentSteps)
		require.Len(t, pkg.PrescribedMedications, 1)
		assert.Equal(t, "Ibuprofen", pkg.PrescribedMedications[0].Name)
	})

	t.Run("strips json code fences", func(t *testing.T) {
		pkg, err := parseDiagnosisPayload("```json\n" + payload + "\n```")
		require.NoError(t, err)
		assert.Equal(t, "Tension headache.", pkg.SummarizedDiagnosis)
	})

	t.Run("strips bare code fences", func(t *testing.T) {
		pkg, err := parseDiagnosisPayload("```\n" + payload + "\n```")
		require.NoError(t, err)
		assert.Equal(t, "Tension headache.", pkg.SummarizedDiagnosis)
	})

	t.Run("prose output fails to parse", func(t *testing.T) {
		_, err := parseDiagnosisPayload("You likely have a tension headache. Rest and hydrate.")
		assert.Error(t, err)
	})
}
