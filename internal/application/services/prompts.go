package services

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/careloop/medvisit/internal/domain/entities"
)

// prompts.go holds the system prompts and prompt builders for the three
// visit workflow steps, plus the parser for the diagnose step's structured
// output.

const describeSystemPrompt = "You are a medical expert who translates patient symptoms into a formal description suitable for doctors."

const diagnoseSystemPrompt = `You are a doctor providing a medical diagnosis in simple language based on the patient's current symptoms and their previous history. Return ONLY valid JSON with this schema:
{
  "summarized_diagnosis": string (1-3 short sentences),
  "treatment_steps": string[] (ordered steps),
  "appointment_schedule": string (the suggested follow-up date-time verbatim, or "" if none was suggested),
  "prescribed_medications": [{"name": string, "dosage": string}]
}
Keep language simple. Include only the drug name and dosage for each prescribed medication.`

const simplifySystemPrompt = "You are a medical assistant who helps explain complex medical terms to patients in a simple and understandable way."

func buildDescribeUserPrompt(transcript string) string {
	return fmt.Sprintf(
		"The patient described the following symptoms: '%s'. Please rewrite this description in a formal, clinical way suitable for sending to a doctor.",
		transcript,
	)
}

func buildDiagnoseUserPrompt(priorSymptoms, transcript, advisory, followUpDate string) string {
	var b strings.Builder

	if priorSymptoms == "" {
		fmt.Fprintf(&b, "The patient has no recorded history. The current symptoms are: '%s'.", transcript)
	} else {
		fmt.Fprintf(&b, "The patient's previous symptoms were: '%s'. The current symptoms are: '%s'.", priorSymptoms, transcript)
	}

	if advisory != "" {
		b.WriteString("\n\nMedication interaction alerts for the prescribing context:\n")
		b.WriteString(advisory)
	}

	if followUpDate != "" {
		fmt.Fprintf(&b, "\n\nSuggested follow-up appointment: %s.", followUpDate)
	}

	b.WriteString("\n\nPlease provide a detailed diagnosis with a summarized diagnosis, treatment steps, and prescribed medications with only the drug name and dosage.")
	return b.String()
}

func buildSimplifyUserPrompt(diagnosisText string) string {
	return fmt.Sprintf(
		"Please simplify the following medical diagnosis for a patient: '%s'",
		diagnosisText,
	)
}

// buildAdvisoryBlock renders interaction findings the way they are surfaced
// in the generation context
func buildAdvisoryBlock(findings []entities.InteractionFinding) string {
	if len(findings) == 0 {
		return ""
	}

	lines := make([]string, 0, len(findings))
	for _, f := range findings {
		lines = append(lines, fmt.Sprintf("**%s Alert:** %s", f.Severity, f.Message))
	}
	return strings.Join(lines, "\n")
}

// stripMarkdownFences removes a surrounding ```json or ``` code block
func stripMarkdownFences(text string) string {
	cleaned := strings.TrimSpace(text)
	if strings.HasPrefix(cleaned, "```json") {
		cleaned = strings.TrimPrefix(cleaned, "```json")
		cleaned = strings.TrimSuffix(cleaned, "```")
	} else if strings.HasPrefix(cleaned, "```") {
		cleaned = strings.TrimPrefix(cleaned, "```")
		cleaned = strings.TrimSuffix(cleaned, "```")
	}
	return strings.TrimSpace(cleaned)
}

// parseDiagnosisPayload parses the diagnose step's structured output
func parseDiagnosisPayload(text string) (*entities.DiagnosisPackage, error) {
	var pkg entities.DiagnosisPackage
	if err := json.Unmarshal([]byte(stripMarkdownFences(text)), &pkg); err != nil {
		return nil, fmt.Errorf("failed to parse diagnosis payload: %w", err)
	}
	return &pkg, nil
}
