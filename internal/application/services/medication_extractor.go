package services

import (
	"strings"
)

// MedicationExtractor scans a transcript for known medication names.
//
// Extraction is substring matching against a fixed vocabulary: the
// interaction table's medications plus any configured extras. This is the
// observable contract for deriving a visit's current medications from the
// transcript; anything outside the vocabulary is ignored.
type MedicationExtractor struct {
	known []string
}

// defaultExtraMedications are vocabulary entries without table interactions
var defaultExtraMedications = []string{"Simvastatin", "Warfarin", "Insulin", "Aspirin"}

// NewMedicationExtractor builds an extractor from the checker's vocabulary
// plus extras. Order is preserved and duplicates dropped.
func NewMedicationExtractor(checker *InteractionChecker, extras []string) *MedicationExtractor {
	if len(extras) == 0 {
		extras = defaultExtraMedications
	}

	seen := make(map[string]struct{})
	var known []string
	for _, med := range append(checker.KnownMedications(), extras...) {
		if _, ok := seen[med]; ok {
			continue
		}
		seen[med] = struct{}{}
		known = append(known, med)
	}

	return &MedicationExtractor{known: known}
}

// Extract returns the known medications mentioned in the transcript,
// in vocabulary order
func (e *MedicationExtractor) Extract(transcript string) []string {
	var found []string
	for _, med := range e.known {
		if strings.Contains(transcript, med) {
			found = append(found, med)
		}
	}
	return found
}
