package services

import (
	"encoding/json"
	"os"
	"sort"

	"github.com/careloop/medvisit/internal/domain/entities"
	"github.com/careloop/medvisit/internal/infrastructure/observability"
)

// InteractionChecker cross-references a visit's medications against a
// patient's medication history through a static interaction table.
//
// The table is keyed [historical][current] and looked up in that order only;
// the reverse pair never matches. Findings are emitted in iteration order of
// current medications nested inside historical ones, without deduplication.
type InteractionChecker struct {
	table entities.InteractionTable
}

// defaultInteractionTable covers the known drug pairs shipped with the
// service. A config file extends or replaces it.
func defaultInteractionTable() entities.InteractionTable {
	return entities.InteractionTable{
		"Metformin": {
			"Prednisone": {
				Severity: entities.InteractionSevere,
				Message:  "Prednisone can increase blood sugar levels, which can worsen diabetes control when taken with Metformin.",
			},
			"Ibuprofen": {
				Severity: entities.InteractionMild,
				Message:  "Taking Ibuprofen with Metformin may increase the risk of kidney problems.",
			},
		},
		"Lisinopril": {
			"Ibuprofen": {
				Severity: entities.InteractionMild,
				Message:  "Ibuprofen may reduce the effectiveness of Lisinopril and increase the risk of kidney damage.",
			},
			"Spironolactone": {
				Severity: entities.InteractionSevere,
				Message:  "Using Lisinopril with Spironolactone can increase the risk of high potassium levels, leading to heart problems.",
			},
		},
	}
}

// NewInteractionChecker creates a checker with the built-in table
func NewInteractionChecker() *InteractionChecker {
	return &InteractionChecker{table: defaultInteractionTable()}
}

// NewInteractionCheckerFromFile creates a checker from a JSON table file
func NewInteractionCheckerFromFile(path string) (*InteractionChecker, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var table entities.InteractionTable
	if err := json.Unmarshal(data, &table); err != nil {
		return nil, err
	}

	return &InteractionChecker{table: table}, nil
}

// NewInteractionCheckerWithFallback loads the table from a JSON file and
// falls back to the built-in table when the file is missing or malformed
func NewInteractionCheckerWithFallback(path string) *InteractionChecker {
	checker, err := NewInteractionCheckerFromFile(path)
	if err != nil {
		observability.GetLogger().Warn().
			Str("path", path).
			Err(err).
			Msg("Failed to load drug interaction table, using built-in table")
		return NewInteractionChecker()
	}
	return checker
}

// Check returns all findings for the cross product of historical and current
// medications. The result may be empty and may contain repeats.
func (c *InteractionChecker) Check(historical, current []string) []entities.InteractionFinding {
	var findings []entities.InteractionFinding

	for _, historicalMed := range historical {
		byCurrent, ok := c.table[historicalMed]
		if !ok {
			continue
		}
		for _, currentMed := range current {
			if finding, ok := byCurrent[currentMed]; ok {
				findings = append(findings, finding)
			}
		}
	}

	return findings
}

// KnownMedications returns every medication name the table mentions,
// sorted for deterministic extraction order
func (c *InteractionChecker) KnownMedications() []string {
	seen := make(map[string]struct{})
	for historicalMed, byCurrent := range c.table {
		seen[historicalMed] = struct{}{}
		for currentMed := range byCurrent {
			seen[currentMed] = struct{}{}
		}
	}

	meds := make([]string, 0, len(seen))
	for med := range seen {
		meds = append(meds, med)
	}
	sort.Strings(meds)
	return meds
}
