package entities

// InteractionSeverity grades a pairwise medication interaction
type InteractionSeverity string

const (
	InteractionMild   InteractionSeverity = "MILD"
	InteractionSevere InteractionSeverity = "SEVERE"
)

// InteractionFinding flags one medication interaction with an explanatory
// message for the prescribing context
type InteractionFinding struct {
	Severity InteractionSeverity `json:"severity"`
	Message  string              `json:"message"`
}

// InteractionTable maps an ordered pair of medication names to a finding.
// The outer key is the historical medication, the inner key the current one.
// Lookups are deliberately asymmetric: [historical][current] only.
type InteractionTable map[string]map[string]InteractionFinding
