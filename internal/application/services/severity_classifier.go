package services

import (
	"strings"
)

// SeverityClassifier rates diagnosis text on a 1-10 scale from keyword
// presence alone. It is a tested policy, not free-text parsing: matching is
// case-sensitive substring search and the clamps are idempotent.
type SeverityClassifier struct {
	severeKeywords []string
	mildKeywords   []string
}

const (
	severityBaseline   = 5
	severityFloorSevere = 8
	severityCeilMild   = 3
)

// NewSeverityClassifier creates a classifier with the fixed keyword sets
func NewSeverityClassifier() *SeverityClassifier {
	return &SeverityClassifier{
		severeKeywords: []string{"life-threatening", "critical", "emergency", "urgent"},
		mildKeywords:   []string{"manageable", "mild", "low risk", "treatable"},
	}
}

// Classify scores the given text. The baseline is 5; any severe keyword
// raises the score to at least 8, any mild keyword lowers it to at most 3.
// The mild clamp is applied after the severe one, so when both sets match
// the mild ceiling wins.
func (c *SeverityClassifier) Classify(text string) int {
	score := severityBaseline

	for _, keyword := range c.severeKeywords {
		if strings.Contains(text, keyword) {
			if score < severityFloorSevere {
				score = severityFloorSevere
			}
		}
	}

	for _, keyword := range c.mildKeywords {
		if strings.Contains(text, keyword) {
			if score > severityCeilMild {
				score = severityCeilMild
			}
		}
	}

	return score
}

// IsSevere reports whether a score warrants a follow-up appointment
func IsSevere(score int) bool {
	return score > severityBaseline
}
