package providers

import (
	"context"
)

// GenerationRequest is a single prompt-in/text-out request to the
// generative text capability
type GenerationRequest struct {
	SystemRole      string
	UserPrompt      string
	Model           string
	MaxOutputTokens int
	Temperature     float64
}

// TextGenerator defines the interface for the external generative text
// service. The core does not depend on a specific vendor.
type TextGenerator interface {
	// Generate performs one blocking completion round-trip
	Generate(ctx context.Context, req GenerationRequest) (string, error)
}
