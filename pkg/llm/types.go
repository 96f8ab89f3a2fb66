package llm

import (
	"context"
)

// Request is a single-turn completion that must answer with a JSON object.
type Request struct {
	SystemPrompt string
	UserPrompt   string
	// SchemaName and Schema describe the expected JSON object for providers with structured output.
	SchemaName string
	Schema     string
}

// Client defines the interface for LLM interactions
type Client interface {
	GenerateJSON(ctx context.Context, req Request) (string, error)
	GetModelInfo() ModelInfo
}

// ModelInfo contains information about the LLM model
type ModelInfo struct {
	Name                string
	Provider            string
	MaxCompletionTokens int
}

// Config holds configuration for LLM clients
type Config struct {
	Provider            string
	Model               string
	APIKey              string
	MaxCompletionTokens int
	Temperature         float64
}
