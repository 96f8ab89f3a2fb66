// Package embedding turns text into vectors for the schema embedding store.
package embedding

import (
	"context"
	"fmt"
)

type Provider interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimensions() int
	ModelName() string
}

type Config struct {
	Provider   string
	Model      string
	APIKey     string
	Dimensions int
}

// NewProvider creates the provider named by cfg.Provider
func NewProvider(cfg Config) (Provider, error) {
	switch cfg.Provider {
	case "openai":
		return NewOpenAIProvider(cfg)
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", cfg.Provider)
	}
}
