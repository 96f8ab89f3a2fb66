package embedding

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/cenkalti/backoff/v5"
	"github.com/sashabaranov/go-openai"
)

const (
	defaultOpenAIModel      = string(openai.SmallEmbedding3)
	defaultOpenAIDimensions = 1536
	maxEmbedAttempts        = 3
)

type OpenAIProvider struct {
	client     *openai.Client
	model      string
	dimensions int
}

func NewOpenAIProvider(cfg Config) (*OpenAIProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}
	model := cfg.Model
	if model == "" {
		model = defaultOpenAIModel
	}
	dimensions := cfg.Dimensions
	if dimensions == 0 {
		dimensions = defaultOpenAIDimensions
	}

	return &OpenAIProvider{
		client:     openai.NewClient(cfg.APIKey),
		model:      model,
		dimensions: dimensions,
	}, nil
}

func (p *OpenAIProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	req := openai.EmbeddingRequest{
		Input:      []string{text},
		Model:      openai.EmbeddingModel(p.model),
		Dimensions: p.dimensions,
	}

	return backoff.Retry(ctx, func() ([]float32, error) {
		resp, err := p.client.CreateEmbeddings(ctx, req)
		if err != nil {
			if isPermanent(err) {
				return nil, backoff.Permanent(fmt.Errorf("OpenAI embeddings error: %w", err))
			}
			return nil, fmt.Errorf("OpenAI embeddings error: %w", err)
		}
		if len(resp.Data) == 0 {
			return nil, backoff.Permanent(errors.New("no embedding returned from OpenAI"))
		}
		return resp.Data[0].Embedding, nil
	}, backoff.WithBackOff(backoff.NewExponentialBackOff()), backoff.WithMaxTries(maxEmbedAttempts))
}

func (p *OpenAIProvider) Dimensions() int {
	return p.dimensions
}

func (p *OpenAIProvider) ModelName() string {
	return p.model
}

// isPermanent reports client errors that a retry cannot fix.
func isPermanent(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode >= 400 && apiErr.HTTPStatusCode < 500 &&
			apiErr.HTTPStatusCode != http.StatusTooManyRequests
	}
	return false
}
