package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	anthropicoption "github.com/anthropics/anthropic-sdk-go/option"
)

type AnthropicClient struct {
	client              anthropic.Client
	model               anthropic.Model
	maxCompletionTokens int
	temperature         float64
}

func NewAnthropicClient(config Config) (*AnthropicClient, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("anthropic API key is required")
	}

	return &AnthropicClient{
		client:              anthropic.NewClient(anthropicoption.WithAPIKey(config.APIKey)),
		model:               anthropic.Model(config.Model),
		maxCompletionTokens: config.MaxCompletionTokens,
		temperature:         config.Temperature,
	}, nil
}

func (c *AnthropicClient) GenerateJSON(ctx context.Context, req Request) (string, error) {
	system := req.SystemPrompt
	if req.Schema != "" {
		system += "\n\nThe JSON object must validate against this JSON schema:\n" + req.Schema
	}

	msg, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       c.model,
		MaxTokens:   int64(c.maxCompletionTokens),
		Temperature: anthropic.Float(c.temperature),
		System: []anthropic.TextBlockParam{
			{Type: "text", Text: system},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.UserPrompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("anthropic API error: %w", err)
	}

	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("no text content in response")
	}

	return CleanJSON(sb.String()), nil
}

func (c *AnthropicClient) GetModelInfo() ModelInfo {
	return ModelInfo{
		Name:                string(c.model),
		Provider:            "anthropic",
		MaxCompletionTokens: c.maxCompletionTokens,
	}
}
