package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanJSON(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "plain object", in: `{"isValid":true}`, want: `{"isValid":true}`},
		{name: "json fence", in: "```json\n{\"isValid\":true}\n```", want: `{"isValid":true}`},
		{name: "bare fence", in: "```\n{\"a\":1}\n```", want: `{"a":1}`},
		{name: "prose around object", in: "Here you go: {\"a\":{\"b\":2}} hope it helps", want: `{"a":{"b":2}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, CleanJSON(tt.in))
		})
	}
}

func TestDecodeJSON(t *testing.T) {
	t.Parallel()

	var out struct {
		IsValid   bool   `json:"isValid"`
		RiskLevel string `json:"riskLevel"`
	}
	require.NoError(t, DecodeJSON("```json\n{\"isValid\":false,\"riskLevel\":\"high\"}\n```", &out))
	assert.False(t, out.IsValid)
	assert.Equal(t, "high", out.RiskLevel)

	require.Error(t, DecodeJSON("not json", &out))
}

func TestManager_RegisterClient(t *testing.T) {
	t.Parallel()
	m := NewManager()

	require.Error(t, m.RegisterClient("x", Config{Provider: "cohere"}))
	require.Error(t, m.RegisterClient("openai", Config{Provider: "openai"}), "missing key")
	require.NoError(t, m.RegisterClient("anthropic", Config{Provider: "anthropic", APIKey: "k", Model: "claude-sonnet-4-5", MaxCompletionTokens: 100}))

	client, err := m.GetClient("anthropic")
	require.NoError(t, err)
	assert.Equal(t, "anthropic", client.GetModelInfo().Provider)

	m.RemoveClient("anthropic")
	_, err = m.GetClient("anthropic")
	require.Error(t, err)
}
