package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

// CleanJSON strips markdown fences some models wrap around JSON answers
func CleanJSON(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	// tolerate prose around the object
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		text = text[start : end+1]
	}
	return text
}

// DecodeJSON cleans a model answer and unmarshals it into v
func DecodeJSON(text string, v interface{}) error {
	if err := json.Unmarshal([]byte(CleanJSON(text)), v); err != nil {
		return fmt.Errorf("invalid response format: %w", err)
	}
	return nil
}
