package constants

// JSON schemas handed to providers that support structured output.

const QueryValidationResponseSchema = `{
  "type": "object",
  "required": ["isValid", "riskLevel", "warnings", "suggestions", "estimatedImpact"],
  "properties": {
    "isValid": {"type": "boolean"},
    "riskLevel": {"type": "string", "enum": ["low", "medium", "high"]},
    "warnings": {"type": "array", "items": {"type": "string"}},
    "suggestions": {"type": "array", "items": {"type": "string"}},
    "estimatedImpact": {"type": "string"}
  },
  "additionalProperties": false
}`

const QueryOptimizationResponseSchema = `{
  "type": "object",
  "required": ["optimizedQuery", "explanation", "improvements"],
  "properties": {
    "optimizedQuery": {"type": "string"},
    "explanation": {"type": "string"},
    "improvements": {"type": "array", "items": {"type": "string"}}
  },
  "additionalProperties": false
}`
