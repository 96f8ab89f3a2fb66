package constants

import "fmt"

const (
	OpenAI    = "openai"
	Gemini    = "gemini"
	Anthropic = "anthropic"
)

const (
	QueryValidationSchemaName   = "query-validation"
	QueryOptimizationSchemaName = "query-optimization"
)

// GetQueryValidationPrompt returns the system prompt used to review a statement before execution
func GetQueryValidationPrompt(dbType string) string {
	return fmt.Sprintf(QueryValidationPrompt, dialectName(dbType))
}

// GetQueryOptimizationPrompt returns the system prompt used to suggest a rewrite of a statement
func GetQueryOptimizationPrompt(dbType string) string {
	return fmt.Sprintf(QueryOptimizationPrompt, dialectName(dbType))
}

func dialectName(dbType string) string {
	switch dbType {
	case DatabaseTypeMySQL:
		return "MySQL"
	case DatabaseTypeClickhouse:
		return "ClickHouse"
	case DatabaseTypeMongoDB:
		return "MongoDB"
	default:
		return "PostgreSQL"
	}
}
