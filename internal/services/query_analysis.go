package services

import (
	"context"
	"fmt"
	"strings"

	"datashorts/internal/apis/dtos"
	"datashorts/internal/constants"
	"datashorts/pkg/llm"
	"datashorts/pkg/vectorstore"
)

// schemaContext finds the schema embeddings closest to the statement. It is
// returned with every result and feeds the LLM steps; failures leave it empty.
func (s *queryAgentService) schemaContext(ctx context.Context, connectionID, sql string) []dtos.SchemaContextMatch {
	vector, err := s.cfg.Embedder.Embed(ctx, "Database schema for: "+sql)
	if err != nil {
		s.cfg.Logger.Warn("Failed to embed query for schema context", "connection_id", connectionID, "error", err)
		return nil
	}

	matches, err := s.cfg.Vectors.Query(ctx, vectorstore.QueryRequest{
		Vector: vector,
		TopK:   constants.SchemaContextTopK,
		Filter: vectorstore.Filter{
			ConnectionID: connectionID,
			Pipeline:     constants.SchemaEmbeddingPipeline,
			Type:         constants.SchemaEmbeddingType,
		},
	})
	if err != nil {
		s.cfg.Logger.Warn("Schema context search failed", "connection_id", connectionID, "error", err)
		return nil
	}

	found := make([]dtos.SchemaContextMatch, 0, len(matches))
	for _, m := range matches {
		found = append(found, dtos.SchemaContextMatch{
			TableName: m.Metadata.TableName,
			Columns:   m.Metadata.Columns,
			Score:     m.Score,
		})
	}
	return found
}

func (s *queryAgentService) validateQuery(ctx context.Context, sql, schema, dbType string, schemaContext []dtos.SchemaContextMatch) (*dtos.ValidationResult, error) {
	answer, err := s.cfg.LLM.GenerateJSON(ctx, llm.Request{
		SystemPrompt: constants.GetQueryValidationPrompt(dbType),
		UserPrompt:   buildAnalysisPrompt(sql, schema, schemaContext),
		SchemaName:   constants.QueryValidationSchemaName,
		Schema:       constants.QueryValidationResponseSchema,
	})
	if err != nil {
		return nil, fmt.Errorf("query validation failed: %w", err)
	}

	var validation dtos.ValidationResult
	if err := llm.DecodeJSON(answer, &validation); err != nil {
		return nil, fmt.Errorf("query validation failed: %w", err)
	}
	validation.RiskLevel = strings.ToLower(strings.TrimSpace(validation.RiskLevel))
	if validation.Warnings == nil {
		validation.Warnings = []string{}
	}
	if validation.Suggestions == nil {
		validation.Suggestions = []string{}
	}
	return &validation, nil
}

func (s *queryAgentService) optimizeQuery(ctx context.Context, sql, schema, dbType string, schemaContext []dtos.SchemaContextMatch) (*dtos.OptimizationSuggestion, error) {
	answer, err := s.cfg.LLM.GenerateJSON(ctx, llm.Request{
		SystemPrompt: constants.GetQueryOptimizationPrompt(dbType),
		UserPrompt:   buildAnalysisPrompt(sql, schema, schemaContext),
		SchemaName:   constants.QueryOptimizationSchemaName,
		Schema:       constants.QueryOptimizationResponseSchema,
	})
	if err != nil {
		return nil, fmt.Errorf("query optimization failed: %w", err)
	}

	var suggestion dtos.OptimizationSuggestion
	if err := llm.DecodeJSON(answer, &suggestion); err != nil {
		return nil, fmt.Errorf("query optimization failed: %w", err)
	}
	if strings.TrimSpace(suggestion.OptimizedQuery) == "" {
		return nil, nil
	}
	return &suggestion, nil
}

func buildAnalysisPrompt(sql, schema string, schemaContext []dtos.SchemaContextMatch) string {
	var b strings.Builder
	b.WriteString("Query:\n")
	b.WriteString(sql)
	b.WriteString("\n\n")
	if schema != "" {
		fmt.Fprintf(&b, "Schema: %s\n\n", schema)
	}
	b.WriteString("Relevant tables:\n")
	if len(schemaContext) == 0 {
		b.WriteString("(none found)\n")
	}
	for _, m := range schemaContext {
		fmt.Fprintf(&b, "- %s: %s\n", m.TableName, m.Columns)
	}
	return b.String()
}
