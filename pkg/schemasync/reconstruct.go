package schemasync

import (
	"context"
	"fmt"
	"strings"

	"datashorts/internal/constants"
	"datashorts/pkg/vectorstore"
)

// GetExistingSchemaFromEmbeddings rebuilds the previously embedded schema of a
// connection from vector metadata only. No embeddings means first sync and
// yields an empty slice.
func (s *Synchronizer) GetExistingSchemaFromEmbeddings(ctx context.Context, connectionID string) ([]TableSchema, error) {
	filter := schemaFilter(connectionID)
	tables := make([]TableSchema, 0)
	seen := make(map[string]bool)

	cursor := ""
	for {
		page, err := s.cfg.Store.List(ctx, vectorstore.ListRequest{
			Filter: filter,
			Cursor: cursor,
			Limit:  s.cfg.ListPageSize,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: listing schema embeddings: %w", ErrVectorStore, err)
		}

		for _, record := range page.Records {
			name := record.Metadata.TableName
			if name == "" || seen[name] {
				continue
			}
			seen[name] = true
			tables = append(tables, TableSchema{
				TableName: name,
				Columns:   ParseColumnsText(record.Metadata.Columns),
			})
		}

		if page.NextCursor == "" {
			break
		}
		cursor = page.NextCursor
	}

	return tables, nil
}

// FormatColumnsText renders columns as "name (type), name (type)"
func FormatColumnsText(columns []Column) string {
	parts := make([]string, 0, len(columns))
	for _, c := range columns {
		parts = append(parts, fmt.Sprintf("%s (%s)", c.ColumnName, c.DataType))
	}
	return strings.Join(parts, ", ")
}

// ParseColumnsText is the inverse of FormatColumnsText. Nullability and
// defaults are not stored, so every column comes back nullable with no default.
// Types may themselves contain parentheses and commas, e.g. Decimal(10, 2).
func ParseColumnsText(text string) []Column {
	columns := make([]Column, 0)

	add := func(item string) {
		item = strings.TrimSpace(item)
		open := strings.Index(item, "(")
		if open <= 0 || !strings.HasSuffix(item, ")") {
			return
		}
		name := strings.TrimSpace(item[:open])
		if name == "" {
			return
		}
		columns = append(columns, Column{
			ColumnName: name,
			DataType:   strings.TrimSpace(item[open+1 : len(item)-1]),
			IsNullable: "YES",
		})
	}

	depth, start := 0, 0
	for i, r := range text {
		switch r {
		case '(':
			depth++
		case ')':
			if depth > 0 {
				depth--
			}
		case ',':
			if depth == 0 {
				add(text[start:i])
				start = i + 1
			}
		}
	}
	add(text[start:])

	return columns
}

func schemaFilter(connectionID string) vectorstore.Filter {
	return vectorstore.Filter{
		ConnectionID: connectionID,
		Pipeline:     constants.SchemaEmbeddingPipeline,
		Type:         constants.SchemaEmbeddingType,
	}
}
