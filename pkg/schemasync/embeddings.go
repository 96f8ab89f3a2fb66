package schemasync

import (
	"context"
	"fmt"

	"datashorts/internal/constants"
	"datashorts/pkg/vectorstore"
)

// embeddingTemplates phrase one table four ways. Arguments: table, columns, db type.
var embeddingTemplates = [constants.EmbeddingVariantsPerTable]string{
	"Table %[1]s contains the following columns: %[2]s",
	"Database table %[1]s in a %[3]s database with fields: %[2]s",
	"The %[1]s table stores records described by the columns %[2]s",
	"Schema of %[1]s: %[2]s. Use table %[1]s when a question is about %[1]s data.",
}

// GenerateTableEmbeddings embeds every table once per template, sequentially
func (s *Synchronizer) GenerateTableEmbeddings(ctx context.Context, tables []TableSchema, connectionID, connectionName, dbType string) ([]vectorstore.Record, error) {
	now := s.cfg.Now()
	timestamp := now.UnixMilli()
	records := make([]vectorstore.Record, 0, len(tables)*len(embeddingTemplates))

	for _, table := range tables {
		columnsText := FormatColumnsText(table.Columns)

		for variant, template := range embeddingTemplates {
			text := fmt.Sprintf(template, table.TableName, columnsText, dbType)

			values, err := s.cfg.Embedder.Embed(ctx, text)
			if err != nil {
				return nil, fmt.Errorf("%w: table %s variant %d: %w", ErrEmbedding, table.TableName, variant, err)
			}

			records = append(records, vectorstore.Record{
				ID:     fmt.Sprintf("schema-%s-%s-%d-%d", connectionID, table.TableName, variant, timestamp),
				Values: values,
				Metadata: vectorstore.Metadata{
					ConnectionID:   connectionID,
					ConnectionName: connectionName,
					DBType:         dbType,
					TableName:      table.TableName,
					Text:           text,
					Columns:        columnsText,
					Pipeline:       constants.SchemaEmbeddingPipeline,
					Type:           constants.SchemaEmbeddingType,
					UpdatedAt:      now,
				},
			})
		}
	}

	return records, nil
}

// DeleteTableEmbeddings removes every schema vector of the named tables.
// A failing table is recorded and the loop moves on.
func (s *Synchronizer) DeleteTableEmbeddings(ctx context.Context, connectionID string, tableNames []string) DeleteReport {
	report := DeleteReport{}

	for _, table := range tableNames {
		filter := schemaFilter(connectionID)
		filter.TableName = table

		deleted, err := s.cfg.Store.DeleteMany(ctx, filter)
		if err != nil {
			s.cfg.Logger.Warn("Failed to delete table embeddings", "connection_id", connectionID, "table", table, "error", err)
			report.Failures = append(report.Failures, TableFailure{Table: table, Stage: "delete", Error: err.Error()})
			continue
		}
		report.Deleted += deleted
	}

	return report
}

func (s *Synchronizer) upsert(ctx context.Context, records []vectorstore.Record) error {
	if len(records) == 0 {
		return nil
	}
	if err := s.cfg.Store.Upsert(ctx, records); err != nil {
		return fmt.Errorf("%w: upsert: %w", ErrVectorStore, err)
	}
	return nil
}
