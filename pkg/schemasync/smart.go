package schemasync

import (
	"context"
	"fmt"
	"strings"

	"datashorts/internal/constants"
	"datashorts/internal/models"
)

// SmartSchemaUpdate picks a single-table update when the statement names one
// created, dropped or altered table, and the full reconciliation otherwise.
func (s *Synchronizer) SmartSchemaUpdate(ctx context.Context, connectionID, sql string) *IncrementalUpdateResult {
	unlock := s.lock(connectionID)
	defer unlock()

	detection := DetectSchemaChangeType(sql)

	var result *IncrementalUpdateResult
	switch detection.Type {
	case constants.ChangeTypeCreateTable, constants.ChangeTypeDropTable, constants.ChangeTypeAlterTable:
		if detection.AffectedTable != "" {
			result = s.targetedTableUpdate(ctx, connectionID, detection.Schema, detection.AffectedTable, detection.Type)
			break
		}
		fallthrough
	default:
		result = s.incrementalSchemaUpdate(ctx, connectionID, constants.SyncStrategyFull)
	}
	result.ChangeType = detection.Type

	s.saveReport(ctx, connectionID, result)
	return result
}

// TargetedTableUpdate refreshes the embeddings of one table. tableName may be
// schema qualified. Any failure degrades to the full incremental update.
func (s *Synchronizer) TargetedTableUpdate(ctx context.Context, connectionID, tableName, changeType string) *IncrementalUpdateResult {
	unlock := s.lock(connectionID)
	defer unlock()

	schema, table := splitTableName(tableName)
	result := s.targetedTableUpdate(ctx, connectionID, schema, table, changeType)
	result.ChangeType = changeType
	s.saveReport(ctx, connectionID, result)
	return result
}

func (s *Synchronizer) targetedTableUpdate(ctx context.Context, connectionID, schema, tableName, changeType string) *IncrementalUpdateResult {
	result, err := s.tryTargetedUpdate(ctx, connectionID, schema, tableName, changeType)
	if err == nil {
		return result
	}

	s.cfg.Logger.Info("Targeted schema update fell back to full sync",
		"connection_id", connectionID, "schema", schema, "table", tableName, "change_type", changeType, "reason", err)
	return s.incrementalSchemaUpdate(ctx, connectionID, constants.SyncStrategyFallback)
}

func (s *Synchronizer) tryTargetedUpdate(ctx context.Context, connectionID, schema, tableName, changeType string) (*IncrementalUpdateResult, error) {
	result := newResult(constants.SyncStrategyTargeted)
	defer func() { result.CompletedAt = s.cfg.Now() }()

	conn, err := s.connection(ctx, connectionID)
	if err != nil {
		return nil, err
	}

	// embeddings are keyed by bare table name, so a qualifier naming another
	// schema must never touch them
	synced, err := s.isSyncedSchema(ctx, conn, schema)
	if err != nil {
		return nil, err
	}
	if !synced {
		return nil, fmt.Errorf("%w: %s.%s", ErrUntrackedSchema, schema, tableName)
	}

	if changeType == constants.ChangeTypeDropTable {
		report := s.DeleteTableEmbeddings(ctx, connectionID, []string{tableName})
		if len(report.Failures) > 0 {
			return nil, fmt.Errorf("%w: %s", ErrVectorStore, report.Failures[0].Error)
		}
		if report.Deleted == 0 {
			// nothing was embedded under that name, so our view of the schema is off
			return nil, fmt.Errorf("%w: no embeddings for dropped table %s", ErrTableNotFound, tableName)
		}
		result.TablesProcessed = 1
		result.VectorsRemoved = constants.EmbeddingVariantsPerTable
		result.Details.Removed = []string{tableName}
		return result, nil
	}

	columns, err := s.tableColumns(ctx, conn, tableName)
	if err != nil {
		return nil, err
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrTableNotFound, tableName)
	}

	report := s.DeleteTableEmbeddings(ctx, connectionID, []string{tableName})
	result.Failures = append(result.Failures, report.Failures...)

	records, err := s.GenerateTableEmbeddings(ctx, []TableSchema{{TableName: tableName, Columns: columns}}, conn.ID, conn.ConnectionName, conn.DBType)
	if err != nil {
		return nil, err
	}
	if err := s.upsert(ctx, records); err != nil {
		return nil, err
	}

	result.TablesProcessed = 1
	if changeType == constants.ChangeTypeCreateTable {
		result.VectorsAdded = len(records)
		result.Details.Added = []string{tableName}
	} else {
		result.VectorsUpdated = len(records)
		result.Details.Modified = []string{tableName}
	}

	s.cfg.Logger.Info("Targeted schema update applied",
		"connection_id", connectionID, "table", tableName, "change_type", changeType, "vectors", len(records))
	return result, nil
}

// isSyncedSchema reports whether a statement's schema qualifier names the
// schema the catalog reader embeds: public on PostgreSQL, the connection's
// current database on MySQL and ClickHouse.
func (s *Synchronizer) isSyncedSchema(ctx context.Context, conn *models.Connection, schema string) (bool, error) {
	if schema == "" {
		return true, nil
	}

	switch conn.DBType {
	case constants.DatabaseTypePostgreSQL:
		return schema == "public", nil
	case constants.DatabaseTypeMySQL, constants.DatabaseTypeClickhouse:
		database, err := s.currentDatabase(ctx, conn)
		if err != nil {
			return false, err
		}
		return strings.EqualFold(schema, database), nil
	default:
		return false, nil
	}
}
