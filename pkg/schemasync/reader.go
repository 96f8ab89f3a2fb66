package schemasync

import (
	"context"
	"fmt"
	"strings"

	"datashorts/internal/constants"
	"datashorts/internal/models"
	"datashorts/pkg/dbmanager"
)

// Catalog queries return table_name, column_name, data_type, is_nullable,
// column_default ordered by table then column position. %s receives an
// optional single-table predicate.
const (
	postgresCatalogQuery = `SELECT t.table_name, c.column_name, c.data_type, c.is_nullable, c.column_default
FROM information_schema.tables t
LEFT JOIN information_schema.columns c
  ON c.table_schema = t.table_schema AND c.table_name = t.table_name
WHERE t.table_schema = 'public'%s
ORDER BY t.table_name, c.ordinal_position`

	mysqlCatalogQuery = `SELECT t.TABLE_NAME AS table_name, c.COLUMN_NAME AS column_name, c.DATA_TYPE AS data_type,
  c.IS_NULLABLE AS is_nullable, c.COLUMN_DEFAULT AS column_default
FROM information_schema.TABLES t
LEFT JOIN information_schema.COLUMNS c
  ON c.TABLE_SCHEMA = t.TABLE_SCHEMA AND c.TABLE_NAME = t.TABLE_NAME
WHERE t.TABLE_SCHEMA = DATABASE()%s
ORDER BY t.TABLE_NAME, c.ORDINAL_POSITION`

	clickhouseCatalogQuery = `SELECT t.name AS table_name, c.name AS column_name, c.type AS data_type,
  if(startsWith(c.type, 'Nullable'), 'YES', 'NO') AS is_nullable, c.default_expression AS column_default
FROM system.tables t
LEFT JOIN system.columns c
  ON c.database = t.database AND c.table = t.name
WHERE t.database = currentDatabase()%s
ORDER BY t.name, c.position`
)

// GetCurrentDatabaseSchema reads the live catalog of a connection
func (s *Synchronizer) GetCurrentDatabaseSchema(ctx context.Context, connectionID string) ([]TableSchema, error) {
	conn, err := s.connection(ctx, connectionID)
	if err != nil {
		return nil, err
	}
	return s.currentSchema(ctx, conn)
}

func (s *Synchronizer) currentSchema(ctx context.Context, conn *models.Connection) ([]TableSchema, error) {
	if conn.DBType == constants.DatabaseTypeMongoDB {
		return s.sampleCollections(ctx, conn.ID, nil)
	}

	query, err := catalogQuery(conn.DBType, "")
	if err != nil {
		return nil, err
	}
	return s.runCatalogQuery(ctx, conn.ID, query)
}

// tableColumns reads a single table. A missing table yields an empty slice.
func (s *Synchronizer) tableColumns(ctx context.Context, conn *models.Connection, table string) ([]Column, error) {
	var (
		tables []TableSchema
		err    error
	)
	if conn.DBType == constants.DatabaseTypeMongoDB {
		tables, err = s.sampleCollections(ctx, conn.ID, []string{table})
	} else {
		var query string
		query, err = catalogQuery(conn.DBType, table)
		if err != nil {
			return nil, err
		}
		tables, err = s.runCatalogQuery(ctx, conn.ID, query)
	}
	if err != nil {
		return nil, err
	}

	for _, t := range tables {
		if t.TableName == table {
			return t.Columns, nil
		}
	}
	return []Column{}, nil
}

func catalogQuery(dbType, table string) (string, error) {
	var base, column string
	switch dbType {
	case constants.DatabaseTypePostgreSQL:
		base, column = postgresCatalogQuery, "t.table_name"
	case constants.DatabaseTypeMySQL:
		base, column = mysqlCatalogQuery, "t.TABLE_NAME"
	case constants.DatabaseTypeClickhouse:
		base, column = clickhouseCatalogQuery, "t.name"
	default:
		return "", fmt.Errorf("%w: unsupported database type %s", ErrSchemaFetch, dbType)
	}

	predicate := ""
	if table != "" {
		predicate = fmt.Sprintf(" AND %s = %s", column, quoteLiteral(table))
	}
	return fmt.Sprintf(base, predicate), nil
}

// currentDatabase returns the database a MySQL or ClickHouse connection reads its catalog from
func (s *Synchronizer) currentDatabase(ctx context.Context, conn *models.Connection) (string, error) {
	query := "SELECT DATABASE() AS db_name"
	if conn.DBType == constants.DatabaseTypeClickhouse {
		query = "SELECT currentDatabase() AS db_name"
	}

	result := s.cfg.Executor.ExecuteSQLQuery(ctx, conn.ID, query)
	if result == nil || !result.Success {
		msg := "no result"
		if result != nil {
			msg = result.Error
		}
		return "", fmt.Errorf("%w: %s", ErrSchemaFetch, msg)
	}
	if len(result.Rows) == 0 {
		return "", fmt.Errorf("%w: no current database", ErrSchemaFetch)
	}
	name, _ := stringValue(result.Rows[0]["db_name"])
	return name, nil
}

func (s *Synchronizer) runCatalogQuery(ctx context.Context, connectionID, query string) ([]TableSchema, error) {
	result := s.cfg.Executor.ExecuteSQLQuery(ctx, connectionID, query)
	if result == nil || !result.Success {
		msg := "no result"
		if result != nil {
			msg = result.Error
		}
		return nil, fmt.Errorf("%w: %s", ErrSchemaFetch, msg)
	}
	return groupCatalogRows(result.Rows), nil
}

// groupCatalogRows folds ordered catalog rows into tables. Rows without a
// column name (tables with no columns on the LEFT JOIN) are dropped.
func groupCatalogRows(rows []map[string]interface{}) []TableSchema {
	tables := make([]TableSchema, 0)
	index := make(map[string]int)

	for _, row := range rows {
		tableName, ok := stringValue(row["table_name"])
		if !ok || tableName == "" {
			continue
		}
		columnName, ok := stringValue(row["column_name"])
		if !ok || columnName == "" {
			continue
		}

		dataType, _ := stringValue(row["data_type"])
		nullable, _ := stringValue(row["is_nullable"])
		col := Column{
			ColumnName: columnName,
			DataType:   dataType,
			IsNullable: strings.ToUpper(nullable),
		}
		if def, ok := stringValue(row["column_default"]); ok && def != "" {
			col.ColumnDefault = &def
		}

		i, seen := index[tableName]
		if !seen {
			i = len(tables)
			index[tableName] = i
			tables = append(tables, TableSchema{TableName: tableName, Columns: []Column{}})
		}
		tables[i].Columns = append(tables[i].Columns, col)
	}
	return tables
}

func (s *Synchronizer) sampleCollections(ctx context.Context, connectionID string, names []string) ([]TableSchema, error) {
	if s.cfg.Collections == nil {
		return nil, fmt.Errorf("%w: collection sampling is not configured", ErrSchemaFetch)
	}

	collections, err := s.cfg.Collections.SampleCollections(ctx, connectionID, names)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSchemaFetch, err)
	}
	return collectionsToTables(collections), nil
}

func collectionsToTables(collections []dbmanager.CollectionSchema) []TableSchema {
	tables := make([]TableSchema, 0, len(collections))
	for _, coll := range collections {
		if len(coll.Fields) == 0 {
			continue
		}
		columns := make([]Column, 0, len(coll.Fields))
		for _, f := range coll.Fields {
			nullable := "YES"
			if f.Required {
				nullable = "NO"
			}
			columns = append(columns, Column{ColumnName: f.Name, DataType: f.Type, IsNullable: nullable})
		}
		tables = append(tables, TableSchema{TableName: coll.Name, Columns: columns})
	}
	return tables
}

func stringValue(v interface{}) (string, bool) {
	switch val := v.(type) {
	case nil:
		return "", false
	case string:
		return val, true
	case []byte:
		return string(val), true
	case *string:
		if val == nil {
			return "", false
		}
		return *val, true
	default:
		return fmt.Sprint(val), true
	}
}

func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
