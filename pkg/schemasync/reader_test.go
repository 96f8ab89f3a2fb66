package schemasync

import (
	"testing"

	"datashorts/internal/constants"
	"datashorts/pkg/dbmanager"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGroupCatalogRows(t *testing.T) {
	def := "nextval('users_id_seq')"
	rows := []map[string]interface{}{
		{"table_name": "users", "column_name": "id", "data_type": "integer", "is_nullable": "NO", "column_default": &def},
		{"table_name": "users", "column_name": "email", "data_type": "text", "is_nullable": "yes", "column_default": nil},
		{"table_name": "empty_table", "column_name": nil, "data_type": nil, "is_nullable": nil, "column_default": nil},
		{"table_name": "orders", "column_name": []byte("id"), "data_type": "bigint", "is_nullable": "NO", "column_default": ""},
	}

	tables := groupCatalogRows(rows)
	require.Len(t, tables, 2)

	assert.Equal(t, "users", tables[0].TableName)
	require.Len(t, tables[0].Columns, 2)
	assert.Equal(t, "id", tables[0].Columns[0].ColumnName)
	require.NotNil(t, tables[0].Columns[0].ColumnDefault)
	assert.Equal(t, def, *tables[0].Columns[0].ColumnDefault)
	assert.Equal(t, "YES", tables[0].Columns[1].IsNullable)
	assert.Nil(t, tables[0].Columns[1].ColumnDefault)

	assert.Equal(t, "orders", tables[1].TableName)
	assert.Equal(t, "id", tables[1].Columns[0].ColumnName)
	assert.Nil(t, tables[1].Columns[0].ColumnDefault)
}

func TestCatalogQuery(t *testing.T) {
	q, err := catalogQuery(constants.DatabaseTypePostgreSQL, "")
	require.NoError(t, err)
	assert.Contains(t, q, "table_schema = 'public'")
	assert.NotContains(t, q, "%s")

	q, err = catalogQuery(constants.DatabaseTypeMySQL, "o'rders")
	require.NoError(t, err)
	assert.Contains(t, q, "AND t.TABLE_NAME = 'o''rders'")

	q, err = catalogQuery(constants.DatabaseTypeClickhouse, "events")
	require.NoError(t, err)
	assert.Contains(t, q, "system.columns")
	assert.Contains(t, q, "AND t.name = 'events'")

	_, err = catalogQuery("oracle", "")
	assert.ErrorIs(t, err, ErrSchemaFetch)
}

func TestCollectionsToTables(t *testing.T) {
	tables := collectionsToTables([]dbmanager.CollectionSchema{
		{Name: "users", Fields: []dbmanager.FieldInfo{
			{Name: "_id", Type: "objectId", Required: true},
			{Name: "nickname", Type: "string"},
		}},
		{Name: "empty"},
	})

	require.Len(t, tables, 1)
	assert.Equal(t, "users", tables[0].TableName)
	assert.Equal(t, "NO", tables[0].Columns[0].IsNullable)
	assert.Equal(t, "YES", tables[0].Columns[1].IsNullable)
}
