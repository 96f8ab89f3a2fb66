package schemasync

import (
	"context"
	"fmt"
	"testing"

	"datashorts/internal/constants"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatAndParseColumnsText(t *testing.T) {
	columns := cols("id", "integer", "price", "Decimal(10, 2)", "tags", "Array(String)", "created_at", "timestamp without time zone")

	text := FormatColumnsText(columns)
	assert.Equal(t, "id (integer), price (Decimal(10, 2)), tags (Array(String)), created_at (timestamp without time zone)", text)

	parsed := ParseColumnsText(text)
	require.Len(t, parsed, 4)
	for i := range columns {
		assert.Equal(t, columns[i].ColumnName, parsed[i].ColumnName)
		assert.Equal(t, columns[i].DataType, parsed[i].DataType)
	}
	assert.Equal(t, columnSignature(columns), columnSignature(parsed))
}

func TestParseColumnsText_Malformed(t *testing.T) {
	assert.Empty(t, ParseColumnsText(""))
	assert.Empty(t, ParseColumnsText("garbage"))

	parsed := ParseColumnsText("id (int), broken, name (text)")
	require.Len(t, parsed, 2)
	assert.Equal(t, "name", parsed[1].ColumnName)
}

func TestGetExistingSchemaFromEmbeddings_ReadsEveryPage(t *testing.T) {
	f := newFixture(t)
	f.sync.cfg.ListPageSize = 3

	tables := make([]TableSchema, 0, 7)
	names := make([]string, 0, 7)
	for i := 0; i < 7; i++ {
		name := fmt.Sprintf("table_%02d", i)
		names = append(names, name)
		tables = append(tables, TableSchema{TableName: name, Columns: cols("id", "integer", "label", "text")})
	}
	f.catalog.set(tables...)
	require.True(t, f.sync.IncrementalSchemaUpdate(context.Background(), "conn-1").Success)
	require.Equal(t, 28, f.store.Len())
	f.resetCounters()

	existing, err := f.sync.GetExistingSchemaFromEmbeddings(context.Background(), "conn-1")
	require.NoError(t, err)

	got := make([]string, 0, len(existing))
	for _, table := range existing {
		got = append(got, table.TableName)
		assert.Len(t, table.Columns, 2)
	}
	assert.ElementsMatch(t, names, got)
	assert.Equal(t, 10, f.store.lists, "28 records in pages of 3")

	f.resetCounters()
	again := f.sync.IncrementalSchemaUpdate(context.Background(), "conn-1")
	require.True(t, again.Success)
	assert.Zero(t, again.TablesProcessed)
	assert.Len(t, again.Details.Unchanged, 7)
	assert.Zero(t, f.store.upserts)
	assert.Zero(t, f.store.deletes)
	assert.Zero(t, f.embedder.calls)
}

func TestNewSynchronizer_DefaultsListPageSize(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, constants.SchemaListPageSize, f.sync.cfg.ListPageSize)
}
