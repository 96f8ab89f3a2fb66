package schemasync

import (
	"testing"

	"datashorts/internal/constants"

	"github.com/stretchr/testify/assert"
)

func TestDetectSchemaChangeType(t *testing.T) {
	tests := []struct {
		name  string
		sql   string
		want  string
		table string
	}{
		{"create", "CREATE TABLE orders (id int)", constants.ChangeTypeCreateTable, "orders"},
		{"create lower case", "create table Orders (id int)", constants.ChangeTypeCreateTable, "orders"},
		{"create if not exists", "CREATE TABLE IF NOT EXISTS orders (id int)", constants.ChangeTypeCreateTable, "orders"},
		{"create schema qualified", "CREATE TABLE public.orders (id int)", constants.ChangeTypeCreateTable, "orders"},
		{"create quoted", `CREATE TABLE "OrderItems" (id int)`, constants.ChangeTypeCreateTable, "OrderItems"},
		{"create backticks", "CREATE TABLE `shop`.`line_items` (id int)", constants.ChangeTypeCreateTable, "line_items"},
		{"drop", "DROP TABLE orders", constants.ChangeTypeDropTable, "orders"},
		{"drop if exists", "  DROP TABLE IF EXISTS orders;", constants.ChangeTypeDropTable, "orders"},
		{"alter", "ALTER TABLE users ADD COLUMN age int", constants.ChangeTypeAlterTable, "users"},
		{"alter only", "ALTER TABLE ONLY users DROP COLUMN age", constants.ChangeTypeAlterTable, "users"},
		{"alter multiline", "ALTER\n  TABLE\tusers\n RENAME COLUMN a TO b", constants.ChangeTypeAlterTable, "users"},
		{"create index", "CREATE INDEX idx_users_email ON users (email)", constants.ChangeTypeOther, ""},
		{"drop index", "drop index idx_users_email", constants.ChangeTypeOther, ""},
		{"rename table", "RENAME TABLE a TO b", constants.ChangeTypeOther, ""},
		{"select", "SELECT * FROM users", constants.ChangeTypeNone, ""},
		{"insert", "INSERT INTO orders VALUES (1)", constants.ChangeTypeNone, ""},
		{"empty", "", constants.ChangeTypeNone, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DetectSchemaChangeType(tt.sql)
			assert.Equal(t, tt.want, got.Type)
			assert.Equal(t, tt.table, got.AffectedTable)
		})
	}
}

func TestDetectSchemaChangeType_CreateWinsOverDrop(t *testing.T) {
	got := DetectSchemaChangeType("DROP TABLE old_orders; CREATE TABLE orders (id int)")
	assert.Equal(t, constants.ChangeTypeCreateTable, got.Type)
	assert.Equal(t, "orders", got.AffectedTable)
}

func TestDetectSchemaChanges(t *testing.T) {
	assert.True(t, DetectSchemaChanges("create table t (id int)"))
	assert.True(t, DetectSchemaChanges("ALTER TABLE t ADD COLUMN x int"))
	assert.True(t, DetectSchemaChanges("CREATE INDEX i ON t (x)"))
	assert.True(t, DetectSchemaChanges("RENAME TABLE a TO b"))
	assert.False(t, DetectSchemaChanges("SELECT * FROM t"))
	assert.False(t, DetectSchemaChanges("UPDATE t SET x = 1"))
}

func TestDetectSchemaChangeType_AlterWinsOverIndexKeyword(t *testing.T) {
	got := DetectSchemaChangeType("ALTER TABLE users ADD COLUMN age int; CREATE INDEX idx_age ON users (age)")
	assert.Equal(t, constants.ChangeTypeAlterTable, got.Type)
	assert.Equal(t, "users", got.AffectedTable)
}

func TestDetectSchemaChangeType_KeepsSchemaQualifier(t *testing.T) {
	tests := []struct {
		sql    string
		schema string
		table  string
	}{
		{"DROP TABLE audit.users", "audit", "users"},
		{"DROP TABLE orders", "", "orders"},
		{`ALTER TABLE "Audit"."Users" ADD COLUMN x int`, "Audit", "Users"},
		{"CREATE TABLE `shop`.`line_items` (id int)", "shop", "line_items"},
		{"CREATE TABLE Public.Orders (id int)", "public", "orders"},
	}

	for _, tt := range tests {
		t.Run(tt.sql, func(t *testing.T) {
			got := DetectSchemaChangeType(tt.sql)
			assert.Equal(t, tt.schema, got.Schema)
			assert.Equal(t, tt.table, got.AffectedTable)
		})
	}
}
