package schemasync

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"datashorts/internal/constants"
	"datashorts/internal/models"
	"datashorts/pkg/dbmanager"
	"datashorts/pkg/vectorstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeCatalog answers catalog queries from an in-memory set of tables
type fakeCatalog struct {
	mu       sync.Mutex
	tables   []TableSchema
	err      string
	database string
}

var tablePredicateRe = regexp.MustCompile(`AND t\.table_name = '([^']+)'`)

func (c *fakeCatalog) set(tables ...TableSchema) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tables = tables
}

func (c *fakeCatalog) ExecuteSQLQuery(_ context.Context, _ string, query string) *dbmanager.QueryResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != "" {
		return &dbmanager.QueryResult{Success: false, Error: c.err}
	}
	if strings.Contains(query, "AS db_name") {
		rows := []map[string]interface{}{{"db_name": c.database}}
		return &dbmanager.QueryResult{Success: true, Rows: rows, RowCount: 1}
	}

	only := ""
	if m := tablePredicateRe.FindStringSubmatch(query); m != nil {
		only = m[1]
	}

	rows := make([]map[string]interface{}, 0)
	for _, t := range c.tables {
		if only != "" && t.TableName != only {
			continue
		}
		for _, col := range t.Columns {
			rows = append(rows, map[string]interface{}{
				"table_name":     t.TableName,
				"column_name":    col.ColumnName,
				"data_type":      col.DataType,
				"is_nullable":    col.IsNullable,
				"column_default": nil,
			})
		}
	}
	return &dbmanager.QueryResult{Success: true, Rows: rows, RowCount: len(rows)}
}

type mockConnections struct {
	FindByIDFunc          func(ctx context.Context, id string) (*models.Connection, error)
	UpdateTableSchemaFunc func(ctx context.Context, id string, snapshot string, updatedAt time.Time) error
	snapshots             int
}

func (m *mockConnections) FindByID(ctx context.Context, id string) (*models.Connection, error) {
	return m.FindByIDFunc(ctx, id)
}

func (m *mockConnections) UpdateTableSchema(ctx context.Context, id string, snapshot string, updatedAt time.Time) error {
	m.snapshots++
	if m.UpdateTableSchemaFunc != nil {
		return m.UpdateTableSchemaFunc(ctx, id, snapshot, updatedAt)
	}
	return nil
}

type mockEmbedder struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (e *mockEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls++
	if e.err != nil {
		return nil, e.err
	}
	return []float32{float32(len(text)), 1, 0}, nil
}

// countingStore wraps a MemoryStore, counts writes and can inject errors
type countingStore struct {
	*vectorstore.MemoryStore
	upserts   int
	deletes   int
	lists     int
	deleteErr error
	failTable string // limits deleteErr to one table when set
	listErr   error
}

func (s *countingStore) Upsert(ctx context.Context, records []vectorstore.Record) error {
	s.upserts++
	return s.MemoryStore.Upsert(ctx, records)
}

func (s *countingStore) DeleteMany(ctx context.Context, filter vectorstore.Filter) (int, error) {
	s.deletes++
	if s.deleteErr != nil && (s.failTable == "" || s.failTable == filter.TableName) {
		return 0, s.deleteErr
	}
	return s.MemoryStore.DeleteMany(ctx, filter)
}

func (s *countingStore) List(ctx context.Context, req vectorstore.ListRequest) (*vectorstore.ListPage, error) {
	s.lists++
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.MemoryStore.List(ctx, req)
}

type mockReports struct {
	saved []*IncrementalUpdateResult
	err   error
}

func (r *mockReports) SaveReport(_ context.Context, _ string, result *IncrementalUpdateResult) error {
	if r.err != nil {
		return r.err
	}
	r.saved = append(r.saved, result)
	return nil
}

func (r *mockReports) LatestReport(context.Context, string) (*IncrementalUpdateResult, error) {
	if len(r.saved) == 0 {
		return nil, ErrReportNotFound
	}
	return r.saved[len(r.saved)-1], nil
}

type fixture struct {
	sync        *Synchronizer
	catalog     *fakeCatalog
	store       *countingStore
	embedder    *mockEmbedder
	connections *mockConnections
	reports     *mockReports
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureFor(t, constants.DatabaseTypePostgreSQL)
}

func newFixtureFor(t *testing.T, dbType string) *fixture {
	t.Helper()

	f := &fixture{
		catalog:  &fakeCatalog{},
		store:    &countingStore{MemoryStore: vectorstore.NewMemoryStore()},
		embedder: &mockEmbedder{},
		reports:  &mockReports{},
	}
	f.connections = &mockConnections{FindByIDFunc: func(_ context.Context, id string) (*models.Connection, error) {
		if id != "conn-1" {
			return nil, nil
		}
		return &models.Connection{ID: id, ConnectionName: "shop", DBType: dbType}, nil
	}}

	clock := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	s, err := NewSynchronizer(&Config{
		Logger:      logger,
		Executor:    f.catalog,
		Connections: f.connections,
		Store:       f.store,
		Embedder:    f.embedder,
		Reports:     f.reports,
		Now: func() time.Time {
			clock = clock.Add(time.Millisecond)
			return clock
		},
	})
	require.NoError(t, err)
	f.sync = s
	return f
}

func (f *fixture) resetCounters() {
	f.store.upserts, f.store.deletes, f.store.lists, f.embedder.calls = 0, 0, 0, 0
}

func (f *fixture) vectorsFor(t *testing.T, table string) int {
	t.Helper()
	filter := schemaFilter("conn-1")
	filter.TableName = table
	page, err := f.store.MemoryStore.List(context.Background(), vectorstore.ListRequest{Filter: filter})
	require.NoError(t, err)
	return len(page.Records)
}

var (
	usersTable  = TableSchema{TableName: "users", Columns: cols("id", "integer", "email", "text")}
	ordersTable = TableSchema{TableName: "orders", Columns: cols("id", "integer", "user_id", "integer", "total", "numeric")}
)

func TestNewSynchronizer_Validates(t *testing.T) {
	_, err := NewSynchronizer(&Config{Logger: logger})
	assert.Error(t, err)
}

func TestIncrementalSchemaUpdate_FirstSyncEmbedsEverything(t *testing.T) {
	f := newFixture(t)
	f.catalog.set(usersTable, ordersTable)

	result := f.sync.IncrementalSchemaUpdate(context.Background(), "conn-1")

	require.True(t, result.Success, result.Error)
	assert.Equal(t, constants.SyncStrategyFull, result.Strategy)
	assert.Equal(t, []string{"orders", "users"}, result.Details.Added)
	assert.Equal(t, 8, result.VectorsAdded)
	assert.Equal(t, 2, result.TablesProcessed)
	assert.Equal(t, 8, f.store.Len())
	assert.Equal(t, 8, f.embedder.calls)
	assert.Equal(t, 1, f.connections.snapshots)
	assert.False(t, result.CompletedAt.IsZero())
	require.Len(t, f.reports.saved, 1)
}

func TestIncrementalSchemaUpdate_NoChangesIsIdempotent(t *testing.T) {
	f := newFixture(t)
	f.catalog.set(usersTable)
	require.True(t, f.sync.IncrementalSchemaUpdate(context.Background(), "conn-1").Success)
	f.resetCounters()

	result := f.sync.IncrementalSchemaUpdate(context.Background(), "conn-1")

	require.True(t, result.Success)
	assert.Equal(t, 0, result.TablesProcessed)
	assert.Equal(t, 0, result.VectorsAdded+result.VectorsRemoved+result.VectorsUpdated)
	assert.Equal(t, []string{"users"}, result.Details.Unchanged)
	assert.Empty(t, result.Details.Added)
	assert.Zero(t, f.store.upserts)
	assert.Zero(t, f.store.deletes)
	assert.Zero(t, f.embedder.calls)
	assert.Equal(t, 4, f.store.Len())
}

func TestIncrementalSchemaUpdate_RemovedAndModified(t *testing.T) {
	f := newFixture(t)
	f.catalog.set(usersTable, ordersTable)
	require.True(t, f.sync.IncrementalSchemaUpdate(context.Background(), "conn-1").Success)

	altered := TableSchema{TableName: "users", Columns: cols("id", "integer", "email", "text", "age", "integer")}
	f.catalog.set(altered)

	result := f.sync.IncrementalSchemaUpdate(context.Background(), "conn-1")

	require.True(t, result.Success)
	assert.Equal(t, []string{"orders"}, result.Details.Removed)
	assert.Equal(t, []string{"users"}, result.Details.Modified)
	assert.Equal(t, 4, result.VectorsRemoved)
	assert.Equal(t, 4, result.VectorsUpdated)
	assert.Equal(t, 2, result.TablesProcessed)
	assert.Equal(t, 0, f.vectorsFor(t, "orders"))
	assert.Equal(t, 4, f.vectorsFor(t, "users"))

	existing, err := f.sync.GetExistingSchemaFromEmbeddings(context.Background(), "conn-1")
	require.NoError(t, err)
	require.Len(t, existing, 1)
	assert.Len(t, existing[0].Columns, 3)
}

func TestIncrementalSchemaUpdate_Failures(t *testing.T) {
	t.Run("unknown connection", func(t *testing.T) {
		f := newFixture(t)
		result := f.sync.IncrementalSchemaUpdate(context.Background(), "missing")
		assert.False(t, result.Success)
		assert.Equal(t, "connection_not_found", result.ErrorKind)
	})

	t.Run("catalog failure", func(t *testing.T) {
		f := newFixture(t)
		f.catalog.err = "permission denied"
		result := f.sync.IncrementalSchemaUpdate(context.Background(), "conn-1")
		assert.False(t, result.Success)
		assert.Equal(t, "schema_fetch_failed", result.ErrorKind)
		assert.Contains(t, result.Error, "permission denied")
	})

	t.Run("listing failure does not re-embed", func(t *testing.T) {
		f := newFixture(t)
		f.catalog.set(usersTable)
		f.store.listErr = errors.New("index unavailable")
		result := f.sync.IncrementalSchemaUpdate(context.Background(), "conn-1")
		assert.False(t, result.Success)
		assert.Equal(t, "vector_store_failed", result.ErrorKind)
		assert.Zero(t, f.embedder.calls)
	})

	t.Run("embedding failure", func(t *testing.T) {
		f := newFixture(t)
		f.catalog.set(usersTable)
		f.embedder.err = errors.New("rate limited")
		result := f.sync.IncrementalSchemaUpdate(context.Background(), "conn-1")
		assert.False(t, result.Success)
		assert.Equal(t, "embedding_failed", result.ErrorKind)
		assert.Zero(t, f.store.Len())
	})

	t.Run("snapshot failure is not fatal", func(t *testing.T) {
		f := newFixture(t)
		f.catalog.set(usersTable)
		f.connections.UpdateTableSchemaFunc = func(context.Context, string, string, time.Time) error {
			return errors.New("read only")
		}
		result := f.sync.IncrementalSchemaUpdate(context.Background(), "conn-1")
		assert.True(t, result.Success)
		require.Len(t, result.Failures, 1)
		assert.Equal(t, "cache", result.Failures[0].Stage)
	})
}

func TestIncrementalSchemaUpdate_PartialDeleteFailureStillSucceeds(t *testing.T) {
	t.Run("removed table", func(t *testing.T) {
		f := newFixture(t)
		f.catalog.set(usersTable, ordersTable)
		require.True(t, f.sync.IncrementalSchemaUpdate(context.Background(), "conn-1").Success)

		f.catalog.set(TableSchema{TableName: "users", Columns: cols("id", "integer", "email", "text", "age", "integer")})
		f.store.deleteErr = errors.New("timeout")
		f.store.failTable = "orders"

		result := f.sync.IncrementalSchemaUpdate(context.Background(), "conn-1")

		require.True(t, result.Success, result.Error)
		assert.Empty(t, result.ErrorKind)
		require.Len(t, result.Failures, 1)
		assert.Equal(t, "orders", result.Failures[0].Table)
		assert.Equal(t, "delete", result.Failures[0].Stage)
		assert.Contains(t, result.Failures[0].Error, "timeout")
		assert.Equal(t, []string{"orders"}, result.Details.Removed)
		assert.Equal(t, []string{"users"}, result.Details.Modified)
		assert.Zero(t, result.VectorsRemoved)
		assert.Equal(t, 4, result.VectorsUpdated)
		assert.Equal(t, 2, result.TablesProcessed)
		assert.Equal(t, 4, f.vectorsFor(t, "orders"), "vectors of a failed delete stay in place")
		assert.Equal(t, 4, f.vectorsFor(t, "users"))
	})

	t.Run("every delete fails", func(t *testing.T) {
		f := newFixture(t)
		f.catalog.set(usersTable, ordersTable)
		require.True(t, f.sync.IncrementalSchemaUpdate(context.Background(), "conn-1").Success)

		f.catalog.set(TableSchema{TableName: "users", Columns: cols("id", "integer", "email", "text", "age", "integer")})
		f.store.deleteErr = errors.New("timeout")

		result := f.sync.IncrementalSchemaUpdate(context.Background(), "conn-1")

		require.True(t, result.Success, result.Error)
		require.Len(t, result.Failures, 2)
		for _, failure := range result.Failures {
			assert.Equal(t, "delete", failure.Stage)
		}
		assert.Equal(t, "orders", result.Failures[0].Table)
		assert.Equal(t, "users", result.Failures[1].Table)
		assert.Zero(t, result.VectorsRemoved)
		assert.Equal(t, 4, result.VectorsUpdated)
	})
}

func TestDeleteTableEmbeddings_CollectsFailures(t *testing.T) {
	f := newFixture(t)
	f.store.deleteErr = errors.New("timeout")

	report := f.sync.DeleteTableEmbeddings(context.Background(), "conn-1", []string{"a", "b"})

	assert.Equal(t, 0, report.Deleted)
	require.Len(t, report.Failures, 2)
	assert.Equal(t, "a", report.Failures[0].Table)
	assert.Equal(t, "b", report.Failures[1].Table)
	assert.Equal(t, 2, f.store.deletes)
}

func TestGenerateTableEmbeddings(t *testing.T) {
	f := newFixture(t)

	records, err := f.sync.GenerateTableEmbeddings(context.Background(), []TableSchema{usersTable}, "conn-1", "shop", constants.DatabaseTypePostgreSQL)
	require.NoError(t, err)
	require.Len(t, records, constants.EmbeddingVariantsPerTable)

	ids := make(map[string]bool)
	for _, r := range records {
		ids[r.ID] = true
		assert.Equal(t, "users", r.Metadata.TableName)
		assert.Equal(t, "id (integer), email (text)", r.Metadata.Columns)
		assert.Equal(t, constants.SchemaEmbeddingPipeline, r.Metadata.Pipeline)
		assert.Equal(t, constants.SchemaEmbeddingType, r.Metadata.Type)
		assert.Contains(t, r.Metadata.Text, "users")
		assert.Regexp(t, `^schema-conn-1-users-[0-3]-\d+$`, r.ID)
	}
	assert.Len(t, ids, constants.EmbeddingVariantsPerTable)
}
