package services

import (
	"context"
	"sync"

	"datashorts/internal/models"
	"datashorts/pkg/dbmanager"
	"datashorts/pkg/llm"
	"datashorts/pkg/schemasync"
	"datashorts/pkg/vectorstore"
)

type mockExecutor struct {
	mu                  sync.Mutex
	executed            []string
	ExecuteSQLQueryFunc func(query string) *dbmanager.QueryResult
	BeginTxFunc         func() (dbmanager.Transaction, error)
}

func (m *mockExecutor) ExecuteSQLQuery(_ context.Context, _ string, query string) *dbmanager.QueryResult {
	m.mu.Lock()
	m.executed = append(m.executed, query)
	m.mu.Unlock()
	if m.ExecuteSQLQueryFunc != nil {
		return m.ExecuteSQLQueryFunc(query)
	}
	return &dbmanager.QueryResult{Success: true, Rows: []map[string]interface{}{}}
}

func (m *mockExecutor) BeginTx(context.Context, string) (dbmanager.Transaction, error) {
	return m.BeginTxFunc()
}

type mockTx struct {
	executed   []string
	committed  bool
	rolledBack bool
	failOn     string
}

func (t *mockTx) ExecuteSQLQuery(_ context.Context, query string) *dbmanager.QueryResult {
	t.executed = append(t.executed, query)
	if query == t.failOn {
		return &dbmanager.QueryResult{Success: false, Error: "syntax error"}
	}
	return &dbmanager.QueryResult{Success: true, RowsAffected: 1}
}

func (t *mockTx) Commit() error {
	t.committed = true
	return nil
}

func (t *mockTx) Rollback() error {
	t.rolledBack = true
	return nil
}

type mockSynchronizer struct {
	smartCalls []string
	SmartFunc  func(sql string) *schemasync.IncrementalUpdateResult
}

func (m *mockSynchronizer) SmartSchemaUpdate(_ context.Context, _ string, sql string) *schemasync.IncrementalUpdateResult {
	m.smartCalls = append(m.smartCalls, sql)
	if m.SmartFunc != nil {
		return m.SmartFunc(sql)
	}
	return &schemasync.IncrementalUpdateResult{Success: true, Strategy: "targeted", ChangeType: "CREATE_TABLE", TablesProcessed: 1, VectorsAdded: 4}
}

func (m *mockSynchronizer) IncrementalSchemaUpdate(context.Context, string) *schemasync.IncrementalUpdateResult {
	return &schemasync.IncrementalUpdateResult{Success: true, Strategy: "full"}
}

func (m *mockSynchronizer) LatestReport(context.Context, string) (*schemasync.IncrementalUpdateResult, error) {
	return nil, schemasync.ErrReportNotFound
}

type mockVectors struct {
	QueryFunc func(req vectorstore.QueryRequest) ([]vectorstore.Match, error)
	lastReq   vectorstore.QueryRequest
}

func (m *mockVectors) Query(_ context.Context, req vectorstore.QueryRequest) ([]vectorstore.Match, error) {
	m.lastReq = req
	if m.QueryFunc != nil {
		return m.QueryFunc(req)
	}
	return []vectorstore.Match{
		{ID: "v1", Score: 0.9, Metadata: vectorstore.Metadata{TableName: "users", Columns: "id (integer), email (text)"}},
	}, nil
}

type mockEmbedder struct {
	texts []string
}

func (m *mockEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	m.texts = append(m.texts, text)
	return []float32{1, 0, 0}, nil
}

type mockLLM struct {
	requests         []llm.Request
	GenerateJSONFunc func(req llm.Request) (string, error)
}

func (m *mockLLM) GenerateJSON(_ context.Context, req llm.Request) (string, error) {
	m.requests = append(m.requests, req)
	return m.GenerateJSONFunc(req)
}

func (m *mockLLM) GetModelInfo() llm.ModelInfo {
	return llm.ModelInfo{Name: "mock", Provider: "mock"}
}

type mockConnections struct{}

func (mockConnections) FindByID(_ context.Context, id string) (*models.Connection, error) {
	if id != "conn-1" {
		return nil, nil
	}
	return &models.Connection{ID: id, ConnectionName: "shop", DBType: "postgresql"}, nil
}

type mockHistory struct {
	records   []*models.QueryHistory
	CreateErr error
}

func (m *mockHistory) Create(_ context.Context, history *models.QueryHistory) error {
	if m.CreateErr != nil {
		return m.CreateErr
	}
	m.records = append(m.records, history)
	return nil
}

func (m *mockHistory) FindByConnection(_ context.Context, connectionID string, page, pageSize int) ([]*models.QueryHistory, int64, error) {
	var found []*models.QueryHistory
	for _, r := range m.records {
		if r.ConnectionID == connectionID {
			found = append(found, r)
		}
	}
	total := int64(len(found))
	start := (page - 1) * pageSize
	if start >= len(found) {
		return []*models.QueryHistory{}, total, nil
	}
	end := start + pageSize
	if end > len(found) {
		end = len(found)
	}
	return found[start:end], total, nil
}
