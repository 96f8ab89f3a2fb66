// Package schemasync keeps the schema embeddings of a connection in step with
// the live database catalog.
package schemasync

import (
	"errors"
	"time"
)

var (
	ErrConnectionNotFound = errors.New("connection not found")
	ErrSchemaFetch        = errors.New("failed to fetch database schema")
	ErrTableNotFound      = errors.New("table not found in catalog")
	ErrEmbedding          = errors.New("failed to generate embeddings")
	ErrVectorStore        = errors.New("vector store operation failed")
	ErrUntrackedSchema    = errors.New("table is outside the synced schema")
)

type Column struct {
	ColumnName    string  `json:"column_name"`
	DataType      string  `json:"data_type"`
	IsNullable    string  `json:"is_nullable"`
	ColumnDefault *string `json:"column_default"`
}

type TableSchema struct {
	TableName string   `json:"tableName"`
	Columns   []Column `json:"columns"`
}

// SchemaComparison partitions the union of table names of two snapshots.
// Every name appears in exactly one list; lists are sorted.
type SchemaComparison struct {
	AddedTables     []string `json:"addedTables"`
	RemovedTables   []string `json:"removedTables"`
	ModifiedTables  []string `json:"modifiedTables"`
	UnchangedTables []string `json:"unchangedTables"`
}

func (c SchemaComparison) HasChanges() bool {
	return len(c.AddedTables) > 0 || len(c.RemovedTables) > 0 || len(c.ModifiedTables) > 0
}

type ChangeDetection struct {
	Type          string `json:"type"`
	Schema        string `json:"schema,omitempty"` // qualifier as written, empty when unqualified
	AffectedTable string `json:"affectedTable,omitempty"`
}

type UpdateDetails struct {
	Added     []string `json:"added"`
	Removed   []string `json:"removed"`
	Modified  []string `json:"modified"`
	Unchanged []string `json:"unchanged"`
}

// TableFailure is a per-item failure that did not abort the sync.
type TableFailure struct {
	Table string `json:"table,omitempty"`
	Stage string `json:"stage"`
	Error string `json:"error"`
}

type DeleteReport struct {
	Deleted  int            `json:"deleted"`
	Failures []TableFailure `json:"failures,omitempty"`
}

type IncrementalUpdateResult struct {
	Success         bool           `json:"success"`
	Strategy        string         `json:"strategy,omitempty"`
	ChangeType      string         `json:"changeType,omitempty"`
	TablesProcessed int            `json:"tablesProcessed"`
	VectorsAdded    int            `json:"vectorsAdded"`
	VectorsRemoved  int            `json:"vectorsRemoved"`
	VectorsUpdated  int            `json:"vectorsUpdated"`
	Details         UpdateDetails  `json:"details"`
	Failures        []TableFailure `json:"failures,omitempty"`
	Error           string         `json:"error,omitempty"`
	ErrorKind       string         `json:"errorKind,omitempty"`
	CompletedAt     time.Time      `json:"completedAt"`
}

func newResult(strategy string) *IncrementalUpdateResult {
	return &IncrementalUpdateResult{
		Success:  true,
		Strategy: strategy,
		Details: UpdateDetails{
			Added:     []string{},
			Removed:   []string{},
			Modified:  []string{},
			Unchanged: []string{},
		},
	}
}

func (r *IncrementalUpdateResult) fail(err error) *IncrementalUpdateResult {
	r.Success = false
	r.Error = err.Error()
	r.ErrorKind = ErrorKind(err)
	return r
}

// ErrorKind maps an error to a stable machine-readable kind
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrConnectionNotFound):
		return "connection_not_found"
	case errors.Is(err, ErrSchemaFetch):
		return "schema_fetch_failed"
	case errors.Is(err, ErrTableNotFound):
		return "table_not_found"
	case errors.Is(err, ErrEmbedding):
		return "embedding_failed"
	case errors.Is(err, ErrVectorStore):
		return "vector_store_failed"
	default:
		return "internal"
	}
}
