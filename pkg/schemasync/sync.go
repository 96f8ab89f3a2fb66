package schemasync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"datashorts/internal/constants"
	"datashorts/internal/models"
	"datashorts/pkg/dbmanager"
	"datashorts/pkg/vectorstore"
)

type QueryExecutor interface {
	ExecuteSQLQuery(ctx context.Context, connectionID, query string) *dbmanager.QueryResult
}

type CollectionSampler interface {
	SampleCollections(ctx context.Context, connectionID string, names []string) ([]dbmanager.CollectionSchema, error)
}

type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// ConnectionStore reads connection records and writes the display-only schema snapshot.
type ConnectionStore interface {
	FindByID(ctx context.Context, id string) (*models.Connection, error)
	UpdateTableSchema(ctx context.Context, id string, snapshot string, updatedAt time.Time) error
}

type Config struct {
	Logger      *slog.Logger
	Executor    QueryExecutor
	Collections CollectionSampler // optional, needed for MongoDB connections
	Connections ConnectionStore
	Store       vectorstore.Store
	Embedder    Embedder
	Reports     ReportStore // optional
	Now         func() time.Time

	// ListPageSize bounds each vector store page read while rebuilding the
	// embedded schema. Defaults to constants.SchemaListPageSize.
	ListPageSize int
}

func (c *Config) Validate() error {
	if c.Logger == nil {
		return errors.New("logger is required")
	}
	if c.Executor == nil {
		return errors.New("query executor is required")
	}
	if c.Connections == nil {
		return errors.New("connection store is required")
	}
	if c.Store == nil {
		return errors.New("vector store is required")
	}
	if c.Embedder == nil {
		return errors.New("embedder is required")
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	if c.ListPageSize <= 0 {
		c.ListPageSize = constants.SchemaListPageSize
	}
	return nil
}

type Synchronizer struct {
	cfg *Config

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

func NewSynchronizer(cfg *Config) (*Synchronizer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Synchronizer{
		cfg:   cfg,
		locks: make(map[string]*sync.Mutex),
	}, nil
}

// lock serialises syncs of one connection
func (s *Synchronizer) lock(connectionID string) func() {
	s.locksMu.Lock()
	mu, ok := s.locks[connectionID]
	if !ok {
		mu = &sync.Mutex{}
		s.locks[connectionID] = mu
	}
	s.locksMu.Unlock()

	mu.Lock()
	return mu.Unlock
}

// IncrementalSchemaUpdate reconciles the schema embeddings of a connection with
// its live catalog. It never returns nil; failures are reported in the result.
func (s *Synchronizer) IncrementalSchemaUpdate(ctx context.Context, connectionID string) *IncrementalUpdateResult {
	unlock := s.lock(connectionID)
	defer unlock()

	result := s.incrementalSchemaUpdate(ctx, connectionID, constants.SyncStrategyFull)
	s.saveReport(ctx, connectionID, result)
	return result
}

func (s *Synchronizer) incrementalSchemaUpdate(ctx context.Context, connectionID, strategy string) *IncrementalUpdateResult {
	start := s.cfg.Now()
	result := newResult(strategy)
	defer func() { result.CompletedAt = s.cfg.Now() }()

	conn, err := s.connection(ctx, connectionID)
	if err != nil {
		return result.fail(err)
	}

	current, err := s.currentSchema(ctx, conn)
	if err != nil {
		return result.fail(err)
	}
	existing, err := s.GetExistingSchemaFromEmbeddings(ctx, connectionID)
	if err != nil {
		return result.fail(err)
	}

	cmp := CompareSchemas(current, existing)
	result.Details = UpdateDetails{
		Added:     cmp.AddedTables,
		Removed:   cmp.RemovedTables,
		Modified:  cmp.ModifiedTables,
		Unchanged: cmp.UnchangedTables,
	}

	if !cmp.HasChanges() {
		s.cfg.Logger.Debug("Schema unchanged, skipping sync", "connection_id", connectionID, "tables", len(cmp.UnchangedTables))
		return result
	}

	currentByName := indexTables(current)
	pick := func(names []string) []TableSchema {
		tables := make([]TableSchema, 0, len(names))
		for _, name := range names {
			tables = append(tables, currentByName[name])
		}
		return tables
	}

	// removed tables
	if len(cmp.RemovedTables) > 0 {
		report := s.DeleteTableEmbeddings(ctx, connectionID, cmp.RemovedTables)
		result.VectorsRemoved += report.Deleted
		result.Failures = append(result.Failures, report.Failures...)
	}

	// added tables
	if len(cmp.AddedTables) > 0 {
		records, err := s.GenerateTableEmbeddings(ctx, pick(cmp.AddedTables), conn.ID, conn.ConnectionName, conn.DBType)
		if err != nil {
			return result.fail(err)
		}
		if err := s.upsert(ctx, records); err != nil {
			return result.fail(err)
		}
		result.VectorsAdded += len(records)
	}

	// modified tables are replaced wholesale
	if len(cmp.ModifiedTables) > 0 {
		report := s.DeleteTableEmbeddings(ctx, connectionID, cmp.ModifiedTables)
		result.Failures = append(result.Failures, report.Failures...)

		records, err := s.GenerateTableEmbeddings(ctx, pick(cmp.ModifiedTables), conn.ID, conn.ConnectionName, conn.DBType)
		if err != nil {
			return result.fail(err)
		}
		if err := s.upsert(ctx, records); err != nil {
			return result.fail(err)
		}
		result.VectorsUpdated += len(records)
	}

	result.TablesProcessed = len(cmp.AddedTables) + len(cmp.RemovedTables) + len(cmp.ModifiedTables)

	if err := s.writeSnapshot(ctx, connectionID, current); err != nil {
		s.cfg.Logger.Warn("Failed to write schema snapshot", "connection_id", connectionID, "error", err)
		result.Failures = append(result.Failures, TableFailure{Stage: "cache", Error: err.Error()})
	}

	s.cfg.Logger.Info("Schema embeddings synchronized",
		"connection_id", connectionID,
		"added", len(cmp.AddedTables),
		"removed", len(cmp.RemovedTables),
		"modified", len(cmp.ModifiedTables),
		"vectors_added", result.VectorsAdded,
		"vectors_removed", result.VectorsRemoved,
		"vectors_updated", result.VectorsUpdated,
		"duration", s.cfg.Now().Sub(start),
	)
	return result
}

func (s *Synchronizer) connection(ctx context.Context, connectionID string) (*models.Connection, error) {
	conn, err := s.cfg.Connections.FindByID(ctx, connectionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load connection %s: %w", connectionID, err)
	}
	if conn == nil {
		return nil, fmt.Errorf("%w: %s", ErrConnectionNotFound, connectionID)
	}
	return conn, nil
}

func (s *Synchronizer) writeSnapshot(ctx context.Context, connectionID string, tables []TableSchema) error {
	snapshot, err := json.Marshal(tables)
	if err != nil {
		return fmt.Errorf("failed to encode schema snapshot: %w", err)
	}
	return s.cfg.Connections.UpdateTableSchema(ctx, connectionID, string(snapshot), s.cfg.Now())
}

func (s *Synchronizer) saveReport(ctx context.Context, connectionID string, result *IncrementalUpdateResult) {
	if s.cfg.Reports == nil {
		return
	}
	if err := s.cfg.Reports.SaveReport(ctx, connectionID, result); err != nil {
		s.cfg.Logger.Warn("Failed to save sync report", "connection_id", connectionID, "error", err)
		result.Failures = append(result.Failures, TableFailure{Stage: "report", Error: err.Error()})
	}
}

// LatestReport returns the last stored sync report of a connection
func (s *Synchronizer) LatestReport(ctx context.Context, connectionID string) (*IncrementalUpdateResult, error) {
	if s.cfg.Reports == nil {
		return nil, ErrReportNotFound
	}
	return s.cfg.Reports.LatestReport(ctx, connectionID)
}
