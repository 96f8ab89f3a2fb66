package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"datashorts/internal/apis/dtos"
	"datashorts/internal/constants"
	"datashorts/internal/models"
	"datashorts/internal/repositories"
	"datashorts/pkg/dbmanager"
	"datashorts/pkg/llm"
	"datashorts/pkg/schemasync"
	"datashorts/pkg/vectorstore"
)

var ErrHighRiskQuery = errors.New("query blocked: validation rated it high risk, set forceExecution to run it anyway")

type QueryExecutor interface {
	ExecuteSQLQuery(ctx context.Context, connectionID, query string) *dbmanager.QueryResult
	BeginTx(ctx context.Context, connectionID string) (dbmanager.Transaction, error)
}

type SchemaSynchronizer interface {
	SmartSchemaUpdate(ctx context.Context, connectionID, sql string) *schemasync.IncrementalUpdateResult
	IncrementalSchemaUpdate(ctx context.Context, connectionID string) *schemasync.IncrementalUpdateResult
	LatestReport(ctx context.Context, connectionID string) (*schemasync.IncrementalUpdateResult, error)
}

var _ SchemaSynchronizer = (*schemasync.Synchronizer)(nil)

type VectorSearcher interface {
	Query(ctx context.Context, req vectorstore.QueryRequest) ([]vectorstore.Match, error)
}

type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

type ConnectionLookup interface {
	FindByID(ctx context.Context, id string) (*models.Connection, error)
}

// QueryOptions are the resolved toggles of one remote query
type QueryOptions struct {
	ValidateQuery  bool
	OptimizeQuery  bool
	ForceExecution bool
	SaveToHistory  bool
	ChatID         *int64
}

func DefaultQueryOptions() QueryOptions {
	return QueryOptions{
		ValidateQuery: true,
		SaveToHistory: true,
	}
}

// ResolveQueryOptions applies request overrides on top of the defaults
func ResolveQueryOptions(req *dtos.QueryOptions) QueryOptions {
	opts := DefaultQueryOptions()
	if req == nil {
		return opts
	}
	if req.ValidateQuery != nil {
		opts.ValidateQuery = *req.ValidateQuery
	}
	if req.OptimizeQuery != nil {
		opts.OptimizeQuery = *req.OptimizeQuery
	}
	if req.ForceExecution != nil {
		opts.ForceExecution = *req.ForceExecution
	}
	if req.SaveToHistory != nil {
		opts.SaveToHistory = *req.SaveToHistory
	}
	opts.ChatID = req.ChatID
	return opts
}

type QueryAgentService interface {
	RemoteQueryAgent(ctx context.Context, sql, connectionID, schema string, opts QueryOptions) *dtos.RemoteQueryResult
	BatchQueryAgent(ctx context.Context, queries []string, connectionID, schema string, opts BatchOptions) *dtos.BatchQueryResult
	ListHistory(ctx context.Context, connectionID string, page, pageSize int) (*dtos.QueryHistoryListResponse, uint32, error)
}

type QueryAgentConfig struct {
	Logger       *slog.Logger
	Executor     QueryExecutor
	Synchronizer SchemaSynchronizer
	Vectors      VectorSearcher
	Embedder     Embedder
	LLM          llm.Client // optional, validation and optimization are skipped without it
	Connections  ConnectionLookup
	History      repositories.QueryHistoryRepository
	Now          func() time.Time
}

func (c *QueryAgentConfig) Validate() error {
	if c.Logger == nil {
		return errors.New("logger is required")
	}
	if c.Executor == nil {
		return errors.New("query executor is required")
	}
	if c.Synchronizer == nil {
		return errors.New("schema synchronizer is required")
	}
	if c.Vectors == nil {
		return errors.New("vector searcher is required")
	}
	if c.Embedder == nil {
		return errors.New("embedder is required")
	}
	if c.Connections == nil {
		return errors.New("connection lookup is required")
	}
	if c.History == nil {
		return errors.New("history repository is required")
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	return nil
}

type queryAgentService struct {
	cfg *QueryAgentConfig
}

func NewQueryAgentService(cfg *QueryAgentConfig) (QueryAgentService, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &queryAgentService{cfg: cfg}, nil
}

// RemoteQueryAgent classifies, reviews and runs one statement, then keeps the
// schema embeddings in step when the statement changed the schema.
func (s *queryAgentService) RemoteQueryAgent(ctx context.Context, sql, connectionID, schema string, opts QueryOptions) *dtos.RemoteQueryResult {
	result, ok := s.prepare(ctx, sql, connectionID, schema, opts)
	if !ok {
		return result
	}

	start := s.cfg.Now()
	queryResult := s.cfg.Executor.ExecuteSQLQuery(ctx, connectionID, sql)
	applyExecution(result, queryResult, s.cfg.Now().Sub(start))

	if result.Success {
		s.syncSchema(ctx, connectionID, result)
	}
	if opts.SaveToHistory {
		s.saveHistory(ctx, connectionID, result, opts)
	}
	return result
}

// prepare runs every step before execution. ok is false when the statement must not run.
func (s *queryAgentService) prepare(ctx context.Context, sql, connectionID, schema string, opts QueryOptions) (*dtos.RemoteQueryResult, bool) {
	result := &dtos.RemoteQueryResult{
		SQL:      sql,
		Metadata: ClassifyQuery(sql),
	}

	conn, err := s.cfg.Connections.FindByID(ctx, connectionID)
	if err != nil {
		result.Error = fmt.Sprintf("failed to load connection: %v", err)
		result.ErrorKind = "internal"
		return result, false
	}
	if conn == nil {
		result.Error = fmt.Sprintf("%v: %s", schemasync.ErrConnectionNotFound, connectionID)
		result.ErrorKind = schemasync.ErrorKind(schemasync.ErrConnectionNotFound)
		return result, false
	}

	result.SchemaContext = s.schemaContext(ctx, connectionID, sql)

	if s.cfg.LLM == nil || !(opts.ValidateQuery || opts.OptimizeQuery) {
		return result, true
	}

	if opts.ValidateQuery && len(result.SchemaContext) > 0 {
		validation, err := s.validateQuery(ctx, sql, schema, conn.DBType, result.SchemaContext)
		if err != nil {
			s.cfg.Logger.Warn("Query validation unavailable, continuing without it", "connection_id", connectionID, "error", err)
		}
		result.Validation = validation

		if validation != nil && validation.RiskLevel == constants.RiskLevelHigh && !opts.ForceExecution {
			s.cfg.Logger.Info("Blocked high risk query", "connection_id", connectionID, "query_type", result.Metadata.QueryType)
			result.Error = ErrHighRiskQuery.Error()
			result.ErrorKind = "high_risk_query"
			return result, false
		}
	}

	if opts.OptimizeQuery && !shouldSkipOptimization(sql) {
		suggestion, err := s.optimizeQuery(ctx, sql, schema, conn.DBType, result.SchemaContext)
		if err != nil {
			s.cfg.Logger.Warn("Query optimization unavailable", "connection_id", connectionID, "error", err)
		}
		result.OptimizationSuggestion = suggestion
	}

	return result, true
}

func applyExecution(result *dtos.RemoteQueryResult, queryResult *dbmanager.QueryResult, elapsed time.Duration) {
	result.Executed = true
	result.ExecutionTime = elapsed.Milliseconds()
	if queryResult == nil {
		result.Success = false
		result.Error = "query execution returned no result"
		result.ErrorKind = "execution_failed"
		return
	}

	result.Success = queryResult.Success
	result.Rows = queryResult.Rows
	result.RowCount = queryResult.RowCount
	result.Columns = queryResult.Columns
	if !queryResult.Success {
		result.Error = queryResult.Error
		result.ErrorKind = "execution_failed"
	}
}

// syncSchema runs the smart update for statements that may change the schema.
// A failed sync is reported on the result but never fails the query.
func (s *queryAgentService) syncSchema(ctx context.Context, connectionID string, result *dtos.RemoteQueryResult) {
	if !schemasync.DetectSchemaChanges(result.SQL) {
		return
	}
	update := s.cfg.Synchronizer.SmartSchemaUpdate(ctx, connectionID, result.SQL)
	result.SchemaUpdate = summarizeSchemaUpdate(update)
	if !update.Success {
		s.cfg.Logger.Warn("Schema sync after query failed", "connection_id", connectionID, "error", update.Error)
	}
}

func summarizeSchemaUpdate(update *schemasync.IncrementalUpdateResult) *dtos.SchemaUpdateSummary {
	return &dtos.SchemaUpdateSummary{
		Updated:         update.Success,
		Type:            update.ChangeType,
		Strategy:        update.Strategy,
		TablesProcessed: update.TablesProcessed,
		VectorsAdded:    update.VectorsAdded,
		VectorsRemoved:  update.VectorsRemoved,
		VectorsUpdated:  update.VectorsUpdated,
		Error:           update.Error,
	}
}
