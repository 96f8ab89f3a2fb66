package services

import (
	"context"
	"fmt"

	"datashorts/internal/apis/dtos"
	"datashorts/pkg/dbmanager"
)

type BatchOptions struct {
	QueryOptions
	UseTransaction bool
	StopOnError    bool
}

func ResolveBatchOptions(req *dtos.BatchOptions) BatchOptions {
	if req == nil {
		return BatchOptions{QueryOptions: DefaultQueryOptions()}
	}
	return BatchOptions{
		QueryOptions:   ResolveQueryOptions(&req.QueryOptions),
		UseTransaction: req.UseTransaction,
		StopOnError:    req.StopOnError,
	}
}

// BatchQueryAgent runs statements in order and sums their schema updates.
// Each statement triggers its own detection and sync, never one global sync.
func (s *queryAgentService) BatchQueryAgent(ctx context.Context, queries []string, connectionID, schema string, opts BatchOptions) *dtos.BatchQueryResult {
	batch := &dtos.BatchQueryResult{
		Results:         make([]*dtos.RemoteQueryResult, 0, len(queries)),
		TotalQueries:    len(queries),
		UsedTransaction: opts.UseTransaction,
	}

	if opts.UseTransaction {
		s.runInTransaction(ctx, batch, queries, connectionID, schema, opts.QueryOptions)
	} else {
		for _, sql := range queries {
			result := s.RemoteQueryAgent(ctx, sql, connectionID, schema, opts.QueryOptions)
			batch.Results = append(batch.Results, result)
			if !result.Success && opts.StopOnError {
				break
			}
		}
	}

	for _, r := range batch.Results {
		if r.Success {
			batch.SuccessfulCount++
		} else {
			batch.FailedCount++
		}
		batch.TotalExecutionMs += r.ExecutionTime
		addSchemaUpdate(&batch.SchemaUpdate, r.SchemaUpdate)
	}
	batch.Success = batch.FailedCount == 0 && len(batch.Results) == batch.TotalQueries

	s.cfg.Logger.Info("Batch query finished",
		"connection_id", connectionID,
		"queries", batch.TotalQueries,
		"succeeded", batch.SuccessfulCount,
		"failed", batch.FailedCount,
		"transaction", batch.UsedTransaction,
		"rolled_back", batch.RolledBack,
	)
	return batch
}

// runInTransaction reviews every statement first, then executes them on one
// connection. Schema syncs run after COMMIT since the catalog is read through
// other pooled connections that cannot see uncommitted DDL. Embeddings are not
// part of the transaction.
func (s *queryAgentService) runInTransaction(ctx context.Context, batch *dtos.BatchQueryResult, queries []string, connectionID, schema string, opts QueryOptions) {
	prepared := make([]*dtos.RemoteQueryResult, 0, len(queries))
	for _, sql := range queries {
		result, ok := s.prepare(ctx, sql, connectionID, schema, opts)
		if !ok {
			batch.Results = append(batch.Results, result)
			batch.Error = fmt.Sprintf("statement %d rejected before execution: %s", len(prepared)+1, result.Error)
			return
		}
		prepared = append(prepared, result)
	}

	tx, err := s.cfg.Executor.BeginTx(ctx, connectionID)
	if err != nil {
		batch.Error = fmt.Sprintf("failed to begin transaction: %v", err)
		for _, result := range prepared {
			result.Error = batch.Error
			result.ErrorKind = "transaction_failed"
			batch.Results = append(batch.Results, result)
		}
		return
	}

	for _, result := range prepared {
		start := s.cfg.Now()
		queryResult := tx.ExecuteSQLQuery(ctx, result.SQL)
		applyExecution(result, queryResult, s.cfg.Now().Sub(start))
		batch.Results = append(batch.Results, result)

		if !result.Success {
			s.rollback(ctx, tx, batch, connectionID, result.Error, opts)
			return
		}
	}

	if err := tx.Commit(); err != nil {
		s.rollback(ctx, tx, batch, connectionID, fmt.Sprintf("commit failed: %v", err), opts)
		return
	}

	for _, result := range batch.Results {
		s.syncSchema(ctx, connectionID, result)
		if opts.SaveToHistory {
			s.saveHistory(ctx, connectionID, result, opts)
		}
	}
}

// rollback aborts the transaction and marks every executed statement as undone
func (s *queryAgentService) rollback(ctx context.Context, tx dbmanager.Transaction, batch *dtos.BatchQueryResult, connectionID, reason string, opts QueryOptions) {
	if err := tx.Rollback(); err != nil {
		s.cfg.Logger.Warn("Rollback failed", "connection_id", connectionID, "error", err)
	}
	batch.RolledBack = true
	batch.Error = "transaction rolled back: " + reason

	for _, result := range batch.Results {
		if result.Success {
			result.Success = false
			result.Error = "rolled back: " + reason
			result.ErrorKind = "rolled_back"
		}
		if opts.SaveToHistory {
			s.saveHistory(ctx, connectionID, result, opts)
		}
	}
}

func addSchemaUpdate(total *dtos.SchemaUpdateSummary, update *dtos.SchemaUpdateSummary) {
	if update == nil {
		return
	}
	total.Updated = total.Updated || update.Updated
	total.Type = update.Type
	total.Strategy = update.Strategy
	total.TablesProcessed += update.TablesProcessed
	total.VectorsAdded += update.VectorsAdded
	total.VectorsRemoved += update.VectorsRemoved
	total.VectorsUpdated += update.VectorsUpdated
	if update.Error != "" {
		total.Error = update.Error
	}
}
