package services

import (
	"context"
	"encoding/json"
	"net/http"

	"datashorts/internal/apis/dtos"
	"datashorts/internal/constants"
	"datashorts/internal/models"
)

const (
	defaultHistoryPageSize = 20
	maxHistoryPageSize     = 100
)

// saveHistory is best effort. The outcome is recorded on the result.
func (s *queryAgentService) saveHistory(ctx context.Context, connectionID string, result *dtos.RemoteQueryResult, opts QueryOptions) {
	record := buildHistoryRecord(connectionID, result, opts)
	record.CreatedAt = s.cfg.Now()

	if err := s.cfg.History.Create(ctx, record); err != nil {
		s.cfg.Logger.Warn("Failed to save query history", "connection_id", connectionID, "error", err)
		result.History = &dtos.HistoryOutcome{Saved: false, Error: err.Error()}
		return
	}
	result.History = &dtos.HistoryOutcome{Saved: true, ID: record.ID}
}

func buildHistoryRecord(connectionID string, result *dtos.RemoteQueryResult, opts QueryOptions) *models.QueryHistory {
	record := models.NewQueryHistory(connectionID, result.SQL, opts.ChatID)
	record.Success = result.Success
	record.ExecutionTime = result.ExecutionTime

	if result.Executed {
		rowCount := result.RowCount
		record.RowCount = &rowCount
	}
	if result.Error != "" {
		errMsg := result.Error
		record.ErrorMessage = &errMsg
	}

	if len(result.Rows) > 0 {
		rows := result.Rows
		if len(rows) > constants.HistoryResultRowLimit {
			rows = rows[:constants.HistoryResultRowLimit]
		}
		record.ResultData = jsonString(rows)
	}
	if len(result.Columns) > 0 {
		record.ResultColumns = jsonString(result.Columns)
	}
	if result.Validation != nil {
		record.ValidationResult = jsonString(result.Validation)
	}
	if result.OptimizationSuggestion != nil {
		record.OptimizationSuggestion = jsonString(result.OptimizationSuggestion)
	}
	return record
}

func jsonString(v interface{}) *string {
	data, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	s := string(data)
	return &s
}

func (s *queryAgentService) ListHistory(ctx context.Context, connectionID string, page, pageSize int) (*dtos.QueryHistoryListResponse, uint32, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultHistoryPageSize
	}
	if pageSize > maxHistoryPageSize {
		pageSize = maxHistoryPageSize
	}

	histories, total, err := s.cfg.History.FindByConnection(ctx, connectionID, page, pageSize)
	if err != nil {
		return nil, http.StatusInternalServerError, err
	}

	response := &dtos.QueryHistoryListResponse{
		History: make([]dtos.QueryHistoryResponse, 0, len(histories)),
		Total:   total,
	}
	for _, h := range histories {
		response.History = append(response.History, dtos.QueryHistoryResponse{
			ID:            h.ID,
			ConnectionID:  h.ConnectionID,
			ChatID:        h.ChatID,
			SQLQuery:      h.SQLQuery,
			Success:       h.Success,
			ExecutionTime: h.ExecutionTime,
			RowCount:      h.RowCount,
			ErrorMessage:  h.ErrorMessage,
			CreatedAt:     h.CreatedAt,
		})
	}
	return response, http.StatusOK, nil
}
