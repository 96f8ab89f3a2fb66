package dtos

import "time"

// QueryOptions toggles the optional steps of a remote query
type QueryOptions struct {
	ValidateQuery  *bool  `json:"validateQuery,omitempty"`
	OptimizeQuery  *bool  `json:"optimizeQuery,omitempty"`
	ForceExecution *bool  `json:"forceExecution,omitempty"`
	SaveToHistory  *bool  `json:"saveToHistory,omitempty"`
	ChatID         *int64 `json:"chatId,omitempty"`
}

type BatchOptions struct {
	QueryOptions
	UseTransaction bool `json:"useTransaction"`
	StopOnError    bool `json:"stopOnError"`
}

type ExecuteQueryRequest struct {
	SQL     string        `json:"sql" binding:"required"`
	Schema  string        `json:"schema"`
	Options *QueryOptions `json:"options"`
}

type BatchQueryRequest struct {
	Queries []string      `json:"queries" binding:"required,min=1"`
	Schema  string        `json:"schema"`
	Options *BatchOptions `json:"options"`
}

type QueryMetadata struct {
	QueryType      string   `json:"queryType"`
	AffectedTables []string `json:"affectedTables"`
	ReadOnly       bool     `json:"readOnly"`
}

type ValidationResult struct {
	IsValid         bool     `json:"isValid"`
	RiskLevel       string   `json:"riskLevel"`
	Warnings        []string `json:"warnings"`
	Suggestions     []string `json:"suggestions"`
	EstimatedImpact string   `json:"estimatedImpact"`
}

type OptimizationSuggestion struct {
	OptimizedQuery string   `json:"optimizedQuery"`
	Explanation    string   `json:"explanation"`
	Improvements   []string `json:"improvements"`
}

// SchemaUpdateSummary is the public view of a schema sync triggered by a query
type SchemaUpdateSummary struct {
	Updated         bool   `json:"updated"`
	Type            string `json:"type"`
	Strategy        string `json:"strategy,omitempty"`
	TablesProcessed int    `json:"tablesProcessed"`
	VectorsAdded    int    `json:"vectorsAdded"`
	VectorsRemoved  int    `json:"vectorsRemoved"`
	VectorsUpdated  int    `json:"vectorsUpdated"`
	Error           string `json:"error,omitempty"`
}

type HistoryOutcome struct {
	Saved bool   `json:"saved"`
	ID    string `json:"id,omitempty"`
	Error string `json:"error,omitempty"`
}

type RemoteQueryResult struct {
	Success                bool                     `json:"success"`
	SQL                    string                   `json:"sql"`
	Metadata               QueryMetadata            `json:"metadata"`
	Rows                   []map[string]interface{} `json:"rows,omitempty"`
	RowCount               int                      `json:"rowCount"`
	Columns                []string                 `json:"columns,omitempty"`
	ExecutionTime          int64                    `json:"executionTime"`
	Executed               bool                     `json:"executed"`
	Validation             *ValidationResult        `json:"validation,omitempty"`
	OptimizationSuggestion *OptimizationSuggestion  `json:"optimizationSuggestion,omitempty"`
	SchemaContext          []SchemaContextMatch     `json:"schemaContext,omitempty"`
	SchemaUpdate           *SchemaUpdateSummary     `json:"schemaUpdate,omitempty"`
	History                *HistoryOutcome          `json:"history,omitempty"`
	Error                  string                   `json:"error,omitempty"`
	ErrorKind              string                   `json:"errorKind,omitempty"`
}

type SchemaContextMatch struct {
	TableName string  `json:"tableName"`
	Columns   string  `json:"columns"`
	Score     float32 `json:"score"`
}

type BatchQueryResult struct {
	Success          bool                 `json:"success"`
	Results          []*RemoteQueryResult `json:"results"`
	TotalQueries     int                  `json:"totalQueries"`
	SuccessfulCount  int                  `json:"successfulCount"`
	FailedCount      int                  `json:"failedCount"`
	UsedTransaction  bool                 `json:"usedTransaction"`
	RolledBack       bool                 `json:"rolledBack"`
	SchemaUpdate     SchemaUpdateSummary  `json:"schemaUpdate"`
	TotalExecutionMs int64                `json:"totalExecutionTime"`
	Error            string               `json:"error,omitempty"`
}

type QueryHistoryResponse struct {
	ID            string    `json:"id"`
	ConnectionID  string    `json:"connectionId"`
	ChatID        *int64    `json:"chatId,omitempty"`
	SQLQuery      string    `json:"sqlQuery"`
	Success       bool      `json:"success"`
	ExecutionTime int64     `json:"executionTime"`
	RowCount      *int      `json:"rowCount,omitempty"`
	ErrorMessage  *string   `json:"errorMessage,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

type QueryHistoryListResponse struct {
	History []QueryHistoryResponse `json:"history"`
	Total   int64                  `json:"total"`
}
