package constants

import "time"

// Metadata markers stamped on every schema embedding. Only records carrying both
// are treated as schema knowledge for a connection.
const (
	SchemaEmbeddingPipeline = "pipeline2"
	SchemaEmbeddingType     = "schema"
)

const (
	// EmbeddingVariantsPerTable is the number of text variants embedded for every table.
	EmbeddingVariantsPerTable = 4
	EmbeddingDimensions       = 1536

	SchemaContextTopK       = 10
	HistoryResultRowLimit   = 50
	SchemaListPageSize      = 500
	SchemaSyncReportTTL     = 7 * 24 * time.Hour
	SchemaSyncReportKeyBase = "schema-sync:"
)

// Change types reported by the DDL detector.
const (
	ChangeTypeCreateTable = "CREATE_TABLE"
	ChangeTypeDropTable   = "DROP_TABLE"
	ChangeTypeAlterTable  = "ALTER_TABLE"
	ChangeTypeOther       = "OTHER"
	ChangeTypeNone        = "NONE"
)

// Update strategies reported by a schema sync.
const (
	SyncStrategyTargeted = "targeted"
	SyncStrategyFull     = "full"
	SyncStrategyFallback = "fallback"
)

// Validation risk levels returned by the LLM.
const (
	RiskLevelLow    = "low"
	RiskLevelMedium = "medium"
	RiskLevelHigh   = "high"
)
