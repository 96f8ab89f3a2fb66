package models

import (
	"time"

	"github.com/google/uuid"
)

// QueryHistory is one executed statement. JSON payload columns are stored as text.
type QueryHistory struct {
	ID                     string    `gorm:"column:id;primaryKey" bson:"_id" json:"id"`
	ConnectionID           string    `gorm:"column:connection_id;not null;index" bson:"connection_id" json:"connectionId"`
	ChatID                 *int64    `gorm:"column:chat_id" bson:"chat_id,omitempty" json:"chatId,omitempty"`
	SQLQuery               string    `gorm:"column:sql_query;not null" bson:"sql_query" json:"sqlQuery"`
	Success                bool      `gorm:"column:success" bson:"success" json:"success"`
	ExecutionTime          int64     `gorm:"column:execution_time" bson:"execution_time" json:"executionTime"`
	RowCount               *int      `gorm:"column:row_count" bson:"row_count,omitempty" json:"rowCount,omitempty"`
	ErrorMessage           *string   `gorm:"column:error_message" bson:"error_message,omitempty" json:"errorMessage,omitempty"`
	ResultData             *string   `gorm:"column:result_data;type:jsonb" bson:"result_data,omitempty" json:"resultData,omitempty"`
	ResultColumns          *string   `gorm:"column:result_columns;type:jsonb" bson:"result_columns,omitempty" json:"resultColumns,omitempty"`
	ValidationResult       *string   `gorm:"column:validation_result;type:jsonb" bson:"validation_result,omitempty" json:"validationResult,omitempty"`
	OptimizationSuggestion *string   `gorm:"column:optimization_suggestion;type:jsonb" bson:"optimization_suggestion,omitempty" json:"optimizationSuggestion,omitempty"`
	CreatedAt              time.Time `gorm:"column:created_at;autoCreateTime" bson:"created_at" json:"createdAt"`
}

func (QueryHistory) TableName() string {
	return "query_history"
}

func NewQueryHistory(connectionID, sqlQuery string, chatID *int64) *QueryHistory {
	return &QueryHistory{
		ID:           uuid.NewString(),
		ConnectionID: connectionID,
		ChatID:       chatID,
		SQLQuery:     sqlQuery,
		CreatedAt:    time.Now(),
	}
}
