package dbmanager

import (
	"context"
	"errors"
	"time"

	"datashorts/internal/models"

	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"
)

var (
	ErrUnsupportedDatabase = errors.New("unsupported database type")
	ErrNoConnection        = errors.New("no connection found")
	ErrNotSupported        = errors.New("operation not supported by this database")
)

// ConnectionStatus represents the current state of a database connection
type ConnectionStatus string

const (
	StatusConnected    ConnectionStatus = "db-connected"
	StatusDisconnected ConnectionStatus = "db-disconnected"
	StatusError        ConnectionStatus = "db-error"
)

// Connection represents an active database connection
type Connection struct {
	DB            *gorm.DB      // relational engines
	Mongo         *mongo.Client // mongodb
	MongoDatabase string
	LastUsed      time.Time
	Status        ConnectionStatus
	Config        ConnectionConfig
}

// ConnectionConfig holds the configuration for a database connection
type ConnectionConfig struct {
	ConnectionID string `json:"connection_id"`
	Type         string `json:"type"`
	URL          string `json:"-"`
}

// QueryResult is the outcome of one executed statement (or statement list).
type QueryResult struct {
	Success      bool                     `json:"success"`
	Rows         []map[string]interface{} `json:"rows"`
	RowCount     int                      `json:"rowCount"`
	Columns      []string                 `json:"columns,omitempty"`
	RowsAffected int64                    `json:"rowsAffected,omitempty"`
	Error        string                   `json:"error,omitempty"`
}

func failedResult(err error) *QueryResult {
	return &QueryResult{
		Success: false,
		Rows:    []map[string]interface{}{},
		Error:   err.Error(),
	}
}

// DatabaseDriver interface that all database drivers must implement
type DatabaseDriver interface {
	Connect(ctx context.Context, config ConnectionConfig) (*Connection, error)
	Disconnect(conn *Connection) error
	Ping(ctx context.Context, conn *Connection) error
	ExecuteQuery(ctx context.Context, conn *Connection, query string) *QueryResult
	BeginTx(ctx context.Context, conn *Connection) (Transaction, error)
}

// Transaction runs statements on a single connection until Commit or Rollback.
type Transaction interface {
	ExecuteSQLQuery(ctx context.Context, query string) *QueryResult
	Commit() error
	Rollback() error
}

// ConnectionLookup resolves a connection ID to its stored record.
type ConnectionLookup interface {
	FindByID(ctx context.Context, id string) (*models.Connection, error)
}
