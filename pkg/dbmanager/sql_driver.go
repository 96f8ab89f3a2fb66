package dbmanager

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	clickhousedriver "gorm.io/driver/clickhouse"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// SQLDriver drives any gorm-backed relational engine.
type SQLDriver struct {
	name         string
	dialector    func(dsn string) gorm.Dialector
	maxIdleConns int
	maxOpenConns int
	supportsTx   bool
	logger       *slog.Logger
}

func NewPostgresDriver(logger *slog.Logger) *SQLDriver {
	return &SQLDriver{
		name:         "PostgreSQL",
		dialector:    postgres.Open,
		maxIdleConns: 10,
		maxOpenConns: 50,
		supportsTx:   true,
		logger:       logger,
	}
}

// NewMySQLDriver expects a go-sql-driver DSN (user:pass@tcp(host:port)/db?parseTime=true)
func NewMySQLDriver(logger *slog.Logger) *SQLDriver {
	return &SQLDriver{
		name:         "MySQL",
		dialector:    mysql.Open,
		maxIdleConns: 10,
		maxOpenConns: 50,
		supportsTx:   true,
		logger:       logger,
	}
}

// NewClickHouseDriver expects a clickhouse:// DSN. ClickHouse has no transactions.
func NewClickHouseDriver(logger *slog.Logger) *SQLDriver {
	return &SQLDriver{
		name:         "ClickHouse",
		dialector:    clickhousedriver.Open,
		maxIdleConns: 5,
		maxOpenConns: 20,
		supportsTx:   false,
		logger:       logger,
	}
}

func (d *SQLDriver) Connect(ctx context.Context, config ConnectionConfig) (*Connection, error) {
	if config.URL == "" {
		return nil, fmt.Errorf("%s connection %s has no connection URL", d.name, config.ConnectionID)
	}

	db, err := gorm.Open(d.dialector(config.URL), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", d.name, err)
	}

	// Configure connection pool
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying *sql.DB: %w", err)
	}
	sqlDB.SetMaxIdleConns(d.maxIdleConns)
	sqlDB.SetMaxOpenConns(d.maxOpenConns)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping failed: %w", err)
	}

	d.logger.Info("Database connection established", "driver", d.name, "connection_id", config.ConnectionID)

	return &Connection{
		DB:       db,
		LastUsed: time.Now(),
		Status:   StatusConnected,
		Config:   config,
	}, nil
}

func (d *SQLDriver) Disconnect(conn *Connection) error {
	sqlDB, err := conn.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (d *SQLDriver) Ping(ctx context.Context, conn *Connection) error {
	sqlDB, err := conn.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (d *SQLDriver) ExecuteQuery(ctx context.Context, conn *Connection, query string) *QueryResult {
	sqlDB, err := conn.DB.DB()
	if err != nil {
		return failedResult(fmt.Errorf("failed to get SQL connection: %w", err))
	}

	result := runStatements(ctx, sqlDB, query)
	if !result.Success {
		d.logger.Debug("Query execution failed", "driver", d.name, "connection_id", conn.Config.ConnectionID, "error", result.Error)
	}
	return result
}

func (d *SQLDriver) BeginTx(ctx context.Context, conn *Connection) (Transaction, error) {
	if !d.supportsTx {
		return nil, fmt.Errorf("%s transactions: %w", d.name, ErrNotSupported)
	}

	sqlDB, err := conn.DB.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get SQL connection: %w", err)
	}

	tx, err := sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}

	return &SQLTransaction{tx: tx, driver: d.name, logger: d.logger}, nil
}

type SQLTransaction struct {
	tx     *sql.Tx
	driver string
	logger *slog.Logger
}

func (t *SQLTransaction) ExecuteSQLQuery(ctx context.Context, query string) *QueryResult {
	return runStatements(ctx, t.tx, query)
}

func (t *SQLTransaction) Commit() error {
	t.logger.Debug("Committing transaction", "driver", t.driver)
	return t.tx.Commit()
}

func (t *SQLTransaction) Rollback() error {
	t.logger.Debug("Rolling back transaction", "driver", t.driver)
	return t.tx.Rollback()
}
