package dbmanager

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"datashorts/pkg/redis"
)

const (
	cleanupInterval = 2 * time.Minute  // Check every 2 minutes
	idleTimeout     = 10 * time.Minute // Close after 10 minutes of inactivity
)

// Manager owns one lazily opened connection per registered connection ID.
type Manager struct {
	connections map[string]*Connection    // connectionID -> connection
	drivers     map[string]DatabaseDriver // type -> driver
	mu          sync.Mutex
	lookup      ConnectionLookup
	redisRepo   redis.IRedisRepositories
	logger      *slog.Logger
	stopCleanup chan struct{}
	stopOnce    sync.Once
}

// NewManager creates a new connection manager. redisRepo may be nil.
func NewManager(lookup ConnectionLookup, redisRepo redis.IRedisRepositories, logger *slog.Logger) *Manager {
	m := &Manager{
		connections: make(map[string]*Connection),
		drivers:     make(map[string]DatabaseDriver),
		lookup:      lookup,
		redisRepo:   redisRepo,
		logger:      logger,
		stopCleanup: make(chan struct{}),
	}

	// Start cleanup routine
	go m.startCleanupRoutine()
	return m
}

// RegisterDriver registers a new database driver
func (m *Manager) RegisterDriver(dbType string, driver DatabaseDriver) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.drivers[dbType] = driver
}

// ExecuteSQLQuery runs query against the connection. Failures are reported in the result.
func (m *Manager) ExecuteSQLQuery(ctx context.Context, connectionID, query string) *QueryResult {
	conn, driver, err := m.acquire(ctx, connectionID)
	if err != nil {
		return failedResult(err)
	}
	return driver.ExecuteQuery(ctx, conn, query)
}

// BeginTx starts a transaction pinned to one physical connection
func (m *Manager) BeginTx(ctx context.Context, connectionID string) (Transaction, error) {
	conn, driver, err := m.acquire(ctx, connectionID)
	if err != nil {
		return nil, err
	}
	return driver.BeginTx(ctx, conn)
}

// SampleCollections infers collection schemas of a MongoDB connection
func (m *Manager) SampleCollections(ctx context.Context, connectionID string, names []string) ([]CollectionSchema, error) {
	conn, driver, err := m.acquire(ctx, connectionID)
	if err != nil {
		return nil, err
	}
	mongoDriver, ok := driver.(*MongoDBDriver)
	if !ok {
		return nil, fmt.Errorf("collection sampling for %s: %w", conn.Config.Type, ErrNotSupported)
	}
	return mongoDriver.SampleCollections(ctx, conn, names, defaultSampleSize)
}

// acquire returns the live connection for connectionID, opening it on first use
func (m *Manager) acquire(ctx context.Context, connectionID string) (*Connection, DatabaseDriver, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if conn, exists := m.connections[connectionID]; exists && conn.Status == StatusConnected {
		driver := m.drivers[conn.Config.Type]
		conn.LastUsed = time.Now()
		m.cacheState(ctx, connectionID)
		return conn, driver, nil
	}

	record, err := m.lookup.FindByID(ctx, connectionID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load connection %s: %w", connectionID, err)
	}
	if record == nil {
		return nil, nil, fmt.Errorf("%w: %s", ErrNoConnection, connectionID)
	}

	// Get appropriate driver
	driver, exists := m.drivers[record.DBType]
	if !exists {
		return nil, nil, fmt.Errorf("%w: %s", ErrUnsupportedDatabase, record.DBType)
	}

	conn, err := driver.Connect(ctx, ConnectionConfig{
		ConnectionID: record.ID,
		Type:         record.DBType,
		URL:          record.URL(),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect: %w", err)
	}

	conn.LastUsed = time.Now()
	m.connections[connectionID] = conn
	m.cacheState(ctx, connectionID)

	return conn, driver, nil
}

// Disconnect closes a database connection
func (m *Manager) Disconnect(connectionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	conn, exists := m.connections[connectionID]
	if !exists {
		return fmt.Errorf("%w: %s", ErrNoConnection, connectionID)
	}

	m.closeLocked(connectionID, conn)
	return nil
}

func (m *Manager) closeLocked(connectionID string, conn *Connection) {
	if driver, exists := m.drivers[conn.Config.Type]; exists {
		if err := driver.Disconnect(conn); err != nil {
			m.logger.Warn("Failed to disconnect", "connection_id", connectionID, "error", err)
		}
	}
	conn.Status = StatusDisconnected
	delete(m.connections, connectionID)

	if m.redisRepo != nil {
		if err := m.redisRepo.Del(connStateKey(connectionID), context.Background()); err != nil {
			m.logger.Warn("Failed to remove connection state from cache", "connection_id", connectionID, "error", err)
		}
	}
}

func (m *Manager) cacheState(ctx context.Context, connectionID string) {
	if m.redisRepo == nil {
		return
	}
	if err := m.redisRepo.Set(connStateKey(connectionID), []byte(StatusConnected), idleTimeout, ctx); err != nil {
		m.logger.Warn("Failed to cache connection state", "connection_id", connectionID, "error", err)
	}
}

func connStateKey(connectionID string) string {
	return fmt.Sprintf("conn:%s", connectionID)
}

// startCleanupRoutine periodically checks for and closes inactive connections
func (m *Manager) startCleanupRoutine() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.cleanup(time.Now())
		case <-m.stopCleanup:
			return
		}
	}
}

// cleanup closes connections idle for longer than idleTimeout
func (m *Manager) cleanup(now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for connectionID, conn := range m.connections {
		if now.Sub(conn.LastUsed) > idleTimeout {
			m.logger.Info("Closing idle connection", "connection_id", connectionID, "last_used", conn.LastUsed.Format(time.RFC3339))
			m.closeLocked(connectionID, conn)
		}
	}
}

// Stop gracefully stops the manager and closes every connection
func (m *Manager) Stop() error {
	m.stopOnce.Do(func() { close(m.stopCleanup) })

	m.mu.Lock()
	defer m.mu.Unlock()

	var errs []error
	for connectionID, conn := range m.connections {
		if driver, exists := m.drivers[conn.Config.Type]; exists {
			if err := driver.Disconnect(conn); err != nil {
				errs = append(errs, fmt.Errorf("connection %s: %w", connectionID, err))
			}
		}
	}

	m.connections = make(map[string]*Connection)
	return errors.Join(errs...)
}
