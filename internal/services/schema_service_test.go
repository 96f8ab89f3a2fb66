package services

import (
	"context"
	"net/http"
	"testing"

	"datashorts/internal/constants"
	"datashorts/pkg/schemasync"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSynchronizer struct {
	mockSynchronizer
	fullCalls int
	full      *schemasync.IncrementalUpdateResult
}

func (s *stubSynchronizer) IncrementalSchemaUpdate(context.Context, string) *schemasync.IncrementalUpdateResult {
	s.fullCalls++
	return s.full
}

func TestSchemaService_SyncSchema(t *testing.T) {
	sync := &stubSynchronizer{full: &schemasync.IncrementalUpdateResult{Success: true, Strategy: constants.SyncStrategyFull}}
	service := NewSchemaService(sync)

	result, status, err := service.SyncSchema(context.Background(), "conn-1", "")
	require.NoError(t, err)
	assert.Equal(t, uint32(http.StatusOK), status)
	assert.Equal(t, constants.SyncStrategyFull, result.Strategy)
	assert.Equal(t, 1, sync.fullCalls)

	result, _, err = service.SyncSchema(context.Background(), "conn-1", "CREATE TABLE orders (id int)")
	require.NoError(t, err)
	assert.Equal(t, constants.SyncStrategyTargeted, result.Strategy)
	assert.Equal(t, []string{"CREATE TABLE orders (id int)"}, sync.smartCalls)
}

func TestSchemaService_SyncSchemaUnknownConnection(t *testing.T) {
	sync := &stubSynchronizer{full: &schemasync.IncrementalUpdateResult{
		Success:   false,
		Error:     "connection not found: nope",
		ErrorKind: "connection_not_found",
	}}
	service := NewSchemaService(sync)

	_, status, err := service.SyncSchema(context.Background(), "nope", "")
	assert.Error(t, err)
	assert.Equal(t, uint32(http.StatusNotFound), status)
}

func TestSchemaService_LatestSync(t *testing.T) {
	service := NewSchemaService(&stubSynchronizer{})

	_, status, err := service.LatestSync(context.Background(), "conn-1")
	assert.ErrorIs(t, err, schemasync.ErrReportNotFound)
	assert.Equal(t, uint32(http.StatusNotFound), status)
}

func TestSchemaService_DetectChange(t *testing.T) {
	service := NewSchemaService(&stubSynchronizer{})

	got := service.DetectChange("ALTER TABLE users ADD COLUMN age int; CREATE INDEX idx ON users (age)")
	assert.Equal(t, constants.ChangeTypeAlterTable, got.ChangeType)
	assert.Equal(t, "users", got.AffectedTable)
	assert.True(t, got.SchemaAffecting)

	got = service.DetectChange("DROP TABLE audit.users")
	assert.Equal(t, "audit", got.AffectedSchema)
	assert.Equal(t, "users", got.AffectedTable)

	got = service.DetectChange("SELECT 1")
	assert.Equal(t, constants.ChangeTypeNone, got.ChangeType)
	assert.False(t, got.SchemaAffecting)
}
