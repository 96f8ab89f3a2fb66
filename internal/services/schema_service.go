package services

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"datashorts/internal/apis/dtos"
	"datashorts/pkg/schemasync"
)

type SchemaService interface {
	SyncSchema(ctx context.Context, connectionID, sql string) (*schemasync.IncrementalUpdateResult, uint32, error)
	LatestSync(ctx context.Context, connectionID string) (*schemasync.IncrementalUpdateResult, uint32, error)
	DetectChange(sql string) *dtos.DetectSchemaChangeResponse
}

type schemaService struct {
	synchronizer SchemaSynchronizer
}

func NewSchemaService(synchronizer SchemaSynchronizer) SchemaService {
	return &schemaService{synchronizer: synchronizer}
}

// SyncSchema runs the smart update when sql is given and the full incremental update otherwise
func (s *schemaService) SyncSchema(ctx context.Context, connectionID, sql string) (*schemasync.IncrementalUpdateResult, uint32, error) {
	var result *schemasync.IncrementalUpdateResult
	if strings.TrimSpace(sql) != "" {
		result = s.synchronizer.SmartSchemaUpdate(ctx, connectionID, sql)
	} else {
		result = s.synchronizer.IncrementalSchemaUpdate(ctx, connectionID)
	}

	if !result.Success && result.ErrorKind == schemasync.ErrorKind(schemasync.ErrConnectionNotFound) {
		return nil, http.StatusNotFound, errors.New(result.Error)
	}
	return result, http.StatusOK, nil
}

func (s *schemaService) LatestSync(ctx context.Context, connectionID string) (*schemasync.IncrementalUpdateResult, uint32, error) {
	report, err := s.synchronizer.LatestReport(ctx, connectionID)
	if err != nil {
		if errors.Is(err, schemasync.ErrReportNotFound) {
			return nil, http.StatusNotFound, err
		}
		return nil, http.StatusInternalServerError, err
	}
	return report, http.StatusOK, nil
}

func (s *schemaService) DetectChange(sql string) *dtos.DetectSchemaChangeResponse {
	detection := schemasync.DetectSchemaChangeType(sql)
	return &dtos.DetectSchemaChangeResponse{
		ChangeType:      detection.Type,
		AffectedSchema:  detection.Schema,
		AffectedTable:   detection.AffectedTable,
		SchemaAffecting: schemasync.DetectSchemaChanges(sql),
	}
}
