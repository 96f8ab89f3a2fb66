package schemasync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"datashorts/internal/constants"
	"datashorts/pkg/redis"
)

var ErrReportNotFound = errors.New("no sync report for connection")

// ReportStore keeps the most recent sync report per connection.
type ReportStore interface {
	SaveReport(ctx context.Context, connectionID string, result *IncrementalUpdateResult) error
	LatestReport(ctx context.Context, connectionID string) (*IncrementalUpdateResult, error)
}

type RedisReportStore struct {
	redisRepo redis.IRedisRepositories
}

func NewRedisReportStore(redisRepo redis.IRedisRepositories) *RedisReportStore {
	return &RedisReportStore{redisRepo: redisRepo}
}

func (r *RedisReportStore) SaveReport(ctx context.Context, connectionID string, result *IncrementalUpdateResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to encode sync report: %w", err)
	}
	return r.redisRepo.Set(reportKey(connectionID), data, constants.SchemaSyncReportTTL, ctx)
}

func (r *RedisReportStore) LatestReport(ctx context.Context, connectionID string) (*IncrementalUpdateResult, error) {
	data, err := r.redisRepo.Get(reportKey(connectionID), ctx)
	if err != nil {
		if errors.Is(err, redis.ErrKeyNotFound) {
			return nil, ErrReportNotFound
		}
		return nil, err
	}

	var result IncrementalUpdateResult
	if err := json.Unmarshal([]byte(data), &result); err != nil {
		return nil, fmt.Errorf("failed to decode sync report: %w", err)
	}
	return &result, nil
}

func reportKey(connectionID string) string {
	return constants.SchemaSyncReportKeyBase + connectionID
}
