package repositories

import (
	"context"

	"datashorts/internal/models"

	"gorm.io/gorm"
)

type QueryHistoryRepository interface {
	Create(ctx context.Context, history *models.QueryHistory) error
	FindByConnection(ctx context.Context, connectionID string, page, pageSize int) ([]*models.QueryHistory, int64, error)
}

type queryHistoryRepository struct {
	db *gorm.DB
}

func NewQueryHistoryRepository(db *gorm.DB) QueryHistoryRepository {
	return &queryHistoryRepository{db: db}
}

func (r *queryHistoryRepository) Create(ctx context.Context, history *models.QueryHistory) error {
	return r.db.WithContext(ctx).Create(history).Error
}

func (r *queryHistoryRepository) FindByConnection(ctx context.Context, connectionID string, page, pageSize int) ([]*models.QueryHistory, int64, error) {
	var (
		histories []*models.QueryHistory
		total     int64
	)
	query := r.db.WithContext(ctx).Model(&models.QueryHistory{}).Where("connection_id = ?", connectionID)

	// Get total count
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.
		Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&histories).Error
	return histories, total, err
}
