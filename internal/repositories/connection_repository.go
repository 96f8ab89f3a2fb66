package repositories

import (
	"context"
	"errors"
	"time"

	"datashorts/internal/models"

	"gorm.io/gorm"
)

type ConnectionRepository interface {
	FindByID(ctx context.Context, id string) (*models.Connection, error)
	UpdateTableSchema(ctx context.Context, id string, snapshot string, updatedAt time.Time) error
}

type connectionRepository struct {
	db *gorm.DB
}

func NewConnectionRepository(db *gorm.DB) ConnectionRepository {
	return &connectionRepository{db: db}
}

// FindByID returns nil, nil when no connection has the id
func (r *connectionRepository) FindByID(ctx context.Context, id string) (*models.Connection, error) {
	var conn models.Connection
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&conn).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &conn, nil
}

func (r *connectionRepository) UpdateTableSchema(ctx context.Context, id string, snapshot string, updatedAt time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.Connection{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"table_schema": snapshot,
			"updated_at":   updatedAt,
		}).Error
}
