package vectorstore

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const schemaEmbeddingsTable = "schema_embeddings"

type schemaEmbedding struct {
	ID             string          `gorm:"column:id;primaryKey"`
	ConnectionID   string          `gorm:"column:connection_id;not null;index"`
	ConnectionName string          `gorm:"column:connection_name"`
	DBType         string          `gorm:"column:db_type"`
	Table          string          `gorm:"column:table_name;index"`
	Text           string          `gorm:"column:text"`
	Columns        string          `gorm:"column:columns"`
	Pipeline       string          `gorm:"column:pipeline;index"`
	Type           string          `gorm:"column:type"`
	Embedding      pgvector.Vector `gorm:"column:embedding;type:vector(1536)"`
	UpdatedAt      time.Time       `gorm:"column:updated_at"`
}

func (*schemaEmbedding) TableName() string {
	return schemaEmbeddingsTable
}

type scoredSchemaEmbedding struct {
	schemaEmbedding
	Score float64 `gorm:"column:score"`
}

// PgVectorStore keeps embeddings in a pgvector column and ranks by cosine distance.
type PgVectorStore struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewPgVectorStore(db *gorm.DB, logger *slog.Logger) *PgVectorStore {
	return &PgVectorStore{db: db, logger: logger}
}

// Migrate enables the vector extension and creates the embeddings table
func (s *PgVectorStore) Migrate(ctx context.Context) error {
	if err := s.db.WithContext(ctx).Exec("CREATE EXTENSION IF NOT EXISTS vector").Error; err != nil {
		return fmt.Errorf("failed to enable vector extension: %w", err)
	}
	if err := s.db.WithContext(ctx).AutoMigrate(&schemaEmbedding{}); err != nil {
		return fmt.Errorf("failed to migrate %s: %w", schemaEmbeddingsTable, err)
	}
	return nil
}

func (s *PgVectorStore) Query(ctx context.Context, req QueryRequest) ([]Match, error) {
	vec := pgvector.NewVector(req.Vector)
	q := s.db.WithContext(ctx).
		Model(&schemaEmbedding{}).
		Select("*, 1 - (embedding <=> ?) AS score", vec)
	q = applyFilter(q, req.Filter).
		Order(clause.Expr{SQL: "embedding <=> ?", Vars: []interface{}{vec}})
	if req.TopK > 0 {
		q = q.Limit(req.TopK)
	}

	var rows []scoredSchemaEmbedding
	if err := q.Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("vector query failed: %w", err)
	}

	matches := make([]Match, 0, len(rows))
	for _, row := range rows {
		matches = append(matches, Match{
			ID:       row.ID,
			Score:    float32(row.Score),
			Metadata: row.metadata(),
		})
	}
	return matches, nil
}

func (s *PgVectorStore) Upsert(ctx context.Context, records []Record) error {
	if len(records) == 0 {
		return nil
	}

	rows := make([]schemaEmbedding, 0, len(records))
	for _, r := range records {
		rows = append(rows, schemaEmbedding{
			ID:             r.ID,
			ConnectionID:   r.Metadata.ConnectionID,
			ConnectionName: r.Metadata.ConnectionName,
			DBType:         r.Metadata.DBType,
			Table:          r.Metadata.TableName,
			Text:           r.Metadata.Text,
			Columns:        r.Metadata.Columns,
			Pipeline:       r.Metadata.Pipeline,
			Type:           r.Metadata.Type,
			Embedding:      pgvector.NewVector(r.Values),
			UpdatedAt:      r.Metadata.UpdatedAt,
		})
	}

	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&rows).Error
	if err != nil {
		return fmt.Errorf("vector upsert failed: %w", err)
	}
	s.logger.Debug("Upserted schema embeddings", "count", len(rows))
	return nil
}

func (s *PgVectorStore) DeleteMany(ctx context.Context, filter Filter) (int, error) {
	if filter.IsEmpty() {
		return 0, ErrEmptyFilter
	}

	result := applyFilter(s.db.WithContext(ctx), filter).Delete(&schemaEmbedding{})
	if result.Error != nil {
		return 0, fmt.Errorf("vector delete failed: %w", result.Error)
	}
	return int(result.RowsAffected), nil
}

func (s *PgVectorStore) List(ctx context.Context, req ListRequest) (*ListPage, error) {
	q := applyFilter(s.db.WithContext(ctx).Model(&schemaEmbedding{}), req.Filter)
	if req.Cursor != "" {
		q = q.Where("id > ?", req.Cursor)
	}
	q = q.Order("id")
	if req.Limit > 0 {
		// one extra row tells us whether another page exists
		q = q.Limit(req.Limit + 1)
	}

	var rows []schemaEmbedding
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("vector list failed: %w", err)
	}

	page := &ListPage{Records: make([]Record, 0, len(rows))}
	if req.Limit > 0 && len(rows) > req.Limit {
		rows = rows[:req.Limit]
		page.NextCursor = rows[len(rows)-1].ID
	}
	for _, row := range rows {
		page.Records = append(page.Records, Record{
			ID:       row.ID,
			Values:   row.Embedding.Slice(),
			Metadata: row.metadata(),
		})
	}
	return page, nil
}

func (e *schemaEmbedding) metadata() Metadata {
	return Metadata{
		ConnectionID:   e.ConnectionID,
		ConnectionName: e.ConnectionName,
		DBType:         e.DBType,
		TableName:      e.Table,
		Text:           e.Text,
		Columns:        e.Columns,
		Pipeline:       e.Pipeline,
		Type:           e.Type,
		UpdatedAt:      e.UpdatedAt,
	}
}

func applyFilter(q *gorm.DB, f Filter) *gorm.DB {
	if f.ConnectionID != "" {
		q = q.Where("connection_id = ?", f.ConnectionID)
	}
	if f.Pipeline != "" {
		q = q.Where("pipeline = ?", f.Pipeline)
	}
	if f.Type != "" {
		q = q.Where("type = ?", f.Type)
	}
	if f.TableName != "" {
		q = q.Where("table_name = ?", f.TableName)
	}
	return q
}
