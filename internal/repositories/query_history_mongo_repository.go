package repositories

import (
	"context"

	"datashorts/internal/models"
	"datashorts/pkg/mongodb"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type mongoQueryHistoryRepository struct {
	historyCollection *mongo.Collection
}

// NewMongoQueryHistoryRepository stores history in the query_history collection
func NewMongoQueryHistoryRepository(mongoClient *mongodb.MongoDBClient) QueryHistoryRepository {
	return &mongoQueryHistoryRepository{
		historyCollection: mongoClient.GetCollectionByName("query_history"),
	}
}

func (r *mongoQueryHistoryRepository) Create(ctx context.Context, history *models.QueryHistory) error {
	_, err := r.historyCollection.InsertOne(ctx, history)
	return err
}

func (r *mongoQueryHistoryRepository) FindByConnection(ctx context.Context, connectionID string, page, pageSize int) ([]*models.QueryHistory, int64, error) {
	var histories []*models.QueryHistory
	filter := bson.M{"connection_id": connectionID}

	// Get total count
	total, err := r.historyCollection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	// Setup pagination
	skip := int64((page - 1) * pageSize)
	opts := options.Find().
		SetSkip(skip).
		SetLimit(int64(pageSize)).
		SetSort(bson.D{{Key: "created_at", Value: -1}})

	cursor, err := r.historyCollection.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	err = cursor.All(ctx, &histories)
	return histories, total, err
}
