package mongodb

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoDbConfigModel struct {
	ConnectionUrl string
	DatabaseName  string
}

type MongoDBClient struct {
	Client       *mongo.Client
	DatabaseName string
}

// InitializeDatabaseConnection connects and pings the application MongoDB
func InitializeDatabaseConnection(config MongoDbConfigModel) (*MongoDBClient, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(config.ConnectionUrl))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	slog.Info("Connected to MongoDB", "database", config.DatabaseName)
	return &MongoDBClient{Client: client, DatabaseName: config.DatabaseName}, nil
}

func (c *MongoDBClient) GetCollectionByName(name string) *mongo.Collection {
	return c.Client.Database(c.DatabaseName).Collection(name)
}

func (c *MongoDBClient) Close(ctx context.Context) error {
	return c.Client.Disconnect(ctx)
}
