package di

import (
	"context"
	"log"
	"log/slog"
	"os"

	"datashorts/config"
	"datashorts/internal/apis/handlers"
	"datashorts/internal/constants"
	"datashorts/internal/models"
	"datashorts/internal/repositories"
	"datashorts/internal/services"
	"datashorts/pkg/dbmanager"
	"datashorts/pkg/embedding"
	"datashorts/pkg/llm"
	"datashorts/pkg/mongodb"
	"datashorts/pkg/redis"
	"datashorts/pkg/schemasync"
	"datashorts/pkg/vectorstore"

	"github.com/lmittmann/tint"
	"go.uber.org/dig"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var DiContainer *dig.Container

func Initialize() {
	DiContainer = dig.New()

	logger := newLogger(config.Env.Verbose)
	slog.SetDefault(logger)

	// Initialize the application database (connections, history, pgvector)
	appDB, err := gorm.Open(postgres.Open(config.Env.AppDatabaseURL), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		log.Fatalf("Failed to connect to application database: %v", err)
	}
	if err := appDB.AutoMigrate(&models.Connection{}); err != nil {
		log.Fatalf("Failed to migrate connections table: %v", err)
	}

	// Initialize Redis
	redisClient, err := redis.RedisClient(config.Env.RedisHost, config.Env.RedisPort, config.Env.RedisUsername, config.Env.RedisPassword)
	if err != nil {
		log.Fatalf("Failed to initialize Redis client: %v", err)
	}
	redisRepo := redis.NewRedisRepositories(redisClient)

	// Provide all dependencies to the container
	if err := DiContainer.Provide(func() *slog.Logger { return logger }); err != nil {
		log.Fatalf("Failed to provide logger: %v", err)
	}

	if err := DiContainer.Provide(func() *gorm.DB { return appDB }); err != nil {
		log.Fatalf("Failed to provide application database: %v", err)
	}

	if err := DiContainer.Provide(func() redis.IRedisRepositories { return redisRepo }); err != nil {
		log.Fatalf("Failed to provide Redis repositories: %v", err)
	}

	if err := DiContainer.Provide(func(db *gorm.DB) repositories.ConnectionRepository {
		return repositories.NewConnectionRepository(db)
	}); err != nil {
		log.Fatalf("Failed to provide connection repository: %v", err)
	}

	if err := DiContainer.Provide(provideHistoryRepository); err != nil {
		log.Fatalf("Failed to provide query history repository: %v", err)
	}

	if err := DiContainer.Provide(provideVectorStore); err != nil {
		log.Fatalf("Failed to provide vector store: %v", err)
	}

	// Embeddings: schema texts go straight to the model, query texts are memoised
	if err := DiContainer.Provide(func() (embedding.Provider, error) {
		return embedding.NewProvider(embedding.Config{
			Provider:   constants.OpenAI,
			Model:      config.Env.OpenAIEmbeddingModel,
			APIKey:     config.Env.OpenAIAPIKey,
			Dimensions: constants.EmbeddingDimensions,
		})
	}); err != nil {
		log.Fatalf("Failed to provide embedding provider: %v", err)
	}

	if err := DiContainer.Provide(func(provider embedding.Provider) *embedding.CachedProvider {
		return embedding.NewCachedProvider(provider, config.Env.EmbeddingCacheTTL)
	}); err != nil {
		log.Fatalf("Failed to provide cached embedding provider: %v", err)
	}

	// Provide DB Manager
	if err := DiContainer.Provide(func(connections repositories.ConnectionRepository, redisRepo redis.IRedisRepositories, logger *slog.Logger) *dbmanager.Manager {
		manager := dbmanager.NewManager(connections, redisRepo, logger)
		// Register database drivers
		manager.RegisterDriver(constants.DatabaseTypePostgreSQL, dbmanager.NewPostgresDriver(logger))
		manager.RegisterDriver(constants.DatabaseTypeMySQL, dbmanager.NewMySQLDriver(logger))
		manager.RegisterDriver(constants.DatabaseTypeClickhouse, dbmanager.NewClickHouseDriver(logger))
		manager.RegisterDriver(constants.DatabaseTypeMongoDB, dbmanager.NewMongoDBDriver(logger))
		return manager
	}); err != nil {
		log.Fatalf("Failed to provide DB manager: %v", err)
	}

	// Add LLM Manager
	if err := DiContainer.Provide(provideLLMManager); err != nil {
		log.Fatalf("Failed to provide LLM manager: %v", err)
	}

	if err := DiContainer.Provide(func(
		logger *slog.Logger,
		dbManager *dbmanager.Manager,
		connections repositories.ConnectionRepository,
		store vectorstore.Store,
		provider embedding.Provider,
		redisRepo redis.IRedisRepositories,
	) (*schemasync.Synchronizer, error) {
		return schemasync.NewSynchronizer(&schemasync.Config{
			Logger:      logger,
			Executor:    dbManager,
			Collections: dbManager,
			Connections: connections,
			Store:       store,
			Embedder:    provider,
			Reports:     schemasync.NewRedisReportStore(redisRepo),
		})
	}); err != nil {
		log.Fatalf("Failed to provide schema synchronizer: %v", err)
	}

	// Provide services
	if err := DiContainer.Provide(func(
		logger *slog.Logger,
		dbManager *dbmanager.Manager,
		synchronizer *schemasync.Synchronizer,
		store vectorstore.Store,
		cached *embedding.CachedProvider,
		llmManager *llm.Manager,
		connections repositories.ConnectionRepository,
		history repositories.QueryHistoryRepository,
	) (services.QueryAgentService, error) {
		// Get default LLM client
		llmClient, err := llmManager.GetClient(config.Env.DefaultLLMClient)
		if err != nil {
			logger.Warn("No LLM client, query validation and optimization are disabled", "error", err)
		}
		return services.NewQueryAgentService(&services.QueryAgentConfig{
			Logger:       logger,
			Executor:     dbManager,
			Synchronizer: synchronizer,
			Vectors:      store,
			Embedder:     cached,
			LLM:          llmClient,
			Connections:  connections,
			History:      history,
		})
	}); err != nil {
		log.Fatalf("Failed to provide query agent service: %v", err)
	}

	if err := DiContainer.Provide(func(synchronizer *schemasync.Synchronizer) services.SchemaService {
		return services.NewSchemaService(synchronizer)
	}); err != nil {
		log.Fatalf("Failed to provide schema service: %v", err)
	}

	// Provide handlers
	if err := DiContainer.Provide(func(queryService services.QueryAgentService) *handlers.QueryHandler {
		return handlers.NewQueryHandler(queryService)
	}); err != nil {
		log.Fatalf("Failed to provide query handler: %v", err)
	}

	if err := DiContainer.Provide(func(schemaService services.SchemaService) *handlers.SchemaHandler {
		return handlers.NewSchemaHandler(schemaService)
	}); err != nil {
		log.Fatalf("Failed to provide schema handler: %v", err)
	}
}

func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(tint.NewHandler(os.Stdout, &tint.Options{Level: level}))
}

func provideHistoryRepository(db *gorm.DB) (repositories.QueryHistoryRepository, error) {
	if config.Env.HistoryStore == "mongodb" {
		client, err := mongodb.InitializeDatabaseConnection(mongodb.MongoDbConfigModel{
			ConnectionUrl: config.Env.HistoryMongoURI,
			DatabaseName:  config.Env.HistoryMongoDatabaseName,
		})
		if err != nil {
			return nil, err
		}
		return repositories.NewMongoQueryHistoryRepository(client), nil
	}

	if err := db.AutoMigrate(&models.QueryHistory{}); err != nil {
		return nil, err
	}
	return repositories.NewQueryHistoryRepository(db), nil
}

func provideVectorStore(db *gorm.DB, logger *slog.Logger) (vectorstore.Store, error) {
	if config.Env.VectorStore == "memory" {
		logger.Warn("Using the in-memory vector store, schema embeddings are lost on restart")
		return vectorstore.NewMemoryStore(), nil
	}

	store := vectorstore.NewPgVectorStore(db, logger)
	if err := store.Migrate(context.Background()); err != nil {
		return nil, err
	}
	return store, nil
}

func provideLLMManager(logger *slog.Logger) *llm.Manager {
	manager := llm.NewManager()

	clients := []llm.Config{
		{Provider: constants.OpenAI, Model: config.Env.OpenAIModel, APIKey: config.Env.OpenAIAPIKey},
		{Provider: constants.Gemini, Model: config.Env.GeminiModel, APIKey: config.Env.GeminiAPIKey},
		{Provider: constants.Anthropic, Model: config.Env.AnthropicModel, APIKey: config.Env.AnthropicAPIKey},
	}
	for _, cfg := range clients {
		if cfg.APIKey == "" {
			continue
		}
		cfg.MaxCompletionTokens = config.Env.LLMMaxCompletionTokens
		cfg.Temperature = config.Env.LLMTemperature
		if err := manager.RegisterClient(cfg.Provider, cfg); err != nil {
			logger.Warn("Failed to register LLM client", "provider", cfg.Provider, "error", err)
		}
	}
	return manager
}

// GetQueryHandler retrieves the QueryHandler from the DI container
func GetQueryHandler() (*handlers.QueryHandler, error) {
	var handler *handlers.QueryHandler
	err := DiContainer.Invoke(func(h *handlers.QueryHandler) {
		handler = h
	})
	if err != nil {
		return nil, err
	}
	return handler, nil
}

// GetSchemaHandler retrieves the SchemaHandler from the DI container
func GetSchemaHandler() (*handlers.SchemaHandler, error) {
	var handler *handlers.SchemaHandler
	err := DiContainer.Invoke(func(h *handlers.SchemaHandler) {
		handler = h
	})
	return handler, err
}

// GetDBManager is used on shutdown to close live database connections
func GetDBManager() (*dbmanager.Manager, error) {
	var manager *dbmanager.Manager
	err := DiContainer.Invoke(func(m *dbmanager.Manager) {
		manager = m
	})
	return manager, err
}
