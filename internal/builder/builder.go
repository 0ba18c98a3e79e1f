package builder

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/physai/textbook-backend/internal/api"
	chatapi "github.com/physai/textbook-backend/internal/api/chat"
	healthapi "github.com/physai/textbook-backend/internal/api/health"
	"github.com/physai/textbook-backend/internal/config"
	"github.com/physai/textbook-backend/internal/integration/openai"
	"github.com/physai/textbook-backend/internal/integration/qdrant"
	"github.com/physai/textbook-backend/internal/pkg/validator"
	"github.com/physai/textbook-backend/internal/repository"
	chatuc "github.com/physai/textbook-backend/internal/usecase/chat"
	ingestuc "github.com/physai/textbook-backend/internal/usecase/ingest"
)

// aiConnector is the union of the provider calls the application needs.
type aiConnector interface {
	chatuc.AIConnector
	ingestuc.Embedder
	healthapi.Pinger
}

// vectorIndex is the union of the index calls the application needs.
type vectorIndex interface {
	chatuc.VectorIndex
	ingestuc.VectorIndex
	healthapi.Pinger
}

func Build() (*App, error) {
	ctx := context.Background()

	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := setupLogger(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("setup logger: %w", err)
	}

	logger.Info("Building application",
		zap.String("environment", cfg.Environment),
		zap.String("server_addr", cfg.ServerAddr),
	)

	// Setup database connection
	db, err := setupDatabase(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("setup database: %w", err)
	}

	// Run database migrations
	logger.Info("Running database migrations")
	if err := repository.RunMigrations(cfg.DatabaseURL); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	logger.Info("Database migrations completed successfully")

	// Initialize repositories
	messageRepo := repository.NewChatMessagePostgres(db)
	logger.Info("Repositories initialized")

	// Initialize external service connectors (with mock support)
	ai, index := setupConnectors(cfg, logger)

	// Make sure the collection exists before serving queries
	if err := index.EnsureCollection(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure vector collection: %w", err)
	}

	// Initialize validators
	chatValidator := validator.NewValidator(cfg.RAGCfg.MinQueryLen, cfg.RAGCfg.MaxQueryLen)
	logger.Info("Validators initialized")

	// Initialize use cases
	chatUC := chatuc.NewUsecase(messageRepo, ai, index, &cfg.RAGCfg, &cfg.OpenAICfg, cfg.CacheTTLChat)
	logger.Info("Use cases initialized")

	// Setup API handlers
	chatHandler := chatapi.NewHandler(chatUC, chatValidator)
	healthHandler := healthapi.NewHandler(db, index, ai)
	logger.Info("API handlers initialized")

	// Setup router
	router := api.SetupRouter(chatHandler, healthHandler, cfg, logger)
	logger.Info("HTTP router configured")

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.ServerAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.Info("Application built successfully",
		zap.String("environment", cfg.Environment),
	)

	return &App{
		server: server,
		db:     db,
		logger: logger,
	}, nil
}

// BuildIngestion wires the ingestion pipeline. It shares the connector setup
// with the server but needs no database or HTTP surface.
func BuildIngestion() (*ingestuc.Usecase, *zap.Logger, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := setupLogger(cfg.LogLevel)
	if err != nil {
		return nil, nil, fmt.Errorf("setup logger: %w", err)
	}

	ai, index := setupConnectors(cfg, logger)

	uc, err := ingestuc.NewUsecase(ai, index, &cfg.IngestCfg)
	if err != nil {
		return nil, nil, fmt.Errorf("build ingestion usecase: %w", err)
	}
	return uc, logger, nil
}

func setupConnectors(cfg *config.Config, logger *zap.Logger) (aiConnector, vectorIndex) {
	if cfg.EnableMocks {
		logger.Info("Using mock connectors for external services")
		return openai.NewMockConnector(cfg.QdrantCfg.VectorSize, logger), qdrant.NewMockConnector(logger)
	}

	logger.Info("Using real connectors for external services")
	return openai.NewConnector(cfg.OpenAICfg, logger), qdrant.NewConnector(cfg.QdrantCfg, logger)
}
