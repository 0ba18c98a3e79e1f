package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"

	"github.com/physai/textbook-backend/internal/builder"
)

func main() {
	// Registered before LoadConfig calls flag.Parse.
	rebuild := flag.Bool("rebuild", false, "drop and recreate the collection before ingesting")

	uc, logger, err := builder.BuildIngestion()
	if err != nil {
		log.Fatal("Failed to build ingestion pipeline:", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx = ctxzap.ToContext(ctx, logger)

	report, err := uc.Run(ctx, *rebuild)
	if err != nil {
		logger.Fatal("Ingestion failed", zap.Error(err))
	}

	logger.Info("Ingestion completed",
		zap.Int("documents_processed", report.DocumentsProcessed),
		zap.Int("chunks_ingested", report.ChunksIngested),
	)
}
