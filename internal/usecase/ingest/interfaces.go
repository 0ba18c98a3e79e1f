package ingest

import (
	"context"

	"github.com/physai/textbook-backend/internal/entity"
)

// Embedder turns chunk texts into vectors, preserving input order.
type Embedder interface {
	CreateEmbeddings(ctx context.Context, texts []string) ([][]float32, error)
}

// VectorIndex is the write side of the index used during ingestion.
type VectorIndex interface {
	EnsureCollection(ctx context.Context) error
	DropCollection(ctx context.Context) error
	Upsert(ctx context.Context, records []entity.EmbeddingRecord) error
}
