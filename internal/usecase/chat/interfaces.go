package chat

import (
	"context"

	"github.com/physai/textbook-backend/internal/entity"
)

// AIConnector covers the provider calls the query path needs: embedding the
// search text and generating the grounded answer.
type AIConnector interface {
	CreateEmbedding(ctx context.Context, text string) ([]float32, error)
	GenerateChat(ctx context.Context, systemPrompt, userPrompt string, temperature float64, maxTokens int) (*entity.Completion, error)
}

// VectorIndex is the retrieval side of the pipeline.
type VectorIndex interface {
	Search(ctx context.Context, vector []float32, topK int, minScore float64, chapterFilter string) ([]entity.ScoredChunk, error)
}
