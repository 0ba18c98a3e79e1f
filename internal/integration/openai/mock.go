package openai

import (
	"context"
	"math"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"github.com/physai/textbook-backend/internal/entity"
	"go.uber.org/zap"
)

// MockConnector is a stand-in for the OpenAI connector used when
// ENABLE_MOCKS is set. Vectors are deterministic so retrieval behaves
// consistently across runs.
type MockConnector struct {
	dimension int
	logger    *zap.Logger
}

func NewMockConnector(dimension int, logger *zap.Logger) *MockConnector {
	if dimension <= 0 {
		dimension = 1536
	}
	return &MockConnector{
		dimension: dimension,
		logger:    logger,
	}
}

func (m *MockConnector) CreateEmbedding(ctx context.Context, text string) ([]float32, error) {
	ctxzap.Debug(ctx, "[MOCK] creating embedding", zap.Int("text_length", len(text)))
	return m.vectorFor(text), nil
}

func (m *MockConnector) CreateEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	ctxzap.Debug(ctx, "[MOCK] creating batch embeddings", zap.Int("count", len(texts)))

	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vectors[i] = m.vectorFor(text)
	}
	return vectors, nil
}

func (m *MockConnector) GenerateChat(ctx context.Context, systemPrompt, userPrompt string, temperature float64, maxTokens int) (*entity.Completion, error) {
	ctxzap.Info(ctx, "[MOCK] generating chat completion")

	return &entity.Completion{
		Content:    "This is a mock answer generated without calling the completion provider.",
		TokensUsed: 0,
		Model:      "mock",
	}, nil
}

func (m *MockConnector) Health(ctx context.Context) error {
	return nil
}

// vectorFor derives a unit-length vector from a simple rolling hash of the
// text, so identical texts always embed identically.
func (m *MockConnector) vectorFor(text string) []float32 {
	vec := make([]float32, m.dimension)

	var h uint32 = 2166136261
	for i := 0; i < len(text); i++ {
		h ^= uint32(text[i])
		h *= 16777619
		vec[int(h)%m.dimension] += 1
	}

	var norm float32
	for _, v := range vec {
		norm += v * v
	}
	if norm == 0 {
		vec[0] = 1
		return vec
	}

	inv := float32(1 / math.Sqrt(float64(norm)))
	for i := range vec {
		vec[i] *= inv
	}
	return vec
}
