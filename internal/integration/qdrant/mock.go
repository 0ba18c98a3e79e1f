package qdrant

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"github.com/physai/textbook-backend/internal/entity"
	"go.uber.org/zap"
)

// MockConnector keeps embedding records in memory and ranks them by cosine
// similarity. Used when ENABLE_MOCKS is set and in tests.
type MockConnector struct {
	mu      sync.RWMutex
	records map[string]entity.EmbeddingRecord
	logger  *zap.Logger
}

func NewMockConnector(logger *zap.Logger) *MockConnector {
	return &MockConnector{
		records: make(map[string]entity.EmbeddingRecord),
		logger:  logger,
	}
}

func (m *MockConnector) EnsureCollection(ctx context.Context) error {
	return nil
}

func (m *MockConnector) Upsert(ctx context.Context, records []entity.EmbeddingRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, rec := range records {
		m.records[rec.ID] = rec
	}

	ctxzap.Debug(ctx, "[MOCK] points upserted",
		zap.Int("count", len(records)),
		zap.Int("total", len(m.records)),
	)
	return nil
}

func (m *MockConnector) Search(ctx context.Context, vector []float32, topK int, minScore float64, chapterFilter string) ([]entity.ScoredChunk, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var results []entity.ScoredChunk
	for _, rec := range m.records {
		if chapterFilter != "" && rec.Chunk.ChapterID != chapterFilter {
			continue
		}
		score := cosine(vector, rec.Vector)
		if score < minScore {
			continue
		}
		results = append(results, entity.ScoredChunk{Chunk: rec.Chunk, Score: score})
	}

	sort.Slice(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if len(results) > topK {
		results = results[:topK]
	}

	return results, nil
}

func (m *MockConnector) DropCollection(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.records = make(map[string]entity.EmbeddingRecord)
	return nil
}

func (m *MockConnector) Health(ctx context.Context) error {
	return nil
}

// Count reports the number of stored records. Test helper.
func (m *MockConnector) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}

func cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
