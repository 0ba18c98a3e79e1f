package qdrant

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"github.com/physai/textbook-backend/internal/config"
	"github.com/physai/textbook-backend/internal/entity"
	"github.com/physai/textbook-backend/internal/integration/common"
	"github.com/physai/textbook-backend/internal/pkg/retry"
	pkghttp "github.com/physai/textbook-backend/pkg/http"
	"go.uber.org/zap"
)

const cosineDistance = "Cosine"

// Connector is a REST client to a Qdrant collection holding the textbook
// embeddings. The collection is keyed by deterministic chunk ids, so upserts
// are idempotent across ingestion runs.
type Connector struct {
	config    config.QdrantConnectorConfig
	connector *pkghttp.Connector
	logger    *zap.Logger
}

func NewConnector(
	cfg config.QdrantConnectorConfig,
	logger *zap.Logger,
) *Connector {
	return &Connector{
		connector: common.NewBaseConnector(cfg.HTTPClientConfig, logger, pkghttp.WithAPIKeyHeader("api-key", cfg.Token)),
		config:    cfg,
		logger:    logger,
	}
}

// EnsureCollection creates the collection if missing and verifies that an
// existing one carries the configured vector size. A size mismatch is a
// configuration error, not something to paper over at query time.
func (c *Connector) EnsureCollection(ctx context.Context) error {
	endpoint := "/collections/" + c.config.Collection

	var info entity.QdrantCollectionInfoResponse
	err := c.connector.DoRequest(ctx, http.MethodGet, endpoint, nil, &info)
	if err == nil {
		existing := info.Result.Config.Params.Vectors.Size
		if existing != c.config.VectorSize {
			return fmt.Errorf("collection %q has vector size %d, config expects %d",
				c.config.Collection, existing, c.config.VectorSize)
		}
		ctxzap.Info(ctx, "qdrant collection already exists",
			zap.String("collection", c.config.Collection),
			zap.Int("vector_size", existing),
		)
		return nil
	}

	var httpErr *pkghttp.HTTPError
	if !errors.As(err, &httpErr) || httpErr.StatusCode != http.StatusNotFound {
		return fmt.Errorf("inspect collection: %w", err)
	}

	req := &entity.QdrantCreateCollectionRequest{
		Vectors: entity.QdrantVectorParams{
			Size:     c.config.VectorSize,
			Distance: cosineDistance,
		},
	}
	if err := c.connector.DoRequest(ctx, http.MethodPut, endpoint, req, nil); err != nil {
		return fmt.Errorf("create collection: %w", err)
	}

	ctxzap.Info(ctx, "qdrant collection created",
		zap.String("collection", c.config.Collection),
		zap.Int("vector_size", c.config.VectorSize),
	)
	return nil
}

// Upsert writes embedding records, overwriting points with the same id.
func (c *Connector) Upsert(ctx context.Context, records []entity.EmbeddingRecord) error {
	if len(records) == 0 {
		return nil
	}

	points := make([]entity.QdrantPoint, len(records))
	for i, rec := range records {
		points[i] = entity.QdrantPoint{
			ID:     rec.ID,
			Vector: rec.Vector,
			Payload: entity.QdrantPayload{
				ChapterID: rec.Chunk.ChapterID,
				Section:   rec.Chunk.Section,
				Text:      rec.Chunk.Text,
				Seq:       rec.Chunk.Seq,
				Metadata:  rec.Chunk.Metadata,
			},
		}
	}

	endpoint := fmt.Sprintf("/collections/%s/points?wait=true", c.config.Collection)
	req := &entity.QdrantUpsertRequest{Points: points}

	err := retry.Do(ctx, &c.config.Retry, common.IsTransient, func() error {
		return c.connector.DoRequest(ctx, http.MethodPut, endpoint, req, nil)
	})
	if err != nil {
		ctxzap.Error(ctx, "failed to upsert points", zap.Error(err))
		return fmt.Errorf("%w: upsert points: %v", entity.ErrProviderUnavailable, err)
	}

	ctxzap.Info(ctx, "points upserted", zap.Int("count", len(points)))
	return nil
}

// Search returns at most topK chunks scoring at least minScore, ordered by
// descending similarity. An empty result is not an error. chapterFilter,
// when non-empty, restricts matches to one chapter via payload filtering.
func (c *Connector) Search(ctx context.Context, vector []float32, topK int, minScore float64, chapterFilter string) ([]entity.ScoredChunk, error) {
	req := &entity.QdrantSearchRequest{
		Vector:         vector,
		Limit:          topK,
		ScoreThreshold: minScore,
		WithPayload:    true,
	}

	if chapterFilter != "" {
		req.Filter = &entity.QdrantFilter{
			Must: []entity.QdrantFieldCondition{
				{
					Key:   "chapter_id",
					Match: entity.QdrantMatch{Value: chapterFilter},
				},
			},
		}
	}

	endpoint := fmt.Sprintf("/collections/%s/points/search", c.config.Collection)

	var resp entity.QdrantSearchResponse
	err := retry.Do(ctx, &c.config.Retry, common.IsTransient, func() error {
		return c.connector.DoRequest(ctx, http.MethodPost, endpoint, req, &resp)
	})
	if err != nil {
		ctxzap.Error(ctx, "vector search failed", zap.Error(err))
		return nil, fmt.Errorf("%w: vector search: %v", entity.ErrProviderUnavailable, err)
	}

	results := make([]entity.ScoredChunk, 0, len(resp.Result))
	for _, r := range resp.Result {
		results = append(results, entity.ScoredChunk{
			Chunk: entity.Chunk{
				ChapterID: r.Payload.ChapterID,
				Section:   r.Payload.Section,
				Text:      r.Payload.Text,
				Seq:       r.Payload.Seq,
				Metadata:  r.Payload.Metadata,
			},
			Score: r.Score,
		})
	}

	ctxzap.Debug(ctx, "vector search completed",
		zap.Int("results", len(results)),
		zap.Float64("min_score", minScore),
	)
	return results, nil
}

// DropCollection removes the collection entirely. Used by the ingestion job
// when rebuilding the index from scratch.
func (c *Connector) DropCollection(ctx context.Context) error {
	endpoint := "/collections/" + c.config.Collection

	err := c.connector.DoRequest(ctx, http.MethodDelete, endpoint, nil, nil)
	if err != nil {
		var httpErr *pkghttp.HTTPError
		if errors.As(err, &httpErr) && httpErr.StatusCode == http.StatusNotFound {
			return nil
		}
		return fmt.Errorf("drop collection: %w", err)
	}

	ctxzap.Info(ctx, "qdrant collection dropped", zap.String("collection", c.config.Collection))
	return nil
}

// Health checks that the collection is reachable.
func (c *Connector) Health(ctx context.Context) error {
	endpoint := "/collections/" + c.config.Collection
	var info entity.QdrantCollectionInfoResponse
	return c.connector.DoRequest(ctx, http.MethodGet, endpoint, nil, &info)
}
