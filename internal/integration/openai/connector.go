package openai

import (
	"context"
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

const (
	embeddingsEndpoint  = "/embeddings"
	completionsEndpoint = "/chat/completions"
)

// Connector wraps the OpenAI REST API for embeddings and chat completions.
// Transient failures (network, 429, 5xx) are retried with bounded backoff;
// exhausting retries surfaces entity.ErrProviderUnavailable.
type Connector struct {
	config    config.OpenAIConnectorConfig
	connector *pkghttp.Connector
	logger    *zap.Logger
}

func NewConnector(
	cfg config.OpenAIConnectorConfig,
	logger *zap.Logger,
) *Connector {
	return &Connector{
		connector: common.NewBaseConnector(cfg.HTTPClientConfig, logger, pkghttp.WithAuthToken(cfg.Token)),
		config:    cfg,
		logger:    logger,
	}
}

// CreateEmbedding embeds a single text. This is the query-path variant.
func (c *Connector) CreateEmbedding(ctx context.Context, text string) ([]float32, error) {
	vectors, err := c.CreateEmbeddings(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// CreateEmbeddings embeds a batch of texts, preserving input order. Used by
// the ingestion job; every call is billed and rate-limited upstream.
func (c *Connector) CreateEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	req := &entity.OpenAIEmbeddingsRequest{
		Model: c.config.EmbeddingModel,
		Input: texts,
	}

	var resp entity.OpenAIEmbeddingsResponse
	err := retry.Do(ctx, &c.config.Retry, common.IsTransient, func() error {
		return c.connector.DoRequest(ctx, http.MethodPost, embeddingsEndpoint, req, &resp)
	})
	if err != nil {
		ctxzap.Error(ctx, "embeddings request failed", zap.Error(err))
		return nil, fmt.Errorf("%w: embeddings: %v", entity.ErrProviderUnavailable, err)
	}

	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("%w: embeddings: got %d vectors for %d inputs",
			entity.ErrProviderUnavailable, len(resp.Data), len(texts))
	}

	vectors := make([][]float32, len(texts))
	for _, item := range resp.Data {
		if item.Index < 0 || item.Index >= len(vectors) {
			return nil, fmt.Errorf("%w: embeddings: index %d out of range", entity.ErrProviderUnavailable, item.Index)
		}
		vectors[item.Index] = item.Embedding
	}

	ctxzap.Debug(ctx, "embeddings created",
		zap.Int("count", len(vectors)),
		zap.Int("dimension", len(vectors[0])),
	)

	return vectors, nil
}

// GenerateChat runs one chat completion. Prompt construction belongs to the
// caller; this is a pure transport wrapper.
func (c *Connector) GenerateChat(ctx context.Context, systemPrompt, userPrompt string, temperature float64, maxTokens int) (*entity.Completion, error) {
	if maxTokens <= 0 {
		maxTokens = c.config.MaxTokens
	}

	req := &entity.OpenAIChatRequest{
		Model: c.config.Model,
		Messages: []entity.OpenAIChatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Temperature: temperature,
		MaxTokens:   maxTokens,
	}

	var resp entity.OpenAIChatResponse
	err := retry.Do(ctx, &c.config.Retry, common.IsTransient, func() error {
		return c.connector.DoRequest(ctx, http.MethodPost, completionsEndpoint, req, &resp)
	})
	if err != nil {
		ctxzap.Error(ctx, "chat completion request failed", zap.Error(err))
		return nil, fmt.Errorf("%w: chat completion: %v", entity.ErrProviderUnavailable, err)
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return nil, fmt.Errorf("%w: chat completion returned no content", entity.ErrProviderUnavailable)
	}

	ctxzap.Info(ctx, "chat completion generated",
		zap.String("model", resp.Model),
		zap.Int("tokens_used", resp.Usage.TotalTokens),
	)

	return &entity.Completion{
		Content:    resp.Choices[0].Message.Content,
		TokensUsed: resp.Usage.TotalTokens,
		Model:      resp.Model,
	}, nil
}

// Health probes the API with a minimal embedding call.
func (c *Connector) Health(ctx context.Context) error {
	_, err := c.CreateEmbedding(ctx, "ping")
	return err
}
