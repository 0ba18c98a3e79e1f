package chat

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/physai/textbook-backend/internal/config"
	"github.com/physai/textbook-backend/internal/entity"
	"github.com/physai/textbook-backend/internal/repository"
)

// Usecase runs the retrieval-augmented answering pipeline: embed the
// question, search the vector index, assemble a grounded prompt, generate
// the answer and record the exchange.
type Usecase struct {
	messageRepo repository.ChatMessageRepository
	ai          AIConnector
	index       VectorIndex

	cache    *gocache.Cache
	topK     int
	minScore float64

	maxTokens int
}

func NewUsecase(
	messageRepo repository.ChatMessageRepository,
	ai AIConnector,
	index VectorIndex,
	ragCfg *config.RAGConfig,
	openaiCfg *config.OpenAIConnectorConfig,
	cacheTTL time.Duration,
) *Usecase {
	return &Usecase{
		messageRepo: messageRepo,
		ai:          ai,
		index:       index,
		cache:       gocache.New(cacheTTL, 2*cacheTTL),
		topK:        ragCfg.TopK,
		minScore:    ragCfg.MinScore,
		maxTokens:   openaiCfg.MaxTokens,
	}
}

// Query answers a student question against the indexed textbook. The answer
// is grounded exclusively in retrieved chunks; when nothing relevant is
// found, a fixed fallback is returned without calling the completion model
// and without persisting a row.
func (u *Usecase) Query(ctx context.Context, req *entity.ChatQueryRequest) (*entity.ChatResult, error) {
	started := time.Now()
	logger := ctxzap.Extract(ctx)

	chapter := ""
	if req.Chapter != nil {
		chapter = *req.Chapter
	}

	if key, ok := cacheKey(req, chapter); ok {
		if cached, hit := u.cache.Get(key); hit {
			logger.Debug("answer served from cache", zap.String("chapter", chapter))
			return cached.(*entity.ChatResult), nil
		}
	}

	// Selected text is prepended so retrieval favors the passage the
	// student is actually looking at.
	searchText := req.Query
	if req.SelectedText != nil && *req.SelectedText != "" {
		searchText = *req.SelectedText + "\n\n" + req.Query
	}

	vector, err := u.ai.CreateEmbedding(ctx, searchText)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	chunks, err := u.index.Search(ctx, vector, u.topK, u.minScore, chapter)
	if err != nil {
		return nil, fmt.Errorf("search index: %w", err)
	}

	if len(chunks) == 0 {
		logger.Info("no relevant chunks found",
			zap.String("chapter", chapter),
			zap.Int("query_len", len(req.Query)))
		return &entity.ChatResult{
			ID:             uuid.New().String(),
			Query:          req.Query,
			Response:       fallbackAnswer,
			Sources:        []entity.Source{},
			Confidence:     0,
			ResponseTimeMs: int(time.Since(started).Milliseconds()),
			CreatedAt:      time.Now().UTC(),
		}, nil
	}

	completion, err := u.ai.GenerateChat(ctx, systemPrompt, buildUserPrompt(req.Query, chunks), answerTemperature, u.maxTokens)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", entity.ErrGenerationFailed, err)
	}

	confidence := chunks[0].Score
	if confidence > 1.0 {
		confidence = 1.0
	}

	tokens := completion.TokensUsed
	result := &entity.ChatResult{
		ID:             uuid.New().String(),
		Query:          req.Query,
		Response:       completion.Content,
		Sources:        sourcesFrom(chunks),
		Confidence:     confidence,
		ResponseTimeMs: int(time.Since(started).Milliseconds()),
		TokensUsed:     tokens,
		CreatedAt:      time.Now().UTC(),
	}

	msg := &entity.ChatMessage{
		ID:             result.ID,
		Query:          req.Query,
		SelectedText:   req.SelectedText,
		Chapter:        req.Chapter,
		Response:       result.Response,
		Sources:        result.Sources,
		Confidence:     result.Confidence,
		ResponseTimeMs: result.ResponseTimeMs,
		TokensUsed:     &tokens,
	}
	created, err := u.messageRepo.CreateMessage(ctx, msg)
	if err != nil {
		// The answer is still good; hand it back under a fresh id so a
		// later feedback call cannot target a row that was never written.
		logger.Warn("failed to persist chat message", zap.Error(err))
		result.ID = uuid.New().String()
	} else {
		result.CreatedAt = created.CreatedAt
	}

	if key, ok := cacheKey(req, chapter); ok {
		u.cache.Set(key, result, gocache.DefaultExpiration)
	}

	logger.Info("chat query answered",
		zap.String("message_id", result.ID),
		zap.Int("sources", len(result.Sources)),
		zap.Float64("confidence", result.Confidence),
		zap.Int("response_time_ms", result.ResponseTimeMs))

	return result, nil
}

// SubmitFeedback records the student's rating on a previous answer.
// Repeated submissions overwrite the stored value.
func (u *Usecase) SubmitFeedback(ctx context.Context, id string, feedback entity.FeedbackKind) (*entity.ChatMessage, error) {
	msg, err := u.messageRepo.UpdateFeedback(ctx, id, feedback)
	if err != nil {
		return nil, err
	}

	ctxzap.Extract(ctx).Info("feedback recorded",
		zap.String("message_id", id),
		zap.String("feedback", string(feedback)))
	return msg, nil
}

// cacheKey is defined only for queries without selected text; a highlighted
// passage makes the question too specific to share across students.
func cacheKey(req *entity.ChatQueryRequest, chapter string) (string, bool) {
	if req.SelectedText != nil && *req.SelectedText != "" {
		return "", false
	}
	return chapter + "|" + req.Query, true
}
