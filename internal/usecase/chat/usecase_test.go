package chat

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/physai/textbook-backend/internal/config"
	"github.com/physai/textbook-backend/internal/entity"
)

type fakeAI struct {
	embedCalls    int
	embedErr      error
	lastEmbedText string

	chatCalls       int
	chatErr         error
	lastUserPrompt  string
	lastTemperature float64
	completion      *entity.Completion
}

func (f *fakeAI) CreateEmbedding(ctx context.Context, text string) ([]float32, error) {
	f.embedCalls++
	f.lastEmbedText = text
	if f.embedErr != nil {
		return nil, f.embedErr
	}
	return []float32{1, 0, 0}, nil
}

func (f *fakeAI) GenerateChat(ctx context.Context, systemPrompt, userPrompt string, temperature float64, maxTokens int) (*entity.Completion, error) {
	f.chatCalls++
	f.lastUserPrompt = userPrompt
	f.lastTemperature = temperature
	if f.chatErr != nil {
		return nil, f.chatErr
	}
	if f.completion != nil {
		return f.completion, nil
	}
	return &entity.Completion{Content: "grounded answer", TokensUsed: 42, Model: "gpt-4o-mini"}, nil
}

type fakeIndex struct {
	chunks      []entity.ScoredChunk
	err         error
	lastFilter  string
	searchCalls int
}

func (f *fakeIndex) Search(ctx context.Context, vector []float32, topK int, minScore float64, chapterFilter string) ([]entity.ScoredChunk, error) {
	f.searchCalls++
	f.lastFilter = chapterFilter
	return f.chunks, f.err
}

type fakeRepo struct {
	created   *entity.ChatMessage
	createErr error

	updated     *entity.ChatMessage
	updateErr   error
	lastID      string
	lastRating  entity.FeedbackKind
	createCalls int
}

func (f *fakeRepo) CreateMessage(ctx context.Context, msg *entity.ChatMessage) (*entity.ChatMessage, error) {
	f.createCalls++
	f.created = msg
	if f.createErr != nil {
		return nil, f.createErr
	}
	out := *msg
	out.CreatedAt = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return &out, nil
}

func (f *fakeRepo) GetMessage(ctx context.Context, id string) (*entity.ChatMessage, error) {
	return nil, entity.ErrMessageNotFound
}

func (f *fakeRepo) UpdateFeedback(ctx context.Context, id string, feedback entity.FeedbackKind) (*entity.ChatMessage, error) {
	f.lastID = id
	f.lastRating = feedback
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	return f.updated, nil
}

func newTestUsecase(ai *fakeAI, index *fakeIndex, repo *fakeRepo) *Usecase {
	return NewUsecase(repo, ai, index,
		&config.RAGConfig{TopK: 5, MinScore: 0.7},
		&config.OpenAIConnectorConfig{MaxTokens: 1000},
		time.Minute,
	)
}

func someChunks() []entity.ScoredChunk {
	return []entity.ScoredChunk{
		{Chunk: entity.Chunk{ChapterID: "03-sensing", Section: "IMUs", Text: "IMUs measure angular velocity.", Seq: 0}, Score: 0.91},
		{Chunk: entity.Chunk{ChapterID: "03-sensing", Section: "Cameras", Text: "Depth cameras estimate distance.", Seq: 1}, Score: 0.84},
	}
}

func TestQueryHappyPath(t *testing.T) {
	ai := &fakeAI{}
	index := &fakeIndex{chunks: someChunks()}
	repo := &fakeRepo{}
	uc := newTestUsecase(ai, index, repo)

	chapter := "03-sensing"
	result, err := uc.Query(context.Background(), &entity.ChatQueryRequest{
		Query:   "How do robots sense orientation?",
		Chapter: &chapter,
	})
	require.NoError(t, err)

	assert.Equal(t, "grounded answer", result.Response)
	assert.InDelta(t, 0.91, result.Confidence, 1e-9)
	assert.Equal(t, 42, result.TokensUsed)
	require.Len(t, result.Sources, 2)
	assert.Equal(t, "IMUs", result.Sources[0].Section)
	assert.Equal(t, "03-sensing", index.lastFilter)
	assert.InDelta(t, 0.3, ai.lastTemperature, 1e-9)
	assert.Contains(t, ai.lastUserPrompt, "[Source 1 - 03-sensing, Section IMUs]")
	assert.Contains(t, ai.lastUserPrompt, "Question: How do robots sense orientation?")

	// Persisted row mirrors the returned result.
	require.NotNil(t, repo.created)
	assert.Equal(t, result.ID, repo.created.ID)
	assert.Equal(t, result.Response, repo.created.Response)
	require.NotNil(t, repo.created.TokensUsed)
	assert.Equal(t, 42, *repo.created.TokensUsed)
	assert.Equal(t, time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC), result.CreatedAt)

	_, err = uuid.Parse(result.ID)
	assert.NoError(t, err)
}

func TestQueryNoRelevantChunks(t *testing.T) {
	ai := &fakeAI{}
	index := &fakeIndex{}
	repo := &fakeRepo{}
	uc := newTestUsecase(ai, index, repo)

	result, err := uc.Query(context.Background(), &entity.ChatQueryRequest{Query: "Is the moon made of cheese?"})
	require.NoError(t, err)

	assert.Equal(t, fallbackAnswer, result.Response)
	assert.Zero(t, result.Confidence)
	assert.Empty(t, result.Sources)
	assert.Zero(t, ai.chatCalls, "completion must not be called without retrieved context")
	assert.Zero(t, repo.createCalls, "fallback answers are not persisted")
}

func TestQueryEmbeddingFailure(t *testing.T) {
	ai := &fakeAI{embedErr: entity.ErrProviderUnavailable}
	uc := newTestUsecase(ai, &fakeIndex{}, &fakeRepo{})

	_, err := uc.Query(context.Background(), &entity.ChatQueryRequest{Query: "anything"})
	assert.ErrorIs(t, err, entity.ErrProviderUnavailable)
}

func TestQueryGenerationFailure(t *testing.T) {
	ai := &fakeAI{chatErr: errors.New("upstream exploded")}
	index := &fakeIndex{chunks: someChunks()}
	repo := &fakeRepo{}
	uc := newTestUsecase(ai, index, repo)

	_, err := uc.Query(context.Background(), &entity.ChatQueryRequest{Query: "anything"})
	assert.ErrorIs(t, err, entity.ErrGenerationFailed)
	assert.Zero(t, repo.createCalls)
}

func TestQueryToleratesPersistenceFailure(t *testing.T) {
	ai := &fakeAI{}
	index := &fakeIndex{chunks: someChunks()}
	repo := &fakeRepo{createErr: errors.New("database down")}
	uc := newTestUsecase(ai, index, repo)

	result, err := uc.Query(context.Background(), &entity.ChatQueryRequest{Query: "how do IMUs work?"})
	require.NoError(t, err)

	assert.Equal(t, "grounded answer", result.Response)
	assert.NotEqual(t, repo.created.ID, result.ID, "a failed insert must not leave a dangling id")
}

func TestQueryConfidenceCappedAtOne(t *testing.T) {
	ai := &fakeAI{}
	index := &fakeIndex{chunks: []entity.ScoredChunk{
		{Chunk: entity.Chunk{ChapterID: "ch", Section: "S", Text: "t"}, Score: 1.2},
	}}
	uc := newTestUsecase(ai, index, &fakeRepo{})

	result, err := uc.Query(context.Background(), &entity.ChatQueryRequest{Query: "capped?"})
	require.NoError(t, err)
	assert.Equal(t, 1.0, result.Confidence)
}

func TestQueryClipsLongQuotes(t *testing.T) {
	longText := strings.Repeat("z", 500)
	ai := &fakeAI{}
	index := &fakeIndex{chunks: []entity.ScoredChunk{
		{Chunk: entity.Chunk{ChapterID: "ch", Section: "S", Text: longText}, Score: 0.8},
	}}
	uc := newTestUsecase(ai, index, &fakeRepo{})

	result, err := uc.Query(context.Background(), &entity.ChatQueryRequest{Query: "quote me"})
	require.NoError(t, err)
	require.Len(t, result.Sources, 1)
	assert.Len(t, result.Sources[0].Quote, 203)
	assert.True(t, strings.HasSuffix(result.Sources[0].Quote, "..."))
}

func TestQuerySelectedTextSteersRetrieval(t *testing.T) {
	selected := "The ZMP criterion keeps the robot stable."
	ai := &fakeAI{}
	index := &fakeIndex{chunks: someChunks()}
	uc := newTestUsecase(ai, index, &fakeRepo{})

	_, err := uc.Query(context.Background(), &entity.ChatQueryRequest{
		Query:        "What does this mean?",
		SelectedText: &selected,
	})
	require.NoError(t, err)
	assert.Equal(t, selected+"\n\nWhat does this mean?", ai.lastEmbedText)
}

func TestQueryCachesAnswers(t *testing.T) {
	ai := &fakeAI{}
	index := &fakeIndex{chunks: someChunks()}
	uc := newTestUsecase(ai, index, &fakeRepo{})

	req := &entity.ChatQueryRequest{Query: "How do robots sense orientation?"}

	first, err := uc.Query(context.Background(), req)
	require.NoError(t, err)
	second, err := uc.Query(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, ai.embedCalls)
	assert.Equal(t, 1, ai.chatCalls)
	assert.Equal(t, 1, index.searchCalls)
}

func TestQuerySkipsCacheForSelectedText(t *testing.T) {
	selected := "some highlighted passage"
	ai := &fakeAI{}
	index := &fakeIndex{chunks: someChunks()}
	uc := newTestUsecase(ai, index, &fakeRepo{})

	req := &entity.ChatQueryRequest{Query: "What does this mean?", SelectedText: &selected}

	_, err := uc.Query(context.Background(), req)
	require.NoError(t, err)
	_, err = uc.Query(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, 2, ai.embedCalls)
	assert.Equal(t, 2, ai.chatCalls)
}

func TestSubmitFeedback(t *testing.T) {
	helpful := entity.FeedbackHelpful
	repo := &fakeRepo{updated: &entity.ChatMessage{ID: "msg-1", Feedback: &helpful}}
	uc := newTestUsecase(&fakeAI{}, &fakeIndex{}, repo)

	msg, err := uc.SubmitFeedback(context.Background(), "msg-1", entity.FeedbackHelpful)
	require.NoError(t, err)
	assert.Equal(t, "msg-1", repo.lastID)
	assert.Equal(t, entity.FeedbackHelpful, repo.lastRating)
	require.NotNil(t, msg.Feedback)
	assert.Equal(t, entity.FeedbackHelpful, *msg.Feedback)
}

func TestSubmitFeedbackUnknownMessage(t *testing.T) {
	repo := &fakeRepo{updateErr: entity.ErrMessageNotFound}
	uc := newTestUsecase(&fakeAI{}, &fakeIndex{}, repo)

	_, err := uc.SubmitFeedback(context.Background(), uuid.New().String(), entity.FeedbackIncorrect)
	assert.ErrorIs(t, err, entity.ErrMessageNotFound)
}
