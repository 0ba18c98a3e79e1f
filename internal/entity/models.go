package entity

import (
	"fmt"
	"time"
)

type FeedbackKind string

const (
	FeedbackHelpful    FeedbackKind = "helpful"
	FeedbackNotHelpful FeedbackKind = "not_helpful"
	FeedbackIncorrect  FeedbackKind = "incorrect"
)

func (f FeedbackKind) Validate() error {
	switch f {
	case FeedbackHelpful, FeedbackNotHelpful, FeedbackIncorrect:
		return nil
	default:
		return fmt.Errorf("%w: feedback must be one of helpful, not_helpful, incorrect", ErrInvalidParameter)
	}
}

// ChatMessage is one persisted question/answer exchange.
type ChatMessage struct {
	ID             string        `json:"id"`
	UserID         *string       `json:"user_id,omitempty"`
	Query          string        `json:"query"`
	SelectedText   *string       `json:"selected_text,omitempty"`
	Chapter        *string       `json:"chapter,omitempty"`
	Response       string        `json:"response"`
	Sources        []Source      `json:"sources"`
	Confidence     float64       `json:"confidence"`
	ResponseTimeMs int           `json:"response_time_ms"`
	TokensUsed     *int          `json:"tokens_used,omitempty"`
	Feedback       *FeedbackKind `json:"feedback,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`
}

// Source is a citation pointing back into the textbook.
type Source struct {
	Chapter string `json:"chapter"`
	Section string `json:"section"`
	Quote   string `json:"quote"`
}

// Chunk is a bounded slice of one lesson document.
type Chunk struct {
	ChapterID string
	Section   string
	Text      string
	Seq       int
	Metadata  ChunkMetadata
}

// ChunkMetadata carries auxiliary payload stored alongside each chunk.
type ChunkMetadata struct {
	Title       string `json:"title"`
	Module      string `json:"module"`
	ChunkIndex  int    `json:"chunk_index"`
	TotalChunks int    `json:"total_chunks"`
}

// EmbeddingRecord is a (vector, payload) pair destined for the vector index.
// ID must be deterministic so re-ingestion overwrites instead of duplicating.
type EmbeddingRecord struct {
	ID     string
	Vector []float32
	Chunk  Chunk
}

// ScoredChunk is a retrieved chunk annotated with its similarity score.
type ScoredChunk struct {
	Chunk Chunk
	Score float64
}

// Completion is the result of one chat-completion call.
type Completion struct {
	Content    string
	TokensUsed int
	Model      string
}

// ChatResult is what the orchestrator hands back to the HTTP layer.
type ChatResult struct {
	ID             string
	Query          string
	Response       string
	Sources        []Source
	Confidence     float64
	ResponseTimeMs int
	TokensUsed     int
	CreatedAt      time.Time
}

// IngestReport summarizes one ingestion run.
type IngestReport struct {
	DocumentsProcessed int
	ChunksIngested     int
}
