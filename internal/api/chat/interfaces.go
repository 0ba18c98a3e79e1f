package chat

import (
	"context"

	"github.com/physai/textbook-backend/internal/entity"
)

type ChatUsecase interface {
	Query(ctx context.Context, req *entity.ChatQueryRequest) (*entity.ChatResult, error)
	SubmitFeedback(ctx context.Context, id string, feedback entity.FeedbackKind) (*entity.ChatMessage, error)
}
