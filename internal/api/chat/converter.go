package chat

import (
	"time"

	"github.com/physai/textbook-backend/internal/entity"
)

func toQueryResponse(result *entity.ChatResult) *entity.ChatQueryResponse {
	return &entity.ChatQueryResponse{
		ID:             result.ID,
		Query:          result.Query,
		Response:       result.Response,
		Sources:        result.Sources,
		Confidence:     result.Confidence,
		ResponseTimeMs: result.ResponseTimeMs,
		CreatedAt:      result.CreatedAt,
	}
}

func toFeedbackResponse(msg *entity.ChatMessage) *entity.ChatFeedbackResponse {
	resp := &entity.ChatFeedbackResponse{
		ID:        msg.ID,
		UpdatedAt: time.Now().UTC(),
	}
	if msg.Feedback != nil {
		resp.Feedback = *msg.Feedback
	}
	return resp
}
