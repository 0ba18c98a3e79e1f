package validator

import (
	"fmt"
	"strings"

	"github.com/physai/textbook-backend/internal/entity"
)

// Validator checks incoming chat API payloads before they reach the usecase.
type Validator struct {
	minQueryLen int
	maxQueryLen int
}

func NewValidator(minQueryLen, maxQueryLen int) *Validator {
	return &Validator{
		minQueryLen: minQueryLen,
		maxQueryLen: maxQueryLen,
	}
}

// ValidateChatQuery validates ChatQueryRequest
func (v *Validator) ValidateChatQuery(req *entity.ChatQueryRequest) error {
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return fmt.Errorf("%w: query", entity.ErrMissingField)
	}

	if len(query) < v.minQueryLen || len(query) > v.maxQueryLen {
		return fmt.Errorf("%w: query must be between %d and %d characters",
			entity.ErrInvalidParameter, v.minQueryLen, v.maxQueryLen)
	}

	return nil
}

// ValidateFeedback validates ChatFeedbackRequest
func (v *Validator) ValidateFeedback(req *entity.ChatFeedbackRequest) error {
	if req.Feedback == "" {
		return fmt.Errorf("%w: feedback", entity.ErrMissingField)
	}

	return req.Feedback.Validate()
}
