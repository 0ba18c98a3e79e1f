package entity

import "time"

// ChatQueryRequest is the body of POST /chat.
type ChatQueryRequest struct {
	Query        string  `json:"query"`
	SelectedText *string `json:"selected_text,omitempty"`
	Chapter      *string `json:"chapter,omitempty"`
	// Stream is accepted but reserved; responses are synchronous.
	Stream bool `json:"stream,omitempty"`
}

// ChatQueryResponse is the body of a successful POST /chat.
type ChatQueryResponse struct {
	ID             string        `json:"id"`
	Query          string        `json:"query"`
	Response       string        `json:"response"`
	Sources        []Source      `json:"sources"`
	Confidence     float64       `json:"confidence"`
	ResponseTimeMs int           `json:"response_time_ms"`
	Feedback       *FeedbackKind `json:"feedback"`
	CreatedAt      time.Time     `json:"created_at"`
}

// ChatFeedbackRequest is the body of PUT /chat/{id}/feedback.
type ChatFeedbackRequest struct {
	Feedback FeedbackKind `json:"feedback"`
}

// ChatFeedbackResponse is the body of a successful feedback submission.
type ChatFeedbackResponse struct {
	ID        string       `json:"id"`
	Feedback  FeedbackKind `json:"feedback"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// ErrorResponse is the standard error payload.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Services  map[string]string `json:"services"`
	Message   *string           `json:"message,omitempty"`
}
