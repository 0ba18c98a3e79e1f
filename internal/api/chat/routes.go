package chat

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers chat routes. Query and feedback carry separate
// rate limits.
func RegisterRoutes(r chi.Router, h *Handler, queryLimit, feedbackLimit func(http.Handler) http.Handler) {
	r.Route("/chat", func(r chi.Router) {
		r.With(queryLimit).Post("/", h.Query)
		r.With(feedbackLimit).Put("/{id}/feedback", h.SubmitFeedback)
	})
}
