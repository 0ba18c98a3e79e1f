package chat

import (
	"fmt"
	"strings"

	"github.com/physai/textbook-backend/internal/entity"
)

const systemPrompt = `You are a teaching assistant for a Physical AI and humanoid robotics textbook.
Answer the student's question using only the provided textbook excerpts.
If the excerpts do not contain enough information to answer, say so honestly instead of guessing.
Be concise and precise, and prefer terminology used in the excerpts.`

const fallbackAnswer = "I couldn't find relevant information in the textbook to answer your question. " +
	"Please try rephrasing or ask about a different topic."

const (
	answerTemperature = 0.3
	quoteLimit        = 200
)

// buildUserPrompt renders the retrieved chunks as numbered excerpts followed
// by the student's question.
func buildUserPrompt(question string, chunks []entity.ScoredChunk) string {
	var b strings.Builder
	b.WriteString("Textbook excerpts:\n\n")
	for i, c := range chunks {
		fmt.Fprintf(&b, "[Source %d - %s, Section %s]\n%s\n\n", i+1, c.Chunk.ChapterID, c.Chunk.Section, c.Chunk.Text)
	}
	b.WriteString("Question: ")
	b.WriteString(question)
	return b.String()
}

// sourcesFrom converts retrieved chunks into the citation list returned to the
// client. Quotes are clipped so responses stay small.
func sourcesFrom(chunks []entity.ScoredChunk) []entity.Source {
	sources := make([]entity.Source, 0, len(chunks))
	for _, c := range chunks {
		quote := c.Chunk.Text
		if len(quote) > quoteLimit {
			quote = quote[:quoteLimit] + "..."
		}
		sources = append(sources, entity.Source{
			Chapter: c.Chunk.ChapterID,
			Section: c.Chunk.Section,
			Quote:   quote,
		})
	}
	return sources
}
