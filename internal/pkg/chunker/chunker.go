package chunker

import (
	"fmt"
	"strings"
)

const (
	DefaultMaxChunkSize = 1000
	DefaultOverlap      = 200
)

// Chunker splits text into overlapping segments bounded by maxChunkSize.
// Splits prefer sentence or line boundaries; a hard character split is the
// fallback when no boundary lands in the second half of the budget.
type Chunker struct {
	maxChunkSize int
	overlap      int
}

func New(maxChunkSize, overlap int) (*Chunker, error) {
	if maxChunkSize <= 0 {
		return nil, fmt.Errorf("max chunk size must be positive, got %d", maxChunkSize)
	}
	if overlap < 0 {
		return nil, fmt.Errorf("overlap must not be negative, got %d", overlap)
	}
	if overlap >= maxChunkSize {
		return nil, fmt.Errorf("overlap (%d) must be smaller than max chunk size (%d)", overlap, maxChunkSize)
	}
	return &Chunker{
		maxChunkSize: maxChunkSize,
		overlap:      overlap,
	}, nil
}

// Split cuts text into chunks of at most maxChunkSize characters where each
// chunk overlaps its successor by overlap characters. An empty document
// yields no chunks.
func (c *Chunker) Split(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	var chunks []string
	start := 0

	for start < len(text) {
		end := start + c.maxChunkSize
		if end > len(text) {
			end = len(text)
		}
		chunk := text[start:end]

		// Break at the last sentence or line boundary, but only when it
		// falls past half the budget so chunks stay reasonably sized.
		if end < len(text) {
			lastPeriod := strings.LastIndexByte(chunk, '.')
			lastNewline := strings.LastIndexByte(chunk, '\n')
			breakPoint := max(lastPeriod, lastNewline)

			if breakPoint > c.maxChunkSize/2 {
				chunk = chunk[:breakPoint+1]
				end = start + breakPoint + 1
			}
		}

		if trimmed := strings.TrimSpace(chunk); trimmed != "" {
			chunks = append(chunks, trimmed)
		}

		if end == len(text) {
			break
		}

		next := end - c.overlap
		if next <= start {
			next = end
		}
		start = next
	}

	return chunks
}
