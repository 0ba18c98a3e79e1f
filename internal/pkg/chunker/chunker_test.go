package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name         string
		maxChunkSize int
		overlap      int
		wantErr      bool
	}{
		{name: "valid", maxChunkSize: 1000, overlap: 200},
		{name: "zero overlap", maxChunkSize: 100, overlap: 0},
		{name: "zero size", maxChunkSize: 0, overlap: 0, wantErr: true},
		{name: "negative overlap", maxChunkSize: 100, overlap: -1, wantErr: true},
		{name: "overlap equals size", maxChunkSize: 100, overlap: 100, wantErr: true},
		{name: "overlap exceeds size", maxChunkSize: 100, overlap: 150, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := New(tt.maxChunkSize, tt.overlap)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, c)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, c)
			}
		})
	}
}

func TestSplitEmpty(t *testing.T) {
	c, err := New(100, 20)
	require.NoError(t, err)

	assert.Nil(t, c.Split(""))
	assert.Nil(t, c.Split("   \n\t  "))
}

func TestSplitShortText(t *testing.T) {
	c, err := New(100, 20)
	require.NoError(t, err)

	chunks := c.Split("just a short paragraph")
	require.Len(t, chunks, 1)
	assert.Equal(t, "just a short paragraph", chunks[0])
}

func TestSplitHardBoundaryOverlap(t *testing.T) {
	// No periods or newlines, so every cut is a hard split and the overlap
	// must hold exactly.
	c, err := New(100, 20)
	require.NoError(t, err)

	text := strings.Repeat("a", 50) + strings.Repeat("b", 50) + strings.Repeat("c", 50) + strings.Repeat("d", 50) + strings.Repeat("e", 50)
	chunks := c.Split(text)

	require.Len(t, chunks, 3)
	for i, chunk := range chunks {
		assert.LessOrEqual(t, len(chunk), 100, "chunk %d exceeds budget", i)
	}
	for i := 1; i < len(chunks); i++ {
		assert.Equal(t, chunks[i-1][len(chunks[i-1])-20:], chunks[i][:20],
			"chunks %d and %d do not overlap", i-1, i)
	}
}

func TestSplitPrefersSentenceBoundary(t *testing.T) {
	c, err := New(50, 10)
	require.NoError(t, err)

	text := "Alpha beta gamma delta epsilon zeta dot." + " " + strings.Repeat("x", 80)
	chunks := c.Split(text)

	require.NotEmpty(t, chunks)
	assert.Equal(t, "Alpha beta gamma delta epsilon zeta dot.", chunks[0])
}

func TestSplitIgnoresEarlyBoundary(t *testing.T) {
	// The only period falls in the first half of the budget, so the split
	// must fall back to a hard cut instead of producing a tiny chunk.
	c, err := New(100, 0)
	require.NoError(t, err)

	text := "Short." + strings.Repeat("y", 200)
	chunks := c.Split(text)

	require.NotEmpty(t, chunks)
	assert.Len(t, chunks[0], 100)
}

func TestSplitCoversWholeText(t *testing.T) {
	c, err := New(80, 15)
	require.NoError(t, err)

	text := strings.Repeat("m", 500)
	chunks := c.Split(text)

	var covered int
	for i, chunk := range chunks {
		covered += len(chunk)
		if i > 0 {
			covered -= 15
		}
	}
	assert.Equal(t, len(text), covered)
}
