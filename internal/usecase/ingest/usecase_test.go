package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/physai/textbook-backend/internal/config"
	"github.com/physai/textbook-backend/internal/entity"
	"github.com/physai/textbook-backend/internal/integration/openai"
	"github.com/physai/textbook-backend/internal/integration/qdrant"
)

const lessonMarkdown = `---
sidebar_position: 1
---

# What is Physical AI

Physical AI is the study of intelligent systems that act in the real world
through a physical body, sensing their environment and manipulating it.

## Embodiment

Embodiment means that intelligence is shaped by having a body. A robot's
morphology constrains which behaviors are possible and which sensors are
useful, so control and perception must be designed together.

## Short

Too short to index.
`

func writeLesson(t *testing.T, dir, relPath, content string) {
	t.Helper()
	path := filepath.Join(dir, relPath)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func testIngestConfig(dir string) *config.IngestConfig {
	return &config.IngestConfig{
		ContentPath:    dir,
		MaxChunkSize:   1000,
		Overlap:        200,
		EmbedBatchSize: 2,
		MinSectionLen:  100,
	}
}

func newTestUsecase(t *testing.T, dir string) (*Usecase, *qdrant.MockConnector) {
	t.Helper()
	index := qdrant.NewMockConnector(zap.NewNop())
	embedder := openai.NewMockConnector(8, zap.NewNop())

	uc, err := NewUsecase(embedder, index, testIngestConfig(dir))
	require.NoError(t, err)
	return uc, index
}

func TestRunIngestsLessons(t *testing.T) {
	dir := t.TempDir()
	writeLesson(t, dir, "01-foundations/01-what-is-physical-ai.md", lessonMarkdown)
	writeLesson(t, dir, "01-foundations/node_modules/ignored.md", lessonMarkdown)
	writeLesson(t, dir, "01-foundations/notes.txt", "not markdown")

	uc, index := newTestUsecase(t, dir)

	report, err := uc.Run(context.Background(), false)
	require.NoError(t, err)

	assert.Equal(t, 1, report.DocumentsProcessed)
	assert.Equal(t, 2, report.ChunksIngested, "overview and embodiment sections; the short one is skipped")
	assert.Equal(t, 2, index.Count())
}

func TestRunIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	writeLesson(t, dir, "01-foundations/01-what-is-physical-ai.md", lessonMarkdown)

	uc, index := newTestUsecase(t, dir)

	_, err := uc.Run(context.Background(), false)
	require.NoError(t, err)
	first := index.Count()

	_, err = uc.Run(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, first, index.Count(), "re-ingestion must overwrite, not duplicate")
}

func TestRunRebuildClearsCollection(t *testing.T) {
	dir := t.TempDir()
	writeLesson(t, dir, "01-foundations/01-what-is-physical-ai.md", lessonMarkdown)

	uc, index := newTestUsecase(t, dir)

	// Seed a stale point that no longer corresponds to any lesson.
	require.NoError(t, index.Upsert(context.Background(), []entity.EmbeddingRecord{
		{ID: "stale", Vector: []float32{1, 0, 0, 0, 0, 0, 0, 0}, Chunk: entity.Chunk{Text: "stale"}},
	}))

	report, err := uc.Run(context.Background(), true)
	require.NoError(t, err)
	assert.Equal(t, report.ChunksIngested, index.Count(), "rebuild must drop stale points")
}

func TestRunEmptyContentDir(t *testing.T) {
	uc, _ := newTestUsecase(t, t.TempDir())

	_, err := uc.Run(context.Background(), false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no markdown files")
}

func TestPointIDDeterministic(t *testing.T) {
	chunk := entity.Chunk{ChapterID: "01-what-is-physical-ai", Section: "Embodiment", Seq: 0}

	assert.Equal(t, PointID(chunk), PointID(chunk))

	other := chunk
	other.Seq = 1
	assert.NotEqual(t, PointID(chunk), PointID(other))
}

func TestChunkMetadata(t *testing.T) {
	dir := t.TempDir()
	writeLesson(t, dir, "01-foundations/01-what-is-physical-ai.md", lessonMarkdown)

	uc, _ := newTestUsecase(t, dir)

	chunks, err := uc.chunkFile("01-foundations/01-what-is-physical-ai.md")
	require.NoError(t, err)
	require.Len(t, chunks, 2)

	assert.Equal(t, "01-what-is-physical-ai", chunks[0].ChapterID)
	assert.Equal(t, "Overview", chunks[0].Section)
	assert.Equal(t, "Embodiment", chunks[1].Section)

	for i, c := range chunks {
		assert.Equal(t, "What is Physical AI", c.Metadata.Title)
		assert.Equal(t, "module-1-foundations", c.Metadata.Module)
		assert.Equal(t, i, c.Metadata.ChunkIndex)
		assert.Equal(t, 2, c.Metadata.TotalChunks)
	}
}
