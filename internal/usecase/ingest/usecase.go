package ingest

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"

	"github.com/physai/textbook-backend/internal/config"
	"github.com/physai/textbook-backend/internal/entity"
	"github.com/physai/textbook-backend/internal/pkg/chunker"
)

// chunkNamespace seeds the deterministic point ids. Re-ingesting the same
// content always produces the same ids, so upserts overwrite in place.
var chunkNamespace = uuid.MustParse("8c2a42f0-3d1e-4b7a-9f65-1d2c90ab43e7")

// Usecase walks the textbook content tree, chunks every lesson and writes
// the embedded chunks into the vector index.
type Usecase struct {
	embedder Embedder
	index    VectorIndex
	splitter *chunker.Chunker

	contentPath   string
	batchSize     int
	minSectionLen int
}

func NewUsecase(embedder Embedder, index VectorIndex, cfg *config.IngestConfig) (*Usecase, error) {
	splitter, err := chunker.New(cfg.MaxChunkSize, cfg.Overlap)
	if err != nil {
		return nil, err
	}
	return &Usecase{
		embedder:      embedder,
		index:         index,
		splitter:      splitter,
		contentPath:   cfg.ContentPath,
		batchSize:     cfg.EmbedBatchSize,
		minSectionLen: cfg.MinSectionLen,
	}, nil
}

// Run ingests every markdown lesson under the content path. With rebuild set
// the collection is dropped first, otherwise existing points are overwritten
// by id.
func (u *Usecase) Run(ctx context.Context, rebuild bool) (*entity.IngestReport, error) {
	logger := ctxzap.Extract(ctx)

	if rebuild {
		logger.Info("rebuilding collection from scratch")
		if err := u.index.DropCollection(ctx); err != nil {
			return nil, fmt.Errorf("drop collection: %w", err)
		}
	}
	if err := u.index.EnsureCollection(ctx); err != nil {
		return nil, fmt.Errorf("ensure collection: %w", err)
	}

	files, err := u.listContentFiles()
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no markdown files found under %s", u.contentPath)
	}

	report := &entity.IngestReport{}
	for _, relPath := range files {
		chunks, err := u.chunkFile(relPath)
		if err != nil {
			return nil, err
		}
		if len(chunks) == 0 {
			logger.Warn("lesson produced no chunks", zap.String("file", relPath))
			continue
		}
		if err := u.embedAndUpsert(ctx, chunks); err != nil {
			return nil, fmt.Errorf("ingest %s: %w", relPath, err)
		}

		report.DocumentsProcessed++
		report.ChunksIngested += len(chunks)
		logger.Info("lesson ingested",
			zap.String("file", relPath),
			zap.Int("chunks", len(chunks)))
	}

	logger.Info("ingestion finished",
		zap.Int("documents", report.DocumentsProcessed),
		zap.Int("chunks", report.ChunksIngested))
	return report, nil
}

// listContentFiles returns all lesson files relative to the content path,
// in walk order so ingestion is reproducible.
func (u *Usecase) listContentFiles() ([]string, error) {
	var files []string
	err := filepath.WalkDir(u.contentPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == "node_modules" || (strings.HasPrefix(d.Name(), ".") && path != u.contentPath) {
				return filepath.SkipDir
			}
			return nil
		}
		ext := filepath.Ext(path)
		if ext != ".md" && ext != ".mdx" {
			return nil
		}
		rel, err := filepath.Rel(u.contentPath, path)
		if err != nil {
			return err
		}
		files = append(files, rel)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk content path %s: %w", u.contentPath, err)
	}
	return files, nil
}

// chunkFile parses one lesson and splits its sections into bounded chunks.
// Sections shorter than the configured minimum carry no answerable content
// and are skipped.
func (u *Usecase) chunkFile(relPath string) ([]entity.Chunk, error) {
	raw, err := os.ReadFile(filepath.Join(u.contentPath, relPath))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", relPath, err)
	}

	doc := parseDocument(relPath, string(raw))

	var chunks []entity.Chunk
	for _, sec := range doc.Sections {
		if len(sec.Text) < u.minSectionLen {
			continue
		}
		for _, text := range u.splitter.Split(sec.Text) {
			chunks = append(chunks, entity.Chunk{
				ChapterID: doc.ChapterID,
				Section:   sec.Name,
				Text:      text,
				Seq:       len(chunks),
			})
		}
	}

	for i := range chunks {
		chunks[i].Metadata = entity.ChunkMetadata{
			Title:       doc.Title,
			Module:      doc.Module,
			ChunkIndex:  i,
			TotalChunks: len(chunks),
		}
	}
	return chunks, nil
}

func (u *Usecase) embedAndUpsert(ctx context.Context, chunks []entity.Chunk) error {
	for start := 0; start < len(chunks); start += u.batchSize {
		end := start + u.batchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]

		texts := make([]string, len(batch))
		for i, c := range batch {
			texts[i] = c.Text
		}
		vectors, err := u.embedder.CreateEmbeddings(ctx, texts)
		if err != nil {
			return fmt.Errorf("embed batch: %w", err)
		}

		records := make([]entity.EmbeddingRecord, len(batch))
		for i, c := range batch {
			records[i] = entity.EmbeddingRecord{
				ID:     PointID(c),
				Vector: vectors[i],
				Chunk:  c,
			}
		}
		if err := u.index.Upsert(ctx, records); err != nil {
			return fmt.Errorf("upsert batch: %w", err)
		}
	}
	return nil
}

// PointID derives the stable id for a chunk from its position in the book.
func PointID(c entity.Chunk) string {
	key := c.ChapterID + "|" + c.Section + "|" + strconv.Itoa(c.Seq)
	return uuid.NewSHA1(chunkNamespace, []byte(key)).String()
}
