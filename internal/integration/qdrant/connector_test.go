package qdrant

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/physai/textbook-backend/internal/config"
	"github.com/physai/textbook-backend/internal/entity"
	"github.com/physai/textbook-backend/internal/pkg/retry"
)

func testConfig(url string) config.QdrantConnectorConfig {
	return config.QdrantConnectorConfig{
		HTTPClientConfig: config.HTTPClientConfig{
			Url:            url,
			Token:          "qdrant-key",
			RequestTimeout: 5 * time.Second,
		},
		Collection: "textbook_embeddings",
		VectorSize: 4,
		Retry: retry.RetryConfig{
			Attempts: 2,
			Delay:    time.Millisecond,
			MaxDelay: 5 * time.Millisecond,
		},
	}
}

func TestEnsureCollectionCreatesWhenMissing(t *testing.T) {
	var created bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/collections/textbook_embeddings", r.URL.Path)
		assert.Equal(t, "qdrant-key", r.Header.Get("api-key"))

		switch r.Method {
		case http.MethodGet:
			w.WriteHeader(http.StatusNotFound)
		case http.MethodPut:
			var req entity.QdrantCreateCollectionRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, 4, req.Vectors.Size)
			assert.Equal(t, "Cosine", req.Vectors.Distance)
			created = true
			w.Write([]byte(`{"result":true,"status":"ok"}`))
		default:
			t.Fatalf("unexpected method %s", r.Method)
		}
	}))
	defer srv.Close()

	c := NewConnector(testConfig(srv.URL), zap.NewNop())

	require.NoError(t, c.EnsureCollection(context.Background()))
	assert.True(t, created)
}

func TestEnsureCollectionAcceptsMatchingSize(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		w.Write([]byte(`{"result":{"status":"green","config":{"params":{"vectors":{"size":4,"distance":"Cosine"}}}}}`))
	}))
	defer srv.Close()

	c := NewConnector(testConfig(srv.URL), zap.NewNop())
	assert.NoError(t, c.EnsureCollection(context.Background()))
}

func TestEnsureCollectionRejectsSizeMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"result":{"status":"green","config":{"params":{"vectors":{"size":1536,"distance":"Cosine"}}}}}`))
	}))
	defer srv.Close()

	c := NewConnector(testConfig(srv.URL), zap.NewNop())

	err := c.EnsureCollection(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "vector size 1536")
}

func TestUpsert(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/collections/textbook_embeddings/points", r.URL.Path)
		assert.Equal(t, "true", r.URL.Query().Get("wait"))

		var req entity.QdrantUpsertRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Points, 2)
		assert.Equal(t, "id-1", req.Points[0].ID)
		assert.Equal(t, "02-humanoid-platforms", req.Points[0].Payload.ChapterID)
		assert.Equal(t, "Actuators", req.Points[0].Payload.Section)

		w.Write([]byte(`{"result":{"status":"completed"},"status":"ok"}`))
	}))
	defer srv.Close()

	c := NewConnector(testConfig(srv.URL), zap.NewNop())

	records := []entity.EmbeddingRecord{
		{
			ID:     "id-1",
			Vector: []float32{1, 0, 0, 0},
			Chunk:  entity.Chunk{ChapterID: "02-humanoid-platforms", Section: "Actuators", Text: "Motors move joints.", Seq: 0},
		},
		{
			ID:     "id-2",
			Vector: []float32{0, 1, 0, 0},
			Chunk:  entity.Chunk{ChapterID: "02-humanoid-platforms", Section: "Actuators", Text: "Torque matters.", Seq: 1},
		},
	}
	assert.NoError(t, c.Upsert(context.Background(), records))
}

func TestUpsertEmptyIsNoop(t *testing.T) {
	c := NewConnector(testConfig("http://unused"), zap.NewNop())
	assert.NoError(t, c.Upsert(context.Background(), nil))
}

func TestSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/collections/textbook_embeddings/points/search", r.URL.Path)

		var req entity.QdrantSearchRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, 5, req.Limit)
		assert.InDelta(t, 0.7, req.ScoreThreshold, 1e-9)
		assert.True(t, req.WithPayload)
		assert.Nil(t, req.Filter)

		json.NewEncoder(w).Encode(entity.QdrantSearchResponse{
			Result: []entity.QdrantScoredPoint{
				{ID: "a", Score: 0.91, Payload: entity.QdrantPayload{ChapterID: "ch1", Section: "Sensors", Text: "IMU text"}},
				{ID: "b", Score: 0.82, Payload: entity.QdrantPayload{ChapterID: "ch2", Section: "Control", Text: "PID text"}},
			},
		})
	}))
	defer srv.Close()

	c := NewConnector(testConfig(srv.URL), zap.NewNop())

	results, err := c.Search(context.Background(), []float32{1, 0, 0, 0}, 5, 0.7, "")
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "Sensors", results[0].Chunk.Section)
	assert.InDelta(t, 0.91, results[0].Score, 1e-9)
	assert.Equal(t, "ch2", results[1].Chunk.ChapterID)
}

func TestSearchWithChapterFilter(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req entity.QdrantSearchRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.NotNil(t, req.Filter)
		require.Len(t, req.Filter.Must, 1)
		assert.Equal(t, "chapter_id", req.Filter.Must[0].Key)
		assert.Equal(t, "03-sensing", req.Filter.Must[0].Match.Value)

		json.NewEncoder(w).Encode(entity.QdrantSearchResponse{})
	}))
	defer srv.Close()

	c := NewConnector(testConfig(srv.URL), zap.NewNop())

	results, err := c.Search(context.Background(), []float32{0, 0, 1, 0}, 5, 0.7, "03-sensing")
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestDropCollectionToleratesMissing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodDelete, r.Method)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewConnector(testConfig(srv.URL), zap.NewNop())
	assert.NoError(t, c.DropCollection(context.Background()))
}
