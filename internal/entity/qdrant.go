package entity

// Wire types for the Qdrant REST API. Cosine distance is assumed; payload
// keys mirror the ones the ingestion job writes.

type QdrantCreateCollectionRequest struct {
	Vectors QdrantVectorParams `json:"vectors"`
}

type QdrantVectorParams struct {
	Size     int    `json:"size"`
	Distance string `json:"distance"`
}

type QdrantCollectionInfoResponse struct {
	Result struct {
		Status string `json:"status"`
		Config struct {
			Params struct {
				Vectors QdrantVectorParams `json:"vectors"`
			} `json:"params"`
		} `json:"config"`
	} `json:"result"`
}

type QdrantPoint struct {
	ID      string        `json:"id"`
	Vector  []float32     `json:"vector"`
	Payload QdrantPayload `json:"payload"`
}

type QdrantPayload struct {
	ChapterID string        `json:"chapter_id"`
	Section   string        `json:"section"`
	Text      string        `json:"text"`
	Seq       int           `json:"seq"`
	Metadata  ChunkMetadata `json:"metadata"`
}

type QdrantUpsertRequest struct {
	Points []QdrantPoint `json:"points"`
}

type QdrantSearchRequest struct {
	Vector         []float32     `json:"vector"`
	Limit          int           `json:"limit"`
	ScoreThreshold float64       `json:"score_threshold,omitempty"`
	WithPayload    bool          `json:"with_payload"`
	Filter         *QdrantFilter `json:"filter,omitempty"`
}

type QdrantFilter struct {
	Must []QdrantFieldCondition `json:"must"`
}

type QdrantFieldCondition struct {
	Key   string      `json:"key"`
	Match QdrantMatch `json:"match"`
}

type QdrantMatch struct {
	Value string `json:"value"`
}

type QdrantScoredPoint struct {
	ID      string        `json:"id"`
	Score   float64       `json:"score"`
	Payload QdrantPayload `json:"payload"`
}

type QdrantSearchResponse struct {
	Result []QdrantScoredPoint `json:"result"`
}
