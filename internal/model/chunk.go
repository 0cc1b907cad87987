package model

// Chunk is a bounded slice of a document's extracted text, immutable once
// written. Seq preserves the order the text appeared in the document.
type Chunk struct {
	ID         string    `json:"id"`
	DocumentID string    `json:"document_id"`
	Seq        int       `json:"seq"`
	Content    string    `json:"content"`
	Embedding  []float32 `json:"-"`
	Page       int       `json:"page"`
	ChunkType  string    `json:"chunk_type"`
	Ctime      int64     `json:"ctime"`
}

// ScoredChunk is a retrieval hit with its cosine similarity score.
type ScoredChunk struct {
	Chunk
	Score float32 `json:"score"`
}
