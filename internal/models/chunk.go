package models

import "time"

// Chunk is one retrieval unit of the indexed OCR markdown, with its
// embedding vector. DocumentKey is the content checksum of the markdown
// the chunk came from, so a changed document invalidates the whole set.
type Chunk struct {
	ID          string    `json:"id" badgerhold:"key"` // chunk_{uuid}
	DocumentKey string    `json:"document_key" badgerholdIndex:"DocumentKey"`
	Position    int       `json:"position"` // sequential order within the document
	Content     string    `json:"content"`
	Embedding   []float32 `json:"embedding"`
	CreatedAt   time.Time `json:"created_at"`
}
