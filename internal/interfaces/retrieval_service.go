package interfaces

import "context"

// RetrievalService owns the chunked embedding index over the OCR
// markdown and answers questions grounded in retrieved chunks.
type RetrievalService interface {
	// PrimeIndex (re)builds the index from the current markdown artifact.
	// Idempotent: an index already matching the artifact's content
	// checksum is left alone.
	PrimeIndex(ctx context.Context) error

	// Answer embeds the question, retrieves the top-k most similar
	// chunks, and generates a grounded answer. Builds the index lazily
	// when it does not yet match the current artifact.
	Answer(ctx context.Context, question string) (string, error)

	// IndexReady reports whether the index matches the current artifact
	IndexReady(ctx context.Context) bool
}
