package interfaces

import "github.com/ternarybob/charta/internal/models"

// ArtifactStore manages the canonical on-disk artifacts of a processed
// document: OCR markdown, searchable PDF, and the extraction CSVs.
// All writes are atomic (temp file + rename).
type ArtifactStore interface {
	// MarkdownPath returns the canonical OCR markdown path
	MarkdownPath() string

	// SearchablePDFPath returns the canonical searchable PDF path
	SearchablePDFPath() string

	// RawCSVPath returns the canonical first-pass CSV path
	RawCSVPath() string

	// FinalCSVPath returns the canonical final (observation) CSV path
	FinalCSVPath() string

	// PairExists reports whether both OCR artifacts are present. This is
	// the OCR cache check: a hit skips the OCR stage entirely.
	PairExists() bool

	// WritePair persists both OCR artifacts together. On any failure
	// neither canonical file is left behind or modified.
	WritePair(pair *models.ArtifactPair) error

	// ReadMarkdown returns the OCR markdown artifact
	ReadMarkdown() ([]byte, error)

	// WriteRawCSV atomically persists the first-pass CSV
	WriteRawCSV(data []byte) error

	// WriteFinalCSV atomically persists the final CSV
	WriteFinalCSV(data []byte) error

	// ReadFinalCSV returns the final CSV artifact
	ReadFinalCSV() ([]byte, error)
}
