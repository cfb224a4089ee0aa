package artifacts

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/charta/internal/common"
	"github.com/ternarybob/charta/internal/interfaces"
	"github.com/ternarybob/charta/internal/models"
)

// Canonical artifact file names under the configured artifacts dir
const (
	MarkdownFile      = "ocr.md"
	SearchablePDFFile = "ocr_searchable.pdf"
	RawCSVFile        = "rp.csv"
	FinalCSVFile      = "final.csv"
)

// Store manages the on-disk pipeline artifacts at their canonical paths.
// All writes go through a temp file and rename so readers never observe
// partial content, and the OCR artifact pair is never left half-written.
type Store struct {
	dir    string
	logger arbor.ILogger
}

var _ interfaces.ArtifactStore = (*Store)(nil)

// NewStore creates an artifact store rooted at the configured dir
func NewStore(config *common.ArtifactsConfig, logger arbor.ILogger) (*Store, error) {
	if err := os.MkdirAll(config.Dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create artifacts directory: %w", err)
	}
	return &Store{
		dir:    config.Dir,
		logger: logger,
	}, nil
}

func (s *Store) MarkdownPath() string      { return filepath.Join(s.dir, MarkdownFile) }
func (s *Store) SearchablePDFPath() string { return filepath.Join(s.dir, SearchablePDFFile) }
func (s *Store) RawCSVPath() string        { return filepath.Join(s.dir, RawCSVFile) }
func (s *Store) FinalCSVPath() string      { return filepath.Join(s.dir, FinalCSVFile) }

// PairExists reports whether both OCR artifacts are present. This is the
// OCR cache check: a hit means the OCR stage can be skipped entirely.
func (s *Store) PairExists() bool {
	return fileExists(s.MarkdownPath()) && fileExists(s.SearchablePDFPath())
}

// WritePair persists both OCR artifacts together. Both files are staged
// as temp files first; only when both staged writes succeed are they
// moved to the canonical paths. On failure neither canonical file is
// created or modified.
func (s *Store) WritePair(pair *models.ArtifactPair) error {
	if pair.Empty() {
		return fmt.Errorf("artifact pair is incomplete: markdown=%d bytes, pdf=%d bytes",
			len(pair.Markdown), len(pair.SearchablePDF))
	}

	mdTmp := s.MarkdownPath() + ".tmp"
	pdfTmp := s.SearchablePDFPath() + ".tmp"

	if err := os.WriteFile(mdTmp, pair.Markdown, 0644); err != nil {
		return fmt.Errorf("failed to stage markdown artifact: %w", err)
	}
	if err := os.WriteFile(pdfTmp, pair.SearchablePDF, 0644); err != nil {
		os.Remove(mdTmp)
		return fmt.Errorf("failed to stage searchable PDF artifact: %w", err)
	}

	if err := os.Rename(mdTmp, s.MarkdownPath()); err != nil {
		os.Remove(mdTmp)
		os.Remove(pdfTmp)
		return fmt.Errorf("failed to commit markdown artifact: %w", err)
	}
	if err := os.Rename(pdfTmp, s.SearchablePDFPath()); err != nil {
		// Roll back the markdown so the pair invariant holds
		os.Remove(s.MarkdownPath())
		os.Remove(pdfTmp)
		return fmt.Errorf("failed to commit searchable PDF artifact: %w", err)
	}

	s.logger.Info().
		Int("markdown_bytes", len(pair.Markdown)).
		Int("pdf_bytes", len(pair.SearchablePDF)).
		Msg("OCR artifact pair written")

	return nil
}

// ReadMarkdown returns the OCR markdown artifact
func (s *Store) ReadMarkdown() ([]byte, error) {
	data, err := os.ReadFile(s.MarkdownPath())
	if err != nil {
		return nil, fmt.Errorf("failed to read markdown artifact: %w", err)
	}
	return data, nil
}

// WriteRawCSV atomically persists the first-pass CSV
func (s *Store) WriteRawCSV(data []byte) error {
	return s.writeAtomic(s.RawCSVPath(), data)
}

// WriteFinalCSV atomically persists the final CSV
func (s *Store) WriteFinalCSV(data []byte) error {
	return s.writeAtomic(s.FinalCSVPath(), data)
}

// ReadFinalCSV returns the final CSV artifact
func (s *Store) ReadFinalCSV() ([]byte, error) {
	data, err := os.ReadFile(s.FinalCSVPath())
	if err != nil {
		return nil, fmt.Errorf("failed to read final CSV artifact: %w", err)
	}
	return data, nil
}

// writeAtomic stages data in a temp file and renames it into place
func (s *Store) writeAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to stage %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to commit %s: %w", filepath.Base(path), err)
	}
	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
