package rag

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/charta/internal/common"
	"github.com/ternarybob/charta/internal/interfaces"
	"github.com/ternarybob/charta/internal/models"
)

const answerSystemPrompt = `You answer questions about a medical report using only the excerpts provided.
Rules:
- Base your answer solely on the excerpts. Do not use outside knowledge about reference ranges or diagnoses.
- If the excerpts do not contain the answer, say so plainly.
- Quote result values and units exactly as they appear.
- Keep the answer short and direct.`

// Service maintains the chunked embedding index over the OCR markdown
// and answers questions grounded in retrieved chunks. The index is
// keyed by the markdown's content checksum, so re-running OCR on a
// different document invalidates the old chunks on the next build.
type Service struct {
	llmService   interfaces.LLMService
	artifacts    interfaces.ArtifactStore
	chunkStorage interfaces.ChunkStorage
	chunker      *Chunker
	topK         int
	minSim       float64
	answerModel  string
	logger       arbor.ILogger

	mu sync.Mutex // serializes index builds
}

var _ interfaces.RetrievalService = (*Service)(nil)

// NewService creates a new retrieval service
func NewService(config *common.RetrievalConfig, llmService interfaces.LLMService, artifacts interfaces.ArtifactStore, chunkStorage interfaces.ChunkStorage, logger arbor.ILogger) *Service {
	return &Service{
		llmService:   llmService,
		artifacts:    artifacts,
		chunkStorage: chunkStorage,
		chunker:      NewChunker(WithChunkSize(config.ChunkSize), WithChunkOverlap(config.ChunkOverlap)),
		topK:         config.TopK,
		minSim:       config.MinSimilarity,
		answerModel:  config.AnswerModel,
		logger:       logger,
	}
}

// documentKey is the checksum identifying the current markdown artifact
func (s *Service) documentKey() (string, []byte, error) {
	markdown, err := s.artifacts.ReadMarkdown()
	if err != nil {
		return "", nil, fmt.Errorf("no OCR markdown to index: %w", err)
	}
	sum := sha256.Sum256(markdown)
	return hex.EncodeToString(sum[:]), markdown, nil
}

// PrimeIndex (re)builds the index from the current markdown artifact.
// A no-op when the stored chunks already match the artifact's checksum.
func (s *Service) PrimeIndex(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buildIfStale(ctx)
}

func (s *Service) buildIfStale(ctx context.Context) error {
	key, markdown, err := s.documentKey()
	if err != nil {
		return err
	}

	count, err := s.chunkStorage.CountByDocument(ctx, key)
	if err != nil {
		return fmt.Errorf("failed to check index state: %w", err)
	}
	if count > 0 {
		s.logger.Debug().
			Str("document_key", key[:12]).
			Int("chunks", count).
			Msg("Index already matches artifact, skipping rebuild")
		return nil
	}

	pieces := s.chunker.Split(string(markdown))
	if len(pieces) == 0 {
		return fmt.Errorf("markdown artifact is empty, nothing to index")
	}

	start := time.Now()
	chunks := make([]models.Chunk, 0, len(pieces))
	for i, content := range pieces {
		embedding, err := s.llmService.Embed(ctx, content)
		if err != nil {
			return fmt.Errorf("failed to embed chunk %d/%d: %w", i+1, len(pieces), err)
		}
		chunks = append(chunks, models.Chunk{
			ID:          common.NewChunkID(),
			DocumentKey: key,
			Position:    i,
			Content:     content,
			Embedding:   embedding,
			CreatedAt:   time.Now(),
		})
	}

	if err := s.chunkStorage.Replace(ctx, chunks); err != nil {
		return fmt.Errorf("failed to store index: %w", err)
	}

	s.logger.Info().
		Str("document_key", key[:12]).
		Int("chunks", len(chunks)).
		Str("duration", time.Since(start).Round(time.Millisecond).String()).
		Msg("Retrieval index built")
	return nil
}

// IndexReady reports whether stored chunks match the current artifact
func (s *Service) IndexReady(ctx context.Context) bool {
	key, _, err := s.documentKey()
	if err != nil {
		return false
	}
	count, err := s.chunkStorage.CountByDocument(ctx, key)
	return err == nil && count > 0
}

// Answer retrieves the most similar chunks and generates a grounded answer
func (s *Service) Answer(ctx context.Context, question string) (string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", fmt.Errorf("question is empty")
	}

	s.mu.Lock()
	err := s.buildIfStale(ctx)
	s.mu.Unlock()
	if err != nil {
		return "", err
	}

	key, _, err := s.documentKey()
	if err != nil {
		return "", err
	}

	chunks, err := s.chunkStorage.GetByDocument(ctx, key)
	if err != nil {
		return "", fmt.Errorf("failed to load index: %w", err)
	}
	if len(chunks) == 0 {
		return "", fmt.Errorf("index is empty")
	}

	queryEmbedding, err := s.llmService.Embed(ctx, question)
	if err != nil {
		return "", fmt.Errorf("failed to embed question: %w", err)
	}

	top := s.rank(chunks, queryEmbedding)
	if len(top) == 0 {
		return "", fmt.Errorf("no relevant excerpts found for the question")
	}

	var sb strings.Builder
	for i, sc := range top {
		fmt.Fprintf(&sb, "Excerpt %d:\n%s\n\n", i+1, sc.chunk.Content)
	}
	prompt := fmt.Sprintf("%sQuestion: %s", sb.String(), question)

	answer, err := s.llmService.Generate(ctx, interfaces.GenerateRequest{
		Model:        s.answerModel,
		SystemPrompt: answerSystemPrompt,
		Prompt:       prompt,
	})
	if err != nil {
		return "", fmt.Errorf("answer generation failed: %w", err)
	}
	return strings.TrimSpace(answer), nil
}

type scoredChunk struct {
	chunk models.Chunk
	score float64
}

// rank returns the top-k chunks by cosine similarity, most similar
// first, dropping any below the similarity floor
func (s *Service) rank(chunks []models.Chunk, query []float32) []scoredChunk {
	scored := make([]scoredChunk, 0, len(chunks))
	for _, c := range chunks {
		sim := cosineSimilarity(query, c.Embedding)
		if sim < s.minSim {
			continue
		}
		scored = append(scored, scoredChunk{chunk: c, score: sim})
	}

	sort.Slice(scored, func(i, j int) bool { return scored[i].score > scored[j].score })

	k := s.topK
	if k <= 0 || k > len(scored) {
		k = len(scored)
	}
	return scored[:k]
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
