package rag

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/charta/internal/common"
	"github.com/ternarybob/charta/internal/interfaces"
	"github.com/ternarybob/charta/internal/models"
	"github.com/ternarybob/charta/internal/services/artifacts"
)

// fakeLLM embeds deterministically: the vector leans toward the axis of
// whichever keyword the text contains, so similarity ranking is predictable.
type fakeLLM struct {
	embedCalls    int
	generateCalls []interfaces.GenerateRequest
	answer        string
	embedErr      error
}

func (f *fakeLLM) Embed(ctx context.Context, text string) ([]float32, error) {
	f.embedCalls++
	if f.embedErr != nil {
		return nil, f.embedErr
	}
	v := []float32{0.1, 0.1, 0.1}
	if strings.Contains(strings.ToLower(text), "glucose") {
		v[0] = 1
	}
	if strings.Contains(strings.ToLower(text), "haemoglobin") {
		v[1] = 1
	}
	if strings.Contains(strings.ToLower(text), "cholesterol") {
		v[2] = 1
	}
	return v, nil
}

func (f *fakeLLM) Generate(ctx context.Context, req interfaces.GenerateRequest) (string, error) {
	f.generateCalls = append(f.generateCalls, req)
	if f.answer == "" {
		return "The glucose result is 5.4 mmol/L.", nil
	}
	return f.answer, nil
}

func (f *fakeLLM) HealthCheck(ctx context.Context) error { return nil }
func (f *fakeLLM) Close() error                          { return nil }

// memChunkStorage is an in-memory interfaces.ChunkStorage
type memChunkStorage struct {
	chunks []models.Chunk
}

func (m *memChunkStorage) Replace(ctx context.Context, chunks []models.Chunk) error {
	m.chunks = append([]models.Chunk(nil), chunks...)
	return nil
}

func (m *memChunkStorage) GetByDocument(ctx context.Context, documentKey string) ([]models.Chunk, error) {
	var out []models.Chunk
	for _, c := range m.chunks {
		if c.DocumentKey == documentKey {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

func (m *memChunkStorage) CountByDocument(ctx context.Context, documentKey string) (int, error) {
	n := 0
	for _, c := range m.chunks {
		if c.DocumentKey == documentKey {
			n++
		}
	}
	return n, nil
}

func testMarkdown() []byte {
	return []byte("## Page 1\n\nGlucose 5.4 mmol/L (3.0-7.8)\n\n" +
		"## Page 2\n\nHaemoglobin 140 g/L (130-180)\n\n" +
		"## Page 3\n\nCholesterol 4.2 mmol/L (<5.5)\n")
}

func newTestRag(t *testing.T, llm *fakeLLM) (*Service, *memChunkStorage, *artifacts.Store) {
	t.Helper()

	store, err := artifacts.NewStore(&common.ArtifactsConfig{Dir: t.TempDir()}, arbor.NewLogger())
	require.NoError(t, err)
	require.NoError(t, store.WritePair(&models.ArtifactPair{
		Markdown:      testMarkdown(),
		SearchablePDF: []byte("%PDF-1.4 fake"),
	}))

	chunks := &memChunkStorage{}
	config := &common.RetrievalConfig{ChunkSize: 40, ChunkOverlap: 10, TopK: 2, AnswerModel: "gemini-2.5-flash"}
	return NewService(config, llm, store, chunks, arbor.NewLogger()), chunks, store
}

func TestPrimeIndex(t *testing.T) {
	llm := &fakeLLM{}
	svc, chunks, _ := newTestRag(t, llm)

	require.NoError(t, svc.PrimeIndex(context.Background()))
	require.NotEmpty(t, chunks.chunks)

	// positions are sequential and embeddings populated
	for i, c := range chunks.chunks {
		assert.Equal(t, i, c.Position)
		assert.NotEmpty(t, c.Embedding)
		assert.NotEmpty(t, c.DocumentKey)
	}
	assert.True(t, svc.IndexReady(context.Background()))
}

func TestPrimeIndexIdempotent(t *testing.T) {
	llm := &fakeLLM{}
	svc, _, _ := newTestRag(t, llm)

	require.NoError(t, svc.PrimeIndex(context.Background()))
	calls := llm.embedCalls
	require.NoError(t, svc.PrimeIndex(context.Background()))
	assert.Equal(t, calls, llm.embedCalls, "second prime must not re-embed")
}

func TestPrimeIndexRebuildsOnNewDocument(t *testing.T) {
	llm := &fakeLLM{}
	svc, chunks, store := newTestRag(t, llm)

	require.NoError(t, svc.PrimeIndex(context.Background()))
	firstKey := chunks.chunks[0].DocumentKey

	require.NoError(t, store.WritePair(&models.ArtifactPair{
		Markdown:      []byte("## Page 1\n\nEntirely different report\n"),
		SearchablePDF: []byte("%PDF-1.4 other"),
	}))

	assert.False(t, svc.IndexReady(context.Background()))
	require.NoError(t, svc.PrimeIndex(context.Background()))
	assert.NotEqual(t, firstKey, chunks.chunks[0].DocumentKey)
}

func TestPrimeIndexNoMarkdown(t *testing.T) {
	store, err := artifacts.NewStore(&common.ArtifactsConfig{Dir: t.TempDir()}, arbor.NewLogger())
	require.NoError(t, err)
	config := &common.RetrievalConfig{ChunkSize: 40, ChunkOverlap: 10, TopK: 2}
	svc := NewService(config, &fakeLLM{}, store, &memChunkStorage{}, arbor.NewLogger())

	assert.Error(t, svc.PrimeIndex(context.Background()))
	assert.False(t, svc.IndexReady(context.Background()))
}

func TestPrimeIndexEmbedFailure(t *testing.T) {
	llm := &fakeLLM{embedErr: errors.New("quota exceeded")}
	svc, chunks, _ := newTestRag(t, llm)

	err := svc.PrimeIndex(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")
	assert.Empty(t, chunks.chunks, "failed build must not store partial index")
}

func TestAnswer(t *testing.T) {
	llm := &fakeLLM{}
	svc, _, _ := newTestRag(t, llm)

	answer, err := svc.Answer(context.Background(), "What is the glucose result?")
	require.NoError(t, err)
	assert.Equal(t, "The glucose result is 5.4 mmol/L.", answer)

	// index was built lazily and the prompt carries retrieved excerpts
	require.Len(t, llm.generateCalls, 1)
	prompt := llm.generateCalls[0].Prompt
	assert.Contains(t, prompt, "Excerpt 1:")
	assert.Contains(t, prompt, "Glucose")
	assert.Contains(t, prompt, "What is the glucose result?")
}

func TestAnswerEmptyQuestion(t *testing.T) {
	svc, _, _ := newTestRag(t, &fakeLLM{})
	_, err := svc.Answer(context.Background(), "   ")
	assert.Error(t, err)
}

func TestRankOrderingAndK(t *testing.T) {
	config := &common.RetrievalConfig{ChunkSize: 40, ChunkOverlap: 10, TopK: 2}
	svc := &Service{topK: config.TopK}

	chunks := []models.Chunk{
		{Position: 0, Content: "a", Embedding: []float32{1, 0, 0}},
		{Position: 1, Content: "b", Embedding: []float32{0.9, 0.1, 0}},
		{Position: 2, Content: "c", Embedding: []float32{0, 1, 0}},
	}

	top := svc.rank(chunks, []float32{1, 0, 0})
	require.Len(t, top, 2)
	assert.Equal(t, "a", top[0].chunk.Content)
	assert.Equal(t, "b", top[1].chunk.Content)
	assert.Greater(t, top[0].score, top[1].score)
}

func TestRankMinSimilarityFloor(t *testing.T) {
	svc := &Service{topK: 3, minSim: 0.5}

	chunks := []models.Chunk{
		{Content: "close", Embedding: []float32{1, 0.1, 0}},
		{Content: "orthogonal", Embedding: []float32{0, 0, 1}},
	}

	top := svc.rank(chunks, []float32{1, 0, 0})
	require.Len(t, top, 1)
	assert.Equal(t, "close", top[0].chunk.Content)
}

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name     string
		a, b     []float32
		expected float64
	}{
		{"identical", []float32{1, 2, 3}, []float32{1, 2, 3}, 1},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1},
		{"length mismatch", []float32{1, 0}, []float32{1}, 0},
		{"zero vector", []float32{0, 0}, []float32{1, 1}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, cosineSimilarity(tt.a, tt.b), 1e-9)
		})
	}
}

func TestAnswerPromptExcerptCount(t *testing.T) {
	llm := &fakeLLM{}
	svc, _, _ := newTestRag(t, llm)

	_, err := svc.Answer(context.Background(), "glucose?")
	require.NoError(t, err)

	prompt := llm.generateCalls[0].Prompt
	for i := 1; i <= 2; i++ {
		assert.Contains(t, prompt, fmt.Sprintf("Excerpt %d:", i))
	}
	assert.NotContains(t, prompt, "Excerpt 3:")
}
