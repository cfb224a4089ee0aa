package extraction

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/charta/internal/common"
	"github.com/ternarybob/charta/internal/interfaces"
	"github.com/ternarybob/charta/internal/models"
	"github.com/ternarybob/charta/internal/services/artifacts"
)

const sampleFinalCSV = `Test type,Test,Result,Unit,Interval,Observation
Biochemistry,Glucose,5.4,mmol/L,3.0-7.8,within interval
Haematology,Haemoglobin,140,g/L,130-180,within interval
`

// fakeLLM returns canned responses in call order
type fakeLLM struct {
	responses []string
	errs      []error
	calls     []interfaces.GenerateRequest
}

func (f *fakeLLM) Generate(ctx context.Context, req interfaces.GenerateRequest) (string, error) {
	idx := len(f.calls)
	f.calls = append(f.calls, req)
	if idx < len(f.errs) && f.errs[idx] != nil {
		return "", f.errs[idx]
	}
	if idx >= len(f.responses) {
		return "", errors.New("unexpected generate call")
	}
	return f.responses[idx], nil
}

func (f *fakeLLM) Embed(ctx context.Context, text string) ([]float32, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeLLM) HealthCheck(ctx context.Context) error { return nil }
func (f *fakeLLM) Close() error                          { return nil }

func newTestService(t *testing.T, llm *fakeLLM) (*Service, *artifacts.Store) {
	t.Helper()

	store, err := artifacts.NewStore(&common.ArtifactsConfig{Dir: t.TempDir()}, arbor.NewLogger())
	require.NoError(t, err)
	require.NoError(t, store.WritePair(&models.ArtifactPair{
		Markdown:      []byte("## Page 1\n\nGlucose 5.4 mmol/L (3.0-7.8)\n"),
		SearchablePDF: []byte("%PDF-1.4 fake"),
	}))

	config := &common.ExtractionConfig{Model: "gemini-2.5-flash", Temperature: 0.1, MaxTokens: 8192}
	return NewService(config, llm, store, arbor.NewLogger()), store
}

func TestExtractTwoPass(t *testing.T) {
	llm := &fakeLLM{responses: []string{sampleBaseCSV, sampleFinalCSV}}
	svc, store := newTestService(t, llm)

	table, err := svc.Extract(context.Background())
	require.NoError(t, err)
	require.Len(t, llm.calls, 2)

	assert.Equal(t, models.FinalColumns, table.Columns)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, "within interval", table.Rows[0].Observation)

	// both artifacts persisted
	raw, err := os.ReadFile(store.RawCSVPath())
	require.NoError(t, err)
	assert.Contains(t, string(raw), "Glucose")

	final, err := store.ReadFinalCSV()
	require.NoError(t, err)
	assert.Contains(t, string(final), "Observation")
}

func TestExtractPassesMarkdownToFirstPrompt(t *testing.T) {
	llm := &fakeLLM{responses: []string{sampleBaseCSV, sampleFinalCSV}}
	svc, _ := newTestService(t, llm)

	_, err := svc.Extract(context.Background())
	require.NoError(t, err)

	assert.Contains(t, llm.calls[0].Prompt, "Glucose 5.4 mmol/L")
	assert.Contains(t, llm.calls[1].Prompt, "Test type,Test,Result,Unit,Interval")
}

func TestExtractStripsFences(t *testing.T) {
	llm := &fakeLLM{responses: []string{
		"```csv\n" + sampleBaseCSV + "```",
		"```\n" + sampleFinalCSV + "```",
	}}
	svc, _ := newTestService(t, llm)

	table, err := svc.Extract(context.Background())
	require.NoError(t, err)
	assert.Len(t, table.Rows, 2)
}

func TestExtractNoMarkdown(t *testing.T) {
	llm := &fakeLLM{}
	store, err := artifacts.NewStore(&common.ArtifactsConfig{Dir: t.TempDir()}, arbor.NewLogger())
	require.NoError(t, err)
	config := &common.ExtractionConfig{Model: "gemini-2.5-flash"}
	svc := NewService(config, llm, store, arbor.NewLogger())

	_, err = svc.Extract(context.Background())
	require.Error(t, err)
	assert.Empty(t, llm.calls)
}

func TestExtractFirstPassInvalid(t *testing.T) {
	llm := &fakeLLM{responses: []string{"I could not find a table in this document."}}
	svc, store := newTestService(t, llm)

	_, err := svc.Extract(context.Background())
	require.Error(t, err)

	// nothing persisted on a failed first pass
	_, statErr := os.Stat(store.RawCSVPath())
	assert.True(t, os.IsNotExist(statErr))
}

func TestExtractSecondPassInvalidKeepsPriorFinal(t *testing.T) {
	llm := &fakeLLM{responses: []string{sampleBaseCSV, sampleFinalCSV}}
	svc, store := newTestService(t, llm)

	_, err := svc.Extract(context.Background())
	require.NoError(t, err)

	// re-run with a second pass that drops a row; the earlier final.csv
	// must survive
	truncated := `Test type,Test,Result,Unit,Interval,Observation
Biochemistry,Glucose,5.4,mmol/L,3.0-7.8,within interval
`
	llm.responses = append(llm.responses, sampleBaseCSV, truncated)

	_, err = svc.Extract(context.Background())
	require.Error(t, err)

	final, err := store.ReadFinalCSV()
	require.NoError(t, err)
	assert.Contains(t, string(final), "Haemoglobin")
}

func TestExtractLLMError(t *testing.T) {
	llm := &fakeLLM{errs: []error{errors.New("rate limited")}}
	svc, _ := newTestService(t, llm)

	_, err := svc.Extract(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limited")
}
