package pipeline

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/charta/internal/common"
	"github.com/ternarybob/charta/internal/interfaces"
	"github.com/ternarybob/charta/internal/models"
	"github.com/ternarybob/charta/internal/services/artifacts"
)

var validPDF = []byte("%PDF-1.4 minimal test document")

type fakeBackend struct {
	pair *models.ArtifactPair
	err  error
	runs int
}

func (f *fakeBackend) Name() string { return "fake" }

func (f *fakeBackend) Run(ctx context.Context, pdfPath string) (*models.ArtifactPair, error) {
	f.runs++
	if _, err := os.Stat(pdfPath); err != nil {
		return nil, err
	}
	return f.pair, f.err
}

type fakeExtraction struct {
	err   error
	calls int
}

func (f *fakeExtraction) Extract(ctx context.Context) (*models.ReportTable, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &models.ReportTable{Columns: models.FinalColumns}, nil
}

type fakeRetrieval struct {
	err    error
	primed int
}

func (f *fakeRetrieval) PrimeIndex(ctx context.Context) error {
	f.primed++
	return f.err
}

func (f *fakeRetrieval) Answer(ctx context.Context, question string) (string, error) {
	return "", errors.New("not implemented")
}

func (f *fakeRetrieval) IndexReady(ctx context.Context) bool { return f.primed > 0 }

type memRunStorage struct {
	mu   sync.Mutex
	runs map[string]models.PipelineRun
}

func newMemRunStorage() *memRunStorage {
	return &memRunStorage{runs: make(map[string]models.PipelineRun)}
}

func (m *memRunStorage) Save(ctx context.Context, run *models.PipelineRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs[run.ID] = *run
	return nil
}

func (m *memRunStorage) Get(ctx context.Context, id string) (*models.PipelineRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	run, ok := m.runs[id]
	if !ok {
		return nil, errors.New("not found")
	}
	return &run, nil
}

func (m *memRunStorage) List(ctx context.Context, limit int) ([]models.PipelineRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.PipelineRun, 0, len(m.runs))
	for _, r := range m.runs {
		out = append(out, r)
	}
	return out, nil
}

// recordingEvents captures published events in order
type recordingEvents struct {
	mu     sync.Mutex
	events []interfaces.Event
}

func (r *recordingEvents) Subscribe(interfaces.EventType, interfaces.EventHandler) error {
	return nil
}

func (r *recordingEvents) Unsubscribe(interfaces.EventType, interfaces.EventHandler) error {
	return nil
}

func (r *recordingEvents) Publish(ctx context.Context, event interfaces.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *recordingEvents) PublishSync(ctx context.Context, event interfaces.Event) error {
	return r.Publish(ctx, event)
}

func (r *recordingEvents) Close() error { return nil }

func (r *recordingEvents) types() []interfaces.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]interfaces.EventType, len(r.events))
	for i, e := range r.events {
		out[i] = e.Type
	}
	return out
}

type testFixture struct {
	svc       *Service
	backend   *fakeBackend
	extract   *fakeExtraction
	retrieval *fakeRetrieval
	runs      *memRunStorage
	events    *recordingEvents
	store     *artifacts.Store
}

func newFixture(t *testing.T) *testFixture {
	t.Helper()

	store, err := artifacts.NewStore(&common.ArtifactsConfig{Dir: t.TempDir()}, arbor.NewLogger())
	require.NoError(t, err)

	f := &testFixture{
		backend: &fakeBackend{pair: &models.ArtifactPair{
			Markdown:      []byte("## Page 1\n\nGlucose 5.4 mmol/L\n"),
			SearchablePDF: []byte("%PDF-1.4 searchable"),
		}},
		extract:   &fakeExtraction{},
		retrieval: &fakeRetrieval{},
		runs:      newMemRunStorage(),
		events:    &recordingEvents{},
		store:     store,
	}
	f.svc = NewService(f.backend, store, f.extract, f.retrieval, f.runs, f.events, arbor.NewLogger())
	return f
}

func TestProcessFullRun(t *testing.T) {
	f := newFixture(t)

	run, err := f.svc.Process(context.Background(), "report.pdf", validPDF)
	require.NoError(t, err)

	assert.Equal(t, models.StateIndexReady, run.State)
	assert.Equal(t, models.StateIndexReady, f.svc.State())
	assert.False(t, run.OcrCached)
	assert.NotNil(t, run.CompletedAt)
	assert.Equal(t, "fake", run.Backend)

	// every stage left a timestamp
	for _, stage := range []models.Stage{models.StageIntake, models.StageOCR, models.StageExtraction, models.StageIndex} {
		assert.Contains(t, run.StageTimes, string(stage), "missing stage time for %s", stage)
	}

	assert.Equal(t, 1, f.backend.runs)
	assert.Equal(t, 1, f.extract.calls)
	assert.Equal(t, 1, f.retrieval.primed)
	assert.True(t, f.store.PairExists())

	saved, err := f.runs.Get(context.Background(), run.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StateIndexReady, saved.State)
}

func TestProcessOCRCacheSkip(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.store.WritePair(&models.ArtifactPair{
		Markdown:      []byte("cached markdown"),
		SearchablePDF: []byte("%PDF-1.4 cached"),
	}))

	run, err := f.svc.Process(context.Background(), "report.pdf", validPDF)
	require.NoError(t, err)

	assert.True(t, run.OcrCached)
	assert.Equal(t, 0, f.backend.runs, "cached artifacts must skip the backend")
	assert.Equal(t, models.StateIndexReady, run.State)
}

func TestProcessRejectsNonPDF(t *testing.T) {
	f := newFixture(t)

	run, err := f.svc.Process(context.Background(), "report.txt", []byte("plain text"))
	require.Error(t, err)

	var stageErr *models.StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, models.StageIntake, stageErr.Stage)

	assert.Equal(t, models.StateFailed, run.State)
	assert.Equal(t, models.StageIntake, run.FailedStage)
	assert.Equal(t, models.StateFailed, f.svc.State())
	assert.Equal(t, 0, f.backend.runs)
	assert.False(t, f.store.PairExists())
}

func TestProcessRejectsEmptyUpload(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Process(context.Background(), "report.pdf", nil)
	require.Error(t, err)

	var stageErr *models.StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, models.StageIntake, stageErr.Stage)
}

func TestProcessOCRFailure(t *testing.T) {
	f := newFixture(t)
	f.backend.pair = nil
	f.backend.err = errors.New("service unavailable")

	run, err := f.svc.Process(context.Background(), "report.pdf", validPDF)
	require.Error(t, err)

	var stageErr *models.StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, models.StageOCR, stageErr.Stage)

	assert.Equal(t, models.StateFailed, run.State)
	assert.Equal(t, models.StageOCR, run.FailedStage)
	assert.Contains(t, run.Error, "service unavailable")
	assert.False(t, f.store.PairExists(), "failed OCR must not leave artifacts")
	assert.Equal(t, 0, f.extract.calls)
}

func TestProcessIncompletePairRejected(t *testing.T) {
	f := newFixture(t)
	f.backend.pair = &models.ArtifactPair{Markdown: []byte("only markdown")}

	_, err := f.svc.Process(context.Background(), "report.pdf", validPDF)
	require.Error(t, err)

	var stageErr *models.StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, models.StageOCR, stageErr.Stage)
	assert.False(t, f.store.PairExists())
}

func TestProcessExtractionFailureKeepsArtifacts(t *testing.T) {
	f := newFixture(t)
	f.extract.err = errors.New("model output is not a valid table")

	run, err := f.svc.Process(context.Background(), "report.pdf", validPDF)
	require.Error(t, err)

	var stageErr *models.StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, models.StageExtraction, stageErr.Stage)

	assert.Equal(t, models.StageExtraction, run.FailedStage)
	assert.True(t, f.store.PairExists(), "OCR artifacts survive a downstream failure")
	assert.Equal(t, 0, f.retrieval.primed)
}

func TestProcessIndexFailure(t *testing.T) {
	f := newFixture(t)
	f.retrieval.err = errors.New("embedding quota exceeded")

	run, err := f.svc.Process(context.Background(), "report.pdf", validPDF)
	require.Error(t, err)

	var stageErr *models.StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, models.StageIndex, stageErr.Stage)
	assert.Equal(t, models.StageIndex, run.FailedStage)
}

func TestProcessPublishesEvents(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Process(context.Background(), "report.pdf", validPDF)
	require.NoError(t, err)

	types := f.events.types()
	require.Len(t, types, 4)
	for _, et := range types[:3] {
		assert.Equal(t, interfaces.EventPipelineProgress, et)
	}
	assert.Equal(t, interfaces.EventPipelineCompleted, types[3])
}

func TestProcessPublishesFailureEvent(t *testing.T) {
	f := newFixture(t)
	f.backend.err = errors.New("boom")
	f.backend.pair = nil

	_, err := f.svc.Process(context.Background(), "report.pdf", validPDF)
	require.Error(t, err)

	types := f.events.types()
	require.NotEmpty(t, types)
	assert.Equal(t, interfaces.EventPipelineFailed, types[len(types)-1])
}

func TestRunsListsHistory(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Process(context.Background(), "report.pdf", validPDF)
	require.NoError(t, err)

	runs, err := f.svc.Runs(context.Background())
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestStateStartsIdle(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, models.StateIdle, f.svc.State())
}
