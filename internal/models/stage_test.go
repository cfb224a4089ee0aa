package models

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStageErrorMessage(t *testing.T) {
	err := NewStageError(StageOCR, errors.New("backend unavailable"))
	require.Error(t, err)
	assert.Equal(t, "ocr stage failed: backend unavailable", err.Error())
}

func TestStageErrorNilCause(t *testing.T) {
	assert.NoError(t, NewStageError(StageOCR, nil))
	assert.NoError(t, NewOcrError(nil))
}

func TestStageErrorUnwrap(t *testing.T) {
	cause := errors.New("disk full")
	err := NewExtractionError(fmt.Errorf("writing final.csv: %w", cause))

	var stageErr *StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, StageExtraction, stageErr.Stage)
	assert.ErrorIs(t, err, cause)
}

func TestStageConstructors(t *testing.T) {
	tests := []struct {
		construct func(error) error
		stage     Stage
	}{
		{NewIntakeError, StageIntake},
		{NewOcrError, StageOCR},
		{NewExtractionError, StageExtraction},
		{NewIndexError, StageIndex},
		{NewSearchError, StageSearch},
		{NewQaError, StageQA},
	}

	for _, tt := range tests {
		t.Run(string(tt.stage), func(t *testing.T) {
			var stageErr *StageError
			require.ErrorAs(t, tt.construct(errors.New("boom")), &stageErr)
			assert.Equal(t, tt.stage, stageErr.Stage)
		})
	}
}

func TestPipelineRunFail(t *testing.T) {
	run := &PipelineRun{State: StateIntaken}
	run.Fail(StageOCR, errors.New("no pages"))

	assert.Equal(t, StateFailed, run.State)
	assert.Equal(t, StageOCR, run.FailedStage)
	assert.Equal(t, "no pages", run.Error)
	require.NotNil(t, run.CompletedAt)
}

func TestPipelineRunComplete(t *testing.T) {
	run := &PipelineRun{State: StateExtractionDone}
	run.Complete(StateIndexReady)

	assert.Equal(t, StateIndexReady, run.State)
	assert.Empty(t, run.FailedStage)
	require.NotNil(t, run.CompletedAt)
}

func TestPipelineRunMarkStage(t *testing.T) {
	run := &PipelineRun{}
	run.MarkStage(StageIntake)
	run.MarkStage(StageOCR)

	assert.Len(t, run.StageTimes, 2)
	assert.Contains(t, run.StageTimes, "intake")
	assert.Contains(t, run.StageTimes, "ocr")
}

func TestArtifactPairEmpty(t *testing.T) {
	var nilPair *ArtifactPair
	assert.True(t, nilPair.Empty())
	assert.True(t, (&ArtifactPair{}).Empty())
	assert.True(t, (&ArtifactPair{Markdown: []byte("# Page 1")}).Empty())
	assert.True(t, (&ArtifactPair{SearchablePDF: []byte("%PDF")}).Empty())
	assert.False(t, (&ArtifactPair{Markdown: []byte("# Page 1"), SearchablePDF: []byte("%PDF")}).Empty())
}
