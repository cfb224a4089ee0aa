package models

import "fmt"

// Stage identifies a pipeline stage or request-scoped operation for
// error attribution.
type Stage string

const (
	StageIntake     Stage = "intake"
	StageOCR        Stage = "ocr"
	StageExtraction Stage = "extraction"
	StageIndex      Stage = "index"
	StageSearch     Stage = "search"
	StageQA         Stage = "qa"
)

// PipelineState represents where a document currently sits in the
// processing pipeline.
type PipelineState string

const (
	StateIdle           PipelineState = "idle"
	StateIntaken        PipelineState = "intaken"
	StateOcrDone        PipelineState = "ocr_done"
	StateExtractionDone PipelineState = "extraction_done"
	StateIndexReady     PipelineState = "index_ready"
	StateFailed         PipelineState = "failed"
)

// StageError attributes a failure to the pipeline stage that produced it.
// Stage errors are reported to the user and never terminate the process.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// NewStageError wraps err with stage attribution. A nil err returns nil.
func NewStageError(stage Stage, err error) error {
	if err == nil {
		return nil
	}
	return &StageError{Stage: stage, Err: err}
}

func NewIntakeError(err error) error     { return NewStageError(StageIntake, err) }
func NewOcrError(err error) error        { return NewStageError(StageOCR, err) }
func NewExtractionError(err error) error { return NewStageError(StageExtraction, err) }
func NewIndexError(err error) error      { return NewStageError(StageIndex, err) }
func NewSearchError(err error) error     { return NewStageError(StageSearch, err) }
func NewQaError(err error) error         { return NewStageError(StageQA, err) }
