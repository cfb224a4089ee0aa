package models

import "time"

// Document represents an uploaded source PDF awaiting processing.
// The raw bytes are written to a temp intake file and consumed once
// by the OCR stage.
type Document struct {
	ID         string    `json:"id"` // doc_{uuid}
	Filename   string    `json:"filename"`
	Size       int64     `json:"size"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// ArtifactPair holds the two OCR output artifacts that are always
// written together: the markdown rendition and the text-searchable PDF.
// Either both exist at their canonical paths or neither does.
type ArtifactPair struct {
	Markdown      []byte
	SearchablePDF []byte
}

// Empty reports whether either artifact is missing
func (p *ArtifactPair) Empty() bool {
	return p == nil || len(p.Markdown) == 0 || len(p.SearchablePDF) == 0
}

// PipelineRun records one end-to-end processing attempt for the run
// history view.
type PipelineRun struct {
	ID          string        `json:"id" badgerhold:"key"` // run_{uuid}
	DocumentID  string        `json:"document_id"`
	Filename    string        `json:"filename"`
	Backend     string        `json:"backend"`
	State       PipelineState `json:"state" badgerholdIndex:"State"`
	FailedStage Stage         `json:"failed_stage,omitempty"`
	Error       string        `json:"error,omitempty"`
	OcrCached   bool          `json:"ocr_cached"`
	StartedAt   time.Time     `json:"started_at"`
	CompletedAt *time.Time    `json:"completed_at,omitempty"`

	// Per-stage completion timestamps, keyed by stage name
	StageTimes map[string]time.Time `json:"stage_times,omitempty"`
}

// MarkStage records the completion time of a stage on the run
func (r *PipelineRun) MarkStage(stage Stage) {
	if r.StageTimes == nil {
		r.StageTimes = make(map[string]time.Time)
	}
	r.StageTimes[string(stage)] = time.Now()
}

// Fail marks the run failed at the given stage
func (r *PipelineRun) Fail(stage Stage, err error) {
	now := time.Now()
	r.State = StateFailed
	r.FailedStage = stage
	if err != nil {
		r.Error = err.Error()
	}
	r.CompletedAt = &now
}

// Complete marks the run finished in the given terminal state
func (r *PipelineRun) Complete(state PipelineState) {
	now := time.Now()
	r.State = state
	r.CompletedAt = &now
}
