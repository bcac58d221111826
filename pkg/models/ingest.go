package models

import "time"

// Collection is a named grouping of documents on the remote server.
type Collection struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Description   string `json:"description"`
	DocumentCount int    `json:"document_count"`
}

// UploadOutcome tags the result of a single file upload.
type UploadOutcome string

const (
	OutcomeUploaded  UploadOutcome = "uploaded"
	OutcomeDuplicate UploadOutcome = "already_exists"
	OutcomeFailed    UploadOutcome = "failed"
)

// UploadResult is the per-file outcome of the upload stage. It is recorded
// once and never mutated; per-file failures do not abort the run.
type UploadResult struct {
	File       CandidateFile
	DocumentID string
	Outcome    UploadOutcome
	Err        error
	Elapsed    time.Duration
}

// IngestionStatus is the server-side processing state of a document.
type IngestionStatus string

const (
	StatusQueued     IngestionStatus = "queued"
	StatusProcessing IngestionStatus = "processing"
	StatusSuccess    IngestionStatus = "success"
	StatusFailed     IngestionStatus = "failed"
	// StatusUnknown marks documents whose status could not be determined
	// before the poll deadline. Distinct from failed.
	StatusUnknown IngestionStatus = "unknown"
)

// Terminal reports whether the status is a final server-side state.
func (s IngestionStatus) Terminal() bool {
	return s == StatusSuccess || s == StatusFailed
}

// GraphSummary holds knowledge-graph extraction counts for a collection.
type GraphSummary struct {
	Entities      int
	Relationships int
}

// RunSummary aggregates the counters for one load run.
type RunSummary struct {
	RepoURL          string
	RepoName         string
	CollectionID     string
	CollectionName   string
	FilesFound       int
	FilesUploaded    int
	FilesDuplicate   int
	FilesFailed      int
	IngestionsByStat map[IngestionStatus]int
	KGEntities       int
	KGRelationships  int
	Duration         time.Duration
}
