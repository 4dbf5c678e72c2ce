package jobs

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/tsawler/ocrlayout/model"
)

var (
	// ErrNotFound is returned when a job or task does not exist.
	ErrNotFound = errors.New("job not found")

	// ErrQueueFull is returned when the runner cannot accept more work.
	ErrQueueFull = errors.New("job queue full")

	// ErrAborted is recorded on jobs canceled through Abort.
	ErrAborted = errors.New("job aborted")
)

// Status is a job's lifecycle state.
type Status string

const (
	StatusPending    Status = "pending"
	StatusExtracting Status = "extracting"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusAborted    Status = "aborted"
)

// Terminal reports whether no further transitions are possible.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusAborted
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusExtracting, StatusProcessing, StatusCompleted, StatusFailed, StatusAborted:
		return true
	}
	return false
}

// CompletedMessage is the message attached to every successful result.
const CompletedMessage = "Processing completed successfully"

// Result is what a completed job produced.
type Result struct {
	Documents []model.DocumentResult `json:"documents" yaml:"documents"`
	Message   string                 `json:"message" yaml:"message"`
}

// NewResult builds the result view of processed documents.
func NewResult(docs []*model.Document) *Result {
	views := make([]model.DocumentResult, 0, len(docs))
	for _, d := range docs {
		views = append(views, d.Result())
	}
	return &Result{Documents: views, Message: CompletedMessage}
}

// Job is one request to process a path or an upload.
type Job struct {
	ID        string    `json:"id"`
	TaskID    string    `json:"task_id"`
	FilePath  string    `json:"file_path"`
	MultiDoc  bool      `json:"multi_doc"`
	Status    Status    `json:"status"`
	Result    *Result   `json:"result"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewJob creates a pending job with fresh job and task IDs.
func NewJob(filePath string, multiDoc bool) *Job {
	now := time.Now().UTC()
	return &Job{
		ID:        uuid.NewString(),
		TaskID:    uuid.NewString(),
		FilePath:  filePath,
		MultiDoc:  multiDoc,
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Clone returns a copy of j. The result is shared; results are never
// mutated after they are set.
func (j *Job) Clone() *Job {
	c := *j
	return &c
}
