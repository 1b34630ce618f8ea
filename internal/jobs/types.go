// Package jobs defines asynchronous statement-parse jobs. The parser
// itself is single-shot and stateless; queuing multiple uploads is the
// caller's concern, and this package is that caller.
package jobs

import (
	"context"
	"time"

	"github.com/ametlin/budgetlens/internal/domain"
)

// Status represents the current status of a job.
type Status string

const (
	// StatusPending indicates the job is waiting to be processed.
	StatusPending Status = "pending"
	// StatusRunning indicates the job is currently being processed.
	StatusRunning Status = "running"
	// StatusCompleted indicates the job completed successfully.
	StatusCompleted Status = "completed"
	// StatusFailed indicates the job failed.
	StatusFailed Status = "failed"
)

// ParseStatementJob carries one uploaded statement file through the
// parse worker. Data holds the raw file content until the parse runs and
// is cleared afterwards; Transactions holds the result on completion.
type ParseStatementJob struct {
	// ID is the unique identifier for this job.
	ID string `json:"id"`

	// Filename is the uploaded file's name, used for format dispatch.
	Filename string `json:"filename"`

	// Data is the raw file content. Never serialized.
	Data []byte `json:"-"`

	// Status is the current status of the job.
	Status Status `json:"status"`

	// Error contains the failure message if the job failed.
	Error string `json:"error,omitempty"`

	// Transactions holds the parse result once the job completes.
	Transactions []domain.Transaction `json:"transactions,omitempty"`

	// CreatedAt is when the job was enqueued.
	CreatedAt time.Time `json:"created_at"`

	// StartedAt is when the job started processing.
	StartedAt *time.Time `json:"started_at,omitempty"`

	// CompletedAt is when the job finished (success or failure).
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// Publisher enqueues parse jobs.
type Publisher interface {
	// PublishParse enqueues a statement parse job.
	PublishParse(ctx context.Context, job *ParseStatementJob) error

	// Close closes the publisher and releases resources.
	Close() error
}

// Consumer processes enqueued jobs.
type Consumer interface {
	// Start begins consuming jobs; the handler is called for each one.
	Start(ctx context.Context, handler Handler) error

	// Stop stops consuming and waits for in-flight jobs to finish.
	Stop(ctx context.Context) error
}

// Handler processes a single job. On success it fills in the job's
// Transactions; the returned error becomes the job's failure message.
// Parsing never retries: a statement that failed to parse will fail the
// same way again.
type Handler func(ctx context.Context, job *ParseStatementJob) error

// Store tracks job state so callers can poll for results.
type Store interface {
	// SaveJob saves or updates a job's state.
	SaveJob(ctx context.Context, job *ParseStatementJob) error

	// GetJob retrieves a job by ID.
	GetJob(ctx context.Context, id string) (*ParseStatementJob, error)
}
