package async

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/camelot-go/camelot"
	"github.com/joseph-ayodele/camelot-go/constants"
)

// Job is one document to extract.
type Job struct {
	ID          uuid.UUID
	Options     camelot.Options
	SubmittedAt time.Time
	TraceID     string
}

// NewJob stamps opts with a fresh ID and submission time.
func NewJob(opts camelot.Options) Job {
	id := uuid.New()
	return Job{
		ID:          id,
		Options:     opts,
		SubmittedAt: time.Now(),
		TraceID:     id.String(),
	}
}

// Outcome reports a finished job to the queue's handler.
type Outcome struct {
	Job      Job
	Status   constants.JobStatus
	Result   *camelot.Result
	Err      error
	Duration time.Duration
}

type Queue interface {
	Enqueue(ctx context.Context, job Job) error
	Shutdown(ctx context.Context)
}
